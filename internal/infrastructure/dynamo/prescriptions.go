package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pharmacart/account-api/internal/domain"
)

// PrescriptionRepo provides typed DynamoDB operations for the prescriptions table.
type PrescriptionRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewPrescriptionRepo(client *dynamodb.Client, tableName string) *PrescriptionRepo {
	return &PrescriptionRepo{client: client, tableName: tableName}
}

func (r *PrescriptionRepo) Put(ctx context.Context, p *domain.Prescription) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal prescription: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *PrescriptionRepo) Get(ctx context.Context, prescriptionID string) (*domain.Prescription, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("prescription_id", prescriptionID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("prescription not found: %w", domain.ErrNotFound)
	}
	var p domain.Prescription
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByUser returns the user's active prescriptions, newest first.
func (r *PrescriptionRepo) ListByUser(ctx context.Context, userID string) ([]domain.Prescription, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user_id-created_at-index"),
		KeyConditionExpression: aws.String("user_id = :uid"),
		FilterExpression:       aws.String("enable = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
			":t":   &types.AttributeValueMemberBOOL{Value: true},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, err
	}
	var prescriptions []domain.Prescription
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &prescriptions); err != nil {
		return nil, err
	}
	return prescriptions, nil
}

func (r *PrescriptionRepo) SoftDelete(ctx context.Context, prescriptionID string) error {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		fieldEnable:    false,
		fieldDeletedAt: now,
		"updated_at":   now.Format(time.RFC3339),
	}
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("prescription_id", prescriptionID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}
