package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pharmacart/account-api/internal/domain"
)

// LoginEventRepo provides typed DynamoDB operations for the login_events table.
// Events are append-only audit records, queried per user in reverse
// chronological order via the user_id-created_at GSI.
type LoginEventRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewLoginEventRepo(client *dynamodb.Client, tableName string) *LoginEventRepo {
	return &LoginEventRepo{client: client, tableName: tableName}
}

func (r *LoginEventRepo) Put(ctx context.Context, e *domain.LoginEvent) error {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return fmt.Errorf("marshal login event: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// ListByUser returns up to limit events for the user, newest first.
func (r *LoginEventRepo) ListByUser(ctx context.Context, userID string, limit int32) ([]domain.LoginEvent, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user_id-created_at-index"),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(limit),
	})
	if err != nil {
		return nil, err
	}
	var events []domain.LoginEvent
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &events); err != nil {
		return nil, err
	}
	return events, nil
}
