package dynamo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// strKey builds a DynamoDB primary key map with a single string attribute.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

// compositeKey builds a DynamoDB primary key with two string attributes (PK + SK).
func compositeKey(pkName, pkValue, skName, skValue string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		pkName: &types.AttributeValueMemberS{Value: pkValue},
		skName: &types.AttributeValueMemberS{Value: skValue},
	}
}

// updateExpr is the result of buildUpdateExpr, ready to drop into an UpdateItemInput.
type updateExpr struct {
	Expr   string
	Names  map[string]string
	Values map[string]types.AttributeValue
}

// buildUpdateExpr converts a map of field->value into a DynamoDB update
// expression. A nil value means "remove the attribute" rather than "set to
// NULL", which matters for attributes that serve as GSI keys. Keys are
// processed in sorted order so the expression is deterministic.
func buildUpdateExpr(updates map[string]interface{}) (updateExpr, error) {
	if len(updates) == 0 {
		return updateExpr{}, fmt.Errorf("no fields to update")
	}
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ue := updateExpr{
		Names: make(map[string]string, len(keys)),
	}
	var setParts, removeParts []string
	for i, k := range keys {
		nameKey := fmt.Sprintf("#f%d", i)
		ue.Names[nameKey] = k
		if updates[k] == nil {
			removeParts = append(removeParts, nameKey)
			continue
		}
		av, err := attributevalue.Marshal(updates[k])
		if err != nil {
			return updateExpr{}, fmt.Errorf("marshal field %s: %w", k, err)
		}
		if ue.Values == nil {
			ue.Values = make(map[string]types.AttributeValue, len(keys))
		}
		valueKey := fmt.Sprintf(":v%d", i)
		ue.Values[valueKey] = av
		setParts = append(setParts, fmt.Sprintf("%s = %s", nameKey, valueKey))
	}
	if len(setParts) > 0 {
		ue.Expr = "SET " + strings.Join(setParts, ", ")
	}
	if len(removeParts) > 0 {
		if ue.Expr != "" {
			ue.Expr += " "
		}
		ue.Expr += "REMOVE " + strings.Join(removeParts, ", ")
	}
	return ue, nil
}
