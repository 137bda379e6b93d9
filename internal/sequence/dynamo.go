package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type dynamoAPI interface {
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

type counterItem struct {
	Seq int64 `dynamodbav:"seq"`
}

// DynamoAllocator keeps one item per day keyed by dateKey.
type DynamoAllocator struct {
	client    dynamoAPI
	tableName string
}

func NewDynamoAllocator(client dynamoAPI, tableName string) *DynamoAllocator {
	if client == nil {
		panic("sequence: dynamodb client required")
	}
	return &DynamoAllocator{client: client, tableName: tableName}
}

func (a *DynamoAllocator) Allocate(ctx context.Context, forDate time.Time) (string, error) {
	key := DayKey(forDate)
	out, err := a.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(a.tableName),
		Key: map[string]types.AttributeValue{
			"dateKey": &types.AttributeValueMemberS{Value: key},
		},
		UpdateExpression: aws.String("ADD #seq :one SET #updated = :now"),
		ExpressionAttributeNames: map[string]string{
			"#seq":     "seq",
			"#updated": "updatedAt",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
			":now": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return "", unavailable("dynamodb", err)
	}

	var item counterItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return "", fmt.Errorf("sequence: decode counter: %w", err)
	}
	if item.Seq < 1 {
		return "", fmt.Errorf("sequence: counter for %s returned %d", key, item.Seq)
	}
	return Format(key, item.Seq), nil
}
