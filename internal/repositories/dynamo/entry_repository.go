package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"prensa-go/internal/model"
	"prensa-go/internal/repositories"
)

var _ repositories.EntryRepository = (*EntryRepository)(nil)

// PutItemAPI is the part of *dynamodb.Client the repository needs.
type PutItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// EntryRepository stores announcements in a table keyed on title. Expiry is
// left to the table's TTL setting on the "ttl" attribute.
type EntryRepository struct {
	client PutItemAPI
	table  string
}

func NewEntryRepository(client PutItemAPI, table string) *EntryRepository {
	return &EntryRepository{client: client, table: table}
}

func (r *EntryRepository) InsertIfAbsent(ctx context.Context, record model.DedupRecord) (repositories.InsertResult, error) {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return 0, fmt.Errorf("marshal announcement: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(title)"),
	})
	var conditionFailed *types.ConditionalCheckFailedException
	if errors.As(err, &conditionFailed) {
		return repositories.AlreadyExists, nil
	}
	if err != nil {
		return 0, fmt.Errorf("put announcement: %w", err)
	}
	return repositories.Inserted, nil
}
