// Package store reads and writes records in the single DynamoDB table shared
// by every data class. Items are keyed by id (partition key) and dataClass
// (sort key).
package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/swiftbyte/backend/attr"
)

const (
	AttrID        = "id"
	AttrDataClass = "dataClass"
)

var (
	ErrNotFound         = errors.New("item not found")
	ErrConflict         = errors.New("item already exists")
	ErrNothingToUpdate  = errors.New("no attributes to update")
	errConditionChecked = errors.New("conditional check failed")
)

// DynamoAPI is the subset of the DynamoDB client used by Table
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

type Key struct {
	ID        string `dynamodbav:"id"`
	DataClass string `dynamodbav:"dataClass"`
}

func (k Key) String() string {
	return k.DataClass + "/" + k.ID
}

func (k Key) item() (attr.Item, error) {
	item, err := attributevalue.MarshalMap(k)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key %s: %w", k, err)
	}
	return item, nil
}

type Table struct {
	name   string
	client DynamoAPI
	codec  *attr.Codec
}

type Option func(t *Table)

func WithCodec(codec *attr.Codec) Option {
	return func(t *Table) {
		t.codec = codec
	}
}

func New(client DynamoAPI, tableName string, opts ...Option) *Table {
	t := &Table{
		name:   tableName,
		client: client,
		codec:  attr.NewCodec(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Put writes rec as a new item. Every value of rec must be encodable, otherwise
// nothing is written and the *attr.SkipError is returned. Writing over an
// existing item returns ErrConflict.
func (t *Table) Put(ctx context.Context, key Key, rec attr.Record) error {
	encoded := t.codec.Encode(rec)
	if err := encoded.Err(); err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	keyItem, err := key.item()
	if err != nil {
		return err
	}
	item := encoded.Value
	maps.Copy(item, keyItem)

	cond, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(AttrID))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build put condition: %w", err)
	}

	_, err = t.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{{
			Put: &types.Put{
				TableName:                aws.String(t.name),
				Item:                     item,
				ConditionExpression:      cond.Condition(),
				ExpressionAttributeNames: cond.Names(),
			},
		}},
	})
	if err = classify(err); err != nil {
		if errors.Is(err, errConditionChecked) {
			return fmt.Errorf("failed to put %s: %w", key, ErrConflict)
		}
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

// Get reads a single item. Values which cannot be decoded are reported on the
// result rather than failing the read.
func (t *Table) Get(ctx context.Context, key Key) (attr.Result[attr.Record], error) {
	keyItem, err := key.item()
	if err != nil {
		return attr.Result[attr.Record]{}, err
	}

	out, err := t.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(t.name),
		Key:            keyItem,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return attr.Result[attr.Record]{}, fmt.Errorf("failed to get %s: %w", key, classify(err))
	}
	if len(out.Item) == 0 {
		return attr.Result[attr.Record]{}, fmt.Errorf("failed to get %s: %w", key, ErrNotFound)
	}
	return t.codec.Decode(out.Item), nil
}

// Update sets each attribute of fields on an existing item. The key attributes
// are never updated. A missing item returns ErrNotFound.
func (t *Table) Update(ctx context.Context, key Key, fields attr.Record) error {
	encoded := t.codec.Encode(fields)
	if err := encoded.Err(); err != nil {
		return fmt.Errorf("failed to encode update for %s: %w", key, err)
	}
	delete(encoded.Value, AttrID)
	delete(encoded.Value, AttrDataClass)
	if len(encoded.Value) == 0 {
		return fmt.Errorf("failed to update %s: %w", key, ErrNothingToUpdate)
	}

	keyItem, err := key.item()
	if err != nil {
		return err
	}

	var update expression.UpdateBuilder
	for _, name := range slices.Sorted(maps.Keys(encoded.Value)) {
		update = update.Set(expression.Name(name), expression.Value(encoded.Value[name]))
	}
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name(AttrID))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build update for %s: %w", key, err)
	}

	_, err = t.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{{
			Update: &types.Update{
				TableName:                 aws.String(t.name),
				Key:                       keyItem,
				UpdateExpression:          expr.Update(),
				ConditionExpression:       expr.Condition(),
				ExpressionAttributeNames:  expr.Names(),
				ExpressionAttributeValues: expr.Values(),
			},
		}},
	})
	if err = classify(err); err != nil {
		if errors.Is(err, errConditionChecked) {
			return fmt.Errorf("failed to update %s: %w", key, ErrNotFound)
		}
		return fmt.Errorf("failed to update %s: %w", key, err)
	}
	return nil
}

// Scan returns every item of dataClass whose attributes equal the string
// values in filters. All pages are read. Skipped values are reported with the
// id of their item as a path prefix.
func (t *Table) Scan(ctx context.Context, dataClass string, filters map[string]string) (attr.Result[[]attr.Record], error) {
	result := attr.Result[[]attr.Record]{Value: []attr.Record{}}

	cond := expression.Name(AttrDataClass).Equal(expression.Value(dataClass))
	for _, name := range slices.Sorted(maps.Keys(filters)) {
		cond = cond.And(expression.Name(name).Equal(expression.Value(filters[name])))
	}
	expr, err := expression.NewBuilder().WithFilter(cond).Build()
	if err != nil {
		return result, fmt.Errorf("failed to build scan filter: %w", err)
	}

	paginator := dynamodb.NewScanPaginator(t.client, &dynamodb.ScanInput{
		TableName:                 aws.String(t.name),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConsistentRead:            aws.Bool(true),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return result, fmt.Errorf("failed to scan %s: %w", dataClass, classify(err))
		}
		for _, item := range page.Items {
			decoded := t.codec.Decode(item)
			result.Value = append(result.Value, decoded.Value)
			for _, skip := range decoded.Skipped {
				skip.Path = itemLabel(item) + "/" + skip.Path
				result.Skipped = append(result.Skipped, skip)
			}
		}
	}
	return result, nil
}

func itemLabel(item attr.Item) string {
	if id, ok := item[AttrID].(*types.AttributeValueMemberS); ok {
		return id.Value
	}
	return "?"
}
