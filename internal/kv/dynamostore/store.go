// Package dynamostore implements kv.Store on a DynamoDB table keyed by a
// single string partition key. Conditional writes use a version attribute.
package dynamostore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/edgard/rojitobot/internal/kv"
)

const (
	attrKey     = "pk"
	attrValue   = "val"
	attrVersion = "ver"
)

// dynamodbAPI is the subset of the DynamoDB client used by Store.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Store keeps one item per key in tableName.
type Store struct {
	api       dynamodbAPI
	tableName string
}

var _ kv.Store = (*Store)(nil)

// New creates a Store on top of api.
func New(api dynamodbAPI, tableName string) (*Store, error) {
	if api == nil {
		return nil, errors.New("dynamostore: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("dynamostore: table name must not be empty")
	}
	return &Store{api: api, tableName: tableName}, nil
}

// Get returns the value and version stored under key using a consistent read.
func (s *Store) Get(ctx context.Context, key string) (kv.Item, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			attrKey: &types.AttributeValueMemberS{Value: key},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return kv.Item{}, fmt.Errorf("dynamostore: get %q: %w", key, err)
	}
	if len(out.Item) == 0 {
		return kv.Item{}, kv.ErrNotFound
	}
	return itemToEntry(out.Item)
}

// Put writes value under key if the stored version equals expected.
func (s *Store) Put(ctx context.Context, key string, value []byte, expected int64) (int64, error) {
	next := expected + 1
	in := &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			attrKey:     &types.AttributeValueMemberS{Value: key},
			attrValue:   &types.AttributeValueMemberB{Value: value},
			attrVersion: &types.AttributeValueMemberN{Value: strconv.FormatInt(next, 10)},
		},
		ExpressionAttributeNames: map[string]string{"#k": attrKey},
	}
	if expected == 0 {
		in.ConditionExpression = aws.String("attribute_not_exists(#k)")
	} else {
		in.ConditionExpression = aws.String("#v = :expected")
		in.ExpressionAttributeNames = map[string]string{"#v": attrVersion}
		in.ExpressionAttributeValues = map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: strconv.FormatInt(expected, 10)},
		}
	}

	if _, err := s.api.PutItem(ctx, in); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return 0, kv.ErrConflict
		}
		return 0, fmt.Errorf("dynamostore: put %q: %w", key, err)
	}
	return next, nil
}

// Ping describes the table to verify credentials and reachability.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tableName)}); err != nil {
		return fmt.Errorf("dynamostore: describe table: %w", err)
	}
	return nil
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *Store) Close() error { return nil }

func itemToEntry(item map[string]types.AttributeValue) (kv.Item, error) {
	val, ok := item[attrValue].(*types.AttributeValueMemberB)
	if !ok {
		return kv.Item{}, fmt.Errorf("dynamostore: missing or invalid %q attribute", attrValue)
	}
	ver, ok := item[attrVersion].(*types.AttributeValueMemberN)
	if !ok {
		return kv.Item{}, fmt.Errorf("dynamostore: missing or invalid %q attribute", attrVersion)
	}
	version, err := strconv.ParseInt(ver.Value, 10, 64)
	if err != nil {
		return kv.Item{}, fmt.Errorf("dynamostore: parse version: %w", err)
	}
	return kv.Item{Value: val.Value, Version: version}, nil
}
