// Package dynamo wraps DynamoDB table reads and writes on plain Go maps.
package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/smithy-go"
)

// ErrItemNotFound is returned when a lookup matches no item.
var ErrItemNotFound = errors.New("dynamo: item not found")

// API is the subset of the DynamoDB client used here.
type API interface {
	dynamodb.ScanAPIClient
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

var _ API = (*dynamodb.Client)(nil)

// Item is a table record.
type Item = map[string]any

// Key identifies a record by its partition key and optional sort key.
type Key map[string]any

// Client runs table operations.
type Client struct {
	api API
}

// New creates a Client.
func New(api API) *Client {
	return &Client{api: api}
}

// TableExists reports whether a table exists.
func (c *Client) TableExists(ctx context.Context, table string) (bool, error) {
	_, err := c.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ResourceNotFoundException" {
			return false, nil
		}
		return false, fmt.Errorf("describe table %s: %w", table, err)
	}
	return true, nil
}

// Get returns the item stored under key.
func (c *Client) Get(ctx context.Context, table string, key Key) (Item, error) {
	av, err := attributevalue.MarshalMap(map[string]any(key))
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       av,
	})
	if err != nil {
		return nil, fmt.Errorf("get item from %s: %w", table, err)
	}
	if len(out.Item) == 0 {
		return nil, fmt.Errorf("%w: %v in %s", ErrItemNotFound, map[string]any(key), table)
	}
	var item Item
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return item, nil
}

// GetByPrimaryKey returns the item whose partition key pk equals value.
func (c *Client) GetByPrimaryKey(ctx context.Context, table, pk string, value any) (Item, error) {
	return c.Get(ctx, table, Key{pk: value})
}

// GetByCompositeKey returns the item with partition key pk and sort key sk.
func (c *Client) GetByCompositeKey(ctx context.Context, table, pk string, pkValue any, sk string, skValue any) (Item, error) {
	return c.Get(ctx, table, Key{pk: pkValue, sk: skValue})
}

// ScanByAttribute returns every item whose attribute equals value, reading all
// scan pages. Finding none is ErrItemNotFound.
func (c *Client) ScanByAttribute(ctx context.Context, table, attribute string, value any) ([]Item, error) {
	expr, err := expression.NewBuilder().
		WithFilter(expression.Name(attribute).Equal(expression.Value(value))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build filter: %w", err)
	}

	paginator := dynamodb.NewScanPaginator(c.api, &dynamodb.ScanInput{
		TableName:                 aws.String(table),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	var items []Item
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		var batch []Item
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal items: %w", err)
		}
		items = append(items, batch...)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no records for %s = %v in %s", ErrItemNotFound, attribute, value, table)
	}
	return items, nil
}

// Put writes record, replacing any item with the same key. record may be a
// map or a struct with dynamodbav tags.
func (c *Client) Put(ctx context.Context, table string, record any) error {
	av, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if _, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("put item in %s: %w", table, err)
	}
	return nil
}

// Delete removes the item stored under key.
func (c *Client) Delete(ctx context.Context, table string, key Key) error {
	av, err := attributevalue.MarshalMap(map[string]any(key))
	if err != nil {
		return fmt.Errorf("marshal key: %w", err)
	}
	if _, err := c.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(table),
		Key:       av,
	}); err != nil {
		return fmt.Errorf("delete item from %s: %w", table, err)
	}
	return nil
}
