package dynamotools

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
)

// mockDynamoDBClient implements DynamoDBClient for testing and records every call
type mockDynamoDBClient struct {
	createTableFunc    func(ctx context.Context, params *dynamodb.CreateTableInput) (*dynamodb.CreateTableOutput, error)
	deleteTableFunc    func(ctx context.Context, params *dynamodb.DeleteTableInput) (*dynamodb.DeleteTableOutput, error)
	describeTableFunc  func(ctx context.Context, params *dynamodb.DescribeTableInput) (*dynamodb.DescribeTableOutput, error)
	batchWriteItemFunc func(call int, params *dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error)

	mu      sync.Mutex
	calls   []string
	creates []*dynamodb.CreateTableInput
	batches []*dynamodb.BatchWriteItemInput
}

func (m *mockDynamoDBClient) record(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, op)
}

func (m *mockDynamoDBClient) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	m.record("CreateTable")
	m.mu.Lock()
	m.creates = append(m.creates, params)
	m.mu.Unlock()

	if m.createTableFunc != nil {
		return m.createTableFunc(ctx, params)
	}
	return &dynamodb.CreateTableOutput{
		TableDescription: &types.TableDescription{
			TableName:   params.TableName,
			TableStatus: types.TableStatusCreating,
		},
	}, nil
}

func (m *mockDynamoDBClient) DeleteTable(ctx context.Context, params *dynamodb.DeleteTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error) {
	m.record("DeleteTable")
	if m.deleteTableFunc != nil {
		return m.deleteTableFunc(ctx, params)
	}
	return &dynamodb.DeleteTableOutput{}, nil
}

func (m *mockDynamoDBClient) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	m.record("DescribeTable")
	if m.describeTableFunc != nil {
		return m.describeTableFunc(ctx, params)
	}
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{
			TableName:   params.TableName,
			TableStatus: types.TableStatusActive,
		},
	}, nil
}

func (m *mockDynamoDBClient) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	m.record("BatchWriteItem")
	m.mu.Lock()
	m.batches = append(m.batches, params)
	call := len(m.batches)
	m.mu.Unlock()

	if m.batchWriteItemFunc != nil {
		return m.batchWriteItemFunc(call, params)
	}
	return &dynamodb.BatchWriteItemOutput{}, nil
}

// written returns every item sent in PutRequests, in call order
func (m *mockDynamoDBClient) written(table string) []Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	var items []Item
	for _, b := range m.batches {
		for _, req := range b.RequestItems[table] {
			if req.PutRequest != nil {
				items = append(items, req.PutRequest.Item)
			}
		}
	}
	return items
}

func (m *mockDynamoDBClient) batchSizes(table string) []int {
	m.mu.Lock()
	defer m.mu.Unlock()

	sizes := make([]int, 0, len(m.batches))
	for _, b := range m.batches {
		sizes = append(sizes, len(b.RequestItems[table]))
	}
	return sizes
}

func notFoundErr(table string) error {
	return &types.ResourceNotFoundException{Message: aws.String("Requested resource not found: " + table)}
}

func inUseErr(table string) error {
	return &types.ResourceInUseException{Message: aws.String("Table already exists: " + table)}
}

// withSleep replaces the retry backoff sleep
func withSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(t *Tools) {
		t.retrySleep = fn
	}
}

func noSleep(ctx context.Context, d time.Duration) error {
	return nil
}

// fakeClock returns start, start+step, start+2*step, ...
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(step)
		return now
	}
}

func quietLogger() Option {
	return WithLogger(zerolog.Nop())
}

func stringAttr(item Item, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}
