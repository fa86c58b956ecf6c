package dynamotools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sicko7947/dynamotools/engine"
	"github.com/sicko7947/dynamotools/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItems(n int) []Item {
	items := make([]Item, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, Item{
			"pk":   &types.AttributeValueMemberS{Value: "USER#" + strconv.Itoa(i)},
			"sk":   &types.AttributeValueMemberS{Value: "PROFILE"},
			"type": &types.AttributeValueMemberS{Value: "user"},
		})
	}
	return items
}

func newSeedTools(t *testing.T, client DynamoDBClient, opts ...Option) *Tools {
	t.Helper()
	opts = append([]Option{quietLogger(), withSleep(noSleep)}, opts...)
	tools, err := NewWithClient(client, "orders-test", opts...)
	require.NoError(t, err)
	return tools
}

func TestSeedData_BatchCount(t *testing.T) {
	tests := []struct {
		items   int
		batches []int
	}{
		{items: 0, batches: []int{}},
		{items: 1, batches: []int{1}},
		{items: 24, batches: []int{24}},
		{items: 25, batches: []int{25}},
		{items: 26, batches: []int{25, 1}},
		{items: 30, batches: []int{25, 5}},
		{items: 50, batches: []int{25, 25}},
		{items: 51, batches: []int{25, 25, 1}},
		{items: 100, batches: []int{25, 25, 25, 25}},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.items), func(t *testing.T) {
			client := &mockDynamoDBClient{}
			tools := newSeedTools(t, client)

			result, err := tools.SeedData(context.Background(), testItems(tt.items), nil)
			require.NoError(t, err)

			assert.Equal(t, tt.batches, client.batchSizes("orders-test"))
			assert.Equal(t, tt.items, result.Items)
			assert.Equal(t, tt.items, result.Written)
			assert.Equal(t, len(tt.batches), result.Batches)
			assert.Empty(t, result.Failures)
		})
	}
}

func TestSeedData_PreservesOrder(t *testing.T) {
	client := &mockDynamoDBClient{}
	tools := newSeedTools(t, client)

	_, err := tools.SeedData(context.Background(), testItems(30), nil)
	require.NoError(t, err)

	written := client.written("orders-test")
	require.Len(t, written, 30)
	for i, item := range written {
		assert.Equal(t, "USER#"+strconv.Itoa(i), stringAttr(item, "pk"))
	}
}

func TestSeedData_BatchSizeConfig(t *testing.T) {
	client := &mockDynamoDBClient{}
	tools := newSeedTools(t, client, WithSeedConfig(SeedConfig{BatchSize: 10}))

	_, err := tools.SeedData(context.Background(), testItems(25), nil)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 10, 5}, client.batchSizes("orders-test"))
}

func TestSeedData_Timestamps(t *testing.T) {
	client := &mockDynamoDBClient{}
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tools := newSeedTools(t, client, WithClock(fakeClock(start, time.Millisecond)))

	_, err := tools.SeedData(context.Background(), testItems(30), nil)
	require.NoError(t, err)

	written := client.written("orders-test")
	require.Len(t, written, 30)

	var previous time.Time
	for i, item := range written {
		cadt := stringAttr(item, AttrCreatedAt)
		uadt := stringAttr(item, AttrUpdatedAt)
		assert.Equal(t, cadt, uadt, "item %d", i)

		ts, err := ParseTimestamp(cadt)
		require.NoError(t, err, "item %d", i)
		assert.False(t, ts.Before(previous), "item %d timestamp went backwards", i)
		previous = ts
	}

	assert.Equal(t, "2024-03-01T12:00:00.000Z", stringAttr(written[0], AttrCreatedAt))
	assert.Equal(t, "2024-03-01T12:00:00.029Z", stringAttr(written[29], AttrCreatedAt))
}

func TestSeedData_FixtureFieldsWinOverTimestamps(t *testing.T) {
	client := &mockDynamoDBClient{}
	tools := newSeedTools(t, client)

	items := testItems(1)
	items[0][AttrCreatedAt] = &types.AttributeValueMemberS{Value: "2020-01-01T00:00:00.000Z"}

	_, err := tools.SeedData(context.Background(), items, nil)
	require.NoError(t, err)

	written := client.written("orders-test")
	require.Len(t, written, 1)
	assert.Equal(t, "2020-01-01T00:00:00.000Z", stringAttr(written[0], AttrCreatedAt))
	assert.NotEqual(t, "2020-01-01T00:00:00.000Z", stringAttr(written[0], AttrUpdatedAt))
}

func TestSeedData_PluginAugmentsItems(t *testing.T) {
	client := &mockDynamoDBClient{}
	tools := newSeedTools(t, client)

	plugin := PluginFunc(func(ctx context.Context, item Item) (Item, error) {
		item["status"] = &types.AttributeValueMemberS{Value: "active"}
		return item, nil
	})

	result, err := tools.SeedData(context.Background(), testItems(3), plugin)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Transformed)
	assert.Equal(t, 0, result.Skipped)

	for _, item := range client.written("orders-test") {
		assert.Equal(t, "active", stringAttr(item, "status"))
		assert.NotEmpty(t, stringAttr(item, AttrCreatedAt))
	}
}

func TestSeedData_PluginReturningNilKeepsOriginal(t *testing.T) {
	client := &mockDynamoDBClient{}
	tools := newSeedTools(t, client)

	plugin := PluginFunc(func(ctx context.Context, item Item) (Item, error) {
		if stringAttr(item, "pk") == "USER#1" {
			// Changes to the input must not leak when nothing is returned
			delete(item, "type")
			return nil, nil
		}
		item["status"] = &types.AttributeValueMemberS{Value: "active"}
		return item, nil
	})

	items := testItems(3)
	result, err := tools.SeedData(context.Background(), items, plugin)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Written)
	assert.Equal(t, 2, result.Transformed)
	assert.Equal(t, 1, result.Skipped)

	written := client.written("orders-test")
	require.Len(t, written, 3)
	assert.Equal(t, "active", stringAttr(written[0], "status"))
	assert.Equal(t, "", stringAttr(written[1], "status"))
	assert.Equal(t, "user", stringAttr(written[1], "type"))
	assert.NotEmpty(t, stringAttr(written[1], AttrCreatedAt))
	assert.Equal(t, "active", stringAttr(written[2], "status"))

	// Caller's items are untouched
	assert.NotContains(t, items[0], "status")
	assert.NotContains(t, items[0], AttrCreatedAt)
	assert.Contains(t, items[1], "type")
}

func TestSeedData_PluginErrorKeepsOriginal(t *testing.T) {
	client := &mockDynamoDBClient{}
	tools := newSeedTools(t, client)

	plugin := PluginFunc(func(ctx context.Context, item Item) (Item, error) {
		return nil, errors.New("hash failed")
	})

	result, err := tools.SeedData(context.Background(), testItems(2), plugin)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Written)
	assert.Equal(t, 2, result.Skipped)
}

func TestSeedData_FailedBatchDoesNotStopSeeding(t *testing.T) {
	apiErr := errors.New("throttled")
	client := &mockDynamoDBClient{
		batchWriteItemFunc: func(call int, params *dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error) {
			if call == 2 {
				return nil, apiErr
			}
			return &dynamodb.BatchWriteItemOutput{}, nil
		},
	}
	tools := newSeedTools(t, client)

	result, err := tools.SeedData(context.Background(), testItems(60), nil)
	require.Error(t, err)

	var seedErr *SeedError
	require.ErrorAs(t, err, &seedErr)
	assert.ErrorIs(t, err, apiErr)
	assert.Equal(t, "orders-test", seedErr.Table)
	require.Len(t, seedErr.Failures, 1)
	assert.Equal(t, 2, seedErr.Failures[0].Batch)
	assert.Equal(t, 25, seedErr.Failures[0].Unprocessed)

	assert.Equal(t, []int{25, 25, 10}, client.batchSizes("orders-test"))
	assert.Equal(t, 3, result.Batches)
	assert.Equal(t, 35, result.Written)
	assert.Equal(t, 25, result.Unprocessed)
}

func TestSeedData_RetriesUnprocessedItems(t *testing.T) {
	client := &mockDynamoDBClient{
		batchWriteItemFunc: func(call int, params *dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error) {
			if call == 1 {
				requests := params.RequestItems["orders-test"]
				return &dynamodb.BatchWriteItemOutput{
					UnprocessedItems: map[string][]types.WriteRequest{
						"orders-test": requests[len(requests)-2:],
					},
				}, nil
			}
			return &dynamodb.BatchWriteItemOutput{}, nil
		},
	}
	tools := newSeedTools(t, client)

	result, err := tools.SeedData(context.Background(), testItems(5), nil)
	require.NoError(t, err)

	assert.Equal(t, []int{5, 2}, client.batchSizes("orders-test"))
	assert.Equal(t, 1, result.Batches)
	assert.Equal(t, 5, result.Written)
	assert.Equal(t, 0, result.Unprocessed)
}

func TestSeedData_UnprocessedItemsExhaustRetries(t *testing.T) {
	client := &mockDynamoDBClient{
		batchWriteItemFunc: func(call int, params *dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error) {
			return &dynamodb.BatchWriteItemOutput{
				UnprocessedItems: map[string][]types.WriteRequest{
					"orders-test": params.RequestItems["orders-test"][:1],
				},
			}, nil
		},
	}
	tools := newSeedTools(t, client, WithSeedConfig(SeedConfig{MaxRetries: 2}))

	result, err := tools.SeedData(context.Background(), testItems(3), nil)
	var seedErr *SeedError
	require.ErrorAs(t, err, &seedErr)
	assert.ErrorIs(t, err, engine.ErrUnprocessedItems)

	assert.Len(t, client.batches, 3)
	assert.Equal(t, 2, result.Written)
	assert.Equal(t, 1, result.Unprocessed)
}

func TestSeedData_ContextCancelled(t *testing.T) {
	client := &mockDynamoDBClient{}
	tools := newSeedTools(t, client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	plugin := PluginFunc(func(ctx context.Context, item Item) (Item, error) {
		if stringAttr(item, "pk") == "USER#1" {
			cancel()
		}
		return item, nil
	})

	result, err := tools.SeedData(ctx, testItems(30), plugin)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Empty(t, client.batches)
	assert.Equal(t, 2, result.Items)
	assert.Equal(t, 2, result.Unprocessed)
	assert.Equal(t, 0, result.Written)
}

type seedUser struct {
	PK    string `dynamodbav:"pk"`
	SK    string `dynamodbav:"sk"`
	Type  string `dynamodbav:"type"`
	Email string `dynamodbav:"email"`
	Age   int    `dynamodbav:"age"`
}

func TestSeedValues(t *testing.T) {
	client := &mockDynamoDBClient{}
	tools := newSeedTools(t, client)

	users := []seedUser{
		{PK: "USER#1", SK: "PROFILE", Type: "user", Email: "a@example.com", Age: 30},
		{PK: "USER#2", SK: "PROFILE", Type: "user", Email: "b@example.com", Age: 41},
	}

	result, err := SeedValues(context.Background(), tools, users, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Written)

	written := client.written("orders-test")
	require.Len(t, written, 2)
	assert.Equal(t, "b@example.com", stringAttr(written[1], "email"))
	age, ok := written[1]["age"].(*types.AttributeValueMemberN)
	require.True(t, ok)
	assert.Equal(t, "41", age.Value)
}

func TestSeedFile(t *testing.T) {
	client := &mockDynamoDBClient{}
	tools := newSeedTools(t, client)

	path := filepath.Join(t.TempDir(), "users.yaml")
	fixture := "- pk: USER#1\n  sk: PROFILE\n  type: user\n- pk: USER#2\n  sk: PROFILE\n  type: user\n"
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))

	result, err := tools.SeedFile(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Written)
}

func TestSeedFile_Missing(t *testing.T) {
	tools := newSeedTools(t, &mockDynamoDBClient{})

	_, err := tools.SeedFile(context.Background(), filepath.Join(t.TempDir(), "missing.json"), nil)
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeFixture))
}

func TestSeedData_MemoryClient(t *testing.T) {
	client := store.NewMemoryClient()
	tools := newSeedTools(t, client)
	ctx := context.Background()

	_, err := tools.CreateTable(ctx, true, nil)
	require.NoError(t, err)

	result, err := tools.SeedData(ctx, testItems(60), nil)
	require.NoError(t, err)
	assert.Equal(t, 60, result.Written)
	assert.Equal(t, 60, client.ItemCount("orders-test"))
}
