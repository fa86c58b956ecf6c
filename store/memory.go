package store

import (
	"context"
	"encoding/base64"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// maxBatchWriteRequests is the BatchWriteItem per-call limit
const maxBatchWriteRequests = 25

type memoryTable struct {
	description types.TableDescription
	hashKey     string
	rangeKey    string
	items       map[string]map[string]types.AttributeValue // encoded key -> item
}

// MemoryClient is an in-memory DynamoDB backend (for testing). Tables become
// ACTIVE as soon as they are created and vanish as soon as they are deleted.
type MemoryClient struct {
	tables map[string]*memoryTable
	mu     sync.RWMutex
}

// NewMemoryClient creates an empty in-memory backend
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		tables: make(map[string]*memoryTable),
	}
}

// Table operations

func (c *MemoryClient) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := aws.ToString(params.TableName)
	if name == "" {
		return nil, validationError("TableName is required")
	}

	hashKey, rangeKey, err := keyNames(params.KeySchema)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tables[name]; exists {
		return nil, &types.ResourceInUseException{
			Message: aws.String(fmt.Sprintf("Table already exists: %s", name)),
		}
	}

	table := &memoryTable{
		description: describe(params),
		hashKey:     hashKey,
		rangeKey:    rangeKey,
		items:       make(map[string]map[string]types.AttributeValue),
	}
	c.tables[name] = table

	desc := table.snapshot()
	return &dynamodb.CreateTableOutput{TableDescription: &desc}, nil
}

func (c *MemoryClient) DeleteTable(ctx context.Context, params *dynamodb.DeleteTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := aws.ToString(params.TableName)

	c.mu.Lock()
	defer c.mu.Unlock()

	table, exists := c.tables[name]
	if !exists {
		return nil, notFound(name)
	}
	delete(c.tables, name)

	desc := table.snapshot()
	desc.TableStatus = types.TableStatusDeleting
	return &dynamodb.DeleteTableOutput{TableDescription: &desc}, nil
}

func (c *MemoryClient) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := aws.ToString(params.TableName)

	c.mu.RLock()
	defer c.mu.RUnlock()

	table, exists := c.tables[name]
	if !exists {
		return nil, notFound(name)
	}

	desc := table.snapshot()
	return &dynamodb.DescribeTableOutput{Table: &desc}, nil
}

// Item operations

// BatchWriteItem applies every request or none. Requests are validated first:
// at most 25 in total, known tables, complete keys and no key written twice in
// one call. UnprocessedItems is always empty.
func (c *MemoryClient) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	total := 0
	for _, requests := range params.RequestItems {
		total += len(requests)
	}
	if total == 0 {
		return nil, validationError("RequestItems must contain at least one request")
	}
	if total > maxBatchWriteRequests {
		return nil, validationError(fmt.Sprintf(
			"Too many items requested for the BatchWriteItem call: %d, maximum is %d", total, maxBatchWriteRequests))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	type write struct {
		table *memoryTable
		key   string
		item  map[string]types.AttributeValue // nil deletes
	}
	writes := make([]write, 0, total)

	for name, requests := range params.RequestItems {
		table, exists := c.tables[name]
		if !exists {
			return nil, notFound(name)
		}

		seen := make(map[string]struct{}, len(requests))
		for _, req := range requests {
			var (
				attrs map[string]types.AttributeValue
				item  map[string]types.AttributeValue
			)
			switch {
			case req.PutRequest != nil:
				attrs = req.PutRequest.Item
				item = maps.Clone(req.PutRequest.Item)
			case req.DeleteRequest != nil:
				attrs = req.DeleteRequest.Key
			default:
				return nil, validationError("WriteRequest must contain a PutRequest or a DeleteRequest")
			}

			key, err := table.encodeKey(attrs)
			if err != nil {
				return nil, err
			}
			if _, dup := seen[key]; dup {
				return nil, validationError("Provided list of item keys contains duplicates")
			}
			seen[key] = struct{}{}

			writes = append(writes, write{table: table, key: key, item: item})
		}
	}

	for _, w := range writes {
		if w.item == nil {
			delete(w.table.items, w.key)
			continue
		}
		w.table.items[w.key] = w.item
	}

	return &dynamodb.BatchWriteItemOutput{
		UnprocessedItems: map[string][]types.WriteRequest{},
	}, nil
}

func (c *MemoryClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := aws.ToString(params.TableName)

	c.mu.RLock()
	defer c.mu.RUnlock()

	table, exists := c.tables[name]
	if !exists {
		return nil, notFound(name)
	}

	key, err := table.encodeKey(params.Key)
	if err != nil {
		return nil, err
	}

	item, ok := table.items[key]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: maps.Clone(item)}, nil
}

// Scan returns every item in key order. Filters and pagination are not supported.
func (c *MemoryClient) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items, err := c.Items(aws.ToString(params.TableName))
	if err != nil {
		return nil, err
	}

	return &dynamodb.ScanOutput{
		Items:        items,
		Count:        int32(len(items)),
		ScannedCount: int32(len(items)),
	}, nil
}

// Inspection helpers

// Items returns copies of every item in the table, ordered by key
func (c *MemoryClient) Items(tableName string) ([]map[string]types.AttributeValue, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	table, exists := c.tables[tableName]
	if !exists {
		return nil, notFound(tableName)
	}

	keys := slices.Sorted(maps.Keys(table.items))
	items := make([]map[string]types.AttributeValue, 0, len(keys))
	for _, k := range keys {
		items = append(items, maps.Clone(table.items[k]))
	}
	return items, nil
}

// ItemCount returns the number of items in the table, or 0 if it does not exist
func (c *MemoryClient) ItemCount(tableName string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	table, exists := c.tables[tableName]
	if !exists {
		return 0
	}
	return len(table.items)
}

// TableNames returns the names of all tables, sorted
func (c *MemoryClient) TableNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Sorted(maps.Keys(c.tables))
}

// Helpers

func (t *memoryTable) snapshot() types.TableDescription {
	desc := t.description
	desc.ItemCount = aws.Int64(int64(len(t.items)))
	return desc
}

// encodeKey renders the key attributes of item as a map key
func (t *memoryTable) encodeKey(item map[string]types.AttributeValue) (string, error) {
	hash, err := encodeKeyValue(t.hashKey, item[t.hashKey])
	if err != nil {
		return "", err
	}
	if t.rangeKey == "" {
		return hash, nil
	}

	rng, err := encodeKeyValue(t.rangeKey, item[t.rangeKey])
	if err != nil {
		return "", err
	}
	return hash + "|" + rng, nil
}

func encodeKeyValue(name string, av types.AttributeValue) (string, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		if v.Value == "" {
			return "", validationError(fmt.Sprintf("key attribute %s must not be empty", name))
		}
		return "S:" + v.Value, nil
	case *types.AttributeValueMemberN:
		return "N:" + v.Value, nil
	case *types.AttributeValueMemberB:
		return "B:" + base64.StdEncoding.EncodeToString(v.Value), nil
	case nil:
		return "", validationError(fmt.Sprintf("missing key attribute %s", name))
	default:
		return "", validationError(fmt.Sprintf("key attribute %s must be a string, number or binary", name))
	}
}

func keyNames(schema []types.KeySchemaElement) (hash, rng string, err error) {
	for _, k := range schema {
		switch k.KeyType {
		case types.KeyTypeHash:
			if hash != "" {
				return "", "", validationError("KeySchema has more than one HASH key")
			}
			hash = aws.ToString(k.AttributeName)
		case types.KeyTypeRange:
			if rng != "" {
				return "", "", validationError("KeySchema has more than one RANGE key")
			}
			rng = aws.ToString(k.AttributeName)
		default:
			return "", "", validationError(fmt.Sprintf("invalid KeyType %q", k.KeyType))
		}
	}
	if hash == "" {
		return "", "", validationError("KeySchema needs a HASH key")
	}
	return hash, rng, nil
}

func describe(params *dynamodb.CreateTableInput) types.TableDescription {
	name := aws.ToString(params.TableName)

	desc := types.TableDescription{
		TableName:            aws.String(name),
		TableArn:             aws.String("arn:aws:dynamodb:local:000000000000:table/" + name),
		TableStatus:          types.TableStatusActive,
		CreationDateTime:     aws.Time(time.Now()),
		KeySchema:            slices.Clone(params.KeySchema),
		AttributeDefinitions: slices.Clone(params.AttributeDefinitions),
		StreamSpecification:  params.StreamSpecification,
	}

	if params.BillingMode != "" {
		desc.BillingModeSummary = &types.BillingModeSummary{BillingMode: params.BillingMode}
	}

	for _, gsi := range params.GlobalSecondaryIndexes {
		desc.GlobalSecondaryIndexes = append(desc.GlobalSecondaryIndexes, types.GlobalSecondaryIndexDescription{
			IndexName:   gsi.IndexName,
			KeySchema:   slices.Clone(gsi.KeySchema),
			Projection:  gsi.Projection,
			IndexStatus: types.IndexStatusActive,
		})
	}
	for _, lsi := range params.LocalSecondaryIndexes {
		desc.LocalSecondaryIndexes = append(desc.LocalSecondaryIndexes, types.LocalSecondaryIndexDescription{
			IndexName:  lsi.IndexName,
			KeySchema:  slices.Clone(lsi.KeySchema),
			Projection: lsi.Projection,
		})
	}

	return desc
}

func notFound(table string) error {
	return &types.ResourceNotFoundException{
		Message: aws.String(fmt.Sprintf("Requested resource not found: Table: %s not found", table)),
	}
}

func validationError(msg string) error {
	return &smithy.GenericAPIError{
		Code:    "ValidationException",
		Message: msg,
		Fault:   smithy.FaultClient,
	}
}
