package dynamotools

import (
	"fmt"
	"maps"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Item is one fixture record in DynamoDB attribute-value form
type Item = map[string]types.AttributeValue

// Derived timestamp attributes stamped on every seeded item
const (
	AttrCreatedAt = "cadt"
	AttrUpdatedAt = "uadt"
)

// TimestampLayout is ISO-8601 in UTC with millisecond precision
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t the way cadt/uadt are stored
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a cadt/uadt value
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimestampLayout, s)
}

// ItemFromValue marshals a struct or map into an Item using dynamodbav tags
func ItemFromValue(v any) (Item, error) {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fixture item: %w", err)
	}
	return item, nil
}

// ItemsFromValues marshals every value in order
func ItemsFromValues[T any](values []T) ([]Item, error) {
	items := make([]Item, 0, len(values))
	for i, v := range values {
		item, err := ItemFromValue(v)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// stampItem returns a new Item with cadt/uadt set to now and item's own
// attributes copied over them, so fixture fields win on collision.
func stampItem(item Item, now time.Time) Item {
	ts := FormatTimestamp(now)
	stamped := make(Item, len(item)+2)
	stamped[AttrCreatedAt] = &types.AttributeValueMemberS{Value: ts}
	stamped[AttrUpdatedAt] = &types.AttributeValueMemberS{Value: ts}
	maps.Copy(stamped, item)
	return stamped
}
