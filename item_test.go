package dynamotools

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 3, 1, 13, 4, 5, 678_900_000, time.FixedZone("CET", 3600))

	formatted := FormatTimestamp(ts)
	assert.Equal(t, "2024-03-01T12:04:05.678Z", formatted)

	parsed, err := ParseTimestamp(formatted)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(ts.Truncate(time.Millisecond)))
}

func TestStampItem(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	item := Item{
		"pk":          &types.AttributeValueMemberS{Value: "USER#1"},
		AttrUpdatedAt: &types.AttributeValueMemberS{Value: "fixed"},
	}

	stamped := stampItem(item, now)

	assert.Equal(t, "2024-03-01T12:00:00.000Z", stringAttr(stamped, AttrCreatedAt))
	assert.Equal(t, "fixed", stringAttr(stamped, AttrUpdatedAt))
	assert.Equal(t, "USER#1", stringAttr(stamped, "pk"))
	assert.NotContains(t, item, AttrCreatedAt)
}

func TestItemFromValue(t *testing.T) {
	item, err := ItemFromValue(seedUser{PK: "USER#1", SK: "PROFILE", Type: "user", Age: 7})
	require.NoError(t, err)

	assert.Equal(t, "USER#1", stringAttr(item, "pk"))
	age, ok := item["age"].(*types.AttributeValueMemberN)
	require.True(t, ok)
	assert.Equal(t, "7", age.Value)
}
