package store

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Attribute and index names of the default single-table layout
const (
	// Table attributes
	AttrPK   = "pk"
	AttrSK   = "sk"
	AttrType = "type"

	// Index names
	IndexGSI1 = "GSI1" // sk HASH, pk RANGE
	IndexGSI2 = "GSI2" // type HASH, sk RANGE

	// KeySeparator joins the segments of a composite key, e.g. USER#42
	KeySeparator = "#"
)

// Key builders for single-table design

// CompositeKey joins segments with KeySeparator: CompositeKey("USER", "42") is USER#42
func CompositeKey(segments ...string) string {
	return strings.Join(segments, KeySeparator)
}

// PrimaryKey returns the pk/sk key map for an item
func PrimaryKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		AttrPK: &types.AttributeValueMemberS{Value: pk},
		AttrSK: &types.AttributeValueMemberS{Value: sk},
	}
}
