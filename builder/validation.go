package builder

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sicko7947/dynamotools"
	"github.com/sicko7947/dynamotools/store"
)

// ValidateItem checks that the item carries non-empty string pk and sk
// attributes, as the default table layout requires
func ValidateItem(item dynamotools.Item) error {
	for _, name := range []string{store.AttrPK, store.AttrSK} {
		if _, err := keyString(item, name); err != nil {
			return fmt.Errorf("%w, the table and %s are keyed on it", err, store.IndexGSI1)
		}
	}

	// type is optional; GSI2 only accepts it as a string
	if av, ok := item[store.AttrType]; ok {
		if _, isString := av.(*types.AttributeValueMemberS); !isString {
			return fmt.Errorf("attribute %s must be a string, %s is keyed on it", store.AttrType, store.IndexGSI2)
		}
	}

	return nil
}

// ValidateItems validates every item and rejects repeated pk/sk pairs.
// BatchWriteItem fails a whole request that writes one key twice.
func ValidateItems(items []dynamotools.Item) error {
	seen := make(map[string]int, len(items))
	for i, item := range items {
		if err := ValidateItem(item); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}

		pk, _ := keyString(item, store.AttrPK)
		sk, _ := keyString(item, store.AttrSK)
		key := pk + "\x00" + sk

		if first, dup := seen[key]; dup {
			return fmt.Errorf("item %d duplicates key of item %d (pk=%s, sk=%s)", i, first, pk, sk)
		}
		seen[key] = i
	}
	return nil
}

func keyString(item dynamotools.Item, name string) (string, error) {
	av, ok := item[name]
	if !ok {
		return "", fmt.Errorf("missing key attribute %s", name)
	}
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("key attribute %s must be a string", name)
	}
	if s.Value == "" {
		return "", fmt.Errorf("key attribute %s must not be empty", name)
	}
	return s.Value, nil
}
