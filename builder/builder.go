package builder

import (
	"errors"
	"fmt"
	"maps"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sicko7947/dynamotools"
	"github.com/sicko7947/dynamotools/store"
)

// ItemBuilder provides a fluent API for building fixture items
type ItemBuilder struct {
	item dynamotools.Item
	errs []error
}

// NewItem creates a new item builder
func NewItem(opts ...ItemOption) *ItemBuilder {
	b := &ItemBuilder{
		item: make(dynamotools.Item),
	}
	ApplyOptions(b, opts...)
	return b
}

// WithKey sets pk and sk
func (b *ItemBuilder) WithKey(pk, sk string) *ItemBuilder {
	maps.Copy(b.item, store.PrimaryKey(pk, sk))
	return b
}

// WithEntity keys the item in the single-table style: pk is ENTITY#id, sk is
// the joined sk segments (ENTITY when none are given) and type is entity.
func (b *ItemBuilder) WithEntity(entity, id string, sk ...string) *ItemBuilder {
	if len(sk) == 0 {
		sk = []string{entity}
	}
	return b.WithKey(store.CompositeKey(entity, id), store.CompositeKey(sk...)).WithType(entity)
}

// WithPK sets the partition key
func (b *ItemBuilder) WithPK(pk string) *ItemBuilder {
	return b.WithAttribute(store.AttrPK, &types.AttributeValueMemberS{Value: pk})
}

// WithSK sets the sort key
func (b *ItemBuilder) WithSK(sk string) *ItemBuilder {
	return b.WithAttribute(store.AttrSK, &types.AttributeValueMemberS{Value: sk})
}

// WithType sets the entity type used by GSI2
func (b *ItemBuilder) WithType(entityType string) *ItemBuilder {
	return b.WithAttribute(store.AttrType, &types.AttributeValueMemberS{Value: entityType})
}

// With marshals value with attributevalue and sets it. Marshal errors are
// reported by Build.
func (b *ItemBuilder) With(name string, value any) *ItemBuilder {
	av, err := attributevalue.Marshal(value)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("attribute %s: %w", name, err))
		return b
	}
	return b.WithAttribute(name, av)
}

// WithAttribute sets a raw attribute value
func (b *ItemBuilder) WithAttribute(name string, value types.AttributeValue) *ItemBuilder {
	b.item[name] = value
	return b
}

// WithValues merges every field of a struct or map, overwriting existing attributes
func (b *ItemBuilder) WithValues(values any) *ItemBuilder {
	item, err := dynamotools.ItemFromValue(values)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	maps.Copy(b.item, item)
	return b
}

// Build validates and returns a copy of the item
func (b *ItemBuilder) Build() (dynamotools.Item, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	item := maps.Clone(b.item)
	if err := ValidateItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

// MustBuild is Build for fixtures declared in tests; it panics on error
func (b *ItemBuilder) MustBuild() dynamotools.Item {
	item, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build item: %v", err))
	}
	return item
}

// FixtureBuilder collects items for one seed call
type FixtureBuilder struct {
	builders []*ItemBuilder
}

// NewFixtures creates an empty fixture set
func NewFixtures() *FixtureBuilder {
	return &FixtureBuilder{}
}

// Add appends items in order
func (f *FixtureBuilder) Add(builders ...*ItemBuilder) *FixtureBuilder {
	f.builders = append(f.builders, builders...)
	return f
}

// Build builds every item and checks the set for duplicate keys
func (f *FixtureBuilder) Build() ([]dynamotools.Item, error) {
	items := make([]dynamotools.Item, 0, len(f.builders))
	for i, b := range f.builders {
		item, err := b.Build()
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, item)
	}

	if err := ValidateItems(items); err != nil {
		return nil, err
	}
	return items, nil
}
