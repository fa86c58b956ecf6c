package builder

// ItemOption is a functional option for configuring items
type ItemOption func(*ItemBuilder)

// Key sets pk and sk
func Key(pk, sk string) ItemOption {
	return func(b *ItemBuilder) {
		b.WithKey(pk, sk)
	}
}

// Entity keys the item as ENTITY#id, see ItemBuilder.WithEntity
func Entity(entity, id string, sk ...string) ItemOption {
	return func(b *ItemBuilder) {
		b.WithEntity(entity, id, sk...)
	}
}

// Type sets the entity type
func Type(entityType string) ItemOption {
	return func(b *ItemBuilder) {
		b.WithType(entityType)
	}
}

// Attr sets one marshalled attribute
func Attr(name string, value any) ItemOption {
	return func(b *ItemBuilder) {
		b.With(name, value)
	}
}

// Values merges the fields of a struct or map
func Values(values any) ItemOption {
	return func(b *ItemBuilder) {
		b.WithValues(values)
	}
}

// ApplyOptions applies a list of options to a builder
func ApplyOptions(b *ItemBuilder, opts ...ItemOption) {
	for _, opt := range opts {
		opt(b)
	}
}
