package dynamotools

import "context"

// DataCreatePlugin updates an item before it is written. For example, it can
// hash passwords that arrive in fixtures as plain text.
//
// Returning a nil item (or an error) keeps the original item; the failure is
// logged and seeding continues.
type DataCreatePlugin interface {
	BeforeCreate(ctx context.Context, item Item) (Item, error)
}

// PluginFunc adapts a function to DataCreatePlugin
type PluginFunc func(ctx context.Context, item Item) (Item, error)

// BeforeCreate implements DataCreatePlugin
func (f PluginFunc) BeforeCreate(ctx context.Context, item Item) (Item, error) {
	return f(ctx, item)
}

// Chain runs plugins in order, feeding each the previous result. A link that
// returns nil or an error passes its own input through to the next link.
func Chain(plugins ...DataCreatePlugin) DataCreatePlugin {
	return PluginFunc(func(ctx context.Context, item Item) (Item, error) {
		current := item
		for _, p := range plugins {
			if p == nil {
				continue
			}
			next, err := p.BeforeCreate(ctx, current)
			if err != nil || next == nil {
				continue
			}
			current = next
		}
		return current, nil
	})
}
