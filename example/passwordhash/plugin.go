// Package passwordhash is a DataCreatePlugin that replaces plain-text
// passwords in fixtures with bcrypt hashes before they are written.
//
// A plugin error makes the seeder write the original item, so BeforeCreate
// never fails on a password it cannot hash (bcrypt rejects anything over 72
// bytes). Such items are written with the password attribute removed instead.
package passwordhash

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sicko7947/dynamotools"
	"golang.org/x/crypto/bcrypt"
)

// DefaultAttribute is the attribute hashed when none is configured
const DefaultAttribute = "password"

// Plugin hashes one string attribute of every item
type Plugin struct {
	attribute string
	target    string
	cost      int
}

// Option configures a Plugin
type Option func(*Plugin)

// WithAttribute sets the attribute holding the plain-text password
func WithAttribute(name string) Option {
	return func(p *Plugin) {
		p.attribute = name
	}
}

// WithTarget stores the hash under a different attribute and removes the
// plain-text one
func WithTarget(name string) Option {
	return func(p *Plugin) {
		p.target = name
	}
}

// WithCost sets the bcrypt cost, clamped to bcrypt's allowed range
func WithCost(cost int) Option {
	return func(p *Plugin) {
		p.cost = min(max(cost, bcrypt.MinCost), bcrypt.MaxCost)
	}
}

// New creates a plugin hashing DefaultAttribute in place at bcrypt.DefaultCost
func New(opts ...Option) *Plugin {
	p := &Plugin{
		attribute: DefaultAttribute,
		cost:      bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.target == "" {
		p.target = p.attribute
	}
	return p
}

// BeforeCreate implements dynamotools.DataCreatePlugin. Items without a
// string password attribute are returned unchanged; items whose password
// cannot be hashed lose the attribute.
func (p *Plugin) BeforeCreate(ctx context.Context, item dynamotools.Item) (dynamotools.Item, error) {
	plain, ok := item[p.attribute].(*types.AttributeValueMemberS)
	if !ok {
		return item, nil
	}

	hash, err := p.hash(plain.Value)
	delete(item, p.attribute)
	if err != nil {
		return item, nil
	}

	item[p.target] = &types.AttributeValueMemberS{Value: hash}
	return item, nil
}

func (p *Plugin) hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), p.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", p.attribute, err)
	}
	return string(hash), nil
}

// Verify reports whether plain matches a hash written by the plugin
func Verify(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

var _ dynamotools.DataCreatePlugin = (*Plugin)(nil)
