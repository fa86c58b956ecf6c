package dynamotools

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
)

// UniqueTableName returns prefix followed by a random suffix, so parallel test
// runs never share a table. Characters DynamoDB does not allow in table names
// are replaced with '-'.
func UniqueTableName(prefix string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_', r == '-', r == '.':
			return r
		default:
			return '-'
		}
	}, prefix)
	if clean == "" {
		clean = "test"
	}

	name := clean + "-" + uuid.NewString()
	if len(name) > 255 {
		name = name[len(name)-255:]
	}
	return name
}

// WithIsolatedTable creates a uniquely named table on client, runs fn against
// it and deletes the table when the test finishes.
func WithIsolatedTable(t testing.TB, client DynamoDBClient, prefix string, fn func(*Tools), opts ...Option) {
	t.Helper()

	tools, err := NewWithClient(client, UniqueTableName(prefix), opts...)
	if err != nil {
		t.Fatalf("failed to create tools: %v", err)
	}

	ctx := context.Background()
	desc, err := tools.CreateTable(ctx, false, nil)
	if err != nil {
		t.Fatalf("failed to create table %s: %v", tools.TableName(), err)
	}
	if desc == nil {
		t.Fatalf("table %s was not created", tools.TableName())
	}

	t.Cleanup(func() {
		tools.DeleteTable(context.Background())
	})

	fn(tools)
}
