// Package engine writes DynamoDB write batches and re-drives the items the
// service hands back as unprocessed.
package engine

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rs/zerolog"
)

// BatchWriteAPI is the slice of the DynamoDB client the executor needs
type BatchWriteAPI interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// Config holds retry parameters for unprocessed items
type Config struct {
	MaxRetries   int
	RetryDelayMs int
	RetryBackoff BackoffStrategy
}

// DefaultConfig provides sensible defaults
var DefaultConfig = Config{
	MaxRetries:   3,
	RetryDelayMs: 100,
	RetryBackoff: BackoffExponential,
}

// Executor flushes write batches one at a time
type Executor struct {
	client BatchWriteAPI
	logger zerolog.Logger
	config Config
	sleep  func(ctx context.Context, d time.Duration) error
}

// ExecutorOption configures the executor
type ExecutorOption func(*Executor)

// WithLogger sets a custom logger for the executor
func WithLogger(logger zerolog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithConfig sets a custom retry configuration
func WithConfig(config Config) ExecutorOption {
	return func(e *Executor) {
		e.config = config
	}
}

// WithSleep replaces the wait between retries. Tests use it to skip real delays.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) ExecutorOption {
	return func(e *Executor) {
		e.sleep = sleep
	}
}

// NewExecutor creates a batch executor.
// If no logger is provided, a default stdout logger with Info level is used.
func NewExecutor(client BatchWriteAPI, opts ...ExecutorOption) *Executor {
	defaultLogger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Logger().
		Level(zerolog.InfoLevel)

	e := &Executor{
		client: client,
		logger: defaultLogger,
		config: DefaultConfig,
		sleep:  sleepContext,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.config.MaxRetries < 0 {
		e.config.MaxRetries = 0
	}

	return e
}

// Config returns the active retry configuration
func (e *Executor) Config() Config {
	return e.config
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
