package dynamotools

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/rs/zerolog"
	"github.com/sicko7947/dynamotools/engine"
)

// Connection defaults
const (
	DefaultRegion               = "us-east-1"
	DefaultLocalEndpoint        = "http://localhost:4566"
	DefaultLocalAccessKeyID     = "accessKeyId"
	DefaultLocalSecretAccessKey = "secretAccessKey"

	// MaxBatchSize is the DynamoDB BatchWriteItem per-request limit
	MaxBatchSize = 25
)

// Profile selects how the DynamoDB client is configured
type Profile int

const (
	// ProfileDefault uses the SDK default credential chain against DefaultRegion
	ProfileDefault Profile = iota
	// ProfileLocal points the client at a local endpoint (LocalStack, DynamoDB Local)
	ProfileLocal
)

// String returns the string representation
func (p Profile) String() string {
	switch p {
	case ProfileLocal:
		return "local"
	default:
		return "default"
	}
}

// Credentials is a static access key pair
type Credentials struct {
	AccessKeyID     string `json:"accessKeyId" yaml:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey" yaml:"secretAccessKey"`
}

// ConnectionOptions overrides the client connection, typically for local development
type ConnectionOptions struct {
	Endpoint    string       `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Region      string       `json:"region,omitempty" yaml:"region,omitempty"`
	Credentials *Credentials `json:"credentials,omitempty" yaml:"credentials,omitempty"`
}

// WithLocalDefaults fills every unset field with the local development default
func (c ConnectionOptions) WithLocalDefaults() ConnectionOptions {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.Endpoint == "" {
		c.Endpoint = DefaultLocalEndpoint
	}
	if c.Credentials == nil {
		c.Credentials = &Credentials{
			AccessKeyID:     DefaultLocalAccessKeyID,
			SecretAccessKey: DefaultLocalSecretAccessKey,
		}
	}
	return c
}

// LoadAWSConfig builds the aws.Config for a profile. ProfileDefault ignores conn
// except for its region; ProfileLocal fills conn with local defaults and pins
// static credentials and the endpoint.
func LoadAWSConfig(ctx context.Context, profile Profile, conn ConnectionOptions) (aws.Config, error) {
	var loadOpts []func(*config.LoadOptions) error

	switch profile {
	case ProfileLocal:
		conn = conn.WithLocalDefaults()
		loadOpts = append(loadOpts,
			config.WithRegion(conn.Region),
			config.WithBaseEndpoint(conn.Endpoint),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				conn.Credentials.AccessKeyID,
				conn.Credentials.SecretAccessKey,
				"",
			)),
		)
	default:
		region := conn.Region
		if region == "" {
			region = DefaultRegion
		}
		loadOpts = append(loadOpts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config for %s profile: %w", profile, err)
	}
	return cfg, nil
}

// BackoffStrategy defines retry backoff behavior for unprocessed batch items
type BackoffStrategy = engine.BackoffStrategy

const (
	BackoffLinear      = engine.BackoffLinear
	BackoffExponential = engine.BackoffExponential
	BackoffNone        = engine.BackoffNone
)

// SeedConfig holds seeding parameters
type SeedConfig struct {
	// BatchSize is clamped to 1..MaxBatchSize
	BatchSize int

	// Retry policy for UnprocessedItems
	MaxRetries   int
	RetryDelayMs int
	RetryBackoff BackoffStrategy
}

// DefaultSeedConfig provides sensible defaults
var DefaultSeedConfig = SeedConfig{
	BatchSize:    MaxBatchSize,
	MaxRetries:   3,
	RetryDelayMs: 100,
	RetryBackoff: BackoffExponential,
}

func (c SeedConfig) normalized() SeedConfig {
	if c.BatchSize <= 0 || c.BatchSize > MaxBatchSize {
		c.BatchSize = MaxBatchSize
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	return c
}

func (c SeedConfig) engineConfig() engine.Config {
	return engine.Config{
		MaxRetries:   c.MaxRetries,
		RetryDelayMs: c.RetryDelayMs,
		RetryBackoff: c.RetryBackoff,
	}
}

// Option allows functional configuration of Tools
type Option func(*Tools)

// WithLogger sets a custom logger
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Tools) {
		t.logger = logger
	}
}

// WithConnection selects ProfileLocal with conn as overrides. An empty
// ConnectionOptions{} uses the local defaults for every field.
func WithConnection(conn ConnectionOptions) Option {
	return func(t *Tools) {
		t.connection = conn
		t.profile = ProfileLocal
	}
}

// WithProfile selects the connection profile explicitly
func WithProfile(profile Profile) Option {
	return func(t *Tools) {
		t.profile = profile
	}
}

// WithClock sets the time source used for cadt/uadt
func WithClock(clock func() time.Time) Option {
	return func(t *Tools) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// WithSeedConfig sets batch size and retry behavior for seeding
func WithSeedConfig(cfg SeedConfig) Option {
	return func(t *Tools) {
		t.seedConfig = cfg
	}
}

// WithPlaceholders adds template placeholders. Keys are full tokens such as "%STAGE%".
// %TABLENAME% always resolves to the table name.
func WithPlaceholders(replacements map[string]string) Option {
	return func(t *Tools) {
		for token, value := range replacements {
			t.placeholders[token] = value
		}
	}
}

// WithTemplate replaces the built-in table definition template
func WithTemplate(def TableDefinition) Option {
	return func(t *Tools) {
		t.template = def
	}
}

// WithWaitForActive makes CreateTable wait until the table is ACTIVE and
// DeleteTable wait until it is gone, each bounded by timeout
func WithWaitForActive(timeout time.Duration) Option {
	return func(t *Tools) {
		t.waitTimeout = timeout
	}
}
