package dynamotools

import (
	"context"
	"os"
	"regexp"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
	"github.com/sicko7947/dynamotools/engine"
)

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,255}$`)

// Tools creates and deletes a DynamoDB table for tests and seeds it with fixtures.
// A Tools value holds no per-call state and may be shared across goroutines.
type Tools struct {
	tableName string
	client    DynamoDBClient
	executor  *engine.Executor
	logger    zerolog.Logger

	profile    Profile
	connection ConnectionOptions

	clock        func() time.Time
	seedConfig   SeedConfig
	placeholders map[string]string
	template     TableDefinition
	waitTimeout  time.Duration
	retrySleep   func(ctx context.Context, d time.Duration) error
}

// New creates Tools backed by a real DynamoDB client. The connection profile
// comes from WithConnection / WithProfile; with neither, the SDK default
// credential chain is used against DefaultRegion.
func New(ctx context.Context, tableName string, opts ...Option) (*Tools, error) {
	t, err := newTools(tableName, opts...)
	if err != nil {
		return nil, err
	}

	cfg, err := LoadAWSConfig(ctx, t.profile, t.connection)
	if err != nil {
		return nil, NewToolsError(ErrCodeSetup, "failed to configure DynamoDB client").
			WithTable(tableName).
			WithCause(err)
	}

	t.client = dynamodb.NewFromConfig(cfg)
	t.init()
	return t, nil
}

// NewWithClient creates Tools around an existing client, such as a mock or
// store.MemoryClient. Connection options are ignored.
func NewWithClient(client DynamoDBClient, tableName string, opts ...Option) (*Tools, error) {
	if client == nil {
		return nil, NewToolsError(ErrCodeValidation, "client is required").WithTable(tableName)
	}

	t, err := newTools(tableName, opts...)
	if err != nil {
		return nil, err
	}

	t.client = client
	t.init()
	return t, nil
}

func newTools(tableName string, opts ...Option) (*Tools, error) {
	if !tableNamePattern.MatchString(tableName) {
		return nil, NewToolsError(ErrCodeValidation,
			"table name must be 3-255 characters of a-z, A-Z, 0-9, '_', '-' or '.'").
			WithTable(tableName)
	}

	// Default logger: pretty console output, Info level
	defaultLogger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Logger().
		Level(zerolog.InfoLevel)

	t := &Tools{
		tableName:    tableName,
		logger:       defaultLogger,
		profile:      ProfileDefault,
		clock:        time.Now,
		seedConfig:   DefaultSeedConfig,
		placeholders: make(map[string]string),
		template:     DefaultTableDefinition(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

func (t *Tools) init() {
	t.placeholders[TableNamePlaceholder] = t.tableName
	t.seedConfig = t.seedConfig.normalized()

	execOpts := []engine.ExecutorOption{
		engine.WithLogger(t.logger),
		engine.WithConfig(t.seedConfig.engineConfig()),
	}
	if t.retrySleep != nil {
		execOpts = append(execOpts, engine.WithSleep(t.retrySleep))
	}
	t.executor = engine.NewExecutor(t.client, execOpts...)
}

// TableName returns the configured table name
func (t *Tools) TableName() string {
	return t.tableName
}

// Client returns the underlying DynamoDB client
func (t *Tools) Client() DynamoDBClient {
	return t.client
}

// Profile returns the connection profile in use
func (t *Tools) Profile() Profile {
	return t.profile
}

// DeleteTable deletes the table. Failures are logged and ignored since an
// absent table is the desired end state.
func (t *Tools) DeleteTable(ctx context.Context) {
	if err := t.deleteTable(ctx); err != nil {
		t.logger.Warn().
			Str("table", t.tableName).
			Err(err).
			Msg("Table may still be deleting")
	}
}

// deleteTable swallows the delete call's own error; it only reports a failed
// wait, which leaves the table in an unknown state.
func (t *Tools) deleteTable(ctx context.Context) error {
	_, err := t.client.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(t.tableName),
	})
	if err != nil {
		LogTableDeleteSkipped(t.logger, t.tableName, err)
		return nil
	}

	LogTableDeleted(t.logger, t.tableName)

	if t.waitTimeout <= 0 {
		return nil
	}

	waiter := dynamodb.NewTableNotExistsWaiter(t.client, func(o *dynamodb.TableNotExistsWaiterOptions) {
		o.MinDelay = time.Second
	})
	return waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(t.tableName),
	}, t.waitTimeout)
}

// ResolveTemplate returns the template with placeholders substituted
func (t *Tools) ResolveTemplate() (TableDefinition, error) {
	return resolveTemplate(t.template, t.placeholders)
}

// CreateTableRequest returns the request CreateTable would send. A non-nil
// custom request is returned as is; otherwise the template is resolved and
// must pass Validate.
func (t *Tools) CreateTableRequest(custom *dynamodb.CreateTableInput) (*dynamodb.CreateTableInput, error) {
	if custom != nil {
		return custom, nil
	}

	def, err := t.ResolveTemplate()
	if err != nil {
		return nil, NewToolsError(ErrCodeDefinition, "failed to resolve table template").
			WithTable(t.tableName).
			WithCause(err)
	}

	input, err := def.CreateTableInput()
	if err != nil {
		return nil, NewToolsError(ErrCodeDefinition, "invalid table template").
			WithTable(t.tableName).
			WithCause(err)
	}
	return input, nil
}

// CreateTable creates the table from custom, or from the template when custom
// is nil. A custom request is sent unchanged: no placeholders, no local
// validation. With deleteFirst the table is deleted beforehand.
//
// A failed create call (typically "table already exists") is logged and
// yields (nil, nil): repeated test runs can reuse an existing table, so a nil
// description does not by itself mean the table is missing. An invalid
// template, a cancelled context and a failed WithWaitForActive wait are
// returned.
func (t *Tools) CreateTable(ctx context.Context, deleteFirst bool, custom *dynamodb.CreateTableInput) (*types.TableDescription, error) {
	input, err := t.CreateTableRequest(custom)
	if err != nil {
		LogSetupFailed(t.logger, t.tableName, "build_request", err)
		return nil, err
	}

	if deleteFirst {
		if err := t.deleteTable(ctx); err != nil {
			LogSetupFailed(t.logger, t.tableName, "delete_first", err)
			return nil, NewToolsError(ErrCodeSetup, "table was not deleted before create").
				WithTable(t.tableName).
				WithCause(err)
		}
	}

	out, err := t.client.CreateTable(ctx, input)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			LogSetupFailed(t.logger, t.tableName, "create", err)
			return nil, NewToolsError(ErrCodeSetup, "create table interrupted").
				WithTable(t.tableName).
				WithCause(ctxErr)
		}
		LogTableCreateFailed(t.logger, t.tableName, err)
		return nil, nil
	}

	LogTableCreated(t.logger, t.tableName)

	var desc *types.TableDescription
	if out != nil {
		desc = out.TableDescription
	}

	if t.waitTimeout > 0 {
		waiter := dynamodb.NewTableExistsWaiter(t.client, func(o *dynamodb.TableExistsWaiterOptions) {
			o.MinDelay = time.Second
		})
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: input.TableName}, t.waitTimeout); err != nil {
			LogSetupFailed(t.logger, t.tableName, "wait_active", err)
			return desc, NewToolsError(ErrCodeSetup, "table did not become active").
				WithTable(t.tableName).
				WithCause(err)
		}
	}

	return desc, nil
}
