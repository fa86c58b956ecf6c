package dynamotools

import (
	"time"

	"github.com/rs/zerolog"
)

// Log event names
const (
	// Table lifecycle events
	EventTableCreated       = "table_created"
	EventTableCreateFailed  = "table_create_failed"
	EventTableDeleted       = "table_deleted"
	EventTableDeleteSkipped = "table_delete_skipped"
	EventSetupFailed        = "setup_failed"

	// Seeding events
	EventBatchFlushed         = "batch_flushed"
	EventBatchFailed          = "batch_failed"
	EventItemTransformSkipped = "item_transform_skipped"
	EventSeedCompleted        = "seed_completed"
)

// LogTableCreated logs a successful create-table call
func LogTableCreated(logger zerolog.Logger, table string) {
	logger.Debug().
		Str("event", EventTableCreated).
		Str("table", table).
		Msg("Table created")
}

// LogTableCreateFailed logs a create-table failure that is not surfaced to the caller
func LogTableCreateFailed(logger zerolog.Logger, table string, err error) {
	logger.Error().
		Str("event", EventTableCreateFailed).
		Str("table", table).
		Err(err).
		Msg("Error creating table, it may already exist")
}

// LogTableDeleted logs a successful delete-table call
func LogTableDeleted(logger zerolog.Logger, table string) {
	logger.Debug().
		Str("event", EventTableDeleted).
		Str("table", table).
		Msg("Table deleted")
}

// LogTableDeleteSkipped logs a delete-table failure that was ignored
func LogTableDeleteSkipped(logger zerolog.Logger, table string, err error) {
	logger.Warn().
		Str("event", EventTableDeleteSkipped).
		Str("table", table).
		Err(err).
		Msg("Tried to delete table but it may not exist, ignoring")
}

// LogSetupFailed logs a table setup failure that is returned to the caller
func LogSetupFailed(logger zerolog.Logger, table, stage string, err error) {
	logger.Error().
		Str("event", EventSetupFailed).
		Str("table", table).
		Str("stage", stage).
		Err(err).
		Msg("Test integration table setup error")
}

// LogBatchFlushed logs a fully written batch
func LogBatchFlushed(logger zerolog.Logger, table string, batch, written int, durationMs int64) {
	logger.Debug().
		Str("event", EventBatchFlushed).
		Str("table", table).
		Int("batch", batch).
		Int("written", written).
		Int64("duration_ms", durationMs).
		Msg("Batch written")
}

// LogBatchFailed logs a batch that could not be fully written
func LogBatchFailed(logger zerolog.Logger, table string, batch, unprocessed int, err error) {
	logger.Error().
		Str("event", EventBatchFailed).
		Str("table", table).
		Int("batch", batch).
		Int("unprocessed", unprocessed).
		Err(err).
		Msg("Failed batch write")
}

// LogItemTransformSkipped logs a plugin that returned no usable item
func LogItemTransformSkipped(logger zerolog.Logger, table string, index int, err error) {
	event := logger.Warn().
		Str("event", EventItemTransformSkipped).
		Str("table", table).
		Int("index", index)
	if err != nil {
		event = event.Err(err)
	}
	event.Msg("Item was not returned from BeforeCreate, ignoring updates")
}

// LogSeedCompleted logs the outcome of a seed call
func LogSeedCompleted(logger zerolog.Logger, table string, result SeedResult, duration time.Duration) {
	logger.Debug().
		Str("event", EventSeedCompleted).
		Str("table", table).
		Int("items", result.Items).
		Int("batches", result.Batches).
		Int("written", result.Written).
		Int("failed_batches", len(result.Failures)).
		Dur("duration", duration).
		Msg("Finished creating data")
}
