package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrUnprocessedItems is returned when retries are exhausted with items still pending
var ErrUnprocessedItems = errors.New("unprocessed items remain")

// FlushResult holds the result of flushing one write batch
type FlushResult struct {
	TableName   string
	Batch       int
	Requests    int
	Written     int
	Unprocessed []types.WriteRequest
	Attempts    int
	DurationMs  int64
}

// Flush sends one batch of write requests for a single table and retries any
// UnprocessedItems with backoff. A BatchWriteItem error is not retried; the SDK
// has already applied its own transport retries by then.
//
// requests is handed to the client as-is and must not be reused by the caller.
func (e *Executor) Flush(ctx context.Context, tableName string, batch int, requests []types.WriteRequest) (*FlushResult, error) {
	result := &FlushResult{
		TableName: tableName,
		Batch:     batch,
		Requests:  len(requests),
	}
	if len(requests) == 0 {
		return result, nil
	}

	batchLogger := e.logger.With().
		Str("table", tableName).
		Int("batch", batch).
		Logger()

	startTime := time.Now()
	pending := requests

	for attempt := 0; attempt <= e.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := CalculateBackoff(e.config.RetryDelayMs, attempt, e.config.RetryBackoff)
			batchLogger.Warn().
				Int("attempt", attempt).
				Int("unprocessed", len(pending)).
				Dur("delay", delay).
				Msg("Retrying unprocessed items")

			if err := e.sleep(ctx, delay); err != nil {
				result.Unprocessed = pending
				result.DurationMs = time.Since(startTime).Milliseconds()
				return result, fmt.Errorf("batch %d interrupted: %w", batch, err)
			}
		}

		result.Attempts = attempt + 1

		out, err := e.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				tableName: pending,
			},
		})
		if err != nil {
			result.Unprocessed = pending
			result.DurationMs = time.Since(startTime).Milliseconds()
			return result, fmt.Errorf("batch write to %s failed: %w", tableName, err)
		}

		var left []types.WriteRequest
		if out != nil {
			left = out.UnprocessedItems[tableName]
		}
		result.Written += len(pending) - len(left)
		pending = left

		if len(pending) == 0 {
			result.DurationMs = time.Since(startTime).Milliseconds()
			batchLogger.Debug().
				Int("written", result.Written).
				Int("attempts", result.Attempts).
				Int64("duration_ms", result.DurationMs).
				Msg("Batch flushed")
			return result, nil
		}
	}

	result.Unprocessed = pending
	result.DurationMs = time.Since(startTime).Milliseconds()

	batchLogger.Error().
		Int("max_retries", e.config.MaxRetries).
		Int("unprocessed", len(pending)).
		Msg("Batch still has unprocessed items after all retries")

	return result, fmt.Errorf("batch %d: %d of %d items after %d attempts: %w",
		batch, len(pending), len(requests), result.Attempts, ErrUnprocessedItems)
}
