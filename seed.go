package dynamotools

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// SeedResult summarizes one seed call
type SeedResult struct {
	Table       string
	Items       int
	Batches     int
	Written     int
	Transformed int
	// Skipped counts items whose plugin returned nothing; they were written untransformed
	Skipped     int
	Unprocessed int
	Failures    []BatchFailure
}

// SeedData writes items to the table in batches of up to MaxBatchSize.
// See SeedSeq for the full contract.
func (t *Tools) SeedData(ctx context.Context, items []Item, plugin DataCreatePlugin) (SeedResult, error) {
	return t.SeedSeq(ctx, slices.Values(items), plugin)
}

// SeedSeq writes items in order. Each item is passed through plugin (if any),
// stamped with cadt/uadt (item attributes win on collision) and appended to
// the pending batch; a full batch is flushed before the next item is added and
// the remainder is flushed at the end.
//
// Batches are written sequentially. A batch that fails does not stop the
// loop: every batch is attempted, and the failures come back together as a
// *SeedError alongside a result describing what was written. A cancelled
// context stops the loop; items not yet flushed are counted as Unprocessed.
func (t *Tools) SeedSeq(ctx context.Context, items iter.Seq[Item], plugin DataCreatePlugin) (SeedResult, error) {
	startTime := time.Now()
	batchSize := t.seedConfig.BatchSize

	result := SeedResult{Table: t.tableName}
	pending := make([]types.WriteRequest, 0, batchSize)

	var ctxErr error
	for item := range items {
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break
		}

		if len(pending) >= batchSize {
			t.flush(ctx, &result, pending)
			// The executor keeps the flushed slice; start a new one
			pending = make([]types.WriteRequest, 0, batchSize)
		}

		now := t.clock()
		item = t.transform(ctx, plugin, item, result.Items, &result)

		pending = append(pending, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: stampItem(item, now)},
		})
		result.Items++
	}

	if ctxErr == nil && len(pending) > 0 {
		t.flush(ctx, &result, pending)
	} else if ctxErr != nil {
		result.Unprocessed += len(pending)
	}

	LogSeedCompleted(t.logger, t.tableName, result, time.Since(startTime))

	var seedErr error
	if len(result.Failures) > 0 {
		seedErr = &SeedError{Table: t.tableName, Failures: result.Failures}
	}
	if ctxErr != nil {
		return result, errors.Join(
			fmt.Errorf("seeding %s interrupted after %d items: %w", t.tableName, result.Items, ctxErr),
			seedErr,
		)
	}
	return result, seedErr
}

// SeedFile loads fixtures from a JSON or YAML file and seeds them
func (t *Tools) SeedFile(ctx context.Context, path string, plugin DataCreatePlugin) (SeedResult, error) {
	items, err := LoadItemsFile(path)
	if err != nil {
		return SeedResult{Table: t.tableName}, err
	}
	return t.SeedData(ctx, items, plugin)
}

// SeedValues marshals values with attributevalue and seeds them
func SeedValues[T any](ctx context.Context, t *Tools, values []T, plugin DataCreatePlugin) (SeedResult, error) {
	items, err := ItemsFromValues(values)
	if err != nil {
		return SeedResult{Table: t.tableName}, NewToolsError(ErrCodeFixture, "failed to marshal seed values").
			WithTable(t.tableName).
			WithCause(err)
	}
	return t.SeedData(ctx, items, plugin)
}

// transform runs the plugin on a copy of item so the caller's record is never
// modified. A nil result or an error keeps the original.
func (t *Tools) transform(ctx context.Context, plugin DataCreatePlugin, item Item, index int, result *SeedResult) Item {
	if plugin == nil {
		return item
	}

	transformed, err := plugin.BeforeCreate(ctx, maps.Clone(item))
	if err != nil || transformed == nil {
		LogItemTransformSkipped(t.logger, t.tableName, index, err)
		result.Skipped++
		return item
	}

	result.Transformed++
	return transformed
}

func (t *Tools) flush(ctx context.Context, result *SeedResult, requests []types.WriteRequest) {
	result.Batches++
	batch := result.Batches

	fr, err := t.executor.Flush(ctx, t.tableName, batch, requests)
	result.Written += fr.Written

	if err != nil {
		result.Unprocessed += len(fr.Unprocessed)
		result.Failures = append(result.Failures, BatchFailure{
			Batch:       batch,
			Requests:    fr.Requests,
			Written:     fr.Written,
			Unprocessed: len(fr.Unprocessed),
			Err:         err,
		})
		LogBatchFailed(t.logger, t.tableName, batch, len(fr.Unprocessed), err)
		return
	}

	LogBatchFlushed(t.logger, t.tableName, batch, fr.Written, fr.DurationMs)
}
