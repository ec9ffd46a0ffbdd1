package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/leengari/parquery/internal/domain/data"
	"github.com/leengari/parquery/internal/domain/errors"
	"github.com/leengari/parquery/internal/planner/predicate"
	"github.com/leengari/parquery/internal/query/operations"
	"github.com/leengari/parquery/internal/query/payload"
	"github.com/leengari/parquery/internal/storage"
)

// Config carries the engine's injectable knobs. Zero values select the
// defaults.
type Config struct {
	MetadataCacheSize int   // cached table snapshots, default 64
	BudgetBytes       int64 // serialized response budget, default 16KiB
}

// Engine is the read-only columnar query engine behind the file tool
// surface. Every call is a pure request-scoped pipeline
// metadata -> compile -> operation -> size guard -> result; the only
// state shared between requests is the bounded metadata cache.
type Engine struct {
	inspector *storage.Inspector
	guard     payload.Guard
	logger    *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Engine {
	cacheSize := cfg.MetadataCacheSize
	if cacheSize <= 0 {
		cacheSize = 64
	}
	return &Engine{
		inspector: storage.NewInspector(cacheSize, logger),
		guard:     payload.NewGuard(cfg.BudgetBytes),
		logger:    logger,
	}
}

// Summarize reports the table file's structure from its footer alone;
// cost is independent of row count.
func (e *Engine) Summarize(ctx context.Context, path string) (*Summary, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	meta, err := e.inspector.Inspect(path)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		FilePath:      path,
		Schema:        columnInfos(meta.Columns),
		RowCount:      meta.RowCount,
		RowGroups:     len(meta.RowGroups),
		FileSizeBytes: meta.FileSizeBytes,
	}

	e.logger.Debug("summarize",
		slog.String("path", path),
		slog.Int64("rows", meta.RowCount),
	)
	return summary, nil
}

// ReadSlice returns the rows of [startRow, endRow) restricted to the
// requested columns, optionally filtered. The size guard estimates the
// payload from a sampled head of the range and rejects oversized
// requests with suggestions before the full range is materialized.
func (e *Engine) ReadSlice(ctx context.Context, path string, startRow, endRow int64, columns []string, filterJSON string) (*SliceResponse, error) {
	started := time.Now()

	tf, err := e.inspector.Open(path)
	if err != nil {
		return nil, err
	}
	defer tf.Close()

	filter, err := compileFilter(filterJSON, tf)
	if err != nil {
		return nil, err
	}

	requested := clampCount(startRow, endRow, tf.Meta.RowCount)
	if err := e.guardSlice(ctx, tf, startRow, endRow, requested, columns); err != nil {
		return nil, err
	}

	result, err := operations.ReadSlice(ctx, tf, operations.SliceRequest{
		Start:   startRow,
		End:     endRow,
		Columns: columns,
		Filter:  filter,
		Limit:   operations.NoLimit,
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("read_slice",
		slog.String("path", path),
		slog.Int64("start", startRow),
		slog.Int64("end", endRow),
		slog.Int("rows", len(result.Rows)),
		slog.Int("groups_pruned", result.GroupsPruned),
		slog.Duration("elapsed", time.Since(started)),
	)

	rows := result.Rows
	if rows == nil {
		rows = []data.Row{}
	}

	resp := &SliceResponse{
		FilePath: path,
		Rows:     rows,
		Slice: SliceInfo{
			StartRow:      startRow,
			EndRow:        endRow,
			RequestedRows: requested,
			RowsReturned:  int64(len(result.Rows)),
		},
		FilterApplied: filter != nil,
	}
	for _, name := range result.Columns {
		resp.Schema = append(resp.Schema, columnInfo(tf.Meta.Column(name)))
	}
	return resp, nil
}

// guardSlice samples the head of the candidate range, unfiltered but
// with the requested projection, and runs the size estimate against it.
func (e *Engine) guardSlice(ctx context.Context, tf *storage.TableFile, startRow, endRow, requested int64, columns []string) error {
	if requested == 0 {
		return nil
	}

	sampleLimit := requested
	if sampleLimit > payload.MaxSampleItems {
		sampleLimit = payload.MaxSampleItems
	}

	sample, err := operations.ReadSlice(ctx, tf, operations.SliceRequest{
		Start:   startRow,
		End:     endRow,
		Columns: columns,
		Limit:   sampleLimit,
	})
	if err != nil {
		return err
	}

	items := make([][]byte, 0, len(sample.Rows))
	for _, row := range sample.Rows {
		encoded, err := json.Marshal(row)
		if err != nil {
			return errors.NewCorruptMetadata(tf.Meta.Path, "row not serializable", err)
		}
		items = append(items, encoded)
	}

	return e.guard.Check(payload.Candidate{
		Start:          startRow,
		RequestedCount: requested,
		Columns:        sample.Columns,
		SampleItems:    items,
		SampleRows:     sample.Rows,
	})
}

// GetColumnPreview returns one bounded page of a single column's values,
// nulls rendered explicitly, guarded by the same size governor as slice
// reads.
func (e *Engine) GetColumnPreview(ctx context.Context, path string, column string, startIndex, maxItems int64) (*PreviewResponse, error) {
	tf, err := e.inspector.Open(path)
	if err != nil {
		return nil, err
	}
	defer tf.Close()

	result, err := operations.Preview(ctx, tf, column, startIndex, maxItems)
	if err != nil {
		return nil, err
	}

	sampleN := len(result.Values)
	if sampleN > payload.MaxSampleItems {
		sampleN = payload.MaxSampleItems
	}
	items := make([][]byte, 0, sampleN)
	for _, v := range result.Values[:sampleN] {
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, errors.NewCorruptMetadata(path, "value not serializable", err)
		}
		items = append(items, encoded)
	}
	if err := e.guard.Check(payload.Candidate{
		Start:          startIndex,
		RequestedCount: int64(len(result.Values)),
		SampleItems:    items,
	}); err != nil {
		return nil, err
	}

	e.logger.Debug("get_column_preview",
		slog.String("path", path),
		slog.String("column", column),
		slog.Int("values", len(result.Values)),
	)

	values := result.Values
	if values == nil {
		values = []interface{}{}
	}
	return &PreviewResponse{
		FilePath:   path,
		ColumnName: result.Column.Name,
		ColumnType: string(result.Column.Type),
		Values:     values,
		Pagination: Pagination{
			StartIndex:  result.StartIndex,
			EndIndex:    result.EndIndex,
			NumItems:    int64(len(values)),
			TotalValues: result.TotalValues,
			HasMore:     result.HasMore,
		},
	}, nil
}

// AggregateColumn computes one aggregate over a column with optional
// filter and row-range bounds. Zero qualifying rows is a success with a
// null value.
func (e *Engine) AggregateColumn(ctx context.Context, path string, column string, operation string, filterJSON string, startRow, endRow *int64) (*AggregateResponse, error) {
	op, err := operations.ParseAggregateOp(operation)
	if err != nil {
		return nil, err
	}

	tf, err := e.inspector.Open(path)
	if err != nil {
		return nil, err
	}
	defer tf.Close()

	filter, err := compileFilter(filterJSON, tf)
	if err != nil {
		return nil, err
	}

	start := int64(0)
	if startRow != nil {
		start = *startRow
	}
	end := tf.Meta.RowCount
	if endRow != nil {
		end = *endRow
	}

	result, err := operations.Aggregate(ctx, tf, operations.AggregateRequest{
		Column: column,
		Op:     op,
		Filter: filter,
		Start:  start,
		End:    end,
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("aggregate_column",
		slog.String("path", path),
		slog.String("column", column),
		slog.String("operation", string(op)),
		slog.Int64("count_considered", result.CountConsidered),
	)

	col := tf.Meta.Column(column)
	return &AggregateResponse{
		FilePath:        path,
		ColumnName:      column,
		ColumnType:      string(col.Type),
		Operation:       string(result.Operation),
		Value:           result.Value,
		CountConsidered: result.CountConsidered,
		NullCount:       result.NullCount,
		FilterApplied:   filter != nil,
	}, nil
}

func compileFilter(filterJSON string, tf *storage.TableFile) (predicate.Predicate, error) {
	if filterJSON == "" {
		return nil, nil
	}
	return predicate.Compile([]byte(filterJSON), tf.Meta)
}

func clampCount(start, end, total int64) int64 {
	if end > total {
		end = total
	}
	if start >= end {
		return 0
	}
	return end - start
}

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return errors.NewTimeout()
		}
		return errors.NewCancelled()
	default:
		return nil
	}
}
