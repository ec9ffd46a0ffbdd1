package operations

import (
	"context"

	"github.com/leengari/parquery/internal/domain/data"
	"github.com/leengari/parquery/internal/domain/errors"
	"github.com/leengari/parquery/internal/domain/schema"
	"github.com/leengari/parquery/internal/planner/predicate"
	"github.com/leengari/parquery/internal/storage"
)

// NoLimit disables the row cap on a slice read.
const NoLimit = int64(-1)

// SliceRequest is a range-bounded, projected, optionally filtered read.
// The range is half-open [Start, End) over the absolute physical row
// order of the file.
type SliceRequest struct {
	Start   int64
	End     int64
	Columns []string            // nil means all columns
	Filter  predicate.Predicate // nil means unfiltered

	// Limit caps the number of returned rows (NoLimit for all). Used by
	// the size governor to sample the head of a candidate range without
	// materializing it whole.
	Limit int64
}

// SliceResult holds the matching rows in file order, restricted to the
// projected columns.
type SliceResult struct {
	Rows          []data.Row
	Columns       []string
	GroupsScanned int
	GroupsPruned  int
}

// ReadSlice executes the request against an open table file.
//
// Row groups are visited in file order; a group is skipped when its row
// interval does not intersect the range or when its statistics prove the
// filter cannot hold for any of its rows. Surviving groups materialize
// only the projected columns plus the filter's columns.
func ReadSlice(ctx context.Context, tf *storage.TableFile, req SliceRequest) (*SliceResult, error) {
	meta := tf.Meta

	if req.Start < 0 || req.End < req.Start {
		return nil, errors.NewInvalidRowRange(req.Start, req.End, meta.RowCount)
	}

	projected, err := resolveProjection(meta, req.Columns)
	if err != nil {
		return nil, err
	}

	result := &SliceResult{Columns: columnNames(projected)}

	// Past-the-end start is an empty result, not an error.
	end := req.End
	if end > meta.RowCount {
		end = meta.RowCount
	}
	if req.Start >= end {
		return result, nil
	}

	needed, err := resolveNeeded(meta, projected, req.Filter)
	if err != nil {
		return nil, err
	}

	for gi := range meta.RowGroups {
		group := &meta.RowGroups[gi]

		if group.EndRow() <= req.Start || group.StartRow >= end {
			continue
		}
		if req.Filter != nil && predicate.Skippable(req.Filter, group) {
			result.GroupsPruned++
			continue
		}
		if err := checkContext(ctx); err != nil {
			return nil, err
		}

		columns, err := readGroupColumns(tf, group, needed)
		if err != nil {
			return nil, err
		}
		result.GroupsScanned++

		for i := int64(0); i < group.NumRows; i++ {
			abs := group.StartRow + i
			if abs < req.Start || abs >= end {
				continue
			}

			row := make(data.Row, len(needed))
			for _, col := range needed {
				row[col.Name] = columns[col.Name][i]
			}

			if req.Filter != nil && !predicate.Matches(req.Filter, row) {
				continue
			}

			result.Rows = append(result.Rows, row.Project(result.Columns))
			if req.Limit != NoLimit && int64(len(result.Rows)) >= req.Limit {
				return result, nil
			}
		}
	}

	return result, nil
}

// resolveProjection validates the requested columns against the schema,
// defaulting to all columns in schema order.
func resolveProjection(meta *schema.TableMetadata, names []string) ([]*schema.Column, error) {
	if names == nil {
		all := make([]*schema.Column, len(meta.Columns))
		for i := range meta.Columns {
			all[i] = &meta.Columns[i]
		}
		return all, nil
	}

	cols := make([]*schema.Column, 0, len(names))
	for _, name := range names {
		col := meta.Column(name)
		if col == nil {
			return nil, errors.NewUnknownColumn(name, meta.ColumnNames())
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// resolveNeeded extends the projection with the filter's columns so the
// predicate can be evaluated row-wise.
func resolveNeeded(meta *schema.TableMetadata, projected []*schema.Column, filter predicate.Predicate) ([]*schema.Column, error) {
	if filter == nil {
		return projected, nil
	}

	needed := make([]*schema.Column, len(projected))
	copy(needed, projected)

	have := make(map[string]bool, len(projected))
	for _, col := range projected {
		have[col.Name] = true
	}

	for _, name := range predicate.Columns(filter) {
		if have[name] {
			continue
		}
		col := meta.Column(name)
		if col == nil {
			return nil, errors.NewUnknownColumn(name, meta.ColumnNames())
		}
		needed = append(needed, col)
		have[name] = true
	}
	return needed, nil
}

func columnNames(cols []*schema.Column) []string {
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.Name
	}
	return names
}
