package operations

import (
	"context"

	"github.com/leengari/parquery/internal/domain/errors"
	"github.com/leengari/parquery/internal/domain/schema"
	"github.com/leengari/parquery/internal/storage"
)

// MaxPreviewItems caps one page of a column preview.
const MaxPreviewItems = 100

// PreviewResult is one page of values from a single column, in file
// order. Null cells are carried as explicit nil entries, never omitted,
// so indices stay aligned with absolute row offsets.
type PreviewResult struct {
	Column      *schema.Column
	Values      []interface{}
	StartIndex  int64
	EndIndex    int64
	TotalValues int64
	HasMore     bool
}

// Preview reads up to maxItems values of one column starting at
// startIndex, touching only the row groups the page intersects.
func Preview(ctx context.Context, tf *storage.TableFile, column string, startIndex, maxItems int64) (*PreviewResult, error) {
	meta := tf.Meta

	col := meta.Column(column)
	if col == nil {
		return nil, errors.NewUnknownColumn(column, meta.ColumnNames())
	}
	if startIndex < 0 {
		return nil, errors.NewInvalidRowRange(startIndex, startIndex+maxItems, meta.RowCount)
	}

	if maxItems < 1 {
		maxItems = 1
	}
	if maxItems > MaxPreviewItems {
		maxItems = MaxPreviewItems
	}

	end := startIndex + maxItems
	if end > meta.RowCount {
		end = meta.RowCount
	}

	result := &PreviewResult{
		Column:      col,
		StartIndex:  startIndex,
		EndIndex:    startIndex,
		TotalValues: meta.RowCount,
	}
	if startIndex >= meta.RowCount {
		return result, nil
	}

	needed := []*schema.Column{col}
	for gi := range meta.RowGroups {
		group := &meta.RowGroups[gi]
		if group.EndRow() <= startIndex || group.StartRow >= end {
			continue
		}
		if err := checkContext(ctx); err != nil {
			return nil, err
		}

		columns, err := readGroupColumns(tf, group, needed)
		if err != nil {
			return nil, err
		}

		values := columns[col.Name]
		for i := int64(0); i < group.NumRows; i++ {
			abs := group.StartRow + i
			if abs < startIndex || abs >= end {
				continue
			}
			result.Values = append(result.Values, values[i])
		}
	}

	result.EndIndex = end
	result.HasMore = end < meta.RowCount
	return result, nil
}
