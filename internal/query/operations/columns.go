package operations

import (
	"context"
	stderrors "errors"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/leengari/parquery/internal/domain/errors"
	"github.com/leengari/parquery/internal/domain/schema"
	"github.com/leengari/parquery/internal/storage"
)

// readGroupColumns materializes the given columns of one row group into
// native value slices, nulls included. Only the listed columns are
// decoded; everything else in the group stays untouched on disk.
func readGroupColumns(tf *storage.TableFile, group *schema.RowGroup, columns []*schema.Column) (map[string][]interface{}, error) {
	rg := tf.RowGroup(group.Index)
	chunks := rg.ColumnChunks()

	out := make(map[string][]interface{}, len(columns))
	for _, col := range columns {
		values, err := readChunk(chunks[col.LeafIndex], col, group.NumRows)
		if err != nil {
			return nil, errors.NewCorruptMetadata(tf.Meta.Path,
				"failed to read column chunk in row group", err).WithGroup(group.Index, col.Name)
		}
		out[col.Name] = values
	}
	return out, nil
}

func readChunk(chunk parquet.ColumnChunk, col *schema.Column, numRows int64) ([]interface{}, error) {
	values := make([]interface{}, 0, numRows)
	buf := make([]parquet.Value, 256)

	pages := chunk.Pages()
	defer pages.Close()

	for {
		page, err := pages.ReadPage()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		reader := page.Values()
		for {
			n, err := reader.ReadValues(buf)
			for i := 0; i < n; i++ {
				values = append(values, storage.NativeValue(buf[i], col))
			}
			if stderrors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, err
			}
		}
	}

	if int64(len(values)) != numRows {
		return nil, io.ErrUnexpectedEOF
	}
	return values, nil
}

// checkContext maps a fired context onto the engine error taxonomy.
// Called between row groups so long scans stay cancellable.
func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return errors.NewTimeout()
		}
		return errors.NewCancelled()
	default:
		return nil
	}
}
