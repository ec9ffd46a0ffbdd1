package storage

import (
	"io/fs"
	"log/slog"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/leengari/parquery/internal/domain/errors"
	"github.com/leengari/parquery/internal/domain/schema"
)

// TableFile is an open, read-only table file together with its metadata.
// It is request-scoped: open, use, close.
type TableFile struct {
	Meta *schema.TableMetadata

	file *os.File
	pq   *parquet.File
}

// RowGroup returns the physical row group at the given index.
func (t *TableFile) RowGroup(index int) parquet.RowGroup {
	return t.pq.RowGroups()[index]
}

func (t *TableFile) Close() error {
	return t.file.Close()
}

// Inspector opens table files and derives their metadata from the footer
// region alone; cost is independent of row count. A bounded cache keyed by
// (path, mtime, size) avoids re-deriving metadata for unchanged files.
type Inspector struct {
	cache  *MetadataCache
	logger *slog.Logger
}

func NewInspector(cacheSize int, logger *slog.Logger) *Inspector {
	return &Inspector{
		cache:  NewMetadataCache(cacheSize),
		logger: logger,
	}
}

// Inspect returns the metadata for the table file at path without reading
// any data pages.
func (in *Inspector) Inspect(path string) (*schema.TableMetadata, error) {
	tf, err := in.Open(path)
	if err != nil {
		return nil, err
	}
	defer tf.Close()
	return tf.Meta, nil
}

// Open opens the table file for reading and attaches its metadata,
// served from cache when the file is unchanged since the last request.
func (in *Inspector) Open(path string) (*TableFile, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFound(path, err)
		}
		return nil, errors.NewIOTransient(path, err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.NewIOTransient(path, err)
	}
	if stat.IsDir() {
		f.Close()
		return nil, errors.NewNotATableFile(path, fs.ErrInvalid)
	}

	if !hasTableMagic(f, stat.Size()) {
		f.Close()
		return nil, errors.NewNotATableFile(path, nil)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, errors.NewCorruptMetadata(path, "failed to decode file metadata", err)
	}

	key := CacheKey{Path: path, ModTime: stat.ModTime(), Size: stat.Size()}
	meta, ok := in.cache.Get(key)
	if !ok {
		meta, err = extractMetadata(path, pf, stat)
		if err != nil {
			f.Close()
			return nil, err
		}
		in.cache.Add(key, meta)
		in.logger.Debug("metadata derived",
			slog.String("path", path),
			slog.Int64("rows", meta.RowCount),
			slog.Int("row_groups", len(meta.RowGroups)),
		)
	}

	return &TableFile{Meta: meta, file: f, pq: pf}, nil
}

// tableMagic is the 4-byte marker framing a parquet file.
const tableMagic = "PAR1"

// hasTableMagic checks the leading magic bytes so a file in some other
// format is classified before footer decoding is attempted. Anything
// shorter than magic + footer length + magic cannot be a table file.
func hasTableMagic(f *os.File, size int64) bool {
	if size < 12 {
		return false
	}
	var head [4]byte
	if _, err := f.ReadAt(head[:], 0); err != nil {
		return false
	}
	return string(head[:]) == tableMagic
}

// extractMetadata builds the engine-level metadata from the parquet footer:
// column schema, row count, and per-row-group layout with whatever min/max
// and null-count statistics the file carries.
func extractMetadata(path string, pf *parquet.File, stat os.FileInfo) (*schema.TableMetadata, error) {
	fields := pf.Schema().Fields()
	columns := make([]schema.Column, 0, len(fields))

	for i, field := range fields {
		if !field.Leaf() {
			return nil, errors.NewUnsupportedOperation(
				"nested column groups are not supported", field.Name(),
				"flatten the table before querying")
		}
		col := schema.Column{
			Name:      field.Name(),
			Nullable:  field.Optional(),
			LeafIndex: i,
		}
		col.Type, col.Unit = logicalTypeOf(field.Type())
		columns = append(columns, col)
	}

	meta := &schema.TableMetadata{
		Path:          path,
		Columns:       columns,
		RowCount:      pf.NumRows(),
		FileSizeBytes: stat.Size(),
		ModTime:       stat.ModTime(),
	}

	startRow := int64(0)
	for gi, rg := range pf.RowGroups() {
		group := schema.RowGroup{
			Index:    gi,
			StartRow: startRow,
			NumRows:  rg.NumRows(),
			Columns:  make(map[string]schema.ColumnStats, len(columns)),
		}
		chunks := rg.ColumnChunks()
		for ci := range columns {
			if ci >= len(chunks) {
				return nil, errors.NewCorruptMetadata(path,
					"row group is missing column chunks", nil)
			}
			group.Columns[columns[ci].Name] = chunkStats(chunks[ci], &columns[ci])
		}
		meta.RowGroups = append(meta.RowGroups, group)
		startRow += rg.NumRows()
	}

	if startRow != meta.RowCount {
		return nil, errors.NewCorruptMetadata(path,
			"row group sizes do not add up to the file row count", nil)
	}

	return meta, nil
}

// chunkStats reads the statistics a column chunk carries. Bounds and null
// counts are both optional in the format, so either may be absent.
func chunkStats(chunk parquet.ColumnChunk, col *schema.Column) schema.ColumnStats {
	var stats schema.ColumnStats

	if bounded, ok := chunk.(interface {
		Bounds() (parquet.Value, parquet.Value, bool)
	}); ok {
		if min, max, ok := bounded.Bounds(); ok {
			stats.Min = NativeValue(min, col)
			stats.Max = NativeValue(max, col)
			stats.HasBounds = stats.Min != nil && stats.Max != nil
		}
	}

	if index, err := chunk.ColumnIndex(); err == nil && index != nil {
		nulls := int64(0)
		for page := 0; page < index.NumPages(); page++ {
			nulls += index.NullCount(page)
		}
		stats.NullCount = nulls
		stats.HasNullCount = true
	}

	return stats
}
