package storage_test

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/leengari/parquery/internal/domain/errors"
	"github.com/leengari/parquery/internal/domain/schema"
	"github.com/leengari/parquery/internal/query/operations/testutil"
	"github.com/leengari/parquery/internal/storage"
)

func newInspector(cacheSize int) *storage.Inspector {
	return storage.NewInspector(cacheSize, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestInspect_Schema(t *testing.T) {
	path := testutil.WriteTable(t, testutil.MakeEvents(25), 10)

	meta, err := newInspector(4).Inspect(path)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}

	want := []struct {
		name     string
		typ      schema.LogicalType
		nullable bool
	}{
		{"id", schema.TypeInteger, false},
		{"name", schema.TypeString, false},
		{"score", schema.TypeFloat, false},
		{"active", schema.TypeBoolean, false},
		{"note", schema.TypeString, true},
		{"rating", schema.TypeFloat, true},
	}

	if len(meta.Columns) != len(want) {
		t.Fatalf("Expected %d columns, got %d", len(want), len(meta.Columns))
	}
	for i, w := range want {
		col := meta.Columns[i]
		if col.Name != w.name || col.Type != w.typ || col.Nullable != w.nullable {
			t.Errorf("Column %d: got %s/%s/nullable=%t, expected %s/%s/nullable=%t",
				i, col.Name, col.Type, col.Nullable, w.name, w.typ, w.nullable)
		}
	}

	if meta.RowCount != 25 {
		t.Errorf("Expected 25 rows, got %d", meta.RowCount)
	}
	if meta.FileSizeBytes <= 0 {
		t.Errorf("Expected a positive file size, got %d", meta.FileSizeBytes)
	}
}

func TestInspect_RowGroupLayout(t *testing.T) {
	path := testutil.WriteTable(t, testutil.MakeEvents(25), 10)

	meta, err := newInspector(4).Inspect(path)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}

	if len(meta.RowGroups) != 3 {
		t.Fatalf("Expected 3 row groups, got %d", len(meta.RowGroups))
	}

	wantNumRows := []int64{10, 10, 5}
	startRow := int64(0)
	for i, group := range meta.RowGroups {
		if group.Index != i || group.StartRow != startRow || group.NumRows != wantNumRows[i] {
			t.Errorf("Group %d: index=%d start=%d rows=%d, expected index=%d start=%d rows=%d",
				i, group.Index, group.StartRow, group.NumRows, i, startRow, wantNumRows[i])
		}
		startRow += group.NumRows
	}
}

func TestInspect_ColumnStatistics(t *testing.T) {
	path := testutil.WriteTable(t, testutil.MakeEvents(30), 10)

	meta, err := newInspector(4).Inspect(path)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}

	stats, ok := meta.RowGroups[1].Columns["id"]
	if !ok {
		t.Fatalf("Group 1 missing id statistics entry")
	}
	if !stats.HasBounds {
		t.Fatalf("Expected id bounds on group 1")
	}
	if stats.Min != int64(10) || stats.Max != int64(19) {
		t.Errorf("Group 1 id bounds: got [%v, %v], expected [10, 19]", stats.Min, stats.Max)
	}
}

func TestOpen_FileNotFound(t *testing.T) {
	_, err := newInspector(4).Open(filepath.Join(t.TempDir(), "missing.parquet"))
	if !errors.IsKind(err, errors.KindFileNotFound) {
		t.Errorf("Expected FileNotFound, got %v", err)
	}
}

func TestOpen_NotATableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("this is not a parquet file at all"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, err := newInspector(4).Open(path)
	if !errors.IsKind(err, errors.KindNotATableFile) {
		t.Errorf("Expected NotATableFile, got %v", err)
	}
}

func TestOpen_TruncatedMagicOnly(t *testing.T) {
	// Leading magic alone is shorter than any decodable file.
	path := filepath.Join(t.TempDir(), "stub.parquet")
	if err := os.WriteFile(path, []byte("PAR1"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, err := newInspector(4).Open(path)
	if !errors.IsKind(err, errors.KindNotATableFile) {
		t.Errorf("Expected NotATableFile, got %v", err)
	}
}

func TestOpen_CorruptFooter(t *testing.T) {
	// Valid leading magic, garbage footer: the file claims the format
	// but its metadata cannot be decoded.
	path := filepath.Join(t.TempDir(), "broken.parquet")
	content := append([]byte("PAR1"), bytes.Repeat([]byte{0xAB}, 64)...)
	content = append(content, []byte("PAR1")...)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, err := newInspector(4).Open(path)
	if !errors.IsKind(err, errors.KindCorruptMetadata) {
		t.Errorf("Expected CorruptMetadata, got %v", err)
	}
}

func TestOpen_Directory(t *testing.T) {
	_, err := newInspector(4).Open(t.TempDir())
	if !errors.IsKind(err, errors.KindNotATableFile) {
		t.Errorf("Expected NotATableFile for a directory, got %v", err)
	}
}

func TestInspect_CachesUnchangedFile(t *testing.T) {
	path := testutil.WriteTable(t, testutil.MakeEvents(10), 0)
	in := newInspector(4)

	first, err := in.Inspect(path)
	if err != nil {
		t.Fatalf("first Inspect failed: %v", err)
	}
	second, err := in.Inspect(path)
	if err != nil {
		t.Fatalf("second Inspect failed: %v", err)
	}

	// Unchanged file: the cached metadata object is served as-is.
	if first != second {
		t.Errorf("Expected the cached metadata instance on the second inspect")
	}
}

func TestInspect_RewrittenFileNotServedStale(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "table.parquet")

	copyFile := func(from string) {
		t.Helper()
		content, err := os.ReadFile(from)
		if err != nil {
			t.Fatalf("read fixture: %v", err)
		}
		if err := os.WriteFile(path, content, 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}

	copyFile(testutil.WriteTable(t, testutil.MakeEvents(10), 0))
	in := newInspector(4)

	meta, err := in.Inspect(path)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if meta.RowCount != 10 {
		t.Fatalf("Expected 10 rows, got %d", meta.RowCount)
	}

	// Rewrite the file in place with different contents; the size-keyed
	// cache entry no longer applies.
	copyFile(testutil.WriteTable(t, testutil.MakeEvents(37), 0))

	meta, err = in.Inspect(path)
	if err != nil {
		t.Fatalf("Inspect after rewrite failed: %v", err)
	}
	if meta.RowCount != 37 {
		t.Errorf("Served stale metadata: expected 37 rows, got %d", meta.RowCount)
	}
}
