// Package testutil writes real multi-row-group parquet fixtures for
// engine tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
)

// Event is the standard fixture row used across packages: one column of
// every logical type plus a nullable column.
type Event struct {
	ID     int64    `parquet:"id"`
	Name   string   `parquet:"name"`
	Score  float64  `parquet:"score"`
	Active bool     `parquet:"active"`
	Note   *string  `parquet:"note,optional"`
	Rating *float64 `parquet:"rating,optional"`
}

// WriteTable writes rows to a fresh parquet file under t.TempDir and
// returns its path. groupSize forces a row-group boundary every
// groupSize rows; pass 0 to keep everything in a single group.
func WriteTable[T any](t *testing.T, rows []T, groupSize int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "table.parquet")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture file: %v", err)
	}

	w := parquet.NewGenericWriter[T](f)

	if groupSize <= 0 {
		groupSize = len(rows)
	}
	if groupSize == 0 {
		groupSize = 1
	}

	for start := 0; start < len(rows); start += groupSize {
		end := start + groupSize
		if end > len(rows) {
			end = len(rows)
		}
		if _, err := w.Write(rows[start:end]); err != nil {
			t.Fatalf("write fixture rows: %v", err)
		}
		// Flush ends the current row group so statistics pruning has
		// multiple groups to work against.
		if err := w.Flush(); err != nil {
			t.Fatalf("flush fixture row group: %v", err)
		}
	}

	if err := w.Close(); err != nil {
		t.Fatalf("close fixture writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close fixture file: %v", err)
	}
	return path
}

// MakeEvents builds n deterministic events: ids 0..n-1, scores id*1.5,
// every third note null, every fourth rating null.
func MakeEvents(n int) []Event {
	events := make([]Event, n)
	for i := range events {
		events[i] = Event{
			ID:     int64(i),
			Name:   fmt.Sprintf("event-%03d", i),
			Score:  float64(i) * 1.5,
			Active: i%2 == 0,
		}
		if i%3 != 0 {
			events[i].Note = StringPtr(fmt.Sprintf("note-%d", i))
		}
		if i%4 != 0 {
			events[i].Rating = FloatPtr(float64(i) / 10)
		}
	}
	return events
}

func StringPtr(s string) *string  { return &s }
func FloatPtr(f float64) *float64 { return &f }
func IntPtr(n int64) *int64       { return &n }
