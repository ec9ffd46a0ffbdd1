package operations_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/leengari/parquery/internal/domain/data"
	"github.com/leengari/parquery/internal/domain/schema"
	"github.com/leengari/parquery/internal/planner/predicate"
	"github.com/leengari/parquery/internal/query/operations/testutil"
	"github.com/leengari/parquery/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// openTable writes the events to a fixture file and opens it, closing on
// test cleanup.
func openTable(t *testing.T, events []testutil.Event, groupSize int) *storage.TableFile {
	t.Helper()

	path := testutil.WriteTable(t, events, groupSize)
	tf, err := storage.NewInspector(4, testLogger()).Open(path)
	if err != nil {
		t.Fatalf("open fixture table: %v", err)
	}
	t.Cleanup(func() { tf.Close() })
	return tf
}

func mustFilter(t *testing.T, raw string, meta *schema.TableMetadata) predicate.Predicate {
	t.Helper()
	p, err := predicate.Compile([]byte(raw), meta)
	if err != nil {
		t.Fatalf("compile filter %s: %v", raw, err)
	}
	return p
}

// rowIDs extracts the id column of each returned row, in order.
func rowIDs(t *testing.T, rows []data.Row) []int64 {
	t.Helper()
	ids := make([]int64, len(rows))
	for i, row := range rows {
		id, ok := row["id"].(int64)
		if !ok {
			t.Fatalf("row %d: id is %T, expected int64", i, row["id"])
		}
		ids[i] = id
	}
	return ids
}
