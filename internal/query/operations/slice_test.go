package operations_test

import (
	"context"
	"testing"

	"github.com/leengari/parquery/internal/domain/errors"
	"github.com/leengari/parquery/internal/query/operations"
	"github.com/leengari/parquery/internal/query/operations/testutil"
)

func TestReadSlice_FullRange(t *testing.T) {
	tf := openTable(t, testutil.MakeEvents(10), 0)

	result, err := operations.ReadSlice(context.Background(), tf, operations.SliceRequest{
		Start: 0, End: 10, Limit: operations.NoLimit,
	})
	if err != nil {
		t.Fatalf("ReadSlice failed: %v", err)
	}

	if len(result.Rows) != 10 {
		t.Fatalf("Expected 10 rows, got %d", len(result.Rows))
	}
	for i, id := range rowIDs(t, result.Rows) {
		if id != int64(i) {
			t.Errorf("Row %d: expected id %d, got %d", i, i, id)
		}
	}
	if len(result.Columns) != 6 {
		t.Errorf("Expected all 6 columns, got %v", result.Columns)
	}
}

func TestReadSlice_RangeSpansGroups(t *testing.T) {
	tf := openTable(t, testutil.MakeEvents(100), 10)

	result, err := operations.ReadSlice(context.Background(), tf, operations.SliceRequest{
		Start: 35, End: 72, Limit: operations.NoLimit,
	})
	if err != nil {
		t.Fatalf("ReadSlice failed: %v", err)
	}

	ids := rowIDs(t, result.Rows)
	if len(ids) != 37 {
		t.Fatalf("Expected 37 rows, got %d", len(ids))
	}
	if ids[0] != 35 || ids[36] != 71 {
		t.Errorf("Expected ids 35..71, got [%d..%d]", ids[0], ids[36])
	}
}

func TestReadSlice_Projection(t *testing.T) {
	tf := openTable(t, testutil.MakeEvents(5), 0)

	result, err := operations.ReadSlice(context.Background(), tf, operations.SliceRequest{
		Start: 0, End: 5, Columns: []string{"name", "score"}, Limit: operations.NoLimit,
	})
	if err != nil {
		t.Fatalf("ReadSlice failed: %v", err)
	}

	for i, row := range result.Rows {
		if len(row) != 2 {
			t.Errorf("Row %d: expected 2 cells, got %d (%v)", i, len(row), row)
		}
		if _, ok := row["name"]; !ok {
			t.Errorf("Row %d: missing projected column name", i)
		}
		if _, ok := row["id"]; ok {
			t.Errorf("Row %d: id leaked past the projection", i)
		}
	}
}

// A filter referencing a column outside the projection is evaluated
// against the file but must not widen the returned rows.
func TestReadSlice_FilterColumnOutsideProjection(t *testing.T) {
	tf := openTable(t, testutil.MakeEvents(10), 0)

	filter := mustFilter(t, `{"column":"score","op":"less","value":5.0}`, tf.Meta)
	result, err := operations.ReadSlice(context.Background(), tf, operations.SliceRequest{
		Start: 0, End: 10, Columns: []string{"id"}, Filter: filter, Limit: operations.NoLimit,
	})
	if err != nil {
		t.Fatalf("ReadSlice failed: %v", err)
	}

	// score = id*1.5, so score < 5.0 holds for ids 0..3.
	ids := rowIDs(t, result.Rows)
	if len(ids) != 4 {
		t.Fatalf("Expected 4 rows, got %d", len(ids))
	}
	for i, row := range result.Rows {
		if _, ok := row["score"]; ok {
			t.Errorf("Row %d: filter column leaked into the projection", i)
		}
	}
}

func TestReadSlice_VacuousFilterEqualsUnfiltered(t *testing.T) {
	tf := openTable(t, testutil.MakeEvents(20), 5)

	plain, err := operations.ReadSlice(context.Background(), tf, operations.SliceRequest{
		Start: 0, End: 20, Limit: operations.NoLimit,
	})
	if err != nil {
		t.Fatalf("unfiltered ReadSlice failed: %v", err)
	}

	filter := mustFilter(t, `{"column":"id","op":"greater_equal","value":0}`, tf.Meta)
	filtered, err := operations.ReadSlice(context.Background(), tf, operations.SliceRequest{
		Start: 0, End: 20, Filter: filter, Limit: operations.NoLimit,
	})
	if err != nil {
		t.Fatalf("filtered ReadSlice failed: %v", err)
	}

	if len(plain.Rows) != len(filtered.Rows) {
		t.Fatalf("Vacuous filter changed row count: %d vs %d", len(plain.Rows), len(filtered.Rows))
	}
	plainIDs, filteredIDs := rowIDs(t, plain.Rows), rowIDs(t, filtered.Rows)
	for i := range plainIDs {
		if plainIDs[i] != filteredIDs[i] {
			t.Errorf("Row %d: id mismatch %d vs %d", i, plainIDs[i], filteredIDs[i])
		}
	}
}

func TestReadSlice_CompoundFilter(t *testing.T) {
	tf := openTable(t, testutil.MakeEvents(20), 0)

	// 0 < id and not(id > 10) selects ids 1..10.
	filter := mustFilter(t,
		`{"and":[{"column":"id","op":"greater","value":0},{"not":{"column":"id","op":"greater","value":10}}]}`,
		tf.Meta)

	result, err := operations.ReadSlice(context.Background(), tf, operations.SliceRequest{
		Start: 0, End: 20, Filter: filter, Limit: operations.NoLimit,
	})
	if err != nil {
		t.Fatalf("ReadSlice failed: %v", err)
	}

	ids := rowIDs(t, result.Rows)
	if len(ids) != 10 || ids[0] != 1 || ids[9] != 10 {
		t.Errorf("Expected ids 1..10, got %v", ids)
	}
}

func TestReadSlice_NullCellsExplicit(t *testing.T) {
	tf := openTable(t, testutil.MakeEvents(6), 0)

	result, err := operations.ReadSlice(context.Background(), tf, operations.SliceRequest{
		Start: 0, End: 6, Columns: []string{"id", "note"}, Limit: operations.NoLimit,
	})
	if err != nil {
		t.Fatalf("ReadSlice failed: %v", err)
	}

	// Every third note is null in the fixture.
	for i, row := range result.Rows {
		note, present := row["note"]
		if !present {
			t.Fatalf("Row %d: note key absent, nulls must be explicit", i)
		}
		if i%3 == 0 && note != nil {
			t.Errorf("Row %d: expected null note, got %v", i, note)
		}
		if i%3 != 0 && note == nil {
			t.Errorf("Row %d: expected non-null note", i)
		}
	}
}

func TestReadSlice_StatisticsPruning(t *testing.T) {
	tf := openTable(t, testutil.MakeEvents(200), 20)

	filter := mustFilter(t, `{"column":"id","op":"greater_equal","value":150}`, tf.Meta)
	result, err := operations.ReadSlice(context.Background(), tf, operations.SliceRequest{
		Start: 0, End: 200, Filter: filter, Limit: operations.NoLimit,
	})
	if err != nil {
		t.Fatalf("ReadSlice failed: %v", err)
	}

	ids := rowIDs(t, result.Rows)
	if len(ids) != 50 || ids[0] != 150 || ids[49] != 199 {
		t.Fatalf("Pruning changed results: got %d rows, first %d", len(ids), ids[0])
	}
	if result.GroupsPruned == 0 {
		t.Errorf("Expected ids 0..149 groups to be pruned, none were")
	}
	if result.GroupsScanned+result.GroupsPruned > 10 {
		t.Errorf("Scanned %d and pruned %d out of 10 groups",
			result.GroupsScanned, result.GroupsPruned)
	}
}

func TestReadSlice_Limit(t *testing.T) {
	tf := openTable(t, testutil.MakeEvents(50), 10)

	result, err := operations.ReadSlice(context.Background(), tf, operations.SliceRequest{
		Start: 0, End: 50, Limit: 7,
	})
	if err != nil {
		t.Fatalf("ReadSlice failed: %v", err)
	}
	if len(result.Rows) != 7 {
		t.Errorf("Expected limit of 7 rows, got %d", len(result.Rows))
	}
}

func TestReadSlice_RangeEdges(t *testing.T) {
	tf := openTable(t, testutil.MakeEvents(10), 0)
	ctx := context.Background()

	// start past the end of the file: empty result, not an error.
	result, err := operations.ReadSlice(ctx, tf, operations.SliceRequest{
		Start: 10, End: 20, Limit: operations.NoLimit,
	})
	if err != nil {
		t.Fatalf("past-the-end read failed: %v", err)
	}
	if len(result.Rows) != 0 {
		t.Errorf("Expected empty result past the end, got %d rows", len(result.Rows))
	}

	// end past the file row count clamps.
	result, err = operations.ReadSlice(ctx, tf, operations.SliceRequest{
		Start: 8, End: 100, Limit: operations.NoLimit,
	})
	if err != nil {
		t.Fatalf("clamped read failed: %v", err)
	}
	if len(result.Rows) != 2 {
		t.Errorf("Expected 2 clamped rows, got %d", len(result.Rows))
	}

	// negative start and inverted ranges are rejected.
	for _, req := range []operations.SliceRequest{
		{Start: -1, End: 5, Limit: operations.NoLimit},
		{Start: 7, End: 3, Limit: operations.NoLimit},
	} {
		if _, err := operations.ReadSlice(ctx, tf, req); !errors.IsKind(err, errors.KindInvalidRowRange) {
			t.Errorf("range [%d, %d): expected InvalidRowRange, got %v", req.Start, req.End, err)
		}
	}
}

func TestReadSlice_UnknownColumn(t *testing.T) {
	tf := openTable(t, testutil.MakeEvents(5), 0)

	_, err := operations.ReadSlice(context.Background(), tf, operations.SliceRequest{
		Start: 0, End: 5, Columns: []string{"id", "ghost"}, Limit: operations.NoLimit,
	})
	if !errors.IsKind(err, errors.KindUnknownColumn) {
		t.Fatalf("Expected UnknownColumn, got %v", err)
	}
}

func TestReadSlice_CancelledContext(t *testing.T) {
	tf := openTable(t, testutil.MakeEvents(30), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := operations.ReadSlice(ctx, tf, operations.SliceRequest{
		Start: 0, End: 30, Limit: operations.NoLimit,
	})
	if !errors.IsKind(err, errors.KindCancelled) {
		t.Errorf("Expected Cancelled, got %v", err)
	}
}
