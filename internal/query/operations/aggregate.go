package operations

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/leengari/parquery/internal/domain/data"
	"github.com/leengari/parquery/internal/domain/errors"
	"github.com/leengari/parquery/internal/domain/schema"
	"github.com/leengari/parquery/internal/planner/predicate"
	"github.com/leengari/parquery/internal/storage"
)

// AggregateOp is a single-column aggregate operation.
type AggregateOp string

const (
	AggMin           AggregateOp = "min"
	AggMax           AggregateOp = "max"
	AggSum           AggregateOp = "sum"
	AggMean          AggregateOp = "mean"
	AggCount         AggregateOp = "count"
	AggCountDistinct AggregateOp = "count_distinct"
	AggStd           AggregateOp = "std"
)

var validOps = []AggregateOp{
	AggMin, AggMax, AggSum, AggMean, AggCount, AggCountDistinct, AggStd,
}

// ParseAggregateOp validates an operation name from the wire.
func ParseAggregateOp(name string) (AggregateOp, error) {
	op := AggregateOp(strings.ToLower(name))
	for _, valid := range validOps {
		if op == valid {
			return op, nil
		}
	}
	names := make([]string, len(validOps))
	for i, v := range validOps {
		names[i] = string(v)
	}
	return "", errors.NewUnsupportedOperation(
		fmt.Sprintf("invalid aggregation operation %q", name), "",
		"use one of: "+strings.Join(names, ", "))
}

// AggregateRequest aggregates one column over an absolute row range with
// an optional filter. The engine resolves an absent range to the whole
// file before calling.
type AggregateRequest struct {
	Column string
	Op     AggregateOp
	Filter predicate.Predicate
	Start  int64
	End    int64
}

// AggregateResult carries the aggregate value plus the row accounting:
// CountConsidered is the number of rows satisfying predicate and range
// regardless of nullness, NullCount how many of those were null in the
// aggregated column.
type AggregateResult struct {
	Operation       AggregateOp
	Value           interface{}
	CountConsidered int64
	NullCount       int64
}

// Aggregate streams the file row group by row group, reusing the
// reader's interval and statistics pruning, and folds qualifying values
// into a running reducer. The full column is never materialized; peak
// memory is one row group (plus observed cardinality for
// count_distinct, an unbounded-memory risk on extreme-cardinality
// columns).
func Aggregate(ctx context.Context, tf *storage.TableFile, req AggregateRequest) (*AggregateResult, error) {
	meta := tf.Meta

	col := meta.Column(req.Column)
	if col == nil {
		return nil, errors.NewUnknownColumn(req.Column, meta.ColumnNames())
	}
	if req.Start < 0 || req.End < req.Start {
		return nil, errors.NewInvalidRowRange(req.Start, req.End, meta.RowCount)
	}

	acc, err := newReducer(req.Op, col)
	if err != nil {
		return nil, err
	}

	needed, err := resolveNeeded(meta, []*schema.Column{col}, req.Filter)
	if err != nil {
		return nil, err
	}

	end := req.End
	if end > meta.RowCount {
		end = meta.RowCount
	}

	result := &AggregateResult{Operation: req.Op}

	for gi := range meta.RowGroups {
		group := &meta.RowGroups[gi]

		if group.EndRow() <= req.Start || group.StartRow >= end {
			continue
		}
		if req.Filter != nil && predicate.Skippable(req.Filter, group) {
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
			if abs < req.Start || abs >= end {
				continue
			}

			if req.Filter != nil {
				row := make(data.Row, len(needed))
				for _, c := range needed {
					row[c.Name] = columns[c.Name][i]
				}
				if !predicate.Matches(req.Filter, row) {
					continue
				}
			}

			result.CountConsidered++
			if values[i] == nil {
				result.NullCount++
				continue
			}
			acc.fold(values[i])
		}
	}

	if req.Op == AggCount {
		result.Value = result.CountConsidered
	} else {
		result.Value = acc.value()
	}
	return result, nil
}

// newReducer builds the accumulator for the operation, rejecting
// arithmetic operations on non-numeric columns up front.
func newReducer(op AggregateOp, col *schema.Column) (reducer, error) {
	switch op {
	case AggMin:
		return &extremeReducer{keepLess: true}, nil
	case AggMax:
		return &extremeReducer{keepLess: false}, nil
	case AggCount:
		return noopReducer{}, nil
	case AggCountDistinct:
		return &distinctReducer{seen: make(map[interface{}]struct{})}, nil
	case AggSum, AggMean, AggStd:
		if !col.Type.Numeric() {
			return nil, errors.NewUnsupportedOperation(
				fmt.Sprintf("operation %q requires a numeric column, got %s", op, col.Type),
				col.Name, "use min, max, count or count_distinct instead")
		}
		switch op {
		case AggSum:
			return &sumReducer{integral: col.Type == schema.TypeInteger}, nil
		case AggMean:
			return &meanReducer{}, nil
		default:
			return &stdReducer{}, nil
		}
	}
	return nil, errors.NewUnsupportedOperation(fmt.Sprintf("unknown operation %q", op), "", "")
}

// reducer folds non-null values one at a time; value returns nil when the
// aggregate is undefined (no qualifying non-null input).
type reducer interface {
	fold(v interface{})
	value() interface{}
}

type noopReducer struct{}

func (noopReducer) fold(interface{})   {}
func (noopReducer) value() interface{} { return nil }

// extremeReducer keeps the smallest or largest value under type order.
type extremeReducer struct {
	keepLess bool
	best     interface{}
}

func (r *extremeReducer) fold(v interface{}) {
	if r.best == nil {
		r.best = v
		return
	}
	cmp, ok := data.Compare(v, r.best)
	if !ok {
		return
	}
	if (r.keepLess && cmp < 0) || (!r.keepLess && cmp > 0) {
		r.best = v
	}
}

func (r *extremeReducer) value() interface{} { return r.best }

// sumReducer accumulates in int64 for integer columns and float64
// otherwise.
type sumReducer struct {
	integral bool
	intSum   int64
	floatSum float64
	seen     bool
}

func (r *sumReducer) fold(v interface{}) {
	if r.integral {
		if n, ok := data.AsInt(v); ok {
			r.intSum += n
			r.seen = true
		}
		return
	}
	if f, ok := data.AsFloat(v); ok {
		r.floatSum += f
		r.seen = true
	}
}

func (r *sumReducer) value() interface{} {
	if !r.seen {
		return nil
	}
	if r.integral {
		return r.intSum
	}
	return r.floatSum
}

type meanReducer struct {
	sum float64
	n   int64
}

func (r *meanReducer) fold(v interface{}) {
	if f, ok := data.AsFloat(v); ok {
		r.sum += f
		r.n++
	}
}

func (r *meanReducer) value() interface{} {
	if r.n == 0 {
		return nil
	}
	return r.sum / float64(r.n)
}

// distinctReducer counts distinct non-null values with a hash set merged
// across row groups, so the result is independent of row order and of
// row-group boundary placement.
type distinctReducer struct {
	seen map[interface{}]struct{}
}

func (r *distinctReducer) fold(v interface{}) {
	r.seen[v] = struct{}{}
}

func (r *distinctReducer) value() interface{} {
	return int64(len(r.seen))
}

// stdReducer computes the sample standard deviation with Welford's
// streaming algorithm, avoiding the catastrophic cancellation of a naive
// sum-of-squares over large inputs.
type stdReducer struct {
	n    int64
	mean float64
	m2   float64
}

func (r *stdReducer) fold(v interface{}) {
	f, ok := data.AsFloat(v)
	if !ok {
		return
	}
	r.n++
	delta := f - r.mean
	r.mean += delta / float64(r.n)
	r.m2 += delta * (f - r.mean)
}

func (r *stdReducer) value() interface{} {
	if r.n <= 1 {
		return nil
	}
	return math.Sqrt(r.m2 / float64(r.n-1))
}
