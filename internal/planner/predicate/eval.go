package predicate

import (
	"github.com/leengari/parquery/internal/domain/data"
)

// truth is the three-valued result of evaluating a predicate node against
// a single row: a comparison over a null cell is neither true nor false.
type truth int

const (
	truthFalse truth = iota
	truthTrue
	truthUnknown
)

// Matches reports whether the row satisfies the predicate. The final
// unknown collapses to false: a null cell never satisfies an ordinary
// comparison, only NullCheck tests nullness directly.
func Matches(p Predicate, row data.Row) bool {
	return eval(p, row) == truthTrue
}

func eval(p Predicate, row data.Row) truth {
	switch node := p.(type) {
	case *Comparison:
		return evalComparison(node, row)
	case *SetMembership:
		return evalSetMembership(node, row)
	case *NullCheck:
		if isNull(row, node.Column) == node.WantNull {
			return truthTrue
		}
		return truthFalse
	case *Compound:
		return evalCompound(node, row)
	}
	return truthUnknown
}

func evalComparison(node *Comparison, row data.Row) truth {
	v, ok := row[node.Column]
	if !ok || v == nil {
		return truthUnknown
	}

	cmp, ok := data.Compare(v, node.Value)
	if !ok {
		return truthUnknown
	}

	var matched bool
	switch node.Op {
	case OpEqual:
		matched = cmp == 0
	case OpNotEqual:
		matched = cmp != 0
	case OpLess:
		matched = cmp < 0
	case OpLessEqual:
		matched = cmp <= 0
	case OpGreater:
		matched = cmp > 0
	case OpGreaterEqual:
		matched = cmp >= 0
	}

	if matched {
		return truthTrue
	}
	return truthFalse
}

func evalSetMembership(node *SetMembership, row data.Row) truth {
	v, ok := row[node.Column]
	if !ok || v == nil {
		return truthUnknown
	}
	for _, candidate := range node.Values {
		if data.Equal(v, candidate) {
			return truthTrue
		}
	}
	return truthFalse
}

// evalCompound applies Kleene logic: and is the minimum of its children,
// or is the maximum, not swaps true and false and preserves unknown.
func evalCompound(node *Compound, row data.Row) truth {
	switch node.Op {
	case OpNot:
		switch eval(node.Children[0], row) {
		case truthTrue:
			return truthFalse
		case truthFalse:
			return truthTrue
		}
		return truthUnknown

	case OpAnd:
		result := truthTrue
		for _, child := range node.Children {
			switch eval(child, row) {
			case truthFalse:
				return truthFalse
			case truthUnknown:
				result = truthUnknown
			}
		}
		return result

	case OpOr:
		result := truthFalse
		for _, child := range node.Children {
			switch eval(child, row) {
			case truthTrue:
				return truthTrue
			case truthUnknown:
				result = truthUnknown
			}
		}
		return result
	}
	return truthUnknown
}

func isNull(row data.Row, column string) bool {
	v, ok := row[column]
	return !ok || v == nil
}
