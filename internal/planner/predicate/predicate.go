package predicate

// CompareOp is a binary comparison between a column and a literal.
type CompareOp string

const (
	OpEqual        CompareOp = "equal"
	OpNotEqual     CompareOp = "not_equal"
	OpLess         CompareOp = "less"
	OpLessEqual    CompareOp = "less_equal"
	OpGreater      CompareOp = "greater"
	OpGreaterEqual CompareOp = "greater_equal"
)

// LogicalOp combines child predicates.
type LogicalOp string

const (
	OpAnd LogicalOp = "and"
	OpOr  LogicalOp = "or"
	OpNot LogicalOp = "not"
)

// Predicate is a closed set of filter tree variants: Comparison,
// SetMembership, NullCheck and Compound. Evaluation and pruning both
// dispatch over the same four variants, so each stays exhaustively
// testable on its own.
type Predicate interface {
	pred()
}

// Comparison tests a column against a single literal.
// Value is already coerced to the column's logical type at compile time.
type Comparison struct {
	Column string
	Op     CompareOp
	Value  interface{}
}

// SetMembership tests whether a column value is one of a literal set.
type SetMembership struct {
	Column string
	Values []interface{}
}

// NullCheck tests column nullness directly. It is the only variant a null
// cell can satisfy.
type NullCheck struct {
	Column   string
	WantNull bool
}

// Compound combines child predicates with and/or/not.
// Invariant: not has exactly one child, and/or have at least one.
type Compound struct {
	Op       LogicalOp
	Children []Predicate
}

func (*Comparison) pred()    {}
func (*SetMembership) pred() {}
func (*NullCheck) pred()     {}
func (*Compound) pred()      {}

// Columns returns the set of column names the predicate references.
// The reader uses it to materialize filter columns alongside the
// projection.
func Columns(p Predicate) []string {
	seen := make(map[string]bool)
	collectColumns(p, seen)

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	return names
}

func collectColumns(p Predicate, seen map[string]bool) {
	switch node := p.(type) {
	case *Comparison:
		seen[node.Column] = true
	case *SetMembership:
		seen[node.Column] = true
	case *NullCheck:
		seen[node.Column] = true
	case *Compound:
		for _, child := range node.Children {
			collectColumns(child, seen)
		}
	}
}
