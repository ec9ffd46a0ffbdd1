package predicate

import (
	"github.com/leengari/parquery/internal/domain/data"
	"github.com/leengari/parquery/internal/domain/schema"
)

// groupTruth classifies a predicate against a row group's statistics:
// true for provably every row, false for provably no row, or undecided.
// Missing statistics always degrade to undecided, never to a skip.
type groupTruth int

const (
	groupNone groupTruth = iota // no row in the group can match
	groupAll                    // every row in the group matches
	groupSome                   // cannot decide from statistics alone
)

// Skippable reports whether the statistics prove the predicate false for
// every row of the group, so the group can be pruned without reading it.
// Pruning changes performance, never results.
func Skippable(p Predicate, g *schema.RowGroup) bool {
	return boundsTruth(p, g) == groupNone
}

func boundsTruth(p Predicate, g *schema.RowGroup) groupTruth {
	switch node := p.(type) {
	case *Comparison:
		return comparisonBounds(node, g)
	case *SetMembership:
		return membershipBounds(node, g)
	case *NullCheck:
		return nullCheckBounds(node, g)
	case *Compound:
		return compoundBounds(node, g)
	}
	return groupSome
}

func comparisonBounds(node *Comparison, g *schema.RowGroup) groupTruth {
	stats, ok := g.Columns[node.Column]
	if !ok || !stats.HasBounds {
		return groupSome
	}

	cmpMin, okMin := data.Compare(stats.Min, node.Value)
	cmpMax, okMax := data.Compare(stats.Max, node.Value)
	if !okMin || !okMax {
		return groupSome
	}

	// A null cell never satisfies a comparison, so groupAll additionally
	// requires the group to be proven null-free.
	nullFree := stats.HasNullCount && stats.NullCount == 0

	switch node.Op {
	case OpEqual:
		if cmpMin > 0 || cmpMax < 0 {
			return groupNone
		}
		if nullFree && cmpMin == 0 && cmpMax == 0 {
			return groupAll
		}

	case OpNotEqual:
		// Every non-null value equals the literal only when min == max == v.
		if cmpMin == 0 && cmpMax == 0 {
			return groupNone
		}
		if nullFree && (cmpMin > 0 || cmpMax < 0) {
			return groupAll
		}

	case OpLess:
		if cmpMin >= 0 {
			return groupNone
		}
		if nullFree && cmpMax < 0 {
			return groupAll
		}

	case OpLessEqual:
		if cmpMin > 0 {
			return groupNone
		}
		if nullFree && cmpMax <= 0 {
			return groupAll
		}

	case OpGreater:
		if cmpMax <= 0 {
			return groupNone
		}
		if nullFree && cmpMin > 0 {
			return groupAll
		}

	case OpGreaterEqual:
		if cmpMax < 0 {
			return groupNone
		}
		if nullFree && cmpMin >= 0 {
			return groupAll
		}
	}

	return groupSome
}

func membershipBounds(node *SetMembership, g *schema.RowGroup) groupTruth {
	stats, ok := g.Columns[node.Column]
	if !ok || !stats.HasBounds {
		return groupSome
	}

	anyInside := false
	for _, v := range node.Values {
		cmpMin, okMin := data.Compare(v, stats.Min)
		cmpMax, okMax := data.Compare(v, stats.Max)
		if !okMin || !okMax {
			return groupSome
		}
		if cmpMin >= 0 && cmpMax <= 0 {
			anyInside = true
			break
		}
	}
	if !anyInside {
		return groupNone
	}

	// Single-valued group whose value is in the set: every non-null row
	// matches.
	nullFree := stats.HasNullCount && stats.NullCount == 0
	if nullFree && data.Equal(stats.Min, stats.Max) {
		for _, v := range node.Values {
			if data.Equal(v, stats.Min) {
				return groupAll
			}
		}
	}

	return groupSome
}

func nullCheckBounds(node *NullCheck, g *schema.RowGroup) groupTruth {
	stats, ok := g.Columns[node.Column]
	if !ok || !stats.HasNullCount {
		return groupSome
	}

	allNull := stats.NullCount == g.NumRows
	noneNull := stats.NullCount == 0

	if node.WantNull {
		switch {
		case noneNull:
			return groupNone
		case allNull:
			return groupAll
		}
	} else {
		switch {
		case allNull:
			return groupNone
		case noneNull:
			return groupAll
		}
	}
	return groupSome
}

// compoundBounds folds children conservatively. Note not(groupNone) is
// groupSome, not groupAll: a child can be false for a row because the
// compared cell was null, and not over that row stays false.
func compoundBounds(node *Compound, g *schema.RowGroup) groupTruth {
	switch node.Op {
	case OpNot:
		if boundsTruth(node.Children[0], g) == groupAll {
			return groupNone
		}
		return groupSome

	case OpAnd:
		result := groupAll
		for _, child := range node.Children {
			switch boundsTruth(child, g) {
			case groupNone:
				return groupNone
			case groupSome:
				result = groupSome
			}
		}
		return result

	case OpOr:
		result := groupNone
		for _, child := range node.Children {
			switch boundsTruth(child, g) {
			case groupAll:
				return groupAll
			case groupSome:
				result = groupSome
			}
		}
		return result
	}
	return groupSome
}
