package payload

import (
	"encoding/json"
	"fmt"

	"github.com/leengari/parquery/internal/domain/data"
)

const (
	// DefaultBudgetBytes is the hard serialized-size budget for one
	// response.
	DefaultBudgetBytes = 16 * 1024

	// MaxSampleItems bounds how many items are serialized to estimate the
	// response size; the estimate never requires materializing the full
	// candidate.
	MaxSampleItems = 32

	// envelopeOverhead is the fixed allowance for the JSON envelope
	// around the item list (status, schema, pagination fields).
	envelopeOverhead = 256

	// safetyMargin keeps suggestions comfortably under the budget, so a
	// re-submitted suggestion passes the same check.
	safetyMargin = 0.9
)

// SizeBudgetError reports that a candidate response would exceed the
// serialized-size budget. It is a negotiation outcome, not a query
// failure: both suggested levers (smaller range, fewer columns) are
// carried so the caller can pick one and retry.
type SizeBudgetError struct {
	RequestedStart   int64    `json:"requested_start"`
	RequestedEnd     int64    `json:"requested_end"`
	RequestedColumns []string `json:"requested_columns,omitempty"`
	EstimatedBytes   int64    `json:"estimated_bytes"`
	BudgetBytes      int64    `json:"budget_bytes"`
	AvgBytesPerItem  float64  `json:"avg_bytes_per_item"`
	SuggestedStart   int64    `json:"suggested_start"`
	SuggestedEnd     int64    `json:"suggested_end"`
	SuggestedColumns []string `json:"suggested_columns,omitempty"`
}

func (e *SizeBudgetError) Error() string {
	return fmt.Sprintf(
		"estimated payload %d bytes exceeds budget %d bytes - try rows %d to %d (%d rows) or fewer columns",
		e.EstimatedBytes, e.BudgetBytes,
		e.SuggestedStart, e.SuggestedEnd, e.SuggestedEnd-e.SuggestedStart)
}

// Candidate describes a response whose size is to be estimated before the
// full payload is built. SampleItems are the serialized forms of up to
// MaxSampleItems items taken from the start of the candidate range;
// SampleRows optionally carries the same rows unserialized so the guard
// can compute a reduced-column suggestion.
type Candidate struct {
	Start          int64
	RequestedCount int64
	Columns        []string
	SampleItems    [][]byte
	SampleRows     []data.Row
}

// Guard enforces the response size budget. It never truncates: a
// candidate either passes whole or fails with actionable suggestions.
type Guard struct {
	BudgetBytes int64
}

func NewGuard(budgetBytes int64) Guard {
	if budgetBytes <= 0 {
		budgetBytes = DefaultBudgetBytes
	}
	return Guard{BudgetBytes: budgetBytes}
}

// Check estimates the serialized size of the candidate from its sample
// and returns a *SizeBudgetError when the estimate exceeds the budget.
//
// The estimate is avg_bytes_per_item * requested_count plus a fixed
// envelope allowance. It is a sampling heuristic: columns with highly
// variable value lengths (long strings) can be under- or over-estimated.
func (g Guard) Check(c Candidate) error {
	if len(c.SampleItems) == 0 || c.RequestedCount == 0 {
		return nil
	}

	sampleBytes := 0
	for _, item := range c.SampleItems {
		sampleBytes += len(item) + 1 // +1 for the separating comma
	}
	avg := float64(sampleBytes) / float64(len(c.SampleItems))

	estimated := int64(avg*float64(c.RequestedCount)) + envelopeOverhead
	if estimated <= g.BudgetBytes {
		return nil
	}

	// The envelope is spent before any item fits, so it comes off the
	// usable budget here just as the acceptance estimate adds it back;
	// otherwise small budgets suggest ranges that fail their own re-check.
	usable := float64(g.BudgetBytes) * safetyMargin
	suggestedCount := int64((usable - envelopeOverhead) / avg)
	if suggestedCount < 1 {
		suggestedCount = 1
	}
	if suggestedCount > c.RequestedCount {
		suggestedCount = c.RequestedCount
	}

	return &SizeBudgetError{
		RequestedStart:   c.Start,
		RequestedEnd:     c.Start + c.RequestedCount,
		RequestedColumns: c.Columns,
		EstimatedBytes:   estimated,
		BudgetBytes:      g.BudgetBytes,
		AvgBytesPerItem:  avg,
		SuggestedStart:   c.Start,
		SuggestedEnd:     c.Start + suggestedCount,
		SuggestedColumns: g.suggestColumns(c, usable),
	}
}

// suggestColumns finds the longest prefix of the requested columns whose
// estimated per-row footprint keeps the full requested range under the
// budget. Returns nil when no sample rows are available or even a single
// column does not fit.
func (g Guard) suggestColumns(c Candidate, usable float64) []string {
	if len(c.SampleRows) == 0 || len(c.Columns) < 2 {
		return nil
	}

	// Per-column average serialized width across the sample, including
	// the key and separator overhead of the surrounding object.
	widths := make([]float64, len(c.Columns))
	for i, name := range c.Columns {
		total := 0
		for _, row := range c.SampleRows {
			cell, err := json.Marshal(row[name])
			if err != nil {
				return nil
			}
			total += len(name) + len(cell) + 4 // quotes, colon, comma
		}
		widths[i] = float64(total) / float64(len(c.SampleRows))
	}

	perRow := 3.0 // braces plus row separator
	keep := 0
	for i := range c.Columns {
		next := perRow + widths[i]
		if (next*float64(c.RequestedCount))+envelopeOverhead > usable {
			break
		}
		perRow = next
		keep = i + 1
	}

	if keep == 0 || keep == len(c.Columns) {
		return nil
	}
	return c.Columns[:keep]
}
