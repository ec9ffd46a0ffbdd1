package schema

import "time"

// LogicalType is the engine-level type of a column, abstracted away from
// the physical encoding used inside the table file.
type LogicalType string

const (
	TypeInteger   LogicalType = "integer"
	TypeFloat     LogicalType = "float"
	TypeString    LogicalType = "string"
	TypeBoolean   LogicalType = "boolean"
	TypeTimestamp LogicalType = "timestamp"
)

// Numeric reports whether values of this type participate in arithmetic
// aggregations (sum, mean, std).
func (t LogicalType) Numeric() bool {
	return t == TypeInteger || t == TypeFloat
}

// TimestampUnit is the resolution of a timestamp column's physical values.
type TimestampUnit int

const (
	UnitMillis TimestampUnit = iota
	UnitMicros
	UnitNanos
)

// Column describes a single column of a table file.
type Column struct {
	Name     string
	Type     LogicalType
	Nullable bool

	// LeafIndex is the position of this column among the file's leaf
	// columns, used to locate its chunk within each row group.
	LeafIndex int

	// Unit is only meaningful for timestamp columns.
	Unit TimestampUnit
}

// ColumnStats holds the per-row-group statistics for one column.
// Statistics are optional in the file format, so presence is tracked
// separately from the values themselves.
type ColumnStats struct {
	Min          interface{}
	Max          interface{}
	HasBounds    bool
	NullCount    int64
	HasNullCount bool
}

// RowGroup describes one contiguous physical partition of the file.
// StartRow is the absolute offset of the group's first row in file order.
type RowGroup struct {
	Index    int
	StartRow int64
	NumRows  int64
	Columns  map[string]ColumnStats
}

// EndRow returns the exclusive absolute row offset where the group ends.
func (g *RowGroup) EndRow() int64 {
	return g.StartRow + g.NumRows
}

// TableMetadata is everything the engine knows about a table file without
// reading any data pages. It is derived from the file footer alone.
type TableMetadata struct {
	Path          string
	Columns       []Column
	RowCount      int64
	RowGroups     []RowGroup
	FileSizeBytes int64
	ModTime       time.Time
}

// Column finds a column by name. Returns nil if the name is not part of
// the schema.
func (m *TableMetadata) Column(name string) *Column {
	for i := range m.Columns {
		if m.Columns[i].Name == name {
			return &m.Columns[i]
		}
	}
	return nil
}

// ColumnNames returns all column names in schema order.
func (m *TableMetadata) ColumnNames() []string {
	names := make([]string, len(m.Columns))
	for i, col := range m.Columns {
		names[i] = col.Name
	}
	return names
}
