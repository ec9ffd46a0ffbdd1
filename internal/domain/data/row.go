package data

// Row represents a single materialized table row.
// Key = column name, Value = cell value (nil for a null cell).
type Row map[string]interface{}

// Project returns a copy of the row restricted to the given columns.
// Columns missing from the row are carried as explicit nulls so that
// serialized output never silently drops a requested column.
func (r Row) Project(columns []string) Row {
	out := make(Row, len(columns))
	for _, name := range columns {
		if v, ok := r[name]; ok {
			out[name] = v
		} else {
			out[name] = nil
		}
	}
	return out
}
