package engine

import (
	"github.com/leengari/parquery/internal/domain/data"
	"github.com/leengari/parquery/internal/domain/schema"
)

// ColumnInfo is the wire form of one schema column.
type ColumnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// Summary is the result of the summarize entry point.
type Summary struct {
	FilePath      string       `json:"file_path"`
	Schema        []ColumnInfo `json:"schema"`
	RowCount      int64        `json:"row_count"`
	RowGroups     int          `json:"row_groups"`
	FileSizeBytes int64        `json:"file_size_bytes"`
}

// SliceInfo reports what a slice read covered.
type SliceInfo struct {
	StartRow      int64 `json:"start_row"`
	EndRow        int64 `json:"end_row"`
	RequestedRows int64 `json:"requested_rows"`
	RowsReturned  int64 `json:"rows_returned"`
}

// SliceResponse is the result of the read_slice entry point.
type SliceResponse struct {
	FilePath      string       `json:"file_path"`
	Schema        []ColumnInfo `json:"schema"`
	Rows          []data.Row   `json:"rows"`
	Slice         SliceInfo    `json:"slice_info"`
	FilterApplied bool         `json:"filter_applied"`
}

// Pagination reports the window a preview page covered.
type Pagination struct {
	StartIndex  int64 `json:"start_index"`
	EndIndex    int64 `json:"end_index"`
	NumItems    int64 `json:"num_items"`
	TotalValues int64 `json:"total_values"`
	HasMore     bool  `json:"has_more"`
}

// PreviewResponse is the result of the get_column_preview entry point.
type PreviewResponse struct {
	FilePath   string        `json:"file_path"`
	ColumnName string        `json:"column_name"`
	ColumnType string        `json:"column_type"`
	Values     []interface{} `json:"values"`
	Pagination Pagination    `json:"pagination"`
}

// AggregateResponse is the result of the aggregate_column entry point.
// Value is null when no qualifying non-null input existed.
type AggregateResponse struct {
	FilePath        string      `json:"file_path"`
	ColumnName      string      `json:"column_name"`
	ColumnType      string      `json:"column_type"`
	Operation       string      `json:"operation"`
	Value           interface{} `json:"value"`
	CountConsidered int64       `json:"count_considered"`
	NullCount       int64       `json:"null_count"`
	FilterApplied   bool        `json:"filter_applied"`
}

func columnInfo(col *schema.Column) ColumnInfo {
	return ColumnInfo{
		Name:     col.Name,
		Type:     string(col.Type),
		Nullable: col.Nullable,
	}
}

func columnInfos(cols []schema.Column) []ColumnInfo {
	infos := make([]ColumnInfo, len(cols))
	for i := range cols {
		infos[i] = columnInfo(&cols[i])
	}
	return infos
}
