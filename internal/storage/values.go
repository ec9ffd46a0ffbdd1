package storage

import (
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/format"

	"github.com/leengari/parquery/internal/domain/schema"
)

// logicalTypeOf maps a physical parquet column type onto the engine's
// logical type model. Anything without a better mapping is surfaced as a
// string so no column is ever unreadable.
func logicalTypeOf(t parquet.Type) (schema.LogicalType, schema.TimestampUnit) {
	lt := t.LogicalType()

	switch t.Kind() {
	case parquet.Boolean:
		return schema.TypeBoolean, 0
	case parquet.Int32:
		return schema.TypeInteger, 0
	case parquet.Int64:
		if lt != nil && lt.Timestamp != nil {
			return schema.TypeTimestamp, timestampUnit(lt)
		}
		return schema.TypeInteger, 0
	case parquet.Float, parquet.Double:
		return schema.TypeFloat, 0
	default:
		return schema.TypeString, 0
	}
}

func timestampUnit(lt *format.LogicalType) schema.TimestampUnit {
	unit := lt.Timestamp.Unit
	switch {
	case unit.Millis != nil:
		return schema.UnitMillis
	case unit.Micros != nil:
		return schema.UnitMicros
	default:
		return schema.UnitNanos
	}
}

// NativeValue converts a raw parquet value into the engine's Go
// representation for the given column: int64, float64, string, bool,
// time.Time, or nil for a null cell.
func NativeValue(v parquet.Value, col *schema.Column) interface{} {
	if v.IsNull() {
		return nil
	}

	switch col.Type {
	case schema.TypeBoolean:
		return v.Boolean()
	case schema.TypeInteger:
		if v.Kind() == parquet.Int32 {
			return int64(v.Int32())
		}
		return v.Int64()
	case schema.TypeFloat:
		if v.Kind() == parquet.Float {
			return float64(v.Float())
		}
		return v.Double()
	case schema.TypeTimestamp:
		return timestampValue(v.Int64(), col.Unit)
	default:
		return v.String()
	}
}

func timestampValue(ticks int64, unit schema.TimestampUnit) time.Time {
	switch unit {
	case schema.UnitMillis:
		return time.UnixMilli(ticks).UTC()
	case schema.UnitMicros:
		return time.UnixMicro(ticks).UTC()
	default:
		return time.Unix(0, ticks).UTC()
	}
}
