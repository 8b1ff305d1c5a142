package record

import (
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/extensions"
	"github.com/google/uuid"

	"github.com/hugr-lab/gridfilter/filter"
)

// EnumMetadataKey is the Arrow field metadata key listing the members of a
// dictionary-encoded enumeration, comma-separated in ordinal order.
// Dictionary fields without it are filtered as strings.
const EnumMetadataKey = "gridfilter.enum"

// Row addresses one row of an Arrow record batch.
type Row struct {
	Record arrow.RecordBatch
	Index  int
}

// ArrowAccessor reads rows of record batches sharing one Arrow schema.
// Safe for concurrent use.
type ArrowAccessor struct {
	schema *arrow.Schema
	index  map[string]int
	types  map[string]filter.FieldType
}

// NewArrowAccessor classifies the columns of schema.
func NewArrowAccessor(schema *arrow.Schema) *ArrowAccessor {
	a := &ArrowAccessor{
		schema: schema,
		index:  make(map[string]int, schema.NumFields()),
		types:  make(map[string]filter.FieldType, schema.NumFields()),
	}
	for i := 0; i < schema.NumFields(); i++ {
		f := schema.Field(i)
		if _, dup := a.index[f.Name]; dup {
			continue
		}
		a.index[f.Name] = i
		a.types[f.Name] = FieldTypeOf(f)
	}
	return a
}

// ArrowSchema returns the schema the accessor was built from.
func (a *ArrowAccessor) ArrowSchema() *arrow.Schema { return a.schema }

// Schema returns the columns as a record schema, in column order. Unnamed
// columns and later duplicates of a name are left out.
func (a *ArrowAccessor) Schema() *Schema {
	fields := make([]Field, 0, len(a.types))
	for i := 0; i < a.schema.NumFields(); i++ {
		name := a.schema.Field(i).Name
		if name == "" || a.index[name] != i {
			continue
		}
		fields = append(fields, Field{Name: name, Type: a.types[name]})
	}
	// Names are non-empty and unique here, so this cannot panic.
	return MustSchema(fields...)
}

// TypeOf returns the field type of the named column.
func (a *ArrowAccessor) TypeOf(name string) (filter.FieldType, bool) {
	ft, ok := a.types[name]
	return ft, ok
}

// ValueOf returns the Go value of one cell, or nil for nulls and unknown
// columns.
func (a *ArrowAccessor) ValueOf(row Row, name string) any {
	i, ok := a.index[name]
	if !ok || row.Record == nil || i >= int(row.Record.NumCols()) {
		return nil
	}
	return CellValue(row.Record.Column(i), row.Index)
}

// FieldTypeOf maps an Arrow field to a filter field type.
func FieldTypeOf(f arrow.Field) filter.FieldType {
	ft := filter.FieldType{ID: typeIDOf(f.Type), Nullable: f.Nullable}
	if dt, ok := f.Type.(*arrow.DictionaryType); ok {
		ft.ID = typeIDOf(dt.ValueType)
		if idx := f.Metadata.FindKey(EnumMetadataKey); idx >= 0 {
			var names []string
			for _, n := range strings.Split(f.Metadata.Values()[idx], ",") {
				names = append(names, strings.TrimSpace(n))
			}
			ft.ID = filter.TypeIDEnum
			ft.Enum = filter.NewEnumInfo(names...)
		}
	}
	return ft
}

func typeIDOf(dt arrow.DataType) filter.TypeID {
	switch dt.ID() {
	case arrow.BOOL:
		return filter.TypeIDBoolean
	case arrow.INT8:
		return filter.TypeIDTinyInt
	case arrow.INT16:
		return filter.TypeIDSmallInt
	case arrow.INT32:
		return filter.TypeIDInteger
	case arrow.INT64:
		return filter.TypeIDBigInt
	case arrow.UINT8:
		return filter.TypeIDUTinyInt
	case arrow.UINT16:
		return filter.TypeIDUSmallInt
	case arrow.UINT32:
		return filter.TypeIDUInteger
	case arrow.UINT64:
		return filter.TypeIDUBigInt
	case arrow.FLOAT16, arrow.FLOAT32:
		return filter.TypeIDFloat
	case arrow.FLOAT64:
		return filter.TypeIDDouble
	case arrow.DECIMAL128, arrow.DECIMAL256:
		return filter.TypeIDDecimal
	case arrow.STRING, arrow.LARGE_STRING:
		return filter.TypeIDVarchar
	case arrow.DATE32, arrow.DATE64:
		return filter.TypeIDDate
	case arrow.TIMESTAMP:
		return filter.TypeIDTimestamp
	case arrow.TIME32, arrow.TIME64:
		return filter.TypeIDTime
	case arrow.INTERVAL_MONTHS, arrow.INTERVAL_DAY_TIME, arrow.INTERVAL_MONTH_DAY_NANO, arrow.DURATION:
		return filter.TypeIDInterval
	case arrow.BINARY, arrow.LARGE_BINARY, arrow.FIXED_SIZE_BINARY:
		return filter.TypeIDBlob
	case arrow.LIST, arrow.LARGE_LIST, arrow.FIXED_SIZE_LIST:
		return filter.TypeIDList
	case arrow.STRUCT:
		return filter.TypeIDStruct
	case arrow.MAP:
		return filter.TypeIDMap
	case arrow.EXTENSION:
		if ext, ok := dt.(arrow.ExtensionType); ok {
			switch ext.ExtensionName() {
			case "arrow.uuid":
				return filter.TypeIDUUID
			case "geoarrow.wkb", "geoarrow.wkt":
				return filter.TypeIDGeometry
			}
			return typeIDOf(ext.StorageType())
		}
	}
	return filter.TypeIDInvalid
}

// CellValue returns the Go value stored at row i of arr: int64, uint64,
// float64, string, bool or time.Time (UTC). Nulls and nested types yield
// nil; dictionary cells yield their decoded value and UUID cells their
// canonical text.
func CellValue(arr arrow.Array, i int) any {
	if i < 0 || i >= arr.Len() || arr.IsNull(i) {
		return nil
	}
	switch a := arr.(type) {
	case *array.Boolean:
		return a.Value(i)
	case *array.Int8:
		return int64(a.Value(i))
	case *array.Int16:
		return int64(a.Value(i))
	case *array.Int32:
		return int64(a.Value(i))
	case *array.Int64:
		return a.Value(i)
	case *array.Uint8:
		return uint64(a.Value(i))
	case *array.Uint16:
		return uint64(a.Value(i))
	case *array.Uint32:
		return uint64(a.Value(i))
	case *array.Uint64:
		return a.Value(i)
	case *array.Float16:
		return float64(a.Value(i).Float32())
	case *array.Float32:
		return float64(a.Value(i))
	case *array.Float64:
		return a.Value(i)
	case *array.Decimal128:
		scale := a.DataType().(*arrow.Decimal128Type).Scale
		return a.Value(i).ToFloat64(scale)
	case *array.Decimal256:
		scale := a.DataType().(*arrow.Decimal256Type).Scale
		return a.Value(i).ToFloat64(scale)
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	case *array.Date32:
		return a.Value(i).ToTime().UTC()
	case *array.Date64:
		return a.Value(i).ToTime().UTC()
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(i).ToTime(unit).UTC()
	case *array.Dictionary:
		return CellValue(a.Dictionary(), a.GetValueIndex(i))
	case *extensions.UUIDArray:
		return a.Value(i).String()
	case array.ExtensionArray:
		if a.ExtensionType().ExtensionName() == "arrow.uuid" {
			if fb, ok := a.Storage().(*array.FixedSizeBinary); ok {
				if id, err := uuid.FromBytes(fb.Value(i)); err == nil {
					return id.String()
				}
			}
			return nil
		}
		return CellValue(a.Storage(), i)
	}
	return nil
}
