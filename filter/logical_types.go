package filter

import (
	"strconv"
	"strings"
)

// TypeID identifies the runtime type of a record field.
type TypeID string

const (
	TypeIDInvalid   TypeID = "INVALID"
	TypeIDBoolean   TypeID = "BOOLEAN"
	TypeIDTinyInt   TypeID = "TINYINT"
	TypeIDSmallInt  TypeID = "SMALLINT"
	TypeIDInteger   TypeID = "INTEGER"
	TypeIDBigInt    TypeID = "BIGINT"
	TypeIDUTinyInt  TypeID = "UTINYINT"
	TypeIDUSmallInt TypeID = "USMALLINT"
	TypeIDUInteger  TypeID = "UINTEGER"
	TypeIDUBigInt   TypeID = "UBIGINT"
	TypeIDHugeInt   TypeID = "HUGEINT"
	TypeIDUHugeInt  TypeID = "UHUGEINT"
	TypeIDBigNum    TypeID = "BIGNUM"
	TypeIDFloat     TypeID = "FLOAT"
	TypeIDDouble    TypeID = "DOUBLE"
	TypeIDDecimal   TypeID = "DECIMAL"
	TypeIDVarchar   TypeID = "VARCHAR"
	TypeIDChar      TypeID = "CHAR"
	TypeIDUUID      TypeID = "UUID"
	TypeIDDate      TypeID = "DATE"
	TypeIDTimestamp TypeID = "TIMESTAMP"
	TypeIDEnum      TypeID = "ENUM"
	TypeIDTime      TypeID = "TIME"
	TypeIDInterval  TypeID = "INTERVAL"
	TypeIDBlob      TypeID = "BLOB"
	TypeIDList      TypeID = "LIST"
	TypeIDStruct    TypeID = "STRUCT"
	TypeIDMap       TypeID = "MAP"
	TypeIDGeometry  TypeID = "GEOMETRY"
)

// typeIDMapping maps type name aliases to normalized ids.
var typeIDMapping = map[TypeID]TypeID{
	// Integer types
	"INT":     TypeIDInteger,
	"INT1":    TypeIDTinyInt,
	"INT2":    TypeIDSmallInt,
	"INT4":    TypeIDInteger,
	"INT8":    TypeIDBigInt,
	"INT16":   TypeIDSmallInt,
	"INT32":   TypeIDInteger,
	"INT64":   TypeIDBigInt,
	"LONG":    TypeIDBigInt,
	"SHORT":   TypeIDSmallInt,
	"SBYTE":   TypeIDTinyInt,
	"BYTE":    TypeIDUTinyInt,
	"UINT8":   TypeIDUTinyInt,
	"UINT16":  TypeIDUSmallInt,
	"UINT32":  TypeIDUInteger,
	"UINT64":  TypeIDUBigInt,
	"ULONG":   TypeIDUBigInt,
	"USHORT":  TypeIDUSmallInt,
	"UINT":    TypeIDUInteger,
	"INT128":  TypeIDHugeInt,
	"UINT128": TypeIDUHugeInt,
	// Arbitrary precision
	"BIGINTEGER": TypeIDBigNum,
	"VARINT":     TypeIDBigNum,
	// Float types
	"FLOAT4":  TypeIDFloat,
	"FLOAT32": TypeIDFloat,
	"REAL":    TypeIDFloat,
	"SINGLE":  TypeIDFloat,
	"FLOAT8":  TypeIDDouble,
	"FLOAT64": TypeIDDouble,
	"NUMERIC": TypeIDDecimal,
	// String types
	"STRING": TypeIDVarchar,
	"TEXT":   TypeIDVarchar,
	"GUID":   TypeIDUUID,
	// Boolean
	"BOOL": TypeIDBoolean,
	// Temporal
	"DATETIME":                    TypeIDTimestamp,
	"TIMESTAMPTZ":                 TypeIDTimestamp,
	"TIMESTAMP_TZ":                TypeIDTimestamp,
	"TIMESTAMP WITH TIME ZONE":    TypeIDTimestamp,
	"TIMESTAMP WITHOUT TIME ZONE": TypeIDTimestamp,
	"TIMESTAMP_S":                 TypeIDTimestamp,
	"TIMESTAMP_MS":                TypeIDTimestamp,
	"TIMESTAMP_NS":                TypeIDTimestamp,
}

// Normalize returns the canonical TypeID for the given type id.
// Matching is case-insensitive.
func (t TypeID) Normalize() TypeID {
	upper := TypeID(strings.ToUpper(strings.TrimSpace(string(t))))
	if mapped, ok := typeIDMapping[upper]; ok {
		return mapped
	}
	return upper
}

// FieldType describes the runtime type of one record field.
type FieldType struct {
	ID TypeID `json:"id"`

	// Nullable marks an optional field. It never changes the category.
	Nullable bool `json:"nullable,omitempty"`

	// Enum lists the members of an ENUM field.
	Enum *EnumInfo `json:"enum,omitempty"`
}

// ParseFieldType parses a type name such as "int", "DATETIME" or "double?".
// A trailing "?" marks the type nullable.
func ParseFieldType(name string) FieldType {
	name = strings.TrimSpace(name)
	nullable := strings.HasSuffix(name, "?")
	if nullable {
		name = strings.TrimSuffix(name, "?")
	}
	return FieldType{ID: TypeID(name).Normalize(), Nullable: nullable}
}

// Type constructors used by accessors and tests.

func String() FieldType { return FieldType{ID: TypeIDVarchar} }
func Int() FieldType { return FieldType{ID: TypeIDBigInt} }
func Double() FieldType { return FieldType{ID: TypeIDDouble} }
func Bool() FieldType { return FieldType{ID: TypeIDBoolean} }
func Timestamp() FieldType { return FieldType{ID: TypeIDTimestamp} }

// Enum returns an ENUM field type over the given member names.
// Ordinals are assigned in declaration order starting at zero.
func Enum(names ...string) FieldType {
	return FieldType{ID: TypeIDEnum, Enum: NewEnumInfo(names...)}
}

// AsNullable returns a copy of t marked nullable.
func (t FieldType) AsNullable() FieldType {
	t.Nullable = true
	return t
}

// String returns the type name, with a "?" suffix when nullable.
func (t FieldType) String() string {
	if t.Nullable {
		return string(t.ID) + "?"
	}
	return string(t.ID)
}

// EnumMember is one named value of an enumeration.
type EnumMember struct {
	Name    string `json:"name"`
	Ordinal int64  `json:"ordinal"`
}

// EnumInfo holds the members of an enumeration type.
type EnumInfo struct {
	Members []EnumMember `json:"members"`
}

// NewEnumInfo builds an EnumInfo with ordinals 0..n-1.
func NewEnumInfo(names ...string) *EnumInfo {
	info := &EnumInfo{Members: make([]EnumMember, 0, len(names))}
	for i, n := range names {
		info.Members = append(info.Members, EnumMember{Name: n, Ordinal: int64(i)})
	}
	return info
}

// Lookup resolves a member name to its ordinal.
// Exact matches win over case-insensitive ones.
func (e *EnumInfo) Lookup(name string) (int64, bool) {
	if e == nil {
		return 0, false
	}
	for _, m := range e.Members {
		if m.Name == name {
			return m.Ordinal, true
		}
	}
	for _, m := range e.Members {
		if strings.EqualFold(m.Name, name) {
			return m.Ordinal, true
		}
	}
	return 0, false
}

// Name returns the member name for an ordinal.
func (e *EnumInfo) Name(ordinal int64) (string, bool) {
	if e == nil {
		return "", false
	}
	for _, m := range e.Members {
		if m.Ordinal == ordinal {
			return m.Name, true
		}
	}
	return "", false
}

// Resolve resolves a token that is either a member name or an integer ordinal.
func (e *EnumInfo) Resolve(token string) (int64, bool) {
	token = strings.TrimSpace(token)
	if ord, ok := e.Lookup(token); ok {
		return ord, true
	}
	if i, err := strconv.ParseInt(token, 10, 64); err == nil {
		return i, true
	}
	return 0, false
}

// Category is the semantic class of a field type. It selects the operator
// set and the coercion rules.
type Category int

const (
	CategoryUnsupported Category = iota
	CategoryString
	CategoryNumber
	CategoryBoolean
	CategoryEnum
	CategoryDateTime
)

var categoryNames = [...]string{
	CategoryUnsupported: "unsupported",
	CategoryString:      "string",
	CategoryNumber:      "number",
	CategoryBoolean:     "boolean",
	CategoryEnum:        "enum",
	CategoryDateTime:    "datetime",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "unsupported"
	}
	return categoryNames[c]
}

// Classify returns the category of a field type. Unknown types classify as
// CategoryUnsupported.
func Classify(t FieldType) Category {
	id := t.ID.Normalize()
	switch {
	case id.IsString():
		return CategoryString
	case id.IsNumeric():
		return CategoryNumber
	case id == TypeIDBoolean:
		return CategoryBoolean
	case id == TypeIDEnum:
		return CategoryEnum
	case id == TypeIDDate, id == TypeIDTimestamp:
		return CategoryDateTime
	}
	return CategoryUnsupported
}

// IsNumeric returns true if the type is a numeric type.
func (t TypeID) IsNumeric() bool {
	switch t {
	case TypeIDTinyInt, TypeIDSmallInt, TypeIDInteger, TypeIDBigInt,
		TypeIDUTinyInt, TypeIDUSmallInt, TypeIDUInteger, TypeIDUBigInt,
		TypeIDHugeInt, TypeIDUHugeInt, TypeIDBigNum,
		TypeIDFloat, TypeIDDouble, TypeIDDecimal:
		return true
	}
	return false
}

// IsInteger returns true if the type is an integer type.
func (t TypeID) IsInteger() bool {
	switch t {
	case TypeIDTinyInt, TypeIDSmallInt, TypeIDInteger, TypeIDBigInt,
		TypeIDUTinyInt, TypeIDUSmallInt, TypeIDUInteger, TypeIDUBigInt,
		TypeIDHugeInt, TypeIDUHugeInt, TypeIDBigNum:
		return true
	}
	return false
}

// IsString returns true if the type takes the string operator set.
func (t TypeID) IsString() bool {
	switch t {
	case TypeIDVarchar, TypeIDChar, TypeIDUUID:
		return true
	}
	return false
}
