package filter

import "time"

type testRecord map[string]any

type testSchema map[string]FieldType

func (s testSchema) TypeOf(field string) (FieldType, bool) {
	ft, ok := s[field]
	return ft, ok
}

type testAccessor struct{ testSchema }

func (testAccessor) ValueOf(rec testRecord, field string) any { return rec[field] }

var peopleSchema = testSchema{
	"name":    String(),
	"age":     Int().AsNullable(),
	"score":   Double(),
	"active":  Bool().AsNullable(),
	"color":   Enum("Red", "Green", "Blue").AsNullable(),
	"created": Timestamp().AsNullable(),
	"id":      {ID: TypeIDUUID},
	"shape":   {ID: TypeIDGeometry},
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// people is shared by the compiler, SQL and expr tests. The id column is
// the 1-based position.
var people = []testRecord{
	{"name": "Smith-Jones", "age": 35, "score": 7.5, "active": true, "color": "Blue", "created": day(2024, 1, 10)},
	{"name": "Doe", "age": 20, "score": 3.0, "active": false, "color": "Red", "created": day(2023, 6, 1)},
	{"name": nil, "age": nil, "score": nil, "active": nil, "color": nil, "created": nil},
	{"name": "  ", "age": 42, "score": 9.25, "active": true, "color": "Green", "created": day(2024, 1, 1)},
}

func newTestCompiler(opts *CompilerOptions) *Compiler[testRecord] {
	return NewCompiler[testRecord](testAccessor{peopleSchema}, opts)
}

// matching returns the 1-based positions of records accepted by p.
func matching(p Predicate[testRecord], recs []testRecord) []int {
	var ids []int
	for i, r := range recs {
		if p == nil || p(r) {
			ids = append(ids, i+1)
		}
	}
	return ids
}
