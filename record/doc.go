// Package record provides field accessors that let the filter compiler read
// typed records: plain maps described by a Schema, Go values exposed
// through registered getters, and rows of Apache Arrow records.
//
// Every accessor implements filter.FieldAccessor for its record type:
//
//	people := record.NewTable[Person]().
//	    Field("name", filter.String(), func(p Person) any { return p.Name }).
//	    Field("age", filter.Int().AsNullable(), func(p Person) any { return p.Age })
//
//	pred, _, err := filter.NewCompiler[Person](people, nil).Compile(root)
//
// Arrow data is filtered column-wise with FilterRecord, which keeps the
// schema and returns a new record holding the accepted rows.
package record
