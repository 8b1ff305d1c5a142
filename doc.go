// Package gridfilter compiles user-built filter rule trees into predicates
// over typed records and applies them, with sorting and paging, to data
// grid collections.
//
// The gridfilter package ties the lower-level packages together:
//   - filter: rule trees, operator catalog, literal coercion, compilation,
//     wire codecs and SQL / expr-lang pushdown
//   - record: field accessors for maps, Go values and Apache Arrow batches
//   - grid: grid view state, in-memory, Arrow and DuckDB pagers
//
// # Quick Start
//
//	type Person struct {
//	    Name string
//	    Age  *int
//	}
//
//	people := record.NewTable[Person]().
//	    Field("name", filter.String(), func(p Person) any { return p.Name }).
//	    Field("age", filter.Int().AsNullable(), func(p Person) any { return p.Age })
//
//	eng, err := gridfilter.New[Person](people, gridfilter.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	root, err := gridfilter.NewRuleBuilder().
//	    Where("age", filter.OpGE, 18).
//	    Where("name", filter.OpStartsWith, "A").
//	    Build(people)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	adults, diags, err := eng.Filter(root, all)
//
// # Lenient Compilation
//
// By default a leaf whose literal cannot be coerced to the field's type, or
// whose operator does not belong to the field's category, accepts every
// record. The problem is reported in the returned filter.Diagnostics and
// logged at Warn level. Set Config.Strict to fail compilation instead.
//
// # Configuration
//
// Config can be built in code, decoded from a map with ConfigFromMap, or
// read from a YAML file with LoadConfig:
//
//	log_level: debug
//	strict: false
//	location: Europe/Berlin
//	max_page_size: 500
package gridfilter
