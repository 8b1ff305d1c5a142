// Package filter compiles user-built rule trees into record predicates.
//
// A rule tree is a recursive AND/OR structure of leaf tests. Each leaf names
// a field, an operator and a literal value. The package provides:
//   - Classification of field types into operator categories
//   - Coercion of loosely-typed literals (text, wire values, native values)
//   - The operator catalog per category
//   - Compilation of leaves and whole trees into Predicate values
//   - Editing operations that keep the tree consistent
//   - JSON, MessagePack and YAML codecs for the serialized tree
//   - Pushdown encoders for DuckDB SQL and expr-lang
//
// # Basic Usage
//
// Build or parse a tree, then compile it against a FieldAccessor:
//
//	root, err := filter.Parse(data)
//	if err != nil {
//	    return err // Malformed JSON
//	}
//
//	c := filter.NewCompiler[Person](accessor, nil)
//	pred, diags, err := c.Compile(root)
//	if err != nil {
//	    return err // Unsupported field type or malformed tree
//	}
//	if pred == nil {
//	    // no filter configured
//	}
//
// Literals that fail coercion do not abort compilation: the leaf accepts
// every record and the failure is reported in diags. Set
// CompilerOptions.Strict to turn these into errors.
//
// # Tree Editing
//
// AddChild turns a leaf into a group header. The first child of a group
// takes the inverse of the parent's condition, so nested groups alternate
// between AND and OR:
//
//	root := filter.NewRule()
//	a := root.AddChild()   // root becomes AND
//	b := a.AddChild()      // a becomes OR
//
// # SQL Pushdown
//
// The DuckDB encoder renders the same semantics as SQL:
//
//	enc := filter.NewDuckDBEncoder(schema, &filter.EncoderOptions{
//	    ColumnMapping: map[string]string{"created": "created_at"},
//	})
//	where := enc.Encode(root)
//
// Leaves that cannot be rendered are treated like the always-true tests the
// compiler would build for them:
//   - For AND: Skips the leaf, keeps others
//   - For OR: Skips the entire OR
//   - Returns empty string if nothing can be rendered
package filter
