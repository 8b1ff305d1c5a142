package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/hugr-lab/gridfilter/internal/msgpack"
)

// ToNode converts a rule tree into its serialized form. Parent links and
// ids are dropped. Literals are converted with FromAny.
func ToNode(r *Rule) (*Node, error) {
	if r == nil {
		return nil, nil
	}
	v, err := FromAny(r.Value)
	if err != nil {
		return nil, fmt.Errorf("filter: rule %s value: %w", r.ID, err)
	}
	n := &Node{
		Label:     r.Label,
		Field:     r.Field,
		Operator:  r.Operator,
		Value:     v,
		Condition: r.Condition,
		Disabled:  r.Disabled,
	}
	if len(r.children) > 0 {
		n.Rules = make([]*Node, 0, len(r.children))
		for _, c := range r.children {
			cn, err := ToNode(c)
			if err != nil {
				return nil, err
			}
			n.Rules = append(n.Rules, cn)
		}
	}
	return n, nil
}

// Marshal encodes a rule tree as JSON. Operator tokens such as ">" are
// written without HTML escaping.
func Marshal(r *Rule) ([]byte, error) {
	n, err := ToNode(r)
	if err != nil {
		return nil, err
	}
	return json.MarshalNoEscape(n)
}

// MarshalMsgpack encodes a rule tree as MessagePack.
func MarshalMsgpack(r *Rule) ([]byte, error) {
	n, err := ToNode(r)
	if err != nil {
		return nil, err
	}
	return msgpack.Encode(n)
}

// MarshalYAML encodes a rule tree as a YAML document.
func MarshalYAML(r *Rule) ([]byte, error) {
	n, err := ToNode(r)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(n)
}

// Encoder renders a rule tree into a query language for pushdown.
// Implementations handle dialect-specific syntax (DuckDB, expr-lang, etc.).
type Encoder interface {
	// Encode renders the tree rooted at r, ignoring disabled subtrees.
	// Returns an empty string when nothing can be rendered.
	Encode(r *Rule) string
}

// EncoderOptions configures encoding behavior.
type EncoderOptions struct {
	// ColumnMapping maps field names to target column names.
	// Fields not in the map use their original names.
	ColumnMapping map[string]string

	// ColumnExpressions maps field names to SQL expressions.
	// Takes precedence over ColumnMapping.
	// Use for computed columns or complex transformations.
	ColumnExpressions map[string]string

	// Location is used for date/time literals without a zone offset.
	// Defaults to UTC.
	Location *time.Location
}

// escapeString escapes single quotes in a string value for SQL.
func escapeString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// quoteLiteral returns a SQL string literal with proper escaping.
func quoteLiteral(s string) string {
	return "'" + escapeString(s) + "'"
}

// QuoteIdentifier returns a quoted identifier if needed.
// DuckDB uses double quotes for identifiers.
func QuoteIdentifier(name string) string {
	if needsQuoting(name) {
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
	return name
}

func needsQuoting(name string) bool {
	if len(name) == 0 {
		return true
	}

	c := name[0]
	if !isLetter(c) && c != '_' {
		return true
	}
	for i := 1; i < len(name); i++ {
		c = name[i]
		if !isLetter(c) && !isDigit(c) && c != '_' {
			return true
		}
	}

	switch strings.ToUpper(name) {
	case "SELECT", "FROM", "WHERE", "AND", "OR", "NOT", "NULL", "TRUE", "FALSE",
		"JOIN", "ON", "AS", "IN", "IS", "LIKE", "BETWEEN", "CASE", "WHEN", "THEN",
		"ELSE", "END", "ORDER", "BY", "GROUP", "HAVING", "LIMIT", "OFFSET",
		"ALL", "DISTINCT", "ASC", "DESC", "CAST", "INTERVAL", "DATE", "TIME",
		"TIMESTAMP", "USER", "DEFAULT", "TABLE", "COLUMN":
		return true
	}
	return false
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
