package filter

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/hugr-lab/gridfilter/internal/msgpack"
)

// Node is the serialized form of a rule tree node. It carries only the
// children-down shape; parent links and ids are not part of the wire form.
//
//	{ "label": ..., "field": ..., "operator": ..., "value": ...,
//	  "condition": "AND"|"OR"|null, "rules": [ ... ] }
//
// An absent or null value decodes to the null Value.
type Node struct {
	Label     string    `json:"label,omitempty" yaml:"label,omitempty"`
	Field     string    `json:"field,omitempty" yaml:"field,omitempty"`
	Operator  Operator  `json:"operator,omitempty" yaml:"operator,omitempty"`
	Value     Value     `json:"value" yaml:"value,omitempty"`
	Condition Condition `json:"condition,omitempty" yaml:"condition,omitempty"`
	Disabled  bool      `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Rules     []*Node   `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// FromNode materializes a rule tree from its serialized form. Every node
// gets a fresh id. Literals stay wire Values until compilation coerces them
// against the field type.
func FromNode(n *Node) *Rule {
	if n == nil {
		return nil
	}
	r := NewRule()
	r.Label = n.Label
	r.Field = n.Field
	r.Operator = n.Operator
	r.Condition = n.Condition
	r.Disabled = n.Disabled
	if !n.Value.IsNull() {
		r.Value = n.Value
	}
	for _, child := range n.Rules {
		if child == nil {
			continue
		}
		c := FromNode(child)
		c.parent = r
		r.children = append(r.children, c)
	}
	return r
}

// Parse decodes a JSON rule tree.
//
// Error conditions:
//   - Invalid JSON syntax
//   - Object or nested-array literals in "value"
//   - An empty or null document
func Parse(data []byte) (*Rule, error) {
	n, err := ParseNode(data)
	if err != nil {
		return nil, err
	}
	return FromNode(n), nil
}

// ParseNode decodes a JSON rule tree into its serialized form.
func ParseNode(data []byte) (*Node, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("filter: empty rule document")
	}
	var n *Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("filter: invalid JSON: %w", err)
	}
	if n == nil {
		return nil, fmt.Errorf("filter: null rule document")
	}
	return n, nil
}

// ParseMsgpack decodes a MessagePack rule tree written by MarshalMsgpack.
func ParseMsgpack(data []byte) (*Rule, error) {
	var n Node
	if err := msgpack.Decode(data, &n); err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	return FromNode(&n), nil
}

// ParseYAML decodes a YAML rule tree, the format used for saved presets.
func ParseYAML(data []byte) (*Rule, error) {
	var n Node
	if err := yaml.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("filter: invalid YAML: %w", err)
	}
	return FromNode(&n), nil
}
