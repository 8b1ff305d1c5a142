package filter

import (
	"strings"
	"testing"
)

// mixedTree builds a depth-3 tree with alternating AND/OR groups.
func mixedTree() *Rule {
	return NewGroup(And,
		NewLeaf("age", OpGT, 30),
		NewGroup(Or,
			NewLeaf("name", OpStartsWith, "Smith"),
			NewGroup(And,
				NewLeaf("color", OpIsOneOf, []string{"Red", "Blue"}),
				NewLeaf("active", OpIs, true),
				NewLeaf("created", OpIsEmpty, nil),
			),
		),
	)
}

func assertSameTree(t *testing.T, path string, want, got *Rule) {
	t.Helper()
	if want.Field != got.Field || want.Operator != got.Operator ||
		want.Condition != got.Condition || want.Label != got.Label || want.Disabled != got.Disabled {
		t.Errorf("%s: node mismatch: want %q %q %q, got %q %q %q",
			path, want.Field, want.Operator, want.Condition, got.Field, got.Operator, got.Condition)
	}
	wv, err := FromAny(want.Value)
	if err != nil {
		t.Fatalf("%s: FromAny failed: %v", path, err)
	}
	gv, err := FromAny(got.Value)
	if err != nil {
		t.Fatalf("%s: FromAny failed: %v", path, err)
	}
	if !wv.Equal(gv) {
		t.Errorf("%s: value mismatch: want %s %q, got %s %q", path, wv.Kind(), wv, gv.Kind(), gv)
	}
	if want.Len() != got.Len() {
		t.Fatalf("%s: want %d children, got %d", path, want.Len(), got.Len())
	}
	for i := range want.Len() {
		c := got.Child(i)
		if c.Parent() != got {
			t.Errorf("%s/%d: parent link not restored", path, i)
		}
		assertSameTree(t, path+"/"+want.Child(i).Field, want.Child(i), c)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	tree := mixedTree()
	tree.Label = "adults"
	tree.Child(0).SetDisabled(true)

	data, err := Marshal(tree)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	got, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	assertSameTree(t, "root", tree, got)

	if got.ID == tree.ID {
		t.Error("parsed rules should get fresh ids")
	}
}

func TestMsgpackRoundTrip(t *testing.T) {
	tree := mixedTree()
	data, err := MarshalMsgpack(tree)
	if err != nil {
		t.Fatalf("MarshalMsgpack failed: %v", err)
	}
	got, err := ParseMsgpack(data)
	if err != nil {
		t.Fatalf("ParseMsgpack failed: %v", err)
	}
	assertSameTree(t, "root", tree, got)
}

func TestYAMLRoundTrip(t *testing.T) {
	tree := mixedTree()
	data, err := MarshalYAML(tree)
	if err != nil {
		t.Fatalf("MarshalYAML failed: %v", err)
	}
	got, err := ParseYAML(data)
	if err != nil {
		t.Fatalf("ParseYAML failed: %v\n%s", err, data)
	}
	assertSameTree(t, "root", tree, got)
}

func TestMarshalLeafShape(t *testing.T) {
	data, err := Marshal(NewLeaf("age", OpGT, 30))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	expected := `{"field":"age","operator":">","value":30}`
	if string(data) != expected {
		t.Errorf("expected %s, got %s", expected, data)
	}

	data, err = Marshal(NewLeaf("name", OpIsEmpty, nil))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	expected = `{"field":"name","operator":"is empty","value":null}`
	if string(data) != expected {
		t.Errorf("expected %s, got %s", expected, data)
	}
}

func TestParseWireValues(t *testing.T) {
	tests := []struct {
		name string
		json string
		kind ValueKind
		text string
	}{
		{"absent", `{"field":"name","operator":"equals"}`, KindNull, ""},
		{"null", `{"field":"name","operator":"equals","value":null}`, KindNull, ""},
		{"text", `{"field":"name","operator":"equals","value":"Doe"}`, KindText, "Doe"},
		{"number", `{"field":"age","operator":">","value":4.50}`, KindNumber, "4.50"},
		{"bool", `{"field":"active","operator":"is","value":false}`, KindBool, "false"},
		{"sequence", `{"field":"name","operator":"is one of","value":["a",1,null,true]}`, KindSequence, "a, 1, true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := ParseNode([]byte(tt.json))
			if err != nil {
				t.Fatalf("ParseNode failed: %v", err)
			}
			if n.Value.Kind() != tt.kind || n.Value.String() != tt.text {
				t.Errorf("got %s %q, want %s %q", n.Value.Kind(), n.Value, tt.kind, tt.text)
			}
			r := FromNode(n)
			if tt.kind == KindNull && r.Value != nil {
				t.Errorf("null wire value must materialize as nil, got %#v", r.Value)
			}
		})
	}
}

func TestParseWireNumberIsCoercedPerField(t *testing.T) {
	r, err := Parse([]byte(`{"condition":"AND","rules":[{"field":"age","operator":">=","value":"42"},{"field":"name","operator":"equals","value":42}]}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	p, diags, err := newTestCompiler(nil).Compile(r)
	if err != nil || len(diags) != 0 {
		t.Fatalf("Compile failed: %v %v", err, diags)
	}
	if !p(testRecord{"age": 42, "name": "42"}) {
		t.Error("text number and numeric text should both coerce")
	}
	if p(testRecord{"age": 41, "name": "42"}) {
		t.Error("41 >= 42 should not match")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ``},
		{"null", `null`},
		{"syntax", `{"field":`},
		{"object value", `{"field":"x","operator":"equals","value":{"a":1}}`},
		{"nested sequence", `{"field":"x","operator":"is one of","value":[["a"]]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.HasPrefix(err.Error(), "filter:") {
				t.Errorf("error should carry the package prefix: %v", err)
			}
		})
	}
}

func TestToNodeRejectsUnsupportedValue(t *testing.T) {
	_, err := Marshal(NewLeaf("name", OpEquals, map[string]int{"a": 1}))
	if err == nil {
		t.Fatal("expected error for map literal")
	}
}
