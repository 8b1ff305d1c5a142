package filter

import (
	"errors"
	"testing"
)

func TestAddChildAlternatesConditions(t *testing.T) {
	root := NewRule()
	root.SetField("age", peopleSchema)
	root.SetOperator(OpGT)
	root.SetValue(30)

	first := root.AddChild()
	if root.Condition != And {
		t.Fatalf("root condition = %q, want AND", root.Condition)
	}
	if first.Field != "age" || first.Operator != OpGT || first.Value != 30 {
		t.Errorf("child did not inherit the leaf configuration: %+v", first)
	}
	if root.Field != "" || root.Operator != "" || root.Value != nil {
		t.Errorf("root was not reset to a group header: %+v", root)
	}
	if first.Parent() != root || root.Len() != 1 {
		t.Fatal("child not linked to root")
	}

	nested := first.AddChild()
	if first.Condition != Or {
		t.Errorf("nested group condition = %q, want OR", first.Condition)
	}
	if nested.Field != "age" || nested.Depth() != 2 || nested.Root() != root {
		t.Errorf("unexpected nested leaf: field=%q depth=%d", nested.Field, nested.Depth())
	}

	deeper := nested.AddChild()
	if nested.Condition != And {
		t.Errorf("third level condition = %q, want AND", nested.Condition)
	}
	if deeper.Field != "age" {
		t.Errorf("deeper leaf field = %q", deeper.Field)
	}

	// A second child keeps the existing condition.
	first.SetCondition(And)
	first.AddChild()
	if first.Condition != And || first.Len() != 2 {
		t.Errorf("adding a sibling changed the group: cond=%q len=%d", first.Condition, first.Len())
	}
}

func TestAddChildRootKeepsCondition(t *testing.T) {
	root := NewRule()
	root.SetCondition(Or)
	root.AddChild()
	if root.Condition != Or {
		t.Errorf("root condition = %q, want OR", root.Condition)
	}
}

func TestAddChildClearsDisabled(t *testing.T) {
	root := NewRule()
	root.SetDisabled(true)
	root.AddChild()
	if root.Disabled {
		t.Error("group header should be enabled after AddChild")
	}
}

func TestSetFieldResetsOnCategoryChange(t *testing.T) {
	r := NewRule()
	r.SetField("age", peopleSchema)
	r.SetOperator(OpGT)
	r.SetValue(10)

	r.SetField("score", peopleSchema)
	if r.Operator != OpGT || r.Value != 10 {
		t.Error("same-category field change must keep operator and value")
	}

	r.SetField("name", peopleSchema)
	if r.Operator != "" || r.Value != nil {
		t.Errorf("category change must reset operator and value, got %q %v", r.Operator, r.Value)
	}
	if r.State() != StateFieldSelected {
		t.Errorf("state = %s, want field-selected", r.State())
	}
}

func TestSetOperatorLeavingSetClearsValue(t *testing.T) {
	r := NewLeaf("name", OpIsOneOf, []string{"a", "b"})
	r.SetOperator(OpIsNotOneOf)
	if r.Value == nil {
		t.Error("switching between set operators must keep the selection")
	}
	r.SetOperator(OpEquals)
	if r.Value != nil {
		t.Errorf("leaving a set operator must clear the value, got %v", r.Value)
	}
	if r.State() != StateConfigured {
		t.Errorf("state = %s, want configured", r.State())
	}
}

func TestRemoveChild(t *testing.T) {
	root, a, b := ageAndName()

	if err := root.RemoveChild(NewRule()); !errors.Is(err, ErrNotChild) {
		t.Errorf("expected ErrNotChild, got %v", err)
	}
	if err := root.RemoveChild(a); err != nil {
		t.Fatalf("RemoveChild failed: %v", err)
	}
	if root.Len() != 1 || root.Child(0) != b {
		t.Fatal("unexpected children after removal")
	}
	if !a.Removed() || a.Parent() != nil {
		t.Error("removed node still attached")
	}
	if root.Find(a.ID) != nil {
		t.Error("removed node still reachable")
	}

	if err := root.RemoveChild(b); err != nil {
		t.Fatalf("RemoveChild failed: %v", err)
	}
	if root.HasChildren() || root.Condition != "" {
		t.Errorf("empty group should lose its condition, got %q", root.Condition)
	}
}

func TestRemovedRulePanics(t *testing.T) {
	root, a, _ := ageAndName()
	if err := root.RemoveChild(a); err != nil {
		t.Fatalf("RemoveChild failed: %v", err)
	}

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrRuleRemoved) {
			t.Errorf("expected ErrRuleRemoved panic, got %v", r)
		}
	}()
	a.SetValue(1)
}

func TestAppendCyclePanics(t *testing.T) {
	root := NewGroup(And, NewLeaf("age", OpGT, 1))
	child := root.Child(0)

	defer func() {
		if r := recover(); r != ErrCycle {
			t.Errorf("expected ErrCycle panic, got %v", r)
		}
	}()
	child.Append(root)
}

func TestAppendMovesChild(t *testing.T) {
	leaf := NewLeaf("age", OpGT, 1)
	g1 := NewGroup(And, leaf)
	g2 := NewGroup(Or)
	g2.Append(leaf)
	if g1.Len() != 0 || g2.Len() != 1 || leaf.Parent() != g2 {
		t.Error("Append did not move the child")
	}
}

func TestDeepCloneIsIndependent(t *testing.T) {
	root := NewGroup(And,
		NewLeaf("name", OpIsOneOf, []string{"a", "b"}),
		NewGroup(Or, NewLeaf("age", OpGT, 30), NewLeaf("age", OpLT, 10)),
	)
	root.Label = "preset"

	clone := root.DeepClone(true)
	if clone.ID != root.ID || clone.Label != "preset" || clone.Parent() != nil {
		t.Error("clone with kept ids should mirror the root")
	}

	leaf := clone.Child(1).Child(0)
	leaf.SetValue(99)
	if root.Child(1).Child(0).Value != 30 {
		t.Error("mutating a cloned leaf changed the original")
	}

	set := clone.Child(0).Value.([]string)
	set[0] = "z"
	if root.Child(0).Value.([]string)[0] != "a" {
		t.Error("clone shares the multi-value literal")
	}

	clone.Child(1).AddChild()
	if root.Child(1).Len() != 2 {
		t.Error("clone shares a children slice with the original")
	}
	if clone.Child(1).Child(0).Parent() != clone.Child(1) {
		t.Error("clone parent links point into the original")
	}

	fresh := root.DeepClone(false)
	seen := map[string]bool{}
	root.Walk(func(n *Rule) bool { seen[n.ID.String()] = true; return true })
	fresh.Walk(func(n *Rule) bool {
		if seen[n.ID.String()] {
			t.Errorf("fresh clone reused id %s", n.ID)
		}
		return true
	})
}

func TestValidate(t *testing.T) {
	root, _, _ := ageAndName()
	if err := root.Validate(peopleSchema); err != nil {
		t.Fatalf("valid tree rejected: %v", err)
	}

	root.Child(0).Operator = OpContains
	root.Condition = ""
	err := root.Validate(peopleSchema)
	var me *MalformedTreeError
	var oe *OperatorError
	if !errors.As(err, &me) || !errors.As(err, &oe) {
		t.Errorf("expected malformed tree and operator errors, got %v", err)
	}

	if err := root.Validate(nil); !errors.As(err, &me) {
		t.Errorf("structural checks must run without types, got %v", err)
	}
}

func TestWalkAndFind(t *testing.T) {
	root, a, b := ageAndName()
	var visited []*Rule
	root.Walk(func(n *Rule) bool {
		visited = append(visited, n)
		return true
	})
	if len(visited) != 3 || visited[0] != root || visited[1] != a || visited[2] != b {
		t.Errorf("unexpected walk order")
	}

	count := 0
	root.Walk(func(n *Rule) bool {
		count++
		return false
	})
	if count != 1 {
		t.Errorf("returning false should skip children, visited %d", count)
	}

	if root.Find(b.ID) != b {
		t.Error("Find did not locate child")
	}
	if len(root.Children()) != 2 || b.IsRoot() || !root.IsRoot() {
		t.Error("unexpected children")
	}
}
