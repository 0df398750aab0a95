package glrcore

import "testing"

func buildSampleTree(a *Arena) *Tree {
	leafA := a.MakeLeaf(1, Token{StartByte: 0, EndByte: 1, Text: "a"}, 0, true)
	leafB := a.MakeLeaf(1, Token{StartByte: 1, EndByte: 2, Text: "b"}, 0, true)
	inner := a.MakeNode(2, 0, []*Node{leafA, leafB}, 0, 0, true)
	leafC := a.MakeLeaf(1, Token{StartByte: 2, EndByte: 3, Text: "c"}, 0, true)
	root := a.MakeNode(3, 0, []*Node{inner, leafC}, 0, 0, true)
	return &Tree{Root: root, Arena: a}
}

func TestCursorBreakdownDescends(t *testing.T) {
	a := NewArena()
	tree := buildSampleTree(a)
	c := NewCursor(tree)

	if c.Top() != tree.Root {
		t.Fatal("cursor should start at the root")
	}
	if !c.Breakdown() {
		t.Fatal("root has children, Breakdown should succeed")
	}
	if c.Top().StartByte() != 0 || c.Top().EndByte() != 2 {
		t.Fatalf("after one Breakdown, top = [%d,%d), want [0,2)", c.Top().StartByte(), c.Top().EndByte())
	}
	if !c.Breakdown() {
		t.Fatal("inner node has children, Breakdown should succeed again")
	}
	if c.Top().LexTokenText != "a" {
		t.Fatalf("top = %q, want leaf \"a\"", c.Top().LexTokenText)
	}
}

func TestCursorPopWalksSiblingsThenUp(t *testing.T) {
	a := NewArena()
	tree := buildSampleTree(a)
	c := NewCursor(tree)
	c.Breakdown() // -> inner [0,2)
	c.Breakdown() // -> leaf "a" [0,1)

	if !c.Pop() {
		t.Fatal("leaf \"a\" has a sibling, Pop should succeed")
	}
	if c.Top().LexTokenText != "b" {
		t.Fatalf("after Pop from \"a\", top = %q, want \"b\"", c.Top().LexTokenText)
	}

	if !c.Pop() {
		t.Fatal("popping past \"b\" should move up to the root's next child")
	}
	if c.Top().LexTokenText != "c" {
		t.Fatalf("after popping past inner, top = %q, want \"c\"", c.Top().LexTokenText)
	}

	if c.Pop() {
		t.Fatal("popping past the last top-level child should exhaust the cursor")
	}
	if !c.Done() {
		t.Fatal("cursor should report Done once exhausted")
	}
}

func TestCursorCanReuseRejectsChangedOrFragileNodes(t *testing.T) {
	a := NewArena()
	tree := buildSampleTree(a)
	lang := &Language{
		SymbolMetadata: []SymbolMetadata{{}, {Name: "leaf"}, {}, {}},
		ParseTable:     [][]uint16{{1}},
		ParseActions:   []ParseActionEntry{{}, {Reusable: true}},
	}
	lang.ParseTable = [][]uint16{{0, 1}} // state0, symbol1(leaf) -> action index 1 (reusable)

	c := NewCursor(tree)
	c.Breakdown()
	c.Breakdown()
	if !c.CanReuse(lang, 0) {
		t.Fatal("an untouched leaf whose symbol is marked reusable should be reusable")
	}

	c.Top().HasChanges = true
	if c.CanReuse(lang, 0) {
		t.Fatal("a node with HasChanges must never be reused")
	}

	c.Top().HasChanges = false
	c.Top().FragileLeft = true
	if c.CanReuse(lang, 0) {
		t.Fatal("a node with a fragile edge must never be reused")
	}
}
