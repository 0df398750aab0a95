package glrcore

import "testing"

func TestNodeRetainReleaseReturnsToArena(t *testing.T) {
	a := NewArena()
	tok := Token{Symbol: 1, Text: "x", StartByte: 0, EndByte: 1}
	leaf := a.MakeLeaf(1, tok, 0, true)

	leaf.Retain()
	if leaf.refCount != 2 {
		t.Fatalf("refCount after Retain = %d, want 2", leaf.refCount)
	}
	leaf.Release()
	if leaf.refCount != 1 {
		t.Fatalf("refCount after one Release = %d, want 1", leaf.refCount)
	}
	leaf.Release()
	// Now at zero; the node was reset and returned to the free list. A
	// fresh alloc from the same class should recycle it (best-effort
	// check: the pointer identity is an implementation detail we don't
	// assert on, but the arena must not panic on repeated alloc/free).
	again := a.AllocFull()
	if again == nil {
		t.Fatal("AllocFull returned nil after a release")
	}
}

func TestMakeNodeAggregatesChildren(t *testing.T) {
	a := NewArena()
	left := a.MakeLeaf(1, Token{StartByte: 0, EndByte: 2, Text: "ab"}, 0, true)
	right := a.MakeLeaf(2, Token{StartByte: 2, EndByte: 5, Text: "cde"}, 0, true)
	right.ErrorCost = 7

	parent := a.MakeNode(3, 0, []*Node{left, right}, 0, 2, true)

	if parent.StartByte() != 0 || parent.EndByte() != 5 {
		t.Fatalf("byte range = [%d,%d), want [0,5)", parent.StartByte(), parent.EndByte())
	}
	if parent.ErrorCost != 7 {
		t.Fatalf("ErrorCost = %d, want 7 (summed from children)", parent.ErrorCost)
	}
	if parent.DynamicPrecedence != 2 {
		t.Fatalf("DynamicPrecedence = %d, want 2 (own production precedence)", parent.DynamicPrecedence)
	}
	if parent.DescendantCount != 3 {
		t.Fatalf("DescendantCount = %d, want 3", parent.DescendantCount)
	}
}

func TestMakeNodeSumsDynamicPrecedenceAcrossChildren(t *testing.T) {
	a := NewArena()
	left := a.MakeLeaf(1, Token{StartByte: 0, EndByte: 1, Text: "a"}, 0, true)
	left.DynamicPrecedence = 3
	right := a.MakeLeaf(2, Token{StartByte: 1, EndByte: 2, Text: "b"}, 0, true)
	right.DynamicPrecedence = 4

	parent := a.MakeNode(3, 0, []*Node{left, right}, 0, 1, true)

	if parent.DynamicPrecedence != 8 {
		t.Fatalf("DynamicPrecedence = %d, want 8 (3+4 from children plus 1 of its own, not max(3,4)+1)", parent.DynamicPrecedence)
	}
}

func TestMakeMissingLeafIsFragile(t *testing.T) {
	a := NewArena()
	n := a.MakeMissingLeaf(5, 10, Point{Row: 1, Column: 2}, 0)
	if !n.IsMissing || !n.FragileLeft || !n.FragileRight {
		t.Fatalf("missing leaf not marked fragile: %+v", n)
	}
	if n.ErrorCost != errorCostPerMissingTree {
		t.Fatalf("ErrorCost = %d, want %d", n.ErrorCost, errorCostPerMissingTree)
	}
	if n.StartByte() != n.EndByte() {
		t.Fatal("a missing leaf must be zero-width")
	}
}

func TestMakeCopyDetachesFromOriginal(t *testing.T) {
	a := NewArena()
	child := a.MakeLeaf(1, Token{StartByte: 0, EndByte: 1, Text: "x"}, 0, true)
	parent := a.MakeNode(2, 0, []*Node{child}, 0, 0, true)

	cp := a.MakeCopy(parent)
	cp.ByteRange.EndByte = 99

	if parent.ByteRange.EndByte == 99 {
		t.Fatal("mutating the copy's byte range mutated the original")
	}
	if len(cp.Children) != 1 || cp.Children[0] != child {
		t.Fatal("copy should retain the same child pointers as the original")
	}
}

func TestMakeErrorCostMatchesSingleSkippedChar(t *testing.T) {
	a := NewArena()
	n := a.MakeError(4, 5, Point{Column: 4}, Point{Column: 5}, ErrorState)

	want := errorCostPerRecoveredTree + errorCostPerSkippedChar
	if n.ErrorCost != want {
		t.Fatalf("ErrorCost for a single skipped char = %d, want %d (flat tree charge plus one char)", n.ErrorCost, want)
	}
	if !n.IsError || !n.IsLeaf {
		t.Fatal("MakeError should build an error leaf")
	}
	if !n.FragileLeft || !n.FragileRight {
		t.Fatal("an error leaf must be fragile on both edges")
	}
}

func TestMakeErrorRepeatMergesSkippedRuns(t *testing.T) {
	a := NewArena()
	first := a.MakeError(0, 1, Point{}, Point{Column: 1}, ErrorState)
	second := a.MakeError(1, 2, Point{Column: 1}, Point{Column: 2}, ErrorState)

	run1 := a.MakeErrorRepeat([]*Node{first})
	if run1.Symbol != SymErrorRepeat || run1.Visible {
		t.Fatal("MakeErrorRepeat should build a hidden error_repeat node")
	}
	if run1.ErrorCost != first.ErrorCost {
		t.Fatalf("single-child error_repeat cost = %d, want %d (inherited, no flat surcharge)", run1.ErrorCost, first.ErrorCost)
	}

	run2 := a.MakeErrorRepeat([]*Node{run1, a.MakeErrorRepeat([]*Node{second})})
	if run2.ErrorCost != first.ErrorCost+second.ErrorCost {
		t.Fatalf("merged error_repeat cost = %d, want %d (sum of both skipped units)", run2.ErrorCost, first.ErrorCost+second.ErrorCost)
	}
	if run2.StartByte() != 0 || run2.EndByte() != 2 {
		t.Fatalf("merged error_repeat span = [%d,%d), want [0,2)", run2.StartByte(), run2.EndByte())
	}
}

func TestTreeEditShiftsUnaffectedNodes(t *testing.T) {
	arena := NewArena()
	first := arena.MakeLeaf(1, Token{StartByte: 0, EndByte: 3, Text: "abc"}, 0, true)
	second := arena.MakeLeaf(1, Token{StartByte: 3, EndByte: 6, Text: "def"}, 0, true)
	root := arena.MakeNode(2, 0, []*Node{first, second}, 0, 0, true)
	tree := &Tree{Root: root, Arena: arena}

	// Insert two bytes right before "def".
	tree.Edit(InputEdit{
		StartByte: 3, OldEndByte: 3, NewEndByte: 5,
		StartPoint: Point{Column: 3}, OldEndPoint: Point{Column: 3}, NewEndPoint: Point{Column: 5},
	})

	newRoot := tree.RootNode()
	if newRoot.Children[0].StartByte() != 0 || newRoot.Children[0].EndByte() != 3 {
		t.Fatalf("node entirely before the edit should be unshifted, got [%d,%d)",
			newRoot.Children[0].StartByte(), newRoot.Children[0].EndByte())
	}
	if newRoot.Children[1].StartByte() != 5 || newRoot.Children[1].EndByte() != 8 {
		t.Fatalf("node after the edit should shift by +2, got [%d,%d)",
			newRoot.Children[1].StartByte(), newRoot.Children[1].EndByte())
	}
}
