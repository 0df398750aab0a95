package glrcore

import "testing"

func TestStackPushAndPopCount(t *testing.T) {
	a := NewArena()
	s := NewStack(a, 1)

	leaf1 := a.MakeLeaf(1, Token{StartByte: 0, EndByte: 1, Text: "a"}, 2, true)
	leaf2 := a.MakeLeaf(1, Token{StartByte: 1, EndByte: 2, Text: "b"}, 3, true)
	s.Push(0, 2, leaf1)
	s.Push(0, 3, leaf2)

	if s.Depth(0) != 2 {
		t.Fatalf("Depth = %d, want 2", s.Depth(0))
	}
	if s.State(0) != 3 {
		t.Fatalf("State = %d, want 3", s.State(0))
	}

	nodes := s.PopCount(0, 2)
	if len(nodes) != 2 || nodes[0] != leaf1 || nodes[1] != leaf2 {
		t.Fatalf("PopCount returned %+v, want [leaf1 leaf2]", nodes)
	}
	if s.Depth(0) != 0 {
		t.Fatalf("Depth after PopCount = %d, want 0", s.Depth(0))
	}
	if s.State(0) != 1 {
		t.Fatalf("State after PopCount = %d, want back to initial state 1", s.State(0))
	}
}

func TestCopyVersionForksIndependently(t *testing.T) {
	a := NewArena()
	s := NewStack(a, 1)
	leaf := a.MakeLeaf(1, Token{StartByte: 0, EndByte: 1}, 2, true)
	s.Push(0, 2, leaf)

	j := s.CopyVersion(0)
	if s.VersionCount() != 2 {
		t.Fatalf("VersionCount = %d, want 2", s.VersionCount())
	}

	other := a.MakeLeaf(1, Token{StartByte: 1, EndByte: 2}, 3, true)
	s.Push(j, 3, other)

	if s.Depth(0) != 1 {
		t.Fatalf("original version depth = %d, want 1 (unaffected by fork's push)", s.Depth(0))
	}
	if s.Depth(j) != 2 {
		t.Fatalf("forked version depth = %d, want 2", s.Depth(j))
	}
	if s.State(0) == s.State(j) {
		t.Fatal("versions should have diverged after the fork's own push")
	}
}

func TestCanMergeRequiresSameStateAndSpan(t *testing.T) {
	a := NewArena()
	s := NewStack(a, 1)
	leaf := a.MakeLeaf(1, Token{StartByte: 0, EndByte: 3}, 5, true)
	s.Push(0, 5, leaf)
	j := s.CopyVersion(0)

	if !s.CanMerge(0, j) {
		t.Fatal("identical forks at the same state and span should be mergeable")
	}

	other := a.MakeLeaf(1, Token{StartByte: 0, EndByte: 4}, 5, true)
	s.PopCount(j, 1)
	s.Push(j, 5, other)
	if s.CanMerge(0, j) {
		t.Fatal("versions covering different byte spans should not be mergeable")
	}
}

func TestCondenseStackMergesIdenticalVersions(t *testing.T) {
	a := NewArena()
	s := NewStack(a, 1)
	leaf := a.MakeLeaf(1, Token{StartByte: 0, EndByte: 1}, 2, true)
	s.Push(0, 2, leaf)
	s.CopyVersion(0)
	s.CopyVersion(0)

	if s.VersionCount() != 3 {
		t.Fatalf("VersionCount before condense = %d, want 3", s.VersionCount())
	}
	s.CondenseStack()
	if s.VersionCount() != 1 {
		t.Fatalf("VersionCount after condense = %d, want 1 (all three were identical)", s.VersionCount())
	}
}

func TestCondenseStackPrunesExpensiveVersions(t *testing.T) {
	a := NewArena()
	s := NewStack(a, 1)
	for i := 0; i < maxVersionCount+2; i++ {
		if i > 0 {
			s.CopyVersion(0)
		}
	}
	// Give each version a distinct, non-mergeable position and a cost far
	// enough apart that condense must drop the worst ones.
	for i := 0; i < s.VersionCount(); i++ {
		leaf := a.MakeLeaf(1, Token{StartByte: uint32(i), EndByte: uint32(i + 1)}, StateID(i + 2), true)
		s.Push(i, StateID(i+2), leaf)
		s.SetErrorCost(i, int32(i)*(maxCostDifference+1))
	}

	s.CondenseStack()
	if s.VersionCount() > maxVersionCount {
		t.Fatalf("VersionCount after condense = %d, want <= %d", s.VersionCount(), maxVersionCount)
	}
}

func TestCanMergeRejectsDifferentExternalTokenState(t *testing.T) {
	a := NewArena()
	s := NewStack(a, 1)
	leaf := a.MakeLeaf(1, Token{StartByte: 0, EndByte: 3}, 5, true)
	s.Push(0, 5, leaf)
	j := s.CopyVersion(0)

	if !s.CanMerge(0, j) {
		t.Fatal("identical forks should be mergeable before their scanner states diverge")
	}

	s.SetLastExternalTokenState(j, []byte{1, 2, 3})
	if s.CanMerge(0, j) {
		t.Fatal("versions with different external scanner state should not be mergeable")
	}
}

func TestCanMergeRejectsDifferentPosition(t *testing.T) {
	a := NewArena()
	s := NewStack(a, 1)
	leaf := a.MakeLeaf(1, Token{StartByte: 0, EndByte: 3}, 5, true)
	s.Push(0, 5, leaf)
	j := s.CopyVersion(0)

	s.SetPosition(j, 9, Point{Column: 9})
	if s.CanMerge(0, j) {
		t.Fatal("versions at different input positions should not be mergeable even with identical top state and span")
	}
}

func TestRecordSummaryTracksDepthAcrossPushes(t *testing.T) {
	a := NewArena()
	s := NewStack(a, 1)

	s.RecordSummary(0, 5, 0, Point{})
	leaf := a.MakeLeaf(1, Token{StartByte: 0, EndByte: 1}, 6, true)
	s.Push(0, 6, leaf)

	cands := s.SummaryCandidates(0)
	if len(cands) != 1 {
		t.Fatalf("SummaryCandidates returned %d entries, want 1", len(cands))
	}
	if cands[0].state != 5 {
		t.Fatalf("candidate state = %d, want 5", cands[0].state)
	}
	if cands[0].depth != 1 {
		t.Fatalf("candidate depth = %d, want 1 (one frame pushed since recording)", cands[0].depth)
	}

	leaf2 := a.MakeLeaf(1, Token{StartByte: 1, EndByte: 2}, 7, true)
	s.Push(0, 7, leaf2)
	cands = s.SummaryCandidates(0)
	if cands[0].depth != 2 {
		t.Fatalf("candidate depth after second push = %d, want 2", cands[0].depth)
	}
}

func TestRecordSummaryIgnoresRepeatState(t *testing.T) {
	a := NewArena()
	s := NewStack(a, 1)

	s.RecordSummary(0, 5, 0, Point{})
	s.RecordSummary(0, 5, 100, Point{Column: 100})

	cands := s.SummaryCandidates(0)
	if len(cands) != 1 {
		t.Fatalf("SummaryCandidates returned %d entries, want 1 (second record of the same state is a no-op)", len(cands))
	}
	if cands[0].pos != 0 {
		t.Fatalf("candidate pos = %d, want 0 (first recording wins)", cands[0].pos)
	}
}

func TestCompareErrorStatusPrefersNonErrorByWideMargin(t *testing.T) {
	clean := errorStatus{cost: 0, inError: false}
	errored := errorStatus{cost: maxCostDifference + 1000, inError: true}

	if got := compareErrorStatus(clean, errored); got != cmpTakeLeft {
		t.Fatalf("compareErrorStatus(clean, errored) = %v, want cmpTakeLeft", got)
	}
	if got := compareErrorStatus(errored, clean); got != cmpTakeRight {
		t.Fatalf("compareErrorStatus(errored, clean) = %v, want cmpTakeRight", got)
	}
}

func TestCompareErrorStatusPrefersNonErrorByNarrowMargin(t *testing.T) {
	clean := errorStatus{cost: 0, inError: false}
	errored := errorStatus{cost: 1, inError: true}

	if got := compareErrorStatus(clean, errored); got != cmpPreferLeft {
		t.Fatalf("compareErrorStatus(clean, errored) = %v, want cmpPreferLeft (gap too small to take outright)", got)
	}
}

func TestCompareErrorStatusFallsBackToCostGap(t *testing.T) {
	cheap := errorStatus{cost: 0, inError: true, nodeCount: 0}
	expensive := errorStatus{cost: maxCostDifference + 1, inError: true, nodeCount: 0}

	if got := compareErrorStatus(cheap, expensive); got != cmpTakeLeft {
		t.Fatalf("compareErrorStatus(cheap, expensive) = %v, want cmpTakeLeft", got)
	}
}

func TestBetterVersionExistsFindsCheaperVersionAhead(t *testing.T) {
	a := NewArena()
	s := NewStack(a, 1)
	leaf := a.MakeLeaf(1, Token{StartByte: 0, EndByte: 5}, 2, true)
	s.Push(0, 2, leaf)
	s.SetPosition(0, 5, Point{Column: 5})

	j := s.CopyVersion(0)
	other := a.MakeLeaf(1, Token{StartByte: 5, EndByte: 6}, 3, true)
	s.PopCount(j, 1)
	s.Push(j, 3, other)
	s.SetPosition(j, 6, Point{Column: 6})
	s.SetErrorCost(j, 0)

	candidate := errorStatus{cost: maxCostDifference + 500, inError: true}
	if !s.BetterVersionExists(0, candidate) {
		t.Fatal("a cheap non-error version further along should count as a better version")
	}
}

func TestBetterVersionExistsIgnoresVersionsBehind(t *testing.T) {
	a := NewArena()
	s := NewStack(a, 1)
	leaf := a.MakeLeaf(1, Token{StartByte: 0, EndByte: 5}, 2, true)
	s.Push(0, 2, leaf)
	s.SetPosition(0, 5, Point{Column: 5})

	j := s.CopyVersion(0)
	s.SetPosition(j, 1, Point{Column: 1})
	s.SetErrorCost(j, 0)

	candidate := errorStatus{cost: maxCostDifference + 500, inError: true}
	if s.BetterVersionExists(0, candidate) {
		t.Fatal("a version that hasn't reached this position yet shouldn't count as better")
	}
}
