package glrcore

import (
	"bytes"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// versionStatus tracks the bookkeeping the driver needs about one GSS
// branch beyond its raw entries: how expensive its recovery history has
// been so far, and whether it is still eligible to advance.
type versionStatus uint8

const (
	versionActive versionStatus = iota
	versionPaused
	versionHalted
	versionAccepted
)

// stackEntry is one (state, subtree) pair on a version's stack. node is
// nil only for the sentinel bottom-of-stack entry a fresh version starts
// with.
type stackEntry struct {
	state StateID
	node  *Node
}

// version is one branch of the graph-structured stack: an independent
// array of stack entries plus the error-recovery state the compare and
// condense steps need. Two versions that fork from a common point start
// out sharing nothing beyond having been copied from the same slice;
// afterwards each owns its own backing array, so mutating one never
// disturbs the other (the copy in copyVersion is the GSS's fork point).
type version struct {
	entries []stackEntry

	pos   uint32
	point Point

	status              versionStatus
	errorCost           int32
	nodeCountSinceError uint32
	dynamicPrecedence   int32

	externalTokenState []byte

	// pausedSym/pausedTok remember the lookahead a version stalled on when
	// it was paused rather than sent straight into recovery, so that once
	// condense_stack picks this version back up (because every other live
	// version is also stuck) the driver can resume exactly the failed
	// driveSymbol call instead of relexing.
	pausedSym Symbol
	pausedTok Token

	// summary records, per state a version was sitting at when it first
	// hit an unrecoverable lookahead, enough of that moment (how deep the
	// stack was, and where the input position stood) for a later recover
	// attempt to unwind back to it and try a different lookahead there.
	// Mirrors parser__record_summary / ts_stack_get_summary in shape,
	// keyed the same way, but stores a live snapshot rather than a visit
	// counter so depth can be recomputed exactly however many frames have
	// been pushed since, instead of trusting a cached count that recovery
	// itself (and the error_repeat merge it performs) could invalidate.
	summary *orderedmap.OrderedMap[StateID, summaryEntry]
}

// summaryEntry is one candidate unwind target recorded by RecordSummary:
// the state, how many real stack frames were present when it was recorded
// (so a later lookup can recompute how many frames to pop), and the input
// position/point at that time (so the recovery cost formula can charge for
// whatever got skipped between then and now).
type summaryEntry struct {
	frameLen int
	pos      uint32
	point    Point
}

// Stack is the graph-structured stack: a set of independently advancing
// versions, each a candidate parse of the input so far. The driver forks
// a version when the tables offer more than one action for a lookahead,
// and merges or discards versions once their futures can no longer be
// distinguished.
type Stack struct {
	arena       *Arena
	versions    []*version
	maxVersions int
}

// NewStack creates a Stack with a single version parked at initial. maxVersions
// governs how aggressively CondenseStack prunes; it starts at maxVersionCount
// and SetMaxVersions overrides it.
func NewStack(arena *Arena, initial StateID) *Stack {
	return &Stack{
		arena:       arena,
		maxVersions: maxVersionCount,
		versions: []*version{
			{entries: []stackEntry{{state: initial}}},
		},
	}
}

// SetMaxVersions overrides the version-count ceiling CondenseStack prunes
// towards, letting a Parser configured via WithMaxVersionCount give heavily
// ambiguous grammars more headroom than the package default.
func (s *Stack) SetMaxVersions(n int) {
	if n > 0 {
		s.maxVersions = n
	}
}

// VersionCount reports how many versions are currently live (including
// paused and halted ones; callers that only want progress-making versions
// should check IsActive themselves).
func (s *Stack) VersionCount() int { return len(s.versions) }

func (s *Stack) v(i int) *version { return s.versions[i] }

// State returns the state at the top of version i's stack.
func (s *Stack) State(i int) StateID {
	e := s.v(i).entries
	return e[len(e)-1].state
}

// Node returns the subtree at the top of version i's stack, or nil for
// the sentinel bottom entry.
func (s *Stack) Node(i int) *Node {
	e := s.v(i).entries
	return e[len(e)-1].node
}

// Depth reports how many real (non-sentinel) entries version i carries.
func (s *Stack) Depth(i int) int { return len(s.v(i).entries) - 1 }

// Position and Point report where in the input version i's lexer has
// reached. Versions can disagree here once error recovery has skipped
// different amounts of input on different branches.
func (s *Stack) Position(i int) uint32 { return s.v(i).pos }
func (s *Stack) Point(i int) Point     { return s.v(i).point }
func (s *Stack) SetPosition(i int, pos uint32, point Point) {
	v := s.v(i)
	v.pos, v.point = pos, point
}

// IsActive, IsPaused and IsHalted report a version's recovery status.
func (s *Stack) IsActive(i int) bool { return s.v(i).status == versionActive }
func (s *Stack) IsPaused(i int) bool { return s.v(i).status == versionPaused }
func (s *Stack) IsHalted(i int) bool { return s.v(i).status == versionHalted }

// Pause marks a version as parked on the lookahead (sym, tok) it found no
// table action for: it stays on the stack (so its cost can still be
// compared against active versions) but the driver skips it when stepping
// the parse forward, until condense_stack decides every other live
// version is equally stuck and resumes this one to actually try recovery.
func (s *Stack) Pause(i int, sym Symbol, tok Token) {
	v := s.v(i)
	v.status = versionPaused
	v.pausedSym = sym
	v.pausedTok = tok
}
func (s *Stack) Resume(i int)       { s.v(i).status = versionActive }
func (s *Stack) Halt(i int)         { s.v(i).status = versionHalted }
func (s *Stack) MarkAccepted(i int) { s.v(i).status = versionAccepted }

// PausedLookahead returns the (symbol, token) a paused version stalled on,
// recorded by Pause.
func (s *Stack) PausedLookahead(i int) (Symbol, Token) {
	v := s.v(i)
	return v.pausedSym, v.pausedTok
}

// AcceptedIndex returns the index of the first version that has reached
// ActionAccept, if any.
func (s *Stack) AcceptedIndex() (int, bool) {
	for i, v := range s.versions {
		if v.status == versionAccepted {
			return i, true
		}
	}
	return 0, false
}

// AcceptedIndices returns every version currently marked accepted. A
// grammar with a genuine ambiguity can reach ActionAccept along more than
// one branch for the same input; SelectAccepted is what breaks the tie.
func (s *Stack) AcceptedIndices() []int {
	var out []int
	for i, v := range s.versions {
		if v.status == versionAccepted {
			out = append(out, i)
		}
	}
	return out
}

// SelectAccepted picks the best of several accepted versions the same
// way parser__select_tree ranks competing subtrees: lowest error cost
// first, then highest dynamic precedence, then simply the first one
// found so the result is at least deterministic.
func (s *Stack) SelectAccepted(indices []int) int {
	best := indices[0]
	for _, i := range indices[1:] {
		switch {
		case s.v(i).errorCost < s.v(best).errorCost:
			best = i
		case s.v(i).errorCost > s.v(best).errorCost:
			continue
		case s.v(i).dynamicPrecedence > s.v(best).dynamicPrecedence:
			best = i
		}
	}
	return best
}

// ErrorCost, NodeCountSinceError and DynamicPrecedence expose the running
// totals better_version_exists and compareVersions rank on.
func (s *Stack) ErrorCost(i int) int32             { return s.v(i).errorCost }
func (s *Stack) NodeCountSinceError(i int) uint32  { return s.v(i).nodeCountSinceError }
func (s *Stack) DynamicPrecedence(i int) int32     { return s.v(i).dynamicPrecedence }
func (s *Stack) SetErrorCost(i int, c int32)       { s.v(i).errorCost = c }
func (s *Stack) AddDynamicPrecedence(i int, d int32) {
	if d > s.v(i).dynamicPrecedence {
		s.v(i).dynamicPrecedence = d
	}
}

// LastExternalTokenState returns the serialized external-scanner state
// left behind by the last external token version i shifted, so a
// subsequent scan on that version can restore the scanner to where it
// left off.
func (s *Stack) LastExternalTokenState(i int) []byte { return s.v(i).externalTokenState }
func (s *Stack) SetLastExternalTokenState(i int, state []byte) {
	s.v(i).externalTokenState = state
}

// Push shifts one (state, node) pair onto version i. It retains node,
// since the stack now shares ownership of it alongside whatever cursor or
// tree it came from.
func (s *Stack) Push(i int, state StateID, node *Node) {
	v := s.v(i)
	v.entries = append(v.entries, stackEntry{state: state, node: node.Retain()})
	if node != nil {
		v.nodeCountSinceError++
	}
}

// PopCount removes the top n entries from version i and returns their
// nodes bottom-to-top, ready to become a reduction's children. Ownership
// of each returned node transfers to the caller, who is expected to hand
// them to Arena.MakeNode (which stores them as Children without an extra
// retain) or explicitly Release them if the reduction is abandoned.
func (s *Stack) PopCount(i int, n int) []*Node {
	v := s.v(i)
	start := len(v.entries) - n
	nodes := make([]*Node, n)
	for k := 0; k < n; k++ {
		nodes[k] = v.entries[start+k].node
	}
	v.entries = v.entries[:start]
	return nodes
}

// PopAll removes every real entry from version i, used when a version
// could not recover and its remaining stack is about to be wrapped in a
// synthetic ERROR root.
func (s *Stack) PopAll(i int) []*Node {
	return s.PopCount(i, len(s.v(i).entries)-1)
}

// PopPending removes the top depth entries of version i, used by the
// recovery search when unwinding to a summarized state; depth is the
// entry count recover computed from the summary.
func (s *Stack) PopPending(i int, depth int) []*Node {
	return s.PopCount(i, depth)
}

// CopyVersion forks version i: the new version gets its own backing array
// (so future pushes to either branch never alias) but starts out with
// every entry retained a second time, and returns the new version's
// index. This is the operation the driver calls whenever a lookahead has
// more than one live action.
func (s *Stack) CopyVersion(i int) int {
	src := s.v(i)
	entries := make([]stackEntry, len(src.entries))
	copy(entries, src.entries)
	for _, e := range entries {
		e.node.Retain()
	}
	var summary *orderedmap.OrderedMap[StateID, summaryEntry]
	if src.summary != nil {
		summary = orderedmap.New[StateID, summaryEntry]()
		for pair := src.summary.Oldest(); pair != nil; pair = pair.Next() {
			summary.Set(pair.Key, pair.Value)
		}
	}
	nv := &version{
		entries:             entries,
		pos:                 src.pos,
		point:               src.point,
		status:              src.status,
		errorCost:           src.errorCost,
		nodeCountSinceError: src.nodeCountSinceError,
		dynamicPrecedence:   src.dynamicPrecedence,
		externalTokenState:  src.externalTokenState,
		summary:             summary,
	}
	s.versions = append(s.versions, nv)
	return len(s.versions) - 1
}

// RemoveVersion releases version i's remaining node references and drops
// it from the stack. Indices at or after i shift down by one; callers
// iterating by index should walk backwards or re-check VersionCount.
func (s *Stack) RemoveVersion(i int) {
	v := s.v(i)
	for _, e := range v.entries {
		e.node.Release()
	}
	s.versions = append(s.versions[:i], s.versions[i+1:]...)
}

// SwapVersions exchanges the versions at i and j, used to move a version
// the driver just decided to prefer into a lower slot before pruning
// everything above maxVersionCount.
func (s *Stack) SwapVersions(i, j int) {
	s.versions[i], s.versions[j] = s.versions[j], s.versions[i]
}

// CanMerge reports whether versions i and j are at the same state with an
// identical position and external-scanner state, and can therefore be
// collapsed into one without losing a distinguishable future parse. This
// mirrors the "identical (state, position, last_external_token)" test the
// GSS merge rule requires: two versions that agree on the top node's span
// but disagree on where their lexer or external scanner actually stand
// would otherwise silently discard one branch's future.
func (s *Stack) CanMerge(i, j int) bool {
	vi, vj := s.v(i), s.v(j)
	if len(vi.entries) == 0 || len(vj.entries) == 0 {
		return false
	}
	top := len(vi.entries) - 1
	if top != len(vj.entries)-1 {
		return false
	}
	if vi.entries[top].state != vj.entries[top].state {
		return false
	}
	if vi.pos != vj.pos {
		return false
	}
	if !bytes.Equal(vi.externalTokenState, vj.externalTokenState) {
		return false
	}
	ni, nj := vi.entries[top].node, vj.entries[top].node
	if ni == nil || nj == nil {
		return ni == nj
	}
	return ni.ByteRange == nj.ByteRange
}

// Merge folds version j into version i: i keeps the cheaper error cost
// and the higher dynamic precedence of the two, and j is removed. The
// node at the merge point does not change identity (both versions were
// required by CanMerge to already agree on it).
func (s *Stack) Merge(i, j int) {
	vi, vj := s.v(i), s.v(j)
	if vj.errorCost < vi.errorCost {
		vi.errorCost = vj.errorCost
	}
	if vj.dynamicPrecedence > vi.dynamicPrecedence {
		vi.dynamicPrecedence = vj.dynamicPrecedence
	}
	if vj.status == versionActive {
		vi.status = versionActive
	}
	s.RemoveVersion(j)
}

// RecordSummary notes that version i sat at state st, at the given input
// position, the moment it first had no table action for a lookahead. A
// later recover attempt on this same version scans these entries looking
// for one whose state does accept whatever lookahead is stuck now, and
// unwinds back to it. It is a no-op past maxSummaryDepth distinct states,
// matching the C runtime's fixed-size summary array, and it never
// overwrites an already-recorded state: the frame depth an entry was
// recorded at only stays meaningful relative to the moment it was first
// seen.
func (s *Stack) RecordSummary(i int, st StateID, pos uint32, point Point) {
	v := s.v(i)
	if v.summary == nil {
		v.summary = orderedmap.New[StateID, summaryEntry]()
	}
	if _, ok := v.summary.Get(st); ok {
		return
	}
	if v.summary.Len() >= maxSummaryDepth {
		return
	}
	v.summary.Set(st, summaryEntry{frameLen: len(v.entries), pos: pos, point: point})
}

// SummaryCandidates returns version i's recorded summary entries in the
// order they were first recorded, paired with how many frames a
// recoverToState call would need to pop right now to land back on each
// one (recomputed from the version's live frame count rather than a
// stale cached depth, since pushes since the entry was recorded may not
// all have been simple one-for-one skips).
func (s *Stack) SummaryCandidates(i int) []recoveryCandidate {
	v := s.v(i)
	if v.summary == nil {
		return nil
	}
	frameLen := len(v.entries)
	out := make([]recoveryCandidate, 0, v.summary.Len())
	for pair := v.summary.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, recoveryCandidate{
			state: pair.Key,
			depth: frameLen - pair.Value.frameLen,
			pos:   pair.Value.pos,
			point: pair.Value.point,
		})
	}
	return out
}

// recoveryCandidate is one summary entry resolved against the version's
// current frame count, ready for Parser.recover to test.
type recoveryCandidate struct {
	state StateID
	depth int
	pos   uint32
	point Point
}

// ResetNodeCountSinceError zeroes version i's since-error node counter,
// called once a recover attempt has successfully unwound the version back
// onto a live parse so later comparisons don't keep charging it for
// productions built before this recovery.
func (s *Stack) ResetNodeCountSinceError(i int) { s.v(i).nodeCountSinceError = 0 }

// comparison is the outcome of comparing two versions' likely futures,
// mirroring the five-way TSErrorComparisonResult the recovery search
// tests against when deciding whether to keep both, keep one, or prefer
// one while still keeping the other around a little longer.
type comparison uint8

const (
	cmpNone comparison = iota
	cmpTakeLeft
	cmpPreferLeft
	cmpPreferRight
	cmpTakeRight
)

// errorStatus is the ranking signal compareErrorStatus and
// BetterVersionExists compare two versions (or a hypothetical recovery
// outcome not yet committed to the stack) by.
type errorStatus struct {
	cost              int32
	nodeCount         uint32
	dynamicPrecedence int32
	inError           bool
}

// status builds version i's current errorStatus: a paused version (one
// stalled on a lookahead it had no action for, waiting to be resumed into
// error recovery) is charged an extra recovered-tree cost the same
// way the reference runtime penalizes a paused version's comparison
// without mutating its real error_cost.
func (s *Stack) status(i int) errorStatus {
	v := s.v(i)
	cost := v.errorCost
	if v.status == versionPaused {
		cost += errorCostPerRecoveredTree
	}
	inError := v.status == versionPaused
	if len(v.entries) > 0 && v.entries[len(v.entries)-1].state == ErrorState {
		inError = true
	}
	return errorStatus{cost: cost, nodeCount: v.nodeCountSinceError, dynamicPrecedence: v.dynamicPrecedence, inError: inError}
}

// compareErrorStatus ranks a against b the way parser__compare_versions
// ranks two ErrorStatus values: a version that is not itself in error
// beats one that is whenever the gap is wide enough to matter, in-error
// versus in-error (or clean versus clean) falls back to the same cost/gap
// test regardless of which side is ahead, and dynamic precedence only
// breaks a tie once cost and error state agree.
func compareErrorStatus(a, b errorStatus) comparison {
	if a.inError != b.inError {
		gap := a.cost - b.cost
		if gap < 0 {
			gap = -gap
		}
		wide := gap > maxCostDifference
		if a.inError {
			if wide {
				return cmpTakeRight
			}
			return cmpPreferRight
		}
		if wide {
			return cmpTakeLeft
		}
		return cmpPreferLeft
	}

	if a.cost != b.cost {
		gap := a.cost - b.cost
		if gap < 0 {
			gap = -gap
		}
		winnerNodeCount := a.nodeCount
		if a.cost > b.cost {
			winnerNodeCount = b.nodeCount
		}
		if int64(gap)*(1+int64(winnerNodeCount)) > int64(maxCostDifference) {
			if a.cost < b.cost {
				return cmpTakeLeft
			}
			return cmpTakeRight
		}
	}

	if a.dynamicPrecedence != b.dynamicPrecedence {
		if a.dynamicPrecedence > b.dynamicPrecedence {
			return cmpPreferLeft
		}
		return cmpPreferRight
	}

	if a.cost != b.cost {
		if a.cost < b.cost {
			return cmpPreferLeft
		}
		return cmpPreferRight
	}

	return cmpNone
}

// CompareVersions ranks version i against version j via compareErrorStatus,
// the same ranking the recovery search and CondenseStack both use to
// decide which of two candidate futures is worth keeping.
func (s *Stack) CompareVersions(i, j int) comparison {
	return compareErrorStatus(s.status(i), s.status(j))
}

// BetterVersionExists reports whether some other currently active or
// paused version already covers position i is at (or further) with a
// status at least as good as candidate, the same check
// parser__better_version_exists runs before committing to a recovery
// step: if another branch has already got this far more cheaply, there is
// no point paying to explore this one too.
func (s *Stack) BetterVersionExists(i int, candidate errorStatus) bool {
	pos := s.Position(i)
	for j := range s.versions {
		if j == i || s.IsHalted(j) {
			continue
		}
		if s.Position(j) < pos {
			continue
		}
		other := s.status(j)
		switch compareErrorStatus(candidate, other) {
		case cmpTakeRight:
			return true
		case cmpPreferRight:
			if s.CanMerge(i, j) {
				return true
			}
		}
	}
	return false
}

// CondenseStack prunes the stack back towards maxVersionCount after a step
// that may have left it wider: halted versions are dropped outright, every
// remaining pair is ranked with CompareVersions the same way the recovery
// search ranks candidates, and the ranking decides whether the pair merges,
// one side is discarded outright, or one side is simply reordered ahead of
// the other rather than pruning on raw cost alone. An accepted version is
// never chosen as the "worst" version when pruning down to the ceiling,
// since it stands in for the deferred-accept model's finished_tree and
// losing it to a version-count squeeze would silently discard a completed
// parse in favor of one still mid-flight. Once at or under the ceiling, it
// resumes the cheapest paused version if nothing active is left and
// reports that version's index (or -1) so the driver can hand it back to
// recovery, plus the lowest cost among versions still making progress (or
// 0 if none are), the same summary parser__condense_stack reports back to
// the caller for logging.
func (s *Stack) CondenseStack() (int32, int) {
	for i := len(s.versions) - 1; i >= 0; i-- {
		if s.IsHalted(i) {
			s.RemoveVersion(i)
		}
	}

outer:
	for i := 0; i < len(s.versions); i++ {
		for j := i + 1; j < len(s.versions); {
			if s.CanMerge(i, j) {
				s.Merge(i, j)
				continue
			}
			switch s.CompareVersions(i, j) {
			case cmpTakeLeft:
				s.RemoveVersion(j)
			case cmpTakeRight:
				s.RemoveVersion(i)
				i--
				continue outer
			case cmpPreferRight:
				s.SwapVersions(i, j)
				j++
			default:
				j++
			}
		}
	}

	for len(s.versions) > s.maxVersions {
		worst := -1
		for i := range s.versions {
			if s.v(i).status == versionAccepted {
				continue
			}
			if worst < 0 {
				worst = i
				continue
			}
			switch s.CompareVersions(worst, i) {
			case cmpTakeLeft, cmpPreferLeft:
				worst = i
			}
		}
		if worst < 0 {
			break
		}
		s.RemoveVersion(worst)
	}

	resumed := s.resumeIfAllPaused()
	return s.minActiveCost(), resumed
}

func (s *Stack) minActiveCost() int32 {
	best := int32(-1)
	for i := range s.versions {
		st := s.status(i)
		if st.inError {
			continue
		}
		if best < 0 || st.cost < best {
			best = st.cost
		}
	}
	if best < 0 {
		return 0
	}
	return best
}

// resumeIfAllPaused resumes the cheapest paused version once no version is
// left active, and reports its index so the caller can hand it back to
// error recovery with its remembered lookahead; it returns -1 when nothing
// was resumed (some version is still active, or none are paused).
func (s *Stack) resumeIfAllPaused() int {
	anyActive := false
	pausedBest := -1
	for i, v := range s.versions {
		if v.status == versionActive {
			anyActive = true
			break
		}
		if v.status == versionPaused && (pausedBest < 0 || v.errorCost < s.v(pausedBest).errorCost) {
			pausedBest = i
		}
	}
	if !anyActive && pausedBest >= 0 {
		s.Resume(pausedBest)
		return pausedBest
	}
	return -1
}
