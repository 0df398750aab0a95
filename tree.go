package glrcore

// Node is an immutable (once built) parse-tree node, reference counted so
// that the same subtree can be shared across many GSS versions and across
// an incremental edit's old and new trees without copying. Every field
// below is set once at construction time; the only supported mutation is
// producing a private copy via MakeCopy before editing byte ranges.
type Node struct {
	Symbol          Symbol
	Alias           Symbol // 0 means "use Symbol for display"
	AliasSequenceID uint16
	ParseState      StateID

	ByteRange Range
	Children  []*Node

	IsLeaf    bool
	IsError   bool
	IsMissing bool
	Extra     bool
	Visible   bool

	// FragileLeft/FragileRight mark a node whose leftmost/rightmost leaf
	// is an error or missing node, or one built by a reduce under an
	// unresolved ambiguity. The reusable-node cursor never reuses a node
	// with either flag set, since the recovery or ambiguity that produced
	// it may resolve differently once the surrounding text changes.
	FragileLeft  bool
	FragileRight bool

	// HasChanges marks a node whose subtree was touched by an edit and
	// has not yet been reparsed; the cursor uses it to decide whether a
	// node is even a reuse candidate.
	HasChanges        bool
	HasExternalTokens bool

	ErrorCost         int32
	DynamicPrecedence int32
	DescendantCount   uint32

	// BytesScanned is how many bytes from this node's start the lexer's
	// DFA walk inspected while finding its accepting match (maximal-munch
	// backtracking can walk well past the byte it settles on). Tree.Edit
	// and Cursor.CanReuse compare only ByteRange; they do not consult
	// BytesScanned.
	BytesScanned uint32

	// LexState is the DFA start state the token that became this leaf was
	// matched under, carried forward from Token.LexState so a later parse
	// over the same (unedited) bytes can trust a cached lex result here
	// without re-running the DFA.
	LexState uint16

	LexTokenText       string
	ExternalTokenState []byte

	// DebugID is a short, time-ordered identifier assigned at construction,
	// stable across the node's lifetime, used in GraphLogger.WriteEdge
	// and log messages where a raw pointer would be meaningless
	// across runs.
	DebugID string

	refCount int32
	arena    *Arena
	class    slabClass
}

func (n *Node) reset() {
	*n = Node{}
}

// Retain increments the reference count and returns n, so calls can be
// chained at the point a reference is stored (n.Children[i] = child.Retain()).
func (n *Node) Retain() *Node {
	if n == nil {
		return nil
	}
	n.refCount++
	return n
}

// Release drops one reference. At zero it releases every child in turn
// and returns the node to its owning arena.
func (n *Node) Release() {
	if n == nil {
		return
	}
	n.refCount--
	if n.refCount > 0 {
		return
	}
	children := n.Children
	n.Children = nil
	for _, c := range children {
		c.Release()
	}
	if n.arena != nil {
		n.arena.free_(n)
	}
}

// EndByte returns the exclusive end of the node's byte span.
func (n *Node) EndByte() uint32 { return n.ByteRange.EndByte }

// StartByte returns the start of the node's byte span.
func (n *Node) StartByte() uint32 { return n.ByteRange.StartByte }

// DisplaySymbol returns the alias if one was assigned by the production
// that built this node, otherwise the node's own symbol.
func (n *Node) DisplaySymbol() Symbol {
	if n.Alias != 0 {
		return n.Alias
	}
	return n.Symbol
}

// aggregateFromChildren fills in every field that is a pure function of a
// node's children: byte span, fragile edges, and the summed cost /
// dynamic-precedence / descendant-count invariants from the tree-shape
// contract. Called once, right after Children is assigned and before the
// node is handed to any caller.
func (n *Node) aggregateFromChildren() {
	n.DescendantCount = 1
	if len(n.Children) == 0 {
		return
	}
	first := n.Children[0]
	last := n.Children[len(n.Children)-1]
	n.ByteRange = Range{
		StartByte:  first.ByteRange.StartByte,
		EndByte:    last.ByteRange.EndByte,
		StartPoint: first.ByteRange.StartPoint,
		EndPoint:   last.ByteRange.EndPoint,
	}
	n.FragileLeft = first.FragileLeft || first.IsError || first.IsMissing
	n.FragileRight = last.FragileRight || last.IsError || last.IsMissing

	var cost, dyn int32
	var count uint32 = 1
	for _, c := range n.Children {
		cost += c.ErrorCost
		dyn += c.DynamicPrecedence
		count += c.DescendantCount
		n.HasChanges = n.HasChanges || c.HasChanges
		n.HasExternalTokens = n.HasExternalTokens || c.HasExternalTokens
	}
	n.ErrorCost = cost
	n.DynamicPrecedence = dyn
	n.DescendantCount = count
}

// MakeLeaf builds a leaf node for a token the lexer accepted outright.
func (a *Arena) MakeLeaf(sym Symbol, tok Token, state StateID, visible bool) *Node {
	n := a.AllocFull()
	n.Symbol = sym
	n.ByteRange = tok.size()
	n.IsLeaf = true
	n.Visible = visible
	n.ParseState = state
	n.LexTokenText = tok.Text
	n.BytesScanned = tok.BytesScanned
	n.LexState = tok.LexState
	n.DescendantCount = 1
	n.DebugID = debugNodeID()
	return n
}

// MakeExternalLeaf builds a leaf produced by an external scanner, carrying
// the scanner's serialized state forward for the next call.
func (a *Arena) MakeExternalLeaf(sym Symbol, tok Token, state StateID, visible bool, scannerState []byte) *Node {
	n := a.MakeLeaf(sym, tok, state, visible)
	n.HasExternalTokens = true
	n.ExternalTokenState = scannerState
	return n
}

// MakeMissingLeaf builds a zero-width leaf standing in for a token the
// recovery search decided to insert rather than skip past.
func (a *Arena) MakeMissingLeaf(sym Symbol, atByte uint32, at Point, state StateID) *Node {
	n := a.AllocIncremental()
	n.Symbol = sym
	n.ByteRange = Range{StartByte: atByte, EndByte: atByte, StartPoint: at, EndPoint: at}
	n.IsLeaf = true
	n.IsMissing = true
	n.Visible = true
	n.ParseState = state
	n.ErrorCost = errorCostPerMissingTree
	n.FragileLeft = true
	n.FragileRight = true
	n.DescendantCount = 1
	n.DebugID = debugNodeID()
	return n
}

// MakeError builds an ERROR leaf covering the skipped span
// [atByte, endByte) (zero-width at EOF) during recovery. Its cost is the flat
// per-error-node charge plus the per-character charge for what it skips;
// callers add a per-line charge on top when the skip crosses a newline.
func (a *Arena) MakeError(atByte uint32, endByte uint32, at, end Point, state StateID) *Node {
	n := a.AllocIncremental()
	n.Symbol = SymError
	n.ByteRange = Range{StartByte: atByte, EndByte: endByte, StartPoint: at, EndPoint: end}
	n.IsLeaf = true
	n.IsError = true
	n.Visible = true
	n.ParseState = state
	n.ErrorCost = errorCostPerRecoveredTree + errorCostPerSkippedChar*int32(endByte-atByte)
	n.BytesScanned = endByte - atByte
	n.FragileLeft = true
	n.FragileRight = true
	n.DescendantCount = 1
	n.DebugID = debugNodeID()
	return n
}

// MakeErrorRepeat wraps one or more skipped-token subtrees produced during
// a single recovery run in an error_repeat node. Consecutive skips onto
// the same version merge into one of these instead of stacking a fresh
// ERROR node per skipped token.
func (a *Arena) MakeErrorRepeat(children []*Node) *Node {
	n := a.AllocIncremental()
	n.Symbol = SymErrorRepeat
	n.Visible = false
	n.Children = children
	n.aggregateFromChildren()
	n.DebugID = debugNodeID()
	return n
}

// MakeErrorNode wraps an arbitrary run of children (some of them ERROR or
// MISSING leaves, some of them ordinary subtrees swept up during recovery)
// in a single ERROR node.
func (a *Arena) MakeErrorNode(children []*Node) *Node {
	n := a.AllocFull()
	n.Symbol = SymError
	n.IsError = true
	n.Visible = true
	n.Children = children
	n.aggregateFromChildren()
	n.ErrorCost += errorCostPerRecoveredTree
	n.DebugID = debugNodeID()
	return n
}

// MakeNode builds an internal node from a reduction: state is the state
// the parser lands in after the reduce, aliasSeq selects the production's
// child-aliasing table (0 for none), and dynamicPrecedence is the
// production's own declared precedence, added to the sum already carried
// up from the children (a composite's dynamic precedence is the total of
// everything beneath it plus whatever this production itself declares,
// not just the largest single contributor).
func (a *Arena) MakeNode(sym Symbol, state StateID, children []*Node, aliasSeq uint16, dynamicPrecedence int32, visible bool) *Node {
	n := a.AllocFull()
	n.Symbol = sym
	n.ParseState = state
	n.Children = children
	n.AliasSequenceID = aliasSeq
	n.Visible = visible
	n.aggregateFromChildren()
	n.DynamicPrecedence += dynamicPrecedence
	n.DebugID = debugNodeID()
	return n
}

// MakeCopy produces a private, independently-refcounted duplicate of n
// sharing (retained) references to the same children. Callers use this
// before mutating a node's byte range in place, e.g. shifting a subtree
// after an edit, so a node still referenced by another GSS version or by
// the old tree is never mutated out from under it.
func (a *Arena) MakeCopy(n *Node) *Node {
	cp := a.alloc(n.class)
	children := n.Children
	*cp = *n
	cp.refCount = 1
	cp.arena = a
	cp.Children = append([]*Node(nil), children...)
	for _, c := range cp.Children {
		c.Retain()
	}
	return cp
}

// Tree is a completed (or partially-error-recovered) parse result.
type Tree struct {
	Root     *Node
	Language *Language
	Arena    *Arena
}

// RootNode returns the tree's root, or nil for an empty tree.
func (t *Tree) RootNode() *Node { return t.Root }

// Retain increments the root's reference count and returns t, letting a
// Tree be handed to more than one owner (e.g. a cache and a caller) with
// symmetrical Release calls.
func (t *Tree) Retain() *Tree {
	t.Root.Retain()
	return t
}

// Release drops the tree's reference to its root.
func (t *Tree) Release() {
	t.Root.Release()
}

// InputEdit describes a single text change, in the same shape the cursor
// and driver both consume: byte offsets and points for the replaced span,
// plus the byte offset and point of its replacement's end.
type InputEdit struct {
	StartByte  uint32
	OldEndByte uint32
	NewEndByte uint32

	StartPoint    Point
	OldEndPoint   Point
	NewEndPoint   Point
}

// Edit applies edit to every node in the tree that is affected by it,
// producing (via copy-on-write) a new root that shares unaffected
// subtrees with the old tree. Nodes entirely before the edit are left
// alone; nodes entirely after it are shifted by the edit's length delta;
// nodes that overlap it are marked HasChanges and recursed into, so the
// reusable-node cursor built from the result can tell which subtrees
// still need reparsing.
func (t *Tree) Edit(edit InputEdit) {
	if t.Root == nil {
		return
	}
	t.Root = t.editNode(t.Root, edit)
}

// editNode consumes exactly one reference to n and returns a node holding
// exactly one reference for the caller: either n itself (subtree entirely
// before the edit, untouched), or a fresh copy with adjusted byte ranges
// (subtree entirely after the edit, shifted but otherwise identical), or
// a fresh copy marked HasChanges with its own children recursively
// edited (subtree overlapping the edit). MakeCopy's own child-retaining
// contract is what keeps this ref-neutral: releasing n after copying it
// cascades exactly one release onto each original child, which exactly
// cancels the one extra retain MakeCopy put on them, leaving each child
// owned once by the copy and ready to be handed to a recursive call.
func (t *Tree) editNode(n *Node, edit InputEdit) *Node {
	if n == nil {
		return nil
	}
	switch {
	case n.ByteRange.EndByte <= edit.StartByte:
		return n
	case n.ByteRange.StartByte >= edit.OldEndByte:
		cp := t.Arena.MakeCopy(n)
		n.Release()
		delta := int64(edit.NewEndByte) - int64(edit.OldEndByte)
		cp.ByteRange.StartByte = uint32(int64(cp.ByteRange.StartByte) + delta)
		cp.ByteRange.EndByte = uint32(int64(cp.ByteRange.EndByte) + delta)
		cp.ByteRange.StartPoint = shiftPoint(cp.ByteRange.StartPoint, edit)
		cp.ByteRange.EndPoint = shiftPoint(cp.ByteRange.EndPoint, edit)
		for i, c := range cp.Children {
			cp.Children[i] = t.editNode(c, edit)
		}
		return cp
	default:
		cp := t.Arena.MakeCopy(n)
		n.Release()
		cp.HasChanges = true
		if len(cp.Children) > 0 {
			for i, c := range cp.Children {
				cp.Children[i] = t.editNode(c, edit)
			}
			cp.aggregateFromChildren()
			cp.HasChanges = true
		} else {
			delta := int64(edit.NewEndByte) - int64(edit.OldEndByte)
			if cp.ByteRange.EndByte > edit.OldEndByte {
				cp.ByteRange.EndByte = uint32(int64(cp.ByteRange.EndByte) + delta)
			} else {
				cp.ByteRange.EndByte = edit.NewEndByte
			}
		}
		return cp
	}
}

func shiftPoint(p Point, edit InputEdit) Point {
	if p.Row > edit.OldEndPoint.Row || (p.Row == edit.OldEndPoint.Row && p.Column >= edit.OldEndPoint.Column) {
		rowDelta := int64(edit.NewEndPoint.Row) - int64(edit.OldEndPoint.Row)
		newRow := uint32(int64(p.Row) + rowDelta)
		newCol := p.Column
		if p.Row == edit.OldEndPoint.Row {
			colDelta := int64(edit.NewEndPoint.Column) - int64(edit.OldEndPoint.Column)
			newCol = uint32(int64(p.Column) + colDelta)
		}
		return Point{Row: newRow, Column: newCol}
	}
	return p
}
