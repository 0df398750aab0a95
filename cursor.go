package glrcore

// Cursor walks a previous parse tree looking for subtrees the driver can
// reuse verbatim instead of relighting the lexer and re-running the
// tables over unchanged text. It tracks a path from the tree's root down
// to a current candidate node; Breakdown descends into that candidate's
// first child when the parser needs a smaller piece of it, and Pop moves
// past it once the driver has decided whether to reuse it.
type Cursor struct {
	path []*Node
	pos  uint32
}

// NewCursor starts a cursor at the root of tree, positioned at byte 0.
func NewCursor(tree *Tree) *Cursor {
	if tree == nil || tree.Root == nil {
		return &Cursor{}
	}
	return &Cursor{path: []*Node{tree.Root}}
}

// Done reports whether the cursor has walked off the end of the tree.
func (c *Cursor) Done() bool { return len(c.path) == 0 }

// Top returns the current candidate node, or nil once Done.
func (c *Cursor) Top() *Node {
	if len(c.path) == 0 {
		return nil
	}
	return c.path[len(c.path)-1]
}

// Position returns the byte offset the cursor is currently positioned at,
// which is the start of Top() while a candidate is live.
func (c *Cursor) Position() uint32 {
	if top := c.Top(); top != nil {
		return top.StartByte()
	}
	return c.pos
}

// Breakdown descends into the current candidate's first child. It
// returns false, leaving the cursor unmoved, if the candidate is a leaf.
func (c *Cursor) Breakdown() bool {
	top := c.Top()
	if top == nil || len(top.Children) == 0 {
		return false
	}
	c.path = append(c.path, top.Children[0])
	return true
}

// Pop advances past the current candidate, whether or not the driver
// reused it: to its next sibling if it has one, otherwise up and over to
// the nearest ancestor's next sibling. It returns false once the walk has
// exhausted the tree.
func (c *Cursor) Pop() bool {
	for len(c.path) > 0 {
		top := c.path[len(c.path)-1]
		c.pos = top.EndByte()
		c.path = c.path[:len(c.path)-1]
		if len(c.path) == 0 {
			return false
		}
		parent := c.path[len(c.path)-1]
		idx := indexOfChild(parent, top)
		if idx >= 0 && idx+1 < len(parent.Children) {
			c.path = append(c.path, parent.Children[idx+1])
			return true
		}
	}
	return false
}

// AfterLeaf advances the cursor to the leaf immediately following the
// current candidate, descending through whatever internal nodes sit in
// between. It is the fast path the driver's token cache uses: once a leaf
// has been consumed, the next lex attempt starts looking for reuse there
// rather than walking down from the root again.
func (c *Cursor) AfterLeaf() *Node {
	if !c.Pop() {
		return nil
	}
	for {
		top := c.Top()
		if top == nil {
			return nil
		}
		if len(top.Children) == 0 {
			return top
		}
		if !c.Breakdown() {
			return top
		}
	}
}

func indexOfChild(parent, child *Node) int {
	for i, c := range parent.Children {
		if c == child {
			return i
		}
	}
	return -1
}

// CanReuse reports whether the current candidate can stand in for a fresh
// parse of the symbol the driver expects in expectedState, without
// re-lexing or re-parsing the bytes it covers. A candidate disqualifies
// itself by carrying unresolved edits, by having an error or missing
// edge that a text change nearby could have invalidated, or by naming a
// symbol the compiled table never marked reusable in that state.
func (c *Cursor) CanReuse(lang *Language, expectedState StateID) bool {
	top := c.Top()
	if top == nil {
		return false
	}
	if top.HasChanges || top.IsError || top.IsMissing {
		return false
	}
	if top.FragileLeft || top.FragileRight {
		return false
	}
	if top.HasExternalTokens {
		return false
	}
	return lang.TableEntry(expectedState, top.Symbol).Reusable
}
