package glrcore

import (
	"context"
	"fmt"
)

// status is the outcome of driving one version through the tables against
// a single lookahead.
type status uint8

const (
	statusShifted status = iota
	statusAccepted
	statusErrored
	statusHalted
	statusPaused
)

// tokenCacheKey identifies a lex result the driver can trust without
// re-running the DFA: the same byte position lexed under the same DFA
// start state is guaranteed to produce the same token.
type tokenCacheKey struct {
	pos      uint32
	lexState uint16
}

type cachedToken struct {
	sym Symbol
	tok Token
}

// Parser drives a Language's tables over an Input, maintaining a
// graph-structured stack of versions so an ambiguous grammar can explore
// more than one parse at once, and falling back to cost-ranked error
// recovery whenever every version's tables run dry. A Parser is not safe
// for concurrent use; give each goroutine its own.
type Parser struct {
	language *Language
	arena    *Arena
	lexer    *Lexer
	scanner  *externalScannerState

	logger           Logger
	haltOnFirstError bool
	maxVersionCount  int
	sessionID        string

	tokenCache map[tokenCacheKey]cachedToken
}

// NewParser builds a Parser with no language configured yet; call
// SetLanguage before Parse.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		arena:           NewArena(),
		logger:          DiscardLogger,
		maxVersionCount: maxVersionCount,
		sessionID:       newSessionID(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetLanguage installs the compiled grammar this Parser will run. It
// rejects a nil or structurally inconsistent Language before any parse
// can touch it.
func (p *Parser) SetLanguage(lang *Language) error {
	if lang == nil {
		return ErrNoLanguage
	}
	if err := lang.Validate(); err != nil {
		return fmt.Errorf("glrcore: set language: %w", err)
	}
	if p.scanner != nil {
		p.scanner.destroy()
		p.scanner = nil
	}
	if lang.ExternalScanner != nil {
		p.scanner = newExternalScannerState(lang.ExternalScanner)
	}
	p.language = lang
	return nil
}

// Destroy releases resources the Parser's external scanner (if any) may
// be holding. A Parser whose Language has no ExternalScanner needs no
// explicit cleanup.
func (p *Parser) Destroy() {
	if p.scanner != nil {
		p.scanner.destroy()
		p.scanner = nil
	}
}

func (p *Parser) log(kind LogKind, msg string) {
	if p.logger != nil {
		p.logger(LogEntry{Kind: kind, Message: msg, SessionID: p.sessionID})
	}
}

func (p *Parser) logf(kind LogKind, format string, args ...any) {
	if p.logger != nil {
		p.log(kind, fmt.Sprintf(format, args...))
	}
}

// Parse runs the parser over input to completion, always returning a
// Tree: a grammar that cannot be satisfied still yields a tree with one
// or more ERROR nodes standing in for the parts recovery could not
// resolve, the same contract tree-sitter's own runtime makes. Passing a
// non-nil oldTree from a previous Parse call on a text-edited version of
// the same input lets unaffected subtrees be reused instead of relexed.
func (p *Parser) Parse(ctx context.Context, input Input, oldTree *Tree) (*Tree, error) {
	if p.language == nil {
		return nil, ErrNoLanguage
	}

	src, err := readAll(input)
	if err != nil {
		return nil, fmt.Errorf("glrcore: reading input: %w", err)
	}

	p.lexer = NewLexer(src)
	p.tokenCache = make(map[tokenCacheKey]cachedToken)

	var cursor *Cursor
	if oldTree != nil {
		cursor = NewCursor(oldTree)
	}

	stack := NewStack(p.arena, p.language.InitialState)
	stack.SetMaxVersions(p.maxVersionCount)

	// Accepting a version does not stop the parse: the deferred-accept
	// model requires every other still-active version to keep driving,
	// since an ambiguous grammar can have a cheaper or higher-precedence
	// parse finish in a later round than the first one to reach
	// ActionAccept. An accepted version stays parked on the stack
	// (protected from CondenseStack's version-count prune) so each
	// round's SelectAccepted call compares it against any newer arrival
	// via the same cost/precedence ranking parser__select_tree uses; the
	// parse only returns once no version is active any longer, at which
	// point SelectAccepted picks the best among everything that reached
	// ActionAccept along the way.
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
		}

		n := stack.VersionCount()
		progressed := false

		for i := 0; i < n; i++ {
			if !stack.IsActive(i) {
				continue
			}
			switch p.step(stack, i, cursor) {
			case statusShifted, statusErrored:
				progressed = true
			}
		}

		_, resumed := stack.CondenseStack()
		if resumed >= 0 {
			sym, tok := stack.PausedLookahead(resumed)
			p.logf(LogParse, "version %d: every other version stalled, resuming for recovery", resumed)
			p.handleError(stack, resumed, sym, tok)
			progressed = true
		}

		if stack.VersionCount() == 0 {
			return p.finishEmpty(), nil
		}

		if !p.anyActive(stack) {
			if accepted := stack.AcceptedIndices(); len(accepted) > 0 {
				return p.finishAccepted(stack, stack.SelectAccepted(accepted))
			}
			if !progressed {
				return p.finishBestHalted(stack), nil
			}
		}
	}
}

func (p *Parser) anyActive(stack *Stack) bool {
	for i := 0; i < stack.VersionCount(); i++ {
		if stack.IsActive(i) {
			return true
		}
	}
	return false
}

// step advances version i by one lookahead. It tries, in priority order,
// a reusable whole subtree from the old tree (retrying breakdown/pop
// until either a candidate lines up with this version's position or the
// cursor can no longer possibly realign with it), then a cached lex
// result left behind by AfterLeaf's walk when an earlier reuse consumed
// the node immediately before this position, and only then falls back to
// a freshly lexed token run through driveSymbol's reduce/shift loop.
func (p *Parser) step(stack *Stack, i int, cursor *Cursor) status {
	state := stack.State(i)
	pos := stack.Position(i)

	if cursor != nil {
		if node := p.reusableNode(stack, i, cursor, state); node != nil {
			next := p.language.NextState(state, node.Symbol)
			stack.Push(i, next, node)
			stack.SetPosition(i, node.EndByte(), node.ByteRange.EndPoint)
			p.primeTokenCache(cursor)
			return statusShifted
		}
		if sym, tok, ok := p.tokenCacheLookup(pos, p.language.LexMode(state).LexState); ok {
			p.logf(LogLex, "version %d: token cache hit for symbol %d at byte %d", i, sym, pos)
			return p.driveSymbol(stack, i, sym, tok)
		}
	}

	sym, tok := p.lex(stack, i)
	return p.driveSymbol(stack, i, sym, tok)
}

// reusableNode implements the "reusable node" priority of incremental
// reparsing: starting from wherever cursor currently sits, it breaks a
// rejected candidate down into its first child (or pops past a childless
// one) and retries, until either a candidate lines up exactly with
// version i's own input position and passes CanReuse, or the cursor runs
// past that position (or off the end of the tree) without finding one.
// The shared cursor is left wherever the search stopped; a caller that
// gets nil back should fall through to a fresh lex rather than assume the
// cursor is still positioned usefully for this version.
func (p *Parser) reusableNode(stack *Stack, i int, cursor *Cursor, state StateID) *Node {
	pos := stack.Position(i)
	for !cursor.Done() && cursor.Position() <= pos {
		if cursor.Position() < pos {
			if cursor.Breakdown() {
				continue
			}
			if !cursor.Pop() {
				return nil
			}
			continue
		}
		if cursor.CanReuse(p.language, state) {
			return cursor.Top()
		}
		if cursor.Breakdown() {
			continue
		}
		if !cursor.Pop() {
			return nil
		}
	}
	return nil
}

// primeTokenCache is called right after a version consumes a reused
// subtree: it advances the cursor past that subtree to the very next leaf
// via AfterLeaf and, if that leaf's own span was untouched by the edit
// that produced this cursor's tree, remembers its lex result keyed by
// (position, lex state) so a later lex call landing on the same position
// under the same DFA start state can skip the DFA walk entirely.
func (p *Parser) primeTokenCache(cursor *Cursor) {
	leaf := cursor.AfterLeaf()
	if leaf == nil || !leaf.IsLeaf {
		return
	}
	if leaf.HasChanges || leaf.IsError || leaf.IsMissing || leaf.HasExternalTokens {
		return
	}
	key := tokenCacheKey{pos: leaf.StartByte(), lexState: leaf.LexState}
	p.tokenCache[key] = cachedToken{
		sym: leaf.Symbol,
		tok: Token{
			Symbol:       leaf.Symbol,
			Text:         leaf.LexTokenText,
			StartByte:    leaf.ByteRange.StartByte,
			EndByte:      leaf.ByteRange.EndByte,
			StartPoint:   leaf.ByteRange.StartPoint,
			EndPoint:     leaf.ByteRange.EndPoint,
			BytesScanned: leaf.BytesScanned,
			LexState:     leaf.LexState,
		},
	}
}

func (p *Parser) tokenCacheLookup(pos uint32, lexState uint16) (Symbol, Token, bool) {
	entry, ok := p.tokenCache[tokenCacheKey{pos: pos, lexState: lexState}]
	if !ok {
		return 0, Token{}, false
	}
	return entry.sym, entry.tok, true
}

// driveSymbol runs every reduction the tables offer for (state, sym)
// before finally shifting, accepting, or handing off to error recovery.
// A state offering more than one action for the same lookahead is
// ambiguous: every reduce action but the last forks a new version via
// stack.CopyVersion and is driven to completion independently (a non-last
// action of any other kind is skipped), while the last action plays out on
// version i itself.
func (p *Parser) driveSymbol(stack *Stack, i int, sym Symbol, tok Token) status {
	for {
		state := stack.State(i)
		entry := p.language.TableEntry(state, sym)
		if !entry.HasActions() {
			if p.breakdownTopOfStack(stack, i) {
				p.logf(LogParse, "version %d: no action for symbol %d, broke down top of stack", i, sym)
				continue
			}
			stack.Pause(i, sym, tok)
			p.logf(LogParse, "version %d: no action for symbol %d at state %d, pausing", i, sym, state)
			return statusPaused
		}

		actions := entry.Actions
		fragile := len(actions) > 1
		for k := 0; k < len(actions)-1; k++ {
			a := actions[k]
			if a.Type != ActionReduce {
				continue
			}
			j := stack.CopyVersion(i)
			p.logf(LogParse, "version %d: ambiguity on symbol %d, forking version %d to reduce", i, sym, j)
			p.applyReduce(stack, j, a, fragile)
			p.driveSymbol(stack, j, sym, tok)
		}

		last := actions[len(actions)-1]
		switch last.Type {
		case ActionReduce:
			p.applyReduce(stack, i, last, fragile)
			continue
		case ActionShift:
			p.applyShift(stack, i, last, tok)
			stack.SetPosition(i, tok.EndByte, tok.EndPoint)
			p.logf(LogParse, "version %d: shift symbol %d -> state %d", i, sym, stack.State(i))
			return statusShifted
		case ActionAccept:
			stack.MarkAccepted(i)
			p.logf(LogParse, "version %d: accept", i)
			return statusAccepted
		default:
			return p.handleError(stack, i, sym, tok)
		}
	}
}

// applyReduce pops a production's children, strips any that trail off the
// end marked Extra (whitespace/comments folded onto the reduction rather
// than structurally part of it), builds the reduction's node from what
// remains, and re-pushes the stripped extras above it at the post-reduce
// state instead of folding them inside the new node. fragile is true when
// this reduce was one of several live actions for the same lookahead: the
// resulting node's edges are marked fragile and its ParseState left
// unset (ErrorState, the sentinel breakdownTopOfStack treats as "no state
// to trust"; the cursor's reuse check rejects it through the fragile
// flags), since a node built under an ambiguity the tables
// haven't resolved yet cannot safely stand in for a fresh parse later.
func (p *Parser) applyReduce(stack *Stack, i int, a ParseAction, fragile bool) {
	popped := stack.PopCount(i, int(a.ChildCount))

	trailing := 0
	for trailing < len(popped) && popped[len(popped)-1-trailing].Extra {
		trailing++
	}
	children := popped
	var extras []*Node
	if trailing > 0 {
		extras = append([]*Node(nil), popped[len(popped)-trailing:]...)
		children = popped[:len(popped)-trailing]
	}

	prevState := stack.State(i)
	visible := p.language.IsNamed(a.Symbol) || !p.language.IsExtra(a.Symbol)
	node := p.arena.MakeNode(a.Symbol, ErrorState, children, a.AliasSequenceID, int32(a.DynamicPrecedence), visible)
	next := p.language.NextState(prevState, a.Symbol)
	if fragile {
		node.FragileLeft = true
		node.FragileRight = true
	} else {
		node.ParseState = next
	}
	stack.Push(i, next, node)
	stack.AddDynamicPrecedence(i, node.DynamicPrecedence)
	for _, ex := range extras {
		stack.Push(i, next, ex)
	}
	p.logf(LogParse, "version %d: reduce %d children to symbol %d [%s]", i, a.ChildCount, a.Symbol, node.DebugID)
}

func (p *Parser) applyShift(stack *Stack, i int, a ParseAction, tok Token) {
	meta := p.language.SymbolMeta(tok.Symbol)
	leaf := p.arena.MakeLeaf(tok.Symbol, tok, a.NextState, meta.Visible)
	leaf.Extra = a.Extra
	stack.Push(i, a.NextState, leaf)
}

// breakdownTopOfStack expands the node sitting on top of version i's
// stack into its own children, each carrying the ParseState it was built
// with, rather than the single collapsed frame the whole subtree
// currently occupies. driveSymbol tries this before giving up on a
// lookahead: a subtree reused wholesale from an old tree (or built by an
// earlier reduce) can represent several finer-grained parser states
// internally, one of which might actually have an action for the
// lookahead that the coarse top-of-stack state doesn't. It returns false
// when there is nothing to expand (the top is a leaf) or the top's
// children never had a usable ParseState recorded (the fragile sentinel
// an ambiguous reduce leaves behind), since there is no state to fall
// back into in either case.
func (p *Parser) breakdownTopOfStack(stack *Stack, i int) bool {
	top := stack.Node(i)
	if top == nil || len(top.Children) == 0 {
		return false
	}
	for _, c := range top.Children {
		if c.ParseState == ErrorState {
			return false
		}
	}

	popped := stack.PopCount(i, 1)[0]
	for _, c := range popped.Children {
		stack.Push(i, c.ParseState, c)
	}
	popped.Release()
	return true
}

// handleError is reached when the tables have no action at all for the
// current lookahead. It records this (state, position) as a recovery
// waypoint, tries inserting a small number of candidate missing tokens the
// current state does have an action for as independent forked versions,
// then tries unwinding back to some earlier point on this same version's
// stack that does have an action for the lookahead; if nothing recovers
// cleanly, it falls back to treating the lookahead's span as skipped
// input and moving into ERROR_STATE. With WithHaltOnError set it skips all
// of that: the rest of the input is pushed as one ERROR leaf and the
// version is accepted.
func (p *Parser) handleError(stack *Stack, i int, sym Symbol, tok Token) status {
	state := stack.State(i)
	stack.RecordSummary(i, state, tok.StartByte, tok.StartPoint)
	p.logf(LogParse, "version %d: no action for symbol %d at state %d, entering recovery", i, sym, state)

	if p.haltOnFirstError {
		p.lexer.Reset(int(tok.StartByte), tok.StartPoint)
		p.lexer.AdvanceToEnd()
		end, endPoint := p.lexer.Position()
		errLeaf := p.arena.MakeError(tok.StartByte, uint32(end), tok.StartPoint, endPoint, ErrorState)
		stack.Push(i, ErrorState, errLeaf)
		stack.SetErrorCost(i, stack.ErrorCost(i)+errLeaf.ErrorCost)
		stack.SetPosition(i, uint32(end), endPoint)
		stack.MarkAccepted(i)
		p.logf(LogParse, "version %d: halting parse, skipped bytes [%d,%d)", i, tok.StartByte, end)
		return statusAccepted
	}

	if p.reduceAllPossible(stack, i) {
		p.logf(LogParse, "version %d: applied reductions irrespective of lookahead, retrying symbol %d", i, sym)
		return p.driveSymbol(stack, i, sym, tok)
	}

	tried := 0
	for cand := Symbol(1); cand < Symbol(p.language.TokenCount) && tried < 4; cand++ {
		if cand == sym || p.language.IsExtra(cand) {
			continue
		}
		if !p.language.HasActions(state, cand) {
			continue
		}
		tried++
		j := stack.CopyVersion(i)
		missing := p.arena.MakeMissingLeaf(cand, tok.StartByte, tok.StartPoint, state)
		next := p.language.NextState(state, cand)
		if next == ErrorState {
			missing.Release()
			stack.RemoveVersion(j)
			continue
		}
		p.logf(LogParse, "version %d: trying missing token %d as version %d [%s]", i, cand, j, missing.DebugID)
		stack.Push(j, next, missing)
		stack.SetErrorCost(j, stack.ErrorCost(j)+missing.ErrorCost)
		p.driveSymbol(stack, j, sym, tok)
	}

	if p.recover(stack, i, sym, tok) {
		return statusErrored
	}

	if tok.StartByte == tok.EndByte {
		p.logf(LogParse, "version %d: halted at end of input during recovery", i)
		stack.Halt(i)
		return statusHalted
	}

	deltaBytes := int32(tok.EndByte - tok.StartByte)
	var deltaRows int32
	if tok.EndPoint.Row > tok.StartPoint.Row {
		deltaRows = int32(tok.EndPoint.Row - tok.StartPoint.Row)
	}
	newCost := stack.ErrorCost(i) + errorCostPerRecoveredTree + deltaBytes*errorCostPerSkippedChar + deltaRows*errorCostPerSkippedLine
	candidate := errorStatus{cost: newCost, nodeCount: stack.NodeCountSinceError(i), dynamicPrecedence: stack.DynamicPrecedence(i), inError: false}
	if stack.BetterVersionExists(i, candidate) {
		p.logf(LogParse, "version %d: halted, a better version already covers this position", i)
		stack.Halt(i)
		return statusHalted
	}

	errLeaf := p.arena.MakeError(tok.StartByte, tok.EndByte, tok.StartPoint, tok.EndPoint, ErrorState)
	if deltaRows > 0 {
		errLeaf.ErrorCost += errorCostPerSkippedLine * deltaRows
	}
	p.pushErrorRepeat(stack, i, errLeaf)
	stack.SetErrorCost(i, newCost)
	stack.SetPosition(i, tok.EndByte, tok.EndPoint)
	p.logf(LogParse, "version %d: skipped bytes [%d,%d) at cost %d [%s]", i, tok.StartByte, tok.EndByte, newCost, errLeaf.DebugID)
	return statusErrored
}

// reduceAllPossible is the first step of error recovery: before trying to
// insert a missing token or unwind to an earlier state, it commits every
// reduction the current state offers for any terminal symbol at all,
// irrespective of what the real lookahead actually is. A state stuck on
// one lookahead can still have a live reduce keyed to some other symbol;
// applying it may walk the state forward to one that finally does have an
// action for the real lookahead. It keeps doing this, symbol by symbol,
// until a pass finds nothing left to reduce, and reports whether it
// changed anything so the caller knows whether retrying the original
// lookahead is worth it.
func (p *Parser) reduceAllPossible(stack *Stack, i int) bool {
	reduced := false
	for {
		state := stack.State(i)
		var found *ParseAction
		for cand := Symbol(0); cand < Symbol(p.language.TokenCount); cand++ {
			entry := p.language.TableEntry(state, cand)
			if !entry.HasReduceAction() {
				continue
			}
			for k := range entry.Actions {
				if entry.Actions[k].Type == ActionReduce {
					found = &entry.Actions[k]
					break
				}
			}
			if found != nil {
				break
			}
		}
		if found == nil {
			return reduced
		}
		p.applyReduce(stack, i, *found, false)
		reduced = true
	}
}

// pushErrorRepeat wraps a single skipped-token error leaf in an
// error_repeat node and, if version i's stack already carries a run of
// these from earlier skips in the same recovery, merges the new wrapper
// into that run instead of stacking a second sibling error_repeat: the
// existing run is popped, nested as the first child alongside the new
// wrapper, and the combined node is pushed back in its place.
func (p *Parser) pushErrorRepeat(stack *Stack, i int, errLeaf *Node) {
	wrapper := p.arena.MakeErrorRepeat([]*Node{errLeaf})
	if top := stack.Node(i); top != nil && top.Symbol == SymErrorRepeat {
		prev := stack.PopCount(i, 1)[0]
		merged := p.arena.MakeErrorRepeat([]*Node{prev, wrapper})
		stack.Push(i, ErrorState, merged)
		return
	}
	stack.Push(i, ErrorState, wrapper)
}

// recover searches version i's recorded summary for an earlier point on
// its own stack that does have a table action for sym, and unwinds back
// to it, ground-truthed on parser__recover: candidates are tried in the
// order they were first recorded, the first one that both survives the
// better-version-exists gate and has a live action for sym wins, rather
// than scanning for the cheapest or shallowest candidate. A lookahead
// that is itself the built-in error symbol (the lexer could not even
// tokenize it) skips this search entirely, since no recorded state is
// going to have a table action for a symbol that isn't real.
func (p *Parser) recover(stack *Stack, i int, sym Symbol, tok Token) bool {
	if sym == SymError {
		return false
	}

	for _, cand := range stack.SummaryCandidates(i) {
		if cand.state == ErrorState {
			continue
		}
		if cand.pos == tok.StartByte {
			continue
		}
		depth := cand.depth
		if depth <= 0 {
			continue
		}

		deltaBytes := int32(tok.StartByte) - int32(cand.pos)
		deltaRows := int32(tok.StartPoint.Row) - int32(cand.point.Row)
		newCost := stack.ErrorCost(i) + int32(depth)*errorCostPerRecoveredTree + deltaBytes*errorCostPerSkippedChar + deltaRows*errorCostPerSkippedLine

		candidate := errorStatus{cost: newCost, nodeCount: stack.NodeCountSinceError(i), dynamicPrecedence: stack.DynamicPrecedence(i), inError: false}
		if stack.BetterVersionExists(i, candidate) {
			continue
		}

		if !p.language.HasActions(cand.state, sym) {
			continue
		}

		p.recoverToState(stack, i, cand.state, depth, newCost)
		p.logf(LogParse, "version %d: recovered to state %d, popped %d frames", i, cand.state, depth)
		p.driveSymbol(stack, i, sym, tok)
		return true
	}

	return false
}

// recoverToState pops depth frames off version i's stack, folds whatever
// they were building (minus any trailing extras) into a single ERROR node
// so the discarded parse isn't lost outright, pushes that at goal, then
// re-pushes the trailing extras above it, mirroring
// parser__recover_to_state.
func (p *Parser) recoverToState(stack *Stack, i int, goal StateID, depth int, newCost int32) {
	popped := stack.PopPending(i, depth)

	trailing := 0
	for trailing < len(popped) && popped[len(popped)-1-trailing].Extra {
		trailing++
	}
	var extras []*Node
	if trailing > 0 {
		extras = append([]*Node(nil), popped[len(popped)-trailing:]...)
		popped = popped[:len(popped)-trailing]
	}

	if len(popped) > 0 {
		wrapper := p.arena.MakeErrorNode(popped)
		wrapper.Extra = true
		stack.Push(i, goal, wrapper)
	}
	for _, ex := range extras {
		stack.Push(i, goal, ex)
	}

	stack.SetErrorCost(i, newCost)
	stack.ResetNodeCountSinceError(i)
}

// lex produces the next lookahead for version i: an external-scanner
// token if the grammar has a scanner and the current lex mode enables any
// of its symbols, otherwise a table-driven internal token, otherwise a
// single skipped codepoint standing in for input the tables cannot even
// begin to tokenize.
func (p *Parser) lex(stack *Stack, i int) (Symbol, Token) {
	pos, point := stack.Position(i), stack.Point(i)
	p.lexer.Reset(int(pos), point)

	if int(pos) >= len(p.lexer.source) {
		tok := Token{Symbol: SymEnd, StartByte: pos, EndByte: pos, StartPoint: point, EndPoint: point}
		return SymEnd, tok
	}

	mode := p.language.LexMode(stack.State(i))

	if p.scanner != nil {
		enabled := p.language.EnabledExternalTokens(mode.ExternalLexState)
		if anyEnabled(enabled) {
			p.scanner.restore(stack.LastExternalTokenState(i))
			if tok, state, ok := p.scanner.scan(p.lexer, enabled); ok {
				stack.SetLastExternalTokenState(i, state)
				p.logf(LogLex, "version %d: external token %d at byte %d", i, tok.Symbol, tok.StartByte)
				return tok.Symbol, tok
			}
			p.lexer.Reset(int(pos), point)
		}
	}

	tok, ok := p.lexer.Next(p.language.LexStates, mode.LexState)
	if ok {
		tok.LexState = mode.LexState
		tok = p.captureKeyword(stack, i, tok)
		p.logf(LogLex, "version %d: token %d %q at byte %d", i, tok.Symbol, tok.Text, tok.StartByte)
		return tok.Symbol, tok
	}

	r := p.lexer.Lookahead()
	if r == 0 {
		return SymEnd, Token{Symbol: SymEnd, StartByte: pos, EndByte: pos, StartPoint: point, EndPoint: point}
	}
	p.lexer.advanceOneRune()
	p.logf(LogLex, "version %d: no lex table match at byte %d, skipping one codepoint", i, pos)
	return SymError, Token{
		Symbol:     SymError,
		StartByte:  pos,
		EndByte:    uint32(p.lexer.pos),
		StartPoint: point,
		EndPoint:   p.lexer.point,
	}
}

// captureKeyword implements the grammar's keyword-capture shortcut: most
// identifier-like tokens are lexed generically and only afterwards checked
// against the keyword table, rather than every keyword getting its own
// path through the main DFA. If the main lex just matched the grammar's
// designated capture symbol (ordinarily "identifier"), this re-lexes the
// same span with the dedicated keyword table; if that re-lex accepts a
// token ending at exactly the same byte and the current state actually has
// an action for the keyword it found, the keyword wins over the generic
// identifier. A re-lex that runs short, overshoots, or lands on a symbol
// the table can't use here leaves the original token untouched.
func (p *Parser) captureKeyword(stack *Stack, i int, tok Token) Token {
	if len(p.language.KeywordLexStates) == 0 || tok.Symbol != p.language.KeywordCaptureToken {
		return tok
	}

	p.lexer.Reset(int(tok.StartByte), tok.StartPoint)
	kw, ok := p.lexer.scan(p.language.KeywordLexStates, 0)
	if !ok || kw.EndByte != tok.EndByte {
		p.lexer.Reset(int(tok.EndByte), tok.EndPoint)
		return tok
	}
	if !p.language.HasActions(stack.State(i), kw.Symbol) {
		p.lexer.Reset(int(tok.EndByte), tok.EndPoint)
		return tok
	}

	kw.Text = tok.Text
	kw.LexState = tok.LexState
	p.lexer.Reset(int(tok.EndByte), tok.EndPoint)
	return kw
}

func anyEnabled(enabled []bool) bool {
	for _, e := range enabled {
		if e {
			return true
		}
	}
	return false
}

// finishAccepted builds the final Tree once a version's action was
// ActionAccept: the remaining stack entries (ordinarily exactly the root
// production) are popped and, if extras trailed the grammar's own start
// symbol, spliced under a synthetic wrapper the way the accept step in
// the reference runtime folds trailing comments/whitespace into the root.
func (p *Parser) finishAccepted(stack *Stack, i int) (*Tree, error) {
	nodes := stack.PopAll(i)
	var root *Node
	switch len(nodes) {
	case 0:
		root = nil
	case 1:
		root = nodes[0]
	default:
		root = p.arena.MakeErrorNode(nodes)
	}
	return &Tree{Root: root, Language: p.language, Arena: p.arena}, nil
}

// finishBestHalted is reached when every version has run out of ways to
// make progress. It keeps the cheapest one's partial parse, wrapped in an
// ERROR node if more than a single subtree remains on its stack.
func (p *Parser) finishBestHalted(stack *Stack) *Tree {
	best := 0
	for i := 1; i < stack.VersionCount(); i++ {
		if stack.ErrorCost(i) < stack.ErrorCost(best) {
			best = i
		}
	}
	nodes := stack.PopAll(best)
	var root *Node
	switch len(nodes) {
	case 0:
		root = nil
	case 1:
		root = nodes[0]
	default:
		root = p.arena.MakeErrorNode(nodes)
	}
	return &Tree{Root: root, Language: p.language, Arena: p.arena}
}

func (p *Parser) finishEmpty() *Tree {
	return &Tree{Language: p.language, Arena: p.arena}
}

// readAll drains an Input to a single buffer. Callers that need to parse
// unbounded or streaming sources should chunk them externally; this
// runtime's tables and lexer both need random access into the whole
// document once parsing starts (to seek backwards for error recovery and
// to compare incremental edits against a previous tree).
func readAll(input Input) ([]byte, error) {
	var buf []byte
	var pos uint32
	for {
		chunk, err := input.Read(pos, Point{})
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			return buf, nil
		}
		buf = append(buf, chunk...)
		pos += uint32(len(chunk))
	}
}
