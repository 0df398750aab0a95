package glrcore

import "unicode/utf8"

// Lexer tokenizes source text using a table-driven DFA supplied by the
// Language. It knows nothing about parse states or external scanners;
// the driver's lex step (driver.go) layers those concerns on top.
type Lexer struct {
	source []byte
	pos    int
	point  Point

	tokenStartPos   int
	tokenStartPoint Point
	tokenEndPos     int
	tokenEndPoint   Point
}

// NewLexer creates a Lexer over the given already-decoded source bytes.
func NewLexer(source []byte) *Lexer {
	return &Lexer{source: source}
}

// SetInput replaces the lexer's source buffer, resetting position.
func (l *Lexer) SetInput(source []byte) {
	l.source = source
	l.pos = 0
	l.point = Point{}
}

// Reset repositions the lexer without altering its source.
func (l *Lexer) Reset(pos int, point Point) {
	l.pos = pos
	l.point = point
}

// Position returns the lexer's current byte offset and point.
func (l *Lexer) Position() (int, Point) { return l.pos, l.point }

// AdvanceToEnd consumes the remainder of the input, used when halting a
// parse under WithHaltOnError.
func (l *Lexer) AdvanceToEnd() {
	for l.pos < len(l.source) {
		l.advanceOneRune()
	}
}

func (l *Lexer) advanceOneRune() {
	if l.pos >= len(l.source) {
		return
	}
	r, size := utf8.DecodeRune(l.source[l.pos:])
	l.pos += size
	if r == '\n' {
		l.point.Row++
		l.point.Column = 0
	} else {
		l.point.Column++
	}
}

// Lookahead returns the rune at the current position, or 0 at EOF. Used
// by the internal DFA walk and also exposed for external-scanner-style
// callers that peek before advancing.
func (l *Lexer) Lookahead() rune {
	if l.pos >= len(l.source) {
		return 0
	}
	r, _ := utf8.DecodeRune(l.source[l.pos:])
	return r
}

// Next runs the DFA rooted at startState from the current position,
// silently skipping any tokens whose accepting state is marked Skip
// (whitespace, comments folded into the grammar's own lex table), and
// returns the first non-skip token. A zero-Symbol, zero-width token
// signals EOF.
func (l *Lexer) Next(states []LexState, startState uint16) (Token, bool) {
	for {
		if l.pos >= len(l.source) {
			return Token{StartByte: uint32(l.pos), EndByte: uint32(l.pos), StartPoint: l.point, EndPoint: l.point}, true
		}

		tok, ok := l.scan(states, startState)
		if !ok {
			return Token{}, false
		}
		if tok.Symbol == 0 && tok.StartByte == tok.EndByte && tok.EndByte != uint32(len(l.source)) {
			// Zero-width skip match; force forward progress.
			l.advanceOneRune()
			continue
		}
		if tok.Symbol == 0 && tok.StartByte != tok.EndByte {
			// Skip token consumed real bytes (whitespace run); keep going.
			continue
		}
		return tok, true
	}
}

// scan performs a single DFA walk from the lexer's current position. A
// Skip-accepting state produces a zero-Symbol token spanning the skipped
// bytes; the caller (Next) decides whether to loop.
func (l *Lexer) scan(states []LexState, startState uint16) (Token, bool) {
	if int(startState) >= len(states) {
		return Token{}, false
	}

	startPos, startPoint := l.pos, l.point
	curState := int(startState)

	acceptPos := -1
	var acceptPoint Point
	acceptSymbol := Symbol(0)
	acceptSkip := false

	st := &states[curState]
	if st.AcceptToken > 0 || st.Skip {
		acceptPos, acceptPoint, acceptSymbol, acceptSkip = l.pos, l.point, st.AcceptToken, st.Skip
	}

	pos, point := l.pos, l.point
	for pos < len(l.source) {
		r, size := utf8.DecodeRune(l.source[pos:])

		st = &states[curState]
		nextState := -1
		for i := range st.Transitions {
			tr := &st.Transitions[i]
			if r >= tr.Lo && r <= tr.Hi {
				nextState = tr.NextState
				break
			}
		}
		if nextState < 0 {
			nextState = st.Default
		}
		if nextState < 0 {
			break
		}

		pos += size
		if r == '\n' {
			point.Row++
			point.Column = 0
		} else {
			point.Column++
		}
		curState = nextState

		ns := &states[curState]
		if ns.AcceptToken > 0 || ns.Skip {
			acceptPos, acceptPoint, acceptSymbol, acceptSkip = pos, point, ns.AcceptToken, ns.Skip
		}
	}

	if acceptPos < 0 {
		return Token{}, false
	}

	l.pos, l.point = acceptPos, acceptPoint
	l.tokenStartPos, l.tokenStartPoint = startPos, startPoint
	l.tokenEndPos, l.tokenEndPoint = acceptPos, acceptPoint

	// pos has kept advancing through the DFA walk even past the last
	// accepting state (maximal-munch backtracking), so it marks the
	// furthest byte consumed while settling on this match; one more byte
	// is counted for the lookahead the walk stopped on.
	bytesScanned := uint32(pos-startPos) + 1

	if acceptSkip {
		return Token{StartByte: uint32(startPos), EndByte: uint32(acceptPos), StartPoint: startPoint, EndPoint: acceptPoint, BytesScanned: bytesScanned}, true
	}
	return Token{
		Symbol:       acceptSymbol,
		Text:         string(l.source[startPos:acceptPos]),
		StartByte:    uint32(startPos),
		EndByte:      uint32(acceptPos),
		StartPoint:   startPoint,
		EndPoint:     acceptPoint,
		BytesScanned: bytesScanned,
	}, true
}
