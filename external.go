package glrcore

// externalScannerState is the per-Parser instance of a Language's
// ExternalScanner: the scanner plus its own payload. The serialized state
// after each external token is kept per GLR version on the Stack
// (SetLastExternalTokenState) and restored before the next scan.
type externalScannerState struct {
	scanner ExternalScanner
	payload any
}

func newExternalScannerState(s ExternalScanner) *externalScannerState {
	if s == nil {
		return nil
	}
	return &externalScannerState{scanner: s, payload: s.Create()}
}

func (e *externalScannerState) destroy() {
	if e == nil {
		return
	}
	e.scanner.Destroy(e.payload)
}

func (e *externalScannerState) serialize() []byte {
	buf := make([]byte, 256)
	n := e.scanner.Serialize(e.payload, buf)
	return buf[:n]
}

func (e *externalScannerState) restore(state []byte) {
	if len(state) == 0 {
		return
	}
	e.scanner.Deserialize(e.payload, state)
}

// scan runs the external scanner over the lexer's current position,
// restricted to the symbols enabled marks valid. On success it returns
// the accepted token together with the scanner's serialized state at that
// point, which the driver stores on the version that lexed it.
func (e *externalScannerState) scan(l *Lexer, enabled []bool) (Token, []byte, bool) {
	startPos, startPoint := l.pos, l.point
	lex := newExternalLexer(l)
	if !e.scanner.Scan(e.payload, lex, enabled) {
		l.pos, l.point = startPos, startPoint
		return Token{}, nil, false
	}
	tok := lex.token(startPos, startPoint)
	return tok, e.serialize(), true
}
