package glrcore

// Token is a lexed token together with its source span.
type Token struct {
	Symbol     Symbol
	Text       string
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point

	// BytesScanned is how far past StartByte the lexer's DFA walk actually
	// looked before settling on this token's match, which can exceed
	// EndByte-StartByte once maximal-munch backtracking is accounted for.
	BytesScanned uint32

	// LexState is the DFA start state this token was matched under. Two
	// tokens produced from the same bytes under the same LexState are
	// guaranteed identical, which is what makes the driver's token cache
	// safe to key on (position, LexState) rather than reproving the match.
	LexState uint16
}

func (t Token) size() Range {
	return Range{StartByte: t.StartByte, EndByte: t.EndByte, StartPoint: t.StartPoint, EndPoint: t.EndPoint}
}
