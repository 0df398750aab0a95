package glrcore

import "io"

// ParserOption configures a Parser at construction time.
type ParserOption func(*Parser)

// WithLogger routes lex and parse events to fn instead of discarding them.
func WithLogger(fn Logger) ParserOption {
	return func(p *Parser) { p.logger = fn }
}

// WithDebugGraph routes lex and parse events to a GraphLogger writing dot
// output to w, so a caller can render the run as a graph instead of
// wiring a Logger callback by hand. The caller is responsible for closing
// the digraph by calling the returned *GraphLogger's Close once parsing
// is done; NewParser does not do this itself since it has no hook for
// "the caller is finished issuing Parse calls".
func WithDebugGraph(w io.Writer) (ParserOption, *GraphLogger) {
	g := NewGraphLogger(w)
	return func(p *Parser) { p.logger = g.Log }, g
}

// WithHaltOnError disables error recovery entirely: the first version to
// hit an unrecoverable state halts the parse immediately instead of
// entering the recovery search; the rest of the input becomes one ERROR
// leaf and Parse returns the resulting tree. Useful for validators that only care
// whether input is well-formed.
func WithHaltOnError(halt bool) ParserOption {
	return func(p *Parser) { p.haltOnFirstError = halt }
}

// WithMaxVersionCount overrides the default GSS version-count ceiling.
// Grammars with heavy ambiguity may need more headroom before
// condense_stack starts pruning; most callers should leave this alone.
func WithMaxVersionCount(n int) ParserOption {
	return func(p *Parser) {
		if n > 0 {
			p.maxVersionCount = n
		}
	}
}

// WithSessionID overrides the session identifier normally generated by
// NewParser, useful for tests that want deterministic log output.
func WithSessionID(id string) ParserOption {
	return func(p *Parser) { p.sessionID = id }
}
