package glrcore

import (
	"fmt"
	"io"
)

// LogKind classifies a single log callback invocation, mirroring the two
// channels a compiled grammar's debug build distinguishes: raw lexing
// versus parser-state transitions.
type LogKind uint8

const (
	LogLex LogKind = iota
	LogParse
)

func (k LogKind) String() string {
	if k == LogLex {
		return "lex"
	}
	return "parse"
}

// LogEntry is one message handed to a Logger.
type LogEntry struct {
	Kind      LogKind
	Message   string
	SessionID string
}

// Logger receives a callback per logged event. The driver formats a fresh
// Message string for every entry.
type Logger func(LogEntry)

// DiscardLogger drops every entry; it is the default when no logger is
// configured.
func DiscardLogger(LogEntry) {}

// GraphLogger renders parser transitions as a Graphviz dot stream,
// useful for visualizing GSS forks and merges the way the driver's
// debug-graph mode is meant to be inspected. Its Log method has the
// Logger shape, so it plugs in via WithLogger(g.Log), and the GraphLogger
// additionally frames the whole run with a digraph header/footer.
type GraphLogger struct {
	w   io.Writer
	n   int
	err error
}

// NewGraphLogger opens a dot digraph on w. Call Close when the parse is
// done to emit the closing brace.
func NewGraphLogger(w io.Writer) *GraphLogger {
	g := &GraphLogger{w: w}
	_, g.err = fmt.Fprintln(w, "digraph glr {")
	return g
}

// Log has the shape of a Logger, so g.Log plugs into WithLogger(g.Log)
// directly. It does not attempt to reconstruct the GSS graph shape itself;
// a caller that wants the fork/merge edges drawn should call WriteEdge
// directly alongside whatever version bookkeeping it already does.
func (g *GraphLogger) Log(entry LogEntry) {
	if g.err != nil {
		return
	}
	_, g.err = fmt.Fprintf(g.w, "  // [%s %s] %s\n", entry.SessionID, entry.Kind, entry.Message)
}

// WriteEdge records one GSS transition as a dot edge between two version
// node labels.
func (g *GraphLogger) WriteEdge(from, to string, label string) {
	if g.err != nil {
		return
	}
	g.n++
	_, g.err = fmt.Fprintf(g.w, "  %q -> %q [label=%q];\n", from, to, label)
}

// Close emits the closing brace of the digraph.
func (g *GraphLogger) Close() error {
	if g.err != nil {
		return g.err
	}
	_, err := fmt.Fprintln(g.w, "}")
	return err
}
