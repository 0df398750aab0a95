package glrcore

// Severity classifies a Diagnostic.
type Severity uint8

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Diagnostic is one human-facing report extracted from a parsed tree: an
// ERROR or MISSING node the recovery search left behind, translated into
// a location and message a caller can surface directly without walking
// the tree itself.
type Diagnostic struct {
	Severity Severity
	Message  string
	Range    Range
	Cost     int32
}

// Diagnostics walks tree read-only and reports one entry per ERROR or
// MISSING node it finds, ordered by position. It never mutates the tree,
// so it is safe to call on a Tree still shared with other GSS versions or
// cached for reuse by a later incremental parse.
func Diagnostics(tree *Tree) []Diagnostic {
	if tree == nil || tree.Root == nil {
		return nil
	}
	var out []Diagnostic
	collectDiagnostics(tree.Root, &out)
	return out
}

func collectDiagnostics(n *Node, out *[]Diagnostic) {
	if n == nil {
		return
	}
	switch {
	case n.IsMissing:
		*out = append(*out, Diagnostic{
			Severity: SeverityError,
			Message:  "missing token",
			Range:    n.ByteRange,
			Cost:     n.ErrorCost,
		})
	case n.IsError && n.IsLeaf:
		*out = append(*out, Diagnostic{
			Severity: SeverityError,
			Message:  "unexpected input",
			Range:    n.ByteRange,
			Cost:     n.ErrorCost,
		})
	case n.IsError:
		*out = append(*out, Diagnostic{
			Severity: SeverityWarning,
			Message:  "syntax error",
			Range:    n.ByteRange,
			Cost:     n.ErrorCost,
		})
	}
	for _, c := range n.Children {
		collectDiagnostics(c, out)
	}
}
