package glrcore

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestWithSessionIDOverridesGenerated(t *testing.T) {
	p := NewParser(WithSessionID("fixed-session"))
	if p.sessionID != "fixed-session" {
		t.Fatalf("sessionID = %q, want %q", p.sessionID, "fixed-session")
	}
}

func TestWithMaxVersionCountIgnoresNonPositive(t *testing.T) {
	p := NewParser(WithMaxVersionCount(3))
	if p.maxVersionCount != 3 {
		t.Fatalf("maxVersionCount = %d, want 3", p.maxVersionCount)
	}
	p2 := NewParser(WithMaxVersionCount(0))
	if p2.maxVersionCount != maxVersionCount {
		t.Fatalf("maxVersionCount = %d, want default %d", p2.maxVersionCount, maxVersionCount)
	}
}

func TestWithHaltOnErrorStopsRecovery(t *testing.T) {
	lang := buildArithmeticLanguage()
	p := NewParser(WithHaltOnError(true), WithSessionID("halt-test"))
	if err := p.SetLanguage(lang); err != nil {
		t.Fatalf("SetLanguage: %v", err)
	}

	tree, err := p.Parse(context.Background(), NewByteSliceInput([]byte("12 +")), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	root := tree.RootNode()
	if root == nil {
		t.Fatal("expected a tree even when halted")
	}
	if root.ErrorCost == 0 {
		t.Fatal("expected a nonzero error cost from a halted, unrecovered parse")
	}
}

func TestWithDebugGraphEmitsDotOutput(t *testing.T) {
	lang := buildArithmeticLanguage()
	var buf bytes.Buffer
	opt, graph := WithDebugGraph(&buf)

	p := NewParser(opt, WithSessionID("graph-test"))
	if err := p.SetLanguage(lang); err != nil {
		t.Fatalf("SetLanguage: %v", err)
	}
	if _, err := p.Parse(context.Background(), NewByteSliceInput([]byte("12 + 3")), nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := graph.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "digraph glr {") {
		t.Fatalf("output missing digraph header: %q", out)
	}
	if !strings.HasSuffix(strings.TrimRight(out, "\n"), "}") {
		t.Fatalf("output missing closing brace: %q", out)
	}
	if !strings.Contains(out, "graph-test") {
		t.Fatalf("output missing session id in log lines: %q", out)
	}
}
