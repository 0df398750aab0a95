package glrcore

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerForwardsEntries(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	z := zap.New(core).Sugar()

	logger := NewZapLogger(z)
	logger(LogEntry{Kind: LogParse, Message: "shift NUMBER", SessionID: "sess-1"})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("logged %d entries, want 1", len(entries))
	}
	if entries[0].Message != "shift NUMBER" {
		t.Fatalf("message = %q, want %q", entries[0].Message, "shift NUMBER")
	}
	fields := entries[0].ContextMap()
	if fields["kind"] != "parse" || fields["session"] != "sess-1" {
		t.Fatalf("fields = %+v, want kind=parse session=sess-1", fields)
	}
}
