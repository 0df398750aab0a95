package glrcore

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// newSessionID generates the identifier a Parser stamps on every log
// entry it produces, so a caller running many parsers
// concurrently (one per open file, say) can tell their interleaved log
// output apart.
func newSessionID() string {
	return uuid.NewString()
}

// entropy backs debugNodeID's monotonic-but-random suffix. ulid.ULID
// values sort by creation time, which makes a sequence of debug ids read
// in the order the nodes were built even after they are scattered across
// a dot graph or a log file.
var debugIDEntropy = ulid.DefaultEntropy()

// debugNodeID returns a short, time-ordered identifier for use in debug
// graphs (GraphLogger.WriteEdge) and log messages, where a raw
// pointer address would be meaningless across runs.
func debugNodeID() string {
	return ulid.MustNew(ulid.Now(), debugIDEntropy).String()
}
