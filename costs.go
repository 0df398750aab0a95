package glrcore

// Error-recovery cost weights. Skipping input is charged per character
// and per line so that recovery favors the shortest, least-disruptive
// skip; inserting a missing token or wrapping a run of children in an
// ERROR node carries its own flat charge so a version that recovers
// cleanly with one substitution beats one that skips a whole line to
// avoid it.
const (
	errorCostPerSkippedChar  int32 = 3
	errorCostPerSkippedLine  int32 = 30
	errorCostPerMissingTree  int32 = 110
	errorCostPerRecoveredTree int32 = 50
)

// maxCostDifference bounds how much worse than the cheapest active
// version another version is allowed to be before condense_stack prunes
// it outright, expressed as a multiple of a single recovered-tree cost so
// it scales with the same unit as the costs above.
const maxCostDifference = 16 * errorCostPerRecoveredTree

// maxVersionCount is the ceiling CondenseStack prunes back towards after
// every round. A single ambiguous lookahead can still fork the stack wider
// than this in the round it happens; condense is what brings the count
// back down before the next lex step.
const maxVersionCount = 6

// maxSummaryDepth bounds how many distinct states a version's error
// summary records (RecordSummary ignores new states once it is full).
const maxSummaryDepth = 16
