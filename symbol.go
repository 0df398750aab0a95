package glrcore

// Symbol is a grammar symbol id (terminal or nonterminal). Symbol 0 is
// reserved for end-of-input.
type Symbol uint16

// StateID is a parser state index. State 0 is the designated error state.
type StateID uint16

// FieldID is a named-field index into a Language's field table.
type FieldID uint16

// Distinguished built-in symbols. Grammars never assign these ids to
// their own terminals or nonterminals.
const (
	SymEnd         Symbol = 0
	SymError       Symbol = 65535
	SymErrorRepeat Symbol = 65534
)

// ErrorState is the reserved state id parked on whenever a version cannot
// make progress and must go through recovery.
const ErrorState StateID = 0

// ParseActionType identifies the kind of a single ParseAction.
type ParseActionType uint8

const (
	ActionError ParseActionType = iota
	ActionShift
	ActionReduce
	ActionAccept
	ActionRecover
)

// ParseAction is a single parser action drawn from the compiled table.
type ParseAction struct {
	Type ParseActionType

	// Shift / Recover
	NextState StateID

	// Shift
	Extra      bool
	Repetition bool

	// Reduce
	Symbol            Symbol
	ChildCount        uint8
	DynamicPrecedence int16
	AliasSequenceID   uint16
}

// ParseActionEntry groups every action registered for one (state, symbol)
// pair. More than one action means the grammar is ambiguous there and the
// driver must fork a GSS version per alternative.
type ParseActionEntry struct {
	Actions             []ParseAction
	Reusable            bool
	DependsOnLookahead  bool
}

// HasActions reports whether this entry offers at least one live action.
func (e ParseActionEntry) HasActions() bool {
	if len(e.Actions) == 0 {
		return false
	}
	return e.Actions[len(e.Actions)-1].Type != ActionError
}

// HasReduceAction reports whether any action in this entry is a reduce.
func (e ParseActionEntry) HasReduceAction() bool {
	for _, a := range e.Actions {
		if a.Type == ActionReduce {
			return true
		}
	}
	return false
}

// LexTransition maps an inclusive rune range to a DFA next state.
type LexTransition struct {
	Lo, Hi    rune
	NextState int
}

// LexState is one state of the table-driven lexer DFA.
type LexState struct {
	AcceptToken Symbol
	Skip        bool
	Transitions []LexTransition
	Default     int
	EOF         int
}

// LexMode maps a parser state to the lexer configuration active there.
type LexMode struct {
	LexState         uint16
	ExternalLexState uint16
}

// SymbolMetadata carries display information about a grammar symbol.
type SymbolMetadata struct {
	Name      string
	Visible   bool
	Named     bool
	Supertype bool
	Extra     bool
}

// FieldMapEntry maps one child position of a production to a field name.
type FieldMapEntry struct {
	FieldID    FieldID
	ChildIndex uint8
	Inherited  bool
}
