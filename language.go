package glrcore

import (
	"fmt"

	"github.com/spf13/cast"
)

// ExternalScanner is the interface a grammar's external scanner must
// satisfy. External scanners handle context-sensitive tokens (Python-style
// indentation, JSX text, template literals) that a plain DFA cannot.
type ExternalScanner interface {
	Create() any
	Destroy(payload any)
	Serialize(payload any, buf []byte) int
	Deserialize(payload any, buf []byte)
	Scan(payload any, lexer *ExternalLexer, validSymbols []bool) bool
}

// Language holds every piece of static data a compiled grammar hands to
// the runtime: parse tables, lex tables, symbol metadata, and an optional
// external scanner. The runtime never mutates a Language; one Language can
// back many concurrent Parser instances (each Parser owns its own
// external-scanner payload).
type Language struct {
	Name    string
	Version uint32

	SymbolCount        uint32
	TokenCount         uint32
	ExternalTokenCount uint32
	StateCount         uint32
	FieldCount         uint32
	ProductionIDCount  uint32

	SymbolNames    []string
	SymbolMetadata []SymbolMetadata
	FieldNames     []string

	// ParseTable is a dense [state][symbol] -> index into ParseActions.
	ParseTable   [][]uint16
	ParseActions []ParseActionEntry

	LexModes            []LexMode
	LexStates           []LexState
	KeywordLexStates    []LexState
	KeywordCaptureToken Symbol

	FieldMapSlices  [][2]uint16
	FieldMapEntries []FieldMapEntry

	// AliasSequences maps [alias_sequence_id][child_index] -> display symbol.
	AliasSequences [][]Symbol

	ExternalTokenEnabled [][]bool // [external_lex_state][token] -> enabled
	ExternalScanner      ExternalScanner

	// InitialState is the parser's start state. State 0 is reserved for
	// error recovery, so hand-built grammars normally start at 1.
	InitialState StateID
}

// Validate rejects a table whose dimensions are inconsistent with its own
// declared counts. SetLanguage calls this so that installing an
// incompatible table (spec.md's "invalid table version" outcome) fails
// fast at configuration time rather than corrupting a live parse.
//
// The numeric counts on Language are typed as uint32 for table-compiler
// friendliness, but nothing stops a loosely-typed caller (e.g. one that
// unmarshaled counts from a generic map[string]any) from handing over
// int, int64, or float64 values wrapped behind an any before this
// boundary; cast.ToUint32 shields Validate from panicking on that shape
// mismatch instead of asserting a single numeric type.
func (l *Language) Validate() error {
	if l == nil {
		return fmt.Errorf("glrcore: nil language")
	}
	if err := checkLanguageVersion(l.Version); err != nil {
		return fmt.Errorf("glrcore: language %q: %w", l.Name, err)
	}
	symbolCount := cast.ToUint32(l.SymbolCount)
	stateCount := cast.ToUint32(l.StateCount)

	if int(symbolCount) != len(l.SymbolMetadata) && len(l.SymbolMetadata) != 0 {
		return fmt.Errorf("glrcore: language %q: symbol_count=%d but %d symbol metadata entries", l.Name, symbolCount, len(l.SymbolMetadata))
	}
	if len(l.ParseTable) != 0 && uint32(len(l.ParseTable)) != stateCount {
		return fmt.Errorf("glrcore: language %q: state_count=%d but parse table has %d rows", l.Name, stateCount, len(l.ParseTable))
	}
	if len(l.LexModes) != 0 && uint32(len(l.LexModes)) != stateCount {
		return fmt.Errorf("glrcore: language %q: state_count=%d but %d lex modes", l.Name, stateCount, len(l.LexModes))
	}
	if int(l.InitialState) >= len(l.ParseTable) && len(l.ParseTable) != 0 {
		return fmt.Errorf("glrcore: language %q: initial_state=%d out of range", l.Name, l.InitialState)
	}
	return nil
}

// TableEntry returns the parse-action entry for (state, symbol).
func (l *Language) TableEntry(state StateID, sym Symbol) ParseActionEntry {
	if int(state) < len(l.ParseTable) {
		row := l.ParseTable[state]
		if int(sym) < len(row) {
			idx := row[sym]
			if int(idx) < len(l.ParseActions) {
				return l.ParseActions[idx]
			}
		}
	}
	return ParseActionEntry{}
}

// HasActions reports whether (state, symbol) has any live action.
func (l *Language) HasActions(state StateID, sym Symbol) bool {
	return l.TableEntry(state, sym).HasActions()
}

// HasReduceAction reports whether (state, symbol) includes a reduce.
func (l *Language) HasReduceAction(state StateID, sym Symbol) bool {
	return l.TableEntry(state, sym).HasReduceAction()
}

// NextState returns the goto/shift target for (state, symbol), or
// ErrorState if there is none.
func (l *Language) NextState(state StateID, sym Symbol) StateID {
	entry := l.TableEntry(state, sym)
	for _, a := range entry.Actions {
		if a.Type == ActionShift {
			return a.NextState
		}
	}
	return ErrorState
}

// LexMode returns the lex-state pair active while the parser sits in the
// given parse state. Per spec, ERROR_STATE always uses lex mode 0.
func (l *Language) LexMode(state StateID) LexMode {
	if state == ErrorState {
		if len(l.LexModes) > 0 {
			return l.LexModes[0]
		}
		return LexMode{}
	}
	if int(state) < len(l.LexModes) {
		return l.LexModes[state]
	}
	return LexMode{}
}

// EnabledExternalTokens returns which external-token symbols are valid to
// scan for while in the given external lex state.
func (l *Language) EnabledExternalTokens(externalLexState uint16) []bool {
	if int(externalLexState) < len(l.ExternalTokenEnabled) {
		return l.ExternalTokenEnabled[externalLexState]
	}
	return nil
}

// SymbolMeta returns display metadata for a symbol.
func (l *Language) SymbolMeta(sym Symbol) SymbolMetadata {
	if int(sym) < len(l.SymbolMetadata) {
		return l.SymbolMetadata[sym]
	}
	return SymbolMetadata{}
}

// IsNamed reports whether a symbol produces a named node.
func (l *Language) IsNamed(sym Symbol) bool { return l.SymbolMeta(sym).Named }

// IsExtra reports whether a symbol is an "extra" token (whitespace,
// comments) attached to, but not structurally part of, the grammar.
func (l *Language) IsExtra(sym Symbol) bool { return l.SymbolMeta(sym).Extra }

// AliasSequence returns the child-index -> display-symbol table for a
// production, or nil if the production has no aliasing.
func (l *Language) AliasSequence(id uint16) []Symbol {
	if int(id) < len(l.AliasSequences) {
		return l.AliasSequences[id]
	}
	return nil
}

// FieldByName resolves a field name to its id.
func (l *Language) FieldByName(name string) (FieldID, bool) {
	for i, n := range l.FieldNames {
		if n == name {
			return FieldID(i), true
		}
	}
	return 0, false
}
