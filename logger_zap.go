package glrcore

import "go.uber.org/zap"

// NewZapLogger adapts a zap.SugaredLogger to Logger, so a Parser configured
// with WithLogger(NewZapLogger(z)) folds its lex/parse trace into whatever
// structured logging pipeline the embedding application already runs,
// instead of the plain GraphLogger this package builds on its own.
func NewZapLogger(z *zap.SugaredLogger) Logger {
	return func(entry LogEntry) {
		z.Infow(entry.Message, "kind", entry.Kind.String(), "session", entry.SessionID)
	}
}
