package common

import "go.uber.org/zap"

// NewLogger builds the zap logger every long-lived component accepts at
// construction time. Callers that don't care about structured logging pass
// nil into a constructor, which substitutes NopLogger().
func NewLogger() *zap.Logger {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return NopLogger()
	}
	return logger
}

func NopLogger() *zap.Logger {
	return zap.NewNop()
}

// OrNop returns logger unchanged, or a no-op logger if logger is nil, so
// every component can log unconditionally without a nil check at each call
// site.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return NopLogger()
	}
	return logger
}
