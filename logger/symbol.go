package logger

import (
	"go.uber.org/zap"
)

// Component marker symbols used by graphshell's background workers and
// lifecycle engine. Mirrors the teacher's symbol-as-structured-field
// pattern: the symbol goes in a field, never in the message text, so logs
// stay queryable by component.
const (
	SymbolPulse      = "꩜" // control-panel worker tick
	SymbolPulseOpen  = "✿" // worker/resource startup
	SymbolPulseClose = "❀" // worker/resource graceful shutdown
	SymbolLifecycle  = "⊙" // node lifecycle transition
	SymbolSync       = "⇄" // P2P sync exchange
	SymbolReducer    = "⟲" // intent reducer apply
)

// Symbol-aware logging helpers.
//
// Usage:
//
//	logger.LifecycleInfow("promoted node to active", "node_key", key)

// LifecycleInfow logs an info message tagged with the lifecycle symbol.
func LifecycleInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolLifecycle}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// LifecycleDebugw logs a debug message tagged with the lifecycle symbol.
func LifecycleDebugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolLifecycle}, keysAndValues...)
		Logger.Debugw(msg, fields...)
	}
}

// SyncInfow logs an info message tagged with the sync symbol.
func SyncInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolSync}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// SyncWarnw logs a warning message tagged with the sync symbol.
func SyncWarnw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolSync}, keysAndValues...)
		Logger.Warnw(msg, fields...)
	}
}

// PulseOpenInfow logs an info message with the worker-startup symbol.
func PulseOpenInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolPulseOpen}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// PulseCloseInfow logs an info message with the worker-shutdown symbol.
func PulseCloseInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolPulseClose}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// WithSymbol returns a logger with the given symbol as a field, for ad-hoc
// symbol usage not covered by the helpers above.
func WithSymbol(symbol string) *zap.SugaredLogger {
	return Logger.With(FieldSymbol, symbol)
}

// SymbolInfow logs with any symbol — for dynamic symbol usage.
func SymbolInfow(symbol, msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, symbol}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}
