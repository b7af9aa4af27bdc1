package common

import (
	"context"
	"log"
)

// MissionLogger provides leveled logging for mission and commander code
type MissionLogger interface {
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// Context keys for passing logger through context
type contextKey int

const (
	loggerKey contextKey = iota
)

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger MissionLogger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext extracts the logger from context, or returns a no-op logger if not found
func LoggerFromContext(ctx context.Context) MissionLogger {
	if logger, ok := ctx.Value(loggerKey).(MissionLogger); ok {
		return logger
	}
	return &noOpLogger{}
}

// noOpLogger is a logger that does nothing (fallback when no logger in context)
type noOpLogger struct{}

func (l *noOpLogger) Info(format string, args ...interface{})  {}
func (l *noOpLogger) Warn(format string, args ...interface{})  {}
func (l *noOpLogger) Error(format string, args ...interface{}) {}

// ShipLogger writes ship-prefixed lines to the standard logger, so every
// line of a mission reads as "[Nickname] message"
type ShipLogger struct {
	prefix string
}

// NewShipLogger creates a logger that prefixes every line with the ship's
// nickname
func NewShipLogger(nickname string) *ShipLogger {
	return &ShipLogger{prefix: "[" + nickname + "] "}
}

func (l *ShipLogger) Info(format string, args ...interface{}) {
	log.Printf(l.prefix+format, args...)
}

func (l *ShipLogger) Warn(format string, args ...interface{}) {
	log.Printf(l.prefix+"WARN: "+format, args...)
}

func (l *ShipLogger) Error(format string, args ...interface{}) {
	log.Printf(l.prefix+"ERROR: "+format, args...)
}
