package logger

import (
	"context"
	"sync/atomic"
)

const (
	PanicLevel uint = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
	TraceLevel
)

type Logger interface {
	Log(ctx context.Context, level uint, fields map[string]interface{}, v ...interface{})
}

var std atomic.Value

func init() {
	std.Store(holder{NewLog()})
}

type holder struct {
	Logger
}

func Default() Logger {
	return std.Load().(holder).Logger
}

func SetDefault(l Logger) {
	if l == nil {
		return
	}
	std.Store(holder{l})
}

// Log writes through the default logger.
func Log(ctx context.Context, level uint, fields map[string]interface{}, v ...interface{}) {
	Default().Log(ctx, level, fields, v...)
}

type nop struct{}

func (nop) Log(context.Context, uint, map[string]interface{}, ...interface{}) {}

// Nop discards everything.
func Nop() Logger {
	return nop{}
}
