package logger

import (
	"context"
	"fmt"

	utils "github.com/go-slark/pipeline/pkg"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type zapLog struct {
	l *zap.Logger
}

// NewZap adapts a zap logger to Logger.
func NewZap(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &zapLog{l: l}
}

func toZapLevel(level uint) zapcore.Level {
	switch level {
	case PanicLevel:
		return zapcore.PanicLevel
	case FatalLevel:
		return zapcore.FatalLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case InfoLevel:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

func (z *zapLog) Log(ctx context.Context, level uint, fields map[string]interface{}, v ...interface{}) {
	lv := toZapLevel(level)
	ce := z.l.Check(lv, fmt.Sprint(v...))
	if ce == nil {
		return
	}
	zf := make([]zap.Field, 0, len(fields)+1)
	for k, val := range fields {
		if err, ok := val.(error); ok {
			zf = append(zf, zap.NamedError(k, err))
			continue
		}
		zf = append(zf, zap.Any(k, val))
	}
	if ctx != nil {
		if id := utils.InvocationIDFrom(ctx); id != "" {
			zf = append(zf, zap.String(utils.InvocationID, id))
		}
	}
	ce.Write(zf...)
}
