package logger

import (
	"context"
	"fmt"
	"io"
	"os"

	utils "github.com/go-slark/pipeline/pkg"
	"github.com/sirupsen/logrus"
)

type log struct {
	*logrus.Logger
}

// NewLog returns a logrus backed Logger. Each call owns its own logrus instance.
func NewLog(opts ...FuncOpts) Logger {
	le := &logEntity{
		name:   "pipeline",
		level:  logrus.InfoLevel,
		levels: logrus.AllLevels,
		formatter: &logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05.000",
		},
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(le)
	}
	l := logrus.New()
	l.SetFormatter(le.formatter)
	l.SetLevel(le.level)
	l.SetOutput(le.writer)
	l.SetReportCaller(le.reportCaller)
	l.AddHook(le)
	return &log{Logger: l}
}

func toLogrusLevel(level uint) logrus.Level {
	switch level {
	case PanicLevel:
		return logrus.PanicLevel
	case FatalLevel:
		return logrus.FatalLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	case WarnLevel:
		return logrus.WarnLevel
	case InfoLevel:
		return logrus.InfoLevel
	case TraceLevel:
		return logrus.TraceLevel
	default:
		return logrus.DebugLevel
	}
}

func (l *log) Log(ctx context.Context, level uint, fields map[string]interface{}, v ...interface{}) {
	if ctx == nil {
		ctx = context.Background()
	}
	l.WithContext(ctx).WithFields(fields).Log(toLogrusLevel(level), v...)
}

type logEntity struct {
	name         string
	level        logrus.Level
	levels       []logrus.Level
	formatter    logrus.Formatter
	writer       io.Writer
	writers      map[logrus.Level]io.Writer
	reportCaller bool
}

type FuncOpts func(*logEntity)

func WithSrvName(name string) FuncOpts {
	return func(l *logEntity) {
		l.name = name
	}
}

func WithLevel(level string) FuncOpts {
	return func(l *logEntity) {
		lv, err := logrus.ParseLevel(level)
		if err != nil {
			panic(fmt.Errorf("logrus parse level fail, level:%s, err:%+v", level, err))
		}
		l.level = lv
	}
}

func WithFormatter(formatter logrus.Formatter) FuncOpts {
	return func(l *logEntity) {
		l.formatter = formatter
	}
}

func WithWriter(writer io.Writer) FuncOpts {
	return func(l *logEntity) {
		l.writer = writer
	}
}

// WithDispatcher copies entries of the given levels to an extra writer per level,
// e.g. errors to stderr.
func WithDispatcher(dispatcher map[string]io.Writer) FuncOpts {
	return func(l *logEntity) {
		l.writers = make(map[logrus.Level]io.Writer, len(dispatcher))
		for level, writer := range dispatcher {
			lv, err := logrus.ParseLevel(level)
			if err != nil {
				continue
			}
			l.writers[lv] = writer
		}
	}
}

func WithReportCaller(caller bool) FuncOpts {
	return func(l *logEntity) {
		l.reportCaller = caller
	}
}

func (l *logEntity) Levels() []logrus.Level {
	return l.levels
}

func (l *logEntity) Fire(entry *logrus.Entry) error {
	entry.Data[utils.LogName] = l.name
	if id := utils.InvocationIDFrom(entry.Context); id != "" {
		entry.Data[utils.InvocationID] = id
	}

	writer, ok := l.writers[entry.Level]
	if !ok {
		return nil
	}
	eb, err := entry.Bytes()
	if err != nil {
		return err
	}
	_, err = writer.Write(eb)
	return err
}
