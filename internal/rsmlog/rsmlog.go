// Package rsmlog provides the logging facade used across rsmcheck: a
// small interface over a zap logger so the checker core and CLI depend
// on the interface, not on zap directly.
package rsmlog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging interface consumed by the rest of rsmcheck.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Sync() error
}

type zapLogger struct {
	s *zap.SugaredLogger
}

func (l *zapLogger) Debugf(format string, args ...any) { l.s.Debugf(format, args...) }
func (l *zapLogger) Infof(format string, args ...any)  { l.s.Infof(format, args...) }
func (l *zapLogger) Warnf(format string, args ...any)  { l.s.Warnf(format, args...) }
func (l *zapLogger) Errorf(format string, args ...any) { l.s.Errorf(format, args...) }
func (l *zapLogger) Sync() error                       { return l.s.Sync() }

var encoderConfig = zapcore.EncoderConfig{
	TimeKey:        "ts",
	LevelKey:       "lvl",
	MessageKey:     "message",
	LineEnding:     zapcore.DefaultLineEnding,
	EncodeLevel:    zapcore.CapitalLevelEncoder,
	EncodeTime:     zapcore.RFC3339TimeEncoder,
	EncodeDuration: zapcore.SecondsDurationEncoder,
}

// New builds a Logger writing to w (typically a log file opened by the
// caller per --logfile/--overwrite) in addition to stderr. A nil w
// logs to stderr only.
func New(w zapcore.WriteSyncer) Logger {
	syncers := []zapcore.WriteSyncer{zapcore.AddSync(os.Stderr)}
	if w != nil {
		syncers = append(syncers, w)
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.NewMultiWriteSyncer(syncers...),
		zap.DebugLevel,
	)
	return &zapLogger{s: zap.New(core).Sugar()}
}

// NewFile opens path for the log file (truncating it when overwrite is
// true, appending otherwise) and returns a Logger writing to it and to
// stderr. A blank path returns a stderr-only logger.
func NewFile(path string, overwrite bool) (Logger, error) {
	if path == "" {
		return New(nil), nil
	}
	flags := os.O_CREATE | os.O_WRONLY
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, err
	}
	return New(zapcore.AddSync(f)), nil
}
