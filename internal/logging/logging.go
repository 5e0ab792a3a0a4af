// Package logging wraps zap for kestrel's components.
package logging

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = "warn"

type Logger struct {
	*zap.SugaredLogger
}

// WithUser tags every entry with the acting user.
func (logger Logger) WithUser(userID string) Logger {
	return Logger{
		logger.With("user", userID),
	}
}

// ParseLevel maps a configured level name onto a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	level = strings.TrimSpace(level)
	if level == "" {
		level = DefaultLevel
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return l, errors.Wrapf(err, "invalid log level %q", level)
	}
	return l, nil
}

// NewLogger builds a console logger writing to stderr so stdout stays
// reserved for command output.
func NewLogger(service, level string) (Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return Logger{}, err
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = lvl > zapcore.DebugLevel
	base, err := cfg.Build()
	if err != nil {
		return Logger{}, errors.Wrap(err, "build logger")
	}
	return Logger{
		base.Sugar().Named(service),
	}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() Logger {
	return Logger{
		zap.NewNop().Sugar(),
	}
}
