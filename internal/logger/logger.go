package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type implLogger struct {
	logger zerolog.Logger
	level  string
}

// New creates a Logger writing human-readable lines to stderr.
// Stdout is left to transcripts and command output.
func New(level string) Logger {
	return NewWithWriter(level, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime})
}

// NewWithWriter creates a Logger emitting zerolog JSON lines to w.
func NewWithWriter(level string, w io.Writer) Logger {
	return &implLogger{
		logger: zerolog.New(w).With().Timestamp().Logger(),
		level:  strings.ToLower(level),
	}
}

// NewNop returns a Logger that discards everything.
func NewNop() Logger {
	return &implLogger{logger: zerolog.Nop(), level: "error"}
}

func (l *implLogger) shouldLog(level string) bool {
	levels := map[string]int{
		"debug": 0,
		"info":  1,
		"warn":  2,
		"error": 3,
	}

	currentLevel, ok := levels[l.level]
	if !ok {
		currentLevel = 1 // default to info
	}

	targetLevel, ok := levels[level]
	if !ok {
		return true
	}

	return targetLevel >= currentLevel
}

func (l *implLogger) emit(ctx context.Context, ev *zerolog.Event, msg string, args []interface{}) {
	if id := runID(ctx); id != "" {
		ev = ev.Str("run", id)
	}
	ev.Msgf(msg, args...)
}

func (l *implLogger) Debug(ctx context.Context, msg string, args ...interface{}) {
	if l.shouldLog("debug") {
		l.emit(ctx, l.logger.Debug(), msg, args)
	}
}

func (l *implLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.shouldLog("info") {
		l.emit(ctx, l.logger.Info(), msg, args)
	}
}

func (l *implLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.shouldLog("warn") {
		l.emit(ctx, l.logger.Warn(), msg, args)
	}
}

func (l *implLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.shouldLog("error") {
		l.emit(ctx, l.logger.Error(), msg, args)
	}
}
