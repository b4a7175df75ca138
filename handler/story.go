package handler

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
)

// maxSummaryLen bounds the msg of a story line. The full list of stages is
// always logged under "stages".
const maxSummaryLen = 100

// Logger tells the story of one invocation (or one SQS message). Stages and
// params are collected while the handler runs and written as a single line
// by Log. Before the story is started, lines are logged straight away.
type Logger struct {
	slogger  *slog.Logger
	stages   []string
	params   map[string]any
	muted    bool
	failed   bool
	storying bool
}

func newStoryLogger(logger *slog.Logger) *Logger {
	return &Logger{
		slogger: logger,
		stages:  []string{},
		params:  map[string]any{},
	}
}

// startStory switches the logger from logging each line to collecting them.
func (s *Logger) startStory() {
	s.storying = true
}

func (s *Logger) disableOutput() {
	s.muted = true
}

// AddStage records something that happened, e.g. "Item created" or
// "Change ignored".
func (s *Logger) AddStage(description string) *Logger {
	s.stages = append(s.stages, description)
	return s
}

// AddParam adds a key which is logged with every line of the story.
func (s *Logger) AddParam(key string, value any) *Logger {
	s.params[key] = value
	return s
}

// With adds key-value pairs as params.
func (s *Logger) With(keyValues ...any) *Logger {
	for key, value := range pairs(keyValues) {
		s.AddParam(key, value)
	}
	return s
}

func (s *Logger) Info(msg string, args ...any) {
	s.line(slog.LevelInfo, msg, args)
}

func (s *Logger) Infof(format string, args ...any) {
	s.Info(fmt.Sprintf(format, args...))
}

func (s *Logger) Warn(msg string, args ...any) {
	s.line(slog.LevelWarn, msg, args)
}

// Error logs msg and raises the story line to error level.
func (s *Logger) Error(msg string, args ...any) {
	s.line(slog.LevelError, msg, args)
}

func (s *Logger) Errorf(format string, args ...any) {
	s.Error(fmt.Sprintf(format, args...))
}

func (s *Logger) line(level slog.Level, msg string, args []any) {
	if !s.storying {
		s.withParams().Log(context.Background(), level, msg, args...)
		return
	}
	if level >= slog.LevelError {
		s.failed = true
	}
	s.AddStage(stageWithArgs(msg, args))
}

// Log writes the story line. Nothing is written for an empty story or a muted
// logger.
func (s *Logger) Log() {
	if s.muted || !s.storying {
		return
	}
	if len(s.stages) == 0 && len(s.params) == 0 {
		return
	}

	logger := s.withParams()
	if len(s.stages) > 0 {
		logger = logger.With("stages", s.stages)
	}
	summary := strings.Join(s.stages, "; ")
	if len(summary) > maxSummaryLen {
		summary = summary[:maxSummaryLen] + "..."
	}

	if s.failed {
		logger.Error(summary)
	} else {
		logger.Info(summary)
	}
}

func (s *Logger) withParams() *slog.Logger {
	logger := s.slogger
	for _, key := range slices.Sorted(maps.Keys(s.params)) {
		logger = logger.With(key, s.params[key])
	}
	return logger
}

// stageWithArgs renders a line as a stage: "msg; a='1'; b='x'" with the args
// in key order.
func stageWithArgs(msg string, args []any) string {
	kv := map[string]any{}
	for key, value := range pairs(args) {
		kv[key] = value
	}
	if len(kv) == 0 {
		return msg
	}

	parts := make([]string, 0, len(kv))
	for _, key := range slices.Sorted(maps.Keys(kv)) {
		parts = append(parts, fmt.Sprintf("%s='%v'", key, kv[key]))
	}
	return msg + "; " + strings.Join(parts, "; ")
}

// pairs iterates over alternating keys and values. A trailing key without a
// value is reported under "!BADKEY" like slog does.
func pairs(keyValues []any) func(yield func(string, any) bool) {
	return func(yield func(string, any) bool) {
		for i := 0; i < len(keyValues); i += 2 {
			if i+1 == len(keyValues) {
				yield("!BADKEY", keyValues[i])
				return
			}
			if !yield(fmt.Sprint(keyValues[i]), keyValues[i+1]) {
				return
			}
		}
	}
}
