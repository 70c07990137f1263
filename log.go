package fencepack

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

type Severity uint8

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

func (s Severity) level() slog.Level {
	switch s {
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogEvent records the outcome of one step of a conversion.
//
// Entry names the archive entry or logical path concerned, if any. Err holds
// the sentinel that classifies the event (ErrDecode, ErrPathTraversal, ...).
type LogEvent struct {
	Severity Severity
	Entry    string
	Message  string
	Err      error
}

func (e LogEvent) String() string {
	return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
}

// Log is the ordered, append-only record of one conversion call.
// It is not safe for concurrent use; each call owns its own Log.
type Log struct {
	events []LogEvent
	logger *slog.Logger
}

// NewLog returns an empty Log that mirrors every event to logger.
// A nil logger disables mirroring.
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) append(ev LogEvent) {
	l.events = append(l.events, ev)
	if l.logger == nil {
		return
	}
	attrs := []any{}
	if ev.Entry != "" {
		attrs = append(attrs, "entry", ev.Entry)
	}
	if ev.Err != nil {
		attrs = append(attrs, "error", ev.Err)
	}
	l.logger.Log(context.Background(), ev.Severity.level(), ev.Message, attrs...)
}

func (l *Log) Info(entry, msg string) {
	l.append(LogEvent{Severity: SeverityInfo, Entry: entry, Message: msg})
}

func (l *Log) Warn(entry string, err error, msg string) {
	l.append(LogEvent{Severity: SeverityWarning, Entry: entry, Message: msg, Err: err})
}

func (l *Log) Error(entry string, err error, msg string) {
	l.append(LogEvent{Severity: SeverityError, Entry: entry, Message: msg, Err: err})
}

// Events returns a copy of the recorded events in order.
func (l *Log) Events() []LogEvent {
	if l == nil {
		return nil
	}
	out := make([]LogEvent, len(l.events))
	copy(out, l.events)
	return out
}

func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	return len(l.events)
}

// Count returns the number of events with severity s.
func (l *Log) Count(s Severity) int {
	if l == nil {
		return 0
	}
	n := 0
	for _, ev := range l.events {
		if ev.Severity == s {
			n++
		}
	}
	return n
}

// Lines serializes the log, one event per line.
func (l *Log) Lines() []string {
	if l == nil {
		return nil
	}
	out := make([]string, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.String()
	}
	return out
}

func (l *Log) String() string {
	return strings.Join(l.Lines(), "\n")
}
