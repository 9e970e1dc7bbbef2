package media

import (
	"fmt"
	"time"
)

// Level grades an operation log entry.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Entry is one ordered record of a pipeline step.
type Entry struct {
	Seq     int       `json:"seq"`
	Level   Level     `json:"level"`
	Stage   string    `json:"stage"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// OperationLog is the ordered, leveled record of one pipeline run. It is a
// per-request value threaded through the pipeline and returned to the
// caller on both success and failure, never a process-wide accumulator.
// Not safe for concurrent use; each submission owns its log.
type OperationLog struct {
	entries []Entry
}

// NewOperationLog creates an empty log.
func NewOperationLog() *OperationLog {
	return &OperationLog{}
}

func (l *OperationLog) add(level Level, stage, format string, args ...any) {
	l.entries = append(l.entries, Entry{
		Seq:     len(l.entries) + 1,
		Level:   level,
		Stage:   stage,
		Message: fmt.Sprintf(format, args...),
		At:      time.Now(),
	})
}

// Infof records an informational entry for a stage.
func (l *OperationLog) Infof(stage, format string, args ...any) {
	l.add(LevelInfo, stage, format, args...)
}

// Warnf records a warning entry for a stage.
func (l *OperationLog) Warnf(stage, format string, args ...any) {
	l.add(LevelWarn, stage, format, args...)
}

// Errorf records an error entry for a stage.
func (l *OperationLog) Errorf(stage, format string, args ...any) {
	l.add(LevelError, stage, format, args...)
}

// Entries returns the ordered entries recorded so far.
func (l *OperationLog) Entries() []Entry {
	return l.entries
}
