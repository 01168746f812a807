package recipebook

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// PersistenceLogger records the outcome of every save the recipe store attempts.
type PersistenceLogger interface {
	LogSave(entry SaveLog) error
}

// SaveLog represents a single save attempt against the persistence bridge
type SaveLog struct {
	Key       string        `json:"key"`
	Timestamp time.Time     `json:"timestamp"`
	Bytes     int           `json:"bytes"`
	Records   int           `json:"records"`
	Duration  time.Duration `json:"duration_ns"`
	Error     string        `json:"error,omitempty"`
}

// Failed reports whether the save attempt returned an error.
func (s SaveLog) Failed() bool { return s.Error != "" }

// FilePersistenceLogger logs to a writer, accumulating entries and flushing at the end
type FilePersistenceLogger struct {
	mu      sync.Mutex
	entries []SaveLog
	writer  io.Writer
}

// NewFilePersistenceLogger creates a new writer-backed persistence logger
func NewFilePersistenceLogger(writer io.Writer) *FilePersistenceLogger {
	return &FilePersistenceLogger{
		entries: make([]SaveLog, 0),
		writer:  writer,
	}
}

// LogSave appends the entry to the buffer (does not flush immediately)
func (fl *FilePersistenceLogger) LogSave(entry SaveLog) error {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	fl.entries = append(fl.entries, entry)
	return nil
}

// Entries returns the buffered entries that have not been flushed yet.
func (fl *FilePersistenceLogger) Entries() []SaveLog {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	out := make([]SaveLog, len(fl.entries))
	copy(out, fl.entries)
	return out
}

// Flush writes all accumulated entries to the writer
func (fl *FilePersistenceLogger) Flush() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"persistence_session": map[string]any{
			"timestamp": time.Now(),
			"saves":     fl.entries,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal persistence log: %w", err)
	}

	if _, err := fl.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write persistence log: %w", err)
	}

	fl.entries = fl.entries[:0]
	return nil
}

// NoOpPersistenceLogger is a logger that discards all log entries
type NoOpPersistenceLogger struct{}

// NewNoOpPersistenceLogger creates a new no-op persistence logger
func NewNoOpPersistenceLogger() *NoOpPersistenceLogger {
	return &NoOpPersistenceLogger{}
}

// LogSave discards the entry
func (nop *NoOpPersistenceLogger) LogSave(entry SaveLog) error {
	return nil
}

// StdoutPersistenceLogger logs each save attempt as a JSON line
type StdoutPersistenceLogger struct {
	out io.Writer
}

// NewStdoutPersistenceLogger creates a persistence logger writing to out, or to os.Stdout when out is nil
func NewStdoutPersistenceLogger(out io.Writer) *StdoutPersistenceLogger {
	if out == nil {
		out = os.Stdout
	}
	return &StdoutPersistenceLogger{out: out}
}

// LogSave writes the entry as a JSON line
func (l *StdoutPersistenceLogger) LogSave(entry SaveLog) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(l.out, string(data))
	return err
}
