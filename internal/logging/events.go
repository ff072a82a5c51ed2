package logging

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Event types written to run logs.
const (
	EventStage   = "stage"
	EventResult  = "result"
	EventError   = "error"
	EventWarning = "warning"
	EventHook    = "hook"
)

// Event is one line of a JSONL run log.
type Event struct {
	// Type is one of the Event* constants.
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// Input and Output name the files of the translation the event belongs to.
	Input  string `json:"input,omitempty"`
	Output string `json:"output,omitempty"`

	// Stage is the pipeline stage entered (stage events).
	Stage  string `json:"stage,omitempty"`
	SpecID string `json:"spec_id,omitempty"`

	Message string `json:"message,omitempty"`

	// Code and Errors describe failures.
	Code   string   `json:"code,omitempty"`
	Errors []string `json:"errors,omitempty"`

	// Command and ExitCode describe hook invocations.
	Command  []string `json:"command,omitempty"`
	ExitCode int      `json:"exit_code,omitempty"`

	DurationMS int64 `json:"duration_ms,omitempty"`
}

// EventWriter writes run log events.
type EventWriter interface {
	Write(event Event) error
}

// JSONLWriter writes events as JSON lines to an io.Writer.
type JSONLWriter struct {
	w io.Writer
}

// NewJSONLWriter creates an event writer that writes to w.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{w: w}
}

// Write encodes event as one JSON line.
func (j *JSONLWriter) Write(event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal log event: %w", err)
	}
	data = append(data, '\n')
	_, err = j.w.Write(data)
	return err
}

// ConsoleWriter renders events through a charmbracelet logger.
type ConsoleWriter struct {
	logger *log.Logger
}

// NewConsoleWriter wraps logger as an event writer.
func NewConsoleWriter(logger *log.Logger) *ConsoleWriter {
	return &ConsoleWriter{logger: logger}
}

// Write logs event at a level derived from its type.
func (c *ConsoleWriter) Write(event Event) error {
	msg := formatMessage(event)
	fields := eventFields(event)

	switch event.Type {
	case EventError:
		c.logger.Error(msg, fields...)
	case EventWarning:
		c.logger.Warn(msg, fields...)
	case EventResult, EventHook:
		c.logger.Info(msg, fields...)
	default:
		c.logger.Debug(msg, fields...)
	}
	return nil
}

func eventFields(event Event) []any {
	var fields []any
	if event.Input != "" {
		fields = append(fields, "input", event.Input)
	}
	if event.Output != "" {
		fields = append(fields, "output", event.Output)
	}
	if event.SpecID != "" {
		fields = append(fields, "spec_id", event.SpecID)
	}
	if event.Code != "" {
		fields = append(fields, "code", event.Code)
	}
	if len(event.Command) > 0 {
		fields = append(fields, "command", strings.Join(event.Command, " "))
	}
	if event.ExitCode != 0 {
		fields = append(fields, "exit_code", event.ExitCode)
	}
	if event.DurationMS > 0 {
		fields = append(fields, "duration_ms", event.DurationMS)
	}
	return fields
}

func formatMessage(event Event) string {
	if event.Message != "" {
		return event.Message
	}
	switch event.Type {
	case EventStage:
		if event.Stage != "" {
			return "Stage " + event.Stage
		}
		return "Stage"
	case EventResult:
		return "Done"
	case EventError:
		return "Error"
	case EventHook:
		return "Hook"
	default:
		return event.Type
	}
}

// MultiWriter writes to multiple event writers.
type MultiWriter struct {
	writers []EventWriter
}

// NewMultiWriter creates a writer that fans out to writers. Nil writers
// are skipped.
func NewMultiWriter(writers ...EventWriter) *MultiWriter {
	m := &MultiWriter{}
	for _, w := range writers {
		if w != nil {
			m.writers = append(m.writers, w)
		}
	}
	return m
}

// Write writes the event to every writer and joins their errors.
func (m *MultiWriter) Write(event Event) error {
	var errs []error
	for _, w := range m.writers {
		if err := w.Write(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NullWriter discards events.
type NullWriter struct{}

// Write does nothing.
func (NullWriter) Write(Event) error {
	return nil
}

type lockedWriter struct {
	mu     sync.Mutex
	writer EventWriter
}

func (l *lockedWriter) Write(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writer.Write(event)
}

// Synchronized returns a writer safe for concurrent use. A nil writer
// becomes a NullWriter.
func Synchronized(writer EventWriter) EventWriter {
	if writer == nil {
		return NullWriter{}
	}
	if _, ok := writer.(*lockedWriter); ok {
		return writer
	}
	return &lockedWriter{writer: writer}
}
