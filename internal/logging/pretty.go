package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"sync"
)

// eventDecoder turns a JSONL event stream back into events.
type eventDecoder struct {
	mu      sync.Mutex
	events  EventWriter
	raw     io.Writer
	partial []byte
}

// NewEventDecoder returns a writer that decodes each complete JSONL line
// written to it as an Event and forwards it to events. Lines that are not
// events are copied to raw unchanged.
func NewEventDecoder(events EventWriter, raw io.Writer) io.Writer {
	if raw == nil {
		raw = io.Discard
	}
	return &eventDecoder{events: events, raw: raw}
}

func (d *eventDecoder) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.partial = append(d.partial, p...)
	for {
		i := bytes.IndexByte(d.partial, '\n')
		if i < 0 {
			break
		}
		line := d.partial[:i+1]
		if err := d.emit(line); err != nil {
			return len(p), err
		}
		d.partial = d.partial[i+1:]
	}
	return len(p), nil
}

func (d *eventDecoder) emit(line []byte) error {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return nil
	}
	var event Event
	if err := json.Unmarshal(trimmed, &event); err != nil || event.Type == "" {
		_, werr := d.raw.Write(line)
		return werr
	}
	return d.events.Write(event)
}
