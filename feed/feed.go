// Package feed decodes host lifecycle events from a JSON-lines stream:
//
//	{"event":"test.before","test":{"signature":"LoginCest:succeeds","feature":"succeeds"}}
//	{"event":"step.after","test":{...},"step":{"description":"I am on page \"/\""}}
//	{"event":"test.success","test":{...},"duration":1.25}
package feed

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/perfgo/stepreel/recorder"
)

const maxLineSize = 1 << 20

type wireEvent struct {
	Event string         `json:"event"`
	Test  recorder.Test  `json:"test"`
	Step  *recorder.Step `json:"step,omitempty"`
	// Duration in seconds
	Duration float64 `json:"duration,omitempty"`
}

// LineError reports an event line that could not be decoded. The stream
// itself stays readable after a LineError.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Decoder reads events one line at a time.
type Decoder struct {
	scanner *bufio.Scanner
	line    int
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Decoder{scanner: scanner}
}

// Next returns the next event. It returns io.EOF at the end of the stream.
// Blank lines are skipped.
func (d *Decoder) Next() (recorder.Event, error) {
	for d.scanner.Scan() {
		d.line++
		raw := bytes.TrimSpace(d.scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		return d.decode(raw)
	}
	if err := d.scanner.Err(); err != nil {
		return recorder.Event{}, fmt.Errorf("failed to read events: %w", err)
	}
	return recorder.Event{}, io.EOF
}

func (d *Decoder) decode(raw []byte) (recorder.Event, error) {
	var w wireEvent
	if err := json.Unmarshal(raw, &w); err != nil {
		return recorder.Event{}, &LineError{Line: d.line, Err: fmt.Errorf("failed to parse event: %w", err)}
	}

	kind, ok := recorder.ParseEventKind(w.Event)
	if !ok {
		return recorder.Event{}, &LineError{Line: d.line, Err: fmt.Errorf("unknown event %q", w.Event)}
	}
	if kind == recorder.EventStepAfter && w.Step == nil {
		return recorder.Event{}, &LineError{Line: d.line, Err: fmt.Errorf("%s without step", w.Event)}
	}

	return recorder.Event{
		Kind:     kind,
		Test:     w.Test,
		Step:     w.Step,
		Duration: time.Duration(w.Duration * float64(time.Second)),
	}, nil
}
