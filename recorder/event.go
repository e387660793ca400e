package recorder

import (
	"time"
	"unicode"
	"unicode/utf8"
)

// EventKind enumerates the host lifecycle occurrences the recorder reacts to.
type EventKind uint8

const (
	EventSuiteBefore EventKind = iota
	EventSuiteAfter
	EventTestBefore
	EventTestSuccess
	EventTestFail
	EventTestError
	EventTestSkipped
	EventTestIncomplete
	EventStepAfter
)

var eventNames = [...]string{
	EventSuiteBefore:    "suite.before",
	EventSuiteAfter:     "suite.after",
	EventTestBefore:     "test.before",
	EventTestSuccess:    "test.success",
	EventTestFail:       "test.fail",
	EventTestError:      "test.error",
	EventTestSkipped:    "test.skipped",
	EventTestIncomplete: "test.incomplete",
	EventStepAfter:      "step.after",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "unknown"
}

// ParseEventKind maps a host event name back to its kind.
func ParseEventKind(name string) (EventKind, bool) {
	for k, n := range eventNames {
		if n == name {
			return EventKind(k), true
		}
	}
	return 0, false
}

// Terminal reports whether the kind ends a test.
func (k EventKind) Terminal() bool {
	switch k {
	case EventTestSuccess, EventTestFail, EventTestError, EventTestSkipped, EventTestIncomplete:
		return true
	}
	return false
}

// Test identifies the test an event belongs to.
type Test struct {
	// Name is the human-readable test string; it names the artifact directory.
	Name string `json:"name,omitempty"`
	// Signature is the stable test signature (e.g. "LoginCest:succeeds").
	Signature string `json:"signature"`
	// Feature is the tested feature (usually the test method).
	Feature string `json:"feature,omitempty"`
}

// Key identifies the test's recording context.
func (t Test) Key() string {
	if t.Signature != "" {
		return t.Signature
	}
	return t.Name
}

func (t Test) displayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Signature
}

// Label is the suite index label, "<signature> - <Feature>".
func (t Test) Label() string {
	return t.Signature + " - " + upperFirst(t.Feature)
}

// Step describes an executed test step.
type Step struct {
	Description string `json:"description"`
	Failed      bool   `json:"failed,omitempty"`
	// Comment marks annotation-only steps; they are never captured.
	Comment bool `json:"comment,omitempty"`
}

// Event is a single lifecycle notification from the host test framework.
type Event struct {
	Kind EventKind
	Test Test
	// Step is set for EventStepAfter.
	Step *Step
	// Duration is the elapsed test time, set on terminal events.
	Duration time.Duration
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func sanitizeTestName(name string) string {
	return nonWord.ReplaceAllString(name, ".")
}
