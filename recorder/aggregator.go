package recorder

import (
	"fmt"
	"sync"

	"github.com/perfgo/stepreel/model"
)

// Aggregator collects the summaries of retained tests in first-registration order.
// Registering an existing label overwrites its summary in place.
type Aggregator struct {
	mu    sync.Mutex
	order []string
	tests map[string]model.TestSummary
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{tests: make(map[string]model.TestSummary)}
}

// Register adds or replaces the summary stored under s.Label.
func (a *Aggregator) Register(s model.TestSummary) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.tests[s.Label]; !ok {
		a.order = append(a.order, s.Label)
	}
	a.tests[s.Label] = s
}

// Len returns the number of distinct labels.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.order)
}

// Summaries returns the registered summaries in index order.
func (a *Aggregator) Summaries() []model.TestSummary {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.TestSummary, 0, len(a.order))
	for _, label := range a.order {
		out = append(out, a.tests[label])
	}
	return out
}

// Rows returns the suite index rows in index order.
func (a *Aggregator) Rows() []model.IndexRow {
	summaries := a.Summaries()
	rows := make([]model.IndexRow, 0, len(summaries))
	for _, s := range summaries {
		status, class := StatusView(s.WasSuccessful, s.Status)
		rows = append(rows, model.IndexRow{
			Status:        status,
			URL:           s.URL,
			TrClass:       class,
			LinkText:      s.Label,
			ExecutionTime: FormatExecutionTime(s.Time),
			Note:          s.RecordingError,
		})
	}
	return rows
}

// StatusView derives the index status label and row class.
func StatusView(wasSuccessful bool, status model.Status) (label, class string) {
	if wasSuccessful {
		return "successful", "success"
	}
	switch status {
	case model.StatusIncomplete:
		return "incomplete", "info"
	case model.StatusSkipped:
		return "skipped", "warning"
	default:
		return "failed", "danger"
	}
}

// FormatExecutionTime renders seconds as "<s>.<cc>" where whole minutes are
// dropped (seconds mod 60), rounded to hundredths. Values rounding up to a
// full minute wrap to "0.00".
func FormatExecutionTime(seconds float64) string {
	ms := int64(seconds * 1000)
	if ms <= 0 {
		return "0.00"
	}
	centis := (ms%60000 + 5) / 10 % 6000
	return fmt.Sprintf("%d.%02d", centis/100, centis%100)
}
