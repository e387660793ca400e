package model

import "time"

// Status is the terminal outcome recorded for a test
type Status string

const (
	StatusSuccessful Status = "successful"
	StatusFailed     Status = "failed"
	StatusError      Status = "error"
	StatusSkipped    Status = "skipped"
	StatusIncomplete Status = "incomplete"
)

// Run represents a single recorded suite execution.
// It is written as run.json into the run root at suite end.
type Run struct {
	// Unique seed for this run, also part of the run root name (record_<seed>)
	Seed string `json:"seed"`
	// Timestamp when the suite started
	Timestamp time.Time `json:"timestamp"`
	// Duration of the suite execution
	Duration time.Duration `json:"duration"`
	// Capture module that was bound for this run
	Module string `json:"module,omitempty"`
	// Git information
	Git *Git `json:"git,omitempty"`
	// Retained tests in index order
	Tests []TestSummary `json:"tests,omitempty"`
}

// Git contains git repository information
type Git struct {
	// Git commit hash at time of execution
	Commit string `json:"commit,omitempty"`
	// Git branch at time of execution
	Branch string `json:"branch,omitempty"`
}

// TestSummary is the suite-level entry of a retained test
type TestSummary struct {
	// Display label, "<signature> - <Feature>"
	Label string `json:"label"`
	// Path of the per-test report, relative to the output root
	URL string `json:"url"`
	// Whether the host reported the test as passed
	WasSuccessful bool `json:"was_successful"`
	// Terminal status
	Status Status `json:"status"`
	// Elapsed test time in seconds
	Time float64 `json:"time"`
	// Number of captured slides
	Slides int `json:"slides"`
	// Set when screenshot capture broke during the test
	RecordingError string `json:"recording_error,omitempty"`
}

// Slide is one captured screenshot and the step that produced it
type Slide struct {
	// Zero-based ordinal within the test
	Ordinal int `json:"ordinal"`
	// Artifact file name relative to the test directory (e.g. "000.png")
	File string `json:"file"`
	// Human-readable step description
	Caption string `json:"caption"`
	// Whether the step failed
	Failed bool `json:"failed"`
}

// TestReport is everything needed to render the per-test slideshow
type TestReport struct {
	Feature   string  `json:"feature"`
	Signature string  `json:"signature"`
	Slides    []Slide `json:"slides"`
}

// IndexRow is one rendered row of the suite index
type IndexRow struct {
	Status        string
	URL           string
	TrClass       string
	LinkText      string
	ExecutionTime string
	Note          string
}
