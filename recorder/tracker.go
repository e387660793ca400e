package recorder

// This file contains the per-test lifecycle state machine.
//
// A test is Idle until test.before opens its context (Recording). Steps are
// captured while Recording. Any terminal event takes the context out of the
// table (Finalizing), applies the retention policy and leaves the test Idle.
// Events for tests without an open context are ignored.

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/perfgo/stepreel/model"
	"github.com/rs/zerolog"
)

type testContext struct {
	test       Test
	name       string
	dir        string
	slides     []model.Slide
	captureErr error
	overflow   bool
}

// Tracker owns the recording context of every active test.
type Tracker struct {
	mu     sync.Mutex
	active map[string]*testContext
	opened bool

	store            *Store
	steps            *StepRecorder
	renderer         Renderer
	agg              *Aggregator
	deleteSuccessful bool
	logger           zerolog.Logger
}

func newTracker(logger zerolog.Logger, store *Store, steps *StepRecorder, renderer Renderer, agg *Aggregator, deleteSuccessful bool) *Tracker {
	return &Tracker{
		active:           make(map[string]*testContext),
		store:            store,
		steps:            steps,
		renderer:         renderer,
		agg:              agg,
		deleteSuccessful: deleteSuccessful,
		logger:           logger,
	}
}

// Opened reports whether any test directory was created.
func (t *Tracker) Opened() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.opened
}

// Before opens a fresh recording context for test, replacing any stale one.
func (t *Tracker) Before(test Test) error {
	name := sanitizeTestName(test.displayName())
	dir, err := t.store.OpenTest(name)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.active[test.Key()] = &testContext{
		test: test,
		name: name,
		dir:  dir,
	}
	t.opened = true
	t.mu.Unlock()

	t.logger.Debug().Str("test", name).Str("dir", dir).Msg("Recording test")
	return nil
}

// Step records step for test.
func (t *Tracker) Step(ctx context.Context, test Test, step Step) error {
	tc := t.lookup(test.Key())
	if tc == nil {
		return nil
	}
	return t.steps.Record(ctx, tc, step)
}

// Finish applies the retention policy for a terminal event.
func (t *Tracker) Finish(kind EventKind, test Test, elapsed time.Duration) error {
	tc := t.take(test.Key())
	if tc == nil {
		return nil
	}

	if kind == EventTestSuccess && t.deleteSuccessful && tc.captureErr == nil {
		if err := t.store.RemoveTest(tc.name); err != nil {
			return err
		}
		t.logger.Debug().Str("test", tc.name).Msg("Deleted recording of successful test")
		return nil
	}

	return t.persist(tc, kind, elapsed)
}

func (t *Tracker) persist(tc *testContext, kind EventKind, elapsed time.Duration) error {
	indexFile := filepath.Join(tc.dir, "index.html")

	summary := model.TestSummary{
		Label:         tc.test.Label(),
		URL:           t.store.Rel(indexFile),
		WasSuccessful: kind == EventTestSuccess,
		Status:        statusFor(kind),
		Time:          elapsed.Seconds(),
		Slides:        len(tc.slides),
	}
	if tc.captureErr != nil {
		summary.RecordingError = tc.captureErr.Error()
	}

	err := t.renderer.RenderTest(indexFile, model.TestReport{
		Feature:   upperFirst(tc.test.Feature),
		Signature: tc.test.Signature,
		Slides:    tc.slides,
	})
	if err != nil {
		return err
	}
	// only tests with a report are linked from the index
	t.agg.Register(summary)

	t.logger.Debug().
		Str("test", tc.name).
		Str("status", string(summary.Status)).
		Int("slides", summary.Slides).
		Msg("Persisted test recording")
	return nil
}

func (t *Tracker) lookup(key string) *testContext {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active[key]
}

func (t *Tracker) take(key string) *testContext {
	t.mu.Lock()
	defer t.mu.Unlock()
	tc := t.active[key]
	delete(t.active, key)
	return tc
}

func statusFor(kind EventKind) model.Status {
	switch kind {
	case EventTestSuccess:
		return model.StatusSuccessful
	case EventTestError:
		return model.StatusError
	case EventTestSkipped:
		return model.StatusSkipped
	case EventTestIncomplete:
		return model.StatusIncomplete
	default:
		return model.StatusFailed
	}
}
