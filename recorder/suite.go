package recorder

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/perfgo/stepreel/model"
	"github.com/rs/zerolog"
)

var (
	// ErrNotScreenshotSaver is returned at suite start when the configured
	// module cannot capture screenshots.
	ErrNotScreenshotSaver = errors.New("module does not implement ScreenshotSaver")
	// ErrCaptureFailed wraps errors of the capture collaborator.
	ErrCaptureFailed = errors.New("screenshot capture failed")
)

// Module is a host collaborator the recorder can bind to by name.
type Module interface {
	Name() string
}

// ScreenshotSaver is implemented by modules able to capture the current screen into a file.
type ScreenshotSaver interface {
	SaveScreenshot(ctx context.Context, path string) error
}

// Renderer produces the HTML documents of a run.
type Renderer interface {
	// RenderTest writes the per-test slideshow to path.
	RenderTest(path string, report model.TestReport) error
	// RenderIndex writes the same suite index to every path.
	RenderIndex(seed string, rows []model.IndexRow, paths ...string) error
}

// Options configures a Suite.
type Options struct {
	// OutputDir is the shared output root.
	OutputDir string
	// DeleteSuccessful removes the recordings of passing tests.
	DeleteSuccessful bool
	// Module names the capture collaborator to bind.
	Module string
	// MaxSlides bounds captured steps per test; 0 means DefaultMaxSlides.
	MaxSlides int
	// Git is stored in the run manifest when set.
	Git *model.Git
}

// Suite wires the recorder components for one suite execution at a time.
type Suite struct {
	opts     Options
	logger   zerolog.Logger
	modules  map[string]Module
	renderer Renderer

	seed    string
	started time.Time
	store   *Store
	agg     *Aggregator
	tracker *Tracker
}

// New returns a suite controller. modules are the collaborators available for binding.
func New(logger zerolog.Logger, opts Options, renderer Renderer, modules ...Module) *Suite {
	s := &Suite{
		opts:     opts,
		logger:   logger,
		modules:  make(map[string]Module, len(modules)),
		renderer: renderer,
	}
	for _, m := range modules {
		s.modules[m.Name()] = m
	}
	return s
}

// Seed returns the identifier of the current run, empty while disabled.
func (s *Suite) Seed() string {
	return s.seed
}

// Enabled reports whether a capture module is bound.
func (s *Suite) Enabled() bool {
	return s.tracker != nil
}

// RunDir returns the run root, empty while disabled.
func (s *Suite) RunDir() string {
	if s.store == nil {
		return ""
	}
	return s.store.RunDir()
}

// Dispatch routes a host event to its handler.
func (s *Suite) Dispatch(ctx context.Context, e Event) error {
	switch e.Kind {
	case EventSuiteBefore:
		return s.Start()
	case EventSuiteAfter:
		_, err := s.End()
		return err
	}

	if s.tracker == nil {
		return nil
	}

	switch e.Kind {
	case EventTestBefore:
		return s.tracker.Before(e.Test)
	case EventStepAfter:
		if e.Step == nil {
			return nil
		}
		return s.tracker.Step(ctx, e.Test, *e.Step)
	case EventTestSuccess, EventTestFail, EventTestError, EventTestSkipped, EventTestIncomplete:
		return s.tracker.Finish(e.Kind, e.Test, e.Duration)
	}
	return nil
}

// Start binds the configured module and begins a new run.
// A missing module disables recording; a module that cannot capture is an error.
func (s *Suite) Start() error {
	s.seed, s.store, s.agg, s.tracker = "", nil, nil, nil

	m, ok := s.modules[s.opts.Module]
	if !ok {
		s.logger.Info().Str("module", s.opts.Module).Msg("Recorder is disabled, no available modules")
		return nil
	}
	saver, ok := m.(ScreenshotSaver)
	if !ok {
		return fmt.Errorf("%w: module %q must be able to save screenshots", ErrNotScreenshotSaver, s.opts.Module)
	}

	s.seed = NewSeed()
	s.started = time.Now()
	s.store = NewStore(s.opts.OutputDir, s.seed)
	s.agg = NewAggregator()
	steps := NewStepRecorder(s.logger, saver, s.store, s.opts.MaxSlides)
	s.tracker = newTracker(s.logger, s.store, steps, s.renderer, s.agg, s.opts.DeleteSuccessful)

	s.logger.Info().
		Str("dir", s.opts.OutputDir).
		Str("module", s.opts.Module).
		Msg("Recording step-by-step screenshots")
	s.logger.Info().Msgf("Directory format: record_%s/{testname}", s.seed)
	return nil
}

// End renders the suite index and returns its path in the output root.
// It does nothing when recording is disabled or no test was recorded.
func (s *Suite) End() (string, error) {
	if s.tracker == nil || !s.tracker.Opened() {
		return "", nil
	}

	shared := filepath.Join(s.store.OutputDir(), "records.html")
	local := filepath.Join(s.store.RunDir(), "records.html")
	if err := s.renderer.RenderIndex(s.seed, s.agg.Rows(), shared, local); err != nil {
		return "", fmt.Errorf("failed to render records: %w", err)
	}

	run := &model.Run{
		Seed:      s.seed,
		Timestamp: s.started,
		Duration:  time.Since(s.started),
		Module:    s.opts.Module,
		Git:       s.opts.Git,
		Tests:     s.agg.Summaries(),
	}
	if err := writeManifest(s.store.RunDir(), run); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write run manifest")
	}

	s.logger.Info().Msgf("Records saved into: file://%s", shared)
	return shared, nil
}
