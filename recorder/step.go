package recorder

import (
	"context"
	"fmt"

	"github.com/perfgo/stepreel/model"
	"github.com/rs/zerolog"
)

// DefaultMaxSlides is the number of distinct three-digit artifact names.
const DefaultMaxSlides = 1000

// StepRecorder captures one screenshot per recordable step and appends it to
// the test's slide sequence.
type StepRecorder struct {
	saver     ScreenshotSaver
	store     *Store
	maxSlides int
	logger    zerolog.Logger
}

// NewStepRecorder returns a recorder writing artifacts through saver.
func NewStepRecorder(logger zerolog.Logger, saver ScreenshotSaver, store *Store, maxSlides int) *StepRecorder {
	if maxSlides <= 0 || maxSlides > DefaultMaxSlides {
		maxSlides = DefaultMaxSlides
	}
	return &StepRecorder{
		saver:     saver,
		store:     store,
		maxSlides: maxSlides,
		logger:    logger,
	}
}

// Record captures step into tc. Comment steps are skipped. Once a capture
// has failed the test's recording is broken and later steps are ignored.
func (r *StepRecorder) Record(ctx context.Context, tc *testContext, step Step) error {
	if step.Comment || tc.captureErr != nil {
		return nil
	}

	ordinal := len(tc.slides)
	if ordinal >= r.maxSlides {
		if !tc.overflow {
			tc.overflow = true
			r.logger.Warn().
				Str("test", tc.name).
				Int("limit", r.maxSlides).
				Msg("Slide limit reached, further steps are not captured")
		}
		return nil
	}

	file, path := r.store.SlidePath(tc.dir, ordinal)
	if err := r.saver.SaveScreenshot(ctx, path); err != nil {
		tc.captureErr = fmt.Errorf("%w: %s: %w", ErrCaptureFailed, file, err)
		return tc.captureErr
	}

	tc.slides = append(tc.slides, model.Slide{
		Ordinal: ordinal,
		File:    file,
		Caption: step.Description,
		Failed:  step.Failed,
	})

	r.logger.Debug().
		Str("test", tc.name).
		Str("file", file).
		Bool("failed", step.Failed).
		Msg("Captured step")
	return nil
}
