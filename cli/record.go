package cli

// This file contains the record command that drives the recorder from a
// stream of host test events.

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/perfgo/stepreel/capture"
	"github.com/perfgo/stepreel/feed"
	"github.com/perfgo/stepreel/recorder"
	"github.com/perfgo/stepreel/report"
	"github.com/urfave/cli/v2"
)

func (a *App) record(ctx *cli.Context) error {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}

	renderer, err := report.New(report.Options{
		TemplatePath:  cfg.Template,
		AnimateSlides: cfg.AnimateSlides,
		CaptionColor:  cfg.CaptionColor,
	})
	if err != nil {
		return fmt.Errorf("failed to prepare report templates: %w", err)
	}

	modules, cleanup, err := a.bindModules(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := recorder.Options{
		OutputDir:        cfg.OutputDir,
		DeleteSuccessful: cfg.DeleteSuccessful,
		Module:           cfg.Module,
		MaxSlides:        cfg.MaxSlides,
	}
	if git, err := a.getGitInfo(); err == nil {
		opts.Git = git
	} else {
		a.logger.Debug().Err(err).Msg("No git information")
	}
	suite := recorder.New(a.logger, opts, renderer, modules...)

	in, err := openEvents(ctx.String("events"))
	if err != nil {
		return err
	}
	defer in.Close()

	var failures int
	decoder := feed.NewDecoder(in)
	for {
		e, err := decoder.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var lineErr *feed.LineError
		if errors.As(err, &lineErr) {
			a.logger.Warn().Err(err).Msg("Skipping event")
			continue
		}
		if err != nil {
			return err
		}

		if err := suite.Dispatch(ctx.Context, e); err != nil {
			if errors.Is(err, recorder.ErrNotScreenshotSaver) {
				return err
			}
			failures++
			a.logger.Error().
				Err(err).
				Str("event", e.Kind.String()).
				Str("test", e.Test.Key()).
				Msg("Failed to record event")
		}
	}

	if failures > 0 {
		a.logger.Warn().Int("failures", failures).Msg("Some events could not be recorded")
	}
	return nil
}

// bindModules creates the capture collaborators requested on the command line.
func (a *App) bindModules(ctx *cli.Context) ([]recorder.Module, func(), error) {
	var modules []recorder.Module
	cleanup := func() {}

	if command := ctx.String("capture-command"); command != "" {
		modules = append(modules, capture.NewCommand(a.logger, command))
	}

	if ctx.String("browser-url") != "" || ctx.Bool("launch-browser") {
		browser := capture.NewBrowser(a.logger, ctx.String("browser-url"), ctx.Bool("full-page"))
		if err := browser.Connect(ctx.Context); err != nil {
			return nil, cleanup, err
		}
		cleanup = func() {
			if err := browser.Close(); err != nil {
				a.logger.Debug().Err(err).Msg("Failed to close browser")
			}
		}
		modules = append(modules, browser)
	}

	return modules, cleanup, nil
}

func openEvents(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open events: %w", err)
	}
	return f, nil
}
