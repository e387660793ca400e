package cli

// This file contains the view command for displaying a recorded run.

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/perfgo/stepreel/history"
	"github.com/perfgo/stepreel/recorder"
	"github.com/urfave/cli/v2"
)

func (a *App) view(ctx *cli.Context) error {
	arg := ctx.Args().First()
	if arg == "" {
		arg = "0"
	}

	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}
	if err := history.CheckOutputRoot(cfg.OutputDir); err != nil {
		return err
	}

	entries, err := history.LoadEntries(a.logger, cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("no recorded runs found")
	}

	entry, err := history.Find(entries, arg)
	if err != nil {
		return err
	}

	run := entry.Run
	fmt.Printf("=== Run: %s ===\n", run.Seed)
	fmt.Printf("Time: %s\n", run.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Printf("Duration: %s\n", run.Duration)
	if run.Module != "" {
		fmt.Printf("Module: %s\n", run.Module)
	}
	if run.Git != nil && run.Git.Commit != "" {
		fmt.Printf("Git Commit: %s", shortSeed(run.Git.Commit))
		if run.Git.Branch != "" {
			fmt.Printf(" (%s)", run.Git.Branch)
		}
		fmt.Println()
	}
	fmt.Println()

	for _, test := range run.Tests {
		status, _ := recorder.StatusView(test.WasSuccessful, test.Status)
		fmt.Printf("%-10s %ss  %s\n", status, recorder.FormatExecutionTime(test.Time), test.Label)
		fmt.Printf("           %s (%d slides)\n", filepath.Join(cfg.OutputDir, filepath.FromSlash(test.URL)), test.Slides)
		if test.RecordingError != "" {
			fmt.Printf("           recording error: %s\n", test.RecordingError)
		}
	}

	index := filepath.Join(entry.FullPath, "records.html")
	if _, err := os.Stat(index); err != nil {
		return fmt.Errorf("run %s has no index: %w", run.Seed, err)
	}
	fmt.Printf("\nIndex: file://%s\n", index)
	return nil
}
