package cli

// This file contains the list command for displaying recorded runs.

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/perfgo/stepreel/history"
	"github.com/perfgo/stepreel/model"
	"github.com/urfave/cli/v2"
)

// statusColors colors test statuses the same way the index colors its rows.
var statusColors = map[string]*color.Color{
	"successful": color.New(color.FgGreen),
	"incomplete": color.New(color.FgCyan),
	"skipped":    color.New(color.FgYellow),
	"failed":     color.New(color.FgRed),
}

func colorStatus(s model.TestSummary) string {
	label := string(s.Status)
	if s.WasSuccessful {
		label = "successful"
	} else if s.Status == model.StatusError {
		label = "failed"
	}
	if c, ok := statusColors[label]; ok {
		return c.Sprint(label)
	}
	return label
}

func (a *App) list(ctx *cli.Context) error {
	limit := ctx.Int("limit")

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
		fmt.Println("No recorded runs found")
		fmt.Printf("Runs are recorded to %s/record_<seed>/\n", cfg.OutputDir)
		return nil
	}

	displayRuns := entries
	if limit > 0 && limit < len(displayRuns) {
		displayRuns = displayRuns[:limit]
	}

	fmt.Printf("\n=== Recorded Runs (%d total) ===\n\n", len(entries))

	for _, entry := range displayRuns {
		run := entry.Run
		timestamp := run.Timestamp.Format("2006-01-02 15:04:05")

		kept := 0
		for _, test := range run.Tests {
			if !test.WasSuccessful {
				kept++
			}
		}
		marker := color.GreenString("✓")
		if kept > 0 {
			marker = color.RedString("✗")
		}

		fmt.Printf("%s  %s  [%s]  tests=%d  seed=%s\n", marker, timestamp, run.Duration.Round(1e6), len(run.Tests), shortSeed(run.Seed))
		if run.Git != nil && run.Git.Commit != "" {
			fmt.Printf("   Commit: %s", shortSeed(run.Git.Commit))
			if run.Git.Branch != "" {
				fmt.Printf(" (%s)", run.Git.Branch)
			}
			fmt.Println()
		}
		for _, test := range run.Tests {
			fmt.Printf("   %-10s %s\n", colorStatus(test), test.Label)
		}
		fmt.Printf("   %s\n", entry.FullPath)
		fmt.Println()
	}

	fmt.Println("\nView a run: stepreel view <seed>")
	return nil
}

func shortSeed(s string) string {
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
