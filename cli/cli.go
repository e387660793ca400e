package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/perfgo/stepreel/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const AppName = "stepreel"

const defaultConfigFile = "stepreel.yaml"

type App struct {
	logger zerolog.Logger
	cli    *cli.App
}

func New() *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger :=
		log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
		})

	app := &App{
		logger: logger,
		cli: &cli.App{
			Name:  AppName,
			Usage: "Record step-by-step screenshots of UI test runs as HTML slideshows",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "verbose",
					Usage: "Enable verbose (debug) logging",
				},
			},
			Before: func(ctx *cli.Context) error {
				if ctx.Bool("verbose") {
					zerolog.SetGlobalLevel(zerolog.DebugLevel)
				}
				return nil
			},
		},
	}
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "record",
		Usage:  "Record a suite from a stream of host test events",
		Action: app.record,
		Description: `Reads JSON-lines test events from --events (default: stdin) and records
a screenshot after every executed step.

Events:
  suite.before, suite.after, test.before, test.success, test.fail,
  test.error, test.skipped, test.incomplete, step.after

Example line:
  {"event":"step.after","test":{"signature":"LoginCest:works"},"step":{"description":"I click Login"}}`,
		Flags: append(outputFlags(),
			&cli.StringFlag{
				Name:    "events",
				Aliases: []string{"e"},
				Usage:   "File to read events from (- for stdin)",
				Value:   "-",
			},
			&cli.BoolFlag{
				Name:  "delete-successful",
				Usage: "Delete the recordings of successful tests",
			},
			&cli.StringFlag{
				Name:  "module",
				Usage: "Capture module to bind (WebDriver or Command)",
			},
			&cli.StringFlag{
				Name:  "template",
				Usage: "Override the per-test report layout",
			},
			&cli.BoolFlag{
				Name:  "animate-slides",
				Usage: "Animate slide transitions in per-test reports",
			},
			&cli.StringFlag{
				Name:  "browser-url",
				Usage: "DevTools WebSocket URL of a running Chrome for the WebDriver module",
			},
			&cli.BoolFlag{
				Name:  "launch-browser",
				Usage: "Launch a local headless Chrome for the WebDriver module",
			},
			&cli.BoolFlag{
				Name:  "full-page",
				Usage: "Capture the full scrollable page instead of the viewport",
			},
			&cli.StringFlag{
				Name:  "capture-command",
				Usage: "Shell command for the Command module, {path} is replaced by the target file",
			},
		),
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "list",
		Usage:  "List recorded runs",
		Action: app.list,
		Flags: append(outputFlags(),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Limit number of results (default: 20)",
				Value:   20,
			},
		),
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "view",
		Usage:     "Show a recorded run and the path of its index",
		ArgsUsage: "[SEED|INDEX]",
		Action:    app.view,
		Flags:     outputFlags(),
		Description: `Show a recorded run.

Arguments:
  0           View last run (default)
  -1          View 2nd last run
  <seed>      View the run whose seed starts with <seed>`,
	})
	return app
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the YAML configuration file",
			Value:   defaultConfigFile,
		},
		&cli.StringFlag{
			Name:    "output-dir",
			Aliases: []string{"o"},
			Usage:   "Directory runs are recorded into",
		},
	}
}

func (a *App) Run(args []string) error {
	return a.cli.Run(args)
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && len(commit) >= 8 {
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit[:8], date)
	}
}

// loadConfig reads the configuration file and applies command line overrides.
func (a *App) loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(ctx.String("config"))
	if err != nil {
		return nil, err
	}

	if ctx.IsSet("output-dir") {
		cfg.OutputDir = ctx.String("output-dir")
	}
	if ctx.IsSet("delete-successful") {
		cfg.DeleteSuccessful = ctx.Bool("delete-successful")
	}
	if ctx.IsSet("module") {
		cfg.Module = ctx.String("module")
	}
	if ctx.IsSet("template") {
		cfg.Template = ctx.String("template")
	}
	if ctx.IsSet("animate-slides") {
		cfg.AnimateSlides = ctx.Bool("animate-slides")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a.logger.Debug().
		Str("output_dir", cfg.OutputDir).
		Str("module", cfg.Module).
		Bool("delete_successful", cfg.DeleteSuccessful).
		Msg("Loaded configuration")
	return cfg, nil
}
