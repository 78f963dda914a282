// Command hayroll runs the preprocessor-aware C-to-Rust transpiler pipeline
// over a compile_commands.json (spec §6 External Interfaces), grounded in
// original_source/src/HayrollCLI.cpp's CLI11 surface and structured the way
// the teacher's cmd/lci/main.go wires urfave/cli flags into a config and a
// driver call.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/hayroll-dev/hayroll/internal/compilecommand"
	"github.com/hayroll-dev/hayroll/internal/config"
	"github.com/hayroll-dev/hayroll/internal/driver"
	"github.com/hayroll-dev/hayroll/internal/logging"
)

// sharedFlags are accepted by both the default invocation and the
// transpile compatibility subcommand (spec §6's two CLI forms share every
// option besides how <output_dir> is supplied).
func sharedFlags(verboseCount *int) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "project-dir",
			Aliases: []string{"p"},
			Usage:   "Project directory (defaults to the folder containing compile_commands.json)",
		},
		&cli.StringFlag{
			Name:    "whitelist",
			Aliases: []string{"w"},
			Usage:   "Path to symbolic macro whitelist JSON file",
		},
		&cli.IntFlag{
			Name:    "jobs",
			Aliases: []string{"j"},
			Usage:   "Worker count",
		},
		&cli.BoolFlag{
			Name:    "inline",
			Aliases: []string{"i"},
			Usage:   "Enable inline macro expansion in the final target text",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Increase verbosity (-v=debug, -vv=trace)",
			Count:   verboseCount,
		},
		&cli.StringFlag{
			Name:    "binary",
			Aliases: []string{"b"},
			Usage:   "Emit a [[bin]] entry using main() from the named translation unit (no extension)",
		},
		&cli.BoolFlag{
			Name:  "watch",
			Usage: "Re-run the pipeline whenever a watched source file changes",
		},
	}
}

// newApp builds the CLI, sharing verboseCount between the default action and
// the transpile subcommand the same way HayrollCLI.cpp's single CLI::App
// parses both patterns into one set of variables.
func newApp(verboseCount *int) *cli.App {
	return &cli.App{
		Name: "hayroll",
		Usage: "Hayroll pipeline (supports C2Rust compatibility mode with the 'transpile' subcommand)\n" +
			"Patterns:\n" +
			" 1) hayroll <compile_commands.json> <output_dir> [opts]\n" +
			" 2) hayroll transpile <compile_commands.json> -o <output_dir> [opts]",
		Flags:     sharedFlags(verboseCount),
		ArgsUsage: "<compile_commands.json> <output_dir>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("expected <compile_commands.json> <output_dir>", 1)
			}
			return runPipeline(c, c.Args().Get(0), c.Args().Get(1), *verboseCount)
		},
		Commands: []*cli.Command{
			{
				Name:      "transpile",
				Usage:     "C2Rust compatibility mode (expects <compile_commands.json> and -o)",
				ArgsUsage: "<compile_commands.json>",
				Flags: append(sharedFlags(verboseCount), &cli.StringFlag{
					Name:     "output-dir",
					Aliases:  []string{"o"},
					Usage:    "Output directory",
					Required: true,
				}),
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("expected <compile_commands.json>", 1)
					}
					return runPipeline(c, c.Args().Get(0), c.String("output-dir"), *verboseCount)
				},
			},
		},
	}
}

func main() {
	var verboseCount int
	app := newApp(&verboseCount)

	if err := app.Run(os.Args); err != nil {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			if exitErr.ExitCode() != 0 && exitErr.Error() != "" {
				fmt.Fprintln(os.Stderr, exitErr.Error())
			}
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runPipeline resolves configuration, loads the compile commands, and
// drives the pipeline (directly, or in --watch mode), matching
// HayrollCLI.cpp's body from argument resolution through Pipeline::run.
func runPipeline(c *cli.Context, compileCommandsPath, outputDir string, verboseCount int) error {
	absCommandsPath, err := filepath.Abs(compileCommandsPath)
	if err != nil {
		return cli.Exit(fmt.Sprintf("resolving compile_commands.json path: %v", err), 1)
	}
	data, err := os.ReadFile(absCommandsPath)
	if err != nil {
		return cli.Exit(fmt.Sprintf("reading %s: %v", absCommandsPath, err), 1)
	}
	commands, err := compilecommand.Load(data)
	if err != nil {
		return cli.Exit(fmt.Sprintf("parsing %s: %v", absCommandsPath, err), 1)
	}

	projectDir := c.String("project-dir")
	if projectDir == "" {
		projectDir = filepath.Dir(absCommandsPath)
	}
	projectDir, err = filepath.Abs(projectDir)
	if err != nil {
		return cli.Exit(fmt.Sprintf("resolving project directory: %v", err), 1)
	}

	overrides := config.Overrides{
		Jobs:      c.Int("jobs"),
		Inline:    c.Bool("inline"),
		InlineSet: c.IsSet("inline"),
		Verbosity: verboseCount,
		Binary:    c.String("binary"),
	}
	cfg, err := config.Load(projectDir, overrides)
	if err != nil {
		return cli.Exit(fmt.Sprintf("loading configuration: %v", err), 1)
	}

	if whitelistPath := c.String("whitelist"); whitelistPath != "" {
		patterns, err := config.LoadWhitelist(whitelistPath)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		cfg.Whitelist = patterns
	}

	log := logging.New(os.Stderr, logging.LevelFromVerbosity(cfg.Verbosity))

	opts := driver.Options{
		ProjectDir: projectDir,
		OutputDir:  outputDir,
		Whitelist:  cfg.Whitelist,
		Inline:     cfg.Inline,
		Binary:     cfg.Binary,
		Jobs:       cfg.Jobs,
		Tools:      cfg.Tools,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if c.Bool("watch") {
		if err := driver.Watch(ctx, commands, opts, log); err != nil && !errors.Is(err, context.Canceled) {
			return cli.Exit(err.Error(), 1)
		}
		return nil
	}

	summary, err := driver.Run(ctx, commands, opts, log)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if !summary.OK() {
		for _, f := range summary.Failures {
			log.Errorf("unit %s: %v", f.File, f.Err)
		}
		failuresJSON, _ := json.Marshal(summary.Failures)
		log.Debugf("failure detail: %s", failuresJSON)
		return cli.Exit("", 1)
	}
	return nil
}
