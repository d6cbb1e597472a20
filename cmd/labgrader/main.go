package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/programme-lv/labgrader/internal/environment"
	"github.com/programme-lv/labgrader/internal/lab"
	"github.com/programme-lv/labgrader/internal/xdg"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:  "labgrader",
		Usage: "grade a lab submission repository",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log at debug level",
			},
			&cli.StringFlag{
				Name:    "lab",
				Usage:   "lab definition TOML (default: XDG config, then embedded)",
				Sources: cli.EnvVars("LABGRADER_LAB"),
			},
			&cli.StringFlag{
				Name:    "backend",
				Usage:   "executor backend: jsvm, node, isolate or docker",
				Sources: cli.EnvVars("LABGRADER_BACKEND"),
			},
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "optional dotenv file",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg := environment.ReadEnvConfig(cmd.String("env-file"))
			setupLogger(cmd.Bool("verbose"), cfg.LogLevel)
			return ctx, nil
		},
		Commands: []*cli.Command{
			gradeCommand(),
			batchCommand(),
			doctorCommand(),
		},
		DefaultCommand: "grade",
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		slog.Error("labgrader failed", "err", err)
		os.Exit(1)
	}
}

func setupLogger(verbose bool, level string) {
	lvl := slog.LevelInfo
	if level != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
			lvl = slog.LevelInfo
		}
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: "15:04:05",
		NoColor:    color.NoColor,
	})))
}

// loadLab resolves the lab definition and applies the --backend override.
func loadLab(cmd *cli.Command) (*lab.Lab, error) {
	l, source, err := lab.Resolve(cmd.String("lab"), xdg.NewXDGDirs())
	if err != nil {
		return nil, err
	}
	if b := cmd.String("backend"); b != "" {
		l.Executor.Backend = b
		if err := l.Validate(); err != nil {
			return nil, err
		}
	}
	slog.Debug("lab definition loaded", "source", source, "lab", l.Name, "backend", l.Executor.Backend)
	return l, nil
}

func closeQuietly(name string, c interface{ Close() error }) {
	if err := c.Close(); err != nil {
		slog.Warn(fmt.Sprintf("failed to close %s", name), "err", err)
	}
}
