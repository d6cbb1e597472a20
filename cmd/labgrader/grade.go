package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/programme-lv/labgrader/internal/environment"
	"github.com/programme-lv/labgrader/internal/gatherer/respbuilder"
	"github.com/programme-lv/labgrader/internal/gatherer/termgath"
	"github.com/programme-lv/labgrader/internal/lab"
	"github.com/programme-lv/labgrader/internal/pipeline"
	"github.com/programme-lv/labgrader/internal/report"
	"github.com/programme-lv/labgrader/internal/sandbox"
	"github.com/urfave/cli/v3"
)

func gradeCommand() *cli.Command {
	return &cli.Command{
		Name:  "grade",
		Usage: "grade the repository in the working tree and write artifacts",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "repo", Value: ".", Usage: "repository root"},
			&cli.StringFlag{Name: "artifacts", Value: report.DefaultDir, Usage: "output directory"},
			&cli.StringFlag{Name: "student", Usage: "student id (default: derived from the environment)"},
			&cli.StringFlag{Name: "run-uuid", Usage: "run id (default: random)"},
			&cli.StringFlag{Name: "events", Usage: "write the run's event stream as JSON lines to this file"},
			&cli.BoolFlag{Name: "show-logs", Usage: "print the captured console output"},
		},
		Action: runGrade,
	}
}

func runGrade(ctx context.Context, cmd *cli.Command) error {
	cfg := environment.ReadEnvConfig(cmd.String("env-file"))
	l, err := loadLab(cmd)
	if err != nil {
		return err
	}

	runUuid := cmd.String("run-uuid")
	if runUuid == "" {
		runUuid = uuid.NewString()
	}
	student := cmd.String("student")
	if student == "" {
		student = cfg.StudentID()
	}

	ex, err := newExecutor(l)
	if err != nil {
		return err
	}
	if c, ok := ex.(io.Closer); ok {
		defer closeQuietly("executor", c)
	}

	out := openSinks(ctx, cfg)
	defer out.Close()

	term := termgath.New()
	term.ShowLogs = cmd.Bool("show-logs")
	events := respbuilder.New(runUuid)
	gatherers := append([]pipeline.ResultGatherer{term, events}, out.gatherers(runUuid)...)

	rec, err := pipeline.Grade(ctx, pipeline.Options{
		RunUuid:    runUuid,
		RepoDir:    cmd.String("repo"),
		Student:    student,
		Lab:        l,
		Executor:   ex,
		Gatherer:   pipeline.Multi(gatherers...),
		SystemInfo: pipeline.SystemInfo(),
	})
	if err != nil {
		return fmt.Errorf("grading failed: %w", err)
	}

	paths, err := report.WriteArtifacts(cmd.String("artifacts"), rec)
	if err != nil {
		return err
	}
	slog.Debug("artifacts written", "readme", paths.Readme, "csv", paths.CSV, "json", paths.JSON)

	if cfg.StepSummaryPath != "" {
		if err := report.AppendStepSummary(cfg.StepSummaryPath, rec); err != nil {
			slog.Warn("failed to append step summary", "path", cfg.StepSummaryPath, "err", err)
		}
	}

	if p := cmd.String("events"); p != "" {
		if err := writeEvents(p, events); err != nil {
			slog.Warn("failed to write events", "path", p, "err", err)
		}
	}

	fmt.Println(report.ConsoleLine(rec))
	return nil
}

func newExecutor(l *lab.Lab) (sandbox.Executor, error) {
	ex, err := sandbox.New(l.Executor.Backend, l.ExecutorOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create %s executor: %w", l.Executor.Backend, err)
	}
	return ex, nil
}

func writeEvents(path string, b *respbuilder.Builder) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return b.WriteJSONL(f)
}
