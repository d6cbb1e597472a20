package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	pretty_table "github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/programme-lv/labgrader/api"
	"github.com/programme-lv/labgrader/internal/environment"
	"github.com/programme-lv/labgrader/internal/lab"
	"github.com/programme-lv/labgrader/internal/pipeline"
	"github.com/programme-lv/labgrader/internal/repocache"
	"github.com/programme-lv/labgrader/internal/report"
	"github.com/programme-lv/labgrader/internal/sandbox"
	"github.com/programme-lv/labgrader/internal/xdg"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     "grade many repositories (local paths or git URLs)",
		ArgsUsage: "REPO...",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "jobs", Aliases: []string{"j"}, Value: 4, Usage: "repositories graded in parallel"},
			&cli.StringFlag{Name: "artifacts", Value: report.DefaultDir, Usage: "output root, one subdirectory per student"},
			&cli.StringFlag{Name: "csv", Value: "grades.csv", Usage: "combined grade CSV"},
		},
		Action: runBatch,
	}
}

type batchJob struct {
	arg     string
	student string
	// artifacts is the job's own subdirectory of the artifacts root.
	artifacts string
}

// newBatchJobs derives one job per argument. Students that share a name get
// numbered artifact directories in argument order.
func newBatchJobs(args []string) []batchJob {
	used := mapset.NewThreadUnsafeSet[string]()
	jobs := make([]batchJob, len(args))
	for i, a := range args {
		student := studentFromRepo(a)
		dir := student
		for n := 2; used.Contains(dir); n++ {
			dir = fmt.Sprintf("%s-%d", student, n)
		}
		used.Add(dir)
		jobs[i] = batchJob{arg: a, student: student, artifacts: dir}
	}
	return jobs
}

func runBatch(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return errors.New("no repositories given")
	}
	cfg := environment.ReadEnvConfig(cmd.String("env-file"))
	l, err := loadLab(cmd)
	if err != nil {
		return err
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

	cache, err := repocache.New(xdg.NewXDGDirs().AppCacheDir(lab.AppName))
	if err != nil {
		return err
	}
	jobs := newBatchJobs(args)

	records := xsync.NewMapOf[string, *api.GradeRecord]()
	failures := xsync.NewMapOf[string, error]()

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(1, int(cmd.Int("jobs"))))
	for _, job := range jobs {
		eg.Go(func() error {
			rec, err := gradeOne(ctx, job, l, ex, out, cache, cmd.String("artifacts"))
			if err != nil {
				slog.Warn("repository not graded", "repo", job.arg, "err", err)
				failures.Store(job.arg, err)
				return nil
			}
			records.Store(job.arg, rec)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	ordered := make([]*api.GradeRecord, 0, records.Size())
	for _, job := range jobs {
		if rec, ok := records.Load(job.arg); ok {
			ordered = append(ordered, rec)
		}
	}
	if err := writeBatchCSV(cmd.String("csv"), ordered); err != nil {
		return err
	}
	renderBatchTable(jobs, records, failures)

	if n := failures.Size(); n > 0 {
		return fmt.Errorf("%d of %d repositories could not be graded", n, len(jobs))
	}
	return nil
}

func gradeOne(ctx context.Context, job batchJob, l *lab.Lab, ex sandbox.Executor, out *sinks,
	cache *repocache.RepoCache, artifactsRoot string) (*api.GradeRecord, error) {

	dir := job.arg
	if isRemote(job.arg) {
		var err error
		dir, err = cache.Sync(ctx, job.arg)
		if err != nil {
			return nil, err
		}
	}

	runUuid := uuid.NewString()
	rec, err := pipeline.Grade(ctx, pipeline.Options{
		RunUuid:  runUuid,
		RepoDir:  dir,
		Student:  job.student,
		Lab:      l,
		Executor: ex,
		Gatherer: pipeline.Multi(out.gatherers(runUuid)...),
		Log:      slog.Default().With("repo", job.arg),
	})
	if err != nil {
		return nil, err
	}
	if _, err := report.WriteArtifacts(filepath.Join(artifactsRoot, job.artifacts), rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func isRemote(arg string) bool {
	return strings.Contains(arg, "://") || strings.HasPrefix(arg, "git@")
}

func studentFromRepo(arg string) string {
	base := repocache.RepoName(arg)
	if !isRemote(arg) {
		if abs, err := filepath.Abs(arg); err == nil {
			base = filepath.Base(abs)
		}
	}
	if s := environment.RepoSuffix(base); s != "" {
		return s
	}
	return base
}

func writeBatchCSV(path string, recs []*api.GradeRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WriteCSV(f, recs...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func renderBatchTable(jobs []batchJob, records *xsync.MapOf[string, *api.GradeRecord],
	failures *xsync.MapOf[string, error]) {

	t := pretty_table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(pretty_table.Row{"Student", "Repository", "Marks", "Status", "Commit"})
	for _, job := range jobs {
		if rec, ok := records.Load(job.arg); ok {
			t.AppendRow(pretty_table.Row{
				rec.Student,
				job.arg,
				fmt.Sprintf("%d/%d", rec.Total, rec.MaxTotal),
				rec.StatusText,
				rec.Chosen.ISO,
			})
			continue
		}
		msg := "not graded"
		if err, ok := failures.Load(job.arg); ok {
			msg = err.Error()
		}
		t.AppendRow(pretty_table.Row{job.student, job.arg, "-", "error", msg})
	}
	t.SetStyle(pretty_table.StyleColoredDark)
	t.SetColumnConfigs([]pretty_table.ColumnConfig{
		{
			Name:        "Status",
			Transformer: statusColor,
			Align:       text.AlignCenter,
		},
	})
	t.Render()
}

var statusColor = text.Transformer(func(s interface{}) string {
	switch s.(string) {
	case "on time":
		return text.FgHiGreen.Sprint(s)
	case "late":
		return text.FgHiYellow.Sprint(s)
	case "no submission/empty", "error":
		return text.FgHiRed.Sprint(s)
	}
	return fmt.Sprint(s)
})
