// Package pipeline grades one repository: provenance, lateness, optional
// sandboxed execution, scoring and the resulting record.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/programme-lv/labgrader/api"
	"github.com/programme-lv/labgrader/internal/grading"
	"github.com/programme-lv/labgrader/internal/lab"
	"github.com/programme-lv/labgrader/internal/provenance"
	"github.com/programme-lv/labgrader/internal/sandbox"
	"github.com/programme-lv/labgrader/internal/submission"
	"github.com/programme-lv/labgrader/internal/vcs"
)

type Options struct {
	RunUuid string
	RepoDir string
	Student string

	Lab *lab.Lab
	// History defaults to go-git on RepoDir, then to the git binary.
	History vcs.History
	// Executor defaults to the lab's configured backend.
	Executor sandbox.Executor
	Gatherer ResultGatherer

	SystemInfo string
	Now        func() time.Time
	Log        *slog.Logger
}

func (o *Options) defaults() error {
	if o.RunUuid == "" {
		o.RunUuid = uuid.NewString()
	}
	if o.RepoDir == "" {
		o.RepoDir = "."
	}
	if o.Student == "" {
		o.Student = "student"
	}
	if o.Lab == nil {
		o.Lab = lab.Default()
	}
	if o.Log == nil {
		o.Log = slog.Default()
	}
	o.Log = o.Log.With("run", o.RunUuid, "student", o.Student)
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Gatherer == nil {
		o.Gatherer = Multi()
	}
	if o.History == nil {
		o.History = OpenHistory(o.RepoDir, o.Log)
	}
	if o.Executor == nil {
		ex, err := sandbox.New(o.Lab.Executor.Backend, o.Lab.ExecutorOptions())
		if err != nil {
			return fmt.Errorf("failed to create executor: %w", err)
		}
		o.Executor = ex
	}
	return nil
}

// OpenHistory prefers go-git and falls back to the git binary when the
// repository cannot be opened in-process.
func OpenHistory(dir string, log *slog.Logger) vcs.History {
	h, err := vcs.OpenGoGit(dir)
	if err == nil {
		return h
	}
	log.Warn("go-git could not open repository, using git binary", "dir", dir, "err", err)
	return vcs.NewGitCLI(dir)
}

// Grade runs the whole pipeline. It fails only on invalid options; every
// problem met while grading becomes part of the record.
func Grade(ctx context.Context, opts Options) (*api.GradeRecord, error) {
	if err := opts.defaults(); err != nil {
		return nil, err
	}
	log, l, g := opts.Log, opts.Lab, opts.Gatherer
	started := opts.Now()

	g.StartJob(opts.Student, opts.RepoDir, opts.SystemInfo)
	log.Info("grading started", "repo", opts.RepoDir, "lab", l.Name)

	sub, err := submission.Read(opts.RepoDir, l.SubmissionPath)
	if err != nil {
		log.Warn("submission unreadable, treating as missing", "err", err)
		sub = submission.Submission{Path: l.SubmissionPath}
	}
	has, empty := sub.Exists, sub.IsEmpty()

	scanner := provenance.NewScanner(opts.History, l.Classifier(), l.PathFilter(), log)
	chosen := scanner.FindLatestStudentCommit(ctx, l.ScanDepth)
	var head *api.CommitInfo
	if h, ok := scanner.Head(ctx); ok {
		info := commitInfo(h)
		info.Note, info.Source = "", ""
		head = &info
	}

	late := has && !empty && grading.IsLate(chosen.EpochMs, l.DeadlineMs())
	chosenInfo := commitInfo(chosen)
	g.FinishProvenance(chosenInfo, head, late)
	log.Info("provenance resolved", "sha", chosen.SHA, "source", chosen.Source, "late", late)

	var execution *api.ExecutionData
	if has && !empty {
		g.StartExecution(opts.Executor.Name())
		execStart := opts.Now()
		out := sandbox.Run(ctx, opts.Executor, sub.Content, l.Timeout())
		execution = &api.ExecutionData{
			Backend:      opts.Executor.Name(),
			Compiled:     out.Compiled,
			CompileError: out.CompileError,
			Logs:         out.Logs,
			RuntimeError: out.RuntimeError,
			WallMillis:   opts.Now().Sub(execStart).Milliseconds(),
		}
		g.FinishExecution(*execution)
		log.Info("execution finished", "backend", execution.Backend, "compiled", out.Compiled,
			"runtime_error", out.RuntimeError != nil)
	}

	score := grading.Compute(has, empty, late, l.Tasks)

	rec := &api.GradeRecord{
		RunUuid:  opts.RunUuid,
		Lab:      l.Name,
		Student:  opts.Student,
		GradedAt: provenance.FormatISO(opts.Now().UnixMilli()),
		Submission: api.SubmissionInfo{
			Path:  sub.Path,
			Found: has,
			Empty: has && empty,
			Note:  sub.Note(),
		},
		Deadline:        l.Deadline.Format(time.RFC3339),
		DeadlineMs:      l.DeadlineMs(),
		Head:            head,
		Chosen:          chosenInfo,
		Late:            late,
		Status:          int(score.Status),
		StatusText:      score.Status.String(),
		SubmissionMarks: score.SubmissionMarks,
		TaskMarks:       score.TaskMarks,
		Total:           score.Total,
		MaxTotal:        grading.MaxTotal,
		Tasks:           taskResults(score.Tasks),
		Execution:       execution,
	}
	if opts.SystemInfo != "" {
		rec.SystemInfo = &opts.SystemInfo
	}
	rec.DurationMs = opts.Now().Sub(started).Milliseconds()

	g.FinishJob(rec)
	log.Info("grading finished", "total", rec.Total, "status", rec.Status)
	return rec, nil
}

func commitInfo(r provenance.Result) api.CommitInfo {
	return api.CommitInfo{
		SHA:     r.SHA,
		ISO:     r.ISO,
		EpochMs: r.EpochMs,
		Author:  r.Author,
		Email:   r.Email,
		Subject: r.Subject,
		Note:    r.Note,
		Source:  string(r.Source),
	}
}

func taskResults(trs []grading.TaskResult) []api.TaskResult {
	out := make([]api.TaskResult, 0, len(trs))
	for _, tr := range trs {
		reqs := make([]api.Requirement, 0, len(tr.Requirements))
		for _, r := range tr.Requirements {
			reqs = append(reqs, api.Requirement{Label: r.Label, OK: r.OK, Detail: r.Detail})
		}
		out = append(out, api.TaskResult{
			ID:           tr.ID,
			Name:         tr.Name,
			Max:          tr.Marks,
			Earned:       tr.Earned,
			Requirements: reqs,
		})
	}
	return out
}
