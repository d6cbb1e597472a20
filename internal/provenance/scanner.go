package provenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/programme-lv/labgrader/internal/vcs"
)

// DefaultScanDepth bounds how many commits are inspected.
const DefaultScanDepth = 800

const unknown = "unknown"

// Source tells how a Result was chosen.
type Source string

const (
	FromStudentCommit Source = "student_commit"
	FromHeadFallback  Source = "head_fallback"
	FromUnknown       Source = "unknown"
)

const (
	noteStudentCommit = "selected latest non-bot commit that changes student work (ignores grader-only commits)"
	noteHeadFallback  = "fallback to HEAD (no student-work commit detected)"
)

// Result is the commit used to time the submission.
// EpochMs is nil only for the unknown sentinel.
type Result struct {
	EpochMs *int64
	ISO     string
	SHA     string
	Author  string
	Email   string
	Subject string
	Note    string
	Source  Source
}

// Unknown builds the sentinel returned when no timing can be established.
func Unknown(note string) Result {
	return Result{
		ISO:    unknown,
		SHA:    unknown,
		Author: unknown,
		Email:  unknown,
		Note:   note,
		Source: FromUnknown,
	}
}

func fromCommit(c vcs.Commit, note string, source Source) Result {
	ms := c.Timestamp * 1000
	return Result{
		EpochMs: &ms,
		ISO:     FormatISO(ms),
		SHA:     orUnknown(c.SHA),
		Author:  orUnknown(c.AuthorName),
		Email:   orUnknown(c.AuthorEmail),
		Subject: c.Subject,
		Note:    note,
		Source:  source,
	}
}

// FormatISO renders epoch milliseconds as a UTC ISO-8601 timestamp with millisecond precision.
func FormatISO(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z")
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}

// Scanner walks history to find the latest genuine student-work commit.
type Scanner struct {
	history    vcs.History
	classifier *Classifier
	filter     *PathFilter
	log        *slog.Logger
}

func NewScanner(history vcs.History, classifier *Classifier, filter *PathFilter, log *slog.Logger) *Scanner {
	if classifier == nil {
		classifier = defaultClassifier
	}
	if filter == nil {
		filter = defaultFilter
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scanner{history: history, classifier: classifier, filter: filter, log: log}
}

// FindLatestStudentCommit returns the newest commit that is neither automation nor
// infrastructure-only. It falls back to HEAD and then to the unknown sentinel,
// and never fails.
func (s *Scanner) FindLatestStudentCommit(ctx context.Context, maxDepth int) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("history scan panicked", "panic", r)
			res = Unknown(fmt.Sprintf("git inspection failed: %v", r))
		}
	}()

	if maxDepth <= 0 {
		maxDepth = DefaultScanDepth
	}

	commits, err := s.history.RecentCommits(ctx, maxDepth)
	if err != nil {
		s.log.Warn("failed to list commits", "err", err)
		return s.headFallback(ctx, fmt.Sprintf("git log failed: %v", err))
	}
	if len(commits) == 0 {
		return s.headFallback(ctx, "git log returned no commits")
	}

	for _, c := range commits {
		if s.classifier.IsAutomation(c.AuthorName, c.AuthorEmail, c.Subject) {
			s.log.Debug("skipping automation commit", "sha", c.SHA, "author", c.AuthorName)
			continue
		}

		changed, err := s.history.ChangedFiles(ctx, c.SHA)
		if err != nil {
			// treated as an empty change set
			s.log.Debug("failed to list changed files", "sha", c.SHA, "err", err)
			changed = nil
		}
		if !s.filter.HasGenuineChange(changed) {
			s.log.Debug("skipping infrastructure-only commit", "sha", c.SHA, "files", changed)
			continue
		}

		s.log.Info("selected student-work commit", "sha", c.SHA, "author", c.AuthorName)
		return fromCommit(c, noteStudentCommit, FromStudentCommit)
	}

	return s.headFallback(ctx, "")
}

// Head reports the commit HEAD points at, without any filtering.
func (s *Scanner) Head(ctx context.Context) (res Result, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("reading HEAD panicked", "panic", r)
			res, ok = Result{}, false
		}
	}()

	head, err := s.history.Head(ctx)
	if err != nil {
		s.log.Warn("failed to read HEAD", "err", err)
		return Result{}, false
	}
	return fromCommit(head, "", FromHeadFallback), true
}

func (s *Scanner) headFallback(ctx context.Context, reason string) Result {
	head, ok := s.Head(ctx)
	if !ok {
		note := "git inspection failed: HEAD unavailable"
		if reason != "" {
			note = "git inspection failed: " + reason
		}
		return Unknown(note)
	}
	head.Note = noteHeadFallback
	if reason != "" {
		head.Note += "; " + reason
	}
	s.log.Info("falling back to HEAD", "sha", head.SHA)
	return head
}
