package termgath

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/programme-lv/labgrader/api"
	"github.com/programme-lv/labgrader/internal/grading"
)

var (
	title = color.New(color.FgCyan, color.Bold)
	good  = color.New(color.FgGreen)
	warn  = color.New(color.FgYellow)
	bad   = color.New(color.FgRed, color.Bold)
	faint = color.New(color.Faint)
)

// TerminalGatherer prints a human readable progress log.
type TerminalGatherer struct {
	StartedAt time.Time
	out       io.Writer
	// ShowLogs prints the captured console output of the submission.
	ShowLogs bool
}

func New() *TerminalGatherer { return NewWriter(os.Stdout) }

func NewWriter(w io.Writer) *TerminalGatherer {
	return &TerminalGatherer{StartedAt: time.Now(), out: w}
}

func (t *TerminalGatherer) StartJob(student, repo, systemInfo string) {
	title.Fprintf(t.out, "== Grading %s (%s) ==\n", student, repo)
	if systemInfo != "" {
		faint.Fprintf(t.out, "System: %s\n", systemInfo)
	}
}

func (t *TerminalGatherer) FinishProvenance(chosen api.CommitInfo, head *api.CommitInfo, late bool) {
	fmt.Fprintf(t.out, "-- Chosen commit %s @ %s (%s)\n", short(chosen.SHA), chosen.ISO, chosen.Source)
	if chosen.Note != "" {
		faint.Fprintf(t.out, "   %s\n", chosen.Note)
	}
	if head != nil && head.SHA != chosen.SHA {
		faint.Fprintf(t.out, "   HEAD is %s by %s\n", short(head.SHA), head.Author)
	}
	if late {
		warn.Fprintln(t.out, "   submitted after the deadline")
	}
}

func (t *TerminalGatherer) StartExecution(backend string) {
	fmt.Fprintf(t.out, "-- Running server.js (%s) --\n", backend)
}

func (t *TerminalGatherer) FinishExecution(data api.ExecutionData) {
	switch {
	case !data.Compiled && data.CompileError != nil:
		bad.Fprintf(t.out, "   compile error: %s\n", firstLine(*data.CompileError))
	case data.RuntimeError != nil:
		warn.Fprintf(t.out, "   runtime error: %s\n", firstLine(*data.RuntimeError))
	default:
		good.Fprintf(t.out, "   ran cleanly in %dms\n", data.WallMillis)
	}
	if t.ShowLogs {
		for _, l := range data.Logs {
			faint.Fprintf(t.out, "   | %s\n", l)
		}
	}
}

func (t *TerminalGatherer) FinishJob(rec *api.GradeRecord) {
	dur := time.Since(t.StartedAt).Round(time.Millisecond)
	c := good
	switch grading.Status(rec.Status) {
	case grading.Late:
		c = warn
	case grading.NoSubmission:
		c = bad
	}
	c.Fprintf(t.out, "== %d/%d (%s) in %s ==\n", rec.Total, rec.MaxTotal, rec.StatusText, dur)
}

func short(sha string) string {
	if len(sha) > 10 {
		return sha[:10]
	}
	return sha
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
