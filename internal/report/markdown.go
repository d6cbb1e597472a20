package report

import (
	"fmt"

	"github.com/programme-lv/labgrader/api"
	"github.com/programme-lv/labgrader/internal/grading"
)

const unknown = "unknown"

// StatusText is the one-line submission verdict.
func StatusText(rec *api.GradeRecord) string {
	switch grading.Status(rec.Status) {
	case grading.NoSubmission:
		return fmt.Sprintf("No submission detected (missing/empty server.js): submission marks = 0/%d.", grading.MaxSubmissionMarks)
	case grading.Late:
		return fmt.Sprintf("Late submission via latest *student-work* commit: %d/%d. (commit: %s @ %s)",
			rec.SubmissionMarks, grading.MaxSubmissionMarks, rec.Chosen.SHA, rec.Chosen.ISO)
	default:
		return fmt.Sprintf("On-time submission via latest *student-work* commit: %d/%d. (commit: %s @ %s)",
			rec.SubmissionMarks, grading.MaxSubmissionMarks, rec.Chosen.SHA, rec.Chosen.ISO)
	}
}

// Markdown renders the feedback summary. The same text goes to the feedback
// README and to the step summary.
func Markdown(rec *api.GradeRecord) string {
	b := &Builder{}

	b.Heading(1, fmt.Sprintf("Lab | %s | Autograding Summary", rec.Lab)).Blank()
	b.Bullet(0, "Student: `%s`", rec.Student)
	b.Bullet(0, "%s", rec.Submission.Note)
	b.Bullet(0, "%s", StatusText(rec))
	b.Bullet(0, "Due (Riyadh): `%s`", rec.Deadline).Blank()

	head := rec.Head
	if head == nil {
		head = &api.CommitInfo{SHA: unknown, Author: unknown, Email: unknown, ISO: unknown}
	}
	b.Bullet(0, "Repo HEAD commit:")
	b.Bullet(1, "SHA: `%s`", head.SHA)
	b.Bullet(1, "Author: `%s` <%s>", head.Author, head.Email)
	b.Bullet(1, "Time (UTC ISO): `%s`", head.ISO).Blank()

	b.Bullet(0, "Chosen commit for submission timing:")
	b.Bullet(1, "SHA: `%s`", rec.Chosen.SHA)
	b.Bullet(1, "Author: `%s` <%s>", rec.Chosen.Author, rec.Chosen.Email)
	b.Bullet(1, "Time (UTC ISO): `%s`", rec.Chosen.ISO)
	b.Bullet(1, "Note: %s", rec.Chosen.Note).Blank()

	b.Bullet(0, "Status: **%d** (0=on time, 1=late, 2=no submission/empty)", rec.Status)
	b.Bullet(0, "Run: `%s`", rec.GradedAt).Blank()

	b.Heading(2, "Marks Breakdown").Blank()
	b.Line("| Item | Marks |")
	b.Line("|------|------:|")
	for _, t := range rec.Tasks {
		b.Line("| %s: %s | %d/%d |", t.ID, t.Name, t.Earned, t.Max)
	}
	b.Line("| Submission | %d/%d |", rec.SubmissionMarks, grading.MaxSubmissionMarks).Blank()

	b.Heading(2, "Total Marks").Blank()
	b.Line("**%d / %d**", rec.Total, rec.MaxTotal).Blank()

	b.Heading(2, "Detailed Feedback")
	for _, t := range rec.Tasks {
		b.Blank().Heading(3, fmt.Sprintf("%s: %s", t.ID, t.Name))
		for _, r := range t.Requirements {
			switch {
			case r.OK:
				b.Bullet(0, "✅ %s", r.Label)
			case r.Detail != "":
				b.Bullet(0, "❌ %s — %s", r.Label, r.Detail)
			default:
				b.Bullet(0, "❌ %s", r.Label)
			}
		}
	}

	if ex := rec.Execution; ex != nil {
		switch {
		case !ex.Compiled && ex.CompileError != nil:
			b.Blank().Line("---")
			b.Line("⚠️ **SyntaxError: code could not compile.** Dynamic checks were skipped.").Blank()
			b.Fence(*ex.CompileError)
		case ex.RuntimeError != nil:
			b.Blank().Line("---")
			b.Line("⚠️ **Runtime error detected (best-effort captured):**").Blank()
			b.Fence(*ex.RuntimeError)
		}
	}

	return b.String()
}

// ConsoleLine is the final line printed after grading.
func ConsoleLine(rec *api.GradeRecord) string {
	return fmt.Sprintf("✔ Lab graded: %d/%d (status=%d)", rec.Total, rec.MaxTotal, rec.Status)
}
