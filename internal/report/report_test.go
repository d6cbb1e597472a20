package report_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/programme-lv/labgrader/api"
	"github.com/programme-lv/labgrader/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func sampleRecord() *api.GradeRecord {
	return &api.GradeRecord{
		RunUuid:  "b7f8b1a2-0000-4000-8000-000000000001",
		Lab:      "5-7-back-end-fundamentals",
		Student:  "nora",
		GradedAt: "2025-11-04T08:00:00.000Z",
		Submission: api.SubmissionInfo{
			Path:  "5-7-back-end-fundamentals/backend/server.js",
			Found: true,
			Note:  "✅ Found `5-7-back-end-fundamentals/backend/server.js`.",
		},
		Deadline:   "2025-11-03T23:59:00+03:00",
		DeadlineMs: 1762203540000,
		Head: &api.CommitInfo{
			SHA: "ffff", ISO: "2025-11-04T07:59:00.000Z", Author: "github-actions[bot]", Email: "actions@github.com",
		},
		Chosen: api.CommitInfo{
			SHA: "abcd", ISO: "2025-11-03T20:00:00.000Z", EpochMs: ptr(int64(1762200000000)),
			Author: "Nora", Email: "nora@uni.edu", Note: "selected latest non-bot commit",
		},
		Status:          0,
		SubmissionMarks: 20,
		TaskMarks:       80,
		Total:           100,
		MaxTotal:        100,
		Tasks: []api.TaskResult{
			{ID: "Task 1", Name: "Data flow understanding notes (backend route + frontend fetch)", Max: 40, Earned: 40,
				Requirements: []api.Requirement{{Label: "Completed", OK: true}}},
			{ID: "Task 2", Name: "Back-end fundamentals requirements", Max: 40, Earned: 40,
				Requirements: []api.Requirement{{Label: "Completed", OK: true}}},
		},
		Execution: &api.ExecutionData{Backend: "jsvm", Compiled: true, Logs: []string{}},
	}
}

func TestMarkdownLayout(t *testing.T) {
	md := report.Markdown(sampleRecord())

	ordered := []string{
		"# Lab | 5-7-back-end-fundamentals | Autograding Summary",
		"- Student: `nora`",
		"- ✅ Found `5-7-back-end-fundamentals/backend/server.js`.",
		"- On-time submission via latest *student-work* commit: 20/20. (commit: abcd @ 2025-11-03T20:00:00.000Z)",
		"- Due (Riyadh): `2025-11-03T23:59:00+03:00`",
		"- Repo HEAD commit:",
		"  - SHA: `ffff`",
		"- Chosen commit for submission timing:",
		"  - SHA: `abcd`",
		"  - Author: `Nora` <nora@uni.edu>",
		"  - Note: selected latest non-bot commit",
		"- Status: **0** (0=on time, 1=late, 2=no submission/empty)",
		"- Run: `2025-11-04T08:00:00.000Z`",
		"## Marks Breakdown",
		"| Task 1: Data flow understanding notes (backend route + frontend fetch) | 40/40 |",
		"| Submission | 20/20 |",
		"## Total Marks",
		"**100 / 100**",
		"## Detailed Feedback",
		"### Task 2: Back-end fundamentals requirements",
		"- ✅ Completed",
	}
	pos := 0
	for _, want := range ordered {
		i := strings.Index(md[pos:], want)
		require.GreaterOrEqual(t, i, 0, "missing or out of order: %q", want)
		pos += i + len(want)
	}
	assert.NotContains(t, md, "SyntaxError")
	assert.NotContains(t, md, "Runtime error")
}

func TestMarkdownUnknownHead(t *testing.T) {
	rec := sampleRecord()
	rec.Head = nil
	md := report.Markdown(rec)
	assert.Contains(t, md, "  - SHA: `unknown`\n  - Author: `unknown` <unknown>\n  - Time (UTC ISO): `unknown`")
}

func TestMarkdownCompileErrorWinsOverRuntimeError(t *testing.T) {
	rec := sampleRecord()
	rec.Execution = &api.ExecutionData{Compiled: false, CompileError: ptr("SyntaxError: Unexpected token"), RuntimeError: ptr("never shown")}
	md := report.Markdown(rec)
	assert.Contains(t, md, "⚠️ **SyntaxError: code could not compile.** Dynamic checks were skipped.\n\n```\nSyntaxError: Unexpected token\n```\n")
	assert.NotContains(t, md, "never shown")

	rec.Execution = &api.ExecutionData{Compiled: true, RuntimeError: ptr("ReferenceError: require is not defined")}
	md = report.Markdown(rec)
	assert.Contains(t, md, "⚠️ **Runtime error detected (best-effort captured):**")
	assert.Contains(t, md, "ReferenceError: require is not defined")
}

func TestMarkdownNoSubmission(t *testing.T) {
	rec := sampleRecord()
	rec.Status = 2
	rec.SubmissionMarks = 0
	rec.Tasks[0].Earned = 0
	rec.Tasks[0].Requirements = []api.Requirement{{Label: "No submission / empty server.js → cannot grade tasks"}}
	rec.Tasks[1].Requirements = []api.Requirement{{Label: "Needs work", Detail: "see notes"}}
	md := report.Markdown(rec)
	assert.Contains(t, md, "No submission detected (missing/empty server.js): submission marks = 0/20.")
	assert.Contains(t, md, "- ❌ No submission / empty server.js → cannot grade tasks\n")
	assert.Contains(t, md, "- ❌ Needs work — see notes\n")
}

func TestStatusTextLate(t *testing.T) {
	rec := sampleRecord()
	rec.Status = 1
	rec.SubmissionMarks = 10
	assert.Equal(t, "Late submission via latest *student-work* commit: 10/20. (commit: abcd @ 2025-11-03T20:00:00.000Z)", report.StatusText(rec))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	a := sampleRecord()
	b := sampleRecord()
	b.Student, b.Total, b.Status = "ali", 0, 2
	require.NoError(t, report.WriteCSV(&buf, a, b))
	assert.Equal(t, "student_username,obtained_marks,total_marks,status\nnora,100,100,0\nali,0,100,2\n", buf.String())
}

func TestConsoleLine(t *testing.T) {
	rec := sampleRecord()
	rec.Total, rec.Status = 90, 1
	assert.Equal(t, "✔ Lab graded: 90/100 (status=1)", report.ConsoleLine(rec))
}

func TestWriteArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), report.DefaultDir)
	rec := sampleRecord()

	p, err := report.WriteArtifacts(dir, rec)
	require.NoError(t, err)

	readme, err := os.ReadFile(p.Readme)
	require.NoError(t, err)
	assert.Equal(t, report.Markdown(rec), string(readme))

	csv, err := os.ReadFile(p.CSV)
	require.NoError(t, err)
	assert.Equal(t, "student_username,obtained_marks,total_marks,status\nnora,100,100,0\n", string(csv))

	plain, err := report.ReadRecord(p.JSON)
	require.NoError(t, err)
	archived, err := report.ReadRecord(p.Archive)
	require.NoError(t, err)
	assert.Equal(t, plain, archived)
	assert.Equal(t, rec.RunUuid, archived.RunUuid)
	assert.Equal(t, int64(1762200000000), *archived.Chosen.EpochMs)
}

func TestAppendStepSummary(t *testing.T) {
	require.NoError(t, report.AppendStepSummary("", sampleRecord()))

	p := filepath.Join(t.TempDir(), "summary.md")
	require.NoError(t, os.WriteFile(p, []byte("previous step\n"), 0o644))
	require.NoError(t, report.AppendStepSummary(p, sampleRecord()))
	got, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(got), "previous step\n# Lab | "))
}
