package grading_test

import (
	"testing"

	"github.com/programme-lv/labgrader/internal/grading"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var labTasks = []grading.Task{
	{ID: "Task 1", Name: "Data flow understanding notes (backend route + frontend fetch)", Marks: 40},
	{ID: "Task 2", Name: "Back-end fundamentals requirements", Marks: 40},
}

func ptr(v int64) *int64 { return &v }

func TestIsLate(t *testing.T) {
	deadline := int64(1762203540000)
	for _, d := range []int64{0, -1, deadline, 1 << 60} {
		assert.False(t, grading.IsLate(nil, d))
	}
	assert.False(t, grading.IsLate(ptr(deadline), deadline))
	assert.True(t, grading.IsLate(ptr(deadline+1), deadline))
	assert.False(t, grading.IsLate(ptr(deadline-1), deadline))
}

func TestComputeMissingSubmission(t *testing.T) {
	s := grading.Compute(false, true, true, labTasks)
	assert.Equal(t, grading.NoSubmission, s.Status)
	assert.Equal(t, 0, s.SubmissionMarks)
	assert.Equal(t, 0, s.TaskMarks)
	assert.Equal(t, 0, s.Total)
	require.Len(t, s.Tasks, 2)
	for _, tr := range s.Tasks {
		assert.Equal(t, 0, tr.Earned)
		require.Len(t, tr.Requirements, 1)
		assert.False(t, tr.Requirements[0].OK)
		assert.Contains(t, tr.Requirements[0].Label, "cannot grade")
	}
}

func TestComputeEmptySubmission(t *testing.T) {
	s := grading.Compute(true, true, false, labTasks)
	assert.Equal(t, grading.NoSubmission, s.Status)
	assert.Equal(t, 0, s.Total)
}

func TestComputeOnTime(t *testing.T) {
	s := grading.Compute(true, false, false, labTasks)
	assert.Equal(t, grading.OnTime, s.Status)
	assert.Equal(t, 20, s.SubmissionMarks)
	assert.Equal(t, 80, s.TaskMarks)
	assert.Equal(t, 100, s.Total)
	for _, tr := range s.Tasks {
		assert.Equal(t, tr.Marks, tr.Earned)
		assert.True(t, tr.Requirements[0].OK)
	}
}

func TestComputeLate(t *testing.T) {
	s := grading.Compute(true, false, true, labTasks)
	assert.Equal(t, grading.Late, s.Status)
	assert.Equal(t, 10, s.SubmissionMarks)
	assert.Equal(t, 90, s.Total)
}

func TestComputeClampsTotal(t *testing.T) {
	s := grading.Compute(true, false, false, []grading.Task{{ID: "big", Marks: 95}})
	assert.Equal(t, 115, s.TaskMarks+s.SubmissionMarks)
	assert.Equal(t, grading.MaxTotal, s.Total)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "on time", grading.OnTime.String())
	assert.Equal(t, "late", grading.Late.String())
	assert.Equal(t, "no submission/empty", grading.NoSubmission.String())
}
