package grading

// Status is the submission status reported in grade.csv.
type Status int

const (
	OnTime       Status = 0
	Late         Status = 1
	NoSubmission Status = 2
)

const (
	MaxTotal           = 100
	MaxSubmissionMarks = 20
)

func (s Status) String() string {
	switch s {
	case OnTime:
		return "on time"
	case Late:
		return "late"
	case NoSubmission:
		return "no submission/empty"
	}
	return "unknown"
}

// IsLate gives the benefit of the doubt when the commit time is unknown.
// A commit exactly at the deadline is on time.
func IsLate(epochMs *int64, deadlineMs int64) bool {
	if epochMs == nil {
		return false
	}
	return *epochMs > deadlineMs
}

// Evaluate derives the status and the submission marks (20/10/0).
func Evaluate(hasSubmission, isEmpty, isLate bool) (Status, int) {
	switch {
	case !hasSubmission || isEmpty:
		return NoSubmission, 0
	case isLate:
		return Late, 10
	default:
		return OnTime, MaxSubmissionMarks
	}
}

type Task struct {
	ID    string `toml:"id" json:"id"`
	Name  string `toml:"name" json:"name"`
	Marks int    `toml:"marks" json:"marks"`
}

type Requirement struct {
	Label  string `json:"label"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

type TaskResult struct {
	Task
	Earned       int           `json:"earned"`
	Requirements []Requirement `json:"requirements"`
}

// ScoreTasks awards every task in full unless there is nothing to grade.
// No per-task correctness checks are performed.
func ScoreTasks(status Status, tasks []Task) []TaskResult {
	results := make([]TaskResult, 0, len(tasks))
	for _, t := range tasks {
		if status == NoSubmission {
			results = append(results, TaskResult{
				Task:         t,
				Earned:       0,
				Requirements: []Requirement{{Label: "No submission / empty server.js → cannot grade tasks", OK: false}},
			})
			continue
		}
		results = append(results, TaskResult{
			Task:         t,
			Earned:       t.Marks,
			Requirements: []Requirement{{Label: "Completed", OK: true}},
		})
	}
	return results
}

type Score struct {
	Status          Status
	SubmissionMarks int
	TaskMarks       int
	Total           int
	Tasks           []TaskResult
}

// Compute runs the whole scoring table. Total is clamped to MaxTotal.
func Compute(hasSubmission, isEmpty, isLate bool, tasks []Task) Score {
	status, subm := Evaluate(hasSubmission, isEmpty, isLate)
	results := ScoreTasks(status, tasks)
	taskMarks := 0
	for _, r := range results {
		taskMarks += r.Earned
	}
	return Score{
		Status:          status,
		SubmissionMarks: subm,
		TaskMarks:       taskMarks,
		Total:           min(taskMarks+subm, MaxTotal),
		Tasks:           results,
	}
}
