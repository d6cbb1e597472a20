package api

// CommitInfo describes a commit used for timing. EpochMs is nil when the
// commit is unknown.
type CommitInfo struct {
	SHA     string `json:"sha"`
	ISO     string `json:"iso"`
	EpochMs *int64 `json:"epoch_ms"`
	Author  string `json:"author"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Note    string `json:"note,omitempty"`
	Source  string `json:"source,omitempty"`
}

type SubmissionInfo struct {
	Path  string `json:"path"`
	Found bool   `json:"found"`
	Empty bool   `json:"empty"`
	Note  string `json:"note"`
}

type Requirement struct {
	Label  string `json:"label"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

type TaskResult struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Max          int           `json:"max"`
	Earned       int           `json:"earned"`
	Requirements []Requirement `json:"requirements"`
}

// GradeRecord is the complete outcome of one grading run.
type GradeRecord struct {
	RunUuid string `json:"run_uuid"`
	Lab     string `json:"lab"`
	Student string `json:"student"`

	GradedAt   string `json:"graded_at"`
	DurationMs int64  `json:"duration_ms"`

	Submission SubmissionInfo `json:"submission"`
	Deadline   string         `json:"deadline"`
	DeadlineMs int64          `json:"deadline_ms"`
	Head       *CommitInfo    `json:"head"`
	Chosen     CommitInfo     `json:"chosen"`
	Late       bool           `json:"late"`

	Status          int          `json:"status"`
	StatusText      string       `json:"status_text"`
	SubmissionMarks int          `json:"submission_marks"`
	TaskMarks       int          `json:"task_marks"`
	Total           int          `json:"total"`
	MaxTotal        int          `json:"max_total"`
	Tasks           []TaskResult `json:"tasks"`

	// Execution is nil when there was nothing to run.
	Execution *ExecutionData `json:"execution"`

	SystemInfo *string `json:"system_info,omitempty"`
}
