package api

import "time"

// MsgType is a message type for streaming grading events
type MsgType string

const (
	StartJobMsg         MsgType = "job_start"
	FinishProvenanceMsg MsgType = "provenance_finish"
	StartExecutionMsg   MsgType = "execution_start"
	FinishExecutionMsg  MsgType = "execution_finish"
	FinishJobMsg        MsgType = "job_finish"
)

// Log size constraints for streaming
const (
	MaxRuntimeDataHeight = 40
	MaxRuntimeDataWidth  = 80
)

// Header is the common header for all streaming messages
type Header struct {
	RunUuid string  `json:"run_uuid"`
	MsgType MsgType `json:"msg_type"`
}

type StartJob struct {
	Header
	Student     string `json:"student"`
	Repo        string `json:"repo"`
	SystemInfo  string `json:"system_info"`
	StartedTime string `json:"started_time"`
}

type FinishProvenance struct {
	Header
	Chosen CommitInfo  `json:"chosen"`
	Head   *CommitInfo `json:"head"`
	Late   bool        `json:"late"`
}

type StartExecution struct {
	Header
	Backend string `json:"backend"`
}

type FinishExecution struct {
	Header
	Execution ExecutionData `json:"execution"`
}

type FinishJob struct {
	Header
	Total        int     `json:"total"`
	Status       int     `json:"status"`
	ErrorMessage *string `json:"error_message"`
}

func NewHeader(runUuid string, msgType MsgType) Header {
	return Header{
		RunUuid: runUuid,
		MsgType: msgType,
	}
}

func NewStartJob(runUuid, student, repo, systemInfo string) StartJob {
	return StartJob{
		Header:      NewHeader(runUuid, StartJobMsg),
		Student:     student,
		Repo:        repo,
		SystemInfo:  systemInfo,
		StartedTime: time.Now().Format(time.RFC3339),
	}
}

func NewFinishProvenance(runUuid string, chosen CommitInfo, head *CommitInfo, late bool) FinishProvenance {
	return FinishProvenance{
		Header: NewHeader(runUuid, FinishProvenanceMsg),
		Chosen: chosen,
		Head:   head,
		Late:   late,
	}
}

func NewStartExecution(runUuid, backend string) StartExecution {
	return StartExecution{
		Header:  NewHeader(runUuid, StartExecutionMsg),
		Backend: backend,
	}
}

func NewFinishExecution(runUuid string, execution ExecutionData) FinishExecution {
	return FinishExecution{
		Header:    NewHeader(runUuid, FinishExecutionMsg),
		Execution: execution.Truncated(),
	}
}

func NewFinishJob(runUuid string, total, status int, errorMessage *string) FinishJob {
	return FinishJob{
		Header:       NewHeader(runUuid, FinishJobMsg),
		Total:        total,
		Status:       status,
		ErrorMessage: errorMessage,
	}
}
