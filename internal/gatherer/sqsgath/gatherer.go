package sqsgath

import (
	"github.com/programme-lv/labgrader/api"
)

// MsgTypeRecord marks the message carrying the final GradeRecord.
const MsgTypeRecord = "grade_record"

type sqsResQueueGatherer struct {
	sqsClient sender
	queueUrl  string
	runUuid   string
}

func (s *sqsResQueueGatherer) StartJob(student, repo, systemInfo string) {
	msg := api.NewStartJob(s.runUuid, student, repo, systemInfo)
	s.send(string(msg.MsgType), msg)
}

func (s *sqsResQueueGatherer) FinishProvenance(chosen api.CommitInfo, head *api.CommitInfo, late bool) {
	msg := api.NewFinishProvenance(s.runUuid, chosen, head, late)
	s.send(string(msg.MsgType), msg)
}

func (s *sqsResQueueGatherer) StartExecution(backend string) {
	msg := api.NewStartExecution(s.runUuid, backend)
	s.send(string(msg.MsgType), msg)
}

func (s *sqsResQueueGatherer) FinishExecution(data api.ExecutionData) {
	msg := api.NewFinishExecution(s.runUuid, data)
	s.send(string(msg.MsgType), msg)
}

// FinishJob sends the job_finish event followed by the record. The record's
// logs are truncated to keep the message within SQS size limits.
func (s *sqsResQueueGatherer) FinishJob(rec *api.GradeRecord) {
	msg := api.NewFinishJob(s.runUuid, rec.Total, rec.Status, nil)
	s.send(string(msg.MsgType), msg)

	slim := *rec
	if rec.Execution != nil {
		ex := rec.Execution.Truncated()
		slim.Execution = &ex
	}
	s.send(MsgTypeRecord, slim)
}
