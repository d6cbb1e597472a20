package natsgath

import (
	"github.com/programme-lv/labgrader/api"
)

type natsGatherer struct {
	nc      publisher
	subject string
	runUuid string
}

// StartJob implements pipeline.ResultGatherer.
func (s *natsGatherer) StartJob(student, repo, systemInfo string) {
	s.send(api.NewStartJob(s.runUuid, student, repo, systemInfo))
}

// FinishProvenance implements pipeline.ResultGatherer.
func (s *natsGatherer) FinishProvenance(chosen api.CommitInfo, head *api.CommitInfo, late bool) {
	s.send(api.NewFinishProvenance(s.runUuid, chosen, head, late))
}

// StartExecution implements pipeline.ResultGatherer.
func (s *natsGatherer) StartExecution(backend string) {
	s.send(api.NewStartExecution(s.runUuid, backend))
}

// FinishExecution implements pipeline.ResultGatherer.
func (s *natsGatherer) FinishExecution(data api.ExecutionData) {
	s.send(api.NewFinishExecution(s.runUuid, data))
}

// FinishJob implements pipeline.ResultGatherer.
func (s *natsGatherer) FinishJob(rec *api.GradeRecord) {
	s.send(api.NewFinishJob(s.runUuid, rec.Total, rec.Status, nil))
	s.sendRecord(rec)
}
