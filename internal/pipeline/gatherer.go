package pipeline

import (
	"github.com/programme-lv/labgrader/api"
)

// ResultGatherer receives the progress of one grading run.
type ResultGatherer interface {
	StartJob(student, repo, systemInfo string)
	FinishProvenance(chosen api.CommitInfo, head *api.CommitInfo, late bool)

	StartExecution(backend string)
	FinishExecution(data api.ExecutionData)

	FinishJob(rec *api.GradeRecord)
}

type multiGatherer []ResultGatherer

// Multi fans every event out to gs in order. Nil entries are skipped.
func Multi(gs ...ResultGatherer) ResultGatherer {
	var m multiGatherer
	for _, g := range gs {
		if g != nil {
			m = append(m, g)
		}
	}
	return m
}

func (m multiGatherer) StartJob(student, repo, systemInfo string) {
	for _, g := range m {
		g.StartJob(student, repo, systemInfo)
	}
}

func (m multiGatherer) FinishProvenance(chosen api.CommitInfo, head *api.CommitInfo, late bool) {
	for _, g := range m {
		g.FinishProvenance(chosen, head, late)
	}
}

func (m multiGatherer) StartExecution(backend string) {
	for _, g := range m {
		g.StartExecution(backend)
	}
}

func (m multiGatherer) FinishExecution(data api.ExecutionData) {
	for _, g := range m {
		g.FinishExecution(data)
	}
}

func (m multiGatherer) FinishJob(rec *api.GradeRecord) {
	for _, g := range m {
		g.FinishJob(rec)
	}
}
