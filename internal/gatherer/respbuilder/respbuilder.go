package respbuilder

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/programme-lv/labgrader/api"
)

// Builder keeps every streamed message of one run in memory, in order,
// together with the final record.
type Builder struct {
	runUuid string

	mu     sync.Mutex
	events []any
	record *api.GradeRecord
}

func New(runUuid string) *Builder {
	return &Builder{runUuid: runUuid}
}

func (b *Builder) add(msg any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, msg)
}

// StartJob implements ResultGatherer.
func (b *Builder) StartJob(student, repo, systemInfo string) {
	b.add(api.NewStartJob(b.runUuid, student, repo, systemInfo))
}

// FinishProvenance implements ResultGatherer.
func (b *Builder) FinishProvenance(chosen api.CommitInfo, head *api.CommitInfo, late bool) {
	b.add(api.NewFinishProvenance(b.runUuid, chosen, head, late))
}

// StartExecution implements ResultGatherer.
func (b *Builder) StartExecution(backend string) {
	b.add(api.NewStartExecution(b.runUuid, backend))
}

// FinishExecution implements ResultGatherer.
func (b *Builder) FinishExecution(data api.ExecutionData) {
	b.add(api.NewFinishExecution(b.runUuid, data))
}

// FinishJob implements ResultGatherer.
func (b *Builder) FinishJob(rec *api.GradeRecord) {
	b.add(api.NewFinishJob(b.runUuid, rec.Total, rec.Status, nil))
	b.mu.Lock()
	b.record = rec
	b.mu.Unlock()
}

// MsgTypes lists the message types seen so far.
func (b *Builder) MsgTypes() []api.MsgType {
	b.mu.Lock()
	defer b.mu.Unlock()
	types := make([]api.MsgType, 0, len(b.events))
	for _, e := range b.events {
		types = append(types, msgType(e))
	}
	return types
}

// Record returns the final record, or nil before FinishJob.
func (b *Builder) Record() *api.GradeRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.record
}

// WriteJSONL writes one JSON message per line.
func (b *Builder) WriteJSONL(w io.Writer) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	enc := json.NewEncoder(w)
	for _, e := range b.events {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("failed to encode %s: %w", msgType(e), err)
		}
	}
	return nil
}

func msgType(e any) api.MsgType {
	switch m := e.(type) {
	case api.StartJob:
		return m.MsgType
	case api.FinishProvenance:
		return m.MsgType
	case api.StartExecution:
		return m.MsgType
	case api.FinishExecution:
		return m.MsgType
	case api.FinishJob:
		return m.MsgType
	}
	return ""
}
