package natsgath

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/programme-lv/labgrader/api"
	"github.com/programme-lv/labgrader/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	msgs    []*nats.Msg
	flushed int
	fail    bool
}

func (f *fakeConn) PublishMsg(m *nats.Msg) error {
	if f.fail {
		return errors.New("connection closed")
	}
	f.msgs = append(f.msgs, m)
	return nil
}

func (f *fakeConn) Flush() error {
	f.flushed++
	return nil
}

func TestNatsGathererPublishesEventsAndRecord(t *testing.T) {
	conn := &fakeConn{}
	g := New(conn, "run-1", "grades.lab57")

	long := make([]string, 200)
	for i := range long {
		long[i] = "line"
	}
	g.StartJob("nora", "repo", "")
	g.StartExecution("jsvm")
	g.FinishExecution(api.ExecutionData{Backend: "jsvm", Compiled: true, Logs: long})
	g.FinishJob(&api.GradeRecord{RunUuid: "run-1", Student: "nora", Total: 100, Status: 0, Execution: &api.ExecutionData{Logs: long}})

	require.Len(t, conn.msgs, 5)
	for _, m := range conn.msgs[:4] {
		assert.Equal(t, "grades.lab57", m.Subject)
		assert.Equal(t, "run-1", m.Header.Get(HeaderRunUuid))
	}

	var exec api.FinishExecution
	require.NoError(t, json.Unmarshal(conn.msgs[2].Data, &exec))
	assert.Len(t, exec.Execution.Logs, api.MaxRuntimeDataHeight)

	rec := conn.msgs[4]
	assert.Equal(t, "grades.lab57.record", rec.Subject)
	assert.Equal(t, "zstd", rec.Header.Get(HeaderContentEncoding))
	raw, err := report.Decompress(rec.Data)
	require.NoError(t, err)
	var decoded api.GradeRecord
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "nora", decoded.Student)
	assert.Len(t, decoded.Execution.Logs, 200, "the record keeps full logs")
	assert.Equal(t, 1, conn.flushed)
}

func TestNatsGathererSurvivesPublishFailure(t *testing.T) {
	conn := &fakeConn{fail: true}
	g := New(conn, "run-2", "")
	assert.NotPanics(t, func() {
		g.StartJob("nora", "repo", "")
		g.FinishJob(&api.GradeRecord{})
	})
	assert.Equal(t, DefaultSubject, g.subject)
}
