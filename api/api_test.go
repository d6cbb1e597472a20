package api

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionDataTruncated(t *testing.T) {
	long := strings.Repeat("é", 200)
	logs := make([]string, 100)
	for i := range logs {
		logs[i] = long
	}
	e := ExecutionData{Logs: logs, RuntimeError: &long}

	tr := e.Truncated()
	require.Len(t, tr.Logs, MaxRuntimeDataHeight)
	assert.Len(t, []rune(tr.Logs[0]), MaxRuntimeDataWidth)
	assert.True(t, strings.HasSuffix(tr.Logs[0], "..."))
	assert.Len(t, []rune(*tr.RuntimeError), MaxRuntimeDataWidth)

	assert.Len(t, e.Logs, 100, "original is untouched")
	assert.Len(t, []rune(*e.RuntimeError), 200)
}

func TestFinishExecutionHeader(t *testing.T) {
	msg := NewFinishExecution("run-1", ExecutionData{Backend: "jsvm", Compiled: true, Logs: []string{"hi"}})
	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "run-1", decoded["run_uuid"])
	assert.Equal(t, string(FinishExecutionMsg), decoded["msg_type"])
	assert.Equal(t, "jsvm", decoded["execution"].(map[string]any)["backend"])
}
