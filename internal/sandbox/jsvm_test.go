package sandbox_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/programme-lv/labgrader/internal/sandbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runJSVM(t *testing.T, src string, timeout time.Duration) sandbox.Outcome {
	t.Helper()
	return sandbox.Run(context.Background(), sandbox.NewJSVM(), src, timeout)
}

func TestJSVMCompileError(t *testing.T) {
	out := runJSVM(t, "const x = ;", 0)
	assert.False(t, out.Compiled)
	require.NotNil(t, out.CompileError)
	assert.Contains(t, *out.CompileError, "SyntaxError")
	assert.Nil(t, out.Logs)
	assert.Nil(t, out.RuntimeError)
}

func TestJSVMCapturesLogsInOrder(t *testing.T) {
	out := runJSVM(t, `
console.log("a", 1);
console.warn("b");
console.error("c", true, null, undefined);
console.info({k: 1}, [1, 2]);
`, 0)
	assert.True(t, out.Compiled)
	assert.Nil(t, out.RuntimeError)
	assert.Equal(t, []string{"a 1", "b", "c true null undefined", "[object Object] 1,2"}, out.Logs)
}

func TestJSVMTopLevelReturnIsLegal(t *testing.T) {
	out := runJSVM(t, `console.log("before"); return; console.log("after");`, 0)
	assert.True(t, out.Compiled)
	assert.Nil(t, out.RuntimeError)
	assert.Equal(t, []string{"before"}, out.Logs)
}

func TestJSVMTrailingLineComment(t *testing.T) {
	out := runJSVM(t, `console.log("ok") // the end`, 0)
	assert.True(t, out.Compiled)
	assert.Equal(t, []string{"ok"}, out.Logs)
}

func TestJSVMThrownErrorKeepsPartialLogs(t *testing.T) {
	out := runJSVM(t, `console.log("one"); throw new Error("boom"); console.log("two");`, 0)
	assert.True(t, out.Compiled)
	require.NotNil(t, out.RuntimeError)
	assert.Contains(t, *out.RuntimeError, "boom")
	assert.Equal(t, []string{"one"}, out.Logs)
}

func TestJSVMInfiniteLoopTimesOut(t *testing.T) {
	start := time.Now()
	out := runJSVM(t, `console.log("start"); while (true) {}`, 100*time.Millisecond)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, out.Compiled)
	require.NotNil(t, out.RuntimeError)
	assert.Contains(t, *out.RuntimeError, "timed out after 100ms")
	assert.Equal(t, []string{"start"}, out.Logs)
}

func TestJSVMHasNoHostAccess(t *testing.T) {
	out := runJSVM(t, `console.log(typeof process, typeof module, typeof fetch); require("fs");`, 0)
	assert.Equal(t, []string{"undefined undefined undefined"}, out.Logs)
	require.NotNil(t, out.RuntimeError)
	assert.Contains(t, *out.RuntimeError, "require")
}

func TestJSVMExpressServerFailsAtRuntime(t *testing.T) {
	src := `
const express = require("express");
const app = express();
app.get("/api/hello", (req, res) => res.json({ msg: "hi" }));
app.listen(3000);
`
	out := runJSVM(t, src, 0)
	assert.True(t, out.Compiled)
	require.NotNil(t, out.RuntimeError)
	assert.Empty(t, out.Logs)
}

func TestJSVMDeepRecursionIsARuntimeError(t *testing.T) {
	out := runJSVM(t, `function f() { return f() + 1; } f();`, 0)
	assert.True(t, out.Compiled)
	assert.NotNil(t, out.RuntimeError)
}

func TestJSVMTruncatesRunawayLogging(t *testing.T) {
	out := runJSVM(t, fmt.Sprintf(`for (let i = 0; i < %d; i++) console.log(i);`, sandbox.MaxLogLines+100), time.Second)
	require.Len(t, out.Logs, sandbox.MaxLogLines+1)
	assert.Equal(t, "0", out.Logs[0])
	assert.True(t, strings.Contains(out.Logs[len(out.Logs)-1], "truncated"))
}

func TestJSVMRunsAreIndependent(t *testing.T) {
	ex := sandbox.NewJSVM()
	first := sandbox.Run(context.Background(), ex, `globalThis.leak = 42;`, 0)
	assert.Nil(t, first.RuntimeError)
	second := sandbox.Run(context.Background(), ex, `console.log(typeof leak);`, 0)
	assert.Equal(t, []string{"undefined"}, second.Logs)
}

func TestJSVMExecutesInStrictMode(t *testing.T) {
	out := runJSVM(t, `counter = 1; console.log('assigned', counter);`, 0)
	assert.True(t, out.Compiled)
	assert.Nil(t, out.CompileError)
	assert.Equal(t, []string{}, out.Logs)
	require.NotNil(t, out.RuntimeError)
	assert.Contains(t, *out.RuntimeError, "counter is not defined")

	out = runJSVM(t, `with (Math) { console.log(max(1, 2)); }`, 0)
	assert.True(t, out.Compiled)
	require.NotNil(t, out.RuntimeError)
	assert.Contains(t, *out.RuntimeError, "SyntaxError")
}

type spyExecutor struct {
	compile  sandbox.CompileResult
	executed int
}

func (s *spyExecutor) Name() string { return "spy" }

func (s *spyExecutor) Compile(context.Context, string) sandbox.CompileResult { return s.compile }

func (s *spyExecutor) Execute(context.Context, string, time.Duration) sandbox.Outcome {
	s.executed++
	return sandbox.Outcome{Logs: []string{"ran"}}
}

func TestRunSkipsExecutionOnCompileFailure(t *testing.T) {
	spy := &spyExecutor{compile: sandbox.CompileResult{OK: false, Error: "SyntaxError: nope"}}
	out := sandbox.Run(context.Background(), spy, "x", 0)
	assert.Equal(t, 0, spy.executed)
	assert.False(t, out.Compiled)
	assert.Equal(t, "SyntaxError: nope", *out.CompileError)

	spy.compile = sandbox.CompileResult{OK: true}
	out = sandbox.Run(context.Background(), spy, "x", 0)
	assert.Equal(t, 1, spy.executed)
	assert.True(t, out.Compiled)
	assert.Nil(t, out.CompileError)
	assert.Equal(t, []string{"ran"}, out.Logs)
}

func TestRunReportsHostFaultWithoutExecuting(t *testing.T) {
	spy := &spyExecutor{compile: sandbox.CompileResult{HostFault: "compile check failed: exec: \"node\": executable file not found"}}
	out := sandbox.Run(context.Background(), spy, "x", 0)
	assert.Equal(t, 0, spy.executed)
	assert.True(t, out.Compiled)
	assert.Nil(t, out.CompileError)
	assert.Equal(t, []string{}, out.Logs)
	require.NotNil(t, out.RuntimeError)
	assert.Equal(t, `host fault: compile check failed: exec: "node": executable file not found`, *out.RuntimeError)
}

func TestNewBackends(t *testing.T) {
	ex, err := sandbox.New("", sandbox.Options{})
	require.NoError(t, err)
	assert.Equal(t, sandbox.BackendJSVM, ex.Name())

	ex, err = sandbox.New(sandbox.BackendNode, sandbox.Options{})
	require.NoError(t, err)
	assert.Equal(t, sandbox.BackendNode, ex.Name())

	_, err = sandbox.New("wasm", sandbox.Options{})
	require.Error(t, err)
}
