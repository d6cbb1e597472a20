package sandbox

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

//go:embed harness.js
var harnessJS []byte

// startupGrace is added to the script timeout to bound the whole harness run.
const startupGrace = 5 * time.Second

const (
	modeCompile = "compile"
	modeExecute = "execute"
)

// errWatchdog reports that the harness process itself had to be killed.
var errWatchdog = errors.New("harness watchdog expired")

// harnessRun describes one invocation of harness.js.
type harnessRun struct {
	Mode    string
	Source  string
	Timeout time.Duration
	Wall    time.Duration
}

func (r harnessRun) env() map[string]string {
	return map[string]string{
		"LABGRADER_MODE":       r.Mode,
		"LABGRADER_TIMEOUT_MS": strconv.FormatInt(r.Timeout.Milliseconds(), 10),
		"LABGRADER_MAX_LOGS":   strconv.Itoa(MaxLogLines),
	}
}

// harnessRunner starts node on harness.js somewhere and returns its stdout.
type harnessRunner interface {
	runHarness(ctx context.Context, run harnessRun) ([]byte, error)
}

type harnessReport struct {
	OK           *bool    `json:"ok"`
	Error        string   `json:"error"`
	Logs         []string `json:"logs"`
	RuntimeError *string  `json:"runtimeError"`
}

// decodeReport reads the last JSON line written by the harness.
func decodeReport(stdout []byte) (*harnessReport, error) {
	lines := strings.Split(strings.TrimSpace(string(stdout)), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if last == "" {
		return nil, errors.New("harness produced no report")
	}
	var rep harnessReport
	if err := json.Unmarshal([]byte(last), &rep); err != nil {
		return nil, fmt.Errorf("failed to decode harness report: %w", err)
	}
	return &rep, nil
}

// harnessExecutor adapts a harnessRunner to Executor.
type harnessExecutor struct {
	name   string
	runner harnessRunner
}

func (h *harnessExecutor) Name() string {
	return h.name
}

func (h *harnessExecutor) Compile(ctx context.Context, src string) CompileResult {
	stdout, err := h.runner.runHarness(ctx, harnessRun{
		Mode:    modeCompile,
		Source:  src,
		Timeout: DefaultTimeout,
		Wall:    DefaultTimeout + startupGrace,
	})
	if err != nil {
		slog.Warn("compile harness failed", "backend", h.name, "err", err)
		return CompileResult{HostFault: fmt.Sprintf("compile check failed: %v", err)}
	}
	rep, err := decodeReport(stdout)
	if err == nil && rep.OK == nil {
		err = errors.New("report has no compile verdict")
	}
	if err != nil {
		slog.Warn("unreadable compile report", "backend", h.name, "err", err)
		return CompileResult{HostFault: fmt.Sprintf("compile check failed: %v", err)}
	}
	return CompileResult{OK: *rep.OK, Error: rep.Error}
}

func (h *harnessExecutor) Execute(ctx context.Context, src string, timeout time.Duration) Outcome {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	out := Outcome{Compiled: true, Logs: []string{}}
	stdout, err := h.runner.runHarness(ctx, harnessRun{
		Mode:    modeExecute,
		Source:  src,
		Timeout: timeout,
		Wall:    timeout + startupGrace,
	})
	if errors.Is(err, errWatchdog) {
		out.RuntimeError = strPtr(timeoutMessage(timeout))
		return out
	}
	if err != nil {
		slog.Warn("execute harness failed", "backend", h.name, "err", err)
		out.RuntimeError = strPtr(hostFault(err.Error()))
		return out
	}
	rep, err := decodeReport(stdout)
	if err != nil {
		out.RuntimeError = strPtr(hostFault(err.Error()))
		return out
	}
	if len(rep.Logs) > MaxLogLines {
		rep.Logs = append(rep.Logs[:MaxLogLines], truncatedMarker)
	}
	if rep.Logs != nil {
		out.Logs = rep.Logs
	}
	out.RuntimeError = rep.RuntimeError
	return out
}
