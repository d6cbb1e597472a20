package sandbox

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/programme-lv/labgrader/internal/isolate"
)

// Boxed runs the harness with node inside an isolate box.
type Boxed struct {
	harnessExecutor
	bin      string
	memoryKB int
}

func NewBoxed(nodeBin string, memoryMB int) *Boxed {
	if nodeBin == "" {
		nodeBin = "node"
	}
	if memoryMB <= 0 {
		memoryMB = 512
	}
	b := &Boxed{bin: nodeBin, memoryKB: memoryMB * 1024}
	b.harnessExecutor = harnessExecutor{name: BackendIsolate, runner: b}
	return b
}

func (b *Boxed) runHarness(ctx context.Context, run harnessRun) ([]byte, error) {
	// the box has no PATH lookup of its own
	nodePath, err := exec.LookPath(b.bin)
	if err != nil {
		return nil, fmt.Errorf("node not found: %w", err)
	}

	box, err := isolate.GetInstance().NewBox(ctx)
	if err != nil {
		return nil, err
	}
	defer box.Close()

	if err := box.AddFile("harness.js", harnessJS); err != nil {
		return nil, err
	}
	if err := box.AddFile("submission.js", []byte(run.Source)); err != nil {
		return nil, err
	}

	constraints := isolate.DefaultConstraints().WithWallTime(run.Wall)
	constraints.MemoryLimitInKB = b.memoryKB
	// node spawns worker threads which isolate counts as processes
	constraints.MaxProcesses = 64

	env := run.env()
	env["LABGRADER_SOURCE_PATH"] = "/box/submission.js"

	cmd, err := box.Command(ctx, []string{nodePath, "/box/harness.js"}, env, &constraints)
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	metrics, err := cmd.Wait()
	if err != nil {
		return nil, err
	}
	if metrics.TimedOut() {
		return nil, errWatchdog
	}
	if metrics.Status != "" {
		return nil, fmt.Errorf("isolate status %s: %s: %s", metrics.Status, metrics.Message,
			strings.TrimSpace(string(cmd.Stderr())))
	}
	return cmd.Stdout(), nil
}
