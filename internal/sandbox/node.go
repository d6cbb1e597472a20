package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Node runs the harness with a local node binary under a watchdog.
// The node vm module is the isolation boundary.
type Node struct {
	harnessExecutor
	bin string
}

func NewNode(bin string) *Node {
	if bin == "" {
		bin = "node"
	}
	n := &Node{bin: bin}
	n.harnessExecutor = harnessExecutor{name: BackendNode, runner: n}
	return n
}

// Available reports whether the node binary can be found.
func (n *Node) Available() bool {
	_, err := exec.LookPath(n.bin)
	return err == nil
}

func (n *Node) runHarness(ctx context.Context, run harnessRun) ([]byte, error) {
	dir, err := os.MkdirTemp("", "labgrader-node-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	harnessPath := filepath.Join(dir, "harness.js")
	if err := os.WriteFile(harnessPath, harnessJS, 0o644); err != nil {
		return nil, err
	}
	srcPath := filepath.Join(dir, "submission.js")
	if err := os.WriteFile(srcPath, []byte(run.Source), 0o644); err != nil {
		return nil, err
	}

	wctx, cancel := context.WithTimeout(ctx, run.Wall)
	defer cancel()

	cmd := exec.CommandContext(wctx, n.bin, harnessPath)
	cmd.Dir = dir
	env := run.env()
	env["LABGRADER_SOURCE_PATH"] = srcPath
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.WaitDelay = time.Second

	stdout, err := cmd.Output()
	if errors.Is(wctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, errWatchdog
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("node exited with %d: %s", exitErr.ExitCode(), exitErr.Stderr)
		}
		return nil, err
	}
	return stdout, nil
}
