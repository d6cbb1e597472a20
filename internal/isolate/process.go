package isolate

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

type Cmd struct {
	cmd          *exec.Cmd
	stdout       bytes.Buffer
	stderr       bytes.Buffer
	started      bool
	metaFilePath string
	Constraints  Constraints
}

func (process *Cmd) Start() error {
	if process.started {
		panic("process should not be started twice")
	}
	process.started = true

	process.cmd.Stdout = &process.stdout
	process.cmd.Stderr = &process.stderr
	return process.cmd.Start()
}

// Wait blocks until isolate exits and returns the parsed meta file.
// A non-zero exit of the sandboxed program is not an error.
func (process *Cmd) Wait() (*Metrics, error) {
	if !process.started {
		panic("process should be started before waiting")
	}
	defer os.Remove(process.metaFilePath)

	err := process.cmd.Wait()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, err
		}
	}
	slog.Debug("isolate command finished", "meta", process.metaFilePath)

	metaFileBytes, err := os.ReadFile(process.metaFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read meta file: %w", err)
	}

	return parseMetaFile(metaFileBytes)
}

func (process *Cmd) Stdout() []byte {
	return process.stdout.Bytes()
}

func (process *Cmd) Stderr() []byte {
	return process.stderr.Bytes()
}
