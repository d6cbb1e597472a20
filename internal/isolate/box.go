package isolate

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
)

type Box struct {
	id      int
	path    string
	isolate *Isolate
}

func newBox(isolate *Isolate, id int, path string) *Box {
	return &Box{id: id, path: path, isolate: isolate}
}

func (box *Box) Id() int {
	return box.id
}

func (box *Box) Path() string {
	return box.path
}

func (box *Box) Close() error {
	return box.isolate.eraseBox(box.id)
}

func (box *Box) AddFile(name string, content []byte) error {
	return os.WriteFile(filepath.Join(box.path, "box", name), content, 0o644)
}

// Command prepares argv to run inside the box. env is the complete environment;
// nothing is inherited from the host.
func (box *Box) Command(ctx context.Context, argv []string, env map[string]string, constraints *Constraints) (*Cmd, error) {
	if constraints == nil {
		c := DefaultConstraints()
		constraints = &c
	}

	metaPath, err := newTempMetaFilePath()
	if err != nil {
		return nil, fmt.Errorf("failed to create meta file: %w", err)
	}

	args := []string{"--cg", "--box-id", fmt.Sprint(box.id), "--meta=" + metaPath, "--env=HOME=/box"}
	args = append(args, envArgs(env)...)
	args = append(args, constraints.ToArgs()...)
	args = append(args, "--run", "--")
	args = append(args, argv...)

	return &Cmd{
		cmd:          exec.CommandContext(ctx, box.isolate.bin, args...),
		metaFilePath: metaPath,
		Constraints:  *constraints,
	}, nil
}

func envArgs(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		args = append(args, fmt.Sprintf("--env=%s=%s", k, env[k]))
	}
	return args
}

func newTempMetaFilePath() (string, error) {
	file, err := os.CreateTemp("", "isolate.*.meta")
	if err != nil {
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	return file.Name(), nil
}
