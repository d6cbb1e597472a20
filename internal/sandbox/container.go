package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

// Container runs the harness in a throwaway node container with
// networking disabled and a read-only root filesystem.
type Container struct {
	harnessExecutor
	cli      *client.Client
	image    string
	memoryMB int
}

func NewContainer(image string, memoryMB int) (*Container, error) {
	if image == "" {
		image = defaultNodeImage
	}
	if memoryMB <= 0 {
		memoryMB = 256
	}
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	c := &Container{cli: cli, image: image, memoryMB: memoryMB}
	c.harnessExecutor = harnessExecutor{name: BackendDocker, runner: c}
	return c, nil
}

func (c *Container) Close() error {
	return c.cli.Close()
}

// Ping checks that the docker daemon answers.
func (c *Container) Ping(ctx context.Context) error {
	_, err := c.cli.Ping(ctx)
	return err
}

func (c *Container) runHarness(ctx context.Context, run harnessRun) ([]byte, error) {
	env := run.env()
	env["LABGRADER_SOURCE_STDIN"] = "1"
	envList := make([]string, 0, len(env))
	for k, v := range env {
		envList = append(envList, k+"="+v)
	}

	pids := int64(64)
	resp, err := c.cli.ContainerCreate(ctx,
		&container.Config{
			Image:           c.image,
			Cmd:             []string{"node", "-e", string(harnessJS)},
			Env:             envList,
			WorkingDir:      "/tmp",
			User:            "node",
			NetworkDisabled: true,
			AttachStdin:     true,
			OpenStdin:       true,
			StdinOnce:       true,
		},
		&container.HostConfig{
			NetworkMode:    "none",
			ReadonlyRootfs: true,
			CapDrop:        []string{"ALL"},
			SecurityOpt:    []string{"no-new-privileges"},
			Resources: container.Resources{
				Memory:    int64(c.memoryMB) * 1024 * 1024,
				NanoCPUs:  1e9,
				PidsLimit: &pids,
			},
		},
		nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}
	id := resp.ID
	defer func() {
		rmCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := c.cli.ContainerRemove(rmCtx, id, container.RemoveOptions{Force: true}); err != nil {
			slog.Warn("failed to remove container", "id", shortID(id), "err", err)
		}
	}()

	stdin, err := c.cli.ContainerAttach(ctx, id, container.AttachOptions{Stream: true, Stdin: true})
	if err != nil {
		return nil, fmt.Errorf("failed to attach container stdin: %w", err)
	}
	defer stdin.Close()

	if err := c.cli.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("failed to start container: %w", err)
	}
	if err := c.feed(stdin, run); err != nil {
		return nil, err
	}

	exitCode, err := c.wait(ctx, id, run.Wall)
	if err != nil {
		return nil, err
	}

	logs, err := c.cli.ContainerLogs(ctx, id, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read container logs: %w", err)
	}
	defer logs.Close()
	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, logs); err != nil {
		return nil, fmt.Errorf("failed to demultiplex container logs: %w", err)
	}
	if exitCode != 0 {
		return nil, fmt.Errorf("container exited with code %d: %s", exitCode, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// feed writes the submission to the attached stdin and closes it.
func (c *Container) feed(stdin types.HijackedResponse, run harnessRun) error {
	if err := stdin.Conn.SetWriteDeadline(time.Now().Add(run.Wall)); err != nil {
		return fmt.Errorf("failed to set stdin deadline: %w", err)
	}
	if _, err := io.WriteString(stdin.Conn, run.Source); err != nil {
		return fmt.Errorf("failed to write submission to container: %w", err)
	}
	if err := stdin.CloseWrite(); err != nil {
		return fmt.Errorf("failed to close container stdin: %w", err)
	}
	return nil
}

// wait blocks until the container stops, killing it once wall has elapsed.
func (c *Container) wait(ctx context.Context, id string, wall time.Duration) (int64, error) {
	wctx, cancel := context.WithTimeout(ctx, wall)
	defer cancel()

	statusCh, errCh := c.cli.ContainerWait(wctx, id, container.WaitConditionNotRunning)
	select {
	case status := <-statusCh:
		return status.StatusCode, nil
	case err := <-errCh:
		if wctx.Err() == nil {
			return -1, fmt.Errorf("error waiting for container: %w", err)
		}
	case <-wctx.Done():
	}

	killCtx, kcancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer kcancel()
	if err := c.cli.ContainerKill(killCtx, id, "KILL"); err != nil {
		slog.Warn("failed to kill container", "id", shortID(id), "err", err)
	}
	if errors.Is(wctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return -1, errWatchdog
	}
	return -1, ctx.Err()
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
