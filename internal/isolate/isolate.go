package isolate

import (
	"context"
	"fmt"
	"os/exec"
	"slices"
	"strings"
	"sync"
)

// Isolate hands out box ids of the isolate(1) sandbox. Box ids are process-local.
type Isolate struct {
	bin      string
	idsInUse []int
	mutex    sync.Mutex
}

var (
	once     sync.Once
	instance *Isolate
)

func GetInstance() *Isolate {
	once.Do(func() {
		instance = &Isolate{bin: "isolate"}
	})
	return instance
}

// Available reports whether the isolate binary is on PATH.
func (i *Isolate) Available() bool {
	_, err := exec.LookPath(i.bin)
	return err == nil
}

func (i *Isolate) NewBox(ctx context.Context) (*Box, error) {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	id := 0
	for slices.Contains(i.idsInUse, id) {
		id++
	}

	if err := i.cleanupBox(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to clean up box %d: %w", id, err)
	}

	path, err := i.initBox(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to init box %d: %w", id, err)
	}

	i.idsInUse = append(i.idsInUse, id)
	return newBox(i, id, path), nil
}

func (i *Isolate) eraseBox(boxId int) error {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	i.idsInUse = slices.DeleteFunc(i.idsInUse, func(id int) bool { return id == boxId })
	return i.cleanupBox(context.Background(), boxId)
}

func (i *Isolate) cleanupBox(ctx context.Context, boxId int) error {
	out, err := exec.CommandContext(ctx, i.bin, "--cg", "--cleanup", "--box-id", fmt.Sprint(boxId)).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// initBox returns the box directory printed by isolate --init.
func (i *Isolate) initBox(ctx context.Context, boxId int) (string, error) {
	out, err := exec.CommandContext(ctx, i.bin, "--cg", "--init", "--box-id", fmt.Sprint(boxId)).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}
