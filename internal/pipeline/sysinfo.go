package pipeline

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
)

// SystemInfo describes the grading host: uname output when available,
// plus the Go runtime platform.
func SystemInfo() string {
	info := fmt.Sprintf("%s/%s %s cpus=%d", runtime.GOOS, runtime.GOARCH, runtime.Version(), runtime.NumCPU())
	out, err := exec.Command("uname", "-srm").Output()
	if err != nil {
		slog.Debug("failed to get system info", "err", err)
		return info
	}
	return strings.TrimSpace(string(out)) + "; " + info
}
