package isolate

import (
	"fmt"
	"time"
)

type Constraints struct {
	CpuTimeLimInSec      float64
	ExtraCpuTimeLimInSec float64
	WallTimeLimInSec     float64
	MemoryLimitInKB      int
	MaxProcesses         int
	MaxOpenFiles         int
}

// DefaultConstraints fit one run of a short student script under node.
func DefaultConstraints() Constraints {
	return Constraints{
		CpuTimeLimInSec:      2.0,
		ExtraCpuTimeLimInSec: 0.5,
		WallTimeLimInSec:     5.0,
		MemoryLimitInKB:      512 * 1024,
		MaxProcesses:         16,
		MaxOpenFiles:         64,
	}
}

// WithWallTime returns a copy limited to d of wall time and at most d of cpu time.
func (constraints Constraints) WithWallTime(d time.Duration) Constraints {
	constraints.WallTimeLimInSec = d.Seconds()
	if constraints.CpuTimeLimInSec > d.Seconds() {
		constraints.CpuTimeLimInSec = d.Seconds()
	}
	return constraints
}

func (constraints *Constraints) ToArgs() []string {
	return []string{
		constraints.MemLimArg(),
		constraints.CpuTimeLimArg(),
		constraints.ExtraCpuTimeLimArg(),
		constraints.WallTimeLimArg(),
		constraints.MaxProcessesArg(),
		constraints.MaxOpenFilesArg(),
	}
}

func (constraints *Constraints) MemLimArg() string {
	return fmt.Sprintf("--cg-mem=%d", constraints.MemoryLimitInKB)
}

func (constraints *Constraints) CpuTimeLimArg() string {
	return fmt.Sprintf("--time=%.3f", constraints.CpuTimeLimInSec)
}

func (constraints *Constraints) ExtraCpuTimeLimArg() string {
	return fmt.Sprintf("--extra-time=%.3f", constraints.ExtraCpuTimeLimInSec)
}

func (constraints *Constraints) WallTimeLimArg() string {
	return fmt.Sprintf("--wall-time=%.3f", constraints.WallTimeLimInSec)
}

func (constraints *Constraints) MaxProcessesArg() string {
	return fmt.Sprintf("--processes=%d", constraints.MaxProcesses)
}

func (constraints *Constraints) MaxOpenFilesArg() string {
	return fmt.Sprintf("--open-files=%d", constraints.MaxOpenFiles)
}
