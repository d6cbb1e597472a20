// Package sandbox compiles and runs a student script in an isolated context
// and reports diagnostics. Every failure is returned as data.
package sandbox

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DefaultTimeout is the wall-clock budget of one execution.
const DefaultTimeout = 800 * time.Millisecond

// MaxLogLines caps the captured console output of one execution.
const MaxLogLines = 5000

const truncatedMarker = "... console output truncated"

type CompileResult struct {
	OK    bool
	Error string
	// HostFault is set when the runtime itself could not check the source.
	// It says nothing about the source.
	HostFault string
}

// Outcome is the result of compiling and running a script.
// Compiled=false implies Logs and RuntimeError are nil.
type Outcome struct {
	Compiled     bool     `json:"compiled"`
	CompileError *string  `json:"compile_error"`
	Logs         []string `json:"logs"`
	RuntimeError *string  `json:"runtime_error"`
}

// Executor is an isolated JavaScript runtime.
type Executor interface {
	Name() string
	// Compile checks that src parses as the body of a function.
	Compile(ctx context.Context, src string) CompileResult
	// Execute runs src with a captured console, interrupting it after timeout.
	Execute(ctx context.Context, src string, timeout time.Duration) Outcome
}

// Run compiles src and executes it only when compilation succeeds.
func Run(ctx context.Context, ex Executor, src string, timeout time.Duration) Outcome {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cr := ex.Compile(ctx, src)
	if cr.HostFault != "" {
		return Outcome{Compiled: true, Logs: []string{}, RuntimeError: strPtr(hostFault(cr.HostFault))}
	}
	if !cr.OK {
		msg := cr.Error
		return Outcome{Compiled: false, CompileError: &msg}
	}
	out := ex.Execute(ctx, src, timeout)
	out.Compiled = true
	out.CompileError = nil
	return out
}

// wrapFunctionBody makes a top-level return legal. The newline keeps a
// trailing line comment from swallowing the closing brace.
func wrapFunctionBody(src string) string {
	return "(function(){ " + src + "\n})();"
}

// wrapStrictBody is the executed form of src. The compile check stays
// sloppy, so strict-only errors surface at run time.
func wrapStrictBody(src string) string {
	return "(function(){ \"use strict\"; " + src + "\n})();"
}

func hostFault(detail string) string {
	return "host fault: " + detail
}

func timeoutMessage(timeout time.Duration) string {
	return fmt.Sprintf("Error: Script execution timed out after %dms", timeout.Milliseconds())
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}

func strPtr(s string) *string {
	return &s
}

// Backend names accepted by New.
const (
	BackendJSVM      = "jsvm"
	BackendNode      = "node"
	BackendIsolate   = "isolate"
	BackendDocker    = "docker"
	defaultNodeImage = "node:22-alpine"
)

// KnownBackend reports whether New accepts name.
func KnownBackend(name string) bool {
	switch name {
	case "", BackendJSVM, BackendNode, BackendIsolate, BackendDocker:
		return true
	}
	return false
}

type Options struct {
	NodeBin   string
	NodeImage string
	MemoryMB  int
}

// New builds the executor for backend. An empty backend selects jsvm.
func New(backend string, opts Options) (Executor, error) {
	switch backend {
	case "", BackendJSVM:
		return NewJSVM(), nil
	case BackendNode:
		return NewNode(opts.NodeBin), nil
	case BackendIsolate:
		return NewBoxed(opts.NodeBin, opts.MemoryMB), nil
	case BackendDocker:
		return NewContainer(opts.NodeImage, opts.MemoryMB)
	}
	return nil, fmt.Errorf("unknown executor backend %q", backend)
}
