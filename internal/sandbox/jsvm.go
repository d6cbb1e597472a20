package sandbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
)

const (
	errorSlot     = "__RUNTIME_ERROR__"
	maxCallStack  = 4096
	sourceName    = "server.js"
	catchingShell = "try { %s } catch (e) { globalThis." + errorSlot + " = (e && e.stack) ? String(e.stack) : String(e); }"
)

var errTimedOut = errors.New("timed out")

// JSVM runs scripts in a fresh goja runtime. The runtime has no require,
// process, filesystem or network bindings; only console is exposed.
type JSVM struct{}

func NewJSVM() *JSVM {
	return &JSVM{}
}

func (*JSVM) Name() string {
	return BackendJSVM
}

func (*JSVM) Compile(_ context.Context, src string) (res CompileResult) {
	defer func() {
		if r := recover(); r != nil {
			res = CompileResult{HostFault: fmt.Sprint(r)}
		}
	}()
	if _, err := goja.Compile(sourceName, wrapFunctionBody(src), false); err != nil {
		return CompileResult{OK: false, Error: err.Error()}
	}
	return CompileResult{OK: true}
}

func (*JSVM) Execute(ctx context.Context, src string, timeout time.Duration) (out Outcome) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	out.Compiled = true
	logs := newLogSink()
	defer func() {
		out.Logs = logs.lines()
		if r := recover(); r != nil {
			out.RuntimeError = strPtr(hostFault(fmt.Sprint(r)))
		}
	}()

	prog, err := goja.Compile(sourceName, fmt.Sprintf(catchingShell, wrapStrictBody(src)), false)
	if err != nil {
		out.RuntimeError = strPtr(err.Error())
		return out
	}

	vm := goja.New()
	vm.SetMaxCallStackSize(maxCallStack)

	console := vm.NewObject()
	capture := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, a := range call.Arguments {
			parts[i] = a.String()
		}
		logs.add(joinArgs(parts))
		return goja.Undefined()
	}
	for _, name := range []string{"log", "warn", "error", "info"} {
		if err := console.Set(name, capture); err != nil {
			out.RuntimeError = strPtr(err.Error())
			return out
		}
	}
	if err := vm.Set("console", console); err != nil {
		out.RuntimeError = strPtr(err.Error())
		return out
	}
	if err := vm.Set(errorSlot, goja.Null()); err != nil {
		out.RuntimeError = strPtr(err.Error())
		return out
	}

	timer := time.AfterFunc(timeout, func() { vm.Interrupt(errTimedOut) })
	defer timer.Stop()
	stop := context.AfterFunc(ctx, func() { vm.Interrupt(ctx.Err()) })
	defer stop()

	_, err = vm.RunProgram(prog)
	if err != nil {
		var interrupted *goja.InterruptedError
		switch {
		case errors.As(err, &interrupted) && interrupted.Value() == errTimedOut:
			out.RuntimeError = strPtr(timeoutMessage(timeout))
		case errors.As(err, &interrupted):
			out.RuntimeError = strPtr(fmt.Sprintf("Error: execution cancelled: %v", interrupted.Value()))
		default:
			out.RuntimeError = strPtr(err.Error())
		}
		return out
	}

	if v := vm.Get(errorSlot); v != nil && !goja.IsNull(v) && !goja.IsUndefined(v) {
		out.RuntimeError = strPtr(v.String())
	}
	return out
}

// logSink keeps console lines in call order up to MaxLogLines.
type logSink struct {
	buf       []string
	truncated bool
}

func newLogSink() *logSink {
	return &logSink{}
}

func (s *logSink) add(line string) {
	if len(s.buf) >= MaxLogLines {
		s.truncated = true
		return
	}
	s.buf = append(s.buf, line)
}

func (s *logSink) lines() []string {
	out := s.buf
	if out == nil {
		out = []string{}
	}
	if s.truncated {
		out = append(out, truncatedMarker)
	}
	return out
}
