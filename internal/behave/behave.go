package behave

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/programme-lv/labgrader/internal/sandbox"
)

// SpecRequest is the script run by a scenario
type SpecRequest struct {
	Code      string `toml:"code"`
	TimeoutMs int    `toml:"timeout_ms"`
}

// SpecExpect describes the expected sandbox outcome. An absent error key
// means no error of that kind is allowed; a present one is a substring.
// Absent logs are not checked.
type SpecExpect struct {
	Compiled     bool     `toml:"compiled"`
	CompileError *string  `toml:"compile_error"`
	RuntimeError *string  `toml:"runtime_error"`
	Logs         []string `toml:"logs"`
}

// specSuite maps to [[scenarios]] entries. The request is written as an
// array-of-tables, so we model it as a slice and use the first element.
type specSuite struct {
	Description string        `toml:"description"`
	RequestAOT  []SpecRequest `toml:"request"`
	Expect      SpecExpect    `toml:"expect"`
	// Backends restricts the scenario to some executors; empty means all.
	Backends []string `toml:"backends"`
}

type specRoot struct {
	Suites []specSuite `toml:"scenarios"`
}

// Case is a runnable scenario converted from TOML
type Case struct {
	Name     string
	Source   string
	Timeout  time.Duration
	Expect   SpecExpect
	Backends []string
}

// Parse reads a behaviour TOML file and converts it to runnable cases
func Parse(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read behaviour file: %w", err)
	}
	var root specRoot
	if err := toml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	cases := make([]Case, 0, len(root.Suites))
	for _, suite := range root.Suites {
		if len(suite.RequestAOT) == 0 {
			return nil, fmt.Errorf("scenario %q is missing request block", suite.Description)
		}
		req := suite.RequestAOT[0]

		timeout := sandbox.DefaultTimeout
		if req.TimeoutMs > 0 {
			timeout = time.Duration(req.TimeoutMs) * time.Millisecond
		}
		cases = append(cases, Case{
			Name:     suite.Description,
			Source:   req.Code,
			Timeout:  timeout,
			Expect:   suite.Expect,
			Backends: suite.Backends,
		})
	}
	return cases, nil
}

// AppliesTo reports whether the case should run on backend.
func (c Case) AppliesTo(backend string) bool {
	return len(c.Backends) == 0 || slices.Contains(c.Backends, backend)
}

// Check compares an outcome with the expectation and describes every mismatch.
func (c Case) Check(out sandbox.Outcome) error {
	var problems []string
	e := c.Expect

	if out.Compiled != e.Compiled {
		problems = append(problems, fmt.Sprintf("compiled=%v, want %v", out.Compiled, e.Compiled))
	}
	problems = append(problems, checkError("compile error", out.CompileError, e.CompileError)...)
	problems = append(problems, checkError("runtime error", out.RuntimeError, e.RuntimeError)...)
	if e.Logs != nil && !slices.Equal(out.Logs, e.Logs) {
		problems = append(problems, fmt.Sprintf("logs=%q, want %q", out.Logs, e.Logs))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s: %s", c.Name, strings.Join(problems, "; "))
	}
	return nil
}

func checkError(kind string, got, want *string) []string {
	switch {
	case want == nil && got != nil:
		return []string{fmt.Sprintf("unexpected %s %q", kind, *got)}
	case want != nil && got == nil:
		return []string{fmt.Sprintf("missing %s containing %q", kind, *want)}
	case want != nil && !strings.Contains(*got, *want):
		return []string{fmt.Sprintf("%s %q does not contain %q", kind, *got, *want)}
	}
	return nil
}
