// Package lab holds the definition of the graded assignment.
package lab

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/programme-lv/labgrader/internal/grading"
	"github.com/programme-lv/labgrader/internal/provenance"
	"github.com/programme-lv/labgrader/internal/sandbox"
	"github.com/programme-lv/labgrader/internal/xdg"
)

const (
	AppName  = "labgrader"
	FileName = "lab.toml"

	maxTimeout = 10 * time.Second
)

//go:embed lab.toml
var defaultLabToml []byte

type Executor struct {
	Backend   string `toml:"backend"`
	TimeoutMs int    `toml:"timeout_ms"`
	NodeBin   string `toml:"node_bin"`
	NodeImage string `toml:"node_image"`
	MemoryMB  int    `toml:"memory_mb"`
}

type Provenance struct {
	BotSignals      []string `toml:"bot_signals"`
	IgnoredFiles    []string `toml:"ignored_files"`
	IgnoredPrefixes []string `toml:"ignored_prefixes"`
}

type Lab struct {
	Name           string         `toml:"name"`
	Title          string         `toml:"title"`
	Deadline       time.Time      `toml:"deadline"`
	SubmissionPath string         `toml:"submission_path"`
	ScanDepth      int            `toml:"scan_depth"`
	Executor       Executor       `toml:"executor"`
	Provenance     Provenance     `toml:"provenance"`
	Tasks          []grading.Task `toml:"tasks"`
}

// Default returns the embedded lab definition.
func Default() *Lab {
	l, err := parse(defaultLabToml, nil)
	if err != nil {
		panic(fmt.Sprintf("embedded lab.toml is invalid: %v", err))
	}
	return l
}

// Load reads a lab file whose keys override the embedded defaults.
func Load(path string) (*Lab, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lab file: %w", err)
	}
	l, err := parse(data, Default())
	if err != nil {
		return nil, fmt.Errorf("invalid lab file %s: %w", path, err)
	}
	return l, nil
}

// Resolve loads explicit when set, then the first lab.toml in the XDG config
// dirs, then the embedded default. It returns where the definition came from.
func Resolve(explicit string, dirs *xdg.XDGDirs) (*Lab, string, error) {
	if explicit != "" {
		l, err := Load(explicit)
		return l, explicit, err
	}
	if dirs != nil {
		if p, ok := dirs.FindConfig(AppName, FileName); ok {
			l, err := Load(p)
			return l, p, err
		}
	}
	return Default(), "embedded", nil
}

func parse(data []byte, base *Lab) (*Lab, error) {
	l := &Lab{}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(l); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("line %d column %d: %w", row, col, err)
		}
		return nil, err
	}
	if base != nil {
		l = base.merge(l)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// merge returns a copy of l with every non-zero key of o applied.
func (l *Lab) merge(o *Lab) *Lab {
	m := *l
	setIf(&m.Name, o.Name)
	setIf(&m.Title, o.Title)
	setIf(&m.SubmissionPath, o.SubmissionPath)
	setIf(&m.ScanDepth, o.ScanDepth)
	if !o.Deadline.IsZero() {
		m.Deadline = o.Deadline
	}
	setIf(&m.Executor.Backend, o.Executor.Backend)
	setIf(&m.Executor.TimeoutMs, o.Executor.TimeoutMs)
	setIf(&m.Executor.NodeBin, o.Executor.NodeBin)
	setIf(&m.Executor.NodeImage, o.Executor.NodeImage)
	setIf(&m.Executor.MemoryMB, o.Executor.MemoryMB)
	if o.Provenance.BotSignals != nil {
		m.Provenance.BotSignals = o.Provenance.BotSignals
	}
	if o.Provenance.IgnoredFiles != nil {
		m.Provenance.IgnoredFiles = o.Provenance.IgnoredFiles
	}
	if o.Provenance.IgnoredPrefixes != nil {
		m.Provenance.IgnoredPrefixes = o.Provenance.IgnoredPrefixes
	}
	if o.Tasks != nil {
		m.Tasks = o.Tasks
	}
	return &m
}

func setIf[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}

func (l *Lab) Validate() error {
	if l.SubmissionPath == "" {
		return errors.New("submission_path is required")
	}
	if l.Deadline.IsZero() {
		return errors.New("deadline is required")
	}
	if l.ScanDepth < 0 {
		return fmt.Errorf("scan_depth must not be negative, got %d", l.ScanDepth)
	}
	if t := l.Timeout(); t <= 0 || t > maxTimeout {
		return fmt.Errorf("executor.timeout_ms must be within (0, %d], got %d", maxTimeout.Milliseconds(), l.Executor.TimeoutMs)
	}
	if !sandbox.KnownBackend(l.Executor.Backend) {
		return fmt.Errorf("unknown executor.backend %q", l.Executor.Backend)
	}
	for _, t := range l.Tasks {
		if t.Marks < 0 {
			return fmt.Errorf("task %q has negative marks", t.ID)
		}
	}
	return nil
}

func (l *Lab) DeadlineMs() int64 {
	return l.Deadline.UnixMilli()
}

func (l *Lab) Timeout() time.Duration {
	return time.Duration(l.Executor.TimeoutMs) * time.Millisecond
}

func (l *Lab) ExecutorOptions() sandbox.Options {
	return sandbox.Options{
		NodeBin:   l.Executor.NodeBin,
		NodeImage: l.Executor.NodeImage,
		MemoryMB:  l.Executor.MemoryMB,
	}
}

// Classifier returns the commit classifier, using the built-in signals when none are configured.
func (l *Lab) Classifier() *provenance.Classifier {
	signals := l.Provenance.BotSignals
	if len(signals) == 0 {
		signals = provenance.DefaultBotSignals
	}
	return provenance.NewClassifier(signals)
}

func (l *Lab) PathFilter() *provenance.PathFilter {
	files, prefixes := l.Provenance.IgnoredFiles, l.Provenance.IgnoredPrefixes
	if len(files) == 0 {
		files = provenance.DefaultIgnoredFiles
	}
	if len(prefixes) == 0 {
		prefixes = provenance.DefaultIgnoredPrefixes
	}
	return provenance.NewPathFilter(files, prefixes)
}

func (l *Lab) TotalTaskMarks() int {
	sum := 0
	for _, t := range l.Tasks {
		sum += t.Marks
	}
	return sum
}
