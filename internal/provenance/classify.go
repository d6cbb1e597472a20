package provenance

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// DefaultBotSignals are lower-case substrings that mark a commit as automation.
// A human whose name or email contains one of them is misclassified.
var DefaultBotSignals = []string{
	"[bot]",
	"github-actions",
	"actions@github.com",
	"github classroom",
	"classroom[bot]",
	"dependabot",
	"autograding",
	"workflow",
	"grader",
	"autograder",
}

// DefaultIgnoredFiles are infrastructure files matched by exact repository path.
var DefaultIgnoredFiles = []string{
	"grade.cjs",
	"package.json",
	"package-lock.json",
	"grade.yml",
	".gitignore",
}

// DefaultIgnoredPrefixes are infrastructure directories.
var DefaultIgnoredPrefixes = []string{
	".github/workflows/",
	"artifacts/",
	"node_modules/",
}

// Classifier flags automation commits by substring signals.
type Classifier struct {
	signals []string
}

func NewClassifier(signals []string) *Classifier {
	lowered := make([]string, 0, len(signals))
	for _, s := range signals {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			lowered = append(lowered, s)
		}
	}
	return &Classifier{signals: lowered}
}

// IsAutomation reports whether any signal occurs in "name email subject".
func (c *Classifier) IsAutomation(authorName, authorEmail, subject string) bool {
	hay := strings.ToLower(authorName + " " + authorEmail + " " + subject)
	for _, s := range c.signals {
		if strings.Contains(hay, s) {
			return true
		}
	}
	return false
}

var defaultClassifier = NewClassifier(DefaultBotSignals)

// IsAutomationCommit classifies with DefaultBotSignals.
func IsAutomationCommit(authorName, authorEmail, subject string) bool {
	return defaultClassifier.IsAutomation(authorName, authorEmail, subject)
}

// PathFilter separates infrastructure paths from submission content.
type PathFilter struct {
	exact    mapset.Set[string]
	prefixes []string
}

func NewPathFilter(files, prefixes []string) *PathFilter {
	return &PathFilter{
		exact:    mapset.NewThreadUnsafeSet(files...),
		prefixes: append([]string(nil), prefixes...),
	}
}

func (f *PathFilter) IsIgnorable(path string) bool {
	if path == "" {
		return true
	}
	if f.exact.Contains(path) {
		return true
	}
	for _, p := range f.prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// HasGenuineChange is true when some path is not infrastructure.
// An empty change set (merge commit, root commit, failed diff) counts as genuine.
func (f *PathFilter) HasGenuineChange(paths []string) bool {
	if len(paths) == 0 {
		return true
	}
	for _, p := range paths {
		if !f.IsIgnorable(p) {
			return true
		}
	}
	return false
}

var defaultFilter = NewPathFilter(DefaultIgnoredFiles, DefaultIgnoredPrefixes)

func IsIgnorablePath(path string) bool {
	return defaultFilter.IsIgnorable(path)
}

func HasGenuineChange(paths []string) bool {
	return defaultFilter.HasGenuineChange(paths)
}
