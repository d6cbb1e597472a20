package submission

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultPath is the required submission file relative to the repository root.
const DefaultPath = "5-7-back-end-fundamentals/backend/server.js"

// MinCodeLength is the number of characters left after stripping comments
// and whitespace below which a file counts as empty.
const MinCodeLength = 10

type Submission struct {
	Path    string
	Exists  bool
	Content string
}

// Read loads root/rel. A missing file is not an error.
func Read(root, rel string) (Submission, error) {
	full := filepath.Join(root, filepath.FromSlash(rel))
	sub := Submission{Path: rel}

	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return sub, nil
	}
	if err != nil {
		return sub, fmt.Errorf("failed to read %s: %w", rel, err)
	}
	if !utf8.Valid(data) {
		data = []byte(strings.ToValidUTF8(string(data), "�"))
	}
	sub.Exists = true
	sub.Content = string(data)
	return sub, nil
}

// IsEmpty reports whether the submission is missing or has no meaningful code.
func (s Submission) IsEmpty() bool {
	return !s.Exists || IsEmptyCode(s.Content)
}

// Note is the one-line description used in reports.
func (s Submission) Note() string {
	switch {
	case !s.Exists:
		return fmt.Sprintf("❌ Required file not found: `%s`.", s.Path)
	case IsEmptyCode(s.Content):
		return fmt.Sprintf("⚠️ Found `%s` but it appears empty (or only comments).", s.Path)
	default:
		return fmt.Sprintf("✅ Found `%s`.", s.Path)
	}
}

// jsSpace is the ECMAScript WhiteSpace and LineTerminator set.
const jsSpace = `[\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]`

var (
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineComment  = regexp.MustCompile(`(?m)(^|` + jsSpace + `)//[^\n\r\x{2028}\x{2029}]*`)
	whitespace   = regexp.MustCompile(jsSpace + `+`)
)

// StripComments removes block comments and line comments that start a line
// or follow whitespace. A // glued to code such as a URL is kept.
func StripComments(code string) string {
	s := blockComment.ReplaceAllString(code, "")
	return lineComment.ReplaceAllString(s, "${1}")
}

// IsEmptyCode reports whether fewer than MinCodeLength UTF-16 code units
// remain after stripping comments and compacting whitespace.
func IsEmptyCode(code string) bool {
	s := strings.Trim(whitespace.ReplaceAllString(StripComments(code), " "), " ")
	return utf16Len(s) < MinCodeLength
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}
