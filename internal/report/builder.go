// Package report renders a GradeRecord as Markdown, CSV and JSON artifacts.
package report

import (
	"fmt"
	"strings"
)

// Builder accumulates Markdown text.
type Builder struct {
	sb strings.Builder
}

func (b *Builder) Line(format string, args ...any) *Builder {
	fmt.Fprintf(&b.sb, format, args...)
	b.sb.WriteByte('\n')
	return b
}

func (b *Builder) Blank() *Builder {
	b.sb.WriteByte('\n')
	return b
}

func (b *Builder) Heading(level int, text string) *Builder {
	return b.Line("%s %s", strings.Repeat("#", level), text)
}

func (b *Builder) Bullet(indent int, format string, args ...any) *Builder {
	return b.Line(strings.Repeat("  ", indent)+"- "+format, args...)
}

// Fence writes body inside a code fence.
func (b *Builder) Fence(body string) *Builder {
	b.Line("```")
	b.sb.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.sb.WriteByte('\n')
	}
	return b.Line("```")
}

func (b *Builder) String() string {
	return b.sb.String()
}
