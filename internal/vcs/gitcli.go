package vcs

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

const logFormat = "--format=%H|%ct|%an|%ae|%s"

// GitCLI reads history by running the git binary in dir.
type GitCLI struct {
	dir string
	bin string
}

var _ History = (*GitCLI)(nil)

func NewGitCLI(dir string) *GitCLI {
	return &GitCLI{dir: dir, bin: "git"}
}

func (g *GitCLI) RecentCommits(ctx context.Context, n int) ([]Commit, error) {
	if n <= 0 {
		return nil, nil
	}
	out, err := g.run(ctx, "log", logFormat, "-n", strconv.Itoa(n))
	if err != nil {
		return nil, err
	}
	return parseLog(out), nil
}

func (g *GitCLI) ChangedFiles(ctx context.Context, sha string) ([]string, error) {
	out, err := g.run(ctx, "diff-tree", "--no-commit-id", "--name-only", "-r", sha)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			paths = append(paths, line)
		}
	}
	return paths, nil
}

func (g *GitCLI) Head(ctx context.Context) (Commit, error) {
	out, err := g.run(ctx, "log", "-1", logFormat)
	if err != nil {
		return Commit{}, err
	}
	commits := parseLog(out)
	if len(commits) == 0 {
		return Commit{}, ErrNoHead
	}
	return commits[0], nil
}

func (g *GitCLI) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, g.bin, append([]string{"-C", g.dir}, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// parseLog reads lines of "sha|ct|an|ae|subject". The subject may itself contain '|'.
// Lines without a numeric commit time are dropped.
func parseLog(out string) []Commit {
	var commits []Commit
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 5)
		for len(parts) < 5 {
			parts = append(parts, "")
		}
		ct, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			slog.Debug("skipping log line without commit time", "line", line)
			continue
		}
		commits = append(commits, Commit{
			SHA:         parts[0],
			Timestamp:   ct,
			AuthorName:  parts[2],
			AuthorEmail: parts[3],
			Subject:     parts[4],
		})
	}
	return commits
}
