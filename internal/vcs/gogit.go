package vcs

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// GoGit reads history through go-git, without spawning a git process.
type GoGit struct {
	repo *git.Repository
}

var _ History = (*GoGit)(nil)

// NewGoGit wraps an already opened repository.
func NewGoGit(repo *git.Repository) *GoGit {
	return &GoGit{repo: repo}
}

// OpenGoGit opens the repository containing dir, walking up to find .git.
func OpenGoGit(dir string) (*GoGit, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository at %s: %w", dir, err)
	}
	return NewGoGit(repo), nil
}

func (g *GoGit) RecentCommits(ctx context.Context, n int) ([]Commit, error) {
	if n <= 0 {
		return nil, nil
	}
	ref, err := g.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	iter, err := g.repo.Log(&git.LogOptions{From: ref.Hash(), Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	defer iter.Close()

	commits := make([]Commit, 0, n)
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		commits = append(commits, fromObject(c))
		if len(commits) >= n {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk log: %w", err)
	}
	return commits, nil
}

func (g *GoGit) ChangedFiles(ctx context.Context, sha string) ([]string, error) {
	c, err := g.repo.CommitObject(plumbing.NewHash(sha))
	if err != nil {
		return nil, fmt.Errorf("failed to load commit %s: %w", sha, err)
	}
	// same output as `git diff-tree -r` without --root or -m
	if c.NumParents() != 1 {
		return nil, nil
	}

	parent, err := c.Parent(0)
	if err != nil {
		return nil, fmt.Errorf("failed to load parent of %s: %w", sha, err)
	}
	from, err := parent.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load tree of %s: %w", parent.Hash, err)
	}
	to, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load tree of %s: %w", sha, err)
	}

	// renames stay a delete plus an add, so both paths are listed
	changes, err := object.DiffTreeWithOptions(ctx, from, to, &object.DiffTreeOptions{DetectRenames: false})
	if err != nil {
		return nil, fmt.Errorf("failed to diff %s: %w", sha, err)
	}

	paths := make([]string, 0, len(changes))
	for _, ch := range changes {
		name := ch.To.Name
		if name == "" {
			name = ch.From.Name
		}
		paths = append(paths, name)
	}
	return paths, nil
}

func (g *GoGit) Head(_ context.Context) (Commit, error) {
	ref, err := g.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return Commit{}, ErrNoHead
		}
		return Commit{}, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	c, err := g.repo.CommitObject(ref.Hash())
	if err != nil {
		return Commit{}, fmt.Errorf("failed to load HEAD commit: %w", err)
	}
	return fromObject(c), nil
}

func fromObject(c *object.Commit) Commit {
	return Commit{
		SHA:         c.Hash.String(),
		Timestamp:   c.Committer.When.Unix(),
		AuthorName:  c.Author.Name,
		AuthorEmail: c.Author.Email,
		Subject:     subjectLine(c.Message),
	}
}
