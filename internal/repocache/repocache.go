// Package repocache keeps local clones of remote student repositories.
package repocache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/puzpuzpuz/xsync/v3"
)

type RepoCache struct {
	repoDirectory string
	tmpDirectory  string
	locks         *xsync.MapOf[string, *sync.Mutex]
}

// New creates the cache under root. Clones land in root/repos, partial
// clones in root/tmp until they complete.
func New(root string) (*RepoCache, error) {
	c := &RepoCache{
		repoDirectory: filepath.Join(root, "repos"),
		tmpDirectory:  filepath.Join(root, "tmp"),
		locks:         xsync.NewMapOf[string, *sync.Mutex](),
	}
	for _, dir := range []string{c.repoDirectory, c.tmpDirectory} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return c, nil
}

// Key names the cache entry for url: the repository name plus a short hash
// of the full url.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return RepoName(url) + "-" + hex.EncodeToString(sum[:])[:12]
}

// RepoName is the last path element of url without a .git suffix.
func RepoName(url string) string {
	url = strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	if i := strings.LastIndexAny(url, "/:"); i >= 0 {
		url = url[i+1:]
	}
	return url
}

// Sync returns a working tree of url, cloning it on first use and pulling
// afterwards. Concurrent calls for the same url are serialised.
func (c *RepoCache) Sync(ctx context.Context, url string) (string, error) {
	key := Key(url)
	lock, _ := c.locks.LoadOrStore(key, &sync.Mutex{})
	lock.Lock()
	defer lock.Unlock()

	dir := filepath.Join(c.repoDirectory, key)
	repo, err := git.PlainOpen(dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return dir, c.clone(ctx, url, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to open cached clone %s: %w", dir, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", err
	}
	err = wt.PullContext(ctx, &git.PullOptions{RemoteName: git.DefaultRemoteName, Force: true})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return "", fmt.Errorf("failed to pull %s: %w", url, err)
	}
	slog.Debug("cached clone updated", "url", url, "dir", dir)
	return dir, nil
}

func (c *RepoCache) clone(ctx context.Context, url, key string) error {
	tmpPath := filepath.Join(c.tmpDirectory, key)
	if err := os.RemoveAll(tmpPath); err != nil {
		return err
	}
	slog.Info("cloning repository", "url", url)
	if _, err := git.PlainCloneContext(ctx, tmpPath, false, &git.CloneOptions{URL: url}); err != nil {
		os.RemoveAll(tmpPath)
		return fmt.Errorf("failed to clone %s: %w", url, err)
	}
	if err := os.Rename(tmpPath, filepath.Join(c.repoDirectory, key)); err != nil {
		return fmt.Errorf("failed to move clone %s into cache: %w", key, err)
	}
	return nil
}
