package provenance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/programme-lv/labgrader/internal/provenance"
	"github.com/programme-lv/labgrader/internal/vcs"
	"github.com/programme-lv/labgrader/internal/vcs/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	human     = vcs.Commit{SHA: "c3", Timestamp: 1762200000, AuthorName: "Nora", AuthorEmail: "nora@uni.edu", Subject: "add routes"}
	infraOnly = vcs.Commit{SHA: "c4", Timestamp: 1762300000, AuthorName: "Nora", AuthorEmail: "nora@uni.edu", Subject: "tweak ci"}
	bot       = vcs.Commit{SHA: "c5", Timestamp: 1762400000, AuthorName: "github-classroom[bot]", AuthorEmail: "bot@github.com", Subject: "grade"}
	older     = vcs.Commit{SHA: "c2", Timestamp: 1762100000, AuthorName: "Nora", AuthorEmail: "nora@uni.edu", Subject: "start"}
	headC     = vcs.Commit{SHA: "c9", Timestamp: 1762900000, AuthorName: "github-actions", AuthorEmail: "actions@github.com", Subject: "artifacts"}
)

func newScanner(h vcs.History) *provenance.Scanner {
	return provenance.NewScanner(h, nil, nil, nil)
}

func TestScannerSkipsBotsAndInfraOnlyCommits(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := mocks.NewMockHistory(ctrl)
	ctx := context.Background()

	h.EXPECT().RecentCommits(gomock.Any(), 800).Return([]vcs.Commit{bot, infraOnly, human, older}, nil)
	// no ChangedFiles expectation for the bot: it must never be diffed
	h.EXPECT().ChangedFiles(gomock.Any(), "c4").Return([]string{".github/workflows/grade.yml", "grade.cjs"}, nil)
	h.EXPECT().ChangedFiles(gomock.Any(), "c3").Return([]string{"5-7-back-end-fundamentals/backend/server.js"}, nil)

	res := newScanner(h).FindLatestStudentCommit(ctx, 0)

	require.NotNil(t, res.EpochMs)
	assert.Equal(t, int64(1762200000000), *res.EpochMs)
	assert.Equal(t, "c3", res.SHA)
	assert.Equal(t, "Nora", res.Author)
	assert.Equal(t, provenance.FromStudentCommit, res.Source)
	assert.Equal(t, "2025-11-03T20:00:00.000Z", res.ISO)
}

func TestScannerTreatsEmptyOrFailedChangeSetAsGenuine(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := mocks.NewMockHistory(ctrl)

	h.EXPECT().RecentCommits(gomock.Any(), 10).Return([]vcs.Commit{infraOnly, human}, nil)
	h.EXPECT().ChangedFiles(gomock.Any(), "c4").Return(nil, errors.New("diff-tree exploded"))

	res := newScanner(h).FindLatestStudentCommit(context.Background(), 10)
	assert.Equal(t, "c4", res.SHA)
	assert.Equal(t, provenance.FromStudentCommit, res.Source)
}

func TestScannerFallsBackToHead(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := mocks.NewMockHistory(ctrl)

	h.EXPECT().RecentCommits(gomock.Any(), gomock.Any()).Return([]vcs.Commit{bot, infraOnly}, nil)
	h.EXPECT().ChangedFiles(gomock.Any(), "c4").Return([]string{"package.json"}, nil)
	h.EXPECT().Head(gomock.Any()).Return(headC, nil)

	res := newScanner(h).FindLatestStudentCommit(context.Background(), 5)
	require.NotNil(t, res.EpochMs)
	assert.Equal(t, "c9", res.SHA)
	assert.Equal(t, provenance.FromHeadFallback, res.Source)
	assert.Contains(t, res.Note, "fallback to HEAD")
}

func TestScannerHistoryFailureFallsBackToHead(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := mocks.NewMockHistory(ctrl)

	h.EXPECT().RecentCommits(gomock.Any(), gomock.Any()).Return(nil, errors.New("not a git repository"))
	h.EXPECT().Head(gomock.Any()).Return(headC, nil)

	res := newScanner(h).FindLatestStudentCommit(context.Background(), 5)
	assert.Equal(t, provenance.FromHeadFallback, res.Source)
	assert.Contains(t, res.Note, "not a git repository")
}

func TestScannerUnknownSentinel(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := mocks.NewMockHistory(ctrl)

	h.EXPECT().RecentCommits(gomock.Any(), gomock.Any()).Return(nil, errors.New("not a git repository"))
	h.EXPECT().Head(gomock.Any()).Return(vcs.Commit{}, vcs.ErrNoHead)

	res := newScanner(h).FindLatestStudentCommit(context.Background(), 5)
	assert.Nil(t, res.EpochMs)
	assert.Equal(t, "unknown", res.ISO)
	assert.Equal(t, "unknown", res.SHA)
	assert.Equal(t, provenance.FromUnknown, res.Source)
	assert.Contains(t, res.Note, "git inspection failed")
}

type panickyHistory struct{ vcs.History }

func (panickyHistory) RecentCommits(context.Context, int) ([]vcs.Commit, error) {
	panic("corrupt packfile")
}

func TestScannerRecoversFromPanics(t *testing.T) {
	res := newScanner(panickyHistory{}).FindLatestStudentCommit(context.Background(), 5)
	assert.Equal(t, provenance.FromUnknown, res.Source)
	assert.Contains(t, res.Note, "corrupt packfile")
}

// fakeHistory is a deterministic history for property-style checks.
type fakeHistory struct {
	commits []vcs.Commit
	files   map[string][]string
	head    *vcs.Commit
}

func (f fakeHistory) RecentCommits(_ context.Context, n int) ([]vcs.Commit, error) {
	if n < len(f.commits) {
		return f.commits[:n], nil
	}
	return f.commits, nil
}

func (f fakeHistory) ChangedFiles(_ context.Context, sha string) ([]string, error) {
	return f.files[sha], nil
}

func (f fakeHistory) Head(context.Context) (vcs.Commit, error) {
	if f.head == nil {
		return vcs.Commit{}, vcs.ErrNoHead
	}
	return *f.head, nil
}

func TestScannerNeverSelectsAutomation(t *testing.T) {
	authors := []struct{ name, email string }{
		{"Nora", "nora@uni.edu"},
		{"dependabot[bot]", "x@github.com"},
		{"Ali", "ali@uni.edu"},
		{"github-actions", "actions@github.com"},
	}
	fileSets := [][]string{nil, {"grade.cjs"}, {"backend/server.js"}, {"artifacts/grade.csv", "notes.md"}}

	// every combination of 3 commits drawn from the author and file tables
	for a := 0; a < 64; a++ {
		f := fakeHistory{files: map[string][]string{}}
		for i := 0; i < 3; i++ {
			au := authors[(a>>(2*i))&3]
			sha := string(rune('a' + i))
			f.commits = append(f.commits, vcs.Commit{SHA: sha, Timestamp: int64(100 - i), AuthorName: au.name, AuthorEmail: au.email})
			f.files[sha] = fileSets[(a+i)%len(fileSets)]
		}
		head := f.commits[0]
		f.head = &head

		res := newScanner(f).FindLatestStudentCommit(context.Background(), 50)
		require.NotNil(t, res.EpochMs, "head exists so a result must exist")
		if res.Source == provenance.FromStudentCommit {
			for _, c := range f.commits {
				if c.SHA == res.SHA {
					assert.False(t, provenance.IsAutomationCommit(c.AuthorName, c.AuthorEmail, c.Subject))
					assert.True(t, provenance.HasGenuineChange(f.files[c.SHA]))
				}
			}
		} else {
			assert.Equal(t, provenance.FromHeadFallback, res.Source)
		}
	}
}

func TestScannerRespectsDepth(t *testing.T) {
	f := fakeHistory{
		commits: []vcs.Commit{bot, bot, human},
		files:   map[string][]string{"c3": {"server.js"}},
		head:    &headC,
	}
	res := newScanner(f).FindLatestStudentCommit(context.Background(), 2)
	assert.Equal(t, provenance.FromHeadFallback, res.Source)

	res = newScanner(f).FindLatestStudentCommit(context.Background(), 3)
	assert.Equal(t, "c3", res.SHA)
}

func TestScannerOnGoGitRepository(t *testing.T) {
	fs := memfs.New()
	repo, err := git.Init(memory.NewStorage(), fs)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	at := time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)
	commit := func(name, email, msg string, when time.Time, paths ...string) string {
		for _, p := range paths {
			require.NoError(t, util.WriteFile(fs, p, []byte(msg), 0o644))
			_, err := wt.Add(p)
			require.NoError(t, err)
		}
		h, err := wt.Commit(msg, &git.CommitOptions{Author: &object.Signature{Name: name, Email: email, When: when}})
		require.NoError(t, err)
		return h.String()
	}

	commit("github-classroom[bot]", "bot@github.com", "Initial commit", at, "README.md")
	work := commit("Nora", "nora@uni.edu", "server", at.Add(time.Hour), "5-7-back-end-fundamentals/backend/server.js")
	commit("Nora", "nora@uni.edu", "ci", at.Add(2*time.Hour), ".github/workflows/grade.yml", "grade.cjs")
	commit("github-actions[bot]", "actions@github.com", "grade", at.Add(3*time.Hour), "artifacts/grade.csv")

	res := newScanner(vcs.NewGoGit(repo)).FindLatestStudentCommit(context.Background(), 800)
	assert.Equal(t, work, res.SHA)
	require.NotNil(t, res.EpochMs)
	assert.Equal(t, at.Add(time.Hour).UnixMilli(), *res.EpochMs)
}
