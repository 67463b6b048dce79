package gitlocal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/huangsam/osshealth/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// createTestClone initializes <root>/<repo> with one commit per author.
func createTestClone(t *testing.T, root, repo string, authors ...string) []string {
	t.Helper()
	dir := filepath.Join(root, repo)
	r, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	worktree, err := r.Worktree()
	require.NoError(t, err)

	var shas []string
	for i, author := range authors {
		name := filepath.Join(dir, "file.txt")
		require.NoError(t, os.WriteFile(name, []byte(fmt.Sprintf("%s %d", author, i)), 0o644))
		_, err = worktree.Add("file.txt")
		require.NoError(t, err)

		when := base.Add(time.Duration(i) * time.Hour)
		hash, err := worktree.Commit("commit", &gogit.CommitOptions{
			Author:    &object.Signature{Name: author, Email: author, When: when},
			Committer: &object.Signature{Name: "ci", Email: "ci@example.com", When: when},
		})
		require.NoError(t, err)
		shas = append([]string{hash.String()}, shas...)
	}
	return shas
}

func TestCommits(t *testing.T) {
	root := t.TempDir()
	shas := createTestClone(t, root, "psf/requests", "alice@example.com", "bob@example.com", "")

	src := NewSource(root)
	var h schema.History
	for c, err := range src.Commits(context.Background(), "psf/requests", "master") {
		require.NoError(t, err)
		h = append(h, c)
	}

	require.Len(t, h, 3)
	assert.Equal(t, shas, shaList(h))
	assert.Equal(t, schema.NoAuthor, h[0].Author)
	assert.Equal(t, "bob@example.com", h[1].Author)
	assert.Equal(t, base, h[2].Timestamp)
	assert.Equal(t, time.UTC, h[0].Timestamp.Location())
}

func TestCommitsBranchNotFound(t *testing.T) {
	root := t.TempDir()
	createTestClone(t, root, "psf/requests", "alice@example.com")

	for _, err := range NewSource(root).Commits(context.Background(), "psf/requests", "main") {
		assert.ErrorIs(t, err, schema.ErrBranchNotFound)
	}
}

func TestCommitsEarlyStop(t *testing.T) {
	root := t.TempDir()
	createTestClone(t, root, "psf/requests", "a", "b", "c", "d")

	n := 0
	for _, err := range NewSource(root).Commits(context.Background(), "psf/requests", "master") {
		require.NoError(t, err)
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestCommitsCanceled(t *testing.T) {
	root := t.TempDir()
	createTestClone(t, root, "psf/requests", "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, err := range NewSource(root).Commits(ctx, "psf/requests", "master") {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestCommitsMissingClone(t *testing.T) {
	src := NewSource(t.TempDir())
	for _, err := range src.Commits(context.Background(), "psf/requests", "master") {
		require.Error(t, err)
		assert.NotErrorIs(t, err, schema.ErrBranchNotFound)
	}

	_, err := src.RepoPath("no-slash")
	assert.Error(t, err)
	_, err = src.RepoPath("a/b/c")
	assert.Error(t, err)
}

func TestRepoPathBare(t *testing.T) {
	root := t.TempDir()
	_, err := gogit.PlainInit(filepath.Join(root, "psf", "requests.git"), true)
	require.NoError(t, err)

	path, err := NewSource(root).RepoPath("psf/requests")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "psf", "requests.git"), path)
}

func shaList(h schema.History) []string {
	out := make([]string, 0, len(h))
	for _, c := range h {
		out = append(out, c.SHA)
	}
	return out
}
