// Package gitlocal reads commit history from local clones with go-git.
package gitlocal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/huangsam/osshealth/internal/contract"
	"github.com/huangsam/osshealth/schema"
)

// Source serves commits from clones laid out as <root>/<owner>/<name>.
// Bare clones at <root>/<owner>/<name>.git are accepted as well.
type Source struct {
	root string
}

var _ contract.CommitSource = &Source{} // Compile-time check

// NewSource creates a Source rooted at the clones directory.
func NewSource(root string) *Source {
	return &Source{root: root}
}

// RepoPath returns the clone location for repo.
func (s *Source) RepoPath(repo string) (string, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("invalid repository %q", repo)
	}
	path := filepath.Join(s.root, owner, name)
	if _, err := os.Stat(path); err != nil {
		if bare := path + ".git"; isDir(bare) {
			return bare, nil
		}
	}
	return path, nil
}

// Commits streams the commits reachable from refs/heads/<branch>, newest
// committer time first.
func (s *Source) Commits(ctx context.Context, repo, branch string) iter.Seq2[schema.Commit, error] {
	return func(yield func(schema.Commit, error) bool) {
		commits, err := s.open(repo, branch)
		if err != nil {
			yield(schema.Commit{}, err)
			return
		}
		defer commits.Close()

		for {
			if err := ctx.Err(); err != nil {
				yield(schema.Commit{}, err)
				return
			}
			commit, err := commits.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(schema.Commit{}, fmt.Errorf("iterate commits of %s: %w", repo, err))
				return
			}
			if !yield(toCommit(commit), nil) {
				return
			}
		}
	}
}

func (s *Source) open(repo, branch string) (object.CommitIter, error) {
	path, err := s.RepoPath(repo)
	if err != nil {
		return nil, err
	}
	r, err := gogit.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("open clone of %s at %s: %w", repo, path, err)
	}

	ref, err := r.Reference(plumbing.NewBranchReferenceName(branch), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, fmt.Errorf("%s@%s: %w", repo, branch, schema.ErrBranchNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve %s@%s: %w", repo, branch, err)
	}

	commits, err := r.Log(&gogit.LogOptions{From: ref.Hash(), Order: gogit.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("read commits of %s: %w", repo, err)
	}
	return commits, nil
}

// toCommit identifies authors by email, since a local clone has no platform logins.
func toCommit(c *object.Commit) schema.Commit {
	author := c.Author.Email
	if author == "" {
		author = c.Author.Name
	}
	if author == "" {
		author = schema.NoAuthor
	}
	return schema.Commit{SHA: c.Hash.String(), Timestamp: c.Committer.When.UTC(), Author: author}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
