package sync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitDestination writes the JSONL backup to a file in a local clone, commits
// and pushes it to origin.
type GitDestination struct {
	repo   string // path to the local clone
	file   string // file path within the repo
	branch string // branch to commit and push to
	author object.Signature
}

// NewGitDestination creates a git destination. repo is the path to an
// existing local clone with an "origin" remote.
func NewGitDestination(repo, file, branch string) *GitDestination {
	return &GitDestination{
		repo:   repo,
		file:   file,
		branch: branch,
		author: object.Signature{Name: "fundrazor", Email: "backup@fundrazor.local"},
	}
}

func (d *GitDestination) String() string {
	return "git:" + d.repo + "/" + d.file + "@" + d.branch
}

// Write writes data to the configured file, commits, and pushes. Writing
// unchanged data does not create a commit.
func (d *GitDestination) Write(ctx context.Context, data []byte) error {
	repo, err := git.PlainOpen(d.repo)
	if err != nil {
		return fmt.Errorf("open repo: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}

	branchRef := plumbing.NewBranchReferenceName(d.branch)
	if err := wt.Checkout(&git.CheckoutOptions{Branch: branchRef}); err != nil {
		if !errors.Is(err, plumbing.ErrReferenceNotFound) {
			return fmt.Errorf("git checkout: %w", err)
		}
		if err := wt.Checkout(&git.CheckoutOptions{Branch: branchRef, Create: true}); err != nil {
			return fmt.Errorf("git checkout -b: %w", err)
		}
	}

	// The remote may not have the branch yet; a failed pull is not fatal.
	_ = wt.PullContext(ctx, &git.PullOptions{
		RemoteName:    "origin",
		ReferenceName: branchRef,
		SingleBranch:  true,
	})

	filePath := filepath.Join(d.repo, d.file)
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	rel := filepath.ToSlash(d.file)
	if _, err := wt.Add(rel); err != nil {
		return fmt.Errorf("git add: %w", err)
	}

	status, err := wt.Status()
	if err != nil {
		return fmt.Errorf("git status: %w", err)
	}
	if fs, ok := status[rel]; !ok || fs.Staging == git.Unmodified {
		return nil
	}

	author := d.author
	author.When = time.Now()
	if _, err := wt.Commit("sync: update canvas backup", &git.CommitOptions{Author: &author}); err != nil {
		return fmt.Errorf("git commit: %w", err)
	}

	refSpec := config.RefSpec(fmt.Sprintf("%s:%s", branchRef, branchRef))
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []config.RefSpec{refSpec},
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("git push: %w", err)
	}
	return nil
}
