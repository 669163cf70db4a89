package iac

import (
	"context"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitHubConnector is the narrow external port the post-apply commit
// flow calls once a branch is staged locally: it owns the actual
// push and pull-request creation against GitHub/Bitbucket, which are
// explicitly out of scope for this package.
type GitHubConnector interface {
	IsConnected(ctx context.Context, principal string) (bool, error)
	Push(ctx context.Context, principal, repo, branch string) error
	OpenPullRequest(ctx context.Context, principal, repo, branch, title, body string) (url string, err error)
}

// CommitSuggestion is the shape iac_apply attaches to its envelope
// when a GitHub connection is present and a commit is ready to be
// pushed.
type CommitSuggestion struct {
	Status        string // "ready_for_commit", "not_connected", "error"
	Repo          string
	Branch        string
	CommitMessage string
	Error         string
}

// PrepareGitHubCommit stages every file under dir into a local git
// repository (initializing one if absent), commits them on a fresh
// branch, and returns a suggestion the caller can hand to
// GitHubConnector.Push/OpenPullRequest. It never pushes itself — this
// package only prepares the local commit.
func PrepareGitHubCommit(dir, sessionID, authorName, authorEmail string) (CommitSuggestion, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		repo, err = git.PlainInit(dir, false)
		if err != nil {
			return CommitSuggestion{Status: "error", Error: err.Error()}, fmt.Errorf("iac: init git repo: %w", err)
		}
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return CommitSuggestion{Status: "error", Error: err.Error()}, fmt.Errorf("iac: open worktree: %w", err)
	}

	if _, err := worktree.Add("."); err != nil {
		return CommitSuggestion{Status: "error", Error: err.Error()}, fmt.Errorf("iac: stage changes: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return CommitSuggestion{Status: "error", Error: err.Error()}, fmt.Errorf("iac: read status: %w", err)
	}
	if status.IsClean() {
		return CommitSuggestion{Status: "not_connected", Error: "no changes to commit"}, nil
	}

	branch := fmt.Sprintf("aurora/terraform-%s", shortID(sessionID))
	headRef := plumbing.NewBranchReferenceName(branch)
	if err := worktree.Checkout(&git.CheckoutOptions{Branch: headRef, Create: true}); err != nil {
		return CommitSuggestion{Status: "error", Error: err.Error()}, fmt.Errorf("iac: checkout branch: %w", err)
	}

	commitMessage := fmt.Sprintf("Apply Terraform changes from Aurora session %s", shortID(sessionID))
	_, err = worktree.Commit(commitMessage, &git.CommitOptions{
		Author: &object.Signature{Name: authorName, Email: authorEmail, When: time.Now()},
	})
	if err != nil {
		return CommitSuggestion{Status: "error", Error: err.Error()}, fmt.Errorf("iac: commit: %w", err)
	}

	return CommitSuggestion{
		Status:        "ready_for_commit",
		Branch:        branch,
		CommitMessage: commitMessage,
	}, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
