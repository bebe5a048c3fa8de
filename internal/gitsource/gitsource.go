// Package gitsource keeps a local clone of a remote card repository.
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
)

// Sync clones a git repository if it doesn't exist at the given path,
// or pulls the latest changes if it does. Progress output from the remote
// goes to progress, which may be nil.
func Sync(ctx context.Context, url, localPath string, progress io.Writer) error {
	_, err := os.Stat(localPath)
	switch {
	case os.IsNotExist(err):
		slog.Info("cloning repository", "url", url, "path", localPath)
		if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
			return fmt.Errorf("failed to create parent of %s: %w", localPath, err)
		}
		_, err := git.PlainCloneContext(ctx, localPath, false, &git.CloneOptions{
			URL:      url,
			Progress: progress,
		})
		if err != nil {
			os.RemoveAll(localPath)
			return fmt.Errorf("failed to clone repo %s: %w", url, err)
		}
		slog.Info("clone complete", "path", localPath)

	case err == nil:
		slog.Info("pulling latest changes", "path", localPath)
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing repo at %s: %w", localPath, err)
		}
		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree for repo at %s: %w", localPath, err)
		}
		err = worktree.PullContext(ctx, &git.PullOptions{
			RemoteName: "origin",
			Progress:   progress,
		})
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			slog.Info("repository already up to date", "path", localPath)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to pull changes for repo at %s: %w", localPath, err)
		}
		slog.Info("pull complete", "path", localPath)

	default:
		return fmt.Errorf("error checking path %s: %w", localPath, err)
	}
	return nil
}
