package gitsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

func commitFile(t *testing.T, repo *git.Repository, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)
	_, err = wt.Commit("add "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}

func TestSyncClonesThenPulls(t *testing.T) {
	origin := t.TempDir()
	repo, err := git.PlainInit(origin, false)
	require.NoError(t, err)
	commitFile(t, repo, origin, "one.md", "Q: one\nA: 1\n")

	local := filepath.Join(t.TempDir(), "repos", "origin")
	ctx := context.Background()

	require.NoError(t, Sync(ctx, origin, local, nil))
	require.FileExists(t, filepath.Join(local, "one.md"))

	require.NoError(t, Sync(ctx, origin, local, nil), "pull with nothing new")

	commitFile(t, repo, origin, "two.md", "Q: two\nA: 2\n")
	require.NoError(t, Sync(ctx, origin, local, nil))
	require.FileExists(t, filepath.Join(local, "two.md"))
}

func TestSyncCloneFailureLeavesNoDirectory(t *testing.T) {
	local := filepath.Join(t.TempDir(), "clone")
	err := Sync(context.Background(), filepath.Join(t.TempDir(), "not-a-repo"), local, nil)
	require.Error(t, err)
	require.NoDirExists(t, local)
}
