package project

import (
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v6"
)

// DetectRoot resolves the repository root the tool operates on. An explicit
// override wins; otherwise the enclosing git worktree is used, falling back
// to the current working directory when not inside a repository.
func DetectRoot(override string) (string, error) {
	if override != "" {
		return filepath.Abs(override)
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	repo, err := git.PlainOpenWithOptions(wd, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return wd, nil
	}

	wt, err := repo.Worktree()
	if err != nil {
		return wd, nil
	}

	return wt.Filesystem.Root(), nil
}
