package importer

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/conorfennell/studybuddy/internal/domain"
)

// RepoPath maps a repository URL to a directory under baseDir named after
// its host and path. Both URL forms (https://host/owner/repo.git) and scp
// forms (git@host:owner/repo.git) are accepted.
func RepoPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err == nil && parsedURL.Host != "" {
		switch parsedURL.Scheme {
		case "https", "http", "ssh", "git":
			return join(baseDir, parsedURL.Host, parsedURL.Path)
		}
	}

	if at := strings.Index(repoURL, "@"); at >= 0 {
		hostAndPath := repoURL[at+1:]
		if host, repoPath, ok := strings.Cut(hostAndPath, ":"); ok && host != "" {
			return join(baseDir, host, repoPath)
		}
	}
	return "", domain.Validation(fmt.Sprintf("could not parse git URL: %s", repoURL))
}

func join(baseDir, host, repoPath string) (string, error) {
	repoPath = strings.Trim(strings.TrimSuffix(repoPath, ".git"), "/")
	if repoPath == "" {
		return "", domain.Validation("git URL has no repository path")
	}
	for _, part := range strings.Split(repoPath, "/") {
		if part == ".." {
			return "", domain.Validation("git URL path may not contain ..")
		}
	}
	return filepath.Join(baseDir, host, filepath.FromSlash(repoPath)), nil
}
