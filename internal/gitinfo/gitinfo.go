// Package gitinfo inspects the local git repository backing a guideline
// site, so descriptor fields like the source repository identifier and
// documentation branch can be defaulted and cross-checked.
package gitinfo

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	siteerrors "git.home.luguber.info/inful/guidesite/internal/errors"
)

// Info describes the repository surrounding a directory.
type Info struct {
	// RepoIdentifier is the origin remote in "host/owner/name" form,
	// or "" when the repository has no origin remote.
	RepoIdentifier string
	// Branch is the checked-out branch name, or "" on a detached HEAD.
	Branch string
	// Commit is the HEAD commit hash.
	Commit string
}

// Inspect opens the repository containing dir (walking up to find .git)
// and reports its origin remote and HEAD state.
func Inspect(dir string) (*Info, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if err == git.ErrRepositoryNotExists {
			return nil, siteerrors.New(siteerrors.CategoryGit, siteerrors.SeverityError, "directory is not inside a git repository")
		}
		return nil, siteerrors.WrapError(err, siteerrors.CategoryGit, "open repository")
	}

	info := &Info{}

	if remote, err := repo.Remote(git.DefaultRemoteName); err == nil {
		urls := remote.Config().URLs
		if len(urls) > 0 {
			info.RepoIdentifier = NormalizeRemoteURL(urls[0])
		}
	}

	head, err := repo.Head()
	if err != nil {
		if err == plumbing.ErrReferenceNotFound {
			// Freshly initialized repository without commits.
			return info, nil
		}
		return nil, siteerrors.WrapError(err, siteerrors.CategoryGit, "resolve HEAD")
	}
	info.Commit = head.Hash().String()
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}

	return info, nil
}

// BranchMatches reports whether the checked-out branch equals the
// configured documentation branch. A detached HEAD never matches.
func (i *Info) BranchMatches(docsBranch string) bool {
	return i.Branch != "" && i.Branch == docsBranch
}

// NormalizeRemoteURL reduces a git remote URL to "host/owner/name".
// Supported forms include https://host/owner/name(.git),
// ssh://git@host/owner/name.git and the scp-like git@host:owner/name.git.
// Unrecognized URLs are returned trimmed but otherwise unchanged.
func NormalizeRemoteURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	hadScheme := false
	for _, scheme := range []string{"https://", "http://", "ssh://", "git://"} {
		if strings.HasPrefix(s, scheme) {
			s = strings.TrimPrefix(s, scheme)
			hadScheme = true
			break
		}
	}
	// scp-like syntax: git@host:owner/name.git
	if !hadScheme && strings.Contains(s, "@") && strings.Contains(s, ":") {
		s = strings.Replace(s, ":", "/", 1)
	}

	if at := strings.Index(s, "@"); at >= 0 {
		s = s[at+1:]
	}
	s = strings.TrimSuffix(s, "/")
	s = strings.TrimSuffix(s, ".git")

	// Drop an explicit port from the host segment.
	if slash := strings.Index(s, "/"); slash > 0 {
		host := s[:slash]
		if colon := strings.Index(host, ":"); colon >= 0 {
			s = host[:colon] + s[slash:]
		}
	}
	return s
}

// String renders the info for log output.
func (i *Info) String() string {
	commit := i.Commit
	if len(commit) > 8 {
		commit = commit[:8]
	}
	return fmt.Sprintf("%s@%s (%s)", i.RepoIdentifier, i.Branch, commit)
}
