package gitinfo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRemoteURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://github.com/acme/guidelines.git", "github.com/acme/guidelines"},
		{"https://github.com/acme/guidelines", "github.com/acme/guidelines"},
		{"git@github.com:acme/guidelines.git", "github.com/acme/guidelines"},
		{"ssh://git@git.example.com:2222/platform/guidelines.git", "git.example.com/platform/guidelines"},
		{"git://git.example.com/platform/guidelines", "git.example.com/platform/guidelines"},
		{"", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, NormalizeRemoteURL(tc.in), "input %q", tc.in)
	}
}

func initTestRepo(t *testing.T) (string, *git.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	_, err = repo.CreateRemote(&gitcfg.RemoteConfig{
		Name: git.DefaultRemoteName,
		URLs: []string{"git@github.com:acme/guidelines.git"},
	})
	require.NoError(t, err)
	return dir, repo
}

func TestInspect_EmptyRepo_ReportsRemoteOnly(t *testing.T) {
	dir, _ := initTestRepo(t)

	info, err := Inspect(dir)
	require.NoError(t, err)
	require.Equal(t, "github.com/acme/guidelines", info.RepoIdentifier)
	require.Empty(t, info.Branch)
	require.Empty(t, info.Commit)
}

func TestInspect_CommittedRepo_ReportsBranchAndCommit(t *testing.T) {
	dir, repo := initTestRepo(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Guidelines\n"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	info, err := Inspect(dir)
	require.NoError(t, err)
	require.Equal(t, "master", info.Branch)
	require.NotEmpty(t, info.Commit)
	require.True(t, info.BranchMatches("master"))
	require.False(t, info.BranchMatches("main"))
}

func TestInspect_SubdirectoryOfRepo_FindsRoot(t *testing.T) {
	dir, _ := initTestRepo(t)
	sub := filepath.Join(dir, "docs", "code-style")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	info, err := Inspect(sub)
	require.NoError(t, err)
	require.Equal(t, "github.com/acme/guidelines", info.RepoIdentifier)
}

func TestInspect_NotARepository_ReturnsError(t *testing.T) {
	_, err := Inspect(t.TempDir())
	require.Error(t, err)
}
