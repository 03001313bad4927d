package fetch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/alescoulie/sitegen/internal/config"
)

// initSourceRepo creates a local git repository to clone from and returns its
// path together with the worktree for follow-up commits.
func initSourceRepo(t *testing.T) (string, *git.Worktree) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "blog_posts", "first"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blog_posts", "first", "post.json"), []byte("{}"), 0o644))

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err, "failed to initialize source repo")

	w, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, w.AddGlob("."))

	_, err = w.Commit("initial content", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err, "failed to commit")

	return dir, w
}

func commitFile(t *testing.T, dir string, w *git.Worktree, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	require.NoError(t, w.AddGlob("."))
	_, err := w.Commit("add "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}

func TestSyncClonesAndPulls(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping clone test in short mode")
	}

	source, w := initSourceRepo(t)
	stateDir := t.TempDir()

	client := NewClient(config.ContentConfig{Repository: source}, stateDir)
	require.True(t, client.Configured())

	ctx := t.Context()

	// First sync clones.
	dir, changed, err := client.Sync(ctx)
	require.NoError(t, err)
	require.True(t, changed, "initial clone should report a change")
	require.Equal(t, client.CheckoutDir(), dir)
	require.FileExists(t, filepath.Join(dir, "blog_posts", "first", "post.json"))

	head := client.Head()
	require.NotEmpty(t, head)

	// Second sync with no upstream change pulls nothing.
	_, changed, err = client.Sync(ctx)
	require.NoError(t, err)
	require.False(t, changed, "unchanged upstream should not report a change")
	require.Equal(t, head, client.Head())

	// New upstream commit is picked up.
	commitFile(t, source, w, "extra.md", "# extra\n")
	_, changed, err = client.Sync(ctx)
	require.NoError(t, err)
	require.True(t, changed, "new upstream commit should report a change")
	require.FileExists(t, filepath.Join(dir, "extra.md"))
	require.NotEqual(t, head, client.Head())
}

func TestSyncWithoutRepositoryFails(t *testing.T) {
	client := NewClient(config.ContentConfig{}, t.TempDir())
	require.False(t, client.Configured())

	_, _, err := client.Sync(t.Context())
	require.Error(t, err)
}

func TestSyncRecoversFromPartialCheckout(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping clone test in short mode")
	}

	source, _ := initSourceRepo(t)
	stateDir := t.TempDir()
	client := NewClient(config.ContentConfig{Repository: source}, stateDir)

	// A leftover directory without .git must not block the clone.
	require.NoError(t, os.MkdirAll(filepath.Join(client.CheckoutDir(), "junk"), 0o755))

	dir, changed, err := client.Sync(t.Context())
	require.NoError(t, err)
	require.True(t, changed)
	require.NoDirExists(t, filepath.Join(dir, "junk"))
}

func TestHeadWithoutCheckout(t *testing.T) {
	client := NewClient(config.ContentConfig{Repository: "https://example.org/content.git"}, t.TempDir())
	require.Empty(t, client.Head())
}
