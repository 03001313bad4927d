package integration

import (
	"context"
	"flag"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alescoulie/sitegen/internal/config"
	cerrors "github.com/alescoulie/sitegen/internal/content/errors"
	"github.com/alescoulie/sitegen/internal/site"
)

var updateGolden = flag.Bool("update-golden", false, "Update golden files")

// TestGolden_BasicSiteStructure builds the basic fixture site end to end.
// This test verifies:
// - All expected output files are produced, and nothing else
// - Posts, projects and standalone pages are all discovered
// - Tag pages are generated for every tag in use
// - Per-post and per-project static assets are copied alongside the pages.
func TestGolden_BasicSiteStructure(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping golden test in short mode")
	}

	cfg := setupFixtureSite(t, "basic")
	report := buildSite(t, cfg, site.Options{})

	assert.Equal(t, site.OutcomeSuccess, report.OutcomeT)
	assert.Equal(t, 2, report.Posts)
	assert.Equal(t, 1, report.Projects)
	assert.Equal(t, 4, report.Pages)
	assert.Empty(t, report.SkipReason)

	files := listOutputFiles(t, cfg.Paths.OutputRoot())
	verifyFileList(t, files, filepath.Join("..", "testdata", "golden", "basic-site", "files.txt"), *updateGolden)
}

// TestGolden_RenderedContent spot-checks generated pages for the content the
// fixture sources should produce.
// This test verifies:
// - Markdown pages render body content with the shared chrome
// - The blog index lists posts newest first
// - Post pages carry title, authors and tag links
// - Hidden pages render but stay out of the navigation bar.
func TestGolden_RenderedContent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping golden test in short mode")
	}

	cfg := setupFixtureSite(t, "basic")
	buildSite(t, cfg, site.Options{})
	out := cfg.Paths.OutputRoot()

	index := readOutput(t, out, "index.html")
	assert.Contains(t, index, "Welcome")
	assert.Contains(t, index, "Test Site")

	blog := readOutput(t, out, "blog.html")
	first := readOutput(t, out, "posts/first-post/post.html")
	assert.Contains(t, blog, "Second Post")
	assert.Contains(t, blog, "First Post")
	// Newest post (May 2024) must precede the older one (March 2024).
	assert.Less(t, strings.Index(blog, "Second Post"), strings.Index(blog, "First Post"),
		"blog index should list newest post first")

	assert.Contains(t, first, "First Post")
	assert.Contains(t, first, "Alex Author")
	assert.Contains(t, first, "first post on the test site")

	tagPage := readOutput(t, out, "go.html")
	assert.Contains(t, tagPage, "First Post")
	assert.Contains(t, tagPage, "Second Post")

	// drafts.md is hidden: rendered, but absent from the navbar.
	drafts := readOutput(t, out, "drafts.html")
	assert.NotEmpty(t, drafts)
	assert.NotContains(t, index, "drafts.html")
}

// TestGolden_RebuildByteIdentical forces a second full build over unchanged
// inputs and compares every output file byte for byte.
// This test verifies:
// - Generation is deterministic: no timestamps or build IDs leak into output
// - A forced rebuild reproduces the exact same site.
func TestGolden_RebuildByteIdentical(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping golden test in short mode")
	}

	cfg := setupFixtureSite(t, "basic")
	buildSite(t, cfg, site.Options{})
	before := hashOutputFiles(t, cfg.Paths.OutputRoot())

	report := buildSite(t, cfg, site.Options{Force: true})
	require.Empty(t, report.SkipReason, "forced rebuild must not be skipped")
	after := hashOutputFiles(t, cfg.Paths.OutputRoot())

	require.Equal(t, before, after, "rebuild over unchanged inputs must be byte-identical")
}

// TestGolden_UnchangedInputsSkipped rebuilds without force and expects the
// signature check to short-circuit the pipeline.
// This test verifies:
// - A second build over unchanged inputs is skipped via the build cache
// - Touching a source file invalidates the signature and triggers a full run
// - The modified content shows up in the regenerated output.
func TestGolden_UnchangedInputsSkipped(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping golden test in short mode")
	}

	cfg := setupFixtureSite(t, "basic")
	buildSite(t, cfg, site.Options{})

	second := buildSite(t, cfg, site.Options{})
	assert.Equal(t, site.SkipReasonUnchanged, second.SkipReason)
	assert.Equal(t, site.OutcomeSuccess, second.OutcomeT)

	postPath := filepath.Join(cfg.Paths.PostsRoot(), "first-post", "post.md")
	f, err := os.OpenFile(postPath, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("\nA freshly appended paragraph.\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	third := buildSite(t, cfg, site.Options{})
	assert.Empty(t, third.SkipReason, "modified input must force a rebuild")
	page := readOutput(t, cfg.Paths.OutputRoot(), "posts/first-post/post.html")
	assert.Contains(t, page, "freshly appended paragraph")
}

// TestGolden_MissingPostsDir removes the posts directory before building.
// This test verifies:
// - The build aborts with the posts-directory-missing error
// - No output directory is promoted
// - No staging directory is left behind.
func TestGolden_MissingPostsDir(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping golden test in short mode")
	}

	cfg := setupFixtureSite(t, "basic")
	require.NoError(t, os.RemoveAll(cfg.Paths.PostsRoot()))

	report, err := site.NewGenerator(cfg, site.Options{}).Build(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, cerrors.ErrPostsDirMissing)
	require.NotNil(t, report)
	assert.Equal(t, site.OutcomeFailed, report.OutcomeT)

	_, statErr := os.Stat(cfg.Paths.OutputRoot())
	assert.True(t, os.IsNotExist(statErr), "failed build must not promote output")
	_, statErr = os.Stat(cfg.Paths.OutputRoot() + "_stage")
	assert.True(t, os.IsNotExist(statErr), "failed build must clean up staging")
}

// TestGolden_FailedBuildKeepsPreviousOutput breaks the site after a good
// build and rebuilds.
// This test verifies:
// - A failed rebuild leaves the previously promoted output untouched.
func TestGolden_FailedBuildKeepsPreviousOutput(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping golden test in short mode")
	}

	cfg := setupFixtureSite(t, "basic")
	buildSite(t, cfg, site.Options{})
	before := hashOutputFiles(t, cfg.Paths.OutputRoot())
	require.NoError(t, os.RemoveAll(cfg.Paths.PostsRoot()))

	_, err := site.NewGenerator(cfg, site.Options{}).Build(context.Background())
	require.Error(t, err)

	after := hashOutputFiles(t, cfg.Paths.OutputRoot())
	assert.Equal(t, before, after, "failed rebuild must keep the previous output")
}

// TestGolden_PandocConverter runs the build with the external pandoc engine.
// This test verifies:
// - Documents are converted through pandoc when it is on PATH
// - The converted post body reaches the generated page.
func TestGolden_PandocConverter(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping golden test in short mode")
	}
	if _, err := exec.LookPath("pandoc"); err != nil {
		t.Skip("pandoc not on PATH")
	}

	cfg := setupFixtureSite(t, "basic")
	cfg.Converter = config.ConverterPandoc

	report := buildSite(t, cfg, site.Options{})
	assert.Equal(t, site.OutcomeSuccess, report.OutcomeT)

	page := readOutput(t, cfg.Paths.OutputRoot(), "posts/first-post/post.html")
	assert.Contains(t, page, "first post on the test site")
	assert.Contains(t, page, "<em>emphasis</em>")
}
