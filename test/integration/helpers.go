package integration

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alescoulie/sitegen/internal/config"
	"github.com/alescoulie/sitegen/internal/site"
)

// setupFixtureSite copies a fixture source tree into a fresh temp directory
// and loads its configuration with the source pointed there, so builds never
// touch the checked-in testdata.
func setupFixtureSite(t *testing.T, fixture string) *config.Config {
	t.Helper()

	src := filepath.Join("..", "testdata", "sites", fixture)
	dir := t.TempDir()
	require.NoError(t, copyTree(src, dir), "copy fixture site")

	cfg, err := config.Load(filepath.Join(dir, "sitegen.yaml"))
	require.NoError(t, err, "load fixture config")
	cfg.Paths.Source = dir
	return cfg
}

// copyTree recursively copies a directory tree.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyOne(p, target)
	})
}

func copyOne(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()
	_, err = io.Copy(out, in)
	return err
}

// buildSite runs one full generation and requires it to finish without a
// fatal error.
func buildSite(t *testing.T, cfg *config.Config, opts site.Options) *site.BuildReport {
	t.Helper()
	report, err := site.NewGenerator(cfg, opts).Build(context.Background())
	require.NoError(t, err, "build site")
	require.NotNil(t, report)
	return report
}

// listOutputFiles returns the sorted slash-separated relative paths of every
// file under the output directory.
func listOutputFiles(t *testing.T, outputDir string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(outputDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(outputDir, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err, "walk output dir")
	sort.Strings(files)
	return files
}

// hashOutputFiles maps each relative output path to the hex SHA-256 of its
// content.
func hashOutputFiles(t *testing.T, outputDir string) map[string]string {
	t.Helper()
	hashes := map[string]string{}
	for _, rel := range listOutputFiles(t, outputDir) {
		data, err := os.ReadFile(filepath.Join(outputDir, filepath.FromSlash(rel)))
		require.NoError(t, err, "read output file %s", rel)
		sum := sha256.Sum256(data)
		hashes[rel] = hex.EncodeToString(sum[:])
	}
	return hashes
}

// verifyFileList compares the output file list against a golden listing,
// rewriting the golden file when -update-golden is set.
func verifyFileList(t *testing.T, files []string, goldenPath string, update bool) {
	t.Helper()

	actual := strings.Join(files, "\n") + "\n"
	if update {
		require.NoError(t, os.MkdirAll(filepath.Dir(goldenPath), 0o755))
		require.NoError(t, os.WriteFile(goldenPath, []byte(actual), 0o644))
		t.Logf("updated golden file: %s", goldenPath)
		return
	}

	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err, "read golden file %s", goldenPath)
	require.Equal(t, string(golden), actual, "output file list mismatch (run with -update-golden to accept)")
}

// readOutput returns the content of one generated file.
func readOutput(t *testing.T, outputDir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(outputDir, filepath.FromSlash(rel)))
	require.NoError(t, err, "read %s", rel)
	return string(data)
}
