package site

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alescoulie/sitegen/internal/logfields"
)

// copyDir copies the tree under src into dst, creating dst if needed.
// Existing files are overwritten.
func copyDir(src, dst string) error {
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
		return copyFile(p, target)
	})
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}

// stageCopyStatic copies the site-wide static directory into the staging
// root. A missing static directory is a warning; the site may simply not
// have one yet.
func stageCopyStatic(_ context.Context, bs *BuildState) error {
	g := bs.Generator
	src := g.cfg.Paths.StaticRoot()

	if _, err := os.Stat(src); os.IsNotExist(err) {
		// runStages records the returned warning, the issue entry is informational.
		missing := fmt.Errorf("static directory %s not found", src)
		bs.Report.AddIssue(IssueStaticMissing, StageCopyStatic, SeverityWarning, missing.Error(), false, nil)
		return newWarnStageError(StageCopyStatic, missing)
	}

	dst := filepath.Join(g.stageDir, "static")
	if err := copyDir(src, dst); err != nil {
		return newFatalStageError(StageCopyStatic, fmt.Errorf("copy static files: %w", err))
	}
	slog.Debug("Copied static files", logfields.Dir(src))
	return nil
}
