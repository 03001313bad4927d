package site

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/alescoulie/sitegen/internal/content"
	"github.com/alescoulie/sitegen/internal/logfields"
	"github.com/alescoulie/sitegen/internal/templates"
)

// postDepth is how many directories a published post sits below the site
// root (posts/<dir>/).
const postDepth = 2

// stageRenderPosts writes every post page and its static assets into the
// staging tree.
func stageRenderPosts(_ context.Context, bs *BuildState) error {
	g := bs.Generator
	var missingStatic int

	for _, post := range bs.Posts {
		header, navbar, err := g.chrome(bs, post.Title+" - "+g.cfg.Site.Title, postDepth)
		if err != nil {
			return newFatalStageError(StageRenderPosts, err)
		}

		page, err := g.templates.Render(templates.KindPost, templates.PostData{
			Header:  header,
			Navbar:  navbar,
			Title:   post.Title,
			Author:  post.AuthorsString(),
			Date:    post.DateString(),
			Content: bs.PostBodies[post.Dir],
		})
		if err != nil {
			return newFatalStageError(StageRenderPosts, fmt.Errorf("render post %s: %w", post.Dir, err))
		}

		rel := path.Join("posts", post.Dir, post.OutputName())
		if err := g.writeOutput(bs, rel, page); err != nil {
			return newFatalStageError(StageRenderPosts, err)
		}

		copied, err := g.copyEntryStatic(bs, StageRenderPosts, g.postsRoot, post.Dir, post.StaticDir, path.Join("posts", post.Dir))
		if err != nil {
			return newFatalStageError(StageRenderPosts, err)
		}
		if !copied && post.StaticDir != "" {
			missingStatic++
		}
		slog.Debug("Rendered post", logfields.Post(post.Dir), logfields.Path(rel))
	}

	if missingStatic > 0 {
		return newWarnStageError(StageRenderPosts,
			fmt.Errorf("%d posts reference a missing static directory", missingStatic))
	}
	return nil
}

// copyEntryStatic copies a content entry's assets directory to the published
// location, always named "static" so thumbnails and in-document references
// stay stable. A missing source directory is recorded as an issue and
// reported by the caller; the entry itself still publishes.
func (g *Generator) copyEntryStatic(bs *BuildState, stage StageName, srcRoot, dir, staticDir, relOut string) (bool, error) {
	if staticDir == "" {
		return false, nil
	}
	src := filepath.Join(srcRoot, dir, staticDir)
	if _, err := os.Stat(src); os.IsNotExist(err) {
		bs.Report.AddIssue(IssueStaticMissing, stage, SeverityWarning,
			fmt.Sprintf("%s: static directory %s not found", dir, staticDir), false, nil)
		return false, nil
	}

	dst := filepath.Join(g.stageDir, filepath.FromSlash(relOut), content.PublishedStaticDir)
	if err := copyDir(src, dst); err != nil {
		return false, fmt.Errorf("copy static for %s: %w", dir, err)
	}
	return true, nil
}
