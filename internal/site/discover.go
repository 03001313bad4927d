package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alescoulie/sitegen/internal/content"
	contenterrors "github.com/alescoulie/sitegen/internal/content/errors"
	"github.com/alescoulie/sitegen/internal/logfields"
	"github.com/alescoulie/sitegen/internal/metrics"
)

// syncContent pulls the configured content repository. It runs before the
// input signature is computed so pulled changes invalidate the
// unchanged-input skip. Failures degrade to a warning; when no usable
// checkout exists the discovery stage surfaces the hard error.
func (g *Generator) syncContent(ctx context.Context, report *BuildReport) {
	t0 := time.Now()
	dir, changed, err := g.fetcher.Sync(ctx)
	elapsed := time.Since(t0)

	g.recorder.ObserveSyncDuration(elapsed, err == nil)
	report.StageDurations[string(StageSyncContent)] = elapsed
	g.recorder.ObserveStageDuration(string(StageSyncContent), elapsed)

	counts := report.StageCounts[StageSyncContent]
	if err != nil {
		counts.Warning++
		report.StageCounts[StageSyncContent] = counts
		g.recorder.IncStageResult(string(StageSyncContent), metrics.ResultWarning)
		sync := fmt.Errorf("sync content repository: %w", err)
		report.AddIssue(IssueSyncFailure, StageSyncContent, SeverityWarning, sync.Error(), true,
			newWarnStageError(StageSyncContent, sync))
		slog.Warn("Content sync failed, building from the existing checkout", logfields.Error(err))
		return
	}
	counts.Success++
	report.StageCounts[StageSyncContent] = counts
	g.recorder.IncStageResult(string(StageSyncContent), metrics.ResultSuccess)
	slog.Debug("Content repository synced", logfields.Dir(dir), "changed", changed)
}

// stageDiscoverContent walks the posts and projects roots, parsing metadata.
// A missing posts directory aborts the build. Entries with broken metadata
// are skipped with a warning so one bad post cannot take the site down.
func stageDiscoverContent(_ context.Context, bs *BuildState) error {
	g := bs.Generator

	posts, skipped, err := content.CollectPosts(g.postsRoot)
	if err != nil {
		if errors.Is(err, contenterrors.ErrPostsDirMissing) {
			bs.Report.AddIssue(IssuePostsDirMissing, StageDiscoverContent, SeverityError, err.Error(), false, nil)
			return newFatalStageError(StageDiscoverContent, err)
		}
		return newFatalStageError(StageDiscoverContent, fmt.Errorf("collect posts: %w", err))
	}

	projects, projSkipped, err := content.CollectProjects(g.projectsRoot)
	if err != nil {
		return newFatalStageError(StageDiscoverContent, fmt.Errorf("collect projects: %w", err))
	}
	skipped = append(skipped, projSkipped...)

	pages, err := listPages(g.pagesRoot, g.cfg.Site.Title)
	if err != nil {
		return newFatalStageError(StageDiscoverContent, err)
	}

	bs.Posts = posts
	bs.Projects = projects
	bs.Pages = pages
	bs.Report.Posts = len(posts)
	bs.Report.Projects = len(projects)
	bs.Report.SkippedEntries = len(skipped)

	for _, sk := range skipped {
		bs.Report.AddIssue(IssueBrokenMetadata, StageDiscoverContent, SeverityWarning,
			fmt.Sprintf("%s: %v", sk.Dir, sk.Err), false, nil)
	}

	slog.Info("Discovered content",
		logfields.Count(len(posts)),
		slog.Int("projects", len(projects)),
		slog.Int("pages", len(pages)),
		slog.Int("skipped", len(skipped)))

	if len(skipped) > 0 {
		return newWarnStageError(StageDiscoverContent,
			fmt.Errorf("%d content entries skipped for invalid metadata", len(skipped)))
	}
	if len(posts) == 0 {
		// An empty posts directory still builds, the blog index just has no
		// entries. Flag it so an operator notices.
		noPosts := fmt.Errorf("no posts found in %s", g.postsRoot)
		bs.Report.AddIssue(IssueNoPosts, StageDiscoverContent, SeverityWarning, noPosts.Error(), false, nil)
		return newWarnStageError(StageDiscoverContent, noPosts)
	}
	return nil
}
