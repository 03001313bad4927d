package site

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alescoulie/sitegen/internal/linkcheck"
	"github.com/alescoulie/sitegen/internal/logfields"
)

// stageVerifyLinks walks the staged tree and checks that every internal link
// resolves to a generated file. Broken links warn by default; strict mode
// turns them into a build failure. The stage runs against the staging
// directory so a failing strict build never replaces a good site.
func stageVerifyLinks(_ context.Context, bs *BuildState) error {
	g := bs.Generator

	result, err := linkcheck.CheckDir(g.stageDir, g.cfg.Links.Ignore)
	if err != nil {
		return newWarnStageError(StageVerifyLinks, fmt.Errorf("link verification: %w", err))
	}

	slog.Info("Verified internal links",
		slog.Int("pages", result.Pages),
		slog.Int("links", result.Links),
		slog.Int("internal", result.Internal),
		slog.Int("broken", len(result.Broken)))

	if len(result.Broken) == 0 {
		return nil
	}

	severity := SeverityWarning
	if g.cfg.Links.Strict {
		severity = SeverityError
	}
	for _, broken := range result.Broken {
		bs.Report.AddIssue(IssueBrokenLinks, StageVerifyLinks, severity, broken.String(), false, nil)
		slog.Warn("Broken internal link",
			logfields.Page(broken.Page),
			logfields.URL(broken.URL))
	}

	err = fmt.Errorf("%d broken internal links", len(result.Broken))
	if g.cfg.Links.Strict {
		return newFatalStageError(StageVerifyLinks, err)
	}
	return newWarnStageError(StageVerifyLinks, err)
}
