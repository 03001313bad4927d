package site

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"time"

	"github.com/alescoulie/sitegen/internal/buildcache"
	"github.com/alescoulie/sitegen/internal/convert"
	"github.com/alescoulie/sitegen/internal/logfields"
)

// stageConvertDocuments converts every post and project document to HTML,
// consulting the build cache first. The first conversion failure aborts the
// build; a half-converted site is worse than none.
func stageConvertDocuments(ctx context.Context, bs *BuildState) error {
	for _, post := range bs.Posts {
		body, err := bs.Generator.convertDocument(ctx, bs, post.SourcePath, post.Format)
		if err != nil {
			failed := fmt.Errorf("convert post %s: %w", post.Dir, err)
			bs.Report.AddIssue(IssueConvertFailure, StageConvertDocuments, SeverityError, failed.Error(), false, nil)
			return newFatalStageError(StageConvertDocuments, failed)
		}
		bs.PostBodies[post.Dir] = body
	}
	for _, proj := range bs.Projects {
		body, err := bs.Generator.convertDocument(ctx, bs, proj.SourcePath, proj.Format)
		if err != nil {
			failed := fmt.Errorf("convert project %s: %w", proj.Dir, err)
			bs.Report.AddIssue(IssueConvertFailure, StageConvertDocuments, SeverityError, failed.Error(), false, nil)
			return newFatalStageError(StageConvertDocuments, failed)
		}
		bs.ProjectBodies[proj.Dir] = body
	}
	return nil
}

// convertDocument runs one document through the conversion engine, serving
// from and refilling the build cache. Cache trouble degrades to direct
// conversion.
func (g *Generator) convertDocument(ctx context.Context, bs *BuildState, sourcePath, format string) (template.HTML, error) {
	source, err := os.ReadFile(sourcePath)
	if err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}

	engine, fellBack, err := g.dispatcher.EngineFor(format)
	if err != nil {
		return "", err
	}
	if fellBack && !bs.fallbackNoted {
		bs.fallbackNoted = true
		bs.Report.AddIssue(IssueConverterFallback, StageConvertDocuments, SeverityWarning,
			"pandoc unavailable, converting markdown with the built-in engine", false, nil)
	}

	key := buildcache.ConversionKey(engine, format, g.cfg.Pandoc.Args, source)
	if g.cache != nil {
		cached, ok, cacheErr := g.cache.Conversion(ctx, key)
		if cacheErr != nil {
			slog.Warn("Conversion cache lookup failed", logfields.Error(cacheErr))
		} else if ok {
			bs.Report.CacheHits++
			g.recorder.IncConvertResult(engine, true)
			return template.HTML(cached), nil
		}
	}

	t0 := time.Now()
	res, err := g.dispatcher.Convert(ctx, convert.Request{SourcePath: sourcePath, Format: format})
	g.recorder.ObserveConvertDuration(engine, time.Since(t0))
	if err != nil {
		return "", err
	}
	bs.Report.ConvertedDocuments++
	g.recorder.IncConvertResult(res.Engine, false)

	if g.cache != nil {
		if err := g.cache.StoreConversion(ctx, key, res.Engine, format, []byte(res.HTML)); err != nil {
			slog.Warn("Conversion cache store failed", logfields.Error(err))
		}
	}
	return template.HTML(res.HTML), nil
}
