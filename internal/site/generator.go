package site

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alescoulie/sitegen/internal/buildcache"
	"github.com/alescoulie/sitegen/internal/config"
	"github.com/alescoulie/sitegen/internal/convert"
	"github.com/alescoulie/sitegen/internal/fetch"
	"github.com/alescoulie/sitegen/internal/logfields"
	"github.com/alescoulie/sitegen/internal/metrics"
	"github.com/alescoulie/sitegen/internal/templates"
)

// CacheFileName is the SQLite database inside the state directory holding
// build history and the conversion cache.
const CacheFileName = "cache.db"

// Generator orchestrates a full site build: discovery, conversion, rendering
// and staged promotion into the output directory.
type Generator struct {
	cfg      *config.Config
	recorder metrics.Recorder

	templates  *templates.Set
	dispatcher *convert.Dispatcher
	markdown   *convert.Goldmark
	fetcher    *fetch.Client
	cache      *buildcache.Cache

	outputDir string // final output dir
	stageDir  string // ephemeral staging dir for current build

	postsRoot    string
	projectsRoot string
	pagesRoot    string

	force bool
	sync  bool
}

// Options tunes a Generator beyond its configuration.
type Options struct {
	// Force rebuilds even when the input signature matches the previous build.
	Force bool
	// SyncContent pulls the content repository before building. Ignored when
	// no repository is configured.
	SyncContent bool
	// Recorder receives build metrics. Nil means no instrumentation.
	Recorder metrics.Recorder
}

// NewGenerator creates a site generator for the given configuration.
func NewGenerator(cfg *config.Config, opts Options) *Generator {
	g := &Generator{
		cfg:        cfg,
		recorder:   metrics.NoopRecorder{},
		templates:  templates.NewSet(cfg.Paths.TemplatesRoot()),
		dispatcher: convert.NewDispatcher(cfg),
		markdown:   convert.NewGoldmark(),
		fetcher:    fetch.NewClient(cfg.Content, cfg.Paths.StateRoot()),
		outputDir:  filepath.Clean(cfg.Paths.OutputRoot()),
		force:      opts.Force,
		sync:       opts.SyncContent,
	}
	if opts.Recorder != nil {
		g.recorder = opts.Recorder
	}
	g.resolveContentRoots()
	return g
}

// Config exposes the underlying configuration.
func (g *Generator) Config() *config.Config { return g.cfg }

// OutputDir returns the final output directory.
func (g *Generator) OutputDir() string { return g.outputDir }

// SetRecorder injects a metrics recorder. Returns the generator for chaining.
func (g *Generator) SetRecorder(r metrics.Recorder) *Generator {
	if r == nil {
		g.recorder = metrics.NoopRecorder{}
		return g
	}
	g.recorder = r
	return g
}

// resolveContentRoots points posts and projects at the managed checkout when
// a content repository is configured, and at the source tree otherwise. Pages,
// static assets and templates always come from the source tree.
func (g *Generator) resolveContentRoots() {
	g.postsRoot = g.cfg.Paths.PostsRoot()
	g.projectsRoot = g.cfg.Paths.ProjectsRoot()
	g.pagesRoot = g.cfg.Paths.PagesRoot()
	if g.fetcher.Configured() {
		dir := g.fetcher.CheckoutDir()
		g.postsRoot = filepath.Join(dir, g.cfg.Paths.Posts)
		g.projectsRoot = filepath.Join(dir, g.cfg.Paths.Projects)
	}
}

// signatureRoots lists every input tree that participates in the build
// signature. Labels stay stable across root relocation so switching between a
// local tree and a synced checkout with identical content does not force a
// rebuild.
func (g *Generator) signatureRoots() []InputRoot {
	return []InputRoot{
		{Label: "posts", Path: g.postsRoot},
		{Label: "projects", Path: g.projectsRoot},
		{Label: "pages", Path: g.pagesRoot},
		{Label: "static", Path: g.cfg.Paths.StaticRoot()},
		{Label: "templates", Path: g.cfg.Paths.TemplatesRoot()},
	}
}

// InputDirs returns the directory trees feeding the build, for callers that
// watch the filesystem. Paths may overlap; some may not exist yet.
func (g *Generator) InputDirs() []string {
	roots := g.signatureRoots()
	dirs := make([]string, 0, len(roots))
	for _, r := range roots {
		dirs = append(dirs, r.Path)
	}
	return dirs
}

// Build runs the full generation pipeline and returns its report. The report
// is non-nil whenever the run got far enough to produce one, including failed
// builds; callers that only care about success can ignore it.
func (g *Generator) Build(ctx context.Context) (*BuildReport, error) {
	report := newBuildReport()
	slog.Info("Starting site generation",
		slog.String("output", g.outputDir),
		logfields.BuildID(report.BuildID))

	// The build cache backs both the unchanged-input skip and conversion
	// caching. A broken cache degrades to a full rebuild.
	stateDir := g.cfg.Paths.StateRoot()
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	cache, err := buildcache.Open(filepath.Join(stateDir, CacheFileName))
	if err != nil {
		slog.Warn("Build cache unavailable, rebuilding from scratch", logfields.Error(err))
		report.AddIssue(IssueCacheUnavailable, "", SeverityWarning, err.Error(), false, nil)
	} else {
		g.cache = cache
		defer func() {
			_ = cache.Close()
			g.cache = nil
		}()
	}

	if g.sync && g.fetcher.Configured() {
		g.syncContent(ctx, report)
	}

	sig, err := ComputeBuildSignature(g.cfg, g.signatureRoots())
	if err != nil {
		// Signature trouble only disables the skip. Discovery reports the
		// underlying problem if it affects the build proper.
		slog.Warn("Input signature unavailable", logfields.Error(err))
	} else {
		report.Signature = sig.InputHash
	}

	if !g.force && sig != nil && g.canSkipBuild(ctx, sig) {
		report.SkipReason = SkipReasonUnchanged
		report.setOutcome(OutcomeSuccess)
		report.finish()
		slog.Info("Inputs unchanged since last build, skipping",
			logfields.Signature(shortSignature(sig.InputHash)))
		return report, nil
	}

	if err := g.beginStaging(); err != nil {
		return nil, err
	}

	bs := newBuildState(g, report)

	stages := NewPipeline().
		Add(StagePrepareOutput, stagePrepareOutput).
		Add(StageDiscoverContent, stageDiscoverContent).
		Add(StageConvertDocuments, stageConvertDocuments).
		Add(StageCopyStatic, stageCopyStatic).
		Add(StageRenderPages, stageRenderPages).
		Add(StageRenderPosts, stageRenderPosts).
		Add(StageRenderBlog, stageRenderBlog).
		Add(StageRenderProjects, stageRenderProjects).
		AddIf(g.cfg.Links.Check, StageVerifyLinks, stageVerifyLinks).
		Build()

	if err := runStages(ctx, bs, stages); err != nil {
		g.abortStaging()
		report.deriveOutcome()
		report.finish()
		g.persistReport(ctx, report)
		g.recordBuildMetrics(report)
		return report, err
	}

	report.deriveOutcome()
	report.finish()
	report.Templates = g.templates.Usage()

	if err := g.finalizeStaging(); err != nil {
		return report, fmt.Errorf("finalize staging: %w", err)
	}

	g.recorder.SetOutputFiles(report.OutputFiles)
	g.persistReport(ctx, report)
	g.recordBuildMetrics(report)

	slog.Info("Site generation completed",
		slog.String("output", g.outputDir),
		logfields.Outcome(report.Outcome),
		slog.Int("posts", report.Posts),
		slog.Int("projects", report.Projects),
		slog.Int("pages", report.Pages),
		slog.Int("files", report.OutputFiles),
		slog.Int("errors", len(report.Errors)),
		slog.Int("warnings", len(report.Warnings)))
	return report, nil
}

// canSkipBuild reports whether the previous build's signature matches sig and
// its output still looks intact. Failed builds never qualify, so a fatal run
// is always retried.
func (g *Generator) canSkipBuild(ctx context.Context, sig *BuildSignature) bool {
	if g.cache == nil {
		return false
	}
	last, err := g.cache.LastBuild(ctx)
	if err != nil {
		slog.Warn("Could not read previous build record", logfields.Error(err))
		return false
	}
	if last == nil || last.Signature != sig.InputHash {
		return false
	}
	switch BuildOutcome(last.Outcome) {
	case OutcomeSuccess, OutcomeWarning:
	default:
		return false
	}
	entries, err := os.ReadDir(g.outputDir)
	if err != nil || len(entries) == 0 {
		return false
	}
	return true
}

// persistReport records the build in the state directory and the build cache.
// Both are best effort.
func (g *Generator) persistReport(ctx context.Context, report *BuildReport) {
	if err := report.Persist(g.cfg.Paths.StateRoot()); err != nil {
		slog.Warn("Failed to persist build report", logfields.Error(err))
	}
	if g.cache == nil {
		return
	}
	raw, err := json.Marshal(report.sanitizedCopy())
	if err != nil {
		slog.Warn("Failed to encode build record", logfields.Error(err))
		return
	}
	rec := buildcache.BuildRecord{
		BuildID:   report.BuildID,
		Signature: report.Signature,
		Outcome:   report.Outcome,
		Started:   report.Start,
		Finished:  report.End,
		Report:    raw,
	}
	if err := g.cache.RecordBuild(ctx, rec); err != nil {
		slog.Warn("Failed to record build in cache", logfields.Error(err))
		return
	}
	if _, err := g.cache.PruneBuilds(ctx, keptBuildRecords); err != nil {
		slog.Warn("Failed to prune build history", logfields.Error(err))
	}
}

// keptBuildRecords bounds the build history retained in the cache.
const keptBuildRecords = 50

func (g *Generator) recordBuildMetrics(report *BuildReport) {
	g.recorder.ObserveBuildDuration(report.End.Sub(report.Start))
	g.recorder.IncBuildOutcome(report.Outcome)
}

// shortSignature abbreviates a signature hash for log lines.
func shortSignature(sig string) string {
	if len(sig) > 12 {
		return sig[:12]
	}
	return sig
}
