// Package serve implements the local preview server: an initial build, a
// filesystem watcher with debounced rebuilds, SSE livereload and an optional
// periodic content sync.
package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"github.com/alescoulie/sitegen/internal/config"
	"github.com/alescoulie/sitegen/internal/logfields"
	"github.com/alescoulie/sitegen/internal/metrics"
	"github.com/alescoulie/sitegen/internal/site"
)

const shutdownTimeout = 5 * time.Second

// Options configures a preview server beyond what the config file carries.
type Options struct {
	Recorder metrics.Recorder // nil uses the no-op recorder
	Metrics  http.Handler     // mounted at /metrics when non-nil
}

// Server owns the preview lifecycle. Create with New, run with Run; Run
// blocks until the context is canceled or the HTTP listener fails.
type Server struct {
	cfg      *config.Config
	recorder metrics.Recorder
	metricsH http.Handler
	hub      *Hub
	status   *buildStatus
	started  time.Time

	outputDir string
	inputDirs []string

	rebuildReq chan struct{}
	pend       struct {
		sync.Mutex
		sync bool // next rebuild should re-sync remote content
	}
}

// buildStatus tracks the latest build result for the health endpoint.
type buildStatus struct {
	mu         sync.RWMutex
	lastErr    error
	lastReport *site.BuildReport
	good       bool // at least one successful build exists
}

func (bs *buildStatus) setError(err error, report *site.BuildReport) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastErr = err
	if report != nil {
		bs.lastReport = report
	}
}

func (bs *buildStatus) setSuccess(report *site.BuildReport) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastErr = nil
	bs.lastReport = report
	bs.good = true
}

func (bs *buildStatus) snapshot() (err error, report *site.BuildReport, good bool) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.lastErr, bs.lastReport, bs.good
}

// New creates a preview server for cfg.
func New(cfg *config.Config, opts Options) *Server {
	rec := opts.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	s := &Server{
		cfg:        cfg,
		recorder:   rec,
		metricsH:   opts.Metrics,
		status:     &buildStatus{},
		rebuildReq: make(chan struct{}, 1),
	}
	s.hub = NewHub(rec.SetLiveReloadClients)
	// A probe generator resolves the same roots every rebuild will use.
	probe := site.NewGenerator(cfg, site.Options{})
	s.outputDir = probe.OutputDir()
	s.inputDirs = probe.InputDirs()
	return s
}

// Run builds the site, starts serving it and watches for changes until ctx is
// canceled.
func (s *Server) Run(ctx context.Context) error {
	s.started = time.Now()

	// First build before accepting connections, so the initial page load and
	// the livereload baseline both see current output. A failed build is not
	// fatal: the previous output (if any) keeps being served.
	s.buildOnce(ctx, s.cfg.Content.Repository != "")

	ln, err := net.Listen("tcp", s.cfg.Serve.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Serve.Addr, err)
	}
	httpSrv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       300 * time.Second, // SSE connections stay open
	}
	serveErr := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	slog.Info("Preview server listening",
		logfields.Addr(ln.Addr().String()),
		logfields.URL("http://"+ln.Addr().String()),
		slog.Bool("live_reload", s.cfg.Serve.LiveReloadEnabled()))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		_ = httpSrv.Close()
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	for _, dir := range watchRoots(s.inputDirs) {
		if err := addTreeRecursive(watcher, dir); err != nil {
			slog.Warn("Watch setup incomplete", logfields.Dir(dir), logfields.Error(err))
		}
	}

	scheduler, err := s.startSyncScheduler()
	if err != nil {
		_ = httpSrv.Close()
		return err
	}

	s.startRebuildWorker(ctx)
	debounce := s.debouncer()

	for {
		select {
		case <-ctx.Done():
			return s.shutdown(httpSrv, scheduler)
		case err := <-serveErr:
			s.stopScheduler(scheduler)
			return fmt.Errorf("http server: %w", err)
		case ev, ok := <-watcher.Events:
			if !ok {
				return s.shutdown(httpSrv, scheduler)
			}
			s.handleFileEvent(watcher, ev, debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return s.shutdown(httpSrv, scheduler)
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// Handler assembles the HTTP routes: the generated site at /, livereload
// endpoints, health and optional metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	siteFS := http.Handler(http.FileServer(http.Dir(s.outputDir)))
	if s.cfg.Serve.LiveReloadEnabled() {
		siteFS = withLiveReload(siteFS)
		mux.Handle("/livereload", s.hub)
		mux.HandleFunc("/livereload.js", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/javascript")
			w.Header().Set("Cache-Control", "no-cache")
			_, _ = w.Write([]byte(Script))
		})
	}
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.metricsH != nil {
		mux.Handle("/metrics", s.metricsH)
	}
	mux.Handle("/", siteFS)
	return mux
}

// buildOnce runs one full build and publishes the result to status and
// livereload. Rebuilds whose signature matches the last broadcast produce no
// reload.
func (s *Server) buildOnce(ctx context.Context, syncContent bool) {
	gen := site.NewGenerator(s.cfg, site.Options{SyncContent: syncContent, Recorder: s.recorder})
	report, err := gen.Build(ctx)
	if err != nil {
		slog.Warn("Build failed; keeping previous output", logfields.Error(err))
		s.status.setError(err, report)
		return
	}
	s.status.setSuccess(report)
	hash := report.Signature
	if hash == "" {
		hash = report.BuildID
	}
	s.hub.Broadcast(hash)
}

// trigger requests a rebuild. The sync flag is sticky: once any request asks
// for a content sync, the next rebuild performs one.
func (s *Server) trigger(syncContent bool) {
	if syncContent {
		s.pend.Lock()
		s.pend.sync = true
		s.pend.Unlock()
	}
	select {
	case s.rebuildReq <- struct{}{}:
	default:
	}
}

// takeSyncFlag consumes the pending sync request.
func (s *Server) takeSyncFlag() bool {
	s.pend.Lock()
	defer s.pend.Unlock()
	v := s.pend.sync
	s.pend.sync = false
	return v
}

// debouncer returns a function that schedules a rebuild request after a quiet
// period, collapsing event bursts into one build.
func (s *Server) debouncer() func() {
	var mu sync.Mutex
	var timer *time.Timer
	return func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounceWindow, func() { s.trigger(false) })
	}
}

// startRebuildWorker processes rebuild requests one at a time. Requests that
// arrive mid-build coalesce into a single follow-up build.
func (s *Server) startRebuildWorker(ctx context.Context) {
	var mu sync.Mutex
	running := false
	pending := false

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.rebuildReq:
				mu.Lock()
				if running {
					pending = true
					mu.Unlock()
					continue
				}
				running = true
				mu.Unlock()

				slog.Info("Change detected; rebuilding site")
				s.buildOnce(ctx, s.takeSyncFlag())

				mu.Lock()
				running = false
				if pending {
					pending = false
					mu.Unlock()
					s.trigger(false)
					continue
				}
				mu.Unlock()
			}
		}
	}()
}

func (s *Server) handleFileEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, debounce func()) {
	if shouldIgnoreEvent(ev) {
		return
	}
	// New directories need their own watch before events inside them arrive.
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addTreeRecursive(watcher, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	debounce()
}

// startSyncScheduler schedules the periodic content re-sync when configured.
// Returns a nil scheduler when the feature is off.
func (s *Server) startSyncScheduler() (gocron.Scheduler, error) {
	interval := s.cfg.Serve.SyncInterval
	if interval <= 0 || s.cfg.Content.Repository == "" {
		return nil, nil
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			slog.Debug("Scheduled content sync", slog.Duration("interval", interval))
			s.trigger(true)
		}),
		gocron.WithName("content-sync"),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("schedule content sync: %w", err)
	}
	scheduler.Start()
	slog.Info("Periodic content sync enabled", slog.Duration("interval", interval))
	return scheduler, nil
}

func (s *Server) stopScheduler(scheduler gocron.Scheduler) {
	if scheduler == nil {
		return
	}
	if err := scheduler.Shutdown(); err != nil {
		slog.Warn("Scheduler shutdown error", logfields.Error(err))
	}
}

func (s *Server) shutdown(httpSrv *http.Server, scheduler gocron.Scheduler) error {
	slog.Info("Shutting down preview server")
	s.stopScheduler(scheduler)
	s.hub.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP server shutdown error", logfields.Error(err))
	}
	return nil
}
