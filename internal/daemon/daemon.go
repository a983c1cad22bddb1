// Package daemon implements serve mode: an initial build, a preview HTTP
// server over the output tree, a recursive source watch feeding debounced
// rebuilds, and the optional periodic rebuild, metrics endpoint and
// build-event publisher around them.
package daemon

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/mkrogh/sitegen/internal/build"
	"github.com/mkrogh/sitegen/internal/config"
	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
	"github.com/mkrogh/sitegen/internal/logfields"
	"github.com/mkrogh/sitegen/internal/manifest"
	"github.com/mkrogh/sitegen/internal/metrics"
	"github.com/mkrogh/sitegen/internal/notify"
	"github.com/mkrogh/sitegen/internal/version"
)

// Daemon owns the serve-mode lifecycle. Create one with New and drive it
// with Run; cancellation of the Run context triggers a graceful shutdown.
type Daemon struct {
	cfg       *config.Config
	sourceDir string
	outputDir string
	skip      []string // absolute prefixes excluded from watching

	builds   build.Service
	store    manifest.Store
	recorder metrics.Recorder
	notifier notify.Notifier
	hub      *LiveReloadHub
	debounce *Debouncer

	scheduleCh chan struct{}
	state      buildState
	startTime  time.Time

	readyOnce   sync.Once
	ready       chan struct{}
	previewAddr string
}

// ServeStatus is the JSON shape returned by /api/status.
type ServeStatus struct {
	Status       string     `json:"status"`
	Version      string     `json:"version"`
	StartTime    time.Time  `json:"start_time"`
	Uptime       string     `json:"uptime"`
	Builds       int64      `json:"builds"`
	HasGoodBuild bool       `json:"has_good_build"`
	Clients      int        `json:"livereload_clients"`
	LastBuild    *LastBuild `json:"last_build,omitempty"`
}

// LastBuild summarizes the most recent build run.
type LastBuild struct {
	RunID    string    `json:"run_id"`
	Outcome  string    `json:"outcome"`
	Finished time.Time `json:"finished"`
	Summary  string    `json:"summary,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// buildState tracks recent build results for the status endpoint.
type buildState struct {
	mu     sync.RWMutex
	builds int64
	last   *LastBuild
	good   bool
}

func (s *buildState) record(last *LastBuild, good bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.builds++
	s.last = last
	if good {
		s.good = true
	}
}

func (s *buildState) snapshot() (builds int64, good bool, last *LastBuild) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last != nil {
		cp := *s.last
		last = &cp
	}
	return s.builds, s.good, last
}

// New validates the directories and assembles a daemon with the default
// no-op recorder and notifier. Run swaps in the real ones per config.
func New(cfg *config.Config, sourceDir, outputDir string) (*Daemon, error) {
	absSource, err := filepath.Abs(sourceDir)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryDaemon, "resolve source directory").Build()
	}
	if st, statErr := os.Stat(absSource); statErr != nil || !st.IsDir() {
		return nil, ferrors.DaemonError("source directory not found: " + absSource).Build()
	}
	absOutput, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryDaemon, "resolve output directory").Build()
	}

	quiet := time.Duration(cfg.Serve.DebounceMS) * time.Millisecond
	return &Daemon{
		cfg:        cfg,
		sourceDir:  absSource,
		outputDir:  absOutput,
		builds:     build.NewService(),
		recorder:   metrics.NoopRecorder{},
		notifier:   notify.NoopNotifier{},
		hub:        NewLiveReloadHub(),
		debounce:   NewDebouncer(quiet, 0),
		scheduleCh: make(chan struct{}, 1),
		startTime:  time.Now(),
		ready:      make(chan struct{}),
	}, nil
}

// Ready is closed once the initial build has run and the preview server and
// watcher are up. Intended for tests and deterministic startup sequencing.
func (d *Daemon) Ready() <-chan struct{} {
	return d.ready
}

// PreviewAddr returns the bound preview address, valid once Ready is closed.
func (d *Daemon) PreviewAddr() string {
	return d.previewAddr
}

// Run executes serve mode until the context is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	// One store shared across rebuilds, so incremental state does not pay a
	// database open per run.
	store, err := manifest.NewSQLiteStore(d.cfg.ManifestPath(d.outputDir))
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryDaemon, "open manifest store").Build()
	}
	defer func() { _ = store.Close() }()
	d.store = store

	notifier, err := notify.New(d.cfg.Notify)
	if err != nil {
		return err
	}
	defer func() { _ = notifier.Close() }()
	d.notifier = notifier

	stopMetrics, err := d.startMetrics()
	if err != nil {
		return err
	}
	defer stopMetrics()

	// Initial build. A failure lands on the status API instead of aborting,
	// so the author can fix the source while the watcher keeps running.
	d.runBuild(ctx, false, "initial build")

	addr := net.JoinHostPort(d.cfg.Serve.Bind, strconv.Itoa(d.cfg.Serve.Port))
	server := NewPreviewServer(addr, d.outputDir, d.hub, d.snapshotStatus)
	if err := server.Start(ctx); err != nil {
		return err
	}

	d.skip = []string{d.outputDir, filepath.Dir(d.cfg.ManifestPath(d.outputDir))}
	watcher, err := setupWatcher(d.sourceDir, d.skip)
	if err != nil {
		_ = server.Stop(context.Background())
		return err
	}
	defer func() { _ = watcher.Close() }()

	stopScheduler, err := d.startScheduler()
	if err != nil {
		_ = server.Stop(context.Background())
		return err
	}
	defer stopScheduler()

	go d.rebuildLoop(ctx)

	d.previewAddr = server.Addr()
	d.readyOnce.Do(func() { close(d.ready) })

	slog.Info("Watching for changes", logfields.Source(d.sourceDir))
	return d.watchLoop(ctx, watcher, server)
}

// watchLoop forwards filesystem events into the debouncer until shutdown.
func (d *Daemon) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, server *PreviewServer) error {
	for {
		select {
		case <-ctx.Done():
			return d.shutdown(server)
		case ev, ok := <-watcher.Events:
			if !ok {
				return d.shutdown(server)
			}
			d.handleFileEvent(watcher, ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return d.shutdown(server)
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (d *Daemon) handleFileEvent(watcher *fsnotify.Watcher, ev fsnotify.Event) {
	if shouldIgnoreEvent(ev.Name) || underAny(ev.Name, d.skip) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(watcher, ev.Name, d.skip)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	d.debounce.Notify()
	d.recorder.SetWatchQueueDepth(1)
}

// rebuildLoop serializes rebuilds from the debouncer and the scheduler.
func (d *Daemon) rebuildLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.debounce.C():
			d.recorder.SetWatchQueueDepth(0)
			d.runBuild(ctx, false, "files changed")
		case <-d.scheduleCh:
			d.runBuild(ctx, true, "scheduled rebuild")
		}
	}
}

func (d *Daemon) runBuild(ctx context.Context, force bool, reason string) {
	slog.Info("Build starting", slog.String("reason", reason), logfields.Source(d.sourceDir))

	res, err := d.builds.Run(ctx, build.Request{
		Config:    d.cfg,
		SourceDir: d.sourceDir,
		OutputDir: d.outputDir,
		Options: build.Options{
			Force:    force,
			Recorder: d.recorder,
			Store:    d.store,
		},
	})

	last := &LastBuild{Finished: time.Now()}
	if res.Report != nil {
		last.RunID = res.Report.RunID
		last.Outcome = string(res.Outcome)
		last.Summary = res.Report.Summary()
	}
	if err != nil {
		last.Error = err.Error()
		slog.Warn("Build failed", slog.String("reason", reason), logfields.Error(err))
	}

	good := err == nil && res.Outcome != build.OutcomeFailed && res.Outcome != build.OutcomeCanceled
	d.state.record(last, good)

	if res.Report != nil && res.Outcome != build.OutcomeCanceled {
		if perr := d.notifier.PublishBuild(ctx, notify.EventFromReport(res.Report)); perr != nil {
			slog.Warn("Build event publish failed", logfields.Error(perr))
		}
	}
	if good {
		d.hub.Broadcast(last.RunID)
	}
}

// requestFullRebuild queues a forced rebuild, dropping the request when one
// is already queued.
func (d *Daemon) requestFullRebuild() {
	select {
	case d.scheduleCh <- struct{}{}:
	default:
	}
}

func (d *Daemon) startScheduler() (func(), error) {
	interval := d.cfg.Serve.RebuildInterval()
	if interval <= 0 {
		return func() {}, nil
	}
	sched, err := NewScheduler()
	if err != nil {
		return nil, err
	}
	if _, err := sched.SchedulePeriodicRebuild(interval, d.requestFullRebuild); err != nil {
		_ = sched.Stop()
		return nil, err
	}
	sched.Start()
	slog.Info("Periodic rebuild scheduled", slog.Duration("interval", interval))

	return func() {
		if err := sched.Stop(); err != nil {
			slog.Warn("Scheduler shutdown", logfields.Error(err))
		}
	}, nil
}

// startMetrics starts the Prometheus endpoint when enabled and swaps the
// Prometheus recorder in for subsequent builds.
func (d *Daemon) startMetrics() (func(), error) {
	if !d.cfg.Metrics.Enabled {
		return func() {}, nil
	}
	reg := prom.NewRegistry()
	d.recorder = metrics.NewPrometheusRecorder(reg)

	ln, err := net.Listen("tcp", d.cfg.Metrics.Listen)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryDaemon, "bind metrics endpoint").
			WithContext("addr", d.cfg.Metrics.Listen).
			Build()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	srv := &http.Server{Handler: mux, ReadTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("Metrics server error", logfields.Error(err))
		}
	}()
	slog.Info("Metrics endpoint listening", slog.String("addr", d.cfg.Metrics.Listen))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}

func (d *Daemon) snapshotStatus() ServeStatus {
	builds, good, last := d.state.snapshot()
	return ServeStatus{
		Status:       "running",
		Version:      version.Version,
		StartTime:    d.startTime,
		Uptime:       time.Since(d.startTime).Truncate(time.Second).String(),
		Builds:       builds,
		HasGoodBuild: good,
		Clients:      d.hub.ClientCount(),
		LastBuild:    last,
	}
}

func (d *Daemon) shutdown(server *PreviewServer) error {
	slog.Info("Shutting down preview server")
	d.debounce.Stop()
	d.hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		slog.Warn("Preview server shutdown", logfields.Error(err))
	}
	return nil
}
