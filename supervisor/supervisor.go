// Package supervisor owns the shared collector state for the lifetime of
// the daemon process: it constructs the state from persisted storage,
// spawns the listener and tick goroutines that feed it, and
// periodically persists bucket stats, analytics, and the CSV mirror.
package supervisor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/corvid-labs/typingstats/capture"
	"github.com/corvid-labs/typingstats/chunk"
	"github.com/corvid-labs/typingstats/clock"
	"github.com/corvid-labs/typingstats/collector"
	"github.com/corvid-labs/typingstats/config"
	"github.com/corvid-labs/typingstats/csvmirror"
	"github.com/corvid-labs/typingstats/event"
	"github.com/corvid-labs/typingstats/iox"
	"github.com/corvid-labs/typingstats/log"
	"github.com/corvid-labs/typingstats/metrics"
	"github.com/corvid-labs/typingstats/shortcut"
	"github.com/corvid-labs/typingstats/snapshot"
	"github.com/corvid-labs/typingstats/storage"
)

// appLogName is the newline-delimited human-readable log file kept in the
// data directory alongside the shards.
const appLogName = "typingstats-app.log"

// csvName is the derived CSV mirror's file name in the data directory.
const csvName = "typingstats.csv"

// Listener is the platform keyboard bridge collaborator. Listen blocks,
// invoking emit for every normalized KeyDown/KeyUp it observes, until ctx
// is canceled or the platform loop fails terminally.
type Listener interface {
	Listen(ctx context.Context, emit func(event.Event)) error
}

// Supervisor owns the collector state machine and the two tasks that feed
// and persist it. Construction trusts a config.Config that has already
// passed through config.Load, which clamps the timing floors.
type Supervisor struct {
	state    *collector.State
	store    storage.DetailStorage
	listener Listener
	capture  capture.Provider
	logger   *log.Logger
	metrics  *metrics.Collector
	clk      clock.Clock

	processInstanceID string
	csvPath           string
	tickInterval      time.Duration
	flushInterval     time.Duration

	appLog *os.File

	wg sync.WaitGroup
}

// New constructs a Supervisor. It does not start any goroutine; call Run
// to do that. cfg is expected to already have passed through config.Load
// (and therefore its floor clamping).
func New(cfg config.Config, store storage.DetailStorage, listener Listener, capProvider capture.Provider, clk clock.Clock) *Supervisor {
	processInstanceID := uuid.NewString()
	logger := log.NewLogger(processInstanceID)

	var appLog *os.File
	if err := os.MkdirAll(cfg.DataDir, 0o755); err == nil {
		f, ferr := os.OpenFile(filepath.Join(cfg.DataDir, appLogName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if ferr == nil {
			appLog = f
			logger = logger.WithOutput(f)
		}
	}

	m := metrics.NewCollector(processInstanceID)
	state := collector.New(clk, cfg.SessionGap.Duration)
	state.SetMetrics(m)
	state.SetShortcutRules(toShortcutRules(cfg.ShortcutRules))
	state.SetExcludedBundleIDs(cfg.ExcludedBundleIDs)

	return &Supervisor{
		state:             state,
		store:             store,
		listener:          listener,
		capture:           capture.NewSafeProvider(capProvider),
		logger:            logger.WithComponent("supervisor"),
		metrics:           m,
		clk:               clk,
		processInstanceID: processInstanceID,
		csvPath:           filepath.Join(cfg.DataDir, csvName),
		tickInterval:      cfg.CollectorTickInterval.Duration,
		flushInterval:     cfg.FlushInterval.Duration,
		appLog:            appLog,
	}
}

// State returns the shared collector state, the entry point the daemon's
// control-surface commands mutate directly.
func (s *Supervisor) State() *collector.State {
	return s.state
}

// Metrics returns the daemon-lifetime counter collector.
func (s *Supervisor) Metrics() *metrics.Collector {
	return s.metrics
}

// ProcessInstanceID returns the id generated at construction, stamped on
// every log entry this supervisor produces.
func (s *Supervisor) ProcessInstanceID() string {
	return s.processInstanceID
}

// Close releases the app-log file handle and flushes buffered log entries.
func (s *Supervisor) Close() {
	iox.DiscardErr(s.logger.Sync)
	if s.appLog != nil {
		iox.DiscardClose(s.appLog)
	}
}

// toShortcutRules adapts config's YAML ruleset shape into the collector's
// shortcut.Rules; the two types stay independent and convert only at this
// call site.
func toShortcutRules(c config.ShortcutRules) shortcut.Rules {
	rules := shortcut.Rules{
		RequireCmdOrCtrl: c.RequireCmdOrCtrl,
		AllowAltOnly:     c.AllowAltOnly,
		MinModifiers:     c.MinModifiers,
		Allowlist:        make(map[string]struct{}, len(c.Allowlist)),
		Blocklist:        make(map[string]struct{}, len(c.Blocklist)),
	}
	for _, id := range c.Allowlist {
		rules.Allowlist[id] = struct{}{}
	}
	for _, id := range c.Blocklist {
		rules.Blocklist[id] = struct{}{}
	}
	if rules.MinModifiers == 0 {
		rules.MinModifiers = 1
	}
	return rules
}

// LoadPersisted restores prior state from storage before Run starts the
// listener and tick tasks. A missing or empty store leaves state fresh.
func (s *Supervisor) LoadPersisted() error {
	rows, err := s.store.LoadStats()
	if err != nil {
		return fmt.Errorf("supervisor: load stats: %w", err)
	}
	analytics, err := s.store.LoadInputAnalytics()
	if err != nil {
		return fmt.Errorf("supervisor: load analytics: %w", err)
	}

	buckets := make([]collector.BucketRow, 0, len(rows))
	for _, row := range rows {
		buckets = append(buckets, collector.BucketRow{
			Key: collector.StatsKey{
				Date:        row.Date,
				AppName:     row.AppName,
				WindowTitle: row.WindowTitle,
			},
			Value: collector.StatsValue{
				ActiveTypingMs: row.ActiveTypingMs,
				KeyCount:       row.KeyCount,
				SessionCount:   row.SessionCount,
			},
		})
	}

	closed := toClosedChunks(analytics.Chunks)
	s.state.LoadPersisted(buckets, analytics.AppDict, analytics.NextAppRef, closed)
	return nil
}

// toClosedChunks converts the storage-layer chunk documents into the chunk
// package's closed form.
func toClosedChunks(docs []storage.ChunkDocument) []chunk.Closed {
	closed := make([]chunk.Closed, 0, len(docs))
	for _, d := range docs {
		closed = append(closed, chunk.Closed{
			V:            d.V,
			ChunkStartMs: d.ChunkStartMs,
			AppRef:       d.AppRef,
			Events:       d.Events,
		})
	}
	return closed
}

// Run spawns the listener and tick tasks and blocks until ctx is canceled.
// The daemon's run command passes a context canceled on SIGINT/SIGTERM, so
// both tasks live until the process is asked to stop; tests use a
// cancelable context to bound the tick loop.
func (s *Supervisor) Run(ctx context.Context) {
	s.logger.Info("run", "supervisor starting", map[string]any{
		"tick_interval":  s.tickInterval.String(),
		"flush_interval": s.flushInterval.String(),
	})

	s.wg.Add(2)
	go s.runListener(ctx)
	go s.runTick(ctx)
	s.wg.Wait()

	// Final flush so state observed up to cancellation survives restart.
	if err := s.Flush(); err != nil {
		s.logger.Error("run", "final flush failed", map[string]any{"error": err.Error()})
	}
}

// runListener drives the platform keyboard bridge, recovering from any
// panic the bridge raises. Only the listener task is wrapped: a tick-loop
// panic indicates a bug in this package rather than an unpredictable
// platform collaborator.
func (s *Supervisor) runListener(ctx context.Context) {
	defer s.wg.Done()
	defer s.recoverListenerPanic()

	s.state.SetKeyboardActive(true)
	err := s.listener.Listen(ctx, s.state.ApplyEvent)
	if err != nil && ctx.Err() == nil {
		s.state.SetKeyboardActive(false)
		s.state.SetLastError(err.Error())
		s.metrics.IncListenerFailure()
		s.logger.Error("listener", "platform listener exited", map[string]any{"error": err.Error()})
	}
}

func (s *Supervisor) recoverListenerPanic() {
	if r := recover(); r != nil {
		msg := fmt.Sprintf("panic: %v", r)
		s.state.SetKeyboardActive(false)
		s.state.SetLastError(msg)
		s.metrics.IncListenerPanic()
		s.logger.Error("listener", "panic", map[string]any{"panic": msg})
	}
}

// runTick is the periodic task: on every wake it computes
// elapsed time since the previous tick, expires any stale open chunk,
// applies a Tick event, and persists once flushInterval has passed.
func (s *Supervisor) runTick(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	lastTick := s.clk.Now()
	lastFlush := s.clk.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		now := s.clk.Now()
		elapsed := now.Sub(lastTick)
		if elapsed < 0 {
			elapsed = 0
		}
		lastTick = now

		ctxSnapshot, _ := s.capture.CaptureContext()
		s.state.FlushExpiredChunks(s.clk.NowMs())
		s.state.ApplyEvent(event.NewTick(elapsed, ctxSnapshot, now))

		if now.Sub(lastFlush) >= s.flushInterval {
			lastFlush = now
			if err := s.Flush(); err != nil {
				s.logger.Error("flush", "persistence failed", map[string]any{"error": err.Error()})
			}
		}
	}
}

// Flush persists bucket stats, analytics, and the CSV mirror from the
// current state. An error on any dataset is returned after the remaining
// datasets have been attempted; in-memory state is never reset by a
// persistence failure, and the next flush retries.
func (s *Supervisor) Flush() error {
	var firstErr error

	rows := snapshot.Rows(s.state.Buckets())
	statsRows := make([]storage.StatsRow, 0, len(rows))
	for _, r := range rows {
		statsRows = append(statsRows, storage.StatsRow{
			Date:           r.Date,
			AppName:        r.AppName,
			WindowTitle:    r.WindowTitle,
			ActiveTypingMs: r.ActiveTypingMs,
			KeyCount:       r.KeyCount,
			SessionCount:   r.SessionCount,
		})
	}
	if err := s.store.SaveStats(statsRows); err != nil {
		firstErr = err
	}

	closed := s.state.ClosedChunks()
	docs := make([]storage.ChunkDocument, 0, len(closed))
	for _, c := range closed {
		docs = append(docs, storage.ChunkDocument{
			V:            c.V,
			ChunkStartMs: c.ChunkStartMs,
			AppRef:       c.AppRef,
			Events:       c.Events,
		})
	}
	analytics := storage.Analytics{
		AppDict:    s.state.AppDict(),
		NextAppRef: s.state.NextAppRef(),
		Chunks:     docs,
	}
	if err := s.store.SaveInputAnalytics(analytics); err != nil && firstErr == nil {
		firstErr = err
	}

	if err := csvmirror.Write(s.csvPath, rows); err != nil && firstErr == nil {
		firstErr = err
	}

	if firstErr != nil {
		s.metrics.IncFlushFailure()
		return firstErr
	}
	s.metrics.IncFlushSuccess()
	return nil
}

// ClearStats clears buckets, shortcuts, and chunks, then persists the empty
// state so the cleared view survives restart.
func (s *Supervisor) ClearStats() error {
	s.state.ClearStats()
	return s.Flush()
}
