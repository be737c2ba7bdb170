package exporter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sourcegraph/conc"

	"github.com/avojak/pihole-influxdb/internal/infrastructure/logging"
	"github.com/avojak/pihole-influxdb/internal/metrics"
	"github.com/avojak/pihole-influxdb/internal/pihole"
)

// Sink receives the batched points of a poll cycle.
//
// Implementations must treat the batch as a single unit: either the whole
// batch is accepted or an error is returned, so the poller knows whether
// watermarks may advance.
type Sink interface {
	WritePoints(ctx context.Context, points []metrics.Point) error
}

// Poller drives the poll-map-write loop across all configured instances.
//
// Each cycle queries every instance concurrently, merges the resulting
// points into one batch, writes the batch to the sink, and only then
// advances the per-instance history watermarks. A failing instance never
// blocks or discards the points of a healthy one.
type Poller struct {
	instances  []pihole.Instance
	sessions   *pihole.SessionManager
	fetcher    *Fetcher
	mapper     Mapper
	sink       Sink
	watermarks WatermarkStore
	interval   time.Duration
	logger     *logging.Logger
}

// NewPoller creates a Poller.
//
// Parameters:
//   - instances: Registered Pi-hole instances to poll
//   - sessions: Session manager shared across cycles
//   - fetcher: Per-category stats fetcher
//   - sink: Destination for mapped points
//   - watermarks: Cross-tick history watermark state
//   - interval: Delay between poll cycles
//   - logger: Structured logger
//
// Returns:
//   - *Poller: Poller ready for Run
func NewPoller(
	instances []pihole.Instance,
	sessions *pihole.SessionManager,
	fetcher *Fetcher,
	sink Sink,
	watermarks WatermarkStore,
	interval time.Duration,
	logger *logging.Logger,
) *Poller {
	return &Poller{
		instances:  instances,
		sessions:   sessions,
		fetcher:    fetcher,
		sink:       sink,
		watermarks: watermarks,
		interval:   interval,
		logger:     logger,
	}
}

// Run executes an immediate first cycle, then repeats every interval until
// the context is cancelled. If a cycle overruns the interval the next tick
// is delayed rather than run concurrently or queued up.
//
// Parameters:
//   - ctx: Context controlling the poller lifetime
//
// Returns:
//   - error: Scheduling setup failure; nil on graceful shutdown
func (p *Poller) Run(ctx context.Context) error {
	p.Cycle(ctx)

	scheduler := cron.New(cron.WithChain(
		cron.DelayIfStillRunning(cronLogger{p.logger}),
	))
	_, err := scheduler.AddFunc(fmt.Sprintf("@every %s", p.interval), func() {
		p.Cycle(ctx)
	})
	if err != nil {
		return fmt.Errorf("scheduling poll cycle: %w", err)
	}

	scheduler.Start()
	p.logger.Info("poller started", "interval", p.interval.String(), "instances", len(p.instances))

	<-ctx.Done()

	// Wait for any in-flight cycle before reporting shutdown complete.
	<-scheduler.Stop().Done()
	p.logger.Info("poller stopped")
	return nil
}

// Cycle performs a single poll of all instances and one batched write.
//
// Exported so startup code can run a one-shot poll without a scheduler.
func (p *Poller) Cycle(ctx context.Context) {
	start := time.Now()
	polledAt := start.UTC()

	var (
		mu    sync.Mutex
		batch []metrics.Point
		marks = make(map[string]time.Time)
	)

	var wg conc.WaitGroup
	for _, inst := range p.instances {
		wg.Go(func() {
			points, latest, err := p.collect(ctx, inst, polledAt)
			if err != nil {
				p.logger.Warn("instance poll failed",
					"alias", inst.Alias,
					"error", err)
				return
			}
			mu.Lock()
			batch = append(batch, points...)
			if !latest.IsZero() {
				marks[inst.Alias] = latest
			}
			mu.Unlock()
		})
	}
	wg.Wait()

	if len(batch) == 0 {
		p.logger.Warn("poll cycle produced no points",
			"duration_ms", time.Since(start).Milliseconds())
		return
	}

	if err := p.sink.WritePoints(ctx, batch); err != nil {
		// Watermarks stay put so the next cycle re-exports the same
		// history window; the sink upserts on (measurement, tags,
		// timestamp) so the retry cannot double-count.
		p.logger.Error("batch write failed",
			"points", len(batch),
			"error", err)
		return
	}

	for alias, latest := range marks {
		if err := p.watermarks.Set(ctx, alias, latest); err != nil {
			p.logger.Warn("watermark update failed",
				"alias", alias,
				"error", err)
		}
	}

	p.logger.Info("poll cycle complete",
		"points", len(batch),
		"duration_ms", time.Since(start).Milliseconds())
}

// collect polls one instance and maps its stats to points.
//
// Authentication failures mid-cycle trigger exactly one re-authentication
// and one refetch; anything still failing after that is reported via the
// bundle and logged per category.
func (p *Poller) collect(ctx context.Context, inst pihole.Instance, polledAt time.Time) ([]metrics.Point, time.Time, error) {
	start := time.Now()
	log := p.logger.With("alias", inst.Alias)

	sid, err := p.sessions.EnsureSession(ctx, inst)
	if err != nil {
		if !errors.Is(err, pihole.ErrAuthRequired) {
			return nil, time.Time{}, fmt.Errorf("establishing session: %w", err)
		}
		// No password configured: every stats endpoint needs a
		// session, so the instance yields no points until one is
		// supplied. It stays registered rather than blocking startup.
		log.Warn("no password configured, skipping authenticated endpoints")
		sid = ""
	}

	bundle := p.fetcher.Fetch(ctx, inst, sid)
	if bundle.HasAuthFailure() && inst.HasPassword() {
		log.Info("session rejected, re-authenticating")
		p.sessions.Invalidate(inst.Alias)
		sid, err = p.sessions.EnsureSession(ctx, inst)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("re-establishing session: %w", err)
		}
		bundle = p.fetcher.Fetch(ctx, inst, sid)
	}

	for category, fetchErr := range bundle.Failures {
		log.Warn("stats fetch failed",
			"category", string(category),
			"error", fetchErr)
	}

	watermark, err := p.watermarks.Get(ctx, inst.Alias)
	if err != nil {
		// Fall back to exporting the full history window; the sink
		// upsert absorbs the overlap.
		log.Warn("watermark read failed", "error", err)
		watermark = time.Time{}
	}

	points, latest := p.mapper.Map(inst, bundle, polledAt, watermark)
	log.Debug("instance polled",
		"points", len(points),
		"failed_categories", len(bundle.Failures),
		"duration_ms", time.Since(start).Milliseconds())
	return points, latest, nil
}

// cronLogger adapts Logger to the scheduler's logging interface. It only
// surfaces delayed ticks and internal scheduler errors.
type cronLogger struct {
	logger *logging.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.logger.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.logger.Error(msg, append(keysAndValues, "error", err)...)
}
