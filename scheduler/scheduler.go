// Package scheduler rechecks active price alerts on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/use-agent/pricewatch/models"
	"github.com/use-agent/pricewatch/webhook"
)

// AlertStore is the persistence the scheduler needs.
type AlertStore interface {
	ActiveAlerts(ctx context.Context) ([]models.Alert, error)
	RecordPrice(ctx context.Context, p models.PricePoint, productName string) error
	MarkTriggered(ctx context.Context, id int64) error
}

// Extractor checks one product URL.
type Extractor interface {
	Extract(ctx context.Context, url string) models.ExtractionResult
}

// Options configures a Scheduler.
type Options struct {
	// Spec is a cron expression or descriptor. Defaults to "@every 6h".
	Spec string

	// Concurrency bounds parallel checks within a run. Defaults to 4.
	Concurrency int

	// RunTimeout bounds one whole run. Defaults to 1h.
	RunTimeout time.Duration
}

// Summary counts the outcome of one run.
type Summary struct {
	Checked   int
	Recorded  int
	Triggered int
	Failed    int
}

// Scheduler runs alert rechecks periodically. Overlapping runs are skipped.
type Scheduler struct {
	cron     *cron.Cron
	store    AlertStore
	tracker  Extractor
	notifier webhook.Notifier
	opts     Options

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	last   Summary
}

// New creates a Scheduler. notifier may be nil.
func New(store AlertStore, tracker Extractor, notifier webhook.Notifier, opts Options) *Scheduler {
	if opts.Spec == "" {
		opts.Spec = "@every 6h"
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = time.Hour
	}
	if notifier == nil {
		notifier = webhook.Nop{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	logger := slogLogger{}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		store:    store,
		tracker:  tracker,
		notifier: notifier,
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start registers the recheck job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.opts.Spec, s.tick); err != nil {
		return fmt.Errorf("scheduler: invalid spec %q: %w", s.opts.Spec, err)
	}
	s.cron.Start()
	slog.Info("alert scheduler started", "spec", s.opts.Spec, "concurrency", s.opts.Concurrency)
	return nil
}

// Stop cancels any running check and waits for it to finish or for ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	s.cancel()
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Last returns the summary of the most recent completed run.
func (s *Scheduler) Last() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(s.ctx, s.opts.RunTimeout)
	defer cancel()
	if _, err := s.RunOnce(ctx); err != nil {
		slog.Error("alert recheck failed", "error", err)
	}
}

// RunOnce rechecks every active alert. Failed checks are counted, not
// returned; only a failure to list alerts is an error.
func (s *Scheduler) RunOnce(ctx context.Context) (Summary, error) {
	start := time.Now()
	alerts, err := s.store.ActiveAlerts(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("scheduler: list alerts: %w", err)
	}

	var recorded, triggered, failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for _, a := range alerts {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			ok, hit := s.check(gctx, a)
			if !ok {
				failed.Add(1)
				return nil
			}
			recorded.Add(1)
			if hit {
				triggered.Add(1)
			}
			return nil
		})
	}
	g.Wait()

	sum := Summary{
		Checked:   len(alerts),
		Recorded:  int(recorded.Load()),
		Triggered: int(triggered.Load()),
		Failed:    int(failed.Load()),
	}
	s.mu.Lock()
	s.last = sum
	s.mu.Unlock()
	slog.Info("alert recheck finished",
		"checked", sum.Checked,
		"recorded", sum.Recorded,
		"triggered", sum.Triggered,
		"failed", sum.Failed,
		"duration", time.Since(start),
	)
	return sum, ctx.Err()
}

// check returns whether a price was recorded and whether the alert
// triggered.
func (s *Scheduler) check(ctx context.Context, a models.Alert) (bool, bool) {
	log := slog.With("alert_id", a.ID, "url", a.URL)
	res := s.tracker.Extract(ctx, a.URL)
	if !res.OK() {
		log.Warn("alert recheck got no price", "error", res.Error, "code", res.ErrorCode)
		return false, false
	}

	p := *res.Price
	point := models.PricePoint{
		AlertID:    a.ID,
		Price:      p,
		Currency:   res.Currency,
		Site:       res.Site,
		RecordedAt: res.CheckedAt,
	}
	if err := s.store.RecordPrice(ctx, point, res.ProductName); err != nil {
		log.Error("record price failed", "error", err)
		return false, false
	}
	a.CurrentPrice = &p
	if res.ProductName != "" {
		a.ProductName = res.ProductName
	}
	if !a.Reached() {
		log.Debug("price above target", "price", p, "target", a.TargetPrice)
		return true, false
	}

	if err := s.store.MarkTriggered(ctx, a.ID); err != nil {
		log.Error("mark triggered failed", "error", err)
		return true, false
	}
	a.Status = models.AlertTriggered
	log.Info("alert triggered", "price", p, "target", a.TargetPrice)

	ev := &webhook.Event{Type: webhook.EventAlertTriggered, AlertID: a.ID, Data: a}
	if err := s.notifier.Notify(ctx, ev); err != nil {
		log.Warn("alert notification failed", "error", err)
	}
	return true, true
}

// slogLogger adapts cron's logger to slog.
type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
