// Package aggregator merges every enabled source into one sorted snapshot
// and refreshes it on an interval.
package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/kapu/liver-streams-go/internal/domain"
	"github.com/kapu/liver-streams-go/internal/service/cache"
	"github.com/kapu/liver-streams-go/internal/service/newarrival"
	"github.com/kapu/liver-streams-go/internal/source"
)

// SnapshotStore persists the merged list between restarts.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snapshot cache.Snapshot) error
	LoadSnapshot(ctx context.Context) (*cache.Snapshot, error)
}

type Snapshot struct {
	FetchedAt time.Time
	Events    []*domain.LiverEvent
	ByID      map[string]*domain.LiverEvent
}

type Aggregator struct {
	sources  []source.EventSource
	store    SnapshotStore
	arrivals *newarrival.Tracker
	metrics  *metrics
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.RWMutex
	snapshot Snapshot
	loaded   bool

	refreshMu sync.Mutex
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// New creates an aggregator. store and reg may be nil.
func New(sources []source.EventSource, store SnapshotStore, arrivals *newarrival.Tracker, reg prometheus.Registerer, logger *zap.Logger) *Aggregator {
	if arrivals == nil {
		arrivals = newarrival.NewTracker(0)
	}
	return &Aggregator{
		sources:  sources,
		store:    store,
		arrivals: arrivals,
		metrics:  newMetrics(reg),
		logger:   logger,
		now:      time.Now,
		snapshot: Snapshot{ByID: map[string]*domain.LiverEvent{}},
		stopCh:   make(chan struct{}),
	}
}

func (a *Aggregator) NewArrivals() *newarrival.Tracker {
	return a.arrivals
}

// Snapshot returns the current merged list. Callers must not modify it.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot
}

func (a *Aggregator) Event(id string) (*domain.LiverEvent, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ev, ok := a.snapshot.ByID[id]
	return ev, ok
}

// Warm loads the persisted snapshot so requests can be served before the
// first refresh. It does not count as a previous list for new arrivals.
func (a *Aggregator) Warm(ctx context.Context) {
	if a.store == nil {
		return
	}
	saved, err := a.store.LoadSnapshot(ctx)
	if err != nil {
		a.logger.Warn("Failed to load saved snapshot", zap.Error(err))
		return
	}
	if saved == nil {
		return
	}

	events := saved.Events
	domain.SortLiverEvents(events)

	a.mu.Lock()
	if !a.loaded {
		a.snapshot = Snapshot{FetchedAt: saved.FetchedAt, Events: events, ByID: domain.IndexByID(events)}
	}
	a.mu.Unlock()

	a.logger.Info("Snapshot restored",
		zap.Int("events", len(events)),
		zap.Time("fetched_at", saved.FetchedAt))
}

// Refresh fetches every source concurrently. A failed source contributes no
// events; the refresh itself only fails when ctx is cancelled.
func (a *Aggregator) Refresh(ctx context.Context) (Snapshot, error) {
	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()

	results := make([][]*domain.LiverEvent, len(a.sources))
	p := pool.New().WithErrors().WithContext(ctx)
	for i, src := range a.sources {
		p.Go(func(ctx context.Context) error {
			results[i] = a.fetch(ctx, src)
			return nil
		})
	}
	_ = p.Wait()

	if err := ctx.Err(); err != nil {
		return a.Snapshot(), err
	}

	var merged []*domain.LiverEvent
	for i, events := range results {
		merged = append(merged, events...)
		a.metrics.events.WithLabelValues(string(a.sources[i].Affiliation())).Set(float64(len(events)))
	}
	domain.SortLiverEvents(merged)
	byID := domain.IndexByID(merged)
	now := a.now()

	a.mu.Lock()
	var previous []*domain.LiverEvent
	if a.loaded {
		previous = a.snapshot.Events
		if previous == nil {
			previous = []*domain.LiverEvent{}
		}
	}
	a.snapshot = Snapshot{FetchedAt: now, Events: merged, ByID: byID}
	a.loaded = true
	next := a.snapshot
	a.mu.Unlock()

	a.arrivals.Update(merged, previous, byID, now)
	a.metrics.lastSync.Set(float64(now.Unix()))

	if a.store != nil {
		if err := a.store.SaveSnapshot(ctx, cache.Snapshot{FetchedAt: now, Events: merged}); err != nil {
			a.logger.Warn("Failed to save snapshot", zap.Error(err))
		}
	}

	a.logger.Info("Schedule refreshed",
		zap.Int("events", len(merged)),
		zap.Int("sources", len(a.sources)))
	return next, nil
}

func (a *Aggregator) fetch(ctx context.Context, src source.EventSource) []*domain.LiverEvent {
	affiliation := string(src.Affiliation())
	start := time.Now()
	events, err := src.FetchEvents(ctx)
	a.metrics.duration.WithLabelValues(affiliation).Observe(time.Since(start).Seconds())

	if err != nil {
		a.metrics.fetches.WithLabelValues(affiliation, "error").Inc()
		a.logger.Warn("Source fetch failed",
			zap.String("affiliation", affiliation),
			zap.Error(err))
		return nil
	}
	a.metrics.fetches.WithLabelValues(affiliation, "ok").Inc()
	return events
}

// Start refreshes once immediately, then every interval until Stop or ctx
// cancellation.
func (a *Aggregator) Start(ctx context.Context, interval time.Duration) {
	a.ticker = time.NewTicker(interval)

	a.logger.Info("Schedule refresher started", zap.Duration("interval", interval))

	go func() {
		a.refresh(ctx)
		for {
			select {
			case <-a.ticker.C:
				a.refresh(ctx)
			case <-a.stopCh:
				a.logger.Info("Schedule refresher stopped")
				return
			case <-ctx.Done():
				a.logger.Info("Schedule refresher context cancelled")
				return
			}
		}
	}()
}

func (a *Aggregator) refresh(ctx context.Context) {
	if _, err := a.Refresh(ctx); err != nil {
		a.logger.Warn("Refresh aborted", zap.Error(err))
	}
}

func (a *Aggregator) Stop() {
	a.stopOnce.Do(func() {
		if a.ticker != nil {
			a.ticker.Stop()
		}
		close(a.stopCh)
	})
}
