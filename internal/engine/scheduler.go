// Package engine schedules watchers and drives their tick cycles.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/powerwordtree/dynwatch/internal/config"
	"github.com/powerwordtree/dynwatch/internal/logging"
	"github.com/powerwordtree/dynwatch/internal/metrics"
	"github.com/powerwordtree/dynwatch/internal/plugin"
)

// Scheduler owns the running set of watchers. Every watcher runs on its
// own goroutine at its own interval; watchers never block one another.
type Scheduler struct {
	registry *plugin.Registry
	sink     *logging.Sink
	drain    time.Duration
	log      *logging.Logger

	mu       sync.Mutex
	baseCtx  context.Context
	cancel   context.CancelFunc
	wg       *sync.WaitGroup
	watchers []*Watcher
}

// New creates a Scheduler. drain bounds how long Shutdown waits for
// in-flight ticks before abandoning them.
func New(registry *plugin.Registry, sink *logging.Sink, drain time.Duration) *Scheduler {
	return &Scheduler{
		registry: registry,
		sink:     sink,
		drain:    drain,
		log:      sink.Logger(),
	}
}

// Start compiles the config's watchers and starts one tick loop per
// watcher. Watchers that fail to compile are logged and excluded; the
// rest proceed. Returns the number of watchers scheduled.
func (s *Scheduler) Start(ctx context.Context, cfg *config.Config) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseCtx = ctx
	return s.startLocked(cfg)
}

// Swap replaces the running watcher set with one built from cfg: the old
// loops are stopped and drained, then the new set starts. Used on config
// hot reload.
func (s *Scheduler) Swap(cfg *config.Config) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	return s.startLocked(cfg)
}

// Shutdown stops every watcher, waiting up to the drain period for
// in-flight ticks to finish before abandoning them.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Snapshot returns the current status of every scheduled watcher.
func (s *Scheduler) Snapshot() []Status {
	s.mu.Lock()
	watchers := s.watchers
	s.mu.Unlock()

	out := make([]Status, 0, len(watchers))
	for _, w := range watchers {
		out = append(out, w.Status())
	}
	return out
}

func (s *Scheduler) startLocked(cfg *config.Config) int {
	if s.baseCtx == nil {
		s.baseCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(s.baseCtx)
	s.cancel = cancel
	s.wg = &sync.WaitGroup{}
	s.watchers = nil

	for i := range cfg.Watchers {
		wc := &cfg.Watchers[i]
		w, err := newWatcher(wc, s.registry, s.sink)
		if err != nil {
			metrics.WatchersExcluded.Inc()
			s.log.WithWatcher(wc.Name).ErrorErr(err, "watcher excluded from scheduling")
			continue
		}
		s.watchers = append(s.watchers, w)
	}

	for _, w := range s.watchers {
		s.wg.Add(1)
		go func(w *Watcher) {
			defer s.wg.Done()
			w.run(ctx)
		}(w)
	}
	s.log.Infof("scheduler started %d of %d watcher(s)", len(s.watchers), len(cfg.Watchers))
	return len(s.watchers)
}

func (s *Scheduler) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil

	done := make(chan struct{})
	go func(wg *sync.WaitGroup) {
		wg.Wait()
		close(done)
	}(s.wg)

	select {
	case <-done:
		s.log.Infof("all watchers drained")
	case <-time.After(s.drain):
		s.log.Warnf("drain period %s elapsed; abandoning in-flight work", s.drain)
	}
	s.watchers = nil
}
