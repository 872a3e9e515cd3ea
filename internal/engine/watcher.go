package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/powerwordtree/dynwatch/internal/action"
	"github.com/powerwordtree/dynwatch/internal/config"
	"github.com/powerwordtree/dynwatch/internal/expression"
	"github.com/powerwordtree/dynwatch/internal/logging"
	"github.com/powerwordtree/dynwatch/internal/metrics"
	"github.com/powerwordtree/dynwatch/internal/plugin"
	"github.com/powerwordtree/dynwatch/internal/result"
)

// State is the watcher's position in its tick cycle.
type State string

// Watcher states.
const (
	StateIdle         State = "idle"
	StateFetching     State = "fetching"
	StateEvaluating   State = "evaluating"
	StateTriggered    State = "triggered"
	StateExecuting    State = "executing"
	StateNotTriggered State = "not_triggered"
)

// Watcher owns one watcher's lifecycle: its timer loop, the fetch and
// execute phases of each tick, and the tolerance bookkeeping in between.
// All tick work runs on a single goroutine, so the mutable state needs no
// locking beyond the snapshot mutex the status API reads through.
type Watcher struct {
	name      string
	interval  time.Duration
	tolerance int
	expr      *expression.Expression
	fetches   []config.Group
	executes  []config.Group
	exec      *action.ChainExecutor
	log       *logging.Logger

	mu        sync.Mutex // guards the snapshot fields below
	state     State
	counter   int
	lastEval  string // "true", "false", "error" or ""
	lastRunID string
	lastRun   time.Time
}

// newWatcher compiles one watcher definition. Any error is a
// configuration error: the caller excludes the watcher and moves on.
func newWatcher(cfg *config.Watcher, registry *plugin.Registry, sink *logging.Sink) (*Watcher, error) {
	if err := config.ValidateWatcher(cfg); err != nil {
		return nil, err
	}
	expr, err := expression.Parse(cfg.Expression)
	if err != nil {
		return nil, err
	}
	if max := expr.MaxFetchIndex(); max >= len(cfg.Fetches) {
		return nil, fmt.Errorf("expression %q: fetch_%d out of range: %d fetch groups configured", cfg.Expression, max, len(cfg.Fetches))
	}
	// Resolve every plugin up front so an unknown name surfaces at load
	// time rather than on some future tick.
	for _, section := range [][]config.Group{cfg.Fetches, cfg.Executes} {
		for _, g := range section {
			for _, a := range g.Actions {
				if _, err := registry.Get(a.Plugin); err != nil {
					return nil, err
				}
			}
		}
	}
	return &Watcher{
		name:      cfg.Name,
		interval:  time.Duration(cfg.Interval * float64(time.Second)),
		tolerance: cfg.Tolerance,
		expr:      expr,
		fetches:   cfg.Fetches,
		executes:  cfg.Executes,
		exec:      action.NewChainExecutor(action.NewRunner(registry)),
		log:       sink.Logger().WithWatcher(cfg.Name),
		state:     StateIdle,
	}, nil
}

// run is the watcher's tick loop. The first tick fires immediately, then
// every interval. Ticks never overlap: a tick that outlives its interval
// causes the queued tick to be dropped with a logged skip.
func (w *Watcher) run(ctx context.Context) {
	w.log.Infof("watcher started: interval=%s tolerance=%d expression=%q", w.interval, w.tolerance, w.expr.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Infof("watcher stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
			w.drainSkipped(ticker)
		}
	}
}

func (w *Watcher) drainSkipped(ticker *time.Ticker) {
	select {
	case <-ticker.C:
		metrics.TicksSkipped.WithLabelValues(w.name).Inc()
		w.log.Warnf("tick skipped: previous tick was still running")
	default:
	}
}

// tick runs one full cycle: fetch every group, evaluate the expression,
// update the tolerance counter and conditionally run the execute groups.
func (w *Watcher) tick(ctx context.Context) {
	runID := uuid.NewString()
	log := w.log.WithRunID(runID)
	metrics.TicksStarted.WithLabelValues(w.name).Inc()
	w.snapshot(func() {
		w.lastRunID = runID
		w.lastRun = time.Now()
	})
	log.Infof("tick starting")

	// Fetch phase.
	w.setState(StateFetching)
	chain := plugin.NewContext(w.name)
	sets := make([]result.Set, len(w.fetches))
	forceReset := false // a failed group whose error strategy resets the counter
	protect := false    // a failed group whose error strategy shields the counter
	for i, g := range w.fetches {
		gr := w.exec.Execute(ctx, g, chain, "fetches", log)
		sets[i] = gr.Set
		if !gr.Success {
			switch g.ErrorStrategy {
			case config.ErrorReset, config.ErrorFetchReset:
				forceReset = true
			case config.ErrorSkip:
				protect = true
			}
		}
	}
	if ctx.Err() != nil {
		log.Warnf("tick abandoned: shutting down")
		w.setState(StateIdle)
		return
	}

	// Evaluate phase.
	w.setState(StateEvaluating)
	value, err := w.expr.Evaluate(sets)
	triggered := false
	switch {
	case forceReset:
		// An error-resetting tick breaks the streak no matter what the
		// expression said.
		w.snapshot(func() { w.counter = 0 })
		if err != nil {
			metrics.EvaluationErrors.WithLabelValues(w.name).Inc()
			log.ErrorErr(err, "evaluation failed; counter reset by error strategy")
		} else {
			log.Infof("fetch error reset counter (expression was %t)", value)
		}
	case err != nil:
		metrics.EvaluationErrors.WithLabelValues(w.name).Inc()
		w.snapshot(func() { w.lastEval = "error" })
		log.ErrorErr(err, "evaluation failed; tick not triggered")
	case value:
		w.snapshot(func() {
			w.lastEval = "true"
			w.counter++
			if w.counter > w.tolerance {
				triggered = true
				w.counter = 0
			}
		})
		if triggered {
			log.Infof("expression true, tolerance exceeded: triggering")
		} else {
			log.Infof("expression true, within tolerance (%d/%d)", w.Counter(), w.tolerance)
		}
	default:
		w.snapshot(func() {
			w.lastEval = "false"
			if !protect {
				w.counter = 0
			}
		})
		if protect {
			log.Infof("expression false; counter kept by error strategy")
		} else {
			log.Infof("expression false; counter reset")
		}
	}

	// Execute phase.
	if triggered {
		w.setState(StateTriggered)
		metrics.WatchersTriggered.WithLabelValues(w.name).Inc()
		w.setState(StateExecuting)
		allOK := true
		for _, g := range w.executes {
			gr := w.exec.Execute(ctx, g, chain, "executes", log)
			if !gr.Success {
				allOK = false
			}
		}
		if allOK {
			log.Infof("execute phase finished")
		} else {
			log.Errorf("execute phase finished with failures")
		}
	} else {
		w.setState(StateNotTriggered)
	}

	w.setState(StateIdle)
	log.Infof("tick finished")
}

func (w *Watcher) setState(s State) {
	w.snapshot(func() { w.state = s })
	w.log.Debugf("state: %s", s)
}

func (w *Watcher) snapshot(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn()
}

// Counter returns the current tolerance counter.
func (w *Watcher) Counter() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.counter
}

// Name returns the watcher's configured name.
func (w *Watcher) Name() string { return w.name }

// Status is a point-in-time view of a watcher for the status API.
type Status struct {
	Name      string    `json:"name"`
	State     State     `json:"state"`
	Counter   int       `json:"counter"`
	Tolerance int       `json:"tolerance"`
	Interval  float64   `json:"interval_seconds"`
	LastEval  string    `json:"last_evaluation,omitempty"`
	LastRunID string    `json:"last_run_id,omitempty"`
	LastRun   time.Time `json:"last_run,omitempty"`
}

// Status returns the watcher's current snapshot.
func (w *Watcher) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Status{
		Name:      w.name,
		State:     w.state,
		Counter:   w.counter,
		Tolerance: w.tolerance,
		Interval:  w.interval.Seconds(),
		LastEval:  w.lastEval,
		LastRunID: w.lastRunID,
		LastRun:   w.lastRun,
	}
}

