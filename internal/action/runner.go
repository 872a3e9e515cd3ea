package action

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/powerwordtree/dynwatch/internal/config"
	"github.com/powerwordtree/dynwatch/internal/logging"
	"github.com/powerwordtree/dynwatch/internal/metrics"
	"github.com/powerwordtree/dynwatch/internal/plugin"
)

// Runner executes one action: a named plugin invocation bounded by the
// action's timeout, retried up to Retries additional times with Delay
// between attempts. The final attempt's result is what callers see;
// earlier failures only show up in the log.
type Runner struct {
	registry *plugin.Registry
}

// NewRunner creates a Runner over the given plugin registry.
func NewRunner(registry *plugin.Registry) *Runner {
	return &Runner{registry: registry}
}

type invokeOutcome struct {
	values []string
	err    error
}

// Run invokes the action's plugin. A context cancellation (shutdown)
// short-circuits remaining attempts and yields an exception result.
func (r *Runner) Run(ctx context.Context, act config.Action, chain *plugin.Context, log *logging.Logger) *Result {
	start := time.Now()

	p, err := r.registry.Get(act.Plugin)
	if err != nil {
		// Configuration fault, not transient: no retry.
		log.ErrorErr(err, "plugin lookup failed")
		metrics.ActionsExecuted.WithLabelValues(act.Plugin, string(StatusFailure)).Inc()
		return &Result{Plugin: act.Plugin, Status: StatusFailure, Err: err, Elapsed: time.Since(start)}
	}

	params := interpolateParams(act.Params, chain)
	timeout := time.Duration(act.Timeout * float64(time.Second))
	delay := time.Duration(act.Delay * float64(time.Second))

	res := &Result{Plugin: act.Plugin}
	for attempt := 0; attempt <= act.Retries; attempt++ {
		if attempt > 0 {
			metrics.ActionRetries.WithLabelValues(act.Plugin).Inc()
			if err := sleep(ctx, delay); err != nil {
				res.Status = StatusException
				res.Err = fmt.Errorf("cancelled before attempt %d: %w", attempt+1, err)
				break
			}
		}
		res.Attempts = attempt + 1

		attemptStart := time.Now()
		values, err := r.attempt(ctx, p, timeout, params, chain)
		elapsed := time.Since(attemptStart)

		res.Values = values
		res.Err = err
		switch {
		case err == nil:
			res.Status = StatusSuccess
		case errors.Is(err, context.Canceled):
			res.Status = StatusException
		default:
			res.Status = StatusFailure
		}

		if err == nil {
			log.Debugf("attempt %d/%d succeeded in %s", attempt+1, act.Retries+1, elapsed)
			break
		}
		log.ErrorErr(err, "attempt %d/%d failed after %s", attempt+1, act.Retries+1, elapsed)
		if res.Status == StatusException {
			break
		}
	}

	res.Elapsed = time.Since(start)
	metrics.ActionsExecuted.WithLabelValues(act.Plugin, string(res.Status)).Inc()
	metrics.ActionDuration.Observe(res.Elapsed.Seconds())
	return res
}

// attempt runs one invocation under the per-attempt timeout. The plugin
// call runs in its own goroutine so a plugin that ignores its context is
// abandoned rather than blocking the watcher's tick loop.
func (r *Runner) attempt(ctx context.Context, p plugin.Plugin, timeout time.Duration, params map[string]interface{}, chain *plugin.Context) ([]string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ch := make(chan invokeOutcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				ch <- invokeOutcome{err: fmt.Errorf("plugin panic: %v", rec)}
			}
		}()
		values, err := p.Invoke(attemptCtx, params, chain)
		ch <- invokeOutcome{values: values, err: err}
	}()

	select {
	case out := <-ch:
		return out.values, out.err
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			return nil, fmt.Errorf("cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("timeout after %s: %w", timeout, attemptCtx.Err())
	}
}

// sleep waits d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// interpolateParams renders {key} placeholders in every string parameter,
// including strings nested in maps and slices, leaving other values as-is.
func interpolateParams(params map[string]interface{}, chain *plugin.Context) map[string]interface{} {
	if len(params) == 0 {
		return params
	}
	out := make(map[string]interface{}, len(params))
	for k, v := range params {
		out[k] = interpolateValue(v, chain)
	}
	return out
}

func interpolateValue(v interface{}, chain *plugin.Context) interface{} {
	switch t := v.(type) {
	case string:
		return chain.Interpolate(t)
	case map[string]interface{}:
		return interpolateParams(t, chain)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = interpolateValue(e, chain)
		}
		return out
	default:
		return v
	}
}
