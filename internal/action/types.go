// Package action runs single plugin invocations with timeout and retry,
// and chains them into groups whose combined results feed the watcher
// expression.
package action

import (
	"time"

	"github.com/powerwordtree/dynwatch/internal/result"
)

// Status tags the final outcome of one action run.
type Status string

// Action outcomes.
const (
	StatusSuccess   Status = "success"
	StatusFailure   Status = "failure"   // plugin-reported error or timeout
	StatusException Status = "exception" // cancellation or plugin panic
)

// Result holds the outcome of one action run (final attempt only).
// It is never mutated after creation.
type Result struct {
	Plugin   string
	Status   Status
	Values   []string
	Err      error
	Attempts int
	Elapsed  time.Duration
}

// Failed reports whether the run did not end in success.
func (r *Result) Failed() bool { return r.Status != StatusSuccess }

// GroupResult is the combined outcome of one group's chain.
type GroupResult struct {
	Group   string
	Set     result.Set
	Success bool
	Actions []*Result
}
