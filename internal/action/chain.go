package action

import (
	"context"

	"github.com/powerwordtree/dynwatch/internal/config"
	"github.com/powerwordtree/dynwatch/internal/logging"
	"github.com/powerwordtree/dynwatch/internal/plugin"
	"github.com/powerwordtree/dynwatch/internal/result"
)

// ChainExecutor runs a group's actions in order, applies the group's
// chain strategy after every action, and combines the outcomes into one
// result set per the group's result strategy.
type ChainExecutor struct {
	runner *Runner
}

// NewChainExecutor creates a ChainExecutor over the given runner.
func NewChainExecutor(runner *Runner) *ChainExecutor {
	return &ChainExecutor{runner: runner}
}

// Execute runs the group. varPrefix names the phase ("fetches" or
// "executes") under which each action's outcome is recorded in the chain
// context for later interpolation.
func (e *ChainExecutor) Execute(ctx context.Context, group config.Group, chain *plugin.Context, varPrefix string, log *logging.Logger) *GroupResult {
	log = log.WithGroup(group.Name)
	log.Debugf("group starting: %d action(s), chain=%s result=%s", len(group.Actions), group.ChainStrategy, group.ResultStrategy)

	gr := &GroupResult{
		Group: group.Name,
		Set:   result.New(),
	}
	anySuccess := false
	anyFailure := false

	for i, act := range group.Actions {
		alog := log.WithAction(act.Plugin)
		alog.Debugf("executing action %d/%d", i+1, len(group.Actions))

		res := e.runner.Run(ctx, act, chain, alog)
		gr.Actions = append(gr.Actions, res)
		chain.Record(varPrefix, res.Values, res.Err)

		switch group.ResultStrategy {
		case config.ResultOverwrite:
			gr.Set = result.New(res.Values...)
		default: // merge
			gr.Set.Add(res.Values...)
		}

		if res.Failed() {
			anyFailure = true
		} else {
			anySuccess = true
		}

		if stop, why := stopChain(group.ChainStrategy, res); stop {
			if i < len(group.Actions)-1 {
				log.Infof("chain stopped after action %d/%d (%s); remaining actions skipped", i+1, len(group.Actions), why)
			}
			break
		}
	}

	switch group.ChainStrategy {
	case config.ChainSuccessStop:
		gr.Success = anySuccess
	default: // continue, failure_stop
		gr.Success = !anyFailure
	}

	log.Debugf("group finished: success=%t members=%d", gr.Success, gr.Set.Len())
	return gr
}

func stopChain(strategy string, res *Result) (bool, string) {
	switch strategy {
	case config.ChainSuccessStop:
		if !res.Failed() {
			return true, "success_stop"
		}
	case config.ChainFailureStop:
		if res.Failed() {
			return true, "failure_stop"
		}
	}
	return false, ""
}
