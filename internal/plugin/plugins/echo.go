// Package plugins holds the built-in plugin implementations.
package plugins

import (
	"context"
	"fmt"
	"sort"

	"github.com/powerwordtree/dynwatch/internal/plugin"
)

// Echo handles the "echo" plugin: every parameter value is rendered
// against the chain context and returned as a result value. Useful for
// wiring tests and as a notification stub.
type Echo struct{}

// NewEcho creates the echo plugin.
func NewEcho() *Echo { return &Echo{} }

// Name implements plugin.Plugin.
func (e *Echo) Name() string { return "echo" }

// Invoke implements plugin.Plugin. Parameters are processed in sorted key
// order so the result set is deterministic.
func (e *Echo) Invoke(ctx context.Context, params map[string]interface{}, chain *plugin.Context) ([]string, error) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	results := make([]string, 0, len(keys))
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, chain.Interpolate(fmt.Sprintf("%v", params[k])))
	}
	return results, nil
}
