// Package plugin defines the capability contract actions invoke and the
// name-to-implementation registry populated at startup. Plugins are
// opaque to the engine: a named, parameterized unit returning result
// values or an error.
package plugin

import "context"

// Plugin is the interface all plugin implementations must satisfy.
type Plugin interface {
	// Name returns the string key this plugin is registered under.
	Name() string
	// Invoke runs the plugin with the action's parameters and the
	// chain's accumulated context, returning its result values.
	// Implementations must honor ctx cancellation; the caller bounds
	// each invocation with the action's timeout.
	Invoke(ctx context.Context, params map[string]interface{}, chain *Context) ([]string, error)
}
