package plugin

import (
	"fmt"
	"strings"
)

// Context carries the accumulated state of the current tick into plugin
// invocations: prior fetch results for parameter interpolation and a
// scratch area plugins may share within the tick.
type Context struct {
	Watcher string
	// Vars maps interpolation keys, e.g. "fetches[0].result" or
	// "fetches[0].exception", to their rendered values.
	Vars map[string]string
	// Extra is tick-scoped scratch space shared between plugins.
	Extra map[string]interface{}

	counters map[string]int
}

// NewContext creates an empty chain context for a watcher.
func NewContext(watcher string) *Context {
	return &Context{
		Watcher:  watcher,
		Vars:     make(map[string]string),
		Extra:    make(map[string]interface{}),
		counters: make(map[string]int),
	}
}

// SetVar records an interpolation variable.
func (c *Context) SetVar(key, value string) {
	c.Vars[key] = value
}

// Record appends an action outcome under the next index of prefix, making
// it available to later actions as {prefix[N].result} and
// {prefix[N].exception}. Indices count actions per phase in declaration
// order, across group boundaries.
func (c *Context) Record(prefix string, values []string, err error) {
	idx := c.counters[prefix]
	c.counters[prefix] = idx + 1
	key := fmt.Sprintf("%s[%d]", prefix, idx)
	c.Vars[key+".result"] = strings.Join(values, ", ")
	if err != nil {
		c.Vars[key+".exception"] = err.Error()
	} else {
		c.Vars[key+".exception"] = ""
	}
}

// Interpolate substitutes {key} placeholders in s with the context's
// variables. Unknown keys are left verbatim, braces included, so plugin
// parameters that merely look like placeholders pass through unchanged.
func (c *Context) Interpolate(s string) string {
	if !strings.ContainsRune(s, '{') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for {
		open := strings.IndexByte(s, '{')
		if open < 0 {
			b.WriteString(s)
			return b.String()
		}
		close := strings.IndexByte(s[open:], '}')
		if close < 0 {
			b.WriteString(s)
			return b.String()
		}
		close += open
		b.WriteString(s[:open])
		key := s[open+1 : close]
		if val, ok := c.Vars[key]; ok {
			b.WriteString(val)
		} else {
			b.WriteString(s[open : close+1])
		}
		s = s[close+1:]
	}
}
