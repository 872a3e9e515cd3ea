package config

import (
	"fmt"
	"regexp"
	"strings"
)

// Watcher and plugin names are short alnum/underscore/dash identifiers.
var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,15}$`)

var (
	chainStrategies  = map[string]bool{ChainContinue: true, ChainSuccessStop: true, ChainFailureStop: true}
	resultStrategies = map[string]bool{ResultMerge: true, ResultOverwrite: true}
	errorStrategies  = map[string]bool{ErrorSkip: true, ErrorReset: true, ErrorFetchReset: true, ErrorExecuteReset: true}
)

// Validate checks config-file-level problems: issues that make the whole
// file unusable. Per-watcher faults are left to ValidateWatcher so one bad
// watcher cannot take the others down.
func Validate(cfg *Config) error {
	var errs []string

	if len(cfg.Watchers) == 0 {
		errs = append(errs, "at least one watcher is required")
	}
	seen := make(map[string]bool)
	for i, w := range cfg.Watchers {
		if w.Name == "" {
			errs = append(errs, fmt.Sprintf("watchers[%d]: name is required", i))
			continue
		}
		if seen[w.Name] {
			errs = append(errs, fmt.Sprintf("duplicate watcher name %q", w.Name))
		}
		seen[w.Name] = true
	}
	for i, lc := range cfg.Logs {
		if lc.OutputFormat != "text" && lc.OutputFormat != "json" {
			errs = append(errs, fmt.Sprintf("logs[%d]: unknown output_format %q", i, lc.OutputFormat))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ValidateWatcher checks a single watcher definition. A non-nil error is a
// configuration error: the watcher is excluded from scheduling while the
// rest of the config proceeds.
func ValidateWatcher(w *Watcher) error {
	var errs []string

	if !namePattern.MatchString(w.Name) {
		errs = append(errs, fmt.Sprintf("name %q must match %s", w.Name, namePattern))
	}
	if w.Interval <= 0 {
		errs = append(errs, fmt.Sprintf("interval must be > 0, got %v", w.Interval))
	}
	if w.Tolerance < 0 {
		errs = append(errs, fmt.Sprintf("tolerance must be >= 0, got %d", w.Tolerance))
	}
	if w.Expression == "" {
		errs = append(errs, "expression is required")
	}
	if len(w.Fetches) == 0 {
		errs = append(errs, "at least one fetch group is required")
	}
	if len(w.Executes) == 0 {
		errs = append(errs, "at least one execute group is required")
	}
	validateGroups(w.Fetches, "fetches", &errs)
	validateGroups(w.Executes, "executes", &errs)

	if len(errs) > 0 {
		return fmt.Errorf("watcher %s:\n  - %s", w.Name, strings.Join(errs, "\n  - "))
	}
	return nil
}

func validateGroups(groups []Group, section string, errs *[]string) {
	seen := make(map[string]bool)
	for i, g := range groups {
		loc := fmt.Sprintf("%s[%d]", section, i)
		if g.Name == "" {
			*errs = append(*errs, loc+": name is required")
		} else if seen[g.Name] {
			*errs = append(*errs, fmt.Sprintf("%s: duplicate group name %q", loc, g.Name))
		}
		seen[g.Name] = true
		if !chainStrategies[g.ChainStrategy] {
			*errs = append(*errs, fmt.Sprintf("%s: unknown chain_strategy %q", loc, g.ChainStrategy))
		}
		if !resultStrategies[g.ResultStrategy] {
			*errs = append(*errs, fmt.Sprintf("%s: unknown result_strategy %q", loc, g.ResultStrategy))
		}
		if !errorStrategies[g.ErrorStrategy] {
			*errs = append(*errs, fmt.Sprintf("%s: unknown error_strategy %q", loc, g.ErrorStrategy))
		}
		if len(g.Actions) == 0 {
			*errs = append(*errs, loc+": at least one action is required")
		}
		for j, a := range g.Actions {
			aloc := fmt.Sprintf("%s.actions[%d]", loc, j)
			if !namePattern.MatchString(a.Plugin) {
				*errs = append(*errs, fmt.Sprintf("%s: plugin %q must match %s", aloc, a.Plugin, namePattern))
			}
			if a.Timeout <= 0 {
				*errs = append(*errs, fmt.Sprintf("%s: timeout must be > 0, got %v", aloc, a.Timeout))
			}
			if a.Retries < 0 {
				*errs = append(*errs, fmt.Sprintf("%s: retries must be >= 0, got %d", aloc, a.Retries))
			}
			if a.Delay < 0 {
				*errs = append(*errs, fmt.Sprintf("%s: delay must be >= 0, got %v", aloc, a.Delay))
			}
		}
	}
}
