package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Loader reads a YAML config file and watches it for changes.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *Config
	onChange []func(*Config)
	watcher  *fsnotify.Watcher
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// Config returns the current (latest) configuration.
func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the config reloads.
func (l *Loader) OnChange(fn func(*Config)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the config on file
// changes. Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", l.path, err)
	}
	l.watcher = w

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					cfg, err := l.load()
					if err != nil {
						// Keep running with the old config.
						continue
					}
					l.swap(cfg)
				}
			case <-w.Errors:
				// Ignore watcher errors.
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

// Reload forces an immediate re-read of the config file.
func (l *Loader) Reload() (*Config, error) {
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.swap(cfg)
	return cfg, nil
}

func (l *Loader) swap(cfg *Config) {
	l.mu.Lock()
	l.current = cfg
	callbacks := make([]func(*Config), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(cfg)
	}
}

func (l *Loader) load() (*Config, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", l.path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", l.path, err)
	}
	return cfg, nil
}

// Parse unmarshals raw YAML and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// ApplyDefaults fills in every absent optional field.
func ApplyDefaults(cfg *Config) {
	if len(cfg.Logs) == 0 {
		cfg.Logs = []LogConfig{{}}
	}
	for i := range cfg.Logs {
		lc := &cfg.Logs[i]
		if lc.Output == "" {
			lc.Output = DefaultLogOutput
		}
		if lc.OutputFormat == "" {
			lc.OutputFormat = DefaultLogOutputFormat
		}
		if lc.Level == "" {
			lc.Level = DefaultLogLevel
		}
		if lc.DateFormat == "" {
			lc.DateFormat = DefaultLogDateFormat
		}
	}
	for i := range cfg.Watchers {
		w := &cfg.Watchers[i]
		if w.Interval == 0 {
			w.Interval = DefaultInterval
		}
		if w.Tolerance == 0 {
			w.Tolerance = DefaultTolerance
		}
		applyGroupDefaults(w.Fetches)
		applyGroupDefaults(w.Executes)
	}
}

func applyGroupDefaults(groups []Group) {
	for i := range groups {
		g := &groups[i]
		if g.ChainStrategy == "" {
			g.ChainStrategy = DefaultChainStrategy
		}
		if g.ResultStrategy == "" {
			g.ResultStrategy = DefaultResultStrategy
		}
		if g.ErrorStrategy == "" {
			g.ErrorStrategy = DefaultErrorStrategy
		}
		for j := range g.Actions {
			a := &g.Actions[j]
			if a.Timeout == 0 {
				a.Timeout = DefaultTimeout
			}
			if a.Retries == 0 {
				a.Retries = DefaultRetries
			}
			if a.Delay == 0 {
				a.Delay = DefaultDelay
			}
		}
	}
}
