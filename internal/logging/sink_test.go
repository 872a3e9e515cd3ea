package logging

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/powerwordtree/dynwatch/internal/config"
)

func fileOutput(t *testing.T, cfg config.LogConfig) (*Sink, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.log")
	cfg.Output = path
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "json"
	}
	if cfg.Level == "" {
		cfg.Level = "DEBUG"
	}
	if cfg.DateFormat == "" {
		cfg.DateFormat = config.DefaultLogDateFormat
	}
	s, err := New([]config.LogConfig{cfg})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	t.Cleanup(s.Close)
	return s, path
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var lines []string
	for _, l := range strings.Split(string(data), "\n") {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func TestSinkJSONOutput(t *testing.T) {
	s, path := fileOutput(t, config.LogConfig{})

	s.Write(Record{
		Time:    time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Level:   zerolog.ErrorLevel,
		Watcher: "demo",
		Group:   "first",
		Action:  "echo",
		RunID:   "abc-123",
		Message: "attempt failed",
		Err:     errors.New("boom"),
	})
	s.Close()

	lines := readLines(t, path)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	var rec map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not JSON: %v (line=%q)", err, lines[0])
	}
	want := map[string]string{
		"level":     "error",
		"watcher":   "demo",
		"group":     "first",
		"action":    "echo",
		"run_id":    "abc-123",
		"message":   "attempt failed",
		"error":     "boom",
		"timestamp": "2026-03-14 09:30:00",
	}
	for k, v := range want {
		if rec[k] != v {
			t.Errorf("field %s = %v, want %q", k, rec[k], v)
		}
	}
}

func TestSinkLevelThreshold(t *testing.T) {
	s, path := fileOutput(t, config.LogConfig{Level: "WARNING"})

	log := s.Logger()
	log.Debugf("too low")
	log.Infof("still too low")
	log.Warnf("passes")
	log.Errorf("passes too")
	s.Close()

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %v", len(lines), lines)
	}
}

func TestSinkLevelFilters(t *testing.T) {
	s, path := fileOutput(t, config.LogConfig{LevelFilters: []string{"DEBUG", "ERROR"}})

	log := s.Logger()
	log.Debugf("kept")
	log.Infof("dropped")
	log.Warnf("dropped")
	log.Errorf("kept")
	s.Close()

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2 (only DEBUG and ERROR pass): %v", len(lines), lines)
	}
}

func TestSinkNameFilters(t *testing.T) {
	s, path := fileOutput(t, config.LogConfig{NameFilters: []string{"-prod"}})

	log := s.Logger()
	log.WithWatcher("db-prod").Infof("kept")
	log.WithWatcher("db-staging").Infof("dropped")
	log.WithWatcher("web-prod").Infof("kept")
	s.Close()

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2 (suffix match on watcher name): %v", len(lines), lines)
	}
}

func TestSinkMsgFilters(t *testing.T) {
	s, path := fileOutput(t, config.LogConfig{MsgFilters: []string{`tick \d+`}})

	log := s.Logger()
	log.Infof("tick 42 complete")
	log.Infof("something else")
	s.Close()

	lines := readLines(t, path)
	if len(lines) != 1 || !strings.Contains(lines[0], "tick 42") {
		t.Fatalf("got %v, want only the matching message", lines)
	}
}

func TestSinkTemplateOutput(t *testing.T) {
	s, path := fileOutput(t, config.LogConfig{
		OutputFormat: "text",
		TextFormat:   "[{timestamp}] {level} {watcher}/{group}: {message}",
	})

	s.Write(Record{
		Time:    time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Level:   zerolog.InfoLevel,
		Watcher: "demo",
		Group:   "first",
		Message: "hello",
	})
	s.Close()

	lines := readLines(t, path)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	want := "[2026-03-14 09:30:00] INFO demo/first: hello"
	if lines[0] != want {
		t.Errorf("line = %q, want %q", lines[0], want)
	}
}

func TestSinkFanOut(t *testing.T) {
	dir := t.TempDir()
	all := filepath.Join(dir, "all.log")
	errs := filepath.Join(dir, "errors.log")
	s, err := New([]config.LogConfig{
		{Output: all, OutputFormat: "json", Level: "DEBUG", DateFormat: config.DefaultLogDateFormat},
		{Output: errs, OutputFormat: "json", Level: "ERROR", DateFormat: config.DefaultLogDateFormat},
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	log := s.Logger()
	log.Infof("routine")
	log.Errorf("bad")
	s.Close()

	if got := readLines(t, all); len(got) != 2 {
		t.Errorf("all.log has %d lines, want 2", len(got))
	}
	if got := readLines(t, errs); len(got) != 1 {
		t.Errorf("errors.log has %d lines, want 1", len(got))
	}
}

func TestNew_BadConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.LogConfig
	}{
		{"bad level", config.LogConfig{Output: "stdout", OutputFormat: "json", Level: "LOUD"}},
		{"bad format", config.LogConfig{Output: "stdout", OutputFormat: "xml", Level: "INFO"}},
		{"bad msg regexp", config.LogConfig{Output: "stdout", OutputFormat: "json", Level: "INFO", MsgFilters: []string{"("}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New([]config.LogConfig{tc.cfg}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"WARNING", zerolog.WarnLevel},
		{"warn", zerolog.WarnLevel},
		{"ERROR", zerolog.ErrorLevel},
		{"CRITICAL", zerolog.FatalLevel},
	}
	for _, tc := range cases {
		got, err := ParseLevel(tc.in)
		if err != nil {
			t.Errorf("ParseLevel(%q) error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if _, err := ParseLevel("TRACE"); err == nil {
		t.Error("expected error for unknown level")
	}
}
