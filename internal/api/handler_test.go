package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/powerwordtree/dynwatch/internal/config"
	"github.com/powerwordtree/dynwatch/internal/engine"
	"github.com/powerwordtree/dynwatch/internal/logging"
	"github.com/powerwordtree/dynwatch/internal/plugin"
	"github.com/powerwordtree/dynwatch/internal/plugin/plugins"
)

const testConfig = `
watchers:
  - name: api-demo
    interval: 3600
    expression: fetch_0 == empty
    fetches:
      - name: probe
        actions:
          - plugin: echo
            message: ""
    executes:
      - name: notify
        actions:
          - plugin: echo
            message: changed
`

func testHandler(t *testing.T) (http.Handler, string, *engine.Scheduler) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(testConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	loader, err := config.NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader error: %v", err)
	}

	reg := plugin.NewRegistry()
	reg.Register(plugins.NewEcho())
	sched := engine.New(reg, logging.Discard(), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	sched.Start(ctx, loader.Config())
	t.Cleanup(sched.Shutdown)

	loader.OnChange(func(cfg *config.Config) {
		if config.Validate(cfg) == nil {
			sched.Swap(cfg)
		}
	})
	return New(sched, loader), path, sched
}

func TestStatusEndpoint(t *testing.T) {
	h, _, _ := testHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Watchers []engine.Status `json:"watchers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if len(body.Watchers) != 1 || body.Watchers[0].Name != "api-demo" {
		t.Errorf("watchers = %+v", body.Watchers)
	}
}

func TestReloadEndpoint(t *testing.T) {
	h, path, sched := testHandler(t)

	updated := testConfig + `
  - name: second-w
    interval: 3600
    expression: fetch_0 == empty
    fetches:
      - name: probe
        actions:
          - plugin: echo
            message: ""
    executes:
      - name: notify
        actions:
          - plugin: echo
            message: changed
`
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/reload", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body=%s)", rec.Code, rec.Body.String())
	}
	var body struct {
		Reloaded  bool `json:"reloaded"`
		Scheduled int  `json:"scheduled"`
		Defined   int  `json:"defined"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if !body.Reloaded || body.Defined != 2 || body.Scheduled != 2 {
		t.Errorf("body = %+v", body)
	}
	if snap := sched.Snapshot(); len(snap) != 2 {
		t.Errorf("scheduler has %d watchers after reload, want 2", len(snap))
	}
}

func TestReloadEndpoint_InvalidConfig(t *testing.T) {
	h, path, sched := testHandler(t)

	if err := os.WriteFile(path, []byte("watchers: []"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/reload", nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if body.Error == "" {
		t.Error("error message missing")
	}
	// The old watcher set keeps running.
	if snap := sched.Snapshot(); len(snap) != 1 {
		t.Errorf("scheduler has %d watchers, want 1", len(snap))
	}
}

func TestHealthz(t *testing.T) {
	h, _, _ := testHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h, _, _ := testHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
