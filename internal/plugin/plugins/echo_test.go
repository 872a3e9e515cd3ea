package plugins

import (
	"context"
	"reflect"
	"testing"

	"github.com/powerwordtree/dynwatch/internal/plugin"
)

func TestEchoInvoke(t *testing.T) {
	chain := plugin.NewContext("demo")
	chain.SetVar("fetches[0].result", "host-a, host-b")

	e := NewEcho()
	params := map[string]interface{}{
		"b_message": "seen: {fetches[0].result}",
		"a_count":   3,
		"c_raw":     "{not_a_var}",
	}
	got, err := e.Invoke(context.Background(), params, chain)
	if err != nil {
		t.Fatalf("Invoke error: %v", err)
	}
	want := []string{"3", "seen: host-a, host-b", "{not_a_var}"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Invoke = %v, want %v", got, want)
	}
}

func TestEchoInvoke_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := NewEcho()
	_, err := e.Invoke(ctx, map[string]interface{}{"k": "v"}, plugin.NewContext("demo"))
	if err == nil {
		t.Error("expected error from cancelled context")
	}
}
