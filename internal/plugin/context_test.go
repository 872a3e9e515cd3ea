package plugin

import (
	"errors"
	"testing"
)

func TestContextRecord(t *testing.T) {
	ctx := NewContext("demo")
	ctx.Record("fetches", []string{"a", "b"}, nil)
	ctx.Record("fetches", nil, errors.New("boom"))
	ctx.Record("executes", []string{"x"}, nil)

	cases := []struct {
		key  string
		want string
	}{
		{"fetches[0].result", "a, b"},
		{"fetches[0].exception", ""},
		{"fetches[1].result", ""},
		{"fetches[1].exception", "boom"},
		{"executes[0].result", "x"},
		{"executes[0].exception", ""},
	}
	for _, tc := range cases {
		if got := ctx.Vars[tc.key]; got != tc.want {
			t.Errorf("Vars[%q] = %q, want %q", tc.key, got, tc.want)
		}
	}
}

func TestContextInterpolate(t *testing.T) {
	ctx := NewContext("demo")
	ctx.SetVar("fetches[0].result", "one, two")
	ctx.SetVar("name", "demo")

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "no placeholders", "no placeholders"},
		{"single", "got: {fetches[0].result}", "got: one, two"},
		{"multiple", "{name}={fetches[0].result}", "demo=one, two"},
		{"unknown key verbatim", "keep {missing} here", "keep {missing} here"},
		{"unclosed brace verbatim", "dangling {open", "dangling {open"},
		{"adjacent", "{name}{name}", "demodemo"},
		{"empty placeholder", "a {} b", "a {} b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ctx.Interpolate(tc.in); got != tc.want {
				t.Errorf("Interpolate(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
