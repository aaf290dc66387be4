package ctl

import (
	"testing"
	"time"
)

func TestFormatEventTime(t *testing.T) {
	cases := []struct {
		name string
		ts   any
		want string
	}{
		{"missing", nil, "          "},
		{"non-string", 1757000000.0, "          "},
		{"short garbage", "abc", "abc       "},
		{"long garbage", "not-a-timestamp", "not-a-time"},
		{"empty", "", "          "},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ev := map[string]any{}
			if c.ts != nil {
				ev["ts"] = c.ts
			}
			if got := formatEventTime(ev); got != c.want {
				t.Errorf("formatEventTime = %q, want %q", got, c.want)
			}
		})
	}
}

func TestFormatEventTimeRFC3339(t *testing.T) {
	ts := time.Date(2026, 2, 15, 14, 30, 22, 0, time.UTC)
	ev := map[string]any{"ts": ts.Format(time.RFC3339Nano)}

	want := ts.Local().Format("15:04:05")
	if got := formatEventTime(ev); got != want {
		t.Errorf("formatEventTime = %q, want %q", got, want)
	}
}
