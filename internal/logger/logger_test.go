package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestLevels(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantDebug bool
		wantInfo  bool
	}{
		{"default", Options{}, false, true},
		{"verbose", Options{Verbose: true}, true, true},
		{"quiet", Options{Quiet: true}, false, false},
		{"quiet wins", Options{Quiet: true, Verbose: true}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewWithWriter(&buf, tt.opts)
			l.Debug().Msg("debug-line")
			l.Info().Msg("info-line")

			out := buf.String()
			if got := strings.Contains(out, "debug-line"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.wantDebug)
			}
			if got := strings.Contains(out, "info-line"); got != tt.wantInfo {
				t.Errorf("info logged = %v, want %v", got, tt.wantInfo)
			}
		})
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithContext(context.Background(), NewWithWriter(&buf, Options{}))

	l := FromContext(ctx)
	l.Info().Str("month", "2022-01").Msg("fetched")

	if !strings.Contains(buf.String(), `"month":"2022-01"`) {
		t.Errorf("log output = %q, want month field", buf.String())
	}
}

func TestFromContextDefault(t *testing.T) {
	l := FromContext(context.Background())
	// Must not panic and must not write anywhere.
	l.Info().Msg("dropped")
}
