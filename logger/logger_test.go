package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"debug":   zerolog.DebugLevel,
		"WARN":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWritesJSONWithService(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "info", Environment: "production", Output: &buf})

	log.Info().Str("k", "v").Msg("hello")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["service"] != serviceName {
		t.Errorf("expected service %q, got %v", serviceName, entry["service"])
	}
	if entry["message"] != "hello" {
		t.Errorf("expected message hello, got %v", entry["message"])
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "error", Output: &buf})

	log.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered at error level, got %q", buf.String())
	}
}
