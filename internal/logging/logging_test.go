package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARN":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q): expected %v, got %v", in, want, got)
		}
	}
}

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "scan.log")
	logger, closer := New(Config{Level: "info", File: path, MaxSizeMB: 1, MaxBackups: 1})

	logger.Debug().Msg("hidden")
	logger.Info().Str("symbol", "BTCUSDT").Msg("scan complete")
	if err := closer.Close(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected log file: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"symbol":"BTCUSDT"`) || !strings.Contains(out, "scan complete") {
		t.Errorf("Expected JSON record in file, got %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Error("Expected debug record to be filtered at info level")
	}
}
