package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Config controls log output
type Config struct {
	Level      string `yaml:"level"`   // debug, info, warn, error
	Console    bool   `yaml:"console"` // human-readable stderr instead of JSON
	File       string `yaml:"file"`    // empty disables file output
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// DefaultConfig returns the default log settings
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Console:    true,
		File:       "logs/cryptoscan.log",
		MaxSizeMB:  10,
		MaxBackups: 5,
	}
}

// ParseLevel falls back to info for unknown names
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// New builds the root logger: stderr plus an optional rotating file.
// The returned closer flushes the file writer.
func New(cfg Config) (zerolog.Logger, io.Closer) {
	var console io.Writer = os.Stderr
	if cfg.Console {
		console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}
	}

	writers := []io.Writer{console}
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err == nil {
			lj := &lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.MaxSizeMB,
				MaxBackups: cfg.MaxBackups,
			}
			writers = append(writers, lj)
			closer = lj
		}
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().Timestamp().Logger().
		Level(ParseLevel(cfg.Level))
	return logger, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
