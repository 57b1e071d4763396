package cooldown

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Store persists the last dispatch time per cooldown key (symbol + "_" + signal type)
type Store interface {
	// LastSent returns the last dispatch time; ok is false when the key was never sent
	LastSent(ctx context.Context, key string) (at time.Time, ok bool, err error)
	// MarkSent records a successful dispatch
	MarkSent(ctx context.Context, key string, at time.Time) error
	// All returns every key with its last dispatch time
	All(ctx context.Context) (map[string]time.Time, error)
	Close() error
}

// Drivers
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
)

// Open creates the store for the configured driver
func Open(driver, path string, logger zerolog.Logger) (Store, error) {
	switch driver {
	case DriverSQLite, "":
		return NewSQLiteStore(path, logger)
	case DriverFile:
		return NewFileStore(path, logger)
	default:
		return nil, fmt.Errorf("unknown cooldown store driver: %s", driver)
	}
}
