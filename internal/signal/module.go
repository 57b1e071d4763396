package signal

import (
	"fmt"

	"github.com/rs/zerolog"

	"cryptoscan/internal/indicator"
	"cryptoscan/internal/levels"
	"cryptoscan/internal/pattern"
	"cryptoscan/pkg/model"
)

// Module evaluates one family of detection rules against an indicator frame.
// Check never fails: a module that cannot evaluate returns no signals.
type Module interface {
	Name() string
	Description() string
	Check(f *indicator.Frame) []model.Signal
}

// Config holds module thresholds. It is built once and shared read-only.
type Config struct {
	RSIOverbought float64
	RSIOversold   float64

	// Volatility alerts are scoped to one instrument
	VolatilitySymbol string
	ATRPeriod        int
	ATRAverageBars   int
	ATRMultiplier    float64

	Levels  levels.Config
	Pattern pattern.Config
}

// DefaultConfig returns the default module thresholds
func DefaultConfig() Config {
	return Config{
		RSIOverbought:    70,
		RSIOversold:      30,
		VolatilitySymbol: "BTCUSDT",
		ATRPeriod:        20,
		ATRAverageBars:   100,
		ATRMultiplier:    2,
		Levels:           levels.DefaultConfig(),
		Pattern:          pattern.DefaultConfig(),
	}
}

// Check runs a module and contains any panic to that module
func Check(m Module, f *indicator.Frame) (signals []model.Signal, err error) {
	defer func() {
		if r := recover(); r != nil {
			signals = nil
			err = fmt.Errorf("module %s: panic: %v", m.Name(), r)
		}
	}()
	return m.Check(f), nil
}

// Info describes a registered module
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Describe returns name and description of every registered module, in evaluation order
func Describe(cfg Config, logger zerolog.Logger) []Info {
	mods := All(cfg, logger)
	out := make([]Info, 0, len(mods))
	for _, m := range mods {
		out = append(out, Info{Name: m.Name(), Description: m.Description()})
	}
	return out
}
