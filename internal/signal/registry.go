package signal

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Factory 모듈 생성 함수 타입
type Factory func(cfg Config, logger zerolog.Logger) Module

var (
	registry     = make(map[string]Factory)
	order        []string
	registryLock sync.RWMutex
)

// Register adds a module factory. Registration order is evaluation order,
// which also breaks quality ties in the aggregator.
func Register(name string, factory Factory) {
	registryLock.Lock()
	defer registryLock.Unlock()
	if _, exists := registry[name]; !exists {
		order = append(order, name)
	}
	registry[name] = factory
}

// Get builds one module by name
func Get(name string, cfg Config, logger zerolog.Logger) (Module, error) {
	registryLock.RLock()
	factory, ok := registry[name]
	registryLock.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown signal module: %s (available: %v)", name, List())
	}
	return factory(cfg, logger), nil
}

// List returns registered module names in evaluation order
func List() []string {
	registryLock.RLock()
	defer registryLock.RUnlock()
	return append([]string(nil), order...)
}

// All builds every registered module in evaluation order
func All(cfg Config, logger zerolog.Logger) []Module {
	names := List()
	mods := make([]Module, 0, len(names))
	for _, name := range names {
		if m, err := Get(name, cfg, logger); err == nil {
			mods = append(mods, m)
		}
	}
	return mods
}

// Select builds the named modules; an empty list means all of them
func Select(names []string, cfg Config, logger zerolog.Logger) ([]Module, error) {
	if len(names) == 0 {
		return All(cfg, logger), nil
	}
	mods := make([]Module, 0, len(names))
	for _, name := range names {
		m, err := Get(name, cfg, logger)
		if err != nil {
			return nil, err
		}
		mods = append(mods, m)
	}
	return mods, nil
}

// init 기본 모듈 등록
func init() {
	Register("rsi", func(cfg Config, logger zerolog.Logger) Module { return NewRSIModule(cfg) })
	Register("ma_cross", func(cfg Config, logger zerolog.Logger) Module { return NewMACrossModule(cfg) })
	Register("macd", func(cfg Config, logger zerolog.Logger) Module { return NewMACDModule(cfg) })
	Register("bollinger", func(cfg Config, logger zerolog.Logger) Module { return NewBollingerModule(cfg) })
	Register("pattern", func(cfg Config, logger zerolog.Logger) Module { return NewPatternModule(cfg) })
	Register("ichimoku", func(cfg Config, logger zerolog.Logger) Module { return NewIchimokuModule(cfg) })
	Register("support_resistance", func(cfg Config, logger zerolog.Logger) Module { return NewLevelsModule(cfg, logger) })
	Register("fibonacci", func(cfg Config, logger zerolog.Logger) Module { return NewFibonacciModule(cfg) })
	Register("volatility", func(cfg Config, logger zerolog.Logger) Module { return NewVolatilityModule(cfg) })
	Register("trend", func(cfg Config, logger zerolog.Logger) Module { return NewTrendModule(cfg, logger) })
}
