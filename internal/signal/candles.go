package signal

import (
	"cryptoscan/internal/indicator"
	"cryptoscan/internal/pattern"
	"cryptoscan/pkg/model"
)

// PatternModule turns candlestick formations into pattern signals
type PatternModule struct {
	cfg      Config
	detector *pattern.Detector
}

// NewPatternModule creates the candlestick pattern module
func NewPatternModule(cfg Config) *PatternModule {
	return &PatternModule{
		cfg:      cfg,
		detector: pattern.NewDetector(cfg.Pattern),
	}
}

// Name returns the module name
func (m *PatternModule) Name() string { return "pattern" }

// Description returns the module description
func (m *PatternModule) Description() string {
	return "Candlestick formations: pin bar, engulfing, doji, star, three soldiers/crows"
}

// Check emits one signal per formation ending at the last bar
func (m *PatternModule) Check(f *indicator.Frame) []model.Signal {
	found := m.detector.Detect(f.Candles)
	if len(found) == 0 {
		return nil
	}
	entry := f.LastClose()

	out := make([]model.Signal, 0, len(found))
	for _, p := range found {
		kind := model.Kind{Category: model.CategoryPattern, Direction: p.Direction, Variant: p.Name}
		if p.Direction == model.Bullish {
			stop := lowest(f.Low, 3) * 0.99
			out = append(out, newSignal(f, m.Name(), kind, entry, stop, longTarget(entry, stop),
				BaseQuality(f, model.Bullish), p.Description))
			continue
		}
		stop := highest(f.High, 3) * 1.01
		out = append(out, newSignal(f, m.Name(), kind, entry, stop, shortTarget(entry, stop),
			BaseQuality(f, model.Bearish), p.Description))
	}
	return out
}
