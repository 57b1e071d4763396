package signal

import (
	"fmt"

	"github.com/rs/zerolog"

	"cryptoscan/internal/indicator"
	"cryptoscan/internal/levels"
	"cryptoscan/pkg/model"
)

const srProximity = 0.02

// LevelsModule signals when price trades within 2% of a support or resistance level
type LevelsModule struct {
	cfg       Config
	extractor *levels.Extractor
}

// NewLevelsModule creates the support/resistance proximity module
func NewLevelsModule(cfg Config, logger zerolog.Logger) *LevelsModule {
	return &LevelsModule{
		cfg:       cfg,
		extractor: levels.NewExtractor(cfg.Levels, logger),
	}
}

// Name returns the module name
func (m *LevelsModule) Name() string { return "support_resistance" }

// Description returns the module description
func (m *LevelsModule) Description() string {
	return "Price testing a support or resistance level, target at the opposing level"
}

// Check emits one signal per level in range
func (m *LevelsModule) Check(f *indicator.Frame) []model.Signal {
	if f.Len() == 0 {
		return nil
	}
	lv := m.extractor.Find(f.Candles)
	last := f.LastClose()
	rising := indicator.Back(f.Volume, 1) > indicator.Back(f.Volume, 2)

	var out []model.Signal
	for _, level := range lv.Support {
		if !((1-srProximity)*last <= level && level <= (1+srProximity)*last) {
			continue
		}
		stop := level * 0.98
		target := longTarget(last, stop)
		if above := levelsAbove(lv.Resistance, last); len(above) > 0 {
			target = minOf(above)
		}
		quality := BaseQuality(f, model.Bullish)
		if rising {
			quality += 10
		}
		kind := model.Kind{Category: model.CategorySRProximity, Direction: model.Bullish}
		out = append(out, newSignal(f, m.Name(), kind, last, stop, target, quality,
			fmt.Sprintf("Price is testing support at %.8g. Possible bounce up.", level)))
	}
	for _, level := range lv.Resistance {
		if !((1-srProximity)*level <= last && last <= (1+srProximity)*level) {
			continue
		}
		stop := level * 1.02
		target := shortTarget(last, stop)
		if below := levelsBelow(lv.Support, last); len(below) > 0 {
			target = maxOf(below)
		}
		quality := BaseQuality(f, model.Bearish)
		if rising {
			quality += 10
		}
		kind := model.Kind{Category: model.CategorySRProximity, Direction: model.Bearish}
		out = append(out, newSignal(f, m.Name(), kind, last, stop, target, quality,
			fmt.Sprintf("Price is testing resistance at %.8g. Possible pullback.", level)))
	}
	return out
}

func levelsAbove(lvs []float64, price float64) []float64 {
	var out []float64
	for _, l := range lvs {
		if l > price {
			out = append(out, l)
		}
	}
	return out
}

func levelsBelow(lvs []float64, price float64) []float64 {
	var out []float64
	for _, l := range lvs {
		if l < price {
			out = append(out, l)
		}
	}
	return out
}

func minOf(vals []float64) float64 {
	v := vals[0]
	for _, x := range vals[1:] {
		v = min(v, x)
	}
	return v
}

func maxOf(vals []float64) float64 {
	v := vals[0]
	for _, x := range vals[1:] {
		v = max(v, x)
	}
	return v
}
