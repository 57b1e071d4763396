package signal

import (
	"cryptoscan/internal/indicator"
	"cryptoscan/pkg/model"
)

// BollingerModule detects bounces off the Bollinger bands
type BollingerModule struct {
	cfg Config
}

// NewBollingerModule creates the Bollinger module
func NewBollingerModule(cfg Config) *BollingerModule {
	return &BollingerModule{cfg: cfg}
}

// Name returns the module name
func (m *BollingerModule) Name() string { return "bollinger" }

// Description returns the module description
func (m *BollingerModule) Description() string {
	return "Price pierces a Bollinger band and closes back inside on the next bar"
}

// Check tests both bands; the target is the middle band
func (m *BollingerModule) Check(f *indicator.Frame) []model.Signal {
	if f.Len() < 4 {
		return nil
	}
	entry := f.LastClose()
	rsi := indicator.Back(f.RSI, 1)
	middle := indicator.Back(f.BBMiddle, 1)

	var out []model.Signal
	if indicator.Back(f.Low, 2) < indicator.Back(f.BBLower, 2) && entry > indicator.Back(f.BBLower, 1) {
		stop := lowest(f.Low, 3) * 0.99
		quality := BaseQuality(f, model.Bullish)
		if rsi < m.cfg.RSIOversold {
			quality += 15
		}
		kind := model.Kind{Category: model.CategoryBollinger, Direction: model.Bullish}
		out = append(out, newSignal(f, m.Name(), kind, entry, stop, middle, quality,
			"Price bounced off the lower Bollinger band. Possible move toward the middle band."))
	}
	if indicator.Back(f.High, 2) > indicator.Back(f.BBUpper, 2) && entry < indicator.Back(f.BBUpper, 1) {
		stop := highest(f.High, 3) * 1.01
		quality := BaseQuality(f, model.Bearish)
		if rsi > m.cfg.RSIOverbought {
			quality += 15
		}
		kind := model.Kind{Category: model.CategoryBollinger, Direction: model.Bearish}
		out = append(out, newSignal(f, m.Name(), kind, entry, stop, middle, quality,
			"Price was rejected at the upper Bollinger band. Possible move toward the middle band."))
	}
	return out
}
