package signal

import (
	"cryptoscan/internal/indicator"
	"cryptoscan/pkg/model"
)

// MACrossModule detects golden and death crosses of the short and long EMA
type MACrossModule struct {
	cfg Config
}

// NewMACrossModule creates the moving-average cross module
func NewMACrossModule(cfg Config) *MACrossModule {
	return &MACrossModule{cfg: cfg}
}

// Name returns the module name
func (m *MACrossModule) Name() string { return "ma_cross" }

// Description returns the module description
func (m *MACrossModule) Description() string {
	return "Short EMA crossing the long EMA (golden / death cross)"
}

// Check looks for a cross between the previous and the last bar
func (m *MACrossModule) Check(f *indicator.Frame) []model.Signal {
	if f.Len() < 3 {
		return nil
	}
	entry := f.LastClose()

	if crossedAbove(f.EMAShort, f.EMALong) {
		stop := lowest(f.Low, 5) * 0.99
		kind := model.Kind{Category: model.CategoryMACross, Direction: model.Bullish}
		return []model.Signal{newSignal(f, m.Name(), kind, entry, stop, longTarget(entry, stop),
			BaseQuality(f, model.Bullish),
			"Short EMA crossed above the long EMA. Possible move up.")}
	}
	if crossedBelow(f.EMAShort, f.EMALong) {
		stop := highest(f.High, 5) * 1.01
		kind := model.Kind{Category: model.CategoryMACross, Direction: model.Bearish}
		return []model.Signal{newSignal(f, m.Name(), kind, entry, stop, shortTarget(entry, stop),
			BaseQuality(f, model.Bearish),
			"Short EMA crossed below the long EMA. Possible move down.")}
	}
	return nil
}

// MACDModule detects MACD line / signal line crossovers
type MACDModule struct {
	cfg Config
}

// NewMACDModule creates the MACD module
func NewMACDModule(cfg Config) *MACDModule {
	return &MACDModule{cfg: cfg}
}

// Name returns the module name
func (m *MACDModule) Name() string { return "macd" }

// Description returns the module description
func (m *MACDModule) Description() string {
	return "MACD crossing its signal line, stronger when the histogram flips sign"
}

// Check looks for a crossover on the last bar
func (m *MACDModule) Check(f *indicator.Frame) []model.Signal {
	if f.Len() < 3 {
		return nil
	}
	entry := f.LastClose()
	prevHist := indicator.Back(f.MACDHist, 2)
	hist := indicator.Back(f.MACDHist, 1)

	if crossedAbove(f.MACD, f.MACDSignal) {
		stop := lowest(f.Low, 5) * 0.99
		quality := BaseQuality(f, model.Bullish)
		if prevHist < 0 && hist > 0 {
			quality += 10
		}
		kind := model.Kind{Category: model.CategoryMACDCross, Direction: model.Bullish}
		return []model.Signal{newSignal(f, m.Name(), kind, entry, stop, longTarget(entry, stop), quality,
			"MACD crossed above its signal line. Possible move up.")}
	}
	if crossedBelow(f.MACD, f.MACDSignal) {
		stop := highest(f.High, 5) * 1.01
		quality := BaseQuality(f, model.Bearish)
		if prevHist > 0 && hist < 0 {
			quality += 10
		}
		kind := model.Kind{Category: model.CategoryMACDCross, Direction: model.Bearish}
		return []model.Signal{newSignal(f, m.Name(), kind, entry, stop, shortTarget(entry, stop), quality,
			"MACD crossed below its signal line. Possible move down.")}
	}
	return nil
}

// IchimokuModule detects Tenkan-sen / Kijun-sen crosses
type IchimokuModule struct {
	cfg Config
}

// NewIchimokuModule creates the Ichimoku module
func NewIchimokuModule(cfg Config) *IchimokuModule {
	return &IchimokuModule{cfg: cfg}
}

// Name returns the module name
func (m *IchimokuModule) Name() string { return "ichimoku" }

// Description returns the module description
func (m *IchimokuModule) Description() string {
	return "Ichimoku Tenkan/Kijun cross, stronger when price is outside the cloud"
}

// Check looks for a TK cross on the last bar
func (m *IchimokuModule) Check(f *indicator.Frame) []model.Signal {
	if f.Len() < 3 {
		return nil
	}
	entry := f.LastClose()
	spanA := indicator.Back(f.SenkouA, 1)
	spanB := indicator.Back(f.SenkouB, 1)
	cloud := indicator.Valid(spanA, spanB)

	if crossedAbove(f.Tenkan, f.Kijun) {
		stop := lowest(f.Low, 5) * 0.99
		quality := BaseQuality(f, model.Bullish)
		if cloud && entry > max(spanA, spanB) {
			quality += 15
		}
		kind := model.Kind{Category: model.CategoryIchimoku, Direction: model.Bullish}
		return []model.Signal{newSignal(f, m.Name(), kind, entry, stop, longTarget(entry, stop), quality,
			"Tenkan-sen crossed above Kijun-sen. Possible move up.")}
	}
	if crossedBelow(f.Tenkan, f.Kijun) {
		stop := highest(f.High, 5) * 1.01
		quality := BaseQuality(f, model.Bearish)
		if cloud && entry < min(spanA, spanB) {
			quality += 15
		}
		kind := model.Kind{Category: model.CategoryIchimoku, Direction: model.Bearish}
		return []model.Signal{newSignal(f, m.Name(), kind, entry, stop, shortTarget(entry, stop), quality,
			"Tenkan-sen crossed below Kijun-sen. Possible move down.")}
	}
	return nil
}
