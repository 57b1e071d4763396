package signal

import (
	"fmt"
	"strconv"

	"cryptoscan/internal/indicator"
	"cryptoscan/pkg/model"
)

const fibBars = 100

// fibRatios are retracement ratios measured down from the swing high
var fibRatios = []float64{0, 0.5, 0.618, 0.705, 0.786, 1}

// FibonacciModule signals when price sits on a retracement level of the last 100 bars
type FibonacciModule struct {
	cfg Config
}

// NewFibonacciModule creates the Fibonacci module
func NewFibonacciModule(cfg Config) *FibonacciModule {
	return &FibonacciModule{cfg: cfg}
}

// Name returns the module name
func (m *FibonacciModule) Name() string { return "fibonacci" }

// Description returns the module description
func (m *FibonacciModule) Description() string {
	return "Price within 1% of a Fibonacci retracement level of the 100-bar swing"
}

// FibLevel is one retracement ratio and its price
type FibLevel struct {
	Ratio float64 `json:"ratio"`
	Price float64 `json:"price"`
}

// FibLevels returns the retracement levels over the last 100 bars, or nil
// when the frame is shorter than that
func FibLevels(f *indicator.Frame) []FibLevel {
	if f.Len() < fibBars {
		return nil
	}
	high := highest(f.High, fibBars)
	low := lowest(f.Low, fibBars)
	out := make([]FibLevel, len(fibRatios))
	for i, r := range fibRatios {
		out[i] = FibLevel{Ratio: r, Price: high - r*(high-low)}
	}
	out[len(out)-1].Price = low
	return out
}

// Check keeps only the best-scoring matching level
func (m *FibonacciModule) Check(f *indicator.Frame) []model.Signal {
	fibs := FibLevels(f)
	if fibs == nil {
		return nil
	}
	last := f.LastClose()
	uptrend := meanRange(f.Close, -20, 0) > meanRange(f.Close, -40, -20)

	var best *model.Signal
	bestQuality := 0
	for i, lv := range fibs {
		if !(0.99*lv.Price <= last && last <= 1.01*lv.Price) {
			continue
		}
		label := strconv.FormatFloat(lv.Ratio, 'f', -1, 64)

		var sig model.Signal
		if uptrend {
			stop := lv.Price * 0.98
			target := longTarget(last, stop)
			// next level up is the one with the largest smaller ratio
			if i > 0 {
				target = fibs[i-1].Price
			}
			kind := model.Kind{Category: model.CategoryFibonacci, Direction: model.Bullish, Variant: label}
			sig = newSignal(f, m.Name(), kind, last, stop, target, BaseQuality(f, model.Bullish),
				fmt.Sprintf("Price is near the %s Fibonacci support level. Possible move up.", label))
		} else {
			stop := lv.Price * 1.02
			target := shortTarget(last, stop)
			if i < len(fibs)-1 {
				target = fibs[i+1].Price
			}
			kind := model.Kind{Category: model.CategoryFibonacci, Direction: model.Bearish, Variant: label}
			sig = newSignal(f, m.Name(), kind, last, stop, target, BaseQuality(f, model.Bearish),
				fmt.Sprintf("Price is near the %s Fibonacci resistance level. Possible move down.", label))
		}

		if sig.Quality > bestQuality {
			bestQuality = sig.Quality
			best = &sig
		}
	}
	if best == nil {
		return nil
	}
	return []model.Signal{*best}
}
