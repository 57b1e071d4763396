package signal

import (
	"fmt"
	"math"

	"cryptoscan/internal/indicator"
	"cryptoscan/pkg/model"
)

const (
	divergenceLookback = 50
	divergenceMinBars  = 10
	divergenceWindow   = 5
)

// RSIModule detects RSI extremes and price/RSI divergences
type RSIModule struct {
	cfg Config
}

// NewRSIModule creates the RSI module
func NewRSIModule(cfg Config) *RSIModule {
	return &RSIModule{cfg: cfg}
}

// Name returns the module name
func (m *RSIModule) Name() string { return "rsi" }

// Description returns the module description
func (m *RSIModule) Description() string {
	return "RSI overbought/oversold extremes and price/RSI divergence"
}

// Check evaluates both RSI rules on the last bar
func (m *RSIModule) Check(f *indicator.Frame) []model.Signal {
	var out []model.Signal
	out = append(out, m.extreme(f)...)
	out = append(out, m.divergence(f)...)
	return out
}

func (m *RSIModule) extreme(f *indicator.Frame) []model.Signal {
	if f.Len() < 5 {
		return nil
	}
	rsi := indicator.Back(f.RSI, 1)
	if !indicator.Valid(rsi) {
		return nil
	}
	entry := f.LastClose()

	var out []model.Signal
	if rsi < m.cfg.RSIOversold {
		stop := lowest(f.Low, 5) * 0.98
		quality := BaseQuality(f, model.Bullish)
		kind := model.Kind{Category: model.CategoryRSIExtreme, Direction: model.Bullish}
		desc := fmt.Sprintf("RSI in oversold territory (%.1f < %g). Possible move up.", rsi, m.cfg.RSIOversold)
		if rsi < 20 {
			quality += 15
			kind.Strength = model.StrengthExtreme
			desc = fmt.Sprintf("RSI deeply oversold (%.1f < 20). Could be a strong move up.", rsi)
		}
		out = append(out, newSignal(f, m.Name(), kind, entry, stop, longTarget(entry, stop), quality, desc))
	}
	if rsi > m.cfg.RSIOverbought {
		stop := highest(f.High, 5) * 1.02
		quality := BaseQuality(f, model.Bearish)
		kind := model.Kind{Category: model.CategoryRSIExtreme, Direction: model.Bearish}
		desc := fmt.Sprintf("RSI in overbought territory (%.1f > %g). Possible move down.", rsi, m.cfg.RSIOverbought)
		if rsi > 80 {
			quality += 15
			kind.Strength = model.StrengthExtreme
			desc = fmt.Sprintf("RSI deeply overbought (%.1f > 80). Could be a strong move down.", rsi)
		}
		out = append(out, newSignal(f, m.Name(), kind, entry, stop, shortTarget(entry, stop), quality, desc))
	}
	return out
}

// Point is a local extreme at a bar index of the frame
type Point struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

// Extremes holds the local price and RSI extremes of the divergence window
type Extremes struct {
	PriceLows  []Point `json:"price_lows"`
	PriceHighs []Point `json:"price_highs"`
	RSILows    []Point `json:"rsi_lows"`
	RSIHighs   []Point `json:"rsi_highs"`
}

// DivergenceExtremes finds local extremes over the trailing lookback window.
// Each point must be strictly beyond the 5 bars before and after it.
// Returns nil when the frame is too short.
func DivergenceExtremes(f *indicator.Frame) *Extremes {
	n := f.Len()
	lookback := divergenceLookback
	if n-1 < lookback {
		lookback = n - 1
	}
	if lookback < divergenceMinBars {
		return nil
	}

	w := divergenceWindow
	start := n - lookback
	ex := &Extremes{}
	for i := start + w; i < start+lookback-w; i++ {
		if isLocalMin(f.Low, i, w) {
			ex.PriceLows = append(ex.PriceLows, Point{i, f.Low[i]})
		}
		if isLocalMax(f.High, i, w) {
			ex.PriceHighs = append(ex.PriceHighs, Point{i, f.High[i]})
		}
		if isLocalMin(f.RSI, i, w) {
			ex.RSILows = append(ex.RSILows, Point{i, f.RSI[i]})
		}
		if isLocalMax(f.RSI, i, w) {
			ex.RSIHighs = append(ex.RSIHighs, Point{i, f.RSI[i]})
		}
	}
	return ex
}

func (m *RSIModule) divergence(f *indicator.Frame) []model.Signal {
	ex := DivergenceExtremes(f)
	if ex == nil {
		return nil
	}
	entry := f.LastClose()

	var out []model.Signal
	if len(ex.PriceLows) >= 2 && len(ex.RSILows) >= 2 {
		p1, p2 := lastTwo(ex.PriceLows)
		r1, r2 := lastTwo(ex.RSILows)
		if p2.Value < p1.Value && r2.Value > r1.Value {
			stop := lowest(f.Low, 5) * 0.99
			kind := model.Kind{Category: model.CategoryRSIDivergence, Direction: model.Bullish}
			out = append(out, newSignal(f, m.Name(), kind, entry, stop, longTarget(entry, stop),
				BaseQuality(f, model.Bullish),
				"Price made a lower low while RSI made a higher low. Possible move up."))
		}
	}
	if len(ex.PriceHighs) >= 2 && len(ex.RSIHighs) >= 2 {
		p1, p2 := lastTwo(ex.PriceHighs)
		r1, r2 := lastTwo(ex.RSIHighs)
		if p2.Value > p1.Value && r2.Value < r1.Value {
			stop := highest(f.High, 5) * 1.01
			kind := model.Kind{Category: model.CategoryRSIDivergence, Direction: model.Bearish}
			out = append(out, newSignal(f, m.Name(), kind, entry, stop, shortTarget(entry, stop),
				BaseQuality(f, model.Bearish),
				"Price made a higher high while RSI made a lower high. Possible move down."))
		}
	}
	return out
}

// lastTwo returns the two most recent points in chronological order
func lastTwo(pts []Point) (Point, Point) {
	return pts[len(pts)-2], pts[len(pts)-1]
}

func isLocalMin(col []float64, i, w int) bool {
	v := col[i]
	return windowFold(col, i-w, i, math.Min) > v && windowFold(col, i+1, i+w+1, math.Min) > v
}

func isLocalMax(col []float64, i, w int) bool {
	v := col[i]
	return windowFold(col, i-w, i, math.Max) < v && windowFold(col, i+1, i+w+1, math.Max) < v
}

// windowFold folds col[from:to] skipping NaN; NaN when nothing is left
func windowFold(col []float64, from, to int, pick func(a, b float64) float64) float64 {
	if from < 0 {
		from = 0
	}
	if to > len(col) {
		to = len(col)
	}
	v := math.NaN()
	for _, x := range col[from:to] {
		if math.IsNaN(x) {
			continue
		}
		if math.IsNaN(v) {
			v = x
			continue
		}
		v = pick(v, x)
	}
	return v
}
