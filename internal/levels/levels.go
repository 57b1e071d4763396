package levels

import (
	"math"
	"sort"

	"github.com/rs/zerolog"

	"cryptoscan/pkg/model"
)

// Config holds level extraction settings
type Config struct {
	Window    int     // bars on each side a local extreme must dominate
	Threshold float64 // fractional distance for merging nearby levels
	Lookback  int     // trailing bars considered
}

// DefaultConfig returns the default extraction settings
func DefaultConfig() Config {
	return Config{
		Window:    20,
		Threshold: 0.01,
		Lookback:  200,
	}
}

// Extractor finds support and resistance levels from local extremes
type Extractor struct {
	cfg    Config
	logger zerolog.Logger
}

// NewExtractor creates a level extractor
func NewExtractor(cfg Config, logger zerolog.Logger) *Extractor {
	return &Extractor{
		cfg:    cfg,
		logger: logger.With().Str("component", "levels").Logger(),
	}
}

// Find returns support levels below the last close (nearest first) and
// resistance levels above it (nearest first).
func (e *Extractor) Find(candles []model.Candle) model.Levels {
	out := model.Levels{Support: []float64{}, Resistance: []float64{}}
	if len(candles) == 0 {
		return out
	}

	lookback := e.cfg.Lookback
	if lookback <= 0 || lookback > len(candles) {
		lookback = len(candles)
	}
	recent := candles[len(candles)-lookback:]

	highs := make([]float64, len(recent))
	lows := make([]float64, len(recent))
	for i, c := range recent {
		highs[i] = c.High
		lows[i] = c.Low
	}

	support := Merge(LocalMinima(lows, e.cfg.Window), e.cfg.Threshold)
	resistance := Merge(LocalMaxima(highs, e.cfg.Window), e.cfg.Threshold)

	price := candles[len(candles)-1].Close
	for _, l := range support {
		if l < price {
			out.Support = append(out.Support, l)
		}
	}
	for _, l := range resistance {
		if l > price {
			out.Resistance = append(out.Resistance, l)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(out.Support)))
	sort.Float64s(out.Resistance)

	e.logger.Debug().
		Int("support", len(out.Support)).
		Int("resistance", len(out.Resistance)).
		Msg("levels found")
	return out
}

// LocalMaxima returns values strictly above the max of the window bars
// before and the window bars after them.
func LocalMaxima(highs []float64, window int) []float64 {
	return extremes(highs, window, func(v, prev, next float64) bool {
		return v > prev && v > next
	}, math.Max)
}

// LocalMinima is the mirror of LocalMaxima on lows
func LocalMinima(lows []float64, window int) []float64 {
	return extremes(lows, window, func(v, prev, next float64) bool {
		return v < prev && v < next
	}, math.Min)
}

func extremes(vals []float64, window int, is func(v, prev, next float64) bool, pick func(a, b float64) float64) []float64 {
	var out []float64
	if window < 1 {
		return out
	}
	for i := window; i < len(vals)-window; i++ {
		prev := fold(vals[i-window:i], pick)
		next := fold(vals[i+1:i+window+1], pick)
		if is(vals[i], prev, next) {
			out = append(out, vals[i])
		}
	}
	return out
}

func fold(vals []float64, pick func(a, b float64) float64) float64 {
	v := vals[0]
	for _, x := range vals[1:] {
		v = pick(v, x)
	}
	return v
}

// Merge clusters sorted levels: a level within threshold of the running
// cluster average joins it (count-weighted), otherwise it starts a new one.
func Merge(levels []float64, threshold float64) []float64 {
	if len(levels) == 0 {
		return nil
	}
	sorted := append([]float64(nil), levels...)
	sort.Float64s(sorted)

	var merged []float64
	current := sorted[0]
	count := 1
	for _, l := range sorted[1:] {
		if math.Abs(l-current)/current <= threshold {
			current = (current*float64(count) + l) / float64(count+1)
			count++
			continue
		}
		merged = append(merged, current)
		current = l
		count = 1
	}
	return append(merged, current)
}
