package pattern

import (
	"math"

	"cryptoscan/pkg/model"
)

// Config holds candlestick detection ratios
type Config struct {
	MinCandles       int     // bars required before any detection
	PinWickRatio     float64 // long wick must exceed body * ratio
	PinOppositeRatio float64 // opposite wick must stay below body * ratio
	DojiBodyRatio    float64 // doji body at most range * ratio
	StarBodyRatio    float64 // star middle body below first body * ratio
}

// DefaultConfig returns the default detection ratios
func DefaultConfig() Config {
	return Config{
		MinCandles:       5,
		PinWickRatio:     2.0,
		PinOppositeRatio: 0.5,
		DojiBodyRatio:    0.05,
		StarBodyRatio:    0.5,
	}
}

// Pattern is one detected formation on the newest bars
type Pattern struct {
	Name        string          `json:"name"`
	Direction   model.Direction `json:"direction"`
	Candles     int             `json:"candles"` // bars forming the pattern
	Description string          `json:"description"`
}

// Detector finds classic candlestick formations ending at the last bar
type Detector struct {
	cfg Config
}

// NewDetector creates a candlestick detector
func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// Detect returns every formation found, at most one per family:
// pin bar, engulfing, doji, star, three candles.
func (d *Detector) Detect(candles []model.Candle) []Pattern {
	if len(candles) < d.cfg.MinCandles {
		return nil
	}

	var found []Pattern
	for _, fn := range []func([]model.Candle) *Pattern{
		d.PinBar,
		d.Engulfing,
		d.Doji,
		d.Star,
		d.ThreeCandles,
	} {
		if p := fn(candles); p != nil {
			found = append(found, *p)
		}
	}
	return found
}

func body(c model.Candle) float64 { return math.Abs(c.Close - c.Open) }

func upperWick(c model.Candle) float64 { return c.High - math.Max(c.Open, c.Close) }

func lowerWick(c model.Candle) float64 { return math.Min(c.Open, c.Close) - c.Low }

func bullish(c model.Candle) bool { return c.Close > c.Open }

func bearish(c model.Candle) bool { return c.Close < c.Open }

// PinBar detects Hammer (long lower wick) and Shooting Star (long upper wick)
func (d *Detector) PinBar(candles []model.Candle) *Pattern {
	if len(candles) < 1 {
		return nil
	}
	c := candles[len(candles)-1]
	b, up, low := body(c), upperWick(c), lowerWick(c)

	if low > b*d.cfg.PinWickRatio && up < b*d.cfg.PinOppositeRatio {
		return &Pattern{
			Name:        "Hammer",
			Direction:   model.Bullish,
			Candles:     1,
			Description: "Hammer formed. This usually marks a bottom and a possible move up.",
		}
	}
	if up > b*d.cfg.PinWickRatio && low < b*d.cfg.PinOppositeRatio {
		return &Pattern{
			Name:        "Shooting Star",
			Direction:   model.Bearish,
			Candles:     1,
			Description: "Shooting Star formed. This usually marks a top and a possible move down.",
		}
	}
	return nil
}

// Engulfing detects a body that opens beyond and closes beyond the prior
// opposite-colored body and is larger than it
func (d *Detector) Engulfing(candles []model.Candle) *Pattern {
	if len(candles) < 2 {
		return nil
	}
	cur := candles[len(candles)-1]
	prev := candles[len(candles)-2]
	larger := body(cur) > body(prev)

	if bullish(cur) && bearish(prev) && cur.Open < prev.Close && cur.Close > prev.Open && larger {
		return &Pattern{
			Name:        "Bullish Engulfing",
			Direction:   model.Bullish,
			Candles:     2,
			Description: "Bullish Engulfing formed. This usually marks a bottom and a possible move up.",
		}
	}
	if bearish(cur) && bullish(prev) && cur.Open > prev.Close && cur.Close < prev.Open && larger {
		return &Pattern{
			Name:        "Bearish Engulfing",
			Direction:   model.Bearish,
			Candles:     2,
			Description: "Bearish Engulfing formed. This usually marks a top and a possible move down.",
		}
	}
	return nil
}

// Doji detects a tiny body. After a rise (mean of the 4 closes before the
// last bar above the mean of the 5 before those) it reads bearish,
// otherwise bullish.
func (d *Detector) Doji(candles []model.Candle) *Pattern {
	if len(candles) < 1 {
		return nil
	}
	c := candles[len(candles)-1]
	rng := c.High - c.Low
	if !(rng > 0 && body(c) <= rng*d.cfg.DojiBodyRatio) {
		return nil
	}

	n := len(candles)
	recent := meanClose(candles, n-5, n-1)
	earlier := meanClose(candles, n-10, n-5)
	if recent > earlier {
		return &Pattern{
			Name:        "Doji (Bearish)",
			Direction:   model.Bearish,
			Candles:     1,
			Description: "Doji after a rise. Indecision that often precedes a reversal.",
		}
	}
	return &Pattern{
		Name:        "Doji (Bullish)",
		Direction:   model.Bullish,
		Candles:     1,
		Description: "Doji after a decline. Indecision that often precedes a reversal.",
	}
}

// meanClose averages closes in [from, to), clipped to the slice; NaN when empty
func meanClose(candles []model.Candle, from, to int) float64 {
	if from < 0 {
		from = 0
	}
	if to > len(candles) {
		to = len(candles)
	}
	if from >= to {
		return math.NaN()
	}
	var sum float64
	for _, c := range candles[from:to] {
		sum += c.Close
	}
	return sum / float64(to-from)
}

// Star detects Morning Star and Evening Star over the last three bars
func (d *Detector) Star(candles []model.Candle) *Pattern {
	if len(candles) < 3 {
		return nil
	}
	c1 := candles[len(candles)-3]
	c2 := candles[len(candles)-2]
	c3 := candles[len(candles)-1]
	small := body(c2) < body(c1)*d.cfg.StarBodyRatio
	mid := (c1.Open + c1.Close) / 2

	if bearish(c1) && small && bullish(c3) && c3.Close > mid {
		return &Pattern{
			Name:        "Morning Star",
			Direction:   model.Bullish,
			Candles:     3,
			Description: "Morning Star formed. This usually marks a bottom and a strong move up.",
		}
	}
	if bullish(c1) && small && bearish(c3) && c3.Close < mid {
		return &Pattern{
			Name:        "Evening Star",
			Direction:   model.Bearish,
			Candles:     3,
			Description: "Evening Star formed. This usually marks a top and a strong move down.",
		}
	}
	return nil
}

// ThreeCandles detects Three White Soldiers and Three Black Crows
func (d *Detector) ThreeCandles(candles []model.Candle) *Pattern {
	if len(candles) < 3 {
		return nil
	}
	c1 := candles[len(candles)-3]
	c2 := candles[len(candles)-2]
	c3 := candles[len(candles)-1]

	if bullish(c1) && bullish(c2) && bullish(c3) &&
		c2.Close > c1.Close && c3.Close > c2.Close &&
		c2.Open > c1.Open && c3.Open > c2.Open {
		return &Pattern{
			Name:        "Three White Soldiers",
			Direction:   model.Bullish,
			Candles:     3,
			Description: "Three White Soldiers formed. This can mark the start of a strong uptrend.",
		}
	}
	if bearish(c1) && bearish(c2) && bearish(c3) &&
		c2.Close < c1.Close && c3.Close < c2.Close &&
		c2.Open < c1.Open && c3.Open < c2.Open {
		return &Pattern{
			Name:        "Three Black Crows",
			Direction:   model.Bearish,
			Candles:     3,
			Description: "Three Black Crows formed. This can mark the start of a strong downtrend.",
		}
	}
	return nil
}
