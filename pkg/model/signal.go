package model

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Category identifies the detection rule that produced a signal
type Category string

const (
	CategoryRSIExtreme     Category = "rsi_extreme"
	CategoryRSIDivergence  Category = "rsi_divergence"
	CategoryMACross        Category = "ma_cross"
	CategoryMACDCross      Category = "macd_cross"
	CategoryBollinger      Category = "bollinger_bounce"
	CategoryPattern        Category = "pattern"
	CategoryIchimoku       Category = "ichimoku_tk_cross"
	CategorySRProximity    Category = "sr_proximity"
	CategoryHorizontalSR   Category = "horizontal_sr"
	CategoryFibonacci      Category = "fibonacci"
	CategoryVolatility     Category = "volatility"
	CategoryTrendChange    Category = "trend_change"
	CategoryPSAR           Category = "psar_flip"
	CategoryADX            Category = "adx_trend"
	CategoryTrendContext   Category = "adx_context"
	CategoryTechnicalAlert Category = "technical_alert"
)

// Direction of the expected move
type Direction int

const (
	Neutral Direction = iota
	Bullish
	Bearish
)

func (d Direction) String() string {
	switch d {
	case Bullish:
		return "bullish"
	case Bearish:
		return "bearish"
	default:
		return "neutral"
	}
}

// Title returns the capitalized direction word used in labels
func (d Direction) Title() string {
	switch d {
	case Bullish:
		return "Bullish"
	case Bearish:
		return "Bearish"
	default:
		return "Neutral"
	}
}

// MarshalText encodes the direction as its name
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a direction name
func (d *Direction) UnmarshalText(b []byte) error {
	switch string(b) {
	case "bullish":
		*d = Bullish
	case "bearish":
		*d = Bearish
	case "neutral", "":
		*d = Neutral
	default:
		return fmt.Errorf("unknown direction %q", string(b))
	}
	return nil
}

// Strength qualifies a signal within its category
type Strength string

const (
	StrengthNormal     Strength = ""
	StrengthExtreme    Strength = "extreme"
	StrengthWeak       Strength = "weak"
	StrengthModerate   Strength = "moderate"
	StrengthStrong     Strength = "strong"
	StrengthVeryStrong Strength = "very_strong"
)

// Title returns the label word for the strength
func (s Strength) Title() string {
	switch s {
	case StrengthExtreme:
		return "Extreme"
	case StrengthWeak:
		return "Weak"
	case StrengthModerate:
		return "Moderate"
	case StrengthStrong:
		return "Strong"
	case StrengthVeryStrong:
		return "Very Strong"
	default:
		return ""
	}
}

// Kind is the tagged signal type. Labels are derived from it, never parsed back.
type Kind struct {
	Category  Category  `json:"category"`
	Direction Direction `json:"direction"`
	Strength  Strength  `json:"strength,omitempty"`
	Variant   string    `json:"variant,omitempty"` // pattern name, fibonacci level, asset, ADX value
}

// String returns the display label
func (k Kind) String() string {
	bull := k.Direction == Bullish
	switch k.Category {
	case CategoryRSIExtreme:
		switch {
		case bull && k.Strength == StrengthExtreme:
			return "RSI Extremely Oversold"
		case bull:
			return "RSI Oversold"
		case k.Strength == StrengthExtreme:
			return "RSI Extremely Overbought"
		default:
			return "RSI Overbought"
		}
	case CategoryRSIDivergence:
		return "RSI " + k.Direction.Title() + " Divergence"
	case CategoryMACross:
		if bull {
			return "EMA Golden Cross"
		}
		return "EMA Death Cross"
	case CategoryMACDCross:
		return "MACD " + k.Direction.Title() + " Crossover"
	case CategoryBollinger:
		if bull {
			return "Bollinger Band Bounce (Lower)"
		}
		return "Bollinger Band Bounce (Upper)"
	case CategoryPattern:
		return "Pattern: " + k.Variant
	case CategoryIchimoku:
		return "Ichimoku TK Cross (" + k.Direction.Title() + ")"
	case CategorySRProximity:
		if bull {
			return "Support Level Test"
		}
		return "Resistance Level Test"
	case CategoryHorizontalSR:
		if bull {
			return "Horizontal Support Zone"
		}
		return "Horizontal Resistance Zone"
	case CategoryFibonacci:
		if bull {
			return "Fibonacci Support (" + k.Variant + ")"
		}
		return "Fibonacci Resistance (" + k.Variant + ")"
	case CategoryVolatility:
		return k.Variant + " Volatility Alert"
	case CategoryTrendChange:
		if bull {
			return "Uptrend Start"
		}
		return "Downtrend Start"
	case CategoryPSAR:
		return "Parabolic SAR " + k.Direction.Title()
	case CategoryADX:
		return k.Strength.Title() + " " + k.Direction.Title() + " Trend (ADX)"
	case CategoryTrendContext:
		return fmt.Sprintf("%s %s Trend (ADX: %s)", k.Strength.Title(), k.Direction.Title(), k.Variant)
	case CategoryTechnicalAlert:
		return "Technical Analysis Alert"
	default:
		return string(k.Category)
	}
}

// Signal is one candidate produced by a signal module
type Signal struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Timeframe   string    `json:"timeframe"`
	Module      string    `json:"module"`
	Kind        Kind      `json:"kind"`
	Entry       float64   `json:"entry,omitempty"`
	StopLoss    float64   `json:"stop_loss,omitempty"`    // 0 when the signal is advisory
	TakeProfit  float64   `json:"take_profit,omitempty"`  // 0 when the signal is advisory
	Time        time.Time `json:"time"`
	Quality     int       `json:"quality_score"`
	Description string    `json:"description"`
}

// MarshalJSON adds the derived label next to the tagged kind
func (s Signal) MarshalJSON() ([]byte, error) {
	type plain Signal
	return json.Marshal(struct {
		plain
		Type      string `json:"signal_type"`
		IsPattern bool   `json:"is_pattern"`
	}{plain(s), s.Kind.String(), s.IsPattern()})
}

// Type returns the display label of the signal kind
func (s Signal) Type() string { return s.Kind.String() }

// IsPattern reports whether the signal came from candlestick pattern detection
func (s Signal) IsPattern() bool { return s.Kind.Category == CategoryPattern }

// HasTradeLevels reports whether entry, stop and target are all set
func (s Signal) HasTradeLevels() bool {
	return s.Entry > 0 && s.StopLoss > 0 && s.TakeProfit > 0
}

// RiskReward returns reward/risk, or 0 when undefined
func (s Signal) RiskReward() float64 {
	if !s.HasTradeLevels() {
		return 0
	}
	risk := math.Abs(s.Entry - s.StopLoss)
	if risk == 0 {
		return 0
	}
	return math.Abs(s.TakeProfit-s.Entry) / risk
}

// CooldownKey is the durable key used by the last-sent store
func (s Signal) CooldownKey() string {
	return s.Symbol + "_" + s.Kind.String()
}

// Clamped returns a copy with Quality limited to [0,100]
func (s Signal) Clamped() Signal {
	s.Quality = ClampQuality(s.Quality)
	return s
}

// ClampQuality limits a quality score to [0,100]
func ClampQuality(q int) int {
	if q < 0 {
		return 0
	}
	if q > 100 {
		return 100
	}
	return q
}

// ADXTrend describes the trend state at the last bar
type ADXTrend struct {
	Value     float64   `json:"value"`
	Direction Direction `json:"direction"`
	Strength  Strength  `json:"strength"`
}

// Alert is the aggregated result for one symbol/timeframe: the chosen
// signal plus its context. Built once by the aggregator.
type Alert struct {
	Signal       Signal    `json:"signal"`
	Alternatives []Signal  `json:"alternative_signals,omitempty"`
	Levels       Levels    `json:"levels"`
	Trend        *ADXTrend `json:"adx_trend,omitempty"`
}

// Symbol is a shortcut for a.Signal.Symbol
func (a Alert) Symbol() string { return a.Signal.Symbol }

// Quality is a shortcut for a.Signal.Quality
func (a Alert) Quality() int { return a.Signal.Quality }
