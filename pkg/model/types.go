package model

import "time"

// Candle represents a single candlestick (OHLCV data)
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"` // base asset volume
}

// Series is a time-ordered candle slice for one symbol and timeframe
type Series struct {
	Symbol    string   `json:"symbol"`
	Timeframe string   `json:"timeframe"`
	Candles   []Candle `json:"candles"`
}

// Len returns the number of candles
func (s Series) Len() int { return len(s.Candles) }

// Last returns the most recent candle
func (s Series) Last() Candle { return s.Candles[len(s.Candles)-1] }

// Levels is a support/resistance snapshot, nearest-to-price first
type Levels struct {
	Support    []float64 `json:"support"`
	Resistance []float64 `json:"resistance"`
}

// Skipped records a symbol/timeframe pair the scan could not analyze
type Skipped struct {
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
	Reason    string `json:"reason"`
}

// ScanResult represents the final scan output
type ScanResult struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Scanned   int           `json:"scanned"`
	Skipped   []Skipped     `json:"skipped,omitempty"`
	Detected  []Signal      `json:"detected"`  // every candidate, pre-aggregation
	Best      []Alert       `json:"best"`      // one per symbol
	Admitted  []Alert       `json:"admitted"`  // passed quality + cooldown
}
