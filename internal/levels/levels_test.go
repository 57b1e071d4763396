package levels

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"cryptoscan/pkg/model"
)

// flatCandles generates n candles closing at price with a ±1 range
func flatCandles(n int, price float64) []model.Candle {
	candles := make([]model.Candle, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range candles {
		candles[i] = model.Candle{
			Time:  start.Add(time.Duration(i) * time.Hour),
			Open:  price,
			High:  price + 1,
			Low:   price - 1,
			Close: price,
		}
	}
	return candles
}

func TestMonotonicSeriesHasNoExtrema(t *testing.T) {
	vals := make([]float64, 100)
	for i := range vals {
		vals[i] = float64(i)
	}
	if got := LocalMaxima(vals, 20); len(got) != 0 {
		t.Errorf("Expected no maxima, got %v", got)
	}
	if got := LocalMinima(vals, 20); len(got) != 0 {
		t.Errorf("Expected no minima, got %v", got)
	}
	if got := Merge(nil, 0.01); len(got) != 0 {
		t.Errorf("Expected empty merge, got %v", got)
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name   string
		levels []float64
		want   []float64
	}{
		{"within threshold collapses", []float64{100.5, 100}, []float64{100.25}},
		{"beyond threshold stays apart", []float64{100, 105}, []float64{100, 105}},
		{"weighted by count", []float64{100, 100, 100.9}, []float64{100.3}},
		{"single", []float64{42}, []float64{42}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.levels, 0.01)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if d := got[i] - tt.want[i]; d > 1e-9 || d < -1e-9 {
					t.Errorf("Expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestLocalExtremaRequireStrictDominance(t *testing.T) {
	vals := make([]float64, 30)
	for i := range vals {
		vals[i] = 10
	}
	vals[15] = 12
	if got := LocalMaxima(vals, 5); len(got) != 1 || got[0] != 12 {
		t.Errorf("Expected [12], got %v", got)
	}
	// a twin peak inside the window blocks both
	vals[17] = 12
	if got := LocalMaxima(vals, 5); len(got) != 0 {
		t.Errorf("Expected no maxima for twin peaks, got %v", got)
	}
}

func TestFindSplitsAroundPrice(t *testing.T) {
	candles := flatCandles(100, 100)
	candles[30].High = 120
	candles[60].Low = 80

	ex := NewExtractor(DefaultConfig(), zerolog.Nop())
	lv := ex.Find(candles)

	if len(lv.Resistance) != 1 || lv.Resistance[0] != 120 {
		t.Errorf("Expected resistance [120], got %v", lv.Resistance)
	}
	if len(lv.Support) != 1 || lv.Support[0] != 80 {
		t.Errorf("Expected support [80], got %v", lv.Support)
	}
}

func TestFindOrdersNearestFirst(t *testing.T) {
	candles := flatCandles(150, 100)
	candles[25].Low = 70
	candles[75].Low = 90
	candles[50].High = 140
	candles[100].High = 110

	lv := NewExtractor(DefaultConfig(), zerolog.Nop()).Find(candles)
	if len(lv.Support) != 2 || lv.Support[0] != 90 || lv.Support[1] != 70 {
		t.Errorf("Expected support [90 70], got %v", lv.Support)
	}
	if len(lv.Resistance) != 2 || lv.Resistance[0] != 110 || lv.Resistance[1] != 140 {
		t.Errorf("Expected resistance [110 140], got %v", lv.Resistance)
	}
}

func TestFindUsesTrailingLookback(t *testing.T) {
	candles := flatCandles(300, 100)
	candles[40].High = 150 // outside the last 200 bars
	lv := NewExtractor(DefaultConfig(), zerolog.Nop()).Find(candles)
	if len(lv.Resistance) != 0 {
		t.Errorf("Expected no resistance from old bars, got %v", lv.Resistance)
	}
}
