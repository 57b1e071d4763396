package analyzer

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"cryptoscan/internal/cooldown"
	"cryptoscan/internal/indicator"
	"cryptoscan/internal/levels"
	"cryptoscan/internal/signal"
	"cryptoscan/pkg/model"
)

func sig(symbol string, cat model.Category, dir model.Direction, quality int) model.Signal {
	return model.Signal{
		ID:         symbol + string(cat),
		Symbol:     symbol,
		Timeframe:  "4h",
		Kind:       model.Kind{Category: cat, Direction: dir},
		Entry:      100,
		StopLoss:   98,
		TakeProfit: 104,
		Quality:    quality,
	}
}

func patternSig(symbol, name string, quality int) model.Signal {
	s := sig(symbol, model.CategoryPattern, model.Bullish, quality)
	s.Kind.Variant = name
	s.Description = name + " formed."
	return s
}

func TestAggregatePicksHighestQuality(t *testing.T) {
	low := sig("AVAXUSDT", model.CategoryMACDCross, model.Bullish, 40)
	high := sig("AVAXUSDT", model.CategoryRSIExtreme, model.Bullish, 80)

	a := Aggregate([]model.Signal{low, high}, model.Levels{}, nil)
	if a == nil {
		t.Fatal("Expected an alert")
	}
	if a.Signal.Quality != 80 || a.Signal.Type() != "RSI Oversold" {
		t.Errorf("Expected the quality-80 RSI signal, got %s (%d)", a.Signal.Type(), a.Signal.Quality)
	}
	if len(a.Alternatives) != 1 || a.Alternatives[0].Quality != 40 {
		t.Errorf("Expected the other signal as alternative, got %+v", a.Alternatives)
	}
}

func TestAggregateClampsQuality(t *testing.T) {
	over := sig("DOGEUSDT", model.CategoryADX, model.Bullish, 130)
	over.Kind.Strength = model.StrengthVeryStrong
	under := sig("DOGEUSDT", model.CategoryPSAR, model.Bearish, -20)

	a := Aggregate([]model.Signal{under, over}, model.Levels{}, nil)
	if a.Signal.Quality != 100 {
		t.Errorf("Expected clamped 100, got %d", a.Signal.Quality)
	}
	if a.Alternatives[0].Quality != 0 {
		t.Errorf("Expected clamped 0, got %d", a.Alternatives[0].Quality)
	}
}

func TestAggregateExcludesSameType(t *testing.T) {
	s1 := sig("ATOMUSDT", model.CategorySRProximity, model.Bullish, 70)
	s2 := sig("ATOMUSDT", model.CategorySRProximity, model.Bullish, 60)
	s3 := sig("ATOMUSDT", model.CategoryMACross, model.Bullish, 50)
	s4 := sig("ATOMUSDT", model.CategoryMACDCross, model.Bullish, 45)
	s5 := sig("ATOMUSDT", model.CategoryIchimoku, model.Bullish, 44)
	s6 := sig("ATOMUSDT", model.CategoryBollinger, model.Bullish, 43)

	a := Aggregate([]model.Signal{s1, s2, s3, s4, s5, s6}, model.Levels{}, nil)
	if len(a.Alternatives) != MaxAlternatives {
		t.Fatalf("Expected %d alternatives, got %d", MaxAlternatives, len(a.Alternatives))
	}
	for _, alt := range a.Alternatives {
		if alt.Type() == a.Signal.Type() {
			t.Errorf("Expected no %q alternative", alt.Type())
		}
	}
	if a.Alternatives[0].Quality != 50 {
		t.Errorf("Expected alternatives by quality, got %d first", a.Alternatives[0].Quality)
	}
}

func TestAggregatePatternFallback(t *testing.T) {
	p1 := patternSig("NEARUSDT", "Hammer", 55)
	p2 := patternSig("NEARUSDT", "Bullish Engulfing", 65)
	p3 := patternSig("NEARUSDT", "Morning Star", 60)

	a := Aggregate([]model.Signal{p1, p2, p3}, model.Levels{}, nil)
	if a == nil {
		t.Fatal("Expected a fallback alert")
	}
	if a.Signal.Type() != "Technical Analysis Alert" || a.Signal.IsPattern() {
		t.Errorf("Expected non-pattern Technical Analysis Alert, got %q", a.Signal.Type())
	}
	if a.Signal.Quality != 65 || a.Signal.Description != "Technical analysis alert: Bullish Engulfing formed." {
		t.Errorf("Expected fallback from the best pattern, got %+v", a.Signal)
	}
	if len(a.Alternatives) != MaxPatternAlternatives {
		t.Fatalf("Expected %d pattern alternatives, got %d", MaxPatternAlternatives, len(a.Alternatives))
	}
	if a.Alternatives[0].Kind.Variant != "Bullish Engulfing" || a.Alternatives[1].Kind.Variant != "Morning Star" {
		t.Errorf("Expected best patterns first, got %+v", a.Alternatives)
	}
}

func TestAggregatePrefersRegularOverPattern(t *testing.T) {
	p := patternSig("LTCUSDT", "Hammer", 90)
	r := sig("LTCUSDT", model.CategoryFibonacci, model.Bullish, 60)
	r.Kind.Variant = "0.618"

	a := Aggregate([]model.Signal{p, r}, model.Levels{}, nil)
	if a.Signal.Type() != "Fibonacci Support (0.618)" {
		t.Errorf("Expected the regular signal, got %q", a.Signal.Type())
	}
	if len(a.Alternatives) != 1 || !a.Alternatives[0].IsPattern() {
		t.Errorf("Expected the pattern as alternative, got %+v", a.Alternatives)
	}
}

func TestAggregatePrependsTrendDescriptor(t *testing.T) {
	trend := &model.ADXTrend{Value: 31.24, Direction: model.Bullish, Strength: model.StrengthStrong}
	lv := model.Levels{Support: []float64{95}, Resistance: []float64{110}}

	a := Aggregate([]model.Signal{
		sig("UNIUSDT", model.CategoryMACross, model.Bullish, 70),
		sig("UNIUSDT", model.CategoryMACDCross, model.Bullish, 60),
	}, lv, trend)

	if len(a.Alternatives) != 2 {
		t.Fatalf("Expected 2 alternatives, got %d", len(a.Alternatives))
	}
	first := a.Alternatives[0]
	if first.Type() != "Strong Bullish Trend (ADX: 31.2)" {
		t.Errorf("Expected ADX descriptor first, got %q", first.Type())
	}
	if first.Quality != 31 || first.HasTradeLevels() {
		t.Errorf("Expected advisory quality 31, got %+v", first)
	}
	if a.Trend == nil || a.Trend.Strength != model.StrengthStrong {
		t.Errorf("Expected trend info, got %+v", a.Trend)
	}
	if len(a.Levels.Support) != 1 || a.Levels.Support[0] != 95 {
		t.Errorf("Expected level snapshot, got %+v", a.Levels)
	}

	capped := TrendSignal(a.Signal, model.ADXTrend{Value: 95, Direction: model.Bearish, Strength: model.StrengthVeryStrong})
	if capped.Quality != 80 {
		t.Errorf("Expected trend quality capped at 80, got %d", capped.Quality)
	}
}

func TestAggregateNothing(t *testing.T) {
	if a := Aggregate(nil, model.Levels{}, nil); a != nil {
		t.Errorf("Expected nil, got %+v", a)
	}
}

func TestBestPerSymbol(t *testing.T) {
	alerts := []model.Alert{
		{Signal: sig("BTCUSDT", model.CategoryMACross, model.Bullish, 55)},
		{Signal: sig("ETHUSDT", model.CategoryMACross, model.Bullish, 70)},
		{Signal: sig("BTCUSDT", model.CategoryRSIExtreme, model.Bullish, 75)},
	}
	best := BestPerSymbol(alerts)
	if len(best) != 2 {
		t.Fatalf("Expected 2 alerts, got %d", len(best))
	}
	if best[0].Symbol() != "BTCUSDT" || best[0].Quality() != 75 {
		t.Errorf("Expected BTCUSDT 75 first, got %s %d", best[0].Symbol(), best[0].Quality())
	}
}

func TestGateCooldownWindow(t *testing.T) {
	ctx := context.Background()
	store, err := cooldown.NewFileStore(filepath.Join(t.TempDir(), "sent.json"), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	window := 4 * time.Hour
	t0 := time.Unix(1700000000, 0)
	now := t0
	gate := NewGate(store, 50, window, zerolog.Nop()).WithClock(func() time.Time { return now })

	alert := model.Alert{Signal: sig("BTCUSDT", model.CategoryRSIExtreme, model.Bullish, 70)}
	if d := gate.Admit(ctx, alert); !d.Admitted {
		t.Fatalf("Expected first alert admitted, got %q", d.Reason)
	}
	if err := gate.Record(ctx, alert); err != nil {
		t.Fatal(err)
	}

	now = t0.Add(window - time.Second)
	if d := gate.Admit(ctx, alert); d.Admitted {
		t.Error("Expected rejection inside the cooldown window")
	}

	// a different type for the same symbol is not blocked
	other := model.Alert{Signal: sig("BTCUSDT", model.CategoryMACross, model.Bullish, 70)}
	if d := gate.Admit(ctx, other); !d.Admitted {
		t.Errorf("Expected a different type admitted, got %q", d.Reason)
	}

	now = t0.Add(window + time.Second)
	if d := gate.Admit(ctx, alert); !d.Admitted {
		t.Errorf("Expected admission after the window, got %q", d.Reason)
	}
}

func TestGateMinimumQuality(t *testing.T) {
	store, _ := cooldown.NewFileStore(filepath.Join(t.TempDir(), "sent.json"), zerolog.Nop())
	gate := NewGate(store, 60, time.Hour, zerolog.Nop())

	alerts := []model.Alert{
		{Signal: sig("BTCUSDT", model.CategoryMACross, model.Bullish, 59)},
		{Signal: sig("ETHUSDT", model.CategoryMACross, model.Bullish, 60)},
		{Signal: sig("SOLUSDT", model.CategoryMACross, model.Bullish, 140)},
	}
	admitted, decisions := gate.Filter(context.Background(), alerts)
	if len(admitted) != 2 || admitted[0].Symbol() != "ETHUSDT" {
		t.Errorf("Expected ETHUSDT and SOLUSDT admitted, got %+v", admitted)
	}
	if decisions[0].Admitted || decisions[0].Reason == "" {
		t.Errorf("Expected a quality rejection, got %+v", decisions[0])
	}
}

func oversoldSeries() model.Series {
	var closes []float64
	for i := 0; i < 20; i++ {
		closes = append(closes, 100)
	}
	for i := 1; i <= 20; i++ {
		closes = append(closes, 100-float64(i))
	}
	for i := 0; i < 20; i++ {
		closes = append(closes, 80)
	}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]model.Candle, len(closes))
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		candles[i] = model.Candle{
			Time: start.Add(time.Duration(i) * 4 * time.Hour),
			Open: open, High: math.Max(open, c) + 0.5, Low: math.Min(open, c) - 0.5, Close: c, Volume: 1000,
		}
	}
	return model.Series{Symbol: "ETHUSDT", Timeframe: "4h", Candles: candles}
}

type brokenModule struct{}

func (brokenModule) Name() string                           { return "broken" }
func (brokenModule) Description() string                    { return "" }
func (brokenModule) Check(*indicator.Frame) []model.Signal { panic("index out of range") }

func TestAnalyzeContainsModuleFailure(t *testing.T) {
	cfg := signal.DefaultConfig()
	mods := append([]signal.Module{brokenModule{}}, signal.All(cfg, zerolog.Nop())...)
	a := New(indicator.NewEngine(indicator.DefaultParams(), zerolog.Nop()), mods,
		levels.NewExtractor(cfg.Levels, zerolog.Nop()), zerolog.Nop())

	res := a.Analyze(oversoldSeries())
	if res.Alert == nil {
		t.Fatal("Expected an alert despite the broken module")
	}
	found := false
	for _, s := range res.Signals {
		if s.Quality < 0 || s.Quality > 100 {
			t.Errorf("Expected clamped quality, got %d for %s", s.Quality, s.Type())
		}
		if s.Kind.Category == model.CategoryRSIExtreme {
			found = true
		}
	}
	if !found {
		t.Error("Expected an RSI extreme signal among the candidates")
	}
}
