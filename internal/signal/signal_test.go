package signal

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"cryptoscan/internal/indicator"
	"cryptoscan/pkg/model"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// candlesFromCloses opens each bar at the previous close with a ±0.5 wick
func candlesFromCloses(closes []float64) []model.Candle {
	candles := make([]model.Candle, len(closes))
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		candles[i] = model.Candle{
			Time:   start.Add(time.Duration(i) * 4 * time.Hour),
			Open:   open,
			High:   math.Max(open, c) + 0.5,
			Low:    math.Min(open, c) - 0.5,
			Close:  c,
			Volume: 1000,
		}
	}
	return candles
}

func compute(symbol string, candles []model.Candle) *indicator.Frame {
	s := model.Series{Symbol: symbol, Timeframe: "4h", Candles: candles}
	return indicator.NewEngine(indicator.DefaultParams(), zerolog.Nop()).Compute(s)
}

func byCategory(sigs []model.Signal, c model.Category) []model.Signal {
	var out []model.Signal
	for _, s := range sigs {
		if s.Kind.Category == c {
			out = append(out, s)
		}
	}
	return out
}

func TestRSIOversoldAfterSteadyDrop(t *testing.T) {
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

	f := compute("ETHUSDT", candlesFromCloses(closes))
	if rsi := indicator.Back(f.RSI, 1); !(rsi < 25) {
		t.Fatalf("Expected RSI below 25, got %f", rsi)
	}

	sigs := byCategory(NewRSIModule(DefaultConfig()).Check(f), model.CategoryRSIExtreme)
	if len(sigs) != 1 {
		t.Fatalf("Expected 1 RSI extreme signal, got %d", len(sigs))
	}
	s := sigs[0]
	if s.Kind.Direction != model.Bullish {
		t.Errorf("Expected bullish, got %s", s.Kind.Direction)
	}
	if s.Type() != "RSI Oversold" && s.Type() != "RSI Extremely Oversold" {
		t.Errorf("Expected an oversold label, got %q", s.Type())
	}
	if !(s.StopLoss < s.Entry && s.TakeProfit > s.Entry) {
		t.Errorf("Expected stop < entry < target, got %f / %f / %f", s.StopLoss, s.Entry, s.TakeProfit)
	}
	if math.Abs((s.TakeProfit-s.Entry)-2*(s.Entry-s.StopLoss)) > 1e-9 {
		t.Errorf("Expected 2:1 reward, got risk %f reward %f", s.Entry-s.StopLoss, s.TakeProfit-s.Entry)
	}
	if want := 79.5 * 0.98; math.Abs(s.StopLoss-want) > 1e-9 {
		t.Errorf("Expected stop %f, got %f", want, s.StopLoss)
	}
	if !s.Time.Equal(f.Candles[len(closes)-1].Time) {
		t.Errorf("Expected signal at the last bar, got %v", s.Time)
	}
}

func TestGoldenCrossFiresOnlyAtCrossBar(t *testing.T) {
	var closes []float64
	for i := 0; i < 60; i++ {
		closes = append(closes, 200-float64(i))
	}
	for i := 1; i <= 40; i++ {
		closes = append(closes, 141+2*float64(i))
	}
	candles := candlesFromCloses(closes)
	full := compute("SOLUSDT", candles)

	k := -1
	for i := 1; i < full.Len(); i++ {
		if full.EMAShort[i-1] <= full.EMALong[i-1] && full.EMAShort[i] > full.EMALong[i] {
			if k != -1 {
				t.Fatalf("Expected a single crossover, found %d and %d", k, i)
			}
			k = i
		}
	}
	if k < 3 {
		t.Fatalf("Expected a crossover in the rising leg, got k=%d", k)
	}

	mod := NewMACrossModule(DefaultConfig())
	fired := map[int]model.Signal{}
	for n := 3; n <= len(candles); n++ {
		sigs := mod.Check(compute("SOLUSDT", candles[:n]))
		for _, s := range sigs {
			if s.Kind.Direction == model.Bullish {
				fired[n-1] = s
			}
		}
	}

	if len(fired) != 1 {
		t.Fatalf("Expected exactly one golden cross, got %d", len(fired))
	}
	s, ok := fired[k]
	if !ok {
		t.Fatalf("Expected the golden cross at bar %d, got %v", k, fired)
	}
	if s.Type() != "EMA Golden Cross" {
		t.Errorf("Expected EMA Golden Cross, got %q", s.Type())
	}
	if !s.Time.Equal(candles[k].Time) {
		t.Errorf("Expected timestamp %v, got %v", candles[k].Time, s.Time)
	}
}

func TestBaseQualityBounds(t *testing.T) {
	if q := BaseQuality(&indicator.Frame{}, model.Bullish); q != 50 {
		t.Errorf("Expected 50 for an empty frame, got %d", q)
	}

	var closes []float64
	for i := 0; i < 80; i++ {
		closes = append(closes, 100+float64(i%9)-float64(i)/3)
	}
	f := compute("ADAUSDT", candlesFromCloses(closes))
	for _, dir := range []model.Direction{model.Bullish, model.Bearish} {
		if q := BaseQuality(f, dir); q < 0 || q > 100 {
			t.Errorf("Expected quality in [0,100], got %d", q)
		}
	}
}

func TestRegistryOrder(t *testing.T) {
	names := List()
	if len(names) != 10 {
		t.Fatalf("Expected 10 modules, got %d: %v", len(names), names)
	}
	if names[0] != "rsi" || names[9] != "trend" {
		t.Errorf("Expected rsi first and trend last, got %v", names)
	}
	if _, err := Get("nope", DefaultConfig(), zerolog.Nop()); err == nil {
		t.Error("Expected error for an unknown module")
	}
	mods, err := Select([]string{"macd", "fibonacci"}, DefaultConfig(), zerolog.Nop())
	if err != nil || len(mods) != 2 || mods[1].Name() != "fibonacci" {
		t.Errorf("Expected [macd fibonacci], got %v (%v)", mods, err)
	}
}

type panicModule struct{}

func (panicModule) Name() string                           { return "panic" }
func (panicModule) Description() string                    { return "" }
func (panicModule) Check(*indicator.Frame) []model.Signal { panic("boom") }

func TestCheckContainsPanics(t *testing.T) {
	sigs, err := Check(panicModule{}, &indicator.Frame{})
	if err == nil {
		t.Fatal("Expected an error from a panicking module")
	}
	if sigs != nil {
		t.Errorf("Expected no signals, got %v", sigs)
	}
}

func volatileCandles(n int) []model.Candle {
	candles := make([]model.Candle, n)
	for i := range candles {
		candles[i] = model.Candle{
			Time: start.Add(time.Duration(i) * time.Hour),
			Open: 100, High: 100.5, Low: 99.5, Close: 100, Volume: 1000,
		}
	}
	candles[n-1].High = 150
	candles[n-1].Low = 50
	return candles
}

func TestVolatilityOnlyForConfiguredSymbol(t *testing.T) {
	mod := NewVolatilityModule(DefaultConfig())

	sigs := mod.Check(compute("BTCUSDT", volatileCandles(120)))
	if len(sigs) != 1 {
		t.Fatalf("Expected 1 volatility alert, got %d", len(sigs))
	}
	s := sigs[0]
	if s.Type() != "BTC Volatility Alert" {
		t.Errorf("Expected BTC Volatility Alert, got %q", s.Type())
	}
	if s.Quality != 90 || s.HasTradeLevels() {
		t.Errorf("Expected advisory quality 90 without levels, got %+v", s)
	}

	if sigs := mod.Check(compute("ETHUSDT", volatileCandles(120))); len(sigs) != 0 {
		t.Errorf("Expected no alert for ETHUSDT, got %d", len(sigs))
	}
	if sigs := mod.Check(compute("BTCUSDT", volatileCandles(60))); len(sigs) != 0 {
		t.Errorf("Expected no alert below 100 bars, got %d", len(sigs))
	}
}

func TestBaseAsset(t *testing.T) {
	tests := map[string]string{"BTCUSDT": "BTC", "ethbtc": "ETH", "SOLUSDC": "SOL", "XYZ": "XYZ"}
	for in, want := range tests {
		if got := BaseAsset(in); got != want {
			t.Errorf("BaseAsset(%s): expected %s, got %s", in, want, got)
		}
	}
}

func flatBars(n int, low float64) []model.Candle {
	candles := make([]model.Candle, n)
	for i := range candles {
		candles[i] = model.Candle{
			Time: start.Add(time.Duration(i) * time.Hour),
			Open: 100, High: 100.5, Low: low, Close: 100, Volume: 1000,
		}
	}
	return candles
}

func TestFibonacciPicksMatchingLevel(t *testing.T) {
	candles := flatBars(100, 149)
	for i := range candles {
		candles[i].Open, candles[i].Close, candles[i].High = 150, 150, 151
	}
	candles[10].High = 200
	candles[20].Low = 100
	f := compute("XRPUSDT", candles)

	fibs := FibLevels(f)
	if len(fibs) != 6 || fibs[0].Price != 200 || fibs[5].Price != 100 {
		t.Fatalf("Unexpected levels %+v", fibs)
	}

	sigs := NewFibonacciModule(DefaultConfig()).Check(f)
	if len(sigs) != 1 {
		t.Fatalf("Expected 1 fibonacci signal, got %d", len(sigs))
	}
	s := sigs[0]
	// flat closes read as "not rising", so the level acts as resistance
	if s.Type() != "Fibonacci Resistance (0.5)" {
		t.Errorf("Expected Fibonacci Resistance (0.5), got %q", s.Type())
	}
	if math.Abs(s.StopLoss-153) > 1e-9 {
		t.Errorf("Expected stop 153, got %f", s.StopLoss)
	}
	if math.Abs(s.TakeProfit-138.2) > 1e-9 {
		t.Errorf("Expected target at the 0.618 level 138.2, got %f", s.TakeProfit)
	}

	if FibLevels(compute("XRPUSDT", candles[:99])) != nil {
		t.Error("Expected no levels below 100 bars")
	}
}

func TestSupportProximityAndHorizontalZone(t *testing.T) {
	candles := flatBars(100, 99.8)
	candles[50].Low = 99.5
	f := compute("DOTUSDT", candles)
	cfg := DefaultConfig()

	sr := NewLevelsModule(cfg, zerolog.Nop()).Check(f)
	if len(sr) != 1 || sr[0].Type() != "Support Level Test" {
		t.Fatalf("Expected one Support Level Test, got %+v", sr)
	}
	if math.Abs(sr[0].StopLoss-99.5*0.98) > 1e-9 {
		t.Errorf("Expected stop %f, got %f", 99.5*0.98, sr[0].StopLoss)
	}
	if math.Abs((sr[0].TakeProfit-100)-2*(100-sr[0].StopLoss)) > 1e-9 {
		t.Errorf("Expected a 2:1 target without resistance, got %f", sr[0].TakeProfit)
	}

	zones := byCategory(NewTrendModule(cfg, zerolog.Nop()).Check(f), model.CategoryHorizontalSR)
	if len(zones) != 1 || zones[0].Type() != "Horizontal Support Zone" {
		t.Fatalf("Expected one Horizontal Support Zone, got %+v", zones)
	}
	if zones[0].Quality != BaseQuality(f, model.Bullish)+10 {
		t.Errorf("Expected base+10, got %d", zones[0].Quality)
	}
}

// manualFrame builds a 5-bar frame with the given trend columns
func manualFrame(adx, plus, minus, psar []float64) *indicator.Frame {
	candles := make([]model.Candle, 5)
	for i := range candles {
		candles[i] = model.Candle{Time: start.Add(time.Duration(i) * time.Hour), Open: 10, High: 10.5, Low: 9.5, Close: 10, Volume: 1}
	}
	f := &indicator.Frame{Symbol: "LINKUSDT", Timeframe: "1h", Candles: candles, ADX: adx, PlusDI: plus, MinusDI: minus, PSAR: psar}
	for _, c := range candles {
		f.Open = append(f.Open, c.Open)
		f.High = append(f.High, c.High)
		f.Low = append(f.Low, c.Low)
		f.Close = append(f.Close, c.Close)
		f.Volume = append(f.Volume, c.Volume)
	}
	return f
}

func TestADXThresholds(t *testing.T) {
	mod := NewTrendModule(DefaultConfig(), zerolog.Nop())
	nan := math.NaN()

	f := manualFrame([]float64{nan, 20, 22, 24, 26}, []float64{0, 0, 0, 0, 30}, []float64{0, 0, 0, 0, 10}, nil)
	sigs := byCategory(mod.Check(f), model.CategoryADX)
	if len(sigs) != 1 || sigs[0].Type() != "Strong Bullish Trend (ADX)" {
		t.Fatalf("Expected Strong Bullish Trend (ADX), got %+v", sigs)
	}

	f = manualFrame([]float64{nan, 40, 42, 44, 45}, []float64{0, 0, 0, 0, 10}, []float64{0, 0, 0, 0, 30}, nil)
	sigs = byCategory(mod.Check(f), model.CategoryADX)
	if len(sigs) != 1 || sigs[0].Type() != "Very Strong Bearish Trend (ADX)" {
		t.Fatalf("Expected Very Strong Bearish Trend (ADX), got %+v", sigs)
	}
	if sigs[0].Quality != BaseQuality(f, model.Bearish)+15 {
		t.Errorf("Expected base+15, got %d", sigs[0].Quality)
	}

	f = manualFrame([]float64{nan, 30, 31, 32, 33}, []float64{0, 0, 0, 0, 30}, []float64{0, 0, 0, 0, 10}, nil)
	if sigs := byCategory(mod.Check(f), model.CategoryADX); len(sigs) != 0 {
		t.Errorf("Expected no ADX signal for a sustained moderate trend, got %+v", sigs)
	}
}

func TestPSARFlip(t *testing.T) {
	mod := NewTrendModule(DefaultConfig(), zerolog.Nop())
	f := manualFrame(nil, nil, nil, []float64{11, 11, 11, 11, 9})
	sigs := byCategory(mod.Check(f), model.CategoryPSAR)
	if len(sigs) != 1 || sigs[0].Type() != "Parabolic SAR Bullish" {
		t.Fatalf("Expected Parabolic SAR Bullish, got %+v", sigs)
	}
	if math.Abs(sigs[0].StopLoss-9*0.98) > 1e-9 {
		t.Errorf("Expected stop %f, got %f", 9*0.98, sigs[0].StopLoss)
	}

	f = manualFrame(nil, nil, nil, []float64{9, 9, 9, 9, 9})
	if sigs := byCategory(mod.Check(f), model.CategoryPSAR); len(sigs) != 0 {
		t.Errorf("Expected no flip, got %+v", sigs)
	}

	f = manualFrame(nil, nil, nil, []float64{9, 9, 9, math.NaN(), 11})
	if sigs := byCategory(mod.Check(f), model.CategoryPSAR); len(sigs) != 0 {
		t.Errorf("Expected no flip without a previous SAR, got %+v", sigs)
	}
}

func TestTrendState(t *testing.T) {
	tests := []struct {
		adx  float64
		want model.Strength
	}{
		{15, model.StrengthWeak},
		{22, model.StrengthModerate},
		{30, model.StrengthStrong},
		{45, model.StrengthVeryStrong},
	}
	for _, tt := range tests {
		f := manualFrame([]float64{tt.adx}, []float64{10}, []float64{20}, nil)
		got := TrendState(f)
		if got == nil || got.Strength != tt.want || got.Direction != model.Bearish {
			t.Errorf("adx %.0f: expected bearish %s, got %+v", tt.adx, tt.want, got)
		}
	}
	if TrendState(manualFrame([]float64{math.NaN()}, nil, nil, nil)) != nil {
		t.Error("Expected nil trend state without ADX")
	}
}

func TestDivergenceNeedsTenBars(t *testing.T) {
	f := compute("BNBUSDT", candlesFromCloses([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}))
	if DivergenceExtremes(f) != nil {
		t.Error("Expected nil extremes for a 10-bar frame")
	}
}

// handFrame wraps candles in a frame with neutral indicator columns:
// EMAs and Ichimoku lines at 100, RSI 50, MACD 0, bands at 90/100/110.
func handFrame(candles []model.Candle) *indicator.Frame {
	n := len(candles)
	col := func(v float64) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = v
		}
		return out
	}
	nan := math.NaN()
	f := &indicator.Frame{
		Symbol:     "AVAXUSDT",
		Timeframe:  "4h",
		Candles:    candles,
		RSI:        col(50),
		EMAShort:   col(100),
		EMAMedium:  col(100),
		EMALong:    col(100),
		MACD:       col(0),
		MACDSignal: col(0),
		MACDHist:   col(0),
		BBUpper:    col(110),
		BBMiddle:   col(100),
		BBLower:    col(90),
		Tenkan:     col(100),
		Kijun:      col(100),
		SenkouA:    col(nan),
		SenkouB:    col(nan),
		Chikou:     col(nan),
		PSAR:       col(nan),
		ADX:        col(nan),
		PlusDI:     col(nan),
		MinusDI:    col(nan),
		OBV:        col(0),
	}
	for _, c := range candles {
		f.Open = append(f.Open, c.Open)
		f.High = append(f.High, c.High)
		f.Low = append(f.Low, c.Low)
		f.Close = append(f.Close, c.Close)
		f.Volume = append(f.Volume, c.Volume)
	}
	return f
}

// setLast2 overwrites the previous and last values of a column
func setLast2(col []float64, prev, last float64) {
	col[len(col)-2] = prev
	col[len(col)-1] = last
}

func TestModulesOnHandBuiltFrames(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name    string
		module  Module
		frame   func() *indicator.Frame
		label   string
		dir     model.Direction
		entry   float64
		stop    float64
		target  float64
		quality int
	}{
		{
			name:   "macd bullish with histogram flip",
			module: NewMACDModule(cfg),
			frame: func() *indicator.Frame {
				f := handFrame(flatBars(10, 99))
				setLast2(f.MACD, -1, 1)
				setLast2(f.MACDSignal, 0, 0.5)
				setLast2(f.MACDHist, -1, 0.5)
				return f
			},
			label: "MACD Bullish Crossover", dir: model.Bullish,
			entry: 100, stop: 98.01, target: 103.98, quality: 60,
		},
		{
			name:   "macd bullish without histogram flip",
			module: NewMACDModule(cfg),
			frame: func() *indicator.Frame {
				f := handFrame(flatBars(10, 99))
				setLast2(f.MACD, -1, 1)
				setLast2(f.MACDSignal, 0, 0.5)
				setLast2(f.MACDHist, 0.2, 0.5)
				return f
			},
			label: "MACD Bullish Crossover", dir: model.Bullish,
			entry: 100, stop: 98.01, target: 103.98, quality: 50,
		},
		{
			name:   "macd bearish with histogram flip",
			module: NewMACDModule(cfg),
			frame: func() *indicator.Frame {
				f := handFrame(flatBars(10, 99))
				setLast2(f.MACD, 1, -1)
				setLast2(f.MACDSignal, 0, -0.5)
				setLast2(f.MACDHist, 1, -0.5)
				return f
			},
			label: "MACD Bearish Crossover", dir: model.Bearish,
			entry: 100, stop: 101.505, target: 96.99, quality: 60,
		},
		{
			name:   "ichimoku bullish above the cloud",
			module: NewIchimokuModule(cfg),
			frame: func() *indicator.Frame {
				f := handFrame(flatBars(10, 99))
				setLast2(f.Tenkan, 99, 101)
				setLast2(f.SenkouA, 95, 95)
				setLast2(f.SenkouB, 96, 96)
				return f
			},
			label: "Ichimoku TK Cross (Bullish)", dir: model.Bullish,
			entry: 100, stop: 98.01, target: 103.98, quality: 55,
		},
		{
			name:   "ichimoku bullish inside the cloud",
			module: NewIchimokuModule(cfg),
			frame: func() *indicator.Frame {
				f := handFrame(flatBars(10, 99))
				setLast2(f.Tenkan, 99, 101)
				setLast2(f.SenkouA, 98, 98)
				setLast2(f.SenkouB, 102, 102)
				return f
			},
			label: "Ichimoku TK Cross (Bullish)", dir: model.Bullish,
			entry: 100, stop: 98.01, target: 103.98, quality: 40,
		},
		{
			name:   "ichimoku bullish without cloud values",
			module: NewIchimokuModule(cfg),
			frame: func() *indicator.Frame {
				f := handFrame(flatBars(10, 99))
				setLast2(f.Tenkan, 99, 101)
				return f
			},
			label: "Ichimoku TK Cross (Bullish)", dir: model.Bullish,
			entry: 100, stop: 98.01, target: 103.98, quality: 40,
		},
		{
			name:   "ichimoku bearish below the cloud",
			module: NewIchimokuModule(cfg),
			frame: func() *indicator.Frame {
				f := handFrame(flatBars(10, 99))
				setLast2(f.Tenkan, 101, 99)
				setLast2(f.SenkouA, 104, 104)
				setLast2(f.SenkouB, 105, 105)
				return f
			},
			label: "Ichimoku TK Cross (Bearish)", dir: model.Bearish,
			entry: 100, stop: 101.505, target: 96.99, quality: 55,
		},
		{
			name:   "bollinger lower bounce",
			module: NewBollingerModule(cfg),
			frame: func() *indicator.Frame {
				c := flatBars(10, 99)
				c[8].Low = 85
				c[9].Open, c[9].Close, c[9].High, c[9].Low = 92, 92, 93, 91
				return handFrame(c)
			},
			label: "Bollinger Band Bounce (Lower)", dir: model.Bullish,
			entry: 92, stop: 84.15, target: 100, quality: 40,
		},
		{
			name:   "bollinger lower bounce with oversold rsi",
			module: NewBollingerModule(cfg),
			frame: func() *indicator.Frame {
				c := flatBars(10, 99)
				c[8].Low = 85
				c[9].Open, c[9].Close, c[9].High, c[9].Low = 92, 92, 93, 91
				f := handFrame(c)
				setLast2(f.RSI, 50, 25)
				return f
			},
			label: "Bollinger Band Bounce (Lower)", dir: model.Bullish,
			entry: 92, stop: 84.15, target: 100, quality: 70,
		},
		{
			name:   "bollinger upper bounce with overbought rsi",
			module: NewBollingerModule(cfg),
			frame: func() *indicator.Frame {
				c := flatBars(10, 99)
				c[8].High = 115
				c[9].Open, c[9].Close, c[9].High, c[9].Low = 108, 108, 109, 107
				f := handFrame(c)
				setLast2(f.RSI, 50, 75)
				return f
			},
			label: "Bollinger Band Bounce (Upper)", dir: model.Bearish,
			entry: 108, stop: 116.15, target: 100, quality: 70,
		},
		{
			name:   "rsi bullish divergence",
			module: NewRSIModule(cfg),
			frame: func() *indicator.Frame {
				c := flatBars(40, 99)
				c[12].Low, c[25].Low = 95, 93
				f := handFrame(c)
				f.RSI[12], f.RSI[25] = 30, 35
				return f
			},
			label: "RSI Bullish Divergence", dir: model.Bullish,
			entry: 100, stop: 98.01, target: 103.98, quality: 40,
		},
		{
			name:   "rsi bearish divergence",
			module: NewRSIModule(cfg),
			frame: func() *indicator.Frame {
				c := flatBars(40, 99)
				c[12].High, c[25].High = 105, 107
				f := handFrame(c)
				f.RSI[12], f.RSI[25] = 70, 65
				return f
			},
			label: "RSI Bearish Divergence", dir: model.Bearish,
			entry: 100, stop: 101.505, target: 96.99, quality: 40,
		},
		{
			name:   "bullish engulfing",
			module: NewPatternModule(cfg),
			frame: func() *indicator.Frame {
				c := flatBars(6, 99)
				c[4].Open, c[4].Close, c[4].High, c[4].Low = 101, 99, 101.5, 98.5
				c[5].Open, c[5].Close, c[5].High, c[5].Low = 98.8, 101.5, 101.8, 98.6
				return handFrame(c)
			},
			label: "Pattern: Bullish Engulfing", dir: model.Bullish,
			entry: 101.5, stop: 97.515, target: 109.47, quality: 40,
		},
		{
			name:   "bearish engulfing",
			module: NewPatternModule(cfg),
			frame: func() *indicator.Frame {
				c := flatBars(6, 99)
				c[4].Open, c[4].Close, c[4].High, c[4].Low = 99, 101, 101.5, 98.5
				c[5].Open, c[5].Close, c[5].High, c[5].Low = 101.2, 98.5, 101.4, 98.2
				return handFrame(c)
			},
			label: "Pattern: Bearish Engulfing", dir: model.Bearish,
			entry: 98.5, stop: 102.515, target: 90.47, quality: 40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.frame()
			var sigs []model.Signal
			for _, s := range tt.module.Check(f) {
				if s.Type() == tt.label {
					sigs = append(sigs, s)
				}
			}
			if len(sigs) != 1 {
				t.Fatalf("Expected 1 %q signal, got %+v", tt.label, tt.module.Check(f))
			}
			s := sigs[0]
			if s.Kind.Direction != tt.dir {
				t.Errorf("Expected %s, got %s", tt.dir, s.Kind.Direction)
			}
			if math.Abs(s.Entry-tt.entry) > 1e-9 {
				t.Errorf("Expected entry %f, got %f", tt.entry, s.Entry)
			}
			if math.Abs(s.StopLoss-tt.stop) > 1e-9 {
				t.Errorf("Expected stop %f, got %f", tt.stop, s.StopLoss)
			}
			if math.Abs(s.TakeProfit-tt.target) > 1e-9 {
				t.Errorf("Expected target %f, got %f", tt.target, s.TakeProfit)
			}
			if s.Quality != tt.quality {
				t.Errorf("Expected quality %d, got %d", tt.quality, s.Quality)
			}
		})
	}
}

func TestDivergenceNeedsOpposingRSI(t *testing.T) {
	c := flatBars(40, 99)
	c[12].Low, c[25].Low = 95, 93
	f := handFrame(c)
	// RSI confirms the lower low, so there is no divergence
	f.RSI[12], f.RSI[25] = 35, 30

	ex := DivergenceExtremes(f)
	if ex == nil || len(ex.PriceLows) != 2 || len(ex.RSILows) != 2 {
		t.Fatalf("Expected two price and two RSI lows, got %+v", ex)
	}
	if sigs := byCategory(NewRSIModule(DefaultConfig()).Check(f), model.CategoryRSIDivergence); len(sigs) != 0 {
		t.Errorf("Expected no divergence, got %+v", sigs)
	}
}
