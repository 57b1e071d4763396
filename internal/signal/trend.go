package signal

import (
	"fmt"

	"github.com/rs/zerolog"

	"cryptoscan/internal/indicator"
	"cryptoscan/internal/levels"
	"cryptoscan/pkg/model"
)

// ADX thresholds
const (
	ADXWeak       = 20.0
	ADXStrong     = 25.0
	ADXVeryStrong = 40.0
)

const (
	trendMinBars      = 50
	trendLag          = 5
	horizontalBand    = 0.01
	horizontalTouches = 2
	horizontalBars    = 20
)

// TrendModule groups trend-change, PSAR flip, ADX strength and horizontal
// support/resistance detection
type TrendModule struct {
	cfg       Config
	extractor *levels.Extractor
}

// NewTrendModule creates the trend module
func NewTrendModule(cfg Config, logger zerolog.Logger) *TrendModule {
	return &TrendModule{
		cfg:       cfg,
		extractor: levels.NewExtractor(cfg.Levels, logger),
	}
}

// Name returns the module name
func (m *TrendModule) Name() string { return "trend" }

// Description returns the module description
func (m *TrendModule) Description() string {
	return "EMA trend change, Parabolic SAR flip, ADX trend strength, horizontal S/R zones"
}

// Check runs the four trend rules
func (m *TrendModule) Check(f *indicator.Frame) []model.Signal {
	var out []model.Signal
	out = append(out, m.trendChange(f)...)
	out = append(out, m.psarFlip(f)...)
	out = append(out, m.adx(f)...)
	out = append(out, m.horizontal(f)...)
	return out
}

// trendChange compares the EMA ordering now with the ordering 5 bars earlier
func (m *TrendModule) trendChange(f *indicator.Frame) []model.Signal {
	if f.Len() < trendMinBars {
		return nil
	}
	lag := trendLag + 1
	prevUp := indicator.Back(f.EMAShort, lag) > indicator.Back(f.EMALong, lag)
	curUp := indicator.Back(f.EMAShort, 1) > indicator.Back(f.EMALong, 1)
	if prevUp == curUp {
		return nil
	}

	entry := f.LastClose()
	surge := volumeSurge(f, 1.5)
	if curUp {
		stop := lowest(f.Low, 5) * 0.98
		quality := BaseQuality(f, model.Bullish)
		if surge {
			quality += 10
		}
		kind := model.Kind{Category: model.CategoryTrendChange, Direction: model.Bullish}
		return []model.Signal{newSignal(f, m.Name(), kind, entry, stop, longTarget(entry, stop), quality,
			"Uptrend start. The short EMA moved above the long EMA.")}
	}
	stop := highest(f.High, 5) * 1.02
	quality := BaseQuality(f, model.Bearish)
	if surge {
		quality += 10
	}
	kind := model.Kind{Category: model.CategoryTrendChange, Direction: model.Bearish}
	return []model.Signal{newSignal(f, m.Name(), kind, entry, stop, shortTarget(entry, stop), quality,
		"Downtrend start. The short EMA moved below the long EMA.")}
}

// psarFlip fires when the SAR changes side between the previous and last bar
func (m *TrendModule) psarFlip(f *indicator.Frame) []model.Signal {
	if f.Len() < 5 {
		return nil
	}
	psar := indicator.Back(f.PSAR, 1)
	prevPSAR := indicator.Back(f.PSAR, 2)
	if !indicator.Valid(psar, prevPSAR) {
		return nil
	}
	prevAbove := prevPSAR > indicator.Back(f.High, 2)
	curAbove := psar > indicator.Back(f.High, 1)
	if prevAbove == curAbove {
		return nil
	}

	entry := f.LastClose()
	if !curAbove {
		stop := psar * 0.98
		kind := model.Kind{Category: model.CategoryPSAR, Direction: model.Bullish}
		return []model.Signal{newSignal(f, m.Name(), kind, entry, stop, longTarget(entry, stop),
			BaseQuality(f, model.Bullish),
			"Parabolic SAR moved below price. Possible move up.")}
	}
	stop := psar * 1.02
	kind := model.Kind{Category: model.CategoryPSAR, Direction: model.Bearish}
	return []model.Signal{newSignal(f, m.Name(), kind, entry, stop, shortTarget(entry, stop),
		BaseQuality(f, model.Bearish),
		"Parabolic SAR moved above price. Possible move down.")}
}

// adx fires when ADX just crossed 25, or while it stays above 40
func (m *TrendModule) adx(f *indicator.Frame) []model.Signal {
	if f.Len() < 5 {
		return nil
	}
	adx := indicator.Back(f.ADX, 1)
	prev := indicator.Back(f.ADX, 2)
	dir := model.Bearish
	if indicator.Back(f.PlusDI, 1) > indicator.Back(f.MinusDI, 1) {
		dir = model.Bullish
	}

	var strength model.Strength
	var bonus int
	var desc string
	switch {
	case adx > ADXStrong && prev <= ADXStrong:
		strength = model.StrengthStrong
		desc = fmt.Sprintf("ADX at %.1f marks the start of a strong %s trend.", adx, dir)
	case adx > ADXVeryStrong:
		strength = model.StrengthVeryStrong
		bonus = 15
		desc = fmt.Sprintf("ADX at %.1f shows a very strong %s trend. Suited to trend following.", adx, dir)
	default:
		return nil
	}

	entry := f.LastClose()
	kind := model.Kind{Category: model.CategoryADX, Direction: dir, Strength: strength}
	quality := BaseQuality(f, dir) + bonus
	if dir == model.Bullish {
		stop := lowest(f.Low, 5) * 0.98
		return []model.Signal{newSignal(f, m.Name(), kind, entry, stop, longTarget(entry, stop), quality, desc)}
	}
	stop := highest(f.High, 5) * 1.02
	return []model.Signal{newSignal(f, m.Name(), kind, entry, stop, shortTarget(entry, stop), quality, desc)}
}

// horizontal requires a level within 1% of price that was touched at least
// twice over the last 20 bars
func (m *TrendModule) horizontal(f *indicator.Frame) []model.Signal {
	if f.Len() < trendMinBars {
		return nil
	}
	lv := m.extractor.Find(f.Candles)
	last := f.LastClose()

	var out []model.Signal
	for _, level := range lv.Support {
		if !((1-horizontalBand)*last <= level && level <= (1+horizontalBand)*last) {
			continue
		}
		if touches(f.Low, level, horizontalBars) < horizontalTouches {
			continue
		}
		stop := level * 0.98
		kind := model.Kind{Category: model.CategoryHorizontalSR, Direction: model.Bullish}
		out = append(out, newSignal(f, m.Name(), kind, last, stop, longTarget(last, stop),
			BaseQuality(f, model.Bullish)+10,
			fmt.Sprintf("Price reached the horizontal support zone at %.8g. The level was tested several times recently.", level)))
	}
	for _, level := range lv.Resistance {
		if !((1-horizontalBand)*level <= last && last <= (1+horizontalBand)*level) {
			continue
		}
		if touches(f.High, level, horizontalBars) < horizontalTouches {
			continue
		}
		stop := level * 1.02
		kind := model.Kind{Category: model.CategoryHorizontalSR, Direction: model.Bearish}
		out = append(out, newSignal(f, m.Name(), kind, last, stop, shortTarget(last, stop),
			BaseQuality(f, model.Bearish)+10,
			fmt.Sprintf("Price reached the horizontal resistance zone at %.8g. The level was tested several times recently.", level)))
	}
	return out
}

// touches counts the last n values within 1% of level
func touches(col []float64, level float64, n int) int {
	if n > len(col) {
		n = len(col)
	}
	count := 0
	for _, v := range col[len(col)-n:] {
		if (1-horizontalBand)*level <= v && v <= (1+horizontalBand)*level {
			count++
		}
	}
	return count
}

// TrendState derives the ADX trend descriptor at the last bar; nil when ADX is unavailable
func TrendState(f *indicator.Frame) *model.ADXTrend {
	adx := indicator.Back(f.ADX, 1)
	if !indicator.Valid(adx) {
		return nil
	}
	dir := model.Bearish
	if indicator.Back(f.PlusDI, 1) > indicator.Back(f.MinusDI, 1) {
		dir = model.Bullish
	}
	var strength model.Strength
	switch {
	case adx < ADXWeak:
		strength = model.StrengthWeak
	case adx < ADXStrong:
		strength = model.StrengthModerate
	case adx < ADXVeryStrong:
		strength = model.StrengthStrong
	default:
		strength = model.StrengthVeryStrong
	}
	return &model.ADXTrend{Value: adx, Direction: dir, Strength: strength}
}
