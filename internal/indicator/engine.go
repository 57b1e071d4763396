package indicator

import (
	"fmt"

	"github.com/rs/zerolog"

	"cryptoscan/pkg/model"
)

// Params holds indicator periods and factors
type Params struct {
	RSIPeriod int

	EMAShort  int
	EMAMedium int
	EMALong   int

	MACDFast   int
	MACDSlow   int
	MACDSignal int

	BBPeriod int
	BBStdDev float64

	IchimokuTenkan  int
	IchimokuKijun   int
	IchimokuSenkouB int

	PSARStart     float64
	PSARIncrement float64
	PSARMax       float64

	ADXPeriod int
}

// DefaultParams returns the standard indicator settings
func DefaultParams() Params {
	return Params{
		RSIPeriod:       14,
		EMAShort:        9,
		EMAMedium:       21,
		EMALong:         50,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		BBPeriod:        20,
		BBStdDev:        2,
		IchimokuTenkan:  9,
		IchimokuKijun:   26,
		IchimokuSenkouB: 52,
		PSARStart:       0.02,
		PSARIncrement:   0.02,
		PSARMax:         0.2,
		ADXPeriod:       14,
	}
}

// Frame is a price series augmented with indicator columns. Every column has
// the same length as Candles; NaN marks "no value".
type Frame struct {
	Symbol    string
	Timeframe string
	Candles   []model.Candle

	Open, High, Low, Close, Volume []float64

	RSI                          []float64
	EMAShort, EMAMedium, EMALong []float64
	MACD, MACDSignal, MACDHist   []float64
	BBUpper, BBMiddle, BBLower   []float64
	Tenkan, Kijun                []float64
	SenkouA, SenkouB, Chikou     []float64
	PSAR                         []float64
	ADX, PlusDI, MinusDI         []float64
	OBV                          []float64
}

// Len returns the number of bars
func (f *Frame) Len() int { return len(f.Candles) }

// LastClose returns the close of the newest bar
func (f *Frame) LastClose() float64 { return Back(f.Close, 1) }

// Engine computes every indicator for a series
type Engine struct {
	params Params
	logger zerolog.Logger
}

// NewEngine creates an indicator engine
func NewEngine(p Params, logger zerolog.Logger) *Engine {
	return &Engine{
		params: p,
		logger: logger.With().Str("component", "indicator").Logger(),
	}
}

// Params returns the engine settings
func (e *Engine) Params() Params { return e.params }

// Compute returns the augmented frame. An indicator that fails leaves its
// columns entirely NaN; the remaining indicators are still computed.
func (e *Engine) Compute(s model.Series) *Frame {
	n := len(s.Candles)
	f := &Frame{
		Symbol:    s.Symbol,
		Timeframe: s.Timeframe,
		Candles:   s.Candles,
		Open:      make([]float64, n),
		High:      make([]float64, n),
		Low:       make([]float64, n),
		Close:     make([]float64, n),
		Volume:    make([]float64, n),
	}
	for i, c := range s.Candles {
		f.Open[i] = c.Open
		f.High[i] = c.High
		f.Low[i] = c.Low
		f.Close[i] = c.Close
		f.Volume[i] = c.Volume
	}
	p := e.params

	e.run(f, "rsi", func() (err error) {
		f.RSI, err = RSI(f.Close, p.RSIPeriod)
		return
	}, &f.RSI)

	e.run(f, "ema_short", func() (err error) {
		f.EMAShort, err = EMA(f.Close, p.EMAShort)
		return
	}, &f.EMAShort)
	e.run(f, "ema_medium", func() (err error) {
		f.EMAMedium, err = EMA(f.Close, p.EMAMedium)
		return
	}, &f.EMAMedium)
	e.run(f, "ema_long", func() (err error) {
		f.EMALong, err = EMA(f.Close, p.EMALong)
		return
	}, &f.EMALong)

	e.run(f, "macd", func() (err error) {
		f.MACD, f.MACDSignal, f.MACDHist, err = MACD(f.Close, p.MACDFast, p.MACDSlow, p.MACDSignal)
		return
	}, &f.MACD, &f.MACDSignal, &f.MACDHist)

	e.run(f, "bollinger", func() (err error) {
		f.BBUpper, f.BBMiddle, f.BBLower, err = Bollinger(f.Close, p.BBPeriod, p.BBStdDev)
		return
	}, &f.BBUpper, &f.BBMiddle, &f.BBLower)

	e.run(f, "ichimoku", func() error {
		ic, err := Cloud(f.High, f.Low, f.Close, p.IchimokuTenkan, p.IchimokuKijun, p.IchimokuSenkouB)
		if err != nil {
			return err
		}
		f.Tenkan, f.Kijun, f.SenkouA, f.SenkouB, f.Chikou = ic.Tenkan, ic.Kijun, ic.SenkouA, ic.SenkouB, ic.Chikou
		return nil
	}, &f.Tenkan, &f.Kijun, &f.SenkouA, &f.SenkouB, &f.Chikou)

	e.run(f, "psar", func() (err error) {
		f.PSAR, err = PSAR(f.High, f.Low, p.PSARStart, p.PSARIncrement, p.PSARMax)
		return
	}, &f.PSAR)

	e.run(f, "adx", func() (err error) {
		f.ADX, f.PlusDI, f.MinusDI, err = ADX(f.High, f.Low, f.Close, p.ADXPeriod)
		return
	}, &f.ADX, &f.PlusDI, &f.MinusDI)

	e.run(f, "obv", func() (err error) {
		f.OBV, err = OBV(f.Close, f.Volume)
		return
	}, &f.OBV)

	if rsi := Back(f.RSI, 1); Valid(rsi) {
		e.logger.Debug().
			Str("symbol", f.Symbol).
			Str("timeframe", f.Timeframe).
			Float64("rsi", rsi).
			Int("bars", n).
			Msg("indicators computed")
	}
	return f
}

// run executes one indicator and contains its failure to its own columns
func (e *Engine) run(f *Frame, name string, fn func() error, cols ...*[]float64) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return fn()
	}()

	if err == nil {
		for _, c := range cols {
			if len(*c) != f.Len() {
				err = fmt.Errorf("column length %d, want %d", len(*c), f.Len())
				break
			}
		}
	}
	if err != nil {
		e.logger.Debug().Err(err).Str("indicator", name).Str("symbol", f.Symbol).Msg("indicator unavailable")
		for _, c := range cols {
			*c = nanSlice(f.Len())
		}
	}
}
