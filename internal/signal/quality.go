package signal

import (
	"cryptoscan/internal/indicator"
	"cryptoscan/pkg/model"
)

// BaseQuality is the shared 0-100 confidence score for a directional signal.
// A comparison against a missing indicator value counts as not confirmed.
func BaseQuality(f *indicator.Frame, dir model.Direction) int {
	if f == nil || f.Len() == 0 {
		return 50
	}
	quality := 50

	emaShort := indicator.Back(f.EMAShort, 1)
	emaLong := indicator.Back(f.EMALong, 1)
	rsi := indicator.Back(f.RSI, 1)
	macd := indicator.Back(f.MACD, 1)
	macdSignal := indicator.Back(f.MACDSignal, 1)
	last := f.LastClose()

	if dir == model.Bullish {
		if emaShort > emaLong {
			quality += 10
		} else {
			quality -= 10
		}
		if rsi < 30 {
			quality += 15
		} else if rsi < 50 {
			quality += 5
		}
		if macd > macdSignal {
			quality += 10
		}
		if last < indicator.Back(f.BBLower, 1) {
			quality += 10
		}
	} else {
		if emaShort < emaLong {
			quality += 10
		} else {
			quality -= 10
		}
		if rsi > 70 {
			quality += 15
		} else if rsi > 50 {
			quality += 5
		}
		if macd < macdSignal {
			quality += 10
		}
		if last > indicator.Back(f.BBUpper, 1) {
			quality += 10
		}
	}

	if volumeSurge(f, 1.5) {
		quality += 10
	}
	return model.ClampQuality(quality)
}

// volumeSurge reports whether the last volume exceeds factor times the
// mean of the last five volumes (the last bar included)
func volumeSurge(f *indicator.Frame, factor float64) bool {
	avg := meanLast(f.Volume, 5)
	return indicator.Valid(avg) && indicator.Back(f.Volume, 1) > factor*avg
}
