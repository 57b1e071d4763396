package indicator

import (
	"fmt"
	"math"
)

// Ichimoku holds the five cloud lines. SenkouA/SenkouB are already shifted
// forward by the kijun period and Chikou backward, so index i of SenkouA is
// the cloud drawn at bar i.
type Ichimoku struct {
	Tenkan  []float64
	Kijun   []float64
	SenkouA []float64
	SenkouB []float64
	Chikou  []float64
}

// Cloud computes the Ichimoku lines
func Cloud(highs, lows, closes []float64, tenkan, kijun, senkouB int) (*Ichimoku, error) {
	if tenkan < 1 || kijun < 1 || senkouB < 1 {
		return nil, fmt.Errorf("ichimoku periods %d/%d/%d: must be positive", tenkan, kijun, senkouB)
	}
	mid := func(period int) []float64 {
		hi := rollingMax(highs, period)
		lo := rollingMin(lows, period)
		out := make([]float64, len(highs))
		for i := range out {
			out[i] = (hi[i] + lo[i]) / 2
		}
		return out
	}

	ic := &Ichimoku{
		Tenkan: mid(tenkan),
		Kijun:  mid(kijun),
	}
	avg := make([]float64, len(highs))
	for i := range avg {
		avg[i] = (ic.Tenkan[i] + ic.Kijun[i]) / 2
	}
	ic.SenkouA = shift(avg, kijun)
	ic.SenkouB = shift(mid(senkouB), kijun)
	ic.Chikou = shift(closes, -kijun)
	return ic, nil
}

// PSAR computes Parabolic SAR as a left-to-right fold over the bars.
// Index 0 is undefined; index 1 is seeded with the first low in an uptrend.
func PSAR(highs, lows []float64, afStart, afIncrement, afMax float64) ([]float64, error) {
	n := len(highs)
	if n < 2 {
		return nil, fmt.Errorf("psar over %d bars: %w", n, ErrInsufficientData)
	}

	out := nanSlice(n)
	out[1] = lows[0]
	up := true
	ep := highs[1]
	af := afStart

	for i := 2; i < n; i++ {
		prev := out[i-1]
		sar := prev + af*(ep-prev)
		if up {
			sar = math.Min(sar, math.Min(lows[i-1], lows[i-2]))
			if highs[i] > ep {
				ep = highs[i]
				af = math.Min(af+afIncrement, afMax)
			}
			if lows[i] < sar {
				up = false
				sar = ep
				ep = lows[i]
				af = afStart
			}
		} else {
			sar = math.Max(sar, math.Max(highs[i-1], highs[i-2]))
			if lows[i] < ep {
				ep = lows[i]
				af = math.Min(af+afIncrement, afMax)
			}
			if highs[i] > sar {
				up = true
				sar = ep
				ep = highs[i]
				af = afStart
			}
		}
		out[i] = sar
	}
	return out, nil
}

// TrueRange is max(high-low, |high-prevClose|, |low-prevClose|); the first
// bar has no previous close and uses high-low.
func TrueRange(highs, lows, closes []float64) []float64 {
	out := make([]float64, len(highs))
	for i := range highs {
		tr := math.Abs(highs[i] - lows[i])
		if i > 0 {
			tr = math.Max(tr, math.Abs(highs[i]-closes[i-1]))
			tr = math.Max(tr, math.Abs(lows[i]-closes[i-1]))
		}
		out[i] = tr
	}
	return out
}

// ATR is the simple rolling mean of the true range
func ATR(highs, lows, closes []float64, period int) ([]float64, error) {
	if period < 1 {
		return nil, fmt.Errorf("atr period %d: must be positive", period)
	}
	if len(highs) < period {
		return nil, fmt.Errorf("atr(%d) over %d bars: %w", period, len(highs), ErrInsufficientData)
	}
	return sma(TrueRange(highs, lows, closes), period), nil
}

// ADX returns the average directional index with +DI and -DI. Every
// smoothing step is a simple rolling mean over period bars.
func ADX(highs, lows, closes []float64, period int) (adx, plusDI, minusDI []float64, err error) {
	if period < 1 {
		return nil, nil, nil, fmt.Errorf("adx period %d: must be positive", period)
	}
	n := len(highs)
	if n < period {
		return nil, nil, nil, fmt.Errorf("adx(%d) over %d bars: %w", period, n, ErrInsufficientData)
	}

	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		upMove := highs[i] - highs[i-1]
		downMove := lows[i-1] - lows[i]
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
	}

	atr := rollingMean(TrueRange(highs, lows, closes), period)
	plusAvg := rollingMean(plusDM, period)
	minusAvg := rollingMean(minusDM, period)

	plusDI = make([]float64, n)
	minusDI = make([]float64, n)
	dx := make([]float64, n)
	for i := 0; i < n; i++ {
		plusDI[i] = 100 * (plusAvg[i] / atr[i])
		minusDI[i] = 100 * (minusAvg[i] / atr[i])
		dx[i] = 100 * (math.Abs(plusDI[i]-minusDI[i]) / (plusDI[i] + minusDI[i]))
	}
	return rollingMean(dx, period), plusDI, minusDI, nil
}
