package indicator

import (
	"errors"
	"math"

	talib "github.com/markcheno/go-talib"
)

// ErrInsufficientData is returned when a series is shorter than an indicator's lookback
var ErrInsufficientData = errors.New("insufficient data")

// NaN is the "no value" marker used in every indicator column
var NaN = math.NaN()

// Back returns col[len-n] (n=1 is the last value), or NaN when out of range
func Back(col []float64, n int) float64 {
	i := len(col) - n
	if n < 1 || i < 0 || i >= len(col) {
		return NaN
	}
	return col[i]
}

// Valid reports whether every value is a real number
func Valid(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = NaN
	}
	return out
}

func hasNaN(in []float64) bool {
	for _, v := range in {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// rollingMean is a trailing mean over period values. A window holding any
// NaN produces NaN, as does the warm-up region.
func rollingMean(in []float64, period int) []float64 {
	out := nanSlice(len(in))
	if period < 1 {
		return out
	}
	for i := period - 1; i < len(in); i++ {
		var sum float64
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if math.IsNaN(in[j]) {
				ok = false
				break
			}
			sum += in[j]
		}
		if ok {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// rollingStd is the trailing sample standard deviation (n-1 denominator)
func rollingStd(in []float64, period int) []float64 {
	out := nanSlice(len(in))
	if period < 2 {
		return out
	}
	mean := rollingMean(in, period)
	for i := period - 1; i < len(in); i++ {
		if math.IsNaN(mean[i]) {
			continue
		}
		var ss float64
		for j := i - period + 1; j <= i; j++ {
			d := in[j] - mean[i]
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(period-1))
	}
	return out
}

// sma uses talib's running-sum SMA when the input is clean and falls back
// to rollingMean otherwise; talib pads the warm-up with zeros, which we
// replace with NaN.
func sma(in []float64, period int) []float64 {
	if period < 2 || len(in) < period || hasNaN(in) {
		return rollingMean(in, period)
	}
	return padWarmup(talib.Sma(in, period), period)
}

func rollingMax(in []float64, period int) []float64 {
	if period < 2 || len(in) < period || hasNaN(in) {
		return rollingExtreme(in, period, math.Max)
	}
	return padWarmup(talib.Max(in, period), period)
}

func rollingMin(in []float64, period int) []float64 {
	if period < 2 || len(in) < period || hasNaN(in) {
		return rollingExtreme(in, period, math.Min)
	}
	return padWarmup(talib.Min(in, period), period)
}

func rollingExtreme(in []float64, period int, pick func(a, b float64) float64) []float64 {
	out := nanSlice(len(in))
	if period < 1 {
		return out
	}
	for i := period - 1; i < len(in); i++ {
		v := in[i-period+1]
		for j := i - period + 2; j <= i; j++ {
			v = pick(v, in[j])
		}
		out[i] = v
	}
	return out
}

func padWarmup(out []float64, period int) []float64 {
	for i := 0; i < period-1 && i < len(out); i++ {
		out[i] = NaN
	}
	return out
}

// shift moves values k positions later in time (k<0 moves them earlier),
// filling the vacated cells with NaN.
func shift(in []float64, k int) []float64 {
	out := nanSlice(len(in))
	for i := range out {
		j := i - k
		if j >= 0 && j < len(in) {
			out[i] = in[j]
		}
	}
	return out
}
