package indicator

import "fmt"

// RSI computes Wilder's Relative Strength Index. The first average is a
// plain mean of the first period deltas (the first bar counts as no change);
// later values use Wilder smoothing. A flat window (no gains, no losses)
// yields NaN, a window with gains but no losses yields 100.
func RSI(closes []float64, period int) ([]float64, error) {
	if period < 1 {
		return nil, fmt.Errorf("rsi period %d: must be positive", period)
	}
	n := len(closes)
	if n < period {
		return nil, fmt.Errorf("rsi(%d) over %d bars: %w", period, n, ErrInsufficientData)
	}

	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains[i] = d
		} else if d < 0 {
			losses[i] = -d
		}
	}

	out := nanSlice(n)
	var avgGain, avgLoss float64
	for i := 0; i < period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period-1] = rsiValue(avgGain, avgLoss)

	p := float64(period)
	for i := period; i < n; i++ {
		avgGain = (avgGain*(p-1) + gains[i]) / p
		avgLoss = (avgLoss*(p-1) + losses[i]) / p
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return NaN
		}
		return 100
	}
	return 100 - 100/(1+avgGain/avgLoss)
}

// EMA is an exponential moving average seeded with the first value,
// alpha = 2/(period+1), without bias adjustment. Defined from index 0.
func EMA(values []float64, period int) ([]float64, error) {
	if period < 1 {
		return nil, fmt.Errorf("ema period %d: must be positive", period)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("ema(%d): %w", period, ErrInsufficientData)
	}
	alpha := 2.0 / float64(period+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out, nil
}

// MACD returns the macd line, its signal line and the histogram
func MACD(closes []float64, fast, slow, signal int) (macd, sig, hist []float64, err error) {
	fastEMA, err := EMA(closes, fast)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("macd fast: %w", err)
	}
	slowEMA, err := EMA(closes, slow)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("macd slow: %w", err)
	}

	macd = make([]float64, len(closes))
	for i := range closes {
		macd[i] = fastEMA[i] - slowEMA[i]
	}
	sig, err = EMA(macd, signal)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("macd signal: %w", err)
	}
	hist = make([]float64, len(closes))
	for i := range closes {
		hist[i] = macd[i] - sig[i]
	}
	return macd, sig, hist, nil
}

// Bollinger returns upper, middle and lower bands. The deviation is the
// sample standard deviation of the window.
func Bollinger(closes []float64, period int, k float64) (upper, middle, lower []float64, err error) {
	if period < 2 {
		return nil, nil, nil, fmt.Errorf("bollinger period %d: must be at least 2", period)
	}
	middle = sma(closes, period)
	std := rollingStd(closes, period)

	upper = make([]float64, len(closes))
	lower = make([]float64, len(closes))
	for i := range closes {
		upper[i] = middle[i] + k*std[i]
		lower[i] = middle[i] - k*std[i]
	}
	return upper, middle, lower, nil
}
