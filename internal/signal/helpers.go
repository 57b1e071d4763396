package signal

import (
	"math"
	"time"

	"github.com/google/uuid"

	"cryptoscan/internal/indicator"
	"cryptoscan/pkg/model"
)

// newSignal stamps a signal with the frame's symbol, timeframe and last bar time
func newSignal(f *indicator.Frame, module string, kind model.Kind, entry, stop, target float64, quality int, desc string) model.Signal {
	var ts time.Time
	if n := f.Len(); n > 0 {
		ts = f.Candles[n-1].Time
	}
	return model.Signal{
		ID:          uuid.NewString(),
		Symbol:      f.Symbol,
		Timeframe:   f.Timeframe,
		Module:      module,
		Kind:        kind,
		Entry:       entry,
		StopLoss:    stop,
		TakeProfit:  target,
		Time:        ts,
		Quality:     quality,
		Description: desc,
	}
}

// longTarget is the 2:1 reward target for a long position
func longTarget(entry, stop float64) float64 {
	return entry + (entry-stop)*2
}

// shortTarget is the 2:1 reward target for a short position
func shortTarget(entry, stop float64) float64 {
	return entry - (stop-entry)*2
}

// lowest returns the minimum of the last n values (fewer when the column is shorter)
func lowest(col []float64, n int) float64 {
	return foldLast(col, n, math.Min)
}

// highest returns the maximum of the last n values
func highest(col []float64, n int) float64 {
	return foldLast(col, n, math.Max)
}

func foldLast(col []float64, n int, pick func(a, b float64) float64) float64 {
	if n > len(col) {
		n = len(col)
	}
	if n <= 0 {
		return math.NaN()
	}
	tail := col[len(col)-n:]
	v := tail[0]
	for _, x := range tail[1:] {
		v = pick(v, x)
	}
	return v
}

// meanLast averages the last n non-NaN values
func meanLast(col []float64, n int) float64 {
	if n > len(col) {
		n = len(col)
	}
	var sum float64
	count := 0
	for _, v := range col[len(col)-n:] {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		count++
	}
	if count == 0 {
		return math.NaN()
	}
	return sum / float64(count)
}

// meanRange averages col[from:to], skipping NaN; negative indexes count from the end
func meanRange(col []float64, from, to int) float64 {
	n := len(col)
	if from < 0 {
		from += n
	}
	if to <= 0 {
		to += n
	}
	if from < 0 {
		from = 0
	}
	if to > n {
		to = n
	}
	if from >= to {
		return math.NaN()
	}
	return meanLast(col[:to], to-from)
}

// crossedAbove reports a moving above b between the previous and last bar
func crossedAbove(a, b []float64) bool {
	pa, pb := indicator.Back(a, 2), indicator.Back(b, 2)
	ca, cb := indicator.Back(a, 1), indicator.Back(b, 1)
	return pa <= pb && ca > cb
}

// crossedBelow reports a moving below b between the previous and last bar
func crossedBelow(a, b []float64) bool {
	pa, pb := indicator.Back(a, 2), indicator.Back(b, 2)
	ca, cb := indicator.Back(a, 1), indicator.Back(b, 1)
	return pa >= pb && ca < cb
}
