package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"cryptoscan/internal/signal"
	"cryptoscan/pkg/model"
)

// SummaryFile is the file name written by WriteSummary
const SummaryFile = "signal_summary.txt"

// TopN bounds the detailed signal list
const TopN = 20

// TypeCount is the number of signals of one display type
type TypeCount struct {
	Type  string
	Count int
}

// Distribution counts signals per display type, largest first; ties keep
// first-seen order
func Distribution(sigs []model.Signal) []TypeCount {
	idx := make(map[string]int)
	var out []TypeCount
	for _, s := range sigs {
		t := s.Type()
		i, ok := idx[t]
		if !ok {
			idx[t] = len(out)
			out = append(out, TypeCount{Type: t})
			i = len(out) - 1
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// Summary writes the plain-text signal summary
func Summary(w io.Writer, sigs []model.Signal, now time.Time) error {
	sorted := append([]model.Signal(nil), sigs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Quality > sorted[j].Quality })

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "=== CRYPTOSCAN SIGNAL SUMMARY ===\n\n")
	fmt.Fprintf(bw, "Date: %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(bw, "Total signals: %d\n\n", len(sorted))

	fmt.Fprintf(bw, "=== DISTRIBUTION BY TYPE ===\n\n")
	for _, tc := range Distribution(sorted) {
		fmt.Fprintf(bw, "%s: %d\n", tc.Type, tc.Count)
	}

	fmt.Fprintf(bw, "\n=== TOP %d SIGNALS ===\n\n", TopN)
	for i, s := range sorted {
		if i == TopN {
			break
		}
		fmt.Fprintf(bw, "%d. %s - %s - %s - Quality: %d/100\n", i+1, s.Symbol, s.Timeframe, s.Type(), s.Quality)
		fmt.Fprintf(bw, "   Description: %s\n", s.Description)
		fmt.Fprintf(bw, "   Entry: %.8g, Stop Loss: %s, Take Profit: %s\n\n", s.Entry, price(s.StopLoss), price(s.TakeProfit))
	}
	return bw.Flush()
}

// WriteSummary writes the summary into dir and returns the file path.
// Nothing is written when there are no signals.
func WriteSummary(dir string, sigs []model.Signal, now time.Time) (string, error) {
	if len(sigs) == 0 {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, SummaryFile)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create summary: %w", err)
	}
	defer f.Close()

	if err := Summary(f, sigs, now); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	return path, nil
}

// Extremes writes the local price and RSI extremes used by divergence
// detection, one line per point
func Extremes(w io.Writer, series model.Series, ex *signal.Extremes) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "=== %s %s RSI EXTREMES ===\n", series.Symbol, series.Timeframe)
	if ex == nil {
		fmt.Fprintf(bw, "not enough bars\n")
		return bw.Flush()
	}
	section := func(name string, pts []signal.Point, prec string) {
		fmt.Fprintf(bw, "%s (%d)\n", name, len(pts))
		for _, p := range pts {
			ts := ""
			if p.Index >= 0 && p.Index < len(series.Candles) {
				ts = series.Candles[p.Index].Time.UTC().Format(time.RFC3339)
			}
			fmt.Fprintf(bw, "  #%d %s "+prec+"\n", p.Index, ts, p.Value)
		}
	}
	section("price lows", ex.PriceLows, "%.8g")
	section("price highs", ex.PriceHighs, "%.8g")
	section("rsi lows", ex.RSILows, "%.2f")
	section("rsi highs", ex.RSIHighs, "%.2f")
	return bw.Flush()
}

func price(v float64) string {
	if v <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.8g", v)
}
