package provider

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cryptoscan/pkg/model"
)

// CSVProvider serves candles from files named <SYMBOL>_<interval>.csv with
// columns timestamp,open,high,low,close,volume. Timestamps are unix
// milliseconds or RFC3339.
type CSVProvider struct {
	dir string
}

// NewCSVProvider creates a provider over dir
func NewCSVProvider(dir string) *CSVProvider {
	return &CSVProvider{dir: dir}
}

// Name returns the provider name
func (p *CSVProvider) Name() string {
	return "csv"
}

// IsAvailable reports whether the directory exists
func (p *CSVProvider) IsAvailable() bool {
	if p.dir == "" {
		return false
	}
	info, err := os.Stat(p.dir)
	return err == nil && info.IsDir()
}

// GetCandles returns the last limit candles of the file
func (p *CSVProvider) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error) {
	path := filepath.Join(p.dir, fmt.Sprintf("%s_%s.csv", strings.ToUpper(symbol), interval))
	candles, err := p.readFile(path)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

// QuoteVolume24h sums close*volume over the 24h before the last bar of the
// finest-grained file for symbol
func (p *CSVProvider) QuoteVolume24h(ctx context.Context, symbol string) (float64, error) {
	matches, err := filepath.Glob(filepath.Join(p.dir, strings.ToUpper(symbol)+"_*.csv"))
	if err != nil {
		return 0, &ProviderError{Provider: p.Name(), Err: err}
	}

	best, bestDur := "", time.Duration(0)
	for _, m := range matches {
		interval := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), strings.ToUpper(symbol)+"_"), ".csv")
		d, err := IntervalDuration(interval)
		if err != nil {
			continue
		}
		if best == "" || d < bestDur {
			best, bestDur = m, d
		}
	}
	if best == "" {
		return 0, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %w", symbol, ErrNoData)}
	}

	candles, err := p.readFile(best)
	if err != nil {
		return 0, err
	}
	from := candles[len(candles)-1].Time.Add(-24 * time.Hour)
	var vol float64
	for _, c := range candles {
		if c.Time.After(from) {
			vol += c.Close * c.Volume
		}
	}
	return vol, nil
}

func (p *CSVProvider) readFile(path string) ([]model.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %w", filepath.Base(path), ErrNoData)}
		}
		return nil, &ProviderError{Provider: p.Name(), Err: err}
	}
	defer f.Close()

	candles, err := ParseCSV(f)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %w", filepath.Base(path), err)}
	}
	if len(candles) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %w", filepath.Base(path), ErrNoData)}
	}
	return candles, nil
}

// ParseCSV reads timestamp,open,high,low,close,volume rows. A header row is
// skipped.
func ParseCSV(r io.Reader) ([]model.Candle, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var candles []model.Candle
	line := 0
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "timestamp") {
			continue
		}
		if len(rec) < 6 {
			return nil, fmt.Errorf("line %d: expected 6 columns, got %d", line, len(rec))
		}

		ts, err := parseTimestamp(rec[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		var vals [5]float64
		for i := range vals {
			if vals[i], err = parseFloat(rec[i+1]); err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", line, i+2, err)
			}
		}
		candles = append(candles, model.Candle{
			Time:   ts,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	return candles, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02 15:04:05", s)
}
