package symbols

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// DefaultQuote is appended to bare base assets ("BTC" -> "BTCUSDT")
const DefaultQuote = "USDT"

var quotes = []string{"USDT", "BUSD", "USDC", "FDUSD", "TUSD", "BTC", "ETH", "BNB"}

// Normalize upper-cases a symbol, strips separators and appends the default
// quote asset when none is present
func Normalize(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	s = strings.NewReplacer("/", "", "-", "", "_", "").Replace(s)
	if s == "" {
		return ""
	}
	for _, q := range quotes {
		if strings.HasSuffix(s, q) && len(s) > len(q) {
			return s
		}
	}
	return s + DefaultQuote
}

// Parse splits a comma or whitespace separated list, normalizing and
// de-duplicating in input order
func Parse(list string) []string {
	fields := strings.FieldsFunc(list, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	return dedupe(fields)
}

// LoadFile reads symbols from a text file: one or more per line, '#' starts
// a comment
func LoadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open symbol file: %w", err)
	}
	defer f.Close()

	var raw []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		raw = append(raw, Parse(line)...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read symbol file: %w", err)
	}

	out := dedupe(raw)
	if len(out) == 0 {
		return nil, fmt.Errorf("symbol file %s is empty", path)
	}
	return out, nil
}

// Resolve picks the scan symbols: an explicit list wins, then a file, then a
// named universe
func Resolve(list, file string, universe Universe) ([]string, error) {
	if syms := Parse(list); len(syms) > 0 {
		return syms, nil
	}
	if file != "" {
		return LoadFile(file)
	}
	if syms := GetUniverse(universe); syms != nil {
		return append([]string(nil), syms...), nil
	}
	return nil, fmt.Errorf("unknown universe: %s", universe)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		n := Normalize(s)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
