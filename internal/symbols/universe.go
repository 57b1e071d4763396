package symbols

import "sort"

// Universe represents a predefined symbol universe
type Universe string

const (
	UniverseDefault Universe = "default"
	UniverseMajors  Universe = "majors"
	UniverseTest    Universe = "test" // small set for testing
)

// UniverseInfo describes a universe for listings
type UniverseInfo struct {
	ID          Universe
	Description string
	Count       int
}

// GetUniverse returns the symbols of u, nil when unknown
func GetUniverse(u Universe) []string {
	switch u {
	case UniverseDefault:
		return DefaultSymbols
	case UniverseMajors:
		return MajorSymbols
	case UniverseTest:
		return TestSymbols
	default:
		return nil
	}
}

// AvailableUniverses lists every universe, sorted by id
func AvailableUniverses() []UniverseInfo {
	out := []UniverseInfo{
		{ID: UniverseDefault, Description: "15 liquid USDT pairs", Count: len(DefaultSymbols)},
		{ID: UniverseMajors, Description: "top market cap pairs", Count: len(MajorSymbols)},
		{ID: UniverseTest, Description: "quick test set", Count: len(TestSymbols)},
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DefaultSymbols is the monitored set
var DefaultSymbols = []string{
	"BTCUSDT", "ETHUSDT", "BNBUSDT", "ADAUSDT", "SOLUSDT",
	"XRPUSDT", "DOTUSDT", "DOGEUSDT", "AVAXUSDT", "MATICUSDT",
	"LINKUSDT", "LTCUSDT", "UNIUSDT", "ATOMUSDT", "ETCUSDT",
}

// MajorSymbols are the largest pairs by market cap
var MajorSymbols = []string{
	"BTCUSDT", "ETHUSDT", "BNBUSDT", "SOLUSDT", "XRPUSDT",
}

// TestSymbols is a small set for quick testing
var TestSymbols = []string{
	"BTCUSDT", "ETHUSDT", "SOLUSDT",
}
