package symbols

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"btcusdt", "BTCUSDT"},
		{"BTC/USDT", "BTCUSDT"},
		{"eth", "ETHUSDT"},
		{" sol-usdc ", "SOLUSDC"},
		{"ETHBTC", "ETHBTC"},
		{"USDT", "USDTUSDT"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestParse(t *testing.T) {
	got := Parse("btc, ETHUSDT  sol,btcusdt")
	want := []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symbols.txt")
	content := "# watchlist\nBTCUSDT\nethusdt, SOL # alts\n\nbtc\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	empty := filepath.Join(t.TempDir(), "empty.txt")
	os.WriteFile(empty, []byte("# nothing\n"), 0644)
	if _, err := LoadFile(empty); err == nil {
		t.Error("Expected error for empty file")
	}
}

func TestResolve(t *testing.T) {
	got, err := Resolve("ada", "", UniverseDefault)
	if err != nil || len(got) != 1 || got[0] != "ADAUSDT" {
		t.Errorf("Expected explicit list to win, got %v (%v)", got, err)
	}

	got, err = Resolve("", "", UniverseDefault)
	if err != nil || len(got) != 15 {
		t.Errorf("Expected 15 default symbols, got %d (%v)", len(got), err)
	}

	if _, err := Resolve("", "", Universe("nasdaq")); err == nil {
		t.Error("Expected error for unknown universe")
	}
}
