package signal

import (
	"fmt"
	"strings"

	"cryptoscan/internal/indicator"
	"cryptoscan/pkg/model"
)

// VolatilityModule raises an advisory alert when ATR spikes on one instrument
type VolatilityModule struct {
	cfg Config
}

// NewVolatilityModule creates the volatility module
func NewVolatilityModule(cfg Config) *VolatilityModule {
	return &VolatilityModule{cfg: cfg}
}

// Name returns the module name
func (m *VolatilityModule) Name() string { return "volatility" }

// Description returns the module description
func (m *VolatilityModule) Description() string {
	return fmt.Sprintf("Abnormal volatility on %s: ATR(%d) above %gx its %d-bar average",
		m.cfg.VolatilitySymbol, m.cfg.ATRPeriod, m.cfg.ATRMultiplier, m.cfg.ATRAverageBars)
}

// Check only evaluates the configured symbol. The alert carries no stop or target.
func (m *VolatilityModule) Check(f *indicator.Frame) []model.Signal {
	if !strings.EqualFold(f.Symbol, m.cfg.VolatilitySymbol) {
		return nil
	}
	if f.Len() < m.cfg.ATRPeriod+1 || f.Len() < m.cfg.ATRAverageBars {
		return nil
	}
	atr, err := indicator.ATR(f.High, f.Low, f.Close, m.cfg.ATRPeriod)
	if err != nil {
		return nil
	}
	last := indicator.Back(atr, 1)
	avg := meanLast(atr, m.cfg.ATRAverageBars)
	if !indicator.Valid(last, avg) || !(last > m.cfg.ATRMultiplier*avg) {
		return nil
	}

	asset := BaseAsset(f.Symbol)
	kind := model.Kind{Category: model.CategoryVolatility, Direction: model.Neutral, Variant: asset}
	return []model.Signal{newSignal(f, m.Name(), kind, f.LastClose(), 0, 0, 90,
		fmt.Sprintf("Abnormal volatility on %s. ATR: %.2f, average ATR: %.2f. Trade carefully!", asset, last, avg))}
}

var quoteAssets = []string{"USDT", "BUSD", "USDC", "FDUSD", "TUSD", "USD", "BTC", "ETH"}

// BaseAsset strips the quote asset from a trading pair (BTCUSDT -> BTC)
func BaseAsset(symbol string) string {
	s := strings.ToUpper(symbol)
	for _, q := range quoteAssets {
		if len(s) > len(q) && strings.HasSuffix(s, q) {
			return strings.TrimSuffix(s, q)
		}
	}
	return s
}
