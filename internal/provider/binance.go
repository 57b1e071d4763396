package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/shopspring/decimal"

	"cryptoscan/internal/ratelimit"
	"cryptoscan/pkg/model"
)

// Binance error codes
const (
	codeTooManyRequests = -1003
	codeInvalidSymbol   = -1121
	maxKlineLimit       = 1000
)

// BinanceProvider reads spot klines and 24h tickers from Binance
type BinanceProvider struct {
	client  *binance.Client
	limiter *ratelimit.Limiter
}

// NewBinanceProvider creates a Binance provider. Public market data needs no
// key; spacing is the minimum delay between two requests.
func NewBinanceProvider(apiKey, apiSecret string, spacing time.Duration) *BinanceProvider {
	return &BinanceProvider{
		client:  binance.NewClient(apiKey, apiSecret),
		limiter: ratelimit.NewLimiter("binance", spacing),
	}
}

// WithBaseURL points the client at another REST endpoint
func (p *BinanceProvider) WithBaseURL(url string) *BinanceProvider {
	p.client.BaseURL = strings.TrimRight(url, "/")
	return p
}

// Name returns the provider name
func (p *BinanceProvider) Name() string {
	return "binance"
}

// IsAvailable always returns true (klines are public)
func (p *BinanceProvider) IsAvailable() bool {
	return true
}

// Ping checks connectivity with the exchange
func (p *BinanceProvider) Ping(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := p.client.NewPingService().Do(ctx); err != nil {
		return p.wrap(err)
	}
	return nil
}

// GetCandles fetches the most recent klines, oldest first
func (p *BinanceProvider) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error) {
	if !ValidInterval(interval) {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("unknown interval %q", interval)}
	}
	limit = min(max(limit, 1), maxKlineLimit)

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	klines, err := p.client.NewKlinesService().
		Symbol(strings.ToUpper(symbol)).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, p.wrap(err)
	}
	p.limiter.ResetBackoff()

	if len(klines) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s %s: %w", symbol, interval, ErrNoData)}
	}

	candles := make([]model.Candle, 0, len(klines))
	for _, k := range klines {
		c, err := klineToCandle(k)
		if err != nil {
			return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s %s: %w", symbol, interval, err)}
		}
		candles = append(candles, c)
	}
	return candles, nil
}

// QuoteVolume24h returns the 24h quote asset volume from the ticker
func (p *BinanceProvider) QuoteVolume24h(ctx context.Context, symbol string) (float64, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	stats, err := p.client.NewListPriceChangeStatsService().Symbol(strings.ToUpper(symbol)).Do(ctx)
	if err != nil {
		return 0, p.wrap(err)
	}
	p.limiter.ResetBackoff()

	if len(stats) == 0 {
		return 0, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s ticker: %w", symbol, ErrNoData)}
	}
	v, err := parseFloat(stats[0].QuoteVolume)
	if err != nil {
		return 0, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s quote volume: %w", symbol, err)}
	}
	return v, nil
}

// wrap maps client errors to ProviderError; network failures and rate limits
// are retryable, request errors are not
func (p *BinanceProvider) wrap(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case codeTooManyRequests:
			p.limiter.SignalRateLimited()
			return &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%w: %s", ErrRateLimited, apiErr.Message), Retryable: true}
		case codeInvalidSymbol:
			return &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%w: %s", ErrNoData, apiErr.Message)}
		}
		return &ProviderError{Provider: p.Name(), Err: err}
	}
	return &ProviderError{Provider: p.Name(), Err: err, Retryable: true}
}

func klineToCandle(k *binance.Kline) (model.Candle, error) {
	var c model.Candle
	var err error
	c.Time = time.UnixMilli(k.OpenTime).UTC()
	if c.Open, err = parseFloat(k.Open); err != nil {
		return c, fmt.Errorf("open: %w", err)
	}
	if c.High, err = parseFloat(k.High); err != nil {
		return c, fmt.Errorf("high: %w", err)
	}
	if c.Low, err = parseFloat(k.Low); err != nil {
		return c, fmt.Errorf("low: %w", err)
	}
	if c.Close, err = parseFloat(k.Close); err != nil {
		return c, fmt.Errorf("close: %w", err)
	}
	if c.Volume, err = parseFloat(k.Volume); err != nil {
		return c, fmt.Errorf("volume: %w", err)
	}
	return c, nil
}

// parseFloat reads an exchange decimal string
func parseFloat(s string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}
