package provider

import (
	"context"
	"sync"
	"time"

	"cryptoscan/pkg/model"
)

type cachedCandles struct {
	candles []model.Candle
	at      time.Time
}

type cachedVolume struct {
	value float64
	at    time.Time
}

// CachingProvider wraps a Provider with a TTL cache. The inspect command and
// repeated scans within one bar reuse the same fetch.
type CachingProvider struct {
	inner   Provider
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
	candles map[string]cachedCandles
	volumes map[string]cachedVolume
}

// NewCachingProvider creates a caching wrapper
func NewCachingProvider(inner Provider, ttl time.Duration) *CachingProvider {
	return &CachingProvider{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		candles: make(map[string]cachedCandles),
		volumes: make(map[string]cachedVolume),
	}
}

func (p *CachingProvider) Name() string      { return p.inner.Name() }
func (p *CachingProvider) IsAvailable() bool { return p.inner.IsAvailable() }

// GetCandles serves from cache when a fresh entry holds at least limit candles
func (p *CachingProvider) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error) {
	key := symbol + "|" + interval

	p.mu.Lock()
	if e, ok := p.candles[key]; ok && p.now().Sub(e.at) < p.ttl && len(e.candles) >= limit {
		p.mu.Unlock()
		return tail(e.candles, limit), nil
	}
	p.mu.Unlock()

	candles, err := p.inner.GetCandles(ctx, symbol, interval, limit)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.candles[key] = cachedCandles{candles: candles, at: p.now()}
	p.mu.Unlock()

	return tail(candles, limit), nil
}

// QuoteVolume24h caches the ticker volume per symbol
func (p *CachingProvider) QuoteVolume24h(ctx context.Context, symbol string) (float64, error) {
	p.mu.Lock()
	if e, ok := p.volumes[symbol]; ok && p.now().Sub(e.at) < p.ttl {
		p.mu.Unlock()
		return e.value, nil
	}
	p.mu.Unlock()

	v, err := p.inner.QuoteVolume24h(ctx, symbol)
	if err != nil {
		return 0, err
	}

	p.mu.Lock()
	p.volumes[symbol] = cachedVolume{value: v, at: p.now()}
	p.mu.Unlock()
	return v, nil
}

func tail(candles []model.Candle, n int) []model.Candle {
	if n > 0 && len(candles) > n {
		return candles[len(candles)-n:]
	}
	return candles
}
