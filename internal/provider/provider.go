package provider

import (
	"context"
	"errors"

	"cryptoscan/pkg/model"
)

// Sentinel errors wrapped by ProviderError
var (
	ErrNoData      = errors.New("no data available")
	ErrRateLimited = errors.New("rate limited")
)

// Provider defines the interface for market data providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// GetCandles fetches up to limit candles for symbol at interval (e.g. "4h"),
	// oldest first
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error)

	// QuoteVolume24h returns the rolling 24h traded volume in the quote asset
	QuoteVolume24h(ctx context.Context, symbol string) (float64, error)

	// IsAvailable reports whether the provider can serve requests
	IsAvailable() bool
}

// ProviderError represents a provider-specific error
type ProviderError struct {
	Provider  string
	Err       error
	Retryable bool
}

func (e *ProviderError) Error() string {
	return e.Provider + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether another provider (or a later attempt) may succeed
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// FallbackProvider tries multiple providers in order
type FallbackProvider struct {
	providers []Provider
}

// NewFallbackProvider creates a new fallback provider
func NewFallbackProvider(providers ...Provider) *FallbackProvider {
	available := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p.IsAvailable() {
			available = append(available, p)
		}
	}
	return &FallbackProvider{providers: available}
}

// Name returns the combined provider name
func (f *FallbackProvider) Name() string {
	return "fallback"
}

// GetCandles tries each provider until one succeeds; a non-retryable error
// stops the chain
func (f *FallbackProvider) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error) {
	lastErr := error(&ProviderError{Provider: f.Name(), Err: errors.New("no providers available")})
	for _, p := range f.providers {
		data, err := p.GetCandles(ctx, symbol, interval, limit)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			break
		}
	}
	return nil, lastErr
}

// QuoteVolume24h tries each provider in order
func (f *FallbackProvider) QuoteVolume24h(ctx context.Context, symbol string) (float64, error) {
	lastErr := error(&ProviderError{Provider: f.Name(), Err: errors.New("no providers available")})
	for _, p := range f.providers {
		v, err := p.QuoteVolume24h(ctx, symbol)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			break
		}
	}
	return 0, lastErr
}

// IsAvailable returns true if any provider is available
func (f *FallbackProvider) IsAvailable() bool {
	return len(f.providers) > 0
}

// Providers returns the list of underlying providers
func (f *FallbackProvider) Providers() []Provider {
	return f.providers
}
