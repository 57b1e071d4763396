package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"cryptoscan/internal/analyzer"
	"cryptoscan/internal/config"
	"cryptoscan/internal/cooldown"
	"cryptoscan/internal/indicator"
	"cryptoscan/internal/levels"
	"cryptoscan/internal/logging"
	"cryptoscan/internal/provider"
	sig "cryptoscan/internal/signal"
	"cryptoscan/internal/symbols"
)

var (
	cfgFile  string
	envFile  string
	logLevel string
	verbose  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cryptoscan",
		Short: "Crypto technical signal scanner with Telegram alerts",
		Long: `Cryptoscan fetches candles for USDT pairs, runs ten signal modules
(RSI, EMA cross, MACD, Bollinger, candlestick patterns, Ichimoku,
support/resistance, Fibonacci, volatility, trend) and reports the best
alert per symbol.

Examples:
  cryptoscan scan --timeframes 1h,4h
  cryptoscan scan --symbols BTC,ETH --format json
  cryptoscan run --addr :8080
  cryptoscan inspect BTCUSDT --timeframe 4h`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file with API keys")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "debug logging")

	rootCmd.AddCommand(newScanCmd(), newRunCmd(), newInspectCmd(), newCheckCmd(), newCooldownsCmd(), newModulesCmd(), newUniversesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds everything built from the configuration
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	closer   io.Closer
	provider provider.Provider
	analyzer *analyzer.Analyzer
}

func setup() (*app, error) {
	cfg, err := config.Load(cfgFile, envFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, closer := logging.New(cfg.Log)

	p, err := createProvider(cfg, logger)
	if err != nil {
		closer.Close()
		return nil, err
	}

	modules, err := sig.Select(cfg.Signals.Modules, cfg.ModuleConfig(), logger)
	if err != nil {
		closer.Close()
		return nil, err
	}
	engine := indicator.NewEngine(cfg.IndicatorParams(), logger)
	extractor := levels.NewExtractor(cfg.ExtractorConfig(), logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		closer:   closer,
		provider: p,
		analyzer: analyzer.New(engine, modules, extractor, logger),
	}, nil
}

// createProvider builds the market data chain: offline CSV when csv_dir is
// set, otherwise Binance plus its mirrors; always behind the candle cache
func createProvider(cfg *config.Config, logger zerolog.Logger) (provider.Provider, error) {
	ex := cfg.Exchange
	var providers []provider.Provider
	if ex.CSVDir != "" {
		providers = append(providers, provider.NewCSVProvider(ex.CSVDir))
	} else {
		primary := provider.NewBinanceProvider(ex.APIKey, ex.APISecret, ex.RequestSpacing)
		if ex.BaseURL != "" {
			primary.WithBaseURL(ex.BaseURL)
		}
		providers = append(providers, primary)
		for _, url := range ex.MirrorURLs {
			providers = append(providers, provider.NewBinanceProvider(ex.APIKey, ex.APISecret, ex.RequestSpacing).WithBaseURL(url))
		}
	}

	fallback := provider.NewFallbackProvider(providers...)
	if !fallback.IsAvailable() {
		return nil, fmt.Errorf("no available data providers (csv_dir %q)", ex.CSVDir)
	}
	names := make([]string, 0, len(providers))
	for _, p := range fallback.Providers() {
		names = append(names, p.Name())
	}
	logger.Debug().Strs("providers", names).Dur("cache_ttl", ex.CacheTTL).Msg("market data chain")
	if ex.CacheTTL <= 0 {
		return fallback, nil
	}
	return provider.NewCachingProvider(fallback, ex.CacheTTL), nil
}

func (a *app) openStore() (cooldown.Store, error) {
	store, err := cooldown.Open(a.cfg.Store.Driver, a.cfg.Store.Path, a.logger)
	if err != nil {
		return nil, fmt.Errorf("opening cooldown store: %w", err)
	}
	return store, nil
}

func (a *app) gate(store cooldown.Store) *analyzer.Gate {
	return analyzer.NewGate(store, a.cfg.Signals.MinQuality, a.cfg.Signals.Cooldown, a.logger)
}

// resolveSymbols applies CLI overrides on top of the scanner section
func (a *app) resolveSymbols(list, file, universe string) ([]string, error) {
	if list == "" {
		list = strings.Join(a.cfg.Scanner.Symbols, ",")
	}
	if file == "" {
		file = a.cfg.Scanner.SymbolFile
	}
	if universe == "" {
		universe = a.cfg.Scanner.Universe
	}
	syms, err := symbols.Resolve(list, file, symbols.Universe(universe))
	if err != nil {
		return nil, err
	}
	if len(syms) == 0 {
		return nil, fmt.Errorf("no symbols to scan")
	}
	return syms, nil
}

// signalContext is cancelled on SIGINT/SIGTERM
func signalContext(logger zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case s := <-sigChan:
			logger.Info().Str("signal", s.String()).Msg("interrupted, stopping")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}
