package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cryptoscan/internal/notify"
	"cryptoscan/internal/provider"
	"cryptoscan/internal/symbols"
	"cryptoscan/pkg/model"
)

func newCheckCmd() *cobra.Command {
	var symbol string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Test exchange and Telegram connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(symbols.Normalize(symbol))
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "BTCUSDT", "symbol used for the data checks")
	return cmd
}

func runCheck(symbol string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.closer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	fmt.Printf("=== Connectivity check (%s) ===\n", a.provider.Name())
	failed := 0

	// 1. Exchange ping
	if a.cfg.Exchange.CSVDir == "" {
		fmt.Println("\n[1] Binance ping")
		bp := provider.NewBinanceProvider(a.cfg.Exchange.APIKey, a.cfg.Exchange.APISecret, 0)
		if a.cfg.Exchange.BaseURL != "" {
			bp.WithBaseURL(a.cfg.Exchange.BaseURL)
		}
		start := time.Now()
		if err := bp.Ping(ctx); err != nil {
			fmt.Printf("    ERROR: %v\n", err)
			failed++
		} else {
			fmt.Printf("    OK in %s\n", time.Since(start).Round(time.Millisecond))
		}
	} else {
		fmt.Printf("\n[1] Offline candles from %s\n", a.cfg.Exchange.CSVDir)
	}

	// 2. Candles
	tf := a.cfg.Scanner.Timeframes[0]
	fmt.Printf("\n[2] GetCandles %s %s\n", symbol, tf)
	start := time.Now()
	candles, err := a.provider.GetCandles(ctx, symbol, tf, a.cfg.Scanner.KlineLimit)
	if err != nil {
		fmt.Printf("    ERROR: %v\n", err)
		failed++
	} else {
		fmt.Printf("    OK: %d candles in %s\n", len(candles), time.Since(start).Round(time.Millisecond))
		if len(candles) > 0 {
			last := candles[len(candles)-1]
			fmt.Printf("    Last: %s O=%.6g H=%.6g L=%.6g C=%.6g V=%.6g\n",
				last.Time.UTC().Format("2006-01-02 15:04"), last.Open, last.High, last.Low, last.Close, last.Volume)
		}
	}

	// 3. 24h volume
	fmt.Printf("\n[3] QuoteVolume24h %s\n", symbol)
	vol, err := a.provider.QuoteVolume24h(ctx, symbol)
	if err != nil {
		fmt.Printf("    ERROR: %v\n", err)
		failed++
	} else {
		gate := "passes"
		if vol < a.cfg.Scanner.MinVolume {
			gate = "below"
		}
		fmt.Printf("    OK: %.0f (%s the %.0f floor)\n", vol, gate, a.cfg.Scanner.MinVolume)
	}

	// 4. Analysis
	if len(candles) > 0 {
		fmt.Printf("\n[4] Analysis %s %s\n", symbol, tf)
		res := a.analyzer.Analyze(model.Series{Symbol: symbol, Timeframe: tf, Candles: candles})
		fmt.Printf("    %d raw signals\n", len(res.Signals))
		if res.Alert != nil {
			fmt.Printf("    Best: %s (quality %d)\n", res.Alert.Signal.Type(), res.Alert.Quality())
		}
	}

	// 5. Telegram
	fmt.Println("\n[5] Telegram getMe")
	tg := notify.NewTelegram(a.cfg.Telegram.BotToken, a.logger)
	if !tg.Configured() {
		fmt.Println("    SKIP: no bot token")
	} else if bot, err := tg.GetMe(ctx); err != nil {
		fmt.Printf("    ERROR: %v\n", err)
		failed++
	} else {
		fmt.Printf("    OK: @%s (chat %q, signals chat %q)\n", bot.Username, a.cfg.Telegram.ChatID, a.cfg.Telegram.SignalsChatID)
	}

	fmt.Println("\n=== Done ===")
	if failed > 0 {
		return fmt.Errorf("%d checks failed", failed)
	}
	return nil
}
