package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"cryptoscan/internal/notify"
	"cryptoscan/internal/provider"
	"cryptoscan/internal/report"
	"cryptoscan/internal/scanner"
	"cryptoscan/pkg/model"
)

type scanFlags struct {
	symbols    string
	file       string
	universe   string
	timeframes string
	workers    int
	minQuality int
	format     string
	send       bool
	reportDir  string
}

func newScanCmd() *cobra.Command {
	f := &scanFlags{}
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one scan cycle and print the best alert per symbol",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.symbols, "symbols", "", "comma-separated symbols (BTC, ETHUSDT, ...)")
	cmd.Flags().StringVar(&f.file, "file", "", "symbol list file")
	cmd.Flags().StringVar(&f.universe, "universe", "", "symbol universe: default, majors, test")
	cmd.Flags().StringVar(&f.timeframes, "timeframes", "", "comma-separated timeframes (default from config)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "number of parallel workers")
	cmd.Flags().IntVar(&f.minQuality, "min-quality", -1, "minimum quality to admit an alert")
	cmd.Flags().StringVar(&f.format, "format", "table", "output format: table, json")
	cmd.Flags().BoolVar(&f.send, "send", false, "deliver admitted alerts to Telegram")
	cmd.Flags().StringVar(&f.reportDir, "report", "", "write a signal summary into this directory")
	return cmd
}

func runScan(cmd *cobra.Command, f *scanFlags) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.closer.Close()

	if f.timeframes != "" {
		a.cfg.Scanner.Timeframes = strings.Split(f.timeframes, ",")
		for _, tf := range a.cfg.Scanner.Timeframes {
			if !provider.ValidInterval(tf) {
				return fmt.Errorf("unknown timeframe %q", tf)
			}
		}
	}
	if f.workers > 0 {
		a.cfg.Scanner.Workers = f.workers
	}
	if cmd.Flags().Changed("min-quality") {
		a.cfg.Signals.MinQuality = f.minQuality
	}

	syms, err := a.resolveSymbols(f.symbols, f.file, f.universe)
	if err != nil {
		return fmt.Errorf("loading symbols: %w", err)
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	gate := a.gate(store)

	ctx, cancel := signalContext(a.logger)
	defer cancel()

	s := scanner.NewScanner(a.provider, a.analyzer, gate, a.cfg.ScanConfig(), a.logger)

	total := len(syms) * len(a.cfg.Scanner.Timeframes)
	var bar *progressbar.ProgressBar
	if f.format != "json" {
		fmt.Printf("Scanning %d symbols on %s...\n\n", len(syms), strings.Join(a.cfg.Scanner.Timeframes, ","))
		bar = progressbar.NewOptions(total,
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("Scanning"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]█[reset]",
				SaucerHead:    "[green]█[reset]",
				SaucerPadding: "░",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
		s.SetProgressCallback(func(scanned, total int) {
			// the volume gate can shrink the job list
			if total != bar.GetMax() {
				bar.ChangeMax(total)
			}
			bar.Set(scanned)
		})
	}

	result, err := s.Scan(ctx, syms)
	if err != nil {
		return fmt.Errorf("scanning: %w", err)
	}
	if bar != nil {
		bar.Finish()
		fmt.Println()
	}

	if f.reportDir != "" {
		path, err := report.WriteSummary(f.reportDir, result.Detected, time.Now())
		if err != nil {
			a.logger.Error().Err(err).Msg("signal summary failed")
		} else if path != "" {
			a.logger.Info().Str("path", path).Msg("signal summary written")
		}
	}

	if f.send {
		sent, err := sendAlerts(ctx, a, gate, result.Admitted)
		if err != nil {
			return err
		}
		a.logger.Info().Int("sent", sent).Int("admitted", len(result.Admitted)).Msg("delivery finished")
	}

	if f.format == "json" {
		return outputJSON(result)
	}
	return outputTable(result)
}

func sendAlerts(ctx context.Context, a *app, recorder notify.Recorder, alerts []model.Alert) (int, error) {
	tg := notify.NewTelegram(a.cfg.Telegram.BotToken, a.logger)
	if !tg.Configured() || a.cfg.Telegram.ChatID == "" {
		return 0, fmt.Errorf("telegram is not configured: set TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID")
	}
	d := notify.NewDispatcher(tg, recorder, a.cfg.DispatchConfig(), a.logger)
	return d.Dispatch(ctx, alerts)
}

func outputTable(result *model.ScanResult) error {
	if len(result.Best) == 0 {
		fmt.Println("No signals found.")
		fmt.Printf("Scanned %d pairs in %s (%d skipped)\n", result.Scanned, result.Duration.Round(time.Second), len(result.Skipped))
		return nil
	}

	admitted := make(map[string]bool, len(result.Admitted))
	for _, a := range result.Admitted {
		admitted[a.Symbol()] = true
	}

	fmt.Printf("Found %d alerts (%d admitted):\n\n", len(result.Best), len(result.Admitted))

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Symbol", "TF", "Signal", "Quality", "Entry", "Stop", "Target", "R/R", "Send"}),
	)
	for _, a := range result.Best {
		s := a.Signal
		send := "-"
		if admitted[a.Symbol()] {
			send = "yes"
		}
		table.Append([]string{
			s.Symbol,
			s.Timeframe,
			truncate(s.Type(), 34),
			fmt.Sprintf("%d", s.Quality),
			priceCell(s.Entry),
			priceCell(s.StopLoss),
			priceCell(s.TakeProfit),
			rrCell(s),
			send,
		})
	}
	table.Render()

	// Print details for top alerts
	fmt.Println("\n--- Alert Details ---")
	for i, a := range result.Best {
		if i >= 5 {
			break
		}
		fmt.Printf("\n[%s %s] %s (quality %d)\n", a.Symbol(), a.Signal.Timeframe, a.Signal.Type(), a.Quality())
		fmt.Printf("  %s\n", a.Signal.Description)
		if a.Trend != nil {
			fmt.Printf("  Trend: ADX %.1f %s %s\n", a.Trend.Value, a.Trend.Strength, a.Trend.Direction)
		}
		if len(a.Levels.Support) > 0 || len(a.Levels.Resistance) > 0 {
			fmt.Printf("  Support: %s | Resistance: %s\n", joinPrices(a.Levels.Support, 3), joinPrices(a.Levels.Resistance, 3))
		}
		for _, alt := range a.Alternatives {
			fmt.Printf("  + %s (%d)\n", alt.Type(), alt.Quality)
		}
	}

	if len(result.Skipped) > 0 {
		reasons := make(map[string]int)
		for _, sk := range result.Skipped {
			reasons[firstWord(sk.Reason)]++
		}
		keys := make([]string, 0, len(reasons))
		for k := range reasons {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Printf("\nSkipped %d pairs:", len(result.Skipped))
		for _, k := range keys {
			fmt.Printf(" %s=%d", k, reasons[k])
		}
		fmt.Println()
	}

	fmt.Printf("\nScanned %d pairs in %s\n", result.Scanned, result.Duration.Round(time.Second))
	return nil
}

func outputJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}

func priceCell(v float64) string {
	if v <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.6g", v)
}

func rrCell(s model.Signal) string {
	rr := s.RiskReward()
	if rr == 0 {
		return "-"
	}
	return fmt.Sprintf("1:%.2f", rr)
}

func joinPrices(vals []float64, n int) string {
	if len(vals) == 0 {
		return "-"
	}
	if len(vals) > n {
		vals = vals[:n]
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%.6g", v)
	}
	return strings.Join(parts, ", ")
}

func firstWord(s string) string {
	if i := strings.IndexAny(s, " :"); i > 0 {
		return s[:i]
	}
	return s
}
