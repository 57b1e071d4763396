package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"cryptoscan/internal/analyzer"
	"cryptoscan/internal/indicator"
	"cryptoscan/internal/levels"
	"cryptoscan/internal/report"
	"cryptoscan/internal/scanner"
	sig "cryptoscan/internal/signal"
	"cryptoscan/internal/symbols"
	"cryptoscan/pkg/model"
)

type inspectFlags struct {
	timeframe string
	bars      int
	format    string
	reportDir string
}

func newInspectCmd() *cobra.Command {
	f := &inspectFlags{}
	cmd := &cobra.Command{
		Use:   "inspect SYMBOL",
		Short: "Show indicators, levels and every raw signal for one pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args[0], f)
		},
	}
	cmd.Flags().StringVar(&f.timeframe, "timeframe", "", "timeframe (default: first configured)")
	cmd.Flags().IntVar(&f.bars, "bars", 5, "number of recent bars to print")
	cmd.Flags().StringVar(&f.format, "format", "table", "output format: table, json")
	cmd.Flags().StringVar(&f.reportDir, "report", "", "write RSI extremes and a signal summary into this directory")
	return cmd
}

func runInspect(symbol string, f *inspectFlags) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.closer.Close()

	symbol = symbols.Normalize(symbol)
	tf := f.timeframe
	if tf == "" {
		tf = a.cfg.Scanner.Timeframes[0]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	s := scanner.NewScanner(a.provider, a.analyzer, nil, a.cfg.ScanConfig(), a.logger)
	res, err := s.Analyze(ctx, symbol, tf)
	if err != nil {
		return fmt.Errorf("analyzing %s %s: %w", symbol, tf, err)
	}
	lv := levels.NewExtractor(a.cfg.ExtractorConfig(), a.logger).Find(res.Frame.Candles)
	extremes := sig.DivergenceExtremes(res.Frame)

	if f.reportDir != "" {
		if err := writeInspectReport(f.reportDir, res, extremes); err != nil {
			a.logger.Error().Err(err).Msg("inspect report failed")
		}
	}

	if f.format == "json" {
		return outputJSON(struct {
			Symbol    string          `json:"symbol"`
			Timeframe string          `json:"timeframe"`
			Bars      int             `json:"bars"`
			Levels    model.Levels    `json:"levels"`
			Trend     *model.ADXTrend `json:"adx_trend,omitempty"`
			Extremes  *sig.Extremes   `json:"rsi_extremes,omitempty"`
			Signals   []model.Signal  `json:"signals"`
			Alert     *model.Alert    `json:"alert,omitempty"`
		}{symbol, tf, res.Frame.Len(), lv, sig.TrendState(res.Frame), extremes, res.Signals, res.Alert})
	}

	printSnapshot(res.Frame, f.bars)

	fmt.Printf("\nSupport: %s\nResistance: %s\n", joinPrices(lv.Support, 5), joinPrices(lv.Resistance, 5))
	if t := sig.TrendState(res.Frame); t != nil {
		fmt.Printf("Trend: ADX %.1f %s %s\n", t.Value, t.Strength, t.Direction)
	}

	fmt.Printf("\nRaw signals (%d):\n", len(res.Signals))
	if len(res.Signals) > 0 {
		sorted := append([]model.Signal(nil), res.Signals...)
		analyzer.SortByQuality(sorted)
		table := tablewriter.NewTable(os.Stdout,
			tablewriter.WithHeader([]string{"Module", "Signal", "Quality", "Entry", "Stop", "Target", "R/R"}),
		)
		for _, s := range sorted {
			table.Append([]string{
				s.Module,
				truncate(s.Type(), 34),
				strconv.Itoa(s.Quality),
				priceCell(s.Entry),
				priceCell(s.StopLoss),
				priceCell(s.TakeProfit),
				rrCell(s),
			})
		}
		table.Render()
	}

	if res.Alert != nil {
		fmt.Printf("\nBest: %s (quality %d)\n  %s\n", res.Alert.Signal.Type(), res.Alert.Quality(), res.Alert.Signal.Description)
	} else {
		fmt.Println("\nNo alert.")
	}

	fmt.Println()
	series := model.Series{Symbol: symbol, Timeframe: tf, Candles: res.Frame.Candles}
	return report.Extremes(os.Stdout, series, extremes)
}

func printSnapshot(f *indicator.Frame, bars int) {
	n := f.Len()
	if bars > n {
		bars = n
	}
	fmt.Printf("%s %s, %d bars\n\n", f.Symbol, f.Timeframe, n)
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Time", "Close", "RSI", "EMA S", "EMA L", "MACD H", "BB Up", "BB Low", "ADX", "PSAR"}),
	)
	for i := n - bars; i < n; i++ {
		table.Append([]string{
			f.Candles[i].Time.UTC().Format("01-02 15:04"),
			num(f.Close[i], "%.6g"),
			num(f.RSI[i], "%.1f"),
			num(f.EMAShort[i], "%.6g"),
			num(f.EMALong[i], "%.6g"),
			num(f.MACDHist[i], "%.4g"),
			num(f.BBUpper[i], "%.6g"),
			num(f.BBLower[i], "%.6g"),
			num(f.ADX[i], "%.1f"),
			num(f.PSAR[i], "%.6g"),
		})
	}
	table.Render()
}

func num(v float64, format string) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf(format, v)
}

func writeInspectReport(dir string, res *analyzer.Analysis, ex *sig.Extremes) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	fr := res.Frame
	path := filepath.Join(dir, fmt.Sprintf("%s_%s_rsi_extremes.txt", fr.Symbol, fr.Timeframe))
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	series := model.Series{Symbol: fr.Symbol, Timeframe: fr.Timeframe, Candles: fr.Candles}
	if err := report.Extremes(out, series, ex); err != nil {
		return err
	}
	_, err = report.WriteSummary(dir, res.Signals, time.Now())
	return err
}

func newModulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List signal modules in evaluation order",
		RunE: func(cmd *cobra.Command, args []string) error {
			table := tablewriter.NewTable(os.Stdout,
				tablewriter.WithHeader([]string{"#", "Module", "Description"}),
			)
			for i, info := range sig.Describe(sig.DefaultConfig(), zerolog.Nop()) {
				table.Append([]string{strconv.Itoa(i + 1), info.Name, info.Description})
			}
			return table.Render()
		},
	}
}

func newUniversesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "universes",
		Short: "List predefined symbol universes",
		RunE: func(cmd *cobra.Command, args []string) error {
			table := tablewriter.NewTable(os.Stdout,
				tablewriter.WithHeader([]string{"Universe", "Symbols", "Description"}),
			)
			for _, u := range symbols.AvailableUniverses() {
				table.Append([]string{string(u.ID), strconv.Itoa(u.Count), u.Description})
			}
			return table.Render()
		},
	}
}
