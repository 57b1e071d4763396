package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cryptoscan/internal/daemon"
	"cryptoscan/internal/notify"
	"cryptoscan/internal/scanner"
	sig "cryptoscan/internal/signal"
	"cryptoscan/internal/web"
)

type runFlags struct {
	symbols  string
	file     string
	universe string
	schedule string
	addr     string
	dataDir  string
	dryRun   bool
}

func newRunCmd() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scan on a schedule and deliver alerts to Telegram",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(f)
		},
	}
	cmd.Flags().StringVar(&f.symbols, "symbols", "", "comma-separated symbols")
	cmd.Flags().StringVar(&f.file, "file", "", "symbol list file")
	cmd.Flags().StringVar(&f.universe, "universe", "", "symbol universe: default, majors, test")
	cmd.Flags().StringVar(&f.schedule, "schedule", "", "cron spec, e.g. \"@every 90m\" (default from config)")
	cmd.Flags().StringVar(&f.addr, "addr", "", "status server address, e.g. :8080 (default from config)")
	cmd.Flags().StringVar(&f.dataDir, "data-dir", "data", "directory for daily stats")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "scan without sending alerts")
	return cmd
}

func runDaemon(f *runFlags) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.closer.Close()

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

	var dispatcher daemon.Dispatcher
	if !f.dryRun {
		tg := notify.NewTelegram(a.cfg.Telegram.BotToken, a.logger)
		if !tg.Configured() || a.cfg.Telegram.ChatID == "" {
			return fmt.Errorf("telegram is not configured: set TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID or use --dry-run")
		}
		checkCtx, checkCancel := context.WithTimeout(ctx, 15*time.Second)
		bot, err := tg.GetMe(checkCtx)
		checkCancel()
		if err != nil {
			return fmt.Errorf("telegram bot check: %w", err)
		}
		a.logger.Info().Str("bot", bot.Username).Msg("telegram bot connected")
		dispatcher = notify.NewDispatcher(tg, gate, a.cfg.DispatchConfig(), a.logger)
	}

	cfg := daemon.DefaultConfig()
	cfg.Symbols = syms
	cfg.Schedule = a.cfg.Scanner.Schedule
	if f.schedule != "" {
		cfg.Schedule = f.schedule
	}
	cfg.WebAddr = a.cfg.Web.Addr
	if f.addr != "" {
		cfg.WebAddr = f.addr
	}
	cfg.MetricsAddr = a.cfg.Web.MetricsAddr
	cfg.DataDir = f.dataDir

	results := &web.Results{}
	var server *web.Server
	if cfg.WebAddr != "" {
		var modules []sig.Info
		for _, m := range a.analyzer.Modules() {
			modules = append(modules, sig.Info{Name: m.Name(), Description: m.Description()})
		}
		server = web.NewServer(results, s, modules, a.cfg.Scanner.Timeframes[0], a.logger)
	}

	return daemon.NewDaemon(cfg, s, dispatcher, results, server, a.logger).Run(ctx)
}
