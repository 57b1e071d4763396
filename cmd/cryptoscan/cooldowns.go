package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newCooldownsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cooldowns",
		Short: "List recently sent alerts and their remaining cooldown",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCooldowns()
		},
	}
}

func runCooldowns() error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.closer.Close()

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sent, err := store.All(ctx)
	if err != nil {
		return fmt.Errorf("reading cooldown store: %w", err)
	}
	if len(sent) == 0 {
		fmt.Println("No alerts sent yet.")
		return nil
	}

	keys := make([]string, 0, len(sent))
	for k := range sent {
		keys = append(keys, k)
	}
	// 최근 전송 순
	sort.Slice(keys, func(i, j int) bool { return sent[keys[i]].After(sent[keys[j]]) })

	now := time.Now()
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Key", "Last Sent", "Remaining"}),
	)
	for _, k := range keys {
		remaining := "-"
		if left := a.cfg.Signals.Cooldown - now.Sub(sent[k]); left > 0 {
			remaining = left.Round(time.Minute).String()
		}
		table.Append([]string{k, sent[k].Local().Format("2006-01-02 15:04"), remaining})
	}
	return table.Render()
}
