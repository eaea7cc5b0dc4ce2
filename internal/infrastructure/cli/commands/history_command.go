package commands

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/doeshing/aish/internal/app"
	"github.com/doeshing/aish/internal/domain"
)

// NewHistoryCommand creates the 'history' command with its subcommands.
func NewHistoryCommand(container *app.Container) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect persistent execution history",
	}

	historyCmd.AddCommand(
		newHistoryListCommand(container),
		newHistoryClearCommand(container),
		newHistoryExportCommand(container),
		newHistoryPruneCommand(container),
	)
	return historyCmd
}

func newHistoryListCommand(container *app.Container) *cobra.Command {
	var (
		limit  int
		search string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent history entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listHistoryEntries(cmd.OutOrStdout(), container, limit, search)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", domain.DefaultHistoryLimit, "Max entries to show")
	cmd.Flags().StringVar(&search, "search", "", "Filter by keyword in prompt or command")
	return cmd
}

func newHistoryClearCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all history entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.HistoryStore == nil {
				return fmt.Errorf(ErrHistoryStoreUnavailable)
			}
			return container.HistoryStore.Clear()
		},
	}
}

func newHistoryExportCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Export history to a JSONL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.HistoryStore == nil {
				return fmt.Errorf(ErrHistoryStoreUnavailable)
			}
			if err := container.HistoryStore.ExportJSON(args[0]); err != nil {
				return fmt.Errorf("export history to %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported history to %s\n", args[0])
			return nil
		},
	}
}

func newHistoryPruneCommand(container *app.Container) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete history older than N days",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.HistoryStore == nil {
				return fmt.Errorf(ErrHistoryStoreUnavailable)
			}
			if days <= 0 {
				return fmt.Errorf(ErrInvalidPruneDays)
			}
			if err := container.HistoryStore.PruneOlderThan(days); err != nil {
				return fmt.Errorf("prune history: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Retained last %d days of history.\n", days)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "Days of history to retain")
	return cmd
}

func listHistoryEntries(out io.Writer, container *app.Container, limit int, search string) error {
	if container.HistoryStore == nil {
		return fmt.Errorf(ErrHistoryStoreUnavailable)
	}

	records, err := container.HistoryStore.Records(limit, search)
	if err != nil {
		return fmt.Errorf("retrieve history records: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return nil
	}

	for _, rec := range records {
		status := "skipped"
		if rec.Executed {
			status = "failed"
			if rec.Success {
				status = "ok"
			}
		}
		fmt.Fprintf(out, "%-14s %-9s %-8s %-8s %s\n",
			humanize.Time(rec.Timestamp),
			rec.Source,
			rec.RiskLevel,
			status,
			rec.Command)
	}
	return nil
}
