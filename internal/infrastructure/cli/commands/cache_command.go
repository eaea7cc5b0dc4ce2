package commands

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/doeshing/aish/internal/app"
)

// NewCacheCommand creates the 'cache' command with its subcommands.
func NewCacheCommand(container *app.Container) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the resolved-command cache",
	}

	cacheCmd.AddCommand(
		newCacheListCommand(container),
		newCacheClearCommand(container),
		newCacheStatsCommand(container),
	)
	return cacheCmd
}

func newCacheListCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached command sequences",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if container.CacheStore == nil {
				return fmt.Errorf(ErrCacheStoreUnavailable)
			}
			entries := container.CacheStore.Entries()
			if len(entries) == 0 {
				fmt.Fprintln(out, MsgNoCachedCommands)
				return nil
			}
			for _, entry := range entries {
				fmt.Fprintf(out, "%s  inserted %s, last hit %s\n    %s\n",
					entry.Key,
					humanize.Time(entry.InsertedAt),
					humanize.Time(entry.LastAccessedAt),
					strings.Join(entry.Commands, " && "))
			}
			return nil
		},
	}
}

func newCacheClearCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop every cached entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.CacheStore == nil {
				return fmt.Errorf(ErrCacheStoreUnavailable)
			}
			container.CacheStore.Clear()
			return nil
		},
	}
}

func newCacheStatsCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache occupancy and settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if container.CacheStore == nil {
				return fmt.Errorf(ErrCacheStoreUnavailable)
			}
			settings := container.CacheStore.Settings()
			fmt.Fprintf(out, "Entries: %d / %d\nTTL: %s\n",
				container.CacheStore.Len(),
				settings.MaxEntries,
				settings.TTL)
			return nil
		},
	}
}
