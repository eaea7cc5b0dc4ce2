// Package cli wires the cobra command tree.
package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/aish/internal/app"
	"github.com/doeshing/aish/internal/domain"
	"github.com/doeshing/aish/internal/infrastructure/cli/commands"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// NewRootCmd wires the cobra root command.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	container, err := app.BuildContainer(ctx, opts.Verbose)
	if err != nil {
		return nil, err
	}

	runCmd := newRunCommand(container)

	root := &cobra.Command{
		Use:   "aish [request]",
		Short: "aish - command safety and execution shell",
		Long:  "aish routes requests to direct execution, cache hits, or an assistant, with validation in front of every command.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			runCmd.SetArgs(args)
			return runCmd.ExecuteContext(cmd.Context())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(runCmd)
	root.AddCommand(commands.NewExecCommand(container))
	root.AddCommand(commands.NewWorkflowCommand(container))
	root.AddCommand(commands.NewHistoryCommand(container))
	root.AddCommand(commands.NewCacheCommand(container))
	root.AddCommand(commands.NewPolicyCommand(container))
	root.AddCommand(commands.NewVersionCommand())
	return root, nil
}

func newRunCommand(container *app.Container) *cobra.Command {
	var (
		previewOnly bool
		autoExecute bool
		debug       bool
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run [request]",
		Short: "Route a request through validation and execution",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			req := domain.Request{
				Context:     ctx,
				Input:       strings.Join(args, " "),
				AutoExecute: autoExecute,
				PreviewOnly: previewOnly,
				Debug:       debug,
			}
			resp, err := container.RequestService.Run(req)
			RenderResponse(cmd.OutOrStdout(), resp)
			return err
		},
	}

	cmd.Flags().BoolVarP(&previewOnly, "preview-only", "p", false, "Only preview the plan, never execute")
	cmd.Flags().BoolVarP(&autoExecute, "auto-execute", "a", false, "Execute the resolved commands without confirmation")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable verbose logging")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "Override request timeout")

	return cmd
}
