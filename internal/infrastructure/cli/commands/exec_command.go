package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/aish/internal/app"
	"github.com/doeshing/aish/internal/domain"
)

// NewExecCommand creates the 'exec' command: validated direct execution of a
// single command string.
func NewExecCommand(container *app.Container) *cobra.Command {
	var (
		strict    bool
		checkOnly bool
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "exec [command]",
		Short: "Validate and execute a command directly",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			command := strings.Join(args, " ")

			cfg, err := container.ConfigProvider.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			// The pre-execution screen honors the configured security
			// settings. Disabling security skips this screen only; the
			// executor's own validation still runs before spawn. An
			// explicit --check always screens.
			if cfg.Security.Enabled || checkOnly {
				screen := container.Validator.Validate(command, domain.ValidateOptions{
					Strict:      strict || cfg.Security.Strict,
					AllowHidden: cfg.Security.AllowHidden,
				})
				printValidation(out, screen)
				if screen.Blocked || !screen.IsValid {
					return fmt.Errorf("command rejected by validation")
				}
			}
			if checkOnly {
				fmt.Fprintln(out, "Command passed validation.")
				return nil
			}

			result := container.Executor.Execute(cmd.Context(), command, domain.ExecuteOptions{
				Timeout: timeout,
				Strict:  strict || cfg.Security.Strict,
			})
			return printResult(out, result)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Treat unknown base commands as errors")
	cmd.Flags().BoolVar(&checkOnly, "check", false, "Validate without executing")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Override execution timeout")

	return cmd
}

func printValidation(out io.Writer, result domain.ValidationResult) {
	for _, err := range result.Errors {
		fmt.Fprintf(out, "error: %s\n", err)
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(out, "warning: %s\n", warning)
	}
	for _, suggestion := range result.Suggestions {
		fmt.Fprintf(out, "try: %s\n", suggestion)
	}
}

func printResult(out io.Writer, result domain.ExecutionResult) error {
	if result.Stdout != "" {
		fmt.Fprintln(out, strings.TrimRight(result.Stdout, "\n"))
	}
	if result.Stderr != "" {
		fmt.Fprintln(out, strings.TrimRight(result.Stderr, "\n"))
	}
	switch {
	case result.Success:
		return nil
	case result.TimedOut:
		return fmt.Errorf("command timed out")
	case result.Err != nil:
		return result.Err
	default:
		return fmt.Errorf("command exited with code %d", result.ExitCode)
	}
}
