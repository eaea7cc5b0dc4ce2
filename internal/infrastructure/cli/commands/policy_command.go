package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/aish/internal/app"
	"github.com/doeshing/aish/internal/domain"
	"github.com/doeshing/aish/internal/infrastructure/security"
)

// NewPolicyCommand creates the 'policy' command with its subcommands.
func NewPolicyCommand(container *app.Container) *cobra.Command {
	policyCmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect and test the validation policy",
	}

	policyCmd.AddCommand(
		newPolicyShowCommand(),
		newPolicyTestCommand(container),
	)
	return policyCmd
}

func newPolicyShowCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Summarize the active policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			doc, err := security.LoadPolicyDocument(path)
			if err != nil {
				return fmt.Errorf("load policy: %w", err)
			}
			fmt.Fprintf(out, "Policy file: %s\n", security.ResolvePolicyPath(path))
			fmt.Fprintf(out, "Danger patterns: %d\n", len(doc.Rules.DangerPatterns))
			fmt.Fprintf(out, "Traversal patterns: %d\n", len(doc.Rules.TraversalPatterns))
			fmt.Fprintf(out, "Allowed commands: %d\n", len(doc.Rules.AllowedCommands))
			fmt.Fprintf(out, "Denied paths: %s\n", strings.Join(doc.Rules.DeniedPaths, ", "))
			fmt.Fprintf(out, "Max command length: %d\n", doc.Rules.MaxCommandLength)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "file", "", "Policy file to inspect (default active policy)")
	return cmd
}

func newPolicyTestCommand(container *app.Container) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "test [command]",
		Short: "Run a command through validation without executing",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			command := strings.Join(args, " ")
			result := container.Validator.Validate(command, domain.ValidateOptions{Strict: strict})

			fmt.Fprintf(out, "Risk: %s\n", result.RiskLevel)
			fmt.Fprintf(out, "Valid: %t\n", result.IsValid)
			fmt.Fprintf(out, "Blocked: %t\n", result.Blocked)
			printValidation(out, result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Treat unknown base commands as errors")
	return cmd
}
