package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/aish/internal/app"
	"github.com/doeshing/aish/internal/domain"
)

// NewWorkflowCommand creates the 'workflow' command with its subcommands.
func NewWorkflowCommand(container *app.Container) *cobra.Command {
	workflowCmd := &cobra.Command{
		Use:   "workflow",
		Short: "List and run multi-step workflows",
	}

	workflowCmd.AddCommand(
		newWorkflowListCommand(container),
		newWorkflowRunCommand(container),
	)
	return workflowCmd
}

func newWorkflowListCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			defs := container.Engine.Definitions()
			if len(defs) == 0 {
				fmt.Fprintln(out, MsgNoWorkflowsDefined)
				return nil
			}
			for _, def := range defs {
				fmt.Fprintf(out, "%-16s %s (%d steps", def.ID, def.Name, len(def.Steps))
				if len(def.Parameters) > 0 {
					fmt.Fprintf(out, ", parameters: %s", strings.Join(def.Parameters, ", "))
				}
				fmt.Fprintln(out, ")")
			}
			return nil
		},
	}
}

func newWorkflowRunCommand(container *app.Container) *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "run <id>",
		Short: "Run a workflow by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseParams(params)
			if err != nil {
				return err
			}
			run, err := container.Engine.Run(cmd.Context(), args[0], values)
			if err != nil {
				return err
			}
			printWorkflowRun(cmd.OutOrStdout(), run)
			if run.Status == domain.WorkflowFailed {
				return fmt.Errorf("workflow %s failed", args[0])
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&params, "param", nil, "Workflow parameter as key=value (repeatable)")
	return cmd
}

func parseParams(pairs []string) (map[string]interface{}, error) {
	values := map[string]interface{}{}
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --param %q, expected key=value", pair)
		}
		values[key] = value
	}
	return values, nil
}

func printWorkflowRun(out io.Writer, run domain.WorkflowExecution) {
	fmt.Fprintf(out, "Workflow %s: %s\n", run.Definition.ID, run.Status)
	for _, result := range run.Results {
		marker := "ok"
		if !result.Success {
			marker = "failed"
		}
		if result.Rollback {
			fmt.Fprintf(out, "  rollback %-8s %s\n", marker, result.Output)
			continue
		}
		fmt.Fprintf(out, "  step %-12s %s\n", result.StepID, marker)
		if result.Error != "" {
			fmt.Fprintf(out, "    %s\n", result.Error)
		}
	}
}
