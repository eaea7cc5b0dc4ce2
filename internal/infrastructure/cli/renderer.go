package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/doeshing/aish/internal/domain"
)

// RenderResponse prints the response in a friendly, ASCII-only format.
func RenderResponse(out io.Writer, resp domain.Response) {
	if resp.Plan == domain.PlanRejected {
		fmt.Fprintln(out, "Command rejected.")
		renderValidation(out, resp.Validation)
		return
	}

	fmt.Fprintf(out, "Plan: %s\n", resp.Plan)
	if resp.FromCache {
		fmt.Fprintln(out, "Note: result served from cache")
	}
	if resp.Description != "" {
		fmt.Fprintf(out, "Description: %s\n", resp.Description)
	}
	if resp.Explanation != "" {
		fmt.Fprintf(out, "Explanation: %s\n", resp.Explanation)
	}

	if len(resp.Commands) > 0 {
		fmt.Fprintln(out, "\nCommands:")
		for _, command := range resp.Commands {
			fmt.Fprintf(out, "  %s\n", command)
		}
	}

	renderValidation(out, resp.Validation)

	if !resp.Executed {
		fmt.Fprintln(out, "\nNot executed. Re-run with --auto-execute to run the commands above.")
		return
	}

	for i, result := range resp.Results {
		switch {
		case result.Success:
			fmt.Fprintf(out, "\n[%d] ok (%d ms)\n", i+1, result.DurationMS)
		case result.TimedOut:
			fmt.Fprintf(out, "\n[%d] timed out\n", i+1)
		case result.Err != nil:
			fmt.Fprintf(out, "\n[%d] failed: %v\n", i+1, result.Err)
		default:
			fmt.Fprintf(out, "\n[%d] exited with code %d\n", i+1, result.ExitCode)
		}
		if result.Stdout != "" {
			fmt.Fprintln(out, strings.TrimRight(result.Stdout, "\n"))
		}
		if result.Stderr != "" {
			fmt.Fprintln(out, "stderr:")
			fmt.Fprintln(out, strings.TrimRight(result.Stderr, "\n"))
		}
	}
}

func renderValidation(out io.Writer, validation *domain.ValidationResult) {
	if validation == nil {
		return
	}
	if validation.Blocked || !validation.IsValid {
		fmt.Fprintf(out, "Risk: %s\n", strings.ToUpper(string(validation.RiskLevel)))
	}
	for _, err := range validation.Errors {
		fmt.Fprintf(out, " - error: %s\n", err)
	}
	for _, warning := range validation.Warnings {
		fmt.Fprintf(out, " - warning: %s\n", warning)
	}
	for _, suggestion := range validation.Suggestions {
		fmt.Fprintf(out, " - try: %s\n", suggestion)
	}
}
