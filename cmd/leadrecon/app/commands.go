package app

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/leadrecon/internal/batch"
	"github.com/agentstation/leadrecon/internal/cmd/alerts"
	"github.com/agentstation/leadrecon/internal/cmd/output"
	"github.com/agentstation/leadrecon/internal/leadfile"
	"github.com/agentstation/leadrecon/pkg/errors"
	"github.com/agentstation/leadrecon/pkg/logging"
)

// runReconcile executes one batch run for the input path in args.
func (a *App) runReconcile(cmd *cobra.Command, args []string) error {
	input := args[0]

	// Usage errors halt before any work
	if err := leadfile.Check(input); err != nil {
		return err
	}

	outputs, err := a.Outputs()
	if err != nil {
		return err
	}
	r, err := a.Reconciler()
	if err != nil {
		return err
	}

	ctx := logging.WithLogger(cmd.Context(), a.logger)
	report, runErr := batch.NewRunner(r, outputs).Run(ctx, input)
	if report == nil {
		return runErr
	}

	stdout := alerts.NewFormatWriter(cmd.OutOrStdout(), output.FormatTable)
	stderr := alerts.NewFormatWriter(cmd.ErrOrStderr(), output.FormatTable)
	if a.config.NoColor {
		stdout.WithConfig(alerts.WriterConfig{ShowDetails: true})
		stderr.WithConfig(alerts.WriterConfig{ShowDetails: true})
	}

	for _, path := range report.Written {
		_ = stdout.WriteAlert(alerts.NewSuccess(fmt.Sprintf("Wrote %s", path)))
	}

	var writeErr *errors.WriteError
	if errors.As(runErr, &writeErr) {
		for _, path := range writeErr.Paths() {
			_ = stderr.WriteAlert(alerts.NewError(fmt.Sprintf("Could not write %s", path)).WithError(writeErr.Failures[path]))
		}
	}

	if warnings := report.Result.Warnings; len(warnings) > 0 {
		_ = stderr.WriteAlert(alerts.NewWarning(
			fmt.Sprintf("%d lead(s) discarded with an unreadable entryDate", len(warnings)),
		).WithDetails(warnings...))
	}

	if a.config.Stats {
		if err := a.writeSummary(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	}

	return runErr
}

// writeSummary prints the run statistics in the configured format.
func (a *App) writeSummary(w io.Writer, report *batch.Report) error {
	format := output.DetectFormat(a.config.Format)
	summary := output.NewSummary(report.Input, report.Written, report.Result)
	return output.WriteSummary(w, format, summary, report.Result.Records)
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("leadrecon %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}
