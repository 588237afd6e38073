package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/agentstation/leadrecon/internal/cmd/output"
	"github.com/agentstation/leadrecon/pkg/errors"
)

// Execute runs the leadrecon CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "leadrecon <leads-file>",
		Short:   "Deduplicate lead records and report how they changed",
		Version: a.version,
		Long: `Leadrecon reads a JSON or YAML file holding a "leads" list and merges
records that share an id or an email. When two records collide, the one with
the most recent entryDate wins; ties go to the later record in the file.

Two files are written next to the leadrecon executable:

  leads_deduped.json   the surviving records, in first-seen order
  changelog.txt        every field's history, oldest value first`,
		Args:              a.validateArgs,
		PersistentPreRunE: a.setupCommand,
		RunE:              a.runReconcile,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	// Add global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default is ./.leadrecon.yaml or $HOME/.leadrecon.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")

	rootCmd.Flags().Bool("stats", false, "print a run summary after writing the outputs")
	rootCmd.Flags().StringP("format", "o", "", "summary format: table, json, yaml (default: table on a terminal, json otherwise)")

	rootCmd.SetVersionTemplate("leadrecon {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// validateArgs requires exactly one input path.
func (a *App) validateArgs(_ *cobra.Command, args []string) error {
	switch len(args) {
	case 1:
		return nil
	case 0:
		return errors.NewValidationError("input", nil, "a path to a leads file is required")
	default:
		return errors.NewValidationError("input", args, "exactly one leads file may be given")
	}
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("config") {
		config, err := loadConfig(viper.New(), mustGetString(cmd, "config"))
		if err != nil {
			return errors.WrapValidation("config", err)
		}
		a.config = config
	}

	a.config.UpdateFromFlags(cmd)

	if _, err := output.ParseFormat(a.config.Format); err != nil {
		return errors.WrapValidation("format", err)
	}

	// Reinitialize logger with updated config
	logger := NewLogger(a.config)
	a.logger = &logger

	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(a.NewVersionCommand())
}

// ExitOnError is a helper that prints an error and exits with status 1.
// This is meant to be used in main.go for top-level error handling.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
