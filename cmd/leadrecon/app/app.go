// Package app provides the application context and dependency management
// for the leadrecon CLI. It centralizes configuration, logging and the
// output destinations of a run.
package app

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/agentstation/leadrecon/internal/batch"
	"github.com/agentstation/leadrecon/pkg/errors"
	"github.com/agentstation/leadrecon/pkg/reconciler"
)

// App represents the leadrecon application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	// Console streams
	stdout io.Writer
	stderr io.Writer

	// outputDir overrides the executable's directory as the destination
	// of both output files. Only tests set it.
	outputDir string

	reconcilerOpts []reconciler.Option
}

// New creates a new App instance with the given version information.
// The app is initialized with configuration loaded from the environment
// that can be customized using functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapValidation("config", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Outputs returns the destinations of a run: fixed file names in the
// directory of the running executable.
func (a *App) Outputs() (batch.Outputs, error) {
	dir := a.outputDir
	if dir == "" {
		var err error
		if dir, err = batch.ExecutableDir(); err != nil {
			return batch.Outputs{}, err
		}
	}
	return batch.OutputsIn(dir), nil
}

// Reconciler creates the reconciler for a run.
func (a *App) Reconciler() (reconciler.Reconciler, error) {
	return reconciler.New(a.reconcilerOpts...)
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithStreams redirects console output.
func WithStreams(stdout, stderr io.Writer) Option {
	return func(a *App) error {
		a.stdout = stdout
		a.stderr = stderr
		return nil
	}
}

// WithOutputDir places the output files in dir instead of next to the
// executable.
func WithOutputDir(dir string) Option {
	return func(a *App) error {
		a.outputDir = dir
		return nil
	}
}

// WithReconcilerOptions configures the reconciler used by runs.
func WithReconcilerOptions(opts ...reconciler.Option) Option {
	return func(a *App) error {
		a.reconcilerOpts = append(a.reconcilerOpts, opts...)
		return nil
	}
}
