// Package commands implements the CLI commands for authwire.
package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/authwire/authwire/internal/config"
	"github.com/authwire/authwire/internal/errors"
	"github.com/authwire/authwire/internal/logging"
)

// version is set at build time via ldflags.
// Default to a development version for local builds.
const version = "0.1.0"

// projectFlag holds the value of the -C/--project flag.
var projectFlag string

// verbosity holds the count of -v flags.
var verbosity int

// quiet holds the value of the -q/--quiet flag.
var quiet bool

// logFormat holds the value of the --log-format flag.
var logFormat string

// log is the logger shared by all commands, set up in PersistentPreRunE.
var log *slog.Logger = logging.Default()

// cfg holds the loaded tool configuration.
var cfg *config.Config

// configLoadErr holds any error that occurred during config loading.
var configLoadErr error

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&projectFlag, "project", "C", ".",
		"target project root")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase verbosity level (e.g., -v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"log format: text, json")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("authwire version {{.Version}}\n")

	// Silence errors and usage so we can control error output
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func initConfig() {
	config.Init()
	cfg, configLoadErr = config.Load("")
}

var rootCmd = &cobra.Command{
	Use:   "authwire",
	Short: "Wire authentication providers into generated server projects",
	Long: `authwire scaffolds an authentication provider (auth0, clerk, firebase)
into an existing generated Go server project.

It creates the provider source files under internal/auth, records the
required module dependencies in go.mod, patches the project's entry point
to register the provider, and merges configuration keys into the hosting
platform's config file and .env.example.

Every mutating run captures a filesystem snapshot first; any failure
restores the project, so the tree changes completely or not at all.`,
	Example: `  # Wire auth0 into the project in the current directory
  authwire add auth0

  # Pick a provider interactively
  authwire add

  # Preview without mutating
  authwire add clerk --dry-run

  # Inspect the detected hosting platform
  authwire detect

  See Also: authwire add, authwire detect, authwire snapshots`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := setupLogging(cmd); err != nil {
			return err
		}
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}
		if configLoadErr != nil {
			return errors.NewUserError(configLoadErr, "Fix or remove the config.yaml and retry")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// setupLogging configures the shared logger based on verbosity flags.
func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return errors.NewUserError(nil, "cannot use --quiet and --verbose together")
	}

	level := slog.LevelInfo
	switch {
	case quiet:
		level = slog.LevelError
	case verbosity > 0:
		level = slog.LevelDebug
	}

	log = logging.New(logging.Config{
		Level:  level,
		Format: logging.Format(logFormat),
		Output: cmd.ErrOrStderr(),
	})
	slog.SetDefault(log)
	return nil
}

// toolConfig returns the loaded configuration, falling back to defaults
// when config loading has not run (e.g. in tests).
func toolConfig() *config.Config {
	if cfg != nil {
		return cfg
	}
	return &config.Config{SnapshotRetention: 10, EntryFunc: "main", Backup: true}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps an error from Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return errors.ExitSuccess
	}
	var exitErr *errors.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return errors.CodeFor(errors.KindOf(err))
}
