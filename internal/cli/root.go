// Package cli implements the berrysync command-line interface.
//
// This package uses global variables to manage CLI state, which is the standard
// pattern for Cobra-based CLI applications. The globals are initialized in
// PersistentPreRunE and cleaned up in PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/berrywallet/berrysync/internal/config"
	"github.com/berrywallet/berrysync/internal/output"
	walleterr "github.com/berrywallet/berrysync/pkg/errors"
)

var (
	// Global flags
	homeDir      string
	outputFormat string
	verbose      bool

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *config.Logger
	formatter *output.Formatter
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "berrysync",
	Short: "Operator tool for Berrywallet wallet sync state",
	Long: `berrysync manages the configuration, encrypted seed and keys used by
Berrywallet's wallet sync, shows the coin and wallet state it persisted and
sends test notifications.

Example:
  berrysync config init
  berrysync seed import
  berrysync key derive --coin BTC --index 0
  berrysync state show -o json`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initGlobals(cmd.ErrOrStderr())
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		format := output.FormatText
		if formatter != nil {
			format = formatter.Format()
		}
		_ = output.FormatError(os.Stderr, err, format)
		return err
	}
	return nil
}

// ExitCode returns the process exit code for an error.
func ExitCode(err error) int {
	return walleterr.ExitCode(err)
}

// initGlobals loads configuration and builds the logger and formatter.
func initGlobals(console io.Writer) error {
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	var err error
	cfg, err = config.Load(config.Path(home))
	switch {
	case err == nil:
	case walleterr.Is(err, walleterr.ErrConfigNotFound):
		cfg = config.Defaults()
		cfg.Home = home
		cfg.Logging.File = filepath.Join(home, "berrysync.log")
	default:
		return err
	}

	config.ApplyEnvironment(cfg)

	if homeDir != "" {
		cfg.Home = homeDir
	}
	if verbose {
		cfg.Logging.Level = config.LogLevelDebug.String()
		cfg.Logging.Console = true
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err = config.NewLoggerFromConfig(cfg.Logging, console)
	if err != nil {
		// Fall back to no logging if the file can't be opened.
		_, _ = fmt.Fprintf(console, "warning: logging disabled: %v\n", err)
		logger = config.NullLogger()
	}

	formatter = output.NewFormatter(output.DetectFormat(os.Stdout, output.ParseFormat(outputFormat)))
	return nil
}

// cleanup releases resources.
func cleanup() {
	if logger != nil {
		_ = logger.Close()
	}
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "berrysync data directory (default: ~/.berrysync)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging to stderr")
}

// out is a helper for CLI output.
//
//nolint:errcheck // CLI output writes are intentionally unchecked
func out(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}

// outln is a helper for CLI output with newline.
//
//nolint:errcheck // CLI output writes are intentionally unchecked
func outln(w io.Writer, args ...any) {
	fmt.Fprintln(w, args...)
}
