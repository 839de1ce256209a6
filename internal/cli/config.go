package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/berrywallet/berrysync/internal/config"
	"github.com/berrywallet/berrysync/internal/output"
	walleterr "github.com/berrywallet/berrysync/pkg/errors"
)

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and initialize berrysync configuration.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a default configuration file at ~/.berrysync/config.yaml.

An existing file is kept unless --force is specified.

Example:
  berrysync config init
  berrysync config init --force`,
	RunE: runConfigInit,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Display the configuration after environment overrides and flags.

Example:
  berrysync config show
  berrysync config show -o json`,
	RunE: runConfigShow,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE: func(cmd *cobra.Command, _ []string) error {
		outln(cmd.OutOrStdout(), config.Path(cfg.GetHome()))
		return nil
	},
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	home := cfg.GetHome()
	configPath := config.Path(home)

	if _, err := os.Stat(configPath); err == nil && !configForce {
		return walleterr.WithSuggestion(
			walleterr.WithDetails(walleterr.ErrGeneral, map[string]string{"path": configPath}),
			"configuration already exists. Use --force to overwrite.",
		)
	}

	defaultCfg := config.Defaults()
	defaultCfg.Home = home
	defaultCfg.Logging.File = filepath.Join(home, "berrysync.log")

	if err := config.Save(defaultCfg, configPath); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	w := cmd.OutOrStdout()
	out(w, "Configuration initialized at %s\n", configPath)
	outln(w)
	outln(w, "Edit this file to configure:")
	outln(w, "  - coins.enabled: wallets to keep in sync")
	outln(w, "  - sync.resync_interval: full resync period")
	outln(w, "  - notifications.backend: os or log")
	outln(w, "  - storage.backend: badger or memory")

	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	return formatter.Emit(cmd.OutOrStdout(), cfg, func(w io.Writer) error {
		tbl := output.NewTable("KEY", "VALUE")
		for _, kv := range configRows(cfg) {
			tbl.AddRow(kv[0], kv[1])
		}
		return tbl.Render(w)
	})
}

// configRows flattens the configuration for text display.
func configRows(c *config.Config) [][2]string {
	return [][2]string{
		{"home", c.GetHome()},
		{"coins.enabled", strings.Join(c.Coins.Enabled, ",")},
		{"coins.testnet", strconv.FormatBool(c.Coins.Testnet)},
		{"sync.save_debounce", c.Sync.SaveDebounce.String()},
		{"sync.reconnect_threshold", c.Sync.ReconnectThreshold.String()},
		{"sync.resync_interval", c.Sync.ResyncInterval.String()},
		{"notifications.enabled", strconv.FormatBool(c.Notifications.Enabled)},
		{"notifications.backend", c.Notifications.Backend},
		{"notifications.app_name", c.Notifications.AppName},
		{"storage.backend", c.Storage.Backend},
		{"storage.path", c.StoragePath()},
		{"security.seed_file", c.SeedFilePath()},
		{"security.memory_lock", strconv.FormatBool(c.Security.MemoryLock)},
		{"logging.level", c.Logging.Level},
		{"logging.file", c.Logging.File},
	}
}
