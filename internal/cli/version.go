package cli

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/berrywallet/berrysync/internal/output"
	"github.com/berrywallet/berrysync/internal/version"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the build version. With --check, also look up the latest release.

Example:
  berrysync version
  berrysync version --check`,
	RunE: runVersion,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var (
	versionCheck   bool
	releaseChecker = version.NewChecker()
)

const versionCheckTimeout = 15 * time.Second

// versionResult is the JSON shape of the version command.
type versionResult struct {
	version.BuildInfo

	Latest          string `json:"latest,omitempty"`
	UpdateAvailable bool   `json:"update_available,omitempty"`
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "check for a newer release")
}

func runVersion(cmd *cobra.Command, _ []string) error {
	result := versionResult{BuildInfo: version.Current()}

	if versionCheck {
		ctx, cancel := contextWithTimeout(cmd, versionCheckTimeout)
		defer cancel()

		release, err := releaseChecker.Latest(ctx)
		if err != nil {
			return err
		}
		result.Latest = release.TagName
		result.UpdateAvailable = version.IsNewer(result.Version, release.TagName)
	}

	return formatter.Emit(cmd.OutOrStdout(), result, func(w io.Writer) error {
		outln(w, "berrysync "+result.BuildInfo.String())
		switch {
		case result.UpdateAvailable:
			output.Warn(w, "A newer version is available: %s", result.Latest)
		case versionCheck:
			output.Success(w, "You are on the latest version")
		}
		return nil
	})
}
