package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/berrywallet/berrysync/internal/crypto"
	"github.com/berrywallet/berrysync/internal/output"
	"github.com/berrywallet/berrysync/internal/wallet"
	walleterr "github.com/berrywallet/berrysync/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Manage the encrypted wallet seed",
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var seedImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a recovery phrase",
	Long: `Import a BIP39 recovery phrase and store it encrypted with a password.

The phrase is checked against the BIP39 word list; misspelled words are
reported with the closest valid word.

Example:
  berrysync seed import
  berrysync seed import --force`,
	RunE: runSeedImport,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var seedGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Create a new recovery phrase",
	Long: `Generate a new BIP39 recovery phrase, print it once and store it encrypted
with a password. Write the phrase down before continuing.

Example:
  berrysync seed generate
  berrysync seed generate --words 24`,
	RunE: runSeedGenerate,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	seedForce bool
	seedWords int
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.AddCommand(seedImportCmd)
	seedCmd.AddCommand(seedGenerateCmd)

	seedImportCmd.Flags().BoolVar(&seedForce, "force", false, "replace an existing seed file")
	seedGenerateCmd.Flags().BoolVar(&seedForce, "force", false, "replace an existing seed file")
	seedGenerateCmd.Flags().IntVar(&seedWords, "words", 12, "phrase length: 12 or 24")
}

// checkSeedTarget refuses to overwrite a seed file unless --force is set.
func checkSeedTarget(path string) error {
	if _, err := os.Stat(path); err == nil && !seedForce {
		return walleterr.WithSuggestion(
			walleterr.WithDetails(walleterr.ErrGeneral, map[string]string{"path": path}),
			"a seed file already exists. Use --force to replace it.",
		)
	}
	return nil
}

func runSeedGenerate(cmd *cobra.Command, _ []string) error {
	path := cfg.SeedFilePath()
	if err := checkSeedTarget(path); err != nil {
		return err
	}

	mnemonic, err := wallet.GenerateMnemonic(seedWords)
	if err != nil {
		return walleterr.WithSuggestion(walleterr.WithCause(walleterr.ErrInvalidInput, err), "use --words 12 or --words 24")
	}

	w := cmd.OutOrStdout()
	outln(w, "Recovery phrase (write it down, it is not shown again):")
	outln(w)
	outln(w, "  "+mnemonic)
	outln(w)

	password, err := promptNewPasswordFn()
	if err != nil {
		return err
	}
	defer crypto.Zero(password)

	if err := wallet.SaveSeedFile(path, mnemonic, string(password)); err != nil {
		return err
	}

	logger.Debug("seed generated at %s", path)
	output.Success(w, "Seed saved to %s", path)
	return nil
}

func runSeedImport(cmd *cobra.Command, _ []string) error {
	path := cfg.SeedFilePath()
	if err := checkSeedTarget(path); err != nil {
		return err
	}

	mnemonic, err := promptMnemonicFn()
	if err != nil {
		return err
	}
	mnemonic = wallet.NormalizeMnemonicInput(mnemonic)

	if err := wallet.ValidateMnemonic(mnemonic); err != nil {
		invalid := walleterr.WithCause(walleterr.ErrInvalidMnemonic, err)
		if typos := wallet.DetectTypos(mnemonic); len(typos) > 0 {
			return walleterr.WithSuggestion(invalid, wallet.FormatTypoSuggestions(typos))
		}
		return invalid
	}

	password, err := promptNewPasswordFn()
	if err != nil {
		return err
	}
	defer crypto.Zero(password)

	if err := wallet.SaveSeedFile(path, mnemonic, string(password)); err != nil {
		return err
	}

	logger.Debug("seed imported to %s", path)
	output.Success(cmd.OutOrStdout(), "Seed saved to %s", path)
	return nil
}
