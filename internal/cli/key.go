package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/berrywallet/berrysync/internal/coin"
	"github.com/berrywallet/berrysync/internal/crypto"
	"github.com/berrywallet/berrysync/internal/provider"
	"github.com/berrywallet/berrysync/internal/wallet"
	walleterr "github.com/berrywallet/berrysync/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Derive wallet keys",
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var keyDeriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Derive an address and its private key",
	Long: `Derive a BIP44 address (account 0) from the stored seed.

The private key is only printed with --private.

Example:
  berrysync key derive --coin BTC --index 0
  berrysync key derive --coin LTCtest --index 3 --change --private`,
	RunE: runKeyDerive,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	keyCoin    string
	keyIndex   uint32
	keyChange  bool
	keyPrivate bool
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(keyCmd)
	keyCmd.AddCommand(keyDeriveCmd)

	keyDeriveCmd.Flags().StringVar(&keyCoin, "coin", "BTC", "coin key, e.g. BTC, ETH or BTCtest")
	keyDeriveCmd.Flags().Uint32Var(&keyIndex, "index", 0, "address index")
	keyDeriveCmd.Flags().BoolVar(&keyChange, "change", false, "derive from the change chain")
	keyDeriveCmd.Flags().BoolVar(&keyPrivate, "private", false, "print the private key")
}

// derivedKey is the result of key derive.
type derivedKey struct {
	Coin       string `json:"coin"`
	Path       string `json:"path"`
	Address    string `json:"address"`
	PrivateKey string `json:"private_key,omitempty"`
}

func runKeyDerive(cmd *cobra.Command, _ []string) error {
	c, err := coin.ParseKey(keyCoin)
	if err != nil {
		return walleterr.WithCause(walleterr.ErrUnsupportedCoin, err)
	}
	if cfg.Coins.Testnet && !c.IsTestnet() {
		c = coin.New(c.ID(), true)
	}

	password, err := promptPasswordFn("Enter seed password: ")
	if err != nil {
		return err
	}
	defer crypto.Zero(password)

	seed, err := wallet.LoadSeed(cfg.SeedFilePath(), string(password), cfg.Security.MemoryLock)
	if err != nil {
		return err
	}
	defer seed.Destroy()

	node, err := wallet.DeriveAddressNode(seed.Bytes(), c, provider.WalletAddress{
		Index:  keyIndex,
		Change: keyChange,
	})
	if err != nil {
		return walleterr.Wrap(err, "deriving %s key", c.Key())
	}

	result := derivedKey{Coin: c.Key(), Path: node.Path, Address: node.Address}
	if keyPrivate {
		result.PrivateKey = node.PrivateKey()
	}

	return formatter.Emit(cmd.OutOrStdout(), result, result.writeText)
}

func (k derivedKey) writeText(w io.Writer) error {
	out(w, "Coin:    %s\n", k.Coin)
	out(w, "Path:    %s\n", k.Path)
	out(w, "Address: %s\n", k.Address)
	if k.PrivateKey != "" {
		out(w, "Private: %s\n", k.PrivateKey)
	}
	return nil
}
