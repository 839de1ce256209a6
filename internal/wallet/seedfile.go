package wallet

import (
	"errors"
	"os"

	"github.com/berrywallet/berrysync/internal/crypto"
	"github.com/berrywallet/berrysync/internal/fileutil"
	walleterr "github.com/berrywallet/berrysync/pkg/errors"
)

// SaveSeedFile validates mnemonic and writes it age-encrypted to path.
func SaveSeedFile(path, mnemonic, password string) error {
	if err := ValidateMnemonic(mnemonic); err != nil {
		return walleterr.WithCause(walleterr.ErrInvalidMnemonic, err)
	}

	normalized := []byte(NormalizeMnemonicInput(mnemonic))
	defer crypto.Zero(normalized)

	ciphertext, err := crypto.Encrypt(normalized, password)
	if err != nil {
		return walleterr.Wrap(err, "encrypting seed")
	}

	return fileutil.WriteAtomic(path, ciphertext, 0o600)
}

// LoadSeed decrypts the seed file and returns the BIP39 seed (no
// passphrase) in secure memory. The caller must Destroy it.
func LoadSeed(path, password string, lockMemory bool) (*crypto.SecureBytes, error) {
	// #nosec G304 -- seed file path comes from config
	ciphertext, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, walleterr.WithCause(walleterr.ErrSeedNotFound, err)
		}
		return nil, walleterr.Wrap(err, "reading seed file")
	}

	mnemonic, err := crypto.DecryptSecure(ciphertext, password, lockMemory)
	if err != nil {
		return nil, walleterr.WithCause(walleterr.ErrDecryptionFailed, err)
	}
	defer mnemonic.Destroy()

	seed, err := MnemonicToSeed(string(mnemonic.Bytes()), "")
	if err != nil {
		return nil, walleterr.WithCause(walleterr.ErrInvalidMnemonic, err)
	}
	defer crypto.Zero(seed)

	return crypto.NewSecureBytesFrom(seed, lockMemory)
}
