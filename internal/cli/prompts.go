package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/berrywallet/berrysync/internal/crypto"
	walleterr "github.com/berrywallet/berrysync/pkg/errors"
)

// minPasswordLength is the shortest accepted seed encryption password.
const minPasswordLength = 8

// Prompt hooks, replaced in tests.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var (
	promptPasswordFn    = promptPassword
	promptNewPasswordFn = promptNewPassword
	promptMnemonicFn    = promptMnemonic
)

// promptPassword prompts for a password with hidden input.
// The caller is responsible for zeroing the returned bytes after use.
func promptPassword(prompt string) ([]byte, error) {
	out(os.Stderr, "%s", prompt)

	password, err := term.ReadPassword(syscall.Stdin)
	outln(os.Stderr) // newline after hidden input

	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	return password, nil
}

// promptNewPassword prompts for a new password with confirmation.
// The caller is responsible for zeroing the returned bytes after use.
func promptNewPassword() ([]byte, error) {
	password, err := promptPassword("Enter encryption password: ")
	if err != nil {
		return nil, err
	}

	if len(password) < minPasswordLength {
		crypto.Zero(password)
		return nil, walleterr.WithSuggestion(
			walleterr.ErrInvalidInput,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength),
		)
	}

	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		crypto.Zero(password)
		return nil, err
	}
	defer crypto.Zero(confirm)

	if string(password) != string(confirm) {
		crypto.Zero(password)
		return nil, walleterr.WithSuggestion(walleterr.ErrInvalidInput, "passwords do not match")
	}

	return password, nil
}

// promptMnemonic reads a mnemonic phrase from one line of stdin.
func promptMnemonic() (string, error) {
	outln(os.Stderr, "Enter your recovery phrase (words separated by spaces):")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading recovery phrase: %w", err)
	}
	return strings.TrimSpace(line), nil
}
