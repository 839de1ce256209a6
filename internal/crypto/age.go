package crypto

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"filippo.io/age"
)

// MaxWorkFactor caps the scrypt cost accepted when opening a file, so a
// crafted seed file cannot pin the CPU for minutes.
const MaxWorkFactor = 20

// ErrWrongPassword is returned by Decrypt when the password does not open
// the ciphertext.
var ErrWrongPassword = errors.New("incorrect password")

// EncryptTo streams src into dst as an age file sealed with password.
func EncryptTo(dst io.Writer, src io.Reader, password string) error {
	recipient, err := age.NewScryptRecipient(password)
	if err != nil {
		return fmt.Errorf("age recipient: %w", err)
	}

	sealed, err := age.Encrypt(dst, recipient)
	if err != nil {
		return fmt.Errorf("age header: %w", err)
	}
	if _, err = io.Copy(sealed, src); err != nil {
		_ = sealed.Close()
		return fmt.Errorf("age payload: %w", err)
	}
	return sealed.Close()
}

// DecryptFrom opens the age file in src with password and returns a reader
// over the plaintext. The header is checked before it returns, so a wrong
// password surfaces here as ErrWrongPassword.
func DecryptFrom(src io.Reader, password string) (io.Reader, error) {
	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return nil, fmt.Errorf("age identity: %w", err)
	}
	identity.SetMaxWorkFactor(MaxWorkFactor)

	plain, err := age.Decrypt(src, identity)
	var noMatch *age.NoIdentityMatchError
	switch {
	case errors.As(err, &noMatch):
		return nil, ErrWrongPassword
	case err != nil:
		return nil, fmt.Errorf("age header: %w", err)
	}
	return plain, nil
}

// Encrypt seals plaintext with password.
func Encrypt(plaintext []byte, password string) ([]byte, error) {
	var out bytes.Buffer
	if err := EncryptTo(&out, bytes.NewReader(plaintext), password); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Decrypt opens ciphertext produced by Encrypt.
func Decrypt(ciphertext []byte, password string) ([]byte, error) {
	plain, err := DecryptFrom(bytes.NewReader(ciphertext), password)
	if err != nil {
		return nil, err
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		Zero(out)
		return nil, fmt.Errorf("age payload: %w", err)
	}
	return out, nil
}

// DecryptSecure opens ciphertext straight into SecureBytes; the transient
// plaintext copy is zeroed before it returns.
func DecryptSecure(ciphertext []byte, password string, lock bool) (*SecureBytes, error) {
	plaintext, err := Decrypt(ciphertext, password)
	defer Zero(plaintext)
	if err != nil {
		return nil, err
	}
	return NewSecureBytesFrom(plaintext, lock)
}
