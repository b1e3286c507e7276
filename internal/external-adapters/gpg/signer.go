package gpg

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// Signer writes armored detached signatures with one private key
type Signer struct {
	entity *openpgp.Entity
}

// NewSignerFromFile loads the first private key in keyPath, decrypting it with passphrase if needed
func NewSignerFromFile(keyPath string, passphrase []byte) (*Signer, error) {
	entities, err := readKeyRing(keyPath)
	if err != nil {
		return nil, err
	}

	var entity *openpgp.Entity
	for _, e := range entities {
		if e.PrivateKey != nil {
			entity = e
			break
		}
	}
	if entity == nil {
		return nil, fmt.Errorf("no private key found in %s", keyPath)
	}

	if entity.PrivateKey.Encrypted {
		if len(passphrase) == 0 {
			return nil, fmt.Errorf("private key is encrypted and no passphrase was given")
		}
		if err := entity.PrivateKey.Decrypt(passphrase); err != nil {
			return nil, fmt.Errorf("failed to decrypt private key: %w", err)
		}
	}
	for _, sub := range entity.Subkeys {
		if sub.PrivateKey != nil && sub.PrivateKey.Encrypted {
			if err := sub.PrivateKey.Decrypt(passphrase); err != nil {
				return nil, fmt.Errorf("failed to decrypt private subkey: %w", err)
			}
		}
	}
	return &Signer{entity: entity}, nil
}

// Fingerprint returns the upper-case hex fingerprint of the signing key
func (s *Signer) Fingerprint() string {
	return fmt.Sprintf("%X", s.entity.PrimaryKey.Fingerprint)
}

// SignFile writes an armored detached signature of filePath to sigPath
func (s *Signer) SignFile(filePath, sigPath string) error {
	//nolint:gosec // G304: filePath is the document this process just wrote
	data, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open data file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer data.Close()

	tmp, err := os.CreateTemp(filepath.Dir(sigPath), ".sig-*")
	if err != nil {
		return fmt.Errorf("failed to create signature file: %w", err)
	}
	//nolint:errcheck // Best-effort cleanup; rename below makes this a no-op on success
	defer os.Remove(tmp.Name())

	if err := openpgp.ArmoredDetachSign(tmp, s.entity, data, nil); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sign %s: %w", filePath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close signature file: %w", err)
	}
	if err := os.Rename(tmp.Name(), sigPath); err != nil {
		return fmt.Errorf("failed to move signature into place: %w", err)
	}
	return nil
}
