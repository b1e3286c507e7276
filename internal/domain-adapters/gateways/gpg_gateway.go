package gateways

import (
	"context"
	"fmt"
	"os"

	"github.com/ochairo/sbomgen/internal/external-adapters/gpg"
)

// SignatureSuffix is appended to a document path to name its detached signature
const SignatureSuffix = ".asc"

// gpgSigner wraps the external GPG adapter to implement gateways.DocumentSigner
type gpgSigner struct {
	signer *gpg.Signer
}

// NewGPGSigner loads a private key; the passphrase is read from passphraseEnv when set
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewGPGSigner(keyPath, passphraseEnv string) (*gpgSigner, error) {
	var passphrase []byte
	if passphraseEnv != "" {
		passphrase = []byte(os.Getenv(passphraseEnv))
	}
	signer, err := gpg.NewSignerFromFile(keyPath, passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to load signing key: %w", err)
	}
	return &gpgSigner{signer: signer}, nil
}

// SignFile writes path+".asc" and returns its location
func (g *gpgSigner) SignFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	sigPath := path + SignatureSuffix
	if err := g.signer.SignFile(path, sigPath); err != nil {
		return "", fmt.Errorf("GPG signing failed: %w", err)
	}
	return sigPath, nil
}

// Fingerprint returns the signing key fingerprint
func (g *gpgSigner) Fingerprint() string {
	return g.signer.Fingerprint()
}

// gpgVerifier wraps the external GPG adapter for checking published documents
type gpgVerifier struct {
	verifier *gpg.Verifier
}

// NewGPGVerifier creates a new GPG verifier gateway
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewGPGVerifier() *gpgVerifier {
	return &gpgVerifier{verifier: gpg.NewVerifier()}
}

// ImportGPGKeyFromFile imports a GPG key from a local file
func (g *gpgVerifier) ImportGPGKeyFromFile(keyPath string) error {
	if err := g.verifier.ImportKeyFromFile(keyPath); err != nil {
		return fmt.Errorf("failed to import GPG key from file: %w", err)
	}
	return nil
}

// VerifyGPGSignatureFromFile verifies a detached GPG signature from a local file
func (g *gpgVerifier) VerifyGPGSignatureFromFile(filePath, sigPath string) error {
	if err := g.verifier.VerifySignatureFromFile(filePath, sigPath); err != nil {
		return fmt.Errorf("GPG signature verification failed: %w", err)
	}
	return nil
}

// GetKeyringSize returns the number of keys loaded
func (g *gpgVerifier) GetKeyringSize() int {
	return g.verifier.GetKeyringSize()
}
