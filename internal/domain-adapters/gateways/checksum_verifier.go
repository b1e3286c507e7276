// Package gateways implements the domain gateway contracts on top of the external adapters.
package gateways

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ChecksumSuffix is appended to a document path to name its checksum sidecar
const ChecksumSuffix = ".sha256"

// checksumVerifier computes and checks SHA256 sidecars using pure Go
type checksumVerifier struct{}

// NewChecksumVerifier creates a new checksum verifier
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewChecksumVerifier() *checksumVerifier {
	return &checksumVerifier{}
}

// VerifyChecksum verifies a file's SHA256 checksum
func (v *checksumVerifier) VerifyChecksum(_ context.Context, filePath, expectedSum string) error {
	actualSum, err := v.CalculateChecksum(filePath)
	if err != nil {
		return err
	}
	if !strings.EqualFold(actualSum, expectedSum) {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expectedSum, actualSum)
	}
	return nil
}

// VerifySidecar checks filePath against the "<sum>  <name>" line in filePath+".sha256"
func (v *checksumVerifier) VerifySidecar(ctx context.Context, filePath string) error {
	sidecar := filePath + ChecksumSuffix
	//nolint:gosec // G304: sidecar path derives from the user-provided document path
	data, err := os.ReadFile(sidecar)
	if err != nil {
		return fmt.Errorf("failed to read checksum file: %w", err)
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return fmt.Errorf("checksum file %s is empty", sidecar)
	}
	return v.VerifyChecksum(ctx, filePath, fields[0])
}

// CalculateChecksum calculates the SHA256 checksum of a file
func (v *checksumVerifier) CalculateChecksum(filePath string) (string, error) {
	//nolint:gosec // G304: File path is user-provided for checksum calculation
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// WriteSidecar writes "<sum>  <basename>\n" to filePath+".sha256" and returns the sidecar path
func (v *checksumVerifier) WriteSidecar(filePath string) (string, error) {
	sum, err := v.CalculateChecksum(filePath)
	if err != nil {
		return "", err
	}
	sidecar := filePath + ChecksumSuffix
	content := fmt.Sprintf("%s  %s\n", sum, filepath.Base(filePath))
	if err := os.WriteFile(sidecar, []byte(content), 0600); err != nil {
		return "", fmt.Errorf("failed to write checksum file: %w", err)
	}
	return sidecar, nil
}
