package gateways

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ochairo/sbomgen/internal/domain/entities"
)

// documentWriter writes documents atomically: temp file in the target dir, then rename
type documentWriter struct {
	checksums *checksumVerifier
}

// NewDocumentWriter creates a new document writer gateway
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewDocumentWriter() *documentWriter {
	return &documentWriter{checksums: NewChecksumVerifier()}
}

// WriteDocument writes the indented JSON document to path, creating parent directories.
// On any failure no file is left at path.
func (w *documentWriter) WriteDocument(ctx context.Context, doc *entities.Document, path string) error {
	if doc == nil {
		return fmt.Errorf("document cannot be nil")
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	//nolint:errcheck // Best-effort cleanup; rename below makes this a no-op on success
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	//nolint:gosec // G302: documents are published artifacts
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move document into place: %w", err)
	}
	return nil
}

// WriteChecksum writes the SHA256 sidecar for path
func (w *documentWriter) WriteChecksum(path string) (string, error) {
	return w.checksums.WriteSidecar(path)
}

// RemoveDocument deletes path and the sidecars written next to it
func (w *documentWriter) RemoveDocument(path string) error {
	for _, p := range []string{path, path + ChecksumSuffix, path + SignatureSuffix} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	return nil
}
