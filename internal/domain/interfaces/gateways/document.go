// Package gateways defines contracts for I/O the domain services depend on.
package gateways

import (
	"context"

	"github.com/ochairo/sbomgen/internal/domain/entities"
)

// SourceReader reads project source files for the vendored-library heuristics.
// Implementations may cache; callers treat errors as "no information".
type SourceReader interface {
	ReadFile(path string) ([]byte, error)
	Glob(pattern string) ([]string, error)
}

// DocumentWriter persists a generated document
type DocumentWriter interface {
	// WriteDocument writes the pretty-printed document to path atomically
	WriteDocument(ctx context.Context, doc *entities.Document, path string) error

	// WriteChecksum writes a "<sha256>  <name>" sidecar next to path and returns its location
	WriteChecksum(path string) (string, error)

	// RemoveDocument deletes path and its sidecars; missing files are not an error
	RemoveDocument(path string) error
}

// DocumentSigner produces detached signatures for written documents
type DocumentSigner interface {
	// SignFile writes an armored detached signature to path+".asc" and returns its location
	SignFile(ctx context.Context, path string) (string, error)
}
