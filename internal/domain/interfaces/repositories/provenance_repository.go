// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/ochairo/sbomgen/internal/domain/entities"
)

// ProvenanceRepository defines the interface for reading build-tracer outputs
type ProvenanceRepository interface {
	// LoadProvenanceGraph returns every record of the provenance graph.
	// A missing or unreadable graph is an error.
	LoadProvenanceGraph(ctx context.Context) ([]entities.ArtifactRecord, error)

	// LoadDocumentMapping returns content hash -> external document id.
	// A missing mapping yields an empty map.
	LoadDocumentMapping(ctx context.Context) (map[string]string, error)

	// LoadBuildOutputHashes returns output path -> build-time hash.
	// A missing log yields an empty map.
	LoadBuildOutputHashes(ctx context.Context) (map[string]string, error)

	// LoadBuildEnvironment returns distro and compiler information (required)
	LoadBuildEnvironment(ctx context.Context) (*entities.BuildEnvironment, error)

	// LoadDynamicLibraries returns per-soname OS-package metadata from dir,
	// or from the default metadata directory when dir is empty (required)
	LoadDynamicLibraries(ctx context.Context, dir string) (*entities.DynamicLibraries, error)
}
