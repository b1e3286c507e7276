// Package bomsh reads the metadata the instrumented build leaves under <bom_dir>/metadata.
package bomsh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/ochairo/sbomgen/internal/domain/entities"
	"github.com/ochairo/sbomgen/internal/domain/interfaces"
	"github.com/ochairo/sbomgen/internal/domain/services"
)

// File names inside the metadata directory
const (
	TreeDBFile            = "bomsh_omnibor_treedb"
	DocMappingFile        = "bomsh_omnibor_doc_mapping"
	RawLogFile            = "bomsh_hook_raw_logfile"
	ComponentMetadataFile = "component_metadata.json"
	DynamicLibsFile       = "dynamic_libs.json"
)

const unknown = "unknown"

// Repository implements repositories.ProvenanceRepository over the on-disk bomsh layout
type Repository struct {
	metaDir  string
	bomshDir string
	logger   interfaces.Logger
}

// NewRepository creates a repository rooted at bomDir
func NewRepository(bomDir string, logger interfaces.Logger) *Repository {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	metaDir := filepath.Join(bomDir, "metadata")
	return &Repository{
		metaDir:  metaDir,
		bomshDir: filepath.Join(metaDir, "bomsh"),
		logger:   logger,
	}
}

type treeEntry struct {
	FilePath string `json:"file_path"`
	BuildCmd string `json:"build_cmd"`
}

// LoadProvenanceGraph reads the treedb; undecodable entries are skipped
func (r *Repository) LoadProvenanceGraph(_ context.Context) ([]entities.ArtifactRecord, error) {
	path := filepath.Join(r.bomshDir, TreeDBFile)
	//nolint:gosec // G304: path is built from the configured bom directory
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read provenance graph %s: %w", path, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse provenance graph %s: %w", path, err)
	}

	hashes := make([]string, 0, len(raw))
	for h := range raw {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)

	records := make([]entities.ArtifactRecord, 0, len(raw))
	for _, h := range hashes {
		var entry treeEntry
		if err := json.Unmarshal(raw[h], &entry); err != nil {
			r.logger.Debug("skipping undecodable provenance record", interfaces.F("hash", h), interfaces.F("error", err))
			continue
		}
		records = append(records, entities.ArtifactRecord{
			ContentHash:  h,
			FilePath:     entry.FilePath,
			BuildCommand: entry.BuildCmd,
		})
	}
	return records, nil
}

// LoadDocumentMapping reads hash -> document id; a missing file yields an empty map
func (r *Repository) LoadDocumentMapping(_ context.Context) (map[string]string, error) {
	path := filepath.Join(r.bomshDir, DocMappingFile)
	//nolint:gosec // G304: path is built from the configured bom directory
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		r.logger.Warn("document mapping not found", interfaces.F("path", path))
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document mapping %s: %w", path, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse document mapping %s: %w", path, err)
	}
	mapping := make(map[string]string, len(raw))
	for h, v := range raw {
		var id string
		if err := json.Unmarshal(v, &id); err != nil || id == "" {
			r.logger.Debug("skipping undecodable document mapping", interfaces.F("hash", h))
			continue
		}
		mapping[h] = id
	}
	return mapping, nil
}

// LoadBuildOutputHashes parses the raw hook logfile; a missing file yields an empty map
func (r *Repository) LoadBuildOutputHashes(_ context.Context) (map[string]string, error) {
	path := filepath.Join(r.bomshDir, RawLogFile)
	//nolint:gosec // G304: path is built from the configured bom directory
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		r.logger.Warn("build output log not found", interfaces.F("path", path))
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open build output log %s: %w", path, err)
	}
	//nolint:errcheck // Defer close
	defer f.Close()

	return services.ParseBuildOutputLog(f), nil
}

type componentMetadata struct {
	Distro         string `json:"distro"`
	GCCVersion     string `json:"gcc_version"`
	ProjectVersion string `json:"project_version"`
	CurlVersion    string `json:"curl_version"`
}

// LoadBuildEnvironment reads component_metadata.json
func (r *Repository) LoadBuildEnvironment(_ context.Context) (*entities.BuildEnvironment, error) {
	path := filepath.Join(r.metaDir, ComponentMetadataFile)
	//nolint:gosec // G304: path is built from the configured bom directory
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read component metadata %s: %w", path, err)
	}

	var meta componentMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse component metadata %s: %w", path, err)
	}

	env := &entities.BuildEnvironment{
		Distro:         orUnknown(meta.Distro),
		CompilerBanner: orUnknown(meta.GCCVersion),
		ProjectVersion: meta.ProjectVersion,
	}
	if env.ProjectVersion == "" {
		env.ProjectVersion = meta.CurlVersion
	}
	return env, nil
}

type dynamicLibsFile struct {
	Binary       string                     `json:"binary"`
	DirectNeeded []string                   `json:"direct_needed"`
	DynamicLibs  map[string]json.RawMessage `json:"dynamic_libs"`
}

// LoadDynamicLibraries reads dynamic_libs.json from dir, or from the metadata dir when dir is empty.
// Each soname entry is decoded on its own; a bad entry is skipped.
func (r *Repository) LoadDynamicLibraries(_ context.Context, dir string) (*entities.DynamicLibraries, error) {
	if dir == "" {
		dir = r.metaDir
	}
	path := filepath.Join(dir, DynamicLibsFile)
	//nolint:gosec // G304: path is built from the configured metadata directory
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dynamic library metadata %s: %w", path, err)
	}

	var raw dynamicLibsFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse dynamic library metadata %s: %w", path, err)
	}

	sonames := make([]string, 0, len(raw.DynamicLibs))
	for s := range raw.DynamicLibs {
		sonames = append(sonames, s)
	}
	sort.Strings(sonames)

	libs := &entities.DynamicLibraries{
		Binary:       raw.Binary,
		DirectNeeded: raw.DirectNeeded,
		Libraries:    make([]entities.DynamicLibrary, 0, len(sonames)),
	}
	for _, soname := range sonames {
		var lib entities.DynamicLibrary
		if err := json.Unmarshal(raw.DynamicLibs[soname], &lib); err != nil {
			r.logger.Debug("skipping undecodable dynamic library", interfaces.F("soname", soname), interfaces.F("error", err))
			continue
		}
		lib.Soname = soname
		libs.Libraries = append(libs.Libraries, lib)
	}
	return libs, nil
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}
