// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ochairo/sbomgen/internal/domain/entities"
	"github.com/ochairo/sbomgen/internal/domain/interfaces"
	"github.com/ochairo/sbomgen/internal/domain/interfaces/gateways"
	"github.com/ochairo/sbomgen/internal/domain/interfaces/repositories"
	"github.com/ochairo/sbomgen/internal/domain/services"
)

// ErrMissingInput is returned when a required input is missing or unreadable
var ErrMissingInput = errors.New("required input missing")

// SBOMOrchestrator generates one SPDX document per target binary
type SBOMOrchestrator struct {
	repo   repositories.ProvenanceRepository
	reader gateways.SourceReader
	writer gateways.DocumentWriter
	signer gateways.DocumentSigner
	config SBOMOrchestratorConfig
	logger interfaces.Logger
}

// SBOMOrchestratorConfig holds project-wide settings shared by every target
type SBOMOrchestratorConfig struct {
	ProjectRoot     string // <repos_dir>/<repo_name>
	RepoName        string
	BomtraceVersion string
	BomshVersion    string
	NamespacePrefix string
	LibraryDirs     []string
	IncludeDirs     []string
	WriteChecksum   bool
}

// NewSBOMOrchestrator creates a new SBOM orchestrator. signer may be nil.
func NewSBOMOrchestrator(
	repo repositories.ProvenanceRepository,
	reader gateways.SourceReader,
	writer gateways.DocumentWriter,
	signer gateways.DocumentSigner,
	config SBOMOrchestratorConfig,
	logger interfaces.Logger,
) *SBOMOrchestrator {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &SBOMOrchestrator{
		repo:   repo,
		reader: reader,
		writer: writer,
		signer: signer,
		config: config,
		logger: logger,
	}
}

// GenerateRequest describes one target binary
type GenerateRequest struct {
	OutputPath      string
	BinaryName      string // defaults to the repository name
	DynlibDir       string // defaults to <bom_dir>/metadata
	Filter          entities.FilterMode
	ExcludeVendored bool
}

// Generate builds and writes the document for one binary and returns the written path.
// Missing required inputs yield an error wrapping ErrMissingInput. A failed run leaves no output file.
func (o *SBOMOrchestrator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	startTime := time.Now()
	if req.OutputPath == "" {
		return "", fmt.Errorf("output path cannot be empty")
	}
	binaryName := req.BinaryName
	if binaryName == "" {
		binaryName = o.config.RepoName
	}
	if binaryName == "" {
		return "", fmt.Errorf("binary name cannot be empty")
	}
	log := []interfaces.Field{interfaces.F("binary", binaryName)}

	// Step 1: Required inputs
	env, err := o.repo.LoadBuildEnvironment(ctx)
	if err != nil {
		o.logger.Error("component metadata unavailable", append(log, interfaces.F("error", err))...)
		return "", fmt.Errorf("%w: component metadata: %w", ErrMissingInput, err)
	}
	libs, err := o.repo.LoadDynamicLibraries(ctx, req.DynlibDir)
	if err != nil {
		o.logger.Error("dynamic library metadata unavailable", append(log, interfaces.F("error", err))...)
		return "", fmt.Errorf("%w: dynamic library metadata: %w", ErrMissingInput, err)
	}
	records, err := o.repo.LoadProvenanceGraph(ctx)
	if err != nil {
		o.logger.Error("provenance graph unavailable", append(log, interfaces.F("error", err))...)
		return "", fmt.Errorf("%w: provenance graph: %w", ErrMissingInput, err)
	}

	// Step 2: Optional inputs
	docMapping, err := o.repo.LoadDocumentMapping(ctx)
	if err != nil {
		o.logger.Warn("ignoring document mapping", interfaces.F("error", err))
		docMapping = map[string]string{}
	}
	outputHashes, err := o.repo.LoadBuildOutputHashes(ctx)
	if err != nil {
		o.logger.Warn("ignoring build output log", interfaces.F("error", err))
		outputHashes = map[string]string{}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// Step 3: Classify and resolve
	classifier := services.NewArtifactClassifier(services.ClassifierConfig{
		ProjectRoot: o.config.ProjectRoot,
		LibraryDirs: o.config.LibraryDirs,
		IncludeDirs: o.config.IncludeDirs,
	}, o.logger)
	set := classifier.Parse(records)
	components := services.NewComponentResolver(*env, o.logger).ResolveDynamicComponents(libs)

	o.logger.Info("inputs loaded", append(log,
		interfaces.F("records", set.Count()),
		interfaces.F("project_sources", len(set.Get(entities.ProjectSource))),
		interfaces.F("components", len(components)),
	)...)
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// Step 4: Emit
	emitter := services.NewDocumentEmitter(services.EmitterConfig{
		BinaryName:      binaryName,
		RepoName:        o.config.RepoName,
		ProjectVersion:  env.ProjectVersion,
		Distro:          env.Distro,
		CompilerBanner:  env.CompilerBanner,
		BomtraceVersion: o.config.BomtraceVersion,
		BomshVersion:    o.config.BomshVersion,
		NamespacePrefix: o.config.NamespacePrefix,
		ProjectRoot:     o.config.ProjectRoot,
	}, o.reader, o.logger)
	doc := emitter.Emit(services.EmitInput{
		Components:        components,
		ProjectFiles:      set.Get(entities.ProjectSource),
		Intermediates:     set.Get(entities.BuildIntermediate),
		DocumentMapping:   docMapping,
		BuildOutputHashes: outputHashes,
	}, services.EmitOptions{
		Filter:          req.Filter,
		IncludeVendored: !req.ExcludeVendored,
	})
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// Step 5: Write, then optional sidecars
	outputPath := filepath.Clean(req.OutputPath)
	if err := o.writer.WriteDocument(ctx, doc, outputPath); err != nil {
		return "", fmt.Errorf("failed to write document: %w", err)
	}
	if o.config.WriteChecksum {
		if _, err := o.writer.WriteChecksum(outputPath); err != nil {
			return "", o.discard(outputPath, fmt.Errorf("failed to write checksum: %w", err))
		}
	}
	if o.signer != nil {
		sigPath, err := o.signer.SignFile(ctx, outputPath)
		if err != nil {
			return "", o.discard(outputPath, fmt.Errorf("failed to sign document: %w", err))
		}
		o.logger.Debug("document signed", interfaces.F("signature", sigPath))
	}

	o.logger.Info("document written", append(log,
		interfaces.F("path", outputPath),
		interfaces.F("packages", len(doc.Packages)),
		interfaces.F("files", len(doc.Files)),
		interfaces.F("duration", time.Since(startTime).String()),
	)...)
	return outputPath, nil
}

// discard removes a written document whose sidecars could not be produced, so a failed
// Generate leaves nothing behind
func (o *SBOMOrchestrator) discard(outputPath string, cause error) error {
	if err := o.writer.RemoveDocument(outputPath); err != nil {
		o.logger.Warn("failed to remove incomplete document", interfaces.F("path", outputPath), interfaces.F("error", err))
	}
	return cause
}
