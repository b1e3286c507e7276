package services

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ochairo/sbomgen/internal/domain/entities"
	"github.com/ochairo/sbomgen/internal/domain/interfaces"
	"github.com/ochairo/sbomgen/internal/domain/interfaces/gateways"
)

// DefaultNamespacePrefix is used when no namespace prefix is configured
const DefaultNamespacePrefix = "https://omnibor.io/omnibor-analysis"

const (
	gccHomepage = "https://gcc.gnu.org/"
	gccSupplier = "Free Software Foundation"
	toolName    = "sbomgen"
)

// EmitterConfig describes the binary being documented and the tools that traced it
type EmitterConfig struct {
	BinaryName      string
	RepoName        string
	ProjectVersion  string
	Distro          string
	CompilerBanner  string
	BomtraceVersion string
	BomshVersion    string
	NamespacePrefix string
	ProjectRoot     string
}

// EmitOptions selects which components reach the document
type EmitOptions struct {
	Filter          entities.FilterMode
	IncludeVendored bool
}

// EmitInput is everything one document is assembled from
type EmitInput struct {
	Components        []entities.ComponentDescriptor
	ProjectFiles      []entities.ArtifactRecord
	Intermediates     []entities.ArtifactRecord
	DocumentMapping   map[string]string // content hash -> external document id
	BuildOutputHashes map[string]string // output path -> content hash
}

// DocumentEmitter assembles an SPDX document for one target binary
type DocumentEmitter struct {
	config   EmitterConfig
	grouper  *VendoredGrouper
	detector *VendoredVersionDetector
	logger   interfaces.Logger
	now      func() time.Time
	newToken func() string
}

// NewDocumentEmitter creates an emitter; reader serves vendored source lookups
func NewDocumentEmitter(config EmitterConfig, reader gateways.SourceReader, logger interfaces.Logger) *DocumentEmitter {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	if config.NamespacePrefix == "" {
		config.NamespacePrefix = DefaultNamespacePrefix
	}
	return &DocumentEmitter{
		config:   config,
		grouper:  NewVendoredGrouper(config.ProjectRoot, reader),
		detector: NewVendoredVersionDetector(reader),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newToken: func() string { return uuid.NewString() },
	}
}

// emission is the per-call state: one document and its id counter
type emission struct {
	doc *entities.Document
	ids IDCounter
}

func (em *emission) link(from string, t entities.RelationshipType, to string) {
	em.doc.Relationships = append(em.doc.Relationships, entities.Relationship{
		SPDXElementID:      from,
		RelationshipType:   t,
		RelatedSPDXElement: to,
	})
}

// Emit builds the document. Every call starts a fresh counter and namespace token.
func (e *DocumentEmitter) Emit(in EmitInput, opts EmitOptions) *entities.Document {
	created := e.now().Format("2006-01-02T15:04:05Z")
	em := &emission{doc: &entities.Document{
		SPDXVersion:       entities.SPDXVersion,
		DataLicense:       entities.SPDXDataLicense,
		SPDXID:            entities.SPDXDocumentID,
		Name:              e.config.BinaryName,
		DocumentNamespace: fmt.Sprintf("%s/%s-%s", strings.TrimRight(e.config.NamespacePrefix, "/"), e.config.BinaryName, e.newToken()),
		CreationInfo: entities.CreationInfo{
			Created: created,
			Creators: []string{
				"Tool: bomtrace3-" + orUnknown(e.config.BomtraceVersion),
				"Tool: bomsh-" + orUnknown(e.config.BomshVersion),
				"Tool: " + toolName,
			},
			LicenseListVersion: entities.LicenseListVersion,
		},
		Packages:      []entities.Package{},
		Files:         []entities.File{},
		Relationships: []entities.Relationship{},
	}}

	em.doc.Packages = append(em.doc.Packages, e.rootPackage(created, in.DocumentMapping, in.BuildOutputHashes))
	em.link(entities.SPDXDocumentID, entities.RelDescribes, RootPackageID)

	e.emitDynamic(em, in.Components, opts.Filter)
	e.emitToolchain(em, in.Intermediates)

	var groups []VendoredGroup
	own := in.ProjectFiles
	if opts.IncludeVendored {
		groups, own = e.grouper.Group(in.ProjectFiles)
	}
	owners := e.emitVendored(em, groups)
	e.emitFiles(em, own, groups, owners)

	e.logger.Debug("document assembled",
		interfaces.F("binary", e.config.BinaryName),
		interfaces.F("packages", len(em.doc.Packages)),
		interfaces.F("files", len(em.doc.Files)),
		interfaces.F("relationships", len(em.doc.Relationships)),
	)
	return em.doc
}

func (e *DocumentEmitter) rootPackage(created string, docMapping, outputHashes map[string]string) entities.Package {
	root := entities.Package{
		SPDXID:                RootPackageID,
		Name:                  e.config.BinaryName,
		DownloadLocation:      entities.NoAssertion,
		FilesAnalyzed:         true,
		PrimaryPackagePurpose: RootPurpose(e.config.BinaryName),
		BuiltDate:             created,
		ExternalRefs:          []entities.ExternalRef{},
		Comment:               fmt.Sprintf("Built on %s with %s", e.config.Distro, e.config.CompilerBanner),
	}
	if v := e.config.ProjectVersion; v != "" && v != "unknown" {
		root.VersionInfo = v
	}

	paths := make([]string, 0, len(outputHashes))
	for p := range outputHashes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if filepath.Base(p) != e.config.BinaryName {
			continue
		}
		hash := outputHashes[p]
		root.Checksums = append(root.Checksums, entities.Checksum{Algorithm: "SHA1", ChecksumValue: hash})
		if id := docMapping[hash]; id != "" {
			root.ExternalRefs = append(root.ExternalRefs, entities.ExternalRef{
				ReferenceCategory: "PERSISTENT-ID",
				ReferenceType:     "gitoid",
				ReferenceLocator:  "gitoid:blob:sha1:" + id,
			})
		}
		break
	}
	return root
}

// RootPurpose is LIBRARY for shared objects and APPLICATION otherwise
func RootPurpose(binaryName string) entities.Purpose {
	if strings.HasSuffix(binaryName, ".so") || strings.Contains(binaryName, ".so.") {
		return entities.PurposeLibrary
	}
	return entities.PurposeApplication
}

func (e *DocumentEmitter) emitDynamic(em *emission, components []entities.ComponentDescriptor, filter entities.FilterMode) {
	if filter == entities.FilterStaticOnly {
		return
	}
	for _, comp := range components {
		if filter == entities.FilterDirectOnly && !comp.Direct {
			continue
		}
		id := em.ids.Next(comp.Name)
		pkg := entities.Package{
			SPDXID:                id,
			Name:                  comp.Name,
			VersionInfo:           comp.RawVersion,
			DownloadLocation:      entities.NoAssertion,
			FilesAnalyzed:         false,
			PrimaryPackagePurpose: entities.PurposeLibrary,
			ExternalRefs:          []entities.ExternalRef{},
			Comment: fmt.Sprintf("Dynamically linked (%s). sonames: %s. dpkg: %s (%s)",
				comp.Linkage(), strings.Join(comp.Sonames, ", "), strings.Join(comp.OSPackages, ", "), comp.Architecture),
		}
		if comp.Homepage != "" {
			pkg.DownloadLocation = comp.Homepage
			pkg.Homepage = comp.Homepage
		}
		if comp.Supplier != "" {
			pkg.Supplier = "Organization: " + comp.Supplier
		}
		if comp.PackageURL != "" {
			pkg.ExternalRefs = append(pkg.ExternalRefs, entities.ExternalRef{
				ReferenceCategory: "PACKAGE-MANAGER",
				ReferenceType:     "purl",
				ReferenceLocator:  comp.PackageURL,
			})
		}
		if comp.CPE != "" {
			pkg.ExternalRefs = append(pkg.ExternalRefs, cpeRef(comp.CPE))
		}
		em.doc.Packages = append(em.doc.Packages, pkg)
		em.link(RootPackageID, entities.RelDynamicLink, id)
	}
}

func (e *DocumentEmitter) emitToolchain(em *emission, intermediates []entities.ArtifactRecord) {
	id := em.ids.Next("gcc")
	version := CompilerVersion(e.config.CompilerBanner)
	pkg := entities.Package{
		SPDXID:                id,
		Name:                  "gcc",
		VersionInfo:           version,
		Supplier:              "Organization: " + gccSupplier,
		DownloadLocation:      gccHomepage,
		Homepage:              gccHomepage,
		FilesAnalyzed:         false,
		PrimaryPackagePurpose: entities.PurposeApplication,
		ExternalRefs:          []entities.ExternalRef{cpeRef(fmt.Sprintf("cpe:2.3:a:gnu:gcc:%s:*:*:*:*:*:*:*", version))},
	}
	if drivers := CompilerDrivers(intermediates); len(drivers) > 0 {
		pkg.Comment = "Compiler drivers: " + strings.Join(drivers, ", ")
	}
	em.doc.Packages = append(em.doc.Packages, pkg)
	em.link(id, entities.RelBuildToolOf, RootPackageID)
}

// emitVendored adds one element per group and returns the element ids in group order.
// Group names are not unique (a split "foo-bar" can meet a vendored foo-bar directory).
func (e *DocumentEmitter) emitVendored(em *emission, groups []VendoredGroup) []string {
	owners := make([]string, 0, len(groups))
	for _, g := range groups {
		id := em.ids.Next(g.Name)
		owners = append(owners, id)

		version, heuristic := e.detector.DetectWithSource(g.Library, g.FilePaths())
		if version != "" {
			e.logger.Debug("vendored version detected",
				interfaces.F("library", g.Name),
				interfaces.F("version", version),
				interfaces.F("heuristic", heuristic),
			)
		}
		comment := fmt.Sprintf("Vendored/statically linked. %d source files compiled into %s", g.SourceFileCount(), e.config.BinaryName)
		if g.Parent != "" {
			comment += fmt.Sprintf(". Bundled inside %s", g.Parent)
		}
		em.doc.Packages = append(em.doc.Packages, entities.Package{
			SPDXID:                id,
			Name:                  g.Name,
			VersionInfo:           version,
			DownloadLocation:      entities.NoAssertion,
			FilesAnalyzed:         true,
			PrimaryPackagePurpose: entities.PurposeLibrary,
			ExternalRefs:          []entities.ExternalRef{},
			Comment:               comment,
		})
		em.link(RootPackageID, entities.RelStaticLink, id)
	}
	return owners
}

// emitFiles adds own files (owned by root) then each group's files (owned by the group)
func (e *DocumentEmitter) emitFiles(em *emission, own []entities.ArtifactRecord, groups []VendoredGroup, owners []string) {
	add := func(rec entities.ArtifactRecord, owner string) {
		if !isSourceFile(rec.FilePath) {
			return
		}
		id := em.ids.Next("File-" + filepath.Base(rec.FilePath))
		em.doc.Files = append(em.doc.Files, entities.File{
			SPDXID:    id,
			FileName:  e.relativePath(rec.FilePath),
			Checksums: []entities.Checksum{{Algorithm: "SHA1", ChecksumValue: rec.ContentHash}},
		})
		em.link(owner, entities.RelContains, id)
	}
	for _, rec := range own {
		add(rec, RootPackageID)
	}
	for i, g := range groups {
		for _, rec := range g.Files {
			add(rec, owners[i])
		}
	}
}

func (e *DocumentEmitter) relativePath(p string) string {
	root := e.config.ProjectRoot
	if root == "" || !under(p, root) {
		return p
	}
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return p
	}
	return rel
}

func cpeRef(locator string) entities.ExternalRef {
	return entities.ExternalRef{
		ReferenceCategory: "SECURITY",
		ReferenceType:     "cpe23Type",
		ReferenceLocator:  locator,
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
