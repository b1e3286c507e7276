package entities

// SPDX constants used by the emitter
const (
	SPDXVersion        = "SPDX-2.3"
	SPDXDataLicense    = "CC0-1.0"
	SPDXDocumentID     = "SPDXRef-DOCUMENT"
	LicenseListVersion = "3.19"
	NoAssertion        = "NOASSERTION"
)

// Purpose is an SPDX primaryPackagePurpose value
type Purpose string

// Package purposes
const (
	PurposeApplication Purpose = "APPLICATION"
	PurposeLibrary     Purpose = "LIBRARY"
)

// RelationshipType is an SPDX relationship type
type RelationshipType string

// Relationship types emitted by the generator
const (
	RelDescribes   RelationshipType = "DESCRIBES"
	RelDynamicLink RelationshipType = "DYNAMIC_LINK"
	RelStaticLink  RelationshipType = "STATIC_LINK"
	RelBuildToolOf RelationshipType = "BUILD_TOOL_OF"
	RelContains    RelationshipType = "CONTAINS"
)

// Document is an SPDX 2.3 JSON document
type Document struct {
	SPDXVersion       string         `json:"spdxVersion"`
	DataLicense       string         `json:"dataLicense"`
	SPDXID            string         `json:"SPDXID"`
	Name              string         `json:"name"`
	DocumentNamespace string         `json:"documentNamespace"`
	CreationInfo      CreationInfo   `json:"creationInfo"`
	Packages          []Package      `json:"packages"`
	Files             []File         `json:"files"`
	Relationships     []Relationship `json:"relationships"`
}

// CreationInfo records who produced the document and when
type CreationInfo struct {
	Created            string   `json:"created"`
	Creators           []string `json:"creators"`
	LicenseListVersion string   `json:"licenseListVersion,omitempty"`
}

// Package is a package-level document element
type Package struct {
	SPDXID                string        `json:"SPDXID"`
	Name                  string        `json:"name"`
	VersionInfo           string        `json:"versionInfo,omitempty"`
	Supplier              string        `json:"supplier,omitempty"`
	DownloadLocation      string        `json:"downloadLocation"`
	Homepage              string        `json:"homepage,omitempty"`
	FilesAnalyzed         bool          `json:"filesAnalyzed"`
	PrimaryPackagePurpose Purpose       `json:"primaryPackagePurpose"`
	BuiltDate             string        `json:"builtDate,omitempty"`
	Checksums             []Checksum    `json:"checksums,omitempty"`
	ExternalRefs          []ExternalRef `json:"externalRefs"`
	Comment               string        `json:"comment,omitempty"`
}

// File is a file-level document element
type File struct {
	SPDXID    string     `json:"SPDXID"`
	FileName  string     `json:"fileName"`
	Checksums []Checksum `json:"checksums"`
}

// Checksum is an algorithm/value pair
type Checksum struct {
	Algorithm     string `json:"algorithm"`
	ChecksumValue string `json:"checksumValue"`
}

// ExternalRef points at an identifier outside the document
type ExternalRef struct {
	ReferenceCategory string `json:"referenceCategory"`
	ReferenceType     string `json:"referenceType"`
	ReferenceLocator  string `json:"referenceLocator"`
}

// Relationship is a typed edge between two element ids
type Relationship struct {
	SPDXElementID      string           `json:"spdxElementId"`
	RelationshipType   RelationshipType `json:"relationshipType"`
	RelatedSPDXElement string           `json:"relatedSpdxElement"`
}

// ElementIDs returns the ids of every element, including the document itself
func (d *Document) ElementIDs() map[string]bool {
	ids := make(map[string]bool, len(d.Packages)+len(d.Files)+1)
	ids[d.SPDXID] = true
	for _, p := range d.Packages {
		ids[p.SPDXID] = true
	}
	for _, f := range d.Files {
		ids[f.SPDXID] = true
	}
	return ids
}

// CountRelationships counts edges of one type
func (d *Document) CountRelationships(t RelationshipType) int {
	n := 0
	for _, r := range d.Relationships {
		if r.RelationshipType == t {
			n++
		}
	}
	return n
}

// FindPackage returns the first package with the given name
func (d *Document) FindPackage(name string) (Package, bool) {
	for _, p := range d.Packages {
		if p.Name == name {
			return p, true
		}
	}
	return Package{}, false
}
