package entities

// PackageMetadata holds the dpkg fields recorded for one OS package.
// Empty strings mean the field was absent.
type PackageMetadata struct {
	Package      string `json:"Package,omitempty"`
	Version      string `json:"Version,omitempty"`
	Source       string `json:"Source,omitempty"`
	Maintainer   string `json:"Maintainer,omitempty"`
	Homepage     string `json:"Homepage,omitempty"`
	Architecture string `json:"Architecture,omitempty"`
}

// HasVersion reports whether the Version field was present
func (m PackageMetadata) HasVersion() bool {
	return m.Version != ""
}

// DynamicLibrary is the precomputed OS-package resolution of one soname
type DynamicLibrary struct {
	Soname      string          `json:"-"`
	Path        string          `json:"path"`
	RealPath    string          `json:"real_path"`
	Direct      bool            `json:"direct"`
	DpkgPackage string          `json:"dpkg_package"`
	Source      string          `json:"source"`
	Metadata    PackageMetadata `json:"metadata"`
}

// DynamicLibraries is the per-binary dynamic linkage snapshot
type DynamicLibraries struct {
	Binary       string
	DirectNeeded []string
	Libraries    []DynamicLibrary
}

// BuildEnvironment describes the host the project was built on
type BuildEnvironment struct {
	Distro         string
	CompilerBanner string // first line of `gcc --version`
	ProjectVersion string
}

// ComponentDescriptor is one upstream source package resolved from dynamic libraries
type ComponentDescriptor struct {
	Name         string
	RawVersion   string
	Version      string // RawVersion with distro decorations removed
	Supplier     string
	Homepage     string
	Architecture string
	PackageURL   string
	CPE          string
	Sonames      []string
	Direct       bool
	OSPackages   []string
}

// Linkage returns "direct" or "transitive"
func (c ComponentDescriptor) Linkage() string {
	if c.Direct {
		return "direct"
	}
	return "transitive"
}
