package entities

import "fmt"

// FilterMode selects which dynamic components reach the document
type FilterMode int

// Filter modes
const (
	FilterAll FilterMode = iota
	FilterDirectOnly
	FilterStaticOnly
)

// String returns the CLI/config spelling of the mode
func (m FilterMode) String() string {
	switch m {
	case FilterAll:
		return "all"
	case FilterDirectOnly:
		return "direct-only"
	case FilterStaticOnly:
		return "static-only"
	default:
		return "unknown"
	}
}

// ParseFilterMode parses a filter mode; the empty string means FilterAll
func ParseFilterMode(s string) (FilterMode, error) {
	switch s {
	case "", "all":
		return FilterAll, nil
	case "direct-only", "direct":
		return FilterDirectOnly, nil
	case "static-only", "static":
		return FilterStaticOnly, nil
	default:
		return FilterAll, fmt.Errorf("unknown filter mode: %q (supported: all, direct-only, static-only)", s)
	}
}

// GeneratorConfig is the project-wide generator configuration from sbomgen.yml
type GeneratorConfig struct {
	BomDir          string
	ReposDir        string
	RepoName        string
	BomtraceVersion string
	BomshVersion    string
	NamespacePrefix string
	Concurrency     int
	LibraryDirs     []string
	IncludeDirs     []string
	Signing         SigningConfig
	Targets         []Target
}

// SigningConfig locates the OpenPGP key used to sign generated documents
type SigningConfig struct {
	KeyFile       string
	PassphraseEnv string
}

// Target is one binary to generate a document for
type Target struct {
	Binary          string
	Output          string
	DynlibDir       string
	Filter          FilterMode
	IncludeVendored bool
}
