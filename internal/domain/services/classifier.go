package services

import (
	"bufio"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/ochairo/sbomgen/internal/domain/entities"
	"github.com/ochairo/sbomgen/internal/domain/interfaces"
)

// Default host directories used when the configuration does not override them
var (
	DefaultLibraryDirs = []string{"/usr/lib", "/usr/lib64", "/usr/local/lib", "/lib", "/lib64"}
	DefaultIncludeDirs = []string{"/usr/include", "/usr/local/include"}
)

// ArtifactClassifier partitions provenance records by path rules
type ArtifactClassifier struct {
	projectRoot string
	libraryDirs []string
	includeDirs []string
	logger      interfaces.Logger
}

// ClassifierConfig holds the directory rules for classification
type ClassifierConfig struct {
	ProjectRoot string
	LibraryDirs []string
	IncludeDirs []string
}

// NewArtifactClassifier creates a classifier; empty dir lists fall back to the defaults
func NewArtifactClassifier(config ClassifierConfig, logger interfaces.Logger) *ArtifactClassifier {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	libDirs := config.LibraryDirs
	if len(libDirs) == 0 {
		libDirs = DefaultLibraryDirs
	}
	incDirs := config.IncludeDirs
	if len(incDirs) == 0 {
		incDirs = DefaultIncludeDirs
	}
	return &ArtifactClassifier{
		projectRoot: config.ProjectRoot,
		libraryDirs: libDirs,
		includeDirs: incDirs,
		logger:      logger,
	}
}

// Parse classifies every record with a non-empty path; empty-path records are dropped
func (c *ArtifactClassifier) Parse(records []entities.ArtifactRecord) *entities.ClassifiedArtifactSet {
	set := entities.NewClassifiedArtifactSet()
	dropped := 0
	for _, rec := range records {
		if rec.FilePath == "" {
			dropped++
			continue
		}
		set.Add(c.Classify(rec.FilePath), rec)
	}
	set.Sort()

	if dropped > 0 {
		c.logger.Debug("dropped provenance records without a path", interfaces.F("count", dropped))
	}
	return set
}

// Classify returns the category for a single non-empty path
func (c *ArtifactClassifier) Classify(filePath string) entities.Category {
	switch {
	case underAny(filePath, c.libraryDirs):
		base := path.Base(filePath)
		if strings.HasPrefix(base, "crt") && strings.HasSuffix(base, ".o") {
			return entities.CRuntimeObject
		}
		// .so, .so.N, .a and any other object under a library dir
		return entities.SystemLibrary
	case underAny(filePath, c.includeDirs):
		return entities.SystemHeader
	case c.projectRoot != "" && under(filePath, c.projectRoot):
		if strings.HasSuffix(filePath, ".o") {
			return entities.BuildIntermediate
		}
		return entities.ProjectSource
	default:
		return entities.SystemHeader
	}
}

var buildOutputLine = regexp.MustCompile(`^outfile:\s+([0-9a-f]{40})\s+path:\s+(.+)$`)

// ParseBuildOutputLog reads "outfile: <40-hex> path: <path>" lines into path -> hash.
// Lines of any other shape are ignored.
func ParseBuildOutputLog(r io.Reader) map[string]string {
	hashes := make(map[string]string)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		m := buildOutputLine.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		hashes[m[2]] = m[1]
	}
	// A read error truncates the log; what was parsed so far is still usable.
	return hashes
}

func underAny(p string, dirs []string) bool {
	for _, d := range dirs {
		if under(p, d) {
			return true
		}
	}
	return false
}

// under reports whether p is dir itself or inside it, matching whole path segments
func under(p, dir string) bool {
	dir = strings.TrimRight(dir, "/")
	if dir == "" {
		return strings.HasPrefix(p, "/")
	}
	return p == dir || strings.HasPrefix(p, dir+"/")
}
