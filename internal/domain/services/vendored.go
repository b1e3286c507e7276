package services

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ochairo/sbomgen/internal/domain/entities"
	"github.com/ochairo/sbomgen/internal/domain/interfaces/gateways"
)

// VendoredMarkers are directory names that hold third-party source copied into a project
var VendoredMarkers = []string{"deps", "vendor", "third_party", "thirdparty", "external", "contrib"}

// VendoredGroup is one statically linked third-party library found in the project tree
type VendoredGroup struct {
	Name    string // element name: "lua" or, for a bundled sub-component, "lua-cjson"
	Library string // name used to derive macro prefixes: "lua" or "cjson"
	Parent  string // enclosing group for sub-components
	Files   []entities.ArtifactRecord
}

// SourceFileCount counts the files that survive the source allow-list
func (g VendoredGroup) SourceFileCount() int {
	n := 0
	for _, f := range g.Files {
		if isSourceFile(f.FilePath) {
			n++
		}
	}
	return n
}

// FilePaths returns the paths of all files in the group
func (g VendoredGroup) FilePaths() []string {
	paths := make([]string, 0, len(g.Files))
	for _, f := range g.Files {
		paths = append(paths, f.FilePath)
	}
	return paths
}

// VendoredGrouper partitions project sources into vendored libraries and own files
type VendoredGrouper struct {
	projectRoot string
	reader      gateways.SourceReader
}

// NewVendoredGrouper creates a grouper; marker search starts below projectRoot
func NewVendoredGrouper(projectRoot string, reader gateways.SourceReader) *VendoredGrouper {
	return &VendoredGrouper{projectRoot: projectRoot, reader: reader}
}

// Group returns vendored groups (sub-components split out, sorted by name) and the remaining own files
func (g *VendoredGrouper) Group(files []entities.ArtifactRecord) ([]VendoredGroup, []entities.ArtifactRecord) {
	raw := make(map[string][]entities.ArtifactRecord)
	var order []string
	own := make([]entities.ArtifactRecord, 0, len(files))

	for _, f := range files {
		lib := g.vendoredLibrary(f.FilePath)
		if lib == "" {
			own = append(own, f)
			continue
		}
		if _, ok := raw[lib]; !ok {
			order = append(order, lib)
		}
		raw[lib] = append(raw[lib], f)
	}

	groups := make([]VendoredGroup, 0, len(order))
	for _, lib := range order {
		groups = append(groups, g.split(lib, raw[lib])...)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, own
}

// vendoredLibrary returns the path segment right after the first vendored marker, or ""
func (g *VendoredGrouper) vendoredLibrary(filePath string) string {
	rel := filePath
	if g.projectRoot != "" && under(filePath, g.projectRoot) {
		rel = strings.TrimPrefix(filePath, strings.TrimRight(g.projectRoot, "/"))
	}
	for _, marker := range VendoredMarkers {
		needle := "/" + marker + "/"
		idx := strings.Index(rel, needle)
		if idx < 0 {
			continue
		}
		lib, _, _ := strings.Cut(rel[idx+len(needle):], "/")
		if lib != "" {
			return lib
		}
	}
	return ""
}

var versionDefine = regexp.MustCompile(`(?m)^\s*#\s*define\s+([A-Za-z][A-Za-z0-9_]*?)_(?:VERSION|RELEASE)\s+"`)

// split moves files that carry another library's version define into "<parent>-<sub>" groups.
// The first version define in a file decides; files without one follow a sub-component
// whose name appears in their file name.
func (g *VendoredGrouper) split(parent string, files []entities.ArtifactRecord) []VendoredGroup {
	parentKey := normalizeLibraryName(parent)
	assigned := make([]string, len(files))
	hasDefine := make([]bool, len(files))
	var subKeys []string

	for i, f := range files {
		key, ok := g.definePrefix(f.FilePath)
		if !ok {
			continue
		}
		hasDefine[i] = true
		if key == "" || sameLibrary(key, parentKey) {
			continue
		}
		if !containsString(subKeys, key) {
			subKeys = append(subKeys, key)
		}
		assigned[i] = key
	}

	if len(subKeys) == 0 {
		return []VendoredGroup{{Name: parent, Library: parent, Files: files}}
	}

	for i, f := range files {
		if assigned[i] != "" || hasDefine[i] {
			continue
		}
		stem := normalizeLibraryName(strings.TrimSuffix(filepath.Base(f.FilePath), filepath.Ext(f.FilePath)))
		for _, key := range subKeys {
			if len(key) >= 3 && strings.Contains(stem, key) {
				assigned[i] = key
				break
			}
		}
	}

	subFiles := make(map[string][]entities.ArtifactRecord, len(subKeys))
	var parentFiles []entities.ArtifactRecord
	for i, f := range files {
		if assigned[i] == "" {
			parentFiles = append(parentFiles, f)
			continue
		}
		subFiles[assigned[i]] = append(subFiles[assigned[i]], f)
	}

	groups := make([]VendoredGroup, 0, len(subKeys)+1)
	if len(parentFiles) > 0 {
		groups = append(groups, VendoredGroup{Name: parent, Library: parent, Files: parentFiles})
	}
	for _, key := range subKeys {
		groups = append(groups, VendoredGroup{
			Name:    parent + "-" + key,
			Library: key,
			Parent:  parent,
			Files:   subFiles[key],
		})
	}
	return groups
}

// definePrefix returns the normalized prefix of the first version define in a source file
func (g *VendoredGrouper) definePrefix(path string) (string, bool) {
	if g.reader == nil || !isSourceFile(path) {
		return "", false
	}
	data, err := g.reader.ReadFile(path)
	if err != nil {
		return "", false
	}
	m := versionDefine.FindSubmatch(data)
	if m == nil {
		return "", false
	}
	return normalizeLibraryName(string(m[1])), true
}

// normalizeLibraryName lower-cases and drops everything but letters and digits
func normalizeLibraryName(name string) string {
	return strings.ToLower(DefinePrefix(name))
}

func sameLibrary(a, b string) bool {
	return a == b || strings.TrimPrefix(a, "lib") == strings.TrimPrefix(b, "lib")
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
