package services

import (
	"bufio"
	"bytes"
	"path/filepath"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ochairo/sbomgen/internal/domain/interfaces/gateways"
)

// definePatternCacheSize bounds the compiled per-prefix define patterns kept by one detector
const definePatternCacheSize = 256

// versionHeuristic inspects a library's files and returns a version, or "" on a miss
type versionHeuristic struct {
	name string
	run  func(d *VendoredVersionDetector, lib string, files []string) string
}

// VendoredVersionDetector recovers versions of vendored libraries from their source tree.
// Heuristics run in order and the first hit wins; a failing read is just a miss.
type VendoredVersionDetector struct {
	reader     gateways.SourceReader
	heuristics []versionHeuristic
	patterns   *lru.Cache[string, *regexp.Regexp]
}

// NewVendoredVersionDetector creates a detector reading through reader
func NewVendoredVersionDetector(reader gateways.SourceReader) *VendoredVersionDetector {
	// lru.New only fails for a non-positive size
	patterns, _ := lru.New[string, *regexp.Regexp](definePatternCacheSize)
	return &VendoredVersionDetector{
		reader:   reader,
		patterns: patterns,
		heuristics: []versionHeuristic{
			{"version-file", (*VendoredVersionDetector).fromVersionFile},
			{"release-define", (*VendoredVersionDetector).fromReleaseDefine},
			{"major-minor-defines", (*VendoredVersionDetector).fromMajorMinorDefines},
			{"header-comment", (*VendoredVersionDetector).fromHeaderComment},
			{"pkg-config", (*VendoredVersionDetector).fromPkgConfigTemplate},
		},
	}
}

// Detect returns the version of libraryName, or "" when no heuristic matches
func (d *VendoredVersionDetector) Detect(libraryName string, candidateFiles []string) string {
	v, _ := d.DetectWithSource(libraryName, candidateFiles)
	return v
}

// DetectWithSource is Detect plus the name of the heuristic that matched
func (d *VendoredVersionDetector) DetectWithSource(libraryName string, candidateFiles []string) (string, string) {
	if d.reader == nil || libraryName == "" || len(candidateFiles) == 0 {
		return "", ""
	}
	files := orderHeadersFirst(candidateFiles)
	for _, h := range d.heuristics {
		if v := h.run(d, libraryName, files); v != "" {
			return v, h.name
		}
	}
	return "", ""
}

// DefinePrefix derives the macro prefix for a library: upper-cased, non-alphanumerics stripped
func DefinePrefix(libraryName string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(libraryName) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var dottedVersion = regexp.MustCompile(`\d+(?:\.\d+)+`)

// fromVersionFile reads VERSION in the library root: first line, cut at the first '-'
func (d *VendoredVersionDetector) fromVersionFile(lib string, files []string) string {
	root := libraryRoot(lib, files)
	if root == "" {
		return ""
	}
	return d.parseVersionFile(filepath.Join(root, "VERSION"))
}

func (d *VendoredVersionDetector) parseVersionFile(path string) string {
	data, err := d.reader.ReadFile(path)
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(string(data), "\n")
	line = strings.TrimSpace(line)
	line, _, _ = strings.Cut(line, "-")
	return strings.TrimSpace(line)
}

// fromReleaseDefine matches #define <PREFIX>_RELEASE / <PREFIX>_VERSION "… X.Y[.Z] …"
func (d *VendoredVersionDetector) fromReleaseDefine(lib string, files []string) string {
	prefix := DefinePrefix(lib)
	if prefix == "" {
		return ""
	}
	for _, f := range files {
		if !isSourceFile(f) {
			continue
		}
		if v := d.parseHeaderDefines(f, prefix); v != "" {
			return v
		}
	}
	return ""
}

func (d *VendoredVersionDetector) parseHeaderDefines(path, prefix string) string {
	data, err := d.reader.ReadFile(path)
	if err != nil {
		return ""
	}
	for _, suffix := range []string{"RELEASE", "VERSION"} {
		re := d.pattern(`(?m)^\s*#\s*define\s+` + regexp.QuoteMeta(prefix) + `_` + suffix + `\s+"([^"]*)"`)
		for _, m := range re.FindAllSubmatch(data, -1) {
			if v := dottedVersion.Find(m[1]); v != nil {
				return string(v)
			}
		}
	}
	return ""
}

var (
	anyMajorDefine = regexp.MustCompile(`(?m)^\s*#\s*define\s+(\w+?)_MAJOR\s+(\d+)\b`)
	numericToken   = regexp.MustCompile(`^\d+$`)
)

// fromMajorMinorDefines composes MAJOR.MINOR[.PATCH] from numeric defines
func (d *VendoredVersionDetector) fromMajorMinorDefines(lib string, files []string) string {
	prefix := DefinePrefix(lib)
	for _, f := range files {
		if !isSourceFile(f) {
			continue
		}
		data, err := d.reader.ReadFile(f)
		if err != nil {
			continue
		}
		if prefix != "" {
			if v := d.composeVersion(data, prefix+`_(?:VERSION_)?`, `(?:PATCH|RELEASE)`); v != "" {
				return v
			}
		}
		// Fall back to any MAJOR/MINOR pair sharing one prefix; only PATCH counts then.
		for _, m := range anyMajorDefine.FindAllSubmatch(data, -1) {
			if v := d.composeVersion(data, regexp.QuoteMeta(string(m[1]))+`_`, `PATCH`); v != "" {
				return v
			}
		}
	}
	return ""
}

func (d *VendoredVersionDetector) composeVersion(data []byte, stem, patchSuffix string) string {
	major := d.defineValue(data, stem+`MAJOR`)
	minor := d.defineValue(data, stem+`MINOR`)
	if !numericToken.MatchString(major) || !numericToken.MatchString(minor) {
		return ""
	}
	version := major + "." + minor
	if patch := d.defineValue(data, stem+patchSuffix); numericToken.MatchString(patch) {
		version += "." + patch
	}
	return version
}

func (d *VendoredVersionDetector) defineValue(data []byte, namePattern string) string {
	m := d.pattern(`(?m)^\s*#\s*define\s+` + namePattern + `\s+(\S+)`).FindSubmatch(data)
	if m == nil {
		return ""
	}
	return string(m[1])
}

var commentVersion = regexp.MustCompile(`\bVERSION\s+(\d+(?:\.\d+)+)`)

// pattern returns the compiled expression, compiling each distinct one once per detector.
// Callers only pass prefixes run through QuoteMeta or DefinePrefix, so compilation cannot fail.
func (d *VendoredVersionDetector) pattern(expr string) *regexp.Regexp {
	if re, ok := d.patterns.Get(expr); ok {
		return re
	}
	re := regexp.MustCompile(expr)
	d.patterns.Add(expr, re)
	return re
}

// fromHeaderComment looks for "VERSION X.Y" in the leading block comment of a header
func (d *VendoredVersionDetector) fromHeaderComment(_ string, files []string) string {
	for _, f := range files {
		if !isHeaderFile(f) {
			continue
		}
		if v := d.parseHeaderComment(f); v != "" {
			return v
		}
	}
	return ""
}

func (d *VendoredVersionDetector) parseHeaderComment(path string) string {
	data, err := d.reader.ReadFile(path)
	if err != nil {
		return ""
	}
	data = bytes.TrimLeft(data, " \t\r\n")
	if !bytes.HasPrefix(data, []byte("/*")) {
		return ""
	}
	end := bytes.Index(data, []byte("*/"))
	if end < 0 {
		end = len(data)
	}
	if m := commentVersion.FindSubmatch(data[:end]); m != nil {
		return string(m[1])
	}
	return ""
}

// fromPkgConfigTemplate reads "Version:" from a *.pc.in next to the candidate files
func (d *VendoredVersionDetector) fromPkgConfigTemplate(lib string, files []string) string {
	seen := make(map[string]bool)
	dirs := make([]string, 0, len(files)+1)
	if root := libraryRoot(lib, files); root != "" {
		dirs = append(dirs, root)
	}
	for _, f := range files {
		dirs = append(dirs, filepath.Dir(f))
	}
	for _, dir := range dirs {
		if seen[dir] {
			continue
		}
		seen[dir] = true
		matches, err := d.reader.Glob(filepath.Join(dir, "*.pc.in"))
		if err != nil {
			continue
		}
		for _, pc := range matches {
			if v := d.parsePkgConfig(pc); v != "" {
				return v
			}
		}
	}
	return ""
}

func (d *VendoredVersionDetector) parsePkgConfig(path string) string {
	data, err := d.reader.ReadFile(path)
	if err != nil {
		return ""
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok || strings.TrimSpace(key) != "Version" {
			continue
		}
		value = strings.TrimSpace(value)
		// unsubstituted templates like @VERSION@ carry no information
		if value == "" || strings.Contains(value, "@") {
			continue
		}
		return value
	}
	return ""
}

// libraryRoot is the nearest ancestor directory of any candidate named like the library
func libraryRoot(lib string, files []string) string {
	for _, f := range files {
		dir := filepath.Dir(f)
		for {
			if strings.EqualFold(filepath.Base(dir), lib) {
				return dir
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	return ""
}

func orderHeadersFirst(files []string) []string {
	ordered := make([]string, 0, len(files))
	for _, f := range files {
		if isHeaderFile(f) {
			ordered = append(ordered, f)
		}
	}
	for _, f := range files {
		if !isHeaderFile(f) {
			ordered = append(ordered, f)
		}
	}
	return ordered
}
