package services

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ochairo/sbomgen/internal/domain/entities"
	"github.com/ochairo/sbomgen/internal/domain/interfaces"
)

const defaultArchitecture = "amd64"

// ComponentResolver groups dynamically linked libraries into upstream components
type ComponentResolver struct {
	env    entities.BuildEnvironment
	logger interfaces.Logger
}

// NewComponentResolver creates a resolver for one build environment
func NewComponentResolver(env entities.BuildEnvironment, logger interfaces.Logger) *ComponentResolver {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &ComponentResolver{env: env, logger: logger}
}

type sourceGroup struct {
	libs       []entities.DynamicLibrary
	direct     bool
	osPackages map[string]bool
}

// ResolveDynamicComponents groups sonames by upstream source package.
// Libraries without a Version field are skipped. Results are sorted by name.
func (r *ComponentResolver) ResolveDynamicComponents(libs *entities.DynamicLibraries) []entities.ComponentDescriptor {
	if libs == nil || len(libs.Libraries) == 0 {
		return []entities.ComponentDescriptor{}
	}

	groups := make(map[string]*sourceGroup)
	for _, lib := range libs.Libraries {
		if !lib.Metadata.HasVersion() {
			r.logger.Debug("skipping library without version", interfaces.F("soname", lib.Soname))
			continue
		}
		key := upstreamSource(lib)
		g, ok := groups[key]
		if !ok {
			g = &sourceGroup{osPackages: make(map[string]bool)}
			groups[key] = g
		}
		g.libs = append(g.libs, lib)
		if lib.Direct {
			g.direct = true
		}
		if lib.DpkgPackage != "" {
			g.osPackages[lib.DpkgPackage] = true
		}
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	components := make([]entities.ComponentDescriptor, 0, len(groups))
	for _, name := range names {
		components = append(components, r.describe(name, groups[name]))
	}
	return components
}

func (r *ComponentResolver) describe(source string, g *sourceGroup) entities.ComponentDescriptor {
	sort.Slice(g.libs, func(i, j int) bool { return g.libs[i].Soname < g.libs[j].Soname })
	meta := g.libs[0].Metadata

	sonames := make([]string, 0, len(g.libs))
	for _, lib := range g.libs {
		sonames = append(sonames, lib.Soname)
	}
	osPackages := make([]string, 0, len(g.osPackages))
	for pkg := range g.osPackages {
		osPackages = append(osPackages, pkg)
	}
	sort.Strings(osPackages)

	canonical := source
	if len(osPackages) > 0 {
		canonical = osPackages[0]
	}
	arch := meta.Architecture
	if arch == "" {
		arch = defaultArchitecture
	}
	cleaned := CleanVersion(meta.Version)

	return entities.ComponentDescriptor{
		Name:         source,
		RawVersion:   meta.Version,
		Version:      cleaned,
		Supplier:     assertedOrEmpty(meta.Maintainer),
		Homepage:     assertedOrEmpty(meta.Homepage),
		Architecture: arch,
		PackageURL:   r.PackageURL(canonical, meta.Version, arch),
		CPE:          MakeCPE(source, cleaned),
		Sonames:      sonames,
		Direct:       g.direct,
		OSPackages:   osPackages,
	}
}

// DistroCodename extracts "ubuntu-X.Y" from a free-text distro string, else "linux"
func (r *ComponentResolver) DistroCodename() string {
	return DistroCodename(r.env.Distro)
}

// PackageURL builds pkg:deb/ubuntu/<pkg>@<version>?arch=<arch>&distro=<codename>
func (r *ComponentResolver) PackageURL(pkg, version, arch string) string {
	return fmt.Sprintf("pkg:deb/ubuntu/%s@%s?arch=%s&distro=%s", pkg, version, arch, r.DistroCodename())
}

var ubuntuRelease = regexp.MustCompile(`ubuntu\s+([\d.]+)`)

// DistroCodename is the free-function form of ComponentResolver.DistroCodename
func DistroCodename(distro string) string {
	m := ubuntuRelease.FindStringSubmatch(strings.ToLower(distro))
	if m == nil {
		return "linux"
	}
	parts := strings.Split(strings.Trim(m[1], "."), ".")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return "ubuntu-" + strings.Join(parts, ".")
}

// MakeCPE builds a CPE 2.3 string with vendor and product both set to the source name
func MakeCPE(source, version string) string {
	id := strings.ReplaceAll(source, "-", "_")
	return fmt.Sprintf("cpe:2.3:a:%s:%s:%s:*:*:*:*:*:*:*", id, id, version)
}

var (
	epochPrefix   = regexp.MustCompile(`^\d+:`)
	dfsgSuffix    = regexp.MustCompile(`[.+~]dfsg.*$`)
	ubuntuSuffix  = regexp.MustCompile(`-\d+ubuntu.*$`)
	buildSuffix   = regexp.MustCompile(`-\d+build.*$`)
	debianRevTail = regexp.MustCompile(`-\d+$`)
)

// CleanVersion strips distro decorations from a package version:
// a leading epoch, then +dfsg, -Nubuntu, -Nbuild and trailing -N suffixes.
// It is applied to a fixed point, so CleanVersion(CleanVersion(v)) == CleanVersion(v).
func CleanVersion(raw string) string {
	v := strings.TrimSpace(raw)
	for {
		// every effective pass shortens v, so this terminates
		next := strings.TrimSpace(cleanOnce(v))
		if next == v || next == "" {
			return v
		}
		v = next
	}
}

func cleanOnce(v string) string {
	v = epochPrefix.ReplaceAllString(v, "")
	v = dfsgSuffix.ReplaceAllString(v, "")
	v = ubuntuSuffix.ReplaceAllString(v, "")
	v = buildSuffix.ReplaceAllString(v, "")
	return debianRevTail.ReplaceAllString(v, "")
}

// upstreamSource picks the grouping key: entry source, dpkg Source field,
// dpkg package, then soname
func upstreamSource(lib entities.DynamicLibrary) string {
	for _, candidate := range []string{lib.Source, lib.Metadata.Source, lib.DpkgPackage} {
		if name := stripSourceVersion(candidate); name != "" {
			return name
		}
	}
	return lib.Soname
}

// stripSourceVersion turns a dpkg Source value like "zlib (1:1.2.11)" into "zlib"
func stripSourceVersion(s string) string {
	if i := strings.Index(s, " ("); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func assertedOrEmpty(s string) string {
	s = strings.TrimSpace(s)
	if s == entities.NoAssertion {
		return ""
	}
	return s
}
