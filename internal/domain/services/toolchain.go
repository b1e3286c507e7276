package services

import (
	"path/filepath"
	"regexp"
	"sort"

	"github.com/google/shlex"

	"github.com/ochairo/sbomgen/internal/domain/entities"
)

var (
	compilerDriver = regexp.MustCompile(`^(?:[\w.]+-)*(gcc|g\+\+|cc|c\+\+|clang|clang\+\+)(?:-\d+(?:\.\d+)*)?$`)
	tripleVersion  = regexp.MustCompile(`\d+\.\d+\.\d+`)
)

// CompilerDrivers lists the distinct compiler drivers invoked by the recorded build commands
func CompilerDrivers(records []entities.ArtifactRecord) []string {
	seen := make(map[string]bool)
	for _, rec := range records {
		if rec.BuildCommand == "" {
			continue
		}
		tokens, err := shlex.Split(rec.BuildCommand)
		if err != nil {
			continue
		}
		for _, tok := range tokens {
			base := filepath.Base(tok)
			if compilerDriver.MatchString(base) {
				seen[base] = true
				break
			}
		}
	}
	drivers := make([]string, 0, len(seen))
	for d := range seen {
		drivers = append(drivers, d)
	}
	sort.Strings(drivers)
	return drivers
}

// CompilerVersion extracts the first X.Y.Z from a `gcc --version` banner, else returns the banner
func CompilerVersion(banner string) string {
	if v := tripleVersion.FindString(banner); v != "" {
		return v
	}
	return banner
}
