package gateways

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/ochairo/sbomgen/internal/domain/entities"
)

// DynamicLibsFile is the per-binary dynamic linkage snapshot name
const DynamicLibsFile = "dynamic_libs.json"

// TargetFinder discovers per-binary metadata directories below a metadata root
type TargetFinder struct{}

// NewTargetFinder creates a new target finder
func NewTargetFinder() *TargetFinder {
	return &TargetFinder{}
}

// FindTargets walks metaDir for dynamic_libs.json files and returns one target per file.
// The binary name comes from the file's "binary" field, else its directory name.
// Outputs are placed in outputDir as <binary>.spdx.json. Targets are sorted by binary.
func (f *TargetFinder) FindTargets(metaDir, outputDir string) ([]entities.Target, error) {
	if _, err := os.Stat(metaDir); err != nil {
		return nil, fmt.Errorf("metadata directory does not exist: %s", metaDir)
	}

	var targets []entities.Target
	err := filepath.WalkDir(metaDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != DynamicLibsFile {
			return nil
		}

		dir := filepath.Dir(path)
		binary := binaryName(path)
		if binary == "" {
			binary = filepath.Base(dir)
		}
		targets = append(targets, entities.Target{
			Binary:          binary,
			Output:          filepath.Join(outputDir, binary+".spdx.json"),
			DynlibDir:       dir,
			IncludeVendored: true,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(targets, func(i, j int) bool { return targets[i].Binary < targets[j].Binary })
	return targets, nil
}

func binaryName(path string) string {
	//nolint:gosec // G304: path found by walking the metadata directory
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var head struct {
		Binary string `json:"binary"`
	}
	if err := json.Unmarshal(data, &head); err != nil || head.Binary == "" {
		return ""
	}
	return filepath.Base(head.Binary)
}
