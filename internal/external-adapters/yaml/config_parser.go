// Package yaml provides YAML-based generator configuration parsing.
package yaml

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ochairo/sbomgen/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// yamlConfig represents the raw sbomgen.yml structure
type yamlConfig struct {
	BomDir          string       `yaml:"bom_dir"`
	ReposDir        string       `yaml:"repos_dir"`
	RepoName        string       `yaml:"repo_name"`
	BomtraceVersion string       `yaml:"bomtrace_version"`
	BomshVersion    string       `yaml:"bomsh_version"`
	NamespacePrefix string       `yaml:"namespace_prefix"`
	Concurrency     int          `yaml:"concurrency"`
	LibraryDirs     []string     `yaml:"library_dirs"`
	IncludeDirs     []string     `yaml:"include_dirs"`
	Signing         yamlSigning  `yaml:"signing"`
	Targets         []yamlTarget `yaml:"targets"`
}

type yamlSigning struct {
	KeyFile       string `yaml:"key_file"`
	PassphraseEnv string `yaml:"passphrase_env"`
}

type yamlTarget struct {
	Binary          string `yaml:"binary"`
	Output          string `yaml:"output"`
	DynlibDir       string `yaml:"dynlib_dir"`
	Filter          string `yaml:"filter"`
	IncludeVendored *bool  `yaml:"include_vendored"`
}

// ConfigParser parses sbomgen.yml files
type ConfigParser struct{}

// NewConfigParser creates a new YAML parser
func NewConfigParser() *ConfigParser {
	return &ConfigParser{}
}

// ParseFile parses a config file; relative paths are resolved against its directory
func (p *ConfigParser) ParseFile(filePath string) (*entities.GeneratorConfig, error) {
	//nolint:gosec // G304: filePath is the user-provided config path
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	cfg, err := p.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	resolvePaths(cfg, filepath.Dir(filePath))
	return cfg, nil
}

// Parse parses YAML bytes into a GeneratorConfig entity
func (p *ConfigParser) Parse(data []byte) (*entities.GeneratorConfig, error) {
	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Validate required fields
	if raw.BomDir == "" {
		return nil, fmt.Errorf("config must have a bom_dir")
	}
	if raw.RepoName == "" {
		return nil, fmt.Errorf("config must have a repo_name")
	}
	if raw.Concurrency < 0 {
		return nil, fmt.Errorf("concurrency must not be negative")
	}

	targets, err := convertTargets(raw.Targets)
	if err != nil {
		return nil, err
	}

	// Convert to domain entity
	return &entities.GeneratorConfig{
		BomDir:          raw.BomDir,
		ReposDir:        raw.ReposDir,
		RepoName:        raw.RepoName,
		BomtraceVersion: raw.BomtraceVersion,
		BomshVersion:    raw.BomshVersion,
		NamespacePrefix: raw.NamespacePrefix,
		Concurrency:     raw.Concurrency,
		LibraryDirs:     raw.LibraryDirs,
		IncludeDirs:     raw.IncludeDirs,
		Signing: entities.SigningConfig{
			KeyFile:       raw.Signing.KeyFile,
			PassphraseEnv: raw.Signing.PassphraseEnv,
		},
		Targets: targets,
	}, nil
}

func convertTargets(raw []yamlTarget) ([]entities.Target, error) {
	targets := make([]entities.Target, 0, len(raw))
	seen := make(map[string]bool)
	for i, yt := range raw {
		if yt.Output == "" {
			return nil, fmt.Errorf("target %d must have an output", i)
		}
		if seen[yt.Output] {
			return nil, fmt.Errorf("target %d: output %s is used by another target", i, yt.Output)
		}
		seen[yt.Output] = true

		filter, err := entities.ParseFilterMode(yt.Filter)
		if err != nil {
			return nil, fmt.Errorf("target %d: %w", i, err)
		}
		includeVendored := true
		if yt.IncludeVendored != nil {
			includeVendored = *yt.IncludeVendored
		}
		targets = append(targets, entities.Target{
			Binary:          yt.Binary,
			Output:          yt.Output,
			DynlibDir:       yt.DynlibDir,
			Filter:          filter,
			IncludeVendored: includeVendored,
		})
	}
	return targets, nil
}

func resolvePaths(cfg *entities.GeneratorConfig, base string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	cfg.BomDir = resolve(cfg.BomDir)
	cfg.ReposDir = resolve(cfg.ReposDir)
	cfg.Signing.KeyFile = resolve(cfg.Signing.KeyFile)
	for i := range cfg.Targets {
		cfg.Targets[i].Output = resolve(cfg.Targets[i].Output)
		cfg.Targets[i].DynlibDir = resolve(cfg.Targets[i].DynlibDir)
	}
}
