package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ochairo/sbomgen/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/sbomgen/internal/domain-orchestrators"
	"github.com/ochairo/sbomgen/internal/domain/entities"
	"github.com/ochairo/sbomgen/internal/domain/interfaces"
	gwinterfaces "github.com/ochairo/sbomgen/internal/domain/interfaces/gateways"
	"github.com/ochairo/sbomgen/internal/external-adapters/bomsh"
	"github.com/ochairo/sbomgen/internal/external-adapters/logging"
	"github.com/ochairo/sbomgen/internal/external-adapters/yaml"
)

// projectFlags are shared by generate and batch and override sbomgen.yml
type projectFlags struct {
	bomDir          string
	reposDir        string
	repoName        string
	bomtraceVersion string
	bomshVersion    string
	namespacePrefix string
	signKey         string
	passphraseEnv   string
	checksum        bool
}

func (p *projectFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&p.bomDir, "bom-dir", "", "directory holding metadata/ from the instrumented build")
	f.StringVar(&p.reposDir, "repos-dir", "", "directory containing the cloned repository")
	f.StringVar(&p.repoName, "repo-name", "", "repository name; generate defaults it to --binary-name")
	f.StringVar(&p.bomtraceVersion, "bomtrace-version", "", "bomtrace3 version recorded in creators")
	f.StringVar(&p.bomshVersion, "bomsh-version", "", "bomsh version recorded in creators")
	f.StringVar(&p.namespacePrefix, "namespace-prefix", "", "documentNamespace prefix URI")
	f.StringVar(&p.signKey, "sign-key", "", "armored OpenPGP private key; writes <output>.asc")
	f.StringVar(&p.passphraseEnv, "passphrase-env", "", "environment variable holding the key passphrase")
	f.BoolVar(&p.checksum, "checksum", false, "write a <output>.sha256 sidecar")
}

// apply merges explicitly set flags and empty config values
func (p *projectFlags) apply(cmd *cobra.Command, cfg *entities.GeneratorConfig) {
	set := func(name string, dst *string, value string) {
		if cmd.Flags().Changed(name) || *dst == "" {
			if value != "" {
				*dst = value
			}
		}
	}
	set("bom-dir", &cfg.BomDir, p.bomDir)
	set("repos-dir", &cfg.ReposDir, p.reposDir)
	set("repo-name", &cfg.RepoName, p.repoName)
	set("bomtrace-version", &cfg.BomtraceVersion, p.bomtraceVersion)
	set("bomsh-version", &cfg.BomshVersion, p.bomshVersion)
	set("namespace-prefix", &cfg.NamespacePrefix, p.namespacePrefix)
	set("sign-key", &cfg.Signing.KeyFile, p.signKey)
	set("passphrase-env", &cfg.Signing.PassphraseEnv, p.passphraseEnv)
}

func loadConfig() (*entities.GeneratorConfig, error) {
	if configPath == "" {
		return &entities.GeneratorConfig{}, nil
	}
	cfg, err := yaml.NewConfigParser().ParseFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer) interfaces.Logger {
	return logging.NewSlogLogger(w, verbose)
}

// newOrchestrator wires the bomsh repository, cached source reader, writer and optional signer
func newOrchestrator(cfg *entities.GeneratorConfig, checksum bool, logger interfaces.Logger) (*orchestrators.SBOMOrchestrator, error) {
	if cfg.BomDir == "" {
		return nil, fmt.Errorf("--bom-dir is required")
	}
	// the project root is <repos-dir>/<repo-name>
	if cfg.ReposDir != "" && cfg.RepoName == "" {
		return nil, fmt.Errorf("--repos-dir needs --repo-name")
	}

	var signer gwinterfaces.DocumentSigner
	if cfg.Signing.KeyFile != "" {
		s, err := gateways.NewGPGSigner(cfg.Signing.KeyFile, cfg.Signing.PassphraseEnv)
		if err != nil {
			return nil, err
		}
		logger.Info("signing enabled", interfaces.F("fingerprint", s.Fingerprint()))
		signer = s
	}

	projectRoot := ""
	if cfg.ReposDir != "" && cfg.RepoName != "" {
		projectRoot = filepath.Join(cfg.ReposDir, cfg.RepoName)
	}

	return orchestrators.NewSBOMOrchestrator(
		bomsh.NewRepository(cfg.BomDir, logger),
		gateways.NewSourceReader(gateways.DefaultSourceCacheSize),
		gateways.NewDocumentWriter(),
		signer,
		orchestrators.SBOMOrchestratorConfig{
			ProjectRoot:     projectRoot,
			RepoName:        cfg.RepoName,
			BomtraceVersion: cfg.BomtraceVersion,
			BomshVersion:    cfg.BomshVersion,
			NamespacePrefix: cfg.NamespacePrefix,
			LibraryDirs:     cfg.LibraryDirs,
			IncludeDirs:     cfg.IncludeDirs,
			WriteChecksum:   checksum,
		},
		logger,
	), nil
}

func requestFor(t entities.Target) orchestrators.GenerateRequest {
	return orchestrators.GenerateRequest{
		OutputPath:      t.Output,
		BinaryName:      t.Binary,
		DynlibDir:       t.DynlibDir,
		Filter:          t.Filter,
		ExcludeVendored: !t.IncludeVendored,
	}
}
