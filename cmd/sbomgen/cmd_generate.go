package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ochairo/sbomgen/internal/domain/entities"
)

func newGenerateCmd() *cobra.Command {
	var (
		project    projectFlags
		output     string
		binaryName string
		dynlibDir  string
		directOnly bool
		staticOnly bool
		noVendored bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the SPDX document for one binary",
		Long: `Generate the SPDX document for one binary.

Required inputs under <bom-dir>/metadata:
  bomsh/bomsh_omnibor_treedb   artifact dependency graph
  component_metadata.json      distro and compiler information
  dynamic_libs.json            OS package metadata (or --dynlib-dir)

Examples:
  # Executable
  sbomgen generate --bom-dir /bom --repos-dir /repos --repo-name curl --output curl.spdx.json

  # Shared library with its own dynamic_libs.json, direct dependencies only
  sbomgen generate --bom-dir /bom --repos-dir /repos --repo-name curl \
    --binary-name libcurl.so --dynlib-dir /bom/metadata/libcurl \
    --direct-only --output libcurl.spdx.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			project.apply(cmd, cfg)
			if cfg.RepoName == "" {
				cfg.RepoName = binaryName
			}

			filter := entities.FilterAll
			switch {
			case directOnly:
				filter = entities.FilterDirectOnly
			case staticOnly:
				filter = entities.FilterStaticOnly
			}

			logger := newLogger(cmd.ErrOrStderr())
			orch, err := newOrchestrator(cfg, project.checksum, logger)
			if err != nil {
				return err
			}

			path, err := orch.Generate(cmd.Context(), requestFor(entities.Target{
				Binary:          binaryName,
				Output:          output,
				DynlibDir:       dynlibDir,
				Filter:          filter,
				IncludeVendored: !noVendored,
			}))
			if err != nil {
				return fmt.Errorf("generation failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	project.register(cmd)
	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", "", "output SPDX JSON path")
	f.StringVar(&binaryName, "binary-name", "", "binary to describe (default repo name)")
	f.StringVar(&dynlibDir, "dynlib-dir", "", "directory holding this binary's dynamic_libs.json")
	f.BoolVar(&directOnly, "direct-only", false, "include only directly linked dynamic libraries")
	f.BoolVar(&staticOnly, "static-only", false, "omit dynamically linked libraries")
	f.BoolVar(&noVendored, "no-vendored", false, "do not split vendored libraries out of the project")
	_ = cmd.MarkFlagRequired("output")
	cmd.MarkFlagsMutuallyExclusive("direct-only", "static-only")
	return cmd
}
