package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ochairo/sbomgen/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/sbomgen/internal/domain-orchestrators"
	"github.com/ochairo/sbomgen/internal/domain/interfaces"
)

func newBatchCmd() *cobra.Command {
	var (
		project     projectFlags
		outputDir   string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Generate documents for every configured or discovered binary",
		Long: `Generate documents for every target in sbomgen.yml.

Without configured targets, every dynamic_libs.json below <bom-dir>/metadata
becomes a target written to <output-dir>/<binary>.spdx.json. A failing
target is reported and the remaining targets still run.

Examples:
  sbomgen batch --config sbomgen.yml
  sbomgen batch --bom-dir /bom --repos-dir /repos --repo-name curl --output-dir sbom`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			project.apply(cmd, cfg)
			if cmd.Flags().Changed("concurrency") || cfg.Concurrency == 0 {
				cfg.Concurrency = concurrency
			}

			logger := newLogger(cmd.ErrOrStderr())
			orch, err := newOrchestrator(cfg, project.checksum, logger)
			if err != nil {
				return err
			}

			targets := cfg.Targets
			if len(targets) == 0 {
				targets, err = gateways.NewTargetFinder().FindTargets(filepath.Join(cfg.BomDir, "metadata"), outputDir)
				if err != nil {
					return fmt.Errorf("failed to discover targets: %w", err)
				}
				logger.Info("discovered targets", interfaces.F("count", len(targets)))
			}
			if len(targets) == 0 {
				return fmt.Errorf("no targets configured or discovered")
			}

			reqs := make([]orchestrators.GenerateRequest, 0, len(targets))
			for _, t := range targets {
				reqs = append(reqs, requestFor(t))
			}

			results := orchestrators.NewBatchOrchestrator(orch, cfg.Concurrency, logger).Run(cmd.Context(), reqs)
			out := cmd.OutOrStdout()
			for _, r := range results {
				if r.Error != nil {
					fmt.Fprintf(out, "FAIL  %s: %v\n", r.Request.BinaryName, r.Error)
					continue
				}
				fmt.Fprintf(out, "OK    %s -> %s (%s)\n", r.Request.BinaryName, r.Path, r.Duration.Round(time.Millisecond))
			}

			if failed := orchestrators.Failed(results); failed > 0 {
				return fmt.Errorf("%d of %d targets failed", failed, len(results))
			}
			return nil
		},
	}

	project.register(cmd)
	cmd.Flags().StringVar(&outputDir, "output-dir", "sbom", "output directory for discovered targets")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", 2, "targets generated in parallel")
	return cmd
}
