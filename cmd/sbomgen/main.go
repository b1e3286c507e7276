package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

func main() {
	// .env is optional; signing passphrases usually come from it in local runs
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sbomgen",
		Short: "Generate SPDX SBOMs from build-provenance graphs",
		Long: `sbomgen - SPDX 2.3 SBOM generator for instrumented C/C++ builds

Reads the artifact dependency graph, build log and package metadata
recorded by bomtrace/bomsh under <bom_dir>/metadata and writes one
SPDX JSON document per binary.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to sbomgen.yml")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newGenerateCmd(), newBatchCmd(), newVerifyCmd())
	return root
}
