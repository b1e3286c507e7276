package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ochairo/sbomgen/internal/domain-adapters/gateways"
)

func newVerifyCmd() *cobra.Command {
	var (
		keyPath  string
		sigPath  string
		checksum bool
	)

	cmd := &cobra.Command{
		Use:   "verify <file>",
		Short: "Verify a generated document's checksum sidecar and signature",
		Long: `Verify a generated document.

Examples:
  # Verify the .sha256 sidecar
  sbomgen verify curl.spdx.json --checksum

  # Verify the detached signature (defaults to <file>.asc)
  sbomgen verify curl.spdx.json --key release-public.asc`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath := args[0]
			if keyPath == "" && !checksum {
				return fmt.Errorf("nothing to verify: pass --key and/or --checksum")
			}
			out := cmd.OutOrStdout()

			if checksum {
				if err := gateways.NewChecksumVerifier().VerifySidecar(cmd.Context(), filePath); err != nil {
					return err
				}
				fmt.Fprintf(out, "checksum OK: %s\n", filePath)
			}

			if keyPath != "" {
				if sigPath == "" {
					sigPath = filePath + gateways.SignatureSuffix
				}
				verifier := gateways.NewGPGVerifier()
				if err := verifier.ImportGPGKeyFromFile(keyPath); err != nil {
					return err
				}
				if err := verifier.VerifyGPGSignatureFromFile(filePath, sigPath); err != nil {
					return err
				}
				fmt.Fprintf(out, "signature OK: %s (%d keys)\n", sigPath, verifier.GetKeyringSize())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&keyPath, "key", "", "armored or binary OpenPGP public key")
	cmd.Flags().StringVar(&sigPath, "sig", "", "detached signature (default <file>.asc)")
	cmd.Flags().BoolVar(&checksum, "checksum", false, "verify <file>.sha256")
	return cmd
}
