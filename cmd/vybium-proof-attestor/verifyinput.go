package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	vybiumproofattestor "github.com/vybium/vybium-proof-attestor/pkg/vybium-proof-attestor"
)

// verifyInputCmd decodes and verifies an encoded guest input directly,
// without driving the virtual machine.
var verifyInputCmd = &cobra.Command{
	Use:          "verifyinput",
	Short:        "Decode and verify an encoded guest input without the VM.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := getString(cmd, "input")

		encoded, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		input, err := vybiumproofattestor.DecodeInput(encoded)
		if err != nil {
			return err
		}

		fmt.Printf("%s: %d proofs, %d-coordinate point, packed log length %d\n",
			path, len(input.Proofs), len(input.EvaluationPoint), input.PackedLogLen)

		if err := vybiumproofattestor.VerifyInput(encoded); err != nil {
			return err
		}
		fmt.Println("all opening proofs verify")
		return nil
	},
}

func init() {
	verifyInputCmd.Flags().String("input", "input.bin", "encoded guest input path")
	rootCmd.AddCommand(verifyInputCmd)
}
