package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	vybiumproofattestor "github.com/vybium/vybium-proof-attestor/pkg/vybium-proof-attestor"
)

// genInputCmd generates an encoded guest input carrying a genuine opening
// proof, ready for attestation.
var genInputCmd = &cobra.Command{
	Use:          "geninput",
	Short:        "Generate an encoded guest input with a genuine opening proof.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		output := getString(cmd, "output")
		dataPath := getString(cmd, "data")
		size := getUint(cmd, "size")

		var data []byte
		if dataPath != "" {
			var err error
			data, err = os.ReadFile(dataPath)
			if err != nil {
				return fmt.Errorf("failed to read data file %s: %w", dataPath, err)
			}
		} else {
			data = make([]byte, size)
			for i := range data {
				data[i] = byte(i*31 + 7)
			}
		}

		encoded, err := vybiumproofattestor.GenerateInput(data)
		if err != nil {
			return err
		}
		if err := os.WriteFile(output, encoded, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", output, err)
		}

		fmt.Printf("wrote %s (%d bytes from %d data bytes)\n", output, len(encoded), len(data))
		return nil
	},
}

func init() {
	genInputCmd.Flags().String("output", "input.bin", "encoded guest input path")
	genInputCmd.Flags().String("data", "", "commit to this file instead of generated test data")
	genInputCmd.Flags().Uint("size", 4096, "generated test data size in bytes")
	rootCmd.AddCommand(genInputCmd)
}
