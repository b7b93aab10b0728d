package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	vybiumproofattestor "github.com/vybium/vybium-proof-attestor/pkg/vybium-proof-attestor"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vybium-proof-attestor",
	Short: "Attests opening proofs inside a chunked virtual machine.",
	Long: "Re-executes the verification of polynomial-commitment opening proofs inside a\n" +
		"deterministic virtual machine, driven in bounded execution chunks so the run\n" +
		"can later be proven piecewise.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		input := getString(cmd, "input")
		output := getString(cmd, "output")
		mock := getFlag(cmd, "mock")
		cycles := getFlag(cmd, "cycles")

		if cycles && !mock {
			return fmt.Errorf("--cycles requires --mock")
		}

		config := vybiumproofattestor.DefaultConfig(input).
			WithOutputPath(output).
			WithMockMode(mock).
			WithCyclesOnly(cycles)

		report, err := vybiumproofattestor.Attest(config)
		if err != nil {
			return err
		}

		fmt.Printf("attested %d cycles over %d chunks (%d executing)\n",
			report.TotalCycles, report.Records, report.ExecutionRecords)
		if report.Rate > 0 {
			fmt.Printf("%d cycles/sec\n", report.Rate)
		}
		if report.ArtifactPath != "" {
			fmt.Printf("wrote %s\n", report.ArtifactPath)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	cobra.OnInitialize(func() {
		verbose, err := rootCmd.PersistentFlags().GetBool("verbose")
		if err != nil {
			panic(err)
		}
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	})

	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().String("input", "", "encoded guest input file")
	rootCmd.Flags().String("output", "proof.bin", "result artifact path")
	rootCmd.Flags().Bool("mock", false, "emulate the guest without a proving backend")
	rootCmd.Flags().Bool("cycles", false, "report cycle counts only (requires --mock)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")

	if err := rootCmd.MarkFlagRequired("input"); err != nil {
		panic(err)
	}
}

// getFlag reads a boolean flag, which must have been registered.
func getFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		panic(err)
	}
	return r
}

// getString reads a string flag, which must have been registered.
func getString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		panic(err)
	}
	return r
}

// getUint reads an unsigned integer flag, which must have been registered.
func getUint(cmd *cobra.Command, flag string) uint {
	r, err := cmd.Flags().GetUint(flag)
	if err != nil {
		panic(err)
	}
	return r
}
