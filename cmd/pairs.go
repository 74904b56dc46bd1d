package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kozaktomas/face-threshold/internal/config"
	"github.com/kozaktomas/face-threshold/internal/constants"
	"github.com/kozaktomas/face-threshold/internal/dataset"
	"github.com/spf13/cobra"
)

var pairsCmd = &cobra.Command{
	Use:   "pairs",
	Short: "Build and inspect labeled pair datasets",
}

var pairsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Build labeled pairs from a face source and write them to a dataset file",
	Long: `Build labeled face pairs from the faces stored in PostgreSQL or from
PhotoPrism's face markers and write them to a YAML dataset file. Faces of
the same subject form matching pairs, faces of different subjects form
non-matching pairs. The selection is deterministic.

Examples:
  # Export pairs from PhotoPrism markers
  face-threshold pairs export --source photoprism --output pairs.yaml

  # Only two people, plus the three nearest other-subject faces per face
  face-threshold pairs export --source postgres --subject jan-novak --subject jane-doe --hard-negatives 3 --output pairs.yaml`,
	RunE: runPairsExport,
}

var pairsStatsCmd = &cobra.Command{
	Use:   "stats <file>",
	Short: "Show the class balance of a dataset file",
	Args:  cobra.ExactArgs(1),
	RunE:  runPairsStats,
}

func init() {
	rootCmd.AddCommand(pairsCmd)
	pairsCmd.AddCommand(pairsExportCmd)
	pairsCmd.AddCommand(pairsStatsCmd)

	addPairSourceFlags(pairsExportCmd, constants.DefaultMaxPositive, constants.DefaultMaxNegative,
		constants.DefaultHardNegatives, constants.DefaultMinDetScore)
	pairsExportCmd.Flags().StringP("output", "o", "", "Dataset file to write")
	pairsExportCmd.Flags().Bool("json", false, "Output summary as JSON")

	pairsStatsCmd.Flags().Bool("json", false, "Output as JSON")
}

// PairsOutput summarizes a dataset file.
type PairsOutput struct {
	File  string        `json:"file"`
	Stats dataset.Stats `json:"stats"`
}

func runPairsExport(cmd *cobra.Command, args []string) error {
	output := mustGetString(cmd, "output")
	if output == "" {
		return errors.New("--output is required")
	}
	if mustGetString(cmd, "source") == "" {
		return errors.New("--source is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pairs, err := pairsFromSource(ctx, cmd, config.Load())
	if err != nil {
		return err
	}
	if err := dataset.SaveFile(output, pairs); err != nil {
		return err
	}

	result := PairsOutput{File: output, Stats: dataset.Summarize(pairs)}
	if mustGetBool(cmd, "json") {
		return outputJSON(result)
	}
	fmt.Printf("Wrote %d pairs to %s (%d matching, %d non-matching)\n",
		result.Stats.Total, output, result.Stats.Matches, result.Stats.Mismatch)
	return nil
}

func runPairsStats(cmd *cobra.Command, args []string) error {
	pairs, err := dataset.LoadFile(args[0])
	if err != nil {
		return err
	}
	result := PairsOutput{File: args[0], Stats: dataset.Summarize(pairs)}
	if mustGetBool(cmd, "json") {
		return outputJSON(result)
	}

	fmt.Printf("File:         %s\n", result.File)
	fmt.Printf("Pairs:        %d\n", result.Stats.Total)
	fmt.Printf("Matching:     %d\n", result.Stats.Matches)
	fmt.Printf("Non-matching: %d\n", result.Stats.Mismatch)
	if err := dataset.Validate(pairs); err != nil {
		fmt.Printf("Invalid:      %v\n", err)
	}
	return nil
}
