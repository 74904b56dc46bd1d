package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/kozaktomas/face-threshold/internal/config"
	"github.com/kozaktomas/face-threshold/internal/constants"
	"github.com/kozaktomas/face-threshold/internal/database"
	"github.com/spf13/cobra"
)

var calibrationsCmd = &cobra.Command{
	Use:   "calibrations",
	Short: "List calibration runs stored in PostgreSQL",
	RunE:  runCalibrations,
}

func init() {
	rootCmd.AddCommand(calibrationsCmd)

	calibrationsCmd.Flags().Int("limit", constants.DefaultCalibrationListLimit, "Number of runs to list, newest first")
	calibrationsCmd.Flags().Bool("json", false, "Output as JSON")
}

func runCalibrations(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()
	if err := initPostgres(ctx, cfg); err != nil {
		return err
	}
	defer closePostgres()

	writer, err := database.GetCalibrationWriter(ctx)
	if err != nil {
		return err
	}
	runs, err := writer.ListCalibrations(ctx, mustGetInt(cmd, "limit"))
	if err != nil {
		return fmt.Errorf("listing calibrations: %w", err)
	}

	if mustGetBool(cmd, "json") {
		if runs == nil {
			runs = []database.Calibration{}
		}
		return outputJSON(runs)
	}
	if len(runs) == 0 {
		fmt.Println("No calibration runs stored.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tSOURCE\tMEASURE\tMETRIC\tTHRESHOLD\tSCORE\tPAIRS")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\t%.4f\t%d\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Source, r.Measure, r.Metric, r.Threshold, r.Score, r.PairCount)
	}
	return w.Flush()
}
