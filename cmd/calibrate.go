package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/kozaktomas/face-threshold/internal/config"
	"github.com/kozaktomas/face-threshold/internal/constants"
	"github.com/kozaktomas/face-threshold/internal/database"
	"github.com/kozaktomas/face-threshold/internal/database/postgres"
	"github.com/kozaktomas/face-threshold/internal/dataset"
	"github.com/kozaktomas/face-threshold/internal/distance"
	"github.com/kozaktomas/face-threshold/internal/scoring"
	"github.com/kozaktomas/face-threshold/internal/threshold"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Find the distance threshold that best separates matching face pairs",
	Long: `Scan a range of distance thresholds over labeled face pairs and report
the threshold that maximizes the chosen scoring metric. Pairs whose distance
is below the threshold are predicted to show the same person.

Pairs come either from a dataset file (--file) or are built from labeled
faces in a database (--source postgres|photoprism).

Examples:
  # Calibrate on a dataset file with the default measure and metric
  face-threshold calibrate --file pairs.yaml

  # Maximize F1 for euclidean distance over a custom range
  face-threshold calibrate --file pairs.yaml --measure euclidean --metric f1 --start 10 --end 30 --step 0.05

  # Build pairs from PhotoPrism face markers and store the run in PostgreSQL
  face-threshold calibrate --source photoprism --max-negative 50000 --save

  # Output as JSON
  face-threshold calibrate --file pairs.yaml --json`,
	RunE: runCalibrate,
}

func init() {
	rootCmd.AddCommand(calibrateCmd)

	calibrateCmd.Flags().String("file", "", "Dataset file with labeled pairs (YAML or JSON)")
	addPairSourceFlags(calibrateCmd, constants.DefaultMaxPositive, constants.DefaultMaxNegative,
		constants.DefaultHardNegatives, constants.DefaultMinDetScore)
	calibrateCmd.Flags().String("measure", "", "Distance measure: COSINE, EUCLIDEAN, EUCLIDEAN_L2 (default from CALIBRATION_MEASURE)")
	calibrateCmd.Flags().String("metric", "", "Scoring metric: ACCURACY, PRECISION, RECALL, F1 (default from CALIBRATION_METRIC)")
	addRangeFlags(calibrateCmd)
	calibrateCmd.Flags().Int("workers", 0, "Parallel scoring workers (default from CALIBRATION_WORKERS)")
	calibrateCmd.Flags().Int("top", constants.DefaultTopCandidates, "Number of best candidates to print")
	calibrateCmd.Flags().Int("errors", 0, "Number of misclassified pairs to print at the chosen threshold")
	calibrateCmd.Flags().Bool("save", false, "Store the calibration run in PostgreSQL")
	calibrateCmd.Flags().Bool("json", false, "Output as JSON")
}

// CalibrateOutput represents the JSON output structure
type CalibrateOutput struct {
	Source        string                     `json:"source"`
	Measure       distance.Measure           `json:"measure"`
	Metric        scoring.Metric             `json:"metric"`
	Range         threshold.Range            `json:"range"`
	Threshold     float64                    `json:"threshold"`
	Score         float64                    `json:"score"`
	Candidates    int                        `json:"candidates"`
	Pairs         dataset.Stats              `json:"pairs"`
	Confusion     scoring.ConfusionMatrix    `json:"confusion"`
	DurationMs    int64                      `json:"duration_ms"`
	Top           []threshold.CandidateScore `json:"top,omitempty"`
	Misclassified []Misclassified            `json:"misclassified,omitempty"`
	CalibrationID string                     `json:"calibration_id,omitempty"`
}

// Misclassified is a pair the chosen threshold gets wrong.
type Misclassified struct {
	Left     string  `json:"left"`
	Right    string  `json:"right"`
	IsMatch  bool    `json:"is_match"`
	Distance float64 `json:"distance"`
}

// loadCalibrationPairs reads pairs from --file or builds them from --source.
func loadCalibrationPairs(ctx context.Context, cmd *cobra.Command, cfg *config.Config) ([]dataset.Pair, string, error) {
	file := mustGetString(cmd, "file")
	source := mustGetString(cmd, "source")
	switch {
	case file != "" && source != "":
		return nil, "", errors.New("use either --file or --source, not both")
	case file != "":
		pairs, err := dataset.LoadFile(file)
		return pairs, file, err
	case source != "":
		pairs, err := pairsFromSource(ctx, cmd, cfg)
		return pairs, source, err
	default:
		return nil, "", errors.New("either --file or --source is required")
	}
}

// calibrationRange returns the range flags layered over the measure's default
// range. Unknown measures get the generic range; the calculator rejects the name.
func calibrationRange(cmd *cobra.Command, cfg *config.Config, measureName string) threshold.Range {
	def := threshold.Range{Start: 0, End: 1, Step: 0.01}
	if m, err := distance.ParseMeasure(measureName); err == nil {
		def = cfg.DefaultRange(m)
	}
	return rangeFromFlags(cmd, def)
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	jsonOutput := mustGetBool(cmd, "json")

	measureName := mustGetString(cmd, "measure")
	if measureName == "" {
		measureName = cfg.Calibration.Measure
	}
	metricName := mustGetString(cmd, "metric")
	if metricName == "" {
		metricName = cfg.Calibration.Metric
	}
	workers := mustGetInt(cmd, "workers")
	if workers <= 0 {
		workers = cfg.Calibration.Workers
	}

	// Resolve names and range before touching any data source.
	var bar *progressbar.ProgressBar
	calc, err := threshold.NewFromNames(measureName, metricName, calibrationRange(cmd, cfg, measureName), nil,
		threshold.WithWorkers(workers),
		threshold.WithLogger(slog.Default()),
		threshold.WithProgress(func(done, total int) {
			if bar != nil {
				_ = bar.Add(1)
			}
		}),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pairs, source, err := loadCalibrationPairs(ctx, cmd, cfg)
	if err != nil {
		return err
	}

	// Create progress bar (only for non-JSON output)
	if !jsonOutput {
		stats := dataset.Summarize(pairs)
		fmt.Printf("Loaded %d pairs from %s (%d matching, %d non-matching)\n\n", stats.Total, source, stats.Matches, stats.Mismatch)

		bar = progressbar.NewOptions(calc.Range().Len(),
			progressbar.OptionSetDescription("Scanning thresholds"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("thresholds"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
			progressbar.OptionSetWriter(os.Stderr),
		)
	}

	res, err := calc.Scan(ctx, pairs)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("calibration failed: %w", err)
	}

	output := CalibrateOutput{
		Source:     source,
		Measure:    res.Measure,
		Metric:     res.Metric,
		Range:      res.Range,
		Threshold:  res.Threshold,
		Score:      res.Score,
		Candidates: len(res.Candidates),
		Pairs:      res.Pairs,
		Confusion:  res.Confusion,
		DurationMs: res.Duration.Milliseconds(),
		Top:        res.Top(mustGetInt(cmd, "top")),
	}
	if n := mustGetInt(cmd, "errors"); n > 0 {
		output.Misclassified, err = misclassified(pairs, res.Measure, res.Threshold, n)
		if err != nil {
			return err
		}
	}

	if mustGetBool(cmd, "save") {
		id, err := saveCalibration(ctx, cfg, source, res)
		if err != nil {
			return err
		}
		output.CalibrationID = id
	}

	if jsonOutput {
		return outputJSON(output)
	}
	printCalibration(cfg, &output)
	return nil
}

// misclassified returns up to limit pairs that the threshold predicts wrongly,
// in pair order.
func misclassified(pairs []dataset.Pair, m distance.Measure, cutoff float64, limit int) ([]Misclassified, error) {
	fn, err := distance.FuncFor(m)
	if err != nil {
		return nil, err
	}
	var out []Misclassified
	for _, p := range pairs {
		d := fn(p.Left.Embedding, p.Right.Embedding)
		if (d < cutoff) == p.IsMatch {
			continue
		}
		out = append(out, Misclassified{Left: p.Left.ID, Right: p.Right.ID, IsMatch: p.IsMatch, Distance: d})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// saveCalibration stores the run in PostgreSQL and returns its ID.
func saveCalibration(ctx context.Context, cfg *config.Config, source string, res *threshold.Result) (string, error) {
	// A postgres face source closes its pool once pairs are loaded, so check the pool itself.
	if postgres.GetGlobalPool() == nil {
		if err := initPostgres(ctx, cfg); err != nil {
			return "", err
		}
		defer closePostgres()
	}
	writer, err := database.GetCalibrationWriter(ctx)
	if err != nil {
		return "", err
	}

	run := &database.Calibration{
		Source:     source,
		Measure:    res.Measure.String(),
		Metric:     res.Metric.String(),
		RangeStart: res.Range.Start,
		RangeEnd:   res.Range.End,
		RangeStep:  res.Range.Step,
		Threshold:  res.Threshold,
		Score:      res.Score,
		PairCount:  res.Pairs.Total,
		MatchCount: res.Pairs.Matches,
		DurationMs: res.Duration.Milliseconds(),
	}
	if err := writer.SaveCalibration(ctx, run); err != nil {
		return "", fmt.Errorf("saving calibration: %w", err)
	}
	return run.ID, nil
}

// faceLink renders a face ID of the form photoUID/index with a clickable photo UID.
func faceLink(cfg *config.Config, id string) string {
	uid, index, ok := strings.Cut(id, "/")
	if !ok {
		return id
	}
	return cfg.PhotoPrism.PhotoURL(uid) + "/" + index
}

func printCalibration(cfg *config.Config, out *CalibrateOutput) {
	fmt.Printf("\nMeasure:    %s\n", out.Measure)
	fmt.Printf("Metric:     %s\n", out.Metric)
	fmt.Printf("Range:      %s (%d candidates)\n", out.Range, out.Candidates)
	fmt.Printf("Threshold:  %g\n", out.Threshold)
	fmt.Printf("Score:      %.4f\n", out.Score)
	fmt.Printf("Confusion:  TP=%d FP=%d TN=%d FN=%d\n", out.Confusion.TP, out.Confusion.FP, out.Confusion.TN, out.Confusion.FN)
	fmt.Printf("Duration:   %dms\n", out.DurationMs)
	if out.CalibrationID != "" {
		fmt.Printf("Saved as:   %s\n", out.CalibrationID)
	}

	if len(out.Top) > 0 {
		fmt.Println("\nBest candidates:")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  THRESHOLD\tSCORE")
		for _, c := range out.Top {
			fmt.Fprintf(w, "  %g\t%.4f\n", c.Threshold, c.Score)
		}
		w.Flush()
	}

	if len(out.Misclassified) > 0 {
		fmt.Println("\nMisclassified pairs:")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  LEFT\tRIGHT\tEXPECTED\tDISTANCE")
		for _, m := range out.Misclassified {
			expected := "different"
			if m.IsMatch {
				expected = "same"
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\t%.4f\n", faceLink(cfg, m.Left), faceLink(cfg, m.Right), expected, m.Distance)
		}
		w.Flush()
	}
}
