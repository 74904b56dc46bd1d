// Package threshold searches for the distance cutoff that best separates
// matching from non-matching face pairs under a chosen scoring metric.
package threshold

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"math"
	"slices"
	"sync/atomic"
	"time"

	"github.com/kozaktomas/face-threshold/internal/dataset"
	"github.com/kozaktomas/face-threshold/internal/distance"
	"github.com/kozaktomas/face-threshold/internal/scoring"
	"golang.org/x/sync/errgroup"
)

// ErrNoPairs is returned when a scan is requested over an empty pair set.
var ErrNoPairs = errors.New("no pairs to calibrate on")

// ProgressFunc is called after each scored candidate. With more than one
// worker it may be called concurrently.
type ProgressFunc func(done, total int)

// Calculator finds the best threshold for a fixed distance measure, scoring
// metric and threshold range. It holds no mutable state and is safe for
// concurrent use.
type Calculator struct {
	measure   distance.Measure
	metric    scoring.Metric
	rng       Range
	distances distance.Calculator
	workers   int
	logger    *slog.Logger
	progress  ProgressFunc
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithWorkers scores candidates on n goroutines. Values below 1 mean sequential.
func WithWorkers(n int) Option {
	return func(c *Calculator) {
		c.workers = max(n, 1)
	}
}

// WithLogger sets the logger used for scan diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Calculator) {
		c.progress = fn
	}
}

// New creates a Calculator from already resolved selectors. A nil distance
// calculator defaults to computing distances from pair embeddings.
//
// The metric is not checked here; an unsupported value surfaces from
// Calculate as a scoring.UnsupportedMetricError.
func New(measure distance.Measure, metric scoring.Metric, rng Range, calc distance.Calculator, opts ...Option) (*Calculator, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	if calc == nil {
		calc = distance.NewEmbeddingCalculator()
	}

	c := &Calculator{
		measure:   measure,
		metric:    metric,
		rng:       rng,
		distances: calc,
		workers:   1,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewFromNames creates a Calculator from textual selector names such as
// "COSINE" and "F1". Unknown names fail with a *selector.UnknownError.
func NewFromNames(measureName, metricName string, rng Range, calc distance.Calculator, opts ...Option) (*Calculator, error) {
	measure, err := distance.ParseMeasure(measureName)
	if err != nil {
		return nil, err
	}
	metric, err := scoring.ParseMetric(metricName)
	if err != nil {
		return nil, err
	}
	return New(measure, metric, rng, calc, opts...)
}

// Measure returns the configured distance measure.
func (c *Calculator) Measure() distance.Measure { return c.measure }

// Metric returns the configured scoring metric.
func (c *Calculator) Metric() scoring.Metric { return c.metric }

// Range returns the configured threshold range.
func (c *Calculator) Range() Range { return c.rng }

// CandidateScore is the score achieved at one candidate threshold.
type CandidateScore struct {
	Threshold float64 `json:"threshold"`
	Score     float64 `json:"score"`
}

// Result describes a finished scan.
type Result struct {
	Measure    distance.Measure        `json:"measure"`
	Metric     scoring.Metric          `json:"metric"`
	Range      Range                   `json:"range"`
	Threshold  float64                 `json:"threshold"`
	Score      float64                 `json:"score"`
	Index      int                     `json:"index"`
	Candidates []CandidateScore        `json:"candidates"`
	Confusion  scoring.ConfusionMatrix `json:"confusion"`
	Pairs      dataset.Stats           `json:"pairs"`
	Duration   time.Duration           `json:"duration"`
}

// Top returns the n best-scoring candidates, best first. Equal scores keep
// ascending threshold order, so Top(1) is always the chosen threshold.
func (r *Result) Top(n int) []CandidateScore {
	top := slices.Clone(r.Candidates)
	slices.SortStableFunc(top, func(a, b CandidateScore) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if n >= 0 && n < len(top) {
		top = top[:n]
	}
	return top
}

// Calculate returns the threshold that maximizes the scoring metric over pairs.
// Of several thresholds with the same best score the smallest one wins.
func (c *Calculator) Calculate(ctx context.Context, pairs []dataset.Pair) (float64, error) {
	res, err := c.Scan(ctx, pairs)
	if err != nil {
		return 0, err
	}
	return res.Threshold, nil
}

// Scan runs the threshold search and returns the full result. Errors from the
// distance calculator and the scorer are returned unchanged.
func (c *Calculator) Scan(ctx context.Context, pairs []dataset.Pair) (*Result, error) {
	started := time.Now()

	scorer, err := scoring.ScorerFor(c.metric)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, ErrNoPairs
	}

	dist, err := c.distances.Calculate(ctx, c.measure, pairs)
	if err != nil {
		return nil, err
	}
	labels := dataset.Labels(pairs)
	thresholds := c.rng.Candidates()

	scores, err := c.scoreAll(ctx, scorer, dist, labels, thresholds)
	if err != nil {
		return nil, err
	}

	best := math.Inf(-1)
	bestIndex := 0
	for i, s := range scores {
		if s > best {
			best = s
			bestIndex = i
		}
	}

	res := &Result{
		Measure:    c.measure,
		Metric:     c.metric,
		Range:      c.rng,
		Threshold:  thresholds[bestIndex],
		Score:      scores[bestIndex],
		Index:      bestIndex,
		Candidates: make([]CandidateScore, len(thresholds)),
		Pairs:      dataset.Summarize(pairs),
	}
	for i, t := range thresholds {
		res.Candidates[i] = CandidateScore{Threshold: t, Score: scores[i]}
	}
	res.Confusion, err = scoring.Confusion(labels, predict(dist, res.Threshold, nil))
	if err != nil {
		return nil, err
	}
	res.Duration = time.Since(started)

	c.logger.Debug("threshold scan finished",
		"measure", c.measure.String(),
		"metric", c.metric.String(),
		"pairs", len(pairs),
		"candidates", len(thresholds),
		"threshold", res.Threshold,
		"score", res.Score,
		"duration", res.Duration,
	)
	return res, nil
}

// scoreAll scores every candidate threshold. Results are stored by candidate
// index so the caller can reduce them in scan order regardless of workers.
func (c *Calculator) scoreAll(ctx context.Context, scorer scoring.Scorer, dist []float64, labels []bool, thresholds []float64) ([]float64, error) {
	scores := make([]float64, len(thresholds))
	total := len(thresholds)

	if c.workers <= 1 {
		preds := make([]bool, len(dist))
		for i, t := range thresholds {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			s, err := scorer(labels, predict(dist, t, preds))
			if err != nil {
				return nil, err
			}
			scores[i] = s
			c.report(i+1, total)
		}
		return scores, nil
	}

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, t := range thresholds {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := scorer(labels, predict(dist, t, nil))
			if err != nil {
				return err
			}
			scores[i] = s
			c.report(int(done.Add(1)), total)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// errgroup only reports errors returned by goroutines; a cancellation that
	// stopped the loop before any goroutine saw it still has to fail the scan.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return scores, nil
}

func (c *Calculator) report(done, total int) {
	if c.progress != nil {
		c.progress(done, total)
	}
}

// predict marks a pair as matching when its distance is below threshold.
// buf is reused when it has the right length.
func predict(dist []float64, threshold float64, buf []bool) []bool {
	if len(buf) != len(dist) {
		buf = make([]bool, len(dist))
	}
	for i, d := range dist {
		buf[i] = d < threshold
	}
	return buf
}
