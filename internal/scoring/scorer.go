package scoring

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLengthMismatch is returned when truth and prediction vectors differ in length.
	ErrLengthMismatch = errors.New("truth and predicted labels have different lengths")

	// ErrEmptyInput is returned when there is nothing to score.
	ErrEmptyInput = errors.New("no labels to score")

	// ErrUnsupportedMetric is matched by every UnsupportedMetricError.
	ErrUnsupportedMetric = errors.New("unsupported scoring metric")
)

// Scorer computes a score from ground-truth labels and predicted labels.
// true is the positive (match) class.
type Scorer func(truth, predicted []bool) (float64, error)

// UnsupportedMetricError is returned when a metric value has no scorer.
type UnsupportedMetricError struct {
	Metric Metric
}

func (e *UnsupportedMetricError) Error() string {
	valid := make([]string, len(MetricNames))
	for i, name := range MetricNames {
		valid[i] = metricKind + "." + name
	}
	return fmt.Sprintf("undefined %s %s, choose from [%s]", metricKind, e.Metric, strings.Join(valid, ", "))
}

// Is reports whether target is ErrUnsupportedMetric.
func (e *UnsupportedMetricError) Is(target error) bool {
	return target == ErrUnsupportedMetric
}

// ScorerFor returns the scorer for the given metric.
func ScorerFor(m Metric) (Scorer, error) {
	switch m {
	case Accuracy:
		return AccuracyScore, nil
	case Precision:
		return PrecisionScore, nil
	case Recall:
		return RecallScore, nil
	case F1:
		return F1Score, nil
	default:
		return nil, &UnsupportedMetricError{Metric: m}
	}
}

// ConfusionMatrix holds binary classification counts.
type ConfusionMatrix struct {
	TP int `json:"tp"`
	FP int `json:"fp"`
	TN int `json:"tn"`
	FN int `json:"fn"`
}

// Total returns the number of classified samples.
func (c ConfusionMatrix) Total() int {
	return c.TP + c.FP + c.TN + c.FN
}

// Confusion counts the outcomes of predicted against truth.
func Confusion(truth, predicted []bool) (ConfusionMatrix, error) {
	var c ConfusionMatrix
	if len(truth) != len(predicted) {
		return c, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(truth), len(predicted))
	}
	if len(truth) == 0 {
		return c, ErrEmptyInput
	}

	for i, want := range truth {
		switch {
		case want && predicted[i]:
			c.TP++
		case !want && predicted[i]:
			c.FP++
		case !want && !predicted[i]:
			c.TN++
		default:
			c.FN++
		}
	}
	return c, nil
}

// ratio returns num/den, or 0 when den is 0.
func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// AccuracyScore is the fraction of correctly classified samples.
func AccuracyScore(truth, predicted []bool) (float64, error) {
	c, err := Confusion(truth, predicted)
	if err != nil {
		return 0, err
	}
	return ratio(c.TP+c.TN, c.Total()), nil
}

// PrecisionScore is tp / (tp + fp), 0 when nothing is predicted positive.
func PrecisionScore(truth, predicted []bool) (float64, error) {
	c, err := Confusion(truth, predicted)
	if err != nil {
		return 0, err
	}
	return ratio(c.TP, c.TP+c.FP), nil
}

// RecallScore is tp / (tp + fn), 0 when there are no positive samples.
func RecallScore(truth, predicted []bool) (float64, error) {
	c, err := Confusion(truth, predicted)
	if err != nil {
		return 0, err
	}
	return ratio(c.TP, c.TP+c.FN), nil
}

// F1Score is the harmonic mean of precision and recall, 2tp / (2tp + fp + fn).
func F1Score(truth, predicted []bool) (float64, error) {
	c, err := Confusion(truth, predicted)
	if err != nil {
		return 0, err
	}
	return ratio(2*c.TP, 2*c.TP+c.FP+c.FN), nil
}
