package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfusion(t *testing.T) {
	truth := []bool{true, true, false, false, true}
	predicted := []bool{true, false, true, false, true}

	c, err := Confusion(truth, predicted)
	require.NoError(t, err)
	assert.Equal(t, ConfusionMatrix{TP: 2, FP: 1, TN: 1, FN: 1}, c)
	assert.Equal(t, 5, c.Total())
}

func TestScorers(t *testing.T) {
	// tp=2 fp=1 tn=1 fn=1
	truth := []bool{true, true, false, false, true}
	predicted := []bool{true, false, true, false, true}

	tests := []struct {
		name     string
		scorer   Scorer
		expected float64
	}{
		{"accuracy", AccuracyScore, 3.0 / 5.0},
		{"precision", PrecisionScore, 2.0 / 3.0},
		{"recall", RecallScore, 2.0 / 3.0},
		{"f1", F1Score, 4.0 / 6.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.scorer(truth, predicted)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-12)
		})
	}
}

func TestScorers_ZeroDivision(t *testing.T) {
	// Nothing predicted positive and no positive samples.
	truth := []bool{false, false}
	predicted := []bool{false, false}

	for _, scorer := range []Scorer{PrecisionScore, RecallScore, F1Score} {
		got, err := scorer(truth, predicted)
		require.NoError(t, err)
		assert.Equal(t, 0.0, got)
	}

	acc, err := AccuracyScore(truth, predicted)
	require.NoError(t, err)
	assert.Equal(t, 1.0, acc)
}

func TestScorers_InvalidInput(t *testing.T) {
	for _, m := range Metrics() {
		scorer, err := ScorerFor(m)
		require.NoError(t, err)

		_, err = scorer([]bool{true}, []bool{true, false})
		assert.True(t, errors.Is(err, ErrLengthMismatch), "%s: expected length mismatch, got %v", m, err)

		_, err = scorer(nil, nil)
		assert.True(t, errors.Is(err, ErrEmptyInput), "%s: expected empty input, got %v", m, err)
	}
}

func TestScorerFor(t *testing.T) {
	truth := []bool{true, false, true, false}
	predicted := []bool{true, true, false, false}

	want := map[Metric]Scorer{
		Accuracy:  AccuracyScore,
		Precision: PrecisionScore,
		Recall:    RecallScore,
		F1:        F1Score,
	}
	for m, expected := range want {
		scorer, err := ScorerFor(m)
		require.NoError(t, err, m.String())

		got, _ := scorer(truth, predicted)
		exp, _ := expected(truth, predicted)
		assert.Equal(t, exp, got, m.String())
	}
}

func TestScorerFor_Unsupported(t *testing.T) {
	for _, m := range []Metric{0, 5, -1} {
		scorer, err := ScorerFor(m)
		assert.Nil(t, scorer)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupportedMetric))

		var unsupported *UnsupportedMetricError
		require.True(t, errors.As(err, &unsupported))
		assert.Equal(t, m, unsupported.Metric)

		for _, name := range MetricNames {
			assert.Contains(t, err.Error(), "ScoringMetric."+name)
		}
	}
}
