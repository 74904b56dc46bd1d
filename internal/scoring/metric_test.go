package scoring

import (
	"errors"
	"testing"

	"github.com/kozaktomas/face-threshold/internal/selector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetric(t *testing.T) {
	tests := []struct {
		input    string
		expected Metric
	}{
		{"ACCURACY", Accuracy},
		{"accuracy", Accuracy},
		{"Precision", Precision},
		{"RECALL", Recall},
		{"f1", F1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMetric(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseMetric_Unknown(t *testing.T) {
	_, err := ParseMetric("ROC_AUC")
	require.Error(t, err)
	assert.True(t, errors.Is(err, selector.ErrUnknown))

	for _, name := range MetricNames {
		assert.Contains(t, err.Error(), name)
	}
}

func TestMetric_String(t *testing.T) {
	assert.Equal(t, "ACCURACY", Accuracy.String())
	assert.Equal(t, "F1", F1.String())
	assert.Equal(t, "Metric(0)", Metric(0).String())
	assert.Equal(t, "Metric(42)", Metric(42).String())
}

func TestMetric_NamesMatchVariants(t *testing.T) {
	metrics := Metrics()
	require.Len(t, metrics, len(MetricNames))
	for i, m := range metrics {
		assert.Equal(t, MetricNames[i], m.String())
		parsed, err := ParseMetric(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
}

func TestMetric_UnmarshalText(t *testing.T) {
	var m Metric
	require.NoError(t, m.UnmarshalText([]byte("recall")))
	assert.Equal(t, Recall, m)

	assert.Error(t, m.UnmarshalText([]byte("nope")))
	assert.Equal(t, Recall, m, "failed unmarshal must not modify the value")
}
