// Package scoring defines the classification-quality metrics used to rank
// candidate thresholds and the scorers that compute them.
package scoring

import (
	"fmt"

	"github.com/kozaktomas/face-threshold/internal/selector"
)

// Metric selects a classification-quality score. Larger scores are better.
type Metric int

const (
	Accuracy Metric = iota + 1
	Precision
	Recall
	F1
)

// metricKind is the enumeration name used in error messages.
const metricKind = "ScoringMetric"

// MetricNames lists the canonical names of all supported metrics, in declaration order.
var MetricNames = []string{"ACCURACY", "PRECISION", "RECALL", "F1"}

var metricsByName = map[string]Metric{
	"ACCURACY":  Accuracy,
	"PRECISION": Precision,
	"RECALL":    Recall,
	"F1":        F1,
}

// Metrics returns all supported metrics in declaration order.
func Metrics() []Metric {
	return []Metric{Accuracy, Precision, Recall, F1}
}

func (m Metric) String() string {
	switch m {
	case Accuracy, Precision, Recall, F1:
		return MetricNames[m-1]
	default:
		return fmt.Sprintf("Metric(%d)", int(m))
	}
}

// ParseMetric resolves a metric by name (case-insensitive).
func ParseMetric(name string) (Metric, error) {
	return selector.Lookup(metricKind, name, metricsByName, MetricNames)
}

// MarshalText implements encoding.TextMarshaler.
func (m Metric) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Metric) UnmarshalText(text []byte) error {
	parsed, err := ParseMetric(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
