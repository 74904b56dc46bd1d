// Package distance defines the supported distance measures between face
// embeddings and computes per-pair distances.
package distance

import (
	"fmt"
	"math"

	"github.com/coder/hnsw"
	"github.com/kozaktomas/face-threshold/internal/selector"
)

// Measure selects how the dissimilarity of two embeddings is computed.
type Measure int

const (
	Cosine Measure = iota + 1
	Euclidean
	EuclideanL2
)

const measureKind = "DistanceMeasure"

// MeasureNames lists the canonical names of all supported measures, in declaration order.
var MeasureNames = []string{"COSINE", "EUCLIDEAN", "EUCLIDEAN_L2"}

var measuresByName = map[string]Measure{
	"COSINE":       Cosine,
	"EUCLIDEAN":    Euclidean,
	"EUCLIDEAN_L2": EuclideanL2,
}

// Measures returns all supported measures in declaration order.
func Measures() []Measure {
	return []Measure{Cosine, Euclidean, EuclideanL2}
}

func (m Measure) String() string {
	switch m {
	case Cosine, Euclidean, EuclideanL2:
		return MeasureNames[m-1]
	default:
		return fmt.Sprintf("Measure(%d)", int(m))
	}
}

// ParseMeasure resolves a measure by name (case-insensitive).
func ParseMeasure(name string) (Measure, error) {
	return selector.Lookup(measureKind, name, measuresByName, MeasureNames)
}

// MarshalText implements encoding.TextMarshaler.
func (m Measure) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Measure) UnmarshalText(text []byte) error {
	parsed, err := ParseMeasure(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Func is a distance function between two equally sized vectors.
type Func func(a, b []float32) float64

// FuncFor returns the distance function for a measure.
func FuncFor(m Measure) (Func, error) {
	switch m {
	case Cosine:
		return cosineDistance, nil
	case Euclidean:
		return euclideanDistance, nil
	case EuclideanL2:
		return func(a, b []float32) float64 {
			return euclideanDistance(normalize(a), normalize(b))
		}, nil
	default:
		return nil, &selector.UnknownError{Kind: measureKind, Name: m.String(), Valid: MeasureNames}
	}
}

// maxCosineDistance is reported for zero vectors, which have no direction.
const maxCosineDistance = 2.0

// cosineDistance returns 1 - cosine similarity, in [0, 2].
func cosineDistance(a, b []float32) float64 {
	if norm(a) == 0 || norm(b) == 0 {
		return maxCosineDistance
	}
	d := float64(hnsw.CosineDistance(a, b))
	// Clamp float32 rounding.
	return min(max(d, 0), maxCosineDistance)
}

func euclideanDistance(a, b []float32) float64 {
	return float64(hnsw.EuclideanDistance(a, b))
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// normalize returns v scaled to unit length. Zero vectors are returned as is.
func normalize(v []float32) []float32 {
	n := norm(v)
	if n == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / n)
	}
	return out
}
