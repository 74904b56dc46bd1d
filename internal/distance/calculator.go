package distance

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-threshold/internal/dataset"
)

// Calculator computes one distance per pair, in the order of pairs.
type Calculator interface {
	Calculate(ctx context.Context, m Measure, pairs []dataset.Pair) ([]float64, error)
}

// EmbeddingCalculator computes distances from the embeddings carried by each pair.
type EmbeddingCalculator struct{}

// NewEmbeddingCalculator creates a calculator over pair embeddings.
func NewEmbeddingCalculator() *EmbeddingCalculator {
	return &EmbeddingCalculator{}
}

// Calculate implements Calculator.
func (c *EmbeddingCalculator) Calculate(ctx context.Context, m Measure, pairs []dataset.Pair) ([]float64, error) {
	fn, err := FuncFor(m)
	if err != nil {
		return nil, err
	}
	if err := dataset.Validate(pairs); err != nil {
		return nil, err
	}

	distances := make([]float64, len(pairs))
	for i := range pairs {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("computing distances: %w", err)
			}
		}
		distances[i] = fn(pairs[i].Left.Embedding, pairs[i].Right.Embedding)
	}
	return distances, nil
}

// CalculatorFunc adapts a plain function to the Calculator interface.
type CalculatorFunc func(ctx context.Context, m Measure, pairs []dataset.Pair) ([]float64, error)

// Calculate implements Calculator.
func (f CalculatorFunc) Calculate(ctx context.Context, m Measure, pairs []dataset.Pair) ([]float64, error) {
	return f(ctx, m, pairs)
}
