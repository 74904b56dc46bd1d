package threshold

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRange is returned for threshold ranges that produce no usable candidates.
var ErrInvalidRange = errors.New("invalid threshold range")

// MaxCandidates bounds the number of thresholds a single scan may evaluate.
const MaxCandidates = 1_000_000

// Range is the half-open scan interval [Start, End) walked in increments of Step.
type Range struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Step  float64 `json:"step" yaml:"step"`
}

func (r Range) String() string {
	return fmt.Sprintf("[%g, %g) step %g", r.Start, r.End, r.Step)
}

// Validate reports whether the range yields between 1 and MaxCandidates thresholds.
func (r Range) Validate() error {
	for _, v := range []float64{r.Start, r.End, r.Step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s: values must be finite", ErrInvalidRange, r)
		}
	}
	if r.Step <= 0 {
		return fmt.Errorf("%w: %s: step must be positive", ErrInvalidRange, r)
	}
	if r.Start >= r.End {
		return fmt.Errorf("%w: %s: start must be below end", ErrInvalidRange, r)
	}
	n := r.count()
	if n < 1 {
		return fmt.Errorf("%w: %s: no candidates", ErrInvalidRange, r)
	}
	if n > MaxCandidates {
		return fmt.Errorf("%w: %s: %.0f candidates exceeds limit of %d", ErrInvalidRange, r, n, MaxCandidates)
	}
	return nil
}

// count is ceil((End-Start)/Step), the number of values the usual float range
// construction produces. Rounding can make the last of them reach End.
func (r Range) count() float64 {
	return math.Ceil((r.End - r.Start) / r.Step)
}

// at returns candidate k: Start, Start+Step, then Start + k*delta where delta
// is the increment between the first two values.
func (r Range) at(k int) float64 {
	switch k {
	case 0:
		return r.Start
	case 1:
		return r.Start + r.Step
	}
	delta := (r.Start + r.Step) - r.Start
	return r.Start + float64(k)*delta
}

// Len returns the number of candidate thresholds, 0 for an invalid range.
func (r Range) Len() int {
	if r.Validate() != nil {
		return 0
	}
	n := int(r.count())
	// Start < End holds after validation, so at least one value remains.
	for n > 1 && r.at(n-1) >= r.End {
		n--
	}
	return n
}

// Candidates returns the ascending thresholds Start, Start+Step, ... that are
// strictly below End.
//
// Values follow the usual float range construction: the increment is taken
// from the first two values, (Start+Step)-Start, and value k is
// Start + k*increment. That construction yields ceil((End-Start)/Step) values,
// and rounding can push the last one to End or past it, as with
// Range{1, 1.3, 0.1} whose fourth value is 1.3000000000000003. Such trailing
// values are dropped, so every candidate lies in [Start, End).
func (r Range) Candidates() []float64 {
	n := r.Len()
	if n == 0 {
		return nil
	}
	values := make([]float64, n)
	for k := range values {
		values[k] = r.at(k)
	}
	return values
}
