package dataset

import (
	"cmp"
	"slices"

	"github.com/kozaktomas/face-threshold/internal/facematch"
)

// PairOptions limits the number of pairs built from a face collection.
// Zero means no limit.
type PairOptions struct {
	MaxPositive int
	MaxNegative int

	// HardNegatives adds, for every face, up to this many non-matching pairs
	// with its nearest faces of other subjects. These are the pairs most
	// likely to be confused and are not subject to MaxNegative.
	HardNegatives int
}

// FromFaces builds labeled pairs from faces with known subjects. Faces of the
// same (normalized) subject form matching pairs, faces of different subjects
// form non-matching pairs. Faces without a subject or embedding are skipped.
//
// The result is deterministic: faces are ordered by ID and capped classes are
// sampled at an even stride over all candidate pairs. Hard negatives come from
// an exact neighbor search, so they repeat too. Matching pairs come first.
func FromFaces(faces []Face, opts PairOptions) []Pair {
	type keyed struct {
		face Face
		key  string
	}

	labeled := make([]keyed, 0, len(faces))
	for _, f := range faces {
		key := facematch.NormalizePersonName(f.Subject)
		if key == "" || len(f.Embedding) == 0 {
			continue
		}
		labeled = append(labeled, keyed{face: f, key: key})
	}
	slices.SortStableFunc(labeled, func(a, b keyed) int {
		return cmp.Compare(a.face.ID, b.face.ID)
	})

	var positives, negatives int
	for i := range labeled {
		for j := i + 1; j < len(labeled); j++ {
			if labeled[i].key == labeled[j].key {
				positives++
			} else {
				negatives++
			}
		}
	}

	posPick := newStride(positives, opts.MaxPositive)
	negPick := newStride(negatives, opts.MaxNegative)

	var matches, mismatches []Pair
	taken := make(map[[2]int]bool)
	for i := range labeled {
		for j := i + 1; j < len(labeled); j++ {
			pair := Pair{Left: labeled[i].face, Right: labeled[j].face}
			if labeled[i].key == labeled[j].key {
				pair.IsMatch = true
				if posPick.next() {
					matches = append(matches, pair)
				}
			} else if negPick.next() {
				mismatches = append(mismatches, pair)
				taken[[2]int{i, j}] = true
			}
		}
	}

	if opts.HardNegatives > 0 {
		sorted := make([]Face, len(labeled))
		for i := range labeled {
			sorted[i] = labeled[i].face
		}
		idx := NewNeighborIndex(sorted)

		for i := range labeled {
			added := 0
			for _, j := range idx.Search(labeled[i].face.Embedding, opts.HardNegatives*hardNegativeOversample+1) {
				if added >= opts.HardNegatives {
					break
				}
				if j == i || labeled[j].key == labeled[i].key {
					continue
				}
				key := [2]int{min(i, j), max(i, j)}
				if taken[key] {
					continue
				}
				taken[key] = true
				mismatches = append(mismatches, Pair{Left: labeled[key[0]].face, Right: labeled[key[1]].face})
				added++
			}
		}
	}

	return append(matches, mismatches...)
}

// stride selects limit items out of total at evenly spaced positions.
type stride struct {
	total, limit int
	seen, taken  int
}

func newStride(total, limit int) *stride {
	if limit <= 0 || limit > total {
		limit = total
	}
	return &stride{total: total, limit: limit}
}

// next reports whether the current item is selected and advances.
func (s *stride) next() bool {
	pos := s.seen
	s.seen++
	if s.taken >= s.limit {
		return false
	}
	// Item k of the selection sits at floor(k*total/limit).
	if pos == s.taken*s.total/s.limit {
		s.taken++
		return true
	}
	return false
}
