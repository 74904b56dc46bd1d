package dataset

import (
	"slices"

	"github.com/coder/hnsw"
)

// hardNegativeOversample is the factor to request more candidates so enough
// remain after dropping same-subject neighbors.
const hardNegativeOversample = 4

// NeighborIndex finds faces close to a query embedding by cosine distance.
// It indexes positions into the face slice it was built from.
//
// Search is exact: every indexed face is scored and ties are broken by
// position, so the same faces always give the same neighbors. An approximate
// graph would pick entry points from map iteration and change the hard
// negatives, and with them the calibrated threshold, from run to run.
type NeighborIndex struct {
	positions []int
	vectors   [][]float32
	dim       int
}

// NewNeighborIndex builds an index over faces. Faces whose embedding is empty,
// all zero, or differs in dimension from the first indexed face are left out.
func NewNeighborIndex(faces []Face) *NeighborIndex {
	idx := &NeighborIndex{}
	for i := range faces {
		emb := faces[i].Embedding
		if len(emb) == 0 || isZero(emb) {
			continue
		}
		if idx.dim == 0 {
			idx.dim = len(emb)
		}
		if len(emb) != idx.dim {
			continue
		}
		idx.positions = append(idx.positions, i)
		idx.vectors = append(idx.vectors, emb)
	}
	return idx
}

// Len returns the number of indexed faces.
func (n *NeighborIndex) Len() int {
	return len(n.positions)
}

type neighbor struct {
	pos  int
	dist float32
}

func compareNeighbors(a, b neighbor) int {
	if a.dist != b.dist {
		if a.dist < b.dist {
			return -1
		}
		return 1
	}
	return a.pos - b.pos
}

// Search returns the positions of up to k faces nearest to query, closest
// first. Equal distances are ordered by position.
func (n *NeighborIndex) Search(query []float32, k int) []int {
	if n.Len() == 0 || k <= 0 || len(query) != n.dim || isZero(query) {
		return nil
	}
	k = min(k, n.Len())

	// best stays sorted and holds at most k entries.
	best := make([]neighbor, 0, k+1)
	for i, vec := range n.vectors {
		cand := neighbor{pos: n.positions[i], dist: hnsw.CosineDistance(query, vec)}
		if len(best) == k && compareNeighbors(cand, best[k-1]) >= 0 {
			continue
		}
		at, _ := slices.BinarySearchFunc(best, cand, compareNeighbors)
		best = slices.Insert(best, at, cand)
		if len(best) > k {
			best = best[:k]
		}
	}

	out := make([]int, len(best))
	for i, b := range best {
		out[i] = b.pos
	}
	return out
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
