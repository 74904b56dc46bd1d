package dataset

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"
)

func hardNegativeFaces() []Face {
	return []Face{
		face("1", "a", 1, 0),
		face("2", "a", 0.99, 0.1),
		face("3", "b", 0.9, 0.2),
		face("4", "b", 0, 1),
		face("5", "c", -1, 0),
	}
}

func TestNeighborIndex_Search(t *testing.T) {
	idx := NewNeighborIndex(hardNegativeFaces())
	if idx.Len() != 5 {
		t.Fatalf("expected 5 indexed faces, got %d", idx.Len())
	}

	got := idx.Search([]float32{1, 0}, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 neighbors, got %v", got)
	}
	if got[0] != 0 || got[1] != 1 {
		t.Errorf("Search() = %v, want [0 1]", got)
	}

	if got := idx.Search([]float32{1, 0, 0}, 2); got != nil {
		t.Errorf("expected no results for mismatched dimension, got %v", got)
	}
	if got := idx.Search([]float32{1, 0}, 0); got != nil {
		t.Errorf("expected no results for k=0, got %v", got)
	}
	if got := idx.Search([]float32{0, 0}, 2); got != nil {
		t.Errorf("expected no results for zero query, got %v", got)
	}
}

func TestNeighborIndex_SearchTiesByPosition(t *testing.T) {
	idx := NewNeighborIndex([]Face{
		face("1", "a", 0, 1),
		face("2", "b", 1, 0),
		face("3", "c", 2, 0), // same direction as 2
		face("4", "d", 3, 0),
	})

	got := idx.Search([]float32{1, 0}, 3)
	if !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("Search() = %v, want [1 2 3]", got)
	}
	if got := idx.Search([]float32{1, 0}, 10); len(got) != 4 {
		t.Errorf("expected all 4 faces when k exceeds size, got %v", got)
	}
}

func randomSubjectFaces(n, subjects, dim int) []Face {
	rng := rand.New(rand.NewSource(7))
	faces := make([]Face, n)
	for i := range faces {
		emb := make([]float32, dim)
		for d := range emb {
			emb[d] = rng.Float32()*2 - 1
		}
		faces[i] = Face{
			ID:        fmt.Sprintf("face-%03d", i),
			Subject:   fmt.Sprintf("person %d", i%subjects),
			Embedding: emb,
		}
	}
	return faces
}

func TestFromFaces_HardNegativesRepeatable(t *testing.T) {
	faces := randomSubjectFaces(400, 40, 32)
	opts := PairOptions{MaxPositive: 10, MaxNegative: 10, HardNegatives: 3}

	first := FromFaces(faces, opts)
	if len(first) <= 20 {
		t.Fatalf("expected hard negatives on top of capped pairs, got %d pairs", len(first))
	}
	for i := range 5 {
		if got := FromFaces(faces, opts); !reflect.DeepEqual(got, first) {
			t.Fatalf("build %d differs from the first build", i+2)
		}
	}
}

func TestNeighborIndex_SkipsUnusableFaces(t *testing.T) {
	idx := NewNeighborIndex([]Face{
		face("1", "a", 1, 0),
		face("2", "a"),          // empty
		face("3", "a", 0, 0),    // zero vector
		face("4", "a", 1, 0, 0), // other dimension
		face("5", "a", 0, 1),
	})
	if idx.Len() != 2 {
		t.Errorf("expected 2 indexed faces, got %d", idx.Len())
	}

	empty := NewNeighborIndex(nil)
	if got := empty.Search([]float32{1, 0}, 3); got != nil {
		t.Errorf("expected no results from empty index, got %v", got)
	}
}

func TestFromFaces_HardNegatives(t *testing.T) {
	faces := hardNegativeFaces()

	base := FromFaces(faces, PairOptions{MaxNegative: 1})
	withHard := FromFaces(faces, PairOptions{MaxNegative: 1, HardNegatives: 1})

	baseStats, hardStats := Summarize(base), Summarize(withHard)
	if hardStats.Matches != baseStats.Matches {
		t.Errorf("hard negatives must not change matching pairs: %d vs %d", hardStats.Matches, baseStats.Matches)
	}
	if hardStats.Mismatch <= baseStats.Mismatch {
		t.Errorf("expected additional non-matching pairs, got %d (base %d)", hardStats.Mismatch, baseStats.Mismatch)
	}
	if hardStats.Mismatch > baseStats.Mismatch+len(faces) {
		t.Errorf("expected at most one hard negative per face, got %d", hardStats.Mismatch-baseStats.Mismatch)
	}

	seen := make(map[string]bool)
	var foundClosest bool
	for _, p := range withHard {
		key := p.Left.ID + "-" + p.Right.ID
		if seen[key] {
			t.Errorf("duplicate pair %s", key)
		}
		seen[key] = true

		if !p.IsMatch && p.Left.Subject == p.Right.Subject {
			t.Errorf("pair %s labeled as non-match but has one subject", key)
		}
		if key == "2-3" {
			foundClosest = true
		}
	}
	if !foundClosest {
		t.Error("expected the closest cross-subject pair 2-3 among hard negatives")
	}
}
