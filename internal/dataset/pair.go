// Package dataset holds labeled face pairs and the loaders that produce them.
package dataset

import (
	"errors"
	"fmt"
)

// Pair validation errors.
var (
	ErrNoEmbedding       = errors.New("face has no embedding")
	ErrDimensionMismatch = errors.New("embedding dimensions differ")
)

// Face is one side of a pair: an identified face embedding, optionally with its subject.
type Face struct {
	ID        string    `yaml:"id" json:"id"`
	PhotoUID  string    `yaml:"photo_uid,omitempty" json:"photo_uid,omitempty"`
	Subject   string    `yaml:"subject,omitempty" json:"subject,omitempty"`
	Embedding []float32 `yaml:"embedding,flow" json:"embedding"`
}

// Pair is a labeled comparison between two faces. IsMatch is the ground truth.
type Pair struct {
	Left    Face `yaml:"left" json:"left"`
	Right   Face `yaml:"right" json:"right"`
	IsMatch bool `yaml:"is_match" json:"is_match"`
}

// Labels returns the ground-truth labels of pairs, in order.
func Labels(pairs []Pair) []bool {
	labels := make([]bool, len(pairs))
	for i := range pairs {
		labels[i] = pairs[i].IsMatch
	}
	return labels
}

// Stats summarizes the class balance of a pair set.
type Stats struct {
	Total    int `json:"total"`
	Matches  int `json:"matches"`
	Mismatch int `json:"mismatches"`
}

// Summarize counts matching and non-matching pairs.
func Summarize(pairs []Pair) Stats {
	s := Stats{Total: len(pairs)}
	for i := range pairs {
		if pairs[i].IsMatch {
			s.Matches++
		} else {
			s.Mismatch++
		}
	}
	return s
}

// Validate checks that both faces of every pair carry embeddings of equal length.
func Validate(pairs []Pair) error {
	for i := range pairs {
		p := &pairs[i]
		if len(p.Left.Embedding) == 0 {
			return fmt.Errorf("pair %d: left face %q: %w", i, p.Left.ID, ErrNoEmbedding)
		}
		if len(p.Right.Embedding) == 0 {
			return fmt.Errorf("pair %d: right face %q: %w", i, p.Right.ID, ErrNoEmbedding)
		}
		if len(p.Left.Embedding) != len(p.Right.Embedding) {
			return fmt.Errorf("pair %d: %w (%d vs %d)",
				i, ErrDimensionMismatch, len(p.Left.Embedding), len(p.Right.Embedding))
		}
	}
	return nil
}
