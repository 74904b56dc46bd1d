package dataset

import (
	"fmt"
	"io"
	"os"

	"github.com/kozaktomas/face-threshold/internal/facematch"
	"gopkg.in/yaml.v3"
)

// fileVersion is written to every dataset file.
const fileVersion = 1

// File is the on-disk dataset format. JSON input is accepted as well since it is valid YAML.
type File struct {
	Version int        `yaml:"version"`
	Pairs   []filePair `yaml:"pairs"`
}

// filePair mirrors Pair but keeps is_match optional, so hand-written files can
// rely on subject names instead.
type filePair struct {
	Left    Face  `yaml:"left"`
	Right   Face  `yaml:"right"`
	IsMatch *bool `yaml:"is_match,omitempty"`
}

// Decode reads a dataset from r. Pairs without an explicit is_match label are
// labeled by comparing the normalized subject names of both faces.
func Decode(r io.Reader) ([]Pair, error) {
	var f File
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	if f.Version > fileVersion {
		return nil, fmt.Errorf("unsupported dataset version %d (max %d)", f.Version, fileVersion)
	}

	pairs := make([]Pair, len(f.Pairs))
	for i, fp := range f.Pairs {
		pairs[i] = Pair{Left: fp.Left, Right: fp.Right}
		switch {
		case fp.IsMatch != nil:
			pairs[i].IsMatch = *fp.IsMatch
		case fp.Left.Subject != "" && fp.Right.Subject != "":
			pairs[i].IsMatch = facematch.SameSubject(fp.Left.Subject, fp.Right.Subject)
		default:
			return nil, fmt.Errorf("pair %d: no is_match label and no subjects to derive it from", i)
		}
	}
	return pairs, nil
}

// Encode writes pairs to w in the dataset format.
func Encode(w io.Writer, pairs []Pair) error {
	f := File{Version: fileVersion, Pairs: make([]filePair, len(pairs))}
	for i := range pairs {
		isMatch := pairs[i].IsMatch
		f.Pairs[i] = filePair{Left: pairs[i].Left, Right: pairs[i].Right, IsMatch: &isMatch}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	return enc.Close()
}

// LoadFile reads a dataset file.
func LoadFile(path string) ([]Pair, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	pairs, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pairs, nil
}

// SaveFile writes pairs to a dataset file, replacing it if it exists.
func SaveFile(path string, pairs []Pair) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}

	if err := Encode(file, pairs); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close dataset: %w", err)
	}
	return nil
}
