// Package features projects normalized comment text into a fixed sparse
// character n-gram TF-IDF space.
package features

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/dlclark/regexp2"
)

const (
	AnalyzerChar = "char"
	NormL2       = "l2"
	NormNone     = "none"
)

var (
	ErrEmptyVocabulary = errors.New("empty vocabulary")
	ErrInvalidArtifact = errors.New("invalid projector artifact")
)

// whiteSpaces matches runs of Unicode whitespace, U+3000 and no-break space
// included.
var whiteSpaces = regexp2.MustCompile(`\s\s+`, regexp2.None)

// Projector maps text to TF-IDF weighted character n-gram vectors over a
// frozen vocabulary. It is safe for concurrent use once built.
type Projector struct {
	minN, maxN  int
	lowercase   bool
	sublinearTF bool
	norm        string
	vocab       map[string]int
	idf         []float64
}

// Dim is the dimension of every projected vector.
func (p *Projector) Dim() int {
	return len(p.idf)
}

// VocabularySize returns the number of known n-grams.
func (p *Projector) VocabularySize() int {
	return len(p.vocab)
}

// Transform projects one text. N-grams outside the vocabulary are dropped, so
// a text made only of unknown n-grams yields the zero vector.
func (p *Projector) Transform(text string) Vector {
	counts := make(map[int]float64)
	p.ngrams(text, func(term string) {
		if i, ok := p.vocab[term]; ok {
			counts[i]++
		}
	})

	v := Vector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for i := range counts {
		v.Indices = append(v.Indices, i)
	}
	sort.Ints(v.Indices)
	for _, i := range v.Indices {
		tf := counts[i]
		if p.sublinearTF {
			tf = 1 + math.Log(tf)
		}
		v.Values = append(v.Values, tf*p.idf[i])
	}
	if p.norm == NormL2 {
		v.l2Normalize()
	}
	return v
}

// TransformAll projects every text, keeping order.
func (p *Projector) TransformAll(texts []string) []Vector {
	out := make([]Vector, len(texts))
	for i, t := range texts {
		out[i] = p.Transform(t)
	}
	return out
}

func (p *Projector) ngrams(text string, fn func(term string)) {
	if p.lowercase {
		text = strings.ToLower(text)
	}
	if collapsed, err := whiteSpaces.Replace(text, " ", -1, -1); err == nil {
		text = collapsed
	}
	runes := []rune(text)
	for n := p.minN; n <= p.maxN && n <= len(runes); n++ {
		for i := 0; i+n <= len(runes); i++ {
			fn(string(runes[i : i+n]))
		}
	}
}

type artifact struct {
	Analyzer    string         `json:"analyzer"`
	NgramRange  [2]int         `json:"ngram_range"`
	Lowercase   bool           `json:"lowercase"`
	SublinearTF bool           `json:"sublinear_tf"`
	Norm        string         `json:"norm"`
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
}

// Load reads a projector artifact from path.
func Load(path string) (*Projector, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("failed to read projector %q: %w", path, err)
	}

	p, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode projector %q: %w", path, err)
	}

	return p, nil
}

// Decode parses a projector artifact.
func Decode(data []byte) (*Projector, error) {
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}

	if a.Analyzer != AnalyzerChar {
		return nil, fmt.Errorf("%w: unsupported analyzer %q", ErrInvalidArtifact, a.Analyzer)
	}
	if a.NgramRange[0] < 1 || a.NgramRange[1] < a.NgramRange[0] {
		return nil, fmt.Errorf("%w: bad ngram range %v", ErrInvalidArtifact, a.NgramRange)
	}
	if a.Norm == "" {
		a.Norm = NormL2
	}
	if a.Norm != NormL2 && a.Norm != NormNone {
		return nil, fmt.Errorf("%w: unsupported norm %q", ErrInvalidArtifact, a.Norm)
	}
	if len(a.Vocabulary) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, ErrEmptyVocabulary)
	}
	if len(a.Vocabulary) != len(a.IDF) {
		return nil, fmt.Errorf("%w: %d terms but %d idf weights", ErrInvalidArtifact, len(a.Vocabulary), len(a.IDF))
	}

	seen := make([]bool, len(a.IDF))
	for term, i := range a.Vocabulary {
		if i < 0 || i >= len(a.IDF) || seen[i] {
			return nil, fmt.Errorf("%w: bad index %d for term %q", ErrInvalidArtifact, i, term)
		}
		seen[i] = true
	}

	return &Projector{
		minN:        a.NgramRange[0],
		maxN:        a.NgramRange[1],
		lowercase:   a.Lowercase,
		sublinearTF: a.SublinearTF,
		norm:        a.Norm,
		vocab:       a.Vocabulary,
		idf:         a.IDF,
	}, nil
}

// Encode serializes the projector. Output is deterministic.
func (p *Projector) Encode() ([]byte, error) {
	return json.MarshalIndent(artifact{
		Analyzer:    AnalyzerChar,
		NgramRange:  [2]int{p.minN, p.maxN},
		Lowercase:   p.lowercase,
		SublinearTF: p.sublinearTF,
		Norm:        p.norm,
		Vocabulary:  p.vocab,
		IDF:         p.idf,
	}, "", "  ")
}

// Save writes the projector artifact to path.
func (p *Projector) Save(path string) error {
	data, err := p.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode projector: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil { // nolint:gosec
		return fmt.Errorf("failed to write projector %q: %w", path, err)
	}

	return nil
}
