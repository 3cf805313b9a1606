package features

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// FitOptions controls vocabulary construction.
type FitOptions struct {
	MinN, MaxN int
	// MinDF is the minimum number of documents a term must appear in.
	MinDF int
	// MaxDF is the maximum fraction of documents a term may appear in.
	MaxDF       float64
	Lowercase   bool
	SublinearTF bool
	Norm        string
}

// DefaultFitOptions are the settings the toxicity model is trained with.
func DefaultFitOptions() FitOptions {
	return FitOptions{
		MinN:      2,
		MaxN:      4,
		MinDF:     2,
		MaxDF:     0.95,
		Lowercase: true,
		Norm:      NormL2,
	}
}

func (o FitOptions) validate() error {
	switch {
	case o.MinN < 1 || o.MaxN < o.MinN:
		return fmt.Errorf("invalid ngram range [%d, %d]", o.MinN, o.MaxN)
	case o.MinDF < 1:
		return fmt.Errorf("min df must be positive, got %d", o.MinDF)
	case o.MaxDF <= 0 || o.MaxDF > 1:
		return fmt.Errorf("max df must be in (0, 1], got %v", o.MaxDF)
	case o.Norm != NormL2 && o.Norm != NormNone:
		return fmt.Errorf("unsupported norm %q", o.Norm)
	}
	return nil
}

// Fit builds a projector from already normalized documents.
func Fit(docs []string, opts FitOptions) (*Projector, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, errors.New("no documents to fit")
	}

	p := &Projector{
		minN:        opts.MinN,
		maxN:        opts.MaxN,
		lowercase:   opts.Lowercase,
		sublinearTF: opts.SublinearTF,
		norm:        opts.Norm,
	}

	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		p.ngrams(doc, func(term string) {
			if _, ok := seen[term]; ok {
				return
			}
			seen[term] = struct{}{}
			df[term]++
		})
	}

	n := len(docs)
	maxDocs := opts.MaxDF * float64(n)
	if maxDocs < float64(opts.MinDF) {
		return nil, fmt.Errorf("max df %v leaves fewer documents than min df %d", opts.MaxDF, opts.MinDF)
	}

	terms := make([]string, 0, len(df))
	for term, count := range df {
		if count >= opts.MinDF && float64(count) <= maxDocs {
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 {
		return nil, ErrEmptyVocabulary
	}
	sort.Strings(terms)

	p.vocab = make(map[string]int, len(terms))
	p.idf = make([]float64, len(terms))
	for i, term := range terms {
		p.vocab[term] = i
		p.idf[i] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}

	return p, nil
}
