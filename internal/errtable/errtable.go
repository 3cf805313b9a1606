// Package errtable ranks the classifier's mistakes on a labeled set and
// renders them as tabular fragments for reports.
package errtable

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Bebenbaven/YTcommentGETer/internal/batch"
	"github.com/Bebenbaven/YTcommentGETer/internal/scorer"
)

const (
	DefaultTopK  = 8
	DefaultWidth = 70

	ColLabel = "label"
)

var (
	ErrNoScore        = errors.New("classifier does not produce scores")
	ErrLengthMismatch = errors.New("texts and labels differ in length")
	ErrInvalidLabel   = errors.New("label must be 0 or 1")
)

// Example is one evaluated text.
type Example struct {
	Text  string
	True  int
	Pred  int
	Score float64
}

// Evaluate scores texts against their gold labels. Examples keep input order.
func Evaluate(s *scorer.Scorer, texts []string, labels []int) ([]Example, error) {
	if len(texts) != len(labels) {
		return nil, fmt.Errorf("%w: %d texts, %d labels", ErrLengthMismatch, len(texts), len(labels))
	}
	for i, l := range labels {
		if l != 0 && l != 1 {
			return nil, fmt.Errorf("%w: row %d has %d", ErrInvalidLabel, i, l)
		}
	}

	results, _ := s.ScoreTexts(texts)
	out := make([]Example, len(results))
	for i, r := range results {
		if r.Score == nil {
			return nil, fmt.Errorf("%w: regime %s", ErrNoScore, s.Regime())
		}
		out[i] = Example{Text: texts[i], True: labels[i], Pred: r.Label, Score: *r.Score}
	}
	return out, nil
}

// Tables holds the ranked mistakes.
type Tables struct {
	// FalsePositives are ordered by descending score, most confident first.
	FalsePositives []Example
	// FalseNegatives are ordered by ascending score, most confident first.
	FalseNegatives []Example
}

// Build selects false positives and false negatives, keeping at most topK of
// each. Ties keep input order.
func Build(examples []Example, topK int) Tables {
	var t Tables
	for _, e := range examples {
		switch {
		case e.True == 0 && e.Pred == 1:
			t.FalsePositives = append(t.FalsePositives, e)
		case e.True == 1 && e.Pred == 0:
			t.FalseNegatives = append(t.FalseNegatives, e)
		}
	}

	sort.SliceStable(t.FalsePositives, func(i, j int) bool {
		return t.FalsePositives[i].Score > t.FalsePositives[j].Score
	})
	sort.SliceStable(t.FalseNegatives, func(i, j int) bool {
		return t.FalseNegatives[i].Score < t.FalseNegatives[j].Score
	})

	t.FalsePositives = head(t.FalsePositives, topK)
	t.FalseNegatives = head(t.FalseNegatives, topK)
	return t
}

func head(es []Example, k int) []Example {
	if k < 0 {
		k = 0
	}
	if len(es) > k {
		return es[:k]
	}
	return es
}

// ReadLabeled extracts texts and labels from a table with text and label
// columns. Rows missing either value are dropped.
func ReadLabeled(t *batch.Table) ([]string, []int, error) {
	if err := t.Require(batch.ColText, ColLabel); err != nil {
		return nil, nil, err
	}
	textCol, labelCol := t.Index(batch.ColText), t.Index(ColLabel)

	var (
		texts  []string
		labels []int
	)
	for i := range t.Rows {
		text, raw := t.Cell(i, textCol), t.Cell(i, labelCol)
		if strings.TrimSpace(text) == "" || strings.TrimSpace(raw) == "" {
			continue
		}
		l, err := parseGold(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: row %d: %v", ErrInvalidLabel, i+1, err)
		}
		texts = append(texts, text)
		labels = append(labels, l)
	}
	return texts, labels, nil
}

// parseGold reads a gold label. Integral floats such as "1.0" are accepted,
// as written by tools that store label columns with gaps as floats.
func parseGold(raw string) (int, error) {
	if l, err := batch.ParseLabel(raw); err == nil && l != nil {
		return *l, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || (f != 0 && f != 1) {
		return 0, fmt.Errorf("invalid label %q", raw)
	}
	return int(f), nil
}
