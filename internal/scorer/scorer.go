// Package scorer labels comments with the frozen toxicity model.
package scorer

import (
	"errors"
	"fmt"
	"os"

	"github.com/Bebenbaven/YTcommentGETer/internal/batch"
	"github.com/Bebenbaven/YTcommentGETer/internal/classifier"
	"github.com/Bebenbaven/YTcommentGETer/internal/features"
	"github.com/Bebenbaven/YTcommentGETer/internal/models"
	"github.com/Bebenbaven/YTcommentGETer/internal/textnorm"
)

var (
	ErrMissingArtifact   = errors.New("missing model artifact")
	ErrDimensionMismatch = errors.New("classifier and projector dimensions differ")
)

// Model is the projector and classifier pair, read-only after loading.
type Model struct {
	Projector  *features.Projector
	Classifier *classifier.Linear
}

type ModelConfig struct {
	ProjectorPath  string
	ClassifierPath string
}

// LoadModel reads both artifacts. A missing file is reported as
// ErrMissingArtifact.
func LoadModel(cfg ModelConfig) (*Model, error) {
	for _, p := range []string{cfg.ProjectorPath, cfg.ClassifierPath} {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrMissingArtifact, p, err)
		}
	}

	proj, err := features.Load(cfg.ProjectorPath)
	if err != nil {
		return nil, err
	}
	clf, err := classifier.Load(cfg.ClassifierPath)
	if err != nil {
		return nil, err
	}

	return &Model{Projector: proj, Classifier: clf}, nil
}

// Result is the outcome for one text. Score is nil for label-only models.
type Result struct {
	Label int
	Score *float64
}

// Diagnostics summarizes one scored batch.
type Diagnostics struct {
	Total int
	// EmptyVectors counts rows without any known n-gram. Their label comes
	// from the classifier bias alone.
	EmptyVectors        int
	EmptyVectorFraction float64
	MeanFeatures        float64
	Toxic               int
	Regime              classifier.Capability
	// Bias is the classifier intercept, the margin of an empty vector.
	Bias float64
}

// ToxicFraction is Toxic / Total, zero for an empty batch.
func (d Diagnostics) ToxicFraction() float64 {
	if d.Total == 0 {
		return 0
	}
	return float64(d.Toxic) / float64(d.Total)
}

type Scorer struct {
	model *Model
}

func New(model *Model) (*Scorer, error) {
	if model == nil || model.Projector == nil || model.Classifier == nil {
		return nil, fmt.Errorf("%w: incomplete model", ErrMissingArtifact)
	}
	if model.Projector.Dim() != model.Classifier.Dim() {
		return nil, fmt.Errorf("%w: projector %d, classifier %d",
			ErrDimensionMismatch, model.Projector.Dim(), model.Classifier.Dim())
	}
	return &Scorer{model: model}, nil
}

// Regime is the kind of score this scorer produces.
func (s *Scorer) Regime() classifier.Capability {
	return s.model.Classifier.Capability()
}

// ScoreTexts normalizes, projects and classifies texts in order.
func (s *Scorer) ScoreTexts(texts []string) ([]Result, Diagnostics) {
	vecs := s.model.Projector.TransformAll(textnorm.NormalizeAll(texts))

	diag := Diagnostics{Total: len(texts), Regime: s.Regime(), Bias: s.model.Classifier.Intercept()}
	results := make([]Result, len(vecs))
	var nnz int
	for i, v := range vecs {
		n := v.NNZ()
		nnz += n
		if n == 0 {
			diag.EmptyVectors++
		}

		label, score, ok := s.model.Classifier.Decide(v)
		results[i].Label = label
		if ok {
			sc := score
			results[i].Score = &sc
		}
		if label == 1 {
			diag.Toxic++
		}
	}
	if diag.Total > 0 {
		diag.EmptyVectorFraction = float64(diag.EmptyVectors) / float64(diag.Total)
		diag.MeanFeatures = float64(nnz) / float64(diag.Total)
	}

	return results, diag
}

// ScoreComments sets the toxicity fields of every comment in place.
func (s *Scorer) ScoreComments(cs []models.Comment) Diagnostics {
	texts := make([]string, len(cs))
	for i := range cs {
		texts[i] = cs[i].Text
	}

	results, diag := s.ScoreTexts(texts)
	for i, r := range results {
		label := r.Label
		cs[i].ToxicityLabel = &label
		cs[i].ToxicityScore = r.Score
	}
	return diag
}

// TableOptions names the columns ScoreTable reads and writes.
type TableOptions struct {
	TextColumn  string
	LabelColumn string
	ScoreColumn string
}

func DefaultTableOptions() TableOptions {
	return TableOptions{
		TextColumn:  batch.ColText,
		LabelColumn: batch.ColToxicityLabel,
		ScoreColumn: batch.ColToxicityScore,
	}
}

// ScoreTable scores any table with a text column, writing the label and score
// columns. Other columns are left untouched.
func (s *Scorer) ScoreTable(t *batch.Table, opts TableOptions) (Diagnostics, error) {
	texts, err := t.Column(opts.TextColumn)
	if err != nil {
		return Diagnostics{}, err
	}

	results, diag := s.ScoreTexts(texts)
	labels := make([]string, len(results))
	scores := make([]string, len(results))
	for i, r := range results {
		label := r.Label
		labels[i] = batch.FormatLabel(&label)
		scores[i] = batch.FormatScore(r.Score)
	}

	if err := t.SetColumn(opts.LabelColumn, labels); err != nil {
		return Diagnostics{}, err
	}
	if err := t.SetColumn(opts.ScoreColumn, scores); err != nil {
		return Diagnostics{}, err
	}
	return diag, nil
}
