// Package classifier holds the frozen linear toxicity classifier.
package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/Bebenbaven/YTcommentGETer/internal/features"
)

// Capability is what a loaded classifier can report beyond a label.
type Capability string

const (
	// Probability classifiers expose a calibrated positive-class probability.
	Probability Capability = "probability"
	// Margin classifiers expose only the uncalibrated decision value.
	Margin Capability = "margin"
	// LabelOnly classifiers expose nothing but the predicted label.
	LabelOnly Capability = "label"
)

var ErrInvalidArtifact = errors.New("invalid classifier artifact")

// Platt holds sigmoid calibration parameters: p = 1 / (1 + exp(A*f + B)).
type Platt struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// Linear is a binary linear classifier over a sparse feature space.
type Linear struct {
	capability Capability
	coef       []float64
	intercept  float64
	platt      *Platt
}

// NewLinear builds a classifier. Probability requires platt.
func NewLinear(capability Capability, coef []float64, intercept float64, platt *Platt) (*Linear, error) {
	switch capability {
	case Probability:
		if platt == nil {
			return nil, fmt.Errorf("%w: probability capability without calibration", ErrInvalidArtifact)
		}
	case Margin, LabelOnly:
	default:
		return nil, fmt.Errorf("%w: unknown capability %q", ErrInvalidArtifact, capability)
	}
	if len(coef) == 0 {
		return nil, fmt.Errorf("%w: no coefficients", ErrInvalidArtifact)
	}

	return &Linear{
		capability: capability,
		coef:       coef,
		intercept:  intercept,
		platt:      platt,
	}, nil
}

func (c *Linear) Capability() Capability { return c.capability }

// Dim is the number of features the classifier expects.
func (c *Linear) Dim() int { return len(c.coef) }

func (c *Linear) Intercept() float64 { return c.intercept }

// Margin is the signed distance from the separating hyperplane.
func (c *Linear) Margin(v features.Vector) float64 {
	return v.Dot(c.coef) + c.intercept
}

func (c *Linear) probability(margin float64) float64 {
	return 1 / (1 + math.Exp(c.platt.A*margin+c.platt.B))
}

// Predict applies the decision rule of the classifier's capability.
func (c *Linear) Predict(v features.Vector) int {
	label, _, _ := c.Decide(v)
	return label
}

// Decide returns the label and, when the capability allows it, a score.
func (c *Linear) Decide(v features.Vector) (label int, score float64, ok bool) {
	m := c.Margin(v)
	switch c.capability {
	case Probability:
		p := c.probability(m)
		if p > 0.5 {
			label = 1
		}
		return label, p, true
	case Margin:
		if m > 0 {
			label = 1
		}
		return label, m, true
	default:
		if m > 0 {
			label = 1
		}
		return label, 0, false
	}
}

type artifact struct {
	Capability Capability `json:"capability,omitempty"`
	Coef       []float64  `json:"coef"`
	Intercept  float64    `json:"intercept"`
	Platt      *Platt     `json:"platt,omitempty"`
}

// Decode parses a classifier artifact. Without an explicit capability it is
// inferred once here: calibrated when Platt parameters are present, margin
// otherwise.
func Decode(data []byte) (*Linear, error) {
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}

	if a.Capability == "" {
		a.Capability = Margin
		if a.Platt != nil {
			a.Capability = Probability
		}
	}

	return NewLinear(a.Capability, a.Coef, a.Intercept, a.Platt)
}

// Load reads a classifier artifact from path.
func Load(path string) (*Linear, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("failed to read classifier %q: %w", path, err)
	}

	c, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode classifier %q: %w", path, err)
	}

	return c, nil
}

// Encode serializes the classifier.
func (c *Linear) Encode() ([]byte, error) {
	return json.MarshalIndent(artifact{
		Capability: c.capability,
		Coef:       c.coef,
		Intercept:  c.intercept,
		Platt:      c.platt,
	}, "", "  ")
}

// Save writes the classifier artifact to path.
func (c *Linear) Save(path string) error {
	data, err := c.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode classifier: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil { // nolint:gosec
		return fmt.Errorf("failed to write classifier %q: %w", path, err)
	}

	return nil
}
