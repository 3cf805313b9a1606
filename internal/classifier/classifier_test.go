package classifier

import (
	"path/filepath"
	"testing"

	"github.com/Bebenbaven/YTcommentGETer/internal/features"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vec(indices []int, values []float64) features.Vector {
	return features.Vector{Indices: indices, Values: values}
}

func TestDecideMargin(t *testing.T) {
	t.Parallel()

	c, err := NewLinear(Margin, []float64{2, -1}, -0.5, nil)
	require.NoError(t, err)

	label, score, ok := c.Decide(vec([]int{0}, []float64{1}))
	assert.Equal(t, 1, label)
	assert.InDelta(t, 1.5, score, 1e-12)
	assert.True(t, ok)

	label, score, ok = c.Decide(vec([]int{1}, []float64{1}))
	assert.Equal(t, 0, label)
	assert.InDelta(t, -1.5, score, 1e-12)
	assert.True(t, ok)
}

func TestDecideZeroVectorUsesBias(t *testing.T) {
	t.Parallel()

	zero := vec(nil, nil)

	pos, err := NewLinear(Margin, []float64{1}, 0.3, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, pos.Predict(zero))

	neg, err := NewLinear(Margin, []float64{1}, -0.3, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, neg.Predict(zero))

	boundary, err := NewLinear(Margin, []float64{1}, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, boundary.Predict(zero))
}

func TestDecideProbability(t *testing.T) {
	t.Parallel()

	c, err := NewLinear(Probability, []float64{1}, 0, &Platt{A: -1, B: 0})
	require.NoError(t, err)

	label, p, ok := c.Decide(vec(nil, nil))
	assert.True(t, ok)
	assert.InDelta(t, 0.5, p, 1e-12)
	assert.Equal(t, 0, label)

	label, p, ok = c.Decide(vec([]int{0}, []float64{3}))
	assert.True(t, ok)
	assert.Greater(t, p, 0.9)
	assert.Equal(t, 1, label)
}

func TestDecideLabelOnly(t *testing.T) {
	t.Parallel()

	c, err := NewLinear(LabelOnly, []float64{1}, 0, nil)
	require.NoError(t, err)

	label, _, ok := c.Decide(vec([]int{0}, []float64{1}))
	assert.False(t, ok)
	assert.Equal(t, 1, label)
}

func TestNewLinearInvalid(t *testing.T) {
	t.Parallel()

	_, err := NewLinear(Probability, []float64{1}, 0, nil)
	require.ErrorIs(t, err, ErrInvalidArtifact)

	_, err = NewLinear("svm", []float64{1}, 0, nil)
	require.ErrorIs(t, err, ErrInvalidArtifact)

	_, err = NewLinear(Margin, nil, 0, nil)
	require.ErrorIs(t, err, ErrInvalidArtifact)
}

func TestDecodeCapabilityInference(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
		want Capability
	}{
		{name: "explicit label", data: `{"capability":"label","coef":[1],"intercept":0}`, want: LabelOnly},
		{name: "inferred margin", data: `{"coef":[1],"intercept":0}`, want: Margin},
		{name: "inferred probability", data: `{"coef":[1],"intercept":0,"platt":{"a":-2,"b":0.1}}`, want: Probability},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := Decode([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Capability())
		})
	}
}

func TestSaveLoad(t *testing.T) {
	t.Parallel()

	c, err := NewLinear(Probability, []float64{0.5, -0.25}, 0.1, &Platt{A: -1.5, B: 0.2})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "classifier.json")
	require.NoError(t, c.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
