package features

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func has(p *Projector, term string) bool {
	_, ok := p.vocab[term]
	return ok
}

func bigrams(minDF int, maxDF float64) FitOptions {
	opts := DefaultFitOptions()
	opts.MinN, opts.MaxN = 2, 2
	opts.MinDF = minDF
	opts.MaxDF = maxDF
	return opts
}

func TestFitMinDF(t *testing.T) {
	t.Parallel()

	p, err := Fit([]string{"abc", "abd", "xyz"}, bigrams(2, 1.0))
	require.NoError(t, err)

	assert.Equal(t, 1, p.VocabularySize())
	assert.True(t, has(p, "ab"))
	assert.False(t, has(p, "bc"))
	assert.False(t, has(p, "xy"))
}

func TestFitMaxDF(t *testing.T) {
	t.Parallel()

	p, err := Fit([]string{"aa", "aa", "aa", "bb", "bb"}, bigrams(1, 0.5))
	require.NoError(t, err)

	assert.False(t, has(p, "aa"))
	require.True(t, has(p, "bb"))
	assert.InDelta(t, math.Log(2)+1, p.idf[p.vocab["bb"]], 1e-12)
}

func TestFitErrors(t *testing.T) {
	t.Parallel()

	_, err := Fit(nil, DefaultFitOptions())
	require.Error(t, err)

	_, err = Fit([]string{"ab", "cd"}, bigrams(2, 1.0))
	require.ErrorIs(t, err, ErrEmptyVocabulary)

	_, err = Fit([]string{"ab"}, bigrams(3, 1.0))
	require.Error(t, err)

	bad := DefaultFitOptions()
	bad.MaxN = 1
	_, err = Fit([]string{"ab"}, bad)
	require.Error(t, err)
}

func TestFitIndicesSorted(t *testing.T) {
	t.Parallel()

	p, err := Fit([]string{"abc", "abc"}, bigrams(1, 1.0))
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"ab": 0, "bc": 1}, p.vocab)
}

func TestTransform(t *testing.T) {
	t.Parallel()

	p, err := Fit([]string{"abc", "abd", "xyz"}, bigrams(2, 1.0))
	require.NoError(t, err)

	v := p.Transform("abab")
	assert.Equal(t, []int{0}, v.Indices)
	require.Len(t, v.Values, 1)
	assert.InDelta(t, 1.0, v.Values[0], 1e-12)
	assert.Equal(t, 1, v.NNZ())

	assert.True(t, p.Transform("xyz").IsZero())
	assert.True(t, p.Transform("").IsZero())
	assert.True(t, p.Transform("a").IsZero())
}

func TestTransformLowercaseAndWhitespace(t *testing.T) {
	t.Parallel()

	p, err := Fit([]string{"a b", "a b"}, bigrams(1, 1.0))
	require.NoError(t, err)

	assert.True(t, has(p, "a "))
	assert.True(t, has(p, " b"))

	assert.Equal(t, p.Transform("a b"), p.Transform("A    B"))
}

func TestTransformUnicodeWhitespace(t *testing.T) {
	t.Parallel()

	p, err := Fit([]string{"a b", "a b"}, bigrams(1, 1.0))
	require.NoError(t, err)

	want := p.Transform("a b")
	assert.Equal(t, want, p.Transform("a\u3000 b"))
	assert.Equal(t, want, p.Transform("a\u00a0\u00a0b"))
	assert.Equal(t, want, p.Transform("a\u3000\u3000\tb"))

	// a single whitespace rune is kept as is
	assert.True(t, p.Transform("a\u3000b").IsZero())
}

func TestTransformL2Norm(t *testing.T) {
	t.Parallel()

	docs := []string{"toxic comment here", "nice comment here", "toxic toxic", "nice day", "what a day"}
	opts := DefaultFitOptions()
	opts.MinDF = 1
	p, err := Fit(docs, opts)
	require.NoError(t, err)

	for _, v := range p.TransformAll(docs) {
		var sq float64
		for _, x := range v.Values {
			sq += x * x
		}
		assert.InDelta(t, 1.0, sq, 1e-9)
		for k := 1; k < len(v.Indices); k++ {
			assert.Less(t, v.Indices[k-1], v.Indices[k])
		}
	}
}

func TestTransformRuneNgrams(t *testing.T) {
	t.Parallel()

	p, err := Fit([]string{"死ね死ね", "死ね"}, bigrams(2, 1.0))
	require.NoError(t, err)

	assert.True(t, has(p, "死ね"))
	assert.False(t, p.Transform("死ね").IsZero())
	assert.True(t, p.Transform("🔥").IsZero())
}

func TestSaveLoad(t *testing.T) {
	t.Parallel()

	docs := []string{"you are awful", "you are great", "awful stuff", "great stuff"}
	opts := DefaultFitOptions()
	opts.SublinearTF = true
	p, err := Fit(docs, opts)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "projector.json")
	require.NoError(t, p.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, p.Dim(), loaded.Dim())
	for _, d := range append(docs, "unseen text", "") {
		assert.Equal(t, p.Transform(d), loaded.Transform(d))
	}
}

func TestDecodeInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: `{`},
		{name: "word analyzer", data: `{"analyzer":"word","ngram_range":[1,1],"vocabulary":{"a":0},"idf":[1]}`},
		{name: "bad range", data: `{"analyzer":"char","ngram_range":[3,2],"vocabulary":{"a":0},"idf":[1]}`},
		{name: "empty vocabulary", data: `{"analyzer":"char","ngram_range":[2,4],"vocabulary":{},"idf":[]}`},
		{name: "length mismatch", data: `{"analyzer":"char","ngram_range":[2,4],"vocabulary":{"ab":0},"idf":[1,2]}`},
		{name: "duplicate index", data: `{"analyzer":"char","ngram_range":[2,4],"vocabulary":{"ab":0,"cd":0},"idf":[1,2]}`},
		{name: "bad norm", data: `{"analyzer":"char","ngram_range":[2,4],"norm":"l1","vocabulary":{"ab":0},"idf":[1]}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decode([]byte(tt.data))
			require.ErrorIs(t, err, ErrInvalidArtifact)
		})
	}
}

func TestLoadMissing(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
