package features

import "math"

// Vector is a sparse row. Indices are strictly increasing.
type Vector struct {
	Indices []int
	Values  []float64
}

// NNZ is the number of stored non-zero entries.
func (v Vector) NNZ() int {
	n := 0
	for _, x := range v.Values {
		if x != 0 {
			n++
		}
	}
	return n
}

// IsZero reports whether every entry of v is zero.
func (v Vector) IsZero() bool {
	return v.NNZ() == 0
}

// Dot computes v·w for a dense weight vector. Indices past len(w) are ignored.
func (v Vector) Dot(w []float64) float64 {
	var sum float64
	for k, i := range v.Indices {
		if i < len(w) {
			sum += v.Values[k] * w[i]
		}
	}
	return sum
}

func (v Vector) l2Normalize() {
	var sq float64
	for _, x := range v.Values {
		sq += x * x
	}
	if sq == 0 {
		return
	}
	norm := math.Sqrt(sq)
	for k := range v.Values {
		v.Values[k] /= norm
	}
}
