package errtable

import (
	"fmt"
	"strings"
)

// Confusion is the binary confusion matrix, indexed [true][pred].
type Confusion [2][2]int

// ClassStats are the per-class scores of a Report.
type ClassStats struct {
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

type Report struct {
	Confusion Confusion
	Classes   [2]ClassStats
	Accuracy  float64
	Total     int
}

// NewReport tallies examples into a classification report.
func NewReport(examples []Example) Report {
	var r Report
	for _, e := range examples {
		r.Confusion[e.True][e.Pred]++
	}
	r.Total = len(examples)

	var correct int
	for c := 0; c < 2; c++ {
		tp := r.Confusion[c][c]
		correct += tp
		predicted := r.Confusion[0][c] + r.Confusion[1][c]
		support := r.Confusion[c][0] + r.Confusion[c][1]

		s := ClassStats{Support: support}
		if predicted > 0 {
			s.Precision = float64(tp) / float64(predicted)
		}
		if support > 0 {
			s.Recall = float64(tp) / float64(support)
		}
		if s.Precision+s.Recall > 0 {
			s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
		}
		r.Classes[c] = s
	}
	if r.Total > 0 {
		r.Accuracy = float64(correct) / float64(r.Total)
	}
	return r
}

// String renders the report as plain text with three digits.
func (r Report) String() string {
	var b strings.Builder
	b.WriteString("confusion matrix (rows true, columns pred):\n")
	fmt.Fprintf(&b, "%8d %8d\n%8d %8d\n\n",
		r.Confusion[0][0], r.Confusion[0][1], r.Confusion[1][0], r.Confusion[1][1])

	fmt.Fprintf(&b, "%8s %10s %10s %10s %10s\n", "", "precision", "recall", "f1-score", "support")
	for c, s := range r.Classes {
		fmt.Fprintf(&b, "%8d %10.3f %10.3f %10.3f %10d\n", c, s.Precision, s.Recall, s.F1, s.Support)
	}
	fmt.Fprintf(&b, "\n%8s %10s %10s %10.3f %10d\n", "accuracy", "", "", r.Accuracy, r.Total)
	return b.String()
}
