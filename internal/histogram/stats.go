package histogram

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Stats is the summary of a numeric column: one pass over the values plus one
// sort. Null and non-finite entries count toward NullValues and are excluded
// from everything else.
type Stats struct {
	TotalRows     int
	NumericValues int
	NullValues    int

	// Min, Max, Mean and StdDev are defined only when NumericValues > 0.
	// StdDev is the sample standard deviation (divisor n-1) and is 0 when
	// fewer than two values exist.
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64

	// Sorted holds the usable values in ascending order. It is computed once
	// here and borrowed read-only by quantile, jenks and head-tail, so the
	// O(n log n) work is never repeated per algorithm.
	Sorted []float64
}

// Summarize scans the column once, sorts the usable values, and derives the
// summary fields. Invariant: NullValues + NumericValues == TotalRows.
func Summarize(col Column) Stats {
	st := Stats{TotalRows: len(col.Values)}

	st.Sorted = make([]float64, 0, len(col.Values))
	for _, v := range col.Values {
		if !v.usable() {
			st.NullValues++
			continue
		}
		st.Sorted = append(st.Sorted, v.Num)
	}
	st.NumericValues = len(st.Sorted)
	sort.Float64s(st.Sorted)

	if st.NumericValues == 0 {
		return st
	}
	st.Min = st.Sorted[0]
	st.Max = st.Sorted[st.NumericValues-1]
	st.Mean = stat.Mean(st.Sorted, nil)
	if st.NumericValues > 1 {
		st.StdDev = stat.StdDev(st.Sorted, nil)
	}
	return st
}
