package histogram

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Algorithm selects one of the automatic boundary strategies. Custom edge
// lists are not an Algorithm; they bypass Breaks entirely via
// ParseCustomEdges.
type Algorithm int

const (
	Jenks Algorithm = iota
	Quantile
	EqualInterval
	StandardDeviation
	HeadTail
)

// AlgorithmNames is the CLI selector vocabulary, in flag-help order.
var AlgorithmNames = []string{"jenks", "quantile", "equal-interval", "standard-deviation", "head-tail"}

func (a Algorithm) String() string {
	switch a {
	case Jenks:
		return "jenks"
	case Quantile:
		return "quantile"
	case EqualInterval:
		return "equal-interval"
	case StandardDeviation:
		return "standard-deviation"
	case HeadTail:
		return "head-tail"
	}
	return "unknown"
}

// ParseAlgorithm maps a CLI selector onto an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jenks":
		return Jenks, nil
	case "quantile":
		return Quantile, nil
	case "equal-interval":
		return EqualInterval, nil
	case "standard-deviation":
		return StandardDeviation, nil
	case "head-tail":
		return HeadTail, nil
	}
	return 0, fmt.Errorf("%w: %q (want %s)", ErrInvalidAlgorithmName, s, strings.Join(AlgorithmNames, "|"))
}

// Params carries the algorithm-specific inputs. Only the fields the chosen
// algorithm consults are read.
type Params struct {
	NumBins    int     // jenks, quantile, equal-interval
	StdDevSize float64 // standard-deviation
}

// Breaks dispatches on the algorithm tag and returns the bin edges: an
// ascending sequence with the column min and max at the ends. Parameter
// validation happens before any per-algorithm work.
//
// The edges are strictly increasing except in the degenerate min == max case,
// where equal-interval still yields its n+1 (all equal) edges so the
// histogram shape stays uniform across algorithms.
func Breaks(alg Algorithm, st Stats, p Params) ([]float64, error) {
	if st.NumericValues == 0 {
		return nil, fmt.Errorf("%w: %s requires column statistics", ErrEmptyNumericData, alg)
	}
	switch alg {
	case EqualInterval:
		return equalIntervalBreaks(st, p.NumBins)
	case Quantile:
		return quantileBreaks(st, p.NumBins)
	case StandardDeviation:
		return stdDevBreaks(st, p.StdDevSize)
	case Jenks:
		return jenksBreaks(st, p.NumBins)
	case HeadTail:
		return headTailBreaks(st), nil
	}
	return nil, fmt.Errorf("%w: algorithm tag %d", ErrInvalidAlgorithmName, int(alg))
}

// equalIntervalBreaks returns n+1 evenly spaced edges spanning [min, max].
// The top edge is pinned to max so float drift in the progression cannot push
// it past the data.
func equalIntervalBreaks(st Stats, n int) ([]float64, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: equal-interval needs n >= 1, got %d", ErrInvalidNumBins, n)
	}
	width := (st.Max - st.Min) / float64(n)
	edges := make([]float64, n+1)
	for i := range edges {
		edges[i] = st.Min + float64(i)*width
	}
	edges[n] = st.Max
	return edges, nil
}

// quantileBreaks places edges at the i/n quantiles of the sorted values using
// the R-7 rule: position (i/n)*(m-1) into the zero-indexed sorted array,
// linearly interpolated between adjacent ranks. Equal-frequency bins are a
// best-effort target; ties and skew at quantile boundaries can make counts
// uneven. Heavy ties can land adjacent quantiles on the same order
// statistic, so equal edges are collapsed to keep bin_edges strictly
// increasing; the result then has fewer than n bins. A degenerate column
// (min == max) keeps its n+1 equal edges.
func quantileBreaks(st Stats, n int) ([]float64, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: quantile needs n >= 1, got %d", ErrInvalidNumBins, n)
	}
	m := len(st.Sorted)
	edges := make([]float64, n+1)
	for i := range edges {
		pos := float64(i) / float64(n) * float64(m-1)
		lo := int(math.Floor(pos))
		if lo >= m-1 {
			edges[i] = st.Sorted[m-1]
			continue
		}
		frac := pos - float64(lo)
		edges[i] = st.Sorted[lo] + frac*(st.Sorted[lo+1]-st.Sorted[lo])
	}
	edges[0], edges[n] = st.Min, st.Max
	if st.Min < st.Max {
		edges = dedupSorted(edges)
	}
	return edges, nil
}

// stdDevBreaks builds edges on the arithmetic progression mean + k*size*sd,
// extended symmetrically outward from the mean until [min, max] is covered.
// Progression points outside the data range are dropped and the outermost
// edges are replaced by min and max, so the underflow/overflow buckets never
// collect the bulk of the data. The resulting bin count is data-dependent:
// 2*ceil(max(max-mean, mean-min)/(size*sd)) for symmetric data, fewer when
// the progression overshoots one side.
func stdDevBreaks(st Stats, size float64) ([]float64, error) {
	if !(size > 0) {
		return nil, fmt.Errorf("%w: std-dev size must be > 0, got %v", ErrInvalidParameter, size)
	}
	step := size * st.StdDev
	if step == 0 {
		// Single value or all values identical.
		return []float64{st.Min, st.Max}, nil
	}

	spread := math.Max(st.Max-st.Mean, st.Mean-st.Min)
	k := int(math.Ceil(spread / step))
	if k < 1 {
		k = 1
	}

	edges := make([]float64, 0, 2*k+1)
	edges = append(edges, st.Min)
	for i := -k; i <= k; i++ {
		e := st.Mean + float64(i)*step
		if e > st.Min && e < st.Max {
			edges = append(edges, e)
		}
	}
	edges = append(edges, st.Max)
	return edges, nil
}

// jenksBreaks computes natural breaks: the exact partition of the sorted
// values into n contiguous classes minimizing the total within-class squared
// deviation (the Fisher 1-D clustering objective), solved by dynamic
// programming. The cost of a class is O(1) from prefix sums of the values and
// their squares; the DP is O(n*m^2) over m sorted values.
//
// The result is deterministic: the scan keeps the smallest split index on
// cost ties, and class boundaries are snapped to run starts so equal values
// never split across classes. Edges are the midpoints between the last value
// of one class and the first value of the next, which keeps them strictly
// increasing and consistent with the half-open interval convention.
func jenksBreaks(st Stats, n int) ([]float64, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: jenks needs n >= 2, got %d", ErrInvalidNumBins, n)
	}
	if d := distinctCount(st.Sorted); n > d {
		return nil, fmt.Errorf("%w: jenks with n=%d exceeds %d distinct values", ErrInvalidNumBins, n, d)
	}

	m := len(st.Sorted)
	pre := make([]float64, m+1)
	pre2 := make([]float64, m+1)
	for i, v := range st.Sorted {
		pre[i+1] = pre[i] + v
		pre2[i+1] = pre2[i] + v*v
	}

	// cost of the class covering Sorted[i:j], j > i: sum of squared deviations
	// from the class mean.
	cost := func(i, j int) float64 {
		s := pre[j] - pre[i]
		cnt := float64(j - i)
		return (pre2[j] - pre2[i]) - s*s/cnt
	}

	// best[j] after round c: minimal cost of splitting Sorted[:j] into c
	// classes. cuts[c][j] records where the last class of that split starts.
	best := make([]float64, m+1)
	for j := 1; j <= m; j++ {
		best[j] = cost(0, j)
	}
	cuts := make([][]int, n+1)
	for c := 2; c <= n; c++ {
		cuts[c] = make([]int, m+1)
		cur := make([]float64, m+1)
		for j := c; j <= m; j++ {
			bi, bv := -1, math.MaxFloat64
			for i := c - 1; i < j; i++ {
				if v := best[i] + cost(i, j); v < bv {
					bv, bi = v, i
				}
			}
			cur[j], cuts[c][j] = bv, bi
		}
		best = cur
	}

	// Backtrack the start index of every class.
	bounds := make([]int, n+1)
	bounds[n] = m
	j := m
	for c := n; c >= 2; c-- {
		j = cuts[c][j]
		bounds[c-1] = j
	}

	// Snap boundaries to run starts, then force them strictly increasing by
	// distinct value. n <= distinct guarantees enough run starts exist.
	for c := 1; c < n; c++ {
		b := bounds[c]
		for b > 0 && st.Sorted[b-1] == st.Sorted[b] {
			b--
		}
		bounds[c] = b
	}
	for c := 1; c < n; c++ {
		if bounds[c] > bounds[c-1] && st.Sorted[bounds[c]] > st.Sorted[bounds[c-1]] {
			continue
		}
		b := bounds[c-1] + 1
		for b < m && st.Sorted[b-1] == st.Sorted[b] {
			b++
		}
		bounds[c] = b
	}

	edges := make([]float64, n+1)
	edges[0] = st.Min
	for c := 1; c < n; c++ {
		b := bounds[c]
		edges[c] = (st.Sorted[b-1] + st.Sorted[b]) / 2
	}
	edges[n] = st.Max
	return edges, nil
}

// Head/tail breaks stop either when the head stops dominating the working set
// or at the hard level cap; the cap exists purely to bound the loop on
// pathological inputs, not as a tuning knob.
const (
	headTailStopFraction = 0.40
	headTailMaxLevels    = 64
)

// headTailBreaks implements head/tail breaks for heavy-tailed distributions
// as an explicit loop: each level records the mean of the current working set
// as a break, then narrows the working set to the values strictly above that
// mean. It stops when the head drops below headTailStopFraction of the
// working set, when the head has fewer than two distinct values, or at the
// level cap. The number of edges is data-dependent; min and max are always
// the end edges.
func headTailBreaks(st Stats) []float64 {
	edges := []float64{st.Min}
	work := st.Sorted

	for level := 0; level < headTailMaxLevels; level++ {
		mean := floats.Sum(work) / float64(len(work))
		if mean <= edges[len(edges)-1] || mean >= st.Max {
			break
		}
		edges = append(edges, mean)

		// work is sorted, so the head is the suffix strictly above the mean.
		cut := sort.Search(len(work), func(i int) bool { return work[i] > mean })
		head := work[cut:]
		if float64(len(head))/float64(len(work)) < headTailStopFraction {
			break
		}
		if distinctCount(head) < 2 {
			break
		}
		work = head
	}

	return append(edges, st.Max)
}

// NullToken is the literal custom-edge token requesting a separate bucket for
// null values.
const NullToken = "null"

// ParseCustomEdges parses caller-supplied edge tokens. Numeric edges are
// deduplicated and sorted ascending regardless of input order. The null
// token (case-insensitive) flips the null-bucket flag instead of contributing
// an edge. Fewer than two numeric edges after parsing is an error, as is any
// token that is neither a finite number nor the null token.
func ParseCustomEdges(tokens []string) (edges []float64, nullBin bool, err error) {
	for _, tok := range tokens {
		t := strings.TrimSpace(tok)
		if strings.EqualFold(t, NullToken) {
			nullBin = true
			continue
		}
		v, perr := strconv.ParseFloat(t, 64)
		if perr != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false, fmt.Errorf("%w: %q (use finite numbers or %q)", ErrInvalidBinValue, tok, NullToken)
		}
		edges = append(edges, v)
	}

	sort.Float64s(edges)
	edges = dedupSorted(edges)
	if len(edges) < 2 {
		return nil, false, fmt.Errorf("%w: need at least 2 numeric edges, got %d", ErrInvalidNumberOfBinEdges, len(edges))
	}
	return edges, nullBin, nil
}

func distinctCount(sorted []float64) int {
	d := 0
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			d++
		}
	}
	return d
}

func dedupSorted(sorted []float64) []float64 {
	out := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}
