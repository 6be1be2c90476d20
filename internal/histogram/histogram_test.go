package histogram

import (
	"math"
	"testing"
)

func bucketCounts(buckets []Bucket) []int {
	out := make([]int, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, b.Count)
	}
	return out
}

func sumNonNull(buckets []Bucket) int {
	var s int
	for _, b := range buckets {
		if b.Kind != NullBucket {
			s += b.Count
		}
	}
	return s
}

// TestBuildEqualIntervalExample pins the documented end-to-end case: the
// column 1..10 with equal-interval(5) edges. The value 10 equals the last
// edge and therefore lands in overflow; 1..9 spread over the data bins as
// [2,2,2,2,1].
func TestBuildEqualIntervalExample(t *testing.T) {
	t.Parallel()

	col := numColumn(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	st := Summarize(col)
	edges, err := Breaks(EqualInterval, st, Params{NumBins: 5})
	if err != nil {
		t.Fatalf("Breaks: %v", err)
	}

	buckets := Build(edges, col, false)
	if len(buckets) != 7 { // underflow + 5 data + overflow
		t.Fatalf("len(buckets) = %d, want 7", len(buckets))
	}

	want := []int{0, 2, 2, 2, 2, 1, 1}
	got := bucketCounts(buckets)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("counts = %v, want %v", got, want)
		}
	}
	if sumNonNull(buckets) != st.NumericValues {
		t.Fatalf("count sum = %d, want %d", sumNonNull(buckets), st.NumericValues)
	}

	over := buckets[6]
	if over.Kind != OverflowBucket || *over.Min != 10 || *over.Max != 10 {
		t.Fatalf("overflow bucket = %+v, want min=max=10", over)
	}
}

// TestBuildBoundaryConvention: a value exactly on an internal edge belongs to
// the bin that starts there (lower-inclusive); a value exactly on the last
// edge belongs to overflow.
func TestBuildBoundaryConvention(t *testing.T) {
	t.Parallel()

	edges := []float64{0, 1, 2}
	col := numColumn(-0.5, 0, 0.5, 1, 1.5, 2, 2.5)

	buckets := Build(edges, col, false)
	// underflow, [0,1), [1,2), overflow
	want := []int{1, 2, 2, 2}
	got := bucketCounts(buckets)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("counts = %v, want %v", got, want)
		}
	}

	if *buckets[2].Min != 1 {
		t.Fatalf("bin [1,2) min = %v, want 1 (edge value goes to the upper bin)", *buckets[2].Min)
	}
	if *buckets[3].Min != 2 {
		t.Fatalf("overflow min = %v, want 2 (last edge routes to overflow)", *buckets[3].Min)
	}
}

// TestBuildBucketShape checks the observable contract of the bucket list:
// order, nil bounds on the catch-all buckets, nil extrema on empty buckets.
func TestBuildBucketShape(t *testing.T) {
	t.Parallel()

	edges := []float64{10, 20, 30}
	buckets := Build(edges, numColumn(12, 25), false)

	under := buckets[0]
	if under.Kind != UnderflowBucket || under.From != nil || *under.To != 10 {
		t.Fatalf("underflow = %+v", under)
	}
	if under.Count != 0 || under.Min != nil || under.Max != nil {
		t.Fatalf("empty underflow must have nil extrema: %+v", under)
	}

	over := buckets[len(buckets)-1]
	if over.Kind != OverflowBucket || over.To != nil || *over.From != 30 {
		t.Fatalf("overflow = %+v", over)
	}

	mid := buckets[1]
	if *mid.From != 10 || *mid.To != 20 || mid.Count != 1 || *mid.Min != 12 || *mid.Max != 12 {
		t.Fatalf("data bin = %+v", mid)
	}
}

// TestBuildNullBucket: when requested, nulls (and non-finite values) are
// counted exclusively in a trailing null bucket; the numeric sum stays intact.
func TestBuildNullBucket(t *testing.T) {
	t.Parallel()

	col := Column{Name: "v", Values: []Value{
		Num(65), Null(), Num(85), Num(math.NaN()), Num(105), Null(),
	}}
	edges := []float64{60, 80, 100}

	buckets := Build(edges, col, true)
	last := buckets[len(buckets)-1]
	if last.Kind != NullBucket {
		t.Fatalf("last bucket kind = %v, want NullBucket", last.Kind)
	}
	if last.Count != 3 {
		t.Fatalf("null bucket count = %d, want 3", last.Count)
	}
	if last.From != nil || last.To != nil || last.Min != nil || last.Max != nil {
		t.Fatalf("null bucket must carry no bounds or extrema: %+v", last)
	}
	if sumNonNull(buckets) != 3 {
		t.Fatalf("numeric sum = %d, want 3", sumNonNull(buckets))
	}

	// Without the request, nulls are dropped and no null bucket exists.
	plain := Build(edges, col, false)
	if plain[len(plain)-1].Kind != OverflowBucket {
		t.Fatalf("unexpected trailing bucket: %+v", plain[len(plain)-1])
	}
}

// TestBuildNullBucketAlwaysPresent: the null bucket is allocated whenever it
// was requested, even when the column has no nulls.
func TestBuildNullBucketAlwaysPresent(t *testing.T) {
	t.Parallel()

	buckets := Build([]float64{0, 1}, numColumn(0.5), true)
	last := buckets[len(buckets)-1]
	if last.Kind != NullBucket || last.Count != 0 {
		t.Fatalf("null bucket = %+v, want present with count 0", last)
	}
}

// TestBuildDegenerateEdges: with all edges equal (min == max columns) every
// value routes through the underflow/overflow rule and the zero-width data
// bins stay empty.
func TestBuildDegenerateEdges(t *testing.T) {
	t.Parallel()

	edges := []float64{5, 5, 5, 5}
	buckets := Build(edges, numColumn(4, 5, 6), false)

	if buckets[0].Count != 1 { // 4 < 5
		t.Fatalf("underflow count = %d, want 1", buckets[0].Count)
	}
	last := buckets[len(buckets)-1]
	if last.Count != 2 { // 5 and 6 are >= the last edge
		t.Fatalf("overflow count = %d, want 2", last.Count)
	}
	for _, b := range buckets[1 : len(buckets)-1] {
		if b.Count != 0 {
			t.Fatalf("zero-width bin has count %d", b.Count)
		}
	}
}

// TestBuildCountInvariant: for every algorithm the non-null bucket counts sum
// to the numeric value count.
func TestBuildCountInvariant(t *testing.T) {
	t.Parallel()

	col := Column{Name: "v"}
	for i := 0; i < 40; i++ {
		col.Values = append(col.Values, Num(float64(i*i%97)))
	}
	col.Values = append(col.Values, Null(), Null(), Num(math.Inf(1)))
	st := Summarize(col)

	cases := []struct {
		alg Algorithm
		p   Params
	}{
		{EqualInterval, Params{NumBins: 7}},
		{Quantile, Params{NumBins: 4}},
		{StandardDeviation, Params{StdDevSize: 0.5}},
		{Jenks, Params{NumBins: 5}},
		{HeadTail, Params{}},
	}
	for _, tc := range cases {
		edges, err := Breaks(tc.alg, st, tc.p)
		if err != nil {
			t.Fatalf("%s: %v", tc.alg, err)
		}
		buckets := Build(edges, col, false)
		if got := sumNonNull(buckets); got != st.NumericValues {
			t.Fatalf("%s: count sum = %d, want %d", tc.alg, got, st.NumericValues)
		}
	}
}
