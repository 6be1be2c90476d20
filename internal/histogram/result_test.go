package histogram

import (
	"encoding/json"
	"strings"
	"testing"
)

// TestAssembleMetadata: algorithm runs carry their parameters in the
// metadata; pointer fields stay nil (JSON null) where they do not apply.
func TestAssembleMetadata(t *testing.T) {
	t.Parallel()

	col := numColumn(1, 2, 3, 4, 5)
	st := Summarize(col)
	edges, err := Breaks(EqualInterval, st, Params{NumBins: 2})
	if err != nil {
		t.Fatalf("Breaks: %v", err)
	}
	buckets := Build(edges, col, false)

	alg := EqualInterval
	n := 2
	res := Assemble(Run{File: "data.csv", Column: "score", Algorithm: &alg, NumBins: &n}, st, edges, buckets)

	m := res.Metadata
	if m.File != "data.csv" || m.Column != "score" {
		t.Fatalf("metadata identity = %+v", m)
	}
	if m.Algorithm == nil || *m.Algorithm != "equal-interval" {
		t.Fatalf("Algorithm = %v, want equal-interval", m.Algorithm)
	}
	if m.NumBins == nil || *m.NumBins != 2 {
		t.Fatalf("NumBins = %v, want 2", m.NumBins)
	}
	if m.StdDevSize != nil {
		t.Fatalf("StdDevSize = %v, want nil outside standard-deviation", *m.StdDevSize)
	}
	if m.TotalRows != 5 || m.NumericValues != 5 || m.NullValues != 0 {
		t.Fatalf("counts = %+v", m)
	}
	if len(m.BinEdges) != 3 {
		t.Fatalf("BinEdges = %v", m.BinEdges)
	}
}

// TestAssembleCustomRun: custom-edge runs have a null algorithm and null
// num_bins in the serialized metadata.
func TestAssembleCustomRun(t *testing.T) {
	t.Parallel()

	col := Column{Name: "v", Values: []Value{Num(65), Null(), Num(85)}}
	st := Summarize(col)
	edges := []float64{60, 80, 100}
	buckets := Build(edges, col, true)

	res := Assemble(Run{File: "data.csv", Column: "v"}, st, edges, buckets)

	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(raw)
	for _, want := range []string{`"algorithm":null`, `"num_bins":null`, `"std_dev_size":null`, `"bin_label":"null"`} {
		if !strings.Contains(s, want) {
			t.Fatalf("serialized result missing %s:\n%s", want, s)
		}
	}
}

// TestBucketLabels: data bins render as half-open intervals, the catch-all
// buckets by name.
func TestBucketLabels(t *testing.T) {
	t.Parallel()

	col := numColumn(0.5, 1.5, 3)
	edges := []float64{0.5, 1.75, 3}
	res := Assemble(Run{}, Summarize(col), edges, Build(edges, col, true))

	want := []string{"underflow", "[0.5, 1.75)", "[1.75, 3)", "overflow", "null"}
	if len(res.Bins) != len(want) {
		t.Fatalf("got %d bins, want %d", len(res.Bins), len(want))
	}
	for i, b := range res.Bins {
		if b.Label != want[i] {
			t.Fatalf("bin %d label = %q, want %q", i, b.Label, want[i])
		}
	}
}
