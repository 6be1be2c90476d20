package histogram

import "fmt"

// Bin is one rendered histogram bucket.
//
// This struct (and Metadata/Result below) is emitted as JSON to downstream
// consumers. Additive changes are safe; renames and removals are breaking
// changes for anyone parsing the output.
type Bin struct {
	Label string   `json:"bin_label"`
	From  *float64 `json:"from"`
	To    *float64 `json:"to"`
	Count int      `json:"count"`
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
}

// Metadata describes the run that produced the bins. Algorithm is null for
// custom edge lists, NumBins is null for head-tail and custom runs, and
// StdDevSize is null for everything except standard-deviation.
type Metadata struct {
	File          string    `json:"file"`
	Column        string    `json:"column"`
	Algorithm     *string   `json:"algorithm"`
	NumBins       *int      `json:"num_bins"`
	StdDevSize    *float64  `json:"std_dev_size"`
	TotalRows     int       `json:"total_rows"`
	NumericValues int       `json:"numeric_values"`
	NullValues    int       `json:"null_values"`
	BinEdges      []float64 `json:"bin_edges"`
}

// Result is the immutable record handed to the writer. The sum of the counts
// of all non-null bins equals Metadata.NumericValues; the null bin, when
// present, holds exactly Metadata.NullValues.
type Result struct {
	Metadata Metadata `json:"metadata"`
	Bins     []Bin    `json:"bins"`
}

// Run ties together the request parameters Assemble needs for the metadata
// block. Pointer fields are nil exactly where the corresponding JSON field
// must be null.
type Run struct {
	File       string
	Column     string
	Algorithm  *Algorithm
	NumBins    *int
	StdDevSize *float64
}

// Assemble renders the buckets with human-readable interval labels and joins
// them with the column statistics into the final record. It constructs the
// record and nothing else; writing it to a destination is the caller's
// concern.
func Assemble(run Run, st Stats, edges []float64, buckets []Bucket) Result {
	meta := Metadata{
		File:          run.File,
		Column:        run.Column,
		NumBins:       run.NumBins,
		StdDevSize:    run.StdDevSize,
		TotalRows:     st.TotalRows,
		NumericValues: st.NumericValues,
		NullValues:    st.NullValues,
		BinEdges:      edges,
	}
	if run.Algorithm != nil {
		name := run.Algorithm.String()
		meta.Algorithm = &name
	}

	bins := make([]Bin, 0, len(buckets))
	for _, b := range buckets {
		bins = append(bins, Bin{
			Label: bucketLabel(b),
			From:  b.From,
			To:    b.To,
			Count: b.Count,
			Min:   b.Min,
			Max:   b.Max,
		})
	}
	return Result{Metadata: meta, Bins: bins}
}

func bucketLabel(b Bucket) string {
	switch b.Kind {
	case UnderflowBucket:
		return "underflow"
	case OverflowBucket:
		return "overflow"
	case NullBucket:
		return "null"
	}
	return fmt.Sprintf("[%g, %g)", *b.From, *b.To)
}
