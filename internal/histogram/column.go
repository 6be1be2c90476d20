// Package histogram implements the binning core: column statistics, bin
// boundary computation (jenks, quantile, equal-interval, standard-deviation,
// head-tail, custom edge lists), histogram assignment with underflow/overflow
// buckets, and result assembly.
//
// The pipeline is strictly sequential and allocation-fresh per run:
//
//	column -> Summarize -> Breaks -> Build -> Assemble
//
// Design constraints:
//   - The sorted copy of the values is built once by Summarize and borrowed
//     read-only by every algorithm that needs ordering.
//   - All strategies agree on a single histogram representation; the builder
//     never needs to know which algorithm produced the edges.
//   - Identical input and parameters always produce identical output.
//
// No I/O happens here; loading a column and writing the result are the
// responsibility of internal/loader and the CLI.
package histogram

import "math"

// Value is one cell of a numeric column. Null marks a missing input value.
// NaN and ±Inf are kept distinct from Null at this level so loaders can pass
// through whatever the source contained; Summarize treats them as null
// because no binning algorithm can place them on the real line.
type Value struct {
	Num  float64
	Null bool
}

// Num wraps a concrete value.
func Num(f float64) Value { return Value{Num: f} }

// Null returns the missing-value marker.
func Null() Value { return Value{Null: true} }

func (v Value) usable() bool {
	return !v.Null && !math.IsNaN(v.Num) && !math.IsInf(v.Num, 0)
}

// Column is an ordered numeric column as produced by a loader. The order is
// the original row order; it matters only for reproducibility of reporting,
// never for bin placement.
type Column struct {
	Name   string
	Values []Value
}
