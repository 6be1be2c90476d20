package histogram

import "errors"

// Error kinds surfaced by the binning pipeline. Failure sites wrap these with
// fmt.Errorf("...: %w", ...) so callers can match the kind with errors.Is
// while still getting a human-readable message. Every failure is terminal;
// nothing in this package retries or returns partial results.
var (
	ErrSourceNotFound          = errors.New("source not found")
	ErrColumnNotFound          = errors.New("column not found")
	ErrInvalidAlgorithmName    = errors.New("invalid algorithm name")
	ErrInvalidNumBins          = errors.New("invalid number of bins")
	ErrInvalidParameter        = errors.New("invalid parameter")
	ErrInvalidNumberOfBinEdges = errors.New("invalid number of bin edges")
	ErrInvalidBinValue         = errors.New("invalid bin value")
	ErrEmptyNumericData        = errors.New("no numeric values")
)
