package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"binner/internal/histogram"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "binner.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// TestLoad verifies a fully populated defaults file.
func TestLoad(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
algorithm: quantile
num_bins: 8
std_dev_size: 0.5
table: measurements
encoding: latin1
output: out.json
dd_tags:
  - env:staging
  - team:data
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Algorithm != "quantile" {
		t.Errorf("Algorithm = %q, want quantile", c.Algorithm)
	}
	if c.NumBins == nil || *c.NumBins != 8 {
		t.Errorf("NumBins = %v, want 8", c.NumBins)
	}
	if c.StdDevSize == nil || *c.StdDevSize != 0.5 {
		t.Errorf("StdDevSize = %v, want 0.5", c.StdDevSize)
	}
	if c.Table != "measurements" || c.Encoding != "latin1" || c.Output != "out.json" {
		t.Errorf("Table/Encoding/Output = %q/%q/%q", c.Table, c.Encoding, c.Output)
	}
	if want := []string{"env:staging", "team:data"}; !reflect.DeepEqual(c.DatadogTags, want) {
		t.Errorf("DatadogTags = %v, want %v", c.DatadogTags, want)
	}
}

// TestLoadEmptyPath verifies that an unset -config flag produces an empty
// config instead of an error.
func TestLoadEmptyPath(t *testing.T) {
	t.Parallel()

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if !reflect.DeepEqual(c, &Config{}) {
		t.Fatalf("Load(\"\") = %+v, want zero config", c)
	}
}

// TestLoadEmptyFile verifies that an empty YAML document is a valid, empty
// config.
func TestLoadEmptyFile(t *testing.T) {
	t.Parallel()

	c, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.NumBins != nil || c.Algorithm != "" {
		t.Fatalf("Load() = %+v, want zero config", c)
	}
}

// TestLoadRejectsBadValues verifies the up-front validation of file values.
func TestLoadRejectsBadValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "unknown algorithm", content: "algorithm: kmeans\n", wantErr: histogram.ErrInvalidAlgorithmName},
		{name: "num_bins zero", content: "num_bins: 0\n", wantErr: histogram.ErrInvalidNumBins},
		{name: "num_bins negative", content: "num_bins: -3\n", wantErr: histogram.ErrInvalidNumBins},
		{name: "negative std_dev_size", content: "std_dev_size: -1\n", wantErr: histogram.ErrInvalidParameter},
		{name: "tag without colon", content: "dd_tags: [staging]\n", wantErr: histogram.ErrInvalidParameter},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Load(writeConfig(t, tt.content))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestLoadAcceptsSingleBin: num_bins 1 is a valid default because
// equal-interval and quantile accept a single bin; algorithms with a higher
// floor reject it at break time instead.
func TestLoadAcceptsSingleBin(t *testing.T) {
	t.Parallel()

	c, err := Load(writeConfig(t, "num_bins: 1\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.NumBins == nil || *c.NumBins != 1 {
		t.Fatalf("NumBins = %v, want 1", c.NumBins)
	}
}

// TestLoadRejectsUnknownKeys verifies that typoed keys fail instead of being
// silently ignored.
func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	_, err := Load(writeConfig(t, "algorthm: jenks\n"))
	if err == nil {
		t.Fatal("Load() = nil error, want unknown-field error")
	}
}
