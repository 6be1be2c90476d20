// Package config reads optional run defaults from a YAML file. Every field
// maps onto a CLI flag; flags given on the command line always win over the
// file, and the file wins over built-in defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"binner/internal/histogram"
)

// Config holds the file-level defaults. Pointer fields distinguish "absent"
// from a zero value so that the merge never clobbers an explicit 0.
type Config struct {
	// Algorithm is a default for -algorithm.
	Algorithm string `yaml:"algorithm"`

	// NumBins is a default for -num-bins.
	NumBins *int `yaml:"num_bins"`

	// StdDevSize is a default for -std-dev-size.
	StdDevSize *float64 `yaml:"std_dev_size"`

	// Table is a default for -table.
	Table string `yaml:"table"`

	// Encoding is a default for -encoding.
	Encoding string `yaml:"encoding"`

	// Output is a default for -output.
	Output string `yaml:"output"`

	// DatadogTags are extra tags attached to every emitted run metric,
	// formatted "key:value".
	DatadogTags []string `yaml:"dd_tags"`
}

// Load reads and validates a defaults file. An empty path yields an empty
// config so callers do not need to special-case the flag being unset.
func Load(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
	}

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &c, nil
}

// validate rejects values the run would only reject later with a less
// specific message.
func (c *Config) validate() error {
	if c.Algorithm != "" {
		if _, err := histogram.ParseAlgorithm(c.Algorithm); err != nil {
			return err
		}
	}
	// Equal-interval and quantile accept a single bin; the stricter
	// per-algorithm floors are checked when the breaks are computed.
	if c.NumBins != nil && *c.NumBins < 1 {
		return fmt.Errorf("num_bins %d: %w", *c.NumBins, histogram.ErrInvalidNumBins)
	}
	if c.StdDevSize != nil && *c.StdDevSize <= 0 {
		return fmt.Errorf("std_dev_size %g: %w", *c.StdDevSize, histogram.ErrInvalidParameter)
	}
	for _, tag := range c.DatadogTags {
		if !strings.Contains(tag, ":") {
			return fmt.Errorf("dd_tags entry %q: %w (want key:value)", tag, histogram.ErrInvalidParameter)
		}
	}
	return nil
}
