// Command binner converts one numeric column of a data source into a labeled
// histogram and prints it as JSON.
//
// The source is resolved from -file: CSV, JSON/NDJSON and HTML files, SQLite
// database files, or postgres:// / sqlserver:// DSNs (with -table). Bin
// boundaries come either from a named algorithm (-algorithm with -num-bins /
// -std-dev-size) or from an explicit comma-separated edge list (-bins, which
// may include the token "null" to request a null bucket).
//
// Examples:
//
//	binner -file sales.csv -column amount -algorithm jenks -num-bins 6
//	binner -file sales.csv -column amount -bins "0,10,100,null"
//	binner -file postgres://user:pw@db/app -table orders -list-columns
//
// A YAML defaults file (-config) can pre-set algorithm, num_bins,
// std_dev_size, table, encoding and output; command-line flags always win.
//
// Run metrics are submitted to Datadog when DD_API_KEY is present in the
// environment; otherwise instrumentation is a no-op.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"binner/internal/config"
	"binner/internal/histogram"
	"binner/internal/loader"
	"binner/internal/metrics"
	"binner/internal/metrics/datadog"
)

// deps are external seams for testability.
//
// When to use:
//   - Unit tests: inject a fake source factory and capture stdout/stderr.
//   - Alternate runtimes: swap the metrics backend.
type deps struct {
	Stdout io.Writer
	Stderr io.Writer

	Now            func() time.Time
	OpenSource     func(ctx context.Context, path string, opt loader.Options) (loader.Source, error)
	BackendFactory func(ctx context.Context, jobName string, tags []string) (metrics.Backend, error)
	MetricsEnabled func() bool
}

// runConfig holds the parsed flags and derived values for a run.
type runConfig struct {
	File        string
	Column      string
	Algorithm   string
	NumBins     int
	StdDevSize  float64
	Bins        string
	Output      string
	ListColumns bool
	Table       string
	Encoding    string
	ConfigPath  string
	DDTags      string
	Job         string
}

// main is intentionally small: it wires real dependencies and exits with a code.
func main() {
	code := run(context.Background(), os.Args[1:], deps{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Now:    time.Now,
		OpenSource: func(ctx context.Context, path string, opt loader.Options) (loader.Source, error) {
			return loader.Open(ctx, path, opt)
		},
		BackendFactory: func(ctx context.Context, jobName string, tags []string) (metrics.Backend, error) {
			return datadog.NewBackend(ctx, datadog.Options{
				JobName: jobName,
				Tags:    tags,
			})
		},
		MetricsEnabled: datadog.Enabled,
	})
	os.Exit(code)
}

// run executes the command and returns an exit code.
//
// Exit codes:
//   - 0: success.
//   - 1: run failure (source, column or data errors).
//   - 2: usage or configuration error.
func run(ctx context.Context, args []string, d deps) int {
	if d.Stdout == nil {
		d.Stdout = io.Discard
	}
	if d.Stderr == nil {
		d.Stderr = io.Discard
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.OpenSource == nil {
		d.OpenSource = loader.Open
	}
	if d.MetricsEnabled == nil {
		d.MetricsEnabled = func() bool { return false }
	}

	cfg, explicit, err := parseFlags(args)
	if err != nil {
		fmt.Fprintln(d.Stderr, err.Error())
		return 2
	}

	fileCfg, err := config.Load(cfg.ConfigPath)
	if err != nil {
		fmt.Fprintln(d.Stderr, err.Error())
		return 2
	}
	applyDefaults(&cfg, explicit, fileCfg)

	if err := validate(cfg, explicit); err != nil {
		fmt.Fprintln(d.Stderr, err.Error())
		return 2
	}

	if d.MetricsEnabled() && d.BackendFactory != nil {
		tags := append(fileCfg.DatadogTags, datadog.ParseTagsCSV(cfg.DDTags)...)
		b, err := d.BackendFactory(ctx, cfg.Job, tags)
		if err != nil {
			// Metrics are best-effort; a broken backend never blocks the run.
			fmt.Fprintf(d.Stderr, "metrics: datadog init failed: %v\n", err)
		} else {
			metrics.SetBackend(b)
			defer func() {
				if err := metrics.Close(); err != nil {
					fmt.Fprintf(d.Stderr, "metrics: close/flush error: %v\n", err)
				}
			}()
		}
	}

	start := d.Now()
	code, st := runHistogram(ctx, cfg, d)
	observeRun(cfg, code, st, d.Now().Sub(start))
	return code
}

// runHistogram performs the actual work and returns the exit code plus the
// column statistics (zero when the run never reached the column).
func runHistogram(ctx context.Context, cfg runConfig, d deps) (int, histogram.Stats) {
	src, err := d.OpenSource(ctx, cfg.File, loader.Options{Table: cfg.Table, Encoding: cfg.Encoding})
	if err != nil {
		fmt.Fprintln(d.Stderr, err.Error())
		return exitCode(err), histogram.Stats{}
	}
	defer src.Close()

	if cfg.ListColumns {
		cols, err := src.Columns(ctx)
		if err != nil {
			fmt.Fprintln(d.Stderr, err.Error())
			return exitCode(err), histogram.Stats{}
		}
		for _, c := range cols {
			fmt.Fprintln(d.Stdout, c)
		}
		return 0, histogram.Stats{}
	}

	col, err := src.Column(ctx, cfg.Column)
	if err != nil {
		fmt.Fprintln(d.Stderr, err.Error())
		return exitCode(err), histogram.Stats{}
	}

	st := histogram.Summarize(col)

	var (
		edges   []float64
		nullBin bool
		runMeta histogram.Run
	)
	if cfg.Bins != "" {
		edges, nullBin, err = histogram.ParseCustomEdges(splitTokens(cfg.Bins))
		if err != nil {
			fmt.Fprintln(d.Stderr, err.Error())
			return exitCode(err), st
		}
		runMeta = histogram.Run{File: cfg.File, Column: cfg.Column}
	} else {
		alg, perr := histogram.ParseAlgorithm(cfg.Algorithm)
		if perr != nil {
			fmt.Fprintln(d.Stderr, perr.Error())
			return exitCode(perr), st
		}
		edges, err = histogram.Breaks(alg, st, histogram.Params{NumBins: cfg.NumBins, StdDevSize: cfg.StdDevSize})
		if err != nil {
			fmt.Fprintln(d.Stderr, err.Error())
			return exitCode(err), st
		}
		runMeta = histogram.Run{File: cfg.File, Column: cfg.Column, Algorithm: &alg}
		if alg != histogram.HeadTail {
			numBins := cfg.NumBins
			runMeta.NumBins = &numBins
		}
		if alg == histogram.StandardDeviation {
			stdDevSize := cfg.StdDevSize
			runMeta.StdDevSize = &stdDevSize
		}
	}

	buckets := histogram.Build(edges, col, nullBin)
	res := histogram.Assemble(runMeta, st, edges, buckets)

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		fmt.Fprintf(d.Stderr, "encode result: %v\n", err)
		return 1, st
	}
	out = append(out, '\n')

	if cfg.Output == "" {
		if _, err := d.Stdout.Write(out); err != nil {
			fmt.Fprintf(d.Stderr, "write result: %v\n", err)
			return 1, st
		}
		return 0, st
	}
	if err := os.WriteFile(cfg.Output, out, 0o644); err != nil {
		fmt.Fprintf(d.Stderr, "write %s: %v\n", cfg.Output, err)
		return 1, st
	}
	fmt.Fprintf(d.Stderr, "wrote %s\n", cfg.Output)
	return 0, st
}

func parseFlags(args []string) (runConfig, map[string]bool, error) {
	fs := flag.NewFlagSet("binner", flag.ContinueOnError)

	// Capture help/usage text instead of writing to stdout.
	var usageBuf strings.Builder
	fs.SetOutput(&usageBuf)
	fs.Usage = func() {
		fmt.Fprintf(&usageBuf, "Usage of %s:\n", fs.Name())
		fs.PrintDefaults()
	}

	var cfg runConfig
	fs.StringVar(&cfg.File, "file", "", "Path or DSN of the data source (.csv, .json, .ndjson, .html, .db/.sqlite, postgres://, sqlserver://, sqlite:)")
	fs.StringVar(&cfg.Column, "column", "", "Name of the numeric column to bin")
	fs.StringVar(&cfg.Algorithm, "algorithm", "", "Binning algorithm: jenks|quantile|equal-interval|standard-deviation|head-tail")
	fs.IntVar(&cfg.NumBins, "num-bins", 5, "Number of bins (ignored by head-tail and -bins)")
	fs.Float64Var(&cfg.StdDevSize, "std-dev-size", 1.0, "Standard-deviation step size (standard-deviation algorithm only)")
	fs.StringVar(&cfg.Bins, "bins", "", "Comma-separated custom bin edges; include \"null\" to add a null bucket")
	fs.StringVar(&cfg.Output, "output", "", "Write the JSON result to this file instead of stdout")
	fs.BoolVar(&cfg.ListColumns, "list-columns", false, "List the source's column names and exit")
	fs.StringVar(&cfg.Table, "table", "", "Table to read (SQL sources) or table id (HTML sources)")
	fs.StringVar(&cfg.Encoding, "encoding", "", "CSV charset: utf-8 (default), latin1, windows-1250")
	fs.StringVar(&cfg.ConfigPath, "config", "", "YAML defaults file")
	fs.StringVar(&cfg.DDTags, "dd-tags", "", "Extra Datadog tags CSV (e.g. env:prod,team:data)")
	fs.StringVar(&cfg.Job, "job", "", "Logical job name used in metrics tags")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return runConfig{}, nil, errors.New(usageBuf.String())
		}
		return runConfig{}, nil, fmt.Errorf("%v\n\n%s", err, usageBuf.String())
	}

	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	return cfg, explicit, nil
}

// applyDefaults fills flags the user did not set from the defaults file.
// Built-in flag defaults have already been applied by the flag package, so
// only explicitly absent flags are overwritten.
func applyDefaults(cfg *runConfig, explicit map[string]bool, fileCfg *config.Config) {
	if !explicit["algorithm"] && fileCfg.Algorithm != "" {
		cfg.Algorithm = fileCfg.Algorithm
	}
	if !explicit["num-bins"] && fileCfg.NumBins != nil {
		cfg.NumBins = *fileCfg.NumBins
	}
	if !explicit["std-dev-size"] && fileCfg.StdDevSize != nil {
		cfg.StdDevSize = *fileCfg.StdDevSize
	}
	if !explicit["table"] && fileCfg.Table != "" {
		cfg.Table = fileCfg.Table
	}
	if !explicit["encoding"] && fileCfg.Encoding != "" {
		cfg.Encoding = fileCfg.Encoding
	}
	if !explicit["output"] && fileCfg.Output != "" {
		cfg.Output = fileCfg.Output
	}
}

func validate(cfg runConfig, explicit map[string]bool) error {
	if strings.TrimSpace(cfg.File) == "" {
		return errors.New("missing required -file")
	}
	if cfg.ListColumns {
		return nil
	}
	if strings.TrimSpace(cfg.Column) == "" {
		return errors.New("missing required -column")
	}
	if explicit["algorithm"] && explicit["bins"] {
		return errors.New("-algorithm and -bins are mutually exclusive")
	}
	if cfg.Algorithm == "" && cfg.Bins == "" {
		return errors.New("one of -algorithm or -bins is required")
	}
	return nil
}

// splitTokens splits the -bins value on commas, trimming whitespace and
// dropping empty segments.
func splitTokens(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// exitCode classifies an error: parameter-shaped failures are usage errors,
// everything else is a run failure.
func exitCode(err error) int {
	usage := []error{
		histogram.ErrInvalidAlgorithmName,
		histogram.ErrInvalidNumBins,
		histogram.ErrInvalidParameter,
		histogram.ErrInvalidNumberOfBinEdges,
		histogram.ErrInvalidBinValue,
	}
	for _, u := range usage {
		if errors.Is(err, u) {
			return 2
		}
	}
	return 1
}

// observeRun emits the run counters and duration to the active metrics
// backend. No-op when no backend is configured.
func observeRun(cfg runConfig, code int, st histogram.Stats, elapsed time.Duration) {
	algo := cfg.Algorithm
	if cfg.Bins != "" {
		algo = "custom"
	}
	if algo == "" {
		algo = "none"
	}
	status := "ok"
	if code != 0 {
		status = "error"
	}
	labels := metrics.Labels{"algorithm": algo, "status": status}

	metrics.IncCounter(datadog.MetricRuns, 1, labels)
	metrics.ObserveHistogram(datadog.MetricRunDuration, elapsed.Seconds(), labels)
	if st.TotalRows > 0 {
		metrics.IncCounter(datadog.MetricRows, float64(st.TotalRows), metrics.Labels{"kind": "total"})
		metrics.IncCounter(datadog.MetricRows, float64(st.NumericValues), metrics.Labels{"kind": "numeric"})
		metrics.IncCounter(datadog.MetricRows, float64(st.NullValues), metrics.Labels{"kind": "null"})
	}
}
