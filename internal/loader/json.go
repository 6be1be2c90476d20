package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"binner/internal/histogram"
)

// jsonSource reads JSON records from a file. Three layouts are accepted, in
// the order they are probed:
//   - a root array of objects,
//   - a root object holding exactly one array-of-objects field (envelope),
//   - newline-delimited objects (NDJSON / multiple top-level values).
//
// Nested objects are flattened into dotted keys, so {"a":{"b":1}} exposes a
// column named "a.b".
type jsonSource struct {
	path string
}

func newJSONSource(path string) *jsonSource { return &jsonSource{path: path} }

func (s *jsonSource) records() ([]map[string]any, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}

	var recs []map[string]any
	emit := func(m map[string]any) {
		flat := make(map[string]any, len(m))
		flattenRecord("", m, flat)
		recs = append(recs, flat)
	}

	switch v := root.(type) {
	case []any:
		for _, it := range v {
			if m, ok := it.(map[string]any); ok {
				emit(m)
			}
		}
	case map[string]any:
		if slice := objectSlice(v); slice != nil {
			for _, m := range slice {
				emit(m)
			}
		} else {
			emit(v)
		}
	default:
		return nil, fmt.Errorf("decode %s: root is neither an object nor an array", s.path)
	}

	// Remaining top-level values (NDJSON).
	for {
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("decode %s: %w", s.path, err)
		}
		emit(obj)
	}
	return recs, nil
}

// objectSlice returns the elements of the first array-of-objects field of an
// envelope object, or nil when no such field exists.
func objectSlice(root map[string]any) []map[string]any {
	for _, v := range root {
		arr, ok := v.([]any)
		if !ok || len(arr) == 0 {
			continue
		}
		objs := make([]map[string]any, 0, len(arr))
		valid := true
		for _, elem := range arr {
			if elem == nil {
				continue
			}
			m, ok := elem.(map[string]any)
			if !ok {
				valid = false
				break
			}
			objs = append(objs, m)
		}
		if valid && len(objs) > 0 {
			return objs
		}
	}
	return nil
}

func flattenRecord(prefix string, in map[string]any, out map[string]any) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if m, ok := v.(map[string]any); ok {
			flattenRecord(key, m, out)
			continue
		}
		out[key] = v
	}
}

func (s *jsonSource) Columns(ctx context.Context) ([]string, error) {
	recs, err := s.records()
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for _, r := range recs {
		for k := range r {
			set[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func (s *jsonSource) Column(ctx context.Context, name string) (histogram.Column, error) {
	recs, err := s.records()
	if err != nil {
		return histogram.Column{}, err
	}

	available, err := s.Columns(ctx)
	if err != nil {
		return histogram.Column{}, err
	}
	idx, ok := matchColumn(name, available)
	if !ok {
		return histogram.Column{}, columnNotFound(name, available)
	}
	key := available[idx]

	col := histogram.Column{Name: name, Values: make([]histogram.Value, 0, len(recs))}
	for _, r := range recs {
		col.Values = append(col.Values, jsonValue(r[key]))
	}
	return col, nil
}

// jsonValue coerces a decoded JSON field to a nullable double. Strings,
// booleans, arrays and JSON null are all nulls here: only numbers bin.
func jsonValue(v any) histogram.Value {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return histogram.Null()
		}
		return histogram.Num(f)
	case float64:
		return histogram.Num(t)
	}
	return histogram.Null()
}

func (s *jsonSource) Close() error { return nil }
