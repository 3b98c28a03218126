package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"reflect"

	"github.com/goccy/go-yaml"
	"github.com/klauspost/readahead"

	"github.com/ardnew/aexpr/lang"
	"github.com/ardnew/aexpr/log"
)

// loadVars decodes the YAML mapping in the file at path into variable
// values.
func loadVars(ctx context.Context, path string) (map[string]any, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, ErrReadVars.Wrap(err).With(slog.String("file", path))
	}
	defer file.Close()

	ra := readahead.NewReader(file)
	defer ra.Close()

	m, err := decodeVars(ctx, ra)
	if err != nil {
		return nil, lang.WrapError(err).With(slog.String("file", path))
	}

	log.DebugContext(ctx, "loaded variables",
		slog.String("file", path),
		slog.Int("count", len(m)),
	)

	return m, nil
}

// decodeVars decodes a YAML mapping of variable values from r. An empty
// document has no variables.
func decodeVars(ctx context.Context, r io.Reader) (map[string]any, error) {
	var m map[string]any

	err := yaml.NewDecoder(r).DecodeContext(ctx, &m)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, ErrReadVars.Wrap(err)
	}

	if m == nil {
		m = map[string]any{}
	}

	for k, v := range m {
		m[k] = normalize(v)
	}

	return m, nil
}

// normalize converts a decoded YAML value to the types expressions use for
// literals: integers become int or long, and sequences whose elements share
// one type become typed slices.
func normalize(v any) any {
	switch x := v.(type) {
	case uint64:
		if x <= math.MaxInt32 {
			return int32(x)
		}

		if x <= math.MaxInt64 {
			return int64(x)
		}

		return x
	case int64:
		if x >= math.MinInt32 && x <= math.MaxInt32 {
			return int32(x)
		}

		return x
	case int:
		return normalize(int64(x))
	case []any:
		return normalizeSlice(x)
	case map[string]any:
		for k, e := range x {
			x[k] = normalize(e)
		}

		return x
	default:
		return v
	}
}

func normalizeSlice(xs []any) any {
	var elem reflect.Type

	for i, x := range xs {
		xs[i] = normalize(x)

		t := reflect.TypeOf(xs[i])
		switch {
		case i == 0:
			elem = t
		case elem != t:
			elem = nil
		}
	}

	if elem == nil {
		return xs
	}

	out := reflect.MakeSlice(reflect.SliceOf(elem), len(xs), len(xs))
	for i, x := range xs {
		out.Index(i).Set(reflect.ValueOf(x))
	}

	return out.Interface()
}
