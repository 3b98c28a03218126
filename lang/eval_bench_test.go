package lang

import (
	"context"
	"testing"
)

// BenchmarkParse measures parsing and binding without caching.
func BenchmarkParse(b *testing.B) {
	tests := []struct {
		name string
		expr string
	}{
		{"arithmetic", "x * 2 + y / 3 - 1"},
		{"string_concatenation", `greeting + ", " + name + "!"`},
		{"method_call", "Math.Max(x, y) + Math.Abs(x - y)"},
		{"conditional", "x > y ? x : y"},
		{"lambda", "xs.Where(n => n > x).Select(n => n * 2).Sum()"},
	}

	it := New()

	for _, tt := range tests {
		b.Run(tt.name, func(b *testing.B) {
			params := benchParams()

			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				if _, err := it.Parse(context.Background(), tt.expr, params...); err != nil {
					b.Fatalf("parse error: %v", err)
				}
			}
		})
	}
}

// BenchmarkInvoke measures evaluation of an already parsed expression.
func BenchmarkInvoke(b *testing.B) {
	tests := []struct {
		name string
		expr string
	}{
		{"arithmetic", "x * 2 + y / 3 - 1"},
		{"method_call", "Math.Max(x, y) + Math.Abs(x - y)"},
		{"lambda", "xs.Where(n => n > x).Select(n => n * 2).Sum()"},
	}

	it := New()

	for _, tt := range tests {
		b.Run(tt.name, func(b *testing.B) {
			l := it.MustParse(context.Background(), tt.expr, benchParams()...)

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				if _, err := l.Invoke(context.Background()); err != nil {
					b.Fatalf("eval error: %v", err)
				}
			}
		})
	}
}

// BenchmarkParse_CacheEffect compares cold parses with cache hits.
func BenchmarkParse_CacheEffect(b *testing.B) {
	const expr = "Math.Max(x, y) + Math.Abs(x - y)"

	b.Run("uncached", func(b *testing.B) {
		it := New()
		params := benchParams()

		for i := 0; i < b.N; i++ {
			if _, err := it.Parse(context.Background(), expr, params...); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("cached", func(b *testing.B) {
		it := New(WithCache(true))
		params := benchParams()

		it.MustParse(context.Background(), expr, params...)
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			if _, err := it.Parse(context.Background(), expr, params...); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func benchParams() []*Parameter {
	return []*Parameter{
		Arg("x", int32(10)),
		Arg("y", int32(20)),
		Arg("greeting", "Hello"),
		Arg("name", "World"),
		Arg("xs", []int32{4, 8, 15, 16, 23, 42}),
	}
}
