package cmd

import (
	"context"

	"github.com/alecthomas/kong"
)

type kongContextKey struct{}

// WithContext returns ctx carrying the parsed command line ktx.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, kongContextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, _ := ctx.Value(kongContextKey{}).(*kong.Context)

	return ktx
}

// kongVar returns the kong variable name, or fallback without a parsed
// command line or when name is undefined.
func kongVar(ctx context.Context, name, fallback string) string {
	if ktx := kongContextFrom(ctx); ktx != nil {
		if v, ok := ktx.Model.Vars()[name]; ok {
			return v
		}
	}

	return fallback
}
