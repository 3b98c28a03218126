package lang

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"log/slog"
	"reflect"
	"strconv"
	"sync"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/singleflight"
)

// parseCache stores parse results keyed by (text_hash ^ signature_hash).
// Concurrent misses for the same text and signature share one parse.
type parseCache struct {
	entries sync.Map // string → *entry
	flight  singleflight.Group
}

// entry is one completed parse.
type entry struct {
	text   string
	to     reflect.Type
	types  []reflect.Type
	names  []string
	lambda *Lambda
	err    error
}

func newParseCache() *parseCache { return &parseCache{} }

// signature encodes the result type and parameter signature using gob.
func signature(to reflect.Type, params []*Parameter) []byte {
	var buf bytes.Buffer

	enc := gob.NewEncoder(&buf)

	if to != nil {
		_ = enc.Encode(to.String())
	}

	for _, p := range params {
		_ = enc.Encode(p.Name)
		_ = enc.Encode(p.declaredType().String())
	}

	return buf.Bytes()
}

// load returns the cached result for text parsed as to over params, calling
// parse on a miss. Results other than context errors are kept.
func (c *parseCache) load(
	ctx context.Context,
	set *settings,
	text string,
	to reflect.Type,
	params []*Parameter,
	parse func() (*Lambda, error),
) (*Lambda, error) {
	sig := signature(to, params)
	textHash := xxh3.HashString(text)
	sigHash := xxh3.Hash(sig)
	key := cacheKey(textHash, sigHash)

	attrs := []slog.Attr{
		slog.String("text_hash", strconv.FormatUint(textHash, 16)),
		slog.String("signature_hash", strconv.FormatUint(sigHash, 16)),
	}

	if v, ok := c.entries.Load(key); ok {
		if e, ok := v.(*entry); ok && e.matches(text, to, params) {
			set.logger.TraceContext(ctx, "cache lookup", append(attrs, slog.Bool("cache_hit", true))...)

			return e.lambda, e.err
		}

		set.logger.TraceContext(ctx, "cache collision", slog.String("key", key))

		return parse()
	}

	v, err, shared := c.flight.Do(string(sig)+"\x00"+text, func() (any, error) {
		l, err := parse()
		if err == nil || !isContextError(err) {
			e := &entry{text: text, to: to, names: make([]string, len(params)), types: make([]reflect.Type, len(params)), lambda: l, err: err}
			for i, p := range params {
				e.names[i], e.types[i] = p.Name, p.declaredType()
			}

			c.entries.LoadOrStore(key, e)
		}

		return l, err
	})

	set.logger.TraceContext(ctx, "cache lookup",
		append(attrs, slog.Bool("cache_hit", false), slog.Bool("shared", shared))...)

	l, _ := v.(*Lambda)

	return l, err
}

func cacheKey(textHash, sigHash uint64) string {
	return strconv.FormatUint(textHash^sigHash, 36)
}

// matches reports whether e was parsed from text as to over params. Distinct
// inputs can share a key.
func (e *entry) matches(text string, to reflect.Type, params []*Parameter) bool {
	if e.text != text || e.to != to || len(e.names) != len(params) {
		return false
	}

	for i, p := range params {
		if e.names[i] != p.Name || e.types[i] != p.declaredType() {
			return false
		}
	}

	return true
}

// clear removes all cached entries.
func (c *parseCache) clear() {
	c.entries.Clear()
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
