package lang

import (
	"log/slog"
	"reflect"
	"slices"

	"github.com/shopspring/decimal"
)

// Sequence signatures. Receivers are IEnumerable<T>, which slices, arrays,
// and other sequences convert to implicitly.
var (
	seqT  = seqOf(typeT)
	seqU  = seqOf(typeU)
	predT = funcOf(typeBool, typeT)
	selTU = funcOf(typeU, typeT)
)

// funcOf returns the func type (in...) out.
func funcOf(out reflect.Type, in ...reflect.Type) reflect.Type {
	if out == nil {
		return reflect.FuncOf(in, nil, false)
	}

	return reflect.FuncOf(in, []reflect.Type{out}, false)
}

// sequenceExtensions returns the query operators over sequences.
func sequenceExtensions() []*Method {
	ms := []*Method{
		ext("Where", funcOf(seqT, seqT, predT), func(b Bindings, a []reflect.Value) (reflect.Value, error) {
			src, pred := a[0], a[1]

			return lazySeq(b.Of(typeT), func(yield func(reflect.Value) bool) {
				each(src, func(v reflect.Value) bool {
					return !test(pred, v) || yield(v)
				})
			}), nil
		}),
		ext("Select", funcOf(seqU, seqT, selTU), func(b Bindings, a []reflect.Value) (reflect.Value, error) {
			src, sel := a[0], a[1]

			return lazySeq(b.Of(typeU), func(yield func(reflect.Value) bool) {
				each(src, func(v reflect.Value) bool {
					return yield(sel.Call([]reflect.Value{v})[0])
				})
			}), nil
		}),
		ext("Any", funcOf(typeBool, seqT), func(_ Bindings, a []reflect.Value) (reflect.Value, error) {
			found := false

			each(a[0], func(reflect.Value) bool {
				found = true
				return false
			})

			return reflect.ValueOf(found), nil
		}),
		ext("Any", funcOf(typeBool, seqT, predT), func(_ Bindings, a []reflect.Value) (reflect.Value, error) {
			found := false

			each(a[0], func(v reflect.Value) bool {
				found = test(a[1], v)
				return !found
			})

			return reflect.ValueOf(found), nil
		}),
		ext("All", funcOf(typeBool, seqT, predT), func(_ Bindings, a []reflect.Value) (reflect.Value, error) {
			all := true

			each(a[0], func(v reflect.Value) bool {
				all = test(a[1], v)
				return all
			})

			return reflect.ValueOf(all), nil
		}),
		ext("Count", funcOf(typeInt32, seqT), func(_ Bindings, a []reflect.Value) (reflect.Value, error) {
			return reflect.ValueOf(int32(len(collect(a[0])))), nil
		}),
		ext("Count", funcOf(typeInt32, seqT, predT), func(_ Bindings, a []reflect.Value) (reflect.Value, error) {
			var n int32

			each(a[0], func(v reflect.Value) bool {
				if test(a[1], v) {
					n++
				}

				return true
			})

			return reflect.ValueOf(n), nil
		}),
		ext("Contains", funcOf(typeBool, seqT, typeT), func(_ Bindings, a []reflect.Value) (reflect.Value, error) {
			found := false

			each(a[0], func(v reflect.Value) bool {
				found = equalValues(v, a[1])
				return !found
			})

			return reflect.ValueOf(found), nil
		}),
		ext("First", funcOf(typeT, seqT), func(b Bindings, a []reflect.Value) (reflect.Value, error) {
			return first(a[0], reflect.Value{}, b.Of(typeT), false)
		}),
		ext("First", funcOf(typeT, seqT, predT), func(b Bindings, a []reflect.Value) (reflect.Value, error) {
			return first(a[0], a[1], b.Of(typeT), false)
		}),
		ext("FirstOrDefault", funcOf(typeT, seqT), func(b Bindings, a []reflect.Value) (reflect.Value, error) {
			return first(a[0], reflect.Value{}, b.Of(typeT), true)
		}),
		ext("FirstOrDefault", funcOf(typeT, seqT, predT), func(b Bindings, a []reflect.Value) (reflect.Value, error) {
			return first(a[0], a[1], b.Of(typeT), true)
		}),
		ext("Last", funcOf(typeT, seqT), func(b Bindings, a []reflect.Value) (reflect.Value, error) {
			return last(a[0], reflect.Value{}, b.Of(typeT), false)
		}),
		ext("Last", funcOf(typeT, seqT, predT), func(b Bindings, a []reflect.Value) (reflect.Value, error) {
			return last(a[0], a[1], b.Of(typeT), false)
		}),
		ext("LastOrDefault", funcOf(typeT, seqT), func(b Bindings, a []reflect.Value) (reflect.Value, error) {
			return last(a[0], reflect.Value{}, b.Of(typeT), true)
		}),
		ext("LastOrDefault", funcOf(typeT, seqT, predT), func(b Bindings, a []reflect.Value) (reflect.Value, error) {
			return last(a[0], a[1], b.Of(typeT), true)
		}),
		ext("ElementAt", funcOf(typeT, seqT, typeInt32), func(_ Bindings, a []reflect.Value) (reflect.Value, error) {
			vs, i := collect(a[0]), int(a[1].Int())
			if i < 0 || i >= len(vs) {
				return reflect.Value{}, indexOutOfRange(i, len(vs))
			}

			return vs[i], nil
		}),
		ext("Skip", funcOf(seqT, seqT, typeInt32), func(b Bindings, a []reflect.Value) (reflect.Value, error) {
			src, n := a[0], a[1].Int()

			return lazySeq(b.Of(typeT), func(yield func(reflect.Value) bool) {
				var i int64

				each(src, func(v reflect.Value) bool {
					if i++; i <= n {
						return true
					}

					return yield(v)
				})
			}), nil
		}),
		ext("Take", funcOf(seqT, seqT, typeInt32), func(b Bindings, a []reflect.Value) (reflect.Value, error) {
			src, n := a[0], a[1].Int()

			return lazySeq(b.Of(typeT), func(yield func(reflect.Value) bool) {
				if n <= 0 {
					return
				}

				var i int64

				each(src, func(v reflect.Value) bool {
					i++
					return yield(v) && i < n
				})
			}), nil
		}),
		ext("SkipWhile", funcOf(seqT, seqT, predT), func(b Bindings, a []reflect.Value) (reflect.Value, error) {
			src, pred := a[0], a[1]

			return lazySeq(b.Of(typeT), func(yield func(reflect.Value) bool) {
				skipping := true

				each(src, func(v reflect.Value) bool {
					if skipping = skipping && test(pred, v); skipping {
						return true
					}

					return yield(v)
				})
			}), nil
		}),
		ext("TakeWhile", funcOf(seqT, seqT, predT), func(b Bindings, a []reflect.Value) (reflect.Value, error) {
			src, pred := a[0], a[1]

			return lazySeq(b.Of(typeT), func(yield func(reflect.Value) bool) {
				each(src, func(v reflect.Value) bool {
					return test(pred, v) && yield(v)
				})
			}), nil
		}),
		ext("Concat", funcOf(seqT, seqT, seqT), func(b Bindings, a []reflect.Value) (reflect.Value, error) {
			l, r := a[0], a[1]

			return lazySeq(b.Of(typeT), func(yield func(reflect.Value) bool) {
				more := true

				each(l, func(v reflect.Value) bool {
					more = yield(v)
					return more
				})

				if more {
					each(r, yield)
				}
			}), nil
		}),
		ext("Distinct", funcOf(seqT, seqT), func(b Bindings, a []reflect.Value) (reflect.Value, error) {
			src := a[0]

			return lazySeq(b.Of(typeT), func(yield func(reflect.Value) bool) {
				var seen []reflect.Value

				each(src, func(v reflect.Value) bool {
					if slices.ContainsFunc(seen, func(s reflect.Value) bool { return equalValues(s, v) }) {
						return true
					}

					seen = append(seen, v)

					return yield(v)
				})
			}), nil
		}),
		ext("Reverse", funcOf(seqT, seqT), func(b Bindings, a []reflect.Value) (reflect.Value, error) {
			src := a[0]

			return lazySeq(b.Of(typeT), func(yield func(reflect.Value) bool) {
				vs := collect(src)
				slices.Reverse(vs)

				for _, v := range vs {
					if !yield(v) {
						return
					}
				}
			}), nil
		}),
		ext("OrderBy", funcOf(seqT, seqT, selTU), func(b Bindings, a []reflect.Value) (reflect.Value, error) {
			return orderBy(b.Of(typeT), a[0], a[1], false), nil
		}),
		ext("OrderByDescending", funcOf(seqT, seqT, selTU), func(b Bindings, a []reflect.Value) (reflect.Value, error) {
			return orderBy(b.Of(typeT), a[0], a[1], true), nil
		}),
		ext("Min", funcOf(typeT, seqT), func(_ Bindings, a []reflect.Value) (reflect.Value, error) {
			return extreme(collect(a[0]), -1)
		}),
		ext("Max", funcOf(typeT, seqT), func(_ Bindings, a []reflect.Value) (reflect.Value, error) {
			return extreme(collect(a[0]), 1)
		}),
		ext("Min", funcOf(typeU, seqT, selTU), func(_ Bindings, a []reflect.Value) (reflect.Value, error) {
			return extreme(project(a[0], a[1]), -1)
		}),
		ext("Max", funcOf(typeU, seqT, selTU), func(_ Bindings, a []reflect.Value) (reflect.Value, error) {
			return extreme(project(a[0], a[1]), 1)
		}),
		ext("Aggregate", funcOf(typeT, seqT, funcOf(typeT, typeT, typeT)), func(_ Bindings, a []reflect.Value) (reflect.Value, error) {
			vs := collect(a[0])
			if len(vs) == 0 {
				return reflect.Value{}, noElements()
			}

			acc := vs[0]
			for _, v := range vs[1:] {
				acc = a[1].Call([]reflect.Value{acc, v})[0]
			}

			return acc, nil
		}),
		ext("Aggregate", funcOf(typeU, seqT, typeU, funcOf(typeU, typeU, typeT)), func(_ Bindings, a []reflect.Value) (reflect.Value, error) {
			acc := a[1]

			each(a[0], func(v reflect.Value) bool {
				acc = a[2].Call([]reflect.Value{acc, v})[0]
				return true
			})

			return acc, nil
		}),
		ext("ToList", funcOf(reflect.SliceOf(typeT), seqT), toSlice),
		ext("ToArray", funcOf(reflect.SliceOf(typeT), seqT), toSlice),
		ext("ToDictionary", funcOf(reflect.MapOf(typeU, typeT), seqT, selTU), func(b Bindings, a []reflect.Value) (reflect.Value, error) {
			kt := b.Of(typeU)
			if !kt.Comparable() {
				return reflect.Value{}, evalError(ErrInvalidOperation,
					"Dictionary key type '"+TypeName(kt)+"' is not comparable")
			}

			m := reflect.MakeMap(reflect.MapOf(kt, b.Of(typeT)))

			var err error

			each(a[0], func(v reflect.Value) bool {
				k := a[1].Call([]reflect.Value{v})[0]
				if m.MapIndex(k).IsValid() {
					err = evalError(ErrInvalidOperation,
						"An item with the same key has already been added",
						slog.String("key", stringify(k)))

					return false
				}

				m.SetMapIndex(k, v)

				return true
			})

			return m, err
		}),
	}

	for _, t := range []reflect.Type{typeInt32, typeInt64, typeFloat32, typeFloat64, typeDecimal} {
		ms = append(ms, aggregates(t)...)
	}

	return ms
}

// ext builds a generic extension method whose receiver is the first
// parameter of sig.
func ext(name string, sig reflect.Type, call func(Bindings, []reflect.Value) (reflect.Value, error)) *Method {
	return GenericExtension(name, sig,
		func(b Bindings, _ reflect.Value, args []reflect.Value) (reflect.Value, error) {
			return call(b, args)
		})
}

// aggregates returns Sum and Average over sequences of t, and over
// projections of any sequence to t.
func aggregates(t reflect.Type) []*Method {
	avg := typeFloat64
	if t == typeDecimal || t == typeFloat32 {
		avg = t
	}

	sum := func(vs []reflect.Value) (reflect.Value, error) {
		total := decimal.Zero
		for _, v := range vs {
			total = total.Add(toDecimal(v))
		}

		return fromDecimal(total, t)
	}

	average := func(vs []reflect.Value) (reflect.Value, error) {
		if len(vs) == 0 {
			return reflect.Value{}, noElements()
		}

		if isFloatKind(t) {
			var total float64
			for _, v := range vs {
				total += v.Float()
			}

			return reflect.ValueOf(total / float64(len(vs))).Convert(avg), nil
		}

		total := decimal.Zero
		for _, v := range vs {
			total = total.Add(toDecimal(v))
		}

		return fromDecimal(total.DivRound(decimal.NewFromInt(int64(len(vs))), decimalPlaces), avg)
	}

	if isFloatKind(t) {
		sum = func(vs []reflect.Value) (reflect.Value, error) {
			var total float64
			for _, v := range vs {
				total += v.Float()
			}

			return reflect.ValueOf(total).Convert(t), nil
		}
	}

	seq, sel := seqOf(t), funcOf(t, typeT)

	return []*Method{
		ext("Sum", funcOf(t, seq), func(_ Bindings, a []reflect.Value) (reflect.Value, error) {
			return sum(collect(a[0]))
		}),
		ext("Sum", funcOf(t, seqT, sel), func(_ Bindings, a []reflect.Value) (reflect.Value, error) {
			return sum(project(a[0], a[1]))
		}),
		ext("Average", funcOf(avg, seq), func(_ Bindings, a []reflect.Value) (reflect.Value, error) {
			return average(collect(a[0]))
		}),
		ext("Average", funcOf(avg, seqT, sel), func(_ Bindings, a []reflect.Value) (reflect.Value, error) {
			return average(project(a[0], a[1]))
		}),
	}
}

// lazySeq returns a sequence of elem that runs body on each enumeration.
func lazySeq(elem reflect.Type, body func(yield func(reflect.Value) bool)) reflect.Value {
	yt := funcOf(typeBool, elem)

	return reflect.MakeFunc(funcOf(nil, yt), func(args []reflect.Value) []reflect.Value {
		y := args[0]

		body(func(v reflect.Value) bool {
			return y.Call([]reflect.Value{v})[0].Bool()
		})

		return nil
	})
}

func test(pred, v reflect.Value) bool {
	return pred.Call([]reflect.Value{v})[0].Bool()
}

func collect(src reflect.Value) []reflect.Value {
	var out []reflect.Value

	each(src, func(v reflect.Value) bool {
		out = append(out, v)
		return true
	})

	return out
}

func project(src, sel reflect.Value) []reflect.Value {
	var out []reflect.Value

	each(src, func(v reflect.Value) bool {
		out = append(out, sel.Call([]reflect.Value{v})[0])
		return true
	})

	return out
}

func toSlice(b Bindings, a []reflect.Value) (reflect.Value, error) {
	vs := collect(a[0])
	out := reflect.MakeSlice(reflect.SliceOf(b.Of(typeT)), 0, len(vs))

	return reflect.Append(out, vs...), nil
}

func first(src, pred reflect.Value, elem reflect.Type, orDefault bool) (reflect.Value, error) {
	var found reflect.Value

	each(src, func(v reflect.Value) bool {
		if !pred.IsValid() || test(pred, v) {
			found = v
			return false
		}

		return true
	})

	return elementOrDefault(found, pred.IsValid(), elem, orDefault)
}

func last(src, pred reflect.Value, elem reflect.Type, orDefault bool) (reflect.Value, error) {
	var found reflect.Value

	each(src, func(v reflect.Value) bool {
		if !pred.IsValid() || test(pred, v) {
			found = v
		}

		return true
	})

	return elementOrDefault(found, pred.IsValid(), elem, orDefault)
}

func elementOrDefault(found reflect.Value, matching bool, elem reflect.Type, orDefault bool) (reflect.Value, error) {
	switch {
	case found.IsValid():
		return found, nil
	case orDefault:
		return reflect.Zero(elem), nil
	case matching:
		return reflect.Value{}, evalError(ErrInvalidOperation, "Sequence contains no matching element")
	}

	return reflect.Value{}, noElements()
}

// orderBy returns src stably sorted by the keys sel selects.
func orderBy(elem reflect.Type, src, sel reflect.Value, desc bool) reflect.Value {
	return lazySeq(elem, func(yield func(reflect.Value) bool) {
		type keyed struct{ k, v reflect.Value }

		var items []keyed

		each(src, func(v reflect.Value) bool {
			items = append(items, keyed{sel.Call([]reflect.Value{v})[0], v})
			return true
		})

		slices.SortStableFunc(items, func(a, b keyed) int {
			c, ok := compareValues(a.k, b.k)
			if !ok {
				panic(&lambdaPanic{err: evalError(ErrInvalidOperation,
					"Failed to compare two elements in the sequence",
					slog.String("type", TypeName(a.k.Type())))})
			}

			if desc {
				return -c
			}

			return c
		})

		for _, it := range items {
			if !yield(it.v) {
				return
			}
		}
	})
}

// extreme returns the least (dir < 0) or greatest (dir > 0) element.
func extreme(vs []reflect.Value, dir int) (reflect.Value, error) {
	if len(vs) == 0 {
		return reflect.Value{}, noElements()
	}

	best := vs[0]

	for _, v := range vs[1:] {
		c, ok := compareValues(v, best)
		if !ok {
			return reflect.Value{}, evalError(ErrInvalidOperation,
				"At least one object must implement IComparable",
				slog.String("type", TypeName(v.Type())))
		}

		if c*dir > 0 {
			best = v
		}
	}

	return best, nil
}

func noElements() *Error {
	return evalError(ErrInvalidOperation, "Sequence contains no elements")
}
