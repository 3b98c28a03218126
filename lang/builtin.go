package lang

import (
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Marker types that carry the static members of Math and Convert.
type (
	mathType    struct{}
	convertType struct{}
)

var (
	typeMath    = reflect.TypeFor[mathType]()
	typeConvert = reflect.TypeFor[convertType]()
)

// Defaults returns the built-in environment: the keyword type aliases and
// their framework names, true, false, and null, the common types with their
// members, the generic type definitions, and the sequence extension
// methods. The result is shared and must not be modified; interpreters
// work on clones of it.
var Defaults = sync.OnceValue(func() *Environment {
	e := NewEnvironment(false)

	for _, a := range aliases {
		must(e.AddType(a.name, a.typ))
	}

	for name, t := range map[string]reflect.Type{
		"Boolean":  typeBool,
		"Char":     typeChar,
		"SByte":    typeInt8,
		"Byte":     typeUint8,
		"Int16":    typeInt16,
		"UInt16":   typeUint16,
		"Int32":    typeInt32,
		"UInt32":   typeUint32,
		"Int64":    typeInt64,
		"UInt64":   typeUint64,
		"IntPtr":   typeInt,
		"UIntPtr":  typeUint,
		"Single":   typeFloat32,
		"Double":   typeFloat64,
		"Decimal":  typeDecimal,
		"String":   typeString,
		"Object":   typeObject,
		"DateTime": typeTime,
		"TimeSpan": typeDuration,
		"Math":     typeMath,
		"Convert":  typeConvert,
		"Action":   reflect.TypeFor[func()](),
	} {
		must(e.AddType(name, t))
	}

	e.AddIdentifier("true", &Constant{Value: reflect.ValueOf(true), pos: noPos, text: "true"})
	e.AddIdentifier("false", &Constant{Value: reflect.ValueOf(false), pos: noPos, text: "false"})
	e.AddIdentifier("null", nullConstant(noPos))

	for _, g := range genericTypes() {
		e.AddGenericType(g)
	}

	for _, ti := range []*TypeInfo{
		stringInfo(),
		charInfo(),
		mathInfo(),
		convertInfo(),
		timeInfo(),
		durationInfo(),
	} {
		must(e.AddTypeInfo(ti))
	}

	for _, ti := range numericInfos() {
		must(e.AddTypeInfo(ti))
	}

	e.AddExtension(sequenceExtensions()...)

	return e
})

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func genericTypes() []*GenericType {
	return []*GenericType{
		{Name: "List", Arity: 1, Make: func(a []reflect.Type) (reflect.Type, error) {
			return reflect.SliceOf(a[0]), nil
		}},
		{Name: "IEnumerable", Arity: 1, Make: func(a []reflect.Type) (reflect.Type, error) {
			return seqOf(a[0]), nil
		}},
		{Name: "Dictionary", Arity: 2, Make: func(a []reflect.Type) (reflect.Type, error) {
			if !a[0].Comparable() {
				return nil, ErrInvalidType.Detail("Dictionary key " + TypeName(a[0]) + " is not comparable")
			}

			return reflect.MapOf(a[0], a[1]), nil
		}},
		{Name: "Nullable", Arity: 1, Make: func(a []reflect.Type) (reflect.Type, error) {
			if isNilable(a[0]) {
				return nil, ErrInvalidType.Detail("Nullable requires a value type")
			}

			return reflect.PointerTo(a[0]), nil
		}},
		{Name: "Func", Arity: -1, Make: func(a []reflect.Type) (reflect.Type, error) {
			n := len(a) - 1
			return reflect.FuncOf(a[:n], []reflect.Type{a[n]}, false), nil
		}},
		{Name: "Action", Arity: -1, Make: func(a []reflect.Type) (reflect.Type, error) {
			return reflect.FuncOf(a, nil, false), nil
		}},
	}
}

func stringInfo() *TypeInfo {
	return Describe(typeString,
		StaticProperty("Empty", ""),
		StaticMethod("IsNullOrEmpty", func(s string) bool { return s == "" }),
		StaticMethod("IsNullOrEmpty", func(s *string) bool { return s == nil || *s == "" }),
		StaticMethod("IsNullOrWhiteSpace", func(s string) bool { return strings.TrimSpace(s) == "" }),
		StaticMethod("IsNullOrWhiteSpace", func(s *string) bool { return s == nil || strings.TrimSpace(*s) == "" }),
		StaticMethod("Concat", func(values ...any) string {
			var sb strings.Builder
			for _, v := range values {
				sb.WriteString(stringify(reflect.ValueOf(v)))
			}

			return sb.String()
		}),
		StaticMethod("Join", func(sep string, values ...any) string {
			parts := make([]string, len(values))
			for i, v := range values {
				parts[i] = stringify(reflect.ValueOf(v))
			}

			return strings.Join(parts, sep)
		}),
		StaticMethod("Join", func(sep string, values []string) string { return strings.Join(values, sep) }),
		GenericMethod("Join", reflect.TypeFor[func(string, func(func(T) bool)) string](), false,
			func(_ Bindings, _ reflect.Value, args []reflect.Value) (reflect.Value, error) {
				var parts []string

				each(args[1], func(v reflect.Value) bool {
					parts = append(parts, stringify(v))
					return true
				})

				return reflect.ValueOf(strings.Join(parts, args[0].String())), nil
			}),
		StaticMethod("Format", formatComposite),
		StaticMethod("Compare", func(a, b string) int32 { return int32(strings.Compare(a, b)) }),
		InstanceMethod("ToUpper", strings.ToUpper),
		InstanceMethod("ToLower", strings.ToLower),
		InstanceMethod("Trim", strings.TrimSpace),
		InstanceMethod("TrimStart", func(s string) string { return strings.TrimLeftFunc(s, unicode.IsSpace) }),
		InstanceMethod("TrimEnd", func(s string) string { return strings.TrimRightFunc(s, unicode.IsSpace) }),
		InstanceMethod("Contains", strings.Contains),
		InstanceMethod("StartsWith", strings.HasPrefix),
		InstanceMethod("EndsWith", strings.HasSuffix),
		InstanceMethod("IndexOf", func(s, sub string) int32 { return runeIndex(s, strings.Index(s, sub)) }),
		InstanceMethod("IndexOf", func(s string, c Char) int32 { return runeIndex(s, strings.IndexRune(s, rune(c))) }),
		InstanceMethod("LastIndexOf", func(s, sub string) int32 { return runeIndex(s, strings.LastIndex(s, sub)) }),
		InstanceMethod("Substring", func(s string, start int32) (string, error) {
			r := []rune(s)
			if start < 0 || int(start) > len(r) {
				return "", indexOutOfRange(int(start), len(r))
			}

			return string(r[start:]), nil
		}),
		InstanceMethod("Substring", func(s string, start, length int32) (string, error) {
			r := []rune(s)
			if start < 0 || length < 0 || int(start)+int(length) > len(r) {
				return "", indexOutOfRange(int(start)+int(length), len(r))
			}

			return string(r[start : start+length]), nil
		}),
		InstanceMethod("Replace", func(s, old, repl string) string { return strings.ReplaceAll(s, old, repl) }),
		InstanceMethod("Split", func(s string, seps ...Char) []string {
			if len(seps) == 0 {
				return strings.Fields(s)
			}

			var (
				out   []string
				start int
			)

			for i, r := range s {
				if slices.Contains(seps, Char(r)) {
					out = append(out, s[start:i])
					start = i + utf8.RuneLen(r)
				}
			}

			return append(out, s[start:])
		}),
		InstanceMethod("Split", func(s, sep string) []string { return strings.Split(s, sep) }),
		InstanceMethod("PadLeft", func(s string, width int32) string { return pad(s, int(width), true) }),
		InstanceMethod("PadRight", func(s string, width int32) string { return pad(s, int(width), false) }),
	)
}

// runeIndex converts a byte offset of s to a character index.
func runeIndex(s string, i int) int32 {
	if i < 0 {
		return -1
	}

	return int32(utf8.RuneCountInString(s[:i]))
}

func pad(s string, width int, left bool) string {
	n := width - utf8.RuneCountInString(s)
	if n <= 0 {
		return s
	}

	if left {
		return strings.Repeat(" ", n) + s
	}

	return s + strings.Repeat(" ", n)
}

// formatComposite implements composite formatting: "{index[,alignment][:format]}"
// items are replaced by the formatted argument, and "{{" and "}}" are
// literal braces. Supported formats are F<n> for fixed-point numbers and
// D<n> for zero-padded integers.
func formatComposite(format string, args ...any) (string, error) {
	var sb strings.Builder

	for i := 0; i < len(format); i++ {
		c := format[i]

		switch {
		case c == '{' && i+1 < len(format) && format[i+1] == '{',
			c == '}' && i+1 < len(format) && format[i+1] == '}':
			sb.WriteByte(c)
			i++
		case c == '{':
			end := strings.IndexByte(format[i:], '}')
			if end < 0 {
				return "", evalError(ErrInvalidOperation, "Input string was not in a correct format")
			}

			item, err := formatItem(format[i+1:i+end], args)
			if err != nil {
				return "", err
			}

			sb.WriteString(item)
			i += end
		default:
			sb.WriteByte(c)
		}
	}

	return sb.String(), nil
}

func formatItem(spec string, args []any) (string, error) {
	spec, verb, _ := strings.Cut(spec, ":")
	spec, align, hasAlign := strings.Cut(spec, ",")

	idx, err := strconv.Atoi(strings.TrimSpace(spec))
	if err != nil || idx < 0 || idx >= len(args) {
		return "", evalError(ErrInvalidOperation,
			"Index (zero based) must be greater than or equal to zero and less than the size of the argument list")
	}

	v := reflect.ValueOf(args[idx])
	s := stringify(v)

	if len(verb) > 0 && v.IsValid() && isNumericType(v.Type()) {
		digits, _ := strconv.Atoi(verb[1:])

		switch verb[0] {
		case 'F', 'f':
			s = toDecimal(v).StringFixedBank(int32(digits))
		case 'D', 'd':
			if isIntegral(v.Type()) {
				s = toDecimal(v).String()
				if neg := strings.HasPrefix(s, "-"); neg {
					s = "-" + strings.Repeat("0", max(0, digits-len(s)+1)) + s[1:]
				} else {
					s = strings.Repeat("0", max(0, digits-len(s))) + s
				}
			}
		}
	}

	if hasAlign {
		w, err := strconv.Atoi(strings.TrimSpace(align))
		if err != nil {
			return "", evalError(ErrInvalidOperation, "Input string was not in a correct format")
		}

		s = pad(s, abs(w), w > 0)
	}

	return s, nil
}

func abs(i int) int {
	if i < 0 {
		return -i
	}

	return i
}

func charInfo() *TypeInfo {
	pred := func(fn func(rune) bool) func(Char) bool {
		return func(c Char) bool { return fn(rune(c)) }
	}

	return Describe(typeChar,
		StaticProperty("MinValue", Char(0)),
		StaticProperty("MaxValue", Char(0xFFFF)),
		StaticMethod("IsDigit", pred(unicode.IsDigit)),
		StaticMethod("IsLetter", pred(unicode.IsLetter)),
		StaticMethod("IsLetterOrDigit", pred(func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) })),
		StaticMethod("IsWhiteSpace", pred(unicode.IsSpace)),
		StaticMethod("IsUpper", pred(unicode.IsUpper)),
		StaticMethod("IsLower", pred(unicode.IsLower)),
		StaticMethod("IsPunctuation", pred(unicode.IsPunct)),
		StaticMethod("ToUpper", func(c Char) Char { return Char(unicode.ToUpper(rune(c))) }),
		StaticMethod("ToLower", func(c Char) Char { return Char(unicode.ToLower(rune(c))) }),
	)
}

// numericInfos describes the range constants and Parse methods of the
// numeric types and bool.
func numericInfos() []*TypeInfo {
	return []*TypeInfo{
		numericInfo[int8](math.MinInt8, math.MaxInt8),
		numericInfo[uint8](0, math.MaxUint8),
		numericInfo[int16](math.MinInt16, math.MaxInt16),
		numericInfo[uint16](0, math.MaxUint16),
		numericInfo[int32](math.MinInt32, math.MaxInt32),
		numericInfo[uint32](0, math.MaxUint32),
		numericInfo[int64](math.MinInt64, math.MaxInt64),
		numericInfo[uint64](0, math.MaxUint64),
		numericInfo[int](math.MinInt, math.MaxInt),
		numericInfo[uint](0, math.MaxUint),
		numericInfo[float32](-math.MaxFloat32, math.MaxFloat32,
			StaticProperty("Epsilon", float32(math.SmallestNonzeroFloat32)),
			StaticProperty("NaN", float32(math.NaN())),
			StaticProperty("PositiveInfinity", float32(math.Inf(1))),
			StaticProperty("NegativeInfinity", float32(math.Inf(-1))),
			StaticMethod("IsNaN", func(f float32) bool { return math.IsNaN(float64(f)) }),
		),
		numericInfo[float64](-math.MaxFloat64, math.MaxFloat64,
			StaticProperty("Epsilon", math.SmallestNonzeroFloat64),
			StaticProperty("NaN", math.NaN()),
			StaticProperty("PositiveInfinity", math.Inf(1)),
			StaticProperty("NegativeInfinity", math.Inf(-1)),
			StaticMethod("IsNaN", math.IsNaN),
			StaticMethod("IsInfinity", func(f float64) bool { return math.IsInf(f, 0) }),
		),
		Describe(typeDecimal,
			StaticProperty("Zero", decimal.Zero),
			StaticProperty("One", decimal.NewFromInt(1)),
			StaticProperty("MinusOne", decimal.NewFromInt(-1)),
			StaticMethod("Parse", parseAs[decimal.Decimal]),
			StaticMethod("Round", func(d decimal.Decimal, places int32) decimal.Decimal { return d.RoundBank(places) }),
		),
		Describe(typeBool,
			StaticProperty("TrueString", "True"),
			StaticProperty("FalseString", "False"),
			StaticMethod("Parse", parseAs[bool]),
		),
	}
}

type number interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 |
		~int | ~uint | ~float32 | ~float64
}

func numericInfo[N number](lo, hi N, extra ...Member) *TypeInfo {
	members := append([]Member{
		StaticProperty("MinValue", lo),
		StaticProperty("MaxValue", hi),
		StaticMethod("Parse", parseAs[N]),
	}, extra...)

	return Describe(reflect.TypeFor[N](), members...)
}

// parseAs parses s as a value of type N.
func parseAs[N any](s string) (N, error) {
	var zero N

	v, err := parseText(s, reflect.TypeFor[N]())
	if err != nil {
		return zero, err
	}

	return v.Interface().(N), nil
}

func parseText(s string, to reflect.Type) (reflect.Value, error) {
	s = strings.TrimSpace(s)

	var (
		v   any
		err error
	)

	switch {
	case to == typeDecimal:
		v, err = decimal.NewFromString(s)
	case to == typeTime:
		v, err = parseTime(s)
	case to.Kind() == reflect.Bool:
		v, err = strconv.ParseBool(s)
	case isFloatKind(to):
		v, err = strconv.ParseFloat(s, to.Bits())
	case isUintKind(to):
		v, err = strconv.ParseUint(s, 10, to.Bits())
	case isNumericKind(to):
		v, err = strconv.ParseInt(s, 10, to.Bits())
	default:
		return reflect.Value{}, castError(typeString, to)
	}

	if err != nil {
		return reflect.Value{}, evalError(ErrInvalidCast,
			"Input string was not in a correct format").Wrap(err)
	}

	return reflect.ValueOf(v).Convert(to), nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.DateTime,
	"2006-01-02T15:04:05",
	time.DateOnly,
	"01/02/2006 15:04:05",
	"01/02/2006",
	time.RFC1123,
	time.Kitchen,
}

func parseTime(s string) (time.Time, error) {
	var err error

	for _, layout := range timeLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}

	return time.Time{}, err
}

func mathInfo() *TypeInfo {
	return Describe(typeMath,
		StaticProperty("PI", math.Pi),
		StaticProperty("E", math.E),
		StaticMethod("Abs", func(x int32) int32 { return max(x, -x) }),
		StaticMethod("Abs", func(x int64) int64 { return max(x, -x) }),
		StaticMethod("Abs", math.Abs),
		StaticMethod("Abs", decimal.Decimal.Abs),
		StaticMethod("Max", func(a, b int32) int32 { return max(a, b) }),
		StaticMethod("Max", func(a, b int64) int64 { return max(a, b) }),
		StaticMethod("Max", math.Max),
		StaticMethod("Max", func(a, b decimal.Decimal) decimal.Decimal { return decimal.Max(a, b) }),
		StaticMethod("Min", func(a, b int32) int32 { return min(a, b) }),
		StaticMethod("Min", func(a, b int64) int64 { return min(a, b) }),
		StaticMethod("Min", math.Min),
		StaticMethod("Min", func(a, b decimal.Decimal) decimal.Decimal { return decimal.Min(a, b) }),
		StaticMethod("Pow", math.Pow),
		StaticMethod("Sqrt", math.Sqrt),
		StaticMethod("Exp", math.Exp),
		StaticMethod("Log", math.Log),
		StaticMethod("Log", func(x, base float64) float64 { return math.Log(x) / math.Log(base) }),
		StaticMethod("Log10", math.Log10),
		StaticMethod("Sin", math.Sin),
		StaticMethod("Cos", math.Cos),
		StaticMethod("Tan", math.Tan),
		StaticMethod("Atan2", math.Atan2),
		StaticMethod("Floor", math.Floor),
		StaticMethod("Floor", decimal.Decimal.Floor),
		StaticMethod("Ceiling", math.Ceil),
		StaticMethod("Ceiling", decimal.Decimal.Ceil),
		StaticMethod("Truncate", math.Trunc),
		StaticMethod("Truncate", func(d decimal.Decimal) decimal.Decimal { return d.Truncate(0) }),
		StaticMethod("Round", math.RoundToEven),
		StaticMethod("Round", func(x float64, digits int32) float64 {
			p := math.Pow10(int(digits))
			return math.RoundToEven(x*p) / p
		}),
		StaticMethod("Round", func(d decimal.Decimal) decimal.Decimal { return d.RoundBank(0) }),
		StaticMethod("Round", func(d decimal.Decimal, places int32) decimal.Decimal { return d.RoundBank(places) }),
		StaticMethod("Sign", func(x int32) int32 { return int32(cmpZero(x)) }),
		StaticMethod("Sign", func(x int64) int32 { return int32(cmpZero(x)) }),
		StaticMethod("Sign", func(x float64) int32 { return int32(cmpZero(x)) }),
		StaticMethod("Sign", func(d decimal.Decimal) int32 { return int32(d.Sign()) }),
	)
}

func cmpZero[N int32 | int64 | float64](x N) int {
	switch {
	case x < 0:
		return -1
	case x > 0:
		return 1
	}

	return 0
}

func convertInfo() *TypeInfo {
	to := func(t reflect.Type) func(any) (reflect.Value, error) {
		return func(v any) (reflect.Value, error) { return convertTo(reflect.ValueOf(v), t) }
	}

	member := func(name string, t reflect.Type) Member {
		conv := to(t)
		sig := reflect.FuncOf([]reflect.Type{typeObject}, []reflect.Type{t}, false)

		return func(ti *TypeInfo) {
			m := signatureMethod(name, sig,
				func(_ Bindings, _ reflect.Value, args []reflect.Value) (reflect.Value, error) {
					return conv(interfaceOf(args[0]))
				})
			m.Owner = ti.Type
			ti.methods = append(ti.methods, m)
		}
	}

	return Describe(typeConvert,
		member("ToBoolean", typeBool),
		member("ToChar", typeChar),
		member("ToByte", typeUint8),
		member("ToInt16", typeInt16),
		member("ToInt32", typeInt32),
		member("ToInt64", typeInt64),
		member("ToSingle", typeFloat32),
		member("ToDouble", typeFloat64),
		member("ToDecimal", typeDecimal),
		member("ToDateTime", typeTime),
		StaticMethod("ToString", func(v any) string { return stringify(reflect.ValueOf(v)) }),
	)
}

// convertTo converts v to t with the rules of the Convert methods: null is
// the zero value, strings are parsed, and reals are rounded to the nearest
// even integer before narrowing.
func convertTo(v reflect.Value, t reflect.Type) (reflect.Value, error) {
	v = unbox(v)
	if isNilValue(v) {
		return reflect.Zero(t), nil
	}

	if e, ok := nullableElem(v.Type()); ok && !isNilable(e) {
		v = v.Elem()
	}

	switch {
	case v.Kind() == reflect.String:
		return parseText(v.String(), t)
	case t.Kind() == reflect.Bool && isNumericType(v.Type()):
		return reflect.ValueOf(!toDecimal(v).IsZero()), nil
	case v.Kind() == reflect.Bool && isNumericType(t):
		return convertValue(reflect.ValueOf(int32(b2i(v.Bool()))), t, true)
	case isIntegral(t) && isFloatKind(v.Type()):
		v = reflect.ValueOf(math.RoundToEven(v.Float()))
	case isIntegral(t) && v.Type() == typeDecimal:
		v = reflect.ValueOf(v.Interface().(decimal.Decimal).RoundBank(0))
	}

	return convertValue(v, t, true)
}

func timeInfo() *TypeInfo {
	return Describe(typeTime,
		Constructor(func(y, m, d int32) time.Time {
			return time.Date(int(y), time.Month(m), int(d), 0, 0, 0, 0, time.Local)
		}),
		Constructor(func(y, m, d, h, mi, s int32) time.Time {
			return time.Date(int(y), time.Month(m), int(d), int(h), int(mi), int(s), 0, time.Local)
		}),
		StaticGetter("Now", time.Now),
		StaticGetter("UtcNow", func() time.Time { return time.Now().UTC() }),
		StaticGetter("Today", func() time.Time {
			y, m, d := time.Now().Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
		}),
		StaticProperty("MinValue", time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)),
		StaticProperty("MaxValue", time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC)),
		StaticMethod("Parse", parseTime),
		StaticMethod("DaysInMonth", func(y, m int32) int32 {
			return int32(time.Date(int(y), time.Month(m)+1, 0, 0, 0, 0, 0, time.UTC).Day())
		}),
		Getter("Year", func(t time.Time) int32 { return int32(t.Year()) }),
		Getter("Month", func(t time.Time) int32 { return int32(t.Month()) }),
		Getter("Day", func(t time.Time) int32 { return int32(t.Day()) }),
		Getter("Hour", func(t time.Time) int32 { return int32(t.Hour()) }),
		Getter("Minute", func(t time.Time) int32 { return int32(t.Minute()) }),
		Getter("Second", func(t time.Time) int32 { return int32(t.Second()) }),
		Getter("Millisecond", func(t time.Time) int32 { return int32(t.Nanosecond() / int(time.Millisecond)) }),
		Getter("DayOfWeek", func(t time.Time) int32 { return int32(t.Weekday()) }),
		Getter("DayOfYear", func(t time.Time) int32 { return int32(t.YearDay()) }),
		Getter("Date", func(t time.Time) time.Time {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
		}),
		Getter("TimeOfDay", func(t time.Time) time.Duration {
			y, m, d := t.Date()
			return t.Sub(time.Date(y, m, d, 0, 0, 0, 0, t.Location()))
		}),
		InstanceMethod("AddDays", func(t time.Time, n float64) time.Time { return t.Add(scale(n, 24*time.Hour)) }),
		InstanceMethod("AddHours", func(t time.Time, n float64) time.Time { return t.Add(scale(n, time.Hour)) }),
		InstanceMethod("AddMinutes", func(t time.Time, n float64) time.Time { return t.Add(scale(n, time.Minute)) }),
		InstanceMethod("AddSeconds", func(t time.Time, n float64) time.Time { return t.Add(scale(n, time.Second)) }),
		InstanceMethod("AddMilliseconds", func(t time.Time, n float64) time.Time { return t.Add(scale(n, time.Millisecond)) }),
		InstanceMethod("AddMonths", func(t time.Time, n int32) time.Time { return t.AddDate(0, int(n), 0) }),
		InstanceMethod("AddYears", func(t time.Time, n int32) time.Time { return t.AddDate(int(n), 0, 0) }),
		InstanceMethod("Subtract", func(t, u time.Time) time.Duration { return t.Sub(u) }),
		InstanceMethod("Subtract", func(t time.Time, d time.Duration) time.Time { return t.Add(-d) }),
		InstanceMethod("ToString", func(t time.Time) string { return t.Format(time.DateTime) }),
		InstanceMethod("ToString", func(t time.Time, layout string) string { return t.Format(layout) }),
	)
}

func scale(n float64, unit time.Duration) time.Duration {
	return time.Duration(math.Round(n * float64(unit)))
}

func durationInfo() *TypeInfo {
	return Describe(typeDuration,
		Constructor(func(h, m, s int32) time.Duration {
			return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
		}),
		Constructor(func(d, h, m, s int32) time.Duration {
			return time.Duration(d)*24*time.Hour + time.Duration(h)*time.Hour +
				time.Duration(m)*time.Minute + time.Duration(s)*time.Second
		}),
		StaticProperty("Zero", time.Duration(0)),
		StaticMethod("FromDays", func(n float64) time.Duration { return scale(n, 24*time.Hour) }),
		StaticMethod("FromHours", func(n float64) time.Duration { return scale(n, time.Hour) }),
		StaticMethod("FromMinutes", func(n float64) time.Duration { return scale(n, time.Minute) }),
		StaticMethod("FromSeconds", func(n float64) time.Duration { return scale(n, time.Second) }),
		StaticMethod("FromMilliseconds", func(n float64) time.Duration { return scale(n, time.Millisecond) }),
		StaticMethod("Parse", time.ParseDuration),
		Getter("Days", func(d time.Duration) int32 { return int32(d / (24 * time.Hour)) }),
		Getter("Hours", func(d time.Duration) int32 { return int32(d % (24 * time.Hour) / time.Hour) }),
		Getter("Minutes", func(d time.Duration) int32 { return int32(d % time.Hour / time.Minute) }),
		Getter("Seconds", func(d time.Duration) int32 { return int32(d % time.Minute / time.Second) }),
		Getter("Milliseconds", func(d time.Duration) int32 { return int32(d % time.Second / time.Millisecond) }),
		Getter("TotalDays", func(d time.Duration) float64 { return d.Hours() / 24 }),
		Getter("TotalHours", time.Duration.Hours),
		Getter("TotalMinutes", time.Duration.Minutes),
		Getter("TotalSeconds", time.Duration.Seconds),
		Getter("TotalMilliseconds", func(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }),
	)
}
