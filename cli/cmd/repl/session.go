package repl

import (
	"context"
	"maps"
	"reflect"
	"regexp"
	"slices"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/aexpr/lang"
)

// session holds the variables defined during a REPL run. Every expression is
// parsed with them as parameters, so assignments to an existing variable
// persist through write-back.
type session struct {
	it     *lang.Interpreter
	names  []string
	values map[string]any
}

func newSession(it *lang.Interpreter, params []*lang.Parameter) *session {
	s := &session{it: it, values: make(map[string]any)}

	for _, p := range params {
		s.set(p.Name, p.Value)
	}

	return s
}

// set defines or replaces variable name.
func (s *session) set(name string, value any) {
	if _, ok := s.values[name]; !ok {
		s.names = append(s.names, name)
	}

	s.values[name] = value
}

// replace discards every variable and defines those of vars in name order.
func (s *session) replace(vars map[string]any) {
	s.names, s.values = nil, make(map[string]any, len(vars))

	for _, name := range slices.Sorted(maps.Keys(vars)) {
		s.set(name, vars[name])
	}
}

// params returns the variables as parameters in definition order.
func (s *session) params() []*lang.Parameter {
	params := make([]*lang.Parameter, len(s.names))
	for i, name := range s.names {
		params[i] = lang.Arg(name, s.values[name])
	}

	return params
}

// mapSlice returns the variables as an ordered YAML mapping.
func (s *session) mapSlice() yaml.MapSlice {
	out := make(yaml.MapSlice, len(s.names))
	for i, name := range s.names {
		out[i] = yaml.MapItem{Key: name, Value: s.values[name]}
	}

	return out
}

// definition matches "name = expr" but neither "name == expr" nor the
// lambda "name => expr".
var definition = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*=([^=>].*)$`)

// eval evaluates input. A definition of a new variable binds it to the value
// of the right-hand side; any other input is evaluated as is, and the new
// values of assigned variables are kept.
func (s *session) eval(ctx context.Context, input string) (any, error) {
	if m := definition.FindStringSubmatch(input); m != nil {
		if _, exists := s.values[m[1]]; !exists && !s.known(m[1]) {
			v, err := s.it.Eval(ctx, m[2], s.params()...)
			if err != nil {
				return nil, err
			}

			s.set(m[1], v)

			return v, nil
		}
	}

	params := s.params()

	v, err := s.it.Eval(ctx, input, params...)
	if err != nil {
		return nil, err
	}

	for _, p := range params {
		s.values[p.Name] = p.Value
	}

	return v, nil
}

// known reports whether name is an identifier or type of the interpreter.
func (s *session) known(name string) bool {
	if _, ok := s.it.LookupType(name); ok {
		return true
	}

	return slices.Contains(s.it.Identifiers(), name)
}

// typeOf returns the static type of the expression text over the session
// variables. A text naming a known type yields that type with static set.
func (s *session) typeOf(ctx context.Context, text string) (t reflect.Type, static bool) {
	if _, shadowed := s.values[text]; !shadowed {
		if t, ok := s.it.LookupType(text); ok {
			return t, true
		}
	}

	l, err := s.it.Parse(ctx, text, s.params()...)
	if err != nil {
		return nil, false
	}

	return l.ReturnType(), false
}
