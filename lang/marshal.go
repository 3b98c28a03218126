package lang

import (
	"encoding/json"
	"reflect"
)

// MarshalJSON implements json.Marshaler for Lambda.
func (l *Lambda) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.ToMap())
}

// ToMap converts the lambda to a native Go map structure: its text, result
// type, parameters, and expression tree.
func (l *Lambda) ToMap() map[string]any {
	params := make([]any, len(l.params))
	for i, p := range l.params {
		params[i] = map[string]any{"name": p.Name, "type": TypeName(p.Type)}
	}

	used := make([]any, len(l.used))
	for i, p := range l.used {
		used[i] = p.Name
	}

	types := make([]any, len(l.types))
	for i, rt := range l.types {
		types[i] = rt.Name
	}

	return map[string]any{
		"expression": l.text,
		"type":       TypeName(l.ReturnType()),
		"parameters": params,
		"used":       used,
		"types":      types,
		"tree":       ToMap(l.root),
	}
}

// ToMap converts an expression tree to nested maps holding each node's
// kind, type, and operands.
func ToMap(n Node) map[string]any {
	m := map[string]any{
		"node": nodeKind(n),
		"type": TypeName(n.Type()),
	}

	switch n := n.(type) {
	case *Constant:
		m["value"] = n.String()
	case *ParamRef:
		m["name"] = n.Param.Name
	case *MemberAccess:
		m["member"] = n.Property.Name
	case *Call:
		m["method"] = n.Method.Name
	case *Binary:
		m["op"] = n.Op.String()
	case *Unary:
		m["op"] = n.Op.String()
	case *Convert:
		m["explicit"] = n.Explicit
	case *TypeTest:
		m["target"] = TypeName(n.Target)
	case *DynamicOp:
		m["kind"] = n.Kind.String()
		if n.Name != "" {
			m["name"] = n.Name
		}
	case *LambdaExpr:
		names := make([]any, len(n.Params))
		for i, p := range n.Params {
			names[i] = p.Name
		}

		m["params"] = names
	}

	if cs := children(n); len(cs) > 0 {
		operands := make([]any, len(cs))
		for i, c := range cs {
			operands[i] = ToMap(c)
		}

		m["operands"] = operands
	}

	return m
}

func nodeKind(n Node) string {
	t := reflect.TypeOf(n)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t.Name()
}
