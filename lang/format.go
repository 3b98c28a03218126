package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format writes the bound expression in canonical syntax. With indent > 0
// the expression tree follows, one node per line.
func (l *Lambda) Format(_ context.Context, w io.Writer, indent int) error {
	if _, err := fmt.Fprintln(w, l.String()); err != nil {
		return err
	}

	if indent <= 0 {
		return nil
	}

	return formatNode(w, l.root, indent, 0)
}

// FormatJSON writes the lambda as JSON to the writer.
func (l *Lambda) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		jsonData []byte
		err      error
	)

	if indent > 0 {
		jsonData, err = json.MarshalIndent(l, "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.Marshal(l)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

// FormatYAML writes the lambda as YAML to the writer.
func (l *Lambda) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	yamlData, err := yaml.MarshalContext(ctx, l.ToMap(), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(yamlData))

	return err
}

// formatNode writes n and its operands as an indented outline.
func formatNode(w io.Writer, n Node, indent, depth int) error {
	label := nodeKind(n)

	switch n := n.(type) {
	case *Constant, *ParamRef:
		label += " " + n.String()
	case *MemberAccess:
		label += " " + n.Property.Name
	case *Call:
		label += " " + n.Method.Name
	case *Binary:
		label += " " + n.Op.String()
	case *Unary:
		label += " " + n.Op.String()
	case *DynamicOp:
		label += " " + n.Kind.String()
	}

	_, err := fmt.Fprintf(w, "%s%s : %s\n",
		strings.Repeat(" ", depth*indent), label, TypeName(n.Type()))
	if err != nil {
		return err
	}

	for _, c := range children(n) {
		if err := formatNode(w, c, indent, depth+1); err != nil {
			return err
		}
	}

	return nil
}
