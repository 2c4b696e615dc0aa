package ast

import (
	"fmt"
	"log/slog"
	"strings"
)

// Slog wraps a Node as a slog.LogValuer to not render node strings
// unless they definitely need to be logged
func Slog(n Node) slog.LogValuer {
	return nodeLogValuer{n}
}

type nodeLogValuer struct{ Node }

func (l nodeLogValuer) LogValue() slog.Value {
	return slog.StringValue(NodeString(l.Node))
}

// NodeString renders a short description of n such as `*ast.Ident(x)@12-13`.
func NodeString(n Node) string {
	if isNil(n) {
		return "<nil>"
	}
	kind := strings.TrimPrefix(fmt.Sprintf("%T", n), "*ast.")
	switch n := n.(type) {
	case *Ident:
		return fmt.Sprintf("%s(%s)@%v", kind, n.Name, n.Range)
	case *TypeRef:
		return fmt.Sprintf("%s(%s)@%v", kind, n.Name, n.Range)
	case *BadExpr:
		return fmt.Sprintf("%s(%s)@%v", kind, n.Kind, n.Range)
	case *Unit:
		return fmt.Sprintf("%s(%s)", kind, n.Name)
	}
	return fmt.Sprintf("%s@%v", kind, RangeOf(n))
}
