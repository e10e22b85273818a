package passes

import (
	"fmt"
	"strings"

	"github.com/emglue/wasmglue/ast"
	"github.com/emglue/wasmglue/walk"
)

// Dump writes an indented tree of node type names to ctx.Stdout, one line
// per node, children indented two spaces under their parent -- a debugging
// aid for inspecting what a pipeline actually produced before the printer
// gets involved, not a serialization format any other tool reads back.
func Dump(ctx *Context) error {
	var write func(node ast.Node, depth int)
	write = func(node ast.Node, depth int) {
		if node == nil {
			return
		}
		label := node.Type()
		if label == ast.EmptyStatementType {
			label = "(empty)"
		}
		if extra := dumpDetail(node); extra != "" {
			label += " " + extra
		}
		fmt.Fprintf(ctx.Stdout, "%s%s\n", strings.Repeat("  ", depth), label)
		walk.VisitChildren(node, func(child ast.Node) { write(child, depth+1) })
	}
	for _, stmt := range ctx.Program.Body {
		write(stmt, 0)
	}
	return nil
}

// dumpDetail returns a short inline annotation for node types whose
// identity isn't obvious from their type tag alone.
func dumpDetail(node ast.Node) string {
	switch n := node.(type) {
	case *ast.Identifier:
		return n.Name
	case *ast.Literal:
		return fmt.Sprintf("%v", n.Value)
	case *ast.FunctionDeclaration:
		if n.Id != nil {
			return n.Id.Name
		}
	case *ast.VariableDeclaration:
		return n.Kind
	case *ast.MemberExpression:
		if n.Computed {
			return "[computed]"
		}
	case *ast.BinaryExpression:
		return n.Operator
	case *ast.AssignmentExpression:
		return n.Operator
	}
	return ""
}
