package walk

import "github.com/emglue/wasmglue/ast"

// EmptyOut replaces node's type discriminator with EmptyStatement in place.
// Idempotent (§8 property 2): calling it twice leaves the node exactly as
// calling it once would.
func EmptyOut(node ast.Node) {
	if node == nil {
		return
	}
	if e, ok := node.(interface{ MarkEmpty() }); ok {
		e.MarkEmpty()
	}
}

// SetLiteralValue sets a Literal's Value and clears Raw so the printer
// regenerates a canonical rendering instead of echoing stale source text.
func SetLiteralValue(item ast.Node, v interface{}) {
	lit, ok := item.(*ast.Literal)
	if !ok {
		panic("walk: SetLiteralValue called on a non-Literal node")
	}
	lit.Value = v
	lit.Raw = ""
}

// IsLiteralString reports whether n is a Literal holding a string value.
func IsLiteralString(n ast.Node) bool {
	lit, ok := n.(*ast.Literal)
	if !ok {
		return false
	}
	_, isString := lit.Value.(string)
	return isString
}

// MakeCallExpression builds a CallExpression node with a plain
// Identifier(name) callee and the given arguments, at the given position.
//
// In the original dynamically-typed AST this helper overwrites a node in
// place so its parent keeps pointing at the same slot. Go's static struct
// types can't be retyped in place that way, so here MakeCallExpression is a
// pure constructor: every call site holds a direct, statically-typed
// reference to the owning field (the pass's own recursive walker dispatches
// on the parent's concrete type precisely so it can reassign that field),
// and writes the result back itself -- the idiomatic Go equivalent of
// "overwrite, don't replace".
func MakeCallExpression(pos ast.Pos, name string, args []ast.Node) *ast.CallExpression {
	return &ast.CallExpression{
		NodeHeader: ast.NodeHeader{Typ: "CallExpression", Pos: pos},
		Callee:     ast.NewIdentifier(pos, name),
		Arguments:  args,
	}
}

// WalkPattern performs a recursive descent over a destructuring pattern
// (the Id of a VariableDeclarator, or a function parameter), routing every
// bound identifier to onBoundIdent and every nested expression (defaults,
// computed keys) to onExpr.
func WalkPattern(node ast.Node, onExpr func(ast.Node), onBoundIdent func(*ast.Identifier)) {
	switch n := node.(type) {
	case nil:
		return
	case *ast.Identifier:
		onBoundIdent(n)
	case *ast.AssignmentPattern:
		WalkPattern(n.Left, onExpr, onBoundIdent)
		if n.Right != nil {
			onExpr(n.Right)
		}
	case *ast.ObjectPattern:
		for _, p := range n.Properties {
			switch prop := p.(type) {
			case *ast.Property:
				if prop.Computed {
					onExpr(prop.Key)
				}
				WalkPattern(prop.Value, onExpr, onBoundIdent)
			case *ast.RestElement:
				WalkPattern(prop.Argument, onExpr, onBoundIdent)
			}
		}
	case *ast.ArrayPattern:
		for _, e := range n.Elements {
			WalkPattern(e, onExpr, onBoundIdent)
		}
	case *ast.RestElement:
		WalkPattern(n.Argument, onExpr, onBoundIdent)
	default:
		// Not a pattern shape at all -- treat the whole thing as an
		// expression (e.g. a MemberExpression target in a for-of LHS).
		onExpr(node)
	}
}

// builtinConstructors is the hasSideEffects safelist of `new` targets whose
// construction is known to be pure.
var builtinConstructors = map[string]bool{
	"TextDecoder": true, "ArrayBuffer": true,
	"Int8Array": true, "Uint8Array": true, "Uint8ClampedArray": true,
	"Int16Array": true, "Uint16Array": true,
	"Int32Array": true, "Uint32Array": true,
	"Float32Array": true, "Float64Array": true,
}

// HasSideEffects is a conservative oracle: it returns true unless every
// node in the subtree rooted at n is on a short, explicit safelist. It must
// stay exactly this coarse -- widening the safelist is a semantic change,
// not a bug fix (see DESIGN.md).
func HasSideEffects(n ast.Node) bool {
	if n == nil {
		return false
	}
	switch node := n.(type) {
	case *ast.Literal, *ast.Identifier, *ast.ThisExpression:
		return false
	case *ast.UnaryExpression:
		return HasSideEffects(node.Argument)
	case *ast.UpdateExpression:
		return HasSideEffects(node.Argument)
	case *ast.BinaryExpression:
		return HasSideEffects(node.Left) || HasSideEffects(node.Right)
	case *ast.LogicalExpression:
		return HasSideEffects(node.Left) || HasSideEffects(node.Right)
	case *ast.ConditionalExpression:
		return HasSideEffects(node.Test) || HasSideEffects(node.Consequent) || HasSideEffects(node.Alternate)
	case *ast.SpreadElement:
		return HasSideEffects(node.Argument)
	case *ast.VariableDeclaration:
		for _, d := range node.Declarations {
			if HasSideEffects(d) {
				return true
			}
		}
		return false
	case *ast.VariableDeclarator:
		return HasSideEffects(node.Init)
	case *ast.ObjectExpression:
		for _, p := range node.Properties {
			if HasSideEffects(p) {
				return true
			}
		}
		return false
	case *ast.Property:
		return HasSideEffects(node.Value)
	case *ast.ArrayExpression:
		for _, e := range node.Elements {
			if HasSideEffects(e) {
				return true
			}
		}
		return false
	case *ast.BlockStatement:
		for _, s := range node.Body {
			if HasSideEffects(s) {
				return true
			}
		}
		return false
	case *ast.EmptyStatement:
		return false
	case *ast.ExpressionStatement:
		if node.Directive != "" {
			// A directive prologue entry (e.g. "use strict") counts as
			// having an effect: removing it changes program semantics.
			return true
		}
		return HasSideEffects(node.Expression)
	case *ast.MemberExpression:
		id, ok := node.Object.(*ast.Identifier)
		return !(ok && id.Name == "Math" && !node.Computed)
	case *ast.NewExpression:
		callee, ok := node.Callee.(*ast.Identifier)
		if !ok || !builtinConstructors[callee.Name] {
			return true
		}
		for _, a := range node.Arguments {
			if HasSideEffects(a) {
				return true
			}
		}
		return false
	default:
		return true
	}
}
