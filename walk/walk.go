// Package walk implements the four AST traversal disciplines the passes in
// package passes are phrased against, plus the small set of node-mutation
// and -inspection primitives (package B of the design) they share.
//
// The shape mirrors how github.com/robfig/soy's parsepasses walk an
// ast.ParentNode tree: a type switch (or, here, a registered handler table)
// decides what to do with a node, and a Children() call supplies recursion
// order generically for whatever the switch doesn't special-case.
package walk

import "github.com/emglue/wasmglue/ast"

// VisitChildren enumerates every child of node exactly once, in the
// declaration order node.Children() returns, and invokes f on each.
// EmptyStatement nodes are treated as leaves with zero children even if
// their concrete fields still hold stale references.
func VisitChildren(node ast.Node, f func(ast.Node)) {
	if node == nil || node.Type() == ast.EmptyStatementType {
		return
	}
	parent, ok := node.(ast.ParentNode)
	if !ok {
		return
	}
	for _, child := range parent.Children() {
		if child != nil {
			f(child)
		}
	}
}

// SimpleTable maps a node's Type() to a post-order handler.
type SimpleTable map[string]func(ast.Node)

// SimpleWalk visits node's children first (recursively, via VisitChildren),
// then -- if node.Type() has an entry in table -- invokes that handler. The
// handler is never given control over recursion.
func SimpleWalk(node ast.Node, table SimpleTable) {
	if node == nil {
		return
	}
	VisitChildren(node, func(child ast.Node) { SimpleWalk(child, table) })
	if h, ok := table[node.Type()]; ok {
		h(node)
	}
}

// FullWalk visits children then calls post(node), unless pre is non-nil and
// pre(node) returns false, in which case the entire subtree (including node
// itself) is skipped without calling post.
func FullWalk(node ast.Node, post func(ast.Node), pre func(ast.Node) bool) {
	if node == nil {
		return
	}
	if pre != nil && !pre(node) {
		return
	}
	VisitChildren(node, func(child ast.Node) { FullWalk(child, post, pre) })
	if post != nil {
		post(node)
	}
}

// RecursiveTable maps a node's Type() to a handler that is given control
// over recursion: it receives the node and a recurse function, and decides
// which children (if any) to descend into by calling recurse on them.
type RecursiveTable map[string]func(node ast.Node, recurse func(ast.Node))

// RecursiveWalk is the only discipline that lets a handler skip specific
// children -- needed for for-in/for-of LHS preservation, nested-function
// scope isolation, and computed-vs-dot member distinction. If node.Type()
// has no entry in table, the default behavior is to recurse into every
// child via VisitChildren.
func RecursiveWalk(node ast.Node, table RecursiveTable) {
	if node == nil || node.Type() == ast.EmptyStatementType {
		return
	}
	recurse := func(n ast.Node) { RecursiveWalk(n, table) }
	if h, ok := table[node.Type()]; ok {
		h(node, recurse)
		return
	}
	VisitChildren(node, recurse)
}
