// Package ast contains definitions for the in-memory representation of the
// JavaScript programs that flow through the post-processing pipeline: the
// glue code emitted by a C/C++-to-WebAssembly toolchain.
package ast

// Pos is a byte offset into the original source text. It is useful for
// constructing helpful diagnostics and for comment reattachment during
// printing.
type Pos int

// Node represents any single piece of a parsed program: a statement, an
// expression, a declarator, anything with a position and a type tag.
type Node interface {
	Type() string
	Position() Pos
}

// ParentNode is any Node that has descendant nodes. Each concrete type
// enumerates its own children, in declaration order, exactly mirroring the
// source's own property order -- the statically-typed analogue of
// enumerating a JS object's own properties. Optional fields that are absent
// must be left as a true nil Node (never a typed-nil concrete pointer
// assigned to the interface) so a plain nil check here is always sufficient;
// every constructor and parser production in this module honors that.
type ParentNode interface {
	Node
	Children() []Node
}

// NodeHeader is embedded by every concrete node and supplies the Type/
// Position half of the Node interface. Its Typ field is the mutable type
// discriminator: MarkEmpty overwrites it in place to turn any node into the
// EmptyStatement tombstone. Go structs cannot be retyped in place the way a
// JS object can, so the tombstone is carried as a type tag alongside a
// node's storage slot rather than as a literal change of Go type.
// VisitChildren, RecursiveWalk and RewriteChildren check Type() before
// looking at Go's concrete type, so an emptied node's stale children are
// never visited; FullWalk still hands the emptied node itself to its post
// callback, where a type switch sees its original Go type.
type NodeHeader struct {
	Typ string
	Pos Pos
}

func (h *NodeHeader) Type() string  { return h.Typ }
func (h *NodeHeader) Position() Pos { return h.Pos }

// MarkEmpty is the primitive behind emptyOut (walk.EmptyOut): it replaces
// this node's type discriminator with EmptyStatementType, in place.
// Idempotent: marking an already-empty node changes nothing.
func (h *NodeHeader) MarkEmpty() { h.Typ = EmptyStatementType }

// EmptyStatementType is the tombstone type name. A node whose Type() equals
// this value is a leaf as far as every subsequent pass's child iteration is
// concerned, even if its other fields still hold stale children.
const EmptyStatementType = "EmptyStatement"

func header(typ string, pos Pos) NodeHeader { return NodeHeader{Typ: typ, Pos: pos} }

// ---- Program -----------------------------------------------------------

// Program is the root of a parsed file.
type Program struct {
	NodeHeader
	Body       []Node
	SourceType string // "script" or "module"
}

func NewProgram(pos Pos) *Program { return &Program{NodeHeader: header("Program", pos)} }

// ---- Identifiers & literals ---------------------------------------------

type Identifier struct {
	NodeHeader
	Name string
}

func NewIdentifier(pos Pos, name string) *Identifier {
	return &Identifier{NodeHeader: header("Identifier", pos), Name: name}
}

// Literal holds a primitive constant: string, float64, bool, or nil (for the
// `null` literal). Raw preserves the original source text; setLiteralValue
// clears it so the printer regenerates a canonical rendering.
type Literal struct {
	NodeHeader
	Value interface{}
	Raw   string
}

func NewStringLiteral(pos Pos, v string) *Literal {
	return &Literal{NodeHeader: header("Literal", pos), Value: v}
}

type ThisExpression struct{ NodeHeader }

// ---- Declarations --------------------------------------------------------

type VariableDeclaration struct {
	NodeHeader
	Kind         string // "var", "let", "const"
	Declarations []*VariableDeclarator
}

type VariableDeclarator struct {
	NodeHeader
	Id   Node // Identifier or a destructuring pattern
	Init Node // may be nil
}

type FunctionDeclaration struct {
	NodeHeader
	Id     *Identifier
	Params []Node
	Body   *BlockStatement
}

type FunctionExpression struct {
	NodeHeader
	Id     *Identifier // non-nil only for named function expressions
	Params []Node
	Body   *BlockStatement
}

type ArrowFunctionExpression struct {
	NodeHeader
	Params   []Node
	Body     Node // BlockStatement, or an expression for concise bodies
	ExprBody bool
}

// ---- Statements -----------------------------------------------------------

type BlockStatement struct {
	NodeHeader
	Body []Node
}

type ExpressionStatement struct {
	NodeHeader
	Expression Node
	Directive  string // non-empty for a directive prologue entry, e.g. "use strict"
}

type EmptyStatement struct{ NodeHeader }

func NewEmptyStatement(pos Pos) *EmptyStatement {
	return &EmptyStatement{NodeHeader: header(EmptyStatementType, pos)}
}

type ReturnStatement struct {
	NodeHeader
	Argument Node // may be nil
}

type ThrowStatement struct {
	NodeHeader
	Argument Node
}

type IfStatement struct {
	NodeHeader
	Test       Node
	Consequent Node
	Alternate  Node // may be nil
}

type ForStatement struct {
	NodeHeader
	Init   Node // VariableDeclaration, expression, or nil
	Test   Node
	Update Node
	Body   Node
}

type ForInStatement struct {
	NodeHeader
	Left  Node // VariableDeclaration or pattern
	Right Node
	Body  Node
}

type ForOfStatement struct {
	NodeHeader
	Left  Node
	Right Node
	Body  Node
}

type WhileStatement struct {
	NodeHeader
	Test Node
	Body Node
}

type DoWhileStatement struct {
	NodeHeader
	Body Node
	Test Node
}

type LabeledStatement struct {
	NodeHeader
	Label *Identifier
	Body  Node
}

type BreakStatement struct {
	NodeHeader
	Label *Identifier // may be nil
}

type ContinueStatement struct {
	NodeHeader
	Label *Identifier // may be nil
}

type TryStatement struct {
	NodeHeader
	Block     *BlockStatement
	Handler   *CatchClause // may be nil
	Finalizer *BlockStatement
}

type CatchClause struct {
	NodeHeader
	Param Node // may be nil
	Body  *BlockStatement
}

// ---- Expressions -----------------------------------------------------------

type AssignmentExpression struct {
	NodeHeader
	Operator string // "=", "+=", ...
	Left     Node
	Right    Node
}

type BinaryExpression struct {
	NodeHeader
	Operator string // ">>", ">>>", "*", "+", ...
	Left     Node
	Right    Node
}

type LogicalExpression struct {
	NodeHeader
	Operator string // "||", "&&"
	Left     Node
	Right    Node
}

type UnaryExpression struct {
	NodeHeader
	Operator string // "!", "-", "typeof", "void", ...
	Prefix   bool
	Argument Node
}

type UpdateExpression struct {
	NodeHeader
	Operator string // "++", "--"
	Argument Node
	Prefix   bool
}

type ConditionalExpression struct {
	NodeHeader
	Test       Node
	Consequent Node
	Alternate  Node
}

type SequenceExpression struct {
	NodeHeader
	Expressions []Node
}

type CallExpression struct {
	NodeHeader
	Callee    Node
	Arguments []Node
}

type NewExpression struct {
	NodeHeader
	Callee    Node
	Arguments []Node
}

// MemberExpression models both `a.b` (Computed == false, Property is an
// Identifier not to be treated as a use) and `a[b]` (Computed == true).
type MemberExpression struct {
	NodeHeader
	Object   Node
	Property Node
	Computed bool
}

type ArrayExpression struct {
	NodeHeader
	Elements []Node // elements may be nil (elisions) -- skipped by VisitChildren
}

type ObjectExpression struct {
	NodeHeader
	Properties []Node // *Property or *SpreadElement
}

type Property struct {
	NodeHeader
	Key       Node
	Value     Node
	Computed  bool
	Shorthand bool
	Kind      string // "init", "get", "set"
}

type SpreadElement struct {
	NodeHeader
	Argument Node
}

// ---- Destructuring patterns -------------------------------------------------

type AssignmentPattern struct {
	NodeHeader
	Left  Node
	Right Node
}

type ObjectPattern struct {
	NodeHeader
	Properties []Node // *Property (Value may itself be a pattern) or *RestElement
}

type ArrayPattern struct {
	NodeHeader
	Elements []Node
}

type RestElement struct {
	NodeHeader
	Argument Node
}

// ---- Modules -----------------------------------------------------------

type ExportNamedDeclaration struct {
	NodeHeader
	Declaration Node // may be nil when this is `export { a, b }`
	Specifiers  []*ExportSpecifier
}

type ExportSpecifier struct {
	NodeHeader
	Local    *Identifier
	Exported *Identifier
}

type ExportDefaultDeclaration struct {
	NodeHeader
	Declaration Node
}

// ---- Children() -- declaration-order child enumeration -------------------
//
// Every method below lists a node's children in the same order its fields
// are declared above, so walk.VisitChildren's traversal order is
// deterministic by construction (§8 property 1).

func (n *Program) Children() []Node { return n.Body }

func (n *VariableDeclaration) Children() []Node {
	nodes := make([]Node, len(n.Declarations))
	for i, d := range n.Declarations {
		nodes[i] = d
	}
	return nodes
}

func (n *VariableDeclarator) Children() []Node {
	var nodes []Node
	if n.Id != nil {
		nodes = append(nodes, n.Id)
	}
	if n.Init != nil {
		nodes = append(nodes, n.Init)
	}
	return nodes
}

func (n *FunctionDeclaration) Children() []Node {
	var nodes []Node
	nodes = append(nodes, n.Params...)
	if n.Body != nil {
		nodes = append(nodes, n.Body)
	}
	return nodes
}

func (n *FunctionExpression) Children() []Node {
	var nodes []Node
	nodes = append(nodes, n.Params...)
	if n.Body != nil {
		nodes = append(nodes, n.Body)
	}
	return nodes
}

func (n *ArrowFunctionExpression) Children() []Node {
	var nodes []Node
	nodes = append(nodes, n.Params...)
	if n.Body != nil {
		nodes = append(nodes, n.Body)
	}
	return nodes
}

func (n *BlockStatement) Children() []Node { return n.Body }

func (n *ExpressionStatement) Children() []Node {
	if n.Expression == nil {
		return nil
	}
	return []Node{n.Expression}
}

func (n *ReturnStatement) Children() []Node {
	if n.Argument == nil {
		return nil
	}
	return []Node{n.Argument}
}

func (n *ThrowStatement) Children() []Node { return []Node{n.Argument} }

func (n *IfStatement) Children() []Node {
	nodes := []Node{n.Test, n.Consequent}
	if n.Alternate != nil {
		nodes = append(nodes, n.Alternate)
	}
	return nodes
}

func (n *ForStatement) Children() []Node {
	var nodes []Node
	if n.Init != nil {
		nodes = append(nodes, n.Init)
	}
	if n.Test != nil {
		nodes = append(nodes, n.Test)
	}
	if n.Update != nil {
		nodes = append(nodes, n.Update)
	}
	nodes = append(nodes, n.Body)
	return nodes
}

func (n *ForInStatement) Children() []Node { return []Node{n.Left, n.Right, n.Body} }
func (n *ForOfStatement) Children() []Node { return []Node{n.Left, n.Right, n.Body} }
func (n *WhileStatement) Children() []Node { return []Node{n.Test, n.Body} }
func (n *DoWhileStatement) Children() []Node { return []Node{n.Body, n.Test} }

func (n *LabeledStatement) Children() []Node { return []Node{n.Label, n.Body} }

func (n *BreakStatement) Children() []Node {
	if n.Label == nil {
		return nil
	}
	return []Node{n.Label}
}

func (n *ContinueStatement) Children() []Node {
	if n.Label == nil {
		return nil
	}
	return []Node{n.Label}
}

func (n *TryStatement) Children() []Node {
	nodes := []Node{n.Block}
	if n.Handler != nil {
		nodes = append(nodes, n.Handler)
	}
	if n.Finalizer != nil {
		nodes = append(nodes, n.Finalizer)
	}
	return nodes
}

func (n *CatchClause) Children() []Node {
	var nodes []Node
	if n.Param != nil {
		nodes = append(nodes, n.Param)
	}
	nodes = append(nodes, n.Body)
	return nodes
}

func (n *AssignmentExpression) Children() []Node { return []Node{n.Left, n.Right} }
func (n *BinaryExpression) Children() []Node     { return []Node{n.Left, n.Right} }
func (n *LogicalExpression) Children() []Node    { return []Node{n.Left, n.Right} }
func (n *UnaryExpression) Children() []Node      { return []Node{n.Argument} }
func (n *UpdateExpression) Children() []Node     { return []Node{n.Argument} }

func (n *ConditionalExpression) Children() []Node {
	return []Node{n.Test, n.Consequent, n.Alternate}
}

func (n *SequenceExpression) Children() []Node { return n.Expressions }
func (n *CallExpression) Children() []Node {
	nodes := []Node{n.Callee}
	return append(nodes, n.Arguments...)
}

func (n *NewExpression) Children() []Node {
	nodes := []Node{n.Callee}
	return append(nodes, n.Arguments...)
}

func (n *MemberExpression) Children() []Node {
	nodes := []Node{n.Object}
	if n.Computed {
		nodes = append(nodes, n.Property)
	}
	return nodes
}

func (n *ArrayExpression) Children() []Node {
	var nodes []Node
	for _, e := range n.Elements {
		if e != nil {
			nodes = append(nodes, e)
		}
	}
	return nodes
}

func (n *ObjectExpression) Children() []Node { return n.Properties }

func (n *Property) Children() []Node {
	var nodes []Node
	if n.Computed {
		nodes = append(nodes, n.Key)
	}
	nodes = append(nodes, n.Value)
	return nodes
}

func (n *SpreadElement) Children() []Node { return []Node{n.Argument} }

func (n *AssignmentPattern) Children() []Node { return []Node{n.Left, n.Right} }
func (n *ObjectPattern) Children() []Node     { return n.Properties }
func (n *ArrayPattern) Children() []Node {
	var nodes []Node
	for _, e := range n.Elements {
		if e != nil {
			nodes = append(nodes, e)
		}
	}
	return nodes
}
func (n *RestElement) Children() []Node { return []Node{n.Argument} }

func (n *ExportNamedDeclaration) Children() []Node {
	var nodes []Node
	if n.Declaration != nil {
		nodes = append(nodes, n.Declaration)
	}
	for _, s := range n.Specifiers {
		nodes = append(nodes, s)
	}
	return nodes
}

func (n *ExportSpecifier) Children() []Node { return []Node{n.Local, n.Exported} }

func (n *ExportDefaultDeclaration) Children() []Node { return []Node{n.Declaration} }
