// Package printer re-serializes a *ast.Program back into JavaScript source
// text. Grounded on github.com/robfig/soy/soyjs/exec.go's own code
// generator: a small state struct wrapping a buffer, with write/nl/
// writeIndent helpers and a single recursive walk switching on concrete
// node type --
// the same shape used there to turn a Soy template AST into JS text, here
// driving the reverse direction's cousin (JS AST back into JS text).
package printer

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"text/template"

	"github.com/emglue/wasmglue/ast"
	"github.com/emglue/wasmglue/jsparse"
)

// Options controls how Print renders a program.
type Options struct {
	// Minify drops indentation and line breaks between statements,
	// matching --minify-whitespace. Semicolons are always emitted
	// explicitly either way; this pipeline never relies on ASI.
	Minify bool
	// Comments are reattached as leading comment lines ahead of whatever
	// statement follows their source position.
	Comments []jsparse.Comment
}

// Print renders prog to JS source text. The result always ends with
// exactly one trailing newline, matching the external tool's own output
// convention, even in minified mode.
func Print(prog *ast.Program, opts Options) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("printer: %v", r)
		}
	}()

	comments := append([]jsparse.Comment(nil), opts.Comments...)
	sort.Slice(comments, func(i, j int) bool { return comments[i].Pos < comments[j].Pos })

	s := &state{buf: &bytes.Buffer{}, minify: opts.Minify, comments: comments}
	for _, stmt := range prog.Body {
		s.statement(stmt)
	}
	s.flushCommentsBefore(ast.Pos(1 << 30))

	text := s.buf.String()
	if len(text) == 0 || text[len(text)-1] != '\n' {
		text += "\n"
	}
	return text, nil
}

type state struct {
	buf      *bytes.Buffer
	minify   bool
	indent   int
	comments []jsparse.Comment
	cIdx     int
}

func (s *state) write(str string) { s.buf.WriteString(str) }

func (s *state) nl() {
	if !s.minify {
		s.buf.WriteByte('\n')
	}
}

func (s *state) writeIndent() {
	if s.minify {
		return
	}
	for i := 0; i < s.indent; i++ {
		s.write("  ")
	}
}

// flushCommentsBefore emits, as standalone leading lines, every remaining
// comment positioned before pos.
func (s *state) flushCommentsBefore(pos ast.Pos) {
	for s.cIdx < len(s.comments) && s.comments[s.cIdx].Pos < pos {
		c := s.comments[s.cIdx]
		s.cIdx++
		if s.minify {
			continue // whitespace-minified output drops comments entirely
		}
		s.writeIndent()
		s.write(c.Text)
		s.buf.WriteByte('\n')
	}
}

// ---- statements -----------------------------------------------------------

func (s *state) statement(node ast.Node) {
	if node == nil || node.Type() == ast.EmptyStatementType {
		return
	}
	s.flushCommentsBefore(node.Position())
	s.writeIndent()

	switch n := node.(type) {
	case *ast.VariableDeclaration:
		s.write(n.Kind)
		s.write(" ")
		for i, d := range n.Declarations {
			if i > 0 {
				s.write(", ")
			}
			s.expr(d.Id)
			if d.Init != nil {
				s.write(" = ")
				s.expr(d.Init)
			}
		}
		s.write(";")
		s.nl()

	case *ast.FunctionDeclaration:
		s.write("function ")
		if n.Id != nil {
			s.write(n.Id.Name)
		}
		s.params(n.Params)
		s.write(" ")
		s.block(n.Body)
		s.nl()

	case *ast.ExpressionStatement:
		s.expr(n.Expression)
		s.write(";")
		s.nl()

	case *ast.ReturnStatement:
		s.write("return")
		if n.Argument != nil {
			s.write(" ")
			s.expr(n.Argument)
		}
		s.write(";")
		s.nl()

	case *ast.ThrowStatement:
		s.write("throw ")
		s.expr(n.Argument)
		s.write(";")
		s.nl()

	case *ast.IfStatement:
		s.write("if (")
		s.expr(n.Test)
		s.write(") ")
		s.block(n.Consequent)
		if n.Alternate != nil {
			s.write(" else ")
			if _, ok := n.Alternate.(*ast.IfStatement); ok {
				s.indentlessStatement(n.Alternate)
			} else {
				s.block(n.Alternate)
			}
		}
		s.nl()

	case *ast.ForStatement:
		s.write("for (")
		s.forClause(n.Init)
		s.write("; ")
		if n.Test != nil {
			s.expr(n.Test)
		}
		s.write("; ")
		if n.Update != nil {
			s.expr(n.Update)
		}
		s.write(") ")
		s.block(n.Body)
		s.nl()

	case *ast.ForInStatement:
		s.write("for (")
		s.forClause(n.Left)
		s.write(" in ")
		s.expr(n.Right)
		s.write(") ")
		s.block(n.Body)
		s.nl()

	case *ast.ForOfStatement:
		s.write("for (")
		s.forClause(n.Left)
		s.write(" of ")
		s.expr(n.Right)
		s.write(") ")
		s.block(n.Body)
		s.nl()

	case *ast.WhileStatement:
		s.write("while (")
		s.expr(n.Test)
		s.write(") ")
		s.block(n.Body)
		s.nl()

	case *ast.DoWhileStatement:
		s.write("do ")
		s.block(n.Body)
		s.write(" while (")
		s.expr(n.Test)
		s.write(");")
		s.nl()

	case *ast.LabeledStatement:
		s.write(n.Label.Name)
		s.write(": ")
		s.indentlessStatement(n.Body)

	case *ast.BreakStatement:
		s.write("break")
		if n.Label != nil {
			s.write(" " + n.Label.Name)
		}
		s.write(";")
		s.nl()

	case *ast.ContinueStatement:
		s.write("continue")
		if n.Label != nil {
			s.write(" " + n.Label.Name)
		}
		s.write(";")
		s.nl()

	case *ast.TryStatement:
		s.write("try ")
		s.block(n.Block)
		if n.Handler != nil {
			s.write(" catch (")
			if n.Handler.Param != nil {
				s.expr(n.Handler.Param)
			}
			s.write(") ")
			s.block(n.Handler.Body)
		}
		if n.Finalizer != nil {
			s.write(" finally ")
			s.block(n.Finalizer)
		}
		s.nl()

	case *ast.BlockStatement:
		s.block(n)
		s.nl()

	case *ast.ExportNamedDeclaration:
		s.write("export ")
		if n.Declaration != nil {
			s.statementInline(n.Declaration)
			return
		}
		s.write("{ ")
		for i, spec := range n.Specifiers {
			if i > 0 {
				s.write(", ")
			}
			s.write(spec.Local.Name)
			if spec.Exported.Name != spec.Local.Name {
				s.write(" as " + spec.Exported.Name)
			}
		}
		s.write(" };")
		s.nl()

	case *ast.ExportDefaultDeclaration:
		s.write("export default ")
		s.expr(n.Declaration)
		s.write(";")
		s.nl()

	default:
		panic(fmt.Sprintf("printer: unhandled statement type %T", node))
	}
}

// indentlessStatement prints a statement in place, mid-line, continuing at
// the current indent level but without re-emitting a leading indent or
// comment flush -- for constructs (else-if chains, labeled statements)
// whose caller already positioned the cursor on the right line.
func (s *state) indentlessStatement(node ast.Node) {
	switch n := node.(type) {
	case *ast.BlockStatement:
		s.block(n)
		s.nl()
	case *ast.FunctionDeclaration:
		s.write("function ")
		if n.Id != nil {
			s.write(n.Id.Name)
		}
		s.params(n.Params)
		s.write(" ")
		s.block(n.Body)
		s.nl()
	case *ast.VariableDeclaration:
		s.write(n.Kind + " ")
		for i, d := range n.Declarations {
			if i > 0 {
				s.write(", ")
			}
			s.expr(d.Id)
			if d.Init != nil {
				s.write(" = ")
				s.expr(d.Init)
			}
		}
		s.write(";")
		s.nl()
	case *ast.IfStatement:
		s.write("if (")
		s.expr(n.Test)
		s.write(") ")
		s.block(n.Consequent)
		if n.Alternate != nil {
			s.write(" else ")
			if _, ok := n.Alternate.(*ast.IfStatement); ok {
				s.indentlessStatement(n.Alternate)
			} else {
				s.block(n.Alternate)
				s.nl()
			}
		} else {
			s.nl()
		}
	default:
		s.expr(mustExpressionStatement(node))
		s.write(";")
		s.nl()
	}
}

// statementInline renders a declaration statement (used after `export `)
// at the current cursor position, without a leading indent or comment
// flush of its own.
func (s *state) statementInline(node ast.Node) {
	s.indentlessStatement(node)
}

func mustExpressionStatement(node ast.Node) ast.Node {
	if es, ok := node.(*ast.ExpressionStatement); ok {
		return es.Expression
	}
	panic(fmt.Sprintf("printer: unhandled inline statement type %T", node))
}

func (s *state) forClause(node ast.Node) {
	if node == nil {
		return
	}
	if decl, ok := node.(*ast.VariableDeclaration); ok {
		s.write(decl.Kind + " ")
		for i, d := range decl.Declarations {
			if i > 0 {
				s.write(", ")
			}
			s.expr(d.Id)
			if d.Init != nil {
				s.write(" = ")
				s.expr(d.Init)
			}
		}
		return
	}
	s.expr(node)
}

// block always prints node as a brace-delimited block, even when it is a
// single bare statement (JS allows `if (x) y;`, but generated glue code and
// this printer always normalize to a block for unambiguous reattachment of
// comments and DCE edits).
func (s *state) block(node ast.Node) {
	bs, ok := node.(*ast.BlockStatement)
	if !ok {
		s.write("{")
		s.nl()
		s.indent++
		s.statement(node)
		s.indent--
		s.writeIndent()
		s.write("}")
		return
	}
	s.write("{")
	s.nl()
	s.indent++
	for _, stmt := range bs.Body {
		s.statement(stmt)
	}
	// A comment trailing the last statement inside this block (with no
	// following statement anywhere to anchor a flush on) surfaces later,
	// at Print's final flush, rather than here -- a known limitation of
	// position-based reattachment with no end-of-block position to flush
	// against.
	s.indent--
	s.writeIndent()
	s.write("}")
}

func (s *state) params(params []ast.Node) {
	s.write("(")
	for i, p := range params {
		if i > 0 {
			s.write(", ")
		}
		s.expr(p)
	}
	s.write(")")
}

// ---- expressions ------------------------------------------------------

func (s *state) expr(node ast.Node) {
	if node == nil {
		return
	}
	switch n := node.(type) {
	case *ast.Identifier:
		s.write(n.Name)
	case *ast.ThisExpression:
		s.write("this")
	case *ast.Literal:
		s.literal(n)
	case *ast.AssignmentExpression:
		s.expr(n.Left)
		s.write(" " + n.Operator + " ")
		s.expr(n.Right)
	case *ast.BinaryExpression:
		s.write("(")
		s.expr(n.Left)
		s.write(" " + n.Operator + " ")
		s.expr(n.Right)
		s.write(")")
	case *ast.LogicalExpression:
		s.write("(")
		s.expr(n.Left)
		s.write(" " + n.Operator + " ")
		s.expr(n.Right)
		s.write(")")
	case *ast.UnaryExpression:
		if n.Prefix {
			s.write(n.Operator)
			if isWordOperator(n.Operator) {
				s.write(" ")
			}
			s.write("(")
			s.expr(n.Argument)
			s.write(")")
		} else {
			s.write("(")
			s.expr(n.Argument)
			s.write(")")
			s.write(n.Operator)
		}
	case *ast.UpdateExpression:
		if n.Prefix {
			s.write(n.Operator)
			s.expr(n.Argument)
		} else {
			s.expr(n.Argument)
			s.write(n.Operator)
		}
	case *ast.ConditionalExpression:
		s.write("(")
		s.expr(n.Test)
		s.write(" ? ")
		s.expr(n.Consequent)
		s.write(" : ")
		s.expr(n.Alternate)
		s.write(")")
	case *ast.SequenceExpression:
		s.write("(")
		for i, e := range n.Expressions {
			if i > 0 {
				s.write(", ")
			}
			s.expr(e)
		}
		s.write(")")
	case *ast.CallExpression:
		s.expr(n.Callee)
		s.args(n.Arguments)
	case *ast.NewExpression:
		s.write("new ")
		s.expr(n.Callee)
		s.args(n.Arguments)
	case *ast.MemberExpression:
		s.expr(n.Object)
		if n.Computed {
			s.write("[")
			s.expr(n.Property)
			s.write("]")
		} else {
			s.write(".")
			s.expr(n.Property)
		}
	case *ast.ArrayExpression:
		s.write("[")
		for i, e := range n.Elements {
			if i > 0 {
				s.write(", ")
			}
			s.expr(e)
		}
		s.write("]")
	case *ast.ObjectExpression:
		s.write("{")
		for i, p := range n.Properties {
			if i > 0 {
				s.write(", ")
			}
			s.expr(p)
		}
		s.write("}")
	case *ast.Property:
		if n.Computed {
			s.write("[")
			s.expr(n.Key)
			s.write("]")
		} else {
			s.expr(n.Key)
		}
		if !n.Shorthand {
			s.write(": ")
			s.expr(n.Value)
		}
	case *ast.SpreadElement:
		s.write("...")
		s.expr(n.Argument)
	case *ast.AssignmentPattern:
		s.expr(n.Left)
		s.write(" = ")
		s.expr(n.Right)
	case *ast.ObjectPattern:
		s.write("{")
		for i, p := range n.Properties {
			if i > 0 {
				s.write(", ")
			}
			s.expr(p)
		}
		s.write("}")
	case *ast.ArrayPattern:
		s.write("[")
		for i, e := range n.Elements {
			if i > 0 {
				s.write(", ")
			}
			s.expr(e)
		}
		s.write("]")
	case *ast.RestElement:
		s.write("...")
		s.expr(n.Argument)
	case *ast.FunctionExpression:
		s.write("function ")
		if n.Id != nil {
			s.write(n.Id.Name)
		}
		s.params(n.Params)
		s.write(" ")
		s.block(n.Body)
	case *ast.ArrowFunctionExpression:
		s.params(n.Params)
		s.write(" => ")
		if n.ExprBody {
			s.expr(n.Body)
		} else {
			s.block(n.Body)
		}
	default:
		panic(fmt.Sprintf("printer: unhandled expression type %T", node))
	}
}

func (s *state) args(args []ast.Node) {
	s.write("(")
	for i, a := range args {
		if i > 0 {
			s.write(", ")
		}
		s.expr(a)
	}
	s.write(")")
}

func (s *state) literal(lit *ast.Literal) {
	if lit.Raw != "" {
		// A literal carried over untouched from the source: reproduce it
		// exactly (hex notation, quote style, exponent form) rather than
		// recompute a canonical form that would needlessly churn diffs.
		s.write(lit.Raw)
		return
	}
	switch v := lit.Value.(type) {
	case nil:
		s.write("null")
	case bool:
		if v {
			s.write("true")
		} else {
			s.write("false")
		}
	case string:
		s.write("'")
		s.write(template.JSEscapeString(v))
		s.write("'")
	case float64:
		s.write(formatNumber(v))
	default:
		panic(fmt.Sprintf("printer: unhandled literal value type %T", v))
	}
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func isWordOperator(op string) bool {
	return op == "typeof" || op == "void" || op == "delete"
}
