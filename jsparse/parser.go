package jsparse

import (
	"strconv"

	"github.com/emglue/wasmglue/ast"
)

// Comment is one source comment, carried out of Parse alongside the AST
// purely for the printer's reattachment pass -- comments are never part of
// the token stream the parser itself consumes.
type Comment struct {
	Pos  ast.Pos
	Text string // includes the leading // or /* .. */ delimiters
	Line bool   // line comment (//) vs block comment (/* */)
}

// Parse parses a JavaScript program. name is used only in diagnostics.
// moduleMode mirrors --export-es6: it is accepted but, since this grammar
// subset parses export declarations identically either way (import
// declarations are not parsed at all), it only affects Program.SourceType.
func Parse(name, source string, moduleMode bool) (prog *ast.Program, comments []Comment, err error) {
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(*ParseError); ok {
				pe.File = name
				err = pe
				return
			}
			panic(r)
		}
	}()

	lx := newLexer(source)
	toks := lx.tokenize()
	p := &parser{toks: toks, file: name, source: source}
	prog = ast.NewProgram(0)
	if moduleMode {
		prog.SourceType = "module"
	} else {
		prog.SourceType = "script"
	}
	for !p.atEOF() {
		prog.Body = append(prog.Body, p.parseStatement())
	}
	for _, c := range lx.comments {
		comments = append(comments, Comment{Pos: c.pos, Text: c.text, Line: c.line})
	}
	return prog, comments, nil
}

type parser struct {
	toks []token
	pos  int
	file string
	source string
}

func (p *parser) errorf(format string, args ...interface{}) {
	panic(&ParseError{Offset: int(p.cur().pos), Source: p.source, msg: sprintf(format, args...)})
}

func (p *parser) cur() token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos]
}

func (p *parser) atEOF() bool { return p.cur().typ == tokEOF }

func (p *parser) advance() token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) is(val string) bool {
	t := p.cur()
	return (t.typ == tokPunct || t.typ == tokKeyword) && t.val == val
}

func (p *parser) accept(val string) bool {
	if p.is(val) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(val string) token {
	if !p.is(val) {
		p.errorf("expected %q, found %q", val, p.cur().val)
	}
	return p.advance()
}

func (p *parser) expectIdentName() token {
	t := p.cur()
	if t.typ != tokIdent && t.typ != tokKeyword {
		p.errorf("expected identifier, found %q", t.val)
	}
	p.advance()
	return t
}

func (p *parser) skipSemi() { p.accept(";") }

// ---- Statements -----------------------------------------------------------

func (p *parser) parseStatement() ast.Node {
	t := p.cur()
	if t.typ == tokKeyword {
		switch t.val {
		case "var", "let", "const":
			d := p.parseVariableDeclaration()
			p.skipSemi()
			return d
		case "function":
			return p.parseFunctionDeclaration()
		case "return":
			pos := p.advance().pos
			var arg ast.Node
			if !p.is(";") && !p.is("}") && !p.atEOF() {
				arg = p.parseExpression()
			}
			p.skipSemi()
			return &ast.ReturnStatement{NodeHeader: nh("ReturnStatement", pos), Argument: arg}
		case "if":
			return p.parseIf()
		case "for":
			return p.parseFor()
		case "while":
			return p.parseWhile()
		case "do":
			return p.parseDoWhile()
		case "break":
			pos := p.advance().pos
			var label *ast.Identifier
			if p.cur().typ == tokIdent {
				id := p.advance()
				label = ast.NewIdentifier(id.pos, id.val)
			}
			p.skipSemi()
			return &ast.BreakStatement{NodeHeader: nh("BreakStatement", pos), Label: label}
		case "continue":
			pos := p.advance().pos
			var label *ast.Identifier
			if p.cur().typ == tokIdent {
				id := p.advance()
				label = ast.NewIdentifier(id.pos, id.val)
			}
			p.skipSemi()
			return &ast.ContinueStatement{NodeHeader: nh("ContinueStatement", pos), Label: label}
		case "throw":
			pos := p.advance().pos
			arg := p.parseExpression()
			p.skipSemi()
			return &ast.ThrowStatement{NodeHeader: nh("ThrowStatement", pos), Argument: arg}
		case "try":
			return p.parseTry()
		case "export":
			return p.parseExport()
		}
	}
	if p.is("{") {
		return p.parseBlock()
	}
	if p.is(";") {
		pos := p.advance().pos
		return ast.NewEmptyStatement(pos)
	}

	// Identifier ':' Statement -- a labeled statement.
	if t.typ == tokIdent && p.toks[p.pos+1].typ == tokPunct && p.toks[p.pos+1].val == ":" {
		p.advance()
		p.advance()
		return &ast.LabeledStatement{
			NodeHeader: nh("LabeledStatement", t.pos),
			Label:      ast.NewIdentifier(t.pos, t.val),
			Body:       p.parseStatement(),
		}
	}

	expr := p.parseExpression()
	directive := ""
	if lit, ok := expr.(*ast.Literal); ok {
		if s, ok := lit.Value.(string); ok {
			directive = s
		}
	}
	p.skipSemi()
	return &ast.ExpressionStatement{NodeHeader: nh("ExpressionStatement", expr.Position()), Expression: expr, Directive: directive}
}

func nh(typ string, pos ast.Pos) ast.NodeHeader { return ast.NodeHeader{Typ: typ, Pos: pos} }

func (p *parser) parseBlock() *ast.BlockStatement {
	pos := p.expect("{").pos
	b := &ast.BlockStatement{NodeHeader: nh("BlockStatement", pos)}
	for !p.is("}") && !p.atEOF() {
		b.Body = append(b.Body, p.parseStatement())
	}
	p.expect("}")
	return b
}

func (p *parser) parseVariableDeclaration() *ast.VariableDeclaration {
	kindTok := p.advance()
	d := &ast.VariableDeclaration{NodeHeader: nh("VariableDeclaration", kindTok.pos), Kind: kindTok.val}
	for {
		id := p.parseBindingTarget()
		var init ast.Node
		if p.accept("=") {
			init = p.parseAssign()
		}
		d.Declarations = append(d.Declarations, &ast.VariableDeclarator{
			NodeHeader: nh("VariableDeclarator", id.Position()), Id: id, Init: init,
		})
		if !p.accept(",") {
			break
		}
	}
	return d
}

// parseBindingTarget parses an identifier or a destructuring pattern.
func (p *parser) parseBindingTarget() ast.Node {
	if p.is("{") {
		return p.parseObjectPattern()
	}
	if p.is("[") {
		return p.parseArrayPattern()
	}
	t := p.expectIdentName()
	return ast.NewIdentifier(t.pos, t.val)
}

func (p *parser) parseObjectPattern() *ast.ObjectPattern {
	pos := p.expect("{").pos
	pat := &ast.ObjectPattern{NodeHeader: nh("ObjectPattern", pos)}
	for !p.is("}") {
		if p.accept("...") {
			arg := p.parseBindingTarget()
			pat.Properties = append(pat.Properties, &ast.RestElement{NodeHeader: nh("RestElement", pos), Argument: arg})
		} else {
			computed := false
			var key ast.Node
			if p.accept("[") {
				computed = true
				key = p.parseAssign()
				p.expect("]")
			} else {
				kt := p.expectIdentName()
				key = ast.NewIdentifier(kt.pos, kt.val)
			}
			value := key
			if p.accept(":") {
				value = p.parseBindingTarget()
			}
			if p.accept("=") {
				value = &ast.AssignmentPattern{NodeHeader: nh("AssignmentPattern", value.Position()), Left: value, Right: p.parseAssign()}
			}
			pat.Properties = append(pat.Properties, &ast.Property{
				NodeHeader: nh("Property", key.Position()), Key: key, Value: value, Computed: computed, Kind: "init",
			})
		}
		if !p.accept(",") {
			break
		}
	}
	p.expect("}")
	return pat
}

func (p *parser) parseArrayPattern() *ast.ArrayPattern {
	pos := p.expect("[").pos
	pat := &ast.ArrayPattern{NodeHeader: nh("ArrayPattern", pos)}
	for !p.is("]") {
		if p.accept(",") {
			pat.Elements = append(pat.Elements, nil)
			continue
		}
		var el ast.Node
		if p.accept("...") {
			el = &ast.RestElement{NodeHeader: nh("RestElement", p.cur().pos), Argument: p.parseBindingTarget()}
		} else {
			el = p.parseBindingTarget()
			if p.accept("=") {
				el = &ast.AssignmentPattern{NodeHeader: nh("AssignmentPattern", el.Position()), Left: el, Right: p.parseAssign()}
			}
		}
		pat.Elements = append(pat.Elements, el)
		if !p.accept(",") {
			break
		}
	}
	p.expect("]")
	return pat
}

func (p *parser) parseParams() []ast.Node {
	p.expect("(")
	var params []ast.Node
	for !p.is(")") {
		var param ast.Node
		if p.accept("...") {
			param = &ast.RestElement{NodeHeader: nh("RestElement", p.cur().pos), Argument: p.parseBindingTarget()}
		} else {
			param = p.parseBindingTarget()
			if p.accept("=") {
				param = &ast.AssignmentPattern{NodeHeader: nh("AssignmentPattern", param.Position()), Left: param, Right: p.parseAssign()}
			}
		}
		params = append(params, param)
		if !p.accept(",") {
			break
		}
	}
	p.expect(")")
	return params
}

func (p *parser) parseFunctionDeclaration() *ast.FunctionDeclaration {
	pos := p.expect("function").pos
	nameTok := p.expectIdentName()
	params := p.parseParams()
	body := p.parseBlock()
	return &ast.FunctionDeclaration{
		NodeHeader: nh("FunctionDeclaration", pos),
		Id:         ast.NewIdentifier(nameTok.pos, nameTok.val),
		Params:     params,
		Body:       body,
	}
}

func (p *parser) parseIf() ast.Node {
	pos := p.expect("if").pos
	p.expect("(")
	test := p.parseExpression()
	p.expect(")")
	cons := p.parseStatement()
	var alt ast.Node
	if p.accept("else") {
		alt = p.parseStatement()
	}
	return &ast.IfStatement{NodeHeader: nh("IfStatement", pos), Test: test, Consequent: cons, Alternate: alt}
}

func (p *parser) parseWhile() ast.Node {
	pos := p.expect("while").pos
	p.expect("(")
	test := p.parseExpression()
	p.expect(")")
	body := p.parseStatement()
	return &ast.WhileStatement{NodeHeader: nh("WhileStatement", pos), Test: test, Body: body}
}

func (p *parser) parseDoWhile() ast.Node {
	pos := p.expect("do").pos
	body := p.parseStatement()
	p.expect("while")
	p.expect("(")
	test := p.parseExpression()
	p.expect(")")
	p.skipSemi()
	return &ast.DoWhileStatement{NodeHeader: nh("DoWhileStatement", pos), Body: body, Test: test}
}

func (p *parser) parseFor() ast.Node {
	pos := p.expect("for").pos
	p.expect("(")

	var init ast.Node
	if !p.is(";") {
		if p.is("var") || p.is("let") || p.is("const") {
			init = p.parseVariableDeclaration()
		} else if t := p.cur(); t.typ == tokIdent && p.toks[p.pos+1].typ == tokKeyword && p.toks[p.pos+1].val == "in" {
			// A bare identifier before `in` is the for-in target, not the
			// left operand of a binary `in` expression.
			p.advance()
			init = ast.NewIdentifier(t.pos, t.val)
		} else {
			init = p.parseExpression()
		}
	}
	if p.is("in") || p.is("of") {
		isOf := p.advance().val == "of"
		right := p.parseExpression()
		p.expect(")")
		body := p.parseStatement()
		if isOf {
			return &ast.ForOfStatement{NodeHeader: nh("ForOfStatement", pos), Left: init, Right: right, Body: body}
		}
		return &ast.ForInStatement{NodeHeader: nh("ForInStatement", pos), Left: init, Right: right, Body: body}
	}
	p.expect(";")
	var test ast.Node
	if !p.is(";") {
		test = p.parseExpression()
	}
	p.expect(";")
	var update ast.Node
	if !p.is(")") {
		update = p.parseExpression()
	}
	p.expect(")")
	body := p.parseStatement()
	return &ast.ForStatement{NodeHeader: nh("ForStatement", pos), Init: init, Test: test, Update: update, Body: body}
}

func (p *parser) parseTry() ast.Node {
	pos := p.expect("try").pos
	block := p.parseBlock()
	t := &ast.TryStatement{NodeHeader: nh("TryStatement", pos), Block: block}
	if p.accept("catch") {
		cpos := p.toks[p.pos-1].pos
		var param ast.Node
		if p.accept("(") {
			param = p.parseBindingTarget()
			p.expect(")")
		}
		t.Handler = &ast.CatchClause{NodeHeader: nh("CatchClause", cpos), Param: param, Body: p.parseBlock()}
	}
	if p.accept("finally") {
		t.Finalizer = p.parseBlock()
	}
	return t
}

func (p *parser) parseExport() ast.Node {
	pos := p.expect("export").pos
	if p.accept("default") {
		var decl ast.Node
		if p.is("function") {
			// The name is optional here: `export default function () {}`.
			fpos := p.advance().pos
			var id *ast.Identifier
			if p.cur().typ == tokIdent {
				t := p.advance()
				id = ast.NewIdentifier(t.pos, t.val)
			}
			params := p.parseParams()
			body := p.parseBlock()
			decl = &ast.FunctionDeclaration{NodeHeader: nh("FunctionDeclaration", fpos), Id: id, Params: params, Body: body}
		} else {
			decl = p.parseAssign()
			p.skipSemi()
		}
		return &ast.ExportDefaultDeclaration{NodeHeader: nh("ExportDefaultDeclaration", pos), Declaration: decl}
	}
	if p.is("{") {
		p.advance()
		decl := &ast.ExportNamedDeclaration{NodeHeader: nh("ExportNamedDeclaration", pos)}
		for !p.is("}") {
			lt := p.expectIdentName()
			local := ast.NewIdentifier(lt.pos, lt.val)
			exported := local
			if p.accept("as") {
				et := p.expectIdentName()
				exported = ast.NewIdentifier(et.pos, et.val)
			}
			decl.Specifiers = append(decl.Specifiers, &ast.ExportSpecifier{
				NodeHeader: nh("ExportSpecifier", lt.pos), Local: local, Exported: exported,
			})
			if !p.accept(",") {
				break
			}
		}
		p.expect("}")
		p.skipSemi()
		return decl
	}
	var decl ast.Node
	switch {
	case p.is("var"), p.is("let"), p.is("const"):
		decl = p.parseVariableDeclaration()
		p.skipSemi()
	case p.is("function"):
		decl = p.parseFunctionDeclaration()
	default:
		p.errorf("unsupported export form")
	}
	return &ast.ExportNamedDeclaration{NodeHeader: nh("ExportNamedDeclaration", pos), Declaration: decl}
}

// ---- Expressions (precedence climbing / Pratt) -----------------------------

var binaryPrecedence = map[string]int{
	"??": 1, "||": 2, "&&": 3,
	"|": 4, "^": 5, "&": 6,
	"==": 7, "!=": 7, "===": 7, "!==": 7,
	"<": 8, ">": 8, "<=": 8, ">=": 8, "instanceof": 8, "in": 8,
	"<<": 9, ">>": 9, ">>>": 9,
	"+": 10, "-": 10,
	"*": 11, "/": 11, "%": 11,
	"**": 12,
}

var logicalOps = map[string]bool{"||": true, "&&": true, "??": true}

func (p *parser) parseExpression() ast.Node {
	expr := p.parseAssign()
	if p.is(",") {
		seq := &ast.SequenceExpression{NodeHeader: nh("SequenceExpression", expr.Position()), Expressions: []ast.Node{expr}}
		for p.accept(",") {
			seq.Expressions = append(seq.Expressions, p.parseAssign())
		}
		return seq
	}
	return expr
}

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"<<=": true, ">>=": true, ">>>=": true, "&=": true, "|=": true, "^=": true,
	"&&=": true, "||=": true, "??=": true,
}

func (p *parser) parseAssign() ast.Node {
	left := p.parseConditional()
	if p.cur().typ == tokPunct && assignOps[p.cur().val] {
		op := p.advance().val
		right := p.parseAssign()
		return &ast.AssignmentExpression{NodeHeader: nh("AssignmentExpression", left.Position()), Operator: op, Left: left, Right: right}
	}
	return left
}

func (p *parser) parseConditional() ast.Node {
	test := p.parseBinary(0)
	if p.accept("?") {
		cons := p.parseAssign()
		p.expect(":")
		alt := p.parseAssign()
		return &ast.ConditionalExpression{NodeHeader: nh("ConditionalExpression", test.Position()), Test: test, Consequent: cons, Alternate: alt}
	}
	return test
}

func (p *parser) parseBinary(minPrec int) ast.Node {
	left := p.parseUnary()
	for {
		t := p.cur()
		op := t.val
		prec, ok := binaryPrecedence[op]
		if !ok || (t.typ != tokPunct && t.typ != tokKeyword) || prec < minPrec {
			return left
		}
		p.advance()
		nextMin := prec + 1
		if op == "**" {
			nextMin = prec // right-associative
		}
		right := p.parseBinary(nextMin)
		if logicalOps[op] {
			left = &ast.LogicalExpression{NodeHeader: nh("LogicalExpression", left.Position()), Operator: op, Left: left, Right: right}
		} else {
			left = &ast.BinaryExpression{NodeHeader: nh("BinaryExpression", left.Position()), Operator: op, Left: left, Right: right}
		}
	}
}

var unaryOps = map[string]bool{"!": true, "~": true, "+": true, "-": true, "typeof": true, "void": true, "delete": true}

func (p *parser) parseUnary() ast.Node {
	t := p.cur()
	if (t.typ == tokPunct || t.typ == tokKeyword) && unaryOps[t.val] {
		p.advance()
		arg := p.parseUnary()
		return &ast.UnaryExpression{NodeHeader: nh("UnaryExpression", t.pos), Operator: t.val, Prefix: true, Argument: arg}
	}
	if t.typ == tokPunct && (t.val == "++" || t.val == "--") {
		p.advance()
		arg := p.parseUnary()
		return &ast.UpdateExpression{NodeHeader: nh("UpdateExpression", t.pos), Operator: t.val, Prefix: true, Argument: arg}
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() ast.Node {
	expr := p.parseCallOrMember(p.parsePrimary())
	if t := p.cur(); t.typ == tokPunct && (t.val == "++" || t.val == "--") {
		p.advance()
		return &ast.UpdateExpression{NodeHeader: nh("UpdateExpression", expr.Position()), Operator: t.val, Prefix: false, Argument: expr}
	}
	return expr
}

func (p *parser) parseCallOrMember(expr ast.Node) ast.Node {
	for {
		switch {
		case p.is("."):
			p.advance()
			nameTok := p.expectIdentName()
			expr = &ast.MemberExpression{
				NodeHeader: nh("MemberExpression", expr.Position()),
				Object:     expr, Property: ast.NewIdentifier(nameTok.pos, nameTok.val), Computed: false,
			}
		case p.is("["):
			p.advance()
			prop := p.parseExpression()
			p.expect("]")
			expr = &ast.MemberExpression{
				NodeHeader: nh("MemberExpression", expr.Position()),
				Object:     expr, Property: prop, Computed: true,
			}
		case p.is("("):
			args := p.parseArguments()
			expr = &ast.CallExpression{NodeHeader: nh("CallExpression", expr.Position()), Callee: expr, Arguments: args}
		default:
			return expr
		}
	}
}

func (p *parser) parseArguments() []ast.Node {
	p.expect("(")
	var args []ast.Node
	for !p.is(")") {
		if p.accept("...") {
			args = append(args, &ast.SpreadElement{NodeHeader: nh("SpreadElement", p.cur().pos), Argument: p.parseAssign()})
		} else {
			args = append(args, p.parseAssign())
		}
		if !p.accept(",") {
			break
		}
	}
	p.expect(")")
	return args
}

func (p *parser) parsePrimary() ast.Node {
	t := p.cur()
	switch {
	case t.typ == tokNumber:
		p.advance()
		return p.numberLiteral(t)
	case t.typ == tokString:
		p.advance()
		return p.stringLiteral(t)
	case t.typ == tokKeyword && t.val == "true":
		p.advance()
		return &ast.Literal{NodeHeader: nh("Literal", t.pos), Value: true, Raw: t.val}
	case t.typ == tokKeyword && t.val == "false":
		p.advance()
		return &ast.Literal{NodeHeader: nh("Literal", t.pos), Value: false, Raw: t.val}
	case t.typ == tokKeyword && t.val == "null":
		p.advance()
		return &ast.Literal{NodeHeader: nh("Literal", t.pos), Value: nil, Raw: t.val}
	case t.typ == tokKeyword && t.val == "this":
		p.advance()
		return &ast.ThisExpression{NodeHeader: nh("ThisExpression", t.pos)}
	case t.typ == tokKeyword && t.val == "new":
		p.advance()
		callee := p.parseCallOrMemberNoCall(p.parsePrimary())
		var args []ast.Node
		if p.is("(") {
			args = p.parseArguments()
		}
		return p.parseCallOrMember(&ast.NewExpression{NodeHeader: nh("NewExpression", t.pos), Callee: callee, Arguments: args})
	case t.typ == tokKeyword && t.val == "function":
		return p.parseFunctionExpression()
	case t.typ == tokIdent:
		p.advance()
		if p.is("=>") {
			return p.parseArrowFromIdent(t)
		}
		return ast.NewIdentifier(t.pos, t.val)
	case p.is("("):
		return p.parseParenOrArrow()
	case p.is("["):
		return p.parseArrayLiteral()
	case p.is("{"):
		return p.parseObjectLiteral()
	}
	p.errorf("unexpected token %q", t.val)
	return nil
}

// parseCallOrMemberNoCall descends into member access only (used for `new`
// callee parsing, where a trailing `(...)` belongs to the `new` itself).
func (p *parser) parseCallOrMemberNoCall(expr ast.Node) ast.Node {
	for {
		switch {
		case p.is("."):
			p.advance()
			nameTok := p.expectIdentName()
			expr = &ast.MemberExpression{NodeHeader: nh("MemberExpression", expr.Position()), Object: expr, Property: ast.NewIdentifier(nameTok.pos, nameTok.val)}
		case p.is("["):
			p.advance()
			prop := p.parseExpression()
			p.expect("]")
			expr = &ast.MemberExpression{NodeHeader: nh("MemberExpression", expr.Position()), Object: expr, Property: prop, Computed: true}
		default:
			return expr
		}
	}
}

func (p *parser) parseArrowFromIdent(t token) ast.Node {
	p.expect("=>")
	param := ast.NewIdentifier(t.pos, t.val)
	return p.finishArrow(t.pos, []ast.Node{param})
}

func (p *parser) parseParenOrArrow() ast.Node {
	start := p.cur().pos
	save := p.pos
	// Attempt an arrow-function parameter list first.
	if params, ok := p.tryParseArrowParams(); ok && p.is("=>") {
		p.advance()
		return p.finishArrow(start, params)
	}
	p.pos = save
	p.expect("(")
	expr := p.parseExpression()
	p.expect(")")
	return expr
}

func (p *parser) tryParseArrowParams() (params []ast.Node, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	params = p.parseParams()
	return params, true
}

func (p *parser) finishArrow(pos ast.Pos, params []ast.Node) ast.Node {
	arrow := &ast.ArrowFunctionExpression{NodeHeader: nh("ArrowFunctionExpression", pos), Params: params}
	if p.is("{") {
		arrow.Body = p.parseBlock()
	} else {
		arrow.Body = p.parseAssign()
		arrow.ExprBody = true
	}
	return arrow
}

func (p *parser) parseFunctionExpression() ast.Node {
	pos := p.expect("function").pos
	var id *ast.Identifier
	if p.cur().typ == tokIdent {
		t := p.advance()
		id = ast.NewIdentifier(t.pos, t.val)
	}
	params := p.parseParams()
	body := p.parseBlock()
	return &ast.FunctionExpression{NodeHeader: nh("FunctionExpression", pos), Id: id, Params: params, Body: body}
}

func (p *parser) parseArrayLiteral() ast.Node {
	pos := p.expect("[").pos
	arr := &ast.ArrayExpression{NodeHeader: nh("ArrayExpression", pos)}
	for !p.is("]") {
		if p.is(",") {
			p.advance()
			arr.Elements = append(arr.Elements, nil)
			continue
		}
		if p.accept("...") {
			arr.Elements = append(arr.Elements, &ast.SpreadElement{NodeHeader: nh("SpreadElement", p.cur().pos), Argument: p.parseAssign()})
		} else {
			arr.Elements = append(arr.Elements, p.parseAssign())
		}
		if !p.accept(",") {
			break
		}
	}
	p.expect("]")
	return arr
}

func (p *parser) parseObjectLiteral() ast.Node {
	pos := p.expect("{").pos
	obj := &ast.ObjectExpression{NodeHeader: nh("ObjectExpression", pos)}
	for !p.is("}") {
		if p.accept("...") {
			obj.Properties = append(obj.Properties, &ast.SpreadElement{NodeHeader: nh("SpreadElement", p.cur().pos), Argument: p.parseAssign()})
			if !p.accept(",") {
				break
			}
			continue
		}
		computed := false
		var key ast.Node
		if p.accept("[") {
			computed = true
			key = p.parseAssign()
			p.expect("]")
		} else if p.cur().typ == tokString {
			t := p.advance()
			key = p.stringLiteral(t)
		} else if p.cur().typ == tokNumber {
			t := p.advance()
			key = p.numberLiteral(t)
		} else {
			t := p.expectIdentName()
			key = ast.NewIdentifier(t.pos, t.val)
		}
		prop := &ast.Property{NodeHeader: nh("Property", key.Position()), Key: key, Computed: computed, Kind: "init"}
		if p.is("(") {
			// Method shorthand: `name(...) { ... }`.
			params := p.parseParams()
			body := p.parseBlock()
			prop.Value = &ast.FunctionExpression{NodeHeader: nh("FunctionExpression", key.Position()), Params: params, Body: body}
		} else if p.accept(":") {
			prop.Value = p.parseAssign()
		} else {
			id, _ := key.(*ast.Identifier)
			prop.Value = id
			prop.Shorthand = true
		}
		obj.Properties = append(obj.Properties, prop)
		if !p.accept(",") {
			break
		}
	}
	p.expect("}")
	return obj
}

func (p *parser) numberLiteral(t token) *ast.Literal {
	v, err := strconv.ParseFloat(normalizeNumber(t.val), 64)
	if err != nil {
		p.errorf("invalid number literal %q", t.val)
	}
	return &ast.Literal{NodeHeader: nh("Literal", t.pos), Value: v, Raw: t.val}
}

func normalizeNumber(s string) string {
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		n, _ := strconv.ParseInt(s[2:], 16, 64)
		return strconv.FormatInt(n, 10)
	}
	return s
}

func (p *parser) stringLiteral(t token) *ast.Literal {
	unquoted, err := unescapeJSString(t.val)
	if err != nil {
		p.errorf("invalid string literal %q", t.val)
	}
	return &ast.Literal{NodeHeader: nh("Literal", t.pos), Value: unquoted, Raw: t.val}
}
