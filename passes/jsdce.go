package passes

import (
	"github.com/emglue/wasmglue/ast"
	"github.com/emglue/wasmglue/walk"
)

// binding tracks one name's def/use/param flags within a single scope
// frame, mirroring the spec's 0/1 flag trio exactly.
type binding struct {
	def, use, param bool
}

// frame is one scope's binding table. Frames are pushed on function entry
// and popped on exit; lookup is strictly top-of-stack (no lexical chain),
// matching github.com/robfig/soy/soyjs's scope stack -- the same
// push/pop/top-of-stack shape, repurposed from variable renaming to
// def/use bookkeeping.
type frame struct {
	names map[string]binding
}

func newFrame() *frame { return &frame{names: map[string]binding{}} }

// jsdceState holds the scope stack and counters for one collection pass.
type jsdceState struct {
	stack     []*frame
	aggressive bool
	erasures  int
}

func (s *jsdceState) top() *frame { return s.stack[len(s.stack)-1] }

func (s *jsdceState) markDef(name string) {
	b := s.top().names[name]
	b.def = true
	s.top().names[name] = b
}

func (s *jsdceState) markUse(name string) {
	b := s.top().names[name]
	b.use = true
	s.top().names[name] = b
}

func (s *jsdceState) markParam(name string) {
	b := s.top().names[name]
	b.def = true
	b.param = true
	s.top().names[name] = b
}

// JSDCE eliminates unused variable declarators and function declarations.
// It runs exactly one collection+cleanup pass; see AJSDCE for the
// fixed-point aggressive variant.
func JSDCE(ctx *Context) error {
	jsdceRun(ctx.Program, false)
	return nil
}

// AJSDCE is JSDCE(aggressive=true) repeated to a fixed point: aggressive
// mode additionally erases side-effect-free expression statements, which
// can itself expose new dead declarations, so it reruns while the previous
// iteration removed anything.
func AJSDCE(ctx *Context) error {
	for {
		if jsdceRun(ctx.Program, true) == 0 {
			return nil
		}
	}
}

func jsdceRun(prog *ast.Program, aggressive bool) int {
	s := &jsdceState{stack: []*frame{newFrame()}, aggressive: aggressive}

	var table walk.RecursiveTable
	table = walk.RecursiveTable{
		"FunctionDeclaration": func(node ast.Node, recurse func(ast.Node)) {
			fn := node.(*ast.FunctionDeclaration)
			if fn.Id != nil {
				s.markDef(fn.Id.Name)
			}
			s.enterFunction(fn.Params, fn.Body, table)
		},
		"FunctionExpression": func(node ast.Node, recurse func(ast.Node)) {
			fe := node.(*ast.FunctionExpression)
			s.stack = append(s.stack, newFrame())
			if fe.Id != nil {
				// Named function expressions: the name is visible to
				// self-reference inside the body but is never definable
				// in, or leaked to, the outer scope.
				s.markDef(fe.Id.Name)
			}
			s.bindParams(fe.Params, table)
			walk.RecursiveWalk(fe.Body, table)
			s.exitFunction(fe.Body, table)
		},
		"ArrowFunctionExpression": func(node ast.Node, recurse func(ast.Node)) {
			af := node.(*ast.ArrowFunctionExpression)
			s.enterFunction(af.Params, af.Body, table)
		},
		"VariableDeclarator": func(node ast.Node, recurse func(ast.Node)) {
			vd := node.(*ast.VariableDeclarator)
			walk.WalkPattern(vd.Id,
				func(e ast.Node) { walk.RecursiveWalk(e, table) },
				func(id *ast.Identifier) { s.markDef(id.Name) },
			)
			if vd.Init != nil {
				walk.RecursiveWalk(vd.Init, table)
			}
		},
		"Identifier": func(node ast.Node, recurse func(ast.Node)) {
			s.markUse(node.(*ast.Identifier).Name)
		},
		"MemberExpression": func(node ast.Node, recurse func(ast.Node)) {
			me := node.(*ast.MemberExpression)
			walk.RecursiveWalk(me.Object, table)
			if me.Computed {
				walk.RecursiveWalk(me.Property, table)
			}
		},
		"ObjectExpression": func(node ast.Node, recurse func(ast.Node)) {
			oe := node.(*ast.ObjectExpression)
			for _, p := range oe.Properties {
				switch prop := p.(type) {
				case *ast.Property:
					if prop.Computed {
						walk.RecursiveWalk(prop.Key, table)
					}
					walk.RecursiveWalk(prop.Value, table)
				case *ast.SpreadElement:
					walk.RecursiveWalk(prop.Argument, table)
				}
			}
		},
		"ExportNamedDeclaration": func(node ast.Node, recurse func(ast.Node)) {
			ed := node.(*ast.ExportNamedDeclaration)
			if ed.Declaration != nil {
				walk.RecursiveWalk(ed.Declaration, table)
			}
			for _, spec := range ed.Specifiers {
				s.markUse(spec.Local.Name)
			}
		},
		"ExportDefaultDeclaration": func(node ast.Node, recurse func(ast.Node)) {
			edd := node.(*ast.ExportDefaultDeclaration)
			switch d := edd.Declaration.(type) {
			case *ast.FunctionDeclaration:
				if d.Id != nil {
					s.markUse(d.Id.Name)
				}
			case *ast.Identifier:
				s.markUse(d.Name)
			}
			walk.RecursiveWalk(edd.Declaration, table)
		},
	}

	for _, stmt := range prog.Body {
		walk.RecursiveWalk(stmt, table)
	}

	// The program body is itself an implicit outermost scope: there is no
	// enclosing frame to propagate unused-but-referenced names into, so it
	// is finalized directly rather than through exitFunction.
	root := s.stack[0]
	removal := removalSet(root)
	s.erasures += runCleanup(removal, prog.Body, aggressive)
	return s.erasures
}

func (s *jsdceState) bindParams(params []ast.Node, table walk.RecursiveTable) {
	for _, param := range params {
		walk.WalkPattern(param,
			func(e ast.Node) { walk.RecursiveWalk(e, table) },
			func(id *ast.Identifier) { s.markParam(id.Name) },
		)
	}
}

func (s *jsdceState) enterFunction(params []ast.Node, body ast.Node, table walk.RecursiveTable) {
	s.stack = append(s.stack, newFrame())
	s.bindParams(params, table)
	walk.RecursiveWalk(body, table)
	s.exitFunction(body, table)
}

// exitFunction pops the current frame, propagates names that were used but
// never defined locally to the enclosing frame as a synthetic use (the
// one-level escape hatch standing in for full lexical scope analysis), and
// runs the cleanup walk over the function body using that frame's removal
// set.
func (s *jsdceState) exitFunction(body ast.Node, table walk.RecursiveTable) {
	popped := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]

	removal := map[string]bool{}
	for name, b := range popped.names {
		switch {
		case b.use && !b.def:
			if len(s.stack) > 0 {
				s.markUse(name)
			}
		case b.def && !b.use && !b.param:
			removal[name] = true
		}
	}
	var bodyStmts []ast.Node
	if bs, ok := body.(*ast.BlockStatement); ok {
		bodyStmts = bs.Body
	}
	s.erasures += runCleanup(removal, bodyStmts, s.aggressive)
}

func removalSet(f *frame) map[string]bool {
	removal := map[string]bool{}
	for name, b := range f.names {
		if b.def && !b.use && !b.param {
			removal[name] = true
		}
	}
	return removal
}

// ---- cleanup walk -----------------------------------------------------

func runCleanup(removal map[string]bool, stmts []ast.Node, aggressive bool) int {
	if len(removal) == 0 && !aggressive {
		return 0
	}
	erasures := 0

	var table walk.RecursiveTable
	table = walk.RecursiveTable{
		"VariableDeclaration": func(node ast.Node, recurse func(ast.Node)) {
			decl := node.(*ast.VariableDeclaration)
			var kept []*ast.VariableDeclarator
			for _, d := range decl.Declarations {
				if declaratorSurvives(d, removal) {
					kept = append(kept, d)
				} else {
					erasures++
				}
			}
			if len(kept) == 0 {
				walk.EmptyOut(decl)
			} else {
				decl.Declarations = kept
			}
		},
		"FunctionDeclaration": func(node ast.Node, recurse func(ast.Node)) {
			fn := node.(*ast.FunctionDeclaration)
			if fn.Id != nil && removal[fn.Id.Name] {
				walk.EmptyOut(fn)
				erasures++
			}
			// Never descend: nested functions were already cleaned up
			// with their own removal set at their own scope exit.
		},
		"FunctionExpression":      func(ast.Node, func(ast.Node)) {},
		"ArrowFunctionExpression": func(ast.Node, func(ast.Node)) {},

		"ForStatement": func(node ast.Node, recurse func(ast.Node)) {
			fs := node.(*ast.ForStatement)
			if fs.Init != nil {
				walk.RecursiveWalk(fs.Init, table)
				if fs.Init.Type() == ast.EmptyStatementType {
					fs.Init = nil
				}
			}
			if fs.Test != nil {
				walk.RecursiveWalk(fs.Test, table)
			}
			if fs.Update != nil {
				walk.RecursiveWalk(fs.Update, table)
			}
			walk.RecursiveWalk(fs.Body, table)
		},
		"ForInStatement": func(node ast.Node, recurse func(ast.Node)) {
			fi := node.(*ast.ForInStatement)
			walk.RecursiveWalk(fi.Right, table)
			walk.RecursiveWalk(fi.Body, table)
		},
		"ForOfStatement": func(node ast.Node, recurse func(ast.Node)) {
			fo := node.(*ast.ForOfStatement)
			walk.RecursiveWalk(fo.Right, table)
			walk.RecursiveWalk(fo.Body, table)
		},
	}
	if aggressive {
		table["ExpressionStatement"] = func(node ast.Node, recurse func(ast.Node)) {
			es := node.(*ast.ExpressionStatement)
			if es.Directive == "" && !walk.HasSideEffects(es.Expression) {
				walk.EmptyOut(es)
				erasures++
				return
			}
			walk.RecursiveWalk(es.Expression, table)
		}
	}

	for _, stmt := range stmts {
		walk.RecursiveWalk(stmt, table)
	}
	return erasures
}

func declaratorSurvives(d *ast.VariableDeclarator, removal map[string]bool) bool {
	if walk.HasSideEffects(d.Init) {
		return true
	}
	survives := false
	walk.WalkPattern(d.Id,
		func(e ast.Node) {
			if walk.HasSideEffects(e) {
				survives = true
			}
		},
		func(id *ast.Identifier) {
			if !removal[id.Name] {
				survives = true
			}
		},
	)
	return survives
}
