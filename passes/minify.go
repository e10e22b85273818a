package passes

import (
	"strings"

	"github.com/emglue/wasmglue/ast"
	"github.com/emglue/wasmglue/sidecar"
	"github.com/emglue/wasmglue/walk"
)

// reservedWords are names NameGenerator must never hand out: JS keywords
// plus a couple of Emscripten-glue globals that minified code still has to
// call by their fixed, well-known spelling. Not grounded in any example
// file -- there is no corpus library for "is this a JS keyword", so this is
// the one place a short literal table stands in for a dependency (see
// DESIGN.md).
var reservedWords = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true,
	"do": true, "else": true, "export": true, "extends": true, "finally": true,
	"for": true, "function": true, "if": true, "import": true, "in": true,
	"instanceof": true, "new": true, "return": true, "super": true,
	"switch": true, "this": true, "throw": true, "try": true, "typeof": true,
	"var": true, "void": true, "while": true, "with": true, "yield": true,
	"let": true, "static": true, "enum": true, "await": true, "implements": true,
	"package": true, "protected": true, "interface": true, "private": true,
	"public": true, "null": true, "true": true, "false": true, "arguments": true,
	"eval": true, "Module": true, "wasmExports": true, "wasmImports": true,
	"wasmMemory": true,
}

const nameInits = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_$"
const nameLaters = nameInits + "0123456789"

// NameGenerator hands out successive short identifiers in the same
// mixed-radix ordering a car's odometer advances: "a".."z","A".."Z","_","$",
// then "aa","ba","ca",... (the first character advances fastest). Names
// already handed out or reserved are kept so they are never handed out
// again, including when one generator is shared across Contexts via
// WithNameGenerator for a multi-file build.
type NameGenerator struct {
	counter int
	used    []string
}

func NewNameGenerator() *NameGenerator {
	return &NameGenerator{}
}

// Next returns the next available name, skipping both JS reserved words and
// anything already reserved via Reserve (an external name the pipeline must
// not clobber, e.g. a kept import or export).
func (g *NameGenerator) Next() string {
	for {
		name := g.nameAt(g.counter)
		g.counter++
		if reservedWords[name] || g.isUsed(name) {
			continue
		}
		g.used = append(g.used, name)
		return name
	}
}

// Reserve marks name as unavailable without consuming a counter slot --
// used to protect an export's external name from being handed out to some
// unrelated local.
func (g *NameGenerator) Reserve(name string) {
	if !g.isUsed(name) {
		g.used = append(g.used, name)
	}
}

func (g *NameGenerator) isUsed(name string) bool {
	for _, u := range g.used {
		if u == name {
			return true
		}
	}
	return false
}

// nameAt computes the nth name in the mixed-radix sequence: the first
// character is drawn from nameInits, every subsequent character from the
// wider nameLaters alphabet (which also allows digits).
func (g *NameGenerator) nameAt(n int) string {
	var b strings.Builder
	b.WriteByte(nameInits[n%len(nameInits)])
	n /= len(nameInits)
	for n > 0 {
		n--
		b.WriteByte(nameLaters[n%len(nameLaters)])
		n /= len(nameLaters)
	}
	return b.String()
}

// instantiateWrapper asserts the shape minifyGlobals requires -- the
// program is exactly one top-level `function instantiate(...) { … }`, the
// wasm2js wrapper every other symbol in the file lives inside -- and
// returns that declaration.
func instantiateWrapper(prog *ast.Program) *ast.FunctionDeclaration {
	if len(prog.Body) != 1 {
		assertf("minifyGlobalsShape", "minifyGlobals requires a program consisting of exactly one top-level statement, got %d", len(prog.Body))
	}
	fn, ok := prog.Body[0].(*ast.FunctionDeclaration)
	if !ok || fn.Id == nil || fn.Id.Name != "instantiate" {
		assertf("minifyGlobalsShape", "minifyGlobals requires the program's sole statement to be `function instantiate(...)`")
	}
	return fn
}

// MinifyGlobals renames every binding reachable from inside the instantiate
// wrapper -- its own id and parameters, every function declaration's id and
// parameters, every function-expression's parameters, every variable
// declarator -- to a short mangled name, then restores the wrapper's own
// id so the driver can still find it by its well-known spelling.
//
// A non-computed MemberExpression's property (`x.foo`) is never a binding,
// so it is structurally exempt: the walks below only descend into a
// MemberExpression's Property when Computed is set, which means a property
// identifier is never visited (and so never renamed) regardless of
// whether its spelling happens to collide with a declared name.
//
// The resulting name table is recorded in ctx.Suffix as a fresh EXTRA_INFO
// comment so the driver can carry the mapping into a second-stage
// minification of another file sharing these globals; entries already
// present in ctx.Extra.Globals (decided by an earlier invocation) are
// reused rather than re-minted, so the mapping stays consistent across a
// multi-file build.
func MinifyGlobals(ctx *Context) error {
	fn := instantiateWrapper(ctx.Program)
	originalName := fn.Id.Name

	var order []string
	declared := map[string]bool{}
	declare := func(name string) {
		if !declared[name] {
			declared[name] = true
			order = append(order, name)
		}
	}
	declareParams := func(params []ast.Node) {
		for _, p := range params {
			walk.WalkPattern(p, func(ast.Node) {}, func(id *ast.Identifier) { declare(id.Name) })
		}
	}

	declare(fn.Id.Name)
	declareParams(fn.Params)
	hoistLocalDecls(fn.Body.Body, func(name string) string { declare(name); return name })

	var collect walk.RecursiveTable
	collect = walk.RecursiveTable{
		"FunctionDeclaration": func(node ast.Node, recurse func(ast.Node)) {
			d := node.(*ast.FunctionDeclaration)
			if d.Id != nil {
				declare(d.Id.Name)
			}
			declareParams(d.Params)
			walk.RecursiveWalk(d.Body, collect)
		},
		"FunctionExpression": func(node ast.Node, recurse func(ast.Node)) {
			f := node.(*ast.FunctionExpression)
			if f.Id != nil {
				declare(f.Id.Name)
			}
			declareParams(f.Params)
			walk.RecursiveWalk(f.Body, collect)
		},
		"MemberExpression": func(node ast.Node, recurse func(ast.Node)) {
			me := node.(*ast.MemberExpression)
			walk.RecursiveWalk(me.Object, collect)
			if me.Computed {
				walk.RecursiveWalk(me.Property, collect)
			}
		},
	}
	for _, stmt := range fn.Body.Body {
		walk.RecursiveWalk(stmt, collect)
	}

	for name := range ctx.Extra.Globals {
		declare(name)
	}

	rename := map[string]string{}
	for name, mangled := range ctx.Extra.Globals {
		rename[name] = mangled
		ctx.names.Reserve(mangled)
	}
	for _, name := range order {
		if _, already := rename[name]; already {
			continue
		}
		rename[name] = ctx.names.Next()
	}

	var table walk.RecursiveTable
	table = walk.RecursiveTable{
		"Identifier": func(node ast.Node, recurse func(ast.Node)) {
			id := node.(*ast.Identifier)
			if mangled, ok := rename[id.Name]; ok {
				id.Name = mangled
			}
		},
		"MemberExpression": func(node ast.Node, recurse func(ast.Node)) {
			me := node.(*ast.MemberExpression)
			walk.RecursiveWalk(me.Object, table)
			if me.Computed {
				walk.RecursiveWalk(me.Property, table)
			}
		},
		"FunctionDeclaration": func(node ast.Node, recurse func(ast.Node)) {
			d := node.(*ast.FunctionDeclaration)
			if d.Id != nil {
				if mangled, ok := rename[d.Id.Name]; ok {
					d.Id.Name = mangled
				}
			}
			walk.VisitChildren(d, recurse)
		},
		"FunctionExpression": func(node ast.Node, recurse func(ast.Node)) {
			f := node.(*ast.FunctionExpression)
			if f.Id != nil {
				if mangled, ok := rename[f.Id.Name]; ok {
					f.Id.Name = mangled
				}
			}
			walk.VisitChildren(f, recurse)
		},
	}
	renameParams := func(params []ast.Node) {
		for _, p := range params {
			walk.WalkPattern(p, func(e ast.Node) { walk.RecursiveWalk(e, table) }, func(id *ast.Identifier) {
				if mangled, ok := rename[id.Name]; ok {
					id.Name = mangled
				}
			})
		}
	}
	if mangled, ok := rename[fn.Id.Name]; ok {
		fn.Id.Name = mangled
	}
	renameParams(fn.Params)
	for _, stmt := range fn.Body.Body {
		walk.RecursiveWalk(stmt, table)
	}

	fn.Id.Name = originalName

	info := sidecar.ExtraInfo{Globals: rename}
	suffix, err := sidecar.Format(info)
	if err != nil {
		return err
	}
	ctx.Suffix = suffix
	return nil
}

// MinifyLocals renames parameters and local var/let/const/function bindings
// within each top-level function, independently per function (so two
// functions can reuse the same mangled local names without colliding).
// It reads ctx.Extra.Globals but, unlike MinifyGlobals, never writes an
// EXTRA_INFO suffix -- locals are never externally visible, so there is
// nothing for a caller to need to know.
func MinifyLocals(ctx *Context) error {
	for _, stmt := range ctx.Program.Body {
		fn, ok := stmt.(*ast.FunctionDeclaration)
		if !ok {
			continue
		}
		minifyFunctionLocals(fn, ctx)
	}
	return nil
}

func minifyFunctionLocals(fn *ast.FunctionDeclaration, ctx *Context) {
	gen := NewNameGenerator()
	rename := map[string]string{}
	assign := func(name string) string {
		if existing, ok := rename[name]; ok {
			return existing
		}
		mangled := gen.Next()
		rename[name] = mangled
		return mangled
	}

	// Pre-scan: a global's already-minified form must never be handed out
	// to a local, or a reference to the global elsewhere in this function
	// would collide with an unrelated local binding of the same mangled
	// name.
	for _, mangled := range ctx.Extra.Globals {
		gen.Reserve(mangled)
	}

	for _, p := range fn.Params {
		walk.WalkPattern(p, func(ast.Node) {}, func(id *ast.Identifier) {
			id.Name = assign(id.Name)
		})
	}
	hoistLocalDecls(fn.Body.Body, assign)

	labelGen := NewNameGenerator()
	labelRename := map[string]string{}
	assignLabel := func(name string) string {
		if existing, ok := labelRename[name]; ok {
			return existing
		}
		mangled := labelGen.Next()
		labelRename[name] = mangled
		return mangled
	}

	var table walk.RecursiveTable
	table = walk.RecursiveTable{
		"Identifier": func(node ast.Node, recurse func(ast.Node)) {
			id := node.(*ast.Identifier)
			if mangled, ok := rename[id.Name]; ok {
				id.Name = mangled
			} else if mangled, ok := ctx.Extra.Globals[id.Name]; ok {
				id.Name = mangled
			}
		},
		"MemberExpression": func(node ast.Node, recurse func(ast.Node)) {
			me := node.(*ast.MemberExpression)
			walk.RecursiveWalk(me.Object, table)
			if me.Computed {
				walk.RecursiveWalk(me.Property, table)
			}
		},
		"Property": func(node ast.Node, recurse func(ast.Node)) {
			p := node.(*ast.Property)
			if p.Computed {
				walk.RecursiveWalk(p.Key, table)
			}
			walk.RecursiveWalk(p.Value, table)
		},
		"CallExpression": func(node ast.Node, recurse func(ast.Node)) {
			ce := node.(*ast.CallExpression)
			if id, ok := ce.Callee.(*ast.Identifier); ok {
				if _, isLocal := rename[id.Name]; isLocal {
					assertf("localNameAsCallee", "minifyLocals: local name %q used as a call callee", id.Name)
				}
			}
			recurse(ce.Callee)
			for _, a := range ce.Arguments {
				recurse(a)
			}
		},
		"LabeledStatement": func(node ast.Node, recurse func(ast.Node)) {
			ls := node.(*ast.LabeledStatement)
			ls.Label.Name = assignLabel(ls.Label.Name)
			recurse(ls.Body)
		},
		"BreakStatement": func(node ast.Node, recurse func(ast.Node)) {
			bs := node.(*ast.BreakStatement)
			if bs.Label != nil {
				if mangled, ok := labelRename[bs.Label.Name]; ok {
					bs.Label.Name = mangled
				}
			}
		},
		"ContinueStatement": func(node ast.Node, recurse func(ast.Node)) {
			cs := node.(*ast.ContinueStatement)
			if cs.Label != nil {
				if mangled, ok := labelRename[cs.Label.Name]; ok {
					cs.Label.Name = mangled
				}
			}
		},
		// Nested function/arrow bodies get no scope of their own: the
		// default recursion renames any identifier inside them whose name
		// is in this function's table (its parameters and hoisted locals)
		// and leaves every other name, the nested function's own locals
		// included, as it is.
	}
	for _, stmt := range fn.Body.Body {
		walk.RecursiveWalk(stmt, table)
	}

	if fn.Id != nil {
		if mangled, ok := ctx.Extra.Globals[fn.Id.Name]; ok {
			fn.Id.Name = mangled
		}
	}
}

// hoistLocalDecls mirrors JS's own hoisting: it walks only the statement
// shapes that introduce a var/function-scoped binding directly in this
// function's own frame (not into nested function/arrow bodies, which get
// their own frame), assigning every bound name a mangled local name before
// any use is rewritten.
func hoistLocalDecls(stmts []ast.Node, assign func(string) string) {
	for _, stmt := range stmts {
		hoistStmt(stmt, assign)
	}
}

func hoistStmt(stmt ast.Node, assign func(string) string) {
	switch s := stmt.(type) {
	case *ast.VariableDeclaration:
		for _, d := range s.Declarations {
			walk.WalkPattern(d.Id, func(ast.Node) {}, func(id *ast.Identifier) {
				id.Name = assign(id.Name)
			})
		}
	case *ast.FunctionDeclaration:
		if s.Id != nil {
			s.Id.Name = assign(s.Id.Name)
		}
	case *ast.BlockStatement:
		hoistLocalDecls(s.Body, assign)
	case *ast.IfStatement:
		hoistStmt(s.Consequent, assign)
		if s.Alternate != nil {
			hoistStmt(s.Alternate, assign)
		}
	case *ast.ForStatement:
		if s.Init != nil {
			hoistStmt(s.Init, assign)
		}
		hoistStmt(s.Body, assign)
	case *ast.ForInStatement:
		hoistStmt(s.Left, assign)
		hoistStmt(s.Body, assign)
	case *ast.ForOfStatement:
		hoistStmt(s.Left, assign)
		hoistStmt(s.Body, assign)
	case *ast.WhileStatement:
		hoistStmt(s.Body, assign)
	case *ast.DoWhileStatement:
		hoistStmt(s.Body, assign)
	case *ast.TryStatement:
		hoistLocalDecls(s.Block.Body, assign)
		if s.Handler != nil {
			hoistLocalDecls(s.Handler.Body.Body, assign)
		}
		if s.Finalizer != nil {
			hoistLocalDecls(s.Finalizer.Body, assign)
		}
	case *ast.LabeledStatement:
		hoistStmt(s.Body, assign)
	}
}
