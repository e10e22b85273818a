package passes

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/emglue/wasmglue/ast"
	"github.com/emglue/wasmglue/walk"
)

// graphEntry is the on-the-wire shape of one reachability-graph node,
// matching the external interface's JSON array exactly: sorted ascending
// by Name, each entry's Reaches sorted ascending too.
type graphEntry struct {
	Name    string   `json:"name"`
	Import  []string `json:"import,omitempty"`
	Export  string   `json:"export,omitempty"`
	Reaches []string `json:"reaches"`
	Root    bool     `json:"root,omitempty"`
}

type graphNode struct {
	name    string
	imp     []string // [module, field], nil if not an import
	export  string   // wasm export name, "" if not linked to one
	reaches map[string]bool
	root    bool
}

// graphBuilder accumulates the reachability graph across emitDCEGraph's two
// passes: construct recognition (imports table, export declarators, the
// minimal-runtime exports block, toplevel defuns) followed by a reach scan.
type graphBuilder struct {
	nodes map[string]*graphNode
	// jsNameToGraph maps any local JS binding this pass knows the meaning
	// of (an import alias, an export alias) to its graph node name.
	jsNameToGraph map[string]string
	// wasmExportToGraph maps the *wasm-side* export name (the string key
	// used in wasmExports['name'] and in the unusedExports list) to its
	// graph node name.
	wasmExportToGraph map[string]string
	dynCallGraphNames []string
}

func newGraphBuilder() *graphBuilder {
	return &graphBuilder{
		nodes:             map[string]*graphNode{},
		jsNameToGraph:     map[string]string{},
		wasmExportToGraph: map[string]string{},
	}
}

func (g *graphBuilder) get(name string) *graphNode {
	n, ok := g.nodes[name]
	if !ok {
		n = &graphNode{name: name, reaches: map[string]bool{}}
		g.nodes[name] = n
	}
	return n
}

func (g *graphBuilder) recordImport(jsName, nativeName string) {
	name := "emcc$import$" + nativeName
	n := g.get(name)
	n.imp = []string{"env", nativeName}
	g.jsNameToGraph[jsName] = name
}

func (g *graphBuilder) recordExport(jsName, wasmName string) string {
	name := "emcc$export$" + jsName
	n := g.get(name)
	if wasmName != "" {
		n.export = wasmName
		g.wasmExportToGraph[wasmName] = name
	}
	g.jsNameToGraph[jsName] = name
	if strings.HasPrefix(jsName, "dynCall_") {
		g.dynCallGraphNames = append(g.dynCallGraphNames, name)
	}
	return name
}

func (g *graphBuilder) recordDefun(name string) string {
	graphName := "emcc$defun$" + name
	g.get(graphName)
	return graphName
}

func (g *graphBuilder) entries() []graphEntry {
	names := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		names = append(names, n)
	}
	sort.Strings(names)
	entries := make([]graphEntry, 0, len(names))
	for _, n := range names {
		node := g.nodes[n]
		reaches := make([]string, 0, len(node.reaches))
		for r := range node.reaches {
			reaches = append(reaches, r)
		}
		sort.Strings(reaches)
		entries = append(entries, graphEntry{
			Name:    node.name,
			Import:  node.imp,
			Export:  node.export,
			Reaches: reaches,
			Root:    node.root,
		})
	}
	return entries
}

// ---- shape recognition, shared with ApplyDCEGraphRemovals ------------------

// wasmExportsRead recognizes `wasmExports['name']` / `wasmExports["name"]`.
func wasmExportsRead(n ast.Node) (wasmName string, ok bool) {
	me, isMember := n.(*ast.MemberExpression)
	if !isMember || !me.Computed {
		return "", false
	}
	obj, isIdent := me.Object.(*ast.Identifier)
	if !isIdent || obj.Name != "wasmExports" {
		return "", false
	}
	lit, isLit := me.Property.(*ast.Literal)
	if !isLit {
		return "", false
	}
	s, isString := lit.Value.(string)
	return s, isString
}

// moduleRead recognizes `Module['name']`.
func moduleRead(n ast.Node) (name string, ok bool) {
	me, isMember := n.(*ast.MemberExpression)
	if !isMember || !me.Computed {
		return "", false
	}
	obj, isIdent := me.Object.(*ast.Identifier)
	if !isIdent || obj.Name != "Module" {
		return "", false
	}
	lit, isLit := me.Property.(*ast.Literal)
	if !isLit {
		return "", false
	}
	s, isString := lit.Value.(string)
	return s, isString
}

// findWasmExportsRead searches a subtree for exactly one wasmExports['x']
// read, per the "var _x = Module['_x'] = <expr with one read>" shape.
func findWasmExportsRead(n ast.Node) (wasmName string, count int) {
	walk.FullWalk(n, func(node ast.Node) {
		if name, ok := wasmExportsRead(node); ok {
			wasmName = name
			count++
		}
	}, nil)
	return wasmName, count
}

// recognizeImportsTable matches `var wasmImports = {...}` or
// `wasmImports = {...}` and records each recognized entry.
func (g *graphBuilder) recognizeImportsTable(stmt ast.Node) bool {
	obj := importsTableObject(stmt)
	if obj == nil {
		return false
	}
	for _, p := range obj.Properties {
		prop, ok := p.(*ast.Property)
		if !ok {
			continue
		}
		nativeName, ok := propertyKeyName(prop.Key)
		if !ok {
			continue
		}
		switch v := prop.Value.(type) {
		case *ast.Identifier:
			g.recordImport(v.Name, nativeName)
		case *ast.LogicalExpression:
			if v.Operator == "||" {
				if id, ok := v.Left.(*ast.Identifier); ok {
					g.recordImport(id.Name, nativeName)
				}
			}
		}
		// Literal/function-expression values: not a named import; ignored.
	}
	return true
}

func importsTableObject(stmt ast.Node) *ast.ObjectExpression {
	switch s := stmt.(type) {
	case *ast.VariableDeclaration:
		if len(s.Declarations) != 1 {
			return nil
		}
		d := s.Declarations[0]
		id, ok := d.Id.(*ast.Identifier)
		if !ok || id.Name != "wasmImports" {
			return nil
		}
		obj, _ := d.Init.(*ast.ObjectExpression)
		return obj
	case *ast.ExpressionStatement:
		assign, ok := s.Expression.(*ast.AssignmentExpression)
		if !ok || assign.Operator != "=" {
			return nil
		}
		id, ok := assign.Left.(*ast.Identifier)
		if !ok || id.Name != "wasmImports" {
			return nil
		}
		obj, _ := assign.Right.(*ast.ObjectExpression)
		return obj
	}
	return nil
}

func propertyKeyName(key ast.Node) (string, bool) {
	switch k := key.(type) {
	case *ast.Identifier:
		return k.Name, true
	case *ast.Literal:
		if s, ok := k.Value.(string); ok {
			return s, true
		}
	}
	return "", false
}

// recognizeExportDeclarator matches the three single-export declarator
// shapes against a *ast.VariableDeclaration with exactly one declarator.
func (g *graphBuilder) recognizeExportDeclarator(stmt ast.Node) bool {
	decl, ok := stmt.(*ast.VariableDeclaration)
	if !ok || len(decl.Declarations) != 1 {
		return false
	}
	d := decl.Declarations[0]
	jsName, ok := propertyKeyName(d.Id)
	if !ok {
		return false
	}
	if _, isIdent := d.Id.(*ast.Identifier); !isIdent {
		return false
	}

	// Shape 1: var _x = wasmExports['x'];
	if wasmName, ok := wasmExportsRead(d.Init); ok {
		g.recordExport(jsName, wasmName)
		return true
	}

	assign, ok := d.Init.(*ast.AssignmentExpression)
	if !ok || assign.Operator != "=" {
		return false
	}
	modName, ok := moduleRead(assign.Left)
	if !ok || modName != jsName {
		return false
	}

	// Shape 3: var _x = Module['_x'] = <numeric literal>; (global address
	// export -- recorded with no wasm-name link.)
	if lit, ok := assign.Right.(*ast.Literal); ok {
		if _, isNum := lit.Value.(float64); isNum {
			g.recordExport(jsName, "")
			return true
		}
	}

	// Shape 2: var _x = Module['_x'] = <expr with exactly one
	// wasmExports['x'] read>;
	if wasmName, count := findWasmExportsRead(assign.Right); count == 1 {
		g.recordExport(jsName, wasmName)
		return true
	}
	return false
}

// recognizeAssignWasmExports matches the minimal-runtime exports block:
// function assignWasmExports(wasmExports) { name = wasmExports['w']; ... }
func (g *graphBuilder) recognizeAssignWasmExports(fn *ast.FunctionDeclaration) bool {
	if fn.Id == nil || fn.Id.Name != "assignWasmExports" || len(fn.Params) != 1 {
		return false
	}
	for _, stmt := range fn.Body.Body {
		es, ok := stmt.(*ast.ExpressionStatement)
		if !ok {
			continue
		}
		assign, ok := es.Expression.(*ast.AssignmentExpression)
		if !ok || assign.Operator != "=" {
			continue
		}
		id, ok := assign.Left.(*ast.Identifier)
		if !ok {
			continue
		}
		wasmName, ok := wasmExportsRead(assign.Right)
		if !ok {
			continue
		}
		g.recordExport(id.Name, wasmName)
	}
	return true
}

// ---- reach scanning ---------------------------------------------------

// scanReaches walks body looking for references to known graph nodes. frame
// is the enclosing defun's graph node, or nil when scanning residual
// top-level code -- per the spec, a reach found inside a defun extends that
// defun's own reaches set, while a reach found at top level marks its
// target as a root.
func (g *graphBuilder) scanReaches(body ast.Node, frame *graphNode, warn func(string, ...interface{})) {
	hit := func(graphName string) {
		if graphName == "" {
			return
		}
		n, ok := g.nodes[graphName]
		if !ok {
			warn("emitDCEGraph: reached name %q has no declaration", graphName)
			return
		}
		if frame != nil {
			frame.reaches[graphName] = true
		} else {
			n.root = true
		}
	}

	walk.FullWalk(body, func(node ast.Node) {
		switch n := node.(type) {
		case *ast.Identifier:
			if graphName, ok := g.jsNameToGraph[n.Name]; ok {
				hit(graphName)
			}
		case *ast.Literal:
			if s, ok := n.Value.(string); ok && s == "dynCall_" {
				for _, dc := range g.dynCallGraphNames {
					hit(dc)
				}
			}
		case *ast.MemberExpression:
			if name, ok := moduleRead(n); ok {
				if graphName, ok := g.wasmExportToGraph[name]; ok {
					hit(graphName)
				}
			}
			if wasmName, ok := wasmExportsRead(n); ok {
				// Stray wasmExports['x'] surviving pass one: root it.
				if graphName, ok := g.wasmExportToGraph[wasmName]; ok {
					g.nodes[graphName].root = true
				}
			}
		case *ast.CallExpression:
			callee, ok := n.Callee.(*ast.Identifier)
			if !ok || callee.Name != "dynCall" || len(n.Arguments) == 0 {
				return
			}
			if lit, ok := n.Arguments[0].(*ast.Literal); ok {
				if sig, ok := lit.Value.(string); ok {
					hit("emcc$export$dynCall_" + sig)
					return
				}
			}
			for _, dc := range g.dynCallGraphNames {
				hit(dc)
			}
		}
	}, nil)
}

// EmitDCEGraph mutates prog (emptying out every construct it recognizes)
// and writes the resulting reachability graph, as JSON, to ctx.Stdout.
func EmitDCEGraph(ctx *Context) error {
	g := newGraphBuilder()
	prog := ctx.Program

	type defun struct {
		name string
		body *ast.BlockStatement
	}
	var defuns []defun
	foundAssignWasmExports := false

	for _, stmt := range prog.Body {
		switch {
		case g.recognizeImportsTable(stmt):
			walk.EmptyOut(stmt)
		case g.recognizeExportDeclarator(stmt):
			walk.EmptyOut(stmt)
		default:
			if fn, ok := stmt.(*ast.FunctionDeclaration); ok {
				if !foundAssignWasmExports && g.recognizeAssignWasmExports(fn) {
					foundAssignWasmExports = true
					walk.EmptyOut(fn)
					continue
				}
				graphName := g.recordDefun(fn.Id.Name)
				defuns = append(defuns, defun{name: graphName, body: fn.Body})
				walk.EmptyOut(fn)
			}
		}
	}

	for _, extra := range ctx.Extra.Exports {
		if _, known := g.jsNameToGraph[extra]; !known {
			g.recordExport(extra, "")
		}
	}

	for _, d := range defuns {
		g.scanReaches(d.body, g.nodes[d.name], ctx.Warn)
	}
	for _, stmt := range prog.Body {
		g.scanReaches(stmt, nil, ctx.Warn)
	}

	enc := json.NewEncoder(ctx.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g.entries()); err != nil {
		return fmt.Errorf("emitDCEGraph: %w", err)
	}
	return nil
}

// ApplyDCEGraphRemovals drops wasmImports entries and export bindings named
// in ctx.Extra.UnusedImports/UnusedExports. It is independent of
// EmitDCEGraph: it re-recognizes the same constructs from scratch so it can
// run against an AST that never went through EmitDCEGraph in this process.
func ApplyDCEGraphRemovals(ctx *Context) error {
	unusedImports := map[string]bool{}
	for _, n := range ctx.Extra.UnusedImports {
		unusedImports[n] = true
	}
	unusedExports := map[string]bool{}
	for _, n := range ctx.Extra.UnusedExports {
		unusedExports[n] = true
	}
	matched := map[string]bool{}

	walk.FullWalk(ctx.Program, func(node ast.Node) {
		if obj := importsTableObject(node); obj != nil {
			var kept []ast.Node
			for _, p := range obj.Properties {
				prop, ok := p.(*ast.Property)
				if !ok {
					kept = append(kept, p)
					continue
				}
				nativeName, ok := propertyKeyName(prop.Key)
				if !ok || !unusedImports[nativeName] {
					kept = append(kept, p)
					continue
				}
				matched[nativeName] = true
				if walk.HasSideEffects(prop.Value) {
					kept = append(kept, p)
				}
			}
			obj.Properties = kept
			return
		}

		es, ok := node.(*ast.ExpressionStatement)
		if !ok {
			return
		}
		assign, ok := es.Expression.(*ast.AssignmentExpression)
		if !ok || assign.Operator != "=" {
			return
		}
		// `_x = wasmExports['x'];`
		if _, isIdent := assign.Left.(*ast.Identifier); isIdent {
			if wasmName, ok := wasmExportsRead(assign.Right); ok && unusedExports[wasmName] {
				matched[wasmName] = true
				walk.EmptyOut(es)
			}
			return
		}
		// `Module['_x'] = _x = wasmExports['x'];`
		if _, isModule := moduleRead(assign.Left); isModule {
			inner, ok := assign.Right.(*ast.AssignmentExpression)
			if !ok || inner.Operator != "=" {
				return
			}
			if wasmName, ok := wasmExportsRead(inner.Right); ok && unusedExports[wasmName] {
				matched[wasmName] = true
				walk.EmptyOut(es)
			}
		}
	}, nil)

	for n := range unusedImports {
		if !matched[n] {
			assertf("unusedImports", "applyDCEGraphRemovals: unusedImports entry %q was never matched in the AST", n)
		}
	}
	for n := range unusedExports {
		if !matched[n] {
			assertf("unusedExports", "applyDCEGraphRemovals: unusedExports entry %q was never matched in the AST", n)
		}
	}
	return nil
}
