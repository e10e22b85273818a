package passes

import (
	"fmt"
	"strings"

	"github.com/emglue/wasmglue/ast"
	"github.com/emglue/wasmglue/walk"
)

// heapWidth describes one HEAP* alias's element width and the type tag used
// to build LE_HEAP_*/ASAN helper names. Byte-wide views (HEAP8/HEAPU8) are
// absent: a single byte has no endianness, so littleEndianHeap leaves them
// untouched (the other passes' name tables, allHeapNames and
// unsignHeapNames, include them).
type heapWidth struct {
	tag  string // "I" (signed), "U" (unsigned), "F" (float)
	bits int
}

var heapAliases = map[string]heapWidth{
	"HEAP16":  {"I", 16},
	"HEAPU16": {"U", 16},
	"HEAP32":  {"I", 32},
	"HEAPU32": {"U", 32},
	"HEAP64":  {"I", 64},
	"HEAPU64": {"U", 64},
	"HEAPF32": {"F", 32},
	"HEAPF64": {"F", 64},
}

func heapAccess(me *ast.MemberExpression) (alias string, width heapWidth, ok bool) {
	if !me.Computed {
		return "", heapWidth{}, false
	}
	id, ok2 := me.Object.(*ast.Identifier)
	if !ok2 {
		return "", heapWidth{}, false
	}
	w, known := heapAliases[id.Name]
	if !known {
		return "", heapWidth{}, false
	}
	return id.Name, w, true
}

func numberLiteral(pos ast.Pos, n int) *ast.Literal {
	return &ast.Literal{NodeHeader: ast.NodeHeader{Typ: "Literal", Pos: pos}, Value: float64(n)}
}

// scaleIndex turns an element index into a byte offset (idx*bytes), folding
// the multiplication away when idx is already a numeric literal so the
// output doesn't accumulate `* 4 * 4` noise across repeated passes.
func scaleIndex(pos ast.Pos, idx ast.Node, bytes int) ast.Node {
	if lit, ok := idx.(*ast.Literal); ok {
		if f, ok := lit.Value.(float64); ok {
			return numberLiteral(pos, int(f)*bytes)
		}
	}
	return &ast.BinaryExpression{
		NodeHeader: ast.NodeHeader{Typ: "BinaryExpression", Pos: pos},
		Operator:   "*",
		Left:       idx,
		Right:      numberLiteral(pos, bytes),
	}
}

// allHeapNames is the full typed-array alias set heap passes other than
// littleEndianHeap classify against -- it includes the byte-wide views
// (HEAP8/HEAPU8) that heapAliases omits, since growability, ASan
// instrumentation and SafeHeap bounds-checking apply regardless of width.
var allHeapNames = map[string]bool{
	"HEAP8": true, "HEAPU8": true,
	"HEAP16": true, "HEAPU16": true,
	"HEAP32": true, "HEAPU32": true,
	"HEAP64": true, "HEAPU64": true,
	"HEAPF32": true, "HEAPF64": true,
}

// heapAliasAccess is heapAccess without the width lookup, for the passes
// (asanify, safeHeap) whose generated calls don't need to know an access's
// byte width.
func heapAliasAccess(me *ast.MemberExpression) (obj *ast.Identifier, ok bool) {
	if !me.Computed {
		return nil, false
	}
	id, isIdent := me.Object.(*ast.Identifier)
	if !isIdent || !allHeapNames[id.Name] {
		return nil, false
	}
	return id, true
}

// helperNamePrefixes lists the name prefixes a heap pass must never descend
// into: the very helper functions it generates calls to, already present in
// hand-written runtime glue further down the same file. Recursing into one
// would rewrite its own HEAP32[...] body into a call to itself.
var helperNamePrefixes = []string{"LE_HEAP_", "LE_ATOMICS_", "SAFE_HEAP_"}

func isHelperName(name string) bool {
	for _, p := range helperNamePrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func skipHelperBody(id *ast.Identifier) bool {
	return id != nil && isHelperName(id.Name)
}

// littleEndianHeap rewrites every HEAP*[idx] access (wider than one byte)
// into an LE_HEAP_LOAD_*/LE_HEAP_STORE_* call, and every Atomics.op(...) call
// into the LE_ATOMICS_* equivalent, so the generated code no longer assumes
// the host is little-endian. Grounded on the same recursive-table-with-
// per-type-handlers shape as JSDCE's collection walk, generalized here to
// rewrite nodes in place via walk.RewriteChildren instead of only reading.
func LittleEndianHeap(ctx *Context) error {
	rewriteHeapFamily(ctx.Program, rewriteLittleEndian)
	return nil
}

func rewriteLittleEndian(node ast.Node) ast.Node {
	if node == nil || node.Type() == ast.EmptyStatementType {
		return node
	}
	switch n := node.(type) {
	case *ast.FunctionDeclaration:
		if skipHelperBody(n.Id) {
			return node
		}
	case *ast.VariableDeclarator:
		if id, ok := n.Id.(*ast.Identifier); ok && skipHelperBody(id) {
			return node
		}
	case *ast.AssignmentExpression:
		if n.Operator == "=" {
			if me, ok := n.Left.(*ast.MemberExpression); ok {
				if alias, w, ok := heapAccess(me); ok {
					_ = alias
					idx := rewriteLittleEndian(me.Property)
					val := rewriteLittleEndian(n.Right)
					name := fmt.Sprintf("LE_HEAP_STORE_%s%d", w.tag, w.bits)
					call := walk.MakeCallExpression(n.Position(), name, []ast.Node{
						scaleIndex(n.Position(), idx, w.bits/8), val,
					})
					return call
				}
			}
		}
	case *ast.CallExpression:
		if sig, args, ok := atomicsCall(n); ok {
			newArgs := make([]ast.Node, len(args))
			for i, a := range args {
				newArgs[i] = rewriteLittleEndian(a)
			}
			return walk.MakeCallExpression(n.Position(), "LE_ATOMICS_"+strings.ToUpper(sig), newArgs)
		}
	case *ast.MemberExpression:
		if alias, w, ok := heapAccess(n); ok {
			_ = alias
			idx := rewriteLittleEndian(n.Property)
			name := fmt.Sprintf("LE_HEAP_LOAD_%s%d", w.tag, w.bits)
			return walk.MakeCallExpression(n.Position(), name, []ast.Node{
				scaleIndex(n.Position(), idx, w.bits/8),
			})
		}
	}
	walk.RewriteChildren(node, rewriteLittleEndian)
	return node
}

// atomicsCall recognizes Atomics.op(target, ...rest) and returns the
// lowercased op name plus the full argument list (target included).
func atomicsCall(ce *ast.CallExpression) (op string, args []ast.Node, ok bool) {
	me, isMember := ce.Callee.(*ast.MemberExpression)
	if !isMember || me.Computed {
		return "", nil, false
	}
	obj, isIdent := me.Object.(*ast.Identifier)
	if !isIdent || obj.Name != "Atomics" {
		return "", nil, false
	}
	prop, isIdent := me.Property.(*ast.Identifier)
	if !isIdent {
		return "", nil, false
	}
	return prop.Name, ce.Arguments, true
}

// growableHeapHelperNames are the two functions growableHeap must never
// rewrite the body of: growMemViews is the very call it inserts everywhere
// else, and LE_HEAP_UPDATE re-seeds the typed-array views it reads from --
// both need to see the real HEAP* bindings, not a wrapped sequence.
var growableHeapHelperNames = map[string]bool{
	"growMemViews":   true,
	"LE_HEAP_UPDATE": true,
}

func isGrowableHelperName(id *ast.Identifier) bool {
	return id != nil && growableHeapHelperNames[id.Name]
}

// growMemViewsSequence wraps a bare HEAP alias reference in `(growMemViews(),
// id)`, so evaluating the reference always re-fetches the current view
// first -- the comma operator discards growMemViews()'s return and yields
// id's value unchanged.
func growMemViewsSequence(id *ast.Identifier) ast.Node {
	pos := id.Position()
	return &ast.SequenceExpression{
		NodeHeader:  ast.NodeHeader{Typ: "SequenceExpression", Pos: pos},
		Expressions: []ast.Node{walk.MakeCallExpression(pos, "growMemViews", nil), id},
	}
}

// growableHeap rewrites every bare reference to a HEAP* alias into
// `(growMemViews(), HEAPxx)`, so each access re-fetches the current view
// instead of closing over one that a later memory.grow would invalidate.
// Member-expression reads (`HEAP32[idx]`) get the same treatment for free:
// walk.RewriteChildren routes a MemberExpression's Object field through
// this same function, so `HEAP32` as an access's object is wrapped exactly
// like any other bare occurrence.
func GrowableHeap(ctx *Context) error {
	rewriteHeapFamily(ctx.Program, rewriteGrowable)
	return nil
}

func rewriteGrowable(node ast.Node) ast.Node {
	if node == nil || node.Type() == ast.EmptyStatementType {
		return node
	}
	switch n := node.(type) {
	case *ast.ExportNamedDeclaration, *ast.ExportDefaultDeclaration:
		return node
	case *ast.FunctionDeclaration:
		if skipHelperBody(n.Id) || isGrowableHelperName(n.Id) {
			return node
		}
	case *ast.VariableDeclarator:
		if id, ok := n.Id.(*ast.Identifier); ok && (skipHelperBody(id) || isGrowableHelperName(id)) {
			return node
		}
	case *ast.AssignmentExpression:
		// A direct HEAP alias reassignment (`HEAP32 = new Int32Array(...)`)
		// is the growable-accessor's own implementation; never rewrite the
		// identifier being assigned to into a growMemViews() sequence.
		if id, ok := n.Left.(*ast.Identifier); ok {
			if allHeapNames[id.Name] {
				n.Right = rewriteGrowable(n.Right)
				return node
			}
		}
	case *ast.Identifier:
		if allHeapNames[n.Name] {
			return growMemViewsSequence(n)
		}
	}
	walk.RewriteChildren(node, rewriteGrowable)
	return node
}

// unsignHeapNames is allHeapNames extended with the two literal names the
// pointer-unsigning pass additionally recognizes as heap-like objects, per
// the rewrite's own spec.
var unsignHeapNames = map[string]bool{
	"HEAP8": true, "HEAPU8": true,
	"HEAP16": true, "HEAPU16": true,
	"HEAP32": true, "HEAPU32": true,
	"HEAP64": true, "HEAPU64": true,
	"HEAPF32": true, "HEAPF64": true,
	"heap": true, "HEAP": true,
}

// unsign rewrites p so it evaluates as an unsigned 32-bit value: flipping
// an existing `>>` to `>>>` in place, or wrapping anything else in `p >>>
// 0`. Only a `>>` operator is rewritten in place; anything else, an
// existing `>>>` included, is wrapped, so calling unsign twice wraps a
// second time (`(p >>> 0) >>> 0`) rather than being a no-op, and each
// repeated run of the pass adds another wrap.
func unsign(p ast.Node) ast.Node {
	if be, ok := p.(*ast.BinaryExpression); ok && be.Operator == ">>" {
		be.Operator = ">>>"
		return be
	}
	return &ast.BinaryExpression{
		NodeHeader: ast.NodeHeader{Typ: "BinaryExpression", Pos: p.Position()},
		Operator:   ">>>",
		Left:       p,
		Right:      numberLiteral(p.Position(), 0),
	}
}

// unsignPointers rewrites the index of every `HEAP*[p]` access via unsign,
// matching the toolchain's MEMORY64=0/wasm-pointers-are-unsigned
// convention, and does the same to the pointer-valued arguments of
// `.set`/`.subarray`/`.copyWithin` calls on a heap view.
func UnsignPointers(ctx *Context) error {
	rewriteHeapFamily(ctx.Program, rewriteUnsignPointers)
	return nil
}

// pointerArgIndexes maps a heap typed-array method name to the argument
// positions of that call which hold pointers into the heap.
var pointerArgIndexes = map[string][]int{
	"set":        {1},
	"subarray":   {0, 1},
	"copyWithin": {0, 1, 2},
}

func rewriteUnsignPointers(node ast.Node) ast.Node {
	if node == nil || node.Type() == ast.EmptyStatementType {
		return node
	}
	switch n := node.(type) {
	case *ast.MemberExpression:
		if n.Computed {
			if id, ok := n.Object.(*ast.Identifier); ok && unsignHeapNames[id.Name] {
				n.Property = unsign(rewriteUnsignPointers(n.Property))
				return node
			}
		}
	case *ast.CallExpression:
		if me, ok := n.Callee.(*ast.MemberExpression); ok && !me.Computed {
			if id, ok := me.Object.(*ast.Identifier); ok && unsignHeapNames[id.Name] {
				if prop, ok := me.Property.(*ast.Identifier); ok {
					if idxs, known := pointerArgIndexes[prop.Name]; known {
						pointer := map[int]bool{}
						for _, i := range idxs {
							pointer[i] = true
						}
						for i, a := range n.Arguments {
							if a == nil {
								continue
							}
							rewritten := rewriteUnsignPointers(a)
							if pointer[i] {
								rewritten = unsign(rewritten)
							}
							n.Arguments[i] = rewritten
						}
						return node
					}
				}
			}
		}
	}
	walk.RewriteChildren(node, rewriteUnsignPointers)
	return node
}

// isAsanHelperName reports whether id names one of asanify's own generated
// callees (the _asan_js_ family) or the stack-setup routine that must run
// before any instrumented access can be validated -- recursing into either
// would make the instrumentation call itself.
func isAsanHelperName(id *ast.Identifier) bool {
	return id != nil && (strings.HasPrefix(id.Name, "_asan_js_") || id.Name == "establishStackSpace")
}

// asanify rewrites every HEAP*[idx] access into a call through the
// _asan_js_store/_asan_js_load family, passing the heap alias itself as the
// object argument so the runtime check can validate the access against the
// right view, and giving AddressSanitizer-instrumented builds a single
// choke point to validate every memory access through.
func Asanify(ctx *Context) error {
	rewriteHeapFamily(ctx.Program, rewriteAsanify)
	return nil
}

func rewriteAsanify(node ast.Node) ast.Node {
	if node == nil || node.Type() == ast.EmptyStatementType {
		return node
	}
	switch n := node.(type) {
	case *ast.FunctionDeclaration:
		if isAsanHelperName(n.Id) {
			return node
		}
	case *ast.VariableDeclarator:
		if id, ok := n.Id.(*ast.Identifier); ok && isAsanHelperName(id) {
			return node
		}
	case *ast.AssignmentExpression:
		if n.Operator == "=" {
			if me, ok := n.Left.(*ast.MemberExpression); ok {
				if obj, ok := heapAliasAccess(me); ok {
					idx := rewriteAsanify(me.Property)
					val := rewriteAsanify(n.Right)
					return walk.MakeCallExpression(n.Position(), "_asan_js_store", []ast.Node{obj, idx, val})
				}
			}
		}
	case *ast.MemberExpression:
		if obj, ok := heapAliasAccess(n); ok {
			idx := rewriteAsanify(n.Property)
			return walk.MakeCallExpression(n.Position(), "_asan_js_load", []ast.Node{obj, idx})
		}
	}
	walk.RewriteChildren(node, rewriteAsanify)
	return node
}

// safeHeap rewrites every HEAP*[idx] access into a call through the
// SAFE_HEAP_LOAD/SAFE_HEAP_STORE family, which bounds-checks and alignment-
// checks the address before touching memory -- the same object/property[/
// value] call shape as asanify, differing only in callee name.
func SafeHeap(ctx *Context) error {
	rewriteHeapFamily(ctx.Program, rewriteSafeHeap)
	return nil
}

func rewriteSafeHeap(node ast.Node) ast.Node {
	if node == nil || node.Type() == ast.EmptyStatementType {
		return node
	}
	switch n := node.(type) {
	case *ast.FunctionDeclaration:
		if skipHelperBody(n.Id) {
			return node
		}
	case *ast.VariableDeclarator:
		if id, ok := n.Id.(*ast.Identifier); ok && skipHelperBody(id) {
			return node
		}
	case *ast.AssignmentExpression:
		if n.Operator == "=" {
			if me, ok := n.Left.(*ast.MemberExpression); ok {
				if obj, ok := heapAliasAccess(me); ok {
					idx := rewriteSafeHeap(me.Property)
					val := rewriteSafeHeap(n.Right)
					return walk.MakeCallExpression(n.Position(), "SAFE_HEAP_STORE", []ast.Node{obj, idx, val})
				}
			}
		}
	case *ast.MemberExpression:
		if obj, ok := heapAliasAccess(n); ok {
			idx := rewriteSafeHeap(n.Property)
			return walk.MakeCallExpression(n.Position(), "SAFE_HEAP_LOAD", []ast.Node{obj, idx})
		}
	}
	walk.RewriteChildren(node, rewriteSafeHeap)
	return node
}

// rewriteHeapFamily applies fn to every top-level statement in prog.Body,
// writing the (possibly replaced) result back in place.
func rewriteHeapFamily(prog *ast.Program, fn func(ast.Node) ast.Node) {
	for i, stmt := range prog.Body {
		prog.Body[i] = fn(stmt)
	}
}
