package walk

import (
	"strings"
	"testing"

	"github.com/emglue/wasmglue/ast"
	"github.com/emglue/wasmglue/jsparse"
	"github.com/emglue/wasmglue/printer"
)

// identifierNames is the totality check: it visits every node reachable
// from prog via FullWalk/VisitChildren and collects the name of every
// Identifier found. A missing field-routing case in a Children()
// implementation would silently skip a subtree instead of panicking, so
// this is compared against an explicit expected set rather than just
// asserting "no panic".
func identifierNames(t *testing.T, src string) map[string]bool {
	t.Helper()
	prog, _, err := jsparse.Parse("t.js", src, false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	names := map[string]bool{}
	FullWalk(prog, func(node ast.Node) {
		if id, ok := node.(*ast.Identifier); ok {
			names[id.Name] = true
		}
	}, nil)
	return names
}

func TestFullWalkReachesEveryNodeShape(t *testing.T) {
	// One distinctly-named identifier for every construct RewriteChildren/
	// Children() route through: declarations, every control-flow statement
	// shape, nested expressions, and a try/catch/finally.
	src := `
function outer(p1, p2) {
	var v1 = p1 + p2;
	if (v1) { return v1; } else { return p2; }
	for (var i1 = 0; i1 < v1; i1++) { i1; }
	for (k1 in v1) { break; }
	for (x1 of v1) { continue; }
	while (w1) { w1--; }
	do { d1; } while (d1);
	try { t1(); } catch (c1) { c1; } finally { f1; }
	outer1: for (;;) { break outer1; }
	var o1 = { k1: p1 };
	var seq1 = (s1, s2);
	var cond1 = p1 ? p2 : v1;
	new Int32Array(a1);
	o1.k1;
	o1[m1];
}
`
	got := identifierNames(t, src)
	// outer's own name and the object literal/non-computed member property
	// k1 spelling are deliberately absent: FunctionDeclaration.Children()
	// excludes Id (see ast/node.go), and a
	// non-computed Property's Key is only visited when Computed, so neither
	// reaches a generic Children()-driven walk. k1 is still confirmed via
	// its for-in binding use, a bare Identifier child in its own right.
	want := []string{
		"p1", "p2", "v1", "i1", "k1", "x1", "w1", "d1", "c1", "t1",
		"f1", "outer1", "o1", "s1", "s2", "seq1", "cond1", "Int32Array", "a1", "m1",
	}
	for _, name := range want {
		if !got[name] {
			t.Errorf("expected FullWalk to reach identifier %q, it was never visited", name)
		}
	}
}

func TestRewriteChildrenReachesNestedExpressionPositions(t *testing.T) {
	// Rewriting every Identifier named "needle" to "found", regardless of
	// how deeply it's nested inside binary/call/member/array/object/
	// sequence/conditional expressions, exercises RewriteChildren's full
	// field-routing switch in one pass.
	src := `function f() {
	var x = needle + (a ? needle : b);
	call(needle, [needle, {k: needle}]);
	obj[needle];
	(needle, c);
}`
	prog, _, err := jsparse.Parse("t.js", src, false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var rewrite func(ast.Node) ast.Node
	rewrite = func(node ast.Node) ast.Node {
		if id, ok := node.(*ast.Identifier); ok && id.Name == "needle" {
			return ast.NewIdentifier(id.Position(), "found")
		}
		RewriteChildren(node, rewrite)
		return node
	}
	for i, stmt := range prog.Body {
		prog.Body[i] = rewrite(stmt)
	}
	out, err := printer.Print(prog, printer.Options{Minify: true})
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	if strings.Contains(out, "needle") {
		t.Errorf("expected every nested occurrence of needle to be rewritten, got: %s", out)
	}
	if strings.Count(out, "found") != 7 {
		t.Errorf("expected exactly 7 occurrences of found (one per needle site), got %d in: %s", strings.Count(out, "found"), out)
	}
}

func TestEmptyOutIsIdempotent(t *testing.T) {
	src := `var x = 1;`
	prog, _, err := jsparse.Parse("t.js", src, false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	stmt := prog.Body[0]
	EmptyOut(stmt)
	if stmt.Type() != ast.EmptyStatementType {
		t.Fatalf("expected EmptyOut to mark the node empty, got type %q", stmt.Type())
	}
	EmptyOut(stmt)
	if stmt.Type() != ast.EmptyStatementType {
		t.Errorf("expected a second EmptyOut to leave the node exactly as the first left it, got type %q", stmt.Type())
	}

	out, err := printer.Print(prog, printer.Options{Minify: true})
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	if strings.TrimSpace(out) != "" {
		t.Errorf("expected an emptied-out statement to print as nothing, got: %q", out)
	}
}

func TestHasSideEffectsSafelist(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{`1;`, false},
		{`x;`, false},
		{`Math.abs;`, false},
		{`x + 1;`, false},
		{`f();`, true},
		{`x++;`, false},
		{`new Int32Array(buffer);`, false},
		{`new Foo();`, true},
		{`[1, f()];`, true},
		{`({a: f()});`, true},
	}
	for _, tc := range tests {
		prog, _, err := jsparse.Parse("t.js", tc.src, false)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.src, err)
		}
		es := prog.Body[0].(*ast.ExpressionStatement)
		if got := HasSideEffects(es.Expression); got != tc.want {
			t.Errorf("HasSideEffects(%q) = %v, want %v", tc.src, got, tc.want)
		}
	}
}

func TestWalkPatternRoutesDestructuredBindingsAndDefaults(t *testing.T) {
	src := `function f({a, b: [c, d = e], ...rest}) {}`
	prog, _, err := jsparse.Parse("t.js", src, false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fn := prog.Body[0].(*ast.FunctionDeclaration)

	var bound []string
	var exprs []string
	WalkPattern(fn.Params[0], func(n ast.Node) {
		if id, ok := n.(*ast.Identifier); ok {
			exprs = append(exprs, id.Name)
		}
	}, func(id *ast.Identifier) {
		bound = append(bound, id.Name)
	})

	wantBound := map[string]bool{"a": true, "c": true, "d": true, "rest": true}
	for _, b := range bound {
		if !wantBound[b] {
			t.Errorf("unexpected bound identifier %q", b)
		}
		delete(wantBound, b)
	}
	if len(wantBound) != 0 {
		t.Errorf("expected every destructured name to be reported as bound, missing: %v", wantBound)
	}
	if len(exprs) != 1 || exprs[0] != "e" {
		t.Errorf("expected only the default value e to be routed to onExpr, got: %v", exprs)
	}
}
