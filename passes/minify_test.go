package passes

import (
	"strings"
	"testing"

	"github.com/emglue/wasmglue/jsparse"
	"github.com/emglue/wasmglue/printer"
	"github.com/emglue/wasmglue/sidecar"
)

// runMinifyPass is runPassNamed's shape extended with an explicit
// sidecar.ExtraInfo, since MinifyGlobals/MinifyLocals are the only passes
// that read ctx.Extra.Globals.
func runMinifyPass(t *testing.T, src, name string, extra sidecar.ExtraInfo) string {
	t.Helper()
	prog, _, err := jsparse.Parse("t.js", src, false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ctx := NewContext(prog, extra)
	pass := Registry[name]
	if pass == nil {
		t.Fatalf("no such pass: %s", name)
	}
	if err := pass(ctx); err != nil {
		t.Fatalf("pass %s: %v", name, err)
	}
	out, err := printer.Print(ctx.Program, printer.Options{Minify: true})
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	return out
}

func TestMinifyGlobalsRenamesBodyButRestoresWrapperId(t *testing.T) {
	src := `function instantiate(a, b) { var foo = a + b; function bar() { return foo; } return bar(); }`
	out := runMinifyPass(t, src, "minifyGlobals", sidecar.ExtraInfo{})
	if !strings.Contains(out, "function instantiate(") {
		t.Errorf("expected the wrapper's own name to be restored after minification, got: %s", out)
	}
	if strings.Contains(out, "foo") || strings.Contains(out, "bar") {
		t.Errorf("expected local/global names foo and bar to be renamed, got: %s", out)
	}
}

func TestMinifyGlobalsReusesExtraInfoGlobalsMapping(t *testing.T) {
	src := `function instantiate(a, b) { var foo = a + b; return foo; }`
	out := runMinifyPass(t, src, "minifyGlobals", sidecar.ExtraInfo{Globals: map[string]string{"foo": "q"}})
	if !strings.Contains(out, "q") {
		t.Errorf("expected foo to be renamed to its pre-assigned form q, got: %s", out)
	}
	if strings.Contains(out, "foo") {
		t.Errorf("expected foo's original spelling to be gone, got: %s", out)
	}
}

func TestMinifyGlobalsRequiresSingleInstantiateWrapper(t *testing.T) {
	src := `function instantiate() { return 1; } function other() { return 2; }`
	prog, _, err := jsparse.Parse("t.js", src, false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ctx := NewContext(prog, sidecar.ExtraInfo{})
	err = RunPipeline(ctx, []string{"minifyGlobals"})
	if err == nil {
		t.Fatalf("expected minifyGlobals to reject a program with more than one top-level statement")
	}
	ae, ok := err.(*AssertionError)
	if !ok || ae.Rule != "minifyGlobalsShape" {
		t.Errorf("expected a minifyGlobalsShape assertion error, got: %v", err)
	}
}

func TestMinifyGlobalsIgnoresNonComputedPropertyNames(t *testing.T) {
	src := `function instantiate(a) { var foo = a; return foo.foo; }`
	out := runMinifyPass(t, src, "minifyGlobals", sidecar.ExtraInfo{})
	// foo.foo: the object foo is a declared local and must be renamed, but
	// the non-computed property foo must survive untouched.
	if !strings.Contains(out, ".foo") {
		t.Errorf("expected the non-computed property name to survive unrenamed, got: %s", out)
	}
}

func TestMinifyLocalsRenamesIndependentlyPerFunction(t *testing.T) {
	src := `function one(x) { return x + 1; } function two(x) { return x + 2; }`
	out := runMinifyPass(t, src, "minifyLocals", sidecar.ExtraInfo{})
	// Both functions' sole parameter is eligible for the same first minified
	// name, since each function gets its own independent NameGenerator.
	if !contains(out, "function one(a)", "function two(a)") {
		t.Errorf("expected both functions to independently reuse the same first local name, got: %s", out)
	}
}

func TestMinifyLocalsReservesExtraInfoGlobals(t *testing.T) {
	// The NameGenerator's first name is "a"; since the global g's already-
	// minified form is "a", the local parameter must be handed "b" instead
	// of colliding with it, and the free reference to g must resolve to a
	// via ctx.Extra.Globals.
	src := `function f(x) { return x + g; }`
	out := runMinifyPass(t, src, "minifyLocals", sidecar.ExtraInfo{Globals: map[string]string{"g": "a"}})
	if !strings.Contains(out, "function f(b)") {
		t.Errorf("expected the local param to skip the reserved global name a, got: %s", out)
	}
	if !strings.Contains(out, "b + a") {
		t.Errorf("expected the free reference to global g to be rewritten to its mangled form a, got: %s", out)
	}
}

func TestMinifyLocalsRejectsLocalNameUsedAsCallee(t *testing.T) {
	src := `function f(x) { return x(); }`
	prog, _, err := jsparse.Parse("t.js", src, false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ctx := NewContext(prog, sidecar.ExtraInfo{})
	err = RunPipeline(ctx, []string{"minifyLocals"})
	if err == nil {
		t.Fatalf("expected minifyLocals to reject a local name used as a call callee")
	}
	ae, ok := err.(*AssertionError)
	if !ok || ae.Rule != "localNameAsCallee" {
		t.Errorf("expected a localNameAsCallee assertion error, got: %v", err)
	}
}

func TestMinifyLocalsUsesIndependentLabelNamespace(t *testing.T) {
	// The label "a" and the variable "a" must not collide: labels get their
	// own NameGenerator, entirely separate from the local-binding one.
	src := `function f() { var a = 1; outer: for (;;) { break outer; } return a; }`
	out := runMinifyPass(t, src, "minifyLocals", sidecar.ExtraInfo{})
	if !contains(out, "a:", "break a") {
		t.Errorf("expected the label to be minified to its own first name a, independent of the local a, got: %s", out)
	}
}

func TestMinifyLocalsRenamesOwnFunctionIdViaExtraInfoGlobals(t *testing.T) {
	src := `function f() { return 1; }`
	out := runMinifyPass(t, src, "minifyLocals", sidecar.ExtraInfo{Globals: map[string]string{"f": "q"}})
	if !strings.Contains(out, "function q(") {
		t.Errorf("expected the function's own id to be renamed via ctx.Extra.Globals, got: %s", out)
	}
}
