package passes

import (
	"strings"
	"testing"

	"github.com/emglue/wasmglue/jsparse"
	"github.com/emglue/wasmglue/printer"
	"github.com/emglue/wasmglue/sidecar"
)

// runPassNamed parses src, runs the named registry pass, and returns the
// re-printed result, in the same parse-then-check shape
// parsepasses/datarefcheck_test.go uses (parse source, run the checker,
// assert the outcome) but comparing printed output instead of a
// success/failure bool, since these passes mutate tree shape rather than
// just reporting.
func runPassNamed(t *testing.T, src, name string) string {
	t.Helper()
	prog, _, err := jsparse.Parse("t.js", src, false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ctx := NewContext(prog, sidecar.ExtraInfo{})
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

func contains(haystack string, needles ...string) bool {
	for _, n := range needles {
		if !strings.Contains(haystack, n) {
			return false
		}
	}
	return true
}

func TestJSDCERemovesUnreferencedTopLevelFunction(t *testing.T) {
	src := `function used() { return 1; } function unused() { return 2; } used();`
	out := runPassNamed(t, src, "JSDCE")
	if strings.Contains(out, "unused") {
		t.Errorf("expected unused() to be erased, got: %s", out)
	}
	if !strings.Contains(out, "used") {
		t.Errorf("expected used() to survive, got: %s", out)
	}
}

func TestJSDCEKeepsTransitivelyReferencedDeclarations(t *testing.T) {
	src := `function a() { return b(); } function b() { return 1; } a();`
	out := runPassNamed(t, src, "JSDCE")
	if !contains(out, "a(", "b(") {
		t.Errorf("expected both a and b to survive, got: %s", out)
	}
}

func TestJSDCEKeepsCalledFunctionRegardlessOfParamNames(t *testing.T) {
	src := `function helper(unused) { return 1; } helper();`
	out := runPassNamed(t, src, "JSDCE")
	if !strings.Contains(out, "helper") {
		t.Errorf("expected helper() to survive (it is called), got: %s", out)
	}
}

func TestAJSDCEFixedPointRemovesChains(t *testing.T) {
	// c is only referenced by b, b only by a; a is itself never called, so
	// a fixed-point run should erase all three, unlike a single JSDCE pass
	// which only erases the outermost layer per iteration.
	src := `function a() { return b(); } function b() { return c(); } function c() { return 1; }`
	out := runPassNamed(t, src, "AJSDCE")
	if strings.TrimSpace(out) != "" {
		t.Errorf("expected AJSDCE to erase the entire dead chain, got: %s", out)
	}
}
