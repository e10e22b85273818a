package printer

import (
	"strings"
	"testing"

	"github.com/andreyvit/diff"
	"github.com/robertkrimen/otto"

	"github.com/emglue/wasmglue/jsparse"
)

// evalLog runs src in otto with a log() builtin and returns every logged
// value, comma-joined. TestPrintRoundTripsBehavior compares that output for
// the source and for its re-printed form and shows a line diff when they
// differ -- the same "run both through a real interpreter and diff" shape
// soyjs/exec_test.go uses to validate generated JS, adapted here to
// validate re-serialized JS instead.
func evalLog(t *testing.T, src string) string {
	t.Helper()
	vm := otto.New()
	var out []string
	if err := vm.Set("log", func(call otto.FunctionCall) otto.Value {
		out = append(out, call.Argument(0).String())
		return otto.Value{}
	}); err != nil {
		t.Fatalf("vm.Set: %v", err)
	}
	if _, err := vm.Run(src); err != nil {
		t.Fatalf("otto.Run: %v\nsource:\n%s", err, src)
	}
	return strings.Join(out, ",")
}

func TestPrintRoundTripsBehavior(t *testing.T) {
	tests := []string{
		`var x = 1; var y = 2; log(x + y);`,
		`function add(a, b) { return a + b; } log(add(3, 4));`,
		`var obj = { a: 1, b: [1, 2, 3] }; log(obj.a + obj.b[2]);`,
		`for (var i = 0, sum = 0; i < 5; i++) { sum += i; } log(sum);`,
		`var f = function named(n) { return n <= 1 ? 1 : n * named(n - 1); }; log(f(5));`,
		`try { throw "boom"; } catch (e) { log(e); }`,
	}

	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			prog, _, err := jsparse.Parse("t.js", src, false)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			printed, err := Print(prog, Options{})
			if err != nil {
				t.Fatalf("print: %v", err)
			}

			want := evalLog(t, src)
			got := evalLog(t, printed)
			if want != got {
				t.Errorf("behavior mismatch after round-trip:\n%s", diff.LineDiff(want, got))
			}
		})
	}
}

func TestPrintMinifyDropsWhitespace(t *testing.T) {
	prog, _, err := jsparse.Parse("t.js", "var x = 1;\nvar y = 2;\n", false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	printed, err := Print(prog, Options{Minify: true})
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	if strings.Contains(printed, "\n  ") {
		t.Errorf("minified output still contains indentation: %q", printed)
	}
}

func TestPrintPreservesRawLiterals(t *testing.T) {
	prog, _, err := jsparse.Parse("t.js", "var x = 0x10;\n", false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	printed, err := Print(prog, Options{})
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	if !strings.Contains(printed, "0x10") {
		t.Errorf("expected hex literal to round-trip verbatim, got: %s", printed)
	}
}
