package jsparse

import "testing"

// Table-driven smoke tests in the same shape as
// parsepasses/datarefcheck_test.go's runSimpleCheckerTests: feed source
// text through the real entry point and assert success/failure, rather
// than hand-building an AST and comparing it node by node.
type parseTest struct {
	name    string
	source  string
	module  bool
	success bool
}

func TestParse(t *testing.T) {
	tests := []parseTest{
		{"empty", "", false, true},
		{"var decl", "var x = 1;", false, true},
		{"function decl", "function add(a, b) { return a + b; }", false, true},
		{"heap access", "HEAP32[(ptr>>2)] = 0;", false, true},
		{"member and call", "Module['_main'](argc, argv);", false, true},
		{"arrow fn", "var f = (a, b) => a + b;", false, true},
		{"for loop", "for (var i = 0; i < 10; i++) { sum += i; }", false, true},
		{"try catch", "try { risky(); } catch (e) { console.log(e); }", false, true},
		{"export named in module mode", "export { foo };", true, true},
		{"export default anonymous function in module mode", "export default function(){};", true, true},
		{"unterminated string", "var x = 'oops;", false, false},
		{"stray token", "var = 1;", false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.name, tc.source, tc.module)
			if tc.success && err != nil {
				t.Fatalf("unexpected parse error: %v", err)
			}
			if !tc.success && err == nil {
				t.Fatalf("expected a parse error, got none")
			}
		})
	}
}

func TestParseErrorHasCaret(t *testing.T) {
	_, _, err := Parse("bad.js", "var = 1;", false)
	if err == nil {
		t.Fatal("expected an error")
	}
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Line() != 1 {
		t.Errorf("Line() = %d, want 1", pe.Line())
	}
	msg := pe.Error()
	if msg == "" {
		t.Error("Error() returned empty string")
	}
}

func TestParseCapturesComments(t *testing.T) {
	_, comments, err := Parse("c.js", "// leading\nvar x = 1; // trailing\n", false)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("got %d comments, want 2: %+v", len(comments), comments)
	}
}
