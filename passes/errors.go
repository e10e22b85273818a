package passes

import "fmt"

// AssertionError is the "shape-violation" and "consistency" error kind from
// the error-handling design: every pass-internal invariant violation (an
// minifyGlobals input that is not a single instantiate wrapper, an
// EXTRA_INFO entry that never matched anything in the AST) is raised as one
// of these, never a bare panic value,
// so a caller can always type-assert and report it uniformly alongside
// jsparse.ParseError.
//
// Grounded on parsepasses/datarefcheck.go's panic(fmt.Errorf(...)) +
// defer/recover idiom: passes panic with a *AssertionError (or let one
// propagate from a helper), and RunPipeline is the single recovery point.
type AssertionError struct {
	Rule string // the invariant that was violated, e.g. "unusedImports"
	msg  string
}

func (e *AssertionError) Error() string { return e.msg }

func assertf(rule, format string, args ...interface{}) {
	panic(&AssertionError{Rule: rule, msg: fmt.Sprintf(format, args...)})
}
