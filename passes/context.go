// Package passes implements the pass pipeline: JSDCE/AJSDCE, the DCE
// reachability graph (emit + apply), the heap-access rewrite family, and
// the two name-minification passes, plus the registry that maps the exact
// pass names from the external interface onto these functions.
package passes

import (
	"io"

	"github.com/emglue/wasmglue/ast"
	"github.com/emglue/wasmglue/sidecar"
)

// Context is the mutable state threaded through one pipeline run. A single
// Context is shared by every pass invoked for one input file, mirroring how
// the driver in the original tool threads one shared extraInfo/ast pair
// through its ordered pass list.
type Context struct {
	Program *ast.Program
	Extra   sidecar.ExtraInfo
	Verbose bool

	// Stdout is where emitDCEGraph and dump write their JSON/debug output.
	Stdout io.Writer
	// Warn receives non-fatal trace messages (missing metadce declarations)
	// when the driver installs one under --verbose; defaults to a no-op. The
	// printer has no access to it, so comments it drops are not reported.
	Warn func(format string, args ...interface{})

	// names is the minified-name generator MinifyGlobals draws from: one
	// per Context unless WithNameGenerator installs a shared one.
	// MinifyLocals does not use it; it builds a fresh generator per function.
	names *NameGenerator

	// Suffix is set by MinifyGlobals to the "// EXTRA_INFO:..." line the
	// driver must append to its final printed output.
	Suffix string
}

// NewContext builds a Context with a fresh, unshared NameGenerator. Pass
// an explicit *NameGenerator (via WithNameGenerator) when multiple files in
// one build need mangled names to stay distinct from each other.
func NewContext(prog *ast.Program, extra sidecar.ExtraInfo) *Context {
	return &Context{
		Program: prog,
		Extra:   extra,
		Warn:    func(string, ...interface{}) {},
		names:   NewNameGenerator(),
	}
}

// WithNameGenerator overrides the Context's name generator, letting a
// multi-file driver share one generator across invocations so names never
// collide between files compiled together.
func (c *Context) WithNameGenerator(g *NameGenerator) *Context {
	c.names = g
	return c
}
