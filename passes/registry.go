package passes

// Pass is one named, independently invokable pipeline stage. Every pass
// reads and/or mutates ctx.Program (and, for emitDCEGraph/dump, writes to
// ctx.Stdout); the driver looks up passes by exactly these names, given as
// positional arguments after the input file.
type Pass func(ctx *Context) error

// Registry maps a pass's external name to its implementation. Iterating a
// build's requested pass list and looking each one up here is the whole of
// the driver's dispatch logic -- there is no separate ordering or grouping
// concept; the caller decides run order by the order it asks for passes in.
var Registry = map[string]Pass{
	"JSDCE":                           JSDCE,
	"AJSDCE":                          AJSDCE,
	"applyImportAndExportNameChanges": ApplyImportAndExportNameChanges,
	"emitDCEGraph":                    EmitDCEGraph,
	"applyDCEGraphRemovals":           ApplyDCEGraphRemovals,
	"dump":                            Dump,
	"littleEndianHeap":                LittleEndianHeap,
	"growableHeap":                    GrowableHeap,
	"unsignPointers":                  UnsignPointers,
	"minifyLocals":                    MinifyLocals,
	"asanify":                         Asanify,
	"safeHeap":                        SafeHeap,
	"minifyGlobals":                   MinifyGlobals,
}

// RunPipeline runs each named pass against ctx in order, recovering any
// *AssertionError a pass raises and returning it as a normal error -- the
// single recovery point errors.go's doc comment refers to. Any other panic
// value is re-raised.
func RunPipeline(ctx *Context, passNames []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if ae, ok := r.(*AssertionError); ok {
				err = ae
				return
			}
			panic(r)
		}
	}()
	for _, name := range passNames {
		pass, ok := Registry[name]
		if !ok {
			return &AssertionError{Rule: "unknownPass", msg: "unknown pass: " + name}
		}
		if err := pass(ctx); err != nil {
			return err
		}
	}
	return nil
}
