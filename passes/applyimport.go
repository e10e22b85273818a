package passes

import (
	"github.com/emglue/wasmglue/ast"
	"github.com/emglue/wasmglue/walk"
)

// ApplyImportAndExportNameChanges rewrites every wasmImports/wasmExports
// entry whose native or wasm-side name appears as a key in ctx.Extra.Mapping
// to the mapped spelling -- the toolchain's own import/export renaming,
// independent of and applied after the minification passes. It reuses the
// wasmImports-table recognizer EmitDCEGraph/ApplyDCEGraphRemovals already
// established, so a change to what counts as "the imports table" only
// needs to happen in one place, and renames the string key of every
// wasmExports['name'] read anywhere in the program.
func ApplyImportAndExportNameChanges(ctx *Context) error {
	mapping := ctx.Extra.Mapping
	if len(mapping) == 0 {
		return nil
	}

	walk.FullWalk(ctx.Program, func(node ast.Node) {
		if obj := importsTableObject(node); obj != nil {
			for _, p := range obj.Properties {
				prop, ok := p.(*ast.Property)
				if !ok {
					continue
				}
				nativeName, ok := propertyKeyName(prop.Key)
				if !ok {
					continue
				}
				if mapped, ok := mapping[nativeName]; ok {
					setPropertyKeyName(prop, mapped)
				}
			}
			return
		}

		if lit, wasmName, ok := wasmExportsReadLiteral(node); ok {
			if mapped, ok := mapping[wasmName]; ok {
				walk.SetLiteralValue(lit, mapped)
			}
		}
	}, nil)
	return nil
}

// wasmExportsReadLiteral is wasmExportsRead but also hands back the Literal
// node itself, since ApplyImportAndExportNameChanges needs to mutate it in
// place rather than merely read its value.
func wasmExportsReadLiteral(n ast.Node) (lit *ast.Literal, wasmName string, ok bool) {
	me, isMember := n.(*ast.MemberExpression)
	if !isMember || !me.Computed {
		return nil, "", false
	}
	obj, isIdent := me.Object.(*ast.Identifier)
	if !isIdent || obj.Name != "wasmExports" {
		return nil, "", false
	}
	l, isLit := me.Property.(*ast.Literal)
	if !isLit {
		return nil, "", false
	}
	s, isString := l.Value.(string)
	if !isString {
		return nil, "", false
	}
	return l, s, true
}

// setPropertyKeyName rewrites an import-table property's key in place,
// preserving whether it was written as a bare identifier or a string
// literal in the source.
func setPropertyKeyName(prop *ast.Property, name string) {
	switch k := prop.Key.(type) {
	case *ast.Identifier:
		k.Name = name
	case *ast.Literal:
		walk.SetLiteralValue(k, name)
	}
}
