package rewrite

import (
	"bytes"

	"modshift/internal/engine/ast"
)

// RequirePrelude makes `require` available in a static-format file.
const RequirePrelude = "import { createRequire as __modshiftCreateRequire } from 'node:module';\n" +
	"const require = __modshiftCreateRequire(import.meta.url);\n"

// NeedsRequirePrelude reports whether a program calls require without
// creating one itself.
func NeedsRequirePrelude(p *ast.Program) bool {
	if p == nil || bytes.Contains(p.Source, []byte("createRequire")) {
		return false
	}
	for _, n := range p.Nodes() {
		if n.Kind == ast.KindRequire || n.Kind == ast.KindRequireMain {
			return true
		}
	}
	return false
}
