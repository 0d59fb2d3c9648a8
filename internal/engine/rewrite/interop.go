package rewrite

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"modshift/internal/engine/ast"
	"modshift/internal/engine/modfmt"
	"modshift/internal/engine/resolver"
	"modshift/internal/shared/observability"

	"golang.org/x/sync/errgroup"
)

// maxLookups bounds concurrent package lookups for one file.
const maxLookups = 8

// lookupPackages classifies every external package that a static import
// takes named bindings from. Lookups run concurrently and all finish before
// the file is rewritten. A failed lookup leaves that import as written.
func (r *Rewriter) lookupPackages(ctx context.Context, u Unit) (map[string]bool, error) {
	var specs []string
	seen := make(map[string]bool)
	for _, n := range u.Program.Nodes() {
		if !needsLookup(n) || r.builtins.IsBuiltin(n.Source.Value) || seen[n.Source.Value] {
			continue
		}
		seen[n.Source.Value] = true
		specs = append(specs, n.Source.Value)
	}
	if len(specs) == 0 || r.packages == nil {
		return nil, nil
	}

	results := make([]bool, len(specs))
	dir := filepath.Dir(u.Path)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxLookups)
	for i, spec := range specs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			format, entry, err := r.packages.Format(dir, spec)
			if err != nil {
				r.logger.Debug("package lookup failed", "path", u.Path, "specifier", spec, "error", err)
				return nil
			}
			results[i] = format == modfmt.Dynamic
			r.logger.Debug("package classified", "specifier", spec, "entry", entry, "format", format)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dynamic := make(map[string]bool, len(specs))
	for i, spec := range specs {
		if results[i] {
			dynamic[spec] = true
		}
	}
	return dynamic, nil
}

func needsLookup(n *ast.Node) bool {
	if n.Kind != ast.KindImport || n.TypeOnly || n.Replaced || n.Source == nil || n.Source.Value == "" {
		return false
	}
	if modfmt.IsLocalSpecifier(n.Source.Value) {
		return false
	}
	return len(valueBindings(n)) > 0
}

// shim turns `import d, { a, b as c } from 'pkg'` into a default import of
// a single binding followed by `const { a, b: c } = binding;`.
func (r *Rewriter) shim(c *ast.Cursor, n *ast.Node, names *nameSet) {
	bindings := valueBindings(n)
	if len(bindings) == 0 {
		return
	}
	local := n.Default
	if local == "" {
		local = names.fresh(n.Source.Value)
	}

	var imp strings.Builder
	fmt.Fprintf(&imp, "import %s from %s", local, ast.Quote(n.Source.Value))
	if n.Attributes != "" {
		imp.WriteString(" ")
		imp.WriteString(n.Attributes)
	}
	imp.WriteString(";")
	n.Replace(imp.String())

	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if b.Imported == b.Local {
			parts = append(parts, b.Local)
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", propertyKey(b.Imported), b.Local))
		}
	}
	c.InsertAfter(fmt.Sprintf("const { %s } = %s;", strings.Join(parts, ", "), local))
	observability.InteropShimsTotal.Inc()
}

func valueBindings(n *ast.Node) []ast.Binding {
	var out []ast.Binding
	for _, b := range n.Named {
		if !b.TypeOnly {
			out = append(out, b)
		}
	}
	return out
}

// propertyKey handles `import { "a-b" as c }` string export names.
func propertyKey(name string) string {
	if isIdentifier(name) {
		return name
	}
	if len(name) >= 2 && (name[0] == '"' || name[0] == '\'') {
		return name
	}
	return ast.Quote(name)
}

// nameSet hands out identifiers that do not occur in the file.
type nameSet struct {
	source []byte
	taken  map[string]bool
}

func newNameSet(p *ast.Program) *nameSet {
	return &nameSet{source: p.Source, taken: make(map[string]bool)}
}

func (s *nameSet) fresh(specifier string) string {
	name, _ := resolver.SplitPackage(specifier)
	if name == "" {
		name = specifier
	}
	base := "__" + identifierFrom(name)
	candidate := base
	for i := 1; s.taken[candidate] || bytes.Contains(s.source, []byte(candidate)); i++ {
		candidate = fmt.Sprintf("%s%d", base, i)
	}
	s.taken[candidate] = true
	return candidate
}

func identifierFrom(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '$' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case b.Len() > 0:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "pkg"
	}
	return out
}

func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r == '$' || r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}
