// # internal/engine/rewrite/rewriter.go
package rewrite

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"modshift/internal/engine/ast"
	"modshift/internal/engine/modfmt"
	"modshift/internal/engine/resolver"
)

// PackageFormats classifies the entry an external specifier loads.
type PackageFormats interface {
	Format(fromDir, specifier string) (modfmt.Format, string, error)
}

// Locator maps a specifier written in importer to the output path of its
// target.
type Locator interface {
	Locate(importer, specifier string) (output string, asset bool, ok bool)
}

// Unit is one file handed to the rewriter.
type Unit struct {
	// Path is the source path; package lookups start from its directory.
	Path string
	// Output is the path the file is emitted at. Specifiers are made
	// relative to it when Locator knows their target.
	Output  string
	Program *ast.Program
	Locator Locator
}

// Rewriter points every local specifier at its emitted counterpart and
// shims named imports from dynamic-format packages. It holds no per-file
// state and is safe for concurrent use.
type Rewriter struct {
	packages PackageFormats
	builtins *resolver.Builtins
	logger   *slog.Logger
}

func NewRewriter(packages PackageFormats, builtins *resolver.Builtins, logger *slog.Logger) *Rewriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rewriter{packages: packages, builtins: builtins, logger: logger}
}

// Rewrite mutates u.Program in place and returns the emitted text. Running
// it again on the same program yields the same text.
func (r *Rewriter) Rewrite(ctx context.Context, u Unit) (string, error) {
	dynamic, err := r.lookupPackages(ctx, u)
	if err != nil {
		return "", err
	}
	names := newNameSet(u.Program)

	importExt := modfmt.Static.Ext()
	requireExt := modfmt.Dynamic.Ext()
	visitor := ast.NewVisitor(map[ast.Kind]ast.Handler{
		ast.KindImport: func(c *ast.Cursor, n *ast.Node) {
			if n.TypeOnly || n.Source == nil {
				return
			}
			if modfmt.IsLocalSpecifier(n.Source.Specifier()) {
				r.retarget(u, n.Source, importExt)
				return
			}
			if !n.Replaced && dynamic[n.Source.Value] {
				r.shim(c, n, names)
			}
		},
		ast.KindImportEquals: func(_ *ast.Cursor, n *ast.Node) {
			if !n.TypeOnly {
				r.retarget(u, n.Source, importExt)
			}
		},
		ast.KindExportFrom: func(_ *ast.Cursor, n *ast.Node) {
			if !n.TypeOnly {
				r.retarget(u, n.Source, importExt)
			}
		},
		ast.KindDynamicImport: func(_ *ast.Cursor, n *ast.Node) {
			r.retarget(u, n.Source, importExt)
		},
		ast.KindRequire: func(_ *ast.Cursor, n *ast.Node) {
			r.retarget(u, n.Source, requireExt)
		},
		ast.KindRequireMain: func(_ *ast.Cursor, n *ast.Node) {
			r.retarget(u, n.Source, requireExt)
		},
	})
	visitor.Walk(u.Program)

	return Emit(u.Program), nil
}

// retarget rewrites a local specifier to ext. The parsed value is used so a
// second pass computes the same result.
func (r *Rewriter) retarget(u Unit, lit *ast.Literal, ext string) {
	if lit == nil || lit.Dynamic {
		return
	}
	spec := lit.Specifier()
	if !modfmt.IsLocalSpecifier(spec) {
		return
	}
	lit.Set(canonicalSpecifier(u, spec, ext))
}

func canonicalSpecifier(u Unit, spec, ext string) string {
	if u.Locator != nil && u.Output != "" {
		if target, asset, ok := u.Locator.Locate(u.Path, spec); ok {
			if !asset {
				target = modfmt.ReplaceExt(target, ext)
			}
			if rel, err := filepath.Rel(filepath.Dir(u.Output), target); err == nil {
				rel = filepath.ToSlash(rel)
				if !strings.HasPrefix(rel, "../") {
					rel = "./" + rel
				}
				return rel
			}
		}
	}
	return modfmt.ReplaceExt(spec, ext)
}
