package graph

import (
	"modshift/internal/engine/ast"
	"modshift/internal/engine/resolver"
)

// DependencyExtractor lists the specifiers a program depends on.
type DependencyExtractor struct {
	builtins *resolver.Builtins
}

func NewDependencyExtractor(builtins *resolver.Builtins) *DependencyExtractor {
	return &DependencyExtractor{builtins: builtins}
}

// Extract returns the program's edges in source order. Type-only
// declarations, non-literal or templated specifiers and host builtins are
// left out.
func (x *DependencyExtractor) Extract(p *ast.Program) []Edge {
	var edges []Edge
	collect := func(mechanism Mechanism) ast.Handler {
		return func(_ *ast.Cursor, n *ast.Node) {
			if n.TypeOnly || n.Source == nil || n.Source.Dynamic || n.Source.Value == "" {
				return
			}
			if x.builtins.IsBuiltin(n.Source.Value) {
				return
			}
			edges = append(edges, Edge{Specifier: n.Source.Value, Mechanism: mechanism})
		}
	}

	ast.NewVisitor(map[ast.Kind]ast.Handler{
		ast.KindImport:        collect(MechanismImport),
		ast.KindImportEquals:  collect(MechanismImport),
		ast.KindExportFrom:    collect(MechanismImport),
		ast.KindDynamicImport: collect(MechanismImport),
		ast.KindRequire:       collect(MechanismRequire),
		ast.KindRequireMain:   collect(MechanismRequire),
	}).Walk(p)
	return edges
}
