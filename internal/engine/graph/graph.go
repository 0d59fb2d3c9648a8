// # internal/engine/graph/graph.go
package graph

import (
	"modshift/internal/engine/ast"
	"modshift/internal/engine/modfmt"
)

// Mechanism is how a file was first reached.
type Mechanism string

const (
	MechanismEntry   Mechanism = "entry"
	MechanismImport  Mechanism = "import"
	MechanismRequire Mechanism = "require"
)

// SourceFile is one discovered file. It is created once per resolved path
// and only its Format is decided after creation.
type SourceFile struct {
	Path      string // resolved absolute path, identity
	RawPath   string // path as referenced, before resolution
	Hint      string // likely extension inherited from the referencing edge
	Mechanism Mechanism
	Program   *ast.Program // nil for assets
	Format    modfmt.Format
	// Asset marks files outside the known extension set. They are copied
	// verbatim and never parsed.
	Asset bool
}

// Edge is one dependency found in a program. It is consumed by the builder
// and not retained.
type Edge struct {
	Specifier string
	Mechanism Mechanism
}

// Conflict records a file reached by a second mechanism whose format family
// disagrees with the format chosen on first visit. The first visit wins.
type Conflict struct {
	Path     string
	Kept     Mechanism
	Other    Mechanism
	Importer string
}

type linkKey struct {
	importer  string
	specifier string
}

// Graph is the set of files reachable from one entry, in discovery order.
// It is owned by a single build.
type Graph struct {
	Entry     string
	Files     []*SourceFile
	Conflicts []Conflict

	byPath map[string]*SourceFile
	links  map[linkKey]string
}

func newGraph() *Graph {
	return &Graph{
		byPath: make(map[string]*SourceFile),
		links:  make(map[linkKey]string),
	}
}

func (g *Graph) add(f *SourceFile) {
	g.byPath[f.Path] = f
	g.Files = append(g.Files, f)
}

func (g *Graph) link(importer, specifier, target string) {
	g.links[linkKey{importer: importer, specifier: specifier}] = target
}

// File returns the member with the given resolved path.
func (g *Graph) File(path string) (*SourceFile, bool) {
	f, ok := g.byPath[path]
	return f, ok
}

// EntryFile returns the entry member, or nil for an empty graph.
func (g *Graph) EntryFile() *SourceFile {
	return g.byPath[g.Entry]
}

// Link returns the resolved target of specifier as written in importer.
func (g *Graph) Link(importer, specifier string) (string, bool) {
	target, ok := g.links[linkKey{importer: importer, specifier: specifier}]
	return target, ok
}

// Len returns the number of member files.
func (g *Graph) Len() int {
	return len(g.Files)
}
