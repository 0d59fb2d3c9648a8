package graph

import (
	"fmt"
	"path/filepath"
	"strings"

	"modshift/internal/core/errors"
	"modshift/internal/engine/modfmt"
)

// Plan maps every graph member to its output location.
type Plan struct {
	Root    string
	OutDir  string
	Targets map[string]string

	graph *Graph
}

// NewPlan mirrors the graph under outDir relative to the deepest directory
// that contains every member, retargeting script extensions to the format
// extension. Assets keep their name.
func NewPlan(g *Graph, outDir string) (*Plan, error) {
	out, err := filepath.Abs(outDir)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "resolve output directory"), errors.CtxPath, outDir)
	}
	p := &Plan{OutDir: out, Targets: make(map[string]string, g.Len()), graph: g}
	if g.Len() == 0 {
		return p, nil
	}

	p.Root = commonRoot(g)
	owners := make(map[string]string, g.Len())
	for _, f := range g.Files {
		rel, err := filepath.Rel(p.Root, f.Path)
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "relative output path"), errors.CtxPath, f.Path)
		}
		if !f.Asset {
			rel = modfmt.ReplaceExt(rel, f.Format.Ext())
		}
		target := filepath.Join(out, rel)

		if prev, taken := owners[target]; taken {
			err := errors.New(errors.CodeConflict, fmt.Sprintf("%s and %s both map to %s", prev, f.Path, target))
			return nil, errors.AddContext(err, errors.CtxPath, target)
		}
		owners[target] = f.Path
		p.Targets[f.Path] = target
	}
	return p, nil
}

// Target returns the output path for a resolved source path.
func (p *Plan) Target(path string) (string, bool) {
	t, ok := p.Targets[path]
	return t, ok
}

// Locate follows the link recorded for specifier in importer and returns
// the target's output path. asset is set for verbatim copies.
func (p *Plan) Locate(importer, specifier string) (output string, asset bool, ok bool) {
	if p.graph == nil {
		return "", false, false
	}
	resolved, ok := p.graph.Link(importer, specifier)
	if !ok {
		return "", false, false
	}
	output, ok = p.Targets[resolved]
	if !ok {
		return "", false, false
	}
	f, _ := p.graph.File(resolved)
	return output, f != nil && f.Asset, true
}

// commonRoot walks up from the entry's directory until every member is a
// descendant. It stops at the filesystem root at the latest.
func commonRoot(g *Graph) string {
	root := filepath.Dir(g.Entry)
	if g.Entry == "" {
		root = filepath.Dir(g.Files[0].Path)
	}
	for {
		if containsAll(root, g.Files) {
			return root
		}
		parent := filepath.Dir(root)
		if parent == root {
			return root
		}
		root = parent
	}
}

func containsAll(root string, files []*SourceFile) bool {
	for _, f := range files {
		if !isDescendant(root, f.Path) {
			return false
		}
	}
	return true
}

func isDescendant(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
