package rewrite

import (
	"sort"
	"strings"

	"modshift/internal/engine/ast"
)

type edit struct {
	span ast.Span
	text string
}

// Emit prints a program by splicing its edits into the original source.
// Replaced nodes and rewritten literals substitute their spans, synthetic
// statements go on their own line after the statement they follow, and all
// other bytes are copied unchanged.
func Emit(p *ast.Program) string {
	var b strings.Builder
	b.Grow(len(p.Source) + 64)

	pos := 0
	for _, st := range p.Body {
		if st.IsSynthetic() {
			b.WriteString("\n")
			b.WriteString(st.Synthetic)
			continue
		}
		if st.Span.Start < pos || st.Span.End > len(p.Source) {
			continue
		}
		b.Write(p.Source[pos:st.Span.Start])
		writeStatement(&b, p, st)
		pos = st.Span.End
	}
	b.Write(p.Source[pos:])
	return b.String()
}

func writeStatement(b *strings.Builder, p *ast.Program, st *ast.Statement) {
	edits := statementEdits(st)
	pos := st.Span.Start
	for _, e := range edits {
		if e.span.Start < pos || e.span.End > st.Span.End {
			continue
		}
		b.Write(p.Source[pos:e.span.Start])
		b.WriteString(e.text)
		pos = e.span.End
	}
	b.Write(p.Source[pos:st.Span.End])
}

// statementEdits orders edits by position; an edit nested in an earlier
// one is dropped by the caller.
func statementEdits(st *ast.Statement) []edit {
	var edits []edit
	for _, n := range st.Nodes {
		switch {
		case n.Replaced:
			edits = append(edits, edit{span: n.Span, text: n.Replacement})
		case n.Source != nil && n.Source.Rewritten:
			edits = append(edits, edit{span: n.Source.Span, text: n.Source.Text()})
		}
	}
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].span.Start != edits[j].span.Start {
			return edits[i].span.Start < edits[j].span.Start
		}
		return edits[i].span.End > edits[j].span.End
	})
	return edits
}
