package ast

import "sort"

// Handler processes one node. The cursor locates the node's statement.
type Handler func(c *Cursor, n *Node)

// Visitor dispatches nodes to handlers keyed by Kind. It is shared by the
// dependency extractor and the import rewriter.
type Visitor struct {
	handlers map[Kind]Handler
}

func NewVisitor(handlers map[Kind]Handler) *Visitor {
	return &Visitor{handlers: handlers}
}

// Cursor points at the statement currently being visited.
type Cursor struct {
	Program   *Program
	Index     int
	Statement *Statement

	pending *[]insertion
}

type insertion struct {
	after int
	seq   int
	text  string
}

// InsertAfter queues a synthetic statement directly after the current
// statement. Insertions are applied once the walk finishes, so indexes seen
// by handlers stay valid for the whole walk.
func (c *Cursor) InsertAfter(text string) {
	*c.pending = append(*c.pending, insertion{after: c.Index, seq: len(*c.pending), text: text})
}

// Walk visits every node of every non-synthetic statement in order.
func (v *Visitor) Walk(p *Program) {
	if p == nil {
		return
	}
	var pending []insertion
	for i, st := range p.Body {
		if st.IsSynthetic() {
			continue
		}
		c := &Cursor{Program: p, Index: i, Statement: st, pending: &pending}
		for _, n := range st.Nodes {
			if h, ok := v.handlers[n.Kind]; ok {
				h(c, n)
			}
		}
	}
	applyInsertions(p, pending)
}

func applyInsertions(p *Program, pending []insertion) {
	if len(pending) == 0 {
		return
	}
	sort.SliceStable(pending, func(i, j int) bool {
		if pending[i].after != pending[j].after {
			return pending[i].after < pending[j].after
		}
		return pending[i].seq < pending[j].seq
	})

	body := make([]*Statement, 0, len(p.Body)+len(pending))
	next := 0
	for i, st := range p.Body {
		body = append(body, st)
		for next < len(pending) && pending[next].after == i {
			body = append(body, &Statement{Synthetic: pending[next].text})
			next++
		}
	}
	p.Body = body
}
