package parser

import (
	"modshift/internal/engine/ast"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeHandler converts one tree-sitter node. Returning true stops the
// walker from descending into the node's children.
type NodeHandler func(ctx *ExtractionContext, node *sitter.Node) bool

// ExtractionContext carries the program under construction and the
// statement that currently receives nodes.
type ExtractionContext struct {
	Source    []byte
	Program   *ast.Program
	Statement *ast.Statement
}

// ExtractorEngine walks the syntax tree and dispatches node handlers by kind.
type ExtractorEngine struct {
	handlers map[string]NodeHandler
}

func NewExtractorEngine(handlers map[string]NodeHandler) *ExtractorEngine {
	return &ExtractorEngine{handlers: handlers}
}

func (e *ExtractorEngine) Walk(ctx *ExtractionContext, node *sitter.Node) {
	if node == nil {
		return
	}

	if handler, ok := e.handlers[node.Kind()]; ok && handler(ctx, node) {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		e.Walk(ctx, node.Child(i))
	}
}

func (c *ExtractionContext) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.Source[node.StartByte():node.EndByte()])
}

func (c *ExtractionContext) Span(node *sitter.Node) ast.Span {
	return ast.Span{Start: int(node.StartByte()), End: int(node.EndByte())}
}

func (c *ExtractionContext) Add(n *ast.Node) {
	c.Statement.Nodes = append(c.Statement.Nodes, n)
}

// hasKeyword reports whether node has a direct anonymous child token kind,
// e.g. the `type` in `import type { A } from 'a'`.
func hasKeyword(node *sitter.Node, kind string) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && !child.IsNamed() && child.Kind() == kind {
			return true
		}
	}
	return false
}

func childOfKind(node *sitter.Node, kind string) *sitter.Node {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}
