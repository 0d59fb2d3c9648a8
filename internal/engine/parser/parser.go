// # internal/engine/parser/parser.go
package parser

import (
	"fmt"

	"modshift/internal/core/errors"
	"modshift/internal/engine/ast"
	"modshift/internal/engine/modfmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Parser turns source text into an ast.Program. It is safe for concurrent
// use; each call leases a tree-sitter parser from the dialect's pool.
type Parser struct {
	pools  map[modfmt.Dialect]*ParserPool
	engine *ExtractorEngine
}

func NewParser(loader *GrammarLoader) *Parser {
	p := &Parser{pools: make(map[modfmt.Dialect]*ParserPool)}
	for _, d := range []modfmt.Dialect{modfmt.DialectJavaScript, modfmt.DialectJSX, modfmt.DialectTypeScript, modfmt.DialectTSX} {
		p.pools[d] = NewParserPool(loader.Language(d))
	}
	p.engine = newModuleExtractor()
	return p
}

// Parse builds the program and fails with CodeParse when the source has
// syntax errors.
func (p *Parser) Parse(source []byte, dialect modfmt.Dialect) (*ast.Program, error) {
	return p.parse(source, dialect, true)
}

// Scan is the lenient variant used for classification: syntax errors are
// tolerated and whatever could be recognized is returned.
func (p *Parser) Scan(source []byte, dialect modfmt.Dialect) *ast.Program {
	prog, _ := p.parse(source, dialect, false)
	return prog
}

func (p *Parser) parse(source []byte, dialect modfmt.Dialect, strict bool) (*ast.Program, error) {
	pool, ok := p.pools[dialect]
	if !ok {
		pool = p.pools[modfmt.DialectJavaScript]
	}

	sp := pool.Get()
	defer pool.Put(sp)

	tree := sp.Parse(source, nil)
	if tree == nil {
		return &ast.Program{Source: source}, errors.New(errors.CodeParse, "parse failed")
	}
	defer tree.Close()

	root := tree.RootNode()
	prog := &ast.Program{Source: source}
	ctx := &ExtractionContext{Source: source, Program: prog}
	for i := uint(0); i < root.NamedChildCount(); i++ {
		child := root.NamedChild(i)
		if child == nil || child.Kind() == "hash_bang_line" {
			continue
		}
		st := &ast.Statement{Span: ctx.Span(child)}
		ctx.Statement = st
		p.engine.Walk(ctx, child)
		prog.Body = append(prog.Body, st)
	}

	if strict && root.HasError() {
		msg := "syntax error"
		if bad := firstError(root); bad != nil {
			pos := bad.StartPosition()
			msg = fmt.Sprintf("syntax error at %d:%d", pos.Row+1, pos.Column+1)
		}
		err := errors.New(errors.CodeParse, msg)
		return prog, errors.AddContext(err, errors.CtxDialect, dialect.String())
	}
	return prog, nil
}

func firstError(node *sitter.Node) *sitter.Node {
	if node == nil || !node.HasError() {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if bad := firstError(node.Child(i)); bad != nil {
			return bad
		}
	}
	return node
}
