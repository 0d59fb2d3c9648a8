package parser

import (
	"strings"

	"modshift/internal/engine/ast"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// newModuleExtractor builds the handler table shared by every dialect. The
// TypeScript grammars reuse the JavaScript node kinds and only add the
// `import x = require()` clause and `type` modifiers.
func newModuleExtractor() *ExtractorEngine {
	return NewExtractorEngine(map[string]NodeHandler{
		"import_statement": extractImport,
		"export_statement": extractExport,
		"call_expression":  extractCall,
	})
}

func extractImport(ctx *ExtractionContext, node *sitter.Node) bool {
	if clause := childOfKind(node, "import_require_clause"); clause != nil {
		n := &ast.Node{
			Kind:     ast.KindImportEquals,
			Span:     ctx.Span(node),
			TypeOnly: hasKeyword(node, "type"),
			Source:   stringLiteral(ctx, clause.ChildByFieldName("source")),
		}
		if id := childOfKind(clause, "identifier"); id != nil {
			n.Default = ctx.Text(id)
		}
		ctx.Add(n)
		return true
	}

	ctx.Program.ModuleSyntax = true
	n := &ast.Node{
		Kind:     ast.KindImport,
		Span:     ctx.Span(node),
		TypeOnly: hasKeyword(node, "type"),
		Source:   stringLiteral(ctx, node.ChildByFieldName("source")),
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "import_clause":
			readImportClause(ctx, child, n)
		case "import_attribute":
			n.Attributes = ctx.Text(child)
		}
	}
	ctx.Add(n)
	return true
}

func readImportClause(ctx *ExtractionContext, clause *sitter.Node, n *ast.Node) {
	for i := uint(0); i < clause.NamedChildCount(); i++ {
		child := clause.NamedChild(i)
		switch child.Kind() {
		case "identifier":
			n.Default = ctx.Text(child)
		case "namespace_import":
			if id := childOfKind(child, "identifier"); id != nil {
				n.Namespace = ctx.Text(id)
			}
		case "named_imports":
			for j := uint(0); j < child.NamedChildCount(); j++ {
				spec := child.NamedChild(j)
				if spec.Kind() != "import_specifier" {
					continue
				}
				imported := ctx.Text(spec.ChildByFieldName("name"))
				local := imported
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					local = ctx.Text(alias)
				}
				n.Named = append(n.Named, ast.Binding{
					Imported: imported,
					Local:    local,
					TypeOnly: hasKeyword(spec, "type"),
				})
			}
		}
	}
}

func extractExport(ctx *ExtractionContext, node *sitter.Node) bool {
	ctx.Program.ModuleSyntax = true
	source := node.ChildByFieldName("source")
	if source == nil {
		// `export const x = require('y')` still has calls worth visiting.
		return false
	}
	ctx.Add(&ast.Node{
		Kind:     ast.KindExportFrom,
		Span:     ctx.Span(node),
		TypeOnly: hasKeyword(node, "type"),
		Source:   stringLiteral(ctx, source),
	})
	return true
}

func extractCall(ctx *ExtractionContext, node *sitter.Node) bool {
	fn := node.ChildByFieldName("function")
	args := node.ChildByFieldName("arguments")
	if fn == nil || args == nil || args.Kind() != "arguments" {
		return false
	}

	var kind ast.Kind
	switch {
	case fn.Kind() == "import":
		kind = ast.KindDynamicImport
	case fn.Kind() == "identifier" && ctx.Text(fn) == "require":
		kind = ast.KindRequire
	case fn.Kind() == "member_expression" && compact(ctx.Text(fn)) == "require.main.require":
		kind = ast.KindRequireMain
	default:
		return false
	}

	n := &ast.Node{Kind: kind, Span: ctx.Span(node)}
	if args.NamedChildCount() > 0 {
		first := args.NamedChild(0)
		if kind == ast.KindRequireMain {
			n.Source = stringLiteral(ctx, first)
		} else {
			n.Source = specifierLiteral(ctx, first)
		}
	}
	ctx.Add(n)
	// Arguments may hold further calls, e.g. import(require.resolve('x')).
	return false
}

// specifierLiteral accepts a string, a template or a String.raw template.
func specifierLiteral(ctx *ExtractionContext, node *sitter.Node) *ast.Literal {
	if node == nil {
		return nil
	}
	switch node.Kind() {
	case "string":
		return stringLiteral(ctx, node)
	case "template_string":
		return templateLiteral(ctx, node, ast.FormTemplate)
	case "call_expression":
		fn := node.ChildByFieldName("function")
		tpl := node.ChildByFieldName("arguments")
		if fn != nil && tpl != nil && tpl.Kind() == "template_string" && compact(ctx.Text(fn)) == "String.raw" {
			return templateLiteral(ctx, tpl, ast.FormRawTemplate)
		}
	}
	return nil
}

func stringLiteral(ctx *ExtractionContext, node *sitter.Node) *ast.Literal {
	if node == nil || node.Kind() != "string" {
		return nil
	}
	text := ctx.Text(node)
	if len(text) < 2 {
		return nil
	}
	return &ast.Literal{
		Value: text[1 : len(text)-1],
		Form:  ast.FormString,
		Span:  ctx.Span(node),
	}
}

func templateLiteral(ctx *ExtractionContext, node *sitter.Node, form ast.LiteralForm) *ast.Literal {
	text := ctx.Text(node)
	if len(text) < 2 {
		return nil
	}
	lit := &ast.Literal{
		Value: text[1 : len(text)-1],
		Form:  form,
		Span:  ctx.Span(node),
	}
	if sub := childOfKind(node, "template_substitution"); sub != nil {
		lit.Dynamic = true
		lit.Value = string(ctx.Source[node.StartByte()+1 : sub.StartByte()])
	}
	return lit
}

func compact(value string) string {
	return strings.Join(strings.Fields(value), "")
}
