// # internal/engine/parser/loader.go
package parser

import (
	"modshift/internal/engine/modfmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// GrammarLoader owns the compiled tree-sitter grammars for the JavaScript
// family. JSX is covered by the JavaScript grammar.
type GrammarLoader struct {
	languages map[modfmt.Dialect]*sitter.Language
}

func NewGrammarLoader() *GrammarLoader {
	javascript := sitter.NewLanguage(tree_sitter_javascript.Language())
	return &GrammarLoader{
		languages: map[modfmt.Dialect]*sitter.Language{
			modfmt.DialectJavaScript: javascript,
			modfmt.DialectJSX:        javascript,
			modfmt.DialectTypeScript: sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
			modfmt.DialectTSX:        sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
		},
	}
}

// Language returns the grammar for a dialect, falling back to JavaScript.
func (gl *GrammarLoader) Language(dialect modfmt.Dialect) *sitter.Language {
	if lang, ok := gl.languages[dialect]; ok {
		return lang
	}
	return gl.languages[modfmt.DialectJavaScript]
}
