// Package ast is the explicit syntax tree the engine works on. A Program is
// a flat, indexable list of top-level statements; each statement carries the
// module-related nodes found anywhere inside it. Nodes reference source bytes
// by span, so rewriting never needs parent pointers.
package ast

import "strings"

// Kind tags the module-related node variants.
type Kind int

const (
	// KindImport is `import ... from 'x'` or `import 'x'`.
	KindImport Kind = iota + 1
	// KindImportEquals is the TypeScript `import x = require('x')` form.
	KindImportEquals
	// KindExportFrom is `export ... from 'x'`.
	KindExportFrom
	// KindDynamicImport is an `import('x')` expression.
	KindDynamicImport
	// KindRequire is a `require('x')` call.
	KindRequire
	// KindRequireMain is a `require.main.require('x')` call.
	KindRequireMain
)

func (k Kind) String() string {
	switch k {
	case KindImport:
		return "import"
	case KindImportEquals:
		return "import-equals"
	case KindExportFrom:
		return "export-from"
	case KindDynamicImport:
		return "dynamic-import"
	case KindRequire:
		return "require"
	case KindRequireMain:
		return "require-main"
	}
	return "unknown"
}

// Span is a half-open byte range into Program.Source.
type Span struct {
	Start int
	End   int
}

// LiteralForm is the syntax a specifier literal was written with.
type LiteralForm int

const (
	FormString LiteralForm = iota
	FormTemplate
	// FormRawTemplate is String.raw`...`; Span covers the template part only.
	FormRawTemplate
)

// Literal is a specifier argument.
type Literal struct {
	Value string
	Form  LiteralForm
	Span  Span
	// Dynamic is set for templates with substitutions. Value then holds the
	// first segment only and the literal must not be resolved or rewritten.
	Dynamic bool
	// Rewritten marks Value as changed since parsing; Original then keeps
	// the parsed value.
	Rewritten bool
	Original  string
}

// Set replaces the specifier value.
func (l *Literal) Set(value string) {
	if l.Value == value {
		return
	}
	if !l.Rewritten {
		l.Original = l.Value
		l.Rewritten = true
	}
	l.Value = value
}

// Specifier returns the value as parsed.
func (l *Literal) Specifier() string {
	if l.Rewritten {
		return l.Original
	}
	return l.Value
}

// Text renders the literal back to source form.
func (l *Literal) Text() string {
	switch l.Form {
	case FormTemplate, FormRawTemplate:
		return "`" + escapeQuote(l.Value, '`') + "`"
	default:
		return Quote(l.Value)
	}
}

// Binding is one `{ imported as local }` entry of an import clause.
type Binding struct {
	Imported string
	Local    string
	TypeOnly bool
}

// Node is one module-related construct.
type Node struct {
	Kind     Kind
	Span     Span
	TypeOnly bool
	// Source is nil when the specifier argument is not a literal.
	Source *Literal

	// Import clause parts; only set for KindImport.
	Default   string
	Namespace string
	Named     []Binding
	// Attributes holds the raw `with { ... }` / `assert { ... }` clause.
	Attributes string

	// Replacement, when Replaced is set, is emitted instead of Span.
	Replacement string
	Replaced    bool
}

// Replace swaps the whole node for text at emission time.
func (n *Node) Replace(text string) {
	n.Replacement = text
	n.Replaced = true
}

// Statement is one top-level statement. Synthetic statements are produced by
// rewriting and have no span.
type Statement struct {
	Span      Span
	Nodes     []*Node
	Synthetic string
}

// IsSynthetic reports whether the statement was inserted by a rewrite.
func (s *Statement) IsSynthetic() bool {
	return s.Synthetic != ""
}

// Program is a parsed source file.
type Program struct {
	Source []byte
	Body   []*Statement
	// ModuleSyntax is set when any import/export declaration, specifier or
	// import attribute was seen. Dynamic import() does not count.
	ModuleSyntax bool
}

// Text returns the original source for a span.
func (p *Program) Text(span Span) string {
	if span.Start < 0 || span.End > len(p.Source) || span.Start > span.End {
		return ""
	}
	return string(p.Source[span.Start:span.End])
}

// Nodes returns every node of the program in statement order.
func (p *Program) Nodes() []*Node {
	var out []*Node
	for _, st := range p.Body {
		out = append(out, st.Nodes...)
	}
	return out
}

// Quote renders value as a string literal, picking the quote character that
// avoids escaping. Single quotes are the default.
func Quote(value string) string {
	hasSingle := strings.ContainsRune(value, '\'')
	hasDouble := strings.ContainsRune(value, '"')
	if hasSingle && !hasDouble {
		return `"` + value + `"`
	}
	if hasSingle {
		value = escapeQuote(value, '\'')
	}
	return "'" + value + "'"
}

// escapeQuote backslash-escapes every q in value that is not already
// escaped. Values hold raw source text, so existing escapes are kept.
func escapeQuote(value string, q byte) string {
	var b strings.Builder
	b.Grow(len(value))
	backslashes := 0
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c == q && backslashes%2 == 0 {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
		if c == '\\' {
			backslashes++
		} else {
			backslashes = 0
		}
	}
	return b.String()
}
