package resolver

import (
	"os"

	"modshift/internal/core/errors"
	"modshift/internal/engine/modfmt"
	"modshift/internal/engine/parser"
)

// Classifier decides whether a module is written in the static or the
// dynamic format.
type Classifier struct {
	parser *parser.Parser
}

func NewClassifier(p *parser.Parser) *Classifier {
	return &Classifier{parser: p}
}

// ClassifyPath uses the extension when it is decisive and falls back to
// reading and inspecting the file.
func (c *Classifier) ClassifyPath(path string) (modfmt.Format, error) {
	if f, ok := modfmt.FormatForPath(path); ok {
		return f, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return modfmt.Dynamic, errors.AddContext(errors.Wrap(err, errors.CodeRead, "read module"), errors.CtxPath, path)
	}
	return c.ClassifyContent(content, grammarFor(path)), nil
}

// ClassifyContent reports Static when the source contains any import or
// export declaration. Dynamic import() expressions are legal in both formats
// and are not evidence.
func (c *Classifier) ClassifyContent(content []byte, dialect modfmt.Dialect) modfmt.Format {
	prog := c.parser.Scan(content, dialect)
	if prog != nil && prog.ModuleSyntax {
		return modfmt.Static
	}
	return modfmt.Dynamic
}

func grammarFor(path string) modfmt.Dialect {
	d := modfmt.DialectForPath(path)
	if d == modfmt.DialectJSX {
		return modfmt.DialectJavaScript
	}
	return d
}
