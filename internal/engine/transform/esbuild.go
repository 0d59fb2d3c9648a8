package transform

import (
	"context"
	"fmt"
	"strings"

	"modshift/internal/core/errors"
	"modshift/internal/engine/modfmt"

	"github.com/evanw/esbuild/pkg/api"
)

// Options configure the esbuild transformer.
type Options struct {
	Target      string
	JSX         string
	JSXFactory  string
	JSXFragment string
}

// Esbuild strips types and lowers JSX with esbuild's transform API. Module
// syntax is preserved as written; only the dialect changes.
type Esbuild struct {
	opts Options
}

func NewEsbuild(opts Options) *Esbuild {
	return &Esbuild{opts: opts}
}

var targets = map[string]api.Target{
	"":       api.ESNext,
	"esnext": api.ESNext,
	"es2024": api.ES2024,
	"es2023": api.ES2023,
	"es2022": api.ES2022,
	"es2021": api.ES2021,
	"es2020": api.ES2020,
}

// ValidTarget reports whether name is a supported target.
func ValidTarget(name string) bool {
	_, ok := targets[strings.ToLower(name)]
	return ok
}

func (e *Esbuild) Transform(ctx context.Context, source []byte, hints Hints) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	opts := api.TransformOptions{
		Sourcefile:  hints.Path,
		Loader:      loaderFor(hints.Dialect),
		Target:      targets[strings.ToLower(e.opts.Target)],
		Format:      api.FormatDefault,
		JSX:         jsxMode(e.opts.JSX),
		JSXFactory:  e.opts.JSXFactory,
		JSXFragment: e.opts.JSXFragment,
		LogLevel:    api.LogLevelSilent,
	}
	res := api.Transform(string(source), opts)
	if len(res.Errors) > 0 {
		err := errors.New(errors.CodeTransform, formatMessage(res.Errors[0]))
		err = errors.AddContext(err, errors.CtxPath, hints.Path)
		return Result{}, errors.AddContext(err, errors.CtxDialect, hints.Dialect.String())
	}

	dialect := modfmt.DialectJavaScript
	if opts.JSX == api.JSXPreserve {
		dialect = modfmt.DialectJSX
	}
	return Result{Code: StripInterpreter(res.Code), Dialect: dialect}, nil
}

func loaderFor(d modfmt.Dialect) api.Loader {
	switch d {
	case modfmt.DialectTypeScript:
		return api.LoaderTS
	case modfmt.DialectTSX:
		return api.LoaderTSX
	case modfmt.DialectJSX:
		return api.LoaderJSX
	default:
		return api.LoaderJS
	}
}

func jsxMode(mode string) api.JSX {
	switch strings.ToLower(mode) {
	case "preserve":
		return api.JSXPreserve
	case "automatic":
		return api.JSXAutomatic
	default:
		return api.JSXTransform
	}
}

func formatMessage(msg api.Message) string {
	if msg.Location == nil {
		return msg.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", msg.Location.File, msg.Location.Line, msg.Location.Column+1, msg.Text)
}
