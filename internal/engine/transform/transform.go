// Package transform adapts source transformers that lower the typed and JSX
// dialects to plain JavaScript.
package transform

import (
	"bytes"
	"context"

	"modshift/internal/engine/modfmt"
)

// Hints describe the input handed to a Transformer.
type Hints struct {
	Path    string
	Dialect modfmt.Dialect
}

// Result is transformed source plus the dialect it is now written in.
type Result struct {
	Code    []byte
	Dialect modfmt.Dialect
}

// Transformer converts source text into a parseable dialect.
type Transformer interface {
	Transform(ctx context.Context, source []byte, hints Hints) (Result, error)
}

// Passthrough returns the source unchanged and keeps its dialect, so the
// typed grammars parse it directly.
type Passthrough struct{}

func (Passthrough) Transform(_ context.Context, source []byte, hints Hints) (Result, error) {
	return Result{Code: source, Dialect: hints.Dialect}, nil
}

// StripInterpreter drops a leading `#!` line.
func StripInterpreter(code []byte) []byte {
	if !bytes.HasPrefix(code, []byte("#!")) {
		return code
	}
	if idx := bytes.IndexByte(code, '\n'); idx >= 0 {
		return code[idx+1:]
	}
	return nil
}
