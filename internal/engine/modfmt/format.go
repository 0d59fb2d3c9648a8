// Package modfmt holds the extension and module-format contract shared by
// the resolver, the graph builder and the rewriter.
package modfmt

import (
	"path/filepath"
	"strings"
)

// Format is the module system an emitted file is loaded with.
type Format int

const (
	// Static is the declarative import/export format (.mjs).
	Static Format = iota
	// Dynamic is the synchronous require format (.cjs).
	Dynamic
)

func (f Format) String() string {
	if f == Dynamic {
		return "cjs"
	}
	return "esm"
}

// Ext returns the output extension for the format.
func (f Format) Ext() string {
	if f == Dynamic {
		return ".cjs"
	}
	return ".mjs"
}

// Dialect selects the grammar a piece of source text is written in.
type Dialect int

const (
	DialectJavaScript Dialect = iota
	DialectJSX
	DialectTypeScript
	DialectTSX
)

func (d Dialect) String() string {
	switch d {
	case DialectJSX:
		return "jsx"
	case DialectTypeScript:
		return "typescript"
	case DialectTSX:
		return "tsx"
	default:
		return "javascript"
	}
}

// KnownExtensions is the set of script extensions the engine parses and
// rewrites. Anything else reached through a specifier is treated as an asset.
var KnownExtensions = []string{".js", ".ts", ".jsx", ".tsx", ".cjs", ".cts", ".mjs", ".mts"}

// ResolutionOrder is the fixed fallback order used when probing a bare path.
var ResolutionOrder = []string{".tsx", ".ts", ".mjs", ".cjs", ".jsx", ".js"}

// IsKnownExt reports whether ext (with leading dot) is a script extension.
func IsKnownExt(ext string) bool {
	ext = strings.ToLower(ext)
	for _, known := range KnownExtensions {
		if ext == known {
			return true
		}
	}
	return false
}

// KnownExt returns the script extension of path, or "" when it has none.
func KnownExt(path string) string {
	ext := filepath.Ext(path)
	if IsKnownExt(ext) {
		return ext
	}
	return ""
}

// FormatForPath classifies by extension alone. ok is false when the
// extension is ambiguous and the content has to be inspected.
func FormatForPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mjs", ".mts":
		return Static, true
	case ".cjs", ".cts":
		return Dynamic, true
	}
	return Static, false
}

// DialectForPath picks the dialect hint handed to the source transformer.
func DialectForPath(path string) Dialect {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return DialectTypeScript
	case ".tsx":
		return DialectTSX
	default:
		return DialectJSX
	}
}

// ReplaceExt swaps a known script extension on path for ext, or appends ext
// when path carries no known extension.
func ReplaceExt(path, ext string) string {
	if known := KnownExt(path); known != "" {
		return path[:len(path)-len(known)] + ext
	}
	return path + ext
}

// TypedCounterparts maps a plain-script extension to the typed-dialect
// extensions that compile to it.
func TypedCounterparts(ext string) []string {
	switch strings.ToLower(ext) {
	case ".js":
		return []string{".ts", ".tsx"}
	case ".jsx":
		return []string{".tsx"}
	case ".mjs":
		return []string{".mts"}
	case ".cjs":
		return []string{".cts"}
	}
	return nil
}

// IsLocalSpecifier reports whether a specifier addresses a project file
// (relative or absolute path) rather than a package or builtin.
func IsLocalSpecifier(specifier string) bool {
	return strings.HasPrefix(specifier, ".") || strings.HasPrefix(specifier, "/")
}
