package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"modshift/internal/core/errors"
	"modshift/internal/engine/modfmt"
)

// FileResolver maps a candidate path to the single file it denotes, using
// directory listings to disambiguate extensionless and index specifiers.
type FileResolver struct {
	cwd string
}

func NewFileResolver() *FileResolver {
	cwd, _ := os.Getwd()
	return &FileResolver{cwd: cwd}
}

// Resolve applies the resolution heuristics in strict priority order:
//
//  1. the candidate itself when it is a file
//  2. same-stem sibling base+hint, then sub-index index+hint
//  3. sub-index, then same-stem, for each of [hint, .tsx, .ts, .mjs, .cjs, .jsx, .js]
//  4. an extensionless sub-index, then a single sub-index or single same-stem file
//  5. typed sources for a plain-script spelling (./a.js -> a.ts)
//
// mechanism names the referencing construct in the error.
func (r *FileResolver) Resolve(candidate, hint, mechanism string) (string, error) {
	candidate = filepath.Clean(candidate)
	if isFile(candidate) {
		return candidate, nil
	}

	dir, base := filepath.Split(candidate)
	stems := listFiles(dir, func(name string) bool {
		return name == base || strings.HasPrefix(name, base+".")
	})
	var subs map[string]bool
	if isDir(candidate) {
		subs = listFiles(candidate, func(name string) bool {
			return name == "index" || strings.HasPrefix(name, "index.")
		})
	}

	if found, ok := pick(candidate, dir, base, hint, stems, subs); ok {
		return found, nil
	}

	for _, ext := range modfmt.TypedCounterparts(filepath.Ext(candidate)) {
		typed := strings.TrimSuffix(candidate, filepath.Ext(candidate)) + ext
		if isFile(typed) {
			return typed, nil
		}
	}

	return "", r.unresolved(candidate, mechanism)
}

func pick(candidate, dir, base, hint string, stems, subs map[string]bool) (string, bool) {
	if hint != "" {
		if stems[base+hint] {
			return filepath.Join(dir, base+hint), true
		}
		if subs["index"+hint] {
			return filepath.Join(candidate, "index"+hint), true
		}
	}

	order := extensionOrder(hint)
	for _, ext := range order {
		if subs["index"+ext] {
			return filepath.Join(candidate, "index"+ext), true
		}
	}
	for _, ext := range order {
		if stems[base+ext] {
			return filepath.Join(dir, base+ext), true
		}
	}

	if subs["index"] {
		return filepath.Join(candidate, "index"), true
	}
	if name, ok := single(subs); ok {
		return filepath.Join(candidate, name), true
	}
	if name, ok := single(stems); ok {
		return filepath.Join(dir, name), true
	}
	return "", false
}

func extensionOrder(hint string) []string {
	order := make([]string, 0, len(modfmt.ResolutionOrder)+1)
	if hint != "" {
		order = append(order, hint)
	}
	for _, ext := range modfmt.ResolutionOrder {
		if ext != hint {
			order = append(order, ext)
		}
	}
	return order
}

func single(names map[string]bool) (string, bool) {
	if len(names) != 1 {
		return "", false
	}
	for name := range names {
		return name, true
	}
	return "", false
}

// listFiles returns the non-directory entries of dir accepted by keep.
func listFiles(dir string, keep func(string) bool) map[string]bool {
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	out := make(map[string]bool)
	for _, e := range entries {
		if !keep(e.Name()) {
			continue
		}
		if e.IsDir() || (e.Type()&os.ModeSymlink != 0 && isDir(filepath.Join(dir, e.Name()))) {
			continue
		}
		out[e.Name()] = true
	}
	return out
}

func (r *FileResolver) unresolved(candidate, mechanism string) error {
	rel := candidate
	if r.cwd != "" {
		if p, err := filepath.Rel(r.cwd, candidate); err == nil {
			rel = p
		}
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, "../") && !strings.HasPrefix(rel, "/") {
		rel = "./" + rel
	}
	err := errors.New(errors.CodeResolution, fmt.Sprintf("cannot resolve %s %q", mechanism, rel))
	err = errors.AddContext(err, errors.CtxMechanism, mechanism)
	return errors.AddContext(err, errors.CtxPath, rel)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
