package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"modshift/internal/core/errors"
	"modshift/internal/engine/modfmt"
	"modshift/internal/shared/observability"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tidwall/gjson"
)

// importConditions are the package.json export conditions honored when a
// static import loads a package.
var importConditions = map[string]bool{
	"import":  true,
	"node":    true,
	"default": true,
}

// PackageResolver locates the installed entry file of an external specifier
// and classifies its module format. Results are cached per entry file; the
// cache is safe for the concurrent rewrite phase.
type PackageResolver struct {
	classifier *Classifier
	formats    *lru.Cache[string, modfmt.Format]
}

func NewPackageResolver(classifier *Classifier, cacheSize int) (*PackageResolver, error) {
	if cacheSize <= 0 {
		cacheSize = 512
	}
	cache, err := lru.New[string, modfmt.Format](cacheSize)
	if err != nil {
		return nil, err
	}
	return &PackageResolver{classifier: classifier, formats: cache}, nil
}

// Format resolves specifier from fromDir and classifies the entry it loads.
func (r *PackageResolver) Format(fromDir, specifier string) (modfmt.Format, string, error) {
	entry, err := r.ResolveEntry(fromDir, specifier)
	if err != nil {
		return modfmt.Static, "", err
	}
	if f, ok := r.formats.Get(entry); ok {
		observability.PackageCacheHits.Inc()
		return f, entry, nil
	}
	f, err := r.classifier.ClassifyPath(entry)
	if err != nil {
		return modfmt.Static, entry, err
	}
	r.formats.Add(entry, f)
	return f, entry, nil
}

// ResolveEntry walks node_modules directories upward from fromDir.
func (r *PackageResolver) ResolveEntry(fromDir, specifier string) (string, error) {
	name, subpath := SplitPackage(specifier)
	if name == "" {
		return "", errors.New(errors.CodeValidationError, fmt.Sprintf("invalid package specifier %q", specifier))
	}

	for dir := filepath.Clean(fromDir); ; dir = filepath.Dir(dir) {
		pkgDir := filepath.Join(dir, "node_modules", name)
		if isDir(pkgDir) {
			return resolvePackageEntry(pkgDir, subpath)
		}
		if parent := filepath.Dir(dir); parent == dir {
			break
		}
	}

	err := errors.New(errors.CodeNotFound, fmt.Sprintf("package %q is not installed", name))
	return "", errors.AddContext(err, errors.CtxSpecifier, specifier)
}

// SplitPackage separates "@scope/name/sub/path" into the package name and
// the "./sub/path" subpath ("." for the package root).
func SplitPackage(specifier string) (string, string) {
	parts := strings.Split(specifier, "/")
	n := 1
	if strings.HasPrefix(specifier, "@") {
		n = 2
	}
	if len(parts) < n || parts[0] == "" || (n == 2 && parts[1] == "") {
		return "", ""
	}
	name := strings.Join(parts[:n], "/")
	if len(parts) == n {
		return name, "."
	}
	return name, "./" + strings.Join(parts[n:], "/")
}

func resolvePackageEntry(pkgDir, subpath string) (string, error) {
	manifest, _ := os.ReadFile(filepath.Join(pkgDir, "package.json"))
	pkg := gjson.ParseBytes(manifest)

	if exports := pkg.Get("exports"); exports.Exists() {
		if target, ok := resolveExports(exports, subpath); ok {
			if full := filepath.Join(pkgDir, filepath.FromSlash(target)); isFile(full) {
				return full, nil
			}
		}
		err := errors.New(errors.CodeNotFound, fmt.Sprintf("subpath %q is not exported", subpath))
		return "", errors.AddContext(err, errors.CtxPath, pkgDir)
	}

	target := subpath
	if subpath == "." {
		target = pkg.Get("main").String()
		if target == "" {
			target = "index.js"
		}
	}
	if found, ok := probePackageFile(filepath.Join(pkgDir, filepath.FromSlash(target))); ok {
		return found, nil
	}
	err := errors.New(errors.CodeNotFound, fmt.Sprintf("no entry for %q", subpath))
	return "", errors.AddContext(err, errors.CtxPath, pkgDir)
}

// resolveExports implements the subset of the exports field that matters
// for classification: sugar strings, subpath maps, "*" patterns, condition
// objects and fallback arrays.
func resolveExports(exports gjson.Result, subpath string) (string, bool) {
	if exports.Type == gjson.String || exports.IsArray() || !hasSubpathKeys(exports) {
		if subpath != "." {
			return "", false
		}
		return resolveTarget(exports, "")
	}

	if target := exports.Get(gjson.Escape(subpath)); target.Exists() {
		return resolveTarget(target, "")
	}

	var (
		found   string
		ok      bool
		bestLen = -1
	)
	exports.ForEach(func(key, value gjson.Result) bool {
		prefix, suffix, isPattern := strings.Cut(key.String(), "*")
		if !isPattern || !strings.HasPrefix(subpath, prefix) || !strings.HasSuffix(subpath, suffix) {
			return true
		}
		if len(prefix) <= bestLen || len(subpath) < len(prefix)+len(suffix) {
			return true
		}
		match := subpath[len(prefix) : len(subpath)-len(suffix)]
		if t, hit := resolveTarget(value, match); hit {
			found, ok, bestLen = t, true, len(prefix)
		}
		return true
	})
	return found, ok
}

func hasSubpathKeys(obj gjson.Result) bool {
	subpaths := false
	obj.ForEach(func(key, _ gjson.Result) bool {
		subpaths = strings.HasPrefix(key.String(), ".")
		return false
	})
	return subpaths
}

func resolveTarget(target gjson.Result, match string) (string, bool) {
	switch {
	case target.Type == gjson.String:
		return strings.ReplaceAll(target.String(), "*", match), true
	case target.IsArray():
		for _, item := range target.Array() {
			if t, ok := resolveTarget(item, match); ok {
				return t, true
			}
		}
	case target.IsObject():
		var (
			found string
			ok    bool
		)
		target.ForEach(func(key, value gjson.Result) bool {
			if !importConditions[key.String()] {
				return true
			}
			found, ok = resolveTarget(value, match)
			return !ok
		})
		return found, ok
	}
	return "", false
}

func probePackageFile(path string) (string, bool) {
	candidates := []string{path, path + ".js", path + ".json", path + ".cjs", path + ".mjs",
		filepath.Join(path, "index.js"), filepath.Join(path, "index.cjs"), filepath.Join(path, "index.mjs")}
	for _, c := range candidates {
		if isFile(c) {
			return c, true
		}
	}
	return "", false
}
