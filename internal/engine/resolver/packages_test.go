package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"modshift/internal/core/errors"
	"modshift/internal/engine/modfmt"
	"modshift/internal/engine/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePackage(t *testing.T, root, name, manifest string, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(root, "node_modules", filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	if manifest != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(manifest), 0o644))
	}
	for rel, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return dir
}

func newPackageResolver(t *testing.T) *PackageResolver {
	t.Helper()
	r, err := NewPackageResolver(NewClassifier(parser.NewParser(parser.NewGrammarLoader())), 16)
	require.NoError(t, err)
	return r
}

func TestSplitPackage(t *testing.T) {
	cases := []struct{ spec, name, sub string }{
		{"lodash", "lodash", "."},
		{"lodash/fp", "lodash", "./fp"},
		{"@scope/pkg", "@scope/pkg", "."},
		{"@scope/pkg/a/b", "@scope/pkg", "./a/b"},
		{"@scope", "", ""},
	}
	for _, tc := range cases {
		name, sub := SplitPackage(tc.spec)
		assert.Equal(t, tc.name, name, tc.spec)
		assert.Equal(t, tc.sub, sub, tc.spec)
	}
}

func TestPackageResolver_MainField(t *testing.T) {
	root := t.TempDir()
	dir := writePackage(t, root, "legacy", `{"main": "lib/entry"}`, map[string]string{
		"lib/entry.js": "module.exports = { a: 1 };\n",
	})
	src := filepath.Join(root, "src", "deep")
	require.NoError(t, os.MkdirAll(src, 0o755))

	r := newPackageResolver(t)
	f, entry, err := r.Format(src, "legacy")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "lib", "entry.js"), entry)
	assert.Equal(t, modfmt.Dynamic, f)
}

func TestPackageResolver_ConditionalExports(t *testing.T) {
	root := t.TempDir()
	dir := writePackage(t, root, "@acme/dual", `{
  "exports": {
    ".": { "require": "./index.cjs", "import": "./index.mjs" },
    "./utils/*": "./dist/utils/*.js"
  }
}`, map[string]string{
		"index.cjs":         "module.exports = {};\n",
		"index.mjs":         "export const a = 1;\n",
		"dist/utils/str.js": "export function pad() {}\n",
	})

	r := newPackageResolver(t)

	f, entry, err := r.Format(root, "@acme/dual")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "index.mjs"), entry)
	assert.Equal(t, modfmt.Static, f)

	f, entry, err = r.Format(root, "@acme/dual/utils/str")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "dist", "utils", "str.js"), entry)
	assert.Equal(t, modfmt.Static, f)

	_, _, err = r.Format(root, "@acme/dual/private")
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestPackageResolver_DefaultIndex(t *testing.T) {
	root := t.TempDir()
	writePackage(t, root, "bare", "", map[string]string{"index.js": "exports.a = 1;\n"})

	f, _, err := newPackageResolver(t).Format(root, "bare")
	require.NoError(t, err)
	assert.Equal(t, modfmt.Dynamic, f)
}

func TestPackageResolver_NotInstalled(t *testing.T) {
	_, _, err := newPackageResolver(t).Format(t.TempDir(), "ghost")
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}
