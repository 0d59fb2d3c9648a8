package app

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"modshift/internal/core/config"
	"modshift/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}

func newTestApp(t *testing.T, logs io.Writer) *App {
	t.Helper()
	if logs == nil {
		logs = io.Discard
	}
	a, err := New(config.DefaultConfig(), slog.New(slog.NewTextHandler(logs, nil)))
	require.NoError(t, err)
	return a
}

var projectFiles = map[string]string{
	"main.ts": strings.Join([]string{
		"#!/usr/bin/env -S node --experimental-strip-types",
		"import { helper } from './lib';",
		"import { greet } from 'cjs-pkg';",
		"const legacy = require('./legacy');",
		"const data = require('./data.json');",
		"helper(legacy, data);",
		"greet();",
		"",
	}, "\n"),
	"lib/index.ts":                      "export function helper(...args: unknown[]): void {\n  console.log(args.length);\n}\n",
	"legacy.js":                         "module.exports = { legacy: true };\n",
	"data.json":                         "{\"answer\": 42}\n",
	"node_modules/cjs-pkg/package.json": "{\"name\": \"cjs-pkg\", \"main\": \"index.js\"}\n",
	"node_modules/cjs-pkg/index.js":     "exports.greet = function () { console.log('hi'); };\n",
}

func TestBuild_EmitsConsistentTree(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, projectFiles)
	out := filepath.Join(root, "dist")

	entry, err := newTestApp(t, nil).Build(context.Background(), filepath.Join(root, "main.ts"), out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "main.mjs"), entry)

	tree := readTree(t, out)
	assert.Len(t, tree, 4)
	require.Contains(t, tree, "main.mjs")
	require.Contains(t, tree, "lib/index.mjs")
	require.Contains(t, tree, "legacy.cjs")
	assert.Equal(t, projectFiles["data.json"], tree["data.json"])

	main := tree["main.mjs"]
	assert.True(t, strings.HasPrefix(main, "#!/usr/bin/env node\nimport { createRequire as __modshiftCreateRequire } from 'node:module';\n"))
	assert.Equal(t, 1, strings.Count(main, "#!"))
	assert.Contains(t, main, "from './lib/index.mjs'")
	assert.Contains(t, main, "import __cjs_pkg from 'cjs-pkg';\nconst { greet } = __cjs_pkg;")
	assert.Contains(t, main, "require('./legacy.cjs')")
	assert.Contains(t, main, "require('./data.json')")

	assert.True(t, strings.HasPrefix(tree["legacy.cjs"], "#!/usr/bin/env node\nmodule.exports"))
	assert.NotContains(t, tree["lib/index.mjs"], "createRequire")
	assert.NotContains(t, tree["lib/index.mjs"], "unknown[]")

	info, err := os.Stat(entry)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode().Perm()&0o100)
}

func TestBuild_IsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, projectFiles)
	out := filepath.Join(root, "dist")
	a := newTestApp(t, nil)

	_, err := a.Build(context.Background(), filepath.Join(root, "main.ts"), out)
	require.NoError(t, err)
	first := readTree(t, out)

	writeTree(t, out, map[string]string{"stale.mjs": "old"})
	_, err = a.Build(context.Background(), filepath.Join(root, "main.ts"), out)
	require.NoError(t, err)

	assert.Equal(t, first, readTree(t, out))
}

func TestBuild_RequireTargetsArePinned(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.js": "const x = require('./x');\nconsole.log(x);\n",
		"x.ts":    "const value: number = 1;\nmodule.exports = value;\n",
	})
	out := filepath.Join(root, "out")

	entry, err := newTestApp(t, nil).Build(context.Background(), filepath.Join(root, "main.js"), out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "main.cjs"), entry)

	tree := readTree(t, out)
	assert.Contains(t, tree["main.cjs"], "require('./x.cjs')")
	assert.NotContains(t, tree["main.cjs"], "createRequire")
	assert.Contains(t, tree, "x.cjs")
}

func TestBuild_FailureLeavesNoOutput(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"main.js": "import './missing';\n"})
	out := filepath.Join(root, "out")
	writeTree(t, out, map[string]string{"previous.mjs": "old"})
	t.Chdir(root)

	_, err := newTestApp(t, nil).Build(context.Background(), "main.js", "out")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeResolution))
	assert.Contains(t, err.Error(), `cannot resolve import "./missing"`)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestBuild_LogsMechanismConflicts(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.js":   "import './a.js';\nimport './b.js';\n",
		"a.js":      "import './shared.js';\n",
		"b.js":      "require('./shared.js');\n",
		"shared.js": "export const x = 1;\n",
	})
	var logs bytes.Buffer

	_, err := newTestApp(t, &logs).Build(context.Background(), filepath.Join(root, "main.js"), filepath.Join(root, "out"))
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "first visit wins")
	assert.Contains(t, logs.String(), "kept=import")
}

type fakeRunner struct {
	script  string
	args    []string
	content string
	code    int
}

func (f *fakeRunner) Run(_ context.Context, script string, args []string) (int, error) {
	f.script = script
	f.args = args
	data, err := os.ReadFile(script)
	if err != nil {
		return 1, err
	}
	f.content = string(data)
	return f.code, nil
}

func TestRun_TransientDirectory(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"main.js": "console.log(process.argv);\n"})

	a := newTestApp(t, nil)
	fake := &fakeRunner{code: 3}
	a.Runner = fake

	code, err := a.Run(context.Background(), filepath.Join(root, "main.js"), "", []string{"--flag", "value"})
	require.NoError(t, err)
	assert.Equal(t, 3, code)
	assert.Equal(t, []string{"--flag", "value"}, fake.args)
	assert.Equal(t, "main.cjs", filepath.Base(fake.script))
	assert.Contains(t, filepath.Base(filepath.Dir(fake.script)), "modshift-run-")
	assert.Contains(t, fake.content, "console.log(process.argv)")

	_, statErr := os.Stat(filepath.Dir(fake.script))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_KeepOutDir(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"main.js": "export {};\n"})

	a := newTestApp(t, nil)
	a.Config.Run.KeepOutDir = true
	a.Runner = &fakeRunner{}
	out := filepath.Join(root, "run-out")

	code, err := a.Run(context.Background(), filepath.Join(root, "main.js"), out, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	_, statErr := os.Stat(filepath.Join(out, "main.mjs"))
	assert.NoError(t, statErr)
}

func TestRun_BuildFailure(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"main.js": "require('./nope');\n"})

	a := newTestApp(t, nil)
	fake := &fakeRunner{}
	a.Runner = fake

	code, err := a.Run(context.Background(), filepath.Join(root, "main.js"), "", nil)
	require.Error(t, err)
	assert.Equal(t, 1, code)
	assert.Empty(t, fake.script)
}

func TestBuild_RejectsOutDirContainingEntry(t *testing.T) {
	cases := []struct {
		name  string
		entry string
		out   string
	}{
		{name: "entry directory", entry: "src/main.js", out: "src"},
		{name: "parent directory", entry: "app/main.js", out: "."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			root := t.TempDir()
			writeTree(t, root, map[string]string{
				tc.entry:       "export {};\n",
				"src/keep.txt": "keep",
			})

			_, err := newTestApp(t, nil).Build(context.Background(),
				filepath.Join(root, tc.entry), filepath.Join(root, tc.out))
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.CodeValidationError), "got %v", err)

			_, statErr := os.Stat(filepath.Join(root, tc.entry))
			assert.NoError(t, statErr, "entry must survive")
			_, statErr = os.Stat(filepath.Join(root, "src", "keep.txt"))
			assert.NoError(t, statErr, "sibling files must survive")
		})
	}
}

func TestRun_RejectsOutDirContainingEntry(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"src/main.js": "export {};\n"})

	a := newTestApp(t, nil)
	fake := &fakeRunner{}
	a.Runner = fake

	code, err := a.Run(context.Background(), filepath.Join(root, "src", "main.js"), filepath.Join(root, "src"), nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
	assert.Equal(t, 1, code)
	assert.Empty(t, fake.script)

	_, statErr := os.Stat(filepath.Join(root, "src", "main.js"))
	assert.NoError(t, statErr)
}
