package graph

import (
	"testing"

	"modshift/internal/engine/modfmt"
	"modshift/internal/engine/parser"
	"modshift/internal/engine/resolver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	src := `import def from './a';
import type { T } from './types';
import * as ns from 'pkg';
import fs from 'node:fs';
import path from 'path';
export { x } from './b';
export type { Y } from './y';
import legacy = require('./legacy');
const c = require('./c');
const d = require(` + "`./d`" + `);
const e = require(String.raw` + "`./e`" + `);
const f = require(` + "`./f/${name}`" + `);
const g = require(name);
const h = require.main.require('./h');
const i = import('./i');
`
	p := parser.NewParser(parser.NewGrammarLoader())
	prog, err := p.Parse([]byte(src), modfmt.DialectTypeScript)
	require.NoError(t, err)

	builtins, err := resolver.NewBuiltins(nil)
	require.NoError(t, err)

	edges := NewDependencyExtractor(builtins).Extract(prog)
	assert.Equal(t, []Edge{
		{Specifier: "./a", Mechanism: MechanismImport},
		{Specifier: "pkg", Mechanism: MechanismImport},
		{Specifier: "./b", Mechanism: MechanismImport},
		{Specifier: "./legacy", Mechanism: MechanismImport},
		{Specifier: "./c", Mechanism: MechanismRequire},
		{Specifier: "./d", Mechanism: MechanismRequire},
		{Specifier: "./e", Mechanism: MechanismRequire},
		{Specifier: "./h", Mechanism: MechanismRequire},
		{Specifier: "./i", Mechanism: MechanismImport},
	}, edges)
}

func TestExtract_ExtraBuiltins(t *testing.T) {
	p := parser.NewParser(parser.NewGrammarLoader())
	prog, err := p.Parse([]byte("import 'electron';\nimport 'bun:ffi';\nimport './local';\n"), modfmt.DialectJavaScript)
	require.NoError(t, err)

	builtins, err := resolver.NewBuiltins([]string{"electron", "bun:*"})
	require.NoError(t, err)

	edges := NewDependencyExtractor(builtins).Extract(prog)
	assert.Equal(t, []Edge{{Specifier: "./local", Mechanism: MechanismImport}}, edges)
}
