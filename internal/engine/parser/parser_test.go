package parser

import (
	"testing"

	"modshift/internal/core/errors"
	"modshift/internal/engine/ast"
	"modshift/internal/engine/modfmt"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	return NewParser(NewGrammarLoader())
}

func TestParse_ImportShapes(t *testing.T) {
	p := newTestParser(t)
	src := []byte(`import def, { a, b as c } from './dep';
import * as ns from "pkg";
import './side';
export { x } from './reexport';
export * from './star';
const lazy = import('./lazy');
`)

	prog, err := p.Parse(src, modfmt.DialectJavaScript)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !prog.ModuleSyntax {
		t.Fatal("expected module syntax to be detected")
	}

	nodes := prog.Nodes()
	if len(nodes) != 6 {
		t.Fatalf("expected 6 nodes, got %d", len(nodes))
	}

	first := nodes[0]
	if first.Kind != ast.KindImport || first.Source.Value != "./dep" {
		t.Fatalf("unexpected first node: %+v", first)
	}
	if first.Default != "def" || len(first.Named) != 2 {
		t.Fatalf("unexpected clause: default=%q named=%v", first.Default, first.Named)
	}
	if first.Named[1].Imported != "b" || first.Named[1].Local != "c" {
		t.Fatalf("unexpected alias binding: %+v", first.Named[1])
	}
	if nodes[1].Namespace != "ns" {
		t.Fatalf("expected namespace ns, got %q", nodes[1].Namespace)
	}
	if nodes[3].Kind != ast.KindExportFrom || nodes[3].Source.Value != "./reexport" {
		t.Fatalf("unexpected re-export: %+v", nodes[3])
	}
	if nodes[5].Kind != ast.KindDynamicImport || nodes[5].Source.Value != "./lazy" {
		t.Fatalf("unexpected dynamic import: %+v", nodes[5])
	}
}

func TestParse_RequireShapes(t *testing.T) {
	p := newTestParser(t)
	src := []byte("const a = require('./a');\n" +
		"const b = require(`./b`);\n" +
		"const c = require(String.raw`./c`);\n" +
		"const d = require(`./d/${name}`);\n" +
		"const e = require(name);\n" +
		"const f = require.main.require('./f');\n")

	prog, err := p.Parse(src, modfmt.DialectJavaScript)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if prog.ModuleSyntax {
		t.Fatal("require-only source must not report module syntax")
	}

	nodes := prog.Nodes()
	if len(nodes) != 6 {
		t.Fatalf("expected 6 nodes, got %d", len(nodes))
	}
	if nodes[1].Source.Form != ast.FormTemplate || nodes[1].Source.Value != "./b" {
		t.Fatalf("unexpected template literal: %+v", nodes[1].Source)
	}
	if nodes[2].Source.Form != ast.FormRawTemplate || nodes[2].Source.Value != "./c" {
		t.Fatalf("unexpected raw template literal: %+v", nodes[2].Source)
	}
	if !nodes[3].Source.Dynamic || nodes[3].Source.Value != "./d/" {
		t.Fatalf("expected dynamic template with first segment, got %+v", nodes[3].Source)
	}
	if nodes[4].Source != nil {
		t.Fatalf("expected nil source for identifier argument, got %+v", nodes[4].Source)
	}
	if nodes[5].Kind != ast.KindRequireMain || nodes[5].Source.Value != "./f" {
		t.Fatalf("unexpected require.main.require node: %+v", nodes[5])
	}
}

func TestParse_DynamicImportIsNotModuleSyntax(t *testing.T) {
	p := newTestParser(t)
	prog, err := p.Parse([]byte("module.exports = () => import('./x');\n"), modfmt.DialectJavaScript)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if prog.ModuleSyntax {
		t.Fatal("dynamic import must not count as module syntax")
	}
}

func TestParse_TypeScriptConstructs(t *testing.T) {
	p := newTestParser(t)
	src := []byte(`import type { T } from './types';
import fs = require('fs');
export type { U } from './u';
`)
	prog, err := p.Parse(src, modfmt.DialectTypeScript)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	nodes := prog.Nodes()
	if len(nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(nodes))
	}
	if !nodes[0].TypeOnly {
		t.Fatal("expected type-only import")
	}
	if nodes[1].Kind != ast.KindImportEquals || nodes[1].Default != "fs" || nodes[1].Source.Value != "fs" {
		t.Fatalf("unexpected import-equals node: %+v", nodes[1])
	}
	if !nodes[2].TypeOnly {
		t.Fatal("expected type-only re-export")
	}
}

func TestParse_NestedRequireInExport(t *testing.T) {
	p := newTestParser(t)
	prog, err := p.Parse([]byte("export const x = require('./x');\n"), modfmt.DialectJavaScript)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	nodes := prog.Nodes()
	if len(nodes) != 1 || nodes[0].Kind != ast.KindRequire {
		t.Fatalf("expected nested require, got %+v", nodes)
	}
}

func TestParse_SyntaxError(t *testing.T) {
	p := newTestParser(t)
	_, err := p.Parse([]byte("import { from './x';\n"), modfmt.DialectJavaScript)
	if !errors.IsCode(err, errors.CodeParse) {
		t.Fatalf("expected parse error, got %v", err)
	}

	if prog := p.Scan([]byte("import { from './x';\nexport const y = 1;\n"), modfmt.DialectJavaScript); prog == nil || !prog.ModuleSyntax {
		t.Fatal("Scan should tolerate errors and still see module syntax")
	}
}

func TestParse_HashbangIsSkipped(t *testing.T) {
	p := newTestParser(t)
	prog, err := p.Parse([]byte("#!/usr/bin/env node\nrequire('./x');\n"), modfmt.DialectJavaScript)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(prog.Body) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Body))
	}
}
