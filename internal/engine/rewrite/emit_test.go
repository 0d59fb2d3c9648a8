package rewrite

import (
	"testing"

	"modshift/internal/engine/ast"
)

func TestEmit_Splices(t *testing.T) {
	src := "#!/usr/bin/env node\nimport a from './a';\n\nfoo(require('./b'));\n"
	prog := parse(t, src)
	if len(prog.Body) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(prog.Body))
	}

	nodes := prog.Nodes()
	nodes[0].Source.Set("./a.mjs")
	nodes[1].Source.Set(`./b".cjs`)
	prog.Body = append(prog.Body[:1], append([]*ast.Statement{{Synthetic: "const x = 1;"}}, prog.Body[1:]...)...)

	expected := "#!/usr/bin/env node\nimport a from './a.mjs';\nconst x = 1;\n\nfoo(require('./b\".cjs'));\n"
	if got := Emit(prog); got != expected {
		t.Fatalf("unexpected output:\n%s", got)
	}
}

func TestEmit_ReplacedNodeWinsOverLiteral(t *testing.T) {
	prog := parse(t, "import { a } from 'x';\n")
	n := prog.Nodes()[0]
	n.Source.Set("y")
	n.Replace("import z from 'x';")

	if got := Emit(prog); got != "import z from 'x';\n" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestEmit_Untouched(t *testing.T) {
	src := "/* c */ const a = 1; // trailing\n"
	if got := Emit(parse(t, src)); got != src {
		t.Fatalf("expected verbatim copy, got %q", got)
	}
}
