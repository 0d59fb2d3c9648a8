package rewrite

import "testing"

func TestNeedsRequirePrelude(t *testing.T) {
	cases := map[string]bool{
		"import a from './a';\n":                   false,
		"const a = require('./a');\n":              true,
		"const a = require.main.require('./a');\n": true,
		"const a = require(name);\n":               true,
		"import { createRequire } from 'node:module';\nconst require = createRequire(import.meta.url);\nrequire('./a');\n": false,
	}
	for src, expected := range cases {
		if got := NeedsRequirePrelude(parse(t, src)); got != expected {
			t.Errorf("NeedsRequirePrelude(%q): expected %v, got %v", src, expected, got)
		}
	}
	if NeedsRequirePrelude(nil) {
		t.Error("nil program must not need a prelude")
	}
}
