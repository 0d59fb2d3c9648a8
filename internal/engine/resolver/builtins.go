package resolver

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

//go:embed builtins/node.txt
var nodeBuiltinData string

var nodeBuiltins = map[string]bool{}

// builtinPrefix marks a specifier as host-provided regardless of its name.
const builtinPrefix = "node:"

func init() {
	for _, line := range strings.Split(nodeBuiltinData, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			nodeBuiltins[line] = true
		}
	}
}

// Builtins recognizes host runtime modules. Extra glob patterns cover other
// hosts (e.g. "bun:*", "electron").
type Builtins struct {
	extra []glob.Glob
}

func NewBuiltins(patterns []string) (*Builtins, error) {
	b := &Builtins{}
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid builtin pattern %q: %w", p, err)
		}
		b.extra = append(b.extra, g)
	}
	return b, nil
}

// IsBuiltin reports whether specifier names a host module.
func (b *Builtins) IsBuiltin(specifier string) bool {
	if strings.HasPrefix(specifier, builtinPrefix) {
		return true
	}
	if nodeBuiltins[specifier] {
		return true
	}
	if b == nil {
		return false
	}
	for _, g := range b.extra {
		if g.Match(specifier) {
			return true
		}
	}
	return false
}
