package config

import "runtime"

// DefaultFile is looked up in the working directory when no --config flag
// is given.
const DefaultFile = "modshift.toml"

type Config struct {
	Version       int           `toml:"version"`
	Build         Build         `toml:"build"`
	Run           Run           `toml:"run"`
	Transform     Transform     `toml:"transform"`
	Resolve       Resolve       `toml:"resolve"`
	Cache         Cache         `toml:"cache"`
	Observability Observability `toml:"observability"`
}

type Build struct {
	OutDir      string `toml:"out_dir"`
	Concurrency int    `toml:"concurrency"`
	Shebang     string `toml:"shebang"`
}

type Run struct {
	// OutDir is empty for a transient directory that is removed after the
	// child exits.
	OutDir     string   `toml:"out_dir"`
	Node       string   `toml:"node"`
	NodeArgs   []string `toml:"node_args"`
	KeepOutDir bool     `toml:"keep_out_dir"`
}

type Transform struct {
	Target      string `toml:"target"`
	JSX         string `toml:"jsx"` // transform, preserve or automatic
	JSXFactory  string `toml:"jsx_factory"`
	JSXFragment string `toml:"jsx_fragment"`
}

type Resolve struct {
	Builtins []string `toml:"builtins"` // extra host module globs, e.g. "bun:*"
}

type Cache struct {
	PackageFormats int `toml:"package_formats"`
}

type Observability struct {
	OTLPEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`
}

func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func defaultConcurrency() int {
	return runtime.NumCPU() * 4
}
