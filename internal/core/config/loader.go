package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	normalize(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault returns the defaults when path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Build.OutDir) == "" {
		cfg.Build.OutDir = "dist"
	}
	if cfg.Build.Concurrency <= 0 {
		cfg.Build.Concurrency = defaultConcurrency()
	}
	if cfg.Build.Shebang == "" {
		cfg.Build.Shebang = "#!/usr/bin/env node"
	}

	if strings.TrimSpace(cfg.Run.Node) == "" {
		cfg.Run.Node = "node"
	}

	if strings.TrimSpace(cfg.Transform.Target) == "" {
		cfg.Transform.Target = "esnext"
	}
	if strings.TrimSpace(cfg.Transform.JSX) == "" {
		cfg.Transform.JSX = "transform"
	}

	if cfg.Cache.PackageFormats <= 0 {
		cfg.Cache.PackageFormats = 512
	}

	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "modshift"
	}
}

func normalize(cfg *Config) {
	cfg.Build.OutDir = filepath.Clean(strings.TrimSpace(cfg.Build.OutDir))
	if out := strings.TrimSpace(cfg.Run.OutDir); out != "" {
		cfg.Run.OutDir = filepath.Clean(out)
	}
	cfg.Transform.Target = strings.ToLower(strings.TrimSpace(cfg.Transform.Target))
	cfg.Transform.JSX = strings.ToLower(strings.TrimSpace(cfg.Transform.JSX))

	builtins := cfg.Resolve.Builtins[:0]
	for _, b := range cfg.Resolve.Builtins {
		if b = strings.TrimSpace(b); b != "" {
			builtins = append(builtins, b)
		}
	}
	cfg.Resolve.Builtins = builtins
}
