package config

import (
	"fmt"
	"strings"

	"modshift/internal/engine/transform"

	"github.com/gobwas/glob"
)

func validate(cfg *Config) error {
	if err := validateVersion(cfg); err != nil {
		return err
	}
	if err := validateBuild(cfg); err != nil {
		return err
	}
	if err := validateTransform(cfg); err != nil {
		return err
	}
	if err := validateResolve(cfg); err != nil {
		return err
	}
	return nil
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateBuild(cfg *Config) error {
	if cfg.Build.OutDir == "." || cfg.Build.OutDir == "/" {
		return fmt.Errorf("build.out_dir must not be %q; it is wiped before every build", cfg.Build.OutDir)
	}
	if cfg.Build.Concurrency < 1 {
		return fmt.Errorf("build.concurrency must be >= 1, got %d", cfg.Build.Concurrency)
	}
	if strings.ContainsAny(cfg.Build.Shebang, "\r\n") || !strings.HasPrefix(cfg.Build.Shebang, "#!") {
		return fmt.Errorf("build.shebang must be a single line starting with #!, got %q", cfg.Build.Shebang)
	}
	if cfg.Run.OutDir == "." || cfg.Run.OutDir == "/" {
		return fmt.Errorf("run.out_dir must not be %q", cfg.Run.OutDir)
	}
	return nil
}

func validateTransform(cfg *Config) error {
	if !transform.ValidTarget(cfg.Transform.Target) {
		return fmt.Errorf("transform.target %q is not supported", cfg.Transform.Target)
	}
	switch cfg.Transform.JSX {
	case "transform", "preserve", "automatic":
	default:
		return fmt.Errorf("transform.jsx must be one of: transform, preserve, automatic")
	}
	return nil
}

func validateResolve(cfg *Config) error {
	for i, pattern := range cfg.Resolve.Builtins {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return fmt.Errorf("resolve.builtins[%d] %q is not a valid pattern: %w", i, pattern, err)
		}
	}
	return nil
}
