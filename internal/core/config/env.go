package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: MODSHIFT_[SECTION]_[KEY] (e.g., MODSHIFT_BUILD_OUT_DIR).
func ApplyEnvOverrides(cfg *Config) {
	// Build
	setEnvString(&cfg.Build.OutDir, "MODSHIFT_BUILD_OUT_DIR")
	setEnvInt(&cfg.Build.Concurrency, "MODSHIFT_BUILD_CONCURRENCY")
	setEnvString(&cfg.Build.Shebang, "MODSHIFT_BUILD_SHEBANG")

	// Run
	setEnvString(&cfg.Run.OutDir, "MODSHIFT_RUN_OUT_DIR")
	setEnvString(&cfg.Run.Node, "MODSHIFT_RUN_NODE")
	setEnvList(&cfg.Run.NodeArgs, "MODSHIFT_RUN_NODE_ARGS")
	setEnvBool(&cfg.Run.KeepOutDir, "MODSHIFT_RUN_KEEP_OUT_DIR")

	// Transform
	setEnvString(&cfg.Transform.Target, "MODSHIFT_TRANSFORM_TARGET")
	setEnvString(&cfg.Transform.JSX, "MODSHIFT_TRANSFORM_JSX")
	setEnvString(&cfg.Transform.JSXFactory, "MODSHIFT_TRANSFORM_JSX_FACTORY")
	setEnvString(&cfg.Transform.JSXFragment, "MODSHIFT_TRANSFORM_JSX_FRAGMENT")

	// Resolve
	setEnvList(&cfg.Resolve.Builtins, "MODSHIFT_RESOLVE_BUILTINS")

	// Cache
	setEnvInt(&cfg.Cache.PackageFormats, "MODSHIFT_CACHE_PACKAGE_FORMATS")

	// Observability
	setEnvString(&cfg.Observability.OTLPEndpoint, "MODSHIFT_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvString(&cfg.Observability.ServiceName, "MODSHIFT_OBSERVABILITY_SERVICE_NAME")
}

// Finalize applies env overrides and validates the merged result.
func Finalize(cfg *Config) error {
	ApplyEnvOverrides(cfg)
	applyDefaults(cfg)
	normalize(cfg)
	return validate(cfg)
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

// setEnvList splits a comma-separated value.
func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		var out []string
		for _, part := range strings.Split(val, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*target = out
	}
}
