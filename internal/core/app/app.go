package app

import (
	"context"
	"log/slog"

	"modshift/internal/core/config"
	"modshift/internal/core/runner"
	"modshift/internal/engine/graph"
	"modshift/internal/engine/parser"
	"modshift/internal/engine/resolver"
	"modshift/internal/engine/transform"
)

// ProcessRunner executes an emitted entry file.
type ProcessRunner interface {
	Run(ctx context.Context, script string, args []string) (int, error)
}

// App wires the engine together. Builds share the parser and the graph
// builder; every per-build cache is created inside Build.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	Runner ProcessRunner

	builtins   *resolver.Builtins
	classifier *resolver.Classifier
	builder    *graph.Builder
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	builtins, err := resolver.NewBuiltins(cfg.Resolve.Builtins)
	if err != nil {
		return nil, err
	}

	p := parser.NewParser(parser.NewGrammarLoader())
	tr := transform.NewEsbuild(transform.Options{
		Target:      cfg.Transform.Target,
		JSX:         cfg.Transform.JSX,
		JSXFactory:  cfg.Transform.JSXFactory,
		JSXFragment: cfg.Transform.JSXFragment,
	})

	return &App{
		Config:     cfg,
		Logger:     logger,
		Runner:     runner.New(cfg.Run.Node, cfg.Run.NodeArgs),
		builtins:   builtins,
		classifier: resolver.NewClassifier(p),
		builder: graph.NewBuilder(
			resolver.NewFileResolver(),
			tr,
			p,
			graph.NewDependencyExtractor(builtins),
			logger,
		),
	}, nil
}
