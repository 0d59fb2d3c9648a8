package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"modshift/internal/core/app"
	"modshift/internal/core/config"
	"modshift/internal/shared/observability"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

const version = "0.1.0"

// modshiftCLI holds state shared between the root hooks and the commands.
type modshiftCLI struct {
	stdout io.Writer
	stderr io.Writer

	cfg      *config.Config
	logger   *slog.Logger
	shutdown func(context.Context) error
	exitCode int
}

func newCLI(stdout, stderr io.Writer) *modshiftCLI {
	return &modshiftCLI{stdout: stdout, stderr: stderr}
}

func (c *modshiftCLI) Command() *cli.Command {
	return &cli.Command{
		Name:    "modshift",
		Usage:   "emit a runnable .mjs/.cjs tree from a JavaScript or TypeScript entry",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: config.DefaultFile,
				Usage: "path to config file",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable debug logging",
			},
			&cli.StringFlag{
				Name:  "metrics-out",
				Usage: "write Prometheus metrics to this file on exit",
			},
		},
		Before: c.before,
		After:  c.after,
		Commands: []*cli.Command{
			{
				Name:      "build",
				Usage:     "build the entry into an output directory",
				ArgsUsage: "<entry>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Usage: "output directory (default from build.out_dir)"},
				},
				Action: c.build,
			},
			{
				Name:      "run",
				Usage:     "build the entry and execute it with node",
				ArgsUsage: "<entry> -- [args...]",
				Description: "Arguments after -- are passed to the program unchanged. The separator is\n" +
					"required whenever those arguments include flags, since anything that looks\n" +
					"like a flag before it is parsed by modshift.",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Usage: "output directory (default: transient)"},
				},
				Action: c.run,
			},
		},
	}
}

func (c *modshiftCLI) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	level := slog.LevelInfo
	if cmd.Bool("verbose") {
		level = slog.LevelDebug
	}
	c.logger = slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(c.logger)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		c.logger.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.LoadOrDefault(cmd.String("config"))
	if err != nil {
		return ctx, fmt.Errorf("load config: %w", err)
	}
	if err := config.Finalize(cfg); err != nil {
		return ctx, fmt.Errorf("config: %w", err)
	}
	c.cfg = cfg

	shutdown, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint, cfg.Observability.ServiceName)
	if err != nil {
		c.logger.Warn("tracing disabled", "error", err)
		shutdown = nil
	}
	c.shutdown = shutdown
	return ctx, nil
}

func (c *modshiftCLI) after(ctx context.Context, cmd *cli.Command) error {
	if c.shutdown != nil {
		if err := c.shutdown(ctx); err != nil {
			c.logger.Warn("tracing shutdown failed", "error", err)
		}
	}
	if path := cmd.String("metrics-out"); path != "" {
		if err := observability.WriteMetrics(path); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

func (c *modshiftCLI) build(ctx context.Context, cmd *cli.Command) error {
	entry := cmd.Args().First()
	if entry == "" {
		return errors.New("build: missing <entry>")
	}
	a, err := app.New(c.cfg, c.logger)
	if err != nil {
		return err
	}

	out, err := a.Build(ctx, entry, cmd.String("out"))
	if err != nil {
		return err
	}
	if out != "" {
		fmt.Fprintln(c.stdout, out)
	}
	return nil
}

func (c *modshiftCLI) run(ctx context.Context, cmd *cli.Command) error {
	entry, args := splitRunArgs(cmd.Args().Slice())
	if entry == "" {
		return errors.New("run: missing <entry>")
	}
	a, err := app.New(c.cfg, c.logger)
	if err != nil {
		return err
	}

	code, err := a.Run(ctx, entry, cmd.String("out"), args)
	c.exitCode = code
	return err
}

// splitRunArgs separates the entry from the arguments passed to the child.
// A "--" right after the entry is dropped.
func splitRunArgs(args []string) (string, []string) {
	if len(args) == 0 {
		return "", nil
	}
	entry, rest := args[0], args[1:]
	if entry == "--" && len(rest) > 0 {
		entry, rest = rest[0], rest[1:]
	}
	if len(rest) > 0 && rest[0] == "--" {
		rest = rest[1:]
	}
	return entry, rest
}
