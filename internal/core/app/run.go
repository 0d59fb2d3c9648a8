package app

import (
	"context"
	"os"
	"path/filepath"

	"modshift/internal/core/errors"
	"modshift/internal/shared/observability"
	"modshift/internal/shared/util"

	"github.com/google/uuid"
)

// Run builds entry and executes the emitted entry with the configured
// runtime, returning the child's exit code. Without outDir the tree goes to
// a transient directory. The output directory is removed once the child
// exits unless run.keep_out_dir is set.
func (a *App) Run(ctx context.Context, entry, outDir string, args []string) (int, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Run")
	defer span.End()

	if outDir == "" {
		outDir = a.Config.Run.OutDir
	}
	transient := outDir == ""
	if transient {
		outDir = filepath.Join(os.TempDir(), "modshift-run-"+uuid.NewString())
	}
	if err := checkOutDir(entry, outDir); err != nil {
		return 1, err
	}
	if transient || !a.Config.Run.KeepOutDir {
		defer func() {
			if err := util.RemoveDir(outDir); err != nil {
				a.Logger.Warn("failed to remove output directory", "path", outDir, "error", err)
			}
		}()
	}

	script, err := a.Build(ctx, entry, outDir)
	if err != nil {
		return 1, err
	}
	if script == "" {
		return 1, errors.AddContext(errors.New(errors.CodeNotFound, "nothing was emitted"), errors.CtxPath, entry)
	}

	a.Logger.Debug("running", "script", script, "args", args)
	return a.Runner.Run(ctx, script, args)
}
