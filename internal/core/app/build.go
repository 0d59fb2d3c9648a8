package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"modshift/internal/core/errors"
	"modshift/internal/engine/graph"
	"modshift/internal/engine/modfmt"
	"modshift/internal/engine/resolver"
	"modshift/internal/engine/rewrite"
	"modshift/internal/shared/observability"
	"modshift/internal/shared/util"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Build emits the tree reachable from entry under outDir and returns the
// emitted entry path, or "" when nothing was produced. outDir is removed
// first, so a failed build leaves no output directory behind.
func (a *App) Build(ctx context.Context, entry, outDir string) (string, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Build")
	defer span.End()

	if outDir == "" {
		outDir = a.Config.Build.OutDir
	}
	span.SetAttributes(attribute.String("entry", entry), attribute.String("out_dir", outDir))

	if err := checkOutDir(entry, outDir); err != nil {
		return "", err
	}
	if err := util.RemoveDir(outDir); err != nil {
		return "", errors.AddContext(errors.Wrap(err, errors.CodeWrite, "reset output directory"), errors.CtxPath, outDir)
	}

	g, err := a.builder.Build(ctx, entry)
	if err != nil {
		return "", err
	}
	for _, c := range g.Conflicts {
		a.Logger.Warn("module reached through import and require, first visit wins",
			"path", c.Path, "kept", c.Kept, "other", c.Other, "importer", c.Importer)
	}

	plan, err := graph.NewPlan(g, outDir)
	if err != nil {
		return "", err
	}

	if err := a.emitAll(ctx, g, plan); err != nil {
		if rmErr := util.RemoveDir(outDir); rmErr != nil {
			a.Logger.Warn("failed to remove partial output", "path", outDir, "error", rmErr)
		}
		return "", err
	}

	target, ok := plan.Target(g.Entry)
	if !ok {
		return "", nil
	}
	a.Logger.Info("build complete", "entry", target, "files", g.Len())
	return target, nil
}

// checkOutDir refuses an output directory that contains the entry, since
// the reset would delete the sources before they are read.
func checkOutDir(entry, outDir string) error {
	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "invalid output directory"), errors.CtxPath, outDir)
	}
	absEntry, err := filepath.Abs(entry)
	if err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "invalid entry path"), errors.CtxPath, entry)
	}

	rel, err := filepath.Rel(absOut, absEntry)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}
	err = errors.New(errors.CodeValidationError, fmt.Sprintf("output directory %q contains the entry %q", outDir, entry))
	return errors.AddContext(err, errors.CtxPath, absOut)
}

// emitAll rewrites and writes every file concurrently. Each task owns its
// file's tree; the package-format cache is the only shared state.
func (a *App) emitAll(ctx context.Context, g *graph.Graph, plan *graph.Plan) error {
	start := time.Now()
	defer func() {
		observability.PhaseDuration.WithLabelValues("emit").Observe(time.Since(start).Seconds())
	}()

	packages, err := resolver.NewPackageResolver(a.classifier, a.Config.Cache.PackageFormats)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "create package cache")
	}
	rw := rewrite.NewRewriter(packages, a.builtins, a.Logger)

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(a.Config.Build.Concurrency)
	for _, f := range g.Files {
		eg.Go(func() error {
			if err := ectx.Err(); err != nil {
				return err
			}
			return a.emitFile(ectx, rw, plan, f)
		})
	}
	return eg.Wait()
}

func (a *App) emitFile(ctx context.Context, rw *rewrite.Rewriter, plan *graph.Plan, f *graph.SourceFile) error {
	target, ok := plan.Target(f.Path)
	if !ok {
		return errors.AddContext(errors.New(errors.CodeInternal, "file missing from output plan"), errors.CtxPath, f.Path)
	}

	if f.Asset {
		if err := util.CopyFileWithDirs(f.Path, target); err != nil {
			return errors.AddContext(errors.Wrap(err, errors.CodeWrite, "copy asset"), errors.CtxPath, target)
		}
		observability.FilesEmittedTotal.WithLabelValues("asset").Inc()
		return nil
	}

	body, err := rw.Rewrite(ctx, rewrite.Unit{
		Path:    f.Path,
		Output:  target,
		Program: f.Program,
		Locator: plan,
	})
	if err != nil {
		return errors.AddContext(err, errors.CtxPath, f.Path)
	}

	var out strings.Builder
	out.WriteString(a.Config.Build.Shebang)
	out.WriteString("\n")
	if f.Format == modfmt.Static && rewrite.NeedsRequirePrelude(f.Program) {
		out.WriteString(rewrite.RequirePrelude)
	}
	out.WriteString(body)

	if err := util.WriteFileWithDirs(target, []byte(out.String()), 0o755); err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeWrite, "write output"), errors.CtxPath, target)
	}
	observability.FilesEmittedTotal.WithLabelValues(f.Format.String()).Inc()
	a.Logger.Debug("emitted", "path", target, "format", f.Format)
	return nil
}
