// # internal/engine/graph/builder.go
package graph

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"modshift/internal/core/errors"
	"modshift/internal/engine/ast"
	"modshift/internal/engine/modfmt"
	"modshift/internal/engine/parser"
	"modshift/internal/engine/resolver"
	"modshift/internal/engine/transform"
	"modshift/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
)

// frame is one pending visit on the traversal stack. importer and specifier
// are empty for the entry frame.
type frame struct {
	rawPath   string
	hint      string
	mechanism Mechanism
	importer  string
	specifier string
}

// Builder discovers every same-project file reachable from an entry.
type Builder struct {
	files       *resolver.FileResolver
	transformer transform.Transformer
	parser      *parser.Parser
	extractor   *DependencyExtractor
	logger      *slog.Logger
}

func NewBuilder(files *resolver.FileResolver, transformer transform.Transformer, p *parser.Parser, extractor *DependencyExtractor, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		files:       files,
		transformer: transformer,
		parser:      p,
		extractor:   extractor,
		logger:      logger,
	}
}

// buildState is owned by one Build call.
type buildState struct {
	graph *Graph
	// visited maps raw paths to the file they resolved to.
	visited map[string]string
}

// Build runs a depth-first traversal on an explicit stack. It is strictly
// sequential; the first unresolvable specifier fails the whole build.
func (b *Builder) Build(ctx context.Context, entryPath string) (*Graph, error) {
	ctx, span := observability.Tracer.Start(ctx, "graph.Build")
	defer span.End()
	start := time.Now()
	defer func() {
		observability.PhaseDuration.WithLabelValues("graph").Observe(time.Since(start).Seconds())
	}()

	entry, err := filepath.Abs(entryPath)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeRead, "resolve entry path"), errors.CtxPath, entryPath)
	}

	st := &buildState{graph: newGraph(), visited: make(map[string]string)}
	stack := []frame{{rawPath: entry, hint: modfmt.KnownExt(entry), mechanism: MechanismEntry}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if resolved, ok := st.visited[fr.rawPath]; ok {
			st.revisit(fr, resolved)
			continue
		}

		resolved, err := b.files.Resolve(fr.rawPath, fr.hint, resolutionLabel(fr.mechanism))
		if err != nil {
			observability.ResolutionFailuresTotal.Inc()
			if fr.importer != "" {
				err = errors.AddContext(err, errors.CtxImporter, fr.importer)
				err = errors.AddContext(err, errors.CtxSpecifier, fr.specifier)
			}
			return nil, err
		}
		st.visited[fr.rawPath] = resolved
		if fr.mechanism == MechanismEntry {
			st.graph.Entry = resolved
		}
		if _, seen := st.graph.File(resolved); seen {
			st.revisit(fr, resolved)
			continue
		}
		if fr.importer != "" {
			st.graph.link(fr.importer, fr.specifier, resolved)
		}

		file := &SourceFile{
			Path:      resolved,
			RawPath:   fr.rawPath,
			Hint:      fr.hint,
			Mechanism: fr.mechanism,
		}
		st.graph.add(file)

		if modfmt.KnownExt(resolved) == "" {
			file.Asset = true
			file.Format = formatFor(fr.mechanism)
			b.logger.Debug("asset discovered", "path", resolved)
			continue
		}

		prog, err := b.load(ctx, resolved)
		if err != nil {
			return nil, err
		}
		file.Program = prog

		edges := b.extractor.Extract(prog)
		usesImport := prog.ModuleSyntax
		dir := filepath.Dir(resolved)
		for i := len(edges) - 1; i >= 0; i-- {
			e := edges[i]
			if e.Mechanism == MechanismImport {
				usesImport = true
			}
			if !modfmt.IsLocalSpecifier(e.Specifier) {
				continue
			}
			hint := modfmt.KnownExt(e.Specifier)
			if hint == "" {
				hint = fr.hint
			}
			stack = append(stack, frame{
				rawPath:   joinSpecifier(dir, e.Specifier),
				hint:      hint,
				mechanism: e.Mechanism,
				importer:  resolved,
				specifier: e.Specifier,
			})
		}

		file.Format = decideFormat(fr.mechanism, usesImport)
		b.logger.Debug("module discovered", "path", resolved, "mechanism", fr.mechanism, "format", file.Format)
	}

	observability.GraphFiles.Set(float64(st.graph.Len()))
	span.SetAttributes(attribute.Int("graph.files", st.graph.Len()))
	return st.graph, nil
}

// revisit links an already known file and records a mechanism conflict when
// the new edge expects the other format.
func (st *buildState) revisit(fr frame, resolved string) {
	if fr.importer == "" {
		return
	}
	st.graph.link(fr.importer, fr.specifier, resolved)

	f, ok := st.graph.File(resolved)
	if !ok || f.Asset || formatFor(fr.mechanism) == f.Format {
		return
	}
	st.graph.Conflicts = append(st.graph.Conflicts, Conflict{
		Path:     resolved,
		Kept:     f.Mechanism,
		Other:    fr.mechanism,
		Importer: fr.importer,
	})
	observability.MechanismConflictsTotal.Inc()
}

// load reads, transforms and parses one source file.
func (b *Builder) load(ctx context.Context, path string) (*ast.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeRead, "read source"), errors.CtxPath, path)
	}

	start := time.Now()
	res, err := b.transformer.Transform(ctx, src, transform.Hints{Path: path, Dialect: modfmt.DialectForPath(path)})
	if err != nil {
		return nil, err
	}

	prog, err := b.parser.Parse(transform.StripInterpreter(res.Code), res.Dialect)
	observability.ParsingDuration.WithLabelValues(res.Dialect.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	return prog, nil
}

// decideFormat picks the output format of a freshly discovered file.
// Require targets are always dynamic. The entry is dynamic unless it or one
// of its direct dependencies uses import syntax.
func decideFormat(m Mechanism, usesImport bool) modfmt.Format {
	switch {
	case m == MechanismRequire:
		return modfmt.Dynamic
	case m == MechanismEntry && !usesImport:
		return modfmt.Dynamic
	default:
		return modfmt.Static
	}
}

func formatFor(m Mechanism) modfmt.Format {
	if m == MechanismRequire {
		return modfmt.Dynamic
	}
	return modfmt.Static
}

func resolutionLabel(m Mechanism) string {
	if m == MechanismEntry {
		return string(MechanismImport)
	}
	return string(m)
}

func joinSpecifier(dir, specifier string) string {
	if filepath.IsAbs(specifier) {
		return filepath.Clean(specifier)
	}
	return filepath.Join(dir, filepath.FromSlash(specifier))
}
