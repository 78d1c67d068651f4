// Package cli drives manifest-based generation of traced decorators.
package cli

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/toyz/dbweave/internal/compat"
	"github.com/toyz/dbweave/internal/config"
	"github.com/toyz/dbweave/internal/errors"
	"github.com/toyz/dbweave/internal/instrument"
	"github.com/toyz/dbweave/internal/loader"
	"github.com/toyz/dbweave/internal/modifier"
	"github.com/toyz/dbweave/internal/utils"
)

// Generator coordinates the generation process
type Generator struct {
	diagnostics *utils.DiagnosticSystem
	logger      *zap.Logger
	resolver    *ModuleResolver

	mu      sync.Mutex
	summary GenerationSummary
}

// GenerationSummary contains the outcome of the last run
type GenerationSummary struct {
	TypesTransformed int
	TypesSkipped     []string
	GeneratedFiles   []string
	Duration         time.Duration
}

type outcome struct {
	typeName string
	path     string
	ok       bool
}

// NewGenerator creates a new generator. Nil diagnostics or logger discard
// their output.
func NewGenerator(diagnostics *utils.DiagnosticSystem, logger *zap.Logger) *Generator {
	if diagnostics == nil {
		diagnostics = utils.NewDiagnosticSystem(utils.DiagnosticSilent)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		diagnostics: diagnostics,
		logger:      logger,
		resolver:    NewModuleResolver(),
	}
}

// Summary returns the summary of the last run
func (g *Generator) Summary() GenerationSummary {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.summary
}

// Run transforms every manifest target and writes the generated decorators
// next to their sources. A target that cannot be transformed is reported and
// skipped; only manifest and write failures abort the run.
func (g *Generator) Run(ctx context.Context, cfg Config) error {
	start := time.Now()

	manifest, err := config.LoadManifest(cfg.ManifestPath)
	if err != nil {
		return err
	}
	if err := manifest.Validate(); err != nil {
		return err
	}

	g.diagnostics.Header("generating traced decorators")
	g.diagnostics.Verbose("Manifest: %s (%d targets)", cfg.ManifestPath, len(manifest.Targets))

	registry, l, err := BuildRegistry(manifest, g.resolver, g.logger)
	if err != nil {
		return err
	}

	inst := instrument.New(l, instrument.WithLogger(g.logger))
	transformer := modifier.NewTransformer(registry, inst, g.logger)

	typeNames := registry.TypeNames()
	outcomes := make([]outcome, len(typeNames))

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for i, typeName := range typeNames {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			outcomes[i] = outcome{typeName: typeName}
			result, ok := transformer.Apply(typeName)
			if !ok {
				return nil
			}

			if !cfg.DryRun {
				if err := utils.WriteGoFile(result.Path, result.Source); err != nil {
					return errors.WrapFileSystemError("write", result.Path, err)
				}
			}
			outcomes[i] = outcome{typeName: typeName, path: result.Path, ok: true}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	g.report(outcomes, cfg.DryRun, time.Since(start))
	return nil
}

func (g *Generator) report(outcomes []outcome, dryRun bool, elapsed time.Duration) {
	summary := GenerationSummary{Duration: elapsed}

	g.diagnostics.PhaseHeader("Types")
	g.diagnostics.Indent()
	for _, o := range outcomes {
		if !o.ok {
			summary.TypesSkipped = append(summary.TypesSkipped, o.typeName)
			g.diagnostics.PhaseSkip("%s (left unmodified)", o.typeName)
			continue
		}
		summary.TypesTransformed++
		summary.GeneratedFiles = append(summary.GeneratedFiles, o.path)
		g.diagnostics.PhaseItem("%s -> %s", o.typeName, o.path)
	}
	g.diagnostics.Unindent()

	stats := map[string]interface{}{
		"transformed": summary.TypesTransformed,
		"skipped":     len(summary.TypesSkipped),
		"duration":    elapsed.Round(time.Millisecond),
	}
	if dryRun {
		stats["dry run"] = true
	}
	g.diagnostics.Summary("Summary", stats)

	g.mu.Lock()
	g.summary = summary
	g.mu.Unlock()
}

// BuildRegistry registers one prepared-statement modifier per manifest
// target. Targets with a directory are loaded from source; the rest go
// through go/packages from the manifest directory.
func BuildRegistry(m *config.Manifest, resolver *ModuleResolver, logger *zap.Logger) (*modifier.Registry, *loader.SourceLoader, error) {
	registry := modifier.NewRegistry()
	l := loader.NewSourceLoader()
	l.SetFallback(loader.NewPackagesLoader(m.Dir))

	for _, target := range m.Targets {
		dir := m.SourceDir(target)

		typeName, err := resolver.QualifyType(target.Type, dir)
		if err != nil {
			return nil, nil, err
		}
		if dir != "" {
			importPath, _, err := loader.SplitTypeName(typeName)
			if err != nil {
				return nil, nil, err
			}
			l.AddDir(importPath, dir)
		}

		sigs, err := target.ManifestSignatures()
		if err != nil {
			return nil, nil, err
		}

		opts := []modifier.Option{
			modifier.WithLogger(logger),
			modifier.WithExecuteMethods(target.Execute.Query, target.Execute.Update),
			modifier.WithClearMethod(target.Clear),
		}
		if target.Exclude != nil {
			opts = append(opts, modifier.WithExclusions(target.Exclude...))
		}
		if len(sigs) > 0 {
			opts = append(opts, modifier.WithManifest(sigs))
		}
		if target.Requires != nil {
			opts = append(opts, modifier.WithChecker(compat.NewModuleRequirement(target.Requires.Module, target.Requires.Version)))
		}

		if err := registry.Register(modifier.NewPreparedStatementModifier(typeName, opts...)); err != nil {
			return nil, nil, err
		}
	}
	return registry, l, nil
}
