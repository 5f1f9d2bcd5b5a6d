// Package build runs a full aggregation: walk, per-kind loading passes in
// dependency order, and document assembly.
package build

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/morozRed/capibara/internal/affinity"
	"github.com/morozRed/capibara/internal/diag"
	"github.com/morozRed/capibara/internal/document"
	"github.com/morozRed/capibara/internal/ignore"
	"github.com/morozRed/capibara/internal/loader"
	"github.com/morozRed/capibara/internal/model"
	"github.com/morozRed/capibara/internal/resolve"
	"github.com/morozRed/capibara/internal/walk"
)

// Options configures one run. Root and ReferenceURL are required; the rest
// have working zero values.
type Options struct {
	Root         string
	ReferenceURL string
	Marker       string
	IgnoreRules  []string
	// Parallel runs the independent entity passes concurrently. The output
	// is identical to a sequential run.
	Parallel bool
	Logger   *slog.Logger
	Progress loader.ProgressFunc
	Now      func() time.Time
}

// PassError records a pass that stopped early.
type PassError struct {
	Kind loader.Kind
	Err  error
}

// Result is the outcome of a run. Diagnostics holds every report in order;
// Skipped and Unresolved count the fragments dropped and the references left
// unresolved.
type Result struct {
	Document    model.Document
	Boundaries  []walk.Boundary
	Diagnostics []diag.Diagnostic
	PassErrors  []PassError
	Skipped     int
	Unresolved  int
	Duration    time.Duration
}

// Clean reports whether the run produced no diagnostics at all.
func (r *Result) Clean() bool {
	return len(r.Diagnostics) == 0 && len(r.PassErrors) == 0
}

// Run aggregates the tree under opts.Root. Only a failed walk (or a
// cancelled context) is returned as an error; pass failures are recorded
// in the result.
func Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	userRules, err := ignore.LoadRules(opts.Root)
	if err != nil {
		return nil, err
	}
	matcher := ignore.NewMatcher(append(userRules, opts.IgnoreRules...))

	boundaries, err := walk.Headers(opts.Root, walk.Options{Marker: opts.Marker, Matcher: matcher})
	if err != nil {
		return nil, errors.Errorf("walking %s: %w", opts.Root, err)
	}
	logger.Info("found header paths", "count", len(boundaries))

	collector := diag.NewCollector(logger)
	agg := affinity.New()
	l := loader.New(agg, collector).WithProgress(opts.Progress).WithLogger(logger)
	p := &passes{ctx: ctx, loader: l, boundaries: boundaries, logger: logger}

	if opts.Parallel {
		err = p.runParallel()
	} else {
		err = p.runSequential()
	}
	if err != nil {
		return nil, err
	}

	// Header affinity is read from the aggregator, so this pass must follow
	// every entity pass.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	headers, err := l.Headers(boundaries)
	p.record(loader.KindHeader, len(headers), err)
	logger.Debug("affinity collected", "headers", agg.Len())

	doc := document.Assemble(document.Collections{
		Headers:   headers,
		Macros:    p.macros,
		Enums:     p.enums,
		Structs:   p.structs,
		Typedefs:  p.typedefs,
		Functions: p.functions,
	}, opts.ReferenceURL, now())

	sort.SliceStable(p.errs, func(i, j int) bool {
		return passOrder[p.errs[i].Kind] < passOrder[p.errs[j].Kind]
	})

	return &Result{
		Document:    doc,
		Boundaries:  boundaries,
		Diagnostics: collector.All(),
		PassErrors:  p.errs,
		Skipped:     collector.Count(diag.Warning),
		Unresolved:  collector.Count(diag.Unresolved),
		Duration:    time.Since(start),
	}, nil
}

var passOrder = map[loader.Kind]int{
	loader.KindMacro:    0,
	loader.KindEnum:     1,
	loader.KindStruct:   2,
	loader.KindTypedef:  3,
	loader.KindFunction: 4,
	loader.KindHeader:   5,
}

type passes struct {
	ctx        context.Context
	loader     *loader.Loader
	boundaries []walk.Boundary
	logger     *slog.Logger

	macros    []model.Macro
	enums     []model.Enumeration
	structs   []model.Structure
	typedefs  []model.TypeAlias
	functions []model.Function

	mu   sync.Mutex
	errs []PassError
}

func (p *passes) record(kind loader.Kind, count int, err error) {
	p.logger.Info("loaded", "kind", string(kind), "count", count)
	if err == nil {
		return
	}
	p.mu.Lock()
	p.errs = append(p.errs, PassError{Kind: kind, Err: err})
	p.mu.Unlock()
}

func (p *passes) loadMacros() error {
	if err := p.ctx.Err(); err != nil {
		return err
	}
	var err error
	p.macros, err = p.loader.Macros(p.boundaries)
	p.record(loader.KindMacro, len(p.macros), err)
	return nil
}

func (p *passes) loadEnums() error {
	if err := p.ctx.Err(); err != nil {
		return err
	}
	var err error
	p.enums, err = p.loader.Enums(p.boundaries)
	p.record(loader.KindEnum, len(p.enums), err)
	return nil
}

func (p *passes) loadStructs() error {
	if err := p.ctx.Err(); err != nil {
		return err
	}
	var err error
	p.structs, err = p.loader.Structs(p.boundaries)
	p.record(loader.KindStruct, len(p.structs), err)
	return nil
}

// loadTypedefs needs the complete enumeration and structure collections.
func (p *passes) loadTypedefs() error {
	if err := p.ctx.Err(); err != nil {
		return err
	}
	var err error
	p.typedefs, err = p.loader.TypeAliases(p.boundaries, resolve.New(p.enums, p.structs))
	p.record(loader.KindTypedef, len(p.typedefs), err)
	return nil
}

func (p *passes) loadFunctions() error {
	if err := p.ctx.Err(); err != nil {
		return err
	}
	var err error
	p.functions, err = p.loader.Functions(p.boundaries)
	p.record(loader.KindFunction, len(p.functions), err)
	return nil
}

func (p *passes) runSequential() error {
	for _, pass := range []func() error{p.loadMacros, p.loadEnums, p.loadStructs, p.loadTypedefs, p.loadFunctions} {
		if err := pass(); err != nil {
			return err
		}
	}
	return nil
}

func (p *passes) runParallel() error {
	var definitions errgroup.Group
	definitions.Go(p.loadEnums)
	definitions.Go(p.loadStructs)

	var g errgroup.Group
	g.Go(p.loadMacros)
	g.Go(p.loadFunctions)
	g.Go(func() error {
		if err := definitions.Wait(); err != nil {
			return err
		}
		return p.loadTypedefs()
	})
	return g.Wait()
}
