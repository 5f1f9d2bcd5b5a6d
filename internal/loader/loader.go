// Package loader classifies and parses the fragment files of every header
// directory into typed records.
//
// Each entity kind is loaded by its own pass over the full boundary list.
// A pass that meets an unreadable file or a malformed boundary file stops
// and returns what it accumulated, sorted, together with the error. A
// malformed entity fragment is reported and skipped.
package loader

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gitlab.com/tozd/go/errors"

	"github.com/morozRed/capibara/internal/affinity"
	"github.com/morozRed/capibara/internal/diag"
	"github.com/morozRed/capibara/internal/logging"
	"github.com/morozRed/capibara/internal/model"
	"github.com/morozRed/capibara/internal/resolve"
	"github.com/morozRed/capibara/internal/walk"
)

var (
	// ErrMalformedBoundary aborts every pass that reaches the header.
	ErrMalformedBoundary = errors.New("malformed header boundary file")
	// ErrMalformedFragment marks a skipped fragment.
	ErrMalformedFragment = errors.New("malformed fragment")
	// ErrUnreadable aborts the pass that met the file or directory.
	ErrUnreadable = errors.New("unreadable")
)

// ProgressFunc is called after each header directory a pass finishes.
type ProgressFunc func(kind Kind, ref string, done, total int)

// Loader runs the per-kind passes. Every entity pass merges the tags of the
// records it keeps into the aggregator; Headers reads them back, so it must
// run after every entity pass has returned.
type Loader struct {
	aggregator *affinity.Aggregator
	reporter   diag.Reporter
	progress   ProgressFunc
	logger     *slog.Logger

	mu         sync.Mutex
	boundaries map[string]boundaryResult
}

type boundaryResult struct {
	file boundaryFile
	err  error
}

// New returns a loader feeding agg. A nil reporter discards diagnostics.
func New(agg *affinity.Aggregator, reporter diag.Reporter) *Loader {
	if reporter == nil {
		reporter = diag.Discard
	}
	return &Loader{
		aggregator: agg,
		reporter:   reporter,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		boundaries: make(map[string]boundaryResult),
	}
}

// WithProgress installs a progress callback. It may be called from several
// passes concurrently.
func (l *Loader) WithProgress(fn ProgressFunc) *Loader {
	l.progress = fn
	return l
}

// WithLogger installs the logger for per-fragment trace output.
func (l *Loader) WithLogger(logger *slog.Logger) *Loader {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// boundary parses a boundary file once per run; later passes share the
// outcome, failure included.
func (l *Loader) boundary(b walk.Boundary) (boundaryFile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if res, ok := l.boundaries[b.Path]; ok {
		return res.file, res.err
	}

	var res boundaryResult
	data, err := os.ReadFile(b.Path)
	if err != nil {
		res.err = errors.Errorf("%s: %w: %v", b.Path, ErrUnreadable, err)
	} else if f, err := parseBoundary(data); err != nil {
		res.err = errors.Errorf("%s: %w: %v", b.Path, ErrMalformedBoundary, err)
	} else {
		res.file = f
	}
	l.boundaries[b.Path] = res
	return res.file, res.err
}

func displayPath(b walk.Boundary, fileName string) string {
	return b.Ref + "/" + fileName
}

func (l *Loader) fatal(kind Kind, path string, err error) {
	l.reporter.Report(diag.Diagnostic{Severity: diag.Fatal, Kind: string(kind), Path: path, Err: err})
}

func (l *Loader) skip(kind Kind, path, entity string, err error) {
	l.reporter.Report(diag.Diagnostic{Severity: diag.Warning, Kind: string(kind), Path: path, Entity: entity, Err: err})
}

func (l *Loader) unresolved(kind Kind, path, entity string, err error) {
	l.reporter.Report(diag.Diagnostic{Severity: diag.Unresolved, Kind: string(kind), Path: path, Entity: entity, Err: err})
}

func (l *Loader) trace(msg string, args ...any) {
	l.logger.Log(context.Background(), logging.LevelTrace, msg, args...)
}

func (l *Loader) tick(kind Kind, ref string, done, total int) {
	if l.progress != nil {
		l.progress(kind, ref, done, total)
	}
}

// fragmentParser turns one fragment file into a record and the OS tags to
// merge for its header. A parser error skips the fragment.
type fragmentParser[T any] func(path string, data []byte, name string, header model.HeaderSummary) (T, []string, error)

// entityPass loads every fragment of kind across boundaries.
func entityPass[T any](l *Loader, kind Kind, boundaries []walk.Boundary, parse fragmentParser[T], nameOf func(T) string) ([]T, error) {
	out := make([]T, 0)
	finish := func() []T {
		sort.SliceStable(out, func(i, j int) bool { return nameOf(out[i]) < nameOf(out[j]) })
		return out
	}

	for i, b := range boundaries {
		if _, err := l.boundary(b); err != nil {
			l.fatal(kind, displayPath(b, filepath.Base(b.Path)), err)
			return finish(), err
		}
		header := model.NewHeaderSummary(b.Ref)

		entries, err := os.ReadDir(b.Dir)
		if err != nil {
			err = errors.Errorf("%s: %w: %v", b.Dir, ErrUnreadable, err)
			l.fatal(kind, b.Ref, err)
			return finish(), err
		}

		for _, entry := range entries {
			fileName := entry.Name()
			if entry.IsDir() {
				continue
			}
			if got, ok := Classify(fileName); !ok || got != kind {
				continue
			}
			path := displayPath(b, fileName)

			data, err := os.ReadFile(filepath.Join(b.Dir, fileName))
			if err != nil {
				err = errors.Errorf("%s: %w: %v", path, ErrUnreadable, err)
				l.fatal(kind, path, err)
				return finish(), err
			}

			name := EntityName(kind, fileName)
			if name == "" {
				l.skip(kind, path, "", errors.Errorf("%w: empty entity name", ErrMalformedFragment))
				continue
			}

			record, tags, err := parse(path, data, name, header)
			if err != nil {
				if errors.Is(err, resolve.ErrMalformedReference) {
					l.fatal(kind, path, err)
					return finish(), err
				}
				l.skip(kind, path, name, errors.Errorf("%w: %v", ErrMalformedFragment, err))
				continue
			}

			l.aggregator.Merge(b.Ref, slots[kind], tags)
			out = append(out, record)
			l.trace("fragment loaded", "kind", string(kind), "path", path, "os_affinity", tags)
		}
		l.tick(kind, b.Ref, i+1, len(boundaries))
	}

	return finish(), nil
}

func pathless[T any](parse func([]byte, string, model.HeaderSummary) (T, []string, error)) fragmentParser[T] {
	return func(_ string, data []byte, name string, header model.HeaderSummary) (T, []string, error) {
		return parse(data, name, header)
	}
}

// Macros loads every mo- fragment.
func (l *Loader) Macros(boundaries []walk.Boundary) ([]model.Macro, error) {
	return entityPass(l, KindMacro, boundaries, pathless(parseMacro), func(m model.Macro) string { return m.Name })
}

// Enums loads every em- fragment.
func (l *Loader) Enums(boundaries []walk.Boundary) ([]model.Enumeration, error) {
	return entityPass(l, KindEnum, boundaries, pathless(parseEnum), func(e model.Enumeration) string { return e.Name })
}

// Structs loads every st- fragment.
func (l *Loader) Structs(boundaries []walk.Boundary) ([]model.Structure, error) {
	return entityPass(l, KindStruct, boundaries, pathless(parseStruct), func(s model.Structure) string { return s.Name })
}

// Functions loads every fn- fragment.
func (l *Loader) Functions(boundaries []walk.Boundary) ([]model.Function, error) {
	return entityPass(l, KindFunction, boundaries, pathless(parseFunction), func(f model.Function) string { return f.Name })
}

// TypeAliases loads every tf- fragment and resolves its associated reference
// through r, which must be built from the complete enumeration and structure
// collections. An unresolved reference is reported and the alias kept with
// model.NoRef; a malformed one aborts the pass.
func (l *Loader) TypeAliases(boundaries []walk.Boundary, r *resolve.Resolver) ([]model.TypeAlias, error) {
	parse := func(path string, data []byte, name string, header model.HeaderSummary) (model.TypeAlias, []string, error) {
		f, err := parseTypedef(data)
		if err != nil {
			return model.TypeAlias{}, nil, err
		}

		ref, err := r.Resolve(f.AssociatedRef)
		switch {
		case errors.Is(err, resolve.ErrUnresolved):
			l.unresolved(KindTypedef, path, name, err)
		case err != nil:
			return model.TypeAlias{}, nil, err
		default:
			l.trace("reference resolved", "path", path, "ref", f.AssociatedRef, "associated", model.RefTag(ref))
		}

		return model.TypeAlias{
			Name:          name,
			Header:        header,
			Summary:       f.Summary,
			Type:          f.Type,
			AssociatedRef: ref,
			Description:   f.Description,
			OSAffinity:    f.OSAffinity,
		}, f.OSAffinity, nil
	}
	return entityPass(l, KindTypedef, boundaries, parse, func(t model.TypeAlias) string { return t.Name })
}

// Headers builds one header per boundary with the affinity union collected
// so far, sorted by ref.
func (l *Loader) Headers(boundaries []walk.Boundary) ([]model.Header, error) {
	out := make([]model.Header, 0, len(boundaries))
	finish := func() []model.Header {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Ref < out[j].Ref })
		return out
	}

	for i, b := range boundaries {
		f, err := l.boundary(b)
		if err != nil {
			l.fatal(KindHeader, displayPath(b, filepath.Base(b.Path)), err)
			return finish(), err
		}
		summary := model.NewHeaderSummary(b.Ref)
		out = append(out, model.Header{
			Ref:        summary.Ref,
			Name:       summary.Name,
			Summary:    f.Summary,
			OSAffinity: l.aggregator.Get(b.Ref),
		})
		l.tick(KindHeader, b.Ref, i+1, len(boundaries))
	}

	return finish(), nil
}
