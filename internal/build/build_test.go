package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morozRed/capibara/internal/document"
	"github.com/morozRed/capibara/internal/loader"
	"github.com/morozRed/capibara/internal/model"
)

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func clock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// writeTree lays out a small tree touching every entity kind.
func writeTree(t *testing.T, root string) {
	t.Helper()
	mustWriteFile(t, filepath.Join(root, "geometry", "meta.yaml"), "summary: Geometry\nos_affinity: []\n")
	mustWriteFile(t, filepath.Join(root, "geometry", "st-Point.yaml"), `summary: A point
fields:
  - {name: x, type: int, description: horizontal}
  - {name: y, type: int, description: vertical}
description: Cartesian point
os_affinity: [linux]
`)
	mustWriteFile(t, filepath.Join(root, "geometry", "tf-PointAlias.yaml"), `summary: Alias
type: "struct Point"
associated_ref: "geometry/Point"
description: alias
os_affinity: []
`)
	mustWriteFile(t, filepath.Join(root, "geometry", "shapes", "meta.yaml"), "summary: Shapes\n")
	mustWriteFile(t, filepath.Join(root, "geometry", "shapes", "em-Shape.yaml"), `summary: Shape kinds
variants:
  - {name: CIRCLE, value: "0", description: round}
  - {name: SQUARE, value: "1", description: square}
description: d
os_affinity: [windows, macos]
`)
	mustWriteFile(t, filepath.Join(root, "geometry", "shapes", "tf-ShapeKind.yaml"), `summary: Alias
type: "enum Shape"
associated_ref: "geometry/shapes/Shape"
description: alias
os_affinity: [freebsd]
`)
	mustWriteFile(t, filepath.Join(root, "geometry", "shapes", "mo-SHAPE_MAX.yaml"), `summary: Upper bound
kind: {object: {}}
description: d
os_affinity: [macos]
`)
	mustWriteFile(t, filepath.Join(root, "geometry", "shapes", "fn-area.yaml"), `summary: Area
returns: {type: double, description: area}
parameters:
  - {name: shape, type: "const struct Shape *", description: input}
description: d
associated: [Shape]
os_affinity: [linux]
`)
}

func TestRunPointScenario(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "geometry", "meta.yaml"), "summary: Geometry\nos_affinity: []\n")
	mustWriteFile(t, filepath.Join(root, "geometry", "st-Point.yaml"), `summary: A point
fields:
  - {name: x, type: int, description: ""}
  - {name: y, type: int, description: ""}
description: d
os_affinity: [linux]
`)
	mustWriteFile(t, filepath.Join(root, "geometry", "tf-PointAlias.yaml"), `summary: s
type: "struct Point"
associated_ref: "geometry/Point"
description: d
os_affinity: []
`)

	res, err := Run(context.Background(), Options{Root: root, ReferenceURL: "https://ref"})
	require.NoError(t, err)
	assert.True(t, res.Clean())

	doc := res.Document
	require.Len(t, doc.Headers, 1)
	assert.Equal(t, []string{"linux"}, doc.Headers[0].OSAffinity)
	require.Len(t, doc.Structs, 1)
	assert.Equal(t, "Point", doc.Structs[0].Name)
	require.Len(t, doc.Typedefs, 1)
	assert.Equal(t, "PointAlias", doc.Typedefs[0].Name)
	assert.Equal(t, model.StructRef{Structure: doc.Structs[0]}, doc.Typedefs[0].AssociatedRef)
	assert.Equal(t, "https://ref", doc.ReferenceURL)
}

func TestRunFullTree(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root)

	res, err := Run(context.Background(), Options{Root: root, ReferenceURL: "u"})
	require.NoError(t, err)
	require.True(t, res.Clean(), "%v", res.Diagnostics)

	doc := res.Document
	require.Len(t, doc.Headers, 2)
	assert.Equal(t, "geometry", doc.Headers[0].Ref)
	assert.Equal(t, []string{"linux"}, doc.Headers[0].OSAffinity)
	assert.Equal(t, "geometry/shapes", doc.Headers[1].Ref)
	// macro, enum, typedef, function order
	assert.Equal(t, []string{"macos", "windows", "freebsd", "linux"}, doc.Headers[1].OSAffinity)

	require.Len(t, doc.Typedefs, 2)
	assert.Equal(t, "PointAlias", doc.Typedefs[0].Name)
	assert.Equal(t, "ShapeKind", doc.Typedefs[1].Name)
	enumRef, ok := doc.Typedefs[1].AssociatedRef.(model.EnumRef)
	require.True(t, ok)
	assert.Equal(t, doc.Enums[0], enumRef.Enumeration)

	require.Len(t, doc.Macros, 1)
	require.Len(t, doc.Functions, 1)
	assert.Equal(t, "geometry/shapes", doc.Functions[0].Header.Ref)
}

func TestRunIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root)

	first, err := Run(context.Background(), Options{Root: root, ReferenceURL: "u", Now: clock(time.Unix(0, 0))})
	require.NoError(t, err)
	second, err := Run(context.Background(), Options{Root: root, ReferenceURL: "u", Now: clock(time.Unix(3600, 0))})
	require.NoError(t, err)

	a, err := document.Encode(first.Document, 0)
	require.NoError(t, err)
	same, err := document.SameContent(a, second.Document, 0)
	require.NoError(t, err)
	assert.True(t, same)
	assert.NotEqual(t, first.Document.BuildDate, second.Document.BuildDate)
}

func TestParallelMatchesSequential(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root)
	for i := 0; i < 5; i++ {
		dir := filepath.Join(root, "extra", string(rune('a'+i)))
		mustWriteFile(t, filepath.Join(dir, "meta.yaml"), "summary: extra\n")
		mustWriteFile(t, filepath.Join(dir, "mo-M.yaml"), "summary: s\nkind: object\ndescription: d\nos_affinity: [zos]\n")
		mustWriteFile(t, filepath.Join(dir, "fn-f.yaml"), "summary: s\nreturns: {type: void, description: \"\"}\nparameters: []\ndescription: d\nassociated: []\nos_affinity: [aix, zos]\n")
		mustWriteFile(t, filepath.Join(dir, "st-S.yaml"), "summary: s\nfields: []\ndescription: d\nos_affinity: [hpux]\n")
	}
	now := clock(time.Unix(42, 0))

	sequential, err := Run(context.Background(), Options{Root: root, ReferenceURL: "u", Now: now})
	require.NoError(t, err)
	parallel, err := Run(context.Background(), Options{Root: root, ReferenceURL: "u", Now: now, Parallel: true})
	require.NoError(t, err)

	a, err := document.Encode(sequential.Document, 0)
	require.NoError(t, err)
	b, err := document.Encode(parallel.Document, 0)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRunRecordsPassErrors(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root)
	mustWriteFile(t, filepath.Join(root, "zzz", "meta.yaml"), "summary: [broken\n")
	mustWriteFile(t, filepath.Join(root, "geometry", "st-Bad.yaml"), "fields: nope\n")

	res, err := Run(context.Background(), Options{Root: root, ReferenceURL: "u"})
	require.NoError(t, err)
	assert.False(t, res.Clean())

	kinds := make([]loader.Kind, 0, len(res.PassErrors))
	for _, pe := range res.PassErrors {
		kinds = append(kinds, pe.Kind)
		assert.ErrorIs(t, pe.Err, loader.ErrMalformedBoundary)
	}
	assert.Equal(t, []loader.Kind{
		loader.KindMacro, loader.KindEnum, loader.KindStruct,
		loader.KindTypedef, loader.KindFunction, loader.KindHeader,
	}, kinds)

	// zzz sorts last in the walk, so every pass kept what came before it
	assert.Len(t, res.Document.Headers, 2)
	assert.Len(t, res.Document.Structs, 1)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0, res.Unresolved)
}

func TestRunCountsUnresolvedSeparately(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root)
	mustWriteFile(t, filepath.Join(root, "geometry", "tf-Ghost.yaml"), `summary: s
type: "struct Ghost"
associated_ref: "geometry/Ghost"
description: d
os_affinity: []
`)

	res, err := Run(context.Background(), Options{Root: root, ReferenceURL: "u"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, 1, res.Unresolved)
	assert.Empty(t, res.PassErrors)
	require.Len(t, res.Document.Typedefs, 3)
	assert.Equal(t, "Ghost", res.Document.Typedefs[0].Name)
	assert.Equal(t, model.NoRef{}, res.Document.Typedefs[0].AssociatedRef)
}

func TestRunHonoursIgnoreRules(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root)
	mustWriteFile(t, filepath.Join(root, ".capibaraignore"), "shapes/\n")

	res, err := Run(context.Background(), Options{Root: root, ReferenceURL: "u"})
	require.NoError(t, err)
	require.Len(t, res.Document.Headers, 1)
	assert.Equal(t, "geometry", res.Document.Headers[0].Ref)

	res, err = Run(context.Background(), Options{Root: root, ReferenceURL: "u", IgnoreRules: []string{"geometry/"}})
	require.NoError(t, err)
	assert.Empty(t, res.Document.Headers)
}

func TestRunMissingRoot(t *testing.T) {
	_, err := Run(context.Background(), Options{Root: filepath.Join(t.TempDir(), "absent")})
	require.Error(t, err)
}

func TestRunCancelled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, Options{Root: root})
	assert.ErrorIs(t, err, context.Canceled)
}
