package search_test

import (
	"context"
	"testing"

	"github.com/cottand/gentype/frontend"
	"github.com/cottand/gentype/frontend/types"
	"github.com/cottand/gentype/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sources = map[string][]byte{
	"shapes.ts": []byte(`
interface Shape { area(): number; }
class Square implements Shape {
  side: number;
  area(): number { return this.side * this.side; }
}
class Cube extends Square {
  area(): number { return 6 * this.side * this.side; }
}
class Circle implements Shape {
  area(): number { return 3; }
}
`),
	"use.ts": []byte(`
function total(s: Shape, q: Square): number {
  q.side = 2;
  return s.area() + q.area();
}
`),
}

func loadIndex(t *testing.T) (*frontend.Program, *search.Index) {
	t.Helper()
	prog, err := frontend.ParseSources(context.Background(), sources)
	require.NoError(t, err)
	return prog, search.NewIndex(prog)
}

func names(ts []*types.Named) []string {
	var out []string
	for _, t := range ts {
		out = append(out, t.Name)
	}
	return out
}

func keys(ms []*types.Method) []string {
	var out []string
	for _, m := range ms {
		out = append(out, m.Key())
	}
	return out
}

func TestSubtypes(t *testing.T) {
	prog, ix := loadIndex(t)
	u := prog.Universe
	assert.Equal(t, []string{"Circle", "Cube", "Square"}, names(ix.Subtypes(u.LookupNamed("Shape"))))
	assert.Equal(t, []string{"Cube"}, names(ix.Subtypes(u.LookupNamed("Square"))))
	assert.Empty(t, ix.Subtypes(u.LookupNamed("Cube")))
	assert.Nil(t, ix.Subtypes(nil))
}

func TestRippleMethods(t *testing.T) {
	prog, ix := loadIndex(t)
	cube := prog.Universe.LookupNamed("Cube").DeclaredMethod("area")

	ripple, err := ix.RippleMethods(context.Background(), cube)
	require.NoError(t, err)
	assert.Equal(t, []string{"Circle.area", "Cube.area", "Shape.area", "Square.area"}, keys(ripple))

	ripple, err = ix.RippleMethods(context.Background(), prog.Funcs["total"])
	require.NoError(t, err)
	assert.Equal(t, []string{"func total"}, keys(ripple))
}

func TestFindReferences(t *testing.T) {
	prog, ix := loadIndex(t)
	side := prog.Universe.LookupNamed("Square").DeclaredField("side")
	require.NotNil(t, side)

	occ, err := ix.FindReferences(context.Background(), []search.Element{side}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"shapes.ts", "use.ts"}, occ.Units())
	// declaration plus four reads
	assert.Len(t, occ["shapes.ts"], 5)
	require.Len(t, occ["use.ts"], 1)
	assert.Equal(t, "side", string(prog.Unit("use.ts").Text(occ["use.ts"][0])))

	occ, err = ix.FindReferences(context.Background(), []search.Element{side}, search.Scope{"use.ts"})
	require.NoError(t, err)
	assert.Equal(t, []string{"use.ts"}, occ.Units())
}

func TestFindMethodReferences(t *testing.T) {
	prog, ix := loadIndex(t)
	ripple, err := ix.RippleMethods(context.Background(), prog.Universe.LookupNamed("Shape").DeclaredMethod("area"))
	require.NoError(t, err)

	elems := make([]search.Element, len(ripple))
	for i, m := range ripple {
		elems[i] = m
	}
	occ, err := ix.FindReferences(context.Background(), elems, nil)
	require.NoError(t, err)
	assert.Len(t, occ["shapes.ts"], 4)
	assert.Len(t, occ["use.ts"], 2)
}

func TestFindReferencesCanceled(t *testing.T) {
	prog, ix := loadIndex(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ix.FindReferences(ctx, []search.Element{prog.Funcs["total"]}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
