package generalize

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/cottand/gentype/constraints"
	"github.com/cottand/gentype/frontend/ast"
	"github.com/cottand/gentype/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// hierarchy is Object <- Animal <- Dog, with Dog also implementing Pet.
type hierarchy struct {
	object, animal, dog, pet *types.Named
}

func newHierarchy() hierarchy {
	u := types.NewUniverse()
	pet := &types.Named{Name: "Pet", Kind: types.KindInterface}
	animal := &types.Named{Name: "Animal", Kind: types.KindClass, Super: u.Object}
	dog := &types.Named{Name: "Dog", Kind: types.KindClass, Super: animal, Interfaces: []*types.Named{pet}}
	return hierarchy{object: u.Object, animal: animal, dog: dog, pet: pet}
}

func expr(name string, pos int, t types.Type) constraints.ExpressionVariable {
	return constraints.ExpressionVariable{Unit: name, Range: ast.RangeFrom(pos, 1), T: t}
}

func simple(op constraints.Op, left, right constraints.Variable) *constraints.SimpleConstraint {
	return &constraints.SimpleConstraint{Left: left, Right: right, Op: op}
}

func hashes(s *variableSet) []string {
	var result []string
	for v := range s.Items() {
		result = append(result, v.Hash())
	}
	return result
}

func TestClosureFollowsEqualityBothWays(t *testing.T) {
	h := newHierarchy()
	a, b, c, d := expr("u", 1, h.dog), expr("u", 2, h.dog), expr("u", 3, h.dog), expr("u", 4, h.dog)
	cs := []constraints.Constraint{
		simple(constraints.Equals, a, b),
		simple(constraints.Defines, c, b),
		simple(constraints.Subtype, c, d),
	}

	fromA, err := relevanceClosure(context.Background(), a, cs, discard)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.Hash(), b.Hash(), c.Hash()}, hashes(fromA))

	fromC, err := relevanceClosure(context.Background(), c, cs, discard)
	require.NoError(t, err)
	assert.ElementsMatch(t, hashes(fromA), hashes(fromC))

	fromD, err := relevanceClosure(context.Background(), d, cs, discard)
	require.NoError(t, err)
	assert.Equal(t, []string{d.Hash()}, hashes(fromD), "subtype constraints do not propagate relevance")
}

func TestClosureStopsAtDeclaredTypes(t *testing.T) {
	h := newHierarchy()
	a, b := expr("u", 1, h.dog), expr("u", 2, h.dog)
	shared := constraints.TypeVariable(h.dog)
	cs := []constraints.Constraint{
		simple(constraints.Defines, a, shared),
		simple(constraints.Defines, b, shared),
	}
	r, err := relevanceClosure(context.Background(), a, cs, discard)
	require.NoError(t, err)
	assert.Equal(t, []string{a.Hash()}, hashes(r))
}

func TestClosureCanceled(t *testing.T) {
	h := newHierarchy()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := relevanceClosure(ctx, expr("u", 1, h.dog), nil, discard)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerifier(t *testing.T) {
	h := newHierarchy()
	x := expr("u", 1, h.dog)
	other := expr("u", 9, h.dog)
	r := constraints.NewVariableSet(1)
	r.Insert(x)

	accepted := func(cs ...constraints.Constraint) []string {
		v := &verifier{object: h.object, relevant: relevantConstraints(cs, r), r: r, logger: discard}
		result, err := v.acceptedTypes(context.Background(), h.dog)
		require.NoError(t, err)
		var names []string
		for _, n := range result {
			names = append(names, n.Name)
		}
		return names
	}

	toAnimal := simple(constraints.Subtype, x, constraints.TypeVariable(h.animal))
	toPet := simple(constraints.Subtype, x, constraints.TypeVariable(h.pet))
	fromOther := simple(constraints.Subtype, other, x)

	assert.Equal(t, []string{"Animal", "Pet", "Object"}, accepted())
	assert.Equal(t, []string{"Animal", "Pet", "Object"}, accepted(fromOther), "lower bounds are not checked")
	assert.Equal(t, []string{"Animal"}, accepted(toAnimal))
	assert.Empty(t, accepted(toAnimal, toPet))

	either := &constraints.CompositeOrConstraint{Components: []*constraints.SimpleConstraint{toAnimal, toPet}}
	assert.Equal(t, []string{"Animal", "Pet"}, accepted(either))

	// more constraints never accept more types
	for _, extra := range []constraints.Constraint{toAnimal, toPet, either, fromOther} {
		assert.Subset(t, accepted(), accepted(extra))
		assert.Subset(t, accepted(extra), accepted(extra, toAnimal))
	}
}

func TestRelevantConstraints(t *testing.T) {
	h := newHierarchy()
	x, y := expr("u", 1, h.dog), expr("u", 2, h.animal)
	null := constraints.ExpressionVariable{Unit: "u", Range: ast.RangeFrom(3, 4), T: types.NullType, Null: true}
	r := constraints.NewVariableSet(1)
	r.Insert(x)

	kept := simple(constraints.Subtype, x, y)
	cs := []constraints.Constraint{
		kept,
		simple(constraints.Equals, x, y),
		simple(constraints.Subtype, x, x),
		simple(constraints.Subtype, null, x),
		simple(constraints.Subtype, y, y),
	}
	assert.Equal(t, []constraints.Constraint{kept}, relevantConstraints(cs, r))
}

func TestTypeSites(t *testing.T) {
	h := newHierarchy()
	x := constraints.ExpressionVariable{Unit: "a.ts", Range: ast.RangeFrom(10, 3), Binding: "var x", T: h.dog}
	annotation := constraints.DeclaredTypeVariable{T: h.dog, Unit: "a.ts", Range: ast.RangeFrom(14, 3), HasSite: true}
	r := constraints.NewVariableSet(1)
	r.Insert(x)

	cs := []constraints.Constraint{
		simple(constraints.Defines, x, annotation),
		simple(constraints.Defines, x, annotation),
		simple(constraints.Defines, x, constraints.TypeVariable(h.dog)),
		simple(constraints.Defines, expr("b.ts", 1, h.dog), annotation),
	}
	assert.Equal(t, map[string][]ast.Range{"a.ts": {ast.RangeFrom(14, 3)}}, typeSites(r, cs))

	groups := groupByUnit(r)
	require.Contains(t, groups, "a.ts")
	assert.Equal(t, 1, groups["a.ts"].Size())
}
