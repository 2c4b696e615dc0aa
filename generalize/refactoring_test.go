package generalize_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cottand/gentype/frontend"
	"github.com/cottand/gentype/frontend/ast"
	"github.com/cottand/gentype/frontend/types"
	"github.com/cottand/gentype/generalize"
	"github.com/cottand/gentype/search"
	"github.com/cottand/gentype/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
)

type fixture struct {
	program *frontend.Program
	index   *search.Index
}

func loadFixture(t *testing.T, name string) fixture {
	t.Helper()
	archive, err := txtar.ParseFile(filepath.Join("testdata", name+".txtar"))
	require.NoError(t, err)
	program, err := frontend.LoadArchive(context.Background(), archive)
	require.NoError(t, err)
	return fixture{program: program, index: search.NewIndex(program)}
}

// selecting returns a descriptor for target inside the first occurrence of around in unit.
func (f fixture) selecting(t *testing.T, unit, around, target string) generalize.Descriptor {
	t.Helper()
	u := f.program.Unit(unit)
	require.NotNil(t, u, unit)
	at := strings.Index(string(u.Source), around)
	require.GreaterOrEqualf(t, at, 0, "%q not found in %s", around, unit)
	inner := strings.Index(around, target)
	require.GreaterOrEqualf(t, inner, 0, "%q not found in %q", target, around)
	return generalize.Descriptor{Input: unit, Offset: at + inner, Length: len(target)}
}

func (f fixture) refactoring(desc generalize.Descriptor, opts generalize.Options) *generalize.Refactoring {
	return generalize.NewRefactoring(f.program, f.index, desc, opts)
}

func (f fixture) accepted(t *testing.T, desc generalize.Descriptor, opts generalize.Options) []string {
	t.Helper()
	r := f.refactoring(desc, opts)
	accepted, st, err := r.ComputeAcceptedTypes(context.Background())
	require.NoError(t, err)
	require.False(t, st.HasFatal(), "%v", st)
	return names(accepted)
}

func names(ts []*types.Named) []string {
	result := make([]string, 0, len(ts))
	for _, t := range ts {
		result = append(result, t.Name)
	}
	return result
}

func TestLocalWithoutUses(t *testing.T) {
	f := loadFixture(t, "local")
	desc := f.selecting(t, "zoo.ts", "let pet: Animal = new Dog();\n  pet =", "pet")

	r := f.refactoring(desc, generalize.Options{})
	accepted, st, err := r.ComputeAcceptedTypes(context.Background())
	require.NoError(t, err)
	assert.True(t, st.IsOK(), "%v", st)
	assert.Equal(t, []string{"Named", "Object"}, names(accepted))
	assert.Equal(t, generalize.LocalSelection, r.Selection().Kind)

	ok, err := r.IsAccepted("Cat")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = r.IsAccepted("Animal")
	require.NoError(t, err)
	assert.False(t, ok, "the original type is never accepted")

	sites, err := r.RelevantSitesByUnit()
	require.NoError(t, err)
	assert.Len(t, sites["zoo.ts"], 2, "the variable and the value assigned to it")

	typeSites, err := r.TypeSites()
	require.NoError(t, err)
	require.Len(t, typeSites["zoo.ts"], 1)
	unit := f.program.Unit("zoo.ts")
	assert.Equal(t, "Animal", unit.Text(typeSites["zoo.ts"][0]))
}

func TestLocalRestrictedByCall(t *testing.T) {
	f := loadFixture(t, "local")
	desc := f.selecting(t, "zoo.ts", "let pet: Animal = new Dog();\n  return", "pet")
	assert.Equal(t, []string{"Named"}, f.accepted(t, desc, generalize.Options{}))
}

func TestParameterPassedToWiderFormal(t *testing.T) {
	f := loadFixture(t, "parameter")
	desc := f.selecting(t, "process.ts", "process(items: List)", "items")

	r := f.refactoring(desc, generalize.Options{})
	accepted, st, err := r.ComputeAcceptedTypes(context.Background())
	require.NoError(t, err)
	require.False(t, st.HasFatal(), "%v", st)
	assert.Contains(t, names(accepted), "Collection")
	assert.NotContains(t, names(accepted), "Sized")
	assert.NotContains(t, names(accepted), "List")
	assert.Equal(t, generalize.ParameterSelection, r.Selection().Kind)

	units, err := r.AffectedUnits()
	require.NoError(t, err)
	assert.Equal(t, []string{"process.ts"}, units)
}

func TestReturnIntoIncompatibleCallSites(t *testing.T) {
	f := loadFixture(t, "return")

	t.Run("walker and swimmer", func(t *testing.T) {
		desc := f.selecting(t, "birds.ts", "function make()", "make")
		r := f.refactoring(desc, generalize.Options{})
		accepted, st, err := r.ComputeAcceptedTypes(context.Background())
		require.NoError(t, err)
		require.False(t, st.HasFatal(), "%v", st)
		assert.Empty(t, accepted)
		assert.Equal(t, generalize.ReturnSelection, r.Selection().Kind)

		units, err := r.AffectedUnits()
		require.NoError(t, err)
		assert.Equal(t, []string{"birds.ts", "pond.ts"}, units)

		sites, err := r.RelevantSitesByUnit()
		require.NoError(t, err)
		assert.Len(t, sites["pond.ts"], 2, "both calls of make")
		assert.Len(t, sites["birds.ts"], 1, "the return of make")

		typeSites, err := r.TypeSites()
		require.NoError(t, err)
		require.Len(t, typeSites["birds.ts"], 1)
		assert.Equal(t, "Duck", f.program.Unit("birds.ts").Text(typeSites["birds.ts"][0]))
	})

	t.Run("walker only", func(t *testing.T) {
		desc := f.selecting(t, "birds.ts", "function hatch()", "hatch")
		assert.Equal(t, []string{"Walker"}, f.accepted(t, desc, generalize.Options{}))
	})
}

func TestPolymorphicCallAcceptsAnyOverride(t *testing.T) {
	f := loadFixture(t, "override")
	desc := f.selecting(t, "kennel.ts", "let b: Bone", "b")
	assert.Equal(t, []string{"Food", "Treat"}, f.accepted(t, desc, generalize.Options{}))
}

func TestFieldUsedInAnotherUnit(t *testing.T) {
	f := loadFixture(t, "field")
	desc := f.selecting(t, "model.ts", "motor: Motor", "motor")

	r := f.refactoring(desc, generalize.Options{})
	accepted, st, err := r.ComputeAcceptedTypes(context.Background())
	require.NoError(t, err)
	require.False(t, st.HasFatal(), "%v", st)
	assert.Equal(t, []string{"Engine"}, names(accepted))

	units, err := r.AffectedUnits()
	require.NoError(t, err)
	assert.Equal(t, []string{"garage.ts", "model.ts"}, units)

	sites, err := r.RelevantSitesByUnit()
	require.NoError(t, err)
	assert.Len(t, sites["model.ts"], 1)
}

func TestRejectedSelections(t *testing.T) {
	f := loadFixture(t, "rejected")

	tests := []struct {
		name   string
		around string
		target string
		code   status.Code
	}{
		{"array variable", "let list: Dog[]", "list", status.ArrayType},
		{"array element", "list: Dog[]", "Dog", status.ArrayType},
		{"primitive", "let n: number", "n", status.PrimitiveType},
		{"declared together", "let a: Dog = new Dog(), b", "a", status.MultiDeclaration},
		{"whole multi declaration", "let a: Dog = new Dog(), b: Dog = new Dog()", "let a: Dog = new Dog(), b: Dog = new Dog()", status.MultiDeclaration},
		{"local type", "let h: Helper", "h", status.LocalType},
		{"member of local type", "pet: Dog", "pet", status.InsideLocalType},
		{"overrides ambient", "class Impl extends Base { run(d: Dog)", "d: Dog", status.OverriddenAmbientMethod},
		{"ambient", "declare class Base { run(d: Dog)", "d: Dog", status.OverriddenAmbientMethod},
		{"expression", "n + 1", "n + 1", status.UnsupportedNode},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			desc := f.selecting(t, "rejected.ts", test.around, test.target)
			r := f.refactoring(desc, generalize.Options{})

			st := r.CheckInitialConditions(context.Background())
			entry, ok := st.Fatal()
			require.True(t, ok, "expected a fatal status, got %v", st)
			assert.Equal(t, test.code, entry.Code, entry.Message)
			assert.Nil(t, r.Selection())

			accepted, again, err := r.ComputeAcceptedTypes(context.Background())
			require.NoError(t, err)
			assert.Nil(t, accepted)
			assert.True(t, again.HasFatal())

			_, err = r.RelevantSitesByUnit()
			assert.ErrorIs(t, err, generalize.ErrNotComputed)
		})
	}
}

func TestInvalidSelection(t *testing.T) {
	f := loadFixture(t, "rejected")

	tests := []struct {
		name string
		desc generalize.Descriptor
	}{
		{"unknown unit", generalize.Descriptor{Input: "missing.ts"}},
		{"out of range", generalize.Descriptor{Input: "rejected.ts", Offset: 1 << 20, Length: 3}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			st := f.refactoring(test.desc, generalize.Options{}).CheckInitialConditions(context.Background())
			entry, ok := st.Fatal()
			require.True(t, ok)
			assert.Equal(t, status.InvalidSelection, entry.Code)
		})
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	f := loadFixture(t, "return")
	desc := f.selecting(t, "birds.ts", "function hatch()", "hatch")

	r := f.refactoring(desc, generalize.Options{})
	first, _, err := r.ComputeAcceptedTypes(context.Background())
	require.NoError(t, err)
	firstSites, err := r.RelevantSitesByUnit()
	require.NoError(t, err)

	second, _, err := r.ComputeAcceptedTypes(context.Background())
	require.NoError(t, err)
	secondSites, err := r.RelevantSitesByUnit()
	require.NoError(t, err)

	assert.Equal(t, names(first), names(second))
	assert.Equal(t, firstSites, secondSites)

	other := f.refactoring(desc, generalize.Options{})
	third, _, err := other.ComputeAcceptedTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, names(first), names(third))
	assert.NotEqual(t, r.RunID(), other.RunID())
}

func TestFilterUnrelatedOnlyWidens(t *testing.T) {
	for _, test := range []struct{ fixture, unit, around, target string }{
		{"parameter", "process.ts", "process(items: List)", "items"},
		{"local", "zoo.ts", "let pet: Animal = new Dog();\n  return", "pet"},
		{"field", "model.ts", "motor: Motor", "motor"},
	} {
		t.Run(test.fixture, func(t *testing.T) {
			f := loadFixture(t, test.fixture)
			desc := f.selecting(t, test.unit, test.around, test.target)
			full := f.accepted(t, desc, generalize.Options{})
			filtered := f.accepted(t, desc, generalize.Options{FilterUnrelated: true})
			// dropping constraints can only accept more: filtered is a superset of full
			assert.Subset(t, filtered, full, "a type accepted with every constraint must stay accepted")
		})
	}
}

func TestComputeCanceled(t *testing.T) {
	f := loadFixture(t, "parameter")
	desc := f.selecting(t, "process.ts", "process(items: List)", "items")
	r := f.refactoring(desc, generalize.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	accepted, _, err := r.ComputeAcceptedTypes(ctx)
	assert.Nil(t, accepted)
	assert.ErrorIs(t, err, generalize.ErrCanceled)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = r.TypeSites()
	assert.ErrorIs(t, err, generalize.ErrNotComputed)
	_, err = r.IsAccepted("Collection")
	assert.ErrorIs(t, err, generalize.ErrNotComputed)
}

func TestMissingAnnotationWarns(t *testing.T) {
	program, err := frontend.ParseSources(context.Background(), map[string][]byte{
		"infer.ts": []byte("class Animal {}\nclass Dog extends Animal {}\nfunction f(): void {\n  let d = new Dog();\n}\n"),
	})
	require.NoError(t, err)
	src := string(program.Unit("infer.ts").Source)
	desc := generalize.Descriptor{Input: "infer.ts", Offset: strings.Index(src, "d ="), Length: 1}

	r := generalize.NewRefactoring(program, search.NewIndex(program), desc, generalize.Options{})
	st := r.CheckInitialConditions(context.Background())
	assert.False(t, st.HasFatal())
	assert.Equal(t, status.Warning, st.Severity())

	accepted, _, err := r.ComputeAcceptedTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Animal", "Object"}, names(accepted))
}

func TestUnresolvedTypesAreIgnored(t *testing.T) {
	f := loadFixture(t, "unresolved")
	for _, around := range []string{
		"let d: Dog = new Dog();\n  h(d)",
		"let d: Dog = new Dog();\n  let m",
	} {
		t.Run(around, func(t *testing.T) {
			desc := f.selecting(t, "zoo.ts", around, "d")
			r := f.refactoring(desc, generalize.Options{})
			accepted, st, err := r.ComputeAcceptedTypes(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []string{"Animal", "Named", "Object"}, names(accepted))

			assert.True(t, st.IsOK(), "%v", st)
			require.Len(t, st.Entries(), 1)
			assert.Equal(t, status.Warning, st.Entries()[0].Severity)
			assert.Equal(t, status.UnresolvedType, st.Entries()[0].Code)
		})
	}
}

// failingSearch is an index whose reference search always fails.
type failingSearch struct {
	*search.Index
}

func (failingSearch) FindReferences(context.Context, []search.Element, search.Scope) (search.Occurrences, error) {
	return nil, errors.New("index unavailable")
}

func TestStatusDoesNotAccumulate(t *testing.T) {
	f := loadFixture(t, "field")
	desc := f.selecting(t, "model.ts", "motor: Motor", "motor")
	r := generalize.NewRefactoring(f.program, failingSearch{f.index}, desc, generalize.Options{})

	var counts []int
	for range 3 {
		_, st, err := r.ComputeAcceptedTypes(context.Background())
		require.NoError(t, err)
		require.False(t, st.HasFatal(), "%v", st)
		assert.Equal(t, status.Error, st.Severity())
		counts = append(counts, len(st.Entries()))
	}
	assert.Equal(t, []int{1, 1, 1}, counts)
	assert.Empty(t, r.CheckInitialConditions(context.Background()).Entries())
}

// misdirectedSearch reports every reference at one fixed place.
type misdirectedSearch struct {
	*search.Index
	unit string
	at   ast.Range
}

func (s misdirectedSearch) FindReferences(context.Context, []search.Element, search.Scope) (search.Occurrences, error) {
	return search.Occurrences{s.unit: {s.at}}, nil
}

func TestNoConstraintMentionsSelection(t *testing.T) {
	program, err := frontend.ParseSources(context.Background(), map[string][]byte{
		"take.ts": []byte(`class Animal {}
class Dog extends Animal {}
function take(d: Dog): void {}
function other(): void {
  let a: Animal = new Animal();
}
`),
	})
	require.NoError(t, err)
	src := string(program.Unit("take.ts").Source)
	desc := generalize.Descriptor{Input: "take.ts", Offset: strings.Index(src, "d: Dog"), Length: 1}
	elsewhere := ast.RangeFrom(strings.Index(src, "new Animal()"), len("new Animal()"))
	engine := misdirectedSearch{Index: search.NewIndex(program), unit: "take.ts", at: elsewhere}

	r := generalize.NewRefactoring(program, engine, desc, generalize.Options{})
	accepted, st, err := r.ComputeAcceptedTypes(context.Background())
	require.NoError(t, err)
	assert.Nil(t, accepted)
	entry, ok := st.Fatal()
	require.True(t, ok, "%v", st)
	assert.Equal(t, status.NoMatchingConstraintVariable, entry.Code)

	assert.False(t, r.CheckInitialConditions(context.Background()).HasFatal())
	_, err = r.TypeSites()
	assert.ErrorIs(t, err, generalize.ErrNotComputed)
}
