package generalize

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/cottand/gentype/constraints"
	"github.com/cottand/gentype/frontend"
	"github.com/cottand/gentype/frontend/ast"
	"github.com/cottand/gentype/frontend/types"
	"github.com/cottand/gentype/internal/log"
	"github.com/cottand/gentype/search"
	"github.com/cottand/gentype/status"
	"github.com/cottand/gentype/util"
	"github.com/google/uuid"
)

// Options tune a refactoring run.
type Options struct {
	// FilterUnrelated drops every constraint whose sides both have a type other than the
	// selected one. Collection gets faster, at the price of missing some relevant constraints.
	FilterUnrelated bool
	// Logger defaults to the shared logger
	Logger *slog.Logger
}

// Refactoring computes the types a declaration can be generalized to.
//
// A Refactoring holds the constraint cache of one run and is not safe for concurrent use.
type Refactoring struct {
	program *frontend.Program
	engine  search.Engine
	desc    Descriptor
	opts    Options
	runID   uuid.UUID
	logger  *slog.Logger

	cache     *constraints.Cache
	factory   *constraints.Factory
	collector *constraints.Collector

	selection   *Selection
	checked     bool
	checkStatus *status.Status

	seed       constraints.Variable
	relevant   *variableSet
	affected   []string
	considered []constraints.Constraint
	accepted   []*types.Named
	computed   bool
}

func NewRefactoring(program *frontend.Program, engine search.Engine, desc Descriptor, opts Options) *Refactoring {
	runID := uuid.New()
	logger := opts.Logger
	if logger == nil {
		logger = log.DefaultLogger
	}
	logger = logger.With("run", runID.String())
	return &Refactoring{
		program: program,
		engine:  engine,
		desc:    desc,
		opts:    opts,
		runID:   runID,
		logger:  logger,
		cache:   constraints.NewCache(),
	}
}

func (r *Refactoring) RunID() uuid.UUID { return r.runID }

func (r *Refactoring) Descriptor() Descriptor { return r.desc }

// Selection is nil until the initial conditions pass.
func (r *Refactoring) Selection() *Selection { return r.selection }

// Seed is the constraint variable the selection resolved to, nil before a computation.
func (r *Refactoring) Seed() constraints.Variable { return r.seed }

// CheckInitialConditions classifies the selection and rejects declarations whose type cannot
// be generalized. The result is computed once per Refactoring.
func (r *Refactoring) CheckInitialConditions(ctx context.Context) *status.Status {
	if r.checked {
		return r.checkStatus
	}
	r.checked = true
	unit := r.program.Unit(r.desc.Input)
	if unit == nil {
		r.checkStatus = fatal(status.InvalidSelection, "unit %s is not part of the program", r.desc.Input)
		return r.checkStatus
	}
	sel, st := classify(unit, r.desc.Offset, r.desc.Length)
	if st.HasFatal() {
		r.checkStatus = st
		return st
	}
	if st := validate(sel, r.program.Universe.Object); st.HasFatal() {
		r.checkStatus = st
		return st
	}
	r.selection = sel
	r.logger.Info("selection classified", "selection", sel.String(), "type", sel.Type.TypeName(), "unit", sel.Unit)
	if sel.Annotation == nil {
		r.checkStatus = r.checkStatus.With(status.NewWarning(status.None, "%s has no type annotation to rewrite", sel.Name))
	}
	return r.checkStatus
}

// ComputeAcceptedTypes returns the proper supertypes of the selected type that every use of
// the selection allows, most specific first.
//
// A fatal status means no answer could be computed. Internal failures are reported as
// non-fatal entries alongside whatever could be computed, and so are constraints ignored
// because a value has an unresolved type. Cancellation returns an error
// matching ErrCanceled and no result.
func (r *Refactoring) ComputeAcceptedTypes(ctx context.Context) ([]*types.Named, *status.Status, error) {
	st := r.CheckInitialConditions(ctx)
	if st.HasFatal() {
		return nil, st, nil
	}
	sel := r.selection

	if r.collector == nil {
		r.factory = constraints.NewFactory(constraints.DefaultFilter)
		if r.opts.FilterUnrelated {
			r.factory = constraints.NewFactory(constraints.DefaultFilter, constraints.UnrelatedFilter(sel.Type))
		}
		r.collector = constraints.NewCollector(r.program.Universe, r.engine, r.factory).
			WithLogger(r.logger.With("section", log.SectionCollect))
	}

	roots, affectedStatus, err := r.affectedRoots(ctx, sel)
	if err != nil {
		return nil, nil, canceled(err)
	}
	st = st.Merge(affectedStatus)

	var all []constraints.Constraint
	units := make([]string, 0, len(roots))
	for unit := range roots {
		units = append(units, unit)
	}
	slices.Sort(units)
	for _, unit := range units {
		cs, err := r.unitConstraints(ctx, unit, roots[unit])
		if err != nil {
			if isCanceled(ctx, err) {
				return nil, nil, canceled(err)
			}
			st = st.With(status.NewInternal(err, "collecting constraints of "+unit))
			continue
		}
		all = append(all, cs...)
	}
	if unresolved := r.factory.Unresolved(); len(unresolved) > 0 {
		st = st.With(status.NewWarning(status.UnresolvedType,
			"ignored constraints on %d values of unresolved type: %s", len(unresolved), joinVariables(unresolved)))
	}

	seed := r.resolve(ctx, sel, roots[sel.Unit])
	if seed == nil {
		return nil, st.With(status.NewFatal(status.NoMatchingConstraintVariable,
			"no constraint mentions %s", sel.String())), nil
	}
	r.seed = seed

	closureLogger := r.logger.With("section", log.SectionClosure)
	relevant, err := relevanceClosure(ctx, seed, all, closureLogger)
	if err != nil {
		return nil, nil, canceled(err)
	}

	v := &verifier{
		object:   r.program.Universe.Object,
		relevant: relevantConstraints(all, relevant),
		r:        relevant,
		logger:   r.logger.With("section", log.SectionVerify),
	}
	accepted, err := v.acceptedTypes(ctx, sel.Named())
	if err != nil {
		return nil, nil, canceled(err)
	}

	r.relevant = relevant
	r.affected = units
	r.considered = all
	r.accepted = accepted
	r.computed = true
	r.logger.Info("accepted types computed",
		"selection", sel.String(),
		"relevant", relevant.Size(),
		"constraints", len(all),
		"units", len(units),
		"accepted", types.JoinNames(accepted),
	)
	return accepted, st, nil
}

// affectedRoots returns, per affected unit, the nodes whose constraints are collected.
// For a method signature only the methods containing a reference are walked, unless a
// reference lies outside of any method.
func (r *Refactoring) affectedRoots(ctx context.Context, sel *Selection) (map[string][]ast.Node, *status.Status, error) {
	selectionUnit := r.program.Unit(sel.Unit)
	roots := map[string][]ast.Node{sel.Unit: {selectionUnit}}

	var elems []search.Element
	switch sel.Kind {
	case ParameterSelection, ReturnSelection:
		ripple, err := r.engine.RippleMethods(ctx, sel.Method)
		if err != nil {
			if isCanceled(ctx, err) {
				return nil, nil, err
			}
			return roots, (&status.Status{}).With(status.NewInternal(err, "finding ripple methods")), nil
		}
		for _, m := range ripple {
			elems = append(elems, m)
		}
	case FieldSelection:
		elems = append(elems, sel.Field)
	default:
		return roots, nil, nil
	}

	occurrences, err := r.engine.FindReferences(ctx, elems, nil)
	if err != nil {
		if isCanceled(ctx, err) {
			return nil, nil, err
		}
		return roots, (&status.Status{}).With(status.NewInternal(err, "finding references")), nil
	}
	r.logger.Debug("affected units", "selection", sel.String(), "units", len(occurrences), "section", log.SectionSearch)

	roots = make(map[string][]ast.Node, len(occurrences)+1)
	if _, ok := occurrences[sel.Unit]; !ok {
		occurrences[sel.Unit] = []ast.Range{sel.Range}
	}
	for unitName, ranges := range occurrences {
		unit := r.program.Unit(unitName)
		if unit == nil {
			continue
		}
		if sel.IsMethod() {
			roots[unitName] = restrictTo(unit, ranges)
		} else {
			roots[unitName] = []ast.Node{unit}
		}
	}
	return roots, nil, nil
}

// restrictTo returns the method declarations enclosing ranges, or the whole unit if one of the
// ranges is outside of every method.
func restrictTo(unit *ast.Unit, ranges []ast.Range) []ast.Node {
	var roots []ast.Node
	seen := make(map[*ast.MethodDecl]bool)
	for _, rng := range ranges {
		m := ast.EnclosingMethod(ast.PathTo(unit, rng))
		if m == nil {
			return []ast.Node{unit}
		}
		if !seen[m] {
			seen[m] = true
			roots = append(roots, m)
		}
	}
	return outermost(roots)
}

// outermost drops methods nested in another method of roots, whose constraints the outer
// walk already produces.
func outermost(roots []ast.Node) []ast.Node {
	var result []ast.Node
	for _, candidate := range roots {
		nested := false
		cr := ast.RangeOf(candidate)
		for _, other := range roots {
			or := ast.RangeOf(other)
			if other != candidate && or.Covers(cr.PosStart, cr.PosEnd) {
				nested = true
				break
			}
		}
		if !nested {
			result = append(result, candidate)
		}
	}
	slices.SortFunc(result, func(a, b ast.Node) int { return cmp.Compare(a.Pos(), b.Pos()) })
	return result
}

func (r *Refactoring) unitConstraints(ctx context.Context, unit string, roots []ast.Node) ([]constraints.Constraint, error) {
	if cached, ok := r.cache.Get(unit); ok {
		return constraints.Slice(cached), nil
	}
	cs, err := r.collector.Collect(ctx, unit, roots...)
	if err != nil {
		return nil, err
	}
	return constraints.Slice(r.cache.Put(unit, cs)), nil
}

// resolve finds the constraint variable standing for sel among the constraints of its unit.
func (r *Refactoring) resolve(ctx context.Context, sel *Selection, roots []ast.Node) constraints.Variable {
	cs, err := r.unitConstraints(ctx, sel.Unit, roots)
	if err != nil {
		return nil
	}
	for _, c := range cs {
		simple, ok := c.(*constraints.SimpleConstraint)
		if !ok {
			continue
		}
		if sel.Matches(simple.Left) {
			return simple.Left
		}
		if sel.Matches(simple.Right) {
			return simple.Right
		}
	}
	return nil
}

// RelevantSitesByUnit groups the expression and return variables whose type is tied to the
// selection by the unit they appear in. Each group is sorted by identity.
func (r *Refactoring) RelevantSitesByUnit() (map[string][]constraints.Variable, error) {
	if !r.computed {
		return nil, ErrNotComputed
	}
	result := make(map[string][]constraints.Variable)
	for unit, vars := range groupByUnit(r.relevant) {
		list := vars.Slice()
		slices.SortFunc(list, util.ComparingHashable[constraints.Variable, string])
		result[unit] = list
	}
	return result, nil
}

// TypeSites returns, per unit, the ranges of the type annotations that would be rewritten
// to change the type of the selection.
func (r *Refactoring) TypeSites() (map[string][]ast.Range, error) {
	if !r.computed {
		return nil, ErrNotComputed
	}
	return typeSites(r.relevant, r.considered), nil
}

// AffectedUnits are the units whose constraints were considered, sorted.
func (r *Refactoring) AffectedUnits() ([]string, error) {
	if !r.computed {
		return nil, ErrNotComputed
	}
	return r.affected, nil
}

// IsAccepted reports whether the type called name was accepted by the last computation.
func (r *Refactoring) IsAccepted(name string) (bool, error) {
	if !r.computed {
		return false, ErrNotComputed
	}
	return slices.ContainsFunc(r.accepted, func(t *types.Named) bool { return t.Name == name }), nil
}

func joinVariables(vars []constraints.Variable) string {
	names := make([]string, 0, len(vars))
	for _, v := range vars {
		names = append(names, v.String())
	}
	return strings.Join(names, ", ")
}

func isCanceled(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
