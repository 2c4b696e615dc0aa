package constraints

import (
	"cmp"
	"slices"

	"github.com/cottand/gentype/frontend/types"
	"github.com/hashicorp/go-set/v3"
)

// Filter decides whether a constraint between left and right is kept.
type Filter func(left, right Variable) bool

// DefaultFilter drops constraints between two primitives and between a variable and itself,
// neither of which can influence a class type.
func DefaultFilter(left, right Variable) bool {
	if left.Hash() == right.Hash() {
		return false
	}
	return !(types.IsPrimitive(left.Type()) && types.IsPrimitive(right.Type()))
}

// UnrelatedFilter drops constraints where neither side has the selected type.
//
// This prunes the graph aggressively and can miss constraints that reach the selection
// through an intermediate variable of another type.
func UnrelatedFilter(selected types.Type) Filter {
	return func(left, right Variable) bool {
		return types.Equal(left.Type(), selected) || types.Equal(right.Type(), selected)
	}
}

// Factory builds constraints, dropping those its filters reject and those with a missing side.
// A side whose type could not be resolved counts as missing.
type Factory struct {
	filters    []Filter
	unresolved *set.HashSet[Variable, string]
}

func NewFactory(filters ...Filter) *Factory {
	return &Factory{filters: filters, unresolved: NewVariableSet(0)}
}

func (f *Factory) keep(left, right Variable) bool {
	if left == nil || right == nil {
		return false
	}
	if f.untyped(left, right) {
		return false
	}
	for _, filter := range f.filters {
		if !filter(left, right) {
			return false
		}
	}
	return true
}

func (f *Factory) untyped(vars ...Variable) bool {
	found := false
	for _, v := range vars {
		if v.Type() == nil {
			f.unresolved.Insert(v)
			found = true
		}
	}
	return found
}

// Unresolved returns the variables of unresolved type that caused constraints to be dropped,
// sorted by identity.
func (f *Factory) Unresolved() []Variable {
	result := f.unresolved.Slice()
	slices.SortFunc(result, func(a, b Variable) int { return cmp.Compare(a.Hash(), b.Hash()) })
	return result
}

// Simple returns the constraint left op right, or nil if it is dropped.
func (f *Factory) Simple(op Op, left, right Variable) *SimpleConstraint {
	if !f.keep(left, right) {
		return nil
	}
	return &SimpleConstraint{Left: left, Right: right, Op: op}
}

// Or combines components into a disjunction. Nil components are ignored; a single remaining
// component is returned as is, and nil is returned when none remain.
func (f *Factory) Or(components ...*SimpleConstraint) Constraint {
	var kept []*SimpleConstraint
	for _, c := range components {
		if c != nil {
			kept = append(kept, c)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return &CompositeOrConstraint{Components: kept}
}
