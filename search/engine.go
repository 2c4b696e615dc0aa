package search

import (
	"context"

	"github.com/cottand/gentype/frontend/ast"
	"github.com/cottand/gentype/frontend/types"
)

// Element is a searchable program binding: *types.Method, *types.Field or *types.Variable.
type Element interface {
	Key() string
}

// Scope restricts a search to the named units. A nil Scope is the whole program.
type Scope []string

func (s Scope) includes(unit string) bool {
	if s == nil {
		return true
	}
	for _, u := range s {
		if u == unit {
			return true
		}
	}
	return false
}

// Occurrences are source ranges grouped by unit name.
type Occurrences map[string][]ast.Range

// Units returns the units with at least one occurrence, in no particular order.
func (o Occurrences) Units() []string {
	units := make([]string, 0, len(o))
	for u := range o {
		units = append(units, u)
	}
	return units
}

// Engine is the program-wide search service the refactoring depends on.
type Engine interface {
	// FindReferences returns the declarations of and references to elems within scope
	FindReferences(ctx context.Context, elems []Element, scope Scope) (Occurrences, error)
	// RippleMethods returns m together with every method that must change signature along with it:
	// the methods it overrides, the methods overriding those, transitively
	RippleMethods(ctx context.Context, m *types.Method) ([]*types.Method, error)
	// Subtypes returns every type that transitively extends or implements t
	Subtypes(t *types.Named) []*types.Named
}
