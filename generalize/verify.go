package generalize

import (
	"cmp"
	"context"
	"log/slog"

	"github.com/cottand/gentype/constraints"
	"github.com/cottand/gentype/frontend/types"
	"github.com/hashicorp/go-set/v3"
)

// relevantConstraints selects the constraints that restrict the type of the variables in r.
func relevantConstraints(cs []constraints.Constraint, r *variableSet) []constraints.Constraint {
	var result []constraints.Constraint
	for _, c := range cs {
		switch c := c.(type) {
		case *constraints.SimpleConstraint:
			if c.Op != constraints.Subtype || c.Degenerate() || constraints.IsNullLiteral(c.Left) {
				continue
			}
			if r.Contains(c.Left) || r.Contains(c.Right) {
				result = append(result, c)
			}
		case *constraints.CompositeOrConstraint:
			for _, component := range c.Components {
				if r.Contains(component.Left) {
					result = append(result, c)
					break
				}
			}
		}
	}
	return result
}

// verifier decides which supertypes of the original type satisfy the relevant constraints.
type verifier struct {
	object   *types.Named
	relevant []constraints.Constraint
	r        *variableSet
	logger   *slog.Logger
}

// accepts reports whether candidate can stand in for every variable of r.
func (v *verifier) accepts(candidate *types.Named) bool {
	for _, c := range v.relevant {
		switch c := c.(type) {
		case *constraints.SimpleConstraint:
			if !v.r.Contains(c.Left) {
				continue
			}
			if !types.IsSubTypeOf(candidate, c.Right.Type(), v.object) {
				v.logger.Debug("candidate rejected", "candidate", candidate.Name, "constraint", c)
				return false
			}
		case *constraints.CompositeOrConstraint:
			satisfied := false
			for _, component := range c.Components {
				if v.r.Contains(component.Left) && types.IsSubTypeOf(candidate, component.Right.Type(), v.object) {
					satisfied = true
					break
				}
			}
			if !satisfied {
				v.logger.Debug("candidate rejected", "candidate", candidate.Name, "constraint", c)
				return false
			}
		}
	}
	return true
}

// acceptedTypes returns the proper supertypes of original that v accepts, most specific first.
func (v *verifier) acceptedTypes(ctx context.Context, original *types.Named) ([]*types.Named, error) {
	accepted := set.NewTreeSet[*types.Named](v.bySpecificity)
	for _, candidate := range types.AllSuperTypes(original, v.object) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if candidate.Name == original.Name {
			continue
		}
		if v.accepts(candidate) {
			accepted.Insert(candidate)
		}
	}
	return accepted.Slice(), nil
}

// bySpecificity orders deeper types first, then by name.
func (v *verifier) bySpecificity(a, b *types.Named) int {
	if c := cmp.Compare(types.Depth(b, v.object), types.Depth(a, v.object)); c != 0 {
		return c
	}
	return cmp.Compare(a.Name, b.Name)
}
