package generalize

import (
	"cmp"
	"slices"

	"github.com/cottand/gentype/constraints"
	"github.com/cottand/gentype/frontend/ast"
)

// unitOf is the unit containing the program site of v, or "" for variables without one.
func unitOf(v constraints.Variable) string {
	switch v := v.(type) {
	case constraints.ExpressionVariable:
		return v.Unit
	case constraints.ReturnVariable:
		return v.Method.Site.Unit
	}
	return ""
}

// groupByUnit groups the expression and return variables of r by the unit they appear in.
func groupByUnit(r *variableSet) map[string]*variableSet {
	result := make(map[string]*variableSet)
	for v := range r.Items() {
		unit := unitOf(v)
		if unit == "" {
			continue
		}
		if _, ok := result[unit]; !ok {
			result[unit] = constraints.NewVariableSet(4)
		}
		result[unit].Insert(v)
	}
	return result
}

// typeSites returns, per unit, the annotations that declare the type of a variable in r.
func typeSites(r *variableSet, cs []constraints.Constraint) map[string][]ast.Range {
	result := make(map[string][]ast.Range)
	for _, c := range cs {
		simple, ok := c.(*constraints.SimpleConstraint)
		if !ok || simple.Op != constraints.Defines || !r.Contains(simple.Left) {
			continue
		}
		switch simple.Left.(type) {
		case constraints.ExpressionVariable, constraints.ReturnVariable:
		default:
			continue
		}
		declared, ok := simple.Right.(constraints.DeclaredTypeVariable)
		if !ok || !declared.HasSite {
			continue
		}
		result[declared.Unit] = append(result[declared.Unit], declared.Range)
	}
	for unit, ranges := range result {
		slices.SortFunc(ranges, func(a, b ast.Range) int { return cmp.Compare(a.PosStart, b.PosStart) })
		result[unit] = slices.Compact(ranges)
	}
	return result
}
