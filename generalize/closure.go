package generalize

import (
	"context"
	"log/slog"

	"github.com/cottand/gentype/constraints"
	"github.com/hashicorp/go-set/v3"
)

type variableSet = set.HashSet[constraints.Variable, string]

// followed reports whether the closure may pass through v. Declared types are shared by
// every variable of that type and would link unrelated declarations.
func followed(v constraints.Variable) bool {
	switch v.(type) {
	case constraints.ExpressionVariable, constraints.ParameterVariable, constraints.ReturnVariable:
		return true
	}
	return false
}

// equalityGraph indexes the Equals and Defines edges of cs, in both directions.
func equalityGraph(cs []constraints.Constraint) map[string][]constraints.Variable {
	graph := make(map[string][]constraints.Variable)
	for _, c := range cs {
		simple, ok := c.(*constraints.SimpleConstraint)
		if !ok || simple.Op == constraints.Subtype {
			continue
		}
		graph[simple.Left.Hash()] = append(graph[simple.Left.Hash()], simple.Right)
		graph[simple.Right.Hash()] = append(graph[simple.Right.Hash()], simple.Left)
	}
	return graph
}

// relevanceClosure returns every variable reachable from seed over Equals and Defines
// constraints, without passing through declared types. The seed is always part of the result.
func relevanceClosure(ctx context.Context, seed constraints.Variable, cs []constraints.Constraint, logger *slog.Logger) (*variableSet, error) {
	graph := equalityGraph(cs)
	result := constraints.NewVariableSet(16)
	result.Insert(seed)
	worklist := []constraints.Variable{seed}
	for len(worklist) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current := worklist[0]
		worklist = worklist[1:]
		for _, next := range graph[current.Hash()] {
			if !followed(next) {
				continue
			}
			if result.Insert(next) {
				logger.Debug("relevant", "from", current, "to", next)
				worklist = append(worklist, next)
			}
		}
	}
	logger.Debug("closure computed", "seed", seed, "size", result.Size())
	return result, nil
}
