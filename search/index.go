package search

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/cottand/gentype/frontend"
	"github.com/cottand/gentype/frontend/ast"
	"github.com/cottand/gentype/frontend/types"
	"github.com/cottand/gentype/internal/log"
	"github.com/hashicorp/go-set/v3"
)

var searchLogger = log.DefaultLogger.With("section", log.SectionSearch)

type occurrence struct {
	unit string
	r    ast.Range
}

// Index is an Engine over one loaded program. It is built once and then only read.
type Index struct {
	program  *frontend.Program
	refs     map[string][]occurrence
	subtypes map[string][]*types.Named
	logger   *slog.Logger
}

var _ Engine = (*Index)(nil)

func NewIndex(program *frontend.Program) *Index {
	ix := &Index{
		program:  program,
		refs:     make(map[string][]occurrence),
		subtypes: make(map[string][]*types.Named),
		logger:   searchLogger,
	}
	var named []*types.Named
	for _, unit := range program.Units {
		ast.Inspect(unit, func(n ast.Node) bool {
			if class, ok := n.(*ast.ClassDecl); ok && class.Binding != nil {
				named = append(named, class.Binding)
			}
			ix.record(unit.Name, n)
			return true
		})
	}
	object := program.Universe.Object
	for _, t := range named {
		for _, super := range types.SuperTypes(t, object) {
			ix.subtypes[super.Hash()] = append(ix.subtypes[super.Hash()], t)
		}
	}
	for _, subs := range ix.subtypes {
		slices.SortFunc(subs, func(a, b *types.Named) int { return cmp.Compare(a.Name, b.Name) })
	}
	ix.logger.Debug("built search index", "units", len(program.Units), "elements", len(ix.refs), "types", len(named))
	return ix
}

func (ix *Index) add(key, unit string, p ast.Positioner) {
	ix.refs[key] = append(ix.refs[key], occurrence{unit: unit, r: ast.RangeOf(p)})
}

func (ix *Index) record(unit string, n ast.Node) {
	switch n := n.(type) {
	case *ast.Ident:
		switch {
		case n.Var != nil:
			ix.add(n.Var.Key(), unit, n)
		case n.Func != nil:
			ix.add(n.Func.Key(), unit, n)
		}
	case *ast.MethodDecl:
		// function names are recorded through their identifier
		if n.Binding != nil && n.Binding.Owner != nil {
			ix.add(n.Binding.Key(), unit, n.Name)
		}
	case *ast.FieldDecl:
		if n.Binding != nil {
			ix.add(n.Binding.Key(), unit, n.Name)
		}
	case *ast.MemberExpr:
		switch {
		case n.Field != nil:
			ix.add(n.Field.Key(), unit, n.Name)
		case n.Method != nil:
			ix.add(n.Method.Key(), unit, n.Name)
		}
	case *ast.NewExpr:
		if n.Ctor != nil {
			ix.add(n.Ctor.Key(), unit, n.Class)
		}
	}
}

func (ix *Index) FindReferences(ctx context.Context, elems []Element, scope Scope) (Occurrences, error) {
	result := make(Occurrences)
	for _, elem := range elems {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("reference search canceled: %w", err)
		}
		for _, occ := range ix.refs[elem.Key()] {
			if scope.includes(occ.unit) {
				result[occ.unit] = append(result[occ.unit], occ.r)
			}
		}
	}
	for unit, ranges := range result {
		slices.SortFunc(ranges, func(a, b ast.Range) int { return cmp.Compare(a.PosStart, b.PosStart) })
		result[unit] = slices.Compact(ranges)
	}
	ix.logger.Debug("found references", "elements", elementKeys(elems), "units", len(result))
	return result, nil
}

func (ix *Index) RippleMethods(ctx context.Context, m *types.Method) ([]*types.Method, error) {
	object := ix.program.Universe.Object
	seen := set.New[string](4)
	var result []*types.Method
	queue := []*types.Method{m}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("ripple method search canceled: %w", err)
		}
		current := queue[0]
		queue = queue[1:]
		if !seen.Insert(current.Key()) {
			continue
		}
		result = append(result, current)
		if !current.IsVirtual() {
			continue
		}
		queue = append(queue, types.RootDefs(current, object)...)
		for _, sub := range ix.Subtypes(current.Owner) {
			if override := types.FindOverriddenMethodInType(sub, current); override != nil {
				queue = append(queue, override)
			}
		}
	}
	slices.SortFunc(result, func(a, b *types.Method) int { return cmp.Compare(a.Key(), b.Key()) })
	return result, nil
}

func (ix *Index) Subtypes(t *types.Named) []*types.Named {
	if t == nil {
		return nil
	}
	return ix.subtypes[t.Hash()]
}

func elementKeys(elems []Element) string {
	keys := make([]string, len(elems))
	for i, e := range elems {
		keys[i] = e.Key()
	}
	return strings.Join(keys, ",")
}
