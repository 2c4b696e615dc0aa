package cmd

import (
	"slices"

	"github.com/cottand/gentype/constraints"
	"github.com/cottand/gentype/frontend"
	"github.com/cottand/gentype/frontend/ast"
	"github.com/spf13/cobra"
)

var SitesCmd = &cobra.Command{
	Use:   "sites ./folder|file.ts",
	Short: "Show the expressions and annotations tied to the type of a declaration",
	Long: `Show, per unit, the expressions whose type changes together with the selected
declaration, and the type annotations that would be rewritten to generalize it.`,
	RunE:         runSites,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

var (
	sitesSettings  *settings
	sitesSelection *selectionFlags
)

func init() {
	sitesSettings = addSettingsFlags(SitesCmd)
	sitesSelection = addSelectionFlags(SitesCmd)
}

func runSites(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget(args[0])
	if err != nil {
		return err
	}
	cfg, err := sitesSettings.resolve(cmd, t.root)
	if err != nil {
		return err
	}
	program, err := loadProgram(cmd.Context(), t, cfg)
	if err != nil {
		return err
	}
	desc, err := sitesSelection.descriptor(cmd, t, program)
	if err != nil {
		return err
	}

	p := newPrinter(cmd.OutOrStdout())
	r, accepted, err := compute(cmd.Context(), p, program, desc, cfg)
	if err != nil {
		return err
	}
	p.accepted(r.Selection(), accepted)

	sites, err := r.RelevantSitesByUnit()
	if err != nil {
		return err
	}
	annotations, err := r.TypeSites()
	if err != nil {
		return err
	}
	units := make([]string, 0, len(sites))
	for unit := range sites {
		units = append(units, unit)
	}
	for unit := range annotations {
		if _, ok := sites[unit]; !ok {
			units = append(units, unit)
		}
	}
	slices.Sort(units)

	for _, name := range units {
		unit := program.Unit(name)
		if unit == nil {
			continue
		}
		p.printf("%s\n", p.em(name))
		for _, v := range sites[name] {
			p.site(unit, siteRange(program, v), describe(v))
		}
		for _, rng := range annotations[name] {
			p.site(unit, rng, "annotation")
		}
	}
	return nil
}

func (p *printer) site(unit *ast.Unit, rng ast.Range, kind string) {
	line, col := unit.Position(rng.PosStart)
	p.printf("  %d:%d\t%s\t%s\n", line, col, kind, unit.Text(rng))
}

// siteRange is where v appears: the expression itself, or the result annotation of a
// method (its name when it has none).
func siteRange(program *frontend.Program, v constraints.Variable) ast.Range {
	switch v := v.(type) {
	case constraints.ExpressionVariable:
		return v.Range
	case constraints.ReturnVariable:
		decl := ast.Range{PosStart: v.Method.Site.PosStart, PosEnd: v.Method.Site.PosEnd}
		unit := program.Unit(v.Method.Site.Unit)
		if unit == nil {
			return decl
		}
		for _, n := range ast.PathTo(unit, decl) {
			if m, ok := n.(*ast.MethodDecl); ok && ast.RangeOf(m) == decl {
				if m.Result != nil {
					return m.Result.Range
				}
				return m.Name.Range
			}
		}
		return decl
	}
	return ast.Range{}
}

func describe(v constraints.Variable) string {
	switch v := v.(type) {
	case constraints.ExpressionVariable:
		if v.Binding != "" {
			return "declaration"
		}
		return "expression"
	case constraints.ReturnVariable:
		return "return"
	}
	return "variable"
}

