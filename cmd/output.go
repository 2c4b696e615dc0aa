package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cottand/gentype/frontend"
	"github.com/cottand/gentype/frontend/types"
	"github.com/cottand/gentype/generalize"
	"github.com/cottand/gentype/internal/config"
	"github.com/cottand/gentype/search"
	"github.com/cottand/gentype/status"
	"github.com/mattn/go-isatty"
)

// printer writes command results, in bold when writing to a terminal.
type printer struct {
	w        io.Writer
	emphasis bool
}

func newPrinter(w io.Writer) *printer {
	p := &printer{w: w}
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		return p
	}
	if f, ok := w.(*os.File); ok {
		p.emphasis = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return p
}

func (p *printer) em(s string) string {
	if !p.emphasis {
		return s
	}
	return "\x1b[1m" + s + "\x1b[0m"
}

func (p *printer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format, args...)
}

// status prints the non-fatal entries of st.
func (p *printer) status(st *status.Status) {
	for _, entry := range st.Entries() {
		if entry.Severity == status.Fatal {
			continue
		}
		p.printf("%s: %s\n", entry.Severity, entry.Message)
	}
}

func (p *printer) accepted(sel *generalize.Selection, accepted []*types.Named) {
	p.printf("%s: %s\n", sel, p.em(sel.Type.TypeName()))
	if len(accepted) == 0 {
		p.printf("no supertype of %s is accepted\n", sel.Type.TypeName())
		return
	}
	for _, t := range accepted {
		p.printf("  %s (%s)\n", p.em(t.Name), t.Kind)
	}
}

// compute runs a refactoring and turns a fatal status into an error.
func compute(ctx context.Context, p *printer, program *frontend.Program, desc generalize.Descriptor, cfg *config.Config) (*generalize.Refactoring, []*types.Named, error) {
	r := generalize.NewRefactoring(program, search.NewIndex(program), desc, generalize.Options{
		FilterUnrelated: cfg.FilterUnrelated,
	})
	accepted, st, err := r.ComputeAcceptedTypes(ctx)
	if err != nil {
		return nil, nil, err
	}
	p.status(st)
	if entry, ok := st.Fatal(); ok {
		return nil, nil, fmt.Errorf("cannot generalize the selection: %s", entry.Message)
	}
	cmdLogger.Info("refactoring done", "run", r.RunID().String(), "status", st)
	return r, accepted, nil
}
