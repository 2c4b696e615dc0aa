package frontend

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/cottand/gentype/frontend/ast"
	"github.com/cottand/gentype/frontend/types"
	"github.com/cottand/gentype/internal/log"
	"golang.org/x/tools/txtar"
)

var frontendLogger = log.DefaultLogger.With("section", log.SectionFrontend)

// DefaultPattern selects the units LoadProgram parses when no pattern is given.
const DefaultPattern = "*.ts"

// Program is a set of parsed and bound units sharing one type universe.
type Program struct {
	Universe *types.Universe
	Units    []*ast.Unit
	// Funcs are the top-level functions, by name
	Funcs  map[string]*types.Method
	byName map[string]*ast.Unit
}

// Unit returns the unit called name, or nil.
func (p *Program) Unit(name string) *ast.Unit {
	return p.byName[name]
}

// UnitNames returns the names of every unit, sorted.
func (p *Program) UnitNames() []string {
	names := make([]string, 0, len(p.Units))
	for _, u := range p.Units {
		names = append(names, u.Name)
	}
	sort.Strings(names)
	return names
}

// ParseSources parses and binds the given units, keyed by unit name.
// Units are processed in name order so that binding is deterministic.
func ParseSources(ctx context.Context, sources map[string][]byte) (*Program, error) {
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	units := make([]*ast.Unit, 0, len(names))
	for _, name := range names {
		unit, err := ParseUnit(ctx, name, sources[name])
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		units = append(units, unit)
	}
	return newProgram(units), nil
}

// LoadProgram parses every file in fsys whose base name matches pattern.
func LoadProgram(ctx context.Context, fsys fs.FS, pattern string) (*Program, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid unit pattern %q: %w", pattern, err)
	}
	sources := make(map[string][]byte)
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		if ok, _ := path.Match(pattern, path.Base(p)); !ok {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		sources[p] = data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load units: %w", err)
	}
	frontendLogger.Debug("loaded units", "count", len(sources), "pattern", pattern)
	return ParseSources(ctx, sources)
}

// LoadArchive parses every file of a txtar archive as a unit.
func LoadArchive(ctx context.Context, archive *txtar.Archive) (*Program, error) {
	sources := make(map[string][]byte, len(archive.Files))
	for _, f := range archive.Files {
		if _, dup := sources[f.Name]; dup {
			return nil, fmt.Errorf("duplicate unit %s in archive", f.Name)
		}
		sources[f.Name] = f.Data
	}
	return ParseSources(ctx, sources)
}

func newProgram(units []*ast.Unit) *Program {
	universe := types.NewUniverse()
	funcs := bind(universe, units)
	byName := make(map[string]*ast.Unit, len(units))
	for _, u := range units {
		byName[u.Name] = u
	}
	return &Program{
		Universe: universe,
		Units:    units,
		Funcs:    funcs,
		byName:   byName,
	}
}
