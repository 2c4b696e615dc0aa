package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cottand/gentype/frontend"
	"github.com/cottand/gentype/generalize"
	"github.com/cottand/gentype/internal/config"
	"github.com/spf13/cobra"
)

// target is the program named on the command line: a directory, or a file whose
// directory is the program root and which is then the default unit.
type target struct {
	root string
	fsys fs.FS
	unit string
}

func resolveTarget(arg string) (target, error) {
	path, err := filepath.Abs(arg)
	if err != nil {
		return target{}, fmt.Errorf("could not get absolute path of target: %w", err)
	}

	stat, err := os.Stat(path)
	if err != nil {
		return target{}, fmt.Errorf("could not stat target: %w", err)
	}

	if stat.IsDir() {
		return target{root: path, fsys: os.DirFS(path)}, nil
	}
	parent := filepath.Dir(path)
	return target{root: parent, fsys: os.DirFS(parent), unit: filepath.Base(path)}, nil
}

func loadProgram(ctx context.Context, t target, cfg *config.Config) (*frontend.Program, error) {
	program, err := frontend.LoadProgram(ctx, t.fsys, cfg.Pattern)
	if err != nil {
		return nil, fmt.Errorf("could not load program at %s: %w", t.root, err)
	}
	if len(program.Units) == 0 {
		return nil, fmt.Errorf("no unit in %s matches %q", t.root, cfg.Pattern)
	}
	for _, unit := range program.Units {
		if unit.HasErrors {
			cmdLogger.Warn("unit has syntax errors, results may be incomplete", "unit", unit.Name)
		}
	}
	return program, nil
}

// selectionFlags locate the declaration to generalize, either by byte range or by the
// first occurrence of a piece of text.
type selectionFlags struct {
	unit   *string
	offset *int
	length *int
	match  *string
}

func addSelectionFlags(c *cobra.Command) *selectionFlags {
	return &selectionFlags{
		unit:   c.Flags().StringP("unit", "u", "", "unit containing the selection, relative to the program root"),
		offset: c.Flags().IntP("offset", "o", 0, "byte offset of the selection"),
		length: c.Flags().IntP("length", "n", 0, "byte length of the selection"),
		match:  c.Flags().StringP("match", "m", "", "select the first occurrence of this text instead of --offset"),
	}
}

func (f *selectionFlags) descriptor(c *cobra.Command, t target, program *frontend.Program) (generalize.Descriptor, error) {
	unitName := *f.unit
	if unitName == "" {
		unitName = t.unit
	}
	if unitName == "" {
		return generalize.Descriptor{}, fmt.Errorf("--unit is required when the target is a directory")
	}
	unitName = filepath.ToSlash(unitName)

	desc := generalize.Descriptor{Input: unitName, Offset: *f.offset, Length: *f.length}
	if *f.match == "" {
		return desc, nil
	}
	unit := program.Unit(unitName)
	if unit == nil {
		return desc, fmt.Errorf("unit %s is not part of the program (units: %s)", unitName, strings.Join(program.UnitNames(), ", "))
	}
	at := strings.Index(string(unit.Source), *f.match)
	if at < 0 {
		return desc, fmt.Errorf("%q does not occur in %s", *f.match, unitName)
	}
	desc.Offset = at
	if !c.Flags().Changed("length") {
		desc.Length = len(*f.match)
	}
	return desc, nil
}
