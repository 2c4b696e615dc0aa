package cmd

import (
	"fmt"
	"os"

	"github.com/cottand/gentype/generalize"
	"github.com/spf13/cobra"
)

var TypesCmd = &cobra.Command{
	Use:   "types ./folder|file.ts",
	Short: "List the supertypes a declaration can be generalized to",
	Long: `List the supertypes a declaration can be generalized to, most specific first.

The declaration is a local variable, a parameter, a field or a method return type,
selected either by byte range (--offset, --length) or by the first occurrence of
some text (--match).`,
	Example: `  gentype types ./src --unit zoo.ts --match "pet: Animal" --length 3
  gentype types zoo.ts --offset 120 --length 3 --save pet.yaml --type Named`,
	RunE:         runTypes,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

var (
	typesSettings  *settings
	typesSelection *selectionFlags
	typesSave      *string
	typesChosen    *string
)

func init() {
	typesSettings = addSettingsFlags(TypesCmd)
	typesSelection = addSelectionFlags(TypesCmd)
	typesSave = TypesCmd.Flags().StringP("save", "s", "", "write a descriptor of this invocation to the given file, for replay")
	typesChosen = TypesCmd.Flags().StringP("type", "t", "", "the chosen replacement type, recorded in the saved descriptor")
}

func runTypes(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget(args[0])
	if err != nil {
		return err
	}
	cfg, err := typesSettings.resolve(cmd, t.root)
	if err != nil {
		return err
	}
	program, err := loadProgram(cmd.Context(), t, cfg)
	if err != nil {
		return err
	}
	desc, err := typesSelection.descriptor(cmd, t, program)
	if err != nil {
		return err
	}
	desc.Type = *typesChosen

	p := newPrinter(cmd.OutOrStdout())
	r, accepted, err := compute(cmd.Context(), p, program, desc, cfg)
	if err != nil {
		return err
	}
	p.accepted(r.Selection(), accepted)

	if desc.Type != "" {
		ok, err := r.IsAccepted(desc.Type)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s is not an accepted type for %s", desc.Type, r.Selection())
		}
	}
	if *typesSave != "" {
		if err := saveDescriptor(*typesSave, desc); err != nil {
			return err
		}
		p.printf("descriptor written to %s\n", *typesSave)
	}
	return nil
}

func saveDescriptor(path string, desc generalize.Descriptor) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create descriptor file: %w", err)
	}
	if err := generalize.WriteDescriptor(f, desc); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("could not write descriptor file: %w", err)
	}
	return nil
}
