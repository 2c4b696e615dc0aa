package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cottand/gentype/generalize"
	"github.com/spf13/cobra"
)

var ReplayCmd = &cobra.Command{
	Use:   "replay descriptor.yaml [./folder]",
	Short: "Replay a saved invocation of types",
	Long: `Replay a descriptor written by 'types --save'. The program root defaults to the
directory of the descriptor. When the descriptor records a chosen type, replay fails
unless that type is still accepted.`,
	RunE:         runReplay,
	Args:         cobra.RangeArgs(1, 2),
	SilenceUsage: true,
}

var replaySettings *settings

func init() {
	replaySettings = addSettingsFlags(ReplayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("could not open descriptor: %w", err)
	}
	desc, st, err := generalize.ReadDescriptor(f)
	_ = f.Close()
	if err != nil {
		return err
	}
	if entry, ok := st.Fatal(); ok {
		return fmt.Errorf("invalid descriptor %s: %s", args[0], entry.Message)
	}

	root := filepath.Dir(args[0])
	if len(args) > 1 {
		root = args[1]
	}
	t, err := resolveTarget(root)
	if err != nil {
		return err
	}
	cfg, err := replaySettings.resolve(cmd, t.root)
	if err != nil {
		return err
	}
	program, err := loadProgram(cmd.Context(), t, cfg)
	if err != nil {
		return err
	}

	p := newPrinter(cmd.OutOrStdout())
	r, accepted, err := compute(cmd.Context(), p, program, desc, cfg)
	if err != nil {
		return err
	}
	p.accepted(r.Selection(), accepted)
	if desc.Type == "" {
		return nil
	}
	ok, err := r.IsAccepted(desc.Type)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s is no longer an accepted type for %s", desc.Type, r.Selection())
	}
	p.printf("%s is still accepted\n", p.em(desc.Type))
	return nil
}
