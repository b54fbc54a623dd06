package cmd

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/humanapp/mindcraft-lang-sub002/internal/brain"
)

var dumpHex bool

var dumpCmd = &cobra.Command{
	Use:   "dump [brain-file]",
	Short: "Print a brain file's decoded page/rule structure, optionally with a hex dump of its bytes",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().BoolVar(&dumpHex, "hex", false, "also print a hex dump of the raw .brain bytes")
}

func runDump(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	env, err := buildEnv(cfg)
	if err != nil {
		return err
	}

	if dumpHex {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("brainctl: reading brain file: %w", err)
		}
		fmt.Fprint(os.Stdout, hex.Dump(raw))
		fmt.Fprintln(os.Stdout)
	}

	b, err := loadBrainFile(args[0], env.Global)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "brain %q: %d page(s)\n", b.Name(), len(b.Pages))
	for i, p := range b.Pages {
		fmt.Fprintf(os.Stdout, "  page %d %q (id=%s): %d root rule(s)\n", i, p.Name(), p.PageID, len(p.Rules))
		for _, r := range p.Rules {
			dumpRule(r, 4)
		}
	}
	return nil
}

func dumpRule(r *brain.RuleDef, indent int) {
	pad := fmt.Sprintf("%*s", indent, "")
	fmt.Fprintf(os.Stdout, "%swhen=%v do=%v\n", pad, r.When.TileIDs, r.Do.TileIDs)
	for _, c := range r.Children {
		dumpRule(c, indent+2)
	}
}
