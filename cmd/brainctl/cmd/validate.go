package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/humanapp/mindcraft-lang-sub002/internal/errors"
	"github.com/humanapp/mindcraft-lang-sub002/internal/runtime"
)

var validateCmd = &cobra.Command{
	Use:   "validate [brain-file]",
	Short: "Compile a brain file and report diagnostics without running it",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	env, err := buildEnv(cfg)
	if err != nil {
		return err
	}
	b, err := loadBrainFile(args[0], env.Global)
	if err != nil {
		return err
	}

	program := runtime.Compile(b, env)

	total := 0
	for i, page := range program.Pages {
		total += reportPageDiagnostics(page, i)
	}

	if logger != nil {
		logger.Info("brainctl: validated", zap.String("brain", args[0]), zap.Int("diagnostics", total))
	}
	if total > 0 {
		return fmt.Errorf("brainctl: %d diagnostic(s) found", total)
	}
	fmt.Fprintf(os.Stdout, "%s: ok, %d page(s), 0 diagnostics\n", args[0], len(program.Pages))
	return nil
}

func reportPageDiagnostics(page *runtime.CompiledPage, pageIdx int) int {
	total := 0
	for _, r := range page.Rules {
		total += reportRuleDiagnostics(r, pageIdx)
	}
	return total
}

func reportRuleDiagnostics(r *runtime.CompiledRule, pageIdx int) int {
	for _, d := range r.WhenDiagnostics {
		te := errors.FromDiagnostic(d, "When", r.WhenTileIDs())
		fmt.Fprintf(os.Stderr, "page %d:\n%s\n", pageIdx, te.Format(false))
	}
	for _, d := range r.DoDiagnostics {
		te := errors.FromDiagnostic(d, "Do", r.DoTileIDs())
		fmt.Fprintf(os.Stderr, "page %d:\n%s\n", pageIdx, te.Format(false))
	}
	total := len(r.WhenDiagnostics) + len(r.DoDiagnostics)
	for _, c := range r.Children {
		total += reportRuleDiagnostics(c, pageIdx)
	}
	return total
}
