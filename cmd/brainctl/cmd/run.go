package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/humanapp/mindcraft-lang-sub002/internal/runtime"
)

var (
	ticks  int
	tickDt float64
)

var runCmd = &cobra.Command{
	Use:   "run [brain-file]",
	Short: "Compile and run a brain file for a fixed number of ticks",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunCmd,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&ticks, "ticks", 10, "number of ticks to run")
	runCmd.Flags().Float64Var(&tickDt, "dt", 1000.0/60.0, "delta time per tick, in milliseconds")
}

func runRunCmd(_ *cobra.Command, args []string) error {
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
	rt := runtime.New(program, env)
	rt.Initialize(nil)

	unsubscribe := rt.Events.On(func(e runtime.Event) {
		if logger != nil {
			logger.Info("brainctl: event", zap.String("name", e.Name))
		}
	})
	defer unsubscribe()

	rt.Startup()
	simTime := 0.0
	for i := 0; i < ticks; i++ {
		if err := rt.Think(simTime, tickDt); err != nil {
			return fmt.Errorf("brainctl: tick %d: %w", i, err)
		}
		simTime += tickDt
	}
	rt.Shutdown()

	if logger != nil {
		logger.Info("brainctl: run complete", zap.Int("ticks", ticks))
	}
	return nil
}
