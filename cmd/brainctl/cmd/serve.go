package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/humanapp/mindcraft-lang-sub002/internal/api"
	"github.com/humanapp/mindcraft-lang-sub002/internal/brain"
	"github.com/humanapp/mindcraft-lang-sub002/internal/runtime"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve [brain-file]",
	Short: "Serve a brain's suggestion service and runtime events over HTTP/WebSocket",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	env, err := buildEnv(cfg)
	if err != nil {
		return err
	}

	var b *brain.BrainDef
	var rt *runtime.Brain
	if len(args) == 1 {
		b, err = loadBrainFile(args[0], env.Global)
		if err != nil {
			return err
		}
		program := runtime.Compile(b, env)
		rt = runtime.New(program, env)
		rt.Initialize(nil)
		rt.Startup()
		defer rt.Shutdown()
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.API.Addr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	apiCfg := api.Config{
		Addr:        addr,
		Brain:       b,
		RuntimeEnv:  env,
		Global:      env.Global,
		Conversions: env.Conversions,
		Events:      rt,
		Logger:      logger,
	}
	return api.Run(ctx, apiCfg)
}
