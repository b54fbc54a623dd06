package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

var (
	verbose      bool
	configPath   string
	manifestPath string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:     "brainctl",
	Short:   "Compile, validate and serve tile-brain programs",
	Version: Version,
	Long: `brainctl loads a brain definition, compiles it against a host's
function-table manifest, and either runs it for a fixed number of ticks,
validates it without executing, or serves it behind the REST+WebSocket
suggestion and events façade.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("brainctl: initializing logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
`, GitCommit))

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a RuntimeConfig YAML file")
	rootCmd.PersistentFlags().StringVar(&manifestPath, "manifest", "", "path to a function-table manifest JSON file (overrides config)")
}
