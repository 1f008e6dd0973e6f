package cmd

import (
	"htas-bench/internal/config"
	"htas-bench/internal/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const Version = "1.0.0"

var (
	configFile string
	logLevel   string

	cfg *config.Config
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "htas-bench",
		Short:   "Topology-aware scheduling policy simulator and benchmark",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Optional .env for export credentials; absence is fine.
			_ = godotenv.Load()

			loaded, err := config.Load(configFile)
			if err != nil {
				return err
			}
			cfg = loaded

			level := cfg.LogLevel
			if logLevel != "" {
				level = logLevel
			}
			if level != "" {
				if err := logging.SetLogLevel(level); err != nil {
					return err
				}
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(newTopologyCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newBenchmarkCmd())
	rootCmd.AddCommand(newAgingCmd())

	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}
