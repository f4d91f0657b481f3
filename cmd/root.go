package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/location-evaluator/internal/config"
)

var (
	cfg     *config.Config
	cfgPath string
)

var rootCmd = &cobra.Command{
	Use:   "loceval",
	Short: "Residential location analysis engine",
	Long:  "Scores a grid of residential locations around a city center by travel time to your destinations, transportation cost, and neighborhood safety.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path (default config.yaml, env LOCEVAL_*)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
