package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/itinerary/internal/config"
	applog "github.com/ziadkadry99/itinerary/internal/log"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "itinerary",
	Short: "Offline-first trip itinerary server",
	Long: `Itinerary renders a day-by-day trip plan from a JSON document and keeps
the whole site in a versioned offline cache, so the page keeps working
when the network is gone.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "info"
		if cfg, err := config.Load(cfgFile); err == nil && cfg.LogLevel != "" {
			level = cfg.LogLevel
		}
		if verbose {
			level = "debug"
		}
		applog.InitLogger(level)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
