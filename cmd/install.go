package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/itinerary/internal/offline"
	"github.com/ziadkadry99/itinerary/internal/progress"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the configured cache version from the origin",
	Long: `Fetches every asset in the manifest from the origin and stores them as
one cache version. Older versions are deleted once the install succeeds.
A failed install leaves the existing caches untouched.`,
	RunE: runInstall,
}

func init() {
	installCmd.Flags().String("version", "", "cache version to install (defaults to config cache.version)")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("version"); v != "" {
		cfg.Cache.Version = v
	}
	ctx := context.Background()

	storage, closer, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	reporter := progress.NewReporter()
	worker, err := newWorker(cfg, storage, http.DefaultTransport, reporter.Cached)
	if err != nil {
		return err
	}

	assets, _ := cfg.Manifest()
	reporter.Start(len(assets), worker.CacheName())
	container := offline.NewContainer(http.DefaultTransport)
	err = container.Register(ctx, worker)
	reporter.Finish()
	if err != nil {
		return err
	}

	fmt.Printf("Installed %s (%d assets) from %s\n", worker.CacheName(), len(assets), worker.Scope())
	return nil
}
