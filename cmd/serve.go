package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/itinerary/internal/offline"
	"github.com/ziadkadry99/itinerary/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the itinerary through the offline cache",
	Long: `Starts the itinerary server. The configured cache version is installed
from the origin on startup; if that fails the last complete cache is served
instead. With --site the given directory is also served as the origin.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "port for the itinerary server (defaults to config port)")
	serveCmd.Flags().String("site", "", "serve this directory as the origin (defaults to config site_dir)")
	serveCmd.Flags().Bool("cors-all", false, "allow all CORS origins")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Port = port
	}
	if site, _ := cmd.Flags().GetString("site"); site != "" {
		cfg.SiteDir = site
	}
	if all, _ := cmd.Flags().GetBool("cors-all"); all {
		cfg.CORSAll = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The origin must be listening before the cache installs from it.
	var originSrv *http.Server
	if cfg.SiteDir != "" {
		if _, err := os.Stat(cfg.SiteDir); err != nil {
			return fmt.Errorf("site directory: %w", err)
		}
		originSrv = server.NewOriginServer(os.DirFS(cfg.SiteDir), cfg.SitePort)
		ln, err := net.Listen("tcp", originSrv.Addr)
		if err != nil {
			return fmt.Errorf("listening for origin: %w", err)
		}
		go func() {
			if err := originSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("origin server stopped")
			}
		}()
	}

	storage, closer, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	container := offline.NewContainer(http.DefaultTransport)
	worker, err := newWorker(cfg, storage, http.DefaultTransport, nil)
	if err != nil {
		return err
	}
	active, err := container.Start(ctx, worker)
	switch {
	case err != nil && active == nil:
		log.WithError(err).Warn("no offline cache available, requests go straight to the network")
	case err != nil:
		log.WithError(err).WithField("cache", active.CacheName()).Warn("install failed, serving previous cache")
	case active != worker:
		log.WithField("cache", active.CacheName()).Warn("origin unreachable, serving previous cache")
	}

	renderer, err := newRenderer(cfg)
	if err != nil {
		return err
	}
	scope, err := cfg.OriginURL()
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		Port:     cfg.Port,
		DataPath: cfg.DataPath,
		AllowAll: cfg.CORSAll,
	}, container, storage, renderer, scope)

	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nShutting down server...")
		srv.Shutdown(context.Background())
		if originSrv != nil {
			originSrv.Shutdown(context.Background())
		}
	}()

	fmt.Fprintf(os.Stderr, "itinerary %s starting on port %d\n", Version, cfg.Port)
	fmt.Fprintf(os.Stderr, "  Origin: %s\n", scope)
	if cfg.SiteDir != "" {
		fmt.Fprintf(os.Stderr, "  Site: %s\n", cfg.SiteDir)
	}
	fmt.Fprintf(os.Stderr, "  Storage: %s\n", cfg.Storage.Driver)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
