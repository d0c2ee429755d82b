package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/ziadkadry99/itinerary/internal/aws"
	"github.com/ziadkadry99/itinerary/internal/config"
	"github.com/ziadkadry99/itinerary/internal/db"
	"github.com/ziadkadry99/itinerary/internal/offline"
	"github.com/ziadkadry99/itinerary/internal/render"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `itinerary init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openStorage builds the cache storage backend selected in the config. The
// returned closer releases any database handle.
func openStorage(ctx context.Context, cfg *config.Config) (offline.Storage, io.Closer, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return offline.NewMemoryStorage(), nopCloser{}, nil
	case config.DriverSQLite:
		database, err := db.Open(cfg.Storage.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening cache database: %w", err)
		}
		return offline.NewSQLStorage(database), database, nil
	case config.DriverS3:
		s3cfg := cfg.Storage.S3
		awsCfg, err := aws.LoadAWSConfig(ctx, aws.WithProfile(s3cfg.Profile), aws.WithRegion(s3cfg.Region))
		if err != nil {
			return nil, nil, fmt.Errorf("loading AWS config: %w", err)
		}
		client := aws.NewS3(awsCfg, s3cfg.Endpoint)
		return offline.NewS3Storage(client, s3cfg.Bucket, s3cfg.Prefix), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// newWorker builds the cache worker for the configured version.
func newWorker(cfg *config.Config, storage offline.Storage, network http.RoundTripper, onCached func(string)) (*offline.Worker, error) {
	scope, err := cfg.OriginURL()
	if err != nil {
		return nil, err
	}
	assets, err := cfg.Manifest()
	if err != nil {
		return nil, err
	}
	return offline.NewWorker(offline.Options{
		Prefix:       cfg.Cache.Prefix,
		Version:      cfg.Cache.Version,
		Scope:        scope,
		Assets:       assets,
		NetworkFirst: cfg.Cache.NetworkFirst,
		Storage:      storage,
		Network:      network,
		OnCached:     onCached,
	})
}

// newRenderer builds a renderer with the configured theme.
func newRenderer(cfg *config.Config) (*render.Renderer, error) {
	return render.New(render.Options{
		Theme: render.Theme{
			Zone:       cfg.Theme.Timezone,
			NightStart: cfg.Theme.NightStart,
			NightEnd:   cfg.Theme.NightEnd,
			DayColor:   cfg.Theme.DayColor,
			NightColor: cfg.Theme.NightColor,
		},
	})
}
