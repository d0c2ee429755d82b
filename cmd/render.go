package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/itinerary/internal/itinerary"
	"github.com/ziadkadry99/itinerary/internal/offline"
	"github.com/ziadkadry99/itinerary/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the itinerary page",
	Long: `Renders the itinerary page as HTML. By default the data document is
loaded from the origin through the installed offline cache, so rendering
works without a network once a cache version is installed. With --data a
local file is rendered instead. With --export a complete static site
(page, stylesheet, script, web manifest and data) is written to a directory.`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().String("data", "", "render this local itinerary file (JSON or YAML)")
	renderCmd.Flags().StringP("output", "o", "", "write the page to this file instead of stdout")
	renderCmd.Flags().String("export", "", "write a static site into this directory")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	renderer, err := newRenderer(cfg)
	if err != nil {
		return err
	}

	dataFile, _ := cmd.Flags().GetString("data")
	exportDir, _ := cmd.Flags().GetString("export")
	outPath, _ := cmd.Flags().GetString("output")

	if exportDir != "" {
		if dataFile == "" {
			if cfg.SiteDir == "" {
				return fmt.Errorf("--export needs --data or a configured site_dir")
			}
			dataFile = filepath.Join(cfg.SiteDir, filepath.FromSlash(cfg.DataPath))
		}
		it, err := itinerary.Load(dataFile)
		if err != nil {
			return err
		}
		if err := renderer.Export(exportDir, it); err != nil {
			return fmt.Errorf("exporting site: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Exported %d days, %d items to %s\n", len(it.Days), it.ItemCount(), exportDir)
		return nil
	}

	var out io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if dataFile != "" {
		it, err := itinerary.Load(dataFile)
		if err != nil {
			return err
		}
		return renderer.Page(out, it)
	}

	ctx := context.Background()
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
	if w, err := container.Resume(ctx, worker); err != nil {
		log.WithError(err).Debug("no installed cache, loading from the network")
	} else {
		log.WithField("cache", w.CacheName()).Debug("rendering through cache")
	}

	return renderer.Render(ctx, out, &render.Loader{
		Client:   container.Client(),
		BaseURL:  worker.Scope(),
		DataPath: cfg.DataPath,
	})
}
