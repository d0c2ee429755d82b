package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
)

// siteMarkers are files whose presence suggests the working directory is
// itself the site to serve.
var siteMarkers = []string{"index.html", "data.json", "manifest.json"}

// detectSiteDir returns "." when the working directory looks like a site.
func detectSiteDir() string {
	for _, marker := range siteMarkers {
		if _, err := os.Stat(marker); err == nil {
			return "."
		}
	}
	return ""
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Let's configure your itinerary.")
	fmt.Println()

	cfg := DefaultConfig()

	siteDir := detectSiteDir()
	if siteDir != "" {
		fmt.Println("Detected a site in the current directory.")
		fmt.Println()
	}

	// 1. Origin.
	originPrompt := promptui.Prompt{
		Label:   "Origin URL the itinerary is served from",
		Default: cfg.Origin,
		Validate: func(s string) error {
			probe := &Config{Origin: s}
			_, err := probe.OriginURL()
			return err
		},
	}
	origin, err := originPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("origin: %w", err)
	}
	cfg.Origin = origin

	// 2. Site directory.
	sitePrompt := promptui.Prompt{
		Label:   "Site directory to serve as the origin (blank for none)",
		Default: siteDir,
	}
	cfg.SiteDir, err = sitePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("site dir: %w", err)
	}

	// 3. Storage.
	storagePrompt := promptui.Select{
		Label: "Where should the offline cache live",
		Items: []string{
			"sqlite: a local database file",
			"memory: nothing survives a restart",
			"s3:     an S3 bucket",
		},
	}
	idx, _, err := storagePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("storage selection: %w", err)
	}
	cfg.Storage.Driver = []StorageDriver{DriverSQLite, DriverMemory, DriverS3}[idx]

	if cfg.Storage.Driver == DriverS3 {
		bucketPrompt := promptui.Prompt{
			Label: "S3 bucket",
			Validate: func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("bucket is required")
				}
				return nil
			},
		}
		bucket, err := bucketPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("s3 bucket: %w", err)
		}
		cfg.Storage.S3.Bucket = strings.TrimSpace(bucket)
	}

	// 4. Network-first paths.
	nfPrompt := promptui.Prompt{
		Label:   "Paths always fetched fresh when online (comma-separated suffixes)",
		Default: strings.Join(cfg.Cache.NetworkFirst, ","),
	}
	nf, err := nfPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("network-first paths: %w", err)
	}
	cfg.Cache.NetworkFirst = splitAndTrim(nf)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
