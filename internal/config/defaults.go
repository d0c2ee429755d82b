package config

// DefaultAssets is the precache manifest used when neither explicit assets
// nor a site directory are configured.
var DefaultAssets = []string{
	"./",
	"index.html",
	"style.css",
	"app.js",
	"data.json",
	"manifest.json",
	"icons/icon-192.png",
	"icons/icon-512.png",
	"ticketFast_1.pdf",
	"ticketFast_2.pdf",
}

// DefaultExcludes are glob patterns never precached from a site directory.
var DefaultExcludes = []string{
	".*",
	"**/.*",
	"**/*.map",
	"**/*.yml",
	"**/*.yaml",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Origin:   "http://localhost:8081/",
		Port:     8080,
		SitePort: 8081,
		DataPath: "data.json",
		Include:  []string{"**"},
		Exclude:  append([]string(nil), DefaultExcludes...),
		Cache: CacheConfig{
			Prefix:       "itinerary",
			Version:      "v5",
			NetworkFirst: []string{"data.json"},
		},
		Storage: StorageConfig{
			Driver: DriverSQLite,
			Path:   ".itinerary/cache.db",
			S3: S3Config{
				Prefix: "itinerary-cache",
			},
		},
		Theme: ThemeConfig{
			Timezone:   "America/Los_Angeles",
			NightStart: 18,
			NightEnd:   6,
			DayColor:   "#f2a6c7",
			NightColor: "#1a1028",
		},
		LogLevel: "info",
	}
}
