package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = ".itinerary.yml"

// EnvPrefix prefixes environment overrides. A double underscore descends
// into a section: ITINERARY_CACHE__VERSION sets cache.version.
const EnvPrefix = "ITINERARY_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (ITINERARY_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validDrivers = map[StorageDriver]bool{
	DriverMemory: true,
	DriverSQLite: true,
	DriverS3:     true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
	"fatal": true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if _, err := c.OriginURL(); err != nil {
		return err
	}

	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.SitePort < 0 || c.SitePort > 65535 {
		return fmt.Errorf("invalid site_port %d", c.SitePort)
	}

	if c.DataPath == "" {
		return fmt.Errorf("data_path is required")
	}

	if c.Cache.Prefix == "" {
		return fmt.Errorf("cache.prefix is required")
	}
	if c.Cache.Version == "" {
		return fmt.Errorf("cache.version is required")
	}

	if !validDrivers[c.Storage.Driver] {
		return fmt.Errorf("invalid storage.driver %q: must be one of memory, sqlite, s3", c.Storage.Driver)
	}
	if c.Storage.Driver == DriverSQLite && c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required for the sqlite driver")
	}
	if c.Storage.Driver == DriverS3 && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("storage.s3.bucket is required for the s3 driver")
	}

	if c.Theme.Timezone == "" {
		return fmt.Errorf("theme.timezone is required")
	}
	if c.Theme.NightStart < 0 || c.Theme.NightStart > 23 || c.Theme.NightEnd < 0 || c.Theme.NightEnd > 23 {
		return fmt.Errorf("theme night hours must be within 0-23")
	}

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}

	return nil
}

// OriginURL parses Origin as the scope of the offline cache. The path
// always ends in a slash.
func (c *Config) OriginURL() (*url.URL, error) {
	if c.Origin == "" {
		return nil, fmt.Errorf("origin is required")
	}
	u, err := url.Parse(c.Origin)
	if err != nil {
		return nil, fmt.Errorf("invalid origin %q: %w", c.Origin, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid origin %q: scheme must be http or https", c.Origin)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid origin %q: missing host", c.Origin)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u, nil
}
