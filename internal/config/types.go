package config

// StorageDriver selects where cache buckets are kept.
type StorageDriver string

const (
	DriverMemory StorageDriver = "memory"
	DriverSQLite StorageDriver = "sqlite"
	DriverS3     StorageDriver = "s3"
)

// Config is the top-level itinerary configuration, corresponding to .itinerary.yml.
type Config struct {
	Origin   string        `yaml:"origin" koanf:"origin"`
	Port     int           `yaml:"port" koanf:"port"`
	SitePort int           `yaml:"site_port" koanf:"site_port"`
	SiteDir  string        `yaml:"site_dir" koanf:"site_dir"`
	DataPath string        `yaml:"data_path" koanf:"data_path"`
	Include  []string      `yaml:"include" koanf:"include"`
	Exclude  []string      `yaml:"exclude" koanf:"exclude"`
	Cache    CacheConfig   `yaml:"cache" koanf:"cache"`
	Storage  StorageConfig `yaml:"storage" koanf:"storage"`
	Theme    ThemeConfig   `yaml:"theme" koanf:"theme"`
	LogLevel string        `yaml:"log_level" koanf:"log_level"`
	CORSAll  bool          `yaml:"cors_allow_all" koanf:"cors_allow_all"`
}

// CacheConfig describes the offline cache version and what goes in it.
type CacheConfig struct {
	Prefix       string   `yaml:"prefix" koanf:"prefix"`
	Version      string   `yaml:"version" koanf:"version"`
	Assets       []string `yaml:"assets,omitempty" koanf:"assets"`
	NetworkFirst []string `yaml:"network_first" koanf:"network_first"`
}

// StorageConfig holds the cache storage backend settings.
type StorageConfig struct {
	Driver StorageDriver `yaml:"driver" koanf:"driver"`
	Path   string        `yaml:"path" koanf:"path"`
	S3     S3Config      `yaml:"s3" koanf:"s3"`
}

// S3Config holds settings for the S3 storage driver.
type S3Config struct {
	Bucket   string `yaml:"bucket" koanf:"bucket"`
	Prefix   string `yaml:"prefix" koanf:"prefix"`
	Region   string `yaml:"region,omitempty" koanf:"region"`
	Profile  string `yaml:"profile,omitempty" koanf:"profile"`
	Endpoint string `yaml:"endpoint,omitempty" koanf:"endpoint"`
}

// ThemeConfig controls the automatic night palette.
type ThemeConfig struct {
	Timezone   string `yaml:"timezone" koanf:"timezone"`
	NightStart int    `yaml:"night_start" koanf:"night_start"`
	NightEnd   int    `yaml:"night_end" koanf:"night_end"`
	DayColor   string `yaml:"day_color" koanf:"day_color"`
	NightColor string `yaml:"night_color" koanf:"night_color"`
}
