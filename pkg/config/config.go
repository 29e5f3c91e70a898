package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var GlobalConfig *Config

// Config global configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Redis     RedisConfig     `yaml:"redis"`
	MySQL     MySQLConfig     `yaml:"mysql"`
	Logger    LoggerConfig    `yaml:"logger"`
	Cache     CacheConfig     `yaml:"cache"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Port   int    `yaml:"port"`
	Mode   string `yaml:"mode"`    // debug, release
	APIKey string `yaml:"api_key"` // admin API key (optional, if empty, admin auth is disabled)
}

// RedisConfig Redis configuration
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MySQLConfig MySQL configuration
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// LoggerConfig logger configuration
type LoggerConfig struct {
	Level  string           `yaml:"level"`  // debug, info, warn, error
	Output string           `yaml:"output"` // console, file, both
	File   LoggerFileConfig `yaml:"file"`
}

// LoggerFileConfig logger file configuration
type LoggerFileConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig Redis read-through cache TTLs
type CacheConfig struct {
	CharactersTTL  time.Duration `yaml:"characters_ttl"`
	LeaderboardTTL time.Duration `yaml:"leaderboard_ttl"`
}

// SchedulerConfig synthetic engagement scheduler configuration
type SchedulerConfig struct {
	Enabled          bool          `yaml:"enabled"`
	CyclePeriod      time.Duration `yaml:"cycle_period"`      // how often a new cycle is attempted
	TickInterval     time.Duration `yaml:"tick_interval"`     // distribution tick
	Window           time.Duration `yaml:"window"`            // time over which a job spreads its units
	CatalogStaleness time.Duration `yaml:"catalog_staleness"` // catalog refresh threshold
	CallTimeout      time.Duration `yaml:"call_timeout"`      // bound on each persistence call

	MinRegions  int `yaml:"min_regions"`
	MaxRegions  int `yaml:"max_regions"`
	MinEntities int `yaml:"min_entities"`
	MaxEntities int `yaml:"max_entities"`
	MinClicks   int `yaml:"min_clicks"`
	MaxClicks   int `yaml:"max_clicks"`

	// PositiveDrawThreshold t: a scenario is positive when the smaller of two
	// uniform draws is below t, i.e. P(positive) = 1 - (1-t)^2. Valid range
	// is [0, 1]; 0 disables positive scenarios.
	PositiveDrawThreshold float64 `yaml:"positive_draw_threshold"`

	Seed            int64 `yaml:"seed"`             // 0 means seed from time
	DistributedLock bool  `yaml:"distributed_lock"` // guard cycles across replicas with Redis
}

// DefaultSchedulerConfig returns the scheduler defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:               true,
		CyclePeriod:           60 * time.Second,
		TickInterval:          time.Second,
		Window:                60 * time.Second,
		CatalogStaleness:      5 * time.Minute,
		CallTimeout:           5 * time.Second,
		MinRegions:            2,
		MaxRegions:            6,
		MinEntities:           3,
		MaxEntities:           5,
		MinClicks:             300,
		MaxClicks:             1500,
		PositiveDrawThreshold: 0.5,
		DistributedLock:       true,
	}
}

// DefaultCacheConfig returns the cache defaults.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		CharactersTTL:  60 * time.Second,
		LeaderboardTTL: 10 * time.Second,
	}
}

// Init initializes configuration
func Init() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := Load(configPath)
	if err != nil {
		return err
	}

	GlobalConfig = cfg
	return nil
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Config{
		Scheduler: DefaultSchedulerConfig(),
		Cache:     DefaultCacheConfig(),
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	validateAndApplyDefaults(&cfg)
	return &cfg, nil
}

// validateAndApplyDefaults replaces invalid values with defaults so the
// service always starts with a usable configuration.
func validateAndApplyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.MySQL.Port <= 0 {
		cfg.MySQL.Port = 3306
	}

	cache := DefaultCacheConfig()
	if cfg.Cache.CharactersTTL <= 0 {
		cfg.Cache.CharactersTTL = cache.CharactersTTL
	}
	if cfg.Cache.LeaderboardTTL <= 0 {
		cfg.Cache.LeaderboardTTL = cache.LeaderboardTTL
	}

	d := DefaultSchedulerConfig()
	s := &cfg.Scheduler
	if s.CyclePeriod <= 0 {
		s.CyclePeriod = d.CyclePeriod
	}
	if s.TickInterval <= 0 {
		s.TickInterval = d.TickInterval
	}
	if s.Window <= 0 {
		s.Window = d.Window
	}
	if s.CatalogStaleness <= 0 {
		s.CatalogStaleness = d.CatalogStaleness
	}
	if s.CallTimeout <= 0 {
		s.CallTimeout = d.CallTimeout
	}
	if s.MinRegions <= 0 || s.MaxRegions < s.MinRegions {
		s.MinRegions, s.MaxRegions = d.MinRegions, d.MaxRegions
	}
	if s.MinEntities <= 0 || s.MaxEntities < s.MinEntities {
		s.MinEntities, s.MaxEntities = d.MinEntities, d.MaxEntities
	}
	if s.MinClicks <= 0 || s.MaxClicks < s.MinClicks {
		s.MinClicks, s.MaxClicks = d.MinClicks, d.MaxClicks
	}
	if s.PositiveDrawThreshold < 0 || s.PositiveDrawThreshold > 1 {
		s.PositiveDrawThreshold = d.PositiveDrawThreshold
	}
}
