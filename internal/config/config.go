package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

const (
	defaultAPITimeout     = 15 * time.Second
	defaultCacheTTL       = time.Hour
	defaultMaxUploadBytes = 5 << 20
)

type Config struct {
	Addr           string        `yaml:"addr"`
	APITimeout     time.Duration `yaml:"timeout"`
	DatabasePath   string        `yaml:"database_path"`
	AttachmentDir  string        `yaml:"attachment_dir"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	LogLevel       string        `yaml:"log_level"`
	Cache          CacheConfig   `yaml:"cache"`
}

type CacheConfig struct {
	Backend   string        `yaml:"backend"`
	TTL       time.Duration `yaml:"ttl"`
	RedisAddr string        `yaml:"redis_addr"`
	RedisKey  string        `yaml:"redis_key"`
}

// LoadConfig builds the configuration from environment variables (a .env file
// in the working directory is loaded first when present) and then applies the
// YAML file at path, if any.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:          getEnv("STAFFDIR_ADDR", ":8080"),
		APITimeout:    defaultAPITimeout,
		DatabasePath:  getEnv("STAFFDIR_DATABASE_PATH", "teacher_management.db"),
		AttachmentDir: getEnv("STAFFDIR_ATTACHMENT_DIR", "teacher_photos"),
		LogLevel:      getEnv("STAFFDIR_LOG_LEVEL", "info"),
		Cache: CacheConfig{
			Backend:   getEnv("STAFFDIR_CACHE_BACKEND", CacheMemory),
			TTL:       defaultCacheTTL,
			RedisAddr: getEnv("STAFFDIR_REDIS_ADDR", ""),
		},
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate fills zero values with defaults and rejects settings the server
// cannot start with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}
	if c.AttachmentDir == "" {
		return fmt.Errorf("attachment_dir is required")
	}
	if c.APITimeout <= 0 {
		c.APITimeout = defaultAPITimeout
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = defaultMaxUploadBytes
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = defaultCacheTTL
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheMemory
	}

	switch c.Cache.Backend {
	case CacheMemory:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LogLevel; an empty level is info.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return lvl, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
