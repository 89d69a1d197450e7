package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const defaultConfigFile = "mdownloader.toml"

// duration reads Go duration strings ("10s", "2h") from TOML.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Config holds all server settings, merged as
// defaults < TOML file < environment < command-line flags.
type Config struct {
	Addr       string `toml:"addr"`
	Serverless bool   `toml:"serverless"`
	CookieFile string `toml:"cookie_file"`

	YtdlpPath       string `toml:"ytdlp_path"`
	FFmpegLocation  string `toml:"ffmpeg_location"`
	MetadataBackend string `toml:"metadata_backend"`
	ProxyAddr       string `toml:"proxy_addr"`

	ExtractTimeout   duration `toml:"extract_timeout"`
	ThumbnailTimeout duration `toml:"thumbnail_timeout"`

	RateLimit float64 `toml:"rate_limit"`
	RateBurst int     `toml:"rate_burst"`

	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	ProgressTTL   duration `toml:"progress_ttl"`

	HistoryDB string `toml:"history_db"`
	StaticDir string `toml:"static_dir"`
	TempDir   string `toml:"temp_dir"`

	Debug bool `toml:"debug"`
}

func DefaultConfig() *Config {
	return &Config{
		Addr:             ":5000",
		CookieFile:       "cookies.txt",
		YtdlpPath:        "yt-dlp",
		MetadataBackend:  "ytdlp",
		ThumbnailTimeout: duration{10 * time.Second},
		RateLimit:        10,
		RateBurst:        20,
		ProgressTTL:      duration{2 * time.Hour},
		StaticDir:        "./static",
	}
}

// LoadConfig builds a Config from defaults, an optional TOML file and the
// environment. path may be empty; then MDOWNLOADER_CONFIG and
// ./mdownloader.toml are tried in turn. A missing default file is not an
// error, a missing explicit one is.
func LoadConfig(path string) (*Config, error) {
	// .env only seeds variables that are not already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	cfg := DefaultConfig()

	explicit := true
	if path == "" {
		path = os.Getenv("MDOWNLOADER_CONFIG")
	}
	if path == "" {
		path = defaultConfigFile
		explicit = false
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		c.Addr = ":" + port
	}
	if os.Getenv("SERVERLESS") == "1" || os.Getenv("VERCEL") != "" {
		c.Serverless = true
	}

	strs := map[string]*string{
		"MDOWNLOADER_COOKIE_FILE":      &c.CookieFile,
		"MDOWNLOADER_YTDLP_PATH":       &c.YtdlpPath,
		"MDOWNLOADER_FFMPEG_LOCATION":  &c.FFmpegLocation,
		"MDOWNLOADER_METADATA_BACKEND": &c.MetadataBackend,
		"MDOWNLOADER_PROXY_ADDR":       &c.ProxyAddr,
		"REDIS_ADDR":                   &c.RedisAddr,
		"REDIS_PASSWORD":               &c.RedisPassword,
		"MDOWNLOADER_HISTORY_DB":       &c.HistoryDB,
		"MDOWNLOADER_STATIC_DIR":       &c.StaticDir,
		"MDOWNLOADER_TEMP_DIR":         &c.TempDir,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	durations := map[string]*duration{
		"MDOWNLOADER_EXTRACT_TIMEOUT":   &c.ExtractTimeout,
		"MDOWNLOADER_THUMBNAIL_TIMEOUT": &c.ThumbnailTimeout,
		"MDOWNLOADER_PROGRESS_TTL":      &c.ProgressTTL,
	}
	for key, dst := range durations {
		if v := os.Getenv(key); v != "" {
			if err := dst.UnmarshalText([]byte(v)); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
		}
	}

	if v := os.Getenv("MDOWNLOADER_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MDOWNLOADER_RATE_LIMIT: %w", err)
		}
		c.RateLimit = f
	}
	ints := map[string]*int{
		"MDOWNLOADER_RATE_BURST": &c.RateBurst,
		"REDIS_DB":               &c.RedisDB,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	if v := os.Getenv("MDOWNLOADER_DEBUG"); v != "" {
		c.Debug, _ = strconv.ParseBool(v)
	}
	return nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr cannot be empty")
	}
	switch strings.ToLower(c.MetadataBackend) {
	case "ytdlp", "youtube":
	default:
		return fmt.Errorf("unsupported metadata_backend %q (valid: ytdlp, youtube)", c.MetadataBackend)
	}
	if c.YtdlpPath == "" {
		return fmt.Errorf("ytdlp_path cannot be empty")
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		return fmt.Errorf("rate_limit and rate_burst must not be negative")
	}
	if c.RateLimit > 0 && c.RateBurst == 0 {
		return fmt.Errorf("rate_burst must be positive when rate_limit is set")
	}
	if c.ExtractTimeout.Duration < 0 || c.ThumbnailTimeout.Duration < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if c.ProgressTTL.Duration <= 0 {
		return fmt.Errorf("progress_ttl must be positive")
	}
	return nil
}
