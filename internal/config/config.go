// Package config loads geoloc settings through viper: defaults, then an
// optional geoloc.yaml, then GEOLOC_* environment variables, then flags
// bound by the CLI. Load turns the merged view into a validated Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/loopercamera/4M/internal/ports"
)

// Setting keys.
const (
	KeyGazetteer     = "gazetteer"
	KeyLabels        = "labels"
	KeyLanguages     = "languages"
	KeyCantonLevel   = "resolver.canton_level"
	KeyWorkers       = "workers"
	KeyCacheEnabled  = "cache.enabled"
	KeyCacheTTL      = "cache.ttl"
	KeyStorePath     = "store.path"
	KeySQLDriver     = "sql.driver"
	KeySQLDSN        = "sql.dsn"
	KeySQLLimit      = "sql.limit"
	KeyLogLevel      = "log.level"
	KeyLogFormat     = "log.format"
	KeyLogFile       = "log.file"
	KeyServeAddr     = "serve.addr"
	KeyInputEncoding = "input.encoding"
)

// EnvPrefix prefixes every environment override (GEOLOC_SQL_DSN, ...).
const EnvPrefix = "GEOLOC"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the typed view of all settings.
type Config struct {
	Gazetteer   string
	Labels      string
	Languages   []string
	CantonLevel int
	Workers     int
	Cache       CacheConfig
	Store       StoreConfig
	SQL         SQLConfig
	Log         LogConfig
	Serve       ServeConfig
	Input       InputConfig
}

type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

type StoreConfig struct {
	Path string // bbolt file; empty means <project>/.geoloc/results.db
}

type SQLConfig struct {
	Driver string
	DSN    string
	Limit  int
}

type LogConfig struct {
	Level  string
	Format string
	File   string
}

type ServeConfig struct {
	Addr string
}

type InputConfig struct {
	Encoding string
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	// GEOLOC_SQL_DSN maps to "sql.dsn"
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
	return v
}

// SetDefaults registers the default of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyGazetteer, "data/gazetteer.json")
	v.SetDefault(KeyLabels, "data/labels.json")
	v.SetDefault(KeyLanguages, ports.DefaultLanguages)
	v.SetDefault(KeyCantonLevel, 1)
	v.SetDefault(KeyWorkers, 0)
	v.SetDefault(KeyCacheEnabled, true)
	v.SetDefault(KeyCacheTTL, "30m")
	v.SetDefault(KeyStorePath, "")
	v.SetDefault(KeySQLDriver, "postgres")
	v.SetDefault(KeySQLDSN, "")
	v.SetDefault(KeySQLLimit, 0)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyServeAddr, "127.0.0.1:8080")
	v.SetDefault(KeyInputEncoding, "utf-8")
}

// ReadFile reads an explicit config file, or searches geoloc.yaml in the
// working directory and then in the user config directory. A missing
// file is not an error; a broken one is.
func ReadFile(v *viper.Viper, explicit string) error {
	if explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", explicit, err)
		}
		return nil
	}

	v.SetConfigName("geoloc")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "geoloc"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load builds a validated Config from v.
func Load(v *viper.Viper) (Config, error) {
	ttl, err := parseDuration(v.GetString(KeyCacheTTL))
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalid, KeyCacheTTL, err)
	}

	cfg := Config{
		Gazetteer:   v.GetString(KeyGazetteer),
		Labels:      v.GetString(KeyLabels),
		Languages:   languages(v.GetStringSlice(KeyLanguages)),
		CantonLevel: v.GetInt(KeyCantonLevel),
		Workers:     v.GetInt(KeyWorkers),
		Cache:       CacheConfig{Enabled: v.GetBool(KeyCacheEnabled), TTL: ttl},
		Store:       StoreConfig{Path: v.GetString(KeyStorePath)},
		SQL: SQLConfig{
			Driver: strings.ToLower(v.GetString(KeySQLDriver)),
			DSN:    v.GetString(KeySQLDSN),
			Limit:  v.GetInt(KeySQLLimit),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString(KeyLogLevel)),
			Format: strings.ToLower(v.GetString(KeyLogFormat)),
			File:   v.GetString(KeyLogFile),
		},
		Serve: ServeConfig{Addr: v.GetString(KeyServeAddr)},
		Input: InputConfig{Encoding: v.GetString(KeyInputEncoding)},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c Config) Validate() error {
	var problems []string
	if c.Gazetteer == "" {
		problems = append(problems, KeyGazetteer+" is required")
	}
	if c.Labels == "" {
		problems = append(problems, KeyLabels+" is required")
	}
	if len(c.Languages) == 0 {
		problems = append(problems, KeyLanguages+" must name at least one language")
	}
	if c.CantonLevel < 0 {
		problems = append(problems, KeyCantonLevel+" must be >= 0")
	}
	if c.Workers < 0 {
		problems = append(problems, KeyWorkers+" must be >= 0")
	}
	if c.SQL.Limit < 0 {
		problems = append(problems, KeySQLLimit+" must be >= 0")
	}
	switch c.SQL.Driver {
	case "postgres", "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("%s %q (want postgres or sqlite)", KeySQLDriver, c.SQL.Driver))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("%s %q (want debug, info, warn or error)", KeyLogLevel, c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("%s %q (want text or json)", KeyLogFormat, c.Log.Format))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// languages normalizes list entries that may themselves be delimited
// ("de,fr" from an environment variable).
func languages(raw []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, item := range raw {
		for _, lang := range ports.ParseLanguages(item) {
			if !seen[lang] {
				seen[lang] = true
				out = append(out, lang)
			}
		}
	}
	return out
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// Settings returns every key with its effective value, for display.
func Settings(v *viper.Viper) map[string]any {
	keys := []string{
		KeyGazetteer, KeyLabels, KeyLanguages, KeyCantonLevel, KeyWorkers,
		KeyCacheEnabled, KeyCacheTTL, KeyStorePath, KeySQLDriver, KeySQLDSN,
		KeySQLLimit, KeyLogLevel, KeyLogFormat, KeyLogFile, KeyServeAddr,
		KeyInputEncoding,
	}
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		out[k] = v.Get(k)
	}
	if dsn, ok := out[KeySQLDSN].(string); ok && dsn != "" {
		out[KeySQLDSN] = redact(dsn)
	}
	return out
}

// redact hides the password of a URL-style DSN.
func redact(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	userinfo := dsn[scheme+3 : at]
	if colon := strings.Index(userinfo, ":"); colon >= 0 {
		return dsn[:scheme+3] + userinfo[:colon] + ":***" + dsn[at:]
	}
	return dsn
}
