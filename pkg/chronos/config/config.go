// Package config resolves settings from an optional YAML file, CHRONOS_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/komsit37/chronos/pkg/chronos/logx"
	"github.com/komsit37/chronos/pkg/chronos/render"
	"github.com/komsit37/chronos/pkg/chronos/timerange"
)

const (
	EnvPrefix   = "CHRONOS"
	DefaultFile = "chronos.yaml"
)

// Keys shared by the YAML file, viper and the command-line flags.
const (
	KeySymbol      = "symbol"
	KeyRange       = "range"
	KeyCacheTTL    = "cache_ttl"
	KeyTimeout     = "timeout"
	KeyConcurrency = "concurrency"
	KeyRows        = "rows"
	KeyFormat      = "format"
	KeyColor       = "color"
	KeyPretty      = "pretty"
	KeyLogLevel    = "log_level"
	KeyWatchlist   = "watchlist"
	KeyFilter      = "filter"
	KeyWatchEvery  = "watch.every"
	KeyWatchCycle  = "watch.cycle"
)

type Config struct {
	Symbol      string        `yaml:"symbol"`
	Range       string        `yaml:"range"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
	Timeout     time.Duration `yaml:"timeout"`
	Concurrency int           `yaml:"concurrency"`
	Rows        int           `yaml:"rows"`
	Format      string        `yaml:"format"`
	Color       bool          `yaml:"color"`
	Pretty      bool          `yaml:"pretty"`
	LogLevel    string        `yaml:"log_level"`
	Watchlist   string        `yaml:"watchlist"`
	Filter      string        `yaml:"filter"`
	Watch       Watch         `yaml:"watch"`
}

type Watch struct {
	Every time.Duration `yaml:"every"`
	Cycle bool          `yaml:"cycle"`
}

func Default() Config {
	return Config{
		Symbol:      "AAPL",
		Range:       timerange.DefaultLabel,
		CacheTTL:    time.Hour,
		Timeout:     15 * time.Second,
		Concurrency: 4,
		Rows:        10,
		Format:      "table",
		Color:       true,
		LogLevel:    "warn",
		Watch:       Watch{Every: time.Minute},
	}
}

// Load reads path over the defaults, applies every key set in v and
// validates the result. A missing file is an error only when required is true.
func Load(path string, required bool, v *viper.Viper) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !required:
		default:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if v != nil {
		cfg.apply(v)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// NewViper returns a viper instance reading CHRONOS_* variables, with
// "watch.every" mapped to CHRONOS_WATCH_EVERY.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func (c *Config) apply(v *viper.Viper) {
	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v.IsSet(key) {
			*dst = v.GetDuration(key)
		}
	}
	num := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
	flag := func(key string, dst *bool) {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}
	str(KeySymbol, &c.Symbol)
	str(KeyRange, &c.Range)
	dur(KeyCacheTTL, &c.CacheTTL)
	dur(KeyTimeout, &c.Timeout)
	num(KeyConcurrency, &c.Concurrency)
	num(KeyRows, &c.Rows)
	str(KeyFormat, &c.Format)
	flag(KeyColor, &c.Color)
	flag(KeyPretty, &c.Pretty)
	str(KeyLogLevel, &c.LogLevel)
	str(KeyWatchlist, &c.Watchlist)
	str(KeyFilter, &c.Filter)
	dur(KeyWatchEvery, &c.Watch.Every)
	flag(KeyWatchCycle, &c.Watch.Cycle)
}

// Validate normalizes labels and rejects settings the commands cannot use.
func (c *Config) Validate() error {
	c.Symbol = strings.ToUpper(strings.TrimSpace(c.Symbol))
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))

	var errs []error
	if r, err := timerange.Parse(c.Range); err != nil {
		errs = append(errs, err)
	} else {
		c.Range = r.Label
	}
	if _, ok := render.New(c.Format); !ok || c.Format == "" {
		errs = append(errs, fmt.Errorf("unknown format %q; available: %s", c.Format, strings.Join(render.Formats(), ", ")))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("cache_ttl must be positive, got %s", c.CacheTTL))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if c.Rows < 0 {
		errs = append(errs, fmt.Errorf("rows must not be negative, got %d", c.Rows))
	}
	if c.Watch.Every < time.Second {
		errs = append(errs, fmt.Errorf("watch.every must be at least 1s, got %s", c.Watch.Every))
	}
	if _, err := logx.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	return errors.Join(errs...)
}
