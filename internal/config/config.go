// Package config provides runtime configuration values for the service.
package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
)

// EnvDevelopment enables the OpenAPI document and docs page.
const EnvDevelopment = "Development"

// Config holds configuration knobs for the HTTP server and both cache layers.
type Config struct {
	HTTPAddr        string
	Environment     string
	LogLevel        string
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	HTTPSPort       int

	CacheControlMaxAge    time.Duration
	OutputCacheExpiration time.Duration
	OutputCacheSizeLimit  int64
	OutputCacheVaryBy     []string

	CatalogAbsoluteExpiration time.Duration
	CatalogSlidingExpiration  time.Duration
	CacheSizeLimit            int64
	CacheScanInterval         time.Duration
}

// IsDevelopment reports whether the service runs in the Development environment.
func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, EnvDevelopment)
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	return Config{
		HTTPAddr:                  ":8080",
		Environment:               "Production",
		LogLevel:                  "info",
		ShutdownTimeout:           15 * time.Second,
		CORSOrigins:               []string{"http://localhost:5274"},
		HTTPSPort:                 0,
		CacheControlMaxAge:        300 * time.Second,
		OutputCacheExpiration:     300 * time.Second,
		OutputCacheSizeLimit:      100 << 20,
		OutputCacheVaryBy:         []string{"Accept", "Accept-Encoding"},
		CatalogAbsoluteExpiration: 10 * time.Minute,
		CatalogSlidingExpiration:  2 * time.Minute,
		CacheSizeLimit:            0,
		CacheScanInterval:         time.Minute,
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ParseDuration accepts Go duration strings ("2m", "300s") and bare integers,
// which are read as seconds.
func ParseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// splitList trims list entries and drops empty ones.
func splitList(vals []string) []string {
	var out []string
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Load resolves configuration from the environment and the YAML file named by
// CONFIG_FILE, through the same flag chain the binary uses, without command
// line arguments.
func Load() (Config, error) {
	var cfg Config
	cmd := &cli.Command{
		Name:  "config",
		Flags: Flags(File()),
		Action: func(_ context.Context, cmd *cli.Command) error {
			var err error
			cfg, err = FromCommand(cmd)
			return err
		},
	}
	if err := cmd.Run(context.Background(), []string{"config"}); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
