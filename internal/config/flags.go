package config

import (
	"fmt"
	"strconv"
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"
)

// File returns the YAML file consulted after the environment, taken from
// CONFIG_FILE. A missing file is not an error.
func File() string {
	return getenv("CONFIG_FILE", "config.yaml")
}

func sources(env, key, file string) cli.ValueSourceChain {
	return cli.NewValueSourceChain(
		cli.EnvVar(env),
		yaml.YAML(key, altsrc.StringSourcer(file)),
	)
}

// Flags returns the command line flags of the service. Each flag falls back
// to its environment variable and then to the YAML file at path.
func Flags(path string) []cli.Flag {
	d := Defaults()
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "http-addr",
			Usage:   "listen address",
			Value:   d.HTTPAddr,
			Sources: sources("HTTP_ADDR", "http_addr", path),
		},
		&cli.StringFlag{
			Name:    "environment",
			Usage:   "hosting environment; Development serves the OpenAPI document",
			Value:   d.Environment,
			Sources: sources("APP_ENVIRONMENT", "environment", path),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "debug, info, warn or error",
			Value:   d.LogLevel,
			Sources: sources("LOG_LEVEL", "log_level", path),
		},
		&cli.StringFlag{
			Name:    "shutdown-timeout",
			Usage:   "graceful shutdown budget",
			Value:   d.ShutdownTimeout.String(),
			Sources: sources("SHUTDOWN_TIMEOUT", "shutdown_timeout", path),
		},
		&cli.StringSliceFlag{
			Name:    "cors-origins",
			Usage:   "origins allowed cross-origin access",
			Value:   d.CORSOrigins,
			Config:  cli.StringConfig{TrimSpace: true},
			Sources: sources("CORS_ORIGINS", "cors_origins", path),
		},
		&cli.StringFlag{
			Name:    "https-port",
			Usage:   "redirect plain HTTP requests to this HTTPS port (0 disables)",
			Value:   strconv.Itoa(d.HTTPSPort),
			Sources: sources("HTTPS_PORT", "https_port", path),
		},
		&cli.StringFlag{
			Name:    "cache-control-max-age",
			Usage:   "max-age advertised in the Cache-Control header",
			Value:   d.CacheControlMaxAge.String(),
			Sources: sources("CACHE_CONTROL_MAX_AGE", "cache_control_max_age", path),
		},
		&cli.StringFlag{
			Name:    "output-cache-expiration",
			Usage:   "lifetime of whole-response cache entries",
			Value:   d.OutputCacheExpiration.String(),
			Sources: sources("OUTPUT_CACHE_EXPIRATION", "output_cache_expiration", path),
		},
		&cli.StringFlag{
			Name:    "output-cache-size-limit",
			Usage:   "output cache capacity in bytes",
			Value:   strconv.FormatInt(d.OutputCacheSizeLimit, 10),
			Sources: sources("OUTPUT_CACHE_SIZE_LIMIT", "output_cache_size_limit", path),
		},
		&cli.StringSliceFlag{
			Name:    "output-cache-vary-by",
			Usage:   "request headers that select distinct output cache entries",
			Value:   d.OutputCacheVaryBy,
			Config:  cli.StringConfig{TrimSpace: true},
			Sources: sources("OUTPUT_CACHE_VARY_BY", "output_cache_vary_by", path),
		},
		&cli.StringFlag{
			Name:    "catalog-absolute-expiration",
			Usage:   "catalog cache entry lifetime after write",
			Value:   d.CatalogAbsoluteExpiration.String(),
			Sources: sources("CATALOG_ABSOLUTE_EXPIRATION", "catalog_absolute_expiration", path),
		},
		&cli.StringFlag{
			Name:    "catalog-sliding-expiration",
			Usage:   "catalog cache idle timeout",
			Value:   d.CatalogSlidingExpiration.String(),
			Sources: sources("CATALOG_SLIDING_EXPIRATION", "catalog_sliding_expiration", path),
		},
		&cli.StringFlag{
			Name:    "cache-size-limit",
			Usage:   "catalog cache capacity in entry units (0 is unbounded)",
			Value:   strconv.FormatInt(d.CacheSizeLimit, 10),
			Sources: sources("CACHE_SIZE_LIMIT", "cache_size_limit", path),
		},
		&cli.StringFlag{
			Name:    "cache-scan-interval",
			Usage:   "how often expired entries are swept",
			Value:   d.CacheScanInterval.String(),
			Sources: sources("CACHE_SCAN_INTERVAL", "cache_scan_interval", path),
		},
	}
}

// FromCommand builds a Config from parsed flags.
func FromCommand(cmd *cli.Command) (Config, error) {
	c := Config{
		HTTPAddr:    cmd.String("http-addr"),
		Environment: cmd.String("environment"),
		LogLevel:    cmd.String("log-level"),
		CORSOrigins: splitList(cmd.StringSlice("cors-origins")),

		OutputCacheVaryBy: splitList(cmd.StringSlice("output-cache-vary-by")),
	}
	port, err := strconv.Atoi(cmd.String("https-port"))
	if err != nil {
		return Config{}, fmt.Errorf("flag --https-port: %w", err)
	}
	c.HTTPSPort = port
	durations := []struct {
		flag string
		dst  *time.Duration
	}{
		{"shutdown-timeout", &c.ShutdownTimeout},
		{"cache-control-max-age", &c.CacheControlMaxAge},
		{"output-cache-expiration", &c.OutputCacheExpiration},
		{"catalog-absolute-expiration", &c.CatalogAbsoluteExpiration},
		{"catalog-sliding-expiration", &c.CatalogSlidingExpiration},
		{"cache-scan-interval", &c.CacheScanInterval},
	}
	for _, d := range durations {
		v, err := ParseDuration(cmd.String(d.flag))
		if err != nil {
			return Config{}, fmt.Errorf("flag --%s: %w", d.flag, err)
		}
		*d.dst = v
	}
	sizes := []struct {
		flag string
		dst  *int64
	}{
		{"output-cache-size-limit", &c.OutputCacheSizeLimit},
		{"cache-size-limit", &c.CacheSizeLimit},
	}
	for _, s := range sizes {
		v, err := strconv.ParseInt(cmd.String(s.flag), 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("flag --%s: %w", s.flag, err)
		}
		*s.dst = v
	}
	return c, nil
}
