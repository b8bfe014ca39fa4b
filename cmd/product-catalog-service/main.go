// Package main boots the Product Catalog Service HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/fairyhunter13/product-catalog-service/internal/cache"
	"github.com/fairyhunter13/product-catalog-service/internal/config"
	httpapi "github.com/fairyhunter13/product-catalog-service/internal/http"
	"github.com/fairyhunter13/product-catalog-service/internal/model"
	"github.com/fairyhunter13/product-catalog-service/internal/obs"
)

func main() {
	cmd := &cli.Command{
		Name:  "product-catalog-service",
		Usage: "serve the product catalog over HTTP",
		Flags: config.Flags(config.File()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.FromCommand(cmd)
			if err != nil {
				return err
			}
			return run(ctx, cfg)
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	obs.InitLogger(cfg.LogLevel)
	obs.Logger.Info("service_starting", "environment", cfg.Environment)

	catalogCache := cache.New[[]model.Product](
		cache.WithName("catalog"),
		cache.WithSizeLimit(cfg.CacheSizeLimit),
		cache.WithScanInterval(cfg.CacheScanInterval),
	)
	defer catalogCache.Close()
	out := httpapi.NewOutputCache(httpapi.OutputCacheConfig{
		Expiration:    cfg.OutputCacheExpiration,
		SizeLimit:     cfg.OutputCacheSizeLimit,
		VaryByHeaders: cfg.OutputCacheVaryBy,
		ScanInterval:  cfg.CacheScanInterval,
	})
	defer out.Close()
	obs.Publish("catalog_cache", func() any { return catalogCache.Stats() })
	obs.Publish("output_cache", func() any { return out.Stats() })

	app := httpapi.NewApp(cfg, catalogCache, out)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(app),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		obs.Logger.Info("http_listen", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	select {
	case err := <-errc:
		obs.Logger.Error("http_server_error", "error", err)
		return fmt.Errorf("http server: %w", err)
	case <-sigCtx.Done():
		obs.Logger.Info("shutdown_signal")
	}

	ctxSrv, cancelSrv := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelSrv()
	if err := srv.Shutdown(ctxSrv); err != nil {
		obs.Logger.Error("http_shutdown_error", "error", err)
		return fmt.Errorf("shutdown: %w", err)
	}
	obs.Logger.Info("service_stopped")
	return nil
}
