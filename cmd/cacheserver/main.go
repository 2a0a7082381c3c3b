// Command cacheserver runs the cache service: the in-memory engine, its
// background expiry sweeper, and the HTTP adapter, wired to a remote store
// service for write-through and fallback reads.
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

	"github.com/corekv/corekv/cacheengine"
	"github.com/corekv/corekv/config"
	"github.com/corekv/corekv/httpapi/cacheserver"
	"github.com/corekv/corekv/httpapi/ratelimit"
	"github.com/corekv/corekv/service"
	"github.com/corekv/corekv/storageclient"
)

func main() {
	cfg := config.LoadCacheServerConfig()
	log := config.NewLogger()

	engine := cacheengine.New(cacheengine.Config{
		MaxSize:           cfg.MaxCacheSize,
		DefaultTTLSeconds: cfg.DefaultTTLSeconds,
	})

	sweeper := cacheengine.NewSweeper(engine, 0)
	sweeper.Start()
	defer sweeper.Stop()

	client := storageclient.New(cfg.StorageServiceURL, log)
	svc := service.New(engine, client, log)
	limiter := ratelimit.New(cfg.RateLimitMaxRequests, cfg.RateLimitWindow)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: cacheserver.New(svc, limiter, log),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("cache server listening", "port", cfg.Port, "maxSize", cfg.MaxCacheSize, "storeURL", cfg.StorageServiceURL)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down cache server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("cache server shutdown failed", "error", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("cache server failed", "error", err)
			os.Exit(1)
		}
	}
}
