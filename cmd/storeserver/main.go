// Command storeserver runs the durable store service: the partitioned
// per-key file store, the write-queue/read-cache/backup manager on top of
// it, and the HTTP adapter the cache service talks to.
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

	"github.com/corekv/corekv/config"
	"github.com/corekv/corekv/httpapi/ratelimit"
	"github.com/corekv/corekv/httpapi/storeserver"
	"github.com/corekv/corekv/store"
	"github.com/corekv/corekv/storemanager"
)

func main() {
	cfg := config.LoadStoreServerConfig()
	log := config.NewLogger()

	st := store.New(cfg.DataPath, log)
	if err := st.Initialize(); err != nil {
		log.Error("store initialization failed", "dataPath", cfg.DataPath, "error", err)
		os.Exit(1)
	}

	manager := storemanager.New(st, storemanager.Config{
		DataPath:       cfg.DataPath,
		BackupInterval: &cfg.BackupInterval, // BACKUP_INTERVAL=0 disables periodic backup
	}, log)

	limiter := ratelimit.New(cfg.RateLimitMaxRequests, cfg.RateLimitWindow)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: storeserver.New(manager, st, limiter, int(cfg.MaxFileSizeBytes), log),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("store server listening", "port", cfg.Port, "dataPath", cfg.DataPath, "backupInterval", cfg.BackupInterval)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down store server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("store server shutdown failed", "error", err)
		}
		manager.Shutdown()
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("store server failed", "error", err)
			os.Exit(1)
		}
	}
}
