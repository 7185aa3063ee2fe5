package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/thepwagner/cydiarepo/pkg/storage"
)

// Run serves the repository until ctx is cancelled.
func Run(ctx context.Context, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}
	defer store.Close()

	h, err := NewHandler(cfg, store)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: h,
	}

	go func() {
		<-ctx.Done()
		slog.InfoContext(ctx, "shutting down")
		_ = srv.Shutdown(context.Background())
	}()

	slog.Info("listening", slog.String("addr", cfg.Addr), slog.String("url", cfg.BaseURL))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
