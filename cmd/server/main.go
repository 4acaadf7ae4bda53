package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"lanjack/internal/config"
	"lanjack/internal/httpapi"
	"lanjack/internal/hub"
	"lanjack/internal/server"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx)

	sup := server.New(cfg, h, logger)
	if err := sup.Start(); err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}

	if cfg.HTTPAddr != "" {
		handler := httpapi.SetupRoutes(h, logger)
		go func() {
			logger.Info("observer api listening", zap.String("addr", cfg.HTTPAddr))
			if err := http.ListenAndServe(cfg.HTTPAddr, handler); err != nil {
				logger.Error("observer api stopped", zap.Error(err))
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down, draining sessions")
	sup.Stop()
	sup.Wait()
	h.Inbox() <- hub.Shutdown{}
}
