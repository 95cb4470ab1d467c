// @title           Exercise Tracker API
// @version         1.0
// @description     Users and their exercise logs, backed by MongoDB.
// @host            localhost:3000
// @BasePath        /api
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/enriqueruelasgarcia/Users-mongo/internal/app"
	"github.com/enriqueruelasgarcia/Users-mongo/internal/config"
	"github.com/enriqueruelasgarcia/Users-mongo/internal/storage"

	_ "github.com/enriqueruelasgarcia/Users-mongo/docs"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	log := newLogger(cfg)
	slog.SetDefault(log)
	if cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	application, err := app.New(cfg, log)
	if err != nil {
		log.Error("app init", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.HTTP.Port,
		Handler:      application.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout.Duration(),
		WriteTimeout: cfg.HTTP.WriteTimeout.Duration(),
		IdleTimeout:  cfg.HTTP.IdleTimeout.Duration(),
	}

	go func() {
		log.Info("your app is listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// the server is already accepting requests; until this completes
	// every /api call is answered with "database not connected"
	connectCtx, cancelConnect := context.WithCancel(context.Background())
	defer cancelConnect()
	go func() {
		err := application.ConnectStorage(connectCtx)
		if err == nil || errors.Is(err, storage.ErrClosed) || connectCtx.Err() != nil {
			return
		}
		log.Error("error connecting to MongoDB", "error", err)
		os.Exit(1)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("shutting down")
	cancelConnect()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("HTTP server shutdown", "error", err)
	}

	if err := application.Close(ctx); err != nil {
		log.Error("app close", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var h slog.Handler
	if cfg.JSONLogs() {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(h).With("service", "exercise-tracker", "version", cfg.App.Version)
}
