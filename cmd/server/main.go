package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/Adarsh-codesOP/one2one/internal/config"
	"github.com/Adarsh-codesOP/one2one/internal/logging"
	"github.com/Adarsh-codesOP/one2one/internal/server"
	"github.com/Adarsh-codesOP/one2one/internal/signaling"
	"github.com/Adarsh-codesOP/one2one/internal/version"
)

func main() {
	logger := logging.New("")
	log := logger.WithField("|", "server")

	cfg := config.LoadServer()

	registry := signaling.NewRegistry()
	hub := signaling.NewHub(registry, logger.WithField("|", "hub"))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.Routes(hub, registry, cfg, log),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(ctx)
	})

	g.Go(func() error {
		log.WithField("port", cfg.Port).WithField("version", version.Version).Info("signaling server listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		return srv.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("server exited")
	}
}
