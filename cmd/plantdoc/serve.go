package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Brownie44l1/plantdoc/internal/handlers"
	"github.com/Brownie44l1/plantdoc/internal/web"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Start the web UI and JSON API",
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	app, err := newApplication(cfg)
	if err != nil {
		return err
	}
	defer app.close()

	renderer, err := web.NewRenderer(cfg.LLM.Model)
	if err != nil {
		return err
	}
	handler := handlers.NewHandler(app.service, renderer, app.logger, handlers.Options{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		ImageLimits:    app.imageLimits(),
		AdviceReady:    app.advisor.Available(),
	})

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: handlers.NewRouter(handler, app.metrics, app.logger, cfg.Server.RequestTimeout),
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, groupCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Info().
			Str("addr", server.Addr).
			Str("version", version).
			Msg("🚀 Launching Plant Disease Detection System")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		app.logger.Info().Msg("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
