package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mixr/internal/server"
)

// router builds the HTTP routes for the JSON API and, when configured, the uploads directory.
func (r *Runner) router() (*server.BasicRouter, error) {
	if err := r.open(); err != nil {
		return nil, err
	}

	router := server.NewBasicRouter()
	router.Use(server.LoggingMiddleware(r.logger))
	router.Handler(server.NewCollectionHandler(r.manager, r.source, r.logger))

	if dir := r.config.Uploads.Dir; dir != "" {
		if _, err := os.Stat(dir); err == nil {
			prefix := "/" + strings.Trim(r.config.Uploads.URLPrefix, "/") + "/"
			router.Handle(http.MethodGet, prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(dir))))
		} else {
			r.logger.Warn("uploads directory not found, not serving images", "dir", dir)
		}
	}

	return router, nil
}

// Serve runs the JSON API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	router, err := r.router()
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	r.logger.Debug("routes registered", "routes", router.Routes())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Serve(ctx, server.NewHTTPServer(addr, router), ln, r.logger)
}
