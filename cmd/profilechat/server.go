package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kalambet/profilechat/internal/api"
)

const shutdownTimeout = 5 * time.Second

func runServer(ctx context.Context) error {
	fmt.Fprintf(progressOut, "profilechat version %s\n", version)

	printStep("Loading configuration...")
	a, cfg, err := loadApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	printStatus("Storage", "%s (%s)", cfg.Storage.Backend, cfg.Storage.DataDir)
	printStatus("Model", "%s via %s", cfg.LLM.Model, cfg.LLM.Provider)

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	srv := &http.Server{
		Addr: addr,
		Handler: api.NewHandler(api.Deps{
			Service: a.manager,
			Metrics: a.metrics,
		}),
		// Request contexts end on SIGINT/SIGTERM so in-flight completions stop.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		printSuccess("profilechat listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		printStep("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
