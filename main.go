package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/election-tally/cliparse"
	"github.com/danielhkuo/election-tally/db"
	"github.com/danielhkuo/election-tally/ledger"
	"github.com/danielhkuo/election-tally/metrics"
	"github.com/danielhkuo/election-tally/router"
	"github.com/danielhkuo/election-tally/session"
)

func main() {
	exitCode := 0
	defer func() { os.Exit(exitCode) }()

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	l := ledger.New(dbConn)
	m := metrics.New()
	sessions := session.NewRegistry(session.Deps{
		Ledger:   l,
		Notifier: session.LogNotifier{},
		Metrics:  m,
	})
	defer sessions.Close()

	server := http.Server{
		Handler: router.NewRouter(l, sessions, m, cfg),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		// Wait for Ctrl-C or a server failure
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if err != nil {
		slog.Error("Server closed", "error", err)
		exitCode = 1
		return
	}
	slog.Info("Server closed")
}
