package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinflow-xyz/go-clinflow/logger"
	"github.com/clinflow-xyz/go-clinflow/server"
	"github.com/clinflow-xyz/go-clinflow/storage"
)

func serve(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "Listen address (default :8080, or :$PORT)")
	dbPath := fs.String("db", "", "SQLite database for run persistence (empty = none)")
	rulesFile := fs.String("rules", "", "Rules YAML file (default: built-in knowledge base)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: clinflow serve [options]

Serve the assessment and simulation API over HTTP.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  clinflow serve --addr :9000 --db results.db
  PORT=8081 clinflow serve
`)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger.Init()

	listen := *addr
	if listen == "" {
		if port := os.Getenv("PORT"); port != "" {
			listen = ":" + port
		} else {
			listen = ":8080"
		}
	}

	kbase, err := loadKB(*rulesFile)
	if err != nil {
		return err
	}

	var store *storage.Store
	if *dbPath != "" {
		store, err = storage.Open(*dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		logger.WithField("path", *dbPath).Info("Run persistence enabled")
	}

	srv := server.New(server.Config{
		Addr:  listen,
		KB:    kbase,
		Store: store,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.WithField("signal", sig.String()).Info("Shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	logger.Log.Info("Server exited gracefully")
	return nil
}
