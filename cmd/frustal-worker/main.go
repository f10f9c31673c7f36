package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/cellux/frustal"
	"github.com/cellux/frustal/internal/logging"
)

func run() error {
	addr := flag.String("addr", ":8080", "listen address")
	path := flag.String("path", "/render", "websocket endpoint path")
	workers := flag.Int("workers", 0, "render goroutines per request (0: GOMAXPROCS)")
	logLevel := flag.String("log", "info", "log level: debug, info, warn or error")
	flag.Parse()

	logger, err := logging.New(os.Stderr, "frustal-worker", *logLevel)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle(*path, frustal.NewWorkerHandler(logger, *workers))
	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", *addr, "path", *path)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("%v\n", err)
	}
}
