package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/goliatone/go-rentflow/internal/devbackend"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8000", "listen address")
	bucket := flag.String("bucket", devbackend.DefaultBucket, "storage bucket name")
	storageKey := flag.String("storage-key", "", "require this bearer key on uploads")
	failUploads := flag.Int("fail-uploads", 0, "fail the first N storage uploads")
	failCreates := flag.Int("fail-creates", 0, "fail the first N profile or application creates")
	verbose := flag.Bool("v", false, "log every request")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	backend := devbackend.New(
		devbackend.WithLogger(logger),
		devbackend.WithBucket(*bucket),
		devbackend.WithStorageKey(*storageKey),
	)
	backend.FailNext(devbackend.FaultUploads, *failUploads)
	backend.FailNext(devbackend.FaultCreates, *failCreates)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           backend,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("dev backend listening on http://%s (api /api/v1, storage /storage/v1)", *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to serve: %v", err)
	}
}
