// Command ginx-server runs the blind-rotation HTTP service.
//
// Rotations run in-process by default; with -redis set, jobs can also be
// enqueued for ginx-worker processes sharing the same storage.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/luxfi/ginx"
	"github.com/luxfi/ginx/internal/queue"
	"github.com/luxfi/ginx/internal/storage"
	"github.com/luxfi/ginx/server"
)

func main() {
	var (
		addr        = flag.String("addr", ":8448", "HTTP server address")
		storagePath = flag.String("storage", "/tmp/ginx-storage", "blob storage path")
		redisAddr   = flag.String("redis", "", "Redis address (enables the job queue)")
		redisDB     = flag.Int("redis-db", 0, "Redis database number")
		queueName   = flag.String("queue", "default", "queue name")
		paramSet    = flag.String("params", "PN10QP27", "parameter set (PN10QP27 or PN11QP58)")
		maxBlobMB   = flag.Int64("max-blob", 1024, "maximum blob size in MB")
	)
	flag.Parse()

	log.Printf("Blind-rotation server starting...")
	log.Printf("  Address: %s", *addr)
	log.Printf("  Storage: %s", *storagePath)
	log.Printf("  Params: %s", *paramSet)
	if *redisAddr != "" {
		log.Printf("  Redis: %s", *redisAddr)
	}

	var lit ginx.ParametersLiteral
	switch *paramSet {
	case "PN10QP27":
		lit = ginx.PN10QP27
	case "PN11QP58":
		lit = ginx.PN11QP58
	default:
		log.Fatalf("Unknown parameter set: %s", *paramSet)
	}

	params, err := ginx.NewParametersFromLiteral(lit)
	if err != nil {
		log.Fatalf("Failed to create parameters: %v", err)
	}

	store, err := storage.NewFileStorage(*storagePath)
	if err != nil {
		log.Fatalf("Failed to create storage: %v", err)
	}
	defer store.Close()

	var jobs queue.Queue
	if *redisAddr != "" {
		q, err := queue.NewRedisQueue(queue.RedisConfig{
			Addr: *redisAddr,
			DB:   *redisDB,
		}, *queueName)
		if err != nil {
			log.Fatalf("Failed to create queue: %v", err)
		}
		defer q.Close()
		jobs = q
	}

	srv := server.New(server.Config{
		MaxBlobMB: *maxBlobMB,
	}, params, store, jobs)

	httpServer := &http.Server{
		Addr:         *addr,
		Handler:      srv.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	go func() {
		log.Printf("Listening on %s", *addr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	fmt.Println("Server stopped")
}
