// Command ginx-worker drains blind-rotation jobs from the queue.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/luxfi/ginx"
	"github.com/luxfi/ginx/internal/queue"
	"github.com/luxfi/ginx/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		numWorkers  = flag.Int("workers", 4, "number of worker goroutines")
		redisAddr   = flag.String("redis", "localhost:6379", "Redis address")
		redisDB     = flag.Int("redis-db", 0, "Redis database number")
		queueName   = flag.String("queue", "default", "queue name")
		storagePath = flag.String("storage", "/tmp/ginx-storage", "blob storage path")
		paramSet    = flag.String("params", "PN10QP27", "parameter set (PN10QP27 or PN11QP58)")
		metricsAddr = flag.String("metrics", ":9090", "metrics server address")
	)
	flag.Parse()

	log.Printf("Blind-rotation worker starting...")
	log.Printf("  Workers: %d", *numWorkers)
	log.Printf("  Redis: %s", *redisAddr)
	log.Printf("  Storage: %s", *storagePath)
	log.Printf("  Params: %s", *paramSet)
	log.Printf("  Metrics: %s", *metricsAddr)

	// Queue.
	q, err := queue.NewRedisQueue(queue.RedisConfig{
		Addr: *redisAddr,
		DB:   *redisDB,
	}, *queueName)
	if err != nil {
		return fmt.Errorf("create queue: %w", err)
	}
	defer q.Close()

	// Storage.
	store, err := storage.NewFileStorage(*storagePath)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}

	params, err := paramsByName(*paramSet)
	if err != nil {
		return err
	}

	// Worker pool.
	pool := &WorkerPool{
		numWorkers: *numWorkers,
		queue:      q,
		storage:    store,
		params:     params,
		keys:       make(map[storage.Handle]*ginx.AccKey),
	}

	// Context with cancellation.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start workers.
	if err := pool.Start(ctx); err != nil {
		return fmt.Errorf("start workers: %w", err)
	}

	// Metrics server.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "# HELP ginx_rotations_total Total blind rotations\n")
		fmt.Fprintf(w, "# TYPE ginx_rotations_total counter\n")
		fmt.Fprintf(w, "ginx_rotations_total{status=\"success\"} %d\n", pool.successCount.Load())
		fmt.Fprintf(w, "ginx_rotations_total{status=\"failure\"} %d\n", pool.failureCount.Load())
	})

	server := &http.Server{
		Addr:    *metricsAddr,
		Handler: mux,
	}

	go func() {
		log.Printf("Metrics server starting on %s", *metricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Metrics server error: %v", err)
		}
	}()

	// Wait for shutdown signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	log.Printf("Received signal: %s", sig.String())

	// Graceful shutdown.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Metrics server shutdown error: %v", err)
	}

	if err := pool.Stop(); err != nil {
		log.Printf("Worker pool shutdown error: %v", err)
	}

	log.Println("Shutdown complete")
	return nil
}

func paramsByName(name string) (ginx.Parameters, error) {
	switch name {
	case "PN10QP27":
		return ginx.NewParametersFromLiteral(ginx.PN10QP27)
	case "PN11QP58":
		return ginx.NewParametersFromLiteral(ginx.PN11QP58)
	default:
		return ginx.Parameters{}, fmt.Errorf("unknown parameter set: %s", name)
	}
}

// WorkerPool manages a pool of blind-rotation workers.
type WorkerPool struct {
	numWorkers   int
	queue        queue.Queue
	storage      storage.Storage
	params       ginx.Parameters
	wg           sync.WaitGroup
	cancel       context.CancelFunc
	running      atomic.Bool
	successCount atomic.Int64
	failureCount atomic.Int64

	// Bootstrapping keys cached by handle, shared across workers.
	keyMu sync.RWMutex
	keys  map[storage.Handle]*ginx.AccKey
}

// Start starts the worker pool.
func (p *WorkerPool) Start(ctx context.Context) error {
	if p.running.Load() {
		return errors.New("pool already running")
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.running.Store(true)

	log.Printf("Starting %d workers", p.numWorkers)

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	return nil
}

// Stop gracefully stops the worker pool.
func (p *WorkerPool) Stop() error {
	if !p.running.Load() {
		return nil
	}

	log.Println("Stopping worker pool...")
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Worker pool stopped")
	case <-time.After(30 * time.Second):
		log.Println("Shutdown timeout exceeded")
		return errors.New("shutdown timeout")
	}

	p.running.Store(false)
	return nil
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	log.Printf("Worker %d started", id)

	// Each worker owns its evaluator; the scratch buffers are not shareable.
	eval := ginx.NewEvaluator(p.params)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Worker %d stopping", id)
			return
		default:
		}

		job, err := p.queue.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Printf("Worker %d: failed to pop job: %v", id, err)
			time.Sleep(time.Second)
			continue
		}

		p.processJob(ctx, id, eval, job)
	}
}

func (p *WorkerPool) processJob(ctx context.Context, workerID int, eval *ginx.Evaluator, job *queue.Job) {
	log.Printf("Worker %d: processing job %s (n=%d)", workerID, job.ID, len(job.Mask))

	// Mark as processing.
	job.Status = queue.StatusProcessing
	if err := p.queue.Update(ctx, job); err != nil {
		log.Printf("Worker %d: failed to update job status: %v", workerID, err)
	}

	fail := func(format string, args ...interface{}) {
		job.Status = queue.StatusFailed
		job.Error = fmt.Sprintf(format, args...)
		p.queue.Update(ctx, job)
		p.failureCount.Add(1)
	}

	ak, err := p.loadKey(ctx, storage.Handle(job.KeyHandle))
	if err != nil {
		fail("load bootstrapping key: %v", err)
		return
	}

	accData, err := p.storage.Load(ctx, storage.Handle(job.AccHandle))
	if err != nil {
		fail("load accumulator: %v", err)
		return
	}

	acc := new(ginx.Ciphertext)
	if err := acc.UnmarshalBinary(accData); err != nil {
		fail("unmarshal accumulator: %v", err)
		return
	}

	if err := eval.BlindRotate(ak, job.Mask, acc); err != nil {
		fail("blind rotate: %v", err)
		return
	}

	resultData, err := acc.MarshalBinary()
	if err != nil {
		fail("marshal result: %v", err)
		return
	}

	handle, err := p.storage.Store(ctx, resultData)
	if err != nil {
		fail("store result: %v", err)
		return
	}

	// Update job status.
	job.Status = queue.StatusCompleted
	job.ResultHandle = string(handle)
	if err := p.queue.Update(ctx, job); err != nil {
		log.Printf("Worker %d: failed to update job result: %v", workerID, err)
	}

	p.successCount.Add(1)
	log.Printf("Worker %d: job %s completed", workerID, job.ID)
}

func (p *WorkerPool) loadKey(ctx context.Context, handle storage.Handle) (*ginx.AccKey, error) {
	p.keyMu.RLock()
	ak, ok := p.keys[handle]
	p.keyMu.RUnlock()
	if ok {
		return ak, nil
	}

	data, err := p.storage.Load(ctx, handle)
	if err != nil {
		return nil, err
	}

	ak = new(ginx.AccKey)
	if err := ak.UnmarshalBinary(data); err != nil {
		return nil, err
	}

	p.keyMu.Lock()
	p.keys[handle] = ak
	p.keyMu.Unlock()

	return ak, nil
}
