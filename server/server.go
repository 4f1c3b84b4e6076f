// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

// Package server exposes blind rotation over HTTP.
//
// Clients upload bootstrapping keys and accumulators as opaque blobs, then
// drive rotations either synchronously (POST /v1/rotate) or through the job
// queue (POST /v1/jobs) when a queue is configured and workers drain it.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/luxfi/ginx"
	"github.com/luxfi/ginx/internal/queue"
	"github.com/luxfi/ginx/internal/storage"
)

// Config holds server configuration. The listen address belongs to the
// http.Server owning the Handler, not to the Config.
type Config struct {
	// MaxBlobMB bounds the size of uploaded blobs.
	MaxBlobMB int64
}

// Server is the blind-rotation server
type Server struct {
	cfg    Config
	params ginx.Parameters
	store  storage.Storage
	jobs   queue.Queue // nil when running without workers

	// Deserialized bootstrapping keys, cached by blob handle. A key blob
	// runs to hundreds of megabytes; decoding it once per handle instead of
	// once per rotation dominates request latency.
	keyMu   sync.RWMutex
	keys    map[storage.Handle]*ginx.AccKey

	evalPool sync.Pool
}

// New creates a new blind-rotation server.
func New(cfg Config, params ginx.Parameters, store storage.Storage, jobs queue.Queue) *Server {
	if cfg.MaxBlobMB == 0 {
		cfg.MaxBlobMB = 1024
	}

	return &Server{
		cfg:    cfg,
		params: params,
		store:  store,
		jobs:   jobs,
		keys:   make(map[storage.Handle]*ginx.AccKey),
		evalPool: sync.Pool{
			New: func() interface{} {
				return ginx.NewEvaluator(params)
			},
		},
	}
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)

	mux.HandleFunc("/v1/keys", s.handleStoreBlob)
	mux.HandleFunc("/v1/accumulators", s.handleStoreBlob)
	mux.HandleFunc("/v1/blobs/", s.handleLoadBlob)

	mux.HandleFunc("/v1/rotate", s.handleRotate)

	if s.jobs != nil {
		mux.HandleFunc("/v1/jobs", s.handleSubmitJob)
		mux.HandleFunc("/v1/jobs/", s.handleGetJob)
	}

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "ok",
		"logN":   s.params.LogN(),
		"queue":  s.jobs != nil,
	})
}

// StoreBlobResponse is returned after a key or accumulator upload.
type StoreBlobResponse struct {
	Handle string `json:"handle"`
}

func (s *Server) handleStoreBlob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxBlobMB*1024*1024+1))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if int64(len(data)) > s.cfg.MaxBlobMB*1024*1024 {
		http.Error(w, "blob too large", http.StatusRequestEntityTooLarge)
		return
	}

	handle, err := s.store.Store(r.Context(), data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StoreBlobResponse{Handle: string(handle)})
}

func (s *Server) handleLoadBlob(w http.ResponseWriter, r *http.Request) {
	handle := storage.Handle(strings.TrimPrefix(r.URL.Path, "/v1/blobs/"))

	data, err := s.store.Load(r.Context(), handle)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(data)
}

// RotateRequest drives one synchronous blind rotation.
type RotateRequest struct {
	KeyHandle string   `json:"key_handle"`
	AccHandle string   `json:"acc_handle"`
	Mask      []uint64 `json:"mask"`
}

// RotateResponse carries the handle of the rotated accumulator.
type RotateResponse struct {
	ResultHandle string  `json:"result_handle"`
	ElapsedMs    float64 `json:"elapsed_ms"`
}

func (s *Server) handleRotate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	var req RotateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()

	resultHandle, err := s.rotate(r, &req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, storage.ErrNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RotateResponse{
		ResultHandle: string(resultHandle),
		ElapsedMs:    float64(time.Since(start).Microseconds()) / 1000.0,
	})
}

func (s *Server) rotate(r *http.Request, req *RotateRequest) (storage.Handle, error) {
	ctx := r.Context()

	ak, err := s.loadKey(r, storage.Handle(req.KeyHandle))
	if err != nil {
		return "", err
	}

	accData, err := s.store.Load(ctx, storage.Handle(req.AccHandle))
	if err != nil {
		return "", fmt.Errorf("load accumulator: %w", err)
	}

	acc := new(ginx.Ciphertext)
	if err := acc.UnmarshalBinary(accData); err != nil {
		return "", fmt.Errorf("decode accumulator: %w", err)
	}

	eval := s.evalPool.Get().(*ginx.Evaluator)
	defer s.evalPool.Put(eval)

	if err := eval.BlindRotate(ak, req.Mask, acc); err != nil {
		return "", err
	}

	resultData, err := acc.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}

	return s.store.Store(ctx, resultData)
}

func (s *Server) loadKey(r *http.Request, handle storage.Handle) (*ginx.AccKey, error) {
	s.keyMu.RLock()
	ak, ok := s.keys[handle]
	s.keyMu.RUnlock()
	if ok {
		return ak, nil
	}

	data, err := s.store.Load(r.Context(), handle)
	if err != nil {
		return nil, fmt.Errorf("load bootstrapping key: %w", err)
	}

	ak = new(ginx.AccKey)
	if err := ak.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("decode bootstrapping key: %w", err)
	}

	s.keyMu.Lock()
	s.keys[handle] = ak
	s.keyMu.Unlock()

	return ak, nil
}

// SubmitJobResponse is returned after enqueueing a rotation job.
type SubmitJobResponse struct {
	JobID string `json:"job_id"`
}

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	var req RotateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := &queue.Job{
		ID:        uuid.NewString(),
		KeyHandle: req.KeyHandle,
		AccHandle: req.AccHandle,
		Mask:      req.Mask,
	}

	if err := s.jobs.Push(r.Context(), job); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(SubmitJobResponse{JobID: job.ID})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/jobs/")

	job, err := s.jobs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, queue.ErrJobNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job)
}
