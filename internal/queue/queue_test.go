package queue

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestRedisQueue(t *testing.T) {
	addr := "localhost:6379"
	conn, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
	if err != nil {
		t.Skipf("redis not reachable at %s", addr)
	}
	conn.Close()

	q, err := NewRedisQueue(RedisConfig{Addr: addr}, "test")
	if err != nil {
		t.Fatal(err)
	}
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	job := &Job{
		ID:        "test-job-1",
		KeyHandle: "key-abc",
		AccHandle: "acc-def",
		Mask:      []uint64{1, 2, 3, 4},
	}

	if err := q.Push(ctx, job); err != nil {
		t.Fatalf("push: %v", err)
	}
	if job.Status != StatusPending {
		t.Errorf("status after push: %d", job.Status)
	}

	popped, err := q.Pop(ctx)
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	if popped.ID != job.ID || popped.KeyHandle != job.KeyHandle {
		t.Errorf("popped job mismatch: %+v", popped)
	}
	if len(popped.Mask) != 4 || popped.Mask[3] != 4 {
		t.Errorf("mask mismatch: %v", popped.Mask)
	}

	popped.Status = StatusCompleted
	popped.ResultHandle = "res-xyz"
	if err := q.Update(ctx, popped); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := q.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusCompleted || got.ResultHandle != "res-xyz" {
		t.Errorf("job state: %+v", got)
	}

	if _, err := q.Get(ctx, "missing"); err != ErrJobNotFound {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}
