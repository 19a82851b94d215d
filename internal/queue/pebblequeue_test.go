package queue

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestPebbleQueueEnqueueDequeueAck(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "q")
	q, err := OpenPebbleQueue(dir)
	if err != nil {
		t.Fatalf("OpenPebbleQueue: %v", err)
	}
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	jobID, err := q.Enqueue(ctx, []string{"doc1", "content1"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	d, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if d.JobID != jobID || len(d.Args) != 2 || d.Args[0] != "doc1" {
		t.Fatalf("got %+v", d)
	}

	if err := q.Ack(ctx, jobID); err != nil {
		t.Fatalf("Ack: %v", err)
	}

	// after Ack, no job should be redelivered; use a short-lived context.
	shortCtx, shortCancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer shortCancel()
	if _, err := q.Dequeue(shortCtx); err == nil {
		t.Fatal("expected Dequeue to block after Ack, got a delivery")
	}
}

func TestPebbleQueueRedeliversAfterLeaseExpiry(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "q")
	q, err := OpenPebbleQueue(dir)
	if err != nil {
		t.Fatalf("OpenPebbleQueue: %v", err)
	}
	defer q.Close()
	q.leaseDuration = 50 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	jobID, err := q.Enqueue(ctx, []string{"doc1", "content1"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	if _, err := q.Dequeue(ctx); err != nil {
		t.Fatalf("first Dequeue: %v", err)
	}
	// no Ack, but the lease has expired: at-least-once delivery means
	// the same job comes back to whichever slot asks next.
	time.Sleep(100 * time.Millisecond)
	d, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("second Dequeue: %v", err)
	}
	if d.JobID != jobID {
		t.Fatalf("redelivered job id = %s, want %s", d.JobID, jobID)
	}
}

func TestPebbleQueueDoesNotRedeliverWhileLeased(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "q")
	q, err := OpenPebbleQueue(dir)
	if err != nil {
		t.Fatalf("OpenPebbleQueue: %v", err)
	}
	defer q.Close()
	q.leaseDuration = 2 * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := q.Enqueue(ctx, []string{"doc1", "content1"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := q.Dequeue(ctx); err != nil {
		t.Fatalf("first Dequeue: %v", err)
	}

	// the lease is still live, so a second concurrent slot must not
	// receive the same job.
	shortCtx, shortCancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer shortCancel()
	if _, err := q.Dequeue(shortCtx); err == nil {
		t.Fatal("expected Dequeue to block while the job is leased, got a delivery")
	}
}
