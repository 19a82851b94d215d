package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ttpedia/backend/internal/queue"
)

// fakeQueue delivers a fixed set of jobs once each, then blocks until ctx
// is done, mimicking queue.Queue without a real pebble backing.
type fakeQueue struct {
	mu        sync.Mutex
	pending   []queue.Delivery
	acked     []string
	exhausted chan struct{}
}

func newFakeQueue(deliveries ...queue.Delivery) *fakeQueue {
	return &fakeQueue{pending: deliveries, exhausted: make(chan struct{})}
}

func (q *fakeQueue) Enqueue(ctx context.Context, args []string) (string, error) {
	return "", nil
}

func (q *fakeQueue) Dequeue(ctx context.Context) (queue.Delivery, error) {
	q.mu.Lock()
	if len(q.pending) > 0 {
		d := q.pending[0]
		q.pending = q.pending[1:]
		if len(q.pending) == 0 {
			close(q.exhausted)
		}
		q.mu.Unlock()
		return d, nil
	}
	q.mu.Unlock()

	<-ctx.Done()
	return queue.Delivery{}, ctx.Err()
}

func (q *fakeQueue) Ack(ctx context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.acked = append(q.acked, jobID)
	return nil
}

func TestPoolProcessesAndAcksJobs(t *testing.T) {
	srv, _ := newTestNexusServer(t)
	defer srv.Close()

	fb := &fakeBucket{}
	cfg := &Config{
		Runner:     newTestRunner(),
		Nexus:      NewNexusClient(srv.URL),
		Bucket:     fb,
		ScratchDir: t.TempDir(),
	}

	q := newFakeQueue(queue.Delivery{JobID: "job-1", Args: []string{"2NEpo7TZRRrLZSi2U", `\section{Widget}`}})
	pool := NewPool(cfg, q, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go pool.Run(ctx)

	select {
	case <-q.exhausted:
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dequeued")
	}

	deadline := time.After(1 * time.Second)
	for {
		q.mu.Lock()
		n := len(q.acked)
		q.mu.Unlock()
		if n == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for job to be acked")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestPoolAcksMalformedJobAsFailed(t *testing.T) {
	srv, _ := newTestNexusServer(t)
	defer srv.Close()

	cfg := &Config{
		Runner:     newTestRunner(),
		Nexus:      NewNexusClient(srv.URL),
		Bucket:     &fakeBucket{},
		ScratchDir: t.TempDir(),
	}

	q := newFakeQueue(queue.Delivery{JobID: "job-bad", Args: []string{"not valid base58 with spaces!"}})
	pool := NewPool(cfg, q, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	pool.Run(ctx)

	// a structurally malformed job (wrong arg count, bad doc id) is
	// acked as failed so it is never redelivered and cannot
	// head-of-line-block jobs behind it.
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.acked) != 1 || q.acked[0] != "job-bad" {
		t.Fatalf("acked = %v, want [job-bad]", q.acked)
	}
}
