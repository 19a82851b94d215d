package queue

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble/v2"
)

var (
	keyNextSeq     = []byte("meta:nextSeq")
	keyJobPrefix   = []byte("job:")   // job:{big-endian uint64 seq} -> JSON(storedJob)
	keyIdxPrefix   = []byte("idx:")   // idx:{jobID} -> big-endian uint64 seq, for ack-by-id lookup
	keyLeasePrefix = []byte("lease:") // lease:{jobID} -> big-endian int64 unix-nano deadline
)

// defaultLeaseDuration bounds how long a dequeued-but-unacked delivery
// stays invisible to other slots before it is considered abandoned (the
// worker that held it crashed or hung) and becomes redeliverable again.
const defaultLeaseDuration = 5 * time.Minute

type storedJob struct {
	JobID string   `json:"jobId"`
	Args  []string `json:"args"`
}

// PebbleQueue is a durable, at-least-once FIFO backed by a pebble
// database, grounded on the prefix+big-endian-sequence key scheme in
// runner/x_runner.go (xKeyTxPrefix + binary.BigEndian). A background
// notify channel wakes blocked Dequeue calls, mirroring the ticker-poll
// style of XRunner.RunBlocks rather than busy-waiting. A dequeued
// delivery is leased for leaseDuration (defaultLeaseDuration unless
// changed): other callers of Dequeue will
// not see it again until it is acked or the lease expires, so a job is
// consumed by exactly one in-flight slot at a time (spec.md §3 "consumed
// once by a Worker").
type PebbleQueue struct {
	db            *pebble.DB
	leaseDuration time.Duration

	mu     sync.Mutex
	notify chan struct{}
	closed bool
}

// OpenPebbleQueue opens (creating if absent) the queue database at dir.
func OpenPebbleQueue(dir string) (*PebbleQueue, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("queue: open %s: %w", dir, err)
	}
	return &PebbleQueue{db: db, notify: make(chan struct{}, 1), leaseDuration: defaultLeaseDuration}, nil
}

func (q *PebbleQueue) Close() error {
	q.mu.Lock()
	q.closed = true
	close(q.notify)
	q.mu.Unlock()
	return q.db.Close()
}

func (q *PebbleQueue) Enqueue(ctx context.Context, args []string) (string, error) {
	seq, err := q.nextSeq()
	if err != nil {
		return "", err
	}
	jobID := fmt.Sprintf("job-%d-%d", seq, time.Now().UnixNano())

	data, err := json.Marshal(storedJob{JobID: jobID, Args: args})
	if err != nil {
		return "", fmt.Errorf("queue: marshal job: %w", err)
	}

	batch := q.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(seqKey(seq), data, nil); err != nil {
		return "", fmt.Errorf("queue: enqueue: %w", err)
	}
	if err := batch.Set(idxKey(jobID), encodeSeq(seq), nil); err != nil {
		return "", fmt.Errorf("queue: enqueue: %w", err)
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return "", fmt.Errorf("queue: enqueue: %w", err)
	}

	q.wake()
	return jobID, nil
}

// Dequeue blocks until a job is available or ctx is done, polling the
// oldest entry that is neither acked nor currently leased to another
// caller.
func (q *PebbleQueue) Dequeue(ctx context.Context) (Delivery, error) {
	for {
		d, ok, err := q.tryDequeue()
		if err != nil {
			return Delivery{}, err
		}
		if ok {
			return d, nil
		}

		select {
		case <-ctx.Done():
			return Delivery{}, ctx.Err()
		case _, open := <-q.notify:
			if !open {
				return Delivery{}, ErrClosed
			}
		case <-time.After(200 * time.Millisecond):
			// poll fallback, in case Enqueue raced the select above, and
			// so an expired lease becomes visible even without a wake
		}
	}
}

// tryDequeue scans the oldest still-present jobs for one that is not
// currently leased, and atomically acquires a fresh lease on it before
// returning it. Locked against other local Dequeue/Ack callers so lease
// acquisition is check-then-set without a race between goroutines in
// this process.
func (q *PebbleQueue) tryDequeue() (Delivery, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	iter, err := q.db.NewIter(&pebble.IterOptions{
		LowerBound: keyJobPrefix,
		UpperBound: prefixUpperBound(keyJobPrefix),
	})
	if err != nil {
		return Delivery{}, false, fmt.Errorf("queue: iterate: %w", err)
	}
	defer iter.Close()

	now := time.Now()
	for iter.First(); iter.Valid(); iter.Next() {
		var sj storedJob
		if err := json.Unmarshal(iter.Value(), &sj); err != nil {
			continue // corrupt entry; skip rather than wedge the queue
		}

		deadline, err := q.leaseDeadline(sj.JobID)
		if err != nil {
			return Delivery{}, false, err
		}
		if deadline.After(now) {
			continue // leased to another in-flight slot
		}
		if err := q.acquireLease(sj.JobID, now); err != nil {
			return Delivery{}, false, err
		}
		return Delivery{JobID: sj.JobID, Args: sj.Args}, true, nil
	}
	return Delivery{}, false, iter.Error()
}

// Ack acknowledges jobID, permanently removing its job, index, and
// lease entries so it is never redelivered and so the job: keyspace
// Dequeue scans does not grow without bound. Acking an already-acked or
// unknown jobID is a no-op.
func (q *PebbleQueue) Ack(ctx context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	val, closer, err := q.db.Get(idxKey(jobID))
	if err == pebble.ErrNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("queue: ack %s: %w", jobID, err)
	}
	seq := append([]byte{}, val...)
	closer.Close()

	batch := q.db.NewBatch()
	defer batch.Close()
	if err := batch.Delete(jobKeyFromSeqBytes(seq), nil); err != nil {
		return fmt.Errorf("queue: ack %s: %w", jobID, err)
	}
	if err := batch.Delete(idxKey(jobID), nil); err != nil {
		return fmt.Errorf("queue: ack %s: %w", jobID, err)
	}
	if err := batch.Delete(leaseKey(jobID), nil); err != nil {
		return fmt.Errorf("queue: ack %s: %w", jobID, err)
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("queue: ack %s: %w", jobID, err)
	}
	return nil
}

func (q *PebbleQueue) leaseDeadline(jobID string) (time.Time, error) {
	val, closer, err := q.db.Get(leaseKey(jobID))
	if err == pebble.ErrNotFound {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("queue: read lease %s: %w", jobID, err)
	}
	defer closer.Close()
	nanos := int64(binary.BigEndian.Uint64(val))
	return time.Unix(0, nanos), nil
}

func (q *PebbleQueue) acquireLease(jobID string, now time.Time) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(now.Add(q.leaseDuration).UnixNano()))
	if err := q.db.Set(leaseKey(jobID), buf, pebble.Sync); err != nil {
		return fmt.Errorf("queue: acquire lease %s: %w", jobID, err)
	}
	return nil
}

func (q *PebbleQueue) nextSeq() (uint64, error) {
	val, closer, err := q.db.Get(keyNextSeq)
	var seq uint64
	if err == nil {
		seq = binary.BigEndian.Uint64(val)
		closer.Close()
	} else if err != pebble.ErrNotFound {
		return 0, fmt.Errorf("queue: read seq: %w", err)
	}

	next := make([]byte, 8)
	binary.BigEndian.PutUint64(next, seq+1)
	if err := q.db.Set(keyNextSeq, next, pebble.Sync); err != nil {
		return 0, fmt.Errorf("queue: write seq: %w", err)
	}
	return seq, nil
}

func (q *PebbleQueue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func encodeSeq(seq uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)
	return buf
}

func seqKey(seq uint64) []byte {
	return jobKeyFromSeqBytes(encodeSeq(seq))
}

func jobKeyFromSeqBytes(seqBytes []byte) []byte {
	key := make([]byte, 0, len(keyJobPrefix)+len(seqBytes))
	key = append(key, keyJobPrefix...)
	key = append(key, seqBytes...)
	return key
}

func idxKey(jobID string) []byte {
	return append(append([]byte{}, keyIdxPrefix...), jobID...)
}

func leaseKey(jobID string) []byte {
	return append(append([]byte{}, keyLeasePrefix...), jobID...)
}

func prefixUpperBound(prefix []byte) []byte {
	upper := append([]byte{}, prefix...)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xff {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil // prefix is all 0xff; unbounded
}
