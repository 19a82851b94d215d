// Package queue models the external job queue (spec.md §2 item 2): "a
// durable FIFO with at-least-once delivery; a job carries a document
// identifier and the current document text." The queue is an external
// collaborator in production (the original ran on Faktory); this
// package defines the interface this repo needs against it and ships a
// durable pebble-backed reference implementation for local/dev use and
// tests, in the teacher's own style of using pebble as the durable
// backing store for anything that needs one.
package queue

import (
	"context"
	"errors"
)

// JobName is the queue job name used for compile jobs (spec.md §6).
const JobName = "compile"

// QueueName is the durable queue compile jobs are dispatched on.
const QueueName = "default"

// Delivery is a dequeued job delivery: the assigned job id and its
// string arguments, exactly as they crossed the wire. Args are not
// pre-validated; the caller classifies malformed args as JobMalformed.
type Delivery struct {
	JobID string
	Args  []string
}

// Queue is the narrow interface the front door and Worker need: enqueue
// a job, and block waiting for (at-least-once) deliveries.
type Queue interface {
	// Enqueue submits a job named JobName with args, queue QueueName.
	// Returns the id the queue assigned.
	Enqueue(ctx context.Context, args []string) (jobID string, err error)

	// Dequeue blocks until a job is available or ctx is done.
	Dequeue(ctx context.Context) (Delivery, error)

	// Ack acknowledges successful processing of jobID. An unacked
	// delivery is redelivered subject to the queue's own retry policy
	// (spec.md §4.2 step 5, §7).
	Ack(ctx context.Context, jobID string) error
}

// ErrClosed is returned by Dequeue when the queue has been closed and
// will never produce another delivery.
var ErrClosed = errors.New("queue: closed")
