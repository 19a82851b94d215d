package worker

import (
	"context"
	"log"
	"sync"

	"github.com/ttpedia/backend/internal/pedia"
	"github.com/ttpedia/backend/internal/queue"
)

// Pool runs N concurrent cooperative slots, each pulling compile jobs
// off q and running them through Config.Run. All slots share one
// texengine.Runner, so the per-process TeX-engine mutex still admits
// only one compilation at a time (spec.md §4.2's "Mutual exclusion");
// the concurrency here is in the slots' I/O-bound queue/Nexus/bucket
// work, not in the engine itself.
type Pool struct {
	cfg   *Config
	queue queue.Queue
	slots int
}

// NewPool builds a pool of slots slots against cfg and q.
func NewPool(cfg *Config, q queue.Queue, slots int) *Pool {
	if slots < 1 {
		slots = 1
	}
	return &Pool{cfg: cfg, queue: q, slots: slots}
}

// Run blocks until ctx is done, running all slots concurrently.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.slots; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			p.runSlot(ctx, slot)
		}(i)
	}
	wg.Wait()
}

func (p *Pool) runSlot(ctx context.Context, slot int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		delivery, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || err == queue.ErrClosed {
				return
			}
			log.Printf("[worker %d] dequeue: %v", slot, err)
			continue
		}

		if len(delivery.Args) != 2 {
			log.Printf("[worker %d] job %s: %v: want 2 args, got %d", slot, delivery.JobID, pedia.ErrJobMalformed, len(delivery.Args))
			p.ackAsFailed(ctx, slot, delivery.JobID)
			continue
		}
		docID, err := pedia.ParseDocID(delivery.Args[0])
		if err != nil {
			log.Printf("[worker %d] job %s: %v", slot, delivery.JobID, err)
			p.ackAsFailed(ctx, slot, delivery.JobID)
			continue
		}
		content := delivery.Args[1]

		if err := p.cfg.Run(ctx, delivery.JobID, docID, content); err != nil {
			log.Printf("[worker %d] job %s failed, leaving unacked for redelivery: %v", slot, delivery.JobID, err)
			continue
		}

		if err := p.queue.Ack(ctx, delivery.JobID); err != nil {
			log.Printf("[worker %d] job %s: ack failed: %v", slot, delivery.JobID, err)
		}
	}
}

// ackAsFailed acknowledges a job this slot has determined can never
// succeed (JobMalformed/BadDocument, §7): these errors are structural,
// not transient, so retrying would just redeliver the same poison job
// forever and head-of-line-block every job behind it.
func (p *Pool) ackAsFailed(ctx context.Context, slot int, jobID string) {
	if err := p.queue.Ack(ctx, jobID); err != nil {
		log.Printf("[worker %d] job %s: ack-as-failed: %v", slot, jobID, err)
	}
}
