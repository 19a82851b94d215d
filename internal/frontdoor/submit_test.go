package frontdoor

import (
	"context"
	"testing"

	"github.com/ttpedia/backend/internal/docrepo"
	"github.com/ttpedia/backend/internal/queue"
)

type fakeRepo struct {
	docs map[string]docrepo.Document
}

func (r *fakeRepo) Get(ctx context.Context, docID string) (docrepo.Document, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return docrepo.Document{}, docrepo.ErrNotFound
	}
	return doc, nil
}

type fakeQueue struct {
	enqueued [][]string
	acked    []string
}

func (q *fakeQueue) Enqueue(ctx context.Context, args []string) (string, error) {
	q.enqueued = append(q.enqueued, args)
	return "job-1", nil
}

func (q *fakeQueue) Dequeue(ctx context.Context) (queue.Delivery, error) {
	<-ctx.Done()
	return queue.Delivery{}, ctx.Err()
}

func (q *fakeQueue) Ack(ctx context.Context, jobID string) error {
	q.acked = append(q.acked, jobID)
	return nil
}

func TestSubmitSuccess(t *testing.T) {
	repo := &fakeRepo{docs: map[string]docrepo.Document{
		"2NEpo7TZRRrLZSi2U": {Content: `\section{Widget}`},
	}}
	q := &fakeQueue{}
	s := &Submitter{Repo: repo, Queue: q}

	resp := s.Submit(context.Background(), "2NEpo7TZRRrLZSi2U")
	if resp.Status != "ok" {
		t.Fatalf("Status = %q, want ok", resp.Status)
	}
	if len(q.enqueued) != 1 || q.enqueued[0][0] != "2NEpo7TZRRrLZSi2U" || q.enqueued[0][1] != `\section{Widget}` {
		t.Fatalf("enqueued = %v", q.enqueued)
	}
}

func TestSubmitMissingDocument(t *testing.T) {
	repo := &fakeRepo{docs: map[string]docrepo.Document{}}
	q := &fakeQueue{}
	s := &Submitter{Repo: repo, Queue: q}

	resp := s.Submit(context.Background(), "2NEpo7TZRRrLZSi2U")
	want := "document 2NEpo7TZRRrLZSi2U not found"
	if resp.Status != want {
		t.Fatalf("Status = %q, want %q", resp.Status, want)
	}
	if len(q.enqueued) != 0 {
		t.Fatalf("expected no enqueue for missing document, got %v", q.enqueued)
	}
}

func TestSubmitInvalidDocID(t *testing.T) {
	repo := &fakeRepo{}
	q := &fakeQueue{}
	s := &Submitter{Repo: repo, Queue: q}

	resp := s.Submit(context.Background(), "")
	if resp.Status == "ok" {
		t.Fatalf("Status = %q, want failure for empty doc id", resp.Status)
	}
	if len(q.enqueued) != 0 {
		t.Fatalf("expected no enqueue for invalid doc id, got %v", q.enqueued)
	}
}
