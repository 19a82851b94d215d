// Package frontdoor implements the document-submission entry point
// (spec.md §4.3): validate a doc id, fetch the document from the
// external CRDT repo, and enqueue a compile job.
package frontdoor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/ttpedia/backend/internal/docrepo"
	"github.com/ttpedia/backend/internal/pedia"
	"github.com/ttpedia/backend/internal/queue"
)

// Submitter holds the front door's dependencies: the document repo
// client and the job queue, per spec.md §4.3 and §5 ("the submission
// front door holds a single client behind a mutex").
type Submitter struct {
	Repo  docrepo.Client
	Queue queue.Queue

	enqueueMu sync.Mutex
}

// Submit implements spec.md §4.3's five steps, returning a status
// string rather than an error: every failure is user-visible as
// {status: "..."} with HTTP 200, per §7's "submission endpoints always
// return a JSON {status} object".
func (s *Submitter) Submit(ctx context.Context, rawDocID string) pedia.SubmitResponse {
	docID, err := pedia.ParseDocID(rawDocID)
	if err != nil {
		log.Printf("[frontdoor] submit: %v", err)
		return pedia.SubmitResponse{Status: fmt.Sprintf("invalid document id %q", rawDocID)}
	}

	doc, err := s.Repo.Get(ctx, string(docID))
	if err != nil {
		if errors.Is(err, docrepo.ErrNotFound) {
			return pedia.SubmitResponse{Status: fmt.Sprintf("document %s not found", docID)}
		}
		if errors.Is(err, docrepo.ErrMalformed) {
			return pedia.SubmitResponse{Status: fmt.Sprintf("document %s content is malformed", docID)}
		}
		log.Printf("[frontdoor] submit %s: %v", docID, err)
		return pedia.SubmitResponse{Status: fmt.Sprintf("document %s unavailable", docID)}
	}

	s.enqueueMu.Lock()
	_, err = s.Queue.Enqueue(ctx, []string{string(docID), doc.Content})
	s.enqueueMu.Unlock()
	if err != nil {
		log.Printf("[frontdoor] submit %s: enqueue: %v", docID, err)
		return pedia.SubmitResponse{Status: "queue unavailable"}
	}

	return pedia.SubmitResponse{Status: "ok"}
}
