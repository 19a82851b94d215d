// Package pedia holds the types and wire schemas shared between the
// Nexus, Worker, and front door processes: document/job identifiers,
// the pass1/pass2 request-response schemas, the pedia.txt metadata
// parser, the mergeable asset specification, and the resolved-reference
// TeX templates.
package pedia

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// DocID is a document identifier in its base58check string form.
type DocID string

// ParseDocID validates that s decodes as base58 and is non-empty. The
// collaborative-document repo is the authority on whether a doc id
// actually exists; this only rejects strings that can't possibly be one.
func ParseDocID(s string) (DocID, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty doc id", ErrBadDocument)
	}
	if _, err := base58.Decode(s); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrBadDocument, s, err)
	}
	return DocID(s), nil
}

// Job is a compilation job dequeued from the job queue: a document id
// and the document's text content at enqueue time.
type Job struct {
	ID      string
	DocID   DocID
	Content string
}
