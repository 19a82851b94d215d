// Package docrepo is the client interface to the collaborative-document
// repository service: a CRDT sync engine and WebSocket server that is
// explicitly out of scope (spec.md §1) and accessed only through this
// stated interface. CRDT internals stay opaque; this package only
// models what the front door needs: look up a document and read its
// "content" field as plain text.
package docrepo

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no document exists for the id.
var ErrNotFound = errors.New("docrepo: document not found")

// ErrMalformed is returned by Get when a document was found but its
// root map's "content" field is missing or not a collaborative text
// value (spec.md §4.3 step 3).
var ErrMalformed = errors.New("docrepo: document content malformed")

// Document is the hydrated view of a collaborative document this repo
// needs: just its current text content.
type Document struct {
	Content string
}

// Client looks up documents in the external collaborative-document repo.
type Client interface {
	Get(ctx context.Context, docID string) (Document, error)
}
