// Package bucket is the object-store client used by the Worker to upload
// HTML entries and shared assets (spec.md §6 Bucket layout). The Nexus
// does not use it; it builds its asset redirect URLs itself. The object
// store itself is
// an external collaborator; this package only defines and implements the
// narrow interface this repo needs against it.
package bucket

import (
	"context"
	"fmt"
	"strings"
)

// Bucket names per spec.md §6.
const (
	BucketHTML         = "ttpedia-html"
	BucketSharedAssets = "ttpedia-sharedassets"
)

// Client uploads objects to and builds redirect targets against the
// object store.
type Client interface {
	// Upload stores data at key within bucket with the given
	// content-type.
	Upload(ctx context.Context, bucket, key, contentType string, data []byte) error

	// PublicURL returns the URL clients should be redirected to for an
	// object at key within bucket, rooted at the configured public data
	// URL (spec.md §4.1 GET /asset/{key}).
	PublicURL(bucket, key string) string
}

// ContentType derives the upload content-type from a shared-asset file
// name's extension, per spec.md §4.2 step 4.
func ContentType(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".css"):
		return "text/css"
	case strings.HasSuffix(filename, ".otf"):
		return "font/otf"
	default:
		return "application/octet-stream"
	}
}

// ErrUpload wraps any failure uploading to the object store, classified
// as the UploadError kind from spec.md §7.
var ErrUpload = fmt.Errorf("bucket upload error")
