package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ttpedia/backend/internal/bucket"
	"github.com/ttpedia/backend/internal/pedia"
)

// uploadArtifacts implements spec.md §4.2 step 4: scan the pass-2 output
// directory, upload shared assets (and acknowledge them) before HTML
// entries, so a GET /asset/{key} redirect issued concurrently never
// points at a generation whose files aren't in the bucket yet.
func (c *Config) uploadArtifacts(ctx context.Context, jobID string, docID pedia.DocID, outDir string, preserveAssets *int) error {
	entries, assets, err := scanOutputDir(outDir)
	if err != nil {
		return err
	}

	if preserveAssets != nil {
		for _, filename := range assets {
			data, err := os.ReadFile(filepath.Join(outDir, filename))
			if err != nil {
				return fmt.Errorf("%w: read %s: %v", pedia.ErrUpload, filename, err)
			}
			key := fmt.Sprintf("%s/%s", jobID, filename)
			if err := c.Bucket.Upload(ctx, bucket.BucketSharedAssets, key, bucket.ContentType(filename), data); err != nil {
				return err
			}
		}
		// A failed acknowledgment must not be swallowed: without this
		// call cur_seqnum never moves and the assets we just uploaded are
		// never visible via GET /asset/{key}. A failed asset upload or
		// acknowledgment returns here, before any HTML upload, and the
		// job is left unacked for redelivery.
		if err := c.Nexus.AssetsUploaded(ctx, pedia.AssetsUploadedRequest{SeqNum: *preserveAssets, BucketKey: jobID}); err != nil {
			return err
		}
	}

	for _, stem := range entries {
		filename := "entry-" + stem
		data, err := os.ReadFile(filepath.Join(outDir, filename))
		if err != nil {
			return fmt.Errorf("%w: read %s: %v", pedia.ErrUpload, filename, err)
		}
		key := fmt.Sprintf("%s/%s", docID, stem)
		if err := c.Bucket.Upload(ctx, bucket.BucketHTML, key, "text/html", data); err != nil {
			return err
		}
	}

	return nil
}

// scanOutputDir classifies a pass-2 output directory's files per
// spec.md §4.2 step 4: "Files beginning entry-<stem> are HTML entries;
// files ending .otf or .css are shared assets." entries is returned as
// the bare stems (without the entry- prefix); assets as full filenames.
func scanOutputDir(outDir string) (entries []string, assets []string, err error) {
	dirEntries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: scan output dir: %v", pedia.ErrUpload, err)
	}
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		switch {
		case strings.HasPrefix(name, "entry-"):
			entries = append(entries, strings.TrimPrefix(name, "entry-"))
		case strings.HasSuffix(name, ".otf"), strings.HasSuffix(name, ".css"):
			assets = append(assets, name)
		}
	}
	return entries, assets, nil
}
