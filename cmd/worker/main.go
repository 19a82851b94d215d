// Command worker runs a Worker process (spec.md §4.2): N cooperative
// slots each performing the pass1 -> Nexus -> pass2 -> upload pipeline,
// sharing one process-wide TeX-engine mutex.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ttpedia/backend/internal/bucket"
	"github.com/ttpedia/backend/internal/config"
	"github.com/ttpedia/backend/internal/queue"
	"github.com/ttpedia/backend/internal/texengine"
	"github.com/ttpedia/backend/internal/worker"
)

func main() {
	config.Load()

	slots := flag.Int("slots", 4, "number of concurrent worker slots")
	engineBinary := flag.String("engine", "tectonic-pedia", "TeX engine binary path")
	filesystemRoot := flag.String("fsroot", "./texmf", "filesystem root for class files")
	queueDir := flag.String("queue-data", "./data/queue", "local queue data directory")
	scratchDir := flag.String("scratch", "./data/scratch", "pass-2 scratch directory root")
	flag.Parse()

	nexusURL, err := config.RequireEnv("TTPEDIA_NEXUS_URL")
	if err != nil {
		log.Fatalf("[worker] %v", err)
	}
	bucketURL, err := config.RequireEnv("TTPEDIA_BUCKET_URL")
	if err != nil {
		log.Fatalf("[worker] %v", err)
	}
	bucketUser, err := config.RequireEnv("TTPEDIA_BUCKET_USERNAME")
	if err != nil {
		log.Fatalf("[worker] %v", err)
	}
	bucketPass, err := config.RequireEnv("TTPEDIA_BUCKET_PASSWORD")
	if err != nil {
		log.Fatalf("[worker] %v", err)
	}
	publicDataURL, err := config.RequireEnv("TTPEDIA_PUBLIC_DATA_URL")
	if err != nil {
		log.Fatalf("[worker] %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// pebble.Open creates queueDir implicitly, but MkdirTemp in pass 2
	// (pipeline.go) requires ScratchDir's parent to already exist.
	if err := os.MkdirAll(*scratchDir, 0o755); err != nil {
		log.Fatalf("[worker] create scratch dir %s: %v", *scratchDir, err)
	}

	q, err := queue.OpenPebbleQueue(*queueDir)
	if err != nil {
		log.Fatalf("[worker] open queue: %v", err)
	}
	defer q.Close()

	s3, err := bucket.NewS3Client(ctx, bucketURL, bucketUser, bucketPass, publicDataURL)
	if err != nil {
		log.Fatalf("[worker] connect bucket: %v", err)
	}

	cfg := &worker.Config{
		Runner:         texengine.NewRunner(texengine.NewCLIEngine(*engineBinary)),
		Nexus:          worker.NewNexusClient(nexusURL),
		Bucket:         s3,
		FilesystemRoot: *filesystemRoot,
		ScratchDir:     *scratchDir,
	}

	log.Printf("[worker] starting %d slots against nexus %s", *slots, nexusURL)
	worker.NewPool(cfg, q, *slots).Run(ctx)
	log.Println("[worker] shutdown complete")
}
