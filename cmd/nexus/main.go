// Command nexus runs the Nexus service (spec.md §4.1): the asset-state
// coordinator and cross-reference index server.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/cockroachdb/pebble/v2"

	"github.com/ttpedia/backend/internal/config"
	"github.com/ttpedia/backend/internal/index"
	"github.com/ttpedia/backend/internal/nexus"
)

// schemaVersion suffixes the data directory, per spec.md §6's
// "nexus_state_v<N>" naming; bump it on an incompatible key/value
// format change.
const schemaVersion = 1

func main() {
	config.Load()

	addr := flag.String("addr", ":8081", "Nexus HTTP listen address")
	dataDir := flag.String("data", "./data/nexus", "Nexus data directory")
	flag.Parse()

	allowedOrigin := config.OptionalEnv("TTPEDIA_NEXUS_ALLOWED_ORIGIN", "")
	publicDataURL, err := config.RequireEnv("TTPEDIA_PUBLIC_DATA_URL")
	if err != nil {
		log.Fatalf("[nexus] %v", err)
	}

	dbPath := filepath.Join(*dataDir, versionedDBName())
	db, err := pebble.Open(dbPath, &pebble.Options{})
	if err != nil {
		log.Fatalf("[nexus] open %s: %v", dbPath, err)
	}
	defer db.Close()

	idx := index.NewPebbleStore(db)
	assets, err := nexus.NewAssetState(db, nexus.AlwaysPreserve)
	if err != nil {
		log.Fatalf("[nexus] load asset state: %v", err)
	}

	handlers := nexus.NewHandlers(assets, idx, publicDataURL)
	server := nexus.NewServer(*addr, allowedOrigin, handlers)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		log.Printf("[nexus] listening on %s", *addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[nexus] serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[nexus] shutting down")
	if err := nexus.Shutdown(context.Background(), server, 15*time.Second); err != nil {
		log.Printf("[nexus] shutdown: %v", err)
	}
}

func versionedDBName() string {
	return "nexus_state_v" + strconv.Itoa(schemaVersion)
}
