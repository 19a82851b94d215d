// Command frontdoor runs the Front Door service (spec.md §4.3): accepts
// submission requests from the document repository and proxies its
// live-collaboration websocket.
package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ttpedia/backend/internal/config"
	"github.com/ttpedia/backend/internal/docrepo"
	"github.com/ttpedia/backend/internal/frontdoor"
	"github.com/ttpedia/backend/internal/queue"
)

func main() {
	config.Load()

	addr := config.OptionalEnv("TTPEDIA_FRONTDOOR_ADDR", ":8082")
	allowedOrigin := config.OptionalEnv("TTPEDIA_REPO_ALLOWED_ORIGIN", "")
	queueDir := config.OptionalEnv("TTPEDIA_QUEUE_DATA", "./data/queue")

	repoBaseURL, err := config.RequireEnv("TTPEDIA_DOCREPO_URL")
	if err != nil {
		log.Fatalf("[frontdoor] %v", err)
	}
	repoWSBaseURL, err := config.RequireEnv("TTPEDIA_DOCREPO_WS_URL")
	if err != nil {
		log.Fatalf("[frontdoor] %v", err)
	}

	q, err := queue.OpenPebbleQueue(queueDir)
	if err != nil {
		log.Fatalf("[frontdoor] open queue: %v", err)
	}
	defer q.Close()

	submitter := &frontdoor.Submitter{
		Repo:  docrepo.NewHTTPClient(repoBaseURL),
		Queue: q,
	}
	sync := docrepo.NewSyncProxy(repoWSBaseURL)
	server := frontdoor.NewServer(addr, allowedOrigin, submitter, sync)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		log.Printf("[frontdoor] listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[frontdoor] serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[frontdoor] shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[frontdoor] shutdown: %v", err)
	}
}
