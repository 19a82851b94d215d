package frontdoor

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ttpedia/backend/internal/docrepo"
	"github.com/ttpedia/backend/internal/pedia"
)

// NewServer wires the front door's HTTP surface (spec.md §6): submit,
// the CRDT sync passthrough, health, and metrics. allowedOrigin comes
// from TTPEDIA_REPO_ALLOWED_ORIGIN.
func NewServer(addr, allowedOrigin string, s *Submitter, sync *docrepo.SyncProxy) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /ttpapi1/repo/submit", s.handleSubmit)
	mux.Handle("GET /ttpapi1/repo/sync", sync)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	return &http.Server{
		Addr:         addr,
		Handler:      cors(allowedOrigin, mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

func (s *Submitter) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req pedia.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, pedia.SubmitResponse{Status: "malformed request body"})
		return
	}
	writeJSON(w, s.Submit(r.Context(), req.DocID))
}

func writeJSON(w http.ResponseWriter, v pedia.SubmitResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[frontdoor] encode response: %v", err)
	}
}

func cors(allowedOrigin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if allowedOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST")
			w.Header().Set("Access-Control-Allow-Headers", "content-type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
