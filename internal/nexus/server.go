package nexus

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewServer wires the Nexus's HTTP surface (spec.md §6), mirroring the
// mux-plus-health/status shape of cmd/server/main.go. allowedOrigin comes
// from TTPEDIA_NEXUS_ALLOWED_ORIGIN and its CORS headers are applied to
// every route, /health and /metrics included.
func NewServer(addr, allowedOrigin string, h *Handlers) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /ttpapi1/nexus/pass1", h.HandlePass1)
	mux.HandleFunc("POST /ttpapi1/nexus/assets_uploaded", h.HandleAssetsUploaded)
	mux.HandleFunc("GET /ttpapi1/nexus/asset/{key}", h.HandleAsset)
	mux.HandleFunc("GET /ttpapi1/nexus/entry/{name}", h.HandleEntry)

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

// Shutdown gives in-flight requests a bounded grace period, per spec.md
// §5's "drain in-flight compilations with a configurable deadline".
func Shutdown(ctx context.Context, srv *http.Server, grace time.Duration) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, grace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
