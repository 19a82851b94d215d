package nexus

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/ttpedia/backend/internal/index"
	"github.com/ttpedia/backend/internal/metrics"
	"github.com/ttpedia/backend/internal/pedia"
)

// Handlers implements the four §4.1 endpoints.
type Handlers struct {
	assets        *AssetState
	idx           index.Store
	publicDataURL string

	// entries is the pending static table backing GET /entry/{name}
	// (spec.md §4.1: "pending implementation, a static table is used").
	entries map[string]pedia.EntryResponse
}

// NewHandlers wires the asset state and index store behind the Nexus's
// HTTP surface.
func NewHandlers(assets *AssetState, idx index.Store, publicDataURL string) *Handlers {
	return &Handlers{
		assets:        assets,
		idx:           idx,
		publicDataURL: publicDataURL,
		entries:       map[string]pedia.EntryResponse{},
	}
}

// PutEntry registers a (doc_id, output_name, title) tuple for GET
// /entry/{name}, standing in for the index-store-backed lookup spec.md
// §4.1 describes as authoritative.
func (h *Handlers) PutEntry(name string, e pedia.EntryResponse) {
	h.entries[name] = e
}

// HandlePass1 implements POST /ttpapi1/nexus/pass1 (spec.md §4.1).
func (h *Handlers) HandlePass1(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "ok"
	defer func() {
		metrics.Pass1RequestsTotal.WithLabelValues(status).Inc()
		metrics.Pass1Duration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}()

	var req pedia.Pass1Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "job_malformed"
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: decode /pass1 body: %v", pedia.ErrJobMalformed, err))
		return
	}

	metadata, err := pedia.ParseMetadata(req.PediaTxt)
	if err != nil {
		status = "job_malformed"
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", pedia.ErrJobMalformed, err))
		return
	}

	mergedJSON, preserveSeqnum, err := h.assets.MergePass1(req.AssetsJSON)
	if err != nil {
		if errors.Is(err, pedia.ErrAssetConflict) {
			status = "asset_conflict"
			writeError(w, http.StatusConflict, err)
			return
		}
		status = "error"
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	resolvedTeX, err := ReconcileIndex(h.idx, metadata)
	if err != nil {
		status = "index_store_error"
		writeError(w, http.StatusInternalServerError, fmt.Errorf("%w: %v", pedia.ErrIndexStore, err))
		return
	}

	writeJSON(w, http.StatusOK, pedia.Pass1Response{
		Status:               "ok",
		AssetsJSON:           mergedJSON,
		ResolvedReferenceTeX: resolvedTeX,
		PreserveAssets:       preserveSeqnum,
	})
}

// HandleAssetsUploaded implements POST /ttpapi1/nexus/assets_uploaded.
func (h *Handlers) HandleAssetsUploaded(w http.ResponseWriter, r *http.Request) {
	var req pedia.AssetsUploadedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.AssetsUploadedTotal.WithLabelValues("malformed").Inc()
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: decode /assets_uploaded body: %v", pedia.ErrJobMalformed, err))
		return
	}

	accepted, err := h.assets.RecordAssetsUploaded(req.SeqNum, req.BucketKey)
	if err != nil {
		metrics.AssetsUploadedTotal.WithLabelValues("error").Inc()
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if accepted {
		metrics.AssetsUploadedTotal.WithLabelValues("accepted").Inc()
		metrics.CurrentSeqnum.Set(float64(req.SeqNum))
	} else {
		metrics.AssetsUploadedTotal.WithLabelValues("stale").Inc()
	}

	writeJSON(w, http.StatusOK, pedia.AssetsUploadedResponse{})
}

// HandleAsset implements GET /ttpapi1/nexus/asset/{key}: a 307 redirect
// recomputed per request against cur_bucket_key (spec.md §4.1).
func (h *Handlers) HandleAsset(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	bucketKey, ok := h.assets.CurBucketKey()
	if !ok {
		http.NotFound(w, r)
		return
	}
	target := fmt.Sprintf("%s/sharedassets/%s/%s", h.publicDataURL, bucketKey, key)
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

// HandleEntry implements GET /ttpapi1/nexus/entry/{name}.
func (h *Handlers) HandleEntry(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	e, ok := h.entries[name]
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[nexus] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	log.Printf("[nexus] %v", err)
	writeJSON(w, code, pedia.Pass1Response{Status: err.Error()})
}
