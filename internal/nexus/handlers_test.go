package nexus

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ttpedia/backend/internal/index"
	"github.com/ttpedia/backend/internal/pedia"
)

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	db := openTestDB(t)
	assets, err := NewAssetState(db, AlwaysPreserve)
	if err != nil {
		t.Fatalf("NewAssetState: %v", err)
	}
	idx, err := index.OpenPebbleStore(filepath.Join(t.TempDir(), "idx"))
	if err != nil {
		t.Fatalf("OpenPebbleStore: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return NewHandlers(assets, idx, "https://data.ttpedia.example")
}

func postJSON(t *testing.T, h http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandlePass1Success(t *testing.T) {
	h := newTestHandlers(t)

	req := pedia.Pass1Request{
		DocID:      "doc1",
		JobID:      "job1",
		AssetsJSON: `{"font.otf":"hash-a"}`,
		PediaTxt:   "Output entry-widget.html\nIndexDef gen widget sec1\n",
	}
	rec := postJSON(t, h.HandlePass1, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp pedia.Pass1Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Status != "ok" {
		t.Fatalf("status = %q", resp.Status)
	}
	if resp.PreserveAssets == nil || *resp.PreserveAssets != 1 {
		t.Fatalf("PreserveAssets = %v, want 1", resp.PreserveAssets)
	}
	if resp.AssetsJSON == "" {
		t.Fatal("AssetsJSON empty")
	}
}

func TestHandlePass1AssetConflict(t *testing.T) {
	h := newTestHandlers(t)

	first := pedia.Pass1Request{DocID: "doc1", JobID: "job1", AssetsJSON: `{"font.otf":"hash-a"}`, PediaTxt: ""}
	if rec := postJSON(t, h.HandlePass1, first); rec.Code != http.StatusOK {
		t.Fatalf("first pass1 status = %d", rec.Code)
	}

	second := pedia.Pass1Request{DocID: "doc2", JobID: "job2", AssetsJSON: `{"font.otf":"hash-b"}`, PediaTxt: ""}
	rec := postJSON(t, h.HandlePass1, second)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body = %s", rec.Code, rec.Body.String())
	}
}

func TestHandlePass1MalformedPediaTxt(t *testing.T) {
	h := newTestHandlers(t)

	req := pedia.Pass1Request{DocID: "doc1", JobID: "job1", AssetsJSON: "", PediaTxt: "NotAKnownForm foo\n"}
	rec := postJSON(t, h.HandlePass1, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
	}
}

func TestHandleAssetsUploadedThenAssetRedirect(t *testing.T) {
	h := newTestHandlers(t)

	rec := postJSON(t, h.HandleAssetsUploaded, pedia.AssetsUploadedRequest{SeqNum: 1, BucketKey: "job1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("assets_uploaded status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/ttpapi1/nexus/asset/font.otf", nil)
	req.SetPathValue("key", "font.otf")
	rec = httptest.NewRecorder()
	h.HandleAsset(rec, req)
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("asset status = %d", rec.Code)
	}
	want := "https://data.ttpedia.example/sharedassets/job1/font.otf"
	if got := rec.Header().Get("Location"); got != want {
		t.Fatalf("Location = %q, want %q", got, want)
	}
}

func TestHandleAssetBeforeAnyGenerationIs404(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/ttpapi1/nexus/asset/font.otf", nil)
	req.SetPathValue("key", "font.otf")
	rec := httptest.NewRecorder()
	h.HandleAsset(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleEntry(t *testing.T) {
	h := newTestHandlers(t)
	h.PutEntry("widget", pedia.EntryResponse{DocID: "doc1", OutputName: "entry-widget.html", Title: "Widget"})

	req := httptest.NewRequest(http.MethodGet, "/ttpapi1/nexus/entry/widget", nil)
	req.SetPathValue("name", "widget")
	rec := httptest.NewRecorder()
	h.HandleEntry(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp pedia.EntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Title != "Widget" {
		t.Fatalf("got %+v", resp)
	}
}
