package docrepo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func writeDoc(w http.ResponseWriter, found bool, root map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(docResponse{Found: found, Root: root})
}

func TestHTTPClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDoc(w, true, map[string]any{"content": "hello"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	doc, err := c.Get(context.Background(), "D1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.Content != "hello" {
		t.Fatalf("Content = %q, want %q", doc.Content, "hello")
	}
}

func TestHTTPClientGetNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	if _, err := c.Get(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("Get = %v, want ErrNotFound", err)
	}
}

func TestHTTPClientGetMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDoc(w, true, map[string]any{"notcontent": 123})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	if _, err := c.Get(context.Background(), "D1"); err != ErrMalformed {
		t.Fatalf("Get = %v, want ErrMalformed", err)
	}
}
