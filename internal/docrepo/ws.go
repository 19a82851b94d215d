package docrepo

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

var dialer = websocket.Dialer{}

// SyncProxy upgrades an incoming client connection and relays frames
// to and from the document repo's own sync WebSocket, unread. CRDT wire
// semantics are the repo's business (spec.md §1 Non-goals); this
// package only plumbs the two sockets together.
type SyncProxy struct {
	repoWSBaseURL string
}

// NewSyncProxy builds a proxy against the repo's WebSocket origin, e.g.
// "ws://repo:8090".
func NewSyncProxy(repoWSBaseURL string) *SyncProxy {
	return &SyncProxy{repoWSBaseURL: strings.TrimSuffix(repoWSBaseURL, "/")}
}

// ServeHTTP handles GET /ttpapi1/repo/sync, forwarding the query string
// (doc id, auth token, whatever the repo expects) unchanged.
func (p *SyncProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upstreamURL := p.repoWSBaseURL + "/sync"
	if r.URL.RawQuery != "" {
		upstreamURL += "?" + r.URL.RawQuery
	}

	upstream, _, err := dialer.DialContext(r.Context(), upstreamURL, nil)
	if err != nil {
		log.Printf("[docrepo] dial upstream sync %s: %v", redactURL(upstreamURL), err)
		http.Error(w, "document repo unavailable", http.StatusBadGateway)
		return
	}
	defer upstream.Close()

	client, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[docrepo] upgrade client: %v", err)
		upstream.Close()
		return
	}
	defer client.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go relay(ctx, cancel, client, upstream)
	relay(ctx, cancel, upstream, client)
}

func relay(ctx context.Context, cancel context.CancelFunc, dst, src *websocket.Conn) {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		mt, data, err := src.ReadMessage()
		if err != nil {
			return
		}
		if err := dst.WriteMessage(mt, data); err != nil {
			return
		}
	}
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable>"
	}
	u.RawQuery = ""
	return u.String()
}
