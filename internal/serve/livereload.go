package serve

import (
	"bufio"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// heartbeatInterval keeps idle SSE connections from being reaped by proxies.
const heartbeatInterval = 30 * time.Second

// Hub fans the current build signature out to connected browsers over SSE.
// Clients that stop draining their channel are dropped rather than blocking
// a broadcast.
type Hub struct {
	mu       sync.RWMutex
	nextID   int
	clients  map[int]*hubClient
	closed   bool
	lastHash string

	onClients func(n int) // optional gauge callback, called with the hub lock held
}

type hubClient struct {
	id   int
	ch   chan string
	done chan struct{}
}

// NewHub creates a livereload hub. onClients may be nil; when set it receives
// the client count after every connect and disconnect.
func NewHub(onClients func(n int)) *Hub {
	return &Hub{clients: map[int]*hubClient{}, onClients: onClients}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// LastHash returns the most recently broadcast build signature.
func (h *Hub) LastHash() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastHash
}

// ServeHTTP implements the SSE endpoint. Each client gets the current
// signature on connect and a data event per subsequent broadcast.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := &hubClient{ch: make(chan string, 8), done: make(chan struct{})}
	h.mu.Lock()
	client.id = h.nextID
	h.nextID++
	h.clients[client.id] = client
	current := h.lastHash
	h.notifyClients()
	h.mu.Unlock()

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(": connected\n\n"); err != nil {
		h.removeClient(client.id)
		return
	}
	if current != "" {
		if _, err := bw.WriteString("data: {\"hash\":\"" + current + "\"}\n\n"); err != nil {
			h.removeClient(client.id)
			return
		}
	}
	if err := bw.Flush(); err == nil {
		flusher.Flush()
	}

	hb := time.NewTicker(heartbeatInterval)
	defer hb.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.removeClient(client.id)
			return
		case <-client.done:
			return
		case <-hb.C:
			if _, err := bw.WriteString(": ping\n\n"); err != nil {
				h.removeClient(client.id)
				return
			}
			_ = bw.Flush()
			flusher.Flush()
		case hash := <-client.ch:
			if _, err := bw.WriteString("data: {\"hash\":\"" + hash + "\"}\n\n"); err != nil {
				h.removeClient(client.id)
				return
			}
			_ = bw.Flush()
			flusher.Flush()
		}
	}
}

func (h *Hub) removeClient(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
		h.notifyClients()
	}
}

// notifyClients pushes the client count to the gauge callback. Caller holds
// the hub lock.
func (h *Hub) notifyClients() {
	if h.onClients != nil {
		h.onClients(len(h.clients))
	}
}

// Broadcast publishes a new build signature. Empty and repeated signatures
// are ignored, so rebuilds with unchanged output never trigger a reload.
// Clients with a full channel are dropped.
func (h *Hub) Broadcast(hash string) {
	h.mu.Lock()
	if h.closed || hash == "" || hash == h.lastHash {
		h.mu.Unlock()
		return
	}
	h.lastHash = hash
	snapshot := make([]*hubClient, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- hash:
		default:
			dropped++
			h.removeClient(c.id)
		}
	}
	slog.Debug("Livereload broadcast", "hash", shortHash(hash), "clients", len(snapshot), "dropped", dropped)
}

// Shutdown disconnects every client and refuses new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*hubClient{}
	h.notifyClients()
	h.mu.Unlock()
	for _, c := range clients {
		close(c.done)
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// Script is the browser side of livereload: it follows the SSE stream and
// reloads the page whenever the build signature changes.
const Script = `(() => {
  if (window.__SITEGEN_LR__) return;
  window.__SITEGEN_LR__ = true;
  function connect() {
    const es = new EventSource('/livereload');
    let first = true;
    let current = null;
    es.onmessage = (e) => {
      try {
        const p = JSON.parse(e.data);
        if (first) { current = p.hash; first = false; return; }
        if (p.hash && p.hash !== current) { location.reload(); }
      } catch (_) {}
    };
    es.onerror = () => { es.close(); setTimeout(connect, 2000); };
  }
  connect();
})();
`
