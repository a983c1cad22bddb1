package daemon

import (
	"bufio"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mkrogh/sitegen/internal/logfields"
)

// LiveReloadHub manages SSE clients for build-stamp broadcasts. Every
// successful rebuild broadcasts a fresh stamp; connected pages reload when
// the stamp they saw at connect time changes.
type LiveReloadHub struct {
	mu        sync.RWMutex
	nextID    int
	clients   map[int]*reloadClient
	closed    bool
	lastStamp string
}

type reloadClient struct {
	id   int
	ch   chan string
	done chan struct{}
}

func NewLiveReloadHub() *LiveReloadHub {
	return &LiveReloadHub{clients: map[int]*reloadClient{}}
}

// ServeHTTP implements the SSE endpoint at /livereload.
func (h *LiveReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	client := &reloadClient{ch: make(chan string, 8), done: make(chan struct{})}
	h.mu.Lock()
	client.id = h.nextID
	h.nextID++
	h.clients[client.id] = client
	current := h.lastStamp
	h.mu.Unlock()
	defer h.removeClient(client.id)

	// Initial comment plus the current stamp so the client has a baseline.
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(": connected\n\n"); err != nil {
		slog.Debug("Livereload write", logfields.Error(err))
		return
	}
	if current != "" {
		if _, err := bw.WriteString("data: {\"stamp\":\"" + current + "\"}\n\n"); err != nil {
			slog.Debug("Livereload write", logfields.Error(err))
			return
		}
	}
	if err := bw.Flush(); err == nil {
		flusher.Flush()
	}

	hb := time.NewTicker(30 * time.Second)
	defer hb.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-client.done:
			return
		case <-hb.C:
			if _, err := bw.WriteString(": ping\n\n"); err == nil {
				_ = bw.Flush()
				flusher.Flush()
			} else {
				slog.Debug("Livereload ping write", logfields.Error(err))
			}
		case stamp := <-client.ch:
			if _, err := bw.WriteString("data: {\"stamp\":\"" + stamp + "\"}\n\n"); err == nil {
				_ = bw.Flush()
				flusher.Flush()
			} else {
				slog.Debug("Livereload broadcast write", logfields.Error(err))
			}
		}
	}
}

func (h *LiveReloadHub) removeClient(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
	}
}

// Broadcast sends a new stamp to every client. Repeats of the current stamp
// are dropped, as are clients whose channels have filled up.
func (h *LiveReloadHub) Broadcast(stamp string) {
	h.mu.Lock()
	if h.closed || stamp == "" || stamp == h.lastStamp {
		h.mu.Unlock()
		return
	}
	h.lastStamp = stamp
	snapshot := make([]*reloadClient, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- stamp:
		default:
			dropped++
			h.removeClient(c.id)
		}
	}
	slog.Debug("Livereload broadcast", "stamp", stamp, "clients", len(snapshot), "dropped", dropped)
}

// ClientCount returns the number of connected clients.
func (h *LiveReloadHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown disconnects all clients and rejects future connections.
func (h *LiveReloadHub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*reloadClient{}
	h.mu.Unlock()
	for _, c := range clients {
		close(c.done)
	}
}

// LiveReloadScript is the client snippet served at /livereload.js. The
// preview server injects a reference to it into every HTML page.
const LiveReloadScript = `(() => {
  if (window.__SITEGEN_LR__) return;
  window.__SITEGEN_LR__ = true;
  function connect() {
    const es = new EventSource('/livereload');
    let first = true;
    let current = null;
    es.onmessage = (e) => {
      try {
        const p = JSON.parse(e.data);
        if (first) { current = p.stamp; first = false; return; }
        if (p.stamp && p.stamp !== current) {
          console.log('[sitegen] change detected, reloading');
          location.reload();
        }
      } catch (_) {}
    };
    es.onerror = () => { es.close(); setTimeout(connect, 2000); };
  }
  connect();
})();
`
