package livereload

import (
	"bufio"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Hub manages SSE clients for reload broadcasts. It implements both
// Notifier and http.Handler.
type Hub struct {
	mu      sync.RWMutex
	nextID  int
	clients map[int]*hubClient
	closed  bool
	last    []byte
}

type hubClient struct {
	id   int
	ch   chan []byte
	done chan struct{}
}

func NewHub() *Hub {
	return &Hub{clients: map[int]*hubClient{}}
}

// ClientCount reports connected clients, for health output.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP is the SSE endpoint. Each client gets the last notification on
// connect so a browser that reconnects mid-build does not miss the reload.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	last := h.last
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

	client := &hubClient{ch: make(chan []byte, 8), done: make(chan struct{})}
	h.mu.Lock()
	client.id = h.nextID
	h.nextID++
	h.clients[client.id] = client
	h.mu.Unlock()

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(": connected\n\n"); err != nil {
		h.removeClient(client.id)
		return
	}
	if len(last) > 0 {
		writeEvent(bw, last)
	}
	if err := bw.Flush(); err == nil {
		flusher.Flush()
	}

	hb := time.NewTicker(30 * time.Second)
	defer hb.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.removeClient(client.id)
			return
		case <-client.done:
			return
		case <-hb.C:
			if _, err := bw.WriteString(": ping\n\n"); err != nil {
				h.removeClient(client.id)
				return
			}
			bw.Flush()
			flusher.Flush()
		case payload := <-client.ch:
			writeEvent(bw, payload)
			bw.Flush()
			flusher.Flush()
		}
	}
}

func writeEvent(bw *bufio.Writer, payload []byte) {
	_, _ = bw.WriteString("event: reload\ndata: ")
	_, _ = bw.Write(payload)
	_, _ = bw.WriteString("\n\n")
}

// Notify broadcasts to every connected client. A client whose buffer is
// full is dropped; a stuck browser must not stall the build loop.
func (h *Hub) Notify(n Notification) {
	payload := encode(n)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.last = payload
	snapshot := make([]*hubClient, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- payload:
		default:
			dropped++
			h.removeClient(c.id)
		}
	}
	slog.Debug("reload broadcast",
		slog.String("cycle_id", n.CycleID),
		slog.Int("clients", len(snapshot)),
		slog.Int("dropped", dropped))
}

func (h *Hub) removeClient(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
	}
}

// Shutdown disconnects all clients and rejects new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*hubClient{}
	h.mu.Unlock()
	for _, c := range clients {
		close(c.done)
	}
}
