package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/klabast/wb-services/treatment-calendar/internal/program"
)

const subscriberBuffer = 8

// Broker fans accepted snapshots out to server-sent event clients. A client
// whose buffer is full is dropped instead of stalling the writer.
type Broker struct {
	mu          sync.Mutex
	subscribers map[uuid.UUID]chan []byte
	metrics     *Metrics
	logger      *zap.Logger
}

// NewBroker creates an empty broker.
func NewBroker(metrics *Metrics, logger *zap.Logger) *Broker {
	return &Broker{
		subscribers: make(map[uuid.UUID]chan []byte),
		metrics:     metrics,
		logger:      logger,
	}
}

// Subscribe registers a client. The channel is closed when the client is
// dropped or cancel is called.
func (b *Broker) Subscribe() (uuid.UUID, <-chan []byte, func()) {
	id := uuid.New()
	ch := make(chan []byte, subscriberBuffer)

	b.mu.Lock()
	b.subscribers[id] = ch
	b.metrics.Subscribers.Set(float64(len(b.subscribers)))
	b.mu.Unlock()

	return id, ch, func() { b.remove(id) }
}

func (b *Broker) remove(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(ch)
		b.metrics.Subscribers.Set(float64(len(b.subscribers)))
	}
}

// Len returns the number of connected clients.
func (b *Broker) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// Notify queues the snapshot's raw JSON for every client.
func (b *Broker) Notify(_ context.Context, snap *program.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- snap.Raw:
		default:
			delete(b.subscribers, id)
			close(ch)
			b.metrics.Dropped.Inc()
			b.logger.Warn("Dropped slow event client", zap.String("client", id.String()))
		}
	}
	b.metrics.Subscribers.Set(float64(len(b.subscribers)))
}

// writeEvent writes one SSE frame, one data line per payload line.
func writeEvent(w io.Writer, data []byte) error {
	start := 0
	for i, c := range data {
		if c == '\n' {
			if _, err := fmt.Fprintf(w, "data: %s\n", data[start:i]); err != nil {
				return err
			}
			start = i + 1
		}
	}
	_, err := fmt.Fprintf(w, "data: %s\n\n", data[start:])
	return err
}

// HandleEvents streams the current snapshot and every accepted one after it.
func (s *Server) HandleEvents(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	id, events, cancel := s.broker.Subscribe()
	defer cancel()
	log := s.logger.With(zap.String("client", id.String()))
	log.Debug("Event client connected")

	if snap := s.store.Current(); snap != nil {
		if err := writeEvent(w, snap.Raw); err != nil {
			return
		}
		flusher.Flush()
	}

	keepAlive := time.NewTicker(s.cfg.KeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug("Client closed connection")
			return
		case data, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, data); err != nil {
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := io.WriteString(w, ":keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
