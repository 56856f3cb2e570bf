package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/remoshock/remoshock/internal/config"
)

// DefaultBufferSize is the number of events kept for resuming clients.
const DefaultBufferSize = 100

// Event types.
const (
	EventReady      = "ready"
	EventCommand    = "command"
	EventRandomizer = "randomizer"
	EventHeartbeat  = "heartbeat"
)

// Event is one SSE message. Events without ID are neither buffered nor
// replayed.
type Event struct {
	ID   int64                  `json:"id,omitempty"`
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

type client struct {
	id     string
	events chan Event
}

// Hub fans out events to all subscribed clients.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*client
	snapshot func() interface{}

	// lastID is guarded by mu, which orders IDs, buffer and fan-out
	lastID    int64
	buffer    *EventBuffer
	heartbeat time.Duration

	done     chan struct{}
	stopOnce sync.Once
	logger   zerolog.Logger
}

// NewHub creates a hub that sends heartbeats at the configured interval.
func NewHub(timing *config.TimingConfig, logger zerolog.Logger) *Hub {
	if timing == nil {
		timing = config.LoadTimingBaseline()
	}
	return &Hub{
		clients:   make(map[string]*client),
		buffer:    NewEventBuffer(DefaultBufferSize),
		heartbeat: timing.EventHeartbeat,
		done:      make(chan struct{}),
		logger:    logger.With().Str("component", "telemetry").Logger(),
	}
}

// SetSnapshot sets the provider of the data sent with the ready event.
func (h *Hub) SetSnapshot(snapshot func() interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshot = snapshot
}

// Subscribe streams events to one client until ctx is done, the client
// disconnects or the hub stops.
func (h *Hub) Subscribe(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming not supported by response writer")
	}
	// The stream outlives the server write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var replay []Event
	lastID, err := strconv.ParseInt(r.Header.Get("Last-Event-ID"), 10, 64)
	resume := err == nil

	// Registration and replay are taken together, so every event reaches
	// the client exactly once, either replayed or through its channel.
	c := &client{id: uuid.NewString(), events: make(chan Event, DefaultBufferSize)}
	h.mu.Lock()
	h.clients[c.id] = c
	snapshot := h.snapshot
	if resume {
		replay = h.buffer.After(lastID)
	}
	h.mu.Unlock()
	defer h.unregister(c.id)

	h.logger.Debug().Str("client", c.id).Msg("Client subscribed")

	ready := Event{Type: EventReady, Data: map[string]interface{}{}}
	if snapshot != nil {
		ready.Data["snapshot"] = snapshot()
	}
	if err := writeEvent(w, flusher, ready); err != nil {
		return err
	}

	var sent int64
	for _, event := range replay {
		if err := writeEvent(w, flusher, event); err != nil {
			return err
		}
		sent = event.ID
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.done:
			return nil
		case <-ticker.C:
			beat := Event{Type: EventHeartbeat, Data: map[string]interface{}{
				"ts": time.Now().UTC().Format(time.RFC3339),
			}}
			if err := writeEvent(w, flusher, beat); err != nil {
				return err
			}
		case event := <-c.events:
			if event.ID <= sent {
				continue
			}
			if err := writeEvent(w, flusher, event); err != nil {
				return err
			}
			sent = event.ID
		}
	}
}

// Publish assigns the next event ID, buffers the event and hands it to
// every client. Clients that cannot keep up miss the event.
func (h *Hub) Publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastID++
	event.ID = h.lastID
	h.buffer.Add(event)

	for _, c := range h.clients {
		select {
		case c.events <- event:
		default:
			h.logger.Debug().Str("client", c.id).Int64("id", event.ID).Msg("Event dropped for slow client")
		}
	}
}

// PublishCommand announces a transmitted command.
func (h *Hub) PublishCommand(index int, receiverName, action string, power, durationMs int) {
	h.Publish(Event{Type: EventCommand, Data: map[string]interface{}{
		"receiver":   index,
		"name":       receiverName,
		"action":     action,
		"power":      power,
		"durationMs": durationMs,
	}})
}

// PublishRandomizer announces a randomizer state change.
func (h *Hub) PublishRandomizer(status string) {
	h.Publish(Event{Type: EventRandomizer, Data: map[string]interface{}{"status": status}})
}

// Clients returns the number of subscribed clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop ends all streams. Publishing after Stop still buffers events.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, id)
	h.logger.Debug().Str("client", id).Msg("Client unsubscribed")
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, event Event) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	if event.ID > 0 {
		if _, err := fmt.Fprintf(w, "id: %d\n", event.ID); err != nil {
			return fmt.Errorf("failed to write event ID: %w", err)
		}
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	flusher.Flush()
	return nil
}

// EventBuffer keeps the most recent events.
type EventBuffer struct {
	mu       sync.RWMutex
	events   []Event
	capacity int
}

// NewEventBuffer creates a buffer holding at most capacity events.
func NewEventBuffer(capacity int) *EventBuffer {
	return &EventBuffer{events: make([]Event, 0, capacity), capacity: capacity}
}

// Add appends an event, evicting the oldest one when full.
func (b *EventBuffer) Add(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	if len(b.events) > b.capacity {
		b.events = b.events[1:]
	}
}

// After returns the buffered events with an ID above lastID.
func (b *EventBuffer) After(lastID int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var result []Event
	for _, event := range b.events {
		if event.ID > lastID {
			result = append(result, event)
		}
	}
	return result
}

// Len returns the number of buffered events.
func (b *EventBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.events)
}
