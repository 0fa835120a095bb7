package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// BufferSize is the per-client channel buffer.
	BufferSize = 32

	// SendTimeout bounds how long Publish waits on one slow client.
	SendTimeout = 50 * time.Millisecond
)

// Event is one server-sent event. Data is a JSON document.
type Event struct {
	Name string
	Data string
}

// WriteTo writes the event in text/event-stream framing.
func (e Event) WriteTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Name, e.Data)
	return int64(n), err
}

// Feed fans events out to every subscribed client of one session.
type Feed struct {
	mu      sync.RWMutex
	clients map[chan Event]struct{}
}

// NewFeed returns a feed with no subscribers.
func NewFeed() *Feed {
	return &Feed{clients: make(map[chan Event]struct{})}
}

// Subscribe registers a client. The returned func unsubscribes and closes
// the channel; call it exactly once.
func (f *Feed) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, BufferSize)
	f.mu.Lock()
	f.clients[ch] = struct{}{}
	n := len(f.clients)
	f.mu.Unlock()
	if n > 1 {
		log.Debug().Int("clients", n).Msg("sse: additional client on session")
	}

	return ch, func() {
		f.mu.Lock()
		delete(f.clients, ch)
		f.mu.Unlock()
		close(ch)
	}
}

// Count returns the number of subscribers.
func (f *Feed) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

// Publish encodes payload and sends it to every subscriber.
func (f *Feed) Publish(name string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event", name).Msg("sse: encode")
		return
	}
	msg := Event{Name: name, Data: string(data)}

	// Send with the lock held so Subscribe's cancel cannot close a channel
	// mid-send; sends are bounded by SendTimeout.
	f.mu.RLock()
	defer f.mu.RUnlock()
	for ch := range f.clients {
		select {
		case ch <- msg:
		case <-time.After(SendTimeout):
			log.Debug().Str("event", name).Msg("sse: timeout sending to client")
		}
	}
}
