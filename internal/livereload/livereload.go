// Package livereload distributes build-completion notifications to preview
// clients. The SSE hub serves browsers on the local preview server; the NATS
// publisher forwards the same notifications to remote subscribers.
package livereload

import (
	"encoding/json"
	"sync"
)

// Notification describes one finished build cycle. Changed lists the
// root-relative URLs whose content changed, in deterministic order with no
// duplicates.
type Notification struct {
	CycleID string   `json:"cycle_id"`
	Changed []string `json:"changed"`
}

// Notifier receives a notification after every completed build cycle.
type Notifier interface {
	Notify(n Notification)
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(n Notification) {
	for _, target := range m {
		target.Notify(n)
	}
}

// Discard ignores notifications.
type Discard struct{}

func (Discard) Notify(Notification) {}

// Recorder captures notifications for assertions in tests.
type Recorder struct {
	mu   sync.Mutex
	seen []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, n)
}

// All returns a copy of the captured notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.seen))
	copy(out, r.seen)
	return out
}

func encode(n Notification) []byte {
	b, err := json.Marshal(n)
	if err != nil {
		return []byte(`{}`)
	}
	return b
}
