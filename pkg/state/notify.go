package state

import (
	"sync"
	"time"
)

// DefaultNotificationTTL is how long a notification stays visible
const DefaultNotificationTTL = 3 * time.Second

// Kind distinguishes the two notification channels
type Kind int

const (
	Success Kind = iota
	Error
)

// Notification is one transient message
type Notification struct {
	Kind      Kind
	Message   string
	CreatedAt time.Time
}

// Notifier holds at most one live success message and one live error
// message. Setting a message of a kind replaces the previous one of that
// kind and restarts its expiry window; intermediate messages are overwritten
// and never shown. There is no queue.
type Notifier struct {
	mu    sync.Mutex
	ttl   time.Duration
	slots [2]*Notification
	gens  [2]uint64
}

// NewNotifier creates a Notifier with the default expiry window
func NewNotifier() *Notifier {
	return NewNotifierTTL(DefaultNotificationTTL)
}

// NewNotifierTTL creates a Notifier with a custom expiry window
func NewNotifierTTL(ttl time.Duration) *Notifier {
	return &Notifier{ttl: ttl}
}

// Set replaces the current message of the given kind and schedules its
// expiry a full window from now. The generation counter invalidates the
// previous message's timer, so each message expires exactly once, relative
// to its own creation.
func (n *Notifier) Set(kind Kind, message string) {
	n.mu.Lock()
	n.slots[kind] = &Notification{Kind: kind, Message: message, CreatedAt: time.Now()}
	n.gens[kind]++
	gen := n.gens[kind]
	n.mu.Unlock()

	time.AfterFunc(n.ttl, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if n.gens[kind] == gen {
			n.slots[kind] = nil
		}
	})
}

// Clear dismisses the current message of the given kind immediately
func (n *Notifier) Clear(kind Kind) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.slots[kind] = nil
	n.gens[kind]++
}

// Current returns the live message of the given kind, or nil
func (n *Notifier) Current(kind Kind) *Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.slots[kind] == nil {
		return nil
	}
	copied := *n.slots[kind]
	return &copied
}
