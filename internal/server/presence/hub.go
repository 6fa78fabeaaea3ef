// Package presence shares the process-wide set of patients marked as seen
// with every connected viewer.
package presence

import (
	"context"
	"fmt"
	"sync"

	"github.com/hamarchia/ClinicSystem/internal/logging"
	"github.com/hamarchia/ClinicSystem/internal/server/models"
)

// Subscriber is the transport behind a session. The hub closes it when the
// session's outbox overflows.
type Subscriber interface {
	Close() error
}

// Session is one registered viewer. Updates yields every done-set delivered
// to it and is closed once the session leaves the hub.
type Session struct {
	sub Subscriber
	out chan models.DoneSet
}

func (s *Session) Updates() <-chan models.DoneSet {
	return s.out
}

// Relay event kinds.
const (
	EventUpdate = "update"
	EventReset  = "reset"
)

// Event is a done-set change exchanged between hub instances.
type Event struct {
	Kind       string         `json:"kind"`
	PatientIDs models.DoneSet `json:"patientIds"`
}

// Publisher forwards local changes to other instances.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Hub owns the done-set and the subscriber registry. A single mutex guards
// both, so every subscriber sees broadcasts in the same order.
type Hub struct {
	mu          sync.Mutex
	subs        map[*Session]struct{}
	done        models.DoneSet
	legacyReset bool
	outboxSize  int
	publisher   Publisher
	log         logging.Logger
}

// NewHub creates an empty hub. With legacyReset the set is cleared after
// every broadcast and whenever any session disconnects.
func NewHub(legacyReset bool, outboxSize int, log logging.Logger) *Hub {
	if outboxSize < 1 {
		outboxSize = 1
	}
	return &Hub{
		subs:        make(map[*Session]struct{}),
		done:        models.DoneSet{},
		legacyReset: legacyReset,
		outboxSize:  outboxSize,
		log:         log.With("module", "presence"),
	}
}

// SetPublisher attaches a cross-instance relay. Must be called before the
// hub serves traffic.
func (h *Hub) SetPublisher(p Publisher) {
	h.publisher = p
}

// Connect registers sub and sends it the current done-set.
func (h *Hub) Connect(sub Subscriber) *Session {
	s := &Session{sub: sub, out: make(chan models.DoneSet, h.outboxSize)}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	s.out <- h.snapshot()
	n := len(h.subs)
	h.mu.Unlock()

	h.log.Debug(context.Background(), "presence session connected", "sessions", n)
	return s
}

// UpdateDoneSet replaces the done-set and hands it to every session,
// the sender included, before returning.
func (h *Hub) UpdateDoneSet(ctx context.Context, set models.DoneSet) error {
	set = set.Normalize()
	h.apply(set)

	if h.publisher != nil {
		if err := h.publisher.Publish(ctx, Event{Kind: EventUpdate, PatientIDs: set}); err != nil {
			return fmt.Errorf("presence relay: %w", err)
		}
	}
	return nil
}

// Disconnect removes s. Unknown or already removed sessions are ignored.
func (h *Hub) Disconnect(s *Session) {
	h.mu.Lock()
	if _, ok := h.subs[s]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.subs, s)
	close(s.out)

	var evicted []*Session
	if h.legacyReset {
		h.done = models.DoneSet{}
		evicted = h.broadcast(h.done)
	}
	h.mu.Unlock()

	h.closeAll(evicted)

	if h.legacyReset && h.publisher != nil {
		ctx := context.Background()
		if err := h.publisher.Publish(ctx, Event{Kind: EventReset, PatientIDs: models.DoneSet{}}); err != nil {
			h.log.Warn(ctx, "presence relay reset failed", "error", err)
		}
	}
}

// ApplyRemote applies an event received from another instance without
// forwarding it again.
func (h *Hub) ApplyRemote(ev Event) {
	switch ev.Kind {
	case EventUpdate:
		h.apply(ev.PatientIDs.Normalize())
	case EventReset:
		h.mu.Lock()
		h.done = models.DoneSet{}
		evicted := h.broadcast(h.done)
		h.mu.Unlock()
		h.closeAll(evicted)
	default:
		h.log.Warn(context.Background(), "unknown presence event", "kind", ev.Kind)
	}
}

// DoneSet returns a copy of the current set.
func (h *Hub) DoneSet() models.DoneSet {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshot()
}

// Sessions reports the number of registered sessions.
func (h *Hub) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) apply(set models.DoneSet) {
	h.mu.Lock()
	h.done = set
	evicted := h.broadcast(set)
	if h.legacyReset {
		h.done = models.DoneSet{}
	}
	h.mu.Unlock()

	h.closeAll(evicted)
}

// broadcast must be called with mu held. Sessions whose outbox is full are
// removed and returned so their transports can be closed after unlocking.
func (h *Hub) broadcast(set models.DoneSet) []*Session {
	var evicted []*Session
	for s := range h.subs {
		select {
		case s.out <- append(models.DoneSet{}, set...):
		default:
			delete(h.subs, s)
			close(s.out)
			evicted = append(evicted, s)
		}
	}
	return evicted
}

func (h *Hub) closeAll(sessions []*Session) {
	for _, s := range sessions {
		h.log.Warn(context.Background(), "presence session evicted: outbox full")
		if s.sub != nil {
			_ = s.sub.Close()
		}
	}
}

// snapshot must be called with mu held.
func (h *Hub) snapshot() models.DoneSet {
	return append(models.DoneSet{}, h.done...)
}
