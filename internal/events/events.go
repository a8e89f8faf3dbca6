// Package events broadcasts Tasklane domain events.
//
// Handlers call Publish on the request path; delivery to MQTT happens on a
// background goroutine so a slow or missing broker never delays a response.
// Events are best effort: when the queue is full they are dropped and
// logged.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tasklane/tasklane-core/internal/infrastructure/logging"
	"github.com/tasklane/tasklane-core/internal/infrastructure/mqtt"
)

// Event types.
const (
	TypeLogin             = "auth.login"
	TypeLogout            = "auth.logout"
	TypeUserRegistered    = "user.registered"
	TypeUserUpdated       = "user.updated"
	TypeUserDeleted       = "user.deleted"
	TypeCompanyCreated    = "company.created"
	TypeCompanyUpdated    = "company.updated"
	TypeCompanyDeleted    = "company.deleted"
	TypeProjectCreated    = "project.created"
	TypeProjectUpdated    = "project.updated"
	TypeProjectDeleted    = "project.deleted"
	TypeTaskCreated       = "task.created"
	TypeTaskUpdated       = "task.updated"
	TypeTaskStatusChanged = "task.status_changed"
	TypeTaskDeleted       = "task.deleted"
)

// queueSize bounds events waiting for the broker.
const queueSize = 256

// Event is the JSON document published for every domain change.
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	ActorID    string         `json:"actorId,omitempty"`
	EntityType string         `json:"entityType,omitempty"`
	EntityID   string         `json:"entityId,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
	Data       map[string]any `json:"data,omitempty"`
}

// New fills in ID and OccurredAt.
func New(eventType, actorID, entityType, entityID string, data map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		ActorID:    actorID,
		EntityType: entityType,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// Publisher accepts events for delivery. Publish must not block.
type Publisher interface {
	Publish(e Event)
}

// Nop discards every event. Used when MQTT is disabled.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(Event) {}

// jsonPublisher is the subset of *mqtt.Client the broker publisher needs.
type jsonPublisher interface {
	PublishJSON(topic string, v any) error
}

// BrokerPublisher queues events and publishes them to MQTT from Run.
type BrokerPublisher struct {
	client jsonPublisher
	logger *logging.Logger
	queue  chan Event
}

// NewBrokerPublisher returns a publisher backed by client. Run must be
// started for events to leave the queue.
func NewBrokerPublisher(client jsonPublisher, logger *logging.Logger) *BrokerPublisher {
	return &BrokerPublisher{
		client: client,
		logger: logger.With("component", "events"),
		queue:  make(chan Event, queueSize),
	}
}

// Publish implements Publisher.
func (p *BrokerPublisher) Publish(e Event) {
	select {
	case p.queue <- e:
	default:
		p.logger.Warn("event queue full, dropping event", "type", e.Type, "entity_id", e.EntityID)
	}
}

// Run delivers queued events until ctx is cancelled, then drains what is
// left before returning.
func (p *BrokerPublisher) Run(ctx context.Context) {
	for {
		select {
		case e := <-p.queue:
			p.deliver(e)
		case <-ctx.Done():
			for {
				select {
				case e := <-p.queue:
					p.deliver(e)
				default:
					return
				}
			}
		}
	}
}

func (p *BrokerPublisher) deliver(e Event) {
	if err := p.client.PublishJSON(mqtt.Topics{}.Event(e.Type), e); err != nil {
		p.logger.Warn("publishing event failed", "type", e.Type, "error", err)
	}
}

// Recorder keeps events in memory. Tests use it to assert what a handler
// emitted.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish implements Publisher.
func (r *Recorder) Publish(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}
