package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is an immutable record of something that happened to one batch
type Event interface {
	ID() string
	Type() string
	StreamID() string
	Payload() any
	OccurredAt() time.Time
	Version() int
}

// EventHandler receives events for the types it subscribed to
type EventHandler interface {
	Handle(event Event) error
	Handles(eventType string) bool
}

// EventStore appends events per stream and fans them out to subscribers
type EventStore interface {
	AppendEvent(streamID string, event Event) error
	ReadEvents(streamID string, fromVersion int) ([]Event, error)
	ReadAllEvents(fromPosition int) ([]Event, error)
	Subscribe(eventTypes []string, handler EventHandler) error
	Unsubscribe(handler EventHandler) error
}

// record is the store's concrete event; version is assigned on append
type record struct {
	id         string
	kind       string
	stream     string
	payload    any
	occurredAt time.Time
	version    int
}

func (r record) ID() string            { return r.id }
func (r record) Type() string          { return r.kind }
func (r record) StreamID() string      { return r.stream }
func (r record) Payload() any          { return r.payload }
func (r record) OccurredAt() time.Time { return r.occurredAt }
func (r record) Version() int          { return r.version }

// withVersion returns a copy of e pinned to the given stream and version
func withVersion(e Event, streamID string, version int) record {
	return record{
		id:         e.ID(),
		kind:       e.Type(),
		stream:     streamID,
		payload:    e.Payload(),
		occurredAt: e.OccurredAt(),
		version:    version,
	}
}

// NewEvent creates an unversioned event with a fresh id
func NewEvent(eventType, streamID string, payload any) Event {
	return record{
		id:         uuid.NewString(),
		kind:       eventType,
		stream:     streamID,
		payload:    payload,
		occurredAt: time.Now().UTC(),
	}
}
