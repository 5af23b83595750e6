package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/memberclub-backend/pkg/enums"
)

const envelopeVersion = 1

// Payload is the body of a domain event. Each payload names its event and the
// aggregate it belongs to, so callers cannot pair a body with the wrong type.
type Payload interface {
	EventType() enums.OutboxEventType
	AggregateType() enums.OutboxAggregateType
	AggregateID() uuid.UUID
}

// Envelope is the JSON document stored in outbox_events.payload.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	ActorID    *uuid.UUID      `json:"actorId,omitempty"`
	Data       json.RawMessage `json:"data"`
}

type EmitOption func(*Envelope)

// WithActor records the member whose request produced the event.
func WithActor(memberID uuid.UUID) EmitOption {
	return func(e *Envelope) {
		id := memberID
		e.ActorID = &id
	}
}

func WithOccurredAt(at time.Time) EmitOption {
	return func(e *Envelope) {
		e.OccurredAt = at.UTC()
	}
}

func newEnvelope(payload Payload, opts []EmitOption) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	env := Envelope{
		Version:    envelopeVersion,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
	for _, opt := range opts {
		opt(&env)
	}
	return env, nil
}
