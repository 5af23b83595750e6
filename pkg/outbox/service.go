package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/memberclub-backend/pkg/db/models"
	"github.com/angelmondragon/memberclub-backend/pkg/logger"
)

type Service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

// Emit writes payload to the outbox inside tx, so the event exists exactly
// when the state change it describes commits.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, payload Payload, opts ...EmitOption) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if payload == nil {
		return errors.New("payload required")
	}
	if err := checkPayload(payload); err != nil {
		return err
	}

	env, err := newEnvelope(payload, opts)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", payload.EventType(), err)
	}
	doc, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	if err := s.repo.Insert(tx, models.OutboxEvent{
		EventType:     payload.EventType(),
		AggregateType: payload.AggregateType(),
		AggregateID:   payload.AggregateID(),
		Payload:       json.RawMessage(doc),
	}); err != nil {
		return err
	}

	if s.logg != nil {
		s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
			"event_id":     env.EventID,
			"event_type":   payload.EventType(),
			"aggregate_id": payload.AggregateID().String(),
		}), "outbox event queued")
	}
	return nil
}

func checkPayload(p Payload) error {
	switch {
	case !p.EventType().IsValid():
		return fmt.Errorf("unknown outbox event type %q", p.EventType())
	case !p.AggregateType().IsValid():
		return fmt.Errorf("unknown outbox aggregate type %q", p.AggregateType())
	case p.AggregateID() == uuid.Nil:
		return fmt.Errorf("%s event has no aggregate id", p.EventType())
	}
	return nil
}
