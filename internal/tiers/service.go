package tiers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/memberclub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/memberclub-backend/pkg/errors"
	"github.com/angelmondragon/memberclub-backend/pkg/outbox"
	"github.com/angelmondragon/memberclub-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// memberDetacher clears the tier reference of every member in the tier inside tx.
type memberDetacher interface {
	DetachTier(ctx context.Context, tx *gorm.DB, tierID uuid.UUID) (int64, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, payload outbox.Payload, opts ...outbox.EmitOption) error
}

// TierDTO is the public projection of a membership tier.
type TierDTO struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	DiscountRate string    `json:"discount_rate"`
	CashbackRate string    `json:"cashback_rate"`
}

// DeleteResult summarizes an admin tier deletion.
type DeleteResult struct {
	TierID          uuid.UUID `json:"tier_id"`
	MembersDetached int64     `json:"members_detached"`
}

// Service exposes tier reads and the admin deletion workflow.
type Service interface {
	List(ctx context.Context) ([]TierDTO, error)
	DeleteTier(ctx context.Context, id uuid.UUID) (*DeleteResult, error)
}

type service struct {
	repo    *Repository
	tx      txRunner
	members memberDetacher
	outbox  outboxPublisher
}

// NewService builds the tier service.
func NewService(repo *Repository, tx txRunner, members memberDetacher, publisher outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tier repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if members == nil {
		return nil, fmt.Errorf("member detacher required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, members: members, outbox: publisher}, nil
}

func (s *service) List(ctx context.Context) ([]TierDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "list membership tiers")
	}
	out := make([]TierDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row))
	}
	return out, nil
}

// DeleteTier detaches every member from the tier and then removes it.
func (s *service) DeleteTier(ctx context.Context, id uuid.UUID) (*DeleteResult, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tier id required")
	}

	var result *DeleteResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		tier, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "membership tier not found")
			}
			return pkgerrors.FromStore(err, "load membership tier")
		}

		detached, err := s.members.DetachTier(ctx, tx, id)
		if err != nil {
			return pkgerrors.FromStore(err, "detach members from tier")
		}
		if _, err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.FromStore(err, "delete membership tier")
		}

		if err := s.outbox.Emit(ctx, tx, payloads.TierRemovedEvent{
			TierID:          id,
			Name:            tier.Name,
			MembersDetached: detached,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue tier removal event")
		}

		result = &DeleteResult{TierID: id, MembersDetached: detached}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.FromStore(err, "delete membership tier")
	}
	return result, nil
}

func toDTO(tier models.MembershipTier) TierDTO {
	return TierDTO{
		ID:           tier.ID,
		Name:         tier.Name,
		DiscountRate: tier.DiscountRate.StringFixed(2),
		CashbackRate: tier.CashbackRate.StringFixed(4),
	}
}
