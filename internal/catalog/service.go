package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/memberclub-backend/pkg/errors"
	"github.com/angelmondragon/memberclub-backend/pkg/outbox"
	"github.com/angelmondragon/memberclub-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// entryPurger removes every cart entry referencing an item inside tx.
type entryPurger interface {
	PurgeItem(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) (int64, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, payload outbox.Payload, opts ...outbox.EmitOption) error
}

// Service exposes catalog reads and the admin deletion workflow.
type Service interface {
	List(ctx context.Context, onlyAvailable bool) ([]ItemDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*ItemDTO, error)
	DeleteItem(ctx context.Context, id uuid.UUID) (*DeleteResult, error)
}

type service struct {
	repo   *Repository
	tx     txRunner
	purger entryPurger
	outbox outboxPublisher
}

// NewService builds the catalog service.
func NewService(repo *Repository, tx txRunner, purger entryPurger, publisher outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if purger == nil {
		return nil, fmt.Errorf("cart entry purger required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, purger: purger, outbox: publisher}, nil
}

func (s *service) List(ctx context.Context, onlyAvailable bool) ([]ItemDTO, error) {
	items, err := s.repo.List(ctx, onlyAvailable)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "list catalog items")
	}
	out := make([]ItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, FromModel(item))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ItemDTO, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapItemLookupError(err)
	}
	dto := FromModel(*item)
	return &dto, nil
}

// DeleteItem removes the item together with every cart entry that references it.
func (s *service) DeleteItem(ctx context.Context, id uuid.UUID) (*DeleteResult, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}

	var result *DeleteResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindByID(ctx, id)
		if err != nil {
			return mapItemLookupError(err)
		}

		removed, err := s.purger.PurgeItem(ctx, tx, id)
		if err != nil {
			return pkgerrors.FromStore(err, "delete cart entries for item")
		}
		if _, err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.FromStore(err, "delete catalog item")
		}

		if err := s.outbox.Emit(ctx, tx, payloads.CatalogItemRemovedEvent{
			ItemID:             id,
			Name:               item.Name,
			CartEntriesRemoved: removed,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue item removal event")
		}

		result = &DeleteResult{ItemID: id, CartEntriesRemoved: removed}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.FromStore(err, "delete catalog item")
	}
	return result, nil
}

func mapItemLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeItemNotFound, "item does not exist")
	}
	return pkgerrors.FromStore(err, "load catalog item")
}
