package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/memberclub-backend/internal/catalog"
	"github.com/angelmondragon/memberclub-backend/internal/members"
	"github.com/angelmondragon/memberclub-backend/internal/pricing"
	"github.com/angelmondragon/memberclub-backend/internal/tiers"
	"github.com/angelmondragon/memberclub-backend/pkg/db/models"
	"github.com/angelmondragon/memberclub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/memberclub-backend/pkg/errors"
	"github.com/angelmondragon/memberclub-backend/pkg/logger"
)

const (
	opAdd    = "add"
	opRemove = "remove"
	opList   = "list"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ledgerRecorder interface {
	ObserveOperation(operation string, err error)
	StockReserved(units int)
	StockRestored(units int)
}

// Member is the authenticated principal acting on its own cart.
type Member struct {
	ID     uuid.UUID
	TierID *uuid.UUID
}

// RemovedEntry reports what a removal gave back to stock.
type RemovedEntry struct {
	EntryID       uuid.UUID
	ItemID        uuid.UUID
	RestoredUnits int
}

// Service is the cart ledger: it records additions with frozen prices and
// keeps item stock consistent with the entries that reserve it.
type Service interface {
	Add(ctx context.Context, member Member, itemID uuid.UUID, quantity int) (*models.CartEntry, error)
	Remove(ctx context.Context, member Member, entryID uuid.UUID) (*RemovedEntry, error)
	List(ctx context.Context, member Member) (*View, error)
}

// ServiceParams groups the cart service dependencies.
type ServiceParams struct {
	TX            txRunner
	Entries       *Repository
	Catalog       *catalog.Repository
	Tiers         *tiers.Repository
	Members       *members.Repository
	RestorePolicy enums.RestorePolicy
	Logger        *logger.Logger
	Metrics       ledgerRecorder
}

type service struct {
	tx      txRunner
	entries *Repository
	catalog *catalog.Repository
	tiers   *tiers.Repository
	members *members.Repository
	policy  enums.RestorePolicy
	logg    *logger.Logger
	metrics ledgerRecorder
}

type noopRecorder struct{}

func (noopRecorder) ObserveOperation(string, error) {}
func (noopRecorder) StockReserved(int)              {}
func (noopRecorder) StockRestored(int)              {}

// NewService builds the cart service.
func NewService(params ServiceParams) (Service, error) {
	if params.TX == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Entries == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Tiers == nil {
		return nil, fmt.Errorf("tier repository required")
	}
	if params.Members == nil {
		return nil, fmt.Errorf("member repository required")
	}
	policy := params.RestorePolicy
	if policy == "" {
		policy = enums.RestorePolicyQuantity
	}
	if !policy.IsValid() {
		return nil, fmt.Errorf("invalid restore policy %q", policy)
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	var recorder ledgerRecorder = noopRecorder{}
	if params.Metrics != nil {
		recorder = params.Metrics
	}
	return &service{
		tx:      params.TX,
		entries: params.Entries,
		catalog: params.Catalog,
		tiers:   params.Tiers,
		members: params.Members,
		policy:  policy,
		logg:    logg,
		metrics: recorder,
	}, nil
}

// Add prices the item for the member and reserves stock in one transaction.
func (s *service) Add(ctx context.Context, member Member, itemID uuid.UUID, quantity int) (entry *models.CartEntry, err error) {
	defer func() { s.metrics.ObserveOperation(opAdd, err) }()

	if member.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "member required")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithDetails(map[string]any{"field": "quantity", "value": quantity})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		locked, err := s.lockMember(ctx, tx, member.ID)
		if err != nil {
			return err
		}

		item, err := s.catalog.WithTx(tx).FindByID(ctx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeItemNotFound, "item does not exist")
			}
			return pkgerrors.FromStore(err, "load catalog item")
		}

		rates, err := s.tiers.WithTx(tx).Resolve(ctx, locked.TierID)
		if err != nil {
			return err
		}

		quote, err := pricing.ComputeLineTotal(pricing.Item{
			UnitPrice:     item.Price,
			Discount:      item.Discount,
			StockQuantity: item.StockQuantity,
			IsAvailable:   item.IsAvailable,
		}, quantity, rates)
		if err != nil {
			return err
		}

		reserved, err := s.catalog.WithTx(tx).DecrementStock(ctx, item.ID, quantity)
		if err != nil {
			return pkgerrors.FromStore(err, "reserve stock")
		}
		if !reserved {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "stock changed while adding the item").
				WithDetails(map[string]any{"requested": quantity})
		}

		created := &models.CartEntry{
			MemberID:    member.ID,
			ItemID:      item.ID,
			Quantity:    quantity,
			UnitPrice:   quote.EffectivePrice,
			TotalAmount: quote.LineTotal,
		}
		if err := s.entries.WithTx(tx).Create(ctx, created); err != nil {
			return pkgerrors.FromStore(err, "create cart entry")
		}
		entry = created
		return nil
	})
	if err != nil {
		return nil, pkgerrors.FromStore(err, "add cart entry")
	}

	s.metrics.StockReserved(quantity)
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"entry_id": entry.ID.String(),
		"item_id":  entry.ItemID.String(),
		"quantity": entry.Quantity,
		"total":    entry.TotalAmount.StringFixed(2),
	})
	s.logg.Info(logCtx, "cart entry added")
	return entry, nil
}

// Remove deletes one of the member's entries and returns its reserved stock
// according to the configured restore policy.
func (s *service) Remove(ctx context.Context, member Member, entryID uuid.UUID) (removed *RemovedEntry, err error) {
	defer func() { s.metrics.ObserveOperation(opRemove, err) }()

	if member.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "member required")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.lockMember(ctx, tx, member.ID); err != nil {
			return err
		}

		entries := s.entries.WithTx(tx)
		entry, err := entries.FindByIDForMember(ctx, entryID, member.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart entry not found")
			}
			return pkgerrors.FromStore(err, "load cart entry")
		}

		units := s.policy.RestoreQuantity(entry.Quantity)
		if err := s.catalog.WithTx(tx).RestoreStock(ctx, entry.ItemID, units); err != nil {
			return pkgerrors.FromStore(err, "restore stock")
		}

		deleted, err := entries.DeleteByIDs(ctx, member.ID, []uuid.UUID{entry.ID})
		if err != nil {
			return pkgerrors.FromStore(err, "delete cart entry")
		}
		if deleted != 1 {
			return pkgerrors.New(pkgerrors.CodeConflict, "cart entry changed concurrently")
		}

		removed = &RemovedEntry{EntryID: entry.ID, ItemID: entry.ItemID, RestoredUnits: units}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.FromStore(err, "remove cart entry")
	}

	s.metrics.StockRestored(removed.RestoredUnits)
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"entry_id":       removed.EntryID.String(),
		"item_id":        removed.ItemID.String(),
		"restored_units": removed.RestoredUnits,
		"restore_policy": s.policy.String(),
	})
	s.logg.Info(logCtx, "cart entry removed")
	return removed, nil
}

// List returns the member's cart with live discounts and frozen totals.
func (s *service) List(ctx context.Context, member Member) (view *View, err error) {
	defer func() { s.metrics.ObserveOperation(opList, err) }()

	if member.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "member required")
	}

	rows, err := s.entries.ListForMemberWithItems(ctx, member.ID)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "list cart entries")
	}

	tierID := member.TierID
	if stored, lookupErr := s.members.FindByID(ctx, member.ID); lookupErr == nil {
		tierID = stored.TierID
	} else if !errors.Is(lookupErr, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.FromStore(lookupErr, "load member")
	}

	rates, err := s.tiers.Resolve(ctx, tierID)
	if err != nil {
		return nil, err
	}
	return buildView(rows, rates.DiscountRate), nil
}

func (s *service) lockMember(ctx context.Context, tx *gorm.DB, memberID uuid.UUID) (*models.Member, error) {
	locked, err := s.members.WithTx(tx).LockForUpdate(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "member no longer exists")
		}
		return nil, pkgerrors.FromStore(err, "lock member")
	}
	return locked, nil
}
