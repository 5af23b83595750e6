package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/memberclub-backend/internal/cart"
	"github.com/angelmondragon/memberclub-backend/internal/members"
	"github.com/angelmondragon/memberclub-backend/internal/pricing"
	"github.com/angelmondragon/memberclub-backend/internal/tiers"
	pkgerrors "github.com/angelmondragon/memberclub-backend/pkg/errors"
	"github.com/angelmondragon/memberclub-backend/pkg/logger"
	"github.com/angelmondragon/memberclub-backend/pkg/outbox"
	"github.com/angelmondragon/memberclub-backend/pkg/outbox/payloads"
)

const opCheckout = "checkout"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, payload outbox.Payload, opts ...outbox.EmitOption) error
}

type checkoutRecorder interface {
	ObserveOperation(operation string, err error)
	CheckoutCompleted(total, cashback decimal.Decimal)
}

// Result summarizes a settled cart.
type Result struct {
	TotalAmount     decimal.Decimal
	Cashback        decimal.Decimal
	EntryCount      int
	CashbackBalance decimal.Decimal
	CashbackExpires *time.Time
}

// Service settles a member's cart.
type Service interface {
	Checkout(ctx context.Context, member cart.Member) (*Result, error)
}

// ServiceParams groups the checkout dependencies.
type ServiceParams struct {
	TX               txRunner
	Entries          *cart.Repository
	Tiers            *tiers.Repository
	Members          *members.Repository
	Outbox           outboxPublisher
	CashbackValidity time.Duration
	Logger           *logger.Logger
	Metrics          checkoutRecorder
	Now              func() time.Time
}

type service struct {
	tx       txRunner
	entries  *cart.Repository
	tiers    *tiers.Repository
	members  *members.Repository
	outbox   outboxPublisher
	validity time.Duration
	logg     *logger.Logger
	metrics  checkoutRecorder
	now      func() time.Time
}

type noopRecorder struct{}

func (noopRecorder) ObserveOperation(string, error)                     {}
func (noopRecorder) CheckoutCompleted(decimal.Decimal, decimal.Decimal) {}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.TX == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Entries == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Tiers == nil {
		return nil, fmt.Errorf("tier repository required")
	}
	if params.Members == nil {
		return nil, fmt.Errorf("member repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.CashbackValidity < 0 {
		return nil, fmt.Errorf("cashback validity cannot be negative")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	var recorder checkoutRecorder = noopRecorder{}
	if params.Metrics != nil {
		recorder = params.Metrics
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		tx:       params.TX,
		entries:  params.Entries,
		tiers:    params.Tiers,
		members:  params.Members,
		outbox:   params.Outbox,
		validity: params.CashbackValidity,
		logg:     logg,
		metrics:  recorder,
		now:      now,
	}, nil
}

// Checkout sums the frozen totals of every entry in the cart, clears it and
// credits the tier cashback, all in one transaction.
func (s *service) Checkout(ctx context.Context, member cart.Member) (result *Result, err error) {
	defer func() { s.metrics.ObserveOperation(opCheckout, err) }()

	if member.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "member required")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		memberRepo := s.members.WithTx(tx)
		locked, err := memberRepo.LockForUpdate(ctx, member.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeUnauthorized, "member no longer exists")
			}
			return pkgerrors.FromStore(err, "lock member")
		}

		entryRepo := s.entries.WithTx(tx)
		snapshot, err := entryRepo.ListForMember(ctx, member.ID)
		if err != nil {
			return pkgerrors.FromStore(err, "load cart entries")
		}
		if len(snapshot) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
		}

		total := decimal.Zero
		ids := make([]uuid.UUID, 0, len(snapshot))
		for _, entry := range snapshot {
			total = total.Add(entry.TotalAmount)
			ids = append(ids, entry.ID)
		}

		rates, err := s.tiers.WithTx(tx).Resolve(ctx, locked.TierID)
		if err != nil {
			return err
		}
		cashback := pricing.Cashback(total, rates.CashbackRate)

		deleted, err := entryRepo.DeleteByIDs(ctx, member.ID, ids)
		if err != nil {
			return pkgerrors.FromStore(err, "clear cart")
		}
		if deleted != int64(len(ids)) {
			return pkgerrors.New(pkgerrors.CodeConflict, "cart changed during checkout").
				WithDetails(map[string]any{"expected": len(ids), "deleted": deleted})
		}

		var expiresAt *time.Time
		if cashback.IsPositive() {
			if s.validity > 0 {
				at := s.now().UTC().Add(s.validity)
				expiresAt = &at
			}
			if err := memberRepo.CreditCashback(ctx, member.ID, cashback, expiresAt); err != nil {
				return pkgerrors.FromStore(err, "credit cashback")
			}
		}

		updated, err := memberRepo.FindByID(ctx, member.ID)
		if err != nil {
			return pkgerrors.FromStore(err, "reload member")
		}

		event := payloads.CheckoutCompletedEvent{
			MemberID:        member.ID,
			TierID:          locked.TierID,
			EntryIDs:        ids,
			EntryCount:      len(ids),
			TotalAmount:     total,
			Cashback:        cashback,
			CashbackBalance: updated.CashbackBalance,
		}
		if err := s.outbox.Emit(ctx, tx, event, outbox.WithActor(member.ID), outbox.WithOccurredAt(s.now())); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue checkout event")
		}

		result = &Result{
			TotalAmount:     total,
			Cashback:        cashback,
			EntryCount:      len(ids),
			CashbackBalance: updated.CashbackBalance,
			CashbackExpires: updated.CashbackExpiresAt,
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.FromStore(err, "complete checkout")
	}

	s.metrics.CheckoutCompleted(result.TotalAmount, result.Cashback)
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"member_id":   member.ID.String(),
		"entry_count": result.EntryCount,
		"total":       result.TotalAmount.StringFixed(2),
		"cashback":    result.Cashback.StringFixed(2),
	})
	s.logg.Info(logCtx, "checkout completed")
	return result, nil
}
