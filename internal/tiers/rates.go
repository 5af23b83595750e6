package tiers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/memberclub-backend/internal/pricing"
	pkgerrors "github.com/angelmondragon/memberclub-backend/pkg/errors"
)

// Rates is the pricing view of a tier.
type Rates = pricing.TierRates

// Resolve returns the rates granted by tierID. A nil tier, or one that no
// longer exists, grants nothing.
func (r *Repository) Resolve(ctx context.Context, tierID *uuid.UUID) (Rates, error) {
	if tierID == nil || *tierID == uuid.Nil {
		return Rates{}, nil
	}
	tier, err := r.FindByID(ctx, *tierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Rates{}, nil
		}
		return Rates{}, pkgerrors.FromStore(err, "load membership tier")
	}
	return Rates{
		DiscountRate: tier.DiscountRate,
		CashbackRate: tier.CashbackRate,
	}, nil
}
