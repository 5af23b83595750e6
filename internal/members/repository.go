package members

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/memberclub-backend/pkg/db/models"
)

// Repository persists members and their cashback balances.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new member.
func (r *Repository) Create(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// FindByID loads a member. Returns gorm.ErrRecordNotFound when absent.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).First(&member, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// FindByEmail loads a member by email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).First(&member, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// LockForUpdate loads the member row with SELECT ... FOR UPDATE so cart
// mutations of one member run one at a time. Must be called inside a transaction.
func (r *Repository) LockForUpdate(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&member, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// CreditCashback adds amount to the member balance and, when expiresAt is set,
// moves the expiry forward.
func (r *Repository) CreditCashback(ctx context.Context, id uuid.UUID, amount decimal.Decimal, expiresAt *time.Time) error {
	updates := map[string]any{
		"cashback_balance": gorm.Expr("cashback_balance + ?", amount),
		"updated_at":       time.Now().UTC(),
	}
	if expiresAt != nil {
		updates["cashback_expires_at"] = *expiresAt
	}
	return r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ExpireCashback zeroes balances whose expiry is at or before now.
func (r *Repository) ExpireCashback(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	res := r.WithTx(tx).db.WithContext(ctx).
		Model(&models.Member{}).
		Where("cashback_expires_at IS NOT NULL AND cashback_expires_at <= ?", now).
		Updates(map[string]any{
			"cashback_balance":    decimal.Zero,
			"cashback_expires_at": nil,
			"updated_at":          now,
		})
	return res.RowsAffected, res.Error
}

// ClearTier drops the tier reference of every member in tierID.
func (r *Repository) ClearTier(ctx context.Context, tierID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("tier_id = ?", tierID).
		Updates(map[string]any{
			"tier_id":    nil,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

// DetachTier is ClearTier scoped to tx, used by the tier deletion workflow.
func (r *Repository) DetachTier(ctx context.Context, tx *gorm.DB, tierID uuid.UUID) (int64, error) {
	return r.WithTx(tx).ClearTier(ctx, tierID)
}
