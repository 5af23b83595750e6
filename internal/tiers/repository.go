package tiers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/memberclub-backend/pkg/db/models"
)

// Repository reads and deletes membership tiers.
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

// FindByID loads a tier. Returns gorm.ErrRecordNotFound when absent.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.MembershipTier, error) {
	var tier models.MembershipTier
	if err := r.db.WithContext(ctx).First(&tier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tier, nil
}

// List returns all tiers ordered from the smallest discount to the largest.
func (r *Repository) List(ctx context.Context) ([]models.MembershipTier, error) {
	var tiers []models.MembershipTier
	err := r.db.WithContext(ctx).
		Order("discount_rate ASC").
		Order("name ASC").
		Find(&tiers).Error
	return tiers, err
}

// Delete removes the tier row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.MembershipTier{})
	return res.RowsAffected, res.Error
}

// FindByName loads a tier by its unique name.
func (r *Repository) FindByName(ctx context.Context, name string) (*models.MembershipTier, error) {
	var tier models.MembershipTier
	if err := r.db.WithContext(ctx).First(&tier, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &tier, nil
}
