package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/memberclub-backend/pkg/db/models"
)

// EntryWithItem is a cart entry joined with the live state of its item.
type EntryWithItem struct {
	ID           uuid.UUID       `gorm:"column:id"`
	ItemID       uuid.UUID       `gorm:"column:item_id"`
	Quantity     int             `gorm:"column:quantity"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price"`
	TotalAmount  decimal.Decimal `gorm:"column:total_amount"`
	CreatedAt    time.Time       `gorm:"column:created_at"`
	ItemName     string          `gorm:"column:item_name"`
	ItemPrice    decimal.Decimal `gorm:"column:item_price"`
	ItemDiscount decimal.Decimal `gorm:"column:item_discount"`
}

// Repository persists cart entries.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new entry.
func (r *Repository) Create(ctx context.Context, entry *models.CartEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindByIDForMember loads an entry only if memberID owns it.
func (r *Repository) FindByIDForMember(ctx context.Context, id, memberID uuid.UUID) (*models.CartEntry, error) {
	var entry models.CartEntry
	err := r.db.WithContext(ctx).
		Where("id = ? AND member_id = ?", id, memberID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListForMember returns the member's entries in insertion order.
func (r *Repository) ListForMember(ctx context.Context, memberID uuid.UUID) ([]models.CartEntry, error) {
	var entries []models.CartEntry
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}

// ListForMemberWithItems returns the member's entries joined with item name, price and discount.
func (r *Repository) ListForMemberWithItems(ctx context.Context, memberID uuid.UUID) ([]EntryWithItem, error) {
	var rows []EntryWithItem
	err := r.db.WithContext(ctx).
		Table("cart_entries AS ce").
		Select(`ce.id, ce.item_id, ce.quantity, ce.unit_price, ce.total_amount, ce.created_at,
			ci.name AS item_name, ci.price AS item_price, ci.discount AS item_discount`).
		Joins("JOIN catalog_items ci ON ci.id = ce.item_id").
		Where("ce.member_id = ?", memberID).
		Order("ce.created_at ASC").
		Order("ce.id ASC").
		Scan(&rows).Error
	return rows, err
}

// DeleteByIDs removes the given entries owned by memberID and reports how many rows went away.
func (r *Repository) DeleteByIDs(ctx context.Context, memberID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("member_id = ? AND id IN ?", memberID, ids).
		Delete(&models.CartEntry{})
	return res.RowsAffected, res.Error
}

// DeleteByItem removes every entry referencing itemID.
func (r *Repository) DeleteByItem(ctx context.Context, itemID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Delete(&models.CartEntry{})
	return res.RowsAffected, res.Error
}

// PurgeItem is DeleteByItem scoped to tx, used by the catalog deletion workflow.
func (r *Repository) PurgeItem(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) (int64, error) {
	return r.WithTx(tx).DeleteByItem(ctx, itemID)
}
