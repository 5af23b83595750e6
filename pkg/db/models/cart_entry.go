package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartEntry is a single add-to-cart action with its price frozen at creation.
type CartEntry struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	MemberID    uuid.UUID       `gorm:"column:member_id;type:uuid;not null;index"`
	ItemID      uuid.UUID       `gorm:"column:item_id;type:uuid;not null;index"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// TableName overrides the default table name.
func (CartEntry) TableName() string { return "cart_entries" }

// BeforeCreate assigns an identifier when the caller did not.
func (c *CartEntry) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
