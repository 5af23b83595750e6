package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MembershipTier holds the discount and cashback rates granted to members of a tier.
type MembershipTier struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name         string          `gorm:"column:name;not null;uniqueIndex"`
	DiscountRate decimal.Decimal `gorm:"column:discount_rate;type:numeric(10,2);not null;default:0"`
	CashbackRate decimal.Decimal `gorm:"column:cashback_rate;type:numeric(5,4);not null;default:0"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default table name.
func (MembershipTier) TableName() string { return "membership_tiers" }

// BeforeCreate assigns an identifier when the caller did not.
func (m *MembershipTier) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
