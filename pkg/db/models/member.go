package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/memberclub-backend/pkg/enums"
)

// Member is an authenticated shopper, optionally assigned to a membership tier.
type Member struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Email             string           `gorm:"column:email;not null;uniqueIndex"`
	DisplayName       string           `gorm:"column:display_name;not null"`
	PasswordHash      string           `gorm:"column:password_hash;not null"`
	Role              enums.MemberRole `gorm:"column:role;not null;default:'user'"`
	TierID            *uuid.UUID       `gorm:"column:tier_id;type:uuid"`
	CashbackBalance   decimal.Decimal  `gorm:"column:cashback_balance;type:numeric(12,2);not null;default:0"`
	CashbackExpiresAt *time.Time       `gorm:"column:cashback_expires_at"`
	LastLoginAt       *time.Time       `gorm:"column:last_login_at"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default table name.
func (Member) TableName() string { return "members" }

// BeforeCreate assigns an identifier when the caller did not.
func (m *Member) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
