// Package dbtest opens isolated in-memory SQLite databases carrying the
// application schema, plus seed helpers for repository and service tests.
package dbtest

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/memberclub-backend/pkg/db"
	"github.com/angelmondragon/memberclub-backend/pkg/db/models"
	"github.com/angelmondragon/memberclub-backend/pkg/enums"
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS membership_tiers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  discount_rate NUMERIC NOT NULL DEFAULT 0,
  cashback_rate NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS catalog_items (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  image_url TEXT,
  price NUMERIC NOT NULL CHECK (price > 0),
  discount NUMERIC NOT NULL DEFAULT 0 CHECK (discount >= 0),
  stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
  is_available INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS members (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  display_name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'user',
  tier_id TEXT,
  cashback_balance NUMERIC NOT NULL DEFAULT 0,
  cashback_expires_at DATETIME,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS cart_entries (
  id TEXT PRIMARY KEY,
  member_id TEXT NOT NULL,
  item_id TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  unit_price NUMERIC NOT NULL,
  total_amount NUMERIC NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload BLOB NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`,
}

// Open returns a fresh database with the full schema. The pool is capped at a
// single connection so concurrent transactions serialize instead of failing
// with SQLITE_LOCKED.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:memberclub_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return conn
}

// Client wraps conn in a db.Client so services can run transactions against it.
func Client(conn *gorm.DB) *db.Client {
	return db.NewFromGorm(conn, time.Second, time.Second)
}

// MustCreateTier inserts a membership tier.
func MustCreateTier(t *testing.T, conn *gorm.DB, name, discount, cashback string) *models.MembershipTier {
	t.Helper()
	tier := &models.MembershipTier{
		Name:         name,
		DiscountRate: decimal.RequireFromString(discount),
		CashbackRate: decimal.RequireFromString(cashback),
	}
	if err := conn.Create(tier).Error; err != nil {
		t.Fatalf("create tier: %v", err)
	}
	return tier
}

// MustCreateItem inserts an available catalog item.
func MustCreateItem(t *testing.T, conn *gorm.DB, name, price, discount string, stock int) *models.CatalogItem {
	t.Helper()
	item := &models.CatalogItem{
		Name:          name,
		Price:         decimal.RequireFromString(price),
		Discount:      decimal.RequireFromString(discount),
		StockQuantity: stock,
		IsAvailable:   true,
	}
	if err := conn.Create(item).Error; err != nil {
		t.Fatalf("create item: %v", err)
	}
	return item
}

// MustCreateMember inserts a member, optionally assigned to tierID.
func MustCreateMember(t *testing.T, conn *gorm.DB, tierID *uuid.UUID) *models.Member {
	t.Helper()
	member := &models.Member{
		Email:           fmt.Sprintf("member_%s@example.com", uuid.NewString()),
		DisplayName:     "Test Member",
		PasswordHash:    "hash",
		Role:            enums.MemberRoleUser,
		TierID:          tierID,
		CashbackBalance: decimal.Zero,
	}
	if err := conn.Create(member).Error; err != nil {
		t.Fatalf("create member: %v", err)
	}
	return member
}

// Stock reads the current stock of an item.
func Stock(t *testing.T, conn *gorm.DB, itemID uuid.UUID) int {
	t.Helper()
	var item models.CatalogItem
	if err := conn.First(&item, "id = ?", itemID).Error; err != nil {
		t.Fatalf("load item: %v", err)
	}
	return item.StockQuantity
}

// CountEntries counts the cart entries owned by memberID.
func CountEntries(t *testing.T, conn *gorm.DB, memberID uuid.UUID) int64 {
	t.Helper()
	var count int64
	if err := conn.Model(&models.CartEntry{}).Where("member_id = ?", memberID).Count(&count).Error; err != nil {
		t.Fatalf("count entries: %v", err)
	}
	return count
}
