package cartdto

import (
	"time"

	"github.com/google/uuid"
)

// Entry is a freshly recorded cart entry. Money fields carry two decimals.
type Entry struct {
	ID          uuid.UUID `json:"id"`
	ItemID      uuid.UUID `json:"item_id"`
	Quantity    int       `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	TotalAmount string    `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

// Line is one entry of the cart view.
type Line struct {
	EntryID         uuid.UUID `json:"entry_id"`
	ItemID          uuid.UUID `json:"item_id"`
	ItemName        string    `json:"item_name"`
	Quantity        int       `json:"quantity"`
	ItemPrice       string    `json:"item_price"`
	UnitPrice       string    `json:"unit_price"`
	DiscountApplied string    `json:"discount_applied"`
	TotalPrice      string    `json:"total_price"`
	AddedAt         time.Time `json:"added_at"`
}

// Cart is the member's cart view.
type Cart struct {
	Items      []Line `json:"items"`
	TotalPrice string `json:"total_price"`
}

// Removed reports the units given back to stock by a removal.
type Removed struct {
	EntryID       uuid.UUID `json:"entry_id"`
	ItemID        uuid.UUID `json:"item_id"`
	RestoredUnits int       `json:"restored_units"`
}

// CheckoutResult is the settled cart summary.
type CheckoutResult struct {
	TotalAmount     string     `json:"total_amount"`
	Cashback        string     `json:"cashback"`
	EntryCount      int        `json:"entry_count"`
	CashbackBalance string     `json:"cashback_balance"`
	CashbackExpires *time.Time `json:"cashback_expires_at,omitempty"`
}
