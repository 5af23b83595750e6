package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/memberclub-backend/pkg/enums"
)

// CheckoutCompletedEvent is emitted once a member's cart has been settled.
type CheckoutCompletedEvent struct {
	MemberID        uuid.UUID       `json:"member_id"`
	TierID          *uuid.UUID      `json:"tier_id,omitempty"`
	EntryIDs        []uuid.UUID     `json:"entry_ids"`
	EntryCount      int             `json:"entry_count"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Cashback        decimal.Decimal `json:"cashback"`
	CashbackBalance decimal.Decimal `json:"cashback_balance"`
}

func (CheckoutCompletedEvent) EventType() enums.OutboxEventType {
	return enums.EventCheckoutCompleted
}

func (CheckoutCompletedEvent) AggregateType() enums.OutboxAggregateType {
	return enums.AggregateMember
}

func (e CheckoutCompletedEvent) AggregateID() uuid.UUID {
	return e.MemberID
}

// CatalogItemRemovedEvent records an admin deletion and the cart entries it discarded.
type CatalogItemRemovedEvent struct {
	ItemID             uuid.UUID `json:"item_id"`
	Name               string    `json:"name"`
	CartEntriesRemoved int64     `json:"cart_entries_removed"`
}

func (CatalogItemRemovedEvent) EventType() enums.OutboxEventType {
	return enums.EventCatalogItemRemoved
}

func (CatalogItemRemovedEvent) AggregateType() enums.OutboxAggregateType {
	return enums.AggregateCatalogItem
}

func (e CatalogItemRemovedEvent) AggregateID() uuid.UUID {
	return e.ItemID
}

// TierRemovedEvent records an admin tier deletion and how many members lost the tier.
type TierRemovedEvent struct {
	TierID          uuid.UUID `json:"tier_id"`
	Name            string    `json:"name"`
	MembersDetached int64     `json:"members_detached"`
}

func (TierRemovedEvent) EventType() enums.OutboxEventType {
	return enums.EventTierRemoved
}

func (TierRemovedEvent) AggregateType() enums.OutboxAggregateType {
	return enums.AggregateTier
}

func (e TierRemovedEvent) AggregateID() uuid.UUID {
	return e.TierID
}
