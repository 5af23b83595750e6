package enums

import "fmt"

// OutboxAggregateType identifies the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateMember      OutboxAggregateType = "member"
	AggregateCatalogItem OutboxAggregateType = "catalog_item"
	AggregateTier        OutboxAggregateType = "membership_tier"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateMember,
	AggregateCatalogItem,
	AggregateTier,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// OutboxEventType names a domain event written to the outbox.
type OutboxEventType string

const (
	EventCheckoutCompleted  OutboxEventType = "checkout_completed"
	EventCatalogItemRemoved OutboxEventType = "catalog_item_removed"
	EventTierRemoved        OutboxEventType = "membership_tier_removed"
)

var validEventTypes = []OutboxEventType{
	EventCheckoutCompleted,
	EventCatalogItemRemoved,
	EventTierRemoved,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
