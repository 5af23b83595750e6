package cartdto

import "github.com/google/uuid"

// AddItemRequest is the body accepted by POST /api/v1/cart/items.
type AddItemRequest struct {
	ItemID   uuid.UUID `json:"item_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,min=1"`
}
