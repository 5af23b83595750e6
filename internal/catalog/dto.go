package catalog

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/memberclub-backend/pkg/db/models"
)

// ItemDTO is the public projection of a catalog item. Money is rendered with two decimals.
type ItemDTO struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	ImageURL      *string   `json:"image_url,omitempty"`
	Price         string    `json:"price"`
	Discount      string    `json:"discount"`
	StockQuantity int       `json:"stock_quantity"`
	IsAvailable   bool      `json:"is_available"`
}

// DeleteResult summarizes an admin item deletion.
type DeleteResult struct {
	ItemID             uuid.UUID `json:"item_id"`
	CartEntriesRemoved int64     `json:"cart_entries_removed"`
}

// FromModel maps a persisted item to its DTO.
func FromModel(item models.CatalogItem) ItemDTO {
	return ItemDTO{
		ID:            item.ID,
		Name:          item.Name,
		Description:   item.Description,
		ImageURL:      item.ImageURL,
		Price:         item.Price.StringFixed(2),
		Discount:      item.Discount.StringFixed(2),
		StockQuantity: item.StockQuantity,
		IsAvailable:   item.IsAvailable,
	}
}
