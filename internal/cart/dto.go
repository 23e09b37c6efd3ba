package cart

import (
	"github.com/google/uuid"

	product "github.com/shoplane/backend/internal/products"
)

// AddItemRequest is the payload for adding a product to the cart.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Qty       int       `json:"qty" validate:"required,gt=0"`
}

// UpdateItemRequest overwrites the quantity of an existing line item.
type UpdateItemRequest struct {
	Qty int `json:"qty" validate:"required,gt=0"`
}

// CartItemDTO is one resolved line item. Product is nil when the listing
// was deleted after the item was added.
type CartItemDTO struct {
	ID      uuid.UUID           `json:"id"`
	Qty     int                 `json:"qty"`
	Product *product.ProductDTO `json:"product"`
}

// CartDTO is the transport shape of a cart. A user with no cart row gets
// the virtual empty cart (zero ID, no items).
type CartDTO struct {
	ID    uuid.UUID     `json:"id"`
	Items []CartItemDTO `json:"items"`
}
