package admin

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shoplane/backend/internal/orders"
	"github.com/shoplane/backend/pkg/enums"
)

// OrderUserDTO is the minimal user slice attached to admin order rows.
type OrderUserDTO struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// OrderWithUserDTO joins an order with its owner for the admin listing.
type OrderWithUserDTO struct {
	orders.OrderDTO
	User *OrderUserDTO `json:"user"`
}

// SummaryDTO aggregates the platform-wide dashboard counters. Revenue is
// the sum over paid orders, expressed in major currency units.
type SummaryDTO struct {
	Users        int64           `json:"users"`
	Orders       int64           `json:"orders"`
	Products     int64           `json:"products"`
	RevenueCents int64           `json:"revenue_cents"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// UpdateOrderStatusRequest carries the status override payload.
type UpdateOrderStatusRequest struct {
	Status enums.OrderStatus `json:"status" validate:"required"`
}
