package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoplane/backend/internal/cart"
	product "github.com/shoplane/backend/internal/products"
	"github.com/shoplane/backend/pkg/db"
	"github.com/shoplane/backend/pkg/db/models"
	"github.com/shoplane/backend/pkg/enums"
	pkgerrors "github.com/shoplane/backend/pkg/errors"
)

// Service exposes checkout and order lifecycle operations.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID) (*OrderDTO, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	MarkPaid(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
}

type service struct {
	db   *db.Client
	repo *Repository
}

// NewService builds the orders service.
func NewService(dbClient *db.Client, repo *Repository) (Service, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{db: dbClient, repo: repo}, nil
}

// Checkout converts the user's cart into an order. Stock is checked and
// decremented inside one transaction, so a concurrent checkout of the
// last unit loses cleanly instead of driving stock negative.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID) (*OrderDTO, error) {
	var created *models.Order
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := cart.NewRepository(tx)
		productRepo := product.NewRepository(tx)
		orderRepo := s.repo.WithTx(tx)

		record, err := cartRepo.FindByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "Cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		if len(record.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "Cart is empty")
		}

		orderID := uuid.New()
		items := make([]models.OrderItem, 0, len(record.Items))
		total := 0

		for _, line := range record.Items {
			listing, err := productRepo.FindByID(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
			}
			if listing.Status != enums.ProductStatusActive {
				return pkgerrors.Newf(pkgerrors.CodeValidation, "Product not available: %s", listing.Title)
			}
			if listing.Stock < line.Qty {
				return pkgerrors.Newf(pkgerrors.CodeValidation, "Not enough stock for: %s", listing.Title)
			}

			affected, err := productRepo.DecrementStock(ctx, listing.ID, line.Qty)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement stock")
			}
			if affected == 0 {
				return pkgerrors.Newf(pkgerrors.CodeValidation, "Not enough stock for: %s", listing.Title)
			}

			lineTotal := listing.PriceCents * line.Qty
			total += lineTotal
			items = append(items, models.OrderItem{
				ID:             uuid.New(),
				OrderID:        orderID,
				ProductID:      listing.ID,
				SellerID:       listing.SellerID,
				Title:          listing.Title,
				UnitPriceCents: listing.PriceCents,
				Qty:            line.Qty,
				LineTotalCents: lineTotal,
			})
		}

		order := &models.Order{
			ID:         orderID,
			UserID:     userID,
			Status:     enums.OrderStatusPending,
			TotalCents: total,
		}
		if _, err := orderRepo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
		if err := orderRepo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order items")
		}

		if err := cartRepo.ClearItems(ctx, record.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
		}

		created, err = orderRepo.FindByID(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(created), nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return FromModels(rows), nil
}

func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByIDAndUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return FromModel(order), nil
}

// Cancel moves the user's pending order to cancelled. Stock is not
// restored. Any other starting state is rejected.
func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	return s.transition(ctx, userID, orderID, enums.OrderStatusPending, enums.OrderStatusCancelled,
		"Only pending orders can be cancelled")
}

// MarkPaid moves the user's pending order to paid.
func (s *service) MarkPaid(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	return s.transition(ctx, userID, orderID, enums.OrderStatusPending, enums.OrderStatusPaid,
		"Only pending orders can be paid")
}

func (s *service) transition(ctx context.Context, userID, orderID uuid.UUID, from, to enums.OrderStatus, conflictMsg string) (*OrderDTO, error) {
	affected, err := s.repo.TransitionStatus(ctx, orderID, userID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "transition order")
	}
	if affected == 0 {
		// Distinguish a missing order from one in the wrong state.
		if _, err := s.repo.FindByIDAndUser(ctx, orderID, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, conflictMsg)
	}

	return s.Get(ctx, userID, orderID)
}
