package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shoplane/backend/internal/orders"
	product "github.com/shoplane/backend/internal/products"
	"github.com/shoplane/backend/internal/users"
	"github.com/shoplane/backend/pkg/enums"
	pkgerrors "github.com/shoplane/backend/pkg/errors"
)

// Service exposes the cross-entity admin operations. Callers are assumed
// to be authorized already; nothing here is ownership-scoped.
type Service interface {
	ListUsers(ctx context.Context) ([]users.UserDTO, error)
	ListProducts(ctx context.Context) ([]product.ProductDTO, error)
	ListOrders(ctx context.Context) ([]OrderWithUserDTO, error)
	Summary(ctx context.Context) (*SummaryDTO, error)
	BlockUser(ctx context.Context, id uuid.UUID) (*users.UserDTO, error)
	UnblockUser(ctx context.Context, id uuid.UUID) (*users.UserDTO, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	CreateProduct(ctx context.Context, adminID uuid.UUID, input product.CreateProductInput) (*product.ProductDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*orders.OrderDTO, error)
	Me(ctx context.Context, adminID uuid.UUID) (*users.UserDTO, error)
}

type service struct {
	users      *users.Repository
	products   *product.Repository
	orders     *orders.Repository
	productSvc product.Service
}

// NewService builds the admin service over the shared repositories.
func NewService(userRepo *users.Repository, productRepo *product.Repository, orderRepo *orders.Repository, productSvc product.Service) (Service, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if productSvc == nil {
		return nil, fmt.Errorf("product service required")
	}
	return &service{
		users:      userRepo,
		products:   productRepo,
		orders:     orderRepo,
		productSvc: productSvc,
	}, nil
}

func (s *service) ListUsers(ctx context.Context) ([]users.UserDTO, error) {
	rows, err := s.users.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	dtos := make([]users.UserDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *users.FromModel(&rows[i]))
	}
	return dtos, nil
}

func (s *service) ListProducts(ctx context.Context) ([]product.ProductDTO, error) {
	rows, err := s.products.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return product.FromModels(rows), nil
}

func (s *service) ListOrders(ctx context.Context) ([]OrderWithUserDTO, error) {
	rows, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	userIDs := make([]uuid.UUID, 0, len(rows))
	seen := make(map[uuid.UUID]struct{}, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.UserID]; ok {
			continue
		}
		seen[row.UserID] = struct{}{}
		userIDs = append(userIDs, row.UserID)
	}

	owners, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order owners")
	}
	ownerByID := make(map[uuid.UUID]OrderUserDTO, len(owners))
	for _, owner := range owners {
		ownerByID[owner.ID] = OrderUserDTO{ID: owner.ID, Name: owner.Name, Email: owner.Email}
	}

	result := make([]OrderWithUserDTO, 0, len(rows))
	for i := range rows {
		entry := OrderWithUserDTO{OrderDTO: *orders.FromModel(&rows[i])}
		if owner, ok := ownerByID[rows[i].UserID]; ok {
			ownerCopy := owner
			entry.User = &ownerCopy
		}
		result = append(result, entry)
	}
	return result, nil
}

func (s *service) Summary(ctx context.Context) (*SummaryDTO, error) {
	userCount, err := s.users.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count users")
	}
	orderCount, err := s.orders.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count orders")
	}
	productCount, err := s.products.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count products")
	}
	revenueCents, err := s.orders.SumTotalCentsByStatus(ctx, enums.OrderStatusPaid)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum revenue")
	}

	return &SummaryDTO{
		Users:        userCount,
		Orders:       orderCount,
		Products:     productCount,
		RevenueCents: revenueCents,
		Revenue:      decimal.NewFromInt(revenueCents).Div(decimal.NewFromInt(100)),
	}, nil
}

func (s *service) BlockUser(ctx context.Context, id uuid.UUID) (*users.UserDTO, error) {
	return s.setUserStatus(ctx, id, enums.UserStatusBlocked)
}

func (s *service) UnblockUser(ctx context.Context, id uuid.UUID) (*users.UserDTO, error) {
	return s.setUserStatus(ctx, id, enums.UserStatusActive)
}

func (s *service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete user")
	}
	return nil
}

// CreateProduct runs the regular seller creation path with the admin as
// the owning seller.
func (s *service) CreateProduct(ctx context.Context, adminID uuid.UUID, input product.CreateProductInput) (*product.ProductDTO, error) {
	return s.productSvc.Create(ctx, adminID, input)
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	affected, err := s.products.DeleteScoped(ctx, id, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	}
	return nil
}

// UpdateOrderStatus overwrites the order status without consulting the
// customer-facing state machine.
func (s *service) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*orders.OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", status)
	}

	affected, err := s.orders.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
	}
	return orders.FromModel(order), nil
}

func (s *service) Me(ctx context.Context, adminID uuid.UUID) (*users.UserDTO, error) {
	user, err := s.users.FindByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	return users.FromModel(user), nil
}

func (s *service) setUserStatus(ctx context.Context, id uuid.UUID, status enums.UserStatus) (*users.UserDTO, error) {
	if err := s.users.SetStatus(ctx, id, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set user status")
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload user")
	}
	return users.FromModel(user), nil
}
