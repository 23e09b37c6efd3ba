package admin

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shoplane/backend/internal/orders"
	product "github.com/shoplane/backend/internal/products"
	"github.com/shoplane/backend/internal/users"
	"github.com/shoplane/backend/pkg/config"
	"github.com/shoplane/backend/pkg/db/models"
	"github.com/shoplane/backend/pkg/enums"
	pkgerrors "github.com/shoplane/backend/pkg/errors"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.ProductImage{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return conn
}

type noopUploads struct{}

func (noopUploads) SaveImage(contentType string, size int64, r io.Reader) (string, error) {
	return "/uploads/noop.png", nil
}

func buildTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	productRepo := product.NewRepository(conn)
	productSvc, err := product.NewService(productRepo, noopUploads{}, config.UploadsConfig{MaxBatchFiles: 8})
	if err != nil {
		t.Fatalf("build product service: %v", err)
	}
	svc, err := NewService(users.NewRepository(conn), productRepo, orders.NewRepository(conn), productSvc)
	if err != nil {
		t.Fatalf("build admin service: %v", err)
	}
	return svc
}

func seedUser(t *testing.T, conn *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Name:         "Seed User",
		Email:        email,
		PasswordHash: "hash",
		Roles:        pq.StringArray{string(enums.RoleCustomer)},
		Status:       enums.UserStatusActive,
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedOrder(t *testing.T, conn *gorm.DB, userID uuid.UUID, totalCents int, status enums.OrderStatus) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:         uuid.New(),
		UserID:     userID,
		Status:     status,
		TotalCents: totalCents,
	}
	if err := conn.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func TestBlockAndUnblockUser(t *testing.T) {
	conn := openTestDB(t)
	svc := buildTestService(t, conn)
	ctx := context.Background()

	user := seedUser(t, conn, "target@example.com")

	blocked, err := svc.BlockUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if blocked.Status != enums.UserStatusBlocked {
		t.Fatalf("expected blocked status, got %s", blocked.Status)
	}

	unblocked, err := svc.UnblockUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("unblock: %v", err)
	}
	if unblocked.Status != enums.UserStatusActive {
		t.Fatalf("expected active status, got %s", unblocked.Status)
	}

	if _, err := svc.BlockUser(ctx, uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for unknown user, got %v", err)
	}
}

func TestSummaryCountsAndPaidRevenue(t *testing.T) {
	conn := openTestDB(t)
	svc := buildTestService(t, conn)
	ctx := context.Background()

	alice := seedUser(t, conn, "alice@example.com")
	bob := seedUser(t, conn, "bob@example.com")
	seedOrder(t, conn, alice.ID, 3000, enums.OrderStatusPaid)
	seedOrder(t, conn, bob.ID, 1500, enums.OrderStatusPaid)
	seedOrder(t, conn, bob.ID, 9999, enums.OrderStatusPending)

	summary, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Users != 2 {
		t.Fatalf("expected 2 users, got %d", summary.Users)
	}
	if summary.Orders != 3 {
		t.Fatalf("expected 3 orders, got %d", summary.Orders)
	}
	if summary.RevenueCents != 4500 {
		t.Fatalf("expected paid revenue 4500, got %d", summary.RevenueCents)
	}
	if summary.Revenue.String() != "45" {
		t.Fatalf("expected revenue 45, got %s", summary.Revenue)
	}
}

func TestUpdateOrderStatusBypassesStateMachine(t *testing.T) {
	conn := openTestDB(t)
	svc := buildTestService(t, conn)
	ctx := context.Background()

	user := seedUser(t, conn, "buyer@example.com")
	order := seedOrder(t, conn, user.ID, 1000, enums.OrderStatusPending)

	// pending -> delivered is not a customer transition; the admin
	// override accepts it anyway.
	updated, err := svc.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusDelivered)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != enums.OrderStatusDelivered {
		t.Fatalf("expected delivered, got %s", updated.Status)
	}

	if _, err := svc.UpdateOrderStatus(ctx, order.ID, enums.OrderStatus("mystery")); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.UpdateOrderStatus(ctx, uuid.New(), enums.OrderStatusPaid); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListOrdersJoinsOwners(t *testing.T) {
	conn := openTestDB(t)
	svc := buildTestService(t, conn)
	ctx := context.Background()

	alice := seedUser(t, conn, "alice@example.com")
	seedOrder(t, conn, alice.ID, 1000, enums.OrderStatusPending)
	ghost := seedOrder(t, conn, uuid.New(), 500, enums.OrderStatusPending)

	rows, err := svc.ListOrders(ctx)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(rows))
	}
	for _, row := range rows {
		if row.ID == ghost.ID {
			if row.User != nil {
				t.Fatalf("expected nil user for orphaned order")
			}
			continue
		}
		if row.User == nil || row.User.Email != "alice@example.com" {
			t.Fatalf("expected joined owner, got %+v", row.User)
		}
	}
}

func TestDeleteUserAndProductUnconditional(t *testing.T) {
	conn := openTestDB(t)
	svc := buildTestService(t, conn)
	ctx := context.Background()

	user := seedUser(t, conn, "victim@example.com")
	if err := svc.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if err := svc.DeleteUser(ctx, user.ID); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}

	adminID := uuid.New()
	created, err := svc.CreateProduct(ctx, adminID, product.CreateProductInput{
		Title:      "Admin Special",
		PriceCents: 2500,
		Stock:      3,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if created.SellerID != adminID {
		t.Fatalf("expected admin as owning seller")
	}

	if err := svc.DeleteProduct(ctx, created.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	if err := svc.DeleteProduct(ctx, created.ID); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}
