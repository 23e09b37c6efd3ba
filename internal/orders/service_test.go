package orders

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shoplane/backend/internal/cart"
	"github.com/shoplane/backend/pkg/db"
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
		&models.Product{},
		&models.ProductImage{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return conn
}

func buildTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(db.FromGorm(conn), NewRepository(conn))
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func seedProduct(t *testing.T, conn *gorm.DB, title string, priceCents, stock int) *models.Product {
	t.Helper()
	row := &models.Product{
		ID:         uuid.New(),
		SellerID:   uuid.New(),
		Title:      title,
		PriceCents: priceCents,
		Stock:      stock,
		Status:     enums.ProductStatusActive,
	}
	if err := conn.Create(row).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return row
}

func seedCartWith(t *testing.T, conn *gorm.DB, userID uuid.UUID, lines map[uuid.UUID]int) {
	t.Helper()
	repo := cart.NewRepository(conn)
	record, err := repo.FindOrCreate(context.Background(), userID)
	if err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	for productID, qty := range lines {
		if err := repo.AddItemQty(context.Background(), record.ID, productID, qty); err != nil {
			t.Fatalf("seed cart item: %v", err)
		}
	}
}

func productStock(t *testing.T, conn *gorm.DB, productID uuid.UUID) int {
	t.Helper()
	var row models.Product
	if err := conn.First(&row, "id = ?", productID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	return row.Stock
}

func TestCheckoutEmptyCart(t *testing.T) {
	conn := openTestDB(t)
	svc := buildTestService(t, conn)
	ctx := context.Background()

	_, err := svc.Checkout(ctx, uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if typed.Error() != "Cart is empty" {
		t.Fatalf("expected cart-is-empty message, got %q", typed.Error())
	}

	// A cart row with no items behaves the same.
	userID := uuid.New()
	seedCartWith(t, conn, userID, nil)
	_, err = svc.Checkout(ctx, userID)
	if typed := pkgerrors.As(err); typed == nil || typed.Error() != "Cart is empty" {
		t.Fatalf("expected cart-is-empty for itemless cart, got %v", err)
	}
}

func TestCheckoutSnapshotsAndDecrementsStock(t *testing.T) {
	conn := openTestDB(t)
	svc := buildTestService(t, conn)
	ctx := context.Background()

	userID := uuid.New()
	widget := seedProduct(t, conn, "Widget", 1000, 5)
	seedCartWith(t, conn, userID, map[uuid.UUID]int{widget.ID: 3})

	order, err := svc.Checkout(ctx, userID)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending order, got %s", order.Status)
	}
	if order.TotalCents != 3000 {
		t.Fatalf("expected total 3000, got %d", order.TotalCents)
	}
	if len(order.Items) != 1 || order.Items[0].Qty != 3 || order.Items[0].UnitPriceCents != 1000 {
		t.Fatalf("unexpected snapshot items %+v", order.Items)
	}
	if got := productStock(t, conn, widget.ID); got != 2 {
		t.Fatalf("expected stock 2 after checkout, got %d", got)
	}

	cartRepo := cart.NewRepository(conn)
	record, err := cartRepo.FindByUser(ctx, userID)
	if err != nil {
		t.Fatalf("reload cart: %v", err)
	}
	if len(record.Items) != 0 {
		t.Fatalf("expected cart cleared, found %d items", len(record.Items))
	}

	// Later catalog edits must not leak into the snapshot.
	if err := conn.Model(&models.Product{}).Where("id = ?", widget.ID).
		Updates(map[string]any{"title": "Renamed", "price_cents": 9999}).Error; err != nil {
		t.Fatalf("mutate product: %v", err)
	}
	reloaded, err := svc.Get(ctx, userID, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if reloaded.Items[0].Title != "Widget" || reloaded.Items[0].UnitPriceCents != 1000 {
		t.Fatalf("snapshot mutated: %+v", reloaded.Items[0])
	}
}

func TestCheckoutRejectsInactiveProduct(t *testing.T) {
	conn := openTestDB(t)
	svc := buildTestService(t, conn)
	ctx := context.Background()

	userID := uuid.New()
	widget := seedProduct(t, conn, "Widget", 1000, 5)
	if err := conn.Model(&models.Product{}).Where("id = ?", widget.ID).
		UpdateColumn("status", enums.ProductStatusDisabled).Error; err != nil {
		t.Fatalf("disable product: %v", err)
	}
	seedCartWith(t, conn, userID, map[uuid.UUID]int{widget.ID: 1})

	_, err := svc.Checkout(ctx, userID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Error() != "Product not available: Widget" {
		t.Fatalf("expected product-not-available, got %v", err)
	}
}

func TestCheckoutInsufficientStockRollsBack(t *testing.T) {
	conn := openTestDB(t)
	svc := buildTestService(t, conn)
	ctx := context.Background()

	userID := uuid.New()
	widget := seedProduct(t, conn, "Widget", 1000, 10)
	gadget := seedProduct(t, conn, "Gadget", 500, 1)
	seedCartWith(t, conn, userID, map[uuid.UUID]int{
		widget.ID: 2,
		gadget.ID: 5,
	})

	_, err := svc.Checkout(ctx, userID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Error() != "Not enough stock for: Gadget" {
		t.Fatalf("expected not-enough-stock, got %v", err)
	}

	// The whole transaction rolls back: no partial decrement, no order,
	// cart untouched.
	if got := productStock(t, conn, widget.ID); got != 10 {
		t.Fatalf("expected widget stock restored to 10, got %d", got)
	}
	var orderCount int64
	if err := conn.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("expected no order rows, found %d", orderCount)
	}
	record, err := cart.NewRepository(conn).FindByUser(ctx, userID)
	if err != nil {
		t.Fatalf("reload cart: %v", err)
	}
	if len(record.Items) != 2 {
		t.Fatalf("expected cart preserved, found %d items", len(record.Items))
	}
}

func TestCancelOnlyPendingOrders(t *testing.T) {
	conn := openTestDB(t)
	svc := buildTestService(t, conn)
	ctx := context.Background()

	userID := uuid.New()
	widget := seedProduct(t, conn, "Widget", 1000, 5)
	seedCartWith(t, conn, userID, map[uuid.UUID]int{widget.ID: 2})

	order, err := svc.Checkout(ctx, userID)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	cancelled, err := svc.Cancel(ctx, userID, order.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	// Cancelling does not restore stock.
	if got := productStock(t, conn, widget.ID); got != 3 {
		t.Fatalf("expected stock to stay at 3, got %d", got)
	}

	_, err = svc.Cancel(ctx, userID, order.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict on second cancel, got %v", err)
	}
}

func TestCancelHidesForeignOrders(t *testing.T) {
	conn := openTestDB(t)
	svc := buildTestService(t, conn)
	ctx := context.Background()

	userID := uuid.New()
	widget := seedProduct(t, conn, "Widget", 1000, 5)
	seedCartWith(t, conn, userID, map[uuid.UUID]int{widget.ID: 1})
	order, err := svc.Checkout(ctx, userID)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	_, err = svc.Cancel(ctx, uuid.New(), order.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for foreign caller, got %v", err)
	}
}

func TestMarkPaidAndRevenueSum(t *testing.T) {
	conn := openTestDB(t)
	svc := buildTestService(t, conn)
	ctx := context.Background()

	userID := uuid.New()
	widget := seedProduct(t, conn, "Widget", 1000, 10)

	seedCartWith(t, conn, userID, map[uuid.UUID]int{widget.ID: 2})
	first, err := svc.Checkout(ctx, userID)
	if err != nil {
		t.Fatalf("first checkout: %v", err)
	}
	seedCartWith(t, conn, userID, map[uuid.UUID]int{widget.ID: 3})
	if _, err := svc.Checkout(ctx, userID); err != nil {
		t.Fatalf("second checkout: %v", err)
	}

	paid, err := svc.MarkPaid(ctx, userID, first.ID)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.Status != enums.OrderStatusPaid {
		t.Fatalf("expected paid, got %s", paid.Status)
	}

	repo := NewRepository(conn)
	sum, err := repo.SumTotalCentsByStatus(ctx, enums.OrderStatusPaid)
	if err != nil {
		t.Fatalf("sum revenue: %v", err)
	}
	if sum != 2000 {
		t.Fatalf("expected paid revenue 2000, got %d", sum)
	}
}

func TestListMineNewestFirst(t *testing.T) {
	conn := openTestDB(t)
	svc := buildTestService(t, conn)
	ctx := context.Background()

	userID := uuid.New()
	widget := seedProduct(t, conn, "Widget", 1000, 10)

	seedCartWith(t, conn, userID, map[uuid.UUID]int{widget.ID: 1})
	if _, err := svc.Checkout(ctx, userID); err != nil {
		t.Fatalf("first checkout: %v", err)
	}
	seedCartWith(t, conn, userID, map[uuid.UUID]int{widget.ID: 2})
	second, err := svc.Checkout(ctx, userID)
	if err != nil {
		t.Fatalf("second checkout: %v", err)
	}

	mine, err := svc.ListMine(ctx, userID)
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(mine))
	}
	if mine[0].ID != second.ID {
		t.Fatalf("expected newest order first")
	}

	other, err := svc.ListMine(ctx, uuid.New())
	if err != nil {
		t.Fatalf("list other: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no orders for other user, got %d", len(other))
	}
}
