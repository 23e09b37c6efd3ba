package product

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoplane/backend/pkg/db/models"
	"github.com/shoplane/backend/pkg/enums"
)

func mustCreateTestProduct(t *testing.T, tx *gorm.DB, sellerID uuid.UUID, mutate ...func(*models.Product)) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:         uuid.New(),
		SellerID:   sellerID,
		Title:      "Test Product",
		PriceCents: 1000,
		Stock:      5,
		Status:     enums.ProductStatusActive,
		CreatedAt:  time.Now().UTC(),
	}
	for _, fn := range mutate {
		fn(product)
	}
	if err := tx.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func withCreatedAt(at time.Time) func(*models.Product) {
	return func(p *models.Product) {
		p.CreatedAt = at
	}
}

func withPrice(cents int) func(*models.Product) {
	return func(p *models.Product) {
		p.PriceCents = cents
	}
}

func withStatus(status enums.ProductStatus) func(*models.Product) {
	return func(p *models.Product) {
		p.Status = status
	}
}
