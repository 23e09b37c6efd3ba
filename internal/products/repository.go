package product

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoplane/backend/pkg/db/models"
	"github.com/shoplane/backend/pkg/enums"
)

// Repository wires together product and product image persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// FindByID loads a product with its gallery ordered by position.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&product, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateScoped applies the column updates to the product. When sellerID is
// non-nil the update is scoped to rows owned by that seller, so a foreign
// product and a missing product are indistinguishable (zero rows).
func (r *Repository) UpdateScoped(ctx context.Context, productID uuid.UUID, sellerID *uuid.UUID, updates map[string]any) (int64, error) {
	qb := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID)
	if sellerID != nil {
		qb = qb.Where("seller_id = ?", *sellerID)
	}
	res := qb.Updates(updates)
	return res.RowsAffected, res.Error
}

// DeleteScoped removes the product and its image rows under the same
// ownership scoping as UpdateScoped.
func (r *Repository) DeleteScoped(ctx context.Context, productID uuid.UUID, sellerID *uuid.UUID) (int64, error) {
	qb := r.db.WithContext(ctx).Where("id = ?", productID)
	if sellerID != nil {
		qb = qb.Where("seller_id = ?", *sellerID)
	}
	res := qb.Delete(&models.Product{})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, nil
	}
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&models.ProductImage{}).Error; err != nil {
		return res.RowsAffected, err
	}
	return res.RowsAffected, nil
}

// ListActive returns every active product, newest first.
func (r *Repository) ListActive(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("status = ?", enums.ProductStatusActive).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// ListBySeller returns the seller's products regardless of status.
func (r *Repository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// ListAll returns every product regardless of status, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// ListActiveBySellerExcluding returns up to limit active products from the
// seller, newest first, excluding the given product.
func (r *Repository) ListActiveBySellerExcluding(ctx context.Context, sellerID, excludeID uuid.UUID, limit int) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("seller_id = ? AND status = ? AND id <> ?", sellerID, enums.ProductStatusActive, excludeID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).
		Error
	return rows, err
}

// ListActiveInPriceBand returns active products priced within the band
// around priceCents, excluding the listed IDs, newest first.
func (r *Repository) ListActiveInPriceBand(ctx context.Context, priceCents, bandCents int, exclude []uuid.UUID, limit int) ([]models.Product, error) {
	var rows []models.Product
	qb := r.db.WithContext(ctx).
		Where("status = ?", enums.ProductStatusActive).
		Where("price_cents BETWEEN ? AND ?", priceCents-bandCents, priceCents+bandCents)
	if len(exclude) > 0 {
		qb = qb.Where("id NOT IN ?", exclude)
	}
	err := qb.Order("created_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// DecrementStock atomically takes qty units off the product's stock.
// Returns zero rows when the product lacks sufficient stock, leaving the
// row untouched.
func (r *Repository) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	return res.RowsAffected, res.Error
}

// AddImages appends gallery rows for a product.
func (r *Repository) AddImages(ctx context.Context, images []models.ProductImage) error {
	if len(images) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&images).Error
}

// CountImages returns the number of gallery rows for a product.
func (r *Repository) CountImages(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProductImage{}).
		Where("product_id = ?", productID).
		Count(&count).
		Error
	return count, err
}

// SetMainImageIfEmpty promotes the URL to the product's main image when no
// main image is set yet.
func (r *Repository) SetMainImageIfEmpty(ctx context.Context, productID uuid.UUID, url string) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND main_image IS NULL", productID).
		UpdateColumn("main_image", url).
		Error
}

// SetMainImage overwrites the product's main image unconditionally.
func (r *Repository) SetMainImage(ctx context.Context, productID uuid.UUID, url string) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("main_image", url).
		Error
}

// Count returns the total number of products.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&count).Error
	return count, err
}
