package product

import (
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/shoplane/backend/pkg/db/models"
	"github.com/shoplane/backend/pkg/enums"
)

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description,omitempty"`
	PriceCents  int     `json:"price_cents" validate:"required,gt=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Title       *string              `json:"title,omitempty"`
	Description *string              `json:"description,omitempty"`
	PriceCents  *int                 `json:"price_cents,omitempty"`
	Stock       *int                 `json:"stock,omitempty"`
	Status      *enums.ProductStatus `json:"status,omitempty"`
}

// ImageUpload is one multipart file handed to the image attach path.
type ImageUpload struct {
	ContentType string
	Size        int64
	Reader      io.Reader
}

// ProductImageDTO is the transport shape of one gallery entry.
type ProductImageDTO struct {
	ID       uuid.UUID `json:"id"`
	URL      string    `json:"url"`
	Position int       `json:"position"`
}

// ProductDTO is the transport shape of a product listing.
type ProductDTO struct {
	ID          uuid.UUID           `json:"id"`
	SellerID    uuid.UUID           `json:"seller_id"`
	Title       string              `json:"title"`
	Description *string             `json:"description,omitempty"`
	PriceCents  int                 `json:"price_cents"`
	Stock       int                 `json:"stock"`
	Status      enums.ProductStatus `json:"status"`
	MainImage   *string             `json:"main_image,omitempty"`
	Images      []ProductImageDTO   `json:"images"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// FromModel maps a product row (and preloaded gallery) to its DTO.
func FromModel(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}

	images := make([]ProductImageDTO, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, ProductImageDTO{
			ID:       img.ID,
			URL:      img.URL,
			Position: img.Position,
		})
	}

	return &ProductDTO{
		ID:          p.ID,
		SellerID:    p.SellerID,
		Title:       p.Title,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		Stock:       p.Stock,
		Status:      p.Status,
		MainImage:   p.MainImage,
		Images:      images,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// FromModels maps a product slice preserving order.
func FromModels(rows []models.Product) []ProductDTO {
	dtos := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return dtos
}
