package product

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoplane/backend/pkg/config"
	"github.com/shoplane/backend/pkg/db/models"
	"github.com/shoplane/backend/pkg/enums"
	pkgerrors "github.com/shoplane/backend/pkg/errors"
)

const (
	relatedLimit          = 6
	relatedSellerMinimum  = 3
	relatedPriceBandCents = 200000
)

// Actor identifies the caller of an ownership-scoped mutation. Admin
// actors bypass the seller scope.
type Actor struct {
	ID    uuid.UUID
	Admin bool
}

// Service exposes catalog management and read operations.
type Service interface {
	Create(ctx context.Context, sellerID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, actor Actor, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, actor Actor, productID uuid.UUID) error
	Get(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	ListActive(ctx context.Context) ([]ProductDTO, error)
	ListMine(ctx context.Context, sellerID uuid.UUID) ([]ProductDTO, error)
	Related(ctx context.Context, productID uuid.UUID) ([]ProductDTO, error)
	AttachImages(ctx context.Context, actor Actor, productID uuid.UUID, files []ImageUpload) (*ProductDTO, error)
	SetImage(ctx context.Context, actor Actor, productID uuid.UUID, file ImageUpload) (*ProductDTO, error)
}

type uploader interface {
	SaveImage(contentType string, size int64, r io.Reader) (string, error)
}

type service struct {
	repo     *Repository
	uploads  uploader
	maxBatch int
}

// NewService constructs a product service instance.
func NewService(repo *Repository, uploads uploader, uploadsCfg config.UploadsConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if uploads == nil {
		return nil, fmt.Errorf("uploads store required")
	}
	maxBatch := uploadsCfg.MaxBatchFiles
	if maxBatch <= 0 {
		maxBatch = 1
	}
	return &service{
		repo:     repo,
		uploads:  uploads,
		maxBatch: maxBatch,
	}, nil
}

func (s *service) Create(ctx context.Context, sellerID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if input.PriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}

	product := &models.Product{
		ID:          uuid.New(),
		SellerID:    sellerID,
		Title:       title,
		Description: input.Description,
		PriceCents:  input.PriceCents,
		Stock:       input.Stock,
		Status:      enums.ProductStatusActive,
	}
	if _, err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return FromModel(product), nil
}

func (s *service) Update(ctx context.Context, actor Actor, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	updates, err := buildUpdates(input)
	if err != nil {
		return nil, err
	}

	affected, err := s.repo.UpdateScoped(ctx, productID, actor.sellerScope(), updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	}

	return s.Get(ctx, productID)
}

func (s *service) Delete(ctx context.Context, actor Actor, productID uuid.UUID) error {
	affected, err := s.repo.DeleteScoped(ctx, productID, actor.sellerScope())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	}
	return nil
}

func (s *service) Get(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return FromModel(product), nil
}

func (s *service) ListActive(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return FromModels(rows), nil
}

func (s *service) ListMine(ctx context.Context, sellerID uuid.UUID) ([]ProductDTO, error) {
	rows, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list seller products")
	}
	return FromModels(rows), nil
}

// Related picks up to six suggestions: the seller's other active listings
// first, then active listings in a nearby price band when the seller has
// fewer than three.
func (s *service) Related(ctx context.Context, productID uuid.UUID) ([]ProductDTO, error) {
	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	related, err := s.repo.ListActiveBySellerExcluding(ctx, product.SellerID, product.ID, relatedLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "related by seller")
	}

	if len(related) < relatedSellerMinimum {
		exclude := make([]uuid.UUID, 0, len(related)+1)
		exclude = append(exclude, product.ID)
		for _, row := range related {
			exclude = append(exclude, row.ID)
		}
		fill, err := s.repo.ListActiveInPriceBand(ctx, product.PriceCents, relatedPriceBandCents, exclude, relatedLimit-len(related))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "related by price")
		}
		related = append(related, fill...)
	}

	if len(related) > relatedLimit {
		related = related[:relatedLimit]
	}
	return FromModels(related), nil
}

func (s *service) AttachImages(ctx context.Context, actor Actor, productID uuid.UUID, files []ImageUpload) (*ProductDTO, error) {
	if len(files) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no files provided")
	}
	if len(files) > s.maxBatch {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "at most %d files per batch", s.maxBatch)
	}

	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && product.SellerID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	}

	existing, err := s.repo.CountImages(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count images")
	}

	images := make([]models.ProductImage, 0, len(files))
	for i, file := range files {
		url, err := s.uploads.SaveImage(file.ContentType, file.Size, file.Reader)
		if err != nil {
			return nil, err
		}
		images = append(images, models.ProductImage{
			ID:        uuid.New(),
			ProductID: productID,
			URL:       url,
			Position:  int(existing) + i,
		})
	}

	if err := s.repo.AddImages(ctx, images); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store images")
	}
	if product.MainImage == nil {
		if err := s.repo.SetMainImageIfEmpty(ctx, productID, images[0].URL); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set main image")
		}
	}

	return s.Get(ctx, productID)
}

// SetImage stores a single image, appends it to the gallery and promotes
// it to the main image, replacing any previous one.
func (s *service) SetImage(ctx context.Context, actor Actor, productID uuid.UUID, file ImageUpload) (*ProductDTO, error) {
	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && product.SellerID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	}

	existing, err := s.repo.CountImages(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count images")
	}

	url, err := s.uploads.SaveImage(file.ContentType, file.Size, file.Reader)
	if err != nil {
		return nil, err
	}

	image := models.ProductImage{
		ID:        uuid.New(),
		ProductID: productID,
		URL:       url,
		Position:  int(existing),
	}
	if err := s.repo.AddImages(ctx, []models.ProductImage{image}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store image")
	}
	if err := s.repo.SetMainImage(ctx, productID, url); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set main image")
	}

	return s.Get(ctx, productID)
}

func (s *service) findProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return product, nil
}

func (a Actor) sellerScope() *uuid.UUID {
	if a.Admin {
		return nil
	}
	id := a.ID
	return &id
}

func buildUpdates(input UpdateProductInput) (map[string]any, error) {
	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		updates["title"] = title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.PriceCents != nil {
		if *input.PriceCents <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		updates["price_cents"] = *input.PriceCents
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		updates["stock"] = *input.Stock
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", *input.Status)
		}
		updates["status"] = *input.Status
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}
	return updates, nil
}
