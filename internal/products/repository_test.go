package product

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shoplane/backend/pkg/db/models"
	"github.com/shoplane/backend/pkg/enums"
)

func TestUpdateScopedIgnoresForeignSeller(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := uuid.New()
	product := mustCreateTestProduct(t, db, owner)

	stranger := uuid.New()
	affected, err := repo.UpdateScoped(ctx, product.ID, &stranger, map[string]any{"title": "hijacked"})
	if err != nil {
		t.Fatalf("update scoped: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected zero rows for foreign seller, got %d", affected)
	}

	affected, err = repo.UpdateScoped(ctx, product.ID, &owner, map[string]any{"title": "renamed"})
	if err != nil {
		t.Fatalf("update scoped owner: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected one row for owner, got %d", affected)
	}

	reloaded, err := repo.FindByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Title != "renamed" {
		t.Fatalf("expected renamed title, got %q", reloaded.Title)
	}
}

func TestDeleteScopedRemovesGallery(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := uuid.New()
	product := mustCreateTestProduct(t, db, owner)
	if err := repo.AddImages(ctx, []models.ProductImage{
		{ID: uuid.New(), ProductID: product.ID, URL: "/uploads/a.png", Position: 0},
		{ID: uuid.New(), ProductID: product.ID, URL: "/uploads/b.png", Position: 1},
	}); err != nil {
		t.Fatalf("add images: %v", err)
	}

	affected, err := repo.DeleteScoped(ctx, product.ID, &owner)
	if err != nil {
		t.Fatalf("delete scoped: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected one deleted row, got %d", affected)
	}

	count, err := repo.CountImages(ctx, product.ID)
	if err != nil {
		t.Fatalf("count images: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected gallery rows removed, found %d", count)
	}
}

func TestListActiveOrdersNewestFirstAndSkipsDisabled(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seller := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	older := mustCreateTestProduct(t, db, seller, withCreatedAt(base))
	newer := mustCreateTestProduct(t, db, seller, withCreatedAt(base.Add(10*time.Minute)))
	mustCreateTestProduct(t, db, seller, withStatus(enums.ProductStatusDisabled))

	rows, err := repo.ListActive(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 active products, got %d", len(rows))
	}
	if rows[0].ID != newer.ID || rows[1].ID != older.ID {
		t.Fatalf("expected newest-first ordering")
	}
}

func TestListActiveInPriceBandExcludesIDs(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seller := uuid.New()
	inBand := mustCreateTestProduct(t, db, seller, withPrice(150000))
	excluded := mustCreateTestProduct(t, db, seller, withPrice(120000))
	mustCreateTestProduct(t, db, seller, withPrice(999000))

	rows, err := repo.ListActiveInPriceBand(ctx, 100000, 200000, []uuid.UUID{excluded.ID}, 6)
	if err != nil {
		t.Fatalf("list in band: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != inBand.ID {
		t.Fatalf("expected only the in-band product, got %d rows", len(rows))
	}
}

func TestSetMainImageIfEmptyDoesNotOverwrite(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := mustCreateTestProduct(t, db, uuid.New())

	if err := repo.SetMainImageIfEmpty(ctx, product.ID, "/uploads/first.png"); err != nil {
		t.Fatalf("set main image: %v", err)
	}
	if err := repo.SetMainImageIfEmpty(ctx, product.ID, "/uploads/second.png"); err != nil {
		t.Fatalf("set main image again: %v", err)
	}

	reloaded, err := repo.FindByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.MainImage == nil || *reloaded.MainImage != "/uploads/first.png" {
		t.Fatalf("expected first image to stick, got %v", reloaded.MainImage)
	}
}
