package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/wardrobe-backend/internal/models"
)

// Ошибки уровня репозитория.
var (
	ErrListingNotFound = errors.New("listing not found")
	ErrListingExists   = errors.New("listing already exists for this item")
)

// ListingRepository отвечает за объявления о перепродаже.
type ListingRepository struct {
	db *sqlx.DB
}

// NewListingRepository создаёт новый экземпляр.
func NewListingRepository(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// Create сохраняет объявление вместе с идентификаторами площадок,
// выданными при публикации.
func (r *ListingRepository) Create(ctx context.Context, listing *models.ResaleListing) error {
	query := `
		INSERT INTO resale_listings (user_id, clothing_item_id, title, description, price_cents, currency, status, ebay_sku, ebay_offer_id, facebook_product_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(
		ctx, query,
		listing.UserID, listing.ClothingItemID, listing.Title, listing.Description,
		listing.PriceCents, listing.Currency, listing.Status,
		listing.EbaySKU, listing.EbayOfferID, listing.FacebookProductID,
	).Scan(&listing.ID, &listing.CreatedAt, &listing.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrListingExists
		}
		return fmt.Errorf("listing repository: create %w", err)
	}

	return nil
}

// GetByID возвращает объявление по идентификатору.
func (r *ListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ResaleListing, error) {
	var listing models.ResaleListing
	query := `
		SELECT id, user_id, clothing_item_id, title, description, price_cents, currency, status, ebay_sku, ebay_offer_id, facebook_product_id, created_at, updated_at
		FROM resale_listings
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &listing, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("listing repository: get by id %w", err)
	}

	return &listing, nil
}

// GetByItem возвращает объявление для конкретной вещи.
func (r *ListingRepository) GetByItem(ctx context.Context, clothingItemID uuid.UUID) (*models.ResaleListing, error) {
	var listing models.ResaleListing
	query := `
		SELECT id, user_id, clothing_item_id, title, description, price_cents, currency, status, ebay_sku, ebay_offer_id, facebook_product_id, created_at, updated_at
		FROM resale_listings
		WHERE clothing_item_id = $1
	`
	if err := r.db.GetContext(ctx, &listing, query, clothingItemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("listing repository: get by item %w", err)
	}

	return &listing, nil
}

// ListByUser возвращает все объявления пользователя.
func (r *ListingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ResaleListing, error) {
	query := `
		SELECT id, user_id, clothing_item_id, title, description, price_cents, currency, status, ebay_sku, ebay_offer_id, facebook_product_id, created_at, updated_at
		FROM resale_listings
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	var listings []models.ResaleListing
	if err := r.db.SelectContext(ctx, &listings, query, userID); err != nil {
		return nil, fmt.Errorf("listing repository: list by user %w", err)
	}

	return listings, nil
}

// Update обновляет цену, заголовок, описание и статус объявления.
func (r *ListingRepository) Update(ctx context.Context, listing *models.ResaleListing) error {
	query := `
		UPDATE resale_listings
		SET title = $1, description = $2, price_cents = $3, status = $4, updated_at = NOW()
		WHERE id = $5 AND user_id = $6
	`
	result, err := r.db.ExecContext(
		ctx, query,
		listing.Title, listing.Description, listing.PriceCents, listing.Status,
		listing.ID, listing.UserID,
	)
	if err != nil {
		return fmt.Errorf("listing repository: update %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("listing repository: update %w", err)
	}
	if affected == 0 {
		return ErrListingNotFound
	}

	return nil
}

// Delete удаляет объявление пользователя.
func (r *ListingRepository) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM resale_listings WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("listing repository: delete %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("listing repository: delete %w", err)
	}
	if affected == 0 {
		return ErrListingNotFound
	}

	return nil
}
