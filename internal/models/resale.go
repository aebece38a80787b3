package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы листинга на перепродажу.
const (
	ListingStatusActive = "active"
	ListingStatusSold   = "sold"
	ListingStatusClosed = "closed"
)

// ResaleListing описывает выставленную на продажу вещь.
// Идентификаторы площадок сохраняются при создании: поиск товара по имени
// на стороне площадки не используется.
type ResaleListing struct {
	ID                uuid.UUID `db:"id" json:"id"`
	ClothingItemID    uuid.UUID `db:"clothing_item_id" json:"clothing_item_id"`
	UserID            uuid.UUID `db:"user_id" json:"user_id"`
	Title             string    `db:"title" json:"title"`
	Description       *string   `db:"description" json:"description,omitempty"`
	PriceCents        int64     `db:"price_cents" json:"price_cents"`
	Currency          string    `db:"currency" json:"currency"`
	Status            string    `db:"status" json:"status"`
	EbaySKU           *string   `db:"ebay_sku" json:"ebay_sku,omitempty"`
	EbayOfferID       *string   `db:"ebay_offer_id" json:"ebay_offer_id,omitempty"`
	FacebookProductID *string   `db:"facebook_product_id" json:"facebook_product_id,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}
