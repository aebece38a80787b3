package models

import (
	"time"

	"github.com/google/uuid"
)

// Outfit описывает образ, собранный из вещей пользователя.
type Outfit struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	Description string    `db:"description" json:"description"`
	ImageURL    *string   `db:"image_url" json:"image_url,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`

	// Items заполняется отдельным запросом (join-таблица outfit_items).
	Items []ClothingItem `db:"-" json:"items,omitempty"`
}

// OutfitWearHistory фиксирует факт носки образа в конкретный день.
type OutfitWearHistory struct {
	ID        uuid.UUID `db:"id" json:"id"`
	OutfitID  uuid.UUID `db:"outfit_id" json:"outfit_id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	WornOn    time.Time `db:"worn_on" json:"worn_on"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
