package models

import (
	"time"

	"github.com/google/uuid"
)

// Категории одежды. Фиксированный enum, совпадает с типом clothing_category в базе.
const (
	CategoryShirt       = "Shirt"
	CategoryPants       = "Pants"
	CategoryShoes       = "Shoes"
	CategoryOuterwear   = "Outerwear"
	CategoryAccessories = "Accessories"
)

// Categories перечисляет все допустимые категории.
var Categories = []string{
	CategoryShirt,
	CategoryPants,
	CategoryShoes,
	CategoryOuterwear,
	CategoryAccessories,
}

// IsValidCategory проверяет, что категория входит в фиксированный список.
func IsValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// ClothingItem описывает вещь в гардеробе пользователя.
type ClothingItem struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Size      *string   `db:"size" json:"size,omitempty"`
	Color     *string   `db:"color" json:"color,omitempty"`
	Style     *string   `db:"style" json:"style,omitempty"`
	Brand     *string   `db:"brand" json:"brand,omitempty"`
	Tag       *string   `db:"tag" json:"tag,omitempty"`
	Category  string    `db:"category" json:"category"`
	ImageURL  *string   `db:"image_url" json:"image_url,omitempty"`
	Worn      bool      `db:"worn" json:"worn"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ItemFilter задаёт фильтр по точному совпадению значений полей.
// Пустой список по полю означает отсутствие ограничения.
type ItemFilter struct {
	Category []string `json:"category"`
	Brand    []string `json:"brand"`
	Size     []string `json:"size"`
	Color    []string `json:"color"`
	Tag      []string `json:"tag"`
}
