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

// ErrItemNotFound возвращается, когда вещь не найдена.
var ErrItemNotFound = errors.New("clothing item not found")

// ErrInvalidField возвращается при запросе по неизвестному полю.
var ErrInvalidField = errors.New("invalid field")

// Поля, по которым разрешены фильтрация и выборка уникальных значений.
var filterableItemFields = map[string]bool{
	"category": true,
	"brand":    true,
	"size":     true,
	"color":    true,
	"style":    true,
	"tag":      true,
}

// ClothingRepository отвечает за работу с таблицей clothing_items.
type ClothingRepository struct {
	db *sqlx.DB
}

// NewClothingRepository создаёт новый экземпляр.
func NewClothingRepository(db *sqlx.DB) *ClothingRepository {
	return &ClothingRepository{db: db}
}

// Create сохраняет новую вещь.
func (r *ClothingRepository) Create(ctx context.Context, item *models.ClothingItem) error {
	query := `
		INSERT INTO clothing_items (user_id, name, size, color, style, brand, tag, category, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, worn, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		item.UserID, item.Name, item.Size, item.Color, item.Style, item.Brand, item.Tag, item.Category, item.ImageURL,
	).Scan(&item.ID, &item.Worn, &item.CreatedAt); err != nil {
		return fmt.Errorf("clothing repository: create %w", err)
	}

	return nil
}

// GetByID возвращает вещь по идентификатору.
func (r *ClothingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ClothingItem, error) {
	var item models.ClothingItem
	query := `
		SELECT id, user_id, name, size, color, style, brand, tag, category, image_url, worn, created_at
		FROM clothing_items
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("clothing repository: get by id %w", err)
	}

	return &item, nil
}

// ListByUser возвращает все вещи пользователя.
func (r *ClothingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ClothingItem, error) {
	query := `
		SELECT id, user_id, name, size, color, style, brand, tag, category, image_url, worn, created_at
		FROM clothing_items
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	var items []models.ClothingItem
	if err := r.db.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, fmt.Errorf("clothing repository: list by user %w", err)
	}

	return items, nil
}

// Update обновляет редактируемые поля вещи.
func (r *ClothingRepository) Update(ctx context.Context, item *models.ClothingItem) error {
	query := `
		UPDATE clothing_items
		SET name = $1, size = $2, color = $3, style = $4, brand = $5, tag = $6, category = $7
		WHERE id = $8 AND user_id = $9
	`

	result, err := r.db.ExecContext(
		ctx, query,
		item.Name, item.Size, item.Color, item.Style, item.Brand, item.Tag, item.Category,
		item.ID, item.UserID,
	)
	if err != nil {
		return fmt.Errorf("clothing repository: update %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("clothing repository: update %w", err)
	}
	if affected == 0 {
		return ErrItemNotFound
	}

	return nil
}

// Delete удаляет вещь пользователя.
func (r *ClothingRepository) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM clothing_items WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("clothing repository: delete %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("clothing repository: delete %w", err)
	}
	if affected == 0 {
		return ErrItemNotFound
	}

	return nil
}

// MarkWorn помечает вещь как ношеную. Повторная пометка — no-op.
func (r *ClothingRepository) MarkWorn(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE clothing_items SET worn = TRUE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("clothing repository: mark worn %w", err)
	}

	return nil
}

// FilterByFields возвращает вещи пользователя, подходящие под фильтр.
// Между полями действует AND, внутри списка значений одного поля — OR.
func (r *ClothingRepository) FilterByFields(ctx context.Context, userID uuid.UUID, filter models.ItemFilter) ([]models.ClothingItem, error) {
	query := `
		SELECT id, user_id, name, size, color, style, brand, tag, category, image_url, worn, created_at
		FROM clothing_items
		WHERE user_id = $1
	`
	args := []interface{}{userID}
	argIndex := 2

	addClause := func(field string, values []string) {
		if len(values) == 0 {
			return
		}
		if field == "category" {
			// enum-колонка сравнивается с текстом через приведение
			query += fmt.Sprintf(" AND category::text = ANY($%d)", argIndex)
		} else {
			query += fmt.Sprintf(" AND %s = ANY($%d)", field, argIndex)
		}
		args = append(args, pq.Array(values))
		argIndex++
	}

	addClause("category", filter.Category)
	addClause("brand", filter.Brand)
	addClause("size", filter.Size)
	addClause("color", filter.Color)
	addClause("tag", filter.Tag)

	query += " ORDER BY created_at DESC"

	var items []models.ClothingItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("clothing repository: filter by fields %w", err)
	}

	return items, nil
}

// DistinctValues возвращает уникальные значения поля среди вещей пользователя.
func (r *ClothingRepository) DistinctValues(ctx context.Context, userID uuid.UUID, field string) ([]string, error) {
	if !filterableItemFields[field] {
		return nil, fmt.Errorf("clothing repository: поле %q: %w", field, ErrInvalidField)
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT %s::text
		FROM clothing_items
		WHERE user_id = $1 AND %s IS NOT NULL
		ORDER BY 1
	`, field, field)

	var values []string
	if err := r.db.SelectContext(ctx, &values, query, userID); err != nil {
		return nil, fmt.Errorf("clothing repository: distinct values %w", err)
	}

	return values, nil
}
