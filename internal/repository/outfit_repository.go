package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/wardrobe-backend/internal/models"
	"github.com/ignatzorin/wardrobe-backend/internal/repository/common"
)

// Ошибки уровня репозитория.
var (
	ErrOutfitNotFound      = errors.New("outfit not found")
	ErrWearHistoryNotFound = errors.New("wear history record not found")
)

// OutfitRepository отвечает за работу с образами, их составом и историей носки.
type OutfitRepository struct {
	db *sqlx.DB
}

// NewOutfitRepository создаёт новый экземпляр.
func NewOutfitRepository(db *sqlx.DB) *OutfitRepository {
	return &OutfitRepository{db: db}
}

// CreateWithItems создаёт образ вместе со связями outfit_items одной транзакцией.
// Частично созданный образ (без части связей) невозможен.
func (r *OutfitRepository) CreateWithItems(ctx context.Context, outfit *models.Outfit, itemIDs []uuid.UUID) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO outfits (user_id, description, image_url)
			VALUES ($1, $2, $3)
			RETURNING id, created_at
		`
		if err := tx.QueryRowxContext(
			ctx, query,
			outfit.UserID, outfit.Description, outfit.ImageURL,
		).Scan(&outfit.ID, &outfit.CreatedAt); err != nil {
			return fmt.Errorf("outfit repository: create %w", err)
		}

		if len(itemIDs) == 0 {
			return nil
		}

		inserter := common.NewBatchInserter(tx, `INSERT INTO outfit_items (outfit_id, clothing_item_id)`, 2, 100)
		for _, itemID := range itemIDs {
			if err := inserter.Add(ctx, outfit.ID, itemID); err != nil {
				return fmt.Errorf("outfit repository: add item link %w", err)
			}
		}
		if err := inserter.Flush(ctx); err != nil {
			return fmt.Errorf("outfit repository: flush item links %w", err)
		}

		return nil
	})
}

// GetByID возвращает образ по идентификатору.
func (r *OutfitRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Outfit, error) {
	var outfit models.Outfit
	query := `
		SELECT id, user_id, description, image_url, created_at
		FROM outfits
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &outfit, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOutfitNotFound
		}
		return nil, fmt.Errorf("outfit repository: get by id %w", err)
	}

	return &outfit, nil
}

// GetByIDWithItems возвращает образ вместе с его вещами.
func (r *OutfitRepository) GetByIDWithItems(ctx context.Context, id uuid.UUID) (*models.Outfit, error) {
	outfit, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	items, err := r.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	outfit.Items = items

	return outfit, nil
}

// ListItems возвращает вещи, входящие в образ.
func (r *OutfitRepository) ListItems(ctx context.Context, outfitID uuid.UUID) ([]models.ClothingItem, error) {
	query := `
		SELECT ci.id, ci.user_id, ci.name, ci.size, ci.color, ci.style, ci.brand, ci.tag, ci.category, ci.image_url, ci.worn, ci.created_at
		FROM clothing_items ci
		JOIN outfit_items oi ON oi.clothing_item_id = ci.id
		WHERE oi.outfit_id = $1
	`

	var items []models.ClothingItem
	if err := r.db.SelectContext(ctx, &items, query, outfitID); err != nil {
		return nil, fmt.Errorf("outfit repository: list items %w", err)
	}

	return items, nil
}

// ListByUser возвращает все образы пользователя.
func (r *OutfitRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Outfit, error) {
	query := `
		SELECT id, user_id, description, image_url, created_at
		FROM outfits
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	var outfits []models.Outfit
	if err := r.db.SelectContext(ctx, &outfits, query, userID); err != nil {
		return nil, fmt.Errorf("outfit repository: list by user %w", err)
	}

	return outfits, nil
}

// UpdateDescription обновляет описание образа.
func (r *OutfitRepository) UpdateDescription(ctx context.Context, id uuid.UUID, userID uuid.UUID, description string) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE outfits SET description = $1 WHERE id = $2 AND user_id = $3`,
		description, id, userID,
	)
	if err != nil {
		return fmt.Errorf("outfit repository: update description %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("outfit repository: update description %w", err)
	}
	if affected == 0 {
		return ErrOutfitNotFound
	}

	return nil
}

// Delete удаляет образ пользователя. Связи outfit_items и история носки
// удаляются каскадом на уровне базы.
func (r *OutfitRepository) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM outfits WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("outfit repository: delete %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("outfit repository: delete %w", err)
	}
	if affected == 0 {
		return ErrOutfitNotFound
	}

	return nil
}

// CreateWearRecord фиксирует носку образа.
func (r *OutfitRepository) CreateWearRecord(ctx context.Context, record *models.OutfitWearHistory) error {
	query := `
		INSERT INTO outfit_wear_history (outfit_id, user_id, worn_on)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		record.OutfitID, record.UserID, record.WornOn,
	).Scan(&record.ID, &record.CreatedAt); err != nil {
		return fmt.Errorf("outfit repository: create wear record %w", err)
	}

	return nil
}

// ListWearHistory возвращает историю носки пользователя.
func (r *OutfitRepository) ListWearHistory(ctx context.Context, userID uuid.UUID) ([]models.OutfitWearHistory, error) {
	query := `
		SELECT id, outfit_id, user_id, worn_on, created_at
		FROM outfit_wear_history
		WHERE user_id = $1
		ORDER BY worn_on DESC, created_at DESC
	`

	var records []models.OutfitWearHistory
	if err := r.db.SelectContext(ctx, &records, query, userID); err != nil {
		return nil, fmt.Errorf("outfit repository: list wear history %w", err)
	}

	return records, nil
}

// GetWearRecord возвращает запись истории носки.
func (r *OutfitRepository) GetWearRecord(ctx context.Context, id uuid.UUID) (*models.OutfitWearHistory, error) {
	var record models.OutfitWearHistory
	query := `
		SELECT id, outfit_id, user_id, worn_on, created_at
		FROM outfit_wear_history
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWearHistoryNotFound
		}
		return nil, fmt.Errorf("outfit repository: get wear record %w", err)
	}

	return &record, nil
}

// DeleteWearRecord удаляет запись истории носки.
func (r *OutfitRepository) DeleteWearRecord(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM outfit_wear_history WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("outfit repository: delete wear record %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("outfit repository: delete wear record %w", err)
	}
	if affected == 0 {
		return ErrWearHistoryNotFound
	}

	return nil
}
