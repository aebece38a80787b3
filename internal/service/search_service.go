package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/wardrobe-backend/internal/models"
	"github.com/ignatzorin/wardrobe-backend/internal/search"
	"github.com/ignatzorin/wardrobe-backend/internal/validation"
)

// Сколько ближайших записей запрашивается у индекса при поиске.
const searchTopK = 5

// SearchService отвечает за фильтрацию по полям и смысловой поиск
// по вещам и образам.
type SearchService struct {
	items   ClothingStore
	outfits OutfitStore
	index   search.Index

	// Совпадение индекса принимается, только если его дистанция
	// строго меньше порога.
	distanceThreshold float64
}

// NewSearchService создаёт сервис поиска.
func NewSearchService(items ClothingStore, outfits OutfitStore, index search.Index, distanceThreshold float64) *SearchService {
	return &SearchService{
		items:             items,
		outfits:           outfits,
		index:             index,
		distanceThreshold: distanceThreshold,
	}
}

// FilterItems возвращает вещи пользователя по точному совпадению полей.
// Списки значений объединяются через OR внутри поля и через AND между
// полями; пустой фильтр возвращает весь гардероб.
func (s *SearchService) FilterItems(ctx context.Context, userID uuid.UUID, filter models.ItemFilter) ([]models.ClothingItem, error) {
	return s.items.FilterByFields(ctx, userID, filter)
}

// UniqueValues возвращает различные значения поля среди вещей пользователя.
func (s *SearchService) UniqueValues(ctx context.Context, userID uuid.UUID, field string) ([]string, error) {
	return s.items.DistinctValues(ctx, userID, field)
}

// SearchItems ищет вещи пользователя по свободному тексту: сначала по
// смысловой близости через индекс, затем лексическим проходом по
// оставшимся вещам. Результат без дубликатов, совпадения индекса идут
// первыми в порядке его ранжирования.
func (s *SearchService) SearchItems(ctx context.Context, userID uuid.UUID, query string) ([]models.ClothingItem, error) {
	if err := validation.ValidateSearchQuery(query); err != nil {
		return nil, fmt.Errorf("search service: %w", err)
	}

	owned, err := s.items.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	ownedByID := make(map[uuid.UUID]*models.ClothingItem, len(owned))
	for i := range owned {
		ownedByID[owned[i].ID] = &owned[i]
	}

	matches, err := s.index.Query(ctx, search.CollectionClothing, query, searchTopK)
	if err != nil {
		return nil, fmt.Errorf("search service: поиск по индексу: %w", err)
	}

	results := make([]models.ClothingItem, 0, len(matches))
	seen := make(map[uuid.UUID]bool)

	for _, match := range matches {
		if match.Distance >= s.distanceThreshold {
			continue
		}
		item, ok := ownedByID[match.ID]
		if !ok || seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		results = append(results, *item)
	}

	// Лексический проход подбирает то, что индекс не вернул.
	needle := strings.ToLower(query)
	for i := range owned {
		if seen[owned[i].ID] {
			continue
		}
		if strings.Contains(strings.ToLower(ItemSearchText(&owned[i])), needle) {
			seen[owned[i].ID] = true
			results = append(results, owned[i])
		}
	}

	return results, nil
}

// SearchOutfits ищет образы пользователя по свободному тексту, той же
// схемой, что и SearchItems: индекс с порогом дистанции, затем
// лексический проход по описаниям.
func (s *SearchService) SearchOutfits(ctx context.Context, userID uuid.UUID, query string) ([]models.Outfit, error) {
	if err := validation.ValidateSearchQuery(query); err != nil {
		return nil, fmt.Errorf("search service: %w", err)
	}

	owned, err := s.outfits.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	ownedByID := make(map[uuid.UUID]*models.Outfit, len(owned))
	for i := range owned {
		ownedByID[owned[i].ID] = &owned[i]
	}

	matches, err := s.index.Query(ctx, search.CollectionOutfits, query, searchTopK)
	if err != nil {
		return nil, fmt.Errorf("search service: поиск по индексу: %w", err)
	}

	results := make([]models.Outfit, 0, len(matches))
	seen := make(map[uuid.UUID]bool)

	for _, match := range matches {
		if match.Distance >= s.distanceThreshold {
			continue
		}
		outfit, ok := ownedByID[match.ID]
		if !ok || seen[outfit.ID] {
			continue
		}
		seen[outfit.ID] = true
		results = append(results, *outfit)
	}

	needle := strings.ToLower(query)
	for i := range owned {
		if seen[owned[i].ID] {
			continue
		}
		if strings.Contains(strings.ToLower(owned[i].Description), needle) {
			seen[owned[i].ID] = true
			results = append(results, owned[i])
		}
	}

	return results, nil
}
