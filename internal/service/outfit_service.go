package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/wardrobe-backend/internal/ai"
	"github.com/ignatzorin/wardrobe-backend/internal/goroutine"
	"github.com/ignatzorin/wardrobe-backend/internal/logger"
	"github.com/ignatzorin/wardrobe-backend/internal/models"
	"github.com/ignatzorin/wardrobe-backend/internal/repository"
	"github.com/ignatzorin/wardrobe-backend/internal/search"
)

// Сколько ближайших кандидатов индекса рассматривается на один
// распознанный предмет при сборке образа.
const matchCandidates = 3

// OutfitStore описывает зависимости от репозитория образов.
type OutfitStore interface {
	CreateWithItems(ctx context.Context, outfit *models.Outfit, itemIDs []uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Outfit, error)
	GetByIDWithItems(ctx context.Context, id uuid.UUID) (*models.Outfit, error)
	ListItems(ctx context.Context, outfitID uuid.UUID) ([]models.ClothingItem, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Outfit, error)
	UpdateDescription(ctx context.Context, id uuid.UUID, userID uuid.UUID, description string) error
	Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	CreateWearRecord(ctx context.Context, record *models.OutfitWearHistory) error
	ListWearHistory(ctx context.Context, userID uuid.UUID) ([]models.OutfitWearHistory, error)
	GetWearRecord(ctx context.Context, id uuid.UUID) (*models.OutfitWearHistory, error)
	DeleteWearRecord(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
}

// OutfitService собирает образы из фотографий: распознаёт предметы,
// сопоставляет их с гардеробом пользователя и сохраняет результат.
type OutfitService struct {
	outfits   OutfitStore
	items     ClothingStore
	extractor Extractor
	index     search.Index
	photos    PhotoStore
}

// NewOutfitService создаёт сервис образов.
func NewOutfitService(outfits OutfitStore, items ClothingStore, extractor Extractor, index search.Index, photos PhotoStore) *OutfitService {
	return &OutfitService{
		outfits:   outfits,
		items:     items,
		extractor: extractor,
		index:     index,
		photos:    photos,
	}
}

// UploadOutfit обрабатывает фотографию образа: распознаёт предметы,
// находит среди них вещи пользователя и создаёт образ со связями.
// Возвращает созданный образ и идентификаторы сопоставленных вещей.
func (s *OutfitService) UploadOutfit(ctx context.Context, userID uuid.UUID, originalName, contentType string, r io.Reader) (*models.Outfit, []uuid.UUID, error) {
	key, _, err := s.photos.Save(ctx, userID, originalName, contentType, r)
	if err != nil {
		return nil, nil, err
	}

	imageURL := s.photos.PublicURL(key)

	visionURL, err := s.photos.PresignedURL(ctx, key, 15*time.Minute)
	if err != nil {
		visionURL = imageURL
	}

	// Оба вызова модели независимы, выполняем их параллельно. Ошибка
	// любого из них отменяет всю операцию до какой-либо записи.
	var (
		wg             sync.WaitGroup
		descriptors    []ai.ItemDescriptor
		description    string
		extractErr     error
		descriptionErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		descriptors, extractErr = s.extractor.ExtractItems(ctx, visionURL)
	}()
	go func() {
		defer wg.Done()
		description, descriptionErr = s.extractor.DescribeOutfit(ctx, visionURL)
	}()
	wg.Wait()

	if extractErr != nil {
		return nil, nil, fmt.Errorf("outfit service: не удалось распознать вещи на фотографии: %w", extractErr)
	}
	if descriptionErr != nil {
		return nil, nil, fmt.Errorf("outfit service: не удалось описать образ: %w", descriptionErr)
	}

	matchedIDs, err := s.matchDescriptors(ctx, userID, descriptors)
	if err != nil {
		return nil, nil, err
	}

	outfit := &models.Outfit{
		UserID:      userID,
		Description: description,
		ImageURL:    &imageURL,
	}

	if err := s.outfits.CreateWithItems(ctx, outfit, matchedIDs); err != nil {
		return nil, nil, err
	}

	// Пометка ношености и индексация идут после коммита; их сбой не
	// откатывает созданный образ.
	for _, itemID := range matchedIDs {
		if err := s.items.MarkWorn(ctx, itemID); err != nil {
			return outfit, matchedIDs, fmt.Errorf("outfit service: пометка ношености: %w", err)
		}
	}

	if err := s.index.Add(ctx, search.CollectionOutfits, outfit.ID, description); err != nil {
		return outfit, matchedIDs, fmt.Errorf("outfit service: индексация образа: %w", err)
	}

	items, err := s.outfits.ListItems(ctx, outfit.ID)
	if err == nil {
		outfit.Items = items
	}

	return outfit, matchedIDs, nil
}

// matchDescriptors сопоставляет распознанные предметы с вещами
// пользователя. На каждый дескриптор принимается не больше одного
// совпадения: первый кандидат в порядке ранжирования индекса, который
// существует и принадлежит пользователю. Дескриптор без подходящих
// кандидатов просто пропускается.
func (s *OutfitService) matchDescriptors(ctx context.Context, userID uuid.UUID, descriptors []ai.ItemDescriptor) ([]uuid.UUID, error) {
	matched := make([]uuid.UUID, 0, len(descriptors))
	seen := make(map[uuid.UUID]bool)

	for _, descriptor := range descriptors {
		candidates, err := s.index.Query(ctx, search.CollectionClothing, descriptor.SearchText(), matchCandidates)
		if err != nil {
			return nil, fmt.Errorf("outfit service: поиск по индексу: %w", err)
		}

		for _, candidate := range candidates {
			item, err := s.items.GetByID(ctx, candidate.ID)
			if errors.Is(err, repository.ErrItemNotFound) {
				// Запись индекса могла пережить удалённую вещь.
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("outfit service: проверка кандидата: %w", err)
			}
			if item.UserID != userID {
				continue
			}

			if !seen[item.ID] {
				seen[item.ID] = true
				matched = append(matched, item.ID)
			}
			break
		}
	}

	return matched, nil
}

// GetOutfit возвращает образ пользователя вместе с вещами.
func (s *OutfitService) GetOutfit(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*models.Outfit, error) {
	outfit, err := s.outfits.GetByIDWithItems(ctx, id)
	if err != nil {
		return nil, err
	}
	if outfit.UserID != userID {
		return nil, repository.ErrOutfitNotFound
	}
	return outfit, nil
}

// ListOutfits возвращает все образы пользователя.
func (s *OutfitService) ListOutfits(ctx context.Context, userID uuid.UUID) ([]models.Outfit, error) {
	return s.outfits.ListByUser(ctx, userID)
}

// UpdateDescription меняет описание образа и переиндексирует его.
func (s *OutfitService) UpdateDescription(ctx context.Context, id uuid.UUID, userID uuid.UUID, description string) (*models.Outfit, error) {
	if err := s.outfits.UpdateDescription(ctx, id, userID, description); err != nil {
		return nil, err
	}

	if err := s.index.Add(ctx, search.CollectionOutfits, id, description); err != nil {
		return nil, fmt.Errorf("outfit service: переиндексация образа: %w", err)
	}

	return s.GetOutfit(ctx, id, userID)
}

// DeleteOutfit удаляет образ, его запись индекса и объект в хранилище.
func (s *OutfitService) DeleteOutfit(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	outfit, err := s.GetOutfit(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.outfits.Delete(ctx, id, userID); err != nil {
		return err
	}

	if err := s.index.Delete(ctx, search.CollectionOutfits, id); err != nil {
		return fmt.Errorf("outfit service: удаление из индекса: %w", err)
	}

	if outfit.ImageURL != nil {
		imageKey := storageKeyFromURL(*outfit.ImageURL)
		if imageKey != "" {
			goroutine.SafeGoWithContext(context.WithoutCancel(ctx), func(ctx context.Context) {
				if err := s.photos.Delete(ctx, imageKey); err != nil {
					logger.Log.WithField("key", imageKey).Warnf("outfit service: не удалось удалить объект: %v", err)
				}
			})
		}
	}

	return nil
}

// LogWear фиксирует, что пользователь носил образ в указанный день,
// и помечает ношеными все вещи образа.
func (s *OutfitService) LogWear(ctx context.Context, outfitID uuid.UUID, userID uuid.UUID, wornOn time.Time) (*models.OutfitWearHistory, error) {
	outfit, err := s.GetOutfit(ctx, outfitID, userID)
	if err != nil {
		return nil, err
	}

	record := &models.OutfitWearHistory{
		OutfitID: outfitID,
		UserID:   userID,
		WornOn:   wornOn,
	}

	if err := s.outfits.CreateWearRecord(ctx, record); err != nil {
		return nil, err
	}

	for _, item := range outfit.Items {
		if err := s.items.MarkWorn(ctx, item.ID); err != nil {
			return record, fmt.Errorf("outfit service: пометка ношености: %w", err)
		}
	}

	return record, nil
}

// ListWearHistory возвращает историю носки пользователя.
func (s *OutfitService) ListWearHistory(ctx context.Context, userID uuid.UUID) ([]models.OutfitWearHistory, error) {
	return s.outfits.ListWearHistory(ctx, userID)
}

// DeleteWearRecord удаляет запись истории носки.
func (s *OutfitService) DeleteWearRecord(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	return s.outfits.DeleteWearRecord(ctx, id, userID)
}
