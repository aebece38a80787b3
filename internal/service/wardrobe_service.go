package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/wardrobe-backend/internal/ai"
	"github.com/ignatzorin/wardrobe-backend/internal/goroutine"
	"github.com/ignatzorin/wardrobe-backend/internal/logger"
	"github.com/ignatzorin/wardrobe-backend/internal/models"
	"github.com/ignatzorin/wardrobe-backend/internal/repository"
	"github.com/ignatzorin/wardrobe-backend/internal/search"
	"github.com/ignatzorin/wardrobe-backend/internal/validation"
)

// ClothingStore описывает зависимости от репозитория вещей.
type ClothingStore interface {
	Create(ctx context.Context, item *models.ClothingItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ClothingItem, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ClothingItem, error)
	Update(ctx context.Context, item *models.ClothingItem) error
	Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	MarkWorn(ctx context.Context, id uuid.UUID) error
	FilterByFields(ctx context.Context, userID uuid.UUID, filter models.ItemFilter) ([]models.ClothingItem, error)
	DistinctValues(ctx context.Context, userID uuid.UUID, field string) ([]string, error)
}

// Extractor описывает vision-модель, распознающую одежду на фотографиях.
type Extractor interface {
	ExtractItems(ctx context.Context, imageURL string) ([]ai.ItemDescriptor, error)
	DescribeOutfit(ctx context.Context, imageURL string) (string, error)
}

// PhotoStore описывает объектное хранилище изображений.
type PhotoStore interface {
	Save(ctx context.Context, userID uuid.UUID, originalName, contentType string, r io.Reader) (string, int64, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// WardrobeService инкапсулирует работу с вещами гардероба: загрузку
// фотографий, распознавание и CRUD с поддержанием похожестного индекса.
type WardrobeService struct {
	items     ClothingStore
	extractor Extractor
	index     search.Index
	photos    PhotoStore
}

// NewWardrobeService создаёт сервис гардероба.
func NewWardrobeService(items ClothingStore, extractor Extractor, index search.Index, photos PhotoStore) *WardrobeService {
	return &WardrobeService{
		items:     items,
		extractor: extractor,
		index:     index,
		photos:    photos,
	}
}

// ItemInput содержит поля вещи при ручном создании или редактировании.
type ItemInput struct {
	Name     string
	Size     *string
	Color    *string
	Style    *string
	Brand    *string
	Tag      *string
	Category string
}

// UploadImage сохраняет фотографию, распознаёт на ней вещи и заводит
// каждую распознанную вещь в гардеробе вместе с записью индекса.
func (s *WardrobeService) UploadImage(ctx context.Context, userID uuid.UUID, originalName, contentType string, r io.Reader) ([]models.ClothingItem, error) {
	key, _, err := s.photos.Save(ctx, userID, originalName, contentType, r)
	if err != nil {
		return nil, err
	}

	imageURL := s.photos.PublicURL(key)

	// Vision-модель читает изображение по подписанному URL, чтобы
	// работать и с закрытым бакетом.
	visionURL, err := s.photos.PresignedURL(ctx, key, 15*time.Minute)
	if err != nil {
		visionURL = imageURL
	}

	descriptors, err := s.extractor.ExtractItems(ctx, visionURL)
	if err != nil {
		return nil, fmt.Errorf("wardrobe service: не удалось распознать вещи на фотографии: %w", err)
	}

	items := make([]models.ClothingItem, 0, len(descriptors))
	for _, descriptor := range descriptors {
		item := itemFromDescriptor(userID, descriptor, imageURL)

		if err := s.items.Create(ctx, item); err != nil {
			return items, err
		}

		if err := s.index.Add(ctx, search.CollectionClothing, item.ID, descriptor.SearchText()); err != nil {
			return items, fmt.Errorf("wardrobe service: индексация вещи: %w", err)
		}

		items = append(items, *item)
	}

	return items, nil
}

// CreateItem заводит вещь вручную, без фотографии.
func (s *WardrobeService) CreateItem(ctx context.Context, userID uuid.UUID, in ItemInput) (*models.ClothingItem, error) {
	if err := validateItemInput(in); err != nil {
		return nil, err
	}

	item := &models.ClothingItem{
		UserID:   userID,
		Name:     strings.TrimSpace(in.Name),
		Size:     in.Size,
		Color:    in.Color,
		Style:    in.Style,
		Brand:    in.Brand,
		Tag:      in.Tag,
		Category: in.Category,
	}

	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}

	if err := s.index.Add(ctx, search.CollectionClothing, item.ID, ItemSearchText(item)); err != nil {
		return nil, fmt.Errorf("wardrobe service: индексация вещи: %w", err)
	}

	return item, nil
}

// GetItem возвращает вещь пользователя.
func (s *WardrobeService) GetItem(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*models.ClothingItem, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Чужая вещь неотличима для клиента от несуществующей.
	if item.UserID != userID {
		return nil, repository.ErrItemNotFound
	}
	return item, nil
}

// ListItems возвращает все вещи пользователя.
func (s *WardrobeService) ListItems(ctx context.Context, userID uuid.UUID) ([]models.ClothingItem, error) {
	return s.items.ListByUser(ctx, userID)
}

// UpdateItem редактирует вещь и переиндексирует её описание.
func (s *WardrobeService) UpdateItem(ctx context.Context, id uuid.UUID, userID uuid.UUID, in ItemInput) (*models.ClothingItem, error) {
	if err := validateItemInput(in); err != nil {
		return nil, err
	}

	item, err := s.GetItem(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	item.Name = strings.TrimSpace(in.Name)
	item.Size = in.Size
	item.Color = in.Color
	item.Style = in.Style
	item.Brand = in.Brand
	item.Tag = in.Tag
	item.Category = in.Category

	if err := s.items.Update(ctx, item); err != nil {
		return nil, err
	}

	if err := s.index.Add(ctx, search.CollectionClothing, item.ID, ItemSearchText(item)); err != nil {
		return nil, fmt.Errorf("wardrobe service: переиндексация вещи: %w", err)
	}

	return item, nil
}

// DeleteItem удаляет вещь вместе с записью индекса и объектом в хранилище.
func (s *WardrobeService) DeleteItem(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	item, err := s.GetItem(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.items.Delete(ctx, id, userID); err != nil {
		return err
	}

	if err := s.index.Delete(ctx, search.CollectionClothing, id); err != nil {
		return fmt.Errorf("wardrobe service: удаление из индекса: %w", err)
	}

	// Объект в S3 чистим в фоне, его потеря не нарушает консистентность.
	if item.ImageURL != nil {
		imageKey := storageKeyFromURL(*item.ImageURL)
		if imageKey != "" {
			goroutine.SafeGoWithContext(context.WithoutCancel(ctx), func(ctx context.Context) {
				if err := s.photos.Delete(ctx, imageKey); err != nil {
					logger.Log.WithField("key", imageKey).Warnf("wardrobe service: не удалось удалить объект: %v", err)
				}
			})
		}
	}

	return nil
}

// MarkWorn помечает вещь пользователя как ношеную. Повторная пометка
// уже ношеной вещи не является ошибкой.
func (s *WardrobeService) MarkWorn(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	if _, err := s.GetItem(ctx, id, userID); err != nil {
		return err
	}
	return s.items.MarkWorn(ctx, id)
}

// ItemSearchText собирает текст, под которым вещь хранится в индексе.
func ItemSearchText(item *models.ClothingItem) string {
	parts := make([]string, 0, 6)
	appendPart := func(value string) {
		if strings.TrimSpace(value) != "" {
			parts = append(parts, strings.TrimSpace(value))
		}
	}

	appendPart(item.Category)
	for _, field := range []*string{item.Color, item.Size, item.Style, item.Brand} {
		if field != nil {
			appendPart(*field)
		}
	}
	appendPart(item.Name)

	return strings.Join(parts, " ")
}

// itemFromDescriptor переводит распознанный дескриптор в вещь гардероба.
func itemFromDescriptor(userID uuid.UUID, descriptor ai.ItemDescriptor, imageURL string) *models.ClothingItem {
	name := strings.TrimSpace(descriptor.Description)
	if name == "" {
		name = strings.TrimSpace(descriptor.Type)
	}

	item := &models.ClothingItem{
		UserID:   userID,
		Name:     name,
		Category: categoryFromType(descriptor.Type),
		ImageURL: &imageURL,
	}

	if size := strings.TrimSpace(descriptor.Size); size != "" {
		item.Size = &size
	}
	if color := strings.TrimSpace(descriptor.Color); color != "" {
		item.Color = &color
	}

	return item
}

// categoryFromType нормализует тип вещи из ответа модели к категории enum.
func categoryFromType(itemType string) string {
	normalized := strings.ToLower(strings.TrimSpace(itemType))

	switch {
	case strings.Contains(normalized, "shirt"), strings.Contains(normalized, "top"),
		strings.Contains(normalized, "dress"), strings.Contains(normalized, "sweater"):
		return models.CategoryShirt
	case strings.Contains(normalized, "pant"), strings.Contains(normalized, "jean"),
		strings.Contains(normalized, "short"), strings.Contains(normalized, "skirt"):
		return models.CategoryPants
	case strings.Contains(normalized, "shoe"), strings.Contains(normalized, "sneaker"),
		strings.Contains(normalized, "boot"):
		return models.CategoryShoes
	case strings.Contains(normalized, "jacket"), strings.Contains(normalized, "coat"),
		strings.Contains(normalized, "outerwear"), strings.Contains(normalized, "hoodie"):
		return models.CategoryOuterwear
	default:
		return models.CategoryAccessories
	}
}

// storageKeyFromURL извлекает ключ объекта из публичного URL.
func storageKeyFromURL(imageURL string) string {
	idx := strings.Index(imageURL, ".amazonaws.com/")
	if idx == -1 {
		return ""
	}
	return imageURL[idx+len(".amazonaws.com/"):]
}

func validateItemInput(in ItemInput) error {
	if err := validation.ValidateItemName(in.Name); err != nil {
		return fmt.Errorf("wardrobe service: %w", err)
	}
	if !models.IsValidCategory(in.Category) {
		return fmt.Errorf("wardrobe service: недопустимая категория %q", in.Category)
	}

	fields := map[string]*string{
		"размер": in.Size,
		"цвет":   in.Color,
		"стиль":  in.Style,
		"бренд":  in.Brand,
		"тег":    in.Tag,
	}
	for fieldName, value := range fields {
		if value == nil {
			continue
		}
		if err := validation.ValidateItemField(fieldName, *value); err != nil {
			return fmt.Errorf("wardrobe service: %w", err)
		}
	}

	return nil
}
