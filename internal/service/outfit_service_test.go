package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/wardrobe-backend/internal/ai"
	"github.com/ignatzorin/wardrobe-backend/internal/models"
	"github.com/ignatzorin/wardrobe-backend/internal/repository"
	"github.com/ignatzorin/wardrobe-backend/internal/search"
)

type mockOutfitStore struct {
	mock.Mock
}

func (m *mockOutfitStore) CreateWithItems(ctx context.Context, outfit *models.Outfit, itemIDs []uuid.UUID) error {
	args := m.Called(ctx, outfit, itemIDs)
	if args.Error(0) == nil && outfit.ID == uuid.Nil {
		outfit.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockOutfitStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Outfit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Outfit), args.Error(1)
}

func (m *mockOutfitStore) GetByIDWithItems(ctx context.Context, id uuid.UUID) (*models.Outfit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Outfit), args.Error(1)
}

func (m *mockOutfitStore) ListItems(ctx context.Context, outfitID uuid.UUID) ([]models.ClothingItem, error) {
	args := m.Called(ctx, outfitID)
	return args.Get(0).([]models.ClothingItem), args.Error(1)
}

func (m *mockOutfitStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Outfit, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Outfit), args.Error(1)
}

func (m *mockOutfitStore) UpdateDescription(ctx context.Context, id uuid.UUID, userID uuid.UUID, description string) error {
	args := m.Called(ctx, id, userID, description)
	return args.Error(0)
}

func (m *mockOutfitStore) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *mockOutfitStore) CreateWearRecord(ctx context.Context, record *models.OutfitWearHistory) error {
	args := m.Called(ctx, record)
	if args.Error(0) == nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockOutfitStore) ListWearHistory(ctx context.Context, userID uuid.UUID) ([]models.OutfitWearHistory, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.OutfitWearHistory), args.Error(1)
}

func (m *mockOutfitStore) GetWearRecord(ctx context.Context, id uuid.UUID) (*models.OutfitWearHistory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OutfitWearHistory), args.Error(1)
}

func (m *mockOutfitStore) DeleteWearRecord(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func newOutfitMocks() (*mockOutfitStore, *mockClothingStore, *mockExtractor, *mockIndex, *mockPhotoStore, *OutfitService) {
	outfits := new(mockOutfitStore)
	items := new(mockClothingStore)
	extractor := new(mockExtractor)
	index := new(mockIndex)
	photos := new(mockPhotoStore)
	svc := NewOutfitService(outfits, items, extractor, index, photos)
	return outfits, items, extractor, index, photos, svc
}

func stubOutfitPhoto(photos *mockPhotoStore, userID uuid.UUID) string {
	key := userID.String() + "/outfit.jpg"
	publicURL := "https://bucket.s3.us-east-1.amazonaws.com/" + key
	photos.On("Save", mock.Anything, userID, "outfit.jpg", "image/jpeg", mock.Anything).Return(key, int64(4096), nil)
	photos.On("PublicURL", key).Return(publicURL)
	photos.On("PresignedURL", mock.Anything, key, mock.Anything).Return(publicURL+"?sig=1", nil)
	return publicURL
}

func TestOutfitService_UploadOutfit_MatchesOwnedItem(t *testing.T) {
	outfits, items, extractor, index, photos, svc := newOutfitMocks()
	ctx := context.Background()
	userID := uuid.New()
	itemID := uuid.New()

	stubOutfitPhoto(photos, userID)

	descriptor := ai.ItemDescriptor{Type: "Shirt", Color: "blue", Description: "blue shirt"}
	extractor.On("ExtractItems", mock.Anything, mock.Anything).Return([]ai.ItemDescriptor{descriptor}, nil)
	extractor.On("DescribeOutfit", mock.Anything, mock.Anything).Return("Casual blue look", nil)

	index.On("Query", mock.Anything, search.CollectionClothing, descriptor.SearchText(), matchCandidates).
		Return([]search.Match{{ID: itemID, Distance: 0}}, nil)
	items.On("GetByID", mock.Anything, itemID).Return(&models.ClothingItem{ID: itemID, UserID: userID}, nil)

	outfits.On("CreateWithItems", mock.Anything, mock.AnythingOfType("*models.Outfit"), []uuid.UUID{itemID}).Return(nil)
	items.On("MarkWorn", mock.Anything, itemID).Return(nil)
	index.On("Add", mock.Anything, search.CollectionOutfits, mock.Anything, "Casual blue look").Return(nil)
	outfits.On("ListItems", mock.Anything, mock.Anything).Return([]models.ClothingItem{{ID: itemID, UserID: userID}}, nil)

	outfit, matched, err := svc.UploadOutfit(ctx, userID, "outfit.jpg", "image/jpeg", strings.NewReader("img"))

	assert.NoError(t, err)
	assert.Equal(t, []uuid.UUID{itemID}, matched)
	assert.Equal(t, "Casual blue look", outfit.Description)
	assert.Len(t, outfit.Items, 1)
}

func TestOutfitService_UploadOutfit_ForeignItemNotMatched(t *testing.T) {
	outfits, items, extractor, index, photos, svc := newOutfitMocks()
	ctx := context.Background()
	userID := uuid.New()
	foreignItemID := uuid.New()

	stubOutfitPhoto(photos, userID)

	descriptor := ai.ItemDescriptor{Type: "Pants", Color: "black"}
	extractor.On("ExtractItems", mock.Anything, mock.Anything).Return([]ai.ItemDescriptor{descriptor}, nil)
	extractor.On("DescribeOutfit", mock.Anything, mock.Anything).Return("Black pants look", nil)

	// Индекс нашёл похожую вещь, но она принадлежит другому пользователю.
	index.On("Query", mock.Anything, search.CollectionClothing, mock.Anything, matchCandidates).
		Return([]search.Match{{ID: foreignItemID, Distance: 0.1}}, nil)
	items.On("GetByID", mock.Anything, foreignItemID).Return(&models.ClothingItem{ID: foreignItemID, UserID: uuid.New()}, nil)

	outfits.On("CreateWithItems", mock.Anything, mock.AnythingOfType("*models.Outfit"), []uuid.UUID{}).Return(nil)
	index.On("Add", mock.Anything, search.CollectionOutfits, mock.Anything, mock.Anything).Return(nil)
	outfits.On("ListItems", mock.Anything, mock.Anything).Return([]models.ClothingItem{}, nil)

	outfit, matched, err := svc.UploadOutfit(ctx, userID, "outfit.jpg", "image/jpeg", strings.NewReader("img"))

	assert.NoError(t, err)
	assert.Empty(t, matched)
	assert.NotNil(t, outfit)
	items.AssertNotCalled(t, "MarkWorn", mock.Anything, mock.Anything)
}

func TestOutfitService_UploadOutfit_StaleIndexEntrySkipped(t *testing.T) {
	outfits, items, extractor, index, photos, svc := newOutfitMocks()
	ctx := context.Background()
	userID := uuid.New()
	deletedID := uuid.New()
	liveID := uuid.New()

	stubOutfitPhoto(photos, userID)

	descriptor := ai.ItemDescriptor{Type: "Shoes", Color: "white"}
	extractor.On("ExtractItems", mock.Anything, mock.Anything).Return([]ai.ItemDescriptor{descriptor}, nil)
	extractor.On("DescribeOutfit", mock.Anything, mock.Anything).Return("White sneakers look", nil)

	index.On("Query", mock.Anything, search.CollectionClothing, mock.Anything, matchCandidates).
		Return([]search.Match{
			{ID: deletedID, Distance: 0.05},
			{ID: liveID, Distance: 0.2},
		}, nil)
	items.On("GetByID", mock.Anything, deletedID).Return(nil, repository.ErrItemNotFound)
	items.On("GetByID", mock.Anything, liveID).Return(&models.ClothingItem{ID: liveID, UserID: userID}, nil)

	outfits.On("CreateWithItems", mock.Anything, mock.AnythingOfType("*models.Outfit"), []uuid.UUID{liveID}).Return(nil)
	items.On("MarkWorn", mock.Anything, liveID).Return(nil)
	index.On("Add", mock.Anything, search.CollectionOutfits, mock.Anything, mock.Anything).Return(nil)
	outfits.On("ListItems", mock.Anything, mock.Anything).Return([]models.ClothingItem{{ID: liveID}}, nil)

	_, matched, err := svc.UploadOutfit(ctx, userID, "outfit.jpg", "image/jpeg", strings.NewReader("img"))

	assert.NoError(t, err)
	assert.Equal(t, []uuid.UUID{liveID}, matched)
}

func TestOutfitService_UploadOutfit_StoreFailureAborts(t *testing.T) {
	outfits, items, extractor, index, photos, svc := newOutfitMocks()
	ctx := context.Background()
	userID := uuid.New()
	itemID := uuid.New()

	stubOutfitPhoto(photos, userID)

	descriptor := ai.ItemDescriptor{Type: "Outerwear", Color: "green"}
	extractor.On("ExtractItems", mock.Anything, mock.Anything).Return([]ai.ItemDescriptor{descriptor}, nil)
	extractor.On("DescribeOutfit", mock.Anything, mock.Anything).Return("Green coat look", nil)

	// Недоступность базы при проверке кандидата — не пропуск записи,
	// а отказ всей операции: образ без части вещей создаваться не должен.
	index.On("Query", mock.Anything, search.CollectionClothing, mock.Anything, matchCandidates).
		Return([]search.Match{{ID: itemID, Distance: 0}}, nil)
	items.On("GetByID", mock.Anything, itemID).
		Return(nil, errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"))

	_, _, err := svc.UploadOutfit(ctx, userID, "outfit.jpg", "image/jpeg", strings.NewReader("img"))

	assert.Error(t, err)
	outfits.AssertNotCalled(t, "CreateWithItems", mock.Anything, mock.Anything, mock.Anything)
	items.AssertNotCalled(t, "MarkWorn", mock.Anything, mock.Anything)
}

func TestOutfitService_UploadOutfit_DeduplicatesMatches(t *testing.T) {
	outfits, items, extractor, index, photos, svc := newOutfitMocks()
	ctx := context.Background()
	userID := uuid.New()
	itemID := uuid.New()

	stubOutfitPhoto(photos, userID)

	// Два дескриптора сошлись на одной и той же вещи.
	descriptors := []ai.ItemDescriptor{
		{Type: "Shirt", Color: "blue"},
		{Type: "Shirt", Color: "navy"},
	}
	extractor.On("ExtractItems", mock.Anything, mock.Anything).Return(descriptors, nil)
	extractor.On("DescribeOutfit", mock.Anything, mock.Anything).Return("Blue look", nil)

	index.On("Query", mock.Anything, search.CollectionClothing, mock.Anything, matchCandidates).
		Return([]search.Match{{ID: itemID, Distance: 0.1}}, nil)
	items.On("GetByID", mock.Anything, itemID).Return(&models.ClothingItem{ID: itemID, UserID: userID}, nil)

	outfits.On("CreateWithItems", mock.Anything, mock.AnythingOfType("*models.Outfit"), []uuid.UUID{itemID}).Return(nil)
	items.On("MarkWorn", mock.Anything, itemID).Return(nil)
	index.On("Add", mock.Anything, search.CollectionOutfits, mock.Anything, mock.Anything).Return(nil)
	outfits.On("ListItems", mock.Anything, mock.Anything).Return([]models.ClothingItem{{ID: itemID}}, nil)

	_, matched, err := svc.UploadOutfit(ctx, userID, "outfit.jpg", "image/jpeg", strings.NewReader("img"))

	assert.NoError(t, err)
	assert.Equal(t, []uuid.UUID{itemID}, matched)
}

func TestOutfitService_UploadOutfit_ExtractorFails(t *testing.T) {
	outfits, _, extractor, _, photos, svc := newOutfitMocks()
	ctx := context.Background()
	userID := uuid.New()

	stubOutfitPhoto(photos, userID)

	extractor.On("ExtractItems", mock.Anything, mock.Anything).Return(nil, errors.New("vision model unavailable"))
	extractor.On("DescribeOutfit", mock.Anything, mock.Anything).Return("описание", nil)

	_, _, err := svc.UploadOutfit(ctx, userID, "outfit.jpg", "image/jpeg", strings.NewReader("img"))

	assert.Error(t, err)
	outfits.AssertNotCalled(t, "CreateWithItems", mock.Anything, mock.Anything, mock.Anything)
}

func TestOutfitService_GetOutfit_OtherUser(t *testing.T) {
	outfits, _, _, _, _, svc := newOutfitMocks()
	ctx := context.Background()

	outfitID := uuid.New()
	outfits.On("GetByIDWithItems", ctx, outfitID).Return(&models.Outfit{ID: outfitID, UserID: uuid.New()}, nil)

	_, err := svc.GetOutfit(ctx, outfitID, uuid.New())
	assert.ErrorIs(t, err, repository.ErrOutfitNotFound)
}

func TestOutfitService_LogWear_MarksAllItems(t *testing.T) {
	outfits, items, _, _, _, svc := newOutfitMocks()
	ctx := context.Background()

	outfitID := uuid.New()
	userID := uuid.New()
	first := uuid.New()
	second := uuid.New()

	outfits.On("GetByIDWithItems", ctx, outfitID).Return(&models.Outfit{
		ID:     outfitID,
		UserID: userID,
		Items: []models.ClothingItem{
			{ID: first, UserID: userID},
			{ID: second, UserID: userID},
		},
	}, nil)
	outfits.On("CreateWearRecord", ctx, mock.AnythingOfType("*models.OutfitWearHistory")).Return(nil)
	items.On("MarkWorn", ctx, first).Return(nil)
	items.On("MarkWorn", ctx, second).Return(nil)

	wornOn := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	record, err := svc.LogWear(ctx, outfitID, userID, wornOn)

	assert.NoError(t, err)
	assert.Equal(t, outfitID, record.OutfitID)
	assert.Equal(t, wornOn, record.WornOn)
	items.AssertNumberOfCalls(t, "MarkWorn", 2)
}

func TestOutfitService_UpdateDescription_Reindexes(t *testing.T) {
	outfits, _, _, index, _, svc := newOutfitMocks()
	ctx := context.Background()

	outfitID := uuid.New()
	userID := uuid.New()

	outfits.On("UpdateDescription", ctx, outfitID, userID, "Новое описание").Return(nil)
	index.On("Add", ctx, search.CollectionOutfits, outfitID, "Новое описание").Return(nil)
	outfits.On("GetByIDWithItems", ctx, outfitID).Return(&models.Outfit{ID: outfitID, UserID: userID, Description: "Новое описание"}, nil)

	outfit, err := svc.UpdateDescription(ctx, outfitID, userID, "Новое описание")

	assert.NoError(t, err)
	assert.Equal(t, "Новое описание", outfit.Description)
	index.AssertCalled(t, "Add", ctx, search.CollectionOutfits, outfitID, "Новое описание")
}
