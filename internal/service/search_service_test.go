package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/wardrobe-backend/internal/models"
	"github.com/ignatzorin/wardrobe-backend/internal/search"
)

func newSearchMocks(threshold float64) (*mockClothingStore, *mockOutfitStore, *mockIndex, *SearchService) {
	items := new(mockClothingStore)
	outfits := new(mockOutfitStore)
	index := new(mockIndex)
	svc := NewSearchService(items, outfits, index, threshold)
	return items, outfits, index, svc
}

func TestSearchService_SearchItems_ThresholdFiltersMatches(t *testing.T) {
	items, _, index, svc := newSearchMocks(0.5)
	ctx := context.Background()
	userID := uuid.New()

	near := models.ClothingItem{ID: uuid.New(), UserID: userID, Name: "Oxford рубашка", Category: models.CategoryShirt}
	far := models.ClothingItem{ID: uuid.New(), UserID: userID, Name: "Кеды", Category: models.CategoryShoes}

	items.On("ListByUser", ctx, userID).Return([]models.ClothingItem{near, far}, nil)
	index.On("Query", ctx, search.CollectionClothing, "синяя рубашка", searchTopK).Return([]search.Match{
		{ID: near.ID, Distance: 0.2},
		{ID: far.ID, Distance: 0.9},
	}, nil)

	results, err := svc.SearchItems(ctx, userID, "синяя рубашка")

	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, near.ID, results[0].ID)
}

func TestSearchService_SearchItems_IgnoresForeignMatches(t *testing.T) {
	items, _, index, svc := newSearchMocks(1.0)
	ctx := context.Background()
	userID := uuid.New()

	items.On("ListByUser", ctx, userID).Return([]models.ClothingItem{}, nil)
	// Индекс вернул запись, которой нет среди вещей пользователя.
	index.On("Query", ctx, search.CollectionClothing, "куртка", searchTopK).Return([]search.Match{
		{ID: uuid.New(), Distance: 0.1},
	}, nil)

	results, err := svc.SearchItems(ctx, userID, "куртка")

	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchService_SearchItems_LexicalFallback(t *testing.T) {
	items, _, index, svc := newSearchMocks(0.5)
	ctx := context.Background()
	userID := uuid.New()

	brand := "Uniqlo"
	item := models.ClothingItem{ID: uuid.New(), UserID: userID, Name: "Пуховик", Category: models.CategoryOuterwear, Brand: &brand}

	items.On("ListByUser", ctx, userID).Return([]models.ClothingItem{item}, nil)
	index.On("Query", ctx, search.CollectionClothing, "uniqlo", searchTopK).Return([]search.Match{}, nil)

	results, err := svc.SearchItems(ctx, userID, "uniqlo")

	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, item.ID, results[0].ID)
}

func TestSearchService_SearchItems_NoDuplicates(t *testing.T) {
	items, _, index, svc := newSearchMocks(0.5)
	ctx := context.Background()
	userID := uuid.New()

	item := models.ClothingItem{ID: uuid.New(), UserID: userID, Name: "Джинсы Levis", Category: models.CategoryPants}

	items.On("ListByUser", ctx, userID).Return([]models.ClothingItem{item}, nil)
	// Индекс и лексический проход находят одну и ту же вещь.
	index.On("Query", ctx, search.CollectionClothing, "джинсы", searchTopK).Return([]search.Match{
		{ID: item.ID, Distance: 0.1},
		{ID: item.ID, Distance: 0.15},
	}, nil)

	results, err := svc.SearchItems(ctx, userID, "джинсы")

	assert.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchService_SearchItems_EmptyQuery(t *testing.T) {
	_, _, _, svc := newSearchMocks(1.0)

	_, err := svc.SearchItems(context.Background(), uuid.New(), "   ")
	assert.Error(t, err)
}

func TestSearchService_SearchOutfits_Threshold(t *testing.T) {
	_, outfits, index, svc := newSearchMocks(0.4)
	ctx := context.Background()
	userID := uuid.New()

	summer := models.Outfit{ID: uuid.New(), UserID: userID, Description: "Летний образ с шортами"}
	winter := models.Outfit{ID: uuid.New(), UserID: userID, Description: "Тёплый зимний комплект"}

	outfits.On("ListByUser", ctx, userID).Return([]models.Outfit{summer, winter}, nil)
	index.On("Query", ctx, search.CollectionOutfits, "пляжный лук", searchTopK).Return([]search.Match{
		{ID: summer.ID, Distance: 0.2},
		{ID: winter.ID, Distance: 0.8},
	}, nil)

	results, err := svc.SearchOutfits(ctx, userID, "пляжный лук")

	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, summer.ID, results[0].ID)
}

func TestSearchService_SearchOutfits_LexicalFallback(t *testing.T) {
	_, outfits, index, svc := newSearchMocks(0.4)
	ctx := context.Background()
	userID := uuid.New()

	outfit := models.Outfit{ID: uuid.New(), UserID: userID, Description: "Деловой костюм для офиса"}

	outfits.On("ListByUser", ctx, userID).Return([]models.Outfit{outfit}, nil)
	index.On("Query", ctx, search.CollectionOutfits, "офис", searchTopK).Return([]search.Match{}, nil)

	results, err := svc.SearchOutfits(ctx, userID, "офис")

	assert.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchService_FilterItems_Passthrough(t *testing.T) {
	items, _, _, svc := newSearchMocks(1.0)
	ctx := context.Background()
	userID := uuid.New()

	filter := models.ItemFilter{Category: []string{models.CategoryShirt}, Color: []string{"blue", "navy"}}
	expected := []models.ClothingItem{{ID: uuid.New(), UserID: userID}}
	items.On("FilterByFields", ctx, userID, filter).Return(expected, nil)

	results, err := svc.FilterItems(ctx, userID, filter)

	assert.NoError(t, err)
	assert.Equal(t, expected, results)
}

func TestSearchService_UniqueValues(t *testing.T) {
	items, _, _, svc := newSearchMocks(1.0)
	ctx := context.Background()
	userID := uuid.New()

	items.On("DistinctValues", ctx, userID, "brand").Return([]string{"Levis", "Uniqlo"}, nil)

	values, err := svc.UniqueValues(ctx, userID, "brand")

	assert.NoError(t, err)
	assert.Equal(t, []string{"Levis", "Uniqlo"}, values)
	items.AssertExpectations(t)
}
