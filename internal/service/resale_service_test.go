package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/wardrobe-backend/internal/marketplace"
	"github.com/ignatzorin/wardrobe-backend/internal/models"
	"github.com/ignatzorin/wardrobe-backend/internal/repository"
)

type mockListingStore struct {
	mock.Mock
}

func (m *mockListingStore) Create(ctx context.Context, listing *models.ResaleListing) error {
	args := m.Called(ctx, listing)
	if args.Error(0) == nil && listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockListingStore) GetByID(ctx context.Context, id uuid.UUID) (*models.ResaleListing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ResaleListing), args.Error(1)
}

func (m *mockListingStore) GetByItem(ctx context.Context, clothingItemID uuid.UUID) (*models.ResaleListing, error) {
	args := m.Called(ctx, clothingItemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ResaleListing), args.Error(1)
}

func (m *mockListingStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ResaleListing, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.ResaleListing), args.Error(1)
}

func (m *mockListingStore) Update(ctx context.Context, listing *models.ResaleListing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *mockListingStore) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

type mockCredentialStore struct {
	mock.Mock
}

func (m *mockCredentialStore) UpsertCredential(ctx context.Context, cred *models.MarketplaceCredential) error {
	args := m.Called(ctx, cred)
	return args.Error(0)
}

func (m *mockCredentialStore) GetCredential(ctx context.Context, userID uuid.UUID, platform string) (*models.MarketplaceCredential, error) {
	args := m.Called(ctx, userID, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MarketplaceCredential), args.Error(1)
}

func (m *mockCredentialStore) GetStoredCredential(ctx context.Context, userID uuid.UUID, platform string) (*models.MarketplaceCredential, error) {
	args := m.Called(ctx, userID, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MarketplaceCredential), args.Error(1)
}

type mockEbayAPI struct {
	mock.Mock
}

func (m *mockEbayAPI) ExchangeCode(ctx context.Context, code string) (*marketplace.EbayToken, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.EbayToken), args.Error(1)
}

func (m *mockEbayAPI) RefreshAccessToken(ctx context.Context, refreshToken string) (*marketplace.EbayToken, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.EbayToken), args.Error(1)
}

func (m *mockEbayAPI) PublishListing(ctx context.Context, accessToken string, draft marketplace.EbayListingDraft) (*marketplace.EbayListingResult, error) {
	args := m.Called(ctx, accessToken, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.EbayListingResult), args.Error(1)
}

func (m *mockEbayAPI) UpdateListing(ctx context.Context, accessToken, sku, offerID string, draft marketplace.EbayListingDraft) error {
	args := m.Called(ctx, accessToken, sku, offerID, draft)
	return args.Error(0)
}

func (m *mockEbayAPI) DeleteListing(ctx context.Context, accessToken, sku string) error {
	args := m.Called(ctx, accessToken, sku)
	return args.Error(0)
}

type mockFacebookAPI struct {
	mock.Mock
}

func (m *mockFacebookAPI) CreateProduct(ctx context.Context, product marketplace.FacebookProduct) (string, error) {
	args := m.Called(ctx, product)
	return args.String(0), args.Error(1)
}

func (m *mockFacebookAPI) UpdateProduct(ctx context.Context, productID string, product marketplace.FacebookProduct) error {
	args := m.Called(ctx, productID, product)
	return args.Error(0)
}

func (m *mockFacebookAPI) DeleteProduct(ctx context.Context, productID string) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

func newResaleMocks() (*mockListingStore, *mockClothingStore, *mockCredentialStore, *mockEbayAPI, *mockFacebookAPI, *ResaleService) {
	listings := new(mockListingStore)
	items := new(mockClothingStore)
	credentials := new(mockCredentialStore)
	ebay := new(mockEbayAPI)
	facebook := new(mockFacebookAPI)
	svc := NewResaleService(listings, items, credentials, ebay, facebook)
	return listings, items, credentials, ebay, facebook, svc
}

func liveCredential(userID uuid.UUID) *models.MarketplaceCredential {
	return &models.MarketplaceCredential{
		UserID:      userID,
		Platform:    PlatformEbay,
		AccessToken: "live-token",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func TestResaleService_CreateListing_PublishesOnBothPlatforms(t *testing.T) {
	listings, items, credentials, ebay, facebook, svc := newResaleMocks()
	ctx := context.Background()
	userID := uuid.New()
	itemID := uuid.New()
	imageURL := "https://bucket.s3.us-east-1.amazonaws.com/item.jpg"

	items.On("GetByID", ctx, itemID).Return(&models.ClothingItem{ID: itemID, UserID: userID, ImageURL: &imageURL}, nil)
	listings.On("GetByItem", ctx, itemID).Return(nil, repository.ErrListingNotFound)
	credentials.On("GetCredential", ctx, userID, PlatformEbay).Return(liveCredential(userID), nil)

	ebay.On("PublishListing", ctx, "live-token", mock.AnythingOfType("marketplace.EbayListingDraft")).
		Return(&marketplace.EbayListingResult{SKU: "wardrobe-jacket-abc", OfferID: "offer-1", ListingID: "listing-1"}, nil)
	facebook.On("CreateProduct", ctx, mock.AnythingOfType("marketplace.FacebookProduct")).Return("fb-product-1", nil)
	listings.On("Create", ctx, mock.AnythingOfType("*models.ResaleListing")).Return(nil)

	listing, err := svc.CreateListing(ctx, userID, ListingInput{
		ClothingItemID: itemID,
		Title:          "Кожаная куртка",
		PriceCents:     450000,
		Currency:       "RUB",
	})

	assert.NoError(t, err)
	assert.Equal(t, models.ListingStatusActive, listing.Status)
	assert.Equal(t, "wardrobe-jacket-abc", *listing.EbaySKU)
	assert.Equal(t, "offer-1", *listing.EbayOfferID)
	assert.Equal(t, "fb-product-1", *listing.FacebookProductID)

	// Цена уходит на eBay в основной валюте, в Facebook — в минорных единицах.
	ebayDraft := ebay.Calls[0].Arguments.Get(2).(marketplace.EbayListingDraft)
	assert.InDelta(t, 4500.0, ebayDraft.Price, 0.001)
	fbProduct := facebook.Calls[0].Arguments.Get(1).(marketplace.FacebookProduct)
	assert.Equal(t, int64(450000), fbProduct.PriceCents)
	assert.Equal(t, itemID.String(), fbProduct.RetailerID)
}

func TestResaleService_CreateListing_ForeignItem(t *testing.T) {
	_, items, _, ebay, _, svc := newResaleMocks()
	ctx := context.Background()
	itemID := uuid.New()

	items.On("GetByID", ctx, itemID).Return(&models.ClothingItem{ID: itemID, UserID: uuid.New()}, nil)

	_, err := svc.CreateListing(ctx, uuid.New(), ListingInput{
		ClothingItemID: itemID,
		Title:          "Чужая вещь",
		PriceCents:     1000,
		Currency:       "RUB",
	})

	assert.ErrorIs(t, err, repository.ErrItemNotFound)
	ebay.AssertNotCalled(t, "PublishListing", mock.Anything, mock.Anything, mock.Anything)
}

func TestResaleService_CreateListing_DuplicateItem(t *testing.T) {
	listings, items, _, ebay, facebook, svc := newResaleMocks()
	ctx := context.Background()
	userID := uuid.New()
	itemID := uuid.New()

	items.On("GetByID", ctx, itemID).Return(&models.ClothingItem{ID: itemID, UserID: userID}, nil)
	// Объявление для этой вещи уже есть: до площадок доходить нельзя.
	listings.On("GetByItem", ctx, itemID).Return(&models.ResaleListing{
		ID:             uuid.New(),
		UserID:         userID,
		ClothingItemID: itemID,
	}, nil)

	_, err := svc.CreateListing(ctx, userID, ListingInput{
		ClothingItemID: itemID,
		Title:          "Куртка",
		PriceCents:     1000,
		Currency:       "RUB",
	})

	assert.ErrorIs(t, err, repository.ErrListingExists)
	ebay.AssertNotCalled(t, "PublishListing", mock.Anything, mock.Anything, mock.Anything)
	facebook.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
}

func TestResaleService_CreateListing_NotAuthorized(t *testing.T) {
	listings, items, credentials, ebay, _, svc := newResaleMocks()
	ctx := context.Background()
	userID := uuid.New()
	itemID := uuid.New()

	items.On("GetByID", ctx, itemID).Return(&models.ClothingItem{ID: itemID, UserID: userID}, nil)
	listings.On("GetByItem", ctx, itemID).Return(nil, repository.ErrListingNotFound)
	credentials.On("GetCredential", ctx, userID, PlatformEbay).Return(nil, repository.ErrCredentialNotFound)
	credentials.On("GetStoredCredential", ctx, userID, PlatformEbay).Return(nil, repository.ErrCredentialNotFound)

	_, err := svc.CreateListing(ctx, userID, ListingInput{
		ClothingItemID: itemID,
		Title:          "Куртка",
		PriceCents:     1000,
		Currency:       "RUB",
	})

	assert.ErrorIs(t, err, ErrEbayNotAuthorized)
	ebay.AssertNotCalled(t, "PublishListing", mock.Anything, mock.Anything, mock.Anything)
}

func TestResaleService_CreateListing_RefreshesExpiredToken(t *testing.T) {
	listings, items, credentials, ebay, facebook, svc := newResaleMocks()
	ctx := context.Background()
	userID := uuid.New()
	itemID := uuid.New()

	refreshToken := "stored-refresh"
	expired := &models.MarketplaceCredential{
		UserID:       userID,
		Platform:     PlatformEbay,
		AccessToken:  "dead-token",
		RefreshToken: &refreshToken,
		ExpiresAt:    time.Now().Add(-time.Hour),
	}

	items.On("GetByID", ctx, itemID).Return(&models.ClothingItem{ID: itemID, UserID: userID}, nil)
	listings.On("GetByItem", ctx, itemID).Return(nil, repository.ErrListingNotFound)
	credentials.On("GetCredential", ctx, userID, PlatformEbay).Return(nil, repository.ErrCredentialNotFound)
	credentials.On("GetStoredCredential", ctx, userID, PlatformEbay).Return(expired, nil)
	ebay.On("RefreshAccessToken", ctx, refreshToken).Return(&marketplace.EbayToken{AccessToken: "fresh-token", ExpiresIn: 7200}, nil)
	credentials.On("UpsertCredential", ctx, mock.AnythingOfType("*models.MarketplaceCredential")).Return(nil)

	ebay.On("PublishListing", ctx, "fresh-token", mock.AnythingOfType("marketplace.EbayListingDraft")).
		Return(&marketplace.EbayListingResult{SKU: "sku", OfferID: "offer", ListingID: "listing"}, nil)
	facebook.On("CreateProduct", ctx, mock.AnythingOfType("marketplace.FacebookProduct")).Return("fb-1", nil)
	listings.On("Create", ctx, mock.AnythingOfType("*models.ResaleListing")).Return(nil)

	_, err := svc.CreateListing(ctx, userID, ListingInput{
		ClothingItemID: itemID,
		Title:          "Куртка",
		PriceCents:     1000,
		Currency:       "RUB",
	})

	assert.NoError(t, err)

	// eBay не вернул новый refresh-токен, старый сохраняется.
	upserted := credentials.Calls[2].Arguments.Get(1).(*models.MarketplaceCredential)
	assert.Equal(t, "fresh-token", upserted.AccessToken)
	assert.Equal(t, refreshToken, *upserted.RefreshToken)
}

func TestResaleService_AuthorizeEbay_StoresToken(t *testing.T) {
	_, _, credentials, ebay, _, svc := newResaleMocks()
	ctx := context.Background()
	userID := uuid.New()

	ebay.On("ExchangeCode", ctx, "auth-code").Return(&marketplace.EbayToken{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresIn:    7200,
	}, nil)
	credentials.On("UpsertCredential", ctx, mock.AnythingOfType("*models.MarketplaceCredential")).Return(nil)

	err := svc.AuthorizeEbay(ctx, userID, "auth-code")

	assert.NoError(t, err)
	cred := credentials.Calls[0].Arguments.Get(1).(*models.MarketplaceCredential)
	assert.Equal(t, PlatformEbay, cred.Platform)
	assert.Equal(t, "access", cred.AccessToken)
	assert.Equal(t, "refresh", *cred.RefreshToken)
	assert.True(t, cred.ExpiresAt.After(time.Now().Add(time.Hour)))
}

func TestResaleService_CloseListing_InvalidStatus(t *testing.T) {
	_, _, _, _, _, svc := newResaleMocks()

	_, err := svc.CloseListing(context.Background(), uuid.New(), uuid.New(), "paused")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "недопустимый статус")
}

func TestResaleService_CloseListing_MarksSold(t *testing.T) {
	listings, _, _, _, _, svc := newResaleMocks()
	ctx := context.Background()
	listingID := uuid.New()
	userID := uuid.New()

	listings.On("GetByID", ctx, listingID).Return(&models.ResaleListing{
		ID:     listingID,
		UserID: userID,
		Status: models.ListingStatusActive,
	}, nil)
	listings.On("Update", ctx, mock.AnythingOfType("*models.ResaleListing")).Return(nil)

	listing, err := svc.CloseListing(ctx, listingID, userID, models.ListingStatusSold)

	assert.NoError(t, err)
	assert.Equal(t, models.ListingStatusSold, listing.Status)
}

func TestResaleService_GetListing_Foreign(t *testing.T) {
	listings, _, _, _, _, svc := newResaleMocks()
	ctx := context.Background()
	listingID := uuid.New()

	listings.On("GetByID", ctx, listingID).Return(&models.ResaleListing{ID: listingID, UserID: uuid.New()}, nil)

	_, err := svc.GetListing(ctx, listingID, uuid.New())
	assert.ErrorIs(t, err, repository.ErrListingNotFound)
}

func TestResaleService_CreateListing_InvalidPrice(t *testing.T) {
	_, items, _, _, _, svc := newResaleMocks()

	_, err := svc.CreateListing(context.Background(), uuid.New(), ListingInput{
		ClothingItemID: uuid.New(),
		Title:          "Куртка",
		PriceCents:     0,
		Currency:       "RUB",
	})

	assert.Error(t, err)
	items.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}
