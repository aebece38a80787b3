package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/wardrobe-backend/internal/goroutine"
	"github.com/ignatzorin/wardrobe-backend/internal/logger"
	"github.com/ignatzorin/wardrobe-backend/internal/marketplace"
	"github.com/ignatzorin/wardrobe-backend/internal/models"
	"github.com/ignatzorin/wardrobe-backend/internal/repository"
	"github.com/ignatzorin/wardrobe-backend/internal/validation"
)

// Платформы, на которых публикуются объявления.
const (
	PlatformEbay     = "ebay"
	PlatformFacebook = "facebook"
)

// ErrEbayNotAuthorized возвращается, когда у пользователя нет живого
// токена eBay: нужно пройти OAuth заново.
var ErrEbayNotAuthorized = errors.New("resale service: требуется авторизация eBay")

// ListingStore описывает зависимости от репозитория объявлений.
type ListingStore interface {
	Create(ctx context.Context, listing *models.ResaleListing) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ResaleListing, error)
	GetByItem(ctx context.Context, clothingItemID uuid.UUID) (*models.ResaleListing, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ResaleListing, error)
	Update(ctx context.Context, listing *models.ResaleListing) error
	Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
}

// CredentialStore хранит OAuth-токены площадок в базе.
type CredentialStore interface {
	UpsertCredential(ctx context.Context, cred *models.MarketplaceCredential) error
	GetCredential(ctx context.Context, userID uuid.UUID, platform string) (*models.MarketplaceCredential, error)
	GetStoredCredential(ctx context.Context, userID uuid.UUID, platform string) (*models.MarketplaceCredential, error)
}

// EbayAPI описывает операции eBay, которые использует сервис.
type EbayAPI interface {
	ExchangeCode(ctx context.Context, code string) (*marketplace.EbayToken, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*marketplace.EbayToken, error)
	PublishListing(ctx context.Context, accessToken string, draft marketplace.EbayListingDraft) (*marketplace.EbayListingResult, error)
	UpdateListing(ctx context.Context, accessToken, sku, offerID string, draft marketplace.EbayListingDraft) error
	DeleteListing(ctx context.Context, accessToken, sku string) error
}

// FacebookAPI описывает операции каталога Facebook.
type FacebookAPI interface {
	CreateProduct(ctx context.Context, product marketplace.FacebookProduct) (string, error)
	UpdateProduct(ctx context.Context, productID string, product marketplace.FacebookProduct) error
	DeleteProduct(ctx context.Context, productID string) error
}

// ResaleService публикует вещи гардероба на двух площадках и хранит
// идентификаторы опубликованных объявлений в базе.
type ResaleService struct {
	listings    ListingStore
	items       ClothingStore
	credentials CredentialStore
	ebay        EbayAPI
	facebook    FacebookAPI
}

// NewResaleService создаёт сервис перепродажи.
func NewResaleService(listings ListingStore, items ClothingStore, credentials CredentialStore, ebay EbayAPI, facebook FacebookAPI) *ResaleService {
	return &ResaleService{
		listings:    listings,
		items:       items,
		credentials: credentials,
		ebay:        ebay,
		facebook:    facebook,
	}
}

// ListingInput содержит данные объявления при создании и обновлении.
type ListingInput struct {
	ClothingItemID uuid.UUID
	Title          string
	Description    *string
	PriceCents     int64
	Currency       string
}

// AuthorizeEbay обменивает код авторизации на токены и сохраняет их
// в базе с явным сроком годности.
func (s *ResaleService) AuthorizeEbay(ctx context.Context, userID uuid.UUID, code string) error {
	token, err := s.ebay.ExchangeCode(ctx, code)
	if err != nil {
		return err
	}

	cred := &models.MarketplaceCredential{
		UserID:      userID,
		Platform:    PlatformEbay,
		AccessToken: token.AccessToken,
		ExpiresAt:   time.Now().Add(time.Duration(token.ExpiresIn) * time.Second),
	}
	if token.RefreshToken != "" {
		cred.RefreshToken = &token.RefreshToken
	}

	return s.credentials.UpsertCredential(ctx, cred)
}

// CreateListing публикует вещь на обеих площадках и сохраняет
// объявление вместе с идентификаторами, выданными площадками.
func (s *ResaleService) CreateListing(ctx context.Context, userID uuid.UUID, in ListingInput) (*models.ResaleListing, error) {
	if err := validateListingInput(in); err != nil {
		return nil, err
	}

	item, err := s.items.GetByID(ctx, in.ClothingItemID)
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		return nil, repository.ErrItemNotFound
	}

	// Проверяем дубликат до походов на площадки, чтобы не публиковать
	// объявление, которое база потом не примет.
	if _, err := s.listings.GetByItem(ctx, item.ID); err == nil {
		return nil, repository.ErrListingExists
	} else if !errors.Is(err, repository.ErrListingNotFound) {
		return nil, err
	}

	accessToken, err := s.ebayAccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	imageURLs := []string{}
	if item.ImageURL != nil {
		imageURLs = append(imageURLs, *item.ImageURL)
	}

	description := ""
	if in.Description != nil {
		description = *in.Description
	}

	ebayResult, err := s.ebay.PublishListing(ctx, accessToken, marketplace.EbayListingDraft{
		Title:       in.Title,
		Description: description,
		Price:       float64(in.PriceCents) / 100,
		Currency:    in.Currency,
		CategoryID:  "11450", // Clothing, Shoes & Accessories
		Condition:   "USED_EXCELLENT",
		ImageURLs:   imageURLs,
		Quantity:    1,
	})
	if err != nil {
		return nil, fmt.Errorf("resale service: публикация на eBay: %w", err)
	}

	imageURL := ""
	if item.ImageURL != nil {
		imageURL = *item.ImageURL
	}

	facebookProductID, err := s.facebook.CreateProduct(ctx, marketplace.FacebookProduct{
		Name:        in.Title,
		Description: description,
		Currency:    in.Currency,
		PriceCents:  in.PriceCents,
		ImageURL:    imageURL,
		RetailerID:  item.ID.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("resale service: публикация в каталоге Facebook: %w", err)
	}

	listing := &models.ResaleListing{
		ClothingItemID:    item.ID,
		UserID:            userID,
		Title:             in.Title,
		Description:       in.Description,
		PriceCents:        in.PriceCents,
		Currency:          in.Currency,
		Status:            models.ListingStatusActive,
		EbaySKU:           &ebayResult.SKU,
		EbayOfferID:       &ebayResult.OfferID,
		FacebookProductID: &facebookProductID,
	}

	if err := s.listings.Create(ctx, listing); err != nil {
		return nil, err
	}

	return listing, nil
}

// GetListing возвращает объявление пользователя.
func (s *ResaleService) GetListing(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*models.ResaleListing, error) {
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.UserID != userID {
		return nil, repository.ErrListingNotFound
	}
	return listing, nil
}

// ListListings возвращает все объявления пользователя.
func (s *ResaleService) ListListings(ctx context.Context, userID uuid.UUID) ([]models.ResaleListing, error) {
	return s.listings.ListByUser(ctx, userID)
}

// UpdateListing меняет объявление в базе и на обеих площадках по
// сохранённым идентификаторам.
func (s *ResaleService) UpdateListing(ctx context.Context, id uuid.UUID, userID uuid.UUID, in ListingInput) (*models.ResaleListing, error) {
	if err := validateListingInput(in); err != nil {
		return nil, err
	}

	listing, err := s.GetListing(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	item, err := s.items.GetByID(ctx, listing.ClothingItemID)
	if err != nil {
		return nil, err
	}

	description := ""
	if in.Description != nil {
		description = *in.Description
	}

	if listing.EbaySKU != nil && listing.EbayOfferID != nil {
		accessToken, err := s.ebayAccessToken(ctx, userID)
		if err != nil {
			return nil, err
		}

		imageURLs := []string{}
		if item.ImageURL != nil {
			imageURLs = append(imageURLs, *item.ImageURL)
		}

		err = s.ebay.UpdateListing(ctx, accessToken, *listing.EbaySKU, *listing.EbayOfferID, marketplace.EbayListingDraft{
			Title:       in.Title,
			Description: description,
			Price:       float64(in.PriceCents) / 100,
			Currency:    in.Currency,
			CategoryID:  "11450",
			Condition:   "USED_EXCELLENT",
			ImageURLs:   imageURLs,
			Quantity:    1,
		})
		if err != nil {
			return nil, fmt.Errorf("resale service: обновление на eBay: %w", err)
		}
	}

	if listing.FacebookProductID != nil {
		imageURL := ""
		if item.ImageURL != nil {
			imageURL = *item.ImageURL
		}

		err = s.facebook.UpdateProduct(ctx, *listing.FacebookProductID, marketplace.FacebookProduct{
			Name:        in.Title,
			Description: description,
			Currency:    in.Currency,
			PriceCents:  in.PriceCents,
			ImageURL:    imageURL,
			RetailerID:  listing.ClothingItemID.String(),
		})
		if err != nil {
			return nil, fmt.Errorf("resale service: обновление в каталоге Facebook: %w", err)
		}
	}

	listing.Title = in.Title
	listing.Description = in.Description
	listing.PriceCents = in.PriceCents
	listing.Currency = in.Currency

	if err := s.listings.Update(ctx, listing); err != nil {
		return nil, err
	}

	return listing, nil
}

// CloseListing помечает объявление проданным или закрытым без
// обращения к площадкам.
func (s *ResaleService) CloseListing(ctx context.Context, id uuid.UUID, userID uuid.UUID, status string) (*models.ResaleListing, error) {
	if status != models.ListingStatusSold && status != models.ListingStatusClosed {
		return nil, fmt.Errorf("resale service: недопустимый статус %q", status)
	}

	listing, err := s.GetListing(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	listing.Status = status
	if err := s.listings.Update(ctx, listing); err != nil {
		return nil, err
	}

	return listing, nil
}

// DeleteListing удаляет объявление из базы и в фоне снимает его с
// площадок. Сбой на стороне площадки не мешает удалению у нас.
func (s *ResaleService) DeleteListing(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	listing, err := s.GetListing(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.listings.Delete(ctx, id, userID); err != nil {
		return err
	}

	if listing.EbaySKU != nil {
		sku := *listing.EbaySKU
		goroutine.SafeGoWithContext(context.WithoutCancel(ctx), func(ctx context.Context) {
			accessToken, err := s.ebayAccessToken(ctx, userID)
			if err != nil {
				logger.Log.WithField("listing_id", id).Warnf("resale service: снятие с eBay: %v", err)
				return
			}
			if err := s.ebay.DeleteListing(ctx, accessToken, sku); err != nil {
				logger.Log.WithField("listing_id", id).Warnf("resale service: снятие с eBay: %v", err)
			}
		})
	}

	if listing.FacebookProductID != nil {
		productID := *listing.FacebookProductID
		goroutine.SafeGoWithContext(context.WithoutCancel(ctx), func(ctx context.Context) {
			if err := s.facebook.DeleteProduct(ctx, productID); err != nil {
				logger.Log.WithField("listing_id", id).Warnf("resale service: снятие с Facebook: %v", err)
			}
		})
	}

	return nil
}

// ebayAccessToken возвращает живой токен eBay пользователя, при
// необходимости обновляя его по refresh-токену.
func (s *ResaleService) ebayAccessToken(ctx context.Context, userID uuid.UUID) (string, error) {
	cred, err := s.credentials.GetCredential(ctx, userID, PlatformEbay)
	if err == nil {
		return cred.AccessToken, nil
	}
	if !errors.Is(err, repository.ErrCredentialNotFound) {
		return "", err
	}

	// Живого access-токена нет; пробуем обновиться по refresh-токену
	// из последней сохранённой записи.
	expired, err := s.credentials.GetStoredCredential(ctx, userID, PlatformEbay)
	if err != nil || expired.RefreshToken == nil {
		return "", ErrEbayNotAuthorized
	}

	token, err := s.ebay.RefreshAccessToken(ctx, *expired.RefreshToken)
	if err != nil {
		return "", ErrEbayNotAuthorized
	}

	refreshed := &models.MarketplaceCredential{
		UserID:      userID,
		Platform:    PlatformEbay,
		AccessToken: token.AccessToken,
		ExpiresAt:   time.Now().Add(time.Duration(token.ExpiresIn) * time.Second),
	}
	if token.RefreshToken != "" {
		refreshed.RefreshToken = &token.RefreshToken
	} else {
		refreshed.RefreshToken = expired.RefreshToken
	}

	if err := s.credentials.UpsertCredential(ctx, refreshed); err != nil {
		return "", err
	}

	return token.AccessToken, nil
}

func validateListingInput(in ListingInput) error {
	if err := validation.ValidateListingTitle(in.Title); err != nil {
		return fmt.Errorf("resale service: %w", err)
	}
	if in.Description != nil {
		if err := validation.ValidateListingDescription(*in.Description); err != nil {
			return fmt.Errorf("resale service: %w", err)
		}
	}
	if err := validation.ValidatePriceCents(in.PriceCents); err != nil {
		return fmt.Errorf("resale service: %w", err)
	}
	if in.Currency == "" {
		return fmt.Errorf("resale service: валюта обязательна")
	}
	return nil
}
