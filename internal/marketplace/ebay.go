package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrUnauthorized возвращается, когда площадка отвергает токен доступа.
var ErrUnauthorized = errors.New("marketplace: авторизация отклонена площадкой")

// EbayToken — результат обмена кода авторизации или refresh-токена.
type EbayToken struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// EbayListingDraft описывает объявление для публикации на eBay.
type EbayListingDraft struct {
	Title       string
	Description string
	Price       float64
	Currency    string
	CategoryID  string
	Condition   string
	ImageURLs   []string
	Quantity    int
}

// EbayListingResult — идентификаторы, выданные eBay при публикации.
// Они сохраняются в базе, чтобы не искать объявление заново.
type EbayListingResult struct {
	SKU       string
	OfferID   string
	ListingID string
}

// EbayClient — клиент Sell Inventory API eBay. Публикация идёт в два
// шага: inventory item по SKU, затем offer, затем publish.
type EbayClient struct {
	baseURL     string
	authHeader  string
	redirectURI string
	httpClient  *http.Client
}

// NewEbayClient создаёт клиента. authHeader — base64(client_id:client_secret)
// для Basic-авторизации токен-эндпоинта.
func NewEbayClient(baseURL, authHeader, redirectURI string, timeout time.Duration) *EbayClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &EbayClient{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		authHeader:  authHeader,
		redirectURI: redirectURI,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// ExchangeCode обменивает код авторизации на пару токенов.
func (c *EbayClient) ExchangeCode(ctx context.Context, code string) (*EbayToken, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.redirectURI)

	return c.requestToken(ctx, form)
}

// RefreshAccessToken обновляет токен доступа по refresh-токену.
func (c *EbayClient) RefreshAccessToken(ctx context.Context, refreshToken string) (*EbayToken, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	return c.requestToken(ctx, form)
}

func (c *EbayClient) requestToken(ctx context.Context, form url.Values) (*EbayToken, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost,
		c.baseURL+"/identity/v1/oauth2/token",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Basic "+c.authHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ebay: запрос токена: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		return nil, fmt.Errorf("ebay: не удалось получить токен: %w", ErrUnauthorized)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("ebay: код ответа токен-эндпоинта %d", resp.StatusCode)
	}

	var token EbayToken
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("ebay: разбор ответа токена: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("ebay: пустой access_token в ответе")
	}

	return &token, nil
}

// PublishListing создаёт и публикует объявление целиком:
// inventory item, offer, publish.
func (c *EbayClient) PublishListing(ctx context.Context, accessToken string, draft EbayListingDraft) (*EbayListingResult, error) {
	sku := generateSKU(draft.Title)

	if err := c.putInventoryItem(ctx, accessToken, sku, draft); err != nil {
		return nil, err
	}

	offerID, err := c.createOffer(ctx, accessToken, sku, draft)
	if err != nil {
		return nil, err
	}

	listingID, err := c.publishOffer(ctx, accessToken, offerID)
	if err != nil {
		return nil, err
	}

	return &EbayListingResult{SKU: sku, OfferID: offerID, ListingID: listingID}, nil
}

// UpdateListing обновляет опубликованное объявление по сохранённым
// sku и offerID.
func (c *EbayClient) UpdateListing(ctx context.Context, accessToken, sku, offerID string, draft EbayListingDraft) error {
	if err := c.putInventoryItem(ctx, accessToken, sku, draft); err != nil {
		return err
	}

	payload := map[string]any{
		"availableQuantity": draft.Quantity,
		"categoryId":        draft.CategoryID,
		"listingDescription": draft.Description,
		"pricingSummary": map[string]any{
			"price": map[string]any{
				"value":    fmt.Sprintf("%.2f", draft.Price),
				"currency": draft.Currency,
			},
		},
	}

	return c.do(ctx, accessToken, http.MethodPut, "/sell/inventory/v1/offer/"+offerID, payload, nil)
}

// DeleteListing удаляет inventory item. eBay удаляет связанные offers
// вместе с ним.
func (c *EbayClient) DeleteListing(ctx context.Context, accessToken, sku string) error {
	return c.do(ctx, accessToken, http.MethodDelete, "/sell/inventory/v1/inventory_item/"+sku, nil, nil)
}

func (c *EbayClient) putInventoryItem(ctx context.Context, accessToken, sku string, draft EbayListingDraft) error {
	payload := map[string]any{
		"availability": map[string]any{
			"shipToLocationAvailability": map[string]any{
				"quantity": draft.Quantity,
			},
		},
		"condition": draft.Condition,
		"product": map[string]any{
			"title":       draft.Title,
			"description": draft.Description,
			"imageUrls":   draft.ImageURLs,
			"aspects":     map[string]any{},
		},
	}

	return c.do(ctx, accessToken, http.MethodPut, "/sell/inventory/v1/inventory_item/"+sku, payload, nil)
}

func (c *EbayClient) createOffer(ctx context.Context, accessToken, sku string, draft EbayListingDraft) (string, error) {
	payload := map[string]any{
		"sku":                sku,
		"marketplaceId":      "EBAY_US",
		"format":             "FIXED_PRICE",
		"availableQuantity":  draft.Quantity,
		"categoryId":         draft.CategoryID,
		"listingDescription": draft.Description,
		"pricingSummary": map[string]any{
			"price": map[string]any{
				"value":    fmt.Sprintf("%.2f", draft.Price),
				"currency": draft.Currency,
			},
		},
		"listingDuration":     "GTC",
		"merchantLocationKey": "default",
	}

	var result struct {
		OfferID string `json:"offerId"`
	}
	if err := c.do(ctx, accessToken, http.MethodPost, "/sell/inventory/v1/offer", payload, &result); err != nil {
		return "", err
	}
	if result.OfferID == "" {
		return "", fmt.Errorf("ebay: пустой offerId в ответе")
	}

	return result.OfferID, nil
}

func (c *EbayClient) publishOffer(ctx context.Context, accessToken, offerID string) (string, error) {
	var result struct {
		ListingID string `json:"listingId"`
	}
	if err := c.do(ctx, accessToken, http.MethodPost, "/sell/inventory/v1/offer/"+offerID+"/publish", nil, &result); err != nil {
		return "", err
	}

	return result.ListingID, nil
}

// do выполняет авторизованный JSON-запрос к Sell API.
func (c *EbayClient) do(ctx context.Context, accessToken, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ebay: запрос %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("ebay: %s %s: %w", method, path, ErrUnauthorized)
	}
	if resp.StatusCode >= 400 {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("ebay: %s %s: код ответа %d: %s", method, path, resp.StatusCode, string(responseBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("ebay: разбор ответа %s %s: %w", method, path, err)
		}
	}

	return nil
}

// generateSKU формирует уникальный SKU по названию вещи.
func generateSKU(title string) string {
	base := strings.ToLower(strings.TrimSpace(title))
	base = strings.ReplaceAll(base, " ", "-")
	if len(base) > 40 {
		base = base[:40]
	}
	return fmt.Sprintf("wardrobe-%s-%s", base, uuid.New().String()[:8])
}
