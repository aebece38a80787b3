package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// FacebookProduct описывает товар каталога Facebook Shops.
// Цена передаётся в минорных единицах валюты.
type FacebookProduct struct {
	Name        string
	Description string
	Currency    string
	PriceCents  int64
	ImageURL    string
	RetailerID  string
	WebsiteLink string
}

// FacebookClient — клиент Graph API для каталога товаров. Идентификатор
// товара возвращается при создании и сохраняется в базе, поиск по
// имени не используется.
type FacebookClient struct {
	baseURL     string
	catalogID   string
	accessToken string
	httpClient  *http.Client
}

// NewFacebookClient создаёт клиента Graph API.
func NewFacebookClient(baseURL, catalogID, accessToken string, timeout time.Duration) *FacebookClient {
	if baseURL == "" {
		baseURL = "https://graph.facebook.com/v22.0"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FacebookClient{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		catalogID:   catalogID,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// CreateProduct добавляет товар в каталог и возвращает его идентификатор.
func (c *FacebookClient) CreateProduct(ctx context.Context, product FacebookProduct) (string, error) {
	var result struct {
		ID string `json:"id"`
	}

	if err := c.postForm(ctx, "/"+c.catalogID+"/products", productForm(product), &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fmt.Errorf("facebook: пустой id товара в ответе")
	}

	return result.ID, nil
}

// UpdateProduct обновляет товар по сохранённому идентификатору.
func (c *FacebookClient) UpdateProduct(ctx context.Context, productID string, product FacebookProduct) error {
	return c.postForm(ctx, "/"+productID, productForm(product), nil)
}

// DeleteProduct удаляет товар из каталога.
func (c *FacebookClient) DeleteProduct(ctx context.Context, productID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/"+productID, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("facebook: удаление товара: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("facebook: удаление товара: %w", ErrUnauthorized)
	}
	if resp.StatusCode >= 400 {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("facebook: удаление товара: код ответа %d: %s", resp.StatusCode, string(responseBody))
	}

	return nil
}

func (c *FacebookClient) postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("facebook: запрос %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("facebook: %s: %w", path, ErrUnauthorized)
	}
	if resp.StatusCode >= 400 {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("facebook: %s: код ответа %d: %s", path, resp.StatusCode, string(responseBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("facebook: разбор ответа %s: %w", path, err)
		}
	}

	return nil
}

func productForm(product FacebookProduct) url.Values {
	websiteLink := product.WebsiteLink
	if websiteLink == "" {
		websiteLink = "https://www.facebook.com/business/shops"
	}

	form := url.Values{}
	form.Set("name", product.Name)
	form.Set("currency", product.Currency)
	form.Set("price", strconv.FormatInt(product.PriceCents, 10))
	form.Set("image_url", product.ImageURL)
	form.Set("retailer_id", product.RetailerID)
	form.Set("url", websiteLink)
	form.Set("description", product.Description)
	return form
}
