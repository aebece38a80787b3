package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/wardrobe-backend/internal/http/handlers/common"
	"github.com/ignatzorin/wardrobe-backend/internal/service"
)

// EbayAuthConfig содержит параметры для построения ссылки авторизации.
type EbayAuthConfig struct {
	AuthorizeURL string
	ClientID     string
	RedirectURI  string
	Scope        string
}

// ResaleHandler управляет объявлениями и авторизацией на площадках.
type ResaleHandler struct {
	resale   *service.ResaleService
	ebayAuth EbayAuthConfig
}

// NewResaleHandler создаёт хэндлер.
func NewResaleHandler(resale *service.ResaleService, ebayAuth EbayAuthConfig) *ResaleHandler {
	return &ResaleHandler{resale: resale, ebayAuth: ebayAuth}
}

type listingRequest struct {
	ClothingItemID string  `json:"clothing_item_id"`
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	PriceCents     int64   `json:"price_cents"`
	Currency       string  `json:"currency"`
}

func (r listingRequest) toInput() (service.ListingInput, error) {
	itemID, err := uuid.Parse(r.ClothingItemID)
	if err != nil {
		return service.ListingInput{}, common.ErrInvalidUUID
	}
	return service.ListingInput{
		ClothingItemID: itemID,
		Title:          r.Title,
		Description:    r.Description,
		PriceCents:     r.PriceCents,
		Currency:       r.Currency,
	}, nil
}

// EbayAuthURL обрабатывает GET /ebay/auth/url и возвращает ссылку,
// на которую фронтенд отправляет пользователя за кодом авторизации.
func (h *ResaleHandler) EbayAuthURL(c *gin.Context) {
	if _, err := common.CurrentUserID(c); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	if h.ebayAuth.ClientID == "" || h.ebayAuth.RedirectURI == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "интеграция с eBay не настроена"})
		return
	}

	params := url.Values{}
	params.Set("client_id", h.ebayAuth.ClientID)
	params.Set("redirect_uri", h.ebayAuth.RedirectURI)
	params.Set("response_type", "code")
	params.Set("scope", h.ebayAuth.Scope)

	c.JSON(http.StatusOK, gin.H{"url": h.ebayAuth.AuthorizeURL + "?" + params.Encode()})
}

// EbayAuthorize обрабатывает POST /ebay/auth: принимает код авторизации
// и сохраняет полученные токены за текущим пользователем.
func (h *ResaleHandler) EbayAuthorize(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "код авторизации обязателен"})
		return
	}

	if err := h.resale.AuthorizeEbay(c.Request.Context(), userID, req.Code); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "authorized"})
}

// Create обрабатывает POST /listings.
func (h *ResaleHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req listingRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing, err := h.resale.CreateListing(c.Request.Context(), userID, input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"listing": listing})
}

// List обрабатывает GET /listings.
func (h *ResaleHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	listings, err := h.resale.ListListings(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"listings": listings})
}

// Get обрабатывает GET /listings/:id.
func (h *ResaleHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing, err := h.resale.GetListing(c.Request.Context(), id, userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"listing": listing})
}

// Update обрабатывает PUT /listings/:id и переносит изменения
// на обе площадки.
func (h *ResaleHandler) Update(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req listingRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing, err := h.resale.UpdateListing(c.Request.Context(), id, userID, input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"listing": listing})
}

// Close обрабатывает PATCH /listings/:id/close: помечает объявление
// проданным или закрытым, не трогая публикации на площадках.
func (h *ResaleHandler) Close(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing, err := h.resale.CloseListing(c.Request.Context(), id, userID, req.Status)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"listing": listing})
}

// Delete обрабатывает DELETE /listings/:id.
func (h *ResaleHandler) Delete(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.resale.DeleteListing(c.Request.Context(), id, userID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
