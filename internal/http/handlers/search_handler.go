package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/wardrobe-backend/internal/http/handlers/common"
	"github.com/ignatzorin/wardrobe-backend/internal/models"
	"github.com/ignatzorin/wardrobe-backend/internal/service"
)

// SearchHandler предоставляет фильтрацию по полям и смысловой поиск.
type SearchHandler struct {
	search *service.SearchService
}

// NewSearchHandler создаёт хэндлер.
func NewSearchHandler(search *service.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

// FilterItems обрабатывает POST /clothes/by-field. Каждое поле — список
// допустимых значений; пустой список не ограничивает поле.
func (h *SearchHandler) FilterItems(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var filter models.ItemFilter
	if err := common.BindAndValidate(c, &filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := h.search.FilterItems(c.Request.Context(), userID, filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// UniqueValues обрабатывает GET /clothes/unique-values?field=...
func (h *SearchHandler) UniqueValues(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	field := c.Query("field")
	if field == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "параметр field обязателен"})
		return
	}

	values, err := h.search.UniqueValues(c.Request.Context(), userID, field)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"field": field, "values": values})
}

// SearchItems обрабатывает GET /clothes/search?q=...
func (h *SearchHandler) SearchItems(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	query := c.Query("q")
	items, err := h.search.SearchItems(c.Request.Context(), userID, query)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// SearchOutfits обрабатывает GET /outfits/search?q=...
func (h *SearchHandler) SearchOutfits(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	query := c.Query("q")
	outfits, err := h.search.SearchOutfits(c.Request.Context(), userID, query)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"outfits": outfits})
}
