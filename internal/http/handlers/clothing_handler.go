package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/wardrobe-backend/internal/http/handlers/common"
	"github.com/ignatzorin/wardrobe-backend/internal/service"
)

// ClothingHandler предоставляет CRUD по вещам гардероба.
type ClothingHandler struct {
	wardrobe *service.WardrobeService
}

// NewClothingHandler создаёт хэндлер.
func NewClothingHandler(wardrobe *service.WardrobeService) *ClothingHandler {
	return &ClothingHandler{wardrobe: wardrobe}
}

type itemRequest struct {
	Name     string  `json:"name" binding:"required"`
	Size     *string `json:"size"`
	Color    *string `json:"color"`
	Style    *string `json:"style"`
	Brand    *string `json:"brand"`
	Tag      *string `json:"tag"`
	Category string  `json:"category" binding:"required"`
}

func (r itemRequest) toInput() service.ItemInput {
	return service.ItemInput{
		Name:     r.Name,
		Size:     r.Size,
		Color:    r.Color,
		Style:    r.Style,
		Brand:    r.Brand,
		Tag:      r.Tag,
		Category: r.Category,
	}
}

// List обрабатывает GET /clothes.
func (h *ClothingHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	items, err := h.wardrobe.ListItems(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Get обрабатывает GET /clothes/:id.
func (h *ClothingHandler) Get(c *gin.Context) {
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

	item, err := h.wardrobe.GetItem(c.Request.Context(), id, userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item})
}

// Create обрабатывает POST /clothes — ручное добавление вещи.
func (h *ClothingHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req itemRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.wardrobe.CreateItem(c.Request.Context(), userID, req.toInput())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// Update обрабатывает PUT /clothes/:id.
func (h *ClothingHandler) Update(c *gin.Context) {
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

	var req itemRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.wardrobe.UpdateItem(c.Request.Context(), id, userID, req.toInput())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item})
}

// Delete обрабатывает DELETE /clothes/:id.
func (h *ClothingHandler) Delete(c *gin.Context) {
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

	if err := h.wardrobe.DeleteItem(c.Request.Context(), id, userID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "вещь удалена"})
}

// MarkWorn обрабатывает POST /clothes/:id/worn. Повторный вызов для уже
// ношеной вещи отвечает так же успешно.
func (h *ClothingHandler) MarkWorn(c *gin.Context) {
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

	if err := h.wardrobe.MarkWorn(c.Request.Context(), id, userID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "вещь помечена ношеной"})
}
