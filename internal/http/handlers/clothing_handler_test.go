package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/wardrobe-backend/internal/http/middleware"
)

// withTestUser подставляет userID в контекст, как это делает AuthMiddleware.
func withTestUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, uuid.New())
	}
}

func TestClothingHandler_List_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ClothingHandler{wardrobe: nil}
	r.GET("/clothes", handler.List)

	req, _ := http.NewRequest("GET", "/clothes", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestClothingHandler_Get_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ClothingHandler{wardrobe: nil}
	r.GET("/clothes/:id", handler.Get)

	req, _ := http.NewRequest("GET", "/clothes/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestClothingHandler_Get_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ClothingHandler{wardrobe: nil}
	r.GET("/clothes/:id", withTestUser(), handler.Get)

	req, _ := http.NewRequest("GET", "/clothes/not-a-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClothingHandler_Create_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ClothingHandler{wardrobe: nil}
	r.POST("/clothes", handler.Create)

	req, _ := http.NewRequest("POST", "/clothes", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestClothingHandler_MarkWorn_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ClothingHandler{wardrobe: nil}
	r.POST("/clothes/:id/worn", withTestUser(), handler.MarkWorn)

	req, _ := http.NewRequest("POST", "/clothes/bad-id/worn", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
