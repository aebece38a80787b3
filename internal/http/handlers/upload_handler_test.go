package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestUploadHandler_UploadItems_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &UploadHandler{wardrobe: nil, outfits: nil}
	r.POST("/images", handler.UploadItems)

	req, _ := http.NewRequest("POST", "/images", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUploadHandler_UploadItems_MissingFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &UploadHandler{wardrobe: nil, outfits: nil}
	r.POST("/images", withTestUser(), handler.UploadItems)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	writer.Close()

	req, _ := http.NewRequest("POST", "/images", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "file")
}

func TestUploadHandler_UploadItems_BadExtension(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &UploadHandler{wardrobe: nil, outfits: nil}
	r.POST("/images", withTestUser(), handler.UploadItems)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("file", "notes.txt")
	part.Write([]byte("plain text"))
	writer.Close()

	req, _ := http.NewRequest("POST", "/images", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadHandler_UploadItems_FakeImage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &UploadHandler{wardrobe: nil, outfits: nil}
	r.POST("/images", withTestUser(), handler.UploadItems)

	// Расширение картинки, но содержимое не проходит проверку магических байтов.
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("file", "photo.jpg")
	part.Write([]byte("definitely not a jpeg"))
	writer.Close()

	req, _ := http.NewRequest("POST", "/images", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadHandler_UploadOutfit_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &UploadHandler{wardrobe: nil, outfits: nil}
	r.POST("/outfits/upload", handler.UploadOutfit)

	req, _ := http.NewRequest("POST", "/outfits/upload", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
