package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"

	"github.com/ignatzorin/wardrobe-backend/internal/http/handlers/common"
	"github.com/ignatzorin/wardrobe-backend/internal/service"
)

// Разрешённые типы файлов для загрузки
var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
}

// Разрешённые расширения файлов
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".heic": true,
}

// UploadHandler принимает фотографии вещей и образов.
type UploadHandler struct {
	wardrobe *service.WardrobeService
	outfits  *service.OutfitService
}

// NewUploadHandler создаёт хэндлер загрузки.
func NewUploadHandler(wardrobe *service.WardrobeService, outfits *service.OutfitService) *UploadHandler {
	return &UploadHandler{wardrobe: wardrobe, outfits: outfits}
}

// UploadItems обрабатывает POST /images: фотография одной или нескольких
// вещей, каждая распознанная вещь заводится в гардеробе.
func (h *UploadHandler) UploadItems(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	filename, contentType, reader, ok := openValidatedImage(c)
	if !ok {
		return
	}

	items, err := h.wardrobe.UploadImage(c.Request.Context(), userID, filename, contentType, reader)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"items": items})
}

// UploadOutfit обрабатывает POST /outfits/upload: фотография образа,
// из которой собирается Outfit со ссылками на вещи пользователя.
func (h *UploadHandler) UploadOutfit(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	filename, contentType, reader, ok := openValidatedImage(c)
	if !ok {
		return
	}

	outfit, matchedIDs, err := h.outfits.UploadOutfit(c.Request.Context(), userID, filename, contentType, reader)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"outfit":       outfit,
		"matched_ids":  matchedIDs,
		"matched_size": len(matchedIDs),
	})
}

// openValidatedImage достаёт файл из multipart-формы и проверяет, что
// это изображение: по расширению и по магическим байтам. При ошибке
// ответ уже записан, вызывающий код просто выходит.
func openValidatedImage(c *gin.Context) (string, string, io.Reader, bool) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "поле file обязательно"})
		return "", "", nil, false
	}

	if file.Size == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "файл не может быть пустым"})
		return "", "", nil, false
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("неподдерживаемый формат файла %s", ext),
		})
		return "", "", nil, false
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return "", "", nil, false
	}

	// Читаем первые 512 байт для проверки магических байтов
	header := make([]byte, 512)
	n, err := src.Read(header)
	if err != nil && err != io.EOF {
		src.Close()
		c.JSON(http.StatusBadRequest, gin.H{"error": "не удалось прочитать файл"})
		return "", "", nil, false
	}

	kind, err := filetype.Match(header[:n])
	if err != nil || kind == filetype.Unknown {
		src.Close()
		c.JSON(http.StatusBadRequest, gin.H{"error": "не удалось определить тип файла. Разрешены только изображения"})
		return "", "", nil, false
	}

	contentType := kind.MIME.Value
	if !allowedMimeTypes[contentType] {
		src.Close()
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("неподдерживаемый тип файла (%s). Разрешены только изображения", contentType),
		})
		return "", "", nil, false
	}

	// Прочитанный заголовок склеиваем обратно с остатком файла.
	reader := io.MultiReader(bytes.NewReader(header[:n]), src)

	return file.Filename, contentType, reader, true
}
