package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/wardrobe-backend/internal/logger"
	"github.com/ignatzorin/wardrobe-backend/internal/marketplace"
	"github.com/ignatzorin/wardrobe-backend/internal/repository"
	"github.com/ignatzorin/wardrobe-backend/internal/service"
)

// ErrorHandler обрабатывает ошибки централизованно.
// Маскирует внутренние ошибки и возвращает понятные сообщения клиенту.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		if len(c.Errors) > 0 {
			err := c.Errors.Last()

			statusCode := http.StatusInternalServerError
			message := "внутренняя ошибка сервера"

			if logger.Log != nil {
				logger.Log.WithFields(logrus.Fields{
					"error":  err.Error(),
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				}).Error("Request error")
			}

			switch {
			case errors.Is(err.Err, repository.ErrUserNotFound):
				statusCode = http.StatusNotFound
				message = "пользователь не найден"
			case errors.Is(err.Err, repository.ErrItemNotFound):
				statusCode = http.StatusNotFound
				message = "вещь не найдена"
			case errors.Is(err.Err, repository.ErrOutfitNotFound):
				statusCode = http.StatusNotFound
				message = "образ не найден"
			case errors.Is(err.Err, repository.ErrWearHistoryNotFound):
				statusCode = http.StatusNotFound
				message = "запись истории носки не найдена"
			case errors.Is(err.Err, repository.ErrListingNotFound):
				statusCode = http.StatusNotFound
				message = "объявление не найдено"
			case errors.Is(err.Err, repository.ErrListingExists):
				statusCode = http.StatusConflict
				message = "объявление для этой вещи уже существует"
			case errors.Is(err.Err, repository.ErrInvalidField):
				statusCode = http.StatusBadRequest
				message = "недопустимое поле фильтра"
			case errors.Is(err.Err, service.ErrEbayNotAuthorized):
				statusCode = http.StatusUnauthorized
				message = "требуется авторизация eBay"
			case errors.Is(err.Err, marketplace.ErrUnauthorized):
				statusCode = http.StatusUnauthorized
				message = "площадка отклонила авторизацию"
			default:
				if err.Error() != "" {
					errStr := err.Error()
					if !containsInternalKeywords(errStr) {
						message = errStr
						if contains(errStr, "неверный") || contains(errStr, "невалид") ||
							contains(errStr, "должен") || contains(errStr, "обязател") ||
							contains(errStr, "недопустим") {
							statusCode = http.StatusBadRequest
						}
					}
				}
			}

			c.JSON(statusCode, gin.H{"error": message})
		}
	}
}

// containsInternalKeywords проверяет, содержит ли строка ключевые слова внутренних ошибок.
func containsInternalKeywords(s string) bool {
	keywords := []string{
		"sql:",
		"database",
		"connection",
		"timeout",
		"internal",
		"panic",
		"runtime",
	}

	for _, keyword := range keywords {
		if contains(s, keyword) {
			return true
		}
	}
	return false
}

// contains проверяет, содержит ли строка подстроку (case-insensitive).
func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
